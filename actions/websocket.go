package actions

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/centrifugal/centrifuge"
	"github.com/centrifugal/protocol"
	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog/log"
	"gitlab.com/unchained-card/card_api/model"
	"gitlab.com/unchained-card/card_api/service"
)

// cardWatchers cancels the provisioning waits started for the subscriptions of one client
type cardWatchers struct {
	lock    sync.Mutex
	cancels map[string]context.CancelFunc
}

func (w *cardWatchers) add(channel string, cancel context.CancelFunc) {
	w.lock.Lock()
	defer w.lock.Unlock()
	if previous, ok := w.cancels[channel]; ok {
		previous()
	}
	w.cancels[channel] = cancel
}

func (w *cardWatchers) stop(channel string) {
	w.lock.Lock()
	defer w.lock.Unlock()
	if cancel, ok := w.cancels[channel]; ok {
		cancel()
		delete(w.cancels, channel)
	}
}

func (w *cardWatchers) stopAll() {
	w.lock.Lock()
	defer w.lock.Unlock()
	for channel, cancel := range w.cancels {
		cancel()
		delete(w.cancels, channel)
	}
}

// StartNode configure a centrifuge node and start processing messages
func (actions *Actions) StartNode() *centrifuge.Node {
	log.Info().Str("worker", "websocket").Str("action", "start").Msg("Websocket worker - started")
	cfg := centrifuge.DefaultConfig
	cfg.LogLevel = centrifuge.LogLevelInfo
	cfg.LogHandler = handleLog

	node, err := centrifuge.New(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("unable to start WebSocket Node")
	}

	// wallets are public, every visitor connects anonymously
	node.OnConnecting(func(ctx context.Context, e centrifuge.ConnectEvent) (centrifuge.ConnectReply, error) {
		return centrifuge.ConnectReply{
			Data:        protocol.Raw(`{}`),
			Credentials: &centrifuge.Credentials{UserID: ""},
		}, nil
	})

	node.OnConnect(func(client *centrifuge.Client) {
		watchers := &cardWatchers{cancels: map[string]context.CancelFunc{}}

		client.OnSubscribe(func(e centrifuge.SubscribeEvent, callback centrifuge.SubscribeCallback) {
			wallet, ok := service.WalletFromChannel(e.Channel)
			if !ok {
				log.Debug().Str("section", "websocket").Str("action", "node:subscribe").Msgf("Unknown channel %s", e.Channel)
				callback(centrifuge.SubscribeReply{}, centrifuge.ErrorUnknownChannel)
				return
			}
			log.Debug().Str("section", "websocket").Str("action", "node:subscribe").Msgf("Subscribing to channel %s", e.Channel)
			callback(centrifuge.SubscribeReply{Options: centrifuge.SubscribeOptions{ExpireAt: time.Now().Unix() + 24*60*60}}, nil)

			route := actions.sendCurrentRoute(client, wallet)
			if route == model.RouteWaiting {
				ctx, cancel := context.WithCancel(actions.ctx)
				watchers.add(e.Channel, cancel)
				go actions.watchProvisioning(ctx, client, wallet)
			}
		})

		client.OnSubRefresh(func(e centrifuge.SubRefreshEvent, callback centrifuge.SubRefreshCallback) {
			callback(centrifuge.SubRefreshReply{
				ExpireAt: time.Now().Unix() + 24*60*60,
			}, nil)
		})

		client.OnUnsubscribe(func(e centrifuge.UnsubscribeEvent) {
			watchers.stop(e.Channel)
			log.Debug().Str("section", "websocket").Str("action", "node:Unsubscribe").Msgf("Unsubscribe to channel %s", e.Channel)
		})

		client.OnDisconnect(func(e centrifuge.DisconnectEvent) {
			watchers.stopAll()
		})

		// only the server publishes status updates
		client.OnPublish(func(e centrifuge.PublishEvent, publishCallback centrifuge.PublishCallback) {
			publishCallback(centrifuge.PublishReply{}, centrifuge.ErrorPermissionDenied)
		})

		client.OnRefresh(func(e centrifuge.RefreshEvent, callback centrifuge.RefreshCallback) {
			callback(centrifuge.RefreshReply{
				ExpireAt: time.Now().Unix() + 60*60,
			}, nil)
		})
	})

	engine, err := centrifuge.NewMemoryBroker(node, centrifuge.MemoryBrokerConfig{})
	if err != nil {
		log.Fatal().Err(err).
			Str("section", "websocket").
			Str("action", "node:init").
			Msg("Unable to set memory engine")
	}
	node.SetBroker(engine)
	if err := node.Run(); err != nil {
		log.Fatal().Err(err).
			Str("section", "websocket").
			Str("action", "node:init").
			Msg("Unable to start websocket server node")
	}

	actions.node = node
	return node
}

// StopNode godoc
func (actions *Actions) StopNode(ctx context.Context) error {
	log.Info().Str("worker", "websocket").Str("action", "stop").Msg("Websocket worker - stopped")
	if actions.node == nil {
		return nil
	}
	return actions.node.Shutdown(ctx)
}

// NewWebsocketHandler serves the centrifuge protocol over websocket
func (actions *Actions) NewWebsocketHandler() http.Handler {
	return centrifuge.NewWebsocketHandler(actions.node, centrifuge.WebsocketConfig{
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	})
}

// NewSockjsHandler serves the same node for browsers without websocket support
func (actions *Actions) NewSockjsHandler(prefix string) http.Handler {
	return centrifuge.NewSockjsHandler(actions.node, centrifuge.SockjsConfig{
		URL:           "https://cdn.jsdelivr.net/npm/sockjs-client@1/dist/sockjs.min.js",
		HandlerPrefix: prefix,
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
		WebsocketCheckOrigin: func(r *http.Request) bool {
			return true
		},
	})
}

// sendCurrentRoute pushes the route of the wallet to the new subscriber and returns it
func (actions *Actions) sendCurrentRoute(client *centrifuge.Client, wallet string) model.Route {
	route, _, err := actions.service.ResolveRoute(actions.ctx, wallet)
	if err != nil {
		log.Error().Err(err).Str("section", "websocket").Str("action", "node:subscribe").Str("wallet", wallet).Msg("Unable to resolve route")
		return ""
	}
	sendStatus(client, &model.CardStatusEvent{Wallet: wallet, Route: route, Event: model.CardStatusEventCurrent})
	return route
}

func (actions *Actions) watchProvisioning(ctx context.Context, client *centrifuge.Client, wallet string) {
	if _, err := actions.service.WaitForCard(ctx, wallet); err != nil {
		return
	}
	sendStatus(client, &model.CardStatusEvent{Wallet: wallet, Route: model.RouteDashboard, Event: model.CardStatusEventReady})
}

func sendStatus(client *centrifuge.Client, event *model.CardStatusEvent) {
	data, err := jsoniter.Marshal(event)
	if err != nil {
		return
	}
	if err := client.Send(data); err != nil {
		log.Error().Err(err).Str("section", "websocket").Str("action", "node:send").Str("wallet", event.Wallet).Msg("Unable to send card status")
	}
}

func handleLog(e centrifuge.LogEntry) {
	lev := log.
		With().
		Str("section", "websocket").
		Str("action", "event:log").
		Str("ws_log", fmt.Sprintf("%#v", e.Fields)).
		Logger()
	switch e.Level {
	case centrifuge.LogLevelDebug:
		lev.Debug().Msg(e.Message)
	case centrifuge.LogLevelInfo:
		lev.Info().Msg(e.Message)
	case centrifuge.LogLevelError:
		lev.Error().Msg(e.Message)
	}
}
