package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/mediocregopher/radix/v3"
	"github.com/rs/zerolog/log"

	"gitlab.com/unchained-card/card_api/actions"
	"gitlab.com/unchained-card/card_api/apps/oracle"
	"gitlab.com/unchained-card/card_api/cache/processed"
	"gitlab.com/unchained-card/card_api/config"
	"gitlab.com/unchained-card/card_api/crons"
	"gitlab.com/unchained-card/card_api/featureflags"
	"gitlab.com/unchained-card/card_api/lib/cashwyre"
	"gitlab.com/unchained-card/card_api/lib/chain"
	"gitlab.com/unchained-card/card_api/lib/gostop"
	"gitlab.com/unchained-card/card_api/lib/sendgrid"
	"gitlab.com/unchained-card/card_api/lib/telegram"
	"gitlab.com/unchained-card/card_api/monitor"
	"gitlab.com/unchained-card/card_api/net/kafka"
	"gitlab.com/unchained-card/card_api/net/redis"
	"gitlab.com/unchained-card/card_api/queries"
	"gitlab.com/unchained-card/card_api/service"
)

// Server interface
type Server interface {
	Listen()
}

type server struct {
	config   config.Config
	actions  *actions.Actions
	service  *service.Service
	repo     *queries.Repo
	redis    *radix.Pool
	producer *kafka.Producer
	ctx      context.Context
	close    context.CancelFunc
	HTTP     *http.Server
}

// NewServer connects every collaborator of the service and starts the websocket node
func NewServer(cfg config.Config) Server {
	ctx, close := context.WithCancel(context.Background())

	repo, err := queries.Open(cfg.DatabaseCluster)
	if err != nil {
		log.Fatal().Str("section", "server").Err(err).Msg("Unable to connect to the database")
	}

	srv := &server{
		config: cfg,
		repo:   repo,
		ctx:    ctx,
		close:  close,
	}

	opts := service.Options{
		Users:   repo,
		Gateway: cashwyre.NewClient(cfg.Cashwyre),
		Chain:   chain.NewClient(cfg.Chain.RPCURL, cfg.Chain.Timeout),
	}

	priceOracle := oracle.NewApp(cfg.Oracle.URL, cfg.Oracle.TokenID, cfg.Oracle.GetFallbackPrice(), cfg.Oracle.Timeout)
	opts.Price = priceOracle

	if cfg.Telegram.Enabled() {
		opts.Notifier = telegram.New(cfg.Telegram)
	} else {
		log.Warn().Str("section", "server").Msg("Telegram notifications are not configured")
	}
	if mailer := sendgrid.NewSendgrid(cfg.Server.Sendgrid.Key, cfg.Server.Sendgrid.From, cfg.Server.Sendgrid.To); mailer.Enabled() {
		opts.Mailer = mailer
	}

	// claimed hashes are shared between instances when redis is available
	if cfg.Redis.Enabled() {
		pool, err := redis.Connect(cfg.Redis)
		if err != nil {
			log.Fatal().Str("section", "server").Err(err).Msg("Unable to connect to redis")
		}
		srv.redis = pool
		opts.Processed = processed.NewRedis(pool, cfg.Payments.ProcessedTTL)
	}
	if cfg.Kafka.Enabled() {
		srv.producer = kafka.NewProducer(cfg.Kafka)
		opts.Events = srv.producer
	}

	dataServices := service.NewService(ctx, cfg, opts)

	// initiate the websocket node first so status updates have somewhere to go
	userActions := actions.NewActions(cfg, dataServices, ctx)
	dataServices.WsNode = userActions.StartNode()

	crons.Start(cfg.Crons, crons.Jobs{Oracle: priceOracle, Sweeper: dataServices})

	srv.service = dataServices
	srv.actions = userActions
	return srv
}

// Listen starts the http listeners and blocks until a termination signal
func (srv *server) Listen() {
	gostop.GetInstance().Go("payment_watchers", srv.paymentWatchers, true)

	// start the http server
	go srv.ListenToRequests()
	go monitor.LoopProfilingServer(srv.config.Server.Monitoring)

	srv.stopOnSignal()
}

// paymentWatchers stops the receipt watchers of the service once the worker is cancelled
func (srv *server) paymentWatchers(ctx context.Context, wait *sync.WaitGroup) {
	<-ctx.Done()
	srv.close()
	srv.service.Wait()
	log.Info().Str("worker", "payment_watchers").Str("action", "stop").Msg("Payment watchers - stopped")
	wait.Done()
}

func (srv *server) stopOnSignal() {
	// listen for termination signals
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigc

	log.Info().Str("section", "server").Str("app_event", "terminate").Str("signal", sig.String()).Msg("Shutting down services")
	timeout := srv.config.Server.API.ShutdownTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	srv.closeApp(timeout)
}

func (srv *server) closeApp(timeout time.Duration) {
	// define a timeout in which the graceful shutdown procedure should happen before forcing the shutdown
	timeoutFunc := time.AfterFunc(timeout, func() {
		log.Printf("timeout %d ms has been elapsed, force exit", timeout.Milliseconds())
		os.Exit(0)
	})
	defer timeoutFunc.Stop()

	monitor.ShutdownServer()
	if srv.HTTP != nil {
		if err := srv.HTTP.Shutdown(context.Background()); err != nil {
			log.Error().Err(err).Str("section", "server").Str("action", "terminate").Msg("Unable to shutdown HTTP server")
		}
	}

	crons.Close()

	// pending receipts are dropped, a restart picks them up again when the wallet reports them
	gostop.GetInstance().CancelAndWait("payment_watchers")

	if err := srv.actions.StopNode(context.Background()); err != nil {
		log.Error().Err(err).Str("worker", "websocket").Str("action", "stop").Msg("Unable to shutdown websocket node")
	}

	if srv.producer != nil {
		if err := srv.producer.Close(); err != nil {
			log.Error().Err(err).Str("section", "server").Str("action", "terminate").Msg("Unable to close kafka producer")
		}
	}
	if srv.redis != nil {
		if err := srv.redis.Close(); err != nil {
			log.Error().Err(err).Str("section", "server").Str("action", "terminate").Msg("Unable to close redis pool")
		}
	}

	featureflags.Close()
	// make sure database connection is closed on program exit
	srv.repo.Close()

	log.Info().Str("section", "server").Str("app_event", "terminate").Str("state", "complete").Msg("All workers terminated")
}
