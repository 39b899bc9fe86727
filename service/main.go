package service

import (
	"context"
	"math/big"
	"sync"
	"time"

	"github.com/centrifugal/centrifuge"
	"github.com/ericlagergren/decimal"
	"github.com/rs/zerolog/log"
	"gitlab.com/unchained-card/card_api/cache/cardview"
	"gitlab.com/unchained-card/card_api/cache/pending"
	"gitlab.com/unchained-card/card_api/cache/processed"
	"gitlab.com/unchained-card/card_api/config"
	"gitlab.com/unchained-card/card_api/featureflags"
	"gitlab.com/unchained-card/card_api/lib/chain"
	"gitlab.com/unchained-card/card_api/model"
)

// UserStore persists one record per wallet
type UserStore interface {
	GetUserByWallet(ctx context.Context, wallet string) (*model.User, error)
	CreateUser(ctx context.Context, user *model.User) error
	AttachCard(ctx context.Context, wallet, cardCode, customerCode string) error
}

// CardGateway reads live card data from the issuer
type CardGateway interface {
	GetCard(ctx context.Context, customerCode, customerEmail, cardCode string) (*model.CardSnapshot, error)
	GetCardTransactions(ctx context.Context, cardCode string) ([]model.CardTransaction, error)
}

// PriceSource returns the token price in USD and whether it came from the oracle
type PriceSource interface {
	GetPrice() (*decimal.Big, bool)
}

// ChainProvider talks to the chain the payments are made on
type ChainProvider interface {
	SendTransaction(ctx context.Context, from, to string, value *big.Int) (string, error)
	GetTransaction(ctx context.Context, hash string) (*chain.Transaction, error)
	WaitForReceipt(ctx context.Context, hash string, initial, max time.Duration) (*chain.Receipt, error)
	GetBlockTime(ctx context.Context, blockNumber string) (time.Time, error)
}

// Notifier sends best effort operator messages
type Notifier interface {
	Send(ctx context.Context, text string) error
}

// Mailer sends best effort operator mails
type Mailer interface {
	SendOperatorEmail(subject, text string) error
}

// EventPublisher writes payment events on the event stream
type EventPublisher interface {
	Publish(ctx context.Context, key string, event interface{}) error
}

// LiveNode pushes messages to websocket subscribers
type LiveNode interface {
	Publish(channel string, data []byte, opts ...centrifuge.PublishOption) (centrifuge.PublishResult, error)
}

// Options holds the collaborators of the service. Notifier, Mailer, Events and WsNode are optional.
type Options struct {
	Users     UserStore
	Gateway   CardGateway
	Price     PriceSource
	Chain     ChainProvider
	Notifier  Notifier
	Mailer    Mailer
	Events    EventPublisher
	WsNode    LiveNode
	Processed processed.Set
}

// Service structure
type Service struct {
	ctx          context.Context
	cfg          config.Config
	users        UserStore
	gateway      CardGateway
	price        PriceSource
	chain        ChainProvider
	notifier     Notifier
	mailer       Mailer
	events       EventPublisher
	processed    processed.Set
	quotes       *pending.Store
	cards        *cardview.Cache
	payments     *paymentTracker
	watchers     sync.WaitGroup
	isEnabled    func(name string) bool
	now          func() time.Time
	newTicker    func(d time.Duration) Ticker
	pollInterval time.Duration

	WsNode LiveNode
}

// NewService creates the service. Payment watchers stop when ctx is cancelled.
func NewService(ctx context.Context, cfg config.Config, opts Options) *Service {
	set := opts.Processed
	if set == nil {
		set = processed.NewMemory(cfg.Payments.ProcessedTTL)
	}
	pollInterval := cfg.Provisioning.PollInterval
	if pollInterval <= 0 {
		pollInterval = 3 * time.Second
	}
	return &Service{
		ctx:          ctx,
		cfg:          cfg,
		users:        opts.Users,
		gateway:      opts.Gateway,
		price:        opts.Price,
		chain:        opts.Chain,
		notifier:     opts.Notifier,
		mailer:       opts.Mailer,
		events:       opts.Events,
		processed:    set,
		quotes:       pending.New(cfg.Payments.QuoteTTL),
		cards:        cardview.New(cfg.CardView.BalanceTTL, cfg.CardView.TransactionsTTL),
		payments:     newPaymentTracker(),
		isEnabled:    featureflags.IsEnabled,
		now:          time.Now,
		newTicker:    NewTimeTicker,
		pollInterval: pollInterval,
		WsNode:       opts.WsNode,
	}
}

// SweepPending drops expired quotes, stale card data and finished payments
func (service *Service) SweepPending() {
	quotes := service.quotes.Sweep()
	service.cards.Sweep()
	payments := service.payments.evictFinal(service.now().Add(-service.cfg.Payments.QuoteTTL))
	if set, ok := service.processed.(*processed.Memory); ok {
		set.Sweep()
	}
	log.Debug().Str("section", "service").Str("action", "sweep_pending").
		Int("quotes", quotes).
		Int("payments", payments).
		Msg("Pending state swept")
}

// Wait blocks until every payment watcher returned
func (service *Service) Wait() {
	service.watchers.Wait()
}
