package service

import (
	"context"
	"math/big"
	"sync"
	"time"

	"github.com/centrifugal/centrifuge"
	"github.com/ericlagergren/decimal"
	"gitlab.com/unchained-card/card_api/config"
	"gitlab.com/unchained-card/card_api/conv"
	"gitlab.com/unchained-card/card_api/lib/chain"
	"gitlab.com/unchained-card/card_api/model"
	"gitlab.com/unchained-card/card_api/queries"
)

const (
	testWallet   = "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"
	testTreasury = "0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359"
	testHash     = "0x9fc76417374aa880d4449a1f7f31ec597f00b1f6f3dd2d66f4c9c6c445836d8b"
)

type fakeStore struct {
	lock    sync.Mutex
	users   map[string]*model.User
	created []*model.User
	reads   int
	failOn  error
}

func newFakeStore() *fakeStore {
	return &fakeStore{users: map[string]*model.User{}}
}

func (s *fakeStore) GetUserByWallet(_ context.Context, wallet string) (*model.User, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.reads++
	user, ok := s.users[model.NormalizeWallet(wallet)]
	if !ok {
		return nil, nil
	}
	u := *user
	return &u, nil
}

func (s *fakeStore) CreateUser(_ context.Context, user *model.User) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.failOn != nil {
		return s.failOn
	}
	if _, ok := s.users[user.WalletAddress]; ok {
		return queries.ErrUserExists
	}
	s.users[user.WalletAddress] = user
	s.created = append(s.created, user)
	return nil
}

func (s *fakeStore) AttachCard(_ context.Context, wallet, cardCode, customerCode string) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	user, ok := s.users[model.NormalizeWallet(wallet)]
	if !ok {
		return queries.ErrUserNotFound
	}
	user.CardCode = &cardCode
	user.CustomerCode = &customerCode
	return nil
}

func (s *fakeStore) readCount() int {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.reads
}

type fakePrice struct {
	price      *decimal.Big
	fromOracle bool
}

func (p *fakePrice) GetPrice() (*decimal.Big, bool) {
	return p.price, p.fromOracle
}

const testBlock = "0x10"

var testNow = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

type fakeChain struct {
	lock     sync.Mutex
	sent     int
	txs      map[string]*chain.Transaction
	status   string
	block    bool
	sendHash string
	minedAt  time.Time
}

func (c *fakeChain) SendTransaction(_ context.Context, from, to string, value *big.Int) (string, error) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.sent++
	c.txs[c.sendHash] = &chain.Transaction{Hash: c.sendHash, From: from, To: to, Value: conv.BigToHex(value)}
	return c.sendHash, nil
}

func (c *fakeChain) GetTransaction(_ context.Context, hash string) (*chain.Transaction, error) {
	c.lock.Lock()
	defer c.lock.Unlock()
	tx, ok := c.txs[hash]
	if !ok {
		return nil, chain.ErrTransactionNotFound
	}
	return tx, nil
}

func (c *fakeChain) WaitForReceipt(ctx context.Context, hash string, _, _ time.Duration) (*chain.Receipt, error) {
	if c.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return &chain.Receipt{TransactionHash: hash, BlockNumber: testBlock, Status: c.status}, nil
}

func (c *fakeChain) GetBlockTime(_ context.Context, blockNumber string) (time.Time, error) {
	c.lock.Lock()
	defer c.lock.Unlock()
	if blockNumber != testBlock {
		return time.Time{}, chain.ErrBlockNotFound
	}
	return c.minedAt, nil
}

func (c *fakeChain) setMinedAt(minedAt time.Time) {
	c.lock.Lock()
	c.minedAt = minedAt
	c.lock.Unlock()
}

func (c *fakeChain) sentCount() int {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.sent
}

type fakeNotifier struct {
	lock     sync.Mutex
	messages []string
	err      error
}

func (n *fakeNotifier) Send(_ context.Context, text string) error {
	n.lock.Lock()
	defer n.lock.Unlock()
	n.messages = append(n.messages, text)
	return n.err
}

func (n *fakeNotifier) sent() []string {
	n.lock.Lock()
	defer n.lock.Unlock()
	return append([]string{}, n.messages...)
}

type published struct {
	channel string
	event   model.CardStatusEvent
}

type fakeNode struct {
	lock     sync.Mutex
	messages []published
}

func (n *fakeNode) Publish(channel string, data []byte, _ ...centrifuge.PublishOption) (centrifuge.PublishResult, error) {
	n.lock.Lock()
	defer n.lock.Unlock()
	event := model.CardStatusEvent{}
	_ = json.Unmarshal(data, &event)
	n.messages = append(n.messages, published{channel: channel, event: event})
	return centrifuge.PublishResult{}, nil
}

func (n *fakeNode) events() []published {
	n.lock.Lock()
	defer n.lock.Unlock()
	return append([]published{}, n.messages...)
}

type fakeGateway struct {
	lock    sync.Mutex
	calls   int
	card    *model.CardSnapshot
	txs     []model.CardTransaction
	err     error
	onFetch func()
}

func (g *fakeGateway) GetCard(_ context.Context, _, _, cardCode string) (*model.CardSnapshot, error) {
	g.lock.Lock()
	defer g.lock.Unlock()
	g.calls++
	if g.onFetch != nil {
		g.onFetch()
	}
	return g.card, g.err
}

func (g *fakeGateway) GetCardTransactions(_ context.Context, _ string) ([]model.CardTransaction, error) {
	g.lock.Lock()
	defer g.lock.Unlock()
	g.calls++
	return g.txs, g.err
}

type fakeTicker struct {
	ch chan time.Time
}

func newFakeTicker() *fakeTicker {
	return &fakeTicker{ch: make(chan time.Time, 16)}
}

func (t *fakeTicker) C() <-chan time.Time { return t.ch }
func (t *fakeTicker) Stop()               {}

type fixture struct {
	service  *Service
	store    *fakeStore
	chain    *fakeChain
	notifier *fakeNotifier
	node     *fakeNode
	gateway  *fakeGateway
	ticker   *fakeTicker
	price    *fakePrice
	cancel   context.CancelFunc
}

func testConfig() config.Config {
	return config.Config{
		Payments: config.PaymentsConfig{
			TreasuryAddress:    testTreasury,
			CustodialSender:    "0xdbF03B407c01E7cD3CBea99509d93f8DDDC8C6FB",
			RegistrationFeeUSD: 30,
			MinTopUpUSD:        10,
			FeeRate:            0.05,
			TokenDecimals:      18,
			QuoteTTL:           time.Hour,
		},
		Chain: config.ChainConfig{
			ReceiptPollInitial: time.Millisecond,
			ReceiptPollMax:     time.Millisecond,
		},
		CardView: config.CardViewConfig{
			BalanceTTL:      10 * time.Second,
			TransactionsTTL: 30 * time.Second,
		},
	}
}

func newFixture() *fixture {
	return newFixtureWith(newFakeStore(), &fakeChain{
		txs:      map[string]*chain.Transaction{},
		status:   "0x1",
		sendHash: testHash,
		minedAt:  testNow.Add(time.Minute),
	}, testNow)
}

// newFixtureWith builds a fresh service instance over an existing store and chain
func newFixtureWith(store *fakeStore, fc *fakeChain, now time.Time) *fixture {
	ctx, cancel := context.WithCancel(context.Background())
	f := &fixture{
		store:    store,
		chain:    fc,
		notifier: &fakeNotifier{},
		node:     &fakeNode{},
		gateway:  &fakeGateway{},
		ticker:   newFakeTicker(),
		price:    &fakePrice{price: conv.FromFloat(0.00001), fromOracle: true},
		cancel:   cancel,
	}
	f.service = NewService(ctx, testConfig(), Options{
		Users:    f.store,
		Gateway:  f.gateway,
		Price:    f.price,
		Chain:    f.chain,
		Notifier: f.notifier,
		WsNode:   f.node,
	})
	f.service.isEnabled = func(string) bool { return true }
	f.service.now = func() time.Time { return now }
	f.service.newTicker = func(time.Duration) Ticker { return f.ticker }
	return f
}

func (f *fixture) close() {
	f.cancel()
	f.service.Wait()
}

func (f *fixture) addUser(wallet string, cardCode string) {
	user := &model.User{WalletAddress: model.NormalizeWallet(wallet), FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com"}
	if cardCode != "" {
		user.CardCode = &cardCode
	}
	f.store.users[user.WalletAddress] = user
}

// payQuote records an on-chain transaction paying the intent from the wallet
func (f *fixture) payQuote(intent *model.PaymentIntent, hash string) {
	f.chain.lock.Lock()
	f.chain.txs[hash] = &chain.Transaction{Hash: hash, From: intent.Wallet, To: testTreasury, Value: conv.BigToHex(intent.Value), BlockNumber: testBlock}
	f.chain.lock.Unlock()
}

func validForm() *model.RegistrationForm {
	return &model.RegistrationForm{
		FirstName:         "Ada",
		LastName:          "Lovelace",
		Email:             "ada@example.com",
		PhoneCode:         "+1",
		PhoneNumber:       "2015550123",
		DateOfBirth:       "1990-12-10",
		HomeAddressNumber: "12",
		HomeAddress:       "Main Street",
	}
}
