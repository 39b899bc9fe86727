package cardview

import (
	"sync"
	"time"

	"gitlab.com/unchained-card/card_api/model"
)

type cardEntry struct {
	card      *model.CardSnapshot
	fetchedAt time.Time
}

type transactionsEntry struct {
	transactions []model.CardTransaction
	fetchedAt    time.Time
}

// Cache keeps issuer responses for a short revalidation window. Every wallet has a
// generation that Invalidate bumps, a fetch started under an older generation is not stored.
type Cache struct {
	balanceTTL      time.Duration
	transactionsTTL time.Duration
	cards           map[string]cardEntry
	transactions    map[string]transactionsEntry
	generations     map[string]uint64
	lock            *sync.RWMutex
	now             func() time.Time
}

// New godoc
func New(balanceTTL, transactionsTTL time.Duration) *Cache {
	return &Cache{
		balanceTTL:      balanceTTL,
		transactionsTTL: transactionsTTL,
		cards:           make(map[string]cardEntry),
		transactions:    make(map[string]transactionsEntry),
		generations:     make(map[string]uint64),
		lock:            &sync.RWMutex{},
		now:             time.Now,
	}
}

// GetCard returns the cached snapshot while it is fresh
func (c *Cache) GetCard(wallet string) (*model.CardSnapshot, bool) {
	c.lock.RLock()
	entry, ok := c.cards[model.NormalizeWallet(wallet)]
	c.lock.RUnlock()
	if !ok || c.now().Sub(entry.fetchedAt) >= c.balanceTTL {
		return nil, false
	}
	return entry.card, true
}

// Generation returns the value to pass to SetCard and SetTransactions after a fetch
func (c *Cache) Generation(wallet string) uint64 {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return c.generations[model.NormalizeWallet(wallet)]
}

// SetCard stores the snapshot unless the wallet was invalidated since generation was read
func (c *Cache) SetCard(wallet string, card *model.CardSnapshot, generation uint64) bool {
	wallet = model.NormalizeWallet(wallet)
	c.lock.Lock()
	defer c.lock.Unlock()
	if c.generations[wallet] != generation {
		return false
	}
	c.cards[wallet] = cardEntry{card: card, fetchedAt: c.now()}
	return true
}

// GetTransactions returns the cached transaction list while it is fresh
func (c *Cache) GetTransactions(wallet string) ([]model.CardTransaction, bool) {
	c.lock.RLock()
	entry, ok := c.transactions[model.NormalizeWallet(wallet)]
	c.lock.RUnlock()
	if !ok || c.now().Sub(entry.fetchedAt) >= c.transactionsTTL {
		return nil, false
	}
	return entry.transactions, true
}

// SetTransactions stores the list unless the wallet was invalidated since generation was read
func (c *Cache) SetTransactions(wallet string, transactions []model.CardTransaction, generation uint64) bool {
	wallet = model.NormalizeWallet(wallet)
	c.lock.Lock()
	defer c.lock.Unlock()
	if c.generations[wallet] != generation {
		return false
	}
	c.transactions[wallet] = transactionsEntry{transactions: transactions, fetchedAt: c.now()}
	return true
}

// Invalidate forces the next read of the wallet's card to hit the issuer
func (c *Cache) Invalidate(wallet string) {
	wallet = model.NormalizeWallet(wallet)
	c.lock.Lock()
	delete(c.cards, wallet)
	delete(c.transactions, wallet)
	c.generations[wallet]++
	c.lock.Unlock()
}

// Sweep drops stale entries
func (c *Cache) Sweep() {
	now := c.now()
	c.lock.Lock()
	for wallet, entry := range c.cards {
		if now.Sub(entry.fetchedAt) >= c.balanceTTL {
			delete(c.cards, wallet)
		}
	}
	for wallet, entry := range c.transactions {
		if now.Sub(entry.fetchedAt) >= c.transactionsTTL {
			delete(c.transactions, wallet)
		}
	}
	c.lock.Unlock()
}
