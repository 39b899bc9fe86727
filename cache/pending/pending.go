package pending

import (
	"errors"
	"sync"
	"time"

	"gitlab.com/unchained-card/card_api/model"
)

// ErrNotFound godoc
var ErrNotFound = errors.New("No pending quote")

// Quote is a payment intent waiting for its transaction. Registration quotes also
// carry the form that becomes the user record once the payment confirms.
type Quote struct {
	Intent    *model.PaymentIntent
	Form      *model.RegistrationForm
	ExpiresAt time.Time
}

// Store keeps live quotes by quote id. A wallet may hold several quotes at once,
// each one belongs to the session that requested it.
type Store struct {
	ttl    time.Duration
	quotes map[string]*Quote
	lock   *sync.RWMutex
	now    func() time.Time
}

// New creates a store. Quotes older than ttl are dropped by Sweep.
func New(ttl time.Duration) *Store {
	return &Store{
		ttl:    ttl,
		quotes: make(map[string]*Quote),
		lock:   &sync.RWMutex{},
		now:    time.Now,
	}
}

// Put stores the quote under the id of its intent
func (s *Store) Put(intent *model.PaymentIntent, form *model.RegistrationForm) *Quote {
	q := &Quote{Intent: intent, Form: form}
	if s.ttl > 0 {
		q.ExpiresAt = s.now().Add(s.ttl)
	}
	s.lock.Lock()
	s.quotes[intent.QuoteID] = q
	s.lock.Unlock()
	return q
}

// Get returns the live quote with the given id. The wallet and purpose must match the quote.
func (s *Store) Get(quoteID, wallet string, purpose model.PaymentPurpose) (*Quote, error) {
	if quoteID == "" {
		return nil, ErrNotFound
	}
	s.lock.RLock()
	q, ok := s.quotes[quoteID]
	s.lock.RUnlock()
	if !ok || q.expired(s.now()) {
		return nil, ErrNotFound
	}
	if q.Intent.Wallet != model.NormalizeWallet(wallet) || q.Intent.Purpose != purpose {
		return nil, ErrNotFound
	}
	return q, nil
}

// Delete godoc
func (s *Store) Delete(quoteID string) {
	s.lock.Lock()
	delete(s.quotes, quoteID)
	s.lock.Unlock()
}

// Sweep drops expired quotes and returns how many were removed
func (s *Store) Sweep() int {
	now := s.now()
	removed := 0
	s.lock.Lock()
	for id, q := range s.quotes {
		if q.expired(now) {
			delete(s.quotes, id)
			removed++
		}
	}
	s.lock.Unlock()
	return removed
}

func (q *Quote) expired(now time.Time) bool {
	return !q.ExpiresAt.IsZero() && !now.Before(q.ExpiresAt)
}
