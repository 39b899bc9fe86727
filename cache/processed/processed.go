package processed

import (
	"context"
	"strings"
	"sync"
	"time"
)

// Set remembers transaction hashes whose side effect already started
type Set interface {
	// Claim returns true only for the first caller of a given hash
	Claim(ctx context.Context, hash string) (bool, error)
}

// Memory keeps claimed hashes in process memory
type Memory struct {
	ttl   time.Duration
	items map[string]time.Time
	lock  *sync.Mutex
	now   func() time.Time
}

// NewMemory creates an in-memory set. A zero ttl keeps hashes forever.
func NewMemory(ttl time.Duration) *Memory {
	return &Memory{
		ttl:   ttl,
		items: make(map[string]time.Time),
		lock:  &sync.Mutex{},
		now:   time.Now,
	}
}

// Claim godoc
func (m *Memory) Claim(_ context.Context, hash string) (bool, error) {
	hash = normalize(hash)
	now := m.now()
	m.lock.Lock()
	defer m.lock.Unlock()
	if expires, ok := m.items[hash]; ok && (expires.IsZero() || now.Before(expires)) {
		return false, nil
	}
	var expires time.Time
	if m.ttl > 0 {
		expires = now.Add(m.ttl)
	}
	m.items[hash] = expires
	return true, nil
}

// Sweep removes expired hashes and returns how many were dropped
func (m *Memory) Sweep() int {
	now := m.now()
	m.lock.Lock()
	defer m.lock.Unlock()
	removed := 0
	for hash, expires := range m.items {
		if !expires.IsZero() && !now.Before(expires) {
			delete(m.items, hash)
			removed++
		}
	}
	return removed
}

// Len godoc
func (m *Memory) Len() int {
	m.lock.Lock()
	defer m.lock.Unlock()
	return len(m.items)
}

func normalize(hash string) string {
	return strings.ToLower(strings.TrimSpace(hash))
}
