package cardview

import (
	"testing"
	"time"

	"github.com/go-playground/assert/v2"
	"gitlab.com/unchained-card/card_api/model"
)

func TestRevalidationWindows(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	cache := New(10*time.Second, 30*time.Second)
	cache.now = func() time.Time { return now }

	cache.SetCard("0xABC", &model.CardSnapshot{Code: "C-1"}, 0)
	cache.SetTransactions("0xabc", []model.CardTransaction{{Code: "T-1"}}, 0)

	card, ok := cache.GetCard("0xabc")
	assert.Equal(t, ok, true)
	assert.Equal(t, card.Code, "C-1")

	now = now.Add(10 * time.Second)
	_, ok = cache.GetCard("0xabc")
	assert.Equal(t, ok, false)
	txs, ok := cache.GetTransactions("0xABC")
	assert.Equal(t, ok, true)
	assert.Equal(t, len(txs), 1)

	now = now.Add(20 * time.Second)
	_, ok = cache.GetTransactions("0xabc")
	assert.Equal(t, ok, false)
}

func TestInvalidate(t *testing.T) {
	cache := New(time.Minute, time.Minute)
	cache.SetCard("0xabc", &model.CardSnapshot{Code: "C-1"}, 0)
	cache.SetTransactions("0xabc", nil, 0)

	cache.Invalidate("0xABC")

	_, ok := cache.GetCard("0xabc")
	assert.Equal(t, ok, false)
	_, ok = cache.GetTransactions("0xabc")
	assert.Equal(t, ok, false)
}

func TestFetchOverlappingInvalidate(t *testing.T) {
	cache := New(time.Minute, time.Minute)

	// a read starts fetching, a top-up invalidates before the fetch returns
	generation := cache.Generation("0xabc")
	cache.Invalidate("0xABC")

	assert.Equal(t, cache.SetCard("0xabc", &model.CardSnapshot{Code: "stale"}, generation), false)
	assert.Equal(t, cache.SetTransactions("0xabc", nil, generation), false)
	_, ok := cache.GetCard("0xabc")
	assert.Equal(t, ok, false)

	fresh := cache.Generation("0xabc")
	assert.Equal(t, cache.SetCard("0xabc", &model.CardSnapshot{Code: "fresh"}, fresh), true)
	card, ok := cache.GetCard("0xabc")
	assert.Equal(t, ok, true)
	assert.Equal(t, card.Code, "fresh")
}
