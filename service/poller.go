package service

import (
	"context"
	"time"
)

// Ticker is the part of time.Ticker the poller uses
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type timeTicker struct {
	t *time.Ticker
}

func (t timeTicker) C() <-chan time.Time { return t.t.C }
func (t timeTicker) Stop()               { t.t.Stop() }

// NewTimeTicker wraps time.NewTicker
func NewTimeTicker(d time.Duration) Ticker {
	return timeTicker{t: time.NewTicker(d)}
}

// PollFunc is called on every tick. Returning done stops the poller.
type PollFunc func(ctx context.Context) (done bool, err error)

// Poll calls fn once right away and then on every tick until fn is done, fn fails or ctx is
// cancelled. No call to fn starts after ctx is cancelled and a result that arrives
// after cancellation is dropped.
func Poll(ctx context.Context, ticker Ticker, fn PollFunc) error {
	defer ticker.Stop()
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		done, err := fn(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil || done {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C():
		}
	}
}
