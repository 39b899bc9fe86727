package crons

import (
	"context"
	"time"
)

// PriceRefresher fetches the token price
type PriceRefresher interface {
	Refresh(ctx context.Context) error
}

// CronUpdateTokenPrice refreshes the cached token price. Failures leave the fallback in place.
func CronUpdateTokenPrice(oracle PriceRefresher) {
	if oracle == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	_ = oracle.Refresh(ctx)
}
