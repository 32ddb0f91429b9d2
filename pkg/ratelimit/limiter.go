// Package ratelimit holds the provider request budget shared by every
// component that talks to the market-data provider.
package ratelimit

import (
	"context"

	"golang.org/x/time/rate"
)

// Limiter blocks until one more provider request fits in the budget.
// *rate.Limiter and redis.BoundLimiter both satisfy it.
type Limiter interface {
	Wait(ctx context.Context) error
}

// NewLocal creates an in-process token bucket.
// One instance must be shared by all workers so the budget stays aggregate.
func NewLocal(rps float64, burst int) *rate.Limiter {
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(rps), burst)
}

// Unlimited returns a limiter that never blocks (tests, cached replays)
func Unlimited() Limiter {
	return rate.NewLimiter(rate.Inf, 1)
}
