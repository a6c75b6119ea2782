package util

import (
	"context"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// Limiter wraps rate.Limiter to provide a simpler interface.
type Limiter struct {
	inner     *rate.Limiter
	throttled atomic.Int64
}

// NewLimiter creates a new token bucket limiter.
// r: tokens per second; r <= 0 means unlimited.
// b: burst size.
func NewLimiter(r float64, b int) *Limiter {
	limit := rate.Limit(r)
	if r <= 0 {
		limit = rate.Inf
	}
	if b < 1 {
		b = 1
	}
	return &Limiter{
		inner: rate.NewLimiter(limit, b),
	}
}

// Allow reports whether an event with weight n may happen at time now.
func (l *Limiter) Allow(n int) bool {
	return l.inner.AllowN(time.Now(), n)
}

// Wait blocks until n tokens are available. Waits that had to block are
// counted in Throttled.
func (l *Limiter) Wait(ctx context.Context, n int) error {
	if l.inner.AllowN(time.Now(), n) {
		return nil
	}
	l.throttled.Add(1)
	return l.inner.WaitN(ctx, n)
}

// Throttled returns how many Wait calls had to block.
func (l *Limiter) Throttled() int64 {
	return l.throttled.Load()
}
