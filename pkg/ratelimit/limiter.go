package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter defines the interface for rate limiting
type Limiter interface {
	// Allow checks if a request may proceed now
	Allow() bool
	// Wait blocks until a request may proceed or ctx is done
	Wait(ctx context.Context) error
	// Reset restores the limiter to its initial state
	Reset()
}

// DefaultBurst is the burst allowed when none is configured
const DefaultBurst = 1

// PullLimiter is a token bucket over pulls from the primary, plus a
// backoff window set when the primary reports throttling
type PullLimiter struct {
	mu      sync.Mutex
	limit   rate.Limit
	burst   int
	limiter *rate.Limiter
	retryAt time.Time
}

// NewPullLimiter allows pullsPerMinute sustained pulls with the given burst.
// A non-positive rate means unlimited.
func NewPullLimiter(pullsPerMinute, burst int) *PullLimiter {
	limit := rate.Inf
	if pullsPerMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(pullsPerMinute))
	}
	if burst <= 0 {
		burst = DefaultBurst
	}
	return &PullLimiter{
		limit:   limit,
		burst:   burst,
		limiter: rate.NewLimiter(limit, burst),
	}
}

// Allow reports whether a pull may start now, consuming a token if so
func (l *PullLimiter) Allow() bool {
	l.mu.Lock()
	retryAt := l.retryAt
	limiter := l.limiter
	l.mu.Unlock()

	if time.Now().Before(retryAt) {
		return false
	}
	return limiter.Allow()
}

// Wait blocks until a pull may start. It respects any backoff recorded
// with Throttle first, then the token bucket.
func (l *PullLimiter) Wait(ctx context.Context) error {
	l.mu.Lock()
	retryAt := l.retryAt
	limiter := l.limiter
	l.mu.Unlock()

	if d := time.Until(retryAt); d > 0 {
		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}

	return limiter.Wait(ctx)
}

// Throttle holds back all pulls for d, typically the primary's retry-after hint
func (l *PullLimiter) Throttle(d time.Duration) {
	if d <= 0 {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if until := time.Now().Add(d); until.After(l.retryAt) {
		l.retryAt = until
	}
}

// Reset refills the bucket and clears any throttle
func (l *PullLimiter) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.limiter = rate.NewLimiter(l.limit, l.burst)
	l.retryAt = time.Time{}
}
