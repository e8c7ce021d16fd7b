// Package ratelimit paces outbound requests to Reddit and image hosts.
//
// Limiters are token buckets backed by golang.org/x/time/rate. Wait honours
// context cancellation so a shutdown never blocks on a slow bucket.
//
//	limiter := ratelimit.NewPerMinute(60, 5)
//	if err := limiter.Wait(ctx); err != nil {
//		return err
//	}
package ratelimit

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Limiter defines the interface for rate limiting
type Limiter interface {
	// Allow reports whether a request may proceed now, consuming a token if so
	Allow() bool
	// Wait blocks until a request may proceed or ctx is done
	Wait(ctx context.Context) error
	// Reset refills the limiter to its full burst
	Reset()
}

// TokenBucket implements Limiter on top of rate.Limiter
type TokenBucket struct {
	limit rate.Limit
	burst int
	inner *rate.Limiter
}

// NewTokenBucket creates a bucket that holds burst tokens and refills one
// token every interval.
func NewTokenBucket(interval time.Duration, burst int) *TokenBucket {
	if burst < 1 {
		burst = 1
	}
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &TokenBucket{
		limit: limit,
		burst: burst,
		inner: rate.NewLimiter(limit, burst),
	}
}

// NewPerMinute creates a bucket allowing requestsPerMinute sustained requests.
// A non-positive rate disables limiting.
func NewPerMinute(requestsPerMinute, burst int) *TokenBucket {
	if requestsPerMinute <= 0 {
		return NewTokenBucket(0, burst)
	}
	return NewTokenBucket(time.Minute/time.Duration(requestsPerMinute), burst)
}

// Allow checks if a request can proceed
func (tb *TokenBucket) Allow() bool {
	return tb.inner.Allow()
}

// Wait blocks until a token is available
func (tb *TokenBucket) Wait(ctx context.Context) error {
	return tb.inner.Wait(ctx)
}

// Reset refills the bucket to full capacity
func (tb *TokenBucket) Reset() {
	tb.inner = rate.NewLimiter(tb.limit, tb.burst)
}

// Noop is a Limiter that never delays
type Noop struct{}

func (Noop) Allow() bool { return true }

func (Noop) Wait(ctx context.Context) error { return ctx.Err() }

func (Noop) Reset() {}
