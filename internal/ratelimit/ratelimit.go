// Package ratelimit provides fixed-window request counters keyed by caller.
package ratelimit

import (
	"context"
	"log"
	"time"
)

// Result describes the state of a caller's window after a request was counted.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// RetryAfter is the wait until the current window closes, rounded up to whole seconds.
func (r Result) RetryAfter(now time.Time) time.Duration {
	wait := r.ResetAt.Sub(now)
	if wait <= 0 {
		return time.Second
	}
	if rem := wait % time.Second; rem != 0 {
		wait += time.Second - rem
	}
	return wait
}

// Limiter counts one request for key and reports whether it is admitted.
type Limiter interface {
	Allow(ctx context.Context, key string) (Result, error)
}

type fallbackLimiter struct {
	primary  Limiter
	fallback Limiter
}

// WithFallback uses primary and switches to fallback for any request where
// primary fails (e.g. Redis unreachable).
func WithFallback(primary, fallback Limiter) Limiter {
	if primary == nil {
		return fallback
	}
	return &fallbackLimiter{primary: primary, fallback: fallback}
}

func (l *fallbackLimiter) Allow(ctx context.Context, key string) (Result, error) {
	res, err := l.primary.Allow(ctx, key)
	if err == nil {
		return res, nil
	}
	log.Printf("[RateLimit] ⚠️  primary limiter failed, using in-memory window: %v", err)
	return l.fallback.Allow(ctx, key)
}

func remaining(limit int, count int64) int {
	if left := int64(limit) - count; left > 0 {
		return int(left)
	}
	return 0
}
