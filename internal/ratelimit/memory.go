package ratelimit

import (
	"context"
	"sync"
	"time"
)

type window struct {
	count int64
	start time.Time
}

// MemoryLimiter is a process-local fixed window, used when Redis is not
// configured and as the fallback when it is unreachable.
type MemoryLimiter struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	windows map[string]*window
	calls   int
	now     func() time.Time
}

func NewMemoryLimiter(limit int, windowSize time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		limit:   limit,
		window:  windowSize,
		windows: make(map[string]*window),
		now:     time.Now,
	}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (Result, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.calls++
	if l.calls%256 == 0 {
		l.sweep(now)
	}

	w, ok := l.windows[key]
	if !ok || now.Sub(w.start) >= l.window {
		w = &window{start: now}
		l.windows[key] = w
	}
	w.count++

	return Result{
		Allowed:   w.count <= int64(l.limit),
		Limit:     l.limit,
		Remaining: remaining(l.limit, w.count),
		ResetAt:   w.start.Add(l.window),
	}, nil
}

// sweep drops windows that have already closed. Caller holds mu.
func (l *MemoryLimiter) sweep(now time.Time) {
	for key, w := range l.windows {
		if now.Sub(w.start) >= l.window {
			delete(l.windows, key)
		}
	}
}
