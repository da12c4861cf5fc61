package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLimiter keeps one counter per caller in Redis. The first request of a
// window sets the key's expiry so every API instance shares the same window.
type RedisLimiter struct {
	client *redis.Client
	scope  string
	limit  int
	window time.Duration
}

func NewRedisLimiter(client *redis.Client, scope string, limit int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{client: client, scope: scope, limit: limit, window: window}
}

func (l *RedisLimiter) key(caller string) string {
	return fmt.Sprintf("ratelimit:%s:%s", l.scope, caller)
}

func (l *RedisLimiter) Allow(ctx context.Context, caller string) (Result, error) {
	key := l.key(caller)
	now := time.Now()

	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	ttl := pipe.PTTL(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return Result{}, fmt.Errorf("rate limit %s: %w", key, err)
	}

	count := incr.Val()
	remainingTTL := ttl.Val()
	// A negative TTL means the key has no expiry yet (first hit, or a prior
	// EXPIRE was lost); start the window now.
	if remainingTTL < 0 {
		if err := l.client.PExpire(ctx, key, l.window).Err(); err != nil {
			return Result{}, fmt.Errorf("rate limit expire %s: %w", key, err)
		}
		remainingTTL = l.window
	}

	return Result{
		Allowed:   count <= int64(l.limit),
		Limit:     l.limit,
		Remaining: remaining(l.limit, count),
		ResetAt:   now.Add(remainingTTL),
	}, nil
}
