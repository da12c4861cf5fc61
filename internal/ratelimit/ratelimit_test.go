package ratelimit

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLimiterAdmitsUpToLimit(t *testing.T) {
	l := NewMemoryLimiter(10, time.Minute)
	ctx := context.Background()

	for i := 1; i <= 10; i++ {
		res, err := l.Allow(ctx, "203.0.113.7")
		require.NoError(t, err)
		assert.True(t, res.Allowed, "request %d", i)
		assert.Equal(t, 10-i, res.Remaining)
	}

	res, err := l.Allow(ctx, "203.0.113.7")
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, 0, res.Remaining)

	other, err := l.Allow(ctx, "198.51.100.1")
	require.NoError(t, err)
	assert.True(t, other.Allowed)
}

func TestMemoryLimiterWindowResets(t *testing.T) {
	l := NewMemoryLimiter(1, time.Minute)
	clock := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return clock }
	ctx := context.Background()

	res, _ := l.Allow(ctx, "ip")
	assert.True(t, res.Allowed)
	assert.Equal(t, clock.Add(time.Minute), res.ResetAt)

	res, _ = l.Allow(ctx, "ip")
	assert.False(t, res.Allowed)

	clock = clock.Add(61 * time.Second)
	res, _ = l.Allow(ctx, "ip")
	assert.True(t, res.Allowed)
}

func TestRetryAfterRoundsUp(t *testing.T) {
	now := time.Now()
	assert.Equal(t, 3*time.Second, Result{ResetAt: now.Add(2500 * time.Millisecond)}.RetryAfter(now))
	assert.Equal(t, 2*time.Second, Result{ResetAt: now.Add(2 * time.Second)}.RetryAfter(now))
	assert.Equal(t, time.Second, Result{ResetAt: now.Add(-time.Second)}.RetryAfter(now))
}

type failingLimiter struct{}

func (failingLimiter) Allow(context.Context, string) (Result, error) {
	return Result{}, errors.New("connection refused")
}

func TestWithFallbackUsesSecondaryOnError(t *testing.T) {
	l := WithFallback(failingLimiter{}, NewMemoryLimiter(1, time.Minute))

	res, err := l.Allow(context.Background(), "ip")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, 1, res.Limit)
}

func TestWithFallbackNilPrimary(t *testing.T) {
	mem := NewMemoryLimiter(1, time.Minute)
	assert.Same(t, mem, WithFallback(nil, mem))
}

// Runs against a live Redis when REDIS_TEST_URL is set.
func TestRedisLimiter(t *testing.T) {
	url := os.Getenv("REDIS_TEST_URL")
	if url == "" {
		t.Skip("REDIS_TEST_URL not set")
	}
	opts, err := redis.ParseURL(url)
	require.NoError(t, err)
	client := redis.NewClient(opts)
	defer client.Close()

	ctx := context.Background()
	l := NewRedisLimiter(client, "test-"+uuid.NewString(), 2, time.Minute)
	defer client.Del(ctx, l.key("ip"))

	for i := 0; i < 2; i++ {
		res, err := l.Allow(ctx, "ip")
		require.NoError(t, err)
		assert.True(t, res.Allowed)
	}
	res, err := l.Allow(ctx, "ip")
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.WithinDuration(t, time.Now().Add(time.Minute), res.ResetAt, 2*time.Second)
}
