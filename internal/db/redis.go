// internal/db/redis.go
package db

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisDB struct {
	Client *redis.Client
}

func NewRedisDB(redisURL string) (*RedisDB, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	log.Println("[Redis] ✅ Connected to Redis")
	return &RedisDB{Client: client}, nil
}

func (r *RedisDB) Close() {
	if r.Client != nil {
		r.Client.Close()
		log.Println("[Redis] Connection closed")
	}
}

// Status reports "connected" or "disabled" for the health endpoint.
func (r *RedisDB) Status(ctx context.Context) string {
	if r == nil || r.Client == nil {
		return "disabled"
	}
	if err := r.Client.Ping(ctx).Err(); err != nil {
		return "unreachable"
	}
	return "connected"
}
