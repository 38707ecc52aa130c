package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// NewClient creates and tests a new connection to Redis. The same client
// backs both the rate limiter and the security rule engine counters.
func NewClient(addr string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return rdb, nil
}

// RateLimiterAdapter is a Redis implementation of the RateLimiterRepository
// port using a fixed-window algorithm.
type RateLimiterAdapter struct {
	rdb *redis.Client
}

func NewRateLimiterAdapter(rdb *redis.Client) *RateLimiterAdapter {
	return &RateLimiterAdapter{rdb: rdb}
}

// IsAllowed atomically counts requests for the key within the window.
func (a *RateLimiterAdapter) IsAllowed(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	count, err := a.rdb.Incr(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("redis INCR failed: %w", err)
	}

	// First request in the window sets the expiration.
	if count == 1 {
		if err := a.rdb.Expire(ctx, key, window).Err(); err != nil {
			return false, fmt.Errorf("redis EXPIRE failed: %w", err)
		}
	}

	return count <= int64(limit), nil
}

// Close gracefully closes the Redis connection.
func (a *RateLimiterAdapter) Close() error {
	return a.rdb.Close()
}
