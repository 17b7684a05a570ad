package ratelimit

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// RedisWindow counts hits in fixed windows keyed in redis
type RedisWindow struct {
	client goredis.UniversalClient
}

func NewRedisWindow(client goredis.UniversalClient) *RedisWindow {
	return &RedisWindow{client: client}
}

// IncrementWindow bumps the counter for key and returns the new count and the
// time left in the window. The first hit starts the window.
func (r *RedisWindow) IncrementWindow(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	if r.client == nil {
		return 0, 0, fmt.Errorf("redis client is nil")
	}
	if key == "" || window <= 0 {
		return 0, 0, fmt.Errorf("invalid rate window")
	}

	count, err := r.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, 0, fmt.Errorf("increment rate key: %w", err)
	}
	if count == 1 {
		if err := r.client.Expire(ctx, key, window).Err(); err != nil {
			return 0, 0, fmt.Errorf("set rate key ttl: %w", err)
		}
	}

	ttl, err := r.client.TTL(ctx, key).Result()
	if err != nil {
		return 0, 0, fmt.Errorf("read rate key ttl: %w", err)
	}
	if ttl < 0 {
		ttl = 0
	}
	return count, ttl, nil
}

// Ping checks the redis connection
func (r *RedisWindow) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisWindow) Close() error {
	return r.client.Close()
}
