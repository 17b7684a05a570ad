// Package ratelimit throttles public submissions per client with fixed windows.
package ratelimit

import (
	"context"
	"fmt"
	"time"
)

// WindowStore is a fixed-window hit counter
type WindowStore interface {
	IncrementWindow(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
}

// Limiter allows up to Limit hits per Window for each key
type Limiter struct {
	store  WindowStore
	limit  int
	window time.Duration
	prefix string
}

func NewLimiter(store WindowStore, limit int, window time.Duration) *Limiter {
	if limit < 0 {
		limit = 0
	}
	if window <= 0 {
		window = time.Minute
	}
	return &Limiter{
		store:  store,
		limit:  limit,
		window: window,
		prefix: "rate:submit:",
	}
}

// Allow records one hit for key. When the window is exhausted it returns
// allowed=false and the number of seconds until the window resets.
// A zero limit disables throttling.
func (l *Limiter) Allow(ctx context.Context, key string) (int64, bool, error) {
	if l.limit == 0 {
		return 0, true, nil
	}
	if key == "" {
		return 0, false, fmt.Errorf("rate key is required")
	}
	if l.store == nil {
		return 0, false, fmt.Errorf("rate limiter store is nil")
	}

	count, ttl, err := l.store.IncrementWindow(ctx, l.prefix+key, l.window)
	if err != nil {
		return 0, false, err
	}
	if count > int64(l.limit) {
		return ceilSeconds(ttl), false, nil
	}
	return 0, true, nil
}

func ceilSeconds(d time.Duration) int64 {
	if d <= 0 {
		return 1
	}
	sec := int64(d / time.Second)
	if d%time.Second != 0 {
		sec++
	}
	return sec
}
