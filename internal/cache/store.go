package cache

import (
	"context"
	"time"
)

// Store represents the shared counter interface used by the rate limiter.
type Store interface {
	IncrementWithTTL(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
}

var _ Store = (*RedisClient)(nil)
