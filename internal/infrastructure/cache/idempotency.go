// Package cache holds short-lived shared state: the request idempotency
// keys used to deduplicate retried writes.
package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// IdempotencyStore reserves request keys for a limited time
type IdempotencyStore interface {
	// Reserve claims key for ttl. It returns false when the key is already held.
	Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error)
	// Release frees key so the request may be retried
	Release(ctx context.Context, key string) error
}

// NewIdempotencyStore returns a Redis-backed store when client is set and an
// in-process one otherwise. The in-process store only deduplicates requests
// that reach the same instance.
func NewIdempotencyStore(client redis.UniversalClient, logger *zap.Logger) IdempotencyStore {
	if client != nil {
		return NewRedisIdempotencyStore(client, "")
	}
	if logger != nil {
		logger.Info("Redis disabled, idempotency keys are kept in memory")
	}
	return NewInMemoryIdempotencyStore()
}
