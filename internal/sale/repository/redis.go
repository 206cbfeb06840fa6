package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/fekuna/omnipos-sales-service/internal/model"
	"github.com/fekuna/omnipos-sales-service/pkg/cache"
)

const (
	idempotencyPrefix = "sales:idempotency:"
	pendingMarker     = "pending"
	pendingTTL        = 2 * time.Minute
)

// RedisDeduplicator shares idempotency keys between service replicas. A key
// holds the pending marker while its sale is being processed and the sale id
// once it has been committed.
type RedisDeduplicator struct {
	redis *cache.RedisClient
	ttl   time.Duration
}

func NewRedisDeduplicator(redis *cache.RedisClient, ttl time.Duration) *RedisDeduplicator {
	return &RedisDeduplicator{redis: redis, ttl: ttl}
}

func (d *RedisDeduplicator) Reserve(ctx context.Context, key string) (string, error) {
	acquired, err := d.redis.AcquireLock(ctx, idempotencyPrefix+key, pendingMarker, pendingTTL)
	if err != nil {
		return "", fmt.Errorf("reserve idempotency key: %w", err)
	}
	if acquired {
		return "", nil
	}

	val, ok, err := d.redis.Get(ctx, idempotencyPrefix+key)
	if err != nil {
		return "", fmt.Errorf("read idempotency key: %w", err)
	}
	if !ok {
		// expired between SETNX and GET; try once more
		acquired, err = d.redis.AcquireLock(ctx, idempotencyPrefix+key, pendingMarker, pendingTTL)
		if err != nil {
			return "", fmt.Errorf("reserve idempotency key: %w", err)
		}
		if acquired {
			return "", nil
		}
	}
	if !ok || val == pendingMarker {
		return "", fmt.Errorf("key %s: %w", key, model.ErrDuplicateRequest)
	}
	return val, nil
}

func (d *RedisDeduplicator) Complete(ctx context.Context, key, saleID string) error {
	return d.redis.Set(ctx, idempotencyPrefix+key, saleID, d.ttl)
}

// Release frees a key whose sale failed, so the till can retry it.
func (d *RedisDeduplicator) Release(ctx context.Context, key string) error {
	return d.redis.ReleaseLock(ctx, idempotencyPrefix+key, pendingMarker)
}
