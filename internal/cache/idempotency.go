// Package cache holds Redis-backed helpers for request-level guards.
package cache

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/redis/go-redis/v9"

	"github.com/pedalworks/bike-rental/internal/domain/order"
)

var _ order.IdempotencyGuard = (*Idempotency)(nil)

// Idempotency claims keys with SET NX so that repeated placement requests
// within the TTL are rejected instead of double-charging a racing customer.
type Idempotency struct {
	client *redis.Client
	ttl    time.Duration
}

// NewIdempotency creates an idempotency guard. Keys expire after ttl.
func NewIdempotency(client *redis.Client, ttl time.Duration) *Idempotency {
	return &Idempotency{client: client, ttl: ttl}
}

// Begin claims key. It returns false when the key was already claimed and has
// not yet expired.
func (i *Idempotency) Begin(ctx context.Context, key string) (bool, error) {
	ok, err := i.client.SetNX(ctx, key, 1, i.ttl).Result()
	if err != nil {
		return false, errors.Wrap(err, "setnx")
	}
	return ok, nil
}
