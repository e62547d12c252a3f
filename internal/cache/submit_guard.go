package cache

import (
	"context"
	"fmt"
	"time"
)

// SubmitGuard is the exactly-once gate in front of the contract backend.
// The idempotency key is the session's selection snapshot, so a repeated
// click during the network round trip acquires the same key and is refused
// instead of producing a second contract call.
type SubmitGuard struct {
	redis *RedisClient
	ttl   time.Duration
}

// NewSubmitGuard creates a new SubmitGuard.
func NewSubmitGuard(redis *RedisClient, ttl time.Duration) *SubmitGuard {
	return &SubmitGuard{
		redis: redis,
		ttl:   ttl,
	}
}

func (g *SubmitGuard) key(idempotencyKey string) string {
	return fmt.Sprintf("submit:%s", idempotencyKey)
}

// Acquire claims the idempotency key. Returns false if an identical
// submission is already in flight or completed within the guard window.
func (g *SubmitGuard) Acquire(ctx context.Context, idempotencyKey string) (bool, error) {
	return g.redis.SetNX(ctx, g.key(idempotencyKey), "1", g.ttl)
}

// Release frees the key so the customer can resubmit after an
// authoritative rejection.
func (g *SubmitGuard) Release(ctx context.Context, idempotencyKey string) error {
	return g.redis.Delete(ctx, g.key(idempotencyKey))
}
