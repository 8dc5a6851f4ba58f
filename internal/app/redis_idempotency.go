package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// WebhookDeduper suppresses replayed webhook deliveries. The database guards
// against double-counting on their own; the deduper just short-circuits
// retries before they reach the settlement path.
type WebhookDeduper interface {
	// Reserve returns true when this delivery id has not been seen inside the
	// TTL window. Errors are treated as "not seen" by callers so a Redis
	// outage degrades to relying on the database guards.
	Reserve(ctx context.Context, deliveryID string) (bool, error)
}

// RedisWebhookDeduper implements WebhookDeduper with a SET NX reservation.
type RedisWebhookDeduper struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewRedisWebhookDeduper creates a deduper keyed under the given prefix with
// the given reservation TTL.
func NewRedisWebhookDeduper(client redis.UniversalClient, prefix string, ttl time.Duration) *RedisWebhookDeduper {
	trimmedPrefix := strings.TrimSpace(prefix)
	if trimmedPrefix == "" {
		trimmedPrefix = "careconnect:cause"
	}
	trimmedPrefix = strings.TrimSuffix(trimmedPrefix, ":")
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	return &RedisWebhookDeduper{client: client, prefix: trimmedPrefix, ttl: ttl}
}

// Reserve attempts to claim the delivery id.
func (d *RedisWebhookDeduper) Reserve(ctx context.Context, deliveryID string) (bool, error) {
	if d == nil || d.client == nil {
		return true, nil
	}
	deliveryID = strings.TrimSpace(deliveryID)
	if deliveryID == "" {
		return true, nil
	}

	key := fmt.Sprintf("%s:webhook:%s", d.prefix, deliveryID)
	return d.client.SetNX(ctx, key, 1, d.ttl).Result()
}
