// Package cache wraps Redis for the few places the API needs shared
// short-lived state: checkout idempotency claims and the public
// verification page cache.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	checkoutClaimTTL     = 24 * time.Hour
	verificationCacheTTL = 30 * time.Second
)

type Cache struct {
	client *redis.Client
}

func New(addr, password string, db int) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("cache: ping redis: %w", err)
	}
	return &Cache{client: client}, nil
}

// ClaimCheckout takes the idempotency claim for a payment transaction id.
// Returns true when this caller is the first; a later caller with the same
// id gets false and should look the order up instead of creating it.
func (c *Cache) ClaimCheckout(ctx context.Context, transactionID string) (bool, error) {
	return c.client.SetNX(ctx, "checkout:claim:"+transactionID, 1, checkoutClaimTTL).Result()
}

// GetVerification returns a cached public verification response, if fresh.
func (c *Cache) GetVerification(ctx context.Context, code string, out interface{}) (bool, error) {
	raw, err := c.client.Get(ctx, "verify:"+code).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, json.Unmarshal(raw, out)
}

// SetVerification caches a public verification response briefly. Scan
// totals may lag by the TTL; delivery state changes bypass the cache.
func (c *Cache) SetVerification(ctx context.Context, code string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, "verify:"+code, raw, verificationCacheTTL).Err()
}

// InvalidateVerification drops the cached response after a state change.
func (c *Cache) InvalidateVerification(ctx context.Context, code string) error {
	return c.client.Del(ctx, "verify:"+code).Err()
}

func (c *Cache) Close() error {
	return c.client.Close()
}
