package catalog

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const cacheKeyPrefix = "catalog:sku:"

// Cache wraps Redis helpers for JSON payloads.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache constructs a cache helper. A nil client or non-positive TTL
// yields a cache that silently does nothing.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

// GetJSON unmarshals a cached JSON payload into dst. It reports whether the key existed.
func (c *Cache) GetJSON(ctx context.Context, key string, dst any) (bool, error) {
	if c == nil || c.client == nil || key == "" {
		return false, nil
	}
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON serialises v as JSON and stores it with the configured TTL.
func (c *Cache) SetJSON(ctx context.Context, key string, v any) error {
	if c == nil || c.client == nil || key == "" || c.ttl <= 0 {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, data, c.ttl).Err()
}

// Invalidate removes a cached key. Errors are ignored; the TTL bounds staleness.
func (c *Cache) Invalidate(ctx context.Context, key string) {
	if c == nil || c.client == nil || key == "" {
		return
	}
	_ = c.client.Del(ctx, key).Err()
}

// CachedLookup layers a read-through Redis cache over another Lookup.
// Cache failures degrade to the inner lookup; they never fail a resolution.
type CachedLookup struct {
	Inner Lookup
	Cache *Cache
}

// GetBySKU returns the cached snapshot when present, otherwise consults the
// inner lookup and caches a hit. Unknown SKUs are not negatively cached so a
// newly published product becomes sellable without waiting out a TTL.
func (l CachedLookup) GetBySKU(ctx context.Context, sku string) (*Product, error) {
	key := cacheKeyPrefix + sku
	var cached Product
	hit, err := l.Cache.GetJSON(ctx, key, &cached)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("sku", sku).Msg("catalog cache read")
	}
	if hit {
		return &cached, nil
	}

	product, err := l.Inner.GetBySKU(ctx, sku)
	if err != nil || product == nil {
		return product, err
	}
	if err := l.Cache.SetJSON(ctx, key, product); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("sku", sku).Msg("catalog cache write")
	}
	return product, nil
}

var _ Lookup = CachedLookup{}
