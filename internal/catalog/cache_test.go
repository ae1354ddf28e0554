package catalog_test

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/hpwell/funnel-pricing/internal/catalog"
)

type countingLookup struct {
	inner catalog.Lookup
	calls int
}

func (c *countingLookup) GetBySKU(ctx context.Context, sku string) (*catalog.Product, error) {
	c.calls++
	return c.inner.GetBySKU(ctx, sku)
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestCachedLookupReadThrough(t *testing.T) {
	mr, client := newTestRedis(t)

	inner := &countingLookup{inner: catalog.NewStatic(
		catalog.Product{SKU: "SERUM-30", Name: "Serum", Price: 4000, RegularPrice: 4000, Cost: 1500},
	)}
	lookup := catalog.CachedLookup{Inner: inner, Cache: catalog.NewCache(client, time.Minute)}

	ctx := context.Background()
	p, err := lookup.GetBySKU(ctx, "SERUM-30")
	require.NoError(t, err)
	require.NotNil(t, p)
	require.Equal(t, 1, inner.calls)

	// Second read is served from the cache.
	p, err = lookup.GetBySKU(ctx, "SERUM-30")
	require.NoError(t, err)
	require.EqualValues(t, 4000, p.Price)
	require.Equal(t, 1, inner.calls)

	// Expiry falls back to the inner lookup.
	mr.FastForward(2 * time.Minute)
	_, err = lookup.GetBySKU(ctx, "SERUM-30")
	require.NoError(t, err)
	require.Equal(t, 2, inner.calls)
}

func TestCachedLookupDoesNotCacheMisses(t *testing.T) {
	_, client := newTestRedis(t)

	inner := &countingLookup{inner: catalog.NewStatic()}
	lookup := catalog.CachedLookup{Inner: inner, Cache: catalog.NewCache(client, time.Minute)}

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		p, err := lookup.GetBySKU(ctx, "GHOST-1")
		require.NoError(t, err)
		require.Nil(t, p)
	}
	require.Equal(t, 2, inner.calls, "unknown SKUs hit the source every time")
}

func TestCachedLookupSurvivesCacheFailure(t *testing.T) {
	mr, client := newTestRedis(t)
	mr.Close()

	inner := &countingLookup{inner: catalog.NewStatic(
		catalog.Product{SKU: "MASK-5", Price: 2500, RegularPrice: 2500},
	)}
	lookup := catalog.CachedLookup{Inner: inner, Cache: catalog.NewCache(client, time.Minute)}

	p, err := lookup.GetBySKU(context.Background(), "MASK-5")
	require.NoError(t, err)
	require.NotNil(t, p)
}

type failingLookup struct{}

func (failingLookup) GetBySKU(context.Context, string) (*catalog.Product, error) {
	return nil, errors.New("catalog down")
}

func TestCachedLookupPropagatesSourceErrors(t *testing.T) {
	_, client := newTestRedis(t)

	lookup := catalog.CachedLookup{Inner: failingLookup{}, Cache: catalog.NewCache(client, time.Minute)}
	_, err := lookup.GetBySKU(context.Background(), "SERUM-30")
	require.Error(t, err)
}
