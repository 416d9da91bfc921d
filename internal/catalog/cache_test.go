package catalog

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvrbrth/nvrbrth-backend1/internal/domain"
)

// setupTestRedis creates a miniredis server and returns a RedisCache instance
func setupTestRedis(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() { client.Close() })

	return NewRedisCache(client), mr
}

func TestRedisCache_Get(t *testing.T) {
	cache, mr := setupTestRedis(t)

	entry := domain.CatalogEntry{
		CanonicalKey: "vein-001",
		DisplayName:  "VEIN hoodie",
		UnitAmount:   3500,
		Currency:     "gbp",
		Stock:        intPtr(10),
	}
	data, _ := json.Marshal(entry)
	mr.Set(cacheKey("vein-001"), string(data))

	got, err := cache.Get(context.Background(), "vein-001")
	require.NoError(t, err)
	assert.Equal(t, entry.CanonicalKey, got.CanonicalKey)
	assert.Equal(t, entry.UnitAmount, got.UnitAmount)
}

func TestRedisCache_GetMiss(t *testing.T) {
	cache, _ := setupTestRedis(t)

	got, err := cache.Get(context.Background(), "nonexistent")
	assert.ErrorIs(t, err, ErrCacheMiss)
	assert.Nil(t, got)
}

func TestRedisCache_GetInvalidJSON(t *testing.T) {
	cache, mr := setupTestRedis(t)
	mr.Set(cacheKey("vein-001"), "{not json")

	_, err := cache.Get(context.Background(), "vein-001")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrCacheMiss)
}

func TestRedisCache_SetThenGet(t *testing.T) {
	cache, _ := setupTestRedis(t)

	entry := domain.CatalogEntry{CanonicalKey: "husk-003", UnitAmount: 2800, Currency: "gbp"}
	require.NoError(t, cache.Set(context.Background(), entry))

	got, err := cache.Get(context.Background(), "husk-003")
	require.NoError(t, err)
	assert.Equal(t, int64(2800), got.UnitAmount)
}

func TestRedisCache_Delete(t *testing.T) {
	cache, _ := setupTestRedis(t)

	entry := domain.CatalogEntry{CanonicalKey: "husk-003", UnitAmount: 2800, Currency: "gbp"}
	require.NoError(t, cache.Set(context.Background(), entry))
	require.NoError(t, cache.Delete(context.Background(), "husk-003"))

	_, err := cache.Get(context.Background(), "husk-003")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestCachedStore_ReadThrough(t *testing.T) {
	cache, _ := setupTestRedis(t)
	cached := NewCachedStore(seededStore(), cache)

	entries, err := cached.Entries(context.Background(), []string{"vein-001"})
	require.NoError(t, err)
	assert.Equal(t, int64(3500), entries["vein-001"].UnitAmount)

	// The backing store is no longer consulted once the cache holds the key.
	fromCache, err := cache.Get(context.Background(), "vein-001")
	require.NoError(t, err)
	assert.Equal(t, int64(3500), fromCache.UnitAmount)
}

func TestCachedStore_DecrementInvalidates(t *testing.T) {
	cache, _ := setupTestRedis(t)
	store := seededStore()
	cached := NewCachedStore(store, cache)

	_, err := cached.Entries(context.Background(), []string{"vein-001"})
	require.NoError(t, err)

	require.NoError(t, cached.CompareAndDecrement(context.Background(), "vein-001", 1))

	_, err = cache.Get(context.Background(), "vein-001")
	assert.ErrorIs(t, err, ErrCacheMiss, "decrement must invalidate the cached entry")

	entries, err := cached.Entries(context.Background(), []string{"vein-001"})
	require.NoError(t, err)
	assert.Equal(t, 9, *entries["vein-001"].Stock)
}

func TestCachedStore_MissingKeysStayMissing(t *testing.T) {
	cache, _ := setupTestRedis(t)
	cached := NewCachedStore(seededStore(), cache)

	entries, err := cached.Entries(context.Background(), []string{"vein-001", "missing"})
	require.NoError(t, err)
	assert.Len(t, entries, 1)
	assert.NotContains(t, entries, "missing")
}
