package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/nvrbrth/nvrbrth-backend1/internal/domain"
)

var ErrCacheMiss = errors.New("cache miss")

// EntryCache caches catalog entries by canonical key.
type EntryCache interface {
	Get(ctx context.Context, key string) (*domain.CatalogEntry, error)
	Set(ctx context.Context, entry domain.CatalogEntry) error
	Delete(ctx context.Context, key string) error
}

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{
		client:  client,
		baseTTL: 15 * time.Minute,
	}
}

type RedisCache struct {
	client  *redis.Client
	baseTTL time.Duration
}

func (r RedisCache) Get(ctx context.Context, key string) (*domain.CatalogEntry, error) {
	data, err := r.client.Get(ctx, cacheKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var entry domain.CatalogEntry
	if err2 := json.Unmarshal(data, &entry); err2 != nil {
		return nil, fmt.Errorf("unmarshal catalog entry failed: %w", err2)
	}

	return &entry, nil
}

func (r RedisCache) Set(ctx context.Context, entry domain.CatalogEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal catalog entry failed: %w", err)
	}

	jitter := time.Duration(rand.Intn(5)) * time.Minute
	if err := r.client.Set(ctx, cacheKey(entry.CanonicalKey), data, r.baseTTL+jitter).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r RedisCache) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, cacheKey(key)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func cacheKey(key string) string {
	return fmt.Sprintf("catalog:%s", key)
}

// CachedStore is a read-through cache in front of a Store. Misses are fetched
// in one batch under singleflight to prevent a stampede on the backing store.
// Decrements go straight through and invalidate the cached entry, since a
// cached stock count would otherwise go stale.
type CachedStore struct {
	store Store
	cache EntryCache
	sfg   singleflight.Group
}

func NewCachedStore(store Store, cache EntryCache) *CachedStore {
	return &CachedStore{store: store, cache: cache}
}

func (c *CachedStore) Entries(ctx context.Context, keys []string) (map[string]domain.CatalogEntry, error) {
	result := make(map[string]domain.CatalogEntry, len(keys))

	var missing []string
	for _, key := range keys {
		entry, err := c.cache.Get(ctx, key)
		if err == nil {
			result[key] = *entry
			continue
		}
		if !errors.Is(err, ErrCacheMiss) {
			log.Printf("cache get error: %v", err) // log cache error but continue
		}
		missing = append(missing, key)
	}

	if len(missing) == 0 {
		return result, nil
	}

	sort.Strings(missing)
	v, err, _ := c.sfg.Do(strings.Join(missing, ","), func() (interface{}, error) {
		return c.store.Entries(ctx, missing)
	})
	if err != nil {
		return nil, err
	}

	fetched := v.(map[string]domain.CatalogEntry)
	for key, entry := range fetched {
		result[key] = entry
		if errSet := c.cache.Set(ctx, entry); errSet != nil {
			log.Printf("cache set error: %v", errSet)
		}
	}

	return result, nil
}

func (c *CachedStore) CompareAndDecrement(ctx context.Context, key string, qty int) error {
	if err := c.store.CompareAndDecrement(ctx, key, qty); err != nil {
		return err
	}
	if err := c.cache.Delete(ctx, key); err != nil {
		log.Printf("cache invalidate error: %v", err)
	}
	return nil
}
