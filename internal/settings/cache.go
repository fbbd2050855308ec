package settings

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

const cacheKeyPrefix = "setting:"

// Cache is a Redis read-through cache for individual settings. A nil Cache
// is valid and falls through to the loader, so tests and degraded startups
// work without Redis. Concurrent misses for the same key are collapsed into
// a single load.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	group  singleflight.Group

	// gens counts invalidations per key. A load that straddles an
	// invalidation may return a value read before the write committed;
	// the generation check keeps that snapshot out of Redis.
	mu   sync.Mutex
	gens map[string]uint64

	// OnHit and OnMiss, when set, are invoked per lookup outcome.
	// Used to feed cache metrics without coupling this package to the
	// metrics registry.
	OnHit  func()
	OnMiss func()
}

// NewCache instantiates the cache helper.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl, gens: make(map[string]uint64)}
}

func (c *Cache) generation(key string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gens[key]
}

// Fetch returns the cached setting or populates the cache via loader.
func (c *Cache) Fetch(ctx context.Context, key string, loader func(context.Context) (Setting, error)) (Setting, error) {
	if c == nil || c.client == nil {
		return loader(ctx)
	}

	raw, err := c.client.Get(ctx, cacheKeyPrefix+key).Bytes()
	if err == nil {
		var s Setting
		if err := json.Unmarshal(raw, &s); err == nil {
			if c.OnHit != nil {
				c.OnHit()
			}
			return s, nil
		}
		// Unreadable payloads are evicted and reloaded.
		_ = c.client.Del(ctx, cacheKeyPrefix+key).Err()
	} else if !errors.Is(err, redis.Nil) {
		// Redis failure must not take reads down; fall through to the store.
		return loader(ctx)
	}

	if c.OnMiss != nil {
		c.OnMiss()
	}
	v, err, _ := c.group.Do(key, func() (any, error) {
		gen := c.generation(key)
		s, err := loader(ctx)
		if err != nil {
			return Setting{}, err
		}
		// Write-back is best effort; the caller still gets the value.
		_ = c.store(ctx, s, gen)
		return s, nil
	})
	if err != nil {
		return Setting{}, err
	}
	return v.(Setting), nil
}

// store writes s to Redis unless the key was invalidated after gen was
// read. The post-write recheck covers an invalidation landing between the
// generation read and the SET; the entry it might have missed is deleted.
func (c *Cache) store(ctx context.Context, s Setting, gen uint64) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	if c.generation(s.Key) != gen {
		return nil
	}
	_ = c.client.Set(ctx, cacheKeyPrefix+s.Key, data, c.ttl).Err()
	if c.generation(s.Key) != gen {
		_ = c.client.Del(ctx, cacheKeyPrefix+s.Key).Err()
	}
	return nil
}

// Invalidate drops cached entries. Called synchronously inside every write
// before it returns, so a Get after Set never observes the old value, even
// when a concurrent load read the store before the write committed.
func (c *Cache) Invalidate(ctx context.Context, keys ...string) error {
	if c == nil || c.client == nil || len(keys) == 0 {
		return nil
	}
	c.mu.Lock()
	if c.gens == nil {
		c.gens = make(map[string]uint64)
	}
	for _, k := range keys {
		c.gens[k]++
	}
	c.mu.Unlock()
	prefixed := make([]string, len(keys))
	for i, k := range keys {
		prefixed[i] = cacheKeyPrefix + k
	}
	if err := c.client.Del(ctx, prefixed...).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	return nil
}

// Warm primes the cache with the given settings.
func (c *Cache) Warm(ctx context.Context, items []Setting) error {
	if c == nil || c.client == nil {
		return nil
	}
	for _, s := range items {
		if err := c.store(ctx, s, c.generation(s.Key)); err != nil {
			return err
		}
	}
	return nil
}
