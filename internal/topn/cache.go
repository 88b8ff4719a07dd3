package topn

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Cache stores activity id lists by key. Entries never expire.
type Cache interface {
	Get(ctx context.Context, key string) ([]uint, bool, error)
	Set(ctx context.Context, key string, ids []uint) error
	Delete(ctx context.Context, key string) error
}

// MemoryCache is a process-local Cache
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string][]uint
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string][]uint)}
}

func (c *MemoryCache) Get(ctx context.Context, key string) ([]uint, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ids, ok := c.entries[key]
	if !ok {
		return nil, false, nil
	}
	return append([]uint{}, ids...), true, nil
}

func (c *MemoryCache) Set(ctx context.Context, key string, ids []uint) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = append([]uint{}, ids...)
	return nil
}

func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}

// Len returns the number of cached keys
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// RedisCache shares entries between processes. Values are JSON arrays.
type RedisCache struct {
	client redis.UniversalClient
}

func NewRedisCache(client redis.UniversalClient) *RedisCache {
	return &RedisCache{client: client}
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]uint, bool, error) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get %s: %w", key, err)
	}
	var ids []uint
	if err := json.Unmarshal(raw, &ids); err != nil {
		return nil, false, fmt.Errorf("decode %s: %w", key, err)
	}
	return ids, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, ids []uint) error {
	if ids == nil {
		ids = []uint{}
	}
	raw, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	if err := c.client.Set(ctx, key, raw, 0).Err(); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

func (c *RedisCache) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}
