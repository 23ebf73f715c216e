package testutil

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/turtacn/chemtemplates/pkg/errors"
)

// ErrMemoryCacheMiss is returned by MemoryCache on a miss.
var ErrMemoryCacheMiss = errors.New(errors.ErrCodeCacheError, "cache miss")

// MemoryCache is an in-process stand-in for the redis cache. Values are
// stored as JSON so decoding behaves like the real backend; TTLs are ignored.
type MemoryCache struct {
	mu    sync.Mutex
	items map[string][]byte
	// Loads counts loader invocations made by GetOrSet.
	Loads int
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{items: map[string][]byte{}}
}

// Keys returns the stored keys.
func (c *MemoryCache) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.items))
	for k := range c.items {
		out = append(out, k)
	}
	return out
}

func (c *MemoryCache) Get(_ context.Context, key string, dest interface{}) error {
	c.mu.Lock()
	data, ok := c.items[key]
	c.mu.Unlock()
	if !ok {
		return ErrMemoryCacheMiss
	}
	return json.Unmarshal(data, dest)
}

func (c *MemoryCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.items[key] = data
	c.mu.Unlock()
	return nil
}

func (c *MemoryCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.items, k)
	}
	return nil
}

func (c *MemoryCache) Exists(_ context.Context, key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.items[key]
	return ok, nil
}

func (c *MemoryCache) GetOrSet(ctx context.Context, key string, dest interface{}, ttl time.Duration, loader func(ctx context.Context) (interface{}, error)) error {
	if err := c.Get(ctx, key, dest); err == nil {
		return nil
	}
	c.mu.Lock()
	c.Loads++
	c.mu.Unlock()

	v, err := loader(ctx)
	if err != nil {
		return err
	}
	if v == nil {
		return ErrMemoryCacheMiss
	}
	if err := c.Set(ctx, key, v, ttl); err != nil {
		return err
	}
	return c.Get(ctx, key, dest)
}

func (c *MemoryCache) DeleteByPrefix(_ context.Context, prefix string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var n int64
	for k := range c.items {
		if strings.HasPrefix(k, prefix) {
			delete(c.items, k)
			n++
		}
	}
	return n, nil
}

func (c *MemoryCache) Ping(context.Context) error { return nil }

//Personal.AI order the ending
