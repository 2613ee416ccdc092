package storage

import (
	"context"
	"maps"
	"sync"

	lru "github.com/hashicorp/golang-lru"

	"github.com/julianstephens/growthtrack/internal/logger"
)

// Cached is a Provider that keeps recently read records in an LRU cache.
// Writes through this provider evict the affected keys once the underlying
// write returns, and a read that overlapped any write is not cached.
//
// The cache is local to one process. Writes made by another process (a second
// server or Lambda instance) never evict its entries, so it must only be
// enabled where a single process owns the store.
type Cached struct {
	Provider
	cache *lru.Cache

	mu sync.Mutex
	// gen counts completed writes
	gen uint64
}

// NewCached wraps p with an LRU cache holding up to size records
func NewCached(p Provider, size int) (*Cached, error) {
	cache, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &Cached{Provider: p, cache: cache}, nil
}

func cacheKey(t Table, key Key) string {
	return t.Name + "\x00" + key.PK + "\x00" + key.SK
}

func (c *Cached) generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen
}

func (c *Cached) Get(ctx context.Context, t Table, key Key) (Item, error) {
	ck := cacheKey(t, key)
	if v, ok := c.cache.Get(ck); ok {
		logger.Debug("Cache hit", "table", t.Name, "pk", key.PK, "sk", key.SK)
		return maps.Clone(v.(Item)), nil
	}

	gen := c.generation()
	item, err := c.Provider.Get(ctx, t, key)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	if c.gen == gen {
		c.cache.Add(ck, maps.Clone(item))
	}
	c.mu.Unlock()
	return item, nil
}

// evict drops keys after a write and invalidates reads still in flight
func (c *Cached) evict(keys ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	for _, ck := range keys {
		c.cache.Remove(ck)
	}
}

func (c *Cached) Put(ctx context.Context, t Table, item Item) error {
	err := c.Provider.Put(ctx, t, item)
	if key, kerr := t.Key(item); kerr == nil {
		c.evict(cacheKey(t, key))
	} else {
		c.evict()
	}
	return err
}

func (c *Cached) Delete(ctx context.Context, t Table, key Key) error {
	err := c.Provider.Delete(ctx, t, key)
	c.evict(cacheKey(t, key))
	return err
}

func (c *Cached) DeleteBatch(ctx context.Context, t Table, keys []Key) error {
	err := c.Provider.DeleteBatch(ctx, t, keys)
	cks := make([]string, 0, len(keys))
	for _, key := range keys {
		cks = append(cks, cacheKey(t, key))
	}
	c.evict(cks...)
	return err
}

// Len returns the number of cached records
func (c *Cached) Len() int {
	return c.cache.Len()
}
