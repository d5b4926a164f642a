package ringcache

import (
	"sync"

	"github.com/simplely77/ringcache/lru"
)

// cache is a thread-safe bounded LRU cache. Get takes the same lock as
// writes because a hit reorders the recency list.
type cache struct {
	mu       sync.Mutex
	lru      *lru.Cache
	capacity int
}

func newCache(capacity int) *cache {
	return &cache{capacity: capacity}
}

func (c *cache) add(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	// lazy init
	if c.lru == nil {
		c.lru = lru.New(c.capacity, c.onEvicted)
	}
	c.lru.Add(key, value)
	c.report()
}

func (c *cache) get(key string) (value string, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.lru == nil {
		return
	}
	return c.lru.Get(key)
}

func (c *cache) remove(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.lru == nil {
		return false
	}
	ok := c.lru.Remove(key)
	c.report()
	return ok
}

func (c *cache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.lru == nil {
		return 0
	}
	return c.lru.Len()
}

// onEvicted runs with c.mu held.
func (c *cache) onEvicted(key, _ string) {
	Logger().WithField("key", key).Debug("evicted least recently used entry")
	if IsMetricsEnabled() {
		GetMetrics().RecordEviction()
	}
}

func (c *cache) report() {
	if IsMetricsEnabled() {
		GetMetrics().SetCacheEntries(c.lru.Len())
	}
}
