// README: In-process cache with TTL and insertion-order eviction.
package intentcache

import (
	"context"
	"sync"
	"time"

	"tripflow/internal/intent"
)

type memoryEntry struct {
	ti       *intent.TripIntent
	storedAt time.Time
}

// MemoryCache is a bounded in-process Cache. When full, the oldest
// insertion is evicted first. Safe for concurrent use.
type MemoryCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	max     int
	entries map[string]memoryEntry
	order   []string
	now     func() time.Time

	hits   int64
	misses int64
}

// NewMemory builds a cache holding at most max entries for ttl each.
func NewMemory(ttl time.Duration, max int) *MemoryCache {
	if max <= 0 {
		max = 1
	}
	return &MemoryCache{
		ttl:     ttl,
		max:     max,
		entries: make(map[string]memoryEntry, max),
		now:     time.Now,
	}
}

func (c *MemoryCache) Get(_ context.Context, key string) (*intent.TripIntent, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		c.misses++
		return nil, false, nil
	}
	if c.ttl > 0 && c.now().Sub(e.storedAt) > c.ttl {
		c.evict(key)
		c.misses++
		return nil, false, nil
	}
	c.hits++
	return e.ti.Clone(), true, nil
}

func (c *MemoryCache) Put(_ context.Context, key string, ti *intent.TripIntent) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists {
		for len(c.entries) >= c.max && len(c.order) > 0 {
			c.evict(c.order[0])
		}
		c.order = append(c.order, key)
	}
	c.entries[key] = memoryEntry{ti: ti.Clone(), storedAt: c.now()}
	return nil
}

// Stats reports lifetime hit and miss counts.
func (c *MemoryCache) Stats() (hits, misses int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}

// evict removes key from both the map and the order list. Callers hold mu.
func (c *MemoryCache) evict(key string) {
	delete(c.entries, key)
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}
