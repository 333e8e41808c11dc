package geoapify

import (
	"sync"
	"time"
)

// queryCache is a concurrent-safe LRU cache with TTL expiration for
// provider responses. Geocode and place-query results share one instance
// per client; multiple requests may hit it concurrently.
type queryCache[V any] struct {
	mu         sync.Mutex
	entries    map[string]cacheEntry[V]
	order      []string // LRU order: front=oldest, back=newest
	maxEntries int
	ttl        time.Duration
}

type cacheEntry[V any] struct {
	value     V
	createdAt time.Time
}

func newQueryCache[V any](maxEntries int, ttl time.Duration) *queryCache[V] {
	return &queryCache[V]{
		entries:    make(map[string]cacheEntry[V]),
		maxEntries: maxEntries,
		ttl:        ttl,
	}
}

// get retrieves a cached value. ok is false on miss or expiration.
func (c *queryCache[V]) get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	entry, ok := c.entries[key]
	if !ok {
		return zero, false
	}
	if time.Since(entry.createdAt) > c.ttl {
		delete(c.entries, key)
		c.removeFromOrder(key)
		return zero, false
	}

	c.removeFromOrder(key)
	c.order = append(c.order, key)
	return entry.value, true
}

// put stores a value, evicting the oldest entry when at capacity.
func (c *queryCache[V]) put(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[key]; ok {
		c.entries[key] = cacheEntry[V]{value: value, createdAt: time.Now()}
		c.removeFromOrder(key)
		c.order = append(c.order, key)
		return
	}

	for len(c.entries) >= c.maxEntries && len(c.order) > 0 {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}

	c.entries[key] = cacheEntry[V]{value: value, createdAt: time.Now()}
	c.order = append(c.order, key)
}

func (c *queryCache[V]) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *queryCache[V]) removeFromOrder(key string) {
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}
