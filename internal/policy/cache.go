package policy

import "sync"

// Cache keeps resolver output for recently seen markup, keyed by the
// markup fingerprint. Configured and content sources are merged after a
// lookup, so settings changes apply immediately. The oldest entry is
// evicted once the cache is full.
type Cache struct {
	mu      sync.Mutex
	max     int
	entries map[uint64]Map
	order   []uint64
}

// NewCache creates a cache holding at most max entries.
func NewCache(max int) *Cache {
	if max < 1 {
		max = 1
	}
	return &Cache{
		max:     max,
		entries: make(map[uint64]Map, max),
	}
}

// Get returns a copy of the cached resolver output for key.
func (c *Cache) Get(key uint64) (Map, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	m, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	return m.Clone(), true
}

// Put stores a copy of m under key.
func (c *Cache) Put(key uint64, m Map) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[key]; ok {
		c.entries[key] = m.Clone()
		return
	}

	for len(c.order) >= c.max {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}

	c.entries[key] = m.Clone()
	c.order = append(c.order, key)
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
