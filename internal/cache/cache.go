package cache

import (
	"container/list"
	"strings"
	"sync"
)

// DefaultCapacity is the entry bound used when no capacity is configured.
const DefaultCapacity = 4096

// Cache is a fixed-capacity prompt→result store with least-recently-used
// eviction. All operations are safe for concurrent use; a single mutex
// guards both the entry map and the recency list, so a hit always observes
// a fully written prior result.
type Cache struct {
	mu       sync.Mutex
	capacity int
	entries  map[string]*list.Element
	recency  *list.List // front = most recently touched
}

type entry struct {
	key   string
	value string
}

// New creates a Cache bounded to the given number of entries. A capacity
// of zero or less falls back to DefaultCapacity.
func New(capacity int) *Cache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Cache{
		capacity: capacity,
		entries:  make(map[string]*list.Element, capacity),
		recency:  list.New(),
	}
}

// Get returns the value stored for key and refreshes its recency.
func (c *Cache) Get(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	if !ok {
		return "", false
	}
	c.recency.MoveToFront(el)
	return el.Value.(*entry).value, true
}

// Put stores value under key. Inserting a new key at capacity evicts
// exactly one entry, the least recently touched.
func (c *Cache) Put(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[key]; ok {
		el.Value.(*entry).value = value
		c.recency.MoveToFront(el)
		return
	}

	if len(c.entries) >= c.capacity {
		oldest := c.recency.Back()
		if oldest != nil {
			c.recency.Remove(oldest)
			delete(c.entries, oldest.Value.(*entry).key)
		}
	}

	c.entries[key] = c.recency.PushFront(&entry{key: key, value: value})
}

// LongestPrefix scans the stored keys for keys that query begins with and
// returns the length and value of the longest such key.
//
// Note that the scheduler only honors a match whose length equals
// len(query), so in practice this behaves as an exact-match lookup; the
// prefix scan is retained because serving a result for a proper prefix
// would change which results callers observe for unseen prompts.
func (c *Cache) LongestPrefix(query string) (int, string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	bestLen := 0
	bestValue := ""
	found := false
	for key, el := range c.entries {
		if len(key) > bestLen && strings.HasPrefix(query, key) {
			bestLen = len(key)
			bestValue = el.Value.(*entry).value
			found = true
		}
	}

	// An exact match is a served hit, so it counts as a touch for
	// eviction ordering.
	if found && bestLen == len(query) {
		c.recency.MoveToFront(c.entries[query])
	}

	return bestLen, bestValue, found
}

// Len reports the current number of entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
