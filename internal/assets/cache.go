package assets

import (
	"container/list"
	"sync"
)

// CacheStats reports cache activity.
type CacheStats struct {
	Hits    int
	Misses  int
	Entries int
	Bytes   int64
}

type entry struct {
	key  string
	data []byte
}

// Cache keeps recently used assets in memory, evicting the least recently
// used entries once the byte limit is exceeded.
type Cache struct {
	limit int64

	mu      sync.Mutex
	order   *list.List // front = most recent
	entries map[string]*list.Element
	bytes   int64
	hits    int
	misses  int
}

// NewCache creates a cache limited to limit bytes; limit <= 0 means unbounded.
func NewCache(limit int64) *Cache {
	return &Cache{
		limit:   limit,
		order:   list.New(),
		entries: make(map[string]*list.Element),
	}
}

// Get retrieves an item.
func (c *Cache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	if !ok {
		c.misses++
		return nil, false
	}
	c.hits++
	c.order.MoveToFront(el)
	return el.Value.(*entry).data, true
}

// Set stores an item. Items larger than the limit are not cached.
func (c *Cache) Set(key string, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	size := int64(len(data))
	if c.limit > 0 && size > c.limit {
		return
	}
	if el, ok := c.entries[key]; ok {
		c.bytes -= int64(len(el.Value.(*entry).data))
		el.Value.(*entry).data = data
		c.order.MoveToFront(el)
	} else {
		c.entries[key] = c.order.PushFront(&entry{key: key, data: data})
	}
	c.bytes += size

	for c.limit > 0 && c.bytes > c.limit {
		oldest := c.order.Back()
		e := oldest.Value.(*entry)
		c.order.Remove(oldest)
		delete(c.entries, e.key)
		c.bytes -= int64(len(e.data))
	}
}

// Clear empties the cache and resets counters.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.order.Init()
	c.entries = make(map[string]*list.Element)
	c.bytes, c.hits, c.misses = 0, 0, 0
}

// Stats returns a snapshot of the counters.
func (c *Cache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return CacheStats{Hits: c.hits, Misses: c.misses, Entries: len(c.entries), Bytes: c.bytes}
}
