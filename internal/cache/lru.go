package cache

import (
	"container/list"
	"sync"
	"time"
)

type entry[V any] struct {
	key    string
	value  V
	stored time.Time
}

// LRU is a thread-safe least-recently-used cache bounded by item count.
type LRU[V any] struct {
	mu       sync.Mutex
	maxItems int
	items    map[string]*list.Element
	order    *list.List

	hits      int64
	misses    int64
	evictions int64
}

// NewLRU creates a cache holding at most maxItems entries (0 = unlimited).
func NewLRU[V any](maxItems int) *LRU[V] {
	return &LRU[V]{
		maxItems: maxItems,
		items:    make(map[string]*list.Element),
		order:    list.New(),
	}
}

// Get retrieves a value and marks it recently used.
func (c *LRU[V]) Get(key string) (V, bool) {
	v, _, ok := c.getStamped(key)
	return v, ok
}

func (c *LRU[V]) getStamped(key string) (V, time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		c.order.MoveToFront(elem)
		c.hits++
		e := elem.Value.(*entry[V])
		return e.value, e.stored, true
	}

	c.misses++
	var zero V
	return zero, time.Time{}, false
}

// Put adds or replaces a value, evicting the oldest entries past the limit.
func (c *LRU[V]) Put(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		c.order.MoveToFront(elem)
		e := elem.Value.(*entry[V])
		e.value = value
		e.stored = time.Now()
		return
	}

	c.items[key] = c.order.PushFront(&entry[V]{key: key, value: value, stored: time.Now()})
	for c.maxItems > 0 && c.order.Len() > c.maxItems {
		c.removeElement(c.order.Back())
		c.evictions++
	}
}

func (c *LRU[V]) removeElement(elem *list.Element) {
	c.order.Remove(elem)
	delete(c.items, elem.Value.(*entry[V]).key)
}

// Delete removes a key from the cache.
func (c *LRU[V]) Delete(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		c.removeElement(elem)
		return true
	}
	return false
}

// Clear removes all entries. Counters are kept.
func (c *LRU[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]*list.Element)
	c.order.Init()
}

// Len returns the number of items in the cache.
func (c *LRU[V]) Len() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Stats holds cache statistics.
type Stats struct {
	Items     int     `json:"items"`
	Hits      int64   `json:"hits"`
	Misses    int64   `json:"misses"`
	Evictions int64   `json:"evictions"`
	HitRate   float64 `json:"hitRate"`
}

// Stats returns current cache statistics.
func (c *LRU[V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := c.hits + c.misses
	hitRate := float64(0)
	if total > 0 {
		hitRate = float64(c.hits) / float64(total)
	}

	return Stats{
		Items:     c.order.Len(),
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
		HitRate:   hitRate,
	}
}

// ResetStats resets hit/miss/eviction counters.
func (c *LRU[V]) ResetStats() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hits = 0
	c.misses = 0
	c.evictions = 0
}
