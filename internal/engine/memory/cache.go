// Package memory bounds cached resource payloads, samples frame timing and
// detects memory pressure.
package memory

import (
	"container/list"
	"time"

	"github.com/Faultbox/scene-perf/internal/engine/clock"
)

// CacheItem is one cached payload.
type CacheItem[T any] struct {
	Key          string
	Value        T
	LastAccessed time.Time
	AccessCount  int
	Size         int64
}

// CacheStats is a snapshot of cache counters.
type CacheStats struct {
	Hits    int
	Misses  int
	Size    int64
	Count   int
	HitRate float64
}

// LRUCache holds payloads under a byte budget and evicts the least recently
// accessed first. Entries are never limited by count.
type LRUCache[T any] struct {
	maxSize int64
	size    int64
	items   map[string]*list.Element
	order   *list.List // Front is most recently accessed
	hits    int
	misses  int
	clock   clock.Clock

	// OnEvict runs for every entry leaving the cache, whether evicted,
	// removed or cleared.
	OnEvict func(key string, value T)
}

// NewLRUCache creates a cache with a byte budget.
func NewLRUCache[T any](maxSize int64, clk clock.Clock) *LRUCache[T] {
	if clk == nil {
		clk = clock.Real
	}
	return &LRUCache[T]{
		maxSize: maxSize,
		items:   make(map[string]*list.Element),
		order:   list.New(),
		clock:   clk,
	}
}

// Get returns the payload for key and marks it accessed.
func (c *LRUCache[T]) Get(key string) (T, bool) {
	el, ok := c.items[key]
	if !ok {
		c.misses++
		var zero T
		return zero, false
	}
	it := el.Value.(*CacheItem[T])
	it.LastAccessed = c.clock.Now()
	it.AccessCount++
	c.order.MoveToFront(el)
	c.hits++
	return it.Value, true
}

// Set stores value with an estimated size, replacing any existing entry.
// Older entries are evicted until it fits. A value larger than the whole
// budget clears the cache and is then stored on its own.
func (c *LRUCache[T]) Set(key string, value T, size int64) {
	c.Remove(key)

	if size > c.maxSize {
		c.Clear()
	} else {
		for c.size+size > c.maxSize && c.order.Len() > 0 {
			c.removeElement(c.order.Back())
		}
	}

	it := &CacheItem[T]{
		Key:          key,
		Value:        value,
		LastAccessed: c.clock.Now(),
		AccessCount:  1,
		Size:         size,
	}
	c.items[key] = c.order.PushFront(it)
	c.size += size
}

// Remove deletes key. It reports whether the key was present.
func (c *LRUCache[T]) Remove(key string) bool {
	el, ok := c.items[key]
	if !ok {
		return false
	}
	c.removeElement(el)
	return true
}

func (c *LRUCache[T]) removeElement(el *list.Element) {
	it := c.order.Remove(el).(*CacheItem[T])
	delete(c.items, it.Key)
	c.size -= it.Size
	if c.OnEvict != nil {
		c.OnEvict(it.Key, it.Value)
	}
}

// EvictOldest removes up to n least recently accessed entries.
func (c *LRUCache[T]) EvictOldest(n int) int {
	evicted := 0
	for ; evicted < n && c.order.Len() > 0; evicted++ {
		c.removeElement(c.order.Back())
	}
	return evicted
}

// Clear removes every entry.
func (c *LRUCache[T]) Clear() {
	for c.order.Len() > 0 {
		c.removeElement(c.order.Back())
	}
	c.size = 0
}

// Len returns the number of entries.
func (c *LRUCache[T]) Len() int {
	return len(c.items)
}

// Size returns the summed estimated size.
func (c *LRUCache[T]) Size() int64 {
	return c.size
}

// MaxSize returns the byte budget.
func (c *LRUCache[T]) MaxSize() int64 {
	return c.maxSize
}

// Keys returns keys from most to least recently accessed.
func (c *LRUCache[T]) Keys() []string {
	keys := make([]string, 0, c.order.Len())
	for el := c.order.Front(); el != nil; el = el.Next() {
		keys = append(keys, el.Value.(*CacheItem[T]).Key)
	}
	return keys
}

// Stats returns hit/miss counters and occupancy.
func (c *LRUCache[T]) Stats() CacheStats {
	s := CacheStats{Hits: c.hits, Misses: c.misses, Size: c.size, Count: len(c.items)}
	if total := c.hits + c.misses; total > 0 {
		s.HitRate = float64(c.hits) / float64(total)
	}
	return s
}
