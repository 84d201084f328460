// Package cache holds analysis results keyed by graph content and settings.
package cache

import (
	"container/list"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/cespare/xxhash/v2"

	"github.com/dd0wney/cluso-analytics/pkg/graph"
)

// Key identifies a result by the graph content hash and a hash of the
// settings that produced it
type Key struct {
	Graph  uint64
	Config uint64
}

func (k Key) String() string {
	return fmt.Sprintf("%016x/%016x", k.Graph, k.Config)
}

// ConfigHash hashes the JSON encoding of v. Values that cannot be encoded
// fall back to their %#v form.
func ConfigHash(v any) uint64 {
	data, err := json.Marshal(v)
	if err != nil {
		return xxhash.Sum64String(fmt.Sprintf("%#v", v))
	}
	return xxhash.Sum64(data)
}

// Cache is an LRU cache of results. Entries for a graph are dropped when a
// watched graph mutates.
type Cache[V any] struct {
	mu       sync.RWMutex
	capacity int
	cache    map[Key]*list.Element
	byGraph  map[uint64]map[Key]struct{}
	lru      *list.List

	// Statistics
	hits          int64
	misses        int64
	invalidations int64

	onInvalidate func(dropped int)
}

type cacheEntry[V any] struct {
	key   Key
	value V
}

// New creates a new LRU result cache. A capacity below 1 means 1.
func New[V any](capacity int) *Cache[V] {
	return &Cache[V]{
		capacity: max(capacity, 1),
		cache:    make(map[Key]*list.Element),
		byGraph:  make(map[uint64]map[Key]struct{}),
		lru:      list.New(),
	}
}

// OnInvalidate registers a callback receiving the number of entries each
// invalidation drops
func (c *Cache[V]) OnInvalidate(fn func(dropped int)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onInvalidate = fn
}

// Get retrieves a value from the cache
func (c *Cache[V]) Get(key Key) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.cache[key]; ok {
		// Move to front (most recently used)
		c.lru.MoveToFront(elem)
		c.hits++
		return elem.Value.(*cacheEntry[V]).value, true
	}

	c.misses++
	var zero V
	return zero, false
}

// Put adds a value to the cache
func (c *Cache[V]) Put(key Key, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Check if key already exists
	if elem, ok := c.cache[key]; ok {
		c.lru.MoveToFront(elem)
		elem.Value.(*cacheEntry[V]).value = value
		return
	}

	elem := c.lru.PushFront(&cacheEntry[V]{key: key, value: value})
	c.cache[key] = elem
	keys := c.byGraph[key.Graph]
	if keys == nil {
		keys = make(map[Key]struct{})
		c.byGraph[key.Graph] = keys
	}
	keys[key] = struct{}{}

	// Evict if over capacity
	if c.lru.Len() > c.capacity {
		c.evict()
	}
}

// evict removes the least recently used entry
func (c *Cache[V]) evict() {
	if elem := c.lru.Back(); elem != nil {
		c.removeElement(elem)
	}
}

func (c *Cache[V]) removeElement(elem *list.Element) {
	c.lru.Remove(elem)
	key := elem.Value.(*cacheEntry[V]).key
	delete(c.cache, key)
	if keys := c.byGraph[key.Graph]; keys != nil {
		delete(keys, key)
		if len(keys) == 0 {
			delete(c.byGraph, key.Graph)
		}
	}
}

// Invalidate drops every entry computed for the graph content hash and
// returns how many were dropped
func (c *Cache[V]) Invalidate(graphHash uint64) int {
	c.mu.Lock()
	keys := c.byGraph[graphHash]
	dropped := len(keys)
	for key := range keys {
		c.removeElement(c.cache[key])
	}
	c.invalidations += int64(dropped)
	fn := c.onInvalidate
	c.mu.Unlock()

	if fn != nil && dropped > 0 {
		fn(dropped)
	}
	return dropped
}

// Watch invalidates the entries of g's previous content whenever g mutates
func (c *Cache[V]) Watch(g *graph.Graph) {
	g.OnMutate(func(m graph.Mutation) {
		c.Invalidate(m.PreviousHash)
	})
}

// Clear removes all entries from the cache
func (c *Cache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cache = make(map[Key]*list.Element)
	c.byGraph = make(map[uint64]map[Key]struct{})
	c.lru = list.New()
	c.hits = 0
	c.misses = 0
	c.invalidations = 0
}

// Stats returns cache statistics
func (c *Cache[V]) Stats() (hits, misses int64, hitRate float64) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	hits = c.hits
	misses = c.misses
	total := hits + misses
	if total > 0 {
		hitRate = float64(hits) / float64(total)
	}
	return
}

// Invalidations returns the number of entries dropped by Invalidate
func (c *Cache[V]) Invalidations() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.invalidations
}

// Size returns the current number of entries
func (c *Cache[V]) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lru.Len()
}
