package cache

import (
	"sync"
	"testing"

	"github.com/dd0wney/cluso-analytics/pkg/graph"
)

// TestCache_PutGet tests basic put/get operations
func TestCache_PutGet(t *testing.T) {
	c := New[string](3)

	c.Put(Key{Graph: 1, Config: 1}, "value1")
	value, ok := c.Get(Key{Graph: 1, Config: 1})
	if !ok {
		t.Fatal("Expected key to be in cache")
	}
	if value != "value1" {
		t.Errorf("Expected 'value1', got '%s'", value)
	}

	// Same graph, different settings
	if _, ok := c.Get(Key{Graph: 1, Config: 2}); ok {
		t.Error("Expected different config to miss")
	}

	c.Put(Key{Graph: 1, Config: 1}, "updated")
	if value, _ := c.Get(Key{Graph: 1, Config: 1}); value != "updated" {
		t.Errorf("Expected 'updated', got '%s'", value)
	}
	if c.Size() != 1 {
		t.Errorf("Expected size 1 after update, got %d", c.Size())
	}
}

// TestCache_Eviction tests LRU eviction
func TestCache_Eviction(t *testing.T) {
	c := New[int](2)

	c.Put(Key{Graph: 1}, 1)
	c.Put(Key{Graph: 2}, 2)
	c.Get(Key{Graph: 1}) // 2 becomes least recently used
	c.Put(Key{Graph: 3}, 3)

	if _, ok := c.Get(Key{Graph: 2}); ok {
		t.Error("Expected key 2 to be evicted")
	}
	if _, ok := c.Get(Key{Graph: 1}); !ok {
		t.Error("Expected key 1 to remain")
	}
	if c.Size() != 2 {
		t.Errorf("Expected size 2, got %d", c.Size())
	}

	// Evicted keys no longer count for invalidation
	if dropped := c.Invalidate(2); dropped != 0 {
		t.Errorf("Expected nothing to invalidate, dropped %d", dropped)
	}
}

// TestCache_Invalidate tests dropping every entry of one graph
func TestCache_Invalidate(t *testing.T) {
	c := New[int](10)
	var reported int
	c.OnInvalidate(func(n int) { reported += n })

	c.Put(Key{Graph: 7, Config: 1}, 1)
	c.Put(Key{Graph: 7, Config: 2}, 2)
	c.Put(Key{Graph: 8, Config: 1}, 3)

	if dropped := c.Invalidate(7); dropped != 2 {
		t.Errorf("Expected 2 dropped, got %d", dropped)
	}
	if reported != 2 || c.Invalidations() != 2 {
		t.Errorf("Expected 2 reported invalidations, got %d and %d", reported, c.Invalidations())
	}
	if _, ok := c.Get(Key{Graph: 8, Config: 1}); !ok {
		t.Error("Expected other graph to remain")
	}
}

// TestCache_Watch tests invalidation from graph mutations
func TestCache_Watch(t *testing.T) {
	g := graph.New(graph.DefaultOptions())
	if err := g.AddEdge("a", "b", 1, false); err != nil {
		t.Fatalf("AddEdge failed: %v", err)
	}

	c := New[string](10)
	c.Watch(g)

	before := Key{Graph: g.ContentHash(), Config: ConfigHash(map[string]int{"k": 1})}
	c.Put(before, "result")

	if err := g.AddEdge("b", "c", 1, false); err != nil {
		t.Fatalf("AddEdge failed: %v", err)
	}
	if _, ok := c.Get(before); ok {
		t.Error("Expected mutation to invalidate the entry")
	}

	after := Key{Graph: g.ContentHash(), Config: before.Config}
	if after.Graph == before.Graph {
		t.Fatal("Expected content hash to change")
	}
	c.Put(after, "result")

	// A failed mutation leaves the entry in place
	if err := g.AddEdge("a", "b", 1, false); err == nil {
		t.Fatal("Expected duplicate edge error")
	}
	if _, ok := c.Get(after); !ok {
		t.Error("Expected entry to survive a rejected mutation")
	}
}

// TestConfigHash tests that equal settings hash equally
func TestConfigHash(t *testing.T) {
	type settings struct {
		Damping float64
		Metrics []string
	}
	a := ConfigHash(settings{0.85, []string{"degree"}})
	b := ConfigHash(settings{0.85, []string{"degree"}})
	c := ConfigHash(settings{0.9, []string{"degree"}})

	if a != b {
		t.Error("Expected equal settings to hash equally")
	}
	if a == c {
		t.Error("Expected different settings to hash differently")
	}
	if ConfigHash(func() {}) == 0 {
		t.Error("Expected fallback hash for unencodable values")
	}
}

// TestCache_Stats tests hit/miss accounting
func TestCache_Stats(t *testing.T) {
	c := New[int](4)
	c.Put(Key{Graph: 1}, 1)
	c.Get(Key{Graph: 1})
	c.Get(Key{Graph: 1})
	c.Get(Key{Graph: 2})

	hits, misses, rate := c.Stats()
	if hits != 2 || misses != 1 {
		t.Errorf("Expected 2 hits and 1 miss, got %d and %d", hits, misses)
	}
	if rate < 0.66 || rate > 0.67 {
		t.Errorf("Expected hit rate ~0.667, got %f", rate)
	}

	c.Clear()
	if hits, misses, _ := c.Stats(); hits != 0 || misses != 0 || c.Size() != 0 {
		t.Error("Expected Clear to reset the cache")
	}
}

// TestCache_Concurrent tests concurrent access
func TestCache_Concurrent(t *testing.T) {
	c := New[int](50)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				key := Key{Graph: uint64(id), Config: uint64(j % 10)}
				c.Put(key, j)
				c.Get(key)
				if j%25 == 0 {
					c.Invalidate(uint64(id))
				}
			}
		}(i)
	}
	wg.Wait()

	if c.Size() > 50 {
		t.Errorf("Expected size <= 50, got %d", c.Size())
	}
}
