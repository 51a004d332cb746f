package compiler

import (
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/dimavrok/SeeQ-Programming-Model/internal/queryir"
	"github.com/dimavrok/SeeQ-Programming-Model/internal/shape"
)

// Cache memoizes compiled queries by shape identity.
//
// Compiled queries are immutable, so one cached query is shared read-only
// by every caller and every concurrent resolution. Concurrent first
// compiles of the same shape are collapsed into one.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]*queryir.CompiledQuery
	group   singleflight.Group

	hits   atomic.Int64
	misses atomic.Int64
}

// CacheStats reports cache effectiveness.
type CacheStats struct {
	Hits    int64
	Misses  int64
	Entries int
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]*queryir.CompiledQuery)}
}

// Compile returns the compiled query for s, compiling it on first use.
// hit reports whether the query was already cached. Compilation errors
// are not cached. Shapes differing only in label share one entry; the
// returned query always carries the label of s.
func (c *Cache) Compile(s *shape.Shape) (q *queryir.CompiledQuery, hit bool, err error) {
	id, err := shape.ID(s)
	if err != nil {
		return nil, false, err
	}

	c.mu.RLock()
	q, ok := c.entries[id]
	c.mu.RUnlock()
	if ok {
		c.hits.Add(1)
		return relabel(q, s.Label), true, nil
	}

	v, err, _ := c.group.Do(id, func() (any, error) {
		c.mu.RLock()
		cached, ok := c.entries[id]
		c.mu.RUnlock()
		if ok {
			return cached, nil
		}
		compiled, err := Compile(s)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.entries[id] = compiled
		c.mu.Unlock()
		return compiled, nil
	})
	c.misses.Add(1)
	if err != nil {
		return nil, false, err
	}
	return relabel(v.(*queryir.CompiledQuery), s.Label), false, nil
}

// relabel returns q, or a shallow copy of it carrying label. The clause
// tree is shared.
func relabel(q *queryir.CompiledQuery, label string) *queryir.CompiledQuery {
	if q.Label == label {
		return q
	}
	cp := *q
	cp.Label = label
	return &cp
}

// Stats returns a snapshot of the cache counters.
func (c *Cache) Stats() CacheStats {
	c.mu.RLock()
	n := len(c.entries)
	c.mu.RUnlock()
	return CacheStats{Hits: c.hits.Load(), Misses: c.misses.Load(), Entries: n}
}
