package availability

import (
	"sync"

	"github.com/google/uuid"
)

// Cache is the in-process, versioned availability cache. It is advisory:
// losing it costs a recomputation, never a wrong answer. Entries written at
// an older version are invisible, and Invalidate drops the whole map, so a
// stock change wipes every cached result at once.
//
// The cache is constructed explicitly and handed to the engine, so tests can
// run isolated instances side by side.
type Cache struct {
	mu      sync.RWMutex
	entries map[uuid.UUID]cacheEntry
	version uint64
}

type cacheEntry struct {
	result  *Result
	version uint64
}

// NewCache builds an empty cache at version zero.
func NewCache() *Cache {
	return &Cache{entries: make(map[uuid.UUID]cacheEntry)}
}

// Get returns the cached result for the package if it was written at the
// current version. Callers must treat the returned Result as immutable.
func (c *Cache) Get(packageID uuid.UUID) (*Result, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[packageID]
	if !ok || entry.version != c.version {
		return nil, false
	}
	return entry.result, true
}

// Put stores the result at the current version. Concurrent writers race
// last-writer-wins, which is acceptable for a non-authoritative estimate.
func (c *Cache) Put(packageID uuid.UUID, result *Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[packageID] = cacheEntry{result: result, version: c.version}
}

// Invalidate bumps the version and drops all entries. Called whenever any
// underlying stock may have changed.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.version++
	c.entries = make(map[uuid.UUID]cacheEntry)
}

// Stats reports entry count and the current generation counter.
func (c *Cache) Stats() CacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return CacheStats{Size: len(c.entries), Version: c.version}
}
