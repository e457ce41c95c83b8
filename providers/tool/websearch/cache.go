package websearch

import (
	"sync"
	"time"
)

// cacheTTL is how long a query's results stay valid. The window only needs
// to absorb duplicate searches from the decision pre-flight and the actual
// tool call within one user turn.
const cacheTTL = 5 * time.Minute

// sharedCache is the process-wide query cache. Entries are immutable once
// written and merely expire, so no coordination beyond the map lock is
// needed.
var sharedCache = newQueryCache()

type cacheEntry struct {
	output  *Output
	expires time.Time
}

type queryCache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	now     func() time.Time
}

func newQueryCache() *queryCache {
	return &queryCache{
		entries: make(map[string]cacheEntry),
		now:     time.Now,
	}
}

func (c *queryCache) get(key string) (*Output, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok || c.now().After(entry.expires) {
		return nil, false
	}
	return entry.output, true
}

func (c *queryCache) put(key string, output *Output) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Opportunistically drop expired entries so the map does not grow
	// unbounded across a long session.
	now := c.now()
	for existing, entry := range c.entries {
		if now.After(entry.expires) {
			delete(c.entries, existing)
		}
	}

	c.entries[key] = cacheEntry{output: output, expires: now.Add(cacheTTL)}
}
