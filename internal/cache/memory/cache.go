// Package memory provides an in-memory result cache for development and
// testing.
package memory

import (
	"context"
	"sync"

	"github.com/chatlens/chatlens/internal/detect"
)

// Cache implements detect.ResultCache over a mutex-guarded map. Entries
// are upserted by normalized URL and never evicted; staleness is the
// reader's concern.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]detect.CacheEntry
}

// NewCache constructs a Cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]detect.CacheEntry)}
}

// Get returns the entry for the URL, if any.
func (c *Cache) Get(_ context.Context, url string) (detect.CacheEntry, bool, error) {
	key := detect.NormalizeURL(url)
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[key]
	return entry, ok, nil
}

// Put upserts the entry under its normalized URL, last writer wins.
func (c *Cache) Put(_ context.Context, entry detect.CacheEntry) error {
	key := detect.NormalizeURL(entry.URL)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry
	return nil
}

// Len reports the number of cached URLs.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
