package engine

import (
	"sync"

	"github.com/bamsammich/rpgpack/internal/rpgmaker"
)

// CacheEntry records where a source was first scrambled during this run.
type CacheEntry struct {
	Dst      string
	Platform rpgmaker.Platform
}

// EncryptedFileCache maps a source path to the first scrambled copy of it.
// It lives for one Run; workers of the same batch share it.
type EncryptedFileCache struct {
	mu      sync.Mutex
	entries map[string]CacheEntry
}

// NewEncryptedFileCache returns an empty cache.
func NewEncryptedFileCache() *EncryptedFileCache {
	return &EncryptedFileCache{entries: make(map[string]CacheEntry)}
}

// Lookup returns the cached output for src.
func (c *EncryptedFileCache) Lookup(src string) (CacheEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[src]
	return e, ok
}

// Store records dst as the scrambled output of src unless an entry exists.
func (c *EncryptedFileCache) Store(src, dst string, p rpgmaker.Platform) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[src]; ok {
		return
	}
	c.entries[src] = CacheEntry{Dst: dst, Platform: p}
}

// Drop forgets src, e.g. after its cached output disappeared.
func (c *EncryptedFileCache) Drop(src string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, src)
}

// Len returns the number of cached sources.
func (c *EncryptedFileCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
