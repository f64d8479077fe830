package dataset

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Cache memoizes LoadFile results keyed on the file's identity and version
// (absolute path, modification time, size). A file that changes on disk is
// reloaded on the next access; staleness is never silent.
type Cache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
}

type cacheEntry struct {
	modTime time.Time
	size    int64
	table   *Table
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]cacheEntry)}
}

// LoadFile returns the cached table for path when the file is unchanged,
// otherwise parses it fresh and updates the entry.
func (c *Cache) LoadFile(path string) (*Table, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("dataset: resolve %s: %w", path, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("dataset: stat %s: %w", path, err)
	}

	c.mu.Lock()
	entry, ok := c.entries[abs]
	c.mu.Unlock()
	if ok && entry.modTime.Equal(info.ModTime()) && entry.size == info.Size() {
		return entry.table, nil
	}

	t, err := LoadFile(abs)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.entries[abs] = cacheEntry{modTime: info.ModTime(), size: info.Size(), table: t}
	c.mu.Unlock()
	return t, nil
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
