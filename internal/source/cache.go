package source

import (
	"path/filepath"
	"sync"
)

// Cache memoizes loaded catalogs by path until they are invalidated.
type Cache struct {
	mu       sync.RWMutex
	catalogs map[string]*Catalog
	loads    int
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{catalogs: make(map[string]*Catalog)}
}

// Get returns the cached catalog for path, loading it on first use.
// Failed loads are not cached.
func (c *Cache) Get(path string) (*Catalog, error) {
	key := cacheKey(path)

	c.mu.RLock()
	cat, ok := c.catalogs[key]
	c.mu.RUnlock()
	if ok {
		return cat, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if cat, ok := c.catalogs[key]; ok {
		return cat, nil
	}

	cat, err := LoadCatalog(path)
	if err != nil {
		return nil, err
	}
	c.loads++
	c.catalogs[key] = cat
	return cat, nil
}

// Invalidate drops the cached catalog for path.
func (c *Cache) Invalidate(path string) {
	c.mu.Lock()
	delete(c.catalogs, cacheKey(path))
	c.mu.Unlock()
}

// Loads returns how many times a catalog was read from disk.
func (c *Cache) Loads() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loads
}

func cacheKey(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}
