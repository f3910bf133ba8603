package modelstore

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"

	"neurosense/domain/model"
	"neurosense/ports"
)

// Cache is a path-keyed read-through cache over a BundleStore.
// Each path is read from the backing store at most once per process:
// concurrent first-time loads of the same path are collapsed into a
// single read. Bundles are immutable after load, so cached pointers
// are shared freely.
type Cache struct {
	inner ports.BundleStore

	mu      sync.RWMutex
	bundles map[string]*model.Bundle
	group   singleflight.Group
}

// NewCache wraps store with a process-lifetime bundle cache.
func NewCache(store ports.BundleStore) *Cache {
	return &Cache{
		inner:   store,
		bundles: make(map[string]*model.Bundle),
	}
}

// LoadBundle returns the cached bundle for path, loading it once on
// first use.
func (c *Cache) LoadBundle(ctx context.Context, path string) (*model.Bundle, error) {
	c.mu.RLock()
	cached, ok := c.bundles[path]
	c.mu.RUnlock()
	if ok {
		return cached, nil
	}

	v, err, _ := c.group.Do(path, func() (interface{}, error) {
		bundle, err := c.inner.LoadBundle(ctx, path)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.bundles[path] = bundle
		c.mu.Unlock()
		return bundle, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*model.Bundle), nil
}

// BundleExists answers from the cache when possible.
func (c *Cache) BundleExists(ctx context.Context, path string) (bool, error) {
	c.mu.RLock()
	_, ok := c.bundles[path]
	c.mu.RUnlock()
	if ok {
		return true, nil
	}
	return c.inner.BundleExists(ctx, path)
}

var _ ports.BundleStore = (*Cache)(nil)
