// SPDX-License-Identifier: MIT

// Package lazy memoizes derived quantities per engine instance.
//
// A Cache maps a field name to its computed value. The first Get for a key runs
// the compute function once even under concurrent access (single-flight);
// successful values are published under a mutex and never change afterwards.
// Failed computations are not cached: the next Get retries.
package lazy

import (
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Cache is a per-instance table of computed values. The zero value is not usable; call New.
type Cache struct {
	mu     sync.RWMutex
	values map[string]any
	group  singleflight.Group
}

// New returns an empty cache.
func New() *Cache {
	return &Cache{values: make(map[string]any)}
}

// Get returns the cached value for key, computing it on first use.
//
// Behavior:
//   - Concurrent callers for the same key share one compute call.
//   - A value stored under key with a different type is reported as an error.
func Get[T any](c *Cache, key string, compute func() (T, error)) (T, error) {
	var zero T
	if v, ok := c.lookup(key); ok {
		return cast[T](key, v)
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		// Another flight may have published while this one was queued.
		if v, ok := c.lookup(key); ok {
			return v, nil
		}
		res, err := compute()
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.values[key] = res
		c.mu.Unlock()

		return res, nil
	})
	if err != nil {
		return zero, err
	}

	return cast[T](key, v)
}

func (c *Cache) lookup(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.values[key]

	return v, ok
}

func cast[T any](key string, v any) (T, error) {
	t, ok := v.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("lazy: key %q holds %T", key, v)
	}

	return t, nil
}

// Has reports whether key has been computed.
func (c *Cache) Has(key string) bool {
	_, ok := c.lookup(key)

	return ok
}

// Keys returns the computed keys in sorted order.
func (c *Cache) Keys() []string {
	c.mu.RLock()
	keys := make([]string, 0, len(c.values))
	for k := range c.values {
		keys = append(keys, k)
	}
	c.mu.RUnlock()
	sort.Strings(keys)

	return keys
}
