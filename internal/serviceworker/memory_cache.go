package serviceworker

import (
	"context"
	"sort"
	"sync"
)

// MemoryCacheStorage is an in-process CacheStorage.
type MemoryCacheStorage struct {
	mu     sync.Mutex
	caches map[string]*MemoryCache
}

// NewMemoryCacheStorage returns an empty storage.
func NewMemoryCacheStorage() *MemoryCacheStorage {
	return &MemoryCacheStorage{caches: make(map[string]*MemoryCache)}
}

// Open returns the named cache, creating it when missing.
func (s *MemoryCacheStorage) Open(_ context.Context, name string) (Cache, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cache, ok := s.caches[name]
	if !ok {
		cache = &MemoryCache{entries: make(map[string]*Response)}
		s.caches[name] = cache
	}
	return cache, nil
}

// Keys lists cache names in lexical order.
func (s *MemoryCacheStorage) Keys(context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.caches))
	for name := range s.caches {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Delete drops a cache and reports whether it existed.
func (s *MemoryCacheStorage) Delete(_ context.Context, name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.caches[name]
	delete(s.caches, name)
	return ok, nil
}

// MemoryCache is an in-process Cache.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]*Response
}

// Match returns a copy of the cached response for key.
func (c *MemoryCache) Match(_ context.Context, key string) (*Response, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	resp, ok := c.entries[key]
	if !ok {
		return nil, false, nil
	}
	return resp.Clone(), true, nil
}

// Put stores a copy of resp under key.
func (c *MemoryCache) Put(_ context.Context, key string, resp *Response) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = resp.Clone()
	return nil
}

// Len reports the number of cached entries.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
