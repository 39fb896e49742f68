package repository

import (
	"context"
	"sync"
	"time"

	"github.com/AmonBrollo/FlashLingo/internal/domain"
)

// MemoryCacheStorage keeps named caches in process memory. Contents are lost
// on restart; it backs tests and the "memory" store option.
type MemoryCacheStorage struct {
	mu     sync.RWMutex
	caches map[string]*memoryCache
	order  []string
}

// NewMemoryCacheStorage creates an empty MemoryCacheStorage.
func NewMemoryCacheStorage() *MemoryCacheStorage {
	return &MemoryCacheStorage{caches: make(map[string]*memoryCache)}
}

// Open returns the named cache, creating it if needed.
func (s *MemoryCacheStorage) Open(_ context.Context, name string) (domain.Cache, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.caches[name]
	if !ok {
		c = &memoryCache{entries: make(map[string]*domain.Response)}
		s.caches[name] = c
		s.order = append(s.order, name)
	}
	return c, nil
}

// Delete drops the named cache. Handles opened earlier keep working but are
// detached from the storage.
func (s *MemoryCacheStorage) Delete(_ context.Context, name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.caches[name]; !ok {
		return false, nil
	}
	delete(s.caches, name)
	for i, n := range s.order {
		if n == name {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true, nil
}

// Has reports whether the named cache exists.
func (s *MemoryCacheStorage) Has(_ context.Context, name string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.caches[name]
	return ok, nil
}

// Names returns all cache names in creation order.
func (s *MemoryCacheStorage) Names(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]string(nil), s.order...), nil
}

// memoryCache is a single in-memory named cache.
type memoryCache struct {
	mu      sync.RWMutex
	entries map[string]*domain.Response
	keys    []string
}

func (c *memoryCache) Match(_ context.Context, key string) (*domain.Response, error) {
	if err := checkKey(key); err != nil {
		return nil, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	resp, ok := c.entries[key]
	if !ok {
		return nil, domain.ErrCacheMiss
	}
	return resp.Clone(), nil
}

func (c *memoryCache) Put(_ context.Context, key string, resp *domain.Response) error {
	if err := checkKey(key); err != nil {
		return err
	}

	stored := resp.Clone()
	stored.URL = key
	stored.StoredAt = time.Now().UTC()

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[key]; ok {
		c.removeKey(key)
	}
	c.entries[key] = stored
	c.keys = append(c.keys, key)
	return nil
}

func (c *memoryCache) Delete(_ context.Context, key string) (bool, error) {
	if err := checkKey(key); err != nil {
		return false, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[key]; !ok {
		return false, nil
	}
	delete(c.entries, key)
	c.removeKey(key)
	return true, nil
}

func (c *memoryCache) Keys(_ context.Context) ([]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return append([]string(nil), c.keys...), nil
}

// removeKey drops key from the ordered key list. The caller must hold c.mu.
func (c *memoryCache) removeKey(key string) {
	for i, k := range c.keys {
		if k == key {
			c.keys = append(c.keys[:i], c.keys[i+1:]...)
			return
		}
	}
}
