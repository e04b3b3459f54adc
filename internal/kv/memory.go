package kv

import (
	"context"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"go.uber.org/zap"
)

// MemoryStore implements Store using an in-process TTL cache. State stored
// here does not survive a restart; the gateway recovers by reconnecting on
// the next publish.
type MemoryStore struct {
	logger *zap.Logger
	cache  *ttlcache.Cache[string, string]
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates a new in-memory store
func NewMemoryStore(logger *zap.Logger) *MemoryStore {
	cache := ttlcache.New[string, string](
		ttlcache.WithDisableTouchOnHit[string, string](),
	)
	// Janitor goroutine that evicts expired entries
	go cache.Start()

	return &MemoryStore{
		logger: logger.Named("kv.memory"),
		cache:  cache,
	}
}

// Get implements Store.Get
func (s *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	item := s.cache.Get(key)
	if item == nil {
		return "", false, nil
	}
	return item.Value(), true, nil
}

// Set implements Store.Set
func (s *MemoryStore) Set(_ context.Context, key, value string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = ttlcache.NoTTL
	}
	s.cache.Set(key, value, ttl)
	return nil
}

// Delete implements Store.Delete
func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.cache.Delete(key)
	return nil
}

// Close stops the cache janitor
func (s *MemoryStore) Close() error {
	s.cache.Stop()
	return nil
}
