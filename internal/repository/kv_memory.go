package repository

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryKV is a process-local key-value store with per-entry TTL.
type MemoryKV struct {
	cache *gocache.Cache
}

func NewMemoryKV(defaultTTL, cleanupInterval time.Duration) *MemoryKV {
	return &MemoryKV{
		cache: gocache.New(defaultTTL, cleanupInterval),
	}
}

func (m *MemoryKV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	v, ok := m.cache.Get(key)
	if !ok {
		return nil, false, nil
	}
	value, ok := v.([]byte)
	return value, ok, nil
}

func (m *MemoryKV) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	stored := make([]byte, len(value))
	copy(stored, value)
	m.cache.Set(key, stored, ttl)
	return nil
}
