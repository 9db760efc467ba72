package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/futig/askdocs/internal/entity"
	"github.com/futig/askdocs/internal/pkg/question"
)

// KVStore is a byte-valued key-value store with per-entry expiry.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// DocumentCache remembers retrieved chunks under a hash of the normalised question.
type DocumentCache struct {
	store KVStore
	ttl   time.Duration
}

func NewDocumentCache(store KVStore, ttl time.Duration) *DocumentCache {
	return &DocumentCache{
		store: store,
		ttl:   ttl,
	}
}

// Lookup returns the cached chunks for q in their stored order.
func (c *DocumentCache) Lookup(ctx context.Context, q string) ([]entity.Chunk, bool, error) {
	data, ok, err := c.store.Get(ctx, question.Key(q))
	if err != nil {
		return nil, false, fmt.Errorf("%w: document lookup: %v", entity.ErrCacheUnavailable, err)
	}
	if !ok {
		return nil, false, nil
	}

	var chunks []entity.Chunk
	if err := json.Unmarshal(data, &chunks); err != nil {
		return nil, false, fmt.Errorf("decode cached chunks: %w", err)
	}
	return chunks, true, nil
}

func (c *DocumentCache) Store(ctx context.Context, q string, chunks []entity.Chunk) error {
	data, err := json.Marshal(chunks)
	if err != nil {
		return fmt.Errorf("encode chunks: %w", err)
	}

	if err := c.store.Set(ctx, question.Key(q), data, c.ttl); err != nil {
		return fmt.Errorf("%w: document store: %v", entity.ErrCacheUnavailable, err)
	}
	return nil
}
