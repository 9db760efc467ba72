package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/futig/askdocs/internal/entity"
	"github.com/google/uuid"
)

// MemoryIndex is an in-process vector index with brute-force cosine search.
type MemoryIndex struct {
	mu        sync.RWMutex
	dimension int
	records   []entity.VectorRecord
	byID      map[string]int
}

func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{
		byID: make(map[string]int),
	}
}

// Upsert stores records, replacing any with the same ID.
func (m *MemoryIndex) Upsert(ctx context.Context, records []entity.VectorRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, r := range records {
		if len(r.Vector) == 0 {
			return errors.New("empty vector")
		}
		if m.dimension == 0 {
			m.dimension = len(r.Vector)
		}
		if len(r.Vector) != m.dimension {
			return fmt.Errorf("vector dimension mismatch: expected %d, got %d", m.dimension, len(r.Vector))
		}
	}

	for _, r := range records {
		if r.ID == "" {
			r.ID = uuid.NewString()
		}
		if r.CreatedAt.IsZero() {
			r.CreatedAt = time.Now().UTC()
		}

		if i, ok := m.byID[r.ID]; ok {
			m.records[i] = r
			continue
		}
		m.byID[r.ID] = len(m.records)
		m.records = append(m.records, r)
	}

	return nil
}

// Search returns the k nearest records in ascending cosine distance.
func (m *MemoryIndex) Search(ctx context.Context, vector []float32, k int) ([]entity.VectorMatch, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.records) == 0 {
		return nil, nil
	}
	if len(vector) != m.dimension {
		return nil, fmt.Errorf("vector dimension mismatch: expected %d, got %d", m.dimension, len(vector))
	}

	return rankByDistance(m.records, vector, k), nil
}

// List returns up to limit records, newest first. A non-positive limit returns all.
func (m *MemoryIndex) List(ctx context.Context, limit int) ([]entity.VectorRecord, error) {
	m.mu.RLock()
	out := make([]entity.VectorRecord, len(m.records))
	copy(out, m.records)
	m.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Len returns the number of stored records.
func (m *MemoryIndex) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}
