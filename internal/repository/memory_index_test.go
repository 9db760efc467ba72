package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/futig/askdocs/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryIndex_SearchOrdersByDistance(t *testing.T) {
	idx := NewMemoryIndex()
	ctx := context.Background()

	require.NoError(t, idx.Upsert(ctx, []entity.VectorRecord{
		{Content: "x", Vector: []float32{1, 0}},
		{Content: "y", Vector: []float32{0, 1}},
		{Content: "xy", Vector: []float32{1, 1}},
	}))

	matches, err := idx.Search(ctx, []float32{1, 0}, 2)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "x", matches[0].Content)
	assert.InDelta(t, 0, matches[0].Distance, 1e-9)
	assert.Equal(t, "xy", matches[1].Content)
	assert.InDelta(t, 1-1/1.4142135623730951, matches[1].Distance, 1e-6)
}

func TestMemoryIndex_EmptySearch(t *testing.T) {
	matches, err := NewMemoryIndex().Search(context.Background(), []float32{1}, 3)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestMemoryIndex_DimensionMismatch(t *testing.T) {
	idx := NewMemoryIndex()
	ctx := context.Background()

	require.NoError(t, idx.Upsert(ctx, []entity.VectorRecord{{Vector: []float32{1, 0}}}))
	assert.Error(t, idx.Upsert(ctx, []entity.VectorRecord{{Vector: []float32{1, 0, 0}}}))

	_, err := idx.Search(ctx, []float32{1}, 1)
	assert.Error(t, err)
}

func TestMemoryIndex_UpsertReplacesByID(t *testing.T) {
	idx := NewMemoryIndex()
	ctx := context.Background()

	require.NoError(t, idx.Upsert(ctx, []entity.VectorRecord{{ID: "a", Content: "old", Vector: []float32{1}}}))
	require.NoError(t, idx.Upsert(ctx, []entity.VectorRecord{{ID: "a", Content: "new", Vector: []float32{1}}}))

	assert.Equal(t, 1, idx.Len())
	records, err := idx.List(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, "new", records[0].Content)
}

func TestMemoryIndex_ListNewestFirst(t *testing.T) {
	idx := NewMemoryIndex()
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, idx.Upsert(ctx, []entity.VectorRecord{
		{Content: "old", Vector: []float32{1}, CreatedAt: now.Add(-time.Hour)},
		{Content: "new", Vector: []float32{1}, CreatedAt: now},
		{Content: "mid", Vector: []float32{1}, CreatedAt: now.Add(-time.Minute)},
	}))

	records, err := idx.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "new", records[0].Content)
	assert.Equal(t, "mid", records[1].Content)
}

func TestMemoryIndex_ConcurrentAccess(t *testing.T) {
	idx := NewMemoryIndex()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = idx.Upsert(ctx, []entity.VectorRecord{{Vector: []float32{1, 2}}})
		}()
		go func() {
			defer wg.Done()
			_, _ = idx.Search(ctx, []float32{1, 2}, 3)
		}()
	}
	wg.Wait()

	assert.Equal(t, 20, idx.Len())
}
