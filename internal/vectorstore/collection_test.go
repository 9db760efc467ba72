package vectorstore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/futig/askdocs/internal/entity"
	"github.com/futig/askdocs/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// lengthEmbedder maps text onto a 2-d vector so tests can predict ordering.
type lengthEmbedder struct {
	err error
}

func (e *lengthEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if e.err != nil {
		return nil, e.err
	}
	return vectorFor(text), nil
}

func (e *lengthEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if e.err != nil {
		return nil, e.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = vectorFor(t)
	}
	return out, nil
}

func vectorFor(text string) []float32 {
	switch text {
	case "north":
		return []float32{0, 1}
	case "east":
		return []float32{1, 0}
	default:
		return []float32{1, 1}
	}
}

var _ Embedder = (*lengthEmbedder)(nil)
var _ Index = (*repository.MemoryIndex)(nil)

func TestCollection_InsertAndSearch(t *testing.T) {
	c := NewCollection("corpus", &lengthEmbedder{}, repository.NewMemoryIndex())
	ctx := context.Background()

	require.NoError(t, c.Insert(ctx, "north", map[string]string{"source": "n"}))
	require.NoError(t, c.InsertBatch(ctx, []entity.SeedDocument{
		{Content: "east"},
		{Content: "diagonal"},
	}))

	matches, err := c.Search(ctx, "north", 3)
	require.NoError(t, err)
	require.Len(t, matches, 3)
	assert.Equal(t, "north", matches[0].Content)
	assert.Equal(t, "n", matches[0].Metadata["source"])
	assert.Equal(t, "diagonal", matches[1].Content)
	assert.Equal(t, "east", matches[2].Content)
	assert.InDelta(t, 1.0, matches[2].Distance, 1e-9)
}

func TestCollection_EmbedFailure(t *testing.T) {
	c := NewCollection("corpus", &lengthEmbedder{err: entity.ErrEmbeddingUnavailable}, repository.NewMemoryIndex())

	_, err := c.Search(context.Background(), "north", 1)
	assert.True(t, errors.Is(err, entity.ErrEmbeddingUnavailable))
}

func TestSeed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.json")
	require.NoError(t, os.WriteFile(path, []byte(`[
		{"content": "north", "metadata": {"url": "https://example.com/n"}},
		{"content": "   "},
		{"content": "east"}
	]`), 0o600))

	idx := repository.NewMemoryIndex()
	c := NewCollection("corpus", &lengthEmbedder{}, idx)

	n, err := Seed(context.Background(), c, path)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 2, idx.Len())
}

func TestLoadSeedFile_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"not":"an array"}`), 0o600))

	_, err := LoadSeedFile(path)
	assert.Error(t, err)
}

func TestCollection_InsertKeyedMatchesOnKey(t *testing.T) {
	c := NewCollection("responses", &lengthEmbedder{}, repository.NewMemoryIndex())
	ctx := context.Background()

	require.NoError(t, c.InsertKeyed(ctx, "east", `{"answer":"payload"}`, nil))

	matches, err := c.Search(ctx, "east", 1)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, `{"answer":"payload"}`, matches[0].Content)
	assert.InDelta(t, 0, matches[0].Distance, 1e-9)
}
