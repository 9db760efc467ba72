package retrieval

import (
	"context"
	"errors"
	"testing"

	"github.com/futig/askdocs/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSearcher struct {
	matches []entity.VectorMatch
	err     error
	gotK    int
}

func (f *fakeSearcher) Search(ctx context.Context, query string, k int) ([]entity.VectorMatch, error) {
	f.gotK = k
	return f.matches, f.err
}

func vm(content string, distance float64) entity.VectorMatch {
	return entity.VectorMatch{
		VectorRecord: entity.VectorRecord{Content: content, Metadata: map[string]string{"src": content}},
		Distance:     distance,
	}
}

func TestRetrieve_FiltersByDistance(t *testing.T) {
	s := &fakeSearcher{matches: []entity.VectorMatch{
		vm("a", 0.2),
		vm("b", 0.99),
		vm("c", 1.0),
		vm("d", 1.3),
	}}
	r := NewRetriever(s, 10, 1.0)

	chunks, err := r.Retrieve(context.Background(), "q")

	require.NoError(t, err)
	assert.Equal(t, 10, s.gotK)
	require.Len(t, chunks, 2)
	assert.Equal(t, "a", chunks[0].Content)
	assert.Equal(t, "b", chunks[1].Content)
	assert.Equal(t, "b", chunks[1].Metadata["src"])
	assert.InDelta(t, 0.99, chunks[1].Distance, 1e-9)
}

func TestRetrieve_EmptyIsNotAnError(t *testing.T) {
	r := NewRetriever(&fakeSearcher{matches: []entity.VectorMatch{vm("far", 1.5)}}, 10, 1.0)

	chunks, err := r.Retrieve(context.Background(), "q")

	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestRetrieve_PropagatesSearchError(t *testing.T) {
	r := NewRetriever(&fakeSearcher{err: entity.ErrEmbeddingUnavailable}, 10, 1.0)

	_, err := r.Retrieve(context.Background(), "q")

	assert.True(t, errors.Is(err, entity.ErrEmbeddingUnavailable))
}
