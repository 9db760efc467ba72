package qdrant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/futig/askdocs/internal/config"
	"github.com/futig/askdocs/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeQdrant keeps just enough state to serve collection, upsert, search and scroll calls.
type fakeQdrant struct {
	mu         sync.Mutex
	created    bool
	apiKeySeen string
	points     []map[string]any
}

func (f *fakeQdrant) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.apiKeySeen = r.Header.Get("api-key")

	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/collections/docs":
		if !f.created {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"status":{"error":"Not found"}}`))
			return
		}
		_, _ = w.Write([]byte(`{"result":{}}`))
	case r.Method == http.MethodPut && r.URL.Path == "/collections/docs":
		f.created = true
		_, _ = w.Write([]byte(`{"result":true}`))
	case r.Method == http.MethodPut && r.URL.Path == "/collections/docs/points":
		var body struct {
			Points []map[string]any `json:"points"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.points = append(f.points, body.Points...)
		_, _ = w.Write([]byte(`{"result":{"status":"completed"}}`))
	case r.Method == http.MethodPost && r.URL.Path == "/collections/docs/points/search":
		result := make([]map[string]any, 0, len(f.points))
		for n, p := range f.points {
			result = append(result, map[string]any{
				"id":      p["id"],
				"score":   0.9 - 0.3*float64(n),
				"payload": p["payload"],
			})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"result": result})
	case r.Method == http.MethodPost && r.URL.Path == "/collections/docs/points/scroll":
		_ = json.NewEncoder(w).Encode(map[string]any{
			"result": map[string]any{"points": f.points, "next_page_offset": nil},
		})
	default:
		w.WriteHeader(http.StatusBadRequest)
	}
}

func newIndex(url string) *Index {
	return NewIndex(config.QdrantConfig{
		HTTPClientConfig: config.HTTPClientConfig{Url: url},
		APIKey:           "secret",
		Collection:       "docs",
		Dimension:        3,
	}, zap.NewNop())
}

func TestIndex_RoundTrip(t *testing.T) {
	fake := &fakeQdrant{}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	idx := newIndex(srv.URL)
	ctx := context.Background()

	require.NoError(t, idx.EnsureCollection(ctx))
	assert.True(t, fake.created)
	assert.Equal(t, "secret", fake.apiKeySeen)

	err := idx.Upsert(ctx, []entity.VectorRecord{
		{Content: "first", Metadata: map[string]string{"source": "a"}, Vector: []float32{1, 0, 0}},
		{Content: "second", Vector: []float32{0, 1, 0}},
	})
	require.NoError(t, err)
	require.Len(t, fake.points, 2)
	assert.NotEmpty(t, fake.points[0]["id"])

	matches, err := idx.Search(ctx, []float32{1, 0, 0}, 2)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "first", matches[0].Content)
	assert.InDelta(t, 0.1, matches[0].Distance, 1e-9)
	assert.Equal(t, "a", matches[0].Metadata["source"])
	assert.InDelta(t, 0.4, matches[1].Distance, 1e-9)

	records, err := idx.List(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestIndex_EnsureCollectionExisting(t *testing.T) {
	fake := &fakeQdrant{created: true}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	require.NoError(t, newIndex(srv.URL).EnsureCollection(context.Background()))
}

func TestIndex_SearchUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := newIndex(url).Search(context.Background(), []float32{1, 0, 0}, 1)

	assert.ErrorIs(t, err, entity.ErrUpstreamUnreachable)
}
