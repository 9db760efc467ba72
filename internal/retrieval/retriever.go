package retrieval

import (
	"context"
	"fmt"

	"github.com/futig/askdocs/internal/entity"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// Searcher looks up the k nearest documents for a text query.
type Searcher interface {
	Search(ctx context.Context, query string, k int) ([]entity.VectorMatch, error)
}

// Retriever fetches corpus chunks relevant to a question.
type Retriever struct {
	searcher    Searcher
	topK        int
	maxDistance float64
}

func NewRetriever(searcher Searcher, topK int, maxDistance float64) *Retriever {
	return &Retriever{
		searcher:    searcher,
		topK:        topK,
		maxDistance: maxDistance,
	}
}

// Retrieve returns up to topK chunks with distance strictly below maxDistance,
// closest first. An empty result is not an error.
func (r *Retriever) Retrieve(ctx context.Context, q string) ([]entity.Chunk, error) {
	matches, err := r.searcher.Search(ctx, q, r.topK)
	if err != nil {
		return nil, fmt.Errorf("retrieve chunks: %w", err)
	}

	chunks := make([]entity.Chunk, 0, len(matches))
	for _, m := range matches {
		if m.Distance >= r.maxDistance {
			continue
		}
		chunks = append(chunks, entity.Chunk{
			Content:  m.Content,
			Metadata: m.Metadata,
			Distance: m.Distance,
		})
	}

	ctxzap.Debug(ctx, "chunks retrieved",
		zap.Int("candidates", len(matches)),
		zap.Int("kept", len(chunks)),
	)
	return chunks, nil
}
