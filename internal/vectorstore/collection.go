package vectorstore

import (
	"context"
	"fmt"

	"github.com/futig/askdocs/internal/entity"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// Embedder turns text into vectors.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Index stores vectors and answers nearest-neighbour queries in ascending distance.
type Index interface {
	Upsert(ctx context.Context, records []entity.VectorRecord) error
	Search(ctx context.Context, vector []float32, k int) ([]entity.VectorMatch, error)
	List(ctx context.Context, limit int) ([]entity.VectorRecord, error)
}

// Collection pairs an embedder with an index so callers work in text.
type Collection struct {
	name     string
	embedder Embedder
	index    Index
}

func NewCollection(name string, embedder Embedder, index Index) *Collection {
	return &Collection{
		name:     name,
		embedder: embedder,
		index:    index,
	}
}

func (c *Collection) Name() string {
	return c.name
}

// Insert embeds content and stores it with metadata.
func (c *Collection) Insert(ctx context.Context, content string, metadata map[string]string) error {
	return c.InsertKeyed(ctx, content, content, metadata)
}

// InsertKeyed stores content under the embedding of key, so lookups match on key
// while the stored content can be any payload.
func (c *Collection) InsertKeyed(ctx context.Context, key, content string, metadata map[string]string) error {
	vector, err := c.embedder.Embed(ctx, key)
	if err != nil {
		return fmt.Errorf("embed %s document: %w", c.name, err)
	}

	err = c.index.Upsert(ctx, []entity.VectorRecord{{
		Content:  content,
		Metadata: metadata,
		Vector:   vector,
	}})
	if err != nil {
		return fmt.Errorf("insert into %s: %w", c.name, err)
	}

	return nil
}

// InsertBatch embeds all documents in one call and stores them.
func (c *Collection) InsertBatch(ctx context.Context, docs []entity.SeedDocument) error {
	if len(docs) == 0 {
		return nil
	}

	texts := make([]string, len(docs))
	for i, d := range docs {
		texts[i] = d.Content
	}

	vectors, err := c.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed %s batch: %w", c.name, err)
	}

	records := make([]entity.VectorRecord, len(docs))
	for i, d := range docs {
		records[i] = entity.VectorRecord{
			Content:  d.Content,
			Metadata: d.Metadata,
			Vector:   vectors[i],
		}
	}

	if err := c.index.Upsert(ctx, records); err != nil {
		return fmt.Errorf("insert batch into %s: %w", c.name, err)
	}

	ctxzap.Debug(ctx, "documents inserted",
		zap.String("collection", c.name),
		zap.Int("count", len(records)),
	)
	return nil
}

// Search embeds the query and returns the k nearest documents.
func (c *Collection) Search(ctx context.Context, query string, k int) ([]entity.VectorMatch, error) {
	vector, err := c.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed %s query: %w", c.name, err)
	}

	matches, err := c.index.Search(ctx, vector, k)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", c.name, err)
	}

	return matches, nil
}

// List returns stored documents, newest first.
func (c *Collection) List(ctx context.Context, limit int) ([]entity.VectorRecord, error) {
	records, err := c.index.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", c.name, err)
	}
	return records, nil
}
