package query

import (
	"context"

	"github.com/futig/askdocs/internal/entity"
	"github.com/futig/askdocs/internal/generation"
)

type ResponseCache interface {
	Lookup(ctx context.Context, q string) (*entity.CacheHit, error)
	Store(ctx context.Context, q string, payload entity.CachedResponse, docCount int) error
	Entries(ctx context.Context, limit int) ([]entity.CacheEntrySummary, error)
}

type DocumentCache interface {
	Lookup(ctx context.Context, q string) ([]entity.Chunk, bool, error)
	Store(ctx context.Context, q string, chunks []entity.Chunk) error
}

type Retriever interface {
	Retrieve(ctx context.Context, q string) ([]entity.Chunk, error)
}

type Generator interface {
	Generate(ctx context.Context, q string, chunks []entity.Chunk) (*generation.Result, error)
}
