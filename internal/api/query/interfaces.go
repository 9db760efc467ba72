package query

import (
	"context"

	"github.com/futig/askdocs/internal/entity"
	"github.com/futig/askdocs/internal/pkg/formatter"
)

type QueryUsecase interface {
	Query(ctx context.Context, req *entity.QueryRequest) *entity.QueryResponse
	Inspect(ctx context.Context, limit int) (*entity.CacheInspectResponse, error)
}

type FormatterFactory interface {
	Create(format entity.ResultFormat) (formatter.Formatter, error)
}
