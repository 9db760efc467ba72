package qdrant

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/futig/askdocs/internal/config"
	"github.com/futig/askdocs/internal/entity"
	"github.com/futig/askdocs/internal/integration/common"
	pkghttp "github.com/futig/askdocs/pkg/http"
	"github.com/google/uuid"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

const serviceName = "qdrant"

const (
	payloadContent   = "content"
	payloadMetadata  = "metadata"
	payloadCreatedAt = "created_at"
)

// Index stores vectors in a Qdrant collection over its REST API.
// The collection uses cosine distance; scores are reported as 1 - score.
type Index struct {
	config    config.QdrantConfig
	connector *pkghttp.Connector
	logger    *zap.Logger
}

func NewIndex(cfg config.QdrantConfig, logger *zap.Logger) *Index {
	return &Index{
		connector: common.NewBaseConnector(cfg.HTTPClientConfig, logger,
			pkghttp.WithHeaderValue("api-key", cfg.APIKey),
		),
		config: cfg,
		logger: logger,
	}
}

type point struct {
	ID      any            `json:"id"`
	Vector  []float32      `json:"vector,omitempty"`
	Payload map[string]any `json:"payload"`
}

type scoredPoint struct {
	ID      any            `json:"id"`
	Score   float64        `json:"score"`
	Payload map[string]any `json:"payload"`
}

type searchRequest struct {
	Vector      []float32 `json:"vector"`
	Limit       int       `json:"limit"`
	WithPayload bool      `json:"with_payload"`
}

type scrollRequest struct {
	Limit       int  `json:"limit"`
	Offset      any  `json:"offset,omitempty"`
	WithPayload bool `json:"with_payload"`
	WithVector  bool `json:"with_vector"`
}

func (i *Index) collectionPath() string {
	return "/collections/" + i.config.Collection
}

// EnsureCollection creates the collection when it does not exist yet.
func (i *Index) EnsureCollection(ctx context.Context) error {
	err := i.connector.DoRequest(ctx, http.MethodGet, i.collectionPath(), nil, nil)
	if err == nil {
		return nil
	}

	var httpErr *pkghttp.HTTPError
	if !errors.As(err, &httpErr) || httpErr.StatusCode != http.StatusNotFound {
		return fmt.Errorf("get collection %s: %w", i.config.Collection, common.ClassifyError(serviceName, err))
	}

	body := map[string]any{
		"vectors": map[string]any{
			"size":     i.config.Dimension,
			"distance": "Cosine",
		},
	}
	if err := i.connector.DoRequest(ctx, http.MethodPut, i.collectionPath(), body, nil); err != nil {
		return fmt.Errorf("create collection %s: %w", i.config.Collection, common.ClassifyError(serviceName, err))
	}

	ctxzap.Info(ctx, "qdrant collection created",
		zap.String("collection", i.config.Collection),
		zap.Int("dimension", i.config.Dimension),
	)
	return nil
}

// Upsert writes records as points, generating IDs for records without one.
func (i *Index) Upsert(ctx context.Context, records []entity.VectorRecord) error {
	if len(records) == 0 {
		return nil
	}

	points := make([]point, len(records))
	for n, r := range records {
		if r.ID == "" {
			r.ID = uuid.NewString()
		}
		if r.CreatedAt.IsZero() {
			r.CreatedAt = time.Now().UTC()
		}
		points[n] = point{
			ID:     r.ID,
			Vector: r.Vector,
			Payload: map[string]any{
				payloadContent:   r.Content,
				payloadMetadata:  r.Metadata,
				payloadCreatedAt: r.CreatedAt.Format(time.RFC3339Nano),
			},
		}
	}

	body := map[string]any{"points": points}
	err := i.connector.DoRequest(ctx, http.MethodPut, i.collectionPath()+"/points?wait=true", body, nil)
	if err != nil {
		return fmt.Errorf("upsert points: %w", common.ClassifyError(serviceName, err))
	}

	ctxzap.Debug(ctx, "qdrant points upserted", zap.Int("count", len(points)))
	return nil
}

// Search returns the k nearest points in ascending distance.
func (i *Index) Search(ctx context.Context, vector []float32, k int) ([]entity.VectorMatch, error) {
	req := searchRequest{
		Vector:      vector,
		Limit:       k,
		WithPayload: true,
	}

	var resp struct {
		Result []scoredPoint `json:"result"`
	}
	err := i.connector.DoRequest(ctx, http.MethodPost, i.collectionPath()+"/points/search", req, &resp)
	if err != nil {
		return nil, fmt.Errorf("search points: %w", common.ClassifyError(serviceName, err))
	}

	matches := make([]entity.VectorMatch, 0, len(resp.Result))
	for _, p := range resp.Result {
		matches = append(matches, entity.VectorMatch{
			VectorRecord: recordFromPayload(p.ID, p.Payload),
			Distance:     1 - p.Score,
		})
	}

	sort.SliceStable(matches, func(a, b int) bool {
		return matches[a].Distance < matches[b].Distance
	})

	return matches, nil
}

// List scrolls through up to limit points and returns them newest first.
func (i *Index) List(ctx context.Context, limit int) ([]entity.VectorRecord, error) {
	var (
		records []entity.VectorRecord
		offset  any
	)

	for limit <= 0 || len(records) < limit {
		pageSize := 256
		if limit > 0 && limit-len(records) < pageSize {
			pageSize = limit - len(records)
		}

		var resp struct {
			Result struct {
				Points         []point `json:"points"`
				NextPageOffset any     `json:"next_page_offset"`
			} `json:"result"`
		}
		req := scrollRequest{
			Limit:       pageSize,
			Offset:      offset,
			WithPayload: true,
		}
		err := i.connector.DoRequest(ctx, http.MethodPost, i.collectionPath()+"/points/scroll", req, &resp)
		if err != nil {
			return nil, fmt.Errorf("scroll points: %w", common.ClassifyError(serviceName, err))
		}

		for _, p := range resp.Result.Points {
			records = append(records, recordFromPayload(p.ID, p.Payload))
		}

		if resp.Result.NextPageOffset == nil || len(resp.Result.Points) == 0 {
			break
		}
		offset = resp.Result.NextPageOffset
	}

	sort.SliceStable(records, func(a, b int) bool {
		return records[a].CreatedAt.After(records[b].CreatedAt)
	})

	return records, nil
}

func recordFromPayload(id any, payload map[string]any) entity.VectorRecord {
	r := entity.VectorRecord{ID: fmt.Sprint(id)}

	if v, ok := payload[payloadContent].(string); ok {
		r.Content = v
	}
	if v, ok := payload[payloadMetadata].(map[string]any); ok {
		r.Metadata = make(map[string]string, len(v))
		for key, val := range v {
			if s, ok := val.(string); ok {
				r.Metadata[key] = s
			} else {
				r.Metadata[key] = fmt.Sprint(val)
			}
		}
	}
	if v, ok := payload[payloadCreatedAt].(string); ok {
		if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
			r.CreatedAt = t
		}
	}

	return r
}
