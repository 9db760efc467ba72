package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/futig/askdocs/internal/entity"
	"github.com/futig/askdocs/internal/pkg/question"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

const (
	inspectQuestionLen = 100
	inspectPreviewLen  = 200
)

// SemanticStore is a text-level vector collection.
type SemanticStore interface {
	InsertKeyed(ctx context.Context, key, content string, metadata map[string]string) error
	Search(ctx context.Context, query string, k int) ([]entity.VectorMatch, error)
	List(ctx context.Context, limit int) ([]entity.VectorRecord, error)
}

// SemanticCache finds previously answered questions by embedding proximity.
type SemanticCache struct {
	store     SemanticStore
	topK      int
	threshold float64
}

func NewSemanticCache(store SemanticStore, topK int, threshold float64) *SemanticCache {
	return &SemanticCache{
		store:     store,
		topK:      topK,
		threshold: threshold,
	}
}

type candidate struct {
	payload  entity.CachedResponse
	question string
	distance float64
}

// Lookup returns a hit when a stored question normalises to the same text as q,
// whatever its distance, or when the closest stored question is strictly below
// the similarity threshold.
func (c *SemanticCache) Lookup(ctx context.Context, q string) (*entity.CacheHit, error) {
	matches, err := c.store.Search(ctx, q, c.topK)
	if err != nil {
		return nil, fmt.Errorf("%w: semantic lookup: %v", entity.ErrCacheUnavailable, err)
	}

	candidates := make([]candidate, 0, len(matches))
	for _, m := range matches {
		var payload entity.CachedResponse
		if err := json.Unmarshal([]byte(m.Content), &payload); err != nil {
			ctxzap.Warn(ctx, "skipping malformed semantic cache entry",
				zap.String("id", m.ID),
				zap.Error(err),
			)
			continue
		}
		candidates = append(candidates, candidate{
			payload:  payload,
			question: m.Metadata[entity.MetaQuestion],
			distance: m.Distance,
		})
	}

	for _, cand := range candidates {
		if cand.question != "" && question.Equal(cand.question, q) {
			return c.hit(cand, entity.CacheTypeExact), nil
		}
	}

	if len(candidates) == 0 {
		return nil, nil
	}

	best := candidates[0]
	for _, cand := range candidates[1:] {
		if cand.distance < best.distance {
			best = cand
		}
	}

	if best.distance < c.threshold {
		return c.hit(best, entity.CacheTypeSemantic), nil
	}

	ctxzap.Debug(ctx, "semantic cache miss",
		zap.Float64("best_distance", best.distance),
		zap.Float64("threshold", c.threshold),
	)
	return nil, nil
}

func (c *SemanticCache) hit(cand candidate, cacheType entity.CacheType) *entity.CacheHit {
	return &entity.CacheHit{
		Payload:         cand.payload,
		Type:            cacheType,
		Distance:        cand.distance,
		MatchedQuestion: cand.question,
	}
}

// Store indexes payload under the embedding of the original question.
func (c *SemanticCache) Store(ctx context.Context, q string, payload entity.CachedResponse, docCount int) error {
	if payload.CachedAt.IsZero() {
		payload.CachedAt = time.Now().UTC()
	}

	content, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal cached response: %w", err)
	}

	metadata := map[string]string{
		entity.MetaQuestion:  q,
		entity.MetaTimestamp: payload.CachedAt.Format(time.RFC3339),
		entity.MetaDocCount:  strconv.Itoa(docCount),
		entity.MetaStage:     payload.Stage(),
	}

	if err := c.store.InsertKeyed(ctx, q, string(content), metadata); err != nil {
		return fmt.Errorf("%w: semantic store: %v", entity.ErrCacheUnavailable, err)
	}
	return nil
}

// Entries lists up to limit stored entries, newest first.
func (c *SemanticCache) Entries(ctx context.Context, limit int) ([]entity.CacheEntrySummary, error) {
	records, err := c.store.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: semantic list: %v", entity.ErrCacheUnavailable, err)
	}

	out := make([]entity.CacheEntrySummary, 0, len(records))
	for _, r := range records {
		preview := r.Content
		var payload entity.CachedResponse
		if err := json.Unmarshal([]byte(r.Content), &payload); err == nil {
			preview = payload.Answer
		}

		out = append(out, entity.CacheEntrySummary{
			Question:      question.Truncate(r.Metadata[entity.MetaQuestion], inspectQuestionLen),
			Timestamp:     r.Metadata[entity.MetaTimestamp],
			Stage:         r.Metadata[entity.MetaStage],
			DocCount:      r.Metadata[entity.MetaDocCount],
			AnswerPreview: question.Truncate(preview, inspectPreviewLen),
		})
	}
	return out, nil
}
