package embedding

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/futig/askdocs/internal/config"
	"github.com/futig/askdocs/internal/entity"
	"github.com/futig/askdocs/internal/integration/common"
	"github.com/futig/askdocs/internal/pkg/retry"
	pkghttp "github.com/futig/askdocs/pkg/http"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

const serviceName = "embedding"

// Connector talks to an OpenAI-compatible embeddings endpoint.
type Connector struct {
	config    config.EmbeddingConnectorConfig
	connector *pkghttp.Connector
	logger    *zap.Logger
}

func NewConnector(
	cfg config.EmbeddingConnectorConfig,
	logger *zap.Logger,
) *Connector {
	return &Connector{
		connector: common.NewBaseConnector(cfg.HTTPClientConfig, logger),
		config:    cfg,
		logger:    logger,
	}
}

// Embed returns the embedding of a single text.
func (c *Connector) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := c.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch embeds texts, returning vectors in input order.
func (c *Connector) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	req := entity.EmbeddingRequest{
		Model: c.config.Model,
		Input: texts,
	}

	var resp entity.EmbeddingResponse
	err := retry.Do(ctx, c.config.Retry,
		func(ctx context.Context) error {
			resp = entity.EmbeddingResponse{}
			return c.connector.DoRequest(ctx, http.MethodPost, c.config.Endpoint, req, &resp)
		},
		retry.WithRetryIf(isRetryable),
		retry.WithOnRetry(func(attempt uint, err error) {
			ctxzap.Warn(ctx, "embedding call failed, retrying",
				zap.Int("count", len(texts)),
				zap.Uint("attempt", attempt+1),
				zap.Error(err),
			)
		}),
	)
	if err != nil {
		return nil, classify(err)
	}

	if resp.Data == nil {
		return nil, fmt.Errorf("%w: response has no data field", entity.ErrEmbeddingMalformed)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("%w: expected %d embeddings, got %d", entity.ErrEmbeddingMalformed, len(texts), len(resp.Data))
	}

	vectors := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(texts) || vectors[d.Index] != nil {
			return nil, fmt.Errorf("%w: unexpected embedding index %d", entity.ErrEmbeddingMalformed, d.Index)
		}
		if len(d.Embedding) == 0 {
			return nil, fmt.Errorf("%w: empty embedding at index %d", entity.ErrEmbeddingMalformed, d.Index)
		}
		vectors[d.Index] = d.Embedding
	}

	ctxzap.Debug(ctx, "texts embedded",
		zap.Int("count", len(texts)),
		zap.Int("dimension", len(vectors[0])),
	)

	return vectors, nil
}

// Ping checks that the embedding model answers.
func (c *Connector) Ping(ctx context.Context) error {
	_, err := c.Embed(ctx, "ping")
	return err
}

// isRetryable rejects an unreachable peer and a body that does not decode;
// timeouts and bad statuses are worth another attempt.
func isRetryable(err error) bool {
	err = common.ClassifyError(serviceName, err)
	switch {
	case errors.Is(err, entity.ErrUpstreamUnreachable):
		return false
	case errors.Is(err, entity.ErrMalformedResponse):
		return false
	case errors.Is(err, context.Canceled):
		return false
	default:
		return true
	}
}

// classify folds every transport failure into Unavailable and bad payloads into Malformed.
func classify(err error) error {
	err = common.ClassifyError(serviceName, err)

	switch {
	case errors.Is(err, entity.ErrMalformedResponse):
		return fmt.Errorf("%w: %v", entity.ErrEmbeddingMalformed, err)
	case errors.Is(err, entity.ErrUpstreamTimeout), errors.Is(err, entity.ErrUpstreamUnreachable):
		// keep the timeout/connection distinction visible to callers
		return fmt.Errorf("%w: %w", entity.ErrEmbeddingUnavailable, err)
	default:
		return fmt.Errorf("%w: %v", entity.ErrEmbeddingUnavailable, err)
	}
}
