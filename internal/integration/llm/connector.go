package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/futig/askdocs/internal/config"
	"github.com/futig/askdocs/internal/entity"
	"github.com/futig/askdocs/internal/integration/common"
	pkghttp "github.com/futig/askdocs/pkg/http"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

const serviceName = "llm"

// Connector calls an OpenAI-compatible chat completions endpoint.
type Connector struct {
	config    config.LLMConnectorConfig
	connector *pkghttp.Connector
	logger    *zap.Logger
}

func NewConnector(
	cfg config.LLMConnectorConfig,
	logger *zap.Logger,
) *Connector {
	return &Connector{
		// Stage retry settings bound each attempt through the context.
		connector: common.NewBaseConnector(cfg.HTTPClientConfig, logger, pkghttp.WithRequestTimeout(0)),
		config:    cfg,
		logger:    logger,
	}
}

// Complete sends a system+user prompt pair and returns the first choice's content.
func (c *Connector) Complete(ctx context.Context, req entity.CompletionRequest) (string, error) {
	ctxzap.Info(ctx, "requesting completion via LLM service", zap.String("model", req.Model))

	body := entity.ChatCompletionRequest{
		Model: req.Model,
		Messages: []entity.ChatMessage{
			{Role: entity.RoleSystem, Content: req.SystemPrompt},
			{Role: entity.RoleUser, Content: req.UserPrompt},
		},
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
		Stream:      false,
	}

	var resp entity.ChatCompletionResponse
	err := c.connector.DoRequest(ctx, http.MethodPost, c.config.CompletionsEndpoint, body, &resp)
	if err != nil {
		return "", common.ClassifyError(serviceName, err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%s: %w: no choices in response", serviceName, entity.ErrMalformedResponse)
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)

	ctxzap.Info(ctx, "completion received",
		zap.String("model", req.Model),
		zap.Int("result_length", len(content)),
	)

	return content, nil
}
