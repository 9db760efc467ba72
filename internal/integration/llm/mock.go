package llm

import (
	"context"
	"strings"

	"github.com/futig/askdocs/internal/entity"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// MockConnector answers without a model server. The reasoning model gets a
// think-tagged plain answer, every other model a markdown rewrite of its input.
type MockConnector struct {
	reasoningModel string
	logger         *zap.Logger
}

func NewMockConnector(reasoningModel string, logger *zap.Logger) *MockConnector {
	return &MockConnector{
		reasoningModel: reasoningModel,
		logger:         logger,
	}
}

func (m *MockConnector) Complete(ctx context.Context, req entity.CompletionRequest) (string, error) {
	ctxzap.Info(ctx, "[MOCK] requesting completion", zap.String("model", req.Model))

	if req.Model == m.reasoningModel {
		question := req.UserPrompt
		if i := strings.LastIndex(question, "Question: "); i >= 0 {
			question = question[i+len("Question: "):]
		}
		return "<think>The context covers this topic, so I will summarise the relevant steps.</think>\n" +
			"Based on the documentation, here is what applies to: " + strings.TrimSpace(question), nil
	}

	answer := req.UserPrompt
	if i := strings.Index(answer, "\n\n"); i >= 0 {
		answer = answer[i+2:]
	}
	return "## Answer\n\n- " + strings.TrimSpace(answer) + "\n\n*Generated by the mock formatter.*", nil
}
