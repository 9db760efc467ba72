package generation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/futig/askdocs/internal/config"
	"github.com/futig/askdocs/internal/entity"
	"github.com/futig/askdocs/internal/pkg/retry"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// Completer is a text-generation service.
type Completer interface {
	Complete(ctx context.Context, req entity.CompletionRequest) (string, error)
}

// Result is a finished generation with the states it went through.
type Result struct {
	Response entity.CachedResponse
	Trace    []State
}

// Pipeline runs the reasoning model and, when its answer lacks markdown
// structure, the formatting model.
type Pipeline struct {
	completer  Completer
	reasoning  config.StageConfig
	formatting config.StageConfig
}

func NewPipeline(completer Completer, reasoning, formatting config.StageConfig) *Pipeline {
	return &Pipeline{
		completer:  completer,
		reasoning:  reasoning,
		formatting: formatting,
	}
}

// run holds the mutable state of one Generate call.
type run struct {
	state     State
	trace     []State
	raw       string
	parsed    parsedOutput
	formatted string
	err       error
}

func (r *run) moveTo(ctx context.Context, s State) {
	ctxzap.Debug(ctx, "generation state changed",
		zap.Stringer("from", r.state),
		zap.Stringer("to", s),
	)
	r.state = s
	r.trace = append(r.trace, s)
}

// Generate answers q from chunks. Only a reasoning-stage failure is returned as
// an error; a formatting failure falls back to the reasoning answer.
func (p *Pipeline) Generate(ctx context.Context, q string, chunks []entity.Chunk) (*Result, error) {
	r := &run{state: StatePending, trace: []State{StatePending}}

	for !r.state.Terminal() {
		switch r.state {
		case StatePending:
			r.moveTo(ctx, StateStage1Called)

		case StateStage1Called:
			r.raw, r.err = p.call(ctx, "reasoning", p.reasoning, reasoningSystemPrompt, reasoningPrompt(q, chunks))
			if r.err != nil {
				r.moveTo(ctx, StateStage1Failed)
			} else {
				r.moveTo(ctx, StateStage1OK)
			}

		case StateStage1OK:
			r.parsed = parseReasoningOutput(r.raw)
			r.moveTo(ctx, StateParsed)

		case StateParsed:
			if r.parsed.needsFormatting && strings.TrimSpace(r.parsed.finalAnswer) != "" {
				r.moveTo(ctx, StateNeedsFormat)
			} else {
				r.moveTo(ctx, StateDone)
			}

		case StateNeedsFormat:
			r.moveTo(ctx, StateStage2Called)

		case StateStage2Called:
			r.formatted, r.err = p.call(ctx, "formatting", p.formatting, formattingSystemPrompt, formattingPrompt(r.parsed.finalAnswer))
			if r.err == nil && strings.TrimSpace(r.formatted) == "" {
				r.err = fmt.Errorf("%w: empty formatting output", entity.ErrMalformedResponse)
			}
			if r.err != nil {
				r.moveTo(ctx, StateStage2Failed)
			} else {
				r.moveTo(ctx, StateStage2OK)
			}

		case StateStage2OK, StateStage2Failed:
			if r.state == StateStage2Failed {
				ctxzap.Warn(ctx, "formatting stage failed, using reasoning answer", zap.Error(r.err))
			}
			r.moveTo(ctx, StateDone)
		}
	}

	if r.state == StateStage1Failed {
		return nil, fmt.Errorf("reasoning stage: %w", r.err)
	}

	return &Result{
		Response: r.response(),
		Trace:    r.trace,
	}, nil
}

// response builds the payload from the states the run went through.
func (r *run) response() entity.CachedResponse {
	resp := entity.CachedResponse{
		Answer:      r.parsed.finalAnswer,
		RawResponse: r.raw,
		CachedAt:    time.Now().UTC(),
	}
	if r.parsed.reasoning != "" {
		reasoning := r.parsed.reasoning
		resp.Reasoning = &reasoning
	}

	for _, s := range r.trace {
		if s == StateStage2OK {
			resp.Answer = r.formatted
			resp.RawResponse = r.parsed.finalAnswer
			resp.UsedSecondStage = true
		}
	}
	return resp
}

func (p *Pipeline) call(ctx context.Context, stage string, cfg config.StageConfig, system, user string) (string, error) {
	req := entity.CompletionRequest{
		Model:        cfg.Model,
		SystemPrompt: system,
		UserPrompt:   user,
		Temperature:  cfg.Temperature,
		MaxTokens:    cfg.MaxTokens,
	}

	var out string
	err := retry.Do(ctx, cfg.Retry,
		func(ctx context.Context) error {
			var err error
			out, err = p.completer.Complete(ctx, req)
			return err
		},
		retry.WithRetryIf(isRetryable),
		retry.WithOnRetry(func(attempt uint, err error) {
			ctxzap.Warn(ctx, "generation call failed, retrying",
				zap.String("stage", stage),
				zap.String("model", cfg.Model),
				zap.Uint("attempt", attempt+1),
				zap.Error(err),
			)
		}),
	)
	if err != nil {
		return "", err
	}
	return out, nil
}

// isRetryable rejects failures a repeat cannot fix: an unreachable peer or a
// response that parsed but had the wrong shape.
func isRetryable(err error) bool {
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
