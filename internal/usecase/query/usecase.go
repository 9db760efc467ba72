package query

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/futig/askdocs/internal/entity"
	"github.com/futig/askdocs/internal/pkg/logger"
	"github.com/futig/askdocs/internal/pkg/question"
	"github.com/futig/askdocs/internal/pkg/validator"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Options configures the optional parts of the usecase. Either cache may be nil.
type Options struct {
	ResponseCache  ResponseCache
	DocumentCache  DocumentCache
	WriteTimeout   time.Duration
	DedupeInFlight bool
	// SharedTimeout bounds a deduplicated generation, which runs detached
	// from any single caller.
	SharedTimeout time.Duration
}

// QueryUsecase answers questions: response cache, document cache, retrieval,
// generation, then an asynchronous response cache write.
type QueryUsecase struct {
	responseCache ResponseCache
	documentCache DocumentCache
	retriever     Retriever
	generator     Generator
	validator     *validator.Validator

	writeTimeout  time.Duration
	sharedTimeout time.Duration
	dedupe        bool
	inFlight      singleflight.Group
	pending       sync.WaitGroup
}

func NewUsecase(
	retriever Retriever,
	generator Generator,
	validator *validator.Validator,
	opts Options,
) *QueryUsecase {
	return &QueryUsecase{
		responseCache: opts.ResponseCache,
		documentCache: opts.DocumentCache,
		retriever:     retriever,
		generator:     generator,
		validator:     validator,
		writeTimeout:  opts.WriteTimeout,
		sharedTimeout: opts.SharedTimeout,
		dedupe:        opts.DedupeInFlight,
	}
}

// Query always returns an envelope; failures are reported inside it.
func (uc *QueryUsecase) Query(ctx context.Context, req *entity.QueryRequest) *entity.QueryResponse {
	if err := uc.validator.ValidateQuery(req); err != nil {
		return errorEnvelope(err)
	}

	ctx = logger.WithAction(ctx, "query")
	ctx = logger.AddFields(ctx, zap.Int("question_length", len(req.Question)))

	if !uc.dedupe {
		return uc.answer(ctx, req.Question)
	}

	// The shared call outlives any single caller; each waiter still stops at
	// its own deadline.
	ch := uc.inFlight.DoChan(question.Normalize(req.Question), func() (any, error) {
		sharedCtx := logger.Detach(ctx)
		if uc.sharedTimeout > 0 {
			var cancel context.CancelFunc
			sharedCtx, cancel = context.WithTimeout(sharedCtx, uc.sharedTimeout)
			defer cancel()
		}
		return uc.answer(sharedCtx, req.Question), nil
	})

	select {
	case res := <-ch:
		if res.Shared {
			ctxzap.Info(ctx, "answer shared with a concurrent identical question")
		}
		resp := *res.Val.(*entity.QueryResponse)
		return &resp
	case <-ctx.Done():
		ctxzap.Warn(ctx, "caller left before the shared answer was ready", zap.Error(ctx.Err()))
		return errorEnvelope(ctx.Err())
	}
}

func (uc *QueryUsecase) answer(ctx context.Context, q string) *entity.QueryResponse {
	if hit := uc.lookupResponse(ctx, q); hit != nil {
		ctxzap.Info(ctx, "response cache hit",
			zap.String("cache_type", string(hit.Type)),
			zap.Float64("distance", hit.Distance),
		)
		return cacheHitEnvelope(hit)
	}

	chunks, err := uc.chunks(ctx, q)
	if err != nil {
		ctxzap.Error(ctx, "retrieval failed", zap.Error(err))
		return errorEnvelope(err)
	}

	if len(chunks) == 0 {
		ctxzap.Info(ctx, "no relevant chunks, skipping generation")
		return noInformationEnvelope()
	}

	result, err := uc.generator.Generate(ctx, q, chunks)
	if err != nil {
		ctxzap.Error(ctx, "generation failed", zap.Error(err))
		return errorEnvelope(err)
	}

	if strings.TrimSpace(result.Response.Answer) == "" {
		ctxzap.Warn(ctx, "generation produced an empty answer")
		return noInformationEnvelope()
	}

	ctxzap.Info(ctx, "question answered",
		zap.Int("chunks", len(chunks)),
		zap.Bool("used_second_stage", result.Response.UsedSecondStage),
		zap.Stringers("trace", result.Trace),
	)

	uc.storeResponse(ctx, q, result.Response, len(chunks))

	return answerEnvelope(result.Response)
}

func (uc *QueryUsecase) lookupResponse(ctx context.Context, q string) *entity.CacheHit {
	if uc.responseCache == nil {
		return nil
	}

	hit, err := uc.responseCache.Lookup(ctx, q)
	if err != nil {
		ctxzap.Warn(ctx, "response cache lookup failed, treating as miss", zap.Error(err))
		return nil
	}
	return hit
}

// chunks serves retrieval from the document cache when possible.
func (uc *QueryUsecase) chunks(ctx context.Context, q string) ([]entity.Chunk, error) {
	if uc.documentCache != nil {
		cached, ok, err := uc.documentCache.Lookup(ctx, q)
		switch {
		case err != nil:
			ctxzap.Warn(ctx, "document cache lookup failed, treating as miss", zap.Error(err))
		case ok:
			ctxzap.Debug(ctx, "document cache hit", zap.Int("chunks", len(cached)))
			return cached, nil
		}
	}

	chunks, err := uc.retriever.Retrieve(ctx, q)
	if err != nil {
		return nil, err
	}

	if uc.documentCache != nil && len(chunks) > 0 {
		if err := uc.documentCache.Store(ctx, q, chunks); err != nil {
			ctxzap.Warn(ctx, "document cache store failed", zap.Error(err))
		}
	}

	return chunks, nil
}

// storeResponse writes to the response cache without holding up the caller.
func (uc *QueryUsecase) storeResponse(ctx context.Context, q string, resp entity.CachedResponse, docCount int) {
	if uc.responseCache == nil {
		return
	}

	uc.pending.Add(1)
	go func() {
		defer uc.pending.Done()

		writeCtx := logger.Detach(ctx)
		if uc.writeTimeout > 0 {
			var cancel context.CancelFunc
			writeCtx, cancel = context.WithTimeout(writeCtx, uc.writeTimeout)
			defer cancel()
		}

		if err := uc.responseCache.Store(writeCtx, q, resp, docCount); err != nil {
			ctxzap.Warn(writeCtx, "response cache store failed", zap.Error(err))
			return
		}
		ctxzap.Debug(writeCtx, "response cached", zap.String("stage", resp.Stage()))
	}()
}

// Inspect lists recent response cache entries.
func (uc *QueryUsecase) Inspect(ctx context.Context, limit int) (*entity.CacheInspectResponse, error) {
	if uc.responseCache == nil {
		return &entity.CacheInspectResponse{Entries: []entity.CacheEntrySummary{}}, nil
	}

	entries, err := uc.responseCache.Entries(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list response cache: %w", err)
	}

	return &entity.CacheInspectResponse{
		Entries: entries,
		Count:   len(entries),
	}, nil
}

// Drain waits for pending cache writes or until ctx is done.
func (uc *QueryUsecase) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		uc.pending.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("drain pending cache writes: %w", ctx.Err())
	}
}
