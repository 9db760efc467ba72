package query

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/futig/askdocs/internal/entity"
	"github.com/futig/askdocs/internal/generation"
	"github.com/futig/askdocs/internal/pkg/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeResponseCache struct {
	mu       sync.Mutex
	hit      *entity.CacheHit
	err      error
	stored   []entity.CachedResponse
	entries  []entity.CacheEntrySummary
	storeErr error
}

func (f *fakeResponseCache) Lookup(ctx context.Context, q string) (*entity.CacheHit, error) {
	return f.hit, f.err
}

func (f *fakeResponseCache) Store(ctx context.Context, q string, payload entity.CachedResponse, docCount int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.storeErr != nil {
		return f.storeErr
	}
	f.stored = append(f.stored, payload)
	return nil
}

func (f *fakeResponseCache) Entries(ctx context.Context, limit int) ([]entity.CacheEntrySummary, error) {
	return f.entries, f.err
}

func (f *fakeResponseCache) storedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.stored)
}

type fakeDocumentCache struct {
	chunks  []entity.Chunk
	ok      bool
	err     error
	stores  int
	lookups int
}

func (f *fakeDocumentCache) Lookup(ctx context.Context, q string) ([]entity.Chunk, bool, error) {
	f.lookups++
	return f.chunks, f.ok, f.err
}

func (f *fakeDocumentCache) Store(ctx context.Context, q string, chunks []entity.Chunk) error {
	f.stores++
	return f.err
}

type fakeRetriever struct {
	chunks []entity.Chunk
	err    error
	calls  int32
}

func (f *fakeRetriever) Retrieve(ctx context.Context, q string) ([]entity.Chunk, error) {
	atomic.AddInt32(&f.calls, 1)
	return f.chunks, f.err
}

type fakeGenerator struct {
	resp  entity.CachedResponse
	err   error
	calls int32
	delay time.Duration
}

func (f *fakeGenerator) Generate(ctx context.Context, q string, chunks []entity.Chunk) (*generation.Result, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return &generation.Result{Response: f.resp, Trace: []generation.State{generation.StateDone}}, nil
}

func newUsecase(r Retriever, g Generator, opts Options) *QueryUsecase {
	return NewUsecase(r, g, validator.NewValidator(4000), opts)
}

var someChunks = []entity.Chunk{{Content: "doc"}}

func TestQuery_FullPipelineStoresResponse(t *testing.T) {
	rc := &fakeResponseCache{}
	dc := &fakeDocumentCache{}
	r := &fakeRetriever{chunks: someChunks}
	g := &fakeGenerator{resp: entity.CachedResponse{Answer: "## A", RawResponse: "raw"}}
	uc := newUsecase(r, g, Options{ResponseCache: rc, DocumentCache: dc, WriteTimeout: time.Second})

	resp := uc.Query(context.Background(), &entity.QueryRequest{Question: "q?"})
	require.NoError(t, uc.Drain(context.Background()))

	assert.False(t, resp.Failed())
	assert.Equal(t, "## A", resp.Answer)
	assert.False(t, resp.CacheHit)
	assert.Nil(t, resp.SimilarityScore)
	assert.Equal(t, 1, dc.stores)
	assert.Equal(t, 1, rc.storedCount())
}

func TestQuery_ResponseCacheHitIsAnnotated(t *testing.T) {
	rc := &fakeResponseCache{hit: &entity.CacheHit{
		Payload:         entity.CachedResponse{Answer: "cached", UsedSecondStage: true},
		Type:            entity.CacheTypeExact,
		Distance:        0.65,
		MatchedQuestion: "Q?",
	}}
	r := &fakeRetriever{}
	g := &fakeGenerator{}
	uc := newUsecase(r, g, Options{ResponseCache: rc})

	resp := uc.Query(context.Background(), &entity.QueryRequest{Question: "q?"})

	assert.Equal(t, "cached", resp.Answer)
	assert.True(t, resp.CacheHit)
	assert.True(t, resp.UsedSecondStage)
	assert.Equal(t, entity.CacheTypeExact, resp.CacheType)
	require.NotNil(t, resp.SimilarityScore)
	assert.InDelta(t, 0.65, *resp.SimilarityScore, 1e-9)
	assert.Equal(t, "Q?", resp.MatchedQuestion)
	assert.EqualValues(t, 0, r.calls)
	assert.EqualValues(t, 0, g.calls)
}

func TestQuery_DocumentCacheHitSkipsRetrieval(t *testing.T) {
	dc := &fakeDocumentCache{chunks: someChunks, ok: true}
	r := &fakeRetriever{}
	g := &fakeGenerator{resp: entity.CachedResponse{Answer: "a"}}
	uc := newUsecase(r, g, Options{DocumentCache: dc})

	resp := uc.Query(context.Background(), &entity.QueryRequest{Question: "q"})

	assert.Equal(t, "a", resp.Answer)
	assert.EqualValues(t, 0, r.calls)
	assert.Equal(t, 0, dc.stores)
}

func TestQuery_ZeroChunksShortCircuits(t *testing.T) {
	rc := &fakeResponseCache{}
	dc := &fakeDocumentCache{}
	g := &fakeGenerator{}
	uc := newUsecase(&fakeRetriever{}, g, Options{ResponseCache: rc, DocumentCache: dc})

	resp := uc.Query(context.Background(), &entity.QueryRequest{Question: "unrelated"})
	require.NoError(t, uc.Drain(context.Background()))

	assert.Equal(t, noInformationAnswer, resp.Answer)
	assert.False(t, resp.Failed())
	assert.EqualValues(t, 0, g.calls)
	assert.Equal(t, 0, rc.storedCount())
	assert.Equal(t, 0, dc.stores)
}

func TestQuery_EmptyGenerationIsNoInformation(t *testing.T) {
	rc := &fakeResponseCache{}
	uc := newUsecase(&fakeRetriever{chunks: someChunks}, &fakeGenerator{}, Options{ResponseCache: rc})

	resp := uc.Query(context.Background(), &entity.QueryRequest{Question: "q"})
	require.NoError(t, uc.Drain(context.Background()))

	assert.Equal(t, noInformationAnswer, resp.Answer)
	assert.Equal(t, 0, rc.storedCount())
}

func TestQuery_CachesUnreachableStillAnswers(t *testing.T) {
	down := errors.New("dial tcp 127.0.0.1:6379: connect: connection refused")
	rc := &fakeResponseCache{err: down, storeErr: down}
	dc := &fakeDocumentCache{err: down}
	g := &fakeGenerator{resp: entity.CachedResponse{Answer: "fresh"}}
	uc := newUsecase(&fakeRetriever{chunks: someChunks}, g, Options{ResponseCache: rc, DocumentCache: dc})

	resp := uc.Query(context.Background(), &entity.QueryRequest{Question: "q"})
	require.NoError(t, uc.Drain(context.Background()))

	assert.False(t, resp.Failed())
	assert.Equal(t, "fresh", resp.Answer)
}

func TestQuery_NoCachesConfigured(t *testing.T) {
	g := &fakeGenerator{resp: entity.CachedResponse{Answer: "fresh"}}
	uc := newUsecase(&fakeRetriever{chunks: someChunks}, g, Options{})

	resp := uc.Query(context.Background(), &entity.QueryRequest{Question: "q"})

	assert.Equal(t, "fresh", resp.Answer)

	inspect, err := uc.Inspect(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, inspect.Entries)
}

func TestQuery_Validation(t *testing.T) {
	uc := newUsecase(&fakeRetriever{}, &fakeGenerator{}, Options{})

	resp := uc.Query(context.Background(), &entity.QueryRequest{Question: "  "})

	assert.True(t, resp.Failed())
	assert.Equal(t, entity.ErrorTypeValidation, resp.ErrorType)
	assert.Equal(t, "No question provided", resp.Error)
}

func TestQuery_ErrorEnvelopes(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want entity.ErrorType
	}{
		{name: "timeout", err: fmt.Errorf("reasoning stage: %w", entity.ErrUpstreamTimeout), want: entity.ErrorTypeTimeout},
		{name: "deadline", err: context.DeadlineExceeded, want: entity.ErrorTypeTimeout},
		{name: "refused", err: fmt.Errorf("reasoning stage: %w", entity.ErrUpstreamUnreachable), want: entity.ErrorTypeConnection},
		{name: "bad status", err: &entity.BadStatusError{Service: "llm", StatusCode: 500, Body: "boom"}, want: entity.ErrorTypeGeneric},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := newUsecase(&fakeRetriever{chunks: someChunks}, &fakeGenerator{err: tt.err}, Options{})

			resp := uc.Query(context.Background(), &entity.QueryRequest{Question: "q"})

			assert.True(t, resp.Failed())
			assert.Equal(t, tt.want, resp.ErrorType)
			assert.NotEmpty(t, resp.Message)
			assert.Equal(t, tt.err.Error(), resp.TechnicalError)
		})
	}
}

func TestQuery_EmbeddingOutageIsConnectionError(t *testing.T) {
	r := &fakeRetriever{err: fmt.Errorf("retrieve chunks: %w", entity.ErrEmbeddingUnavailable)}
	uc := newUsecase(r, &fakeGenerator{}, Options{})

	resp := uc.Query(context.Background(), &entity.QueryRequest{Question: "q"})

	assert.Equal(t, entity.ErrorTypeConnection, resp.ErrorType)
}

func TestQuery_DedupeInFlight(t *testing.T) {
	g := &fakeGenerator{resp: entity.CachedResponse{Answer: "once"}, delay: 100 * time.Millisecond}
	uc := newUsecase(&fakeRetriever{chunks: someChunks}, g, Options{DedupeInFlight: true})

	var wg sync.WaitGroup
	answers := make([]string, 5)
	for i := range answers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			answers[i] = uc.Query(context.Background(), &entity.QueryRequest{Question: " Same Question "}).Answer
		}(i)
	}
	wg.Wait()

	assert.Less(t, atomic.LoadInt32(&g.calls), int32(5))
	for _, a := range answers {
		assert.Equal(t, "once", a)
	}
}

func TestQuery_DedupeSurvivesFirstCallerLeaving(t *testing.T) {
	g := &fakeGenerator{resp: entity.CachedResponse{Answer: "once"}, delay: 150 * time.Millisecond}
	uc := newUsecase(&fakeRetriever{chunks: someChunks}, g, Options{DedupeInFlight: true, SharedTimeout: time.Second})

	firstCtx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	var first *entity.QueryResponse
	done := make(chan struct{})
	go func() {
		defer close(done)
		first = uc.Query(firstCtx, &entity.QueryRequest{Question: "same question"})
	}()

	time.Sleep(10 * time.Millisecond)
	second := uc.Query(context.Background(), &entity.QueryRequest{Question: "Same question"})
	<-done

	assert.Equal(t, "once", second.Answer)
	assert.False(t, second.Failed())
	assert.True(t, first.Failed())
	assert.Equal(t, entity.ErrorTypeTimeout, first.ErrorType)
	assert.Equal(t, int32(1), atomic.LoadInt32(&g.calls))
}

func TestQuery_DedupeSharedCallIsBounded(t *testing.T) {
	g := &fakeGenerator{resp: entity.CachedResponse{Answer: "late"}, delay: time.Second}
	uc := newUsecase(&fakeRetriever{chunks: someChunks}, g, Options{DedupeInFlight: true, SharedTimeout: 20 * time.Millisecond})

	resp := uc.Query(context.Background(), &entity.QueryRequest{Question: "slow question"})

	assert.True(t, resp.Failed())
	assert.Equal(t, entity.ErrorTypeTimeout, resp.ErrorType)
}

func TestInspect(t *testing.T) {
	rc := &fakeResponseCache{entries: []entity.CacheEntrySummary{{Question: "q"}, {Question: "p"}}}
	uc := newUsecase(&fakeRetriever{}, &fakeGenerator{}, Options{ResponseCache: rc})

	resp, err := uc.Inspect(context.Background(), 10)

	require.NoError(t, err)
	assert.Equal(t, 2, resp.Count)

	rc.err = errors.New("down")
	_, err = uc.Inspect(context.Background(), 10)
	assert.Error(t, err)
}

func TestDrain_RespectsContext(t *testing.T) {
	uc := newUsecase(&fakeRetriever{}, &fakeGenerator{}, Options{})
	uc.pending.Add(1)
	defer uc.pending.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	assert.ErrorIs(t, uc.Drain(ctx), context.DeadlineExceeded)
}
