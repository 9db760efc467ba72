package query

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/futig/askdocs/internal/entity"
	"github.com/futig/askdocs/internal/pkg/formatter"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUsecase struct {
	resp       *entity.QueryResponse
	inspect    *entity.CacheInspectResponse
	inspectErr error

	gotQuestion string
	gotLimit    int
}

func (f *fakeUsecase) Query(_ context.Context, req *entity.QueryRequest) *entity.QueryResponse {
	f.gotQuestion = req.Question
	return f.resp
}

func (f *fakeUsecase) Inspect(_ context.Context, limit int) (*entity.CacheInspectResponse, error) {
	f.gotLimit = limit
	return f.inspect, f.inspectErr
}

func newTestRouter(uc *fakeUsecase) http.Handler {
	r := chi.NewRouter()
	RegisterRoutes(r, NewHandler(uc, formatter.NewFactory()))
	return r
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestQuery_Success(t *testing.T) {
	uc := &fakeUsecase{resp: &entity.QueryResponse{Answer: "Use webgisdr.", RawResponse: "Use webgisdr."}}
	rec := do(t, newTestRouter(uc), http.MethodPost, "/query", `{"question":"How do I back up?"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "How do I back up?", uc.gotQuestion)

	var got map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "Use webgisdr.", got["answer"])
	assert.Nil(t, got["reasoning"])
	assert.Equal(t, false, got["cache_hit"])
	assert.NotContains(t, got, "error")
}

func TestQuery_StatusMapping(t *testing.T) {
	cases := []struct {
		errorType entity.ErrorType
		status    int
	}{
		{entity.ErrorTypeValidation, http.StatusBadRequest},
		{entity.ErrorTypeTimeout, http.StatusGatewayTimeout},
		{entity.ErrorTypeConnection, http.StatusBadGateway},
		{entity.ErrorTypeGeneric, http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(string(tc.errorType), func(t *testing.T) {
			uc := &fakeUsecase{resp: &entity.QueryResponse{
				Error:          "failed",
				ErrorType:      tc.errorType,
				Message:        "try again",
				TechnicalError: "boom",
			}}
			rec := do(t, newTestRouter(uc), http.MethodPost, "/query", `{"question":"q"}`)

			assert.Equal(t, tc.status, rec.Code)
			var got entity.QueryResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
			assert.Equal(t, tc.errorType, got.ErrorType)
			assert.Equal(t, "boom", got.TechnicalError)
		})
	}
}

func TestQuery_MalformedBody(t *testing.T) {
	uc := &fakeUsecase{}
	rec := do(t, newTestRouter(uc), http.MethodPost, "/query", `{"question":`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var got entity.QueryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, entity.ErrorTypeValidation, got.ErrorType)
	assert.Empty(t, uc.gotQuestion)
}

func TestQuery_EmptyBodyReachesValidation(t *testing.T) {
	uc := &fakeUsecase{resp: &entity.QueryResponse{Error: "No question provided", ErrorType: entity.ErrorTypeValidation}}
	rec := do(t, newTestRouter(uc), http.MethodPost, "/query", "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, uc.gotQuestion)
}

func TestCacheInspect(t *testing.T) {
	uc := &fakeUsecase{inspect: &entity.CacheInspectResponse{
		Entries: []entity.CacheEntrySummary{{Question: "q", Stage: entity.StageTwo}},
		Count:   1,
	}}
	h := newTestRouter(uc)

	rec := do(t, h, http.MethodGet, "/cache-inspect", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 20, uc.gotLimit)

	var got entity.CacheInspectResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, 1, got.Count)
	assert.Equal(t, entity.StageTwo, got.Entries[0].Stage)

	rec = do(t, h, http.MethodGet, "/cache-inspect?limit=5", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 5, uc.gotLimit)

	rec = do(t, h, http.MethodGet, "/cache-inspect?limit=500", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCacheInspect_Unavailable(t *testing.T) {
	uc := &fakeUsecase{inspectErr: errors.New("connection refused")}
	rec := do(t, newTestRouter(uc), http.MethodGet, "/cache-inspect", "")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestExport_Markdown(t *testing.T) {
	reasoning := "checked the docs"
	uc := &fakeUsecase{resp: &entity.QueryResponse{Answer: "Use webgisdr.", Reasoning: &reasoning}}
	rec := do(t, newTestRouter(uc), http.MethodPost, "/query/export?format=markdown", `{"question":"How do I back up?"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), `filename="answer.md"`)
	assert.Contains(t, rec.Body.String(), "# How do I back up?")
	assert.Contains(t, rec.Body.String(), "Use webgisdr.")
}

func TestExport_Errors(t *testing.T) {
	uc := &fakeUsecase{resp: &entity.QueryResponse{Error: "Request timed out", ErrorType: entity.ErrorTypeTimeout}}
	h := newTestRouter(uc)

	rec := do(t, h, http.MethodPost, "/query/export?format=odt", `{"question":"q"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, uc.gotQuestion)

	rec = do(t, h, http.MethodPost, "/query/export?format=pdf", `{"question":"q"}`)
	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}
