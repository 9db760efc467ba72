package query

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/futig/askdocs/internal/entity"
	"github.com/futig/askdocs/internal/pkg/logger"
	"github.com/futig/askdocs/internal/pkg/response"
	"github.com/futig/askdocs/internal/pkg/validator"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

const maxBodySize = 1 << 20

type Handler struct {
	usecase    QueryUsecase
	formatters FormatterFactory
}

func NewHandler(usecase QueryUsecase, formatters FormatterFactory) *Handler {
	return &Handler{
		usecase:    usecase,
		formatters: formatters,
	}
}

// Query handles POST /query
func (h *Handler) Query(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "Query")

	req, err := decodeQuery(r)
	if err != nil {
		ctxzap.Warn(ctx, "failed to decode query", zap.Error(err))
		response.JSON(w, http.StatusBadRequest, invalidBodyEnvelope(err))
		return
	}

	resp := h.usecase.Query(ctx, req)
	if resp.Failed() {
		ctxzap.Warn(ctx, "query failed",
			zap.String("error_type", string(resp.ErrorType)),
			zap.String("technical_error", resp.TechnicalError),
		)
	}

	response.JSON(w, statusFor(resp), resp)
}

// CacheInspect handles GET /cache-inspect
func (h *Handler) CacheInspect(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "CacheInspect")

	limit, err := validator.ParseInspectLimit(r.URL.Query().Get("limit"))
	if err != nil {
		ctxzap.Warn(ctx, "invalid limit", zap.Error(err))
		response.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := h.usecase.Inspect(ctx, limit)
	if err != nil {
		ctxzap.Error(ctx, "failed to inspect response cache", zap.Error(err))
		response.Error(w, http.StatusServiceUnavailable, "response cache is unavailable")
		return
	}

	response.Success(w, resp)
}

// Export handles POST /query/export - answers and returns a document
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "Export")

	format, err := validator.ParseExportFormat(r.URL.Query().Get("format"))
	if err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	fmtr, err := h.formatters.Create(format)
	if err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	req, err := decodeQuery(r)
	if err != nil {
		response.JSON(w, http.StatusBadRequest, invalidBodyEnvelope(err))
		return
	}

	resp := h.usecase.Query(ctx, req)
	if resp.Failed() {
		response.JSON(w, statusFor(resp), resp)
		return
	}

	data, err := fmtr.Format(toAnswerDocument(req.Question, resp))
	if err != nil {
		ctxzap.Error(ctx, "failed to format answer", zap.String("format", string(format)), zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "failed to render the answer")
		return
	}

	ctxzap.Info(ctx, "answer exported", zap.String("format", string(format)), zap.Int("bytes", len(data)))
	response.Attachment(w, fmtr.ContentType(), "answer"+fmtr.FileExtension(), data)
}

func decodeQuery(r *http.Request) (*entity.QueryRequest, error) {
	var req entity.QueryRequest
	err := json.NewDecoder(io.LimitReader(r.Body, maxBodySize)).Decode(&req)
	if err != nil && err != io.EOF {
		return nil, err
	}
	return &req, nil
}
