package api

import (
	"net/http"
	"time"

	"github.com/futig/askdocs/internal/api/docs"
	"github.com/futig/askdocs/internal/api/middleware"
	queryapi "github.com/futig/askdocs/internal/api/query"
	"github.com/futig/askdocs/internal/pkg/response"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// SetupRouter creates and configures the HTTP router
func SetupRouter(queryHandler *queryapi.Handler, requestTimeout time.Duration, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// Middleware stack
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS)
	r.Use(chimiddleware.Timeout(requestTimeout))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		response.Success(w, map[string]string{"status": "healthy"})
	})

	docs.RegisterRoutes(r)
	queryapi.RegisterRoutes(r, queryHandler)

	return r
}
