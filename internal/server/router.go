package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ekamlabs/ekamquery/internal/api"
	"github.com/ekamlabs/ekamquery/internal/api/handlers"
	"github.com/ekamlabs/ekamquery/internal/api/middleware"
)

type RouterConfig struct {
	QueryHandler     *handlers.QueryHandler
	IngestionHandler *handlers.IngestionHandler
	SchemaHandler    *handlers.SchemaHandler
	MaxBodyBytes     int64
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	maxBodyBytes := cfg.MaxBodyBytes
	if maxBodyBytes <= 0 {
		maxBodyBytes = 50 * 1024 * 1024
	}

	r.Use(middleware.RequestID)
	r.Use(middleware.SentryMiddleware)
	r.Use(middleware.AccessLog)
	r.Use(middleware.MaxBodyBytes(maxBodyBytes))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		api.Success(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/query", cfg.QueryHandler.Submit)
	r.Delete("/corpus", cfg.QueryHandler.ResetCorpus)

	r.Post("/ingest", cfg.IngestionHandler.Upload)

	r.Route("/schema", func(r chi.Router) {
		r.Get("/", cfg.SchemaHandler.Get)
		r.Post("/refresh", cfg.SchemaHandler.Refresh)
	})

	return r
}
