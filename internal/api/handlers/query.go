package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/ekamlabs/ekamquery/internal/api"
	"github.com/ekamlabs/ekamquery/internal/domain"
)

// QueryEngine is the orchestrator surface the handler needs.
type QueryEngine interface {
	Process(ctx context.Context, query string) (*domain.QueryResponse, error)
	ResetCorpus(ctx context.Context) error
}

type QueryHandler struct {
	engine QueryEngine
}

func NewQueryHandler(engine QueryEngine) *QueryHandler {
	return &QueryHandler{engine: engine}
}

type QueryRequest struct {
	Query string `json:"query"`
}

// Submit handles POST /query. The response body is the envelope itself,
// not wrapped: its field names are the stable contract consumed by
// presentation layers.
func (h *QueryHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	response, err := h.engine.Process(r.Context(), req.Query)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.JSON(w, http.StatusOK, response)
}

// ResetCorpus handles DELETE /corpus: it wipes the vector index and
// flushes the result cache.
func (h *QueryHandler) ResetCorpus(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.ResetCorpus(r.Context()); err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, map[string]string{"status": "reset"})
}
