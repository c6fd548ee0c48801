package handlers

import (
	"context"
	"net/http"

	"github.com/ekamlabs/ekamquery/internal/api"
	"github.com/ekamlabs/ekamquery/internal/domain"
)

// SchemaService exposes the schema catalog.
type SchemaService interface {
	Discover(ctx context.Context) (*domain.SchemaDescription, error)
	Refresh(ctx context.Context) (*domain.SchemaDescription, error)
}

type SchemaHandler struct {
	svc SchemaService
}

func NewSchemaHandler(svc SchemaService) *SchemaHandler {
	return &SchemaHandler{svc: svc}
}

// Get handles GET /schema.
func (h *SchemaHandler) Get(w http.ResponseWriter, r *http.Request) {
	schema, err := h.svc.Discover(r.Context())
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.JSON(w, http.StatusOK, schema)
}

// Refresh handles POST /schema/refresh, forcing a new introspection pass.
func (h *SchemaHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	schema, err := h.svc.Refresh(r.Context())
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.JSON(w, http.StatusOK, schema)
}
