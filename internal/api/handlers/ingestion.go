package handlers

import (
	"context"
	"io"
	"net/http"

	"github.com/ekamlabs/ekamquery/internal/api"
	"github.com/ekamlabs/ekamquery/internal/ingest"
)

// IngestService runs the document ingestion pipeline.
type IngestService interface {
	Ingest(ctx context.Context, files []ingest.RawFile) (*ingest.Stats, error)
}

type IngestionHandler struct {
	svc IngestService
}

func NewIngestionHandler(svc IngestService) *IngestionHandler {
	return &IngestionHandler{svc: svc}
}

const multipartMemoryLimit = 10 << 20

// Upload handles POST /ingest with multipart form files under "files".
func (h *IngestionHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(multipartMemoryLimit); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid multipart request")
		return
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		api.Error(w, http.StatusBadRequest, "no files provided")
		return
	}

	files := make([]ingest.RawFile, 0, len(headers))
	for _, header := range headers {
		part, err := header.Open()
		if err != nil {
			api.Error(w, http.StatusBadRequest, "unreadable file part")
			return
		}
		content, err := io.ReadAll(part)
		part.Close()
		if err != nil {
			api.Error(w, http.StatusBadRequest, "unreadable file part")
			return
		}

		files = append(files, ingest.RawFile{
			Name:        header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Content:     content,
		})
	}

	stats, err := h.svc.Ingest(r.Context(), files)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.JSON(w, http.StatusOK, stats)
}
