// Package ingest turns uploaded documents into embedded chunks in the
// vector index.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/ekamlabs/ekamquery/internal/domain"
)

// RawFile is one uploaded document as received from the API layer.
type RawFile struct {
	Name        string
	ContentType string
	Content     []byte
}

// Stats summarizes one ingestion batch.
type Stats struct {
	TotalDocumentsIngested int `json:"total_documents_ingested"`
	TotalChunksCreated     int `json:"total_chunks_created"`
}

// TextExtractor converts a raw file into plain text.
type TextExtractor interface {
	Extract(content []byte, declaredMime string) (string, error)
}

// Embedder produces an embedding vector for a piece of text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// ChunkStore persists document chunks.
type ChunkStore interface {
	AppendChunks(ctx context.Context, chunks []domain.DocumentChunk) error
	NextChunkIndex(ctx context.Context, sourceFile string) (int, error)
}

// Archiver stores the original uploaded bytes, e.g. in an object store.
// Archival is best-effort and never fails an ingestion.
type Archiver interface {
	Archive(ctx context.Context, name, contentType string, content []byte) error
}

// Service runs the ingestion pipeline: extract, chunk, embed, persist.
type Service struct {
	extractor TextExtractor
	embedder  Embedder
	chunks    ChunkStore
	archiver  Archiver
	cfg       ChunkConfig
}

// NewService creates an ingestion service. archiver may be nil.
func NewService(extractor TextExtractor, embedder Embedder, chunks ChunkStore, archiver Archiver, cfg ChunkConfig) *Service {
	if cfg.MaxChars <= 0 {
		cfg = DefaultChunkConfig()
	}
	return &Service{
		extractor: extractor,
		embedder:  embedder,
		chunks:    chunks,
		archiver:  archiver,
		cfg:       cfg,
	}
}

// Ingest processes a batch of uploaded files. A file that cannot be
// extracted is skipped and the rest of the batch proceeds; the call as a
// whole fails only when no file in the batch could be processed.
func (s *Service) Ingest(ctx context.Context, files []RawFile) (*Stats, error) {
	if len(files) == 0 {
		return nil, domain.NewDomainError(domain.ErrCodeValidation, "no files provided")
	}

	stats := &Stats{}
	var failures []error

	for _, file := range files {
		chunkCount, err := s.ingestFile(ctx, file)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, err
			}
			log.Printf("ingest: skipping %s: %v", file.Name, err)
			failures = append(failures, fmt.Errorf("%s: %w", file.Name, err))
			continue
		}
		stats.TotalDocumentsIngested++
		stats.TotalChunksCreated += chunkCount
	}

	if stats.TotalDocumentsIngested == 0 {
		return nil, batchError(failures)
	}
	return stats, nil
}

// batchError classifies a fully failed batch: only format problems report
// UNSUPPORTED_FORMAT, anything else surfaces as the first underlying error.
func batchError(failures []error) error {
	for _, f := range failures {
		var domainErr *domain.DomainError
		if !errors.As(f, &domainErr) || domainErr.Code != domain.ErrCodeUnsupportedFormat {
			return f
		}
	}
	return domain.NewDomainErrorWithCause(domain.ErrCodeUnsupportedFormat,
		"no file in the batch could be ingested", errors.Join(failures...))
}

func (s *Service) ingestFile(ctx context.Context, file RawFile) (int, error) {
	text, err := s.extractor.Extract(file.Content, file.ContentType)
	if err != nil {
		return 0, err
	}

	pieces := chunkText(text, s.cfg)
	if len(pieces) == 0 {
		// Valid but empty document: counted as ingested, zero chunks.
		return 0, nil
	}

	base, err := s.chunks.NextChunkIndex(ctx, file.Name)
	if err != nil {
		return 0, err
	}

	chunks := make([]domain.DocumentChunk, 0, len(pieces))
	for _, p := range pieces {
		embedding, err := s.embedder.Embed(ctx, p.Text)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return 0, err
			}
			log.Printf("ingest: dropping chunk of %s: %v", file.Name, err)
			continue
		}

		index := base + len(chunks)
		chunks = append(chunks, domain.DocumentChunk{
			ID:         domain.ChunkID(file.Name, index),
			SourceFile: file.Name,
			ChunkIndex: index,
			Text:       p.Text,
			Embedding:  embedding,
			Span:       p.Span,
		})
	}

	if len(chunks) == 0 {
		return 0, domain.NewDomainError(domain.ErrCodeInferenceFailure,
			"embedding failed for every chunk")
	}

	if err := s.chunks.AppendChunks(ctx, chunks); err != nil {
		return 0, err
	}

	if s.archiver != nil {
		if err := s.archiver.Archive(ctx, file.Name, file.ContentType, file.Content); err != nil {
			log.Printf("ingest: archival of %s failed: %v", file.Name, err)
		}
	}

	return len(chunks), nil
}
