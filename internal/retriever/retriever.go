// Package retriever answers document-oriented queries: embed the query,
// find the nearest chunks, and extract the best answer span.
package retriever

import (
	"context"
	"log"

	"github.com/ekamlabs/ekamquery/internal/domain"
	"github.com/ekamlabs/ekamquery/internal/repository"
)

// Embedder must be the same capability used at ingestion time; mixing
// embedding models across ingest and query breaks similarity search.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Searcher finds the stored chunks nearest to an embedding.
type Searcher interface {
	SearchSimilar(ctx context.Context, embedding []float32, topK int) ([]repository.SimilarChunk, error)
}

// AnswerExtractor produces an answer span with a confidence score from a
// (question, passage) pair.
type AnswerExtractor interface {
	ExtractAnswer(ctx context.Context, question, passage string) (string, float64, error)
}

// Service runs retrieval and extractive answering.
type Service struct {
	embedder  Embedder
	searcher  Searcher
	extractor AnswerExtractor
	topK      int
	floor     float64
}

func NewService(embedder Embedder, searcher Searcher, extractor AnswerExtractor, topK int, similarityFloor float64) *Service {
	if topK <= 0 {
		topK = 5
	}
	return &Service{
		embedder:  embedder,
		searcher:  searcher,
		extractor: extractor,
		topK:      topK,
		floor:     similarityFloor,
	}
}

// Answer returns at most one DocumentAnswer: the best-scoring extraction
// across the top-K candidates above the similarity floor. An empty index,
// no candidate above the floor, or extraction failing on every candidate
// all yield an empty list rather than an error.
func (s *Service) Answer(ctx context.Context, query string) ([]domain.DocumentAnswer, error) {
	answers := make([]domain.DocumentAnswer, 0, 1)

	embedding, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}

	candidates, err := s.searcher.SearchSimilar(ctx, embedding, s.topK)
	if err != nil {
		return nil, err
	}

	best := domain.DocumentAnswer{}
	bestScore := -1.0
	for _, candidate := range candidates {
		if candidate.Score < s.floor {
			continue
		}

		answer, score, err := s.extractor.ExtractAnswer(ctx, query, candidate.Chunk.Text)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			log.Printf("retriever: extraction failed on chunk %s, skipping: %v", candidate.Chunk.ID, err)
			continue
		}
		if answer == "" {
			continue
		}

		if score > bestScore {
			bestScore = score
			best = domain.DocumentAnswer{
				SourceFile:      candidate.Chunk.SourceFile,
				ChunkIndex:      candidate.Chunk.ChunkIndex,
				Answer:          answer,
				SimilarityScore: candidate.Score,
			}
		}
	}

	if bestScore >= 0 {
		answers = append(answers, best)
	}
	return answers, nil
}
