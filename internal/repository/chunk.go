package repository

import (
	"context"
	"sync"

	"github.com/ekamlabs/ekamquery/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// SimilarChunk pairs a stored chunk with its similarity to a query
// embedding, in [0,1] (cosine).
type SimilarChunk struct {
	Chunk domain.DocumentChunk
	Score float64
}

// ChunkRepository is the persistent vector index: append-only storage of
// document chunks with embeddings, cosine similarity search, and explicit
// full reset. Appends are serialized; readers see either the pre-append or
// post-append state, never a partially written file.
type ChunkRepository struct {
	pool *pgxpool.Pool

	appendMu sync.Mutex
}

func NewChunkRepository(pool *pgxpool.Pool) *ChunkRepository {
	return &ChunkRepository{pool: pool}
}

// AppendChunks inserts all chunks of one source file in a single
// transaction. Existing chunks are never touched.
func (r *ChunkRepository) AppendChunks(ctx context.Context, chunks []domain.DocumentChunk) error {
	if len(chunks) == 0 {
		return nil
	}

	r.appendMu.Lock()
	defer r.appendMu.Unlock()

	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		for _, c := range chunks {
			_, err := tx.Exec(ctx,
				`INSERT INTO document_chunks
					(id, source_file, chunk_index, content, char_start, char_end, embedding)
				 VALUES
					($1, $2, $3, $4, $5, $6, $7)`,
				c.ID,
				c.SourceFile,
				c.ChunkIndex,
				c.Text,
				c.Span.Start,
				c.Span.End,
				pgvector.NewVector(c.Embedding),
			)
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// SearchSimilar returns the top-K chunks by cosine similarity to the query
// embedding. An empty index yields an empty slice.
func (r *ChunkRepository) SearchSimilar(ctx context.Context, embedding []float32, topK int) ([]SimilarChunk, error) {
	if topK <= 0 {
		topK = 5
	}

	vec := pgvector.NewVector(embedding)

	rows, err := r.pool.Query(ctx,
		`SELECT id, source_file, chunk_index, content, char_start, char_end,
		        1 - (embedding <=> $1) AS score
		 FROM document_chunks
		 ORDER BY embedding <=> $1
		 LIMIT $2`,
		vec, topK,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := make([]SimilarChunk, 0, topK)
	for rows.Next() {
		var sc SimilarChunk
		err := rows.Scan(
			&sc.Chunk.ID,
			&sc.Chunk.SourceFile,
			&sc.Chunk.ChunkIndex,
			&sc.Chunk.Text,
			&sc.Chunk.Span.Start,
			&sc.Chunk.Span.End,
			&sc.Score,
		)
		if err != nil {
			return nil, err
		}
		results = append(results, sc)
	}
	return results, rows.Err()
}

// NextChunkIndex returns the index the next chunk of the given source file
// should take, keeping per-file indexes contiguous across repeated ingests.
func (r *ChunkRepository) NextChunkIndex(ctx context.Context, sourceFile string) (int, error) {
	var next int
	err := r.pool.QueryRow(ctx,
		`SELECT COALESCE(MAX(chunk_index) + 1, 0) FROM document_chunks WHERE source_file = $1`,
		sourceFile,
	).Scan(&next)
	if err != nil {
		return 0, err
	}
	return next, nil
}

// Count returns the number of stored chunks.
func (r *ChunkRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM document_chunks`).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

// Reset deletes the entire corpus. Only an explicit caller request reaches
// this; nothing else deletes chunks.
func (r *ChunkRepository) Reset(ctx context.Context) error {
	r.appendMu.Lock()
	defer r.appendMu.Unlock()

	_, err := r.pool.Exec(ctx, `TRUNCATE document_chunks`)
	return err
}
