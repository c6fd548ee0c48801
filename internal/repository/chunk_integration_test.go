//go:build integration

package repository

import (
	"context"
	"testing"

	"github.com/ekamlabs/ekamquery/internal/domain"
	"github.com/ekamlabs/ekamquery/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// vec1536 builds an embedding whose leading components are given and the
// rest zero, matching the column dimension.
func vec1536(lead ...float32) []float32 {
	v := make([]float32, 1536)
	copy(v, lead)
	return v
}

func newChunk(sourceFile string, index int, text string, embedding []float32) domain.DocumentChunk {
	return domain.DocumentChunk{
		ID:         domain.ChunkID(sourceFile, index),
		SourceFile: sourceFile,
		ChunkIndex: index,
		Text:       text,
		Embedding:  embedding,
		Span:       domain.CharSpan{Start: 0, End: len(text)},
	}
}

func TestChunkRepository_AppendAndSearch(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewChunkRepository(pool)

	chunks := []domain.DocumentChunk{
		newChunk("report.pdf", 0, "Revenue grew in the third quarter.", vec1536(1, 0)),
		newChunk("report.pdf", 1, "Headcount stayed flat year over year.", vec1536(0, 1)),
	}
	require.NoError(t, repo.AppendChunks(ctx, chunks))

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	// A query embedding aligned with the first chunk must rank it first
	// with a near-perfect cosine score.
	results, err := repo.SearchSimilar(ctx, vec1536(1, 0), 5)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "report.pdf_0", results[0].Chunk.ID)
	assert.InDelta(t, 1.0, results[0].Score, 0.01)
	assert.Greater(t, results[0].Score, results[1].Score)
	assert.Equal(t, chunks[0].Text, results[0].Chunk.Text)
	assert.Equal(t, chunks[0].Span, results[0].Chunk.Span)
}

func TestChunkRepository_SearchSimilar_RespectsTopK(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewChunkRepository(pool)

	var chunks []domain.DocumentChunk
	for i := 0; i < 4; i++ {
		chunks = append(chunks, newChunk("notes.txt", i, "chunk body", vec1536(float32(i+1))))
	}
	require.NoError(t, repo.AppendChunks(ctx, chunks))

	results, err := repo.SearchSimilar(ctx, vec1536(1), 2)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestChunkRepository_SearchSimilar_EmptyIndex(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewChunkRepository(pool)

	results, err := repo.SearchSimilar(ctx, vec1536(1), 5)
	require.NoError(t, err)
	assert.NotNil(t, results)
	assert.Empty(t, results)
}

func TestChunkRepository_NextChunkIndex_Contiguous(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewChunkRepository(pool)

	next, err := repo.NextChunkIndex(ctx, "fresh.txt")
	require.NoError(t, err)
	assert.Equal(t, 0, next)

	require.NoError(t, repo.AppendChunks(ctx, []domain.DocumentChunk{
		newChunk("fresh.txt", 0, "first", vec1536(1)),
		newChunk("fresh.txt", 1, "second", vec1536(2)),
	}))

	next, err = repo.NextChunkIndex(ctx, "fresh.txt")
	require.NoError(t, err)
	assert.Equal(t, 2, next)

	// Indexes are per file; another file starts from zero.
	next, err = repo.NextChunkIndex(ctx, "other.txt")
	require.NoError(t, err)
	assert.Equal(t, 0, next)
}

func TestChunkRepository_AppendChunks_DuplicateIndexRejected(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewChunkRepository(pool)

	require.NoError(t, repo.AppendChunks(ctx, []domain.DocumentChunk{
		newChunk("dup.txt", 0, "first", vec1536(1)),
	}))

	err := repo.AppendChunks(ctx, []domain.DocumentChunk{
		newChunk("dup.txt", 0, "clash", vec1536(2)),
	})
	assert.Error(t, err)

	// The failed append must not leave partial state.
	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestChunkRepository_Reset(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewChunkRepository(pool)

	require.NoError(t, repo.AppendChunks(ctx, []domain.DocumentChunk{
		newChunk("gone.txt", 0, "soon deleted", vec1536(1)),
	}))

	require.NoError(t, repo.Reset(ctx))

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)

	next, err := repo.NextChunkIndex(ctx, "gone.txt")
	require.NoError(t, err)
	assert.Equal(t, 0, next)
}
