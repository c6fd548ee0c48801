package domain

import "fmt"

// CharSpan marks the [Start, End) character offsets of a chunk within the
// extracted text of its source file.
type CharSpan struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// DocumentChunk is the unit of embedding and retrieval. Chunks are created
// during ingestion, never mutated, and deleted only by an explicit corpus
// reset.
type DocumentChunk struct {
	ID         string    `json:"id"`
	SourceFile string    `json:"source_file"`
	ChunkIndex int       `json:"chunk_index"`
	Text       string    `json:"text"`
	Embedding  []float32 `json:"-"`
	Span       CharSpan  `json:"char_span"`
}

// ChunkID derives the unique chunk identifier from its source file and
// index. Uniqueness follows from chunk_index being contiguous per file.
func ChunkID(sourceFile string, index int) string {
	return fmt.Sprintf("%s_%d", sourceFile, index)
}

// ValidateDocumentChunk validates a DocumentChunk instance
func ValidateDocumentChunk(c *DocumentChunk) error {
	if c == nil {
		return fmt.Errorf("chunk cannot be nil")
	}

	if c.SourceFile == "" {
		return fmt.Errorf("chunk SourceFile is required")
	}

	if c.ChunkIndex < 0 {
		return fmt.Errorf("chunk index must be non-negative")
	}

	if c.Text == "" {
		return fmt.Errorf("chunk text cannot be empty")
	}

	if c.ID != ChunkID(c.SourceFile, c.ChunkIndex) {
		return fmt.Errorf("chunk ID %q does not match source file and index", c.ID)
	}

	return nil
}
