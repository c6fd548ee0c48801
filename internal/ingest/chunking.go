package ingest

import (
	"unicode"

	"github.com/ekamlabs/ekamquery/internal/domain"
)

// ChunkConfig controls how extracted document text is split for embedding.
type ChunkConfig struct {
	MaxChars int
	MinChars int
	Overlap  int
}

// DefaultChunkConfig provides sane defaults for chunking.
func DefaultChunkConfig() ChunkConfig {
	return ChunkConfig{
		MaxChars: 1200,
		MinChars: 400,
		Overlap:  200,
	}
}

// piece is one chunk of text together with its rune span in the source text.
type piece struct {
	Text string
	Span domain.CharSpan
}

// chunkText splits text into overlapping windows of at most MaxChars runes,
// preferring to cut on whitespace so words stay intact. Spans index into the
// original text, so a chunk can always be located in its source document.
func chunkText(text string, cfg ChunkConfig) []piece {
	if cfg.MaxChars <= 0 {
		cfg = DefaultChunkConfig()
	}

	runes := []rune(text)
	lo, hi := trimBounds(runes)
	if lo >= hi {
		return nil
	}

	if hi-lo <= cfg.MaxChars {
		return []piece{{
			Text: string(runes[lo:hi]),
			Span: domain.CharSpan{Start: lo, End: hi},
		}}
	}

	pieces := make([]piece, 0, 8)
	start := lo
	for start < hi {
		end := start + cfg.MaxChars
		if end > hi {
			end = hi
		}

		if end < hi {
			cut := end
			minCut := start + cfg.MinChars
			if minCut > end {
				minCut = start
			}
			for i := end; i > minCut; i-- {
				if unicode.IsSpace(runes[i-1]) {
					cut = i
					break
				}
			}
			end = cut
		}

		if end <= start {
			break
		}

		if s, e := trimmedSpan(runes, start, end); s < e {
			pieces = append(pieces, piece{
				Text: string(runes[s:e]),
				Span: domain.CharSpan{Start: s, End: e},
			})
		}

		if end >= hi {
			break
		}

		nextStart := end
		if cfg.Overlap > 0 && end-start > cfg.Overlap {
			nextStart = end - cfg.Overlap
		}
		if nextStart <= start {
			nextStart = end
		}
		start = nextStart
	}

	return pieces
}

// trimBounds returns the [lo, hi) region of runes with surrounding
// whitespace stripped.
func trimBounds(runes []rune) (int, int) {
	lo, hi := 0, len(runes)
	for lo < hi && unicode.IsSpace(runes[lo]) {
		lo++
	}
	for hi > lo && unicode.IsSpace(runes[hi-1]) {
		hi--
	}
	return lo, hi
}

func trimmedSpan(runes []rune, start, end int) (int, int) {
	for start < end && unicode.IsSpace(runes[start]) {
		start++
	}
	for end > start && unicode.IsSpace(runes[end-1]) {
		end--
	}
	return start, end
}
