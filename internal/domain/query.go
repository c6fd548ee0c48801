package domain

import "strings"

// QueryType is the classification assigned to an incoming query.
type QueryType string

const (
	QueryTypeSQL      QueryType = "sql"
	QueryTypeDocument QueryType = "document"
	QueryTypeHybrid   QueryType = "hybrid"
	QueryTypeUnknown  QueryType = "unknown"
)

// IsValidQueryType reports whether t is one of the known classifications.
func IsValidQueryType(t QueryType) bool {
	switch t {
	case QueryTypeSQL, QueryTypeDocument, QueryTypeHybrid, QueryTypeUnknown:
		return true
	default:
		return false
	}
}

// QueryClassification is the per-request classification verdict.
type QueryClassification struct {
	Type       QueryType `json:"type"`
	Confidence float64   `json:"confidence"`
}

// CacheStatus marks whether a response was served from cache.
type CacheStatus string

const (
	CacheHit  CacheStatus = "hit"
	CacheMiss CacheStatus = "miss"
)

// SQLErrorColumn is the sentinel column name used to encode a failed SQL
// path inside the SQLResult wire shape. Kept for envelope compatibility;
// internally the SQL path reports failures as errors and the boundary
// flattens them into this shape.
const SQLErrorColumn = "Error"

// SQLResult holds the normalized result set of an executed generated query.
// Rows preserve column order; SQL NULLs are carried as nil cells.
type SQLResult struct {
	Columns        []string `json:"columns"`
	Rows           [][]any  `json:"rows"`
	GeneratedQuery string   `json:"generated_query"`
}

// NewSQLErrorResult encodes a SQL-path failure in the sentinel shape:
// a single "Error" column with a single one-cell row.
func NewSQLErrorResult(generatedQuery, message string) *SQLResult {
	return &SQLResult{
		Columns:        []string{SQLErrorColumn},
		Rows:           [][]any{{message}},
		GeneratedQuery: generatedQuery,
	}
}

// IsError reports whether the result is the failure sentinel.
func (r *SQLResult) IsError() bool {
	return len(r.Columns) == 1 && r.Columns[0] == SQLErrorColumn
}

// DocumentAnswer is the best extracted answer for a document-path query.
type DocumentAnswer struct {
	SourceFile      string  `json:"source_file"`
	ChunkIndex      int     `json:"chunk_index"`
	Answer          string  `json:"answer"`
	SimilarityScore float64 `json:"similarity_score"`
}

// PerformanceMetrics records server-side timing for one request.
type PerformanceMetrics struct {
	TotalTimeSeconds float64            `json:"total_time_seconds"`
	PerStageSeconds  map[string]float64 `json:"per_stage_seconds,omitempty"`
}

// QueryResponse is the unified response envelope assembled by the
// orchestrator, cached as an immutable snapshot and returned to callers.
// When served from cache only CacheStatus and timing are rewritten.
type QueryResponse struct {
	QueryType          QueryType          `json:"query_type"`
	SQLResult          *SQLResult         `json:"sql_result,omitempty"`
	DocumentResults    []DocumentAnswer   `json:"document_results"`
	CacheStatus        CacheStatus        `json:"cache_status"`
	PerformanceMetrics PerformanceMetrics `json:"performance_metrics"`
}

// Clone returns a deep enough copy of the response for cache reuse: the
// copy can have its cache status and metrics rewritten without mutating
// the cached snapshot.
func (r *QueryResponse) Clone() *QueryResponse {
	if r == nil {
		return nil
	}
	out := *r
	if r.PerformanceMetrics.PerStageSeconds != nil {
		stages := make(map[string]float64, len(r.PerformanceMetrics.PerStageSeconds))
		for k, v := range r.PerformanceMetrics.PerStageSeconds {
			stages[k] = v
		}
		out.PerformanceMetrics.PerStageSeconds = stages
	}
	return &out
}

// NormalizeQuery canonicalizes query text for classification and cache
// keying: trimmed, case-folded, inner whitespace collapsed. Idempotent.
func NormalizeQuery(query string) string {
	return strings.Join(strings.Fields(strings.ToLower(query)), " ")
}
