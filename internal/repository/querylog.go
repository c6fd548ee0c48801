package repository

import (
	"context"

	"github.com/ekamlabs/ekamquery/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

// QueryLogEntry records one processed query for offline evaluation.
type QueryLogEntry struct {
	Query          string
	QueryType      domain.QueryType
	CacheStatus    domain.CacheStatus
	SQLRowCount    int
	SQLErrored     bool
	DocResultCount int
	DurationMs     int64
	GeneratedQuery string
}

// QueryLogRepository stores query logs for evaluation of classification and
// generation quality.
type QueryLogRepository struct {
	pool *pgxpool.Pool
}

func NewQueryLogRepository(pool *pgxpool.Pool) *QueryLogRepository {
	return &QueryLogRepository{pool: pool}
}

func (r *QueryLogRepository) Create(ctx context.Context, entry QueryLogEntry) (string, error) {
	var id string
	err := r.pool.QueryRow(ctx,
		`INSERT INTO query_logs
			(query, query_type, cache_status, sql_row_count, sql_errored, doc_result_count, duration_ms, generated_query)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id`,
		entry.Query,
		string(entry.QueryType),
		string(entry.CacheStatus),
		entry.SQLRowCount,
		entry.SQLErrored,
		entry.DocResultCount,
		entry.DurationMs,
		nullableString(entry.GeneratedQuery),
	).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
