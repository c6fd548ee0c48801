package sqlgen

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Executor runs a validated statement and returns the normalized result
// set. SQL NULLs are carried as nil cells.
type Executor interface {
	Execute(ctx context.Context, stmt string) (columns []string, rows [][]any, err error)
}

// PgExecutor executes generated statements against the target database
// with a bounded statement timeout and a row cap.
type PgExecutor struct {
	pool    *pgxpool.Pool
	timeout time.Duration
	maxRows int
}

func NewPgExecutor(pool *pgxpool.Pool, timeout time.Duration, maxRows int) *PgExecutor {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if maxRows <= 0 {
		maxRows = 500
	}
	return &PgExecutor{pool: pool, timeout: timeout, maxRows: maxRows}
}

func (e *PgExecutor) Execute(ctx context.Context, stmt string) ([]string, [][]any, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	rows, err := e.pool.Query(ctx, stmt)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	columns := make([]string, len(fields))
	for i, f := range fields {
		columns[i] = f.Name
	}

	result := make([][]any, 0, 16)
	for rows.Next() {
		if len(result) >= e.maxRows {
			break
		}
		values, err := rows.Values()
		if err != nil {
			return nil, nil, err
		}
		row := make([]any, len(values))
		copy(row, values)
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	return columns, result, nil
}
