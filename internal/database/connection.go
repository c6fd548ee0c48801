package database

import (
	"context"
	"fmt"

	"github.com/ekamlabs/ekamquery/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

// NewPool creates a pgx connection pool for the target relational store and
// verifies reachability with a ping. An unreachable database surfaces as a
// CONNECTION_ERROR so the SQL path can report it uniformly.
func NewPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeConnection, "failed to ping database", err)
	}

	return pool, nil
}
