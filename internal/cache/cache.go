// Package cache memoizes query responses keyed by normalized query text.
// Caching is an optimization only: every store failure degrades to a miss
// and never fails the request.
package cache

import (
	"context"

	"github.com/ekamlabs/ekamquery/internal/domain"
)

// Store is the cache contract used by the orchestrator. Implementations
// must make single-key reads and writes linearizable; distinct keys need
// no mutual exclusion.
type Store interface {
	// Get returns the cached response for the key, or absent. Expired
	// entries are absent.
	Get(ctx context.Context, key string) (*domain.QueryResponse, bool)

	// Put stores the response under the key, replacing any existing entry.
	Put(ctx context.Context, key string, value *domain.QueryResponse)

	// Flush drops every entry.
	Flush(ctx context.Context)
}

// Sweeper is implemented by stores that need periodic expiry sweeps in
// addition to lazy expiry at lookup time.
type Sweeper interface {
	Sweep() int
}

// Key derives the cache key for a query: its normalized text.
func Key(query string) string {
	return domain.NormalizeQuery(query)
}
