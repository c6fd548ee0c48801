package jobs

import (
	"context"
	"log"

	"github.com/ekamlabs/ekamquery/internal/cache"
)

// CacheReaper sweeps expired entries out of the result cache so the
// in-memory store does not sit full of dead entries between lookups.
type CacheReaper struct {
	sweeper cache.Sweeper
}

func NewCacheReaper(sweeper cache.Sweeper) *CacheReaper {
	return &CacheReaper{sweeper: sweeper}
}

// Run performs one sweep.
func (r *CacheReaper) Run(_ context.Context) error {
	if removed := r.sweeper.Sweep(); removed > 0 {
		log.Printf("cache reaper: removed %d expired entries", removed)
	}
	return nil
}
