package cache

import (
	"context"
	"sync"
	"time"

	"github.com/ekamlabs/ekamquery/internal/domain"
)

type entry struct {
	value     *domain.QueryResponse
	createdAt time.Time
}

// MemoryStore is the default in-process cache: a mutex-guarded map with
// TTL expiry (lazy, plus Sweep for the background reaper) and a max-size
// bound evicting the oldest entry.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]entry
	ttl     time.Duration
	maxSize int

	// now is swappable for expiry tests.
	now func() time.Time
}

func NewMemoryStore(ttl time.Duration, maxSize int) *MemoryStore {
	if maxSize <= 0 {
		maxSize = 1000
	}
	return &MemoryStore{
		entries: make(map[string]entry),
		ttl:     ttl,
		maxSize: maxSize,
		now:     time.Now,
	}
}

func (s *MemoryStore) Get(_ context.Context, key string) (*domain.QueryResponse, bool) {
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if s.expired(e) {
		return nil, false
	}
	return e.value, true
}

func (s *MemoryStore) Put(_ context.Context, key string, value *domain.QueryResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[key]; !exists && len(s.entries) >= s.maxSize {
		s.evictOldestLocked()
	}
	s.entries[key] = entry{value: value, createdAt: s.now()}
}

func (s *MemoryStore) Flush(_ context.Context) {
	s.mu.Lock()
	s.entries = make(map[string]entry)
	s.mu.Unlock()
}

// Sweep removes every expired entry and reports how many were dropped.
func (s *MemoryStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, e := range s.entries {
		if s.expired(e) {
			delete(s.entries, key)
			removed++
		}
	}
	return removed
}

// Len returns the current entry count, expired entries included.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *MemoryStore) expired(e entry) bool {
	return s.ttl > 0 && s.now().Sub(e.createdAt) >= s.ttl
}

func (s *MemoryStore) evictOldestLocked() {
	var oldestKey string
	var oldestAt time.Time
	first := true
	for key, e := range s.entries {
		if first || e.createdAt.Before(oldestAt) {
			oldestKey = key
			oldestAt = e.createdAt
			first = false
		}
	}
	if !first {
		delete(s.entries, oldestKey)
	}
}
