package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekamlabs/ekamquery/internal/domain"
)

func response(queryType domain.QueryType) *domain.QueryResponse {
	return &domain.QueryResponse{
		QueryType:       queryType,
		DocumentResults: []domain.DocumentAnswer{},
		CacheStatus:     domain.CacheMiss,
	}
}

func TestMemoryStore_RoundTrip(t *testing.T) {
	store := NewMemoryStore(time.Minute, 10)
	ctx := context.Background()

	store.Put(ctx, "list all employees", response(domain.QueryTypeSQL))

	got, ok := store.Get(ctx, "list all employees")
	require.True(t, ok)
	assert.Equal(t, domain.QueryTypeSQL, got.QueryType)

	_, ok = store.Get(ctx, "some other query")
	assert.False(t, ok)
}

func TestMemoryStore_TTLExpiry(t *testing.T) {
	store := NewMemoryStore(300*time.Second, 10)
	ctx := context.Background()

	current := time.Now()
	store.now = func() time.Time { return current }

	store.Put(ctx, "k", response(domain.QueryTypeDocument))

	current = current.Add(299 * time.Second)
	_, ok := store.Get(ctx, "k")
	assert.True(t, ok, "entry inside TTL must be served")

	current = current.Add(1 * time.Second)
	_, ok = store.Get(ctx, "k")
	assert.False(t, ok, "entry at exactly TTL must be absent")
}

func TestMemoryStore_MaxSizeEvictsOldest(t *testing.T) {
	store := NewMemoryStore(time.Hour, 3)
	ctx := context.Background()

	current := time.Now()
	store.now = func() time.Time { return current }

	for i := 0; i < 3; i++ {
		store.Put(ctx, fmt.Sprintf("q%d", i), response(domain.QueryTypeSQL))
		current = current.Add(time.Second)
	}
	store.Put(ctx, "q3", response(domain.QueryTypeSQL))

	_, ok := store.Get(ctx, "q0")
	assert.False(t, ok, "oldest entry must be evicted")
	for _, key := range []string{"q1", "q2", "q3"} {
		_, ok := store.Get(ctx, key)
		assert.True(t, ok, "entry %s must survive", key)
	}
	assert.Equal(t, 3, store.Len())
}

func TestMemoryStore_OverwriteDoesNotEvict(t *testing.T) {
	store := NewMemoryStore(time.Hour, 2)
	ctx := context.Background()

	store.Put(ctx, "a", response(domain.QueryTypeSQL))
	store.Put(ctx, "b", response(domain.QueryTypeSQL))
	store.Put(ctx, "a", response(domain.QueryTypeDocument))

	assert.Equal(t, 2, store.Len())
	got, ok := store.Get(ctx, "a")
	require.True(t, ok)
	assert.Equal(t, domain.QueryTypeDocument, got.QueryType)
}

func TestMemoryStore_Flush(t *testing.T) {
	store := NewMemoryStore(time.Hour, 10)
	ctx := context.Background()

	store.Put(ctx, "a", response(domain.QueryTypeSQL))
	store.Put(ctx, "b", response(domain.QueryTypeSQL))

	store.Flush(ctx)

	assert.Equal(t, 0, store.Len())
	_, ok := store.Get(ctx, "a")
	assert.False(t, ok)
}

func TestMemoryStore_Sweep(t *testing.T) {
	store := NewMemoryStore(time.Minute, 10)
	ctx := context.Background()

	current := time.Now()
	store.now = func() time.Time { return current }

	store.Put(ctx, "old", response(domain.QueryTypeSQL))
	current = current.Add(2 * time.Minute)
	store.Put(ctx, "fresh", response(domain.QueryTypeSQL))

	removed := store.Sweep()

	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, store.Len())
	_, ok := store.Get(ctx, "fresh")
	assert.True(t, ok)
}

func TestKey_Normalizes(t *testing.T) {
	assert.Equal(t, Key("  List ALL   employees "), Key("list all employees"))
	assert.Equal(t, Key(Key("A  B")), Key("A  B"))
}
