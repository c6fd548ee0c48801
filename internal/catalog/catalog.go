// Package catalog discovers and serves the schema of the target relational
// store. Discovery runs once per process and on explicit refresh; the
// resulting description is immutable and shared by concurrent readers.
package catalog

import (
	"context"
	"strings"
	"sync"

	"github.com/ekamlabs/ekamquery/internal/domain"
)

// Introspector produces a complete schema description of the live database.
type Introspector interface {
	Introspect(ctx context.Context) (*domain.SchemaDescription, error)
}

// Service caches the discovered schema for the lifetime of the process.
type Service struct {
	introspector Introspector

	mu     sync.RWMutex
	schema *domain.SchemaDescription
}

func NewService(introspector Introspector) *Service {
	return &Service{introspector: introspector}
}

// Discover returns the cached schema description, running introspection on
// first use. Failed discovery is not cached.
func (s *Service) Discover(ctx context.Context) (*domain.SchemaDescription, error) {
	s.mu.RLock()
	cached := s.schema
	s.mu.RUnlock()
	if cached != nil {
		return cached, nil
	}

	return s.Refresh(ctx)
}

// Refresh forces a new introspection pass and replaces the cached schema.
// On failure the previous cached schema (if any) is kept.
func (s *Service) Refresh(ctx context.Context) (*domain.SchemaDescription, error) {
	schema, err := s.introspector.Introspect(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.schema = schema
	s.mu.Unlock()

	return schema, nil
}

// PromptText serializes a schema description into the compact textual form
// fed to the SQL generation prompt:
//
//	Table employees(
//	  employee_id (integer),
//	  first_name (text)
//	)
func PromptText(schema *domain.SchemaDescription) string {
	if schema.IsEmpty() {
		return ""
	}

	var b strings.Builder
	for _, table := range schema.Tables {
		b.WriteString("Table ")
		b.WriteString(table.Name)
		b.WriteString("(\n")
		for i, col := range table.Columns {
			b.WriteString("  ")
			b.WriteString(col.Name)
			b.WriteString(" (")
			b.WriteString(col.Type)
			b.WriteString(")")
			if i < len(table.Columns)-1 {
				b.WriteString(",")
			}
			b.WriteString("\n")
		}
		b.WriteString(")\n")
	}
	return b.String()
}
