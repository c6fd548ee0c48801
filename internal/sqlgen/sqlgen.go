// Package sqlgen implements the text-to-SQL path: prompt rendering,
// one-shot generation, structural validation, and bounded execution.
package sqlgen

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ekamlabs/ekamquery/internal/catalog"
	"github.com/ekamlabs/ekamquery/internal/domain"
)

// FailedQueryMarker is reported as the generated query when generation
// itself never produced a statement.
const FailedQueryMarker = "Failed"

// Generator produces one completion for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// SchemaSource provides the discovered schema for prompt rendering.
type SchemaSource interface {
	Discover(ctx context.Context) (*domain.SchemaDescription, error)
}

// PathError is a failure anywhere on the SQL path. It keeps the generated
// statement (or FailedQueryMarker) so callers can surface it alongside the
// error.
type PathError struct {
	GeneratedQuery string
	Err            error
}

func (e *PathError) Error() string {
	return fmt.Sprintf("sql path failed (query %q): %v", e.GeneratedQuery, e.Err)
}

func (e *PathError) Unwrap() error {
	return e.Err
}

// Flatten encodes a SQL-path error into the sentinel result shape used on
// the wire: a single "Error" column with one message cell.
func Flatten(err error) *domain.SQLResult {
	generated := FailedQueryMarker
	message := err.Error()

	var pathErr *PathError
	if errors.As(err, &pathErr) {
		generated = pathErr.GeneratedQuery
		message = pathErr.Err.Error()
	}
	var domainErr *domain.DomainError
	if errors.As(err, &domainErr) {
		message = domainErr.Message
	}

	return domain.NewSQLErrorResult(generated, message)
}

// Service generates and runs SQL for natural-language queries.
type Service struct {
	generator Generator
	schema    SchemaSource
	executor  Executor
}

func NewService(generator Generator, schema SchemaSource, executor Executor) *Service {
	return &Service{generator: generator, schema: schema, executor: executor}
}

// Run produces, validates, and executes one statement for the query.
// All failures come back as *PathError; nothing on this path panics or
// hangs past the executor's timeout.
func (s *Service) Run(ctx context.Context, query string) (*domain.SQLResult, error) {
	schema, err := s.schema.Discover(ctx)
	if err != nil {
		return nil, &PathError{GeneratedQuery: FailedQueryMarker, Err: err}
	}

	stmt, err := s.generator.Generate(ctx, renderPrompt(schema, query))
	if err != nil {
		return nil, &PathError{
			GeneratedQuery: FailedQueryMarker,
			Err:            domain.NewDomainErrorWithCause(domain.ErrCodeInferenceFailure, "SQL generation failed", err),
		}
	}
	stmt = strings.TrimSpace(stmt)

	if err := ValidateStatement(stmt); err != nil {
		return nil, &PathError{GeneratedQuery: stmt, Err: err}
	}

	columns, rows, err := s.executor.Execute(ctx, stmt)
	if err != nil {
		return nil, &PathError{
			GeneratedQuery: stmt,
			Err:            domain.NewDomainErrorWithCause(domain.ErrCodeSQLExecution, err.Error(), err),
		}
	}

	return &domain.SQLResult{
		Columns:        columns,
		Rows:           rows,
		GeneratedQuery: stmt,
	}, nil
}

// renderPrompt combines the serialized schema with the question.
func renderPrompt(schema *domain.SchemaDescription, query string) string {
	var b strings.Builder
	b.WriteString("Tables:\n")
	b.WriteString(catalog.PromptText(schema))
	b.WriteString("\nQuery: ")
	b.WriteString(query)
	return b.String()
}
