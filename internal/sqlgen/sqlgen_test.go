package sqlgen

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ekamlabs/ekamquery/internal/domain"
)

// MockGenerator is a mock for Generator
type MockGenerator struct {
	mock.Mock
}

func (m *MockGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

// MockSchemaSource is a mock for SchemaSource
type MockSchemaSource struct {
	mock.Mock
}

func (m *MockSchemaSource) Discover(ctx context.Context) (*domain.SchemaDescription, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SchemaDescription), args.Error(1)
}

// MockExecutor is a mock for Executor
type MockExecutor struct {
	mock.Mock
}

func (m *MockExecutor) Execute(ctx context.Context, stmt string) ([]string, [][]any, error) {
	args := m.Called(ctx, stmt)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).([]string), args.Get(1).([][]any), args.Error(2)
}

func employeeSchema() *domain.SchemaDescription {
	return &domain.SchemaDescription{
		Tables: []domain.TableInfo{
			{
				Name: "employees",
				Columns: []domain.ColumnInfo{
					{Name: "employee_id", Type: "integer"},
					{Name: "first_name", Type: "text"},
					{Name: "hire_date", Type: "date"},
				},
			},
		},
	}
}

func TestValidateStatement(t *testing.T) {
	tests := []struct {
		name        string
		stmt        string
		expectedErr error
	}{
		{"plain select", "SELECT * FROM employees", nil},
		{"select with where", "SELECT first_name FROM employees WHERE hire_date > '2023-01-01'", nil},
		{"cte", "WITH recent AS (SELECT * FROM employees) SELECT * FROM recent", nil},
		{"trailing semicolon", "SELECT 1;", nil},
		{"empty", "   ", domain.ErrSQLEmptyStatement},
		{"only semicolon", ";", domain.ErrSQLEmptyStatement},
		{"two statements", "SELECT 1; SELECT 2", domain.ErrSQLMultipleStmts},
		{"insert", "INSERT INTO employees VALUES (1)", domain.ErrSQLNotReadOnly},
		{"update", "UPDATE employees SET first_name = 'x'", domain.ErrSQLNotReadOnly},
		{"delete", "DELETE FROM employees", domain.ErrSQLNotReadOnly},
		{"drop", "DROP TABLE employees", domain.ErrSQLNotReadOnly},
		{"select into", "SELECT * INTO copy_table FROM employees", domain.ErrSQLNotReadOnly},
		{"modifying cte", "WITH x AS (DELETE FROM employees RETURNING *) SELECT * FROM x", domain.ErrSQLNotReadOnly},
		{"not a query", "EXPLAIN ANALYZE SELECT 1", domain.ErrSQLNotReadOnly},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStatement(tt.stmt)
			if tt.expectedErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.expectedErr)
			}
		})
	}
}

func TestRun_Success(t *testing.T) {
	generator := new(MockGenerator)
	schema := new(MockSchemaSource)
	executor := new(MockExecutor)
	svc := NewService(generator, schema, executor)
	ctx := context.Background()

	schema.On("Discover", ctx).Return(employeeSchema(), nil)
	generator.On("Generate", ctx, mock.MatchedBy(func(prompt string) bool {
		// Prompt carries the serialized schema and the question.
		return strings.Contains(prompt, "Table employees(") &&
			strings.Contains(prompt, "Query: list all employees hired after 2023")
	})).Return("SELECT employee_id, first_name FROM employees WHERE hire_date > '2023-01-01'", nil)
	executor.On("Execute", ctx, "SELECT employee_id, first_name FROM employees WHERE hire_date > '2023-01-01'").
		Return([]string{"employee_id", "first_name"}, [][]any{{1, "Ada"}, {2, nil}}, nil)

	result, err := svc.Run(ctx, "list all employees hired after 2023")

	require.NoError(t, err)
	assert.False(t, result.IsError())
	assert.Equal(t, []string{"employee_id", "first_name"}, result.Columns)
	require.Len(t, result.Rows, 2)
	assert.Nil(t, result.Rows[1][1], "SQL NULL must survive as nil")
	assert.Equal(t, "SELECT employee_id, first_name FROM employees WHERE hire_date > '2023-01-01'", result.GeneratedQuery)
}

func TestRun_ZeroRowsIsSuccess(t *testing.T) {
	generator := new(MockGenerator)
	schema := new(MockSchemaSource)
	executor := new(MockExecutor)
	svc := NewService(generator, schema, executor)
	ctx := context.Background()

	schema.On("Discover", ctx).Return(employeeSchema(), nil)
	generator.On("Generate", ctx, mock.Anything).Return("SELECT * FROM employees WHERE 1=0", nil)
	executor.On("Execute", ctx, mock.Anything).Return([]string{"employee_id"}, [][]any{}, nil)

	result, err := svc.Run(ctx, "employees named zaphod")

	require.NoError(t, err)
	assert.False(t, result.IsError())
	assert.Empty(t, result.Rows)
}

func TestRun_SchemaDiscoveryFailure(t *testing.T) {
	generator := new(MockGenerator)
	schema := new(MockSchemaSource)
	svc := NewService(generator, schema, new(MockExecutor))
	ctx := context.Background()

	schema.On("Discover", ctx).Return(nil, domain.ErrDatabaseUnreachable)

	_, err := svc.Run(ctx, "how many employees")

	require.Error(t, err)
	var pathErr *PathError
	require.ErrorAs(t, err, &pathErr)
	assert.Equal(t, FailedQueryMarker, pathErr.GeneratedQuery)
	assert.ErrorIs(t, err, domain.ErrDatabaseUnreachable)
	generator.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
}

func TestRun_GenerationFailure(t *testing.T) {
	generator := new(MockGenerator)
	schema := new(MockSchemaSource)
	svc := NewService(generator, schema, new(MockExecutor))
	ctx := context.Background()

	schema.On("Discover", ctx).Return(employeeSchema(), nil)
	generator.On("Generate", ctx, mock.Anything).Return("", errors.New("model unavailable"))

	_, err := svc.Run(ctx, "how many employees")

	var pathErr *PathError
	require.ErrorAs(t, err, &pathErr)
	assert.Equal(t, FailedQueryMarker, pathErr.GeneratedQuery)
}

func TestRun_ValidationRejectsBeforeExecution(t *testing.T) {
	generator := new(MockGenerator)
	schema := new(MockSchemaSource)
	executor := new(MockExecutor)
	svc := NewService(generator, schema, executor)
	ctx := context.Background()

	schema.On("Discover", ctx).Return(employeeSchema(), nil)
	generator.On("Generate", ctx, mock.Anything).Return("DROP TABLE employees", nil)

	_, err := svc.Run(ctx, "remove everything")

	var pathErr *PathError
	require.ErrorAs(t, err, &pathErr)
	assert.Equal(t, "DROP TABLE employees", pathErr.GeneratedQuery)
	assert.ErrorIs(t, err, domain.ErrSQLNotReadOnly)
	executor.AssertNotCalled(t, "Execute", mock.Anything, mock.Anything)
}

func TestRun_ExecutionFailureKeepsStatement(t *testing.T) {
	generator := new(MockGenerator)
	schema := new(MockSchemaSource)
	executor := new(MockExecutor)
	svc := NewService(generator, schema, executor)
	ctx := context.Background()

	schema.On("Discover", ctx).Return(employeeSchema(), nil)
	generator.On("Generate", ctx, mock.Anything).Return("SELECT no_such_column FROM employees", nil)
	executor.On("Execute", ctx, mock.Anything).
		Return(nil, nil, errors.New(`column "no_such_column" does not exist`))

	_, err := svc.Run(ctx, "employees by missing column")

	var pathErr *PathError
	require.ErrorAs(t, err, &pathErr)
	assert.Equal(t, "SELECT no_such_column FROM employees", pathErr.GeneratedQuery)
	var domainErr *domain.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domain.ErrCodeSQLExecution, domainErr.Code)
}

func TestFlatten_SentinelShape(t *testing.T) {
	err := &PathError{
		GeneratedQuery: "SELECT nope FROM employees",
		Err:            domain.NewDomainError(domain.ErrCodeSQLExecution, `column "nope" does not exist`),
	}

	result := Flatten(err)

	assert.True(t, result.IsError())
	assert.Equal(t, []string{domain.SQLErrorColumn}, result.Columns)
	require.Len(t, result.Rows, 1)
	require.Len(t, result.Rows[0], 1)
	assert.Equal(t, `column "nope" does not exist`, result.Rows[0][0])
	assert.Equal(t, "SELECT nope FROM employees", result.GeneratedQuery)
}

func TestFlatten_NonPathError(t *testing.T) {
	result := Flatten(errors.New("something unexpected"))

	assert.True(t, result.IsError())
	assert.Equal(t, FailedQueryMarker, result.GeneratedQuery)
}
