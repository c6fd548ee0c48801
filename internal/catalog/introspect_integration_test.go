//go:build integration

package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/ekamlabs/ekamquery/internal/domain"
	"github.com/ekamlabs/ekamquery/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixtureSchema = `
	CREATE TABLE departments (
		id   SERIAL PRIMARY KEY,
		name TEXT NOT NULL
	);
	CREATE TABLE employees (
		id            SERIAL PRIMARY KEY,
		name          TEXT NOT NULL,
		salary        NUMERIC,
		department_id INTEGER REFERENCES departments(id)
	);
`

func findTable(schema *domain.SchemaDescription, name string) *domain.TableInfo {
	for i := range schema.Tables {
		if schema.Tables[i].Name == name {
			return &schema.Tables[i]
		}
	}
	return nil
}

func findColumn(table *domain.TableInfo, name string) *domain.ColumnInfo {
	for i := range table.Columns {
		if table.Columns[i].Name == name {
			return &table.Columns[i]
		}
	}
	return nil
}

func TestPgIntrospector_Introspect(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	_, err := pool.Exec(ctx, fixtureSchema)
	require.NoError(t, err)

	schema, err := NewPgIntrospector(pool).Introspect(ctx)
	require.NoError(t, err)

	employees := findTable(schema, "employees")
	require.NotNil(t, employees, "employees table should be discovered")

	id := findColumn(employees, "id")
	require.NotNil(t, id)
	assert.True(t, id.IsPrimaryKey)
	assert.False(t, id.Nullable)

	salary := findColumn(employees, "salary")
	require.NotNil(t, salary)
	assert.True(t, salary.Nullable)
	assert.Equal(t, "numeric", salary.Type)

	require.Len(t, employees.ForeignKeys, 1)
	assert.Equal(t, "department_id", employees.ForeignKeys[0].Column)
	assert.Equal(t, "departments", employees.ForeignKeys[0].RefTable)
	assert.Equal(t, "id", employees.ForeignKeys[0].RefColumn)
}

func TestCatalogService_DiscoverCachesAndRefreshes(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	_, err := pool.Exec(ctx, fixtureSchema)
	require.NoError(t, err)

	svc := NewService(NewPgIntrospector(pool))

	first, err := svc.Discover(ctx)
	require.NoError(t, err)
	require.NotNil(t, findTable(first, "employees"))

	// A table added after discovery stays invisible until an explicit
	// refresh.
	_, err = pool.Exec(ctx, `CREATE TABLE projects (id SERIAL PRIMARY KEY, title TEXT)`)
	require.NoError(t, err)

	cached, err := svc.Discover(ctx)
	require.NoError(t, err)
	assert.Nil(t, findTable(cached, "projects"))

	refreshed, err := svc.Refresh(ctx)
	require.NoError(t, err)
	assert.NotNil(t, findTable(refreshed, "projects"))
}

func TestPgIntrospector_UnreachableDatabase(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	require.NoError(t, pc.Terminate(ctx))
	time.Sleep(time.Second)

	_, err := NewPgIntrospector(pool).Introspect(ctx)
	require.Error(t, err)

	var domainErr *domain.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domain.ErrCodeConnection, domainErr.Code)
}
