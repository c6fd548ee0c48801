package catalog

import (
	"context"
	"errors"

	"github.com/ekamlabs/ekamquery/internal/domain"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgIntrospector discovers the live schema of a Postgres database by reading
// information_schema. It only issues metadata SELECTs and holds no
// transaction open across statements.
type PgIntrospector struct {
	pool *pgxpool.Pool
}

func NewPgIntrospector(pool *pgxpool.Pool) *PgIntrospector {
	return &PgIntrospector{pool: pool}
}

const tablesQuery = `
	SELECT table_name
	FROM information_schema.tables
	WHERE table_schema = 'public' AND table_type = 'BASE TABLE'
	ORDER BY table_name`

const columnsQuery = `
	SELECT column_name, data_type, is_nullable = 'YES'
	FROM information_schema.columns
	WHERE table_schema = 'public' AND table_name = $1
	ORDER BY ordinal_position`

const primaryKeysQuery = `
	SELECT kcu.column_name
	FROM information_schema.table_constraints tc
	JOIN information_schema.key_column_usage kcu
	  ON tc.constraint_name = kcu.constraint_name
	 AND tc.table_schema = kcu.table_schema
	WHERE tc.table_schema = 'public'
	  AND tc.table_name = $1
	  AND tc.constraint_type = 'PRIMARY KEY'`

const foreignKeysQuery = `
	SELECT kcu.column_name, ccu.table_name, ccu.column_name
	FROM information_schema.table_constraints tc
	JOIN information_schema.key_column_usage kcu
	  ON tc.constraint_name = kcu.constraint_name
	 AND tc.table_schema = kcu.table_schema
	JOIN information_schema.constraint_column_usage ccu
	  ON tc.constraint_name = ccu.constraint_name
	 AND tc.table_schema = ccu.table_schema
	WHERE tc.table_schema = 'public'
	  AND tc.table_name = $1
	  AND tc.constraint_type = 'FOREIGN KEY'`

// Introspect builds a complete SchemaDescription or fails without returning
// a partial one. Unreachable database maps to CONNECTION_ERROR, any
// mid-flight metadata failure to INTROSPECTION_ERROR.
func (i *PgIntrospector) Introspect(ctx context.Context) (*domain.SchemaDescription, error) {
	if err := i.pool.Ping(ctx); err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeConnection, "database is unreachable", err)
	}

	tableNames, err := i.listTables(ctx)
	if err != nil {
		return nil, introspectionError("failed to list tables", err)
	}

	tables := make([]domain.TableInfo, 0, len(tableNames))
	for _, name := range tableNames {
		table, err := i.describeTable(ctx, name)
		if err != nil {
			return nil, introspectionError("failed to describe table "+name, err)
		}
		tables = append(tables, *table)
	}

	schema := &domain.SchemaDescription{Tables: tables}
	if err := domain.ValidateSchemaDescription(schema); err != nil {
		return nil, introspectionError("discovered schema failed validation", err)
	}

	return schema, nil
}

func (i *PgIntrospector) listTables(ctx context.Context) ([]string, error) {
	rows, err := i.pool.Query(ctx, tablesQuery)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (i *PgIntrospector) describeTable(ctx context.Context, name string) (*domain.TableInfo, error) {
	columns, err := i.listColumns(ctx, name)
	if err != nil {
		return nil, err
	}

	pks, err := i.listPrimaryKeys(ctx, name)
	if err != nil {
		return nil, err
	}
	for idx := range columns {
		if _, ok := pks[columns[idx].Name]; ok {
			columns[idx].IsPrimaryKey = true
		}
	}

	fks, err := i.listForeignKeys(ctx, name)
	if err != nil {
		return nil, err
	}

	return &domain.TableInfo{
		Name:        name,
		Columns:     columns,
		ForeignKeys: fks,
	}, nil
}

func (i *PgIntrospector) listColumns(ctx context.Context, table string) ([]domain.ColumnInfo, error) {
	rows, err := i.pool.Query(ctx, columnsQuery, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []domain.ColumnInfo
	for rows.Next() {
		var col domain.ColumnInfo
		if err := rows.Scan(&col.Name, &col.Type, &col.Nullable); err != nil {
			return nil, err
		}
		columns = append(columns, col)
	}
	return columns, rows.Err()
}

func (i *PgIntrospector) listPrimaryKeys(ctx context.Context, table string) (map[string]struct{}, error) {
	rows, err := i.pool.Query(ctx, primaryKeysQuery, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	pks := make(map[string]struct{})
	for rows.Next() {
		var col string
		if err := rows.Scan(&col); err != nil {
			return nil, err
		}
		pks[col] = struct{}{}
	}
	return pks, rows.Err()
}

func (i *PgIntrospector) listForeignKeys(ctx context.Context, table string) ([]domain.ForeignKey, error) {
	rows, err := i.pool.Query(ctx, foreignKeysQuery, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var fks []domain.ForeignKey
	for rows.Next() {
		var fk domain.ForeignKey
		if err := rows.Scan(&fk.Column, &fk.RefTable, &fk.RefColumn); err != nil {
			return nil, err
		}
		fks = append(fks, fk)
	}
	return fks, rows.Err()
}

func introspectionError(message string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "57P01" {
		// admin_shutdown: the connection died mid-introspection
		return domain.NewDomainErrorWithCause(domain.ErrCodeConnection, message, err)
	}
	return domain.NewDomainErrorWithCause(domain.ErrCodeIntrospection, message, err)
}
