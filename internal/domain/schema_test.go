package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func employeesTable() TableInfo {
	return TableInfo{
		Name: "employees",
		Columns: []ColumnInfo{
			{Name: "employee_id", Type: "integer", IsPrimaryKey: true},
			{Name: "first_name", Type: "text"},
			{Name: "hire_date", Type: "date", Nullable: true},
			{Name: "department_id", Type: "integer", Nullable: true},
		},
		ForeignKeys: []ForeignKey{
			{Column: "department_id", RefTable: "departments", RefColumn: "department_id"},
		},
	}
}

func TestValidateSchemaDescription(t *testing.T) {
	tests := []struct {
		name    string
		schema  *SchemaDescription
		wantErr bool
		errMsg  string
	}{
		{
			name:    "valid schema",
			schema:  &SchemaDescription{Tables: []TableInfo{employeesTable()}},
			wantErr: false,
		},
		{
			name:    "empty schema is valid",
			schema:  &SchemaDescription{},
			wantErr: false,
		},
		{
			name:    "nil schema",
			schema:  nil,
			wantErr: true,
			errMsg:  "nil",
		},
		{
			name: "duplicate table names",
			schema: &SchemaDescription{
				Tables: []TableInfo{employeesTable(), employeesTable()},
			},
			wantErr: true,
			errMsg:  "duplicate table",
		},
		{
			name: "duplicate column names",
			schema: &SchemaDescription{
				Tables: []TableInfo{
					{
						Name: "orders",
						Columns: []ColumnInfo{
							{Name: "id", Type: "integer"},
							{Name: "id", Type: "bigint"},
						},
					},
				},
			},
			wantErr: true,
			errMsg:  "duplicate column",
		},
		{
			name: "empty table name",
			schema: &SchemaDescription{
				Tables: []TableInfo{{Name: ""}},
			},
			wantErr: true,
			errMsg:  "table name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSchemaDescription(tt.schema)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestSchemaDescriptionLookups(t *testing.T) {
	schema := &SchemaDescription{Tables: []TableInfo{employeesTable()}}

	table := schema.Table("employees")
	require.NotNil(t, table)
	assert.Equal(t, "employees", table.Name)
	assert.Nil(t, schema.Table("departments"))

	col := table.Column("hire_date")
	require.NotNil(t, col)
	assert.True(t, col.Nullable)
	assert.Nil(t, table.Column("salary"))
}

func TestSchemaDescriptionIsEmpty(t *testing.T) {
	var nilSchema *SchemaDescription
	assert.True(t, nilSchema.IsEmpty())
	assert.True(t, (&SchemaDescription{}).IsEmpty())
	assert.False(t, (&SchemaDescription{Tables: []TableInfo{employeesTable()}}).IsEmpty())
}

func TestChunkID(t *testing.T) {
	assert.Equal(t, "report.pdf_0", ChunkID("report.pdf", 0))
	assert.Equal(t, "notes.txt_12", ChunkID("notes.txt", 12))
}

func TestValidateDocumentChunk(t *testing.T) {
	valid := &DocumentChunk{
		ID:         ChunkID("report.pdf", 3),
		SourceFile: "report.pdf",
		ChunkIndex: 3,
		Text:       "quarterly revenue grew",
		Span:       CharSpan{Start: 3000, End: 4000},
	}
	require.NoError(t, ValidateDocumentChunk(valid))

	tests := []struct {
		name   string
		mutate func(*DocumentChunk)
		errMsg string
	}{
		{"missing source file", func(c *DocumentChunk) { c.SourceFile = "" }, "SourceFile"},
		{"negative index", func(c *DocumentChunk) { c.ChunkIndex = -1 }, "non-negative"},
		{"empty text", func(c *DocumentChunk) { c.Text = "" }, "text"},
		{"mismatched ID", func(c *DocumentChunk) { c.ID = "other_9" }, "does not match"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunk := *valid
			tt.mutate(&chunk)
			err := ValidateDocumentChunk(&chunk)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}

	assert.Error(t, ValidateDocumentChunk(nil))
}
