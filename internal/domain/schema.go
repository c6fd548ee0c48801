package domain

import "fmt"

// ColumnInfo describes one column of an introspected table.
type ColumnInfo struct {
	Name         string `json:"name"`
	Type         string `json:"type"`
	Nullable     bool   `json:"nullable"`
	IsPrimaryKey bool   `json:"is_primary_key"`
}

// ForeignKey describes a single-column foreign key relationship.
type ForeignKey struct {
	Column    string `json:"column"`
	RefTable  string `json:"ref_table"`
	RefColumn string `json:"ref_column"`
}

// TableInfo describes one table of the discovered schema.
type TableInfo struct {
	Name        string       `json:"name"`
	Columns     []ColumnInfo `json:"columns"`
	ForeignKeys []ForeignKey `json:"foreign_keys,omitempty"`
}

// Column returns the column with the given name, or nil.
func (t *TableInfo) Column(name string) *ColumnInfo {
	for i := range t.Columns {
		if t.Columns[i].Name == name {
			return &t.Columns[i]
		}
	}
	return nil
}

// SchemaDescription is the structured description of a discovered database
// schema. It is rebuilt on demand and treated as immutable for the lifetime
// of a single query.
type SchemaDescription struct {
	Tables []TableInfo `json:"tables"`
}

// Table returns the table with the given name, or nil.
func (s *SchemaDescription) Table(name string) *TableInfo {
	for i := range s.Tables {
		if s.Tables[i].Name == name {
			return &s.Tables[i]
		}
	}
	return nil
}

// IsEmpty reports whether the description contains no tables.
func (s *SchemaDescription) IsEmpty() bool {
	return s == nil || len(s.Tables) == 0
}

// ValidateSchemaDescription checks the structural invariants of a discovered
// schema: table names unique across the description, column names unique
// within their table.
func ValidateSchemaDescription(s *SchemaDescription) error {
	if s == nil {
		return fmt.Errorf("schema description cannot be nil")
	}

	seenTables := make(map[string]struct{}, len(s.Tables))
	for _, table := range s.Tables {
		if table.Name == "" {
			return fmt.Errorf("table name cannot be empty")
		}
		if _, ok := seenTables[table.Name]; ok {
			return fmt.Errorf("duplicate table name %q", table.Name)
		}
		seenTables[table.Name] = struct{}{}

		seenColumns := make(map[string]struct{}, len(table.Columns))
		for _, col := range table.Columns {
			if col.Name == "" {
				return fmt.Errorf("table %q has a column with an empty name", table.Name)
			}
			if _, ok := seenColumns[col.Name]; ok {
				return fmt.Errorf("table %q has duplicate column %q", table.Name, col.Name)
			}
			seenColumns[col.Name] = struct{}{}
		}
	}

	return nil
}
