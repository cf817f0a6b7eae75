// Package types defines the schema shapes read from live databases.
package types

// DBSchema represents the table structure read from a database.
type DBSchema struct {
	Tables []DBTable `json:"tables"`
}

// Table returns the table with the given name, or nil.
func (s *DBSchema) Table(name string) *DBTable {
	for i := range s.Tables {
		if s.Tables[i].Name == name {
			return &s.Tables[i]
		}
	}
	return nil
}

// TableNames returns the table names in read order.
func (s *DBSchema) TableNames() []string {
	names := make([]string, len(s.Tables))
	for i, t := range s.Tables {
		names[i] = t.Name
	}
	return names
}

// DBTable represents a database table.
type DBTable struct {
	Name    string     `json:"name"`
	Type    string     `json:"type"` // BASE TABLE, VIEW, etc.
	Columns []DBColumn `json:"columns"`
}

// Column returns the column with the given name, or nil.
func (t *DBTable) Column(name string) *DBColumn {
	for i := range t.Columns {
		if t.Columns[i].Name == name {
			return &t.Columns[i]
		}
	}
	return nil
}

// DBColumn represents a database column.
type DBColumn struct {
	Name            string  `json:"name"`
	DataType        string  `json:"data_type"`
	IsNullable      string  `json:"is_nullable"` // YES/NO
	ColumnDefault   *string `json:"column_default"`
	OrdinalPosition int     `json:"ordinal_position"`
	IsPrimaryKey    bool    `json:"is_primary_key"`
}

// Nullable reports whether the column accepts NULL.
func (c *DBColumn) Nullable() bool {
	return c.IsNullable == "YES"
}

// DBInfo contains connection and metadata information.
type DBInfo struct {
	Dialect string `json:"dialect"` // postgres, mysql, sqlite
	Version string `json:"version"`
	Schema  string `json:"schema"` // public, database name, main
	URL     string `json:"url"`
}

// SchemaReader reads table structure from a database.
type SchemaReader interface {
	ReadSchema() (*DBSchema, error)
}
