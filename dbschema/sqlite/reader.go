// Package sqlite reads table structure from SQLite databases.
package sqlite

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/stokaro/tefnut/dbschema/types"
)

// Reader reads schema information from a SQLite database.
type Reader struct {
	db *sql.DB
}

// NewSQLiteReader creates a new SQLite schema reader.
func NewSQLiteReader(db *sql.DB) *Reader {
	return &Reader{db: db}
}

// ReadSchema reads all tables with their columns.
func (r *Reader) ReadSchema() (*types.DBSchema, error) {
	tables, err := r.readTables()
	if err != nil {
		return nil, fmt.Errorf("failed to read tables: %w", err)
	}
	return &types.DBSchema{Tables: tables}, nil
}

func (r *Reader) readTables() ([]types.DBTable, error) {
	tablesQuery := `
		SELECT name FROM sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
		ORDER BY name`

	rows, err := r.db.Query(tablesQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to query tables: %w", err)
	}
	defer rows.Close()

	var tables []types.DBTable
	for rows.Next() {
		table := types.DBTable{Type: "BASE TABLE"}
		if err := rows.Scan(&table.Name); err != nil {
			return nil, fmt.Errorf("failed to scan table: %w", err)
		}
		tables = append(tables, table)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read tables: %w", err)
	}

	for i := range tables {
		columns, err := r.readColumns(tables[i].Name)
		if err != nil {
			return nil, fmt.Errorf("failed to read columns for table %s: %w", tables[i].Name, err)
		}
		tables[i].Columns = columns
	}
	return tables, nil
}

func (r *Reader) readColumns(tableName string) ([]types.DBColumn, error) {
	rows, err := r.db.Query(`PRAGMA table_info(` + quoteIdent(tableName) + `)`)
	if err != nil {
		return nil, fmt.Errorf("failed to query columns: %w", err)
	}
	defer rows.Close()

	var columns []types.DBColumn
	for rows.Next() {
		var (
			cid     int
			notNull int
			pk      int
			col     types.DBColumn
		)
		err := rows.Scan(&cid, &col.Name, &col.DataType, &notNull, &col.ColumnDefault, &pk)
		if err != nil {
			return nil, fmt.Errorf("failed to scan column: %w", err)
		}
		col.OrdinalPosition = cid + 1
		col.IsNullable = "YES"
		if notNull != 0 {
			col.IsNullable = "NO"
		}
		col.IsPrimaryKey = pk > 0
		columns = append(columns, col)
	}
	return columns, rows.Err()
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
