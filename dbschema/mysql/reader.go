// Package mysql reads table structure from MySQL and MariaDB databases.
package mysql

import (
	"database/sql"
	"fmt"

	"github.com/stokaro/tefnut/dbschema/types"
)

// Reader reads schema information from a MySQL database.
type Reader struct {
	db     *sql.DB
	schema string
}

// NewMySQLReader creates a new MySQL schema reader. An empty schema defaults
// to the connection's current database.
func NewMySQLReader(db *sql.DB, schema string) *Reader {
	return &Reader{
		db:     db,
		schema: schema,
	}
}

// ReadSchema reads all tables of the schema with their columns.
func (r *Reader) ReadSchema() (*types.DBSchema, error) {
	if r.schema == "" {
		if err := r.db.QueryRow(`SELECT DATABASE()`).Scan(&r.schema); err != nil {
			return nil, fmt.Errorf("failed to resolve current database: %w", err)
		}
	}

	tables, err := r.readTables()
	if err != nil {
		return nil, fmt.Errorf("failed to read tables: %w", err)
	}
	return &types.DBSchema{Tables: tables}, nil
}

func (r *Reader) readTables() ([]types.DBTable, error) {
	tablesQuery := `
		SELECT TABLE_NAME, TABLE_TYPE
		FROM information_schema.TABLES
		WHERE TABLE_SCHEMA = ? AND TABLE_TYPE = 'BASE TABLE'
		ORDER BY TABLE_NAME`

	rows, err := r.db.Query(tablesQuery, r.schema)
	if err != nil {
		return nil, fmt.Errorf("failed to query tables: %w", err)
	}
	defer rows.Close()

	var tables []types.DBTable
	for rows.Next() {
		var table types.DBTable
		if err := rows.Scan(&table.Name, &table.Type); err != nil {
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
	columnsQuery := `
		SELECT
			COLUMN_NAME,
			DATA_TYPE,
			IS_NULLABLE,
			COLUMN_DEFAULT,
			ORDINAL_POSITION,
			COLUMN_KEY = 'PRI'
		FROM information_schema.COLUMNS
		WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ?
		ORDER BY ORDINAL_POSITION`

	rows, err := r.db.Query(columnsQuery, r.schema, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to query columns: %w", err)
	}
	defer rows.Close()

	var columns []types.DBColumn
	for rows.Next() {
		var col types.DBColumn
		err := rows.Scan(
			&col.Name,
			&col.DataType,
			&col.IsNullable,
			&col.ColumnDefault,
			&col.OrdinalPosition,
			&col.IsPrimaryKey,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan column: %w", err)
		}
		columns = append(columns, col)
	}
	return columns, rows.Err()
}
