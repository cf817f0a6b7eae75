// Package postgres reads table structure from PostgreSQL databases.
package postgres

import (
	"database/sql"
	"fmt"

	"github.com/stokaro/tefnut/dbschema/types"
)

// Reader reads schema information from a PostgreSQL database.
type Reader struct {
	db     *sql.DB
	schema string
}

// NewPostgreSQLReader creates a new PostgreSQL schema reader. An empty schema
// defaults to public.
func NewPostgreSQLReader(db *sql.DB, schema string) *Reader {
	if schema == "" {
		schema = "public"
	}
	return &Reader{
		db:     db,
		schema: schema,
	}
}

// ReadSchema reads all tables of the schema with their columns.
func (r *Reader) ReadSchema() (*types.DBSchema, error) {
	tables, err := r.readTables()
	if err != nil {
		return nil, fmt.Errorf("failed to read tables: %w", err)
	}
	return &types.DBSchema{Tables: tables}, nil
}

func (r *Reader) readTables() ([]types.DBTable, error) {
	tablesQuery := `
		SELECT table_name, table_type
		FROM information_schema.tables
		WHERE table_schema = $1 AND table_type = 'BASE TABLE'
		ORDER BY table_name`

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
			column_name,
			data_type,
			is_nullable,
			column_default,
			ordinal_position
		FROM information_schema.columns
		WHERE table_schema = $1 AND table_name = $2
		ORDER BY ordinal_position`

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
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan column: %w", err)
		}
		columns = append(columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}

	primary, err := r.readPrimaryKey(tableName)
	if err != nil {
		return nil, err
	}
	for i := range columns {
		columns[i].IsPrimaryKey = primary[columns[i].Name]
	}
	return columns, nil
}

func (r *Reader) readPrimaryKey(tableName string) (map[string]bool, error) {
	pkQuery := `
		SELECT kcu.column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
			ON tc.constraint_name = kcu.constraint_name
			AND tc.table_schema = kcu.table_schema
		WHERE tc.constraint_type = 'PRIMARY KEY'
			AND tc.table_schema = $1 AND tc.table_name = $2`

	rows, err := r.db.Query(pkQuery, r.schema, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to query primary key of %s: %w", tableName, err)
	}
	defer rows.Close()

	primary := make(map[string]bool)
	for rows.Next() {
		var column string
		if err := rows.Scan(&column); err != nil {
			return nil, fmt.Errorf("failed to scan primary key column: %w", err)
		}
		primary[column] = true
	}
	return primary, rows.Err()
}
