package verify

import (
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/stokaro/tefnut/core/platform"
	"github.com/stokaro/tefnut/dbschema/types"
)

const sqliteRebuildNote = "sqlite cannot change column constraints in place; rebuild the table with the desired nullability"

// quoteIdent quotes an identifier for the dialect. Postgres quoting comes
// from lib/pq; the pgx stdlib driver does not export one.
func quoteIdent(dialect, name string) string {
	switch dialect {
	case platform.MySQL:
		return "`" + strings.ReplaceAll(name, "`", "``") + "`"
	case platform.SQLite:
		return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
	default:
		return pq.QuoteIdentifier(name)
	}
}

func createTable(dialect string, want expectedTable) string {
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE %s (", quoteIdent(dialect, want.table))
	for i := range want.columns {
		if i > 0 {
			b.WriteString(", ")
		}
		col := &want.columns[i]
		b.WriteString(quoteIdent(dialect, col.name))
		b.WriteByte(' ')
		b.WriteString(sqlType(dialect, col.goType))
		if !col.nullable() {
			b.WriteString(" NOT NULL")
		}
	}
	b.WriteString(")")
	return b.String()
}

func addColumn(dialect, table string, col expectedColumn) string {
	suffix := ""
	if !col.nullable() {
		suffix = " NOT NULL"
	}
	return fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s%s",
		quoteIdent(dialect, table), quoteIdent(dialect, col.name), sqlType(dialect, col.goType), suffix)
}

func dropNotNull(dialect, table string, col *types.DBColumn) string {
	switch dialect {
	case platform.MySQL:
		return fmt.Sprintf("ALTER TABLE %s MODIFY %s %s NULL",
			quoteIdent(dialect, table), quoteIdent(dialect, col.Name), col.DataType)
	case platform.SQLite:
		return sqliteRebuildNote
	default:
		return fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s DROP NOT NULL",
			quoteIdent(dialect, table), quoteIdent(dialect, col.Name))
	}
}

func setNotNull(dialect, table string, col *types.DBColumn) string {
	switch dialect {
	case platform.MySQL:
		return fmt.Sprintf("ALTER TABLE %s MODIFY %s %s NOT NULL",
			quoteIdent(dialect, table), quoteIdent(dialect, col.Name), col.DataType)
	case platform.SQLite:
		return sqliteRebuildNote
	default:
		return fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s SET NOT NULL",
			quoteIdent(dialect, table), quoteIdent(dialect, col.Name))
	}
}

// sqlType guesses a reasonable column type for a Go type expression. The
// suggestions are a starting point, not a migration.
func sqlType(dialect, goType string) string {
	base := strings.TrimPrefix(goType, "*")
	switch base {
	case "int", "int8", "int16", "int32", "int64",
		"uint", "uint8", "uint16", "uint32", "uint64",
		"sql.NullInt64", "sql.NullInt32", "sql.NullInt16", "sql.NullByte":
		if dialect == platform.SQLite {
			return "INTEGER"
		}
		return "BIGINT"
	case "bool", "sql.NullBool":
		if dialect == platform.SQLite {
			return "INTEGER"
		}
		return "BOOLEAN"
	case "float32", "float64", "sql.NullFloat64":
		switch dialect {
		case platform.MySQL:
			return "DOUBLE"
		case platform.SQLite:
			return "REAL"
		default:
			return "DOUBLE PRECISION"
		}
	case "time.Time", "sql.NullTime":
		if dialect == platform.MySQL {
			return "DATETIME"
		}
		return "TIMESTAMP"
	case "uuid.UUID", "uuid.NullUUID":
		switch dialect {
		case platform.Postgres:
			return "UUID"
		case platform.MySQL:
			return "CHAR(36)"
		default:
			return "TEXT"
		}
	case "[]byte", "[]uint8", "json.RawMessage", "sql.RawBytes":
		switch dialect {
		case platform.Postgres:
			return "BYTEA"
		default:
			return "BLOB"
		}
	case "string", "sql.NullString":
		if dialect == platform.MySQL {
			return "VARCHAR(255)"
		}
		return "TEXT"
	default:
		if dialect == platform.MySQL {
			return "VARCHAR(255)"
		}
		return "TEXT"
	}
}
