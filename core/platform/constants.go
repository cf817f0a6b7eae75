// Package platform names the database dialects tefnut can connect to and
// verify against.
package platform

import (
	"strings"
)

const (
	Postgres = "postgres"
	MySQL    = "mysql"
	SQLite   = "sqlite"
)

// NormalizeDialect maps driver and URL-scheme spellings onto the canonical
// dialect names. Unknown dialects normalize to the empty string. MariaDB
// speaks the MySQL protocol and shares its information_schema layout, so it
// folds into MySQL.
func NormalizeDialect(dialect string) string {
	switch strings.ToLower(dialect) {
	case "pgx", "postgresql", "postgres":
		return Postgres
	case "mysql", "mariadb":
		return MySQL
	case "sqlite", "sqlite3":
		return SQLite
	default:
		return ""
	}
}
