// Package dbschema connects to live databases and reads their table
// structure. Supported URL schemes are postgres:// (pgx driver), mysql://
// (go-sql-driver) and sqlite:// (modernc driver).
package dbschema

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"

	"github.com/go-sql-driver/mysql"

	"github.com/stokaro/tefnut/core/platform"
	mysqldb "github.com/stokaro/tefnut/dbschema/mysql"
	"github.com/stokaro/tefnut/dbschema/postgres"
	"github.com/stokaro/tefnut/dbschema/sqlite"
	"github.com/stokaro/tefnut/dbschema/types"

	_ "github.com/jackc/pgx/v5/stdlib" // postgres driver
	_ "modernc.org/sqlite"             // sqlite driver
)

// DatabaseConnection is an open database handle together with its dialect
// information and a schema reader for it.
type DatabaseConnection struct {
	db     *sql.DB
	info   types.DBInfo
	reader types.SchemaReader
}

// ConnectToDatabase opens a connection for the given URL and verifies it with
// a ping.
func ConnectToDatabase(dbURL string) (*DatabaseConnection, error) {
	return ConnectToDatabaseSchema(dbURL, "")
}

// ConnectToDatabaseSchema is ConnectToDatabase with an explicit schema for
// dialects that scope tables by one, overriding the default (public for
// postgres, the connected database for mysql).
func ConnectToDatabaseSchema(dbURL, schema string) (*DatabaseConnection, error) {
	dialect, driver, dsn, err := resolveDSN(dbURL)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dialect == platform.SQLite && strings.Contains(dsn, ":memory:") {
		// Every pooled connection would otherwise see its own empty
		// in-memory database.
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to %s database: %w", dialect, err)
	}

	conn := &DatabaseConnection{
		db: db,
		info: types.DBInfo{
			Dialect: dialect,
			Schema:  schema,
			URL:     dbURL,
		},
	}

	switch dialect {
	case platform.Postgres:
		if conn.info.Schema == "" {
			conn.info.Schema = "public"
		}
		conn.reader = postgres.NewPostgreSQLReader(db, conn.info.Schema)
	case platform.MySQL:
		conn.reader = mysqldb.NewMySQLReader(db, conn.info.Schema)
	case platform.SQLite:
		conn.info.Schema = "main"
		conn.reader = sqlite.NewSQLiteReader(db)
	}

	if version, err := readVersion(db, dialect); err == nil {
		conn.info.Version = version
	}
	return conn, nil
}

// resolveDSN maps a database URL to a registered driver and its DSN form.
func resolveDSN(dbURL string) (dialect, driver, dsn string, err error) {
	// sqlite URLs carry a bare path, which net/url mangles.
	if path, ok := strings.CutPrefix(dbURL, "sqlite://"); ok {
		if path == "" {
			path = ":memory:"
		}
		return platform.SQLite, "sqlite", path, nil
	}

	u, err := url.Parse(dbURL)
	if err != nil {
		return "", "", "", fmt.Errorf("failed to parse database URL: %w", err)
	}

	switch platform.NormalizeDialect(u.Scheme) {
	case platform.Postgres:
		return platform.Postgres, "pgx", removePostgresPoolParams(dbURL), nil
	case platform.MySQL:
		dsn, err := mysqlDSN(u)
		if err != nil {
			return "", "", "", err
		}
		return platform.MySQL, "mysql", dsn, nil
	case platform.SQLite:
		path := strings.TrimPrefix(dbURL, u.Scheme+"://")
		if path == "" {
			path = ":memory:"
		}
		return platform.SQLite, "sqlite", path, nil
	default:
		return "", "", "", fmt.Errorf("unsupported database URL scheme %q", u.Scheme)
	}
}

// removePostgresPoolParams strips pgxpool tuning parameters from a database
// URL. The stdlib driver rejects URLs that carry them.
func removePostgresPoolParams(dbURL string) string {
	u, err := url.Parse(dbURL)
	if err != nil {
		return dbURL
	}

	query := u.Query()
	query.Del("pool_max_conns")
	query.Del("pool_min_conns")
	u.RawQuery = query.Encode()
	return u.String()
}

// mysqlDSN converts a mysql:// URL to the DSN form the go-sql-driver
// expects. ParseTime is forced on so DATETIME columns scan as time.Time.
func mysqlDSN(u *url.URL) (string, error) {
	cfg := mysql.NewConfig()
	cfg.Net = "tcp"
	cfg.Addr = u.Host
	cfg.DBName = strings.TrimPrefix(u.Path, "/")
	cfg.ParseTime = true
	if u.User != nil {
		cfg.User = u.User.Username()
		if password, ok := u.User.Password(); ok {
			cfg.Passwd = password
		}
	}

	query := u.Query()
	if len(query) > 0 && cfg.Params == nil {
		cfg.Params = make(map[string]string, len(query))
	}
	for key, values := range query {
		if key == "parseTime" {
			continue
		}
		cfg.Params[key] = values[0]
	}
	return cfg.FormatDSN(), nil
}

func readVersion(db *sql.DB, dialect string) (string, error) {
	query := `SELECT version()`
	if dialect == platform.SQLite {
		query = `SELECT sqlite_version()`
	}

	var version string
	if err := db.QueryRow(query).Scan(&version); err != nil {
		return "", err
	}
	return version, nil
}

// Info returns dialect and connection metadata.
func (c *DatabaseConnection) Info() types.DBInfo {
	return c.info
}

// Reader returns the schema reader for the connection's dialect.
func (c *DatabaseConnection) Reader() types.SchemaReader {
	return c.reader
}

// DB exposes the underlying handle for queries outside the reader's scope.
func (c *DatabaseConnection) DB() *sql.DB {
	return c.db
}

// QueryContext runs a query through the underlying handle.
func (c *DatabaseConnection) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return c.db.QueryContext(ctx, query, args...)
}

// QueryRow runs a single-row query through the underlying handle.
func (c *DatabaseConnection) QueryRow(query string, args ...any) *sql.Row {
	return c.db.QueryRow(query, args...)
}

// ExecContext runs a statement through the underlying handle.
func (c *DatabaseConnection) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return c.db.ExecContext(ctx, query, args...)
}

// Close closes the database handle.
func (c *DatabaseConnection) Close() error {
	return c.db.Close()
}
