// Package sqlite implements the SQLite backend: an FTS5 virtual table loaded
// through database/sql. The driver is modernc.org/sqlite by default and
// mattn/go-sqlite3 under the cgo_sqlite build tag.
package sqlite

import (
	"context"
	"database/sql"
	"strings"

	"csv2fts/internal/ddl"
	"csv2fts/internal/storage/sqldb"
)

// Config holds SQLite repository configuration derived from storage.Config.
type Config struct {
	// DSN is a SQLite connection string or file path, e.g.:
	//   "file:contacts.db?_pragma=busy_timeout(5000)"
	//   "contacts.db" (interpreted by the driver)
	DSN string

	// Table is the FTS5 table name. "main.contacts" style names are accepted.
	Table string
}

// Driver reports which SQLite implementation this binary was built with.
func Driver() (name, kind string) { return driverName, driverType }

// QuoteIdent double-quotes an identifier, doubling embedded quotes.
func QuoteIdent(id string) string {
	return `"` + strings.ReplaceAll(id, `"`, `""`) + `"`
}

// Dialect returns the sqldb dialect for SQLite.
//
// The pool is capped at one connection: SQLite allows a single writer, and an
// in-memory DSN would otherwise give every connection its own database.
func Dialect() sqldb.Dialect {
	return sqldb.Dialect{
		Name:         "sqlite",
		Driver:       driverName,
		Quote:        QuoteIdent,
		Placeholder:  ddl.QuestionMark,
		MaxOpenConns: 1,
		Init: func(ctx context.Context, db *sql.DB) error {
			// Ignore errors from drivers that reject a pragma.
			_, _ = db.ExecContext(ctx, "PRAGMA busy_timeout = 5000;")
			return nil
		},
	}
}

// NewRepository opens the database at cfg.DSN, creating the file if needed.
func NewRepository(ctx context.Context, cfg Config) (*sqldb.Repository, error) {
	return sqldb.Open(ctx, Dialect(), cfg.DSN, cfg.Table)
}

// MatchCount returns how many rows of table match an FTS5 query.
func MatchCount(ctx context.Context, db *sql.DB, table, query string) (int64, error) {
	q := ddl.QuoteFQN(table, QuoteIdent)
	var n int64
	err := db.QueryRowContext(ctx,
		"SELECT count(*) FROM "+q+" WHERE "+q+" MATCH ?", query).Scan(&n)
	return n, err
}
