// Package mssql implements the Microsoft SQL Server backend on go-mssqldb.
// The table gets an identity key so a full-text index can be built over the
// loaded columns.
package mssql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	mssql "github.com/microsoft/go-mssqldb"
	"github.com/microsoft/go-mssqldb/msdsn"

	"csv2fts/internal/ddl"
	"csv2fts/internal/storage/sqldb"
)

// Config holds MSSQL repository configuration.
type Config struct {
	DSN   string
	Table string // e.g. "dbo.contacts"
}

// Dialect returns the sqldb dialect for SQL Server.
func Dialect() sqldb.Dialect {
	return sqldb.Dialect{
		Name:        "mssql",
		Driver:      "sqlserver",
		Quote:       msIdent,
		Placeholder: ddl.AtP,
	}
}

// NewRepository validates the DSN, connects and pings.
func NewRepository(ctx context.Context, cfg Config) (*sqldb.Repository, error) {
	// Validate DSN early to fail fast on obvious mistakes.
	if _, err := msdsn.Parse(cfg.DSN); err != nil {
		return nil, fmt.Errorf("mssql dsn: %w", err)
	}
	return sqldb.Open(ctx, Dialect(), cfg.DSN, cfg.Table)
}

// ErrorNumber extracts the SQL Server error number from err, or 0.
func ErrorNumber(err error) int32 {
	var me mssql.Error
	if errors.As(err, &me) {
		return me.Number
	}
	return 0
}

// ContainsCount runs a CONTAINS query and returns the matching row count.
// Full-text population is asynchronous, so callers may need to poll.
func ContainsCount(ctx context.Context, db *sql.DB, table, term string) (int64, error) {
	var n int64
	err := db.QueryRowContext(ctx,
		"SELECT COUNT_BIG(*) FROM "+msFQN(table)+" WHERE CONTAINS(*, @p1)", term).Scan(&n)
	return n, err
}

// msIdent bracket-quotes one identifier segment.
func msIdent(id string) string { return `[` + strings.ReplaceAll(id, `]`, `]]`) + `]` }

// msFQN quotes a possibly schema-qualified name like "dbo.contacts" to
// "[dbo].[contacts]".
func msFQN(name string) string {
	return ddl.QuoteFQN(name, msIdent)
}
