package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	driver "github.com/go-sql-driver/mysql"

	"csv2fts/internal/ddl"
	"csv2fts/internal/storage/sqldb"
)

// Config holds MySQL repository configuration.
type Config struct {
	DSN   string // go-sql-driver DSN, e.g. "user:pass@tcp(localhost:3306)/db"
	Table string
}

// Dialect returns the sqldb dialect for MySQL.
func Dialect() sqldb.Dialect {
	return sqldb.Dialect{
		Name:        "mysql",
		Driver:      "mysql",
		Quote:       quoteIdent,
		Placeholder: ddl.QuestionMark,
	}
}

// NewRepository parses the DSN, forces utf8mb4 and connects.
func NewRepository(ctx context.Context, cfg Config) (*sqldb.Repository, error) {
	mc, err := driver.ParseDSN(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("mysql dsn: %w", err)
	}
	if mc.Params == nil {
		mc.Params = map[string]string{}
	}
	if _, ok := mc.Params["charset"]; !ok {
		mc.Params["charset"] = "utf8mb4"
	}
	return sqldb.Open(ctx, Dialect(), mc.FormatDSN(), cfg.Table)
}

// ErrorNumber extracts the server error code from err, or 0.
func ErrorNumber(err error) uint16 {
	var me *driver.MySQLError
	if errors.As(err, &me) {
		return me.Number
	}
	return 0
}

// MatchCount runs a natural-language MATCH ... AGAINST over columns.
func MatchCount(ctx context.Context, db *sql.DB, table string, columns []string, query string) (int64, error) {
	var n int64
	err := db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE MATCH(%s) AGAINST (?)",
			ddl.QuoteFQN(table, quoteIdent), ddl.QuoteList(columns, quoteIdent)),
		query).Scan(&n)
	return n, err
}

func quoteIdent(id string) string {
	return "`" + strings.ReplaceAll(id, "`", "``") + "`"
}
