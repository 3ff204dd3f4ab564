// Package ddl renders SQLite FTS5 DDL from the generic ddl.TableDef model.
//
// The builder here:
//   - Uses simple double-quoted identifiers: "table", "col".
//   - Emits CREATE VIRTUAL TABLE IF NOT EXISTS ... USING fts5(...).
//   - Ignores nullability; FTS5 columns are untyped.
package ddl

import (
	"context"
	"fmt"
	"strings"

	gddl "csv2fts/internal/ddl"
	"csv2fts/internal/storage"
)

// BuildCreateFTSSQL returns the statement
//
//	CREATE VIRTUAL TABLE IF NOT EXISTS "table" USING fts5("col1", "col2");
//
// TableDef.FQN is interpreted as a table name; if it contains dots (e.g.,
// "main.contacts"), each segment is individually quoted.
func BuildCreateFTSSQL(t gddl.TableDef) (string, error) {
	if err := t.Validate(); err != nil {
		return "", fmt.Errorf("sqlite %w", err)
	}
	return fmt.Sprintf(
		"CREATE VIRTUAL TABLE IF NOT EXISTS %s USING fts5(%s);",
		gddl.QuoteFQN(strings.TrimSpace(t.FQN), quoteIdent),
		gddl.QuoteList(t.ColumnNames(), quoteIdent),
	), nil
}

// EnsureTable creates the FTS5 table if it does not exist. An existing table
// is left as is, whatever its columns.
func EnsureTable(ctx context.Context, repo storage.Repository, def gddl.TableDef) error {
	stmt, err := BuildCreateFTSSQL(def)
	if err != nil {
		return err
	}
	return repo.Exec(ctx, stmt)
}

func quoteIdent(id string) string {
	return `"` + strings.ReplaceAll(id, `"`, `""`) + `"`
}
