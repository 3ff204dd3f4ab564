// Package ddl renders SQL Server full-text DDL from the generic ddl.TableDef
// model.
//
// Layout:
//   - [row_id] BIGINT IDENTITY primary key; the full-text index needs a
//     unique, single-column, non-nullable key.
//   - One NVARCHAR(MAX) column per header field.
//   - A shared full-text catalog and one full-text index over all columns.
//
// Each statement is guarded so reruns are no-ops.
package ddl

import (
	"context"
	"fmt"
	"strings"

	gddl "csv2fts/internal/ddl"
	"csv2fts/internal/storage"
)

// Catalog is the full-text catalog every table is indexed into.
const Catalog = "csv2fts"

// KeyColumn is the identity column added to every table.
const KeyColumn = "row_id"

// BuildCreateTableSQL returns the table, catalog and index statements in the
// order they must run.
func BuildCreateTableSQL(t gddl.TableDef) ([]string, error) {
	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("mssql %w", err)
	}
	for _, c := range t.Columns {
		if strings.EqualFold(c.Name, KeyColumn) {
			return nil, fmt.Errorf("mssql ddl: column %q collides with the identity key", c.Name)
		}
	}

	fqn := strings.TrimSpace(t.FQN)
	quoted := gddl.QuoteFQN(fqn, quoteIdent)
	pk := "PK_" + t.BaseName()

	var b strings.Builder
	fmt.Fprintf(&b, "IF OBJECT_ID(N'%s', N'U') IS NULL\nCREATE TABLE %s (\n", escapeLiteral(fqn), quoted)
	fmt.Fprintf(&b, "  %s BIGINT IDENTITY(1,1) NOT NULL CONSTRAINT %s PRIMARY KEY", quoteIdent(KeyColumn), quoteIdent(pk))
	for _, c := range t.Columns {
		null := "NULL"
		if !c.Nullable {
			null = "NOT NULL"
		}
		fmt.Fprintf(&b, ",\n  %s NVARCHAR(MAX) %s", quoteIdent(c.Name), null)
	}
	b.WriteString("\n);")

	catalog := fmt.Sprintf(
		"IF NOT EXISTS (SELECT 1 FROM sys.fulltext_catalogs WHERE name = N'%s')\nCREATE FULLTEXT CATALOG %s;",
		escapeLiteral(Catalog), quoteIdent(Catalog),
	)
	index := fmt.Sprintf(
		"IF NOT EXISTS (SELECT 1 FROM sys.fulltext_indexes WHERE object_id = OBJECT_ID(N'%s'))\nCREATE FULLTEXT INDEX ON %s (%s) KEY INDEX %s ON %s;",
		escapeLiteral(fqn), quoted,
		gddl.QuoteList(t.ColumnNames(), quoteIdent),
		quoteIdent(pk), quoteIdent(Catalog),
	)
	return []string{b.String(), catalog, index}, nil
}

// EnsureTable applies the statements from BuildCreateTableSQL in order.
// Full-text DDL cannot run inside a user transaction, so each statement goes
// through repo.Exec on its own.
func EnsureTable(ctx context.Context, repo storage.Repository, def gddl.TableDef) error {
	stmts, err := BuildCreateTableSQL(def)
	if err != nil {
		return err
	}
	for _, s := range stmts {
		if err := repo.Exec(ctx, s); err != nil {
			return err
		}
	}
	return nil
}

func quoteIdent(id string) string { return `[` + strings.ReplaceAll(id, `]`, `]]`) + `]` }

func escapeLiteral(s string) string { return strings.ReplaceAll(s, `'`, `''`) }
