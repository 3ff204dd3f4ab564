// Package ddl renders MySQL full-text DDL: an InnoDB table of TEXT columns
// with one FULLTEXT key spanning all of them.
package ddl

import (
	"context"
	"fmt"
	"strings"

	gddl "csv2fts/internal/ddl"
	"csv2fts/internal/storage"
)

// BuildCreateTableSQL returns
//
//	CREATE TABLE IF NOT EXISTS `contacts` (
//	  `id` TEXT NULL,
//	  `name` TEXT NULL,
//	  FULLTEXT KEY `contacts_fts` (`id`, `name`)
//	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;
func BuildCreateTableSQL(t gddl.TableDef) (string, error) {
	if err := t.Validate(); err != nil {
		return "", fmt.Errorf("mysql %w", err)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE IF NOT EXISTS %s (\n", gddl.QuoteFQN(t.FQN, quoteIdent))
	for _, c := range t.Columns {
		null := "NULL"
		if !c.Nullable {
			null = "NOT NULL"
		}
		fmt.Fprintf(&b, "  %s TEXT %s,\n", quoteIdent(c.Name), null)
	}
	fmt.Fprintf(&b, "  FULLTEXT KEY %s (%s)\n) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;",
		quoteIdent(t.BaseName()+"_fts"),
		gddl.QuoteList(t.ColumnNames(), quoteIdent),
	)
	return b.String(), nil
}

// EnsureTable creates the table if it does not exist.
func EnsureTable(ctx context.Context, repo storage.Repository, def gddl.TableDef) error {
	stmt, err := BuildCreateTableSQL(def)
	if err != nil {
		return err
	}
	return repo.Exec(ctx, stmt)
}

func quoteIdent(id string) string {
	return "`" + strings.ReplaceAll(id, "`", "``") + "`"
}
