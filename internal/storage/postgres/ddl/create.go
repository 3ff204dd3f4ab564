// Package ddl renders Postgres full-text DDL from the generic ddl.TableDef
// model: a TEXT column per header field, a stored tsvector column generated
// from all of them, and a GIN index over it.
package ddl

import (
	"context"
	"fmt"
	"strings"

	gddl "csv2fts/internal/ddl"
	"csv2fts/internal/storage"
)

// BuildCreateTableSQL returns the statements that create the table and its
// index, in order. Both use IF NOT EXISTS so repeated runs are no-ops.
//
//	CREATE TABLE IF NOT EXISTS "public"."contacts" (
//	  "id" TEXT,
//	  "name" TEXT,
//	  "fts_document" tsvector GENERATED ALWAYS AS (to_tsvector('simple', coalesce("id", '') || ' ' || coalesce("name", ''))) STORED
//	);
//	CREATE INDEX IF NOT EXISTS "contacts_fts_idx" ON "public"."contacts" USING GIN ("fts_document");
func BuildCreateTableSQL(t gddl.TableDef, searchCol string) ([]string, error) {
	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("postgres %w", err)
	}
	for _, c := range t.Columns {
		if c.Name == searchCol {
			return nil, fmt.Errorf("postgres ddl: column %q collides with the generated search column", c.Name)
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE IF NOT EXISTS %s (\n", gddl.QuoteFQN(t.FQN, quoteIdent))
	terms := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		b.WriteString("  ")
		b.WriteString(quoteIdent(c.Name))
		b.WriteString(" TEXT")
		if !c.Nullable {
			b.WriteString(" NOT NULL")
		}
		b.WriteString(",\n")
		terms[i] = fmt.Sprintf("coalesce(%s, '')", quoteIdent(c.Name))
	}
	fmt.Fprintf(&b, "  %s tsvector GENERATED ALWAYS AS (to_tsvector('simple', %s)) STORED\n);",
		quoteIdent(searchCol), strings.Join(terms, " || ' ' || "))

	index := fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s USING GIN (%s);",
		quoteIdent(t.BaseName()+"_fts_idx"),
		gddl.QuoteFQN(t.FQN, quoteIdent),
		quoteIdent(searchCol),
	)
	return []string{b.String(), index}, nil
}

// EnsureTable applies the statements from BuildCreateTableSQL one at a time.
func EnsureTable(ctx context.Context, repo storage.Repository, def gddl.TableDef, searchCol string) error {
	stmts, err := BuildCreateTableSQL(def, searchCol)
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

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
