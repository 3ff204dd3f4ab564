// Package ddl defines a small, backend-agnostic model of the full-text table
// and helpers shared by the dialect renderers under internal/storage/*/ddl.
//
// The model stays generic: it does not quote identifiers itself and does not
// know how any engine spells its full-text index. Dialects supply a Quoter
// and a placeholder style; this package assembles the statements whose shape
// is the same everywhere.
package ddl

import (
	"fmt"
	"strings"
)

// Quoter quotes one identifier segment.
type Quoter func(string) string

// Placeholder renders the bind marker for the 1-based parameter n.
type Placeholder func(n int) string

// QuestionMark is the "?" placeholder style (SQLite, MySQL).
func QuestionMark(int) string { return "?" }

// Dollar is the "$n" placeholder style (Postgres).
func Dollar(n int) string { return fmt.Sprintf("$%d", n) }

// AtP is the "@pN" placeholder style (SQL Server).
func AtP(n int) string { return fmt.Sprintf("@p%d", n) }

// QuoteFQN splits a dotted name and quotes each non-empty segment with q.
func QuoteFQN(fqn string, q Quoter) string {
	parts := strings.Split(fqn, ".")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, q(p))
	}
	return strings.Join(out, ".")
}

// QuoteList quotes each name with q and joins them with ", ".
func QuoteList(names []string, q Quoter) string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = q(n)
	}
	return strings.Join(out, ", ")
}

// BuildInsertSQL renders
//
//	INSERT INTO <fqn> (<c1>, <c2>, ...) VALUES (<p1>, <p2>, ...)
//
// for the given columns.
func BuildInsertSQL(fqn string, columns []string, q Quoter, ph Placeholder) (string, error) {
	if strings.TrimSpace(fqn) == "" {
		return "", fmt.Errorf("ddl: table FQN must not be empty")
	}
	if len(columns) == 0 {
		return "", fmt.Errorf("ddl: insert into %s needs at least one column", fqn)
	}
	marks := make([]string, len(columns))
	for i := range marks {
		marks[i] = ph(i + 1)
	}
	return fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		QuoteFQN(fqn, q),
		QuoteList(columns, q),
		strings.Join(marks, ", "),
	), nil
}
