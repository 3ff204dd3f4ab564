package ddl

import (
	"fmt"
	"strings"
)

// ColumnDef describes a single indexed column. Every full-text column holds
// text, so only the name and nullability are modeled; dialect packages pick
// the concrete SQL type.
//
// Fields:
//   - Name: logical column name (unquoted; quoting/escaping happens at render time)
//   - Nullable: whether NULL is allowed
type ColumnDef struct {
	Name     string
	Nullable bool
}

// TableDef holds the table name (FQN) and the ordered list of indexed
// columns. The FQN may be dotted (e.g., "dbo.contacts") and will be
// quoted/escaped by renderers segment by segment.
type TableDef struct {
	FQN     string
	Columns []ColumnDef
}

// FromNames builds a TableDef with one nullable column per name.
func FromNames(table string, names []string) TableDef {
	cols := make([]ColumnDef, len(names))
	for i, n := range names {
		cols[i] = ColumnDef{Name: n, Nullable: true}
	}
	return TableDef{FQN: table, Columns: cols}
}

// ColumnNames returns the column names in order.
func (t TableDef) ColumnNames() []string {
	out := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		out[i] = c.Name
	}
	return out
}

// BaseName returns the last dotted segment of FQN.
func (t TableDef) BaseName() string {
	fqn := strings.TrimSpace(t.FQN)
	if i := strings.LastIndexByte(fqn, '.'); i >= 0 {
		return fqn[i+1:]
	}
	return fqn
}

// Validate checks the invariants every renderer relies on.
func (t TableDef) Validate() error {
	if strings.TrimSpace(t.FQN) == "" {
		return fmt.Errorf("ddl: table FQN must not be empty")
	}
	if len(t.Columns) == 0 {
		return fmt.Errorf("ddl: at least one column is required for %s", t.FQN)
	}
	for i, c := range t.Columns {
		if strings.TrimSpace(c.Name) == "" {
			return fmt.Errorf("ddl: column %d of %s has an empty name", i+1, t.FQN)
		}
	}
	return nil
}
