// Package schema derives the full-text table's column set from a header row.
package schema

import "strconv"

// Column is one indexed column of the full-text table.
type Column struct {
	// Original is the raw header text, untrimmed.
	Original string
	// Name is the SQL identifier: the trimmed header when it matches
	// [A-Za-z0-9_]+, otherwise col<Position>.
	Name string
	// Position is the 1-based index of the field in the raw header row,
	// counted before empty fields are dropped.
	Position int
}

// Synthetic reports whether Name is a col<N> placeholder rather than header text.
func (c Column) Synthetic() bool {
	return c.Name == "col"+strconv.Itoa(c.Position) && c.Name != c.Original
}

// Columns is the ordered column set of one import.
type Columns []Column

// Names returns the identifiers in order.
func (cs Columns) Names() []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.Name
	}
	return out
}

// Duplicates returns names that appear more than once, in first-seen order.
// Creating a table with such a column list is rejected by most stores.
func (cs Columns) Duplicates() []string {
	seen := make(map[string]int, len(cs))
	var dups []string
	for _, c := range cs {
		seen[c.Name]++
		if seen[c.Name] == 2 {
			dups = append(dups, c.Name)
		}
	}
	return dups
}
