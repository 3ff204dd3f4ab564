package ddl

import (
	"strings"
	"testing"
)

func dq(s string) string { return `"` + strings.ReplaceAll(s, `"`, `""`) + `"` }

// TestTableDef_Validate verifies the invariants shared by all renderers using
// table-driven subtests.
func TestTableDef_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		def         TableDef
		errContains string
	}{
		{"empty FQN", TableDef{Columns: []ColumnDef{{Name: "id"}}}, "table FQN must not be empty"},
		{"no columns", TableDef{FQN: "contacts"}, "at least one column is required"},
		{"blank column", TableDef{FQN: "contacts", Columns: []ColumnDef{{Name: " "}}}, "empty name"},
		{"ok", FromNames("contacts", []string{"id", "name"}), ""},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			err := tc.def.Validate()
			if tc.errContains == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.errContains) {
				t.Fatalf("error = %v, want substring %q", err, tc.errContains)
			}
		})
	}
}

func TestFromNames(t *testing.T) {
	td := FromNames("dbo.contacts", []string{"id", "col3"})
	if got := td.ColumnNames(); len(got) != 2 || got[1] != "col3" {
		t.Fatalf("ColumnNames = %q", got)
	}
	if !td.Columns[0].Nullable {
		t.Fatalf("columns should be nullable")
	}
	if td.BaseName() != "contacts" {
		t.Fatalf("BaseName = %q", td.BaseName())
	}
	if (TableDef{FQN: "contacts"}).BaseName() != "contacts" {
		t.Fatalf("BaseName without schema mismatch")
	}
}

func TestBuildInsertSQL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		fqn  string
		cols []string
		ph   Placeholder
		want string
	}{
		{"question", "contacts", []string{"id", "name"}, QuestionMark,
			`INSERT INTO "contacts" ("id", "name") VALUES (?, ?)`},
		{"dollar with schema", "public.contacts", []string{"a", "b", "c"}, Dollar,
			`INSERT INTO "public"."contacts" ("a", "b", "c") VALUES ($1, $2, $3)`},
		{"atp", "contacts", []string{"x"}, AtP,
			`INSERT INTO "contacts" ("x") VALUES (@p1)`},
		{"escapes quotes", `we"ird`, []string{`c"1`}, QuestionMark,
			`INSERT INTO "we""ird" ("c""1") VALUES (?)`},
	}
	for _, tc := range tests {
		got, err := BuildInsertSQL(tc.fqn, tc.cols, dq, tc.ph)
		if err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		if got != tc.want {
			t.Errorf("%s:\n got %s\nwant %s", tc.name, got, tc.want)
		}
	}

	if _, err := BuildInsertSQL("", []string{"a"}, dq, QuestionMark); err == nil {
		t.Fatalf("expected error for empty FQN")
	}
	if _, err := BuildInsertSQL("t", nil, dq, QuestionMark); err == nil {
		t.Fatalf("expected error for no columns")
	}
}

func TestQuoteFQN_SkipsEmptySegments(t *testing.T) {
	if got := QuoteFQN("main..contacts", dq); got != `"main"."contacts"` {
		t.Fatalf("QuoteFQN = %s", got)
	}
}
