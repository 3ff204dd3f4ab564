package ddl

import (
	"testing"

	gddl "csv2fts/internal/ddl"
)

func TestBuildCreateTableSQL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		def     gddl.TableDef
		want    string
		wantErr bool
	}{
		{
			name: "two columns",
			def:  gddl.FromNames("contacts", []string{"id", "na`me"}),
			want: "CREATE TABLE IF NOT EXISTS `contacts` (\n" +
				"  `id` TEXT NULL,\n" +
				"  `na``me` TEXT NULL,\n" +
				"  FULLTEXT KEY `contacts_fts` (`id`, `na``me`)\n" +
				") ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;",
		},
		{
			name: "database qualified, not null",
			def:  gddl.TableDef{FQN: "crm.people", Columns: []gddl.ColumnDef{{Name: "id"}}},
			want: "CREATE TABLE IF NOT EXISTS `crm`.`people` (\n" +
				"  `id` TEXT NOT NULL,\n" +
				"  FULLTEXT KEY `people_fts` (`id`)\n" +
				") ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;",
		},
		{
			name:    "empty",
			def:     gddl.TableDef{FQN: "contacts"},
			wantErr: true,
		},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := BuildCreateTableSQL(tc.def)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("BuildCreateTableSQL: %v", err)
			}
			if got != tc.want {
				t.Fatalf("got\n%s\nwant\n%s", got, tc.want)
			}
		})
	}
}
