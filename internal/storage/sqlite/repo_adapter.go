package sqlite

import (
	"context"

	"csv2fts/internal/ddl"
	"csv2fts/internal/storage"
	"csv2fts/internal/storage/sqldb"
	sqliteddl "csv2fts/internal/storage/sqlite/ddl"
)

// newRepository is a test hook that points to NewRepository by default.
// Tests may replace this variable to avoid real DB connections.
var newRepository = NewRepository

var _ storage.Repository = (*sqldb.Repository)(nil)

func init() {
	storage.Register("sqlite", func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
		r, err := newRepository(ctx, Config{DSN: cfg.DSN, Table: cfg.Table})
		if err != nil {
			return nil, err
		}
		return r, nil
	})

	storage.RegisterDDL("sqlite", func(ctx context.Context, repo storage.Repository, def ddl.TableDef) error {
		return sqliteddl.EnsureTable(ctx, repo, def)
	})
}
