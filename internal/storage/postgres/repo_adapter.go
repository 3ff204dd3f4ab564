package postgres

import (
	"context"

	"csv2fts/internal/ddl"
	"csv2fts/internal/storage"
	pgddl "csv2fts/internal/storage/postgres/ddl"
)

// newRepository is a test hook that points to NewRepository by default.
// Tests may replace this variable to avoid real DB connections.
var newRepository = func(ctx context.Context, cfg Config) (storage.Repository, error) {
	r, err := NewRepository(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return r, nil
}

func init() {
	storage.Register("postgres", func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
		return newRepository(ctx, Config{DSN: cfg.DSN, Table: cfg.Table})
	})

	storage.RegisterDDL("postgres", func(ctx context.Context, repo storage.Repository, def ddl.TableDef) error {
		return pgddl.EnsureTable(ctx, repo, def, SearchColumn)
	})
}
