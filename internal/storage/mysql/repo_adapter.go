// Package mysql provides a MySQL-backed storage.Repository implementation.
// This adapter wires the MySQL backend into the storage-agnostic factory.
package mysql

import (
	"context"

	"csv2fts/internal/ddl"
	"csv2fts/internal/storage"
	myddl "csv2fts/internal/storage/mysql/ddl"
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

// init registers the "mysql" backend with the factory.
func init() {
	storage.Register("mysql", func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
		return newRepository(ctx, Config{DSN: cfg.DSN, Table: cfg.Table})
	})

	storage.RegisterDDL("mysql", func(ctx context.Context, repo storage.Repository, def ddl.TableDef) error {
		return myddl.EnsureTable(ctx, repo, def)
	})
}
