package storage

import (
	"context"
	"fmt"
	"sync"

	"csv2fts/internal/ddl"
)

// DDLBootstrapper renders the backend's idempotent full-text table DDL for
// def and applies it via repo.Exec.
//
// Backends register their implementation for a storage kind at init time.
type DDLBootstrapper func(ctx context.Context, repo Repository, def ddl.TableDef) error

var (
	ddlMu  sync.RWMutex
	ddlFns = map[string]DDLBootstrapper{}
)

// RegisterDDL registers (or replaces) a DDLBootstrapper for the given storage
// kind. It is typically called from backend packages' init() functions.
func RegisterDDL(kind string, fn DDLBootstrapper) {
	ddlMu.Lock()
	defer ddlMu.Unlock()
	ddlFns[kind] = fn
}

// EnsureTable locates the DDLBootstrapper for kind and invokes it. Callers do
// not need to know which backend they are using.
//
// If no DDL bootstrapper has been registered for the storage kind, an error
// is returned.
func EnsureTable(ctx context.Context, kind string, repo Repository, def ddl.TableDef) error {
	ddlMu.RLock()
	fn, ok := ddlFns[kind]
	ddlMu.RUnlock()
	if !ok {
		return fmt.Errorf("no DDL bootstrapper registered for storage.kind=%s", kind)
	}
	if err := def.Validate(); err != nil {
		return err
	}
	if err := fn(ctx, repo, def); err != nil {
		return fmt.Errorf("create table %s: %w", def.FQN, err)
	}
	return nil
}
