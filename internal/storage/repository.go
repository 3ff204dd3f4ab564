// Package storage contains storage-agnostic contracts and utilities: the
// Repository/Batch interfaces every backend implements, a kind→factory
// registry, DDL bootstrap dispatch and the batched loader.
package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Config selects and configures a backend.
type Config struct {
	// Kind is the registered backend name ("sqlite", "postgres", ...).
	Kind string
	// DSN is passed to the backend's driver.
	DSN string
	// Table is the full-text table name, unquoted.
	Table string
}

// Repository is an open connection to one backend, bound to Config.Table.
type Repository interface {
	// Exec runs a statement outside any batch, typically DDL.
	Exec(ctx context.Context, sql string) error
	// Begin opens a transaction for inserts into columns. A table that does
	// not match columns shows up as Insert errors, not a Begin error.
	Begin(ctx context.Context, columns []string) (Batch, error)
	Close()
}

// Batch is one open transaction. Insert failures leave the batch usable;
// the caller decides whether to drop the row or abort. Insert must not retain
// values after it returns.
type Batch interface {
	Insert(ctx context.Context, values []string) error
	Commit() error
	Rollback() error
}

// ErrArity is returned by Batch.Insert when the value count differs from the
// column count the batch was opened with.
var ErrArity = errors.New("storage: value count does not match column count")

// ErrUnsupportedKind is returned by New for an unregistered kind.
var ErrUnsupportedKind = errors.New("unsupported storage.kind")

// Factory opens a Repository for cfg.
type Factory func(ctx context.Context, cfg Config) (Repository, error)

var (
	regMu     sync.RWMutex
	factories = map[string]Factory{}
)

// Register registers (or replaces) the factory for kind. Backends call it
// from init.
func Register(kind string, f Factory) {
	regMu.Lock()
	defer regMu.Unlock()
	factories[kind] = f
}

// New opens a Repository using the factory registered for cfg.Kind.
func New(ctx context.Context, cfg Config) (Repository, error) {
	regMu.RLock()
	f, ok := factories[cfg.Kind]
	regMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w=%s", ErrUnsupportedKind, cfg.Kind)
	}
	return f(ctx, cfg)
}

// ListKinds returns the registered kinds, sorted. The slice is a copy.
func ListKinds() []string {
	regMu.RLock()
	defer regMu.RUnlock()
	out := make([]string, 0, len(factories))
	for k := range factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// CheckArity returns ErrArity (wrapped with the counts) when len(values) != want.
func CheckArity(values []string, want int) error {
	if len(values) != want {
		return fmt.Errorf("%w: got %d values for %d columns", ErrArity, len(values), want)
	}
	return nil
}
