// Package sqldb implements storage.Repository on top of database/sql for
// backends whose drivers plug into it (SQLite, MySQL, SQL Server). Each
// backend supplies a Dialect; the transaction and prepared-insert handling is
// shared.
package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"csv2fts/internal/ddl"
	"csv2fts/internal/storage"
)

// Dialect captures what differs between database/sql backends.
type Dialect struct {
	// Name prefixes error messages ("sqlite", "mysql", ...).
	Name string
	// Driver is the database/sql driver name.
	Driver      string
	Quote       ddl.Quoter
	Placeholder ddl.Placeholder
	// MaxOpenConns caps the pool; zero leaves the driver default.
	MaxOpenConns int
	// Init runs once after the first successful ping (pragmas, session setup).
	Init func(ctx context.Context, db *sql.DB) error
}

// Repository is a database/sql-backed storage.Repository bound to one table.
type Repository struct {
	db    *sql.DB
	table string
	d     Dialect
}

var _ storage.Repository = (*Repository)(nil)

// pingTimeout bounds the initial connectivity check.
const pingTimeout = 5 * time.Second

// Open connects with d.Driver and pings to fail fast on bad DSNs.
func Open(ctx context.Context, d Dialect, dsn, table string) (*Repository, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("%s: DSN must not be empty", d.Name)
	}
	db, err := sql.Open(d.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("%s: open: %w", d.Name, err)
	}
	return wrap(ctx, d, db, table)
}

// OpenDB wraps an existing pool. Tests use it with in-memory databases.
func OpenDB(ctx context.Context, d Dialect, db *sql.DB, table string) (*Repository, error) {
	return wrap(ctx, d, db, table)
}

func wrap(ctx context.Context, d Dialect, db *sql.DB, table string) (*Repository, error) {
	if d.MaxOpenConns > 0 {
		db.SetMaxOpenConns(d.MaxOpenConns)
	}
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: ping: %w", d.Name, err)
	}
	if d.Init != nil {
		if err := d.Init(ctx, db); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("%s: init: %w", d.Name, err)
		}
	}
	return &Repository{db: db, table: table, d: d}, nil
}

// DB exposes the pool for backend-specific queries.
func (r *Repository) DB() *sql.DB { return r.db }

// Table returns the bound table name.
func (r *Repository) Table() string { return r.table }

// Exec executes an arbitrary SQL statement (typically DDL).
func (r *Repository) Exec(ctx context.Context, sqlText string) error {
	if strings.TrimSpace(sqlText) == "" {
		return nil
	}
	if _, err := r.db.ExecContext(ctx, sqlText); err != nil {
		return fmt.Errorf("%s: exec: %w", r.d.Name, err)
	}
	return nil
}

// Begin opens a transaction. The insert for columns is prepared on the
// first Insert, so a table that does not match columns surfaces as row
// errors rather than a failed Begin.
func (r *Repository) Begin(ctx context.Context, columns []string) (storage.Batch, error) {
	stmtSQL, err := ddl.BuildInsertSQL(r.table, columns, r.d.Quote, r.d.Placeholder)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", r.d.Name, err)
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: begin tx: %w", r.d.Name, err)
	}
	return &batch{name: r.d.Name, tx: tx, sqlText: stmtSQL, width: len(columns)}, nil
}

// Close closes the pool.
func (r *Repository) Close() { _ = r.db.Close() }

type batch struct {
	name    string
	tx      *sql.Tx
	sqlText string
	stmt    *sql.Stmt // nil until a prepare succeeds
	width   int
	args    []any
}

func (b *batch) Insert(ctx context.Context, values []string) error {
	if err := storage.CheckArity(values, b.width); err != nil {
		return err
	}
	if b.stmt == nil {
		stmt, err := b.tx.PrepareContext(ctx, b.sqlText)
		if err != nil {
			return fmt.Errorf("%s: prepare insert: %w", b.name, err)
		}
		b.stmt = stmt
	}
	b.args = b.args[:0]
	for _, v := range values {
		b.args = append(b.args, v)
	}
	if _, err := b.stmt.ExecContext(ctx, b.args...); err != nil {
		return fmt.Errorf("%s: insert: %w", b.name, err)
	}
	return nil
}

func (b *batch) Commit() error {
	var serr error
	if b.stmt != nil {
		serr = b.stmt.Close()
	}
	if err := b.tx.Commit(); err != nil {
		return fmt.Errorf("%s: commit: %w", b.name, err)
	}
	if serr != nil {
		return fmt.Errorf("%s: close statement: %w", b.name, serr)
	}
	return nil
}

func (b *batch) Rollback() error {
	if b.stmt != nil {
		_ = b.stmt.Close()
	}
	if err := b.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return fmt.Errorf("%s: rollback: %w", b.name, err)
	}
	return nil
}
