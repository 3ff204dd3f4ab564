// Package postgres implements the Postgres backend using pgx v5. Rows go into
// a plain table whose generated tsvector column carries a GIN index.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"csv2fts/internal/ddl"
	"csv2fts/internal/storage"
)

// Config holds Postgres repository configuration.
type Config struct {
	DSN   string // connection string for pgxpool
	Table string // target table, optionally schema-qualified, e.g. "public.contacts"
}

// Repository is a Postgres-backed implementation of storage.Repository.
type Repository struct {
	pool *pgxpool.Pool
	cfg  Config
}

var _ storage.Repository = (*Repository)(nil)

const pingTimeout = 5 * time.Second

// NewRepository constructs a Repository and verifies connectivity.
func NewRepository(ctx context.Context, cfg Config) (*Repository, error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, fmt.Errorf("postgres: DSN must not be empty")
	}
	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("pgxpool: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	return &Repository{pool: pool, cfg: cfg}, nil
}

// Pool exposes the underlying pool for backend-specific queries.
func (r *Repository) Pool() *pgxpool.Pool { return r.pool }

// Exec executes an arbitrary SQL statement (typically DDL).
func (r *Repository) Exec(ctx context.Context, sql string) error {
	if strings.TrimSpace(sql) == "" {
		return nil
	}
	if _, err := r.pool.Exec(ctx, sql); err != nil {
		return fmt.Errorf("postgres: exec: %w", describe(err))
	}
	return nil
}

// Begin opens a transaction. Each Insert runs inside its own savepoint so a
// rejected row does not abort the rest of the batch.
func (r *Repository) Begin(ctx context.Context, columns []string) (storage.Batch, error) {
	stmt, err := ddl.BuildInsertSQL(r.cfg.Table, columns, pgIdent, ddl.Dollar)
	if err != nil {
		return nil, fmt.Errorf("postgres: %w", err)
	}
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("postgres: begin tx: %w", err)
	}
	return &batch{tx: tx, sql: stmt, width: len(columns), ctx: ctx}, nil
}

// Close closes the pool.
func (r *Repository) Close() { r.pool.Close() }

type batch struct {
	tx    pgx.Tx
	sql   string
	width int
	args  []any
	// ctx is the context Begin was called with; Commit and Rollback use it.
	ctx context.Context
}

func (b *batch) Insert(ctx context.Context, values []string) error {
	if err := storage.CheckArity(values, b.width); err != nil {
		return err
	}
	b.args = b.args[:0]
	for _, v := range values {
		b.args = append(b.args, v)
	}

	sp, err := b.tx.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres: savepoint: %w", err)
	}
	if _, err := sp.Exec(ctx, b.sql, b.args...); err != nil {
		_ = sp.Rollback(ctx)
		return fmt.Errorf("postgres: insert: %w", describe(err))
	}
	if err := sp.Commit(ctx); err != nil {
		return fmt.Errorf("postgres: release savepoint: %w", err)
	}
	return nil
}

func (b *batch) Commit() error {
	if err := b.tx.Commit(context.WithoutCancel(b.ctx)); err != nil {
		return fmt.Errorf("postgres: commit: %w", describe(err))
	}
	return nil
}

func (b *batch) Rollback() error {
	if err := b.tx.Rollback(context.WithoutCancel(b.ctx)); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return fmt.Errorf("postgres: rollback: %w", err)
	}
	return nil
}

// describe folds PgError detail and SQLSTATE into the message.
func describe(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Detail != "" {
		return fmt.Errorf("%w (%s; %s)", err, pgErr.Detail, pgErr.SQLState())
	}
	return err
}

// pgIdent double-quotes one identifier segment.
func pgIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// pgFQN quotes a possibly schema-qualified name.
func pgFQN(fqn string) string {
	return ddl.QuoteFQN(fqn, pgIdent)
}

// SearchCount returns how many rows of table match query under
// plainto_tsquery('simple', query).
func SearchCount(ctx context.Context, pool *pgxpool.Pool, table, query string) (int64, error) {
	var n int64
	err := pool.QueryRow(ctx,
		"SELECT count(*) FROM "+pgFQN(table)+" WHERE "+pgIdent(SearchColumn)+" @@ plainto_tsquery('simple', $1)",
		query).Scan(&n)
	return n, err
}

// SearchColumn is the generated tsvector column added to every table.
const SearchColumn = "fts_document"
