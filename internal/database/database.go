// Package database provides a narrow database abstraction over pgx.
//
// The pipeline only needs Exec, Query, and transactions, so the interfaces
// here stay small enough to fake in tests while *pgxpool.Pool satisfies
// them in production through the [Pool] adapter.
package database

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Rows is the subset of pgx.Rows the pipeline reads results through.
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close()
}

// Tx is a database transaction. All schema and load statements for one
// file run inside a single Tx.
type Tx interface {
	Exec(ctx context.Context, sql string, args ...any) error
	Query(ctx context.Context, sql string, args ...any) (Rows, error)
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// DB opens transactions. Satisfied by [Pool] in production and by fakes
// in tests.
type DB interface {
	Begin(ctx context.Context) (Tx, error)
}

// Pool adapts a pgx connection pool to the [DB] interface.
type Pool struct {
	pool *pgxpool.Pool
}

// NewPool wraps an existing pgx pool.
func NewPool(pool *pgxpool.Pool) *Pool {
	return &Pool{pool: pool}
}

// Begin starts a transaction.
func (p *Pool) Begin(ctx context.Context) (Tx, error) {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return pgxTx{tx: tx}, nil
}

// Close releases the underlying pool.
func (p *Pool) Close() {
	p.pool.Close()
}

// pgxTx adapts pgx.Tx to the [Tx] interface.
type pgxTx struct {
	tx pgx.Tx
}

func (t pgxTx) Exec(ctx context.Context, sql string, args ...any) error {
	_, err := t.tx.Exec(ctx, sql, args...)
	return err
}

func (t pgxTx) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	rows, err := t.tx.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (t pgxTx) Commit(ctx context.Context) error {
	return t.tx.Commit(ctx)
}

func (t pgxTx) Rollback(ctx context.Context) error {
	return t.tx.Rollback(ctx)
}
