// Package datasource provides the connection resources repositories acquire for the
// duration of a single operation.
package datasource

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

// Resource is a connection scoped to one repository operation.
type Resource interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryxContext(ctx context.Context, query string, args ...any) (*sqlx.Rows, error)
	// AutoCommit reports whether statements are committed as they execute.
	// Commit and Rollback are only called on resources without auto-commit.
	AutoCommit() bool
	Commit() error
	Rollback() error
	// Close releases the resource. It is called exactly once on every exit path.
	Close() error
}

// Provider acquires resources.
type Provider interface {
	Acquire(ctx context.Context) (Resource, error)
}

// Pool acquires a dedicated auto-commit connection from the pool per operation.
type Pool struct {
	DB *sqlx.DB
}

func NewPool(db *sqlx.DB) *Pool {
	return &Pool{DB: db}
}

func (p *Pool) Acquire(ctx context.Context) (Resource, error) {
	conn, err := p.DB.Connx(ctx)
	if err != nil {
		return nil, err
	}
	return connResource{conn}, nil
}

type connResource struct {
	*sqlx.Conn
}

func (connResource) AutoCommit() bool { return true }
func (connResource) Commit() error    { return nil }
func (connResource) Rollback() error  { return nil }

// Transactional begins a new transaction per operation.
// Repositories commit it on success and roll it back on failure.
type Transactional struct {
	DB      *sqlx.DB
	Options *sql.TxOptions
}

func NewTransactional(db *sqlx.DB, opts *sql.TxOptions) *Transactional {
	return &Transactional{DB: db, Options: opts}
}

func (t *Transactional) Acquire(ctx context.Context) (Resource, error) {
	tx, err := t.DB.BeginTxx(ctx, t.Options)
	if err != nil {
		return nil, err
	}
	return &txResource{Tx: tx}, nil
}

type txResource struct {
	*sqlx.Tx
	done bool
}

func (r *txResource) AutoCommit() bool { return false }

func (r *txResource) Commit() error {
	r.done = true
	return r.Tx.Commit()
}

func (r *txResource) Rollback() error {
	r.done = true
	return r.Tx.Rollback()
}

func (r *txResource) Close() error {
	if r.done {
		return nil
	}
	r.done = true
	if err := r.Tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return err
	}
	return nil
}
