package datasource

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

var ErrNoTransaction = errors.New("no transaction found in the current context")

// TxManager binds a caller owned transaction to a context.
// Operations acquiring a resource with such a context join the transaction and
// leave committing and rolling back to the caller. Without one, acquisition is
// delegated to Fallback.
type TxManager struct {
	DB       *sqlx.DB
	Fallback Provider
}

// NewTxManager returns a TxManager falling back to a Pool of db.
func NewTxManager(db *sqlx.DB) *TxManager {
	return &TxManager{DB: db, Fallback: NewPool(db)}
}

type (
	ctxTxKey   struct{}
	ctxTxValue struct {
		depth int
		*sqlx.Tx
	}
)

// BeginTx starts a transaction bound to the returned context.
// Nested calls are counted and only the outermost CommitTx commits.
func (m *TxManager) BeginTx(ctx context.Context, opts *sql.TxOptions) (context.Context, error) {
	if tx, ok := m.lookupTx(ctx); ok {
		tx.depth++
		return ctx, nil
	}
	tx, err := m.DB.BeginTxx(ctx, opts)
	if err != nil {
		return nil, err
	}
	return context.WithValue(ctx, ctxTxKey{}, &ctxTxValue{Tx: tx}), nil
}

func (m *TxManager) CommitTx(ctx context.Context) error {
	tx, ok := m.lookupTx(ctx)
	if !ok {
		return ErrNoTransaction
	}
	if tx.depth > 0 {
		tx.depth--
		return nil
	}
	return tx.Commit()
}

func (m *TxManager) RollbackTx(ctx context.Context) error {
	tx, ok := m.lookupTx(ctx)
	if !ok {
		return ErrNoTransaction
	}
	return tx.Rollback()
}

func (m *TxManager) Acquire(ctx context.Context) (Resource, error) {
	if tx, ok := m.lookupTx(ctx); ok {
		return sharedTx{tx.Tx}, nil
	}
	return m.Fallback.Acquire(ctx)
}

func (m *TxManager) lookupTx(ctx context.Context) (*ctxTxValue, bool) {
	tx, ok := ctx.Value(ctxTxKey{}).(*ctxTxValue)
	return tx, ok
}

// sharedTx is a resource whose lifecycle belongs to the caller.
type sharedTx struct {
	*sqlx.Tx
}

func (sharedTx) AutoCommit() bool { return true }
func (sharedTx) Commit() error    { return nil }
func (sharedTx) Rollback() error  { return nil }
func (sharedTx) Close() error     { return nil }
