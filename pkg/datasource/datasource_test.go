package datasource

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"overviewrepo/pkg/config"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return sqlx.NewDb(db, "sqlmock"), mock
}

func TestPool_Acquire(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec("DELETE FROM t").WillReturnResult(sqlmock.NewResult(0, 2))

	res, err := NewPool(db).Acquire(context.Background())
	require.NoError(t, err)
	assert.True(t, res.AutoCommit())

	result, err := res.ExecContext(context.Background(), "DELETE FROM t")
	require.NoError(t, err)
	affected, err := result.RowsAffected()
	require.NoError(t, err)
	assert.Equal(t, int64(2), affected)

	assert.NoError(t, res.Commit())
	assert.NoError(t, res.Rollback())
	assert.NoError(t, res.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactional_Acquire(t *testing.T) {
	db, mock := newMock(t)
	provider := NewTransactional(db, nil)

	t.Run("commit", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectCommit()
		res, err := provider.Acquire(context.Background())
		require.NoError(t, err)
		assert.False(t, res.AutoCommit())
		require.NoError(t, res.Commit())
		require.NoError(t, res.Close())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("close without commit rolls back", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectRollback()
		res, err := provider.Acquire(context.Background())
		require.NoError(t, err)
		require.NoError(t, res.Close())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("begin failure", func(t *testing.T) {
		mock.ExpectBegin().WillReturnError(errors.New("boom"))
		_, err := provider.Acquire(context.Background())
		assert.Error(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestTxManager(t *testing.T) {
	db, mock := newMock(t)
	m := NewTxManager(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE t SET a=1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	ctx, err := m.BeginTx(context.Background(), nil)
	require.NoError(t, err)
	nested, err := m.BeginTx(ctx, nil)
	require.NoError(t, err)

	res, err := m.Acquire(nested)
	require.NoError(t, err)
	assert.True(t, res.AutoCommit(), "the caller owns the transaction")
	_, err = res.ExecContext(nested, "UPDATE t SET a=1")
	require.NoError(t, err)
	require.NoError(t, res.Close())

	require.NoError(t, m.CommitTx(nested), "nested commit only decrements the depth")
	require.NoError(t, m.CommitTx(ctx))
	assert.NoError(t, mock.ExpectationsWereMet())

	assert.ErrorIs(t, m.CommitTx(context.Background()), ErrNoTransaction)
	assert.ErrorIs(t, m.RollbackTx(context.Background()), ErrNoTransaction)
}

func TestTxManager_FallsBack(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec("DELETE FROM t").WillReturnResult(sqlmock.NewResult(0, 0))

	res, err := NewTxManager(db).Acquire(context.Background())
	require.NoError(t, err)
	_, err = res.ExecContext(context.Background(), "DELETE FROM t")
	require.NoError(t, err)
	require.NoError(t, res.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOpen(t *testing.T) {
	db, err := Open(config.Database{Driver: "sqlite", DSN: "file::memory:", MaxOpenConns: 1})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.Ping())
	assert.IsType(t, &Pool{}, NewProvider(db, config.Database{}))
	assert.IsType(t, &Transactional{}, NewProvider(db, config.Database{Transactional: true}))

	mysqlDB, err := Open(config.Database{Driver: "mysql", DSN: "root:password@tcp(localhost:3306)/app"})
	require.NoError(t, err, "opening does not connect")
	_ = mysqlDB.Close()

	_, err = Open(config.Database{Driver: "mysql", DSN: "not a dsn"})
	assert.Error(t, err)

	_, err = Open(config.Database{Driver: "oracle"})
	assert.Error(t, err)
}
