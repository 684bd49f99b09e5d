package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	ierr "github.com/tillpoint/tillpoint/internal/errors"
	"github.com/tillpoint/tillpoint/internal/logger"
)

func newMockDB(t *testing.T) (*DB, sqlmock.Sqlmock) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return NewFromSqlx(sqlx.NewDb(conn, "postgres"), logger.NewNoopLogger()), mock
}

func TestWithTxInnerFailureOnlyUndoesSavepoint(t *testing.T) {
	db, mock := newMockDB(t)
	errReserve := errors.New("out of stock")

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE skus").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("SAVEPOINT tillpoint_sp_1").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("ROLLBACK TO SAVEPOINT tillpoint_sp_1").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := db.WithTx(context.Background(), func(ctx context.Context) error {
		if _, err := db.GetQuerier(ctx).ExecContext(ctx, "UPDATE skus SET stock = stock - 1"); err != nil {
			return err
		}
		inner := db.WithTx(ctx, func(context.Context) error { return errReserve })
		assert.ErrorIs(t, inner, errReserve)
		return nil
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTxReleasesNestedSavepointOnSuccess(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectBegin()
	mock.ExpectExec("SAVEPOINT tillpoint_sp_1").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("RELEASE SAVEPOINT tillpoint_sp_1").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := db.WithTx(context.Background(), func(ctx context.Context) error {
		return db.WithTx(ctx, func(context.Context) error { return nil })
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTxRollsBackAndReturnsCause(t *testing.T) {
	db, mock := newMockDB(t)
	cause := ierr.NewError("boom").Mark(ierr.ErrInvalidOperation)

	mock.ExpectBegin()
	mock.ExpectRollback()

	err := db.WithTx(context.Background(), func(context.Context) error { return cause })
	require.Error(t, err)
	assert.True(t, ierr.IsInvalidOperation(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTxBeginFailureIsDatabaseError(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin().WillReturnError(errors.New("connection refused"))

	called := false
	err := db.WithTx(context.Background(), func(context.Context) error {
		called = true
		return nil
	})
	require.Error(t, err)
	assert.True(t, ierr.IsDatabase(err))
	assert.False(t, called)
}
