package postgres

import (
	"context"
	"errors"
	"testing"

	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/contactsbook/internal/repository"
)

func TestStore_InTx_Commits(t *testing.T) {
	mock := newMock(t)
	store := NewStore(mock)

	token := "t"
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE users SET refresh_token").
		WithArgs(&token, int64(7)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	err := store.InTx(context.Background(), func(tx repository.Store) error {
		// Nested calls join the outer transaction.
		return tx.InTx(context.Background(), func(inner repository.Store) error {
			return inner.Users().UpdateRefreshToken(context.Background(), 7, &token)
		})
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_InTx_RollsBackOnError(t *testing.T) {
	mock := newMock(t)
	store := NewStore(mock)

	mock.ExpectBegin()
	mock.ExpectRollback()

	boom := errors.New("boom")
	err := store.InTx(context.Background(), func(repository.Store) error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Ping(t *testing.T) {
	mock := newMock(t)
	store := NewStore(mock)

	mock.ExpectQuery("SELECT 1").WillReturnRows(pgxmock.NewRows([]string{"?column?"}).AddRow(1))
	require.NoError(t, store.Ping(context.Background()))

	mock.ExpectQuery("SELECT 1").WillReturnError(errors.New("connection refused"))
	assert.Error(t, store.Ping(context.Background()))
}
