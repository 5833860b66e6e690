package persistence

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/payment-ledger/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresDB_Pool(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	// Using nil pool since pgxpool requires real DB connection
	var nilPool *pgxpool.Pool
	db := &PostgresDB{
		pool:   nilPool,
		logger: logger,
	}
	assert.Equal(t, nilPool, db.Pool(), "Pool() should return the initialized pool")
}

func TestNewPostgresDB_RequiresURL(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	cfg := &config.PostgresConfig{URL: config.Secret{Name: "postgres_url"}, MigrationsPath: "migrations/postgres"}

	_, err := NewPostgresDB(context.Background(), logger, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres url secret is not loaded")
}

func TestRunInTx(t *testing.T) {
	ctx := context.Background()

	t.Run("commit on success", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectBegin()
		mock.ExpectExec("UPDATE ledgers").WillReturnResult(pgxmock.NewResult("UPDATE", 1))
		mock.ExpectCommit()

		err = RunInTx(ctx, mock, time.Second, func(tx pgx.Tx) error {
			_, err := tx.Exec(ctx, "UPDATE ledgers SET balance = 1")
			return err
		})
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rollback on error", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		fnErr := errors.New("insert failed")
		mock.ExpectBegin()
		mock.ExpectRollback()

		err = RunInTx(ctx, mock, time.Second, func(tx pgx.Tx) error {
			return fnErr
		})
		assert.ErrorIs(t, err, fnErr)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rollback error is reported", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		fnErr := errors.New("insert failed")
		mock.ExpectBegin()
		mock.ExpectRollback().WillReturnError(errors.New("connection lost"))

		err = RunInTx(ctx, mock, time.Second, func(tx pgx.Tx) error {
			return fnErr
		})
		assert.ErrorIs(t, err, fnErr)
		assert.Contains(t, err.Error(), "connection lost")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("cancelled context rolls back", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		cancelCtx, cancel := context.WithCancel(ctx)
		mock.ExpectBegin()
		mock.ExpectRollback()

		err = RunInTx(cancelCtx, mock, time.Second, func(tx pgx.Tx) error {
			cancel()
			return nil
		})
		assert.ErrorIs(t, err, context.Canceled)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("begin error", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectBegin().WillReturnError(errors.New("pool exhausted"))

		called := false
		err = RunInTx(ctx, mock, time.Second, func(tx pgx.Tx) error {
			called = true
			return nil
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to begin transaction")
		assert.False(t, called)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rollback and re-panic", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectBegin()
		mock.ExpectRollback()

		assert.Panics(t, func() {
			_ = RunInTx(ctx, mock, time.Second, func(tx pgx.Tx) error {
				panic("boom")
			})
		})
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
