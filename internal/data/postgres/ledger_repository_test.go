package postgres

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/payment-ledger/internal/domain/ledger"
	"github.com/payment-ledger/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

var ledgerRowColumns = []string{"id", "type", "currency", "state", "balance", "payment_account_id", "created_at", "updated_at"}

func ledgerRows(ls ...*ledger.Ledger) *pgxmock.Rows {
	rows := pgxmock.NewRows(ledgerRowColumns)
	for _, l := range ls {
		rows.AddRow(l.ID, l.Type, l.Currency, l.State, l.Balance, l.PaymentAccountID, l.CreatedAt, l.UpdatedAt)
	}
	return rows
}

func testLedger(state ledger.State, balance int64) *ledger.Ledger {
	now := time.Now()
	return &ledger.Ledger{
		ID:               uuid.New(),
		Type:             ledger.TypeManual,
		Currency:         shared.CurrencyUSD,
		State:            state,
		Balance:          balance,
		PaymentAccountID: "pay_act_test_id",
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

func TestLedgerRepository_Insert(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &LedgerRepository{querier: mock, logger: newTestLogger()}
	l := testLedger(ledger.StateOpen, 2000)

	query := `INSERT INTO ledgers \(id, type, currency, state, balance, payment_account_id\)
		VALUES \(\$1, \$2, \$3, \$4, \$5, \$6\)
		RETURNING id, type, currency, state, balance, payment_account_id, created_at, updated_at`

	t.Run("success", func(t *testing.T) {
		mock.ExpectQuery(query).
			WithArgs(l.ID, l.Type, l.Currency, l.State, l.Balance, l.PaymentAccountID).
			WillReturnRows(ledgerRows(l))

		inserted, err := repo.Insert(ctx, l)
		require.NoError(t, err)
		assert.Equal(t, l, inserted)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unique violation", func(t *testing.T) {
		mock.ExpectQuery(query).
			WithArgs(l.ID, l.Type, l.Currency, l.State, l.Balance, l.PaymentAccountID).
			WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "uq_ledgers_open_manual_account"})

		inserted, err := repo.Insert(ctx, l)
		assert.Nil(t, inserted)
		assert.ErrorIs(t, err, shared.ErrUniqueViolation{})
		assert.ErrorIs(t, err, shared.ErrUniqueViolation{Constraint: "uq_ledgers_open_manual_account"})
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("db error", func(t *testing.T) {
		dbErr := errors.New("connection reset")
		mock.ExpectQuery(query).
			WithArgs(l.ID, l.Type, l.Currency, l.State, l.Balance, l.PaymentAccountID).
			WillReturnError(dbErr)

		inserted, err := repo.Insert(ctx, l)
		assert.Nil(t, inserted)
		assert.ErrorIs(t, err, dbErr)
		assert.Contains(t, err.Error(), "failed to insert ledger")
		assert.False(t, errors.Is(err, shared.ErrUniqueViolation{}))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestLedgerRepository_GetByID(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &LedgerRepository{querier: mock, logger: newTestLogger()}
	l := testLedger(ledger.StateOpen, 0)

	query := `FROM ledgers
		WHERE id = \$1`

	t.Run("success", func(t *testing.T) {
		mock.ExpectQuery(query).WithArgs(l.ID).WillReturnRows(ledgerRows(l))

		got, err := repo.GetByID(ctx, l.ID)
		require.NoError(t, err)
		assert.Equal(t, l, got)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery(query).WithArgs(l.ID).WillReturnError(pgx.ErrNoRows)

		got, err := repo.GetByID(ctx, l.ID)
		assert.NoError(t, err)
		assert.Nil(t, got)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("db error", func(t *testing.T) {
		dbErr := errors.New("some db error")
		mock.ExpectQuery(query).WithArgs(l.ID).WillReturnError(dbErr)

		got, err := repo.GetByID(ctx, l.ID)
		assert.Nil(t, got)
		assert.ErrorIs(t, err, dbErr)
		assert.Contains(t, err.Error(), "failed to get ledger")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestLedgerRepository_GetOpenLedgerForAccount(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &LedgerRepository{querier: mock, logger: newTestLogger()}
	account := "pay_act_test_id"

	query := `FROM ledgers
		WHERE payment_account_id = \$1 AND state = \$2 AND type = \$3
		LIMIT 2`

	t.Run("single open ledger", func(t *testing.T) {
		open := testLedger(ledger.StateOpen, 500)
		mock.ExpectQuery(query).
			WithArgs(account, ledger.StateOpen, ledger.TypeManual).
			WillReturnRows(ledgerRows(open))

		got, err := repo.GetOpenLedgerForAccount(ctx, account)
		require.NoError(t, err)
		assert.Equal(t, open, got)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("only paid ledgers", func(t *testing.T) {
		// PAID rows are filtered by the query itself
		mock.ExpectQuery(query).
			WithArgs(account, ledger.StateOpen, ledger.TypeManual).
			WillReturnRows(ledgerRows())

		got, err := repo.GetOpenLedgerForAccount(ctx, account)
		assert.NoError(t, err)
		assert.Nil(t, got)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("multiple open ledgers", func(t *testing.T) {
		mock.ExpectQuery(query).
			WithArgs(account, ledger.StateOpen, ledger.TypeManual).
			WillReturnRows(ledgerRows(testLedger(ledger.StateOpen, 1), testLedger(ledger.StateOpen, 2)))

		got, err := repo.GetOpenLedgerForAccount(ctx, account)
		assert.Nil(t, got)
		assert.ErrorIs(t, err, ledger.ErrMultipleOpenLedgers{PaymentAccountID: account})
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("query error", func(t *testing.T) {
		dbErr := errors.New("timeout")
		mock.ExpectQuery(query).
			WithArgs(account, ledger.StateOpen, ledger.TypeManual).
			WillReturnError(dbErr)

		got, err := repo.GetOpenLedgerForAccount(ctx, account)
		assert.Nil(t, got)
		assert.ErrorIs(t, err, dbErr)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestLedgerRepository_UpdateBalance(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &LedgerRepository{querier: mock, logger: newTestLogger()}
	l := testLedger(ledger.StateOpen, 4000)

	query := `UPDATE ledgers
		SET balance = \$1, updated_at = NOW\(\)
		WHERE id = \$2`

	t.Run("success", func(t *testing.T) {
		mock.ExpectQuery(query).WithArgs(int64(4000), l.ID).WillReturnRows(ledgerRows(l))

		got, err := repo.UpdateBalance(ctx, l.ID, 4000)
		require.NoError(t, err)
		assert.Equal(t, int64(4000), got.Balance)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		missing := uuid.New()
		mock.ExpectQuery(query).WithArgs(int64(10), missing).WillReturnError(pgx.ErrNoRows)

		got, err := repo.UpdateBalance(ctx, missing, 10)
		assert.Nil(t, got)
		assert.ErrorIs(t, err, shared.ErrRecordNotFound{Entity: "ledger", ID: missing.String()})
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("db error", func(t *testing.T) {
		dbErr := errors.New("deadlock detected")
		mock.ExpectQuery(query).WithArgs(int64(10), l.ID).WillReturnError(dbErr)

		got, err := repo.UpdateBalance(ctx, l.ID, 10)
		assert.Nil(t, got)
		assert.ErrorIs(t, err, dbErr)
		assert.Contains(t, err.Error(), "failed to update ledger balance")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestLedgerRepository_LockForUpdate(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &LedgerRepository{querier: mock, logger: newTestLogger()}
	l := testLedger(ledger.StateOpen, 2000)

	query := `WHERE id = \$1
		FOR UPDATE`

	t.Run("success", func(t *testing.T) {
		mock.ExpectQuery(query).WithArgs(l.ID).WillReturnRows(ledgerRows(l))

		got, err := repo.LockForUpdate(ctx, l.ID)
		require.NoError(t, err)
		assert.Equal(t, l, got)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery(query).WithArgs(l.ID).WillReturnError(pgx.ErrNoRows)

		got, err := repo.LockForUpdate(ctx, l.ID)
		assert.Nil(t, got)
		assert.ErrorIs(t, err, shared.ErrRecordNotFound{Entity: "ledger"})
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
