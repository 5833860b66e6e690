package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/payment-ledger/internal/domain/shared"
	"github.com/payment-ledger/internal/domain/transaction"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var transactionRowColumns = []string{
	"id", "ledger_id", "payment_account_id", "amount", "currency", "idempotency_key", "target_type",
	"routing_key", "target_id", "context", "metadata", "legacy_transaction_id", "created_at",
}

func transactionRows(txns ...*transaction.Transaction) *pgxmock.Rows {
	rows := pgxmock.NewRows(transactionRowColumns)
	for _, txn := range txns {
		rows.AddRow(
			txn.ID, txn.LedgerID, txn.PaymentAccountID, txn.Amount, txn.Currency, txn.IdempotencyKey, txn.TargetType,
			txn.RoutingKey, txn.TargetID, txn.Context, txn.Metadata, txn.LegacyTransactionID, txn.CreatedAt,
		)
	}
	return rows
}

func testTransaction(ledgerID uuid.UUID, key string, amount int64) *transaction.Transaction {
	targetID := "target_1"
	return &transaction.Transaction{
		ID:               uuid.New(),
		LedgerID:         ledgerID,
		PaymentAccountID: "pay_act_test_id",
		Amount:           amount,
		Currency:         shared.CurrencyUSD,
		IdempotencyKey:   key,
		TargetType:       shared.TargetTypeMerchantDelivery,
		RoutingKey:       time.Date(2019, 8, 1, 0, 0, 0, 0, time.UTC),
		TransactionDetails: shared.TransactionDetails{
			TargetID:            &targetID,
			Context:             (*string)(nil),
			Metadata:            (*string)(nil),
			LegacyTransactionID: (*string)(nil),
		},
		CreatedAt: time.Now(),
	}
}

func TestTransactionRepository_Insert(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &TransactionRepository{querier: mock, logger: newTestLogger()}
	txn := testTransaction(uuid.New(), "idem_1", 2000)

	query := `INSERT INTO transactions \(id, ledger_id, payment_account_id, amount, currency, idempotency_key, target_type,`
	args := []interface{}{
		txn.ID, txn.LedgerID, txn.PaymentAccountID, txn.Amount, txn.Currency, txn.IdempotencyKey, txn.TargetType,
		txn.RoutingKey, txn.TargetID, txn.Context, txn.Metadata, txn.LegacyTransactionID,
	}

	t.Run("success", func(t *testing.T) {
		mock.ExpectQuery(query).WithArgs(args...).WillReturnRows(transactionRows(txn))

		inserted, err := repo.Insert(ctx, txn)
		require.NoError(t, err)
		assert.Equal(t, txn, inserted)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("duplicate idempotency key", func(t *testing.T) {
		mock.ExpectQuery(query).WithArgs(args...).
			WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "uq_transactions_account_idempotency_key"})

		inserted, err := repo.Insert(ctx, txn)
		assert.Nil(t, inserted)
		assert.ErrorIs(t, err, shared.ErrUniqueViolation{Constraint: "uq_transactions_account_idempotency_key"})
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("other constraint error", func(t *testing.T) {
		mock.ExpectQuery(query).WithArgs(args...).
			WillReturnError(&pgconn.PgError{Code: "23503", ConstraintName: "transactions_ledger_id_fkey"})

		inserted, err := repo.Insert(ctx, txn)
		assert.Nil(t, inserted)
		assert.False(t, errors.Is(err, shared.ErrUniqueViolation{}))
		assert.Contains(t, err.Error(), "failed to insert transaction")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestTransactionRepository_GetByID(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &TransactionRepository{querier: mock, logger: newTestLogger()}
	txn := testTransaction(uuid.New(), "idem_1", -150)

	query := `FROM transactions
		WHERE id = \$1`

	t.Run("success", func(t *testing.T) {
		mock.ExpectQuery(query).WithArgs(txn.ID).WillReturnRows(transactionRows(txn))

		got, err := repo.GetByID(ctx, txn.ID)
		require.NoError(t, err)
		assert.Equal(t, txn, got)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery(query).WithArgs(txn.ID).WillReturnError(pgx.ErrNoRows)

		got, err := repo.GetByID(ctx, txn.ID)
		assert.NoError(t, err)
		assert.Nil(t, got)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestTransactionRepository_GetByIdempotencyKey(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &TransactionRepository{querier: mock, logger: newTestLogger()}
	txn := testTransaction(uuid.New(), "idem_1", 2000)

	query := `FROM transactions
		WHERE payment_account_id = \$1 AND idempotency_key = \$2`

	t.Run("success", func(t *testing.T) {
		mock.ExpectQuery(query).WithArgs(txn.PaymentAccountID, txn.IdempotencyKey).WillReturnRows(transactionRows(txn))

		got, err := repo.GetByIdempotencyKey(ctx, txn.PaymentAccountID, txn.IdempotencyKey)
		require.NoError(t, err)
		assert.Equal(t, txn.ID, got.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery(query).WithArgs(txn.PaymentAccountID, "other").WillReturnError(pgx.ErrNoRows)

		got, err := repo.GetByIdempotencyKey(ctx, txn.PaymentAccountID, "other")
		assert.NoError(t, err)
		assert.Nil(t, got)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty key", func(t *testing.T) {
		got, err := repo.GetByIdempotencyKey(ctx, txn.PaymentAccountID, "")
		assert.Nil(t, got)
		assert.EqualError(t, err, "idempotency key cannot be empty")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("db error", func(t *testing.T) {
		mock.ExpectQuery(query).WithArgs(txn.PaymentAccountID, txn.IdempotencyKey).WillReturnError(errors.New("boom"))

		got, err := repo.GetByIdempotencyKey(ctx, txn.PaymentAccountID, txn.IdempotencyKey)
		assert.Nil(t, got)
		assert.Contains(t, err.Error(), "failed to get transaction by idempotency key")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestTransactionRepository_ListByLedgerID(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &TransactionRepository{querier: mock, logger: newTestLogger()}
	ledgerID := uuid.New()

	query := `WHERE ledger_id = \$1
		ORDER BY created_at DESC, id
		LIMIT \$2 OFFSET \$3`

	t.Run("success", func(t *testing.T) {
		newer := testTransaction(ledgerID, "idem_2", 2000)
		older := testTransaction(ledgerID, "idem_1", 2000)
		older.CreatedAt = newer.CreatedAt.Add(-time.Minute)

		mock.ExpectQuery(query).WithArgs(ledgerID, 10, 0).WillReturnRows(transactionRows(newer, older))

		txns, err := repo.ListByLedgerID(ctx, ledgerID, 10, 0)
		require.NoError(t, err)
		require.Len(t, txns, 2)
		assert.Equal(t, newer.ID, txns[0].ID)
		assert.Equal(t, older.ID, txns[1].ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty", func(t *testing.T) {
		mock.ExpectQuery(query).WithArgs(ledgerID, 10, 20).WillReturnRows(transactionRows())

		txns, err := repo.ListByLedgerID(ctx, ledgerID, 10, 20)
		require.NoError(t, err)
		assert.NotNil(t, txns)
		assert.Empty(t, txns)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("query error", func(t *testing.T) {
		mock.ExpectQuery(query).WithArgs(ledgerID, 10, 0).WillReturnError(errors.New("boom"))

		txns, err := repo.ListByLedgerID(ctx, ledgerID, 10, 0)
		assert.Nil(t, txns)
		assert.Contains(t, err.Error(), "failed to list transactions")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
