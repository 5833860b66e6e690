package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/payment-ledger/internal/domain/shared"
	"github.com/payment-ledger/internal/domain/transaction"
	"github.com/payment-ledger/internal/platform/persistence"
)

const transactionColumns = `id, ledger_id, payment_account_id, amount, currency, idempotency_key, target_type,
		routing_key, target_id, context, metadata, legacy_transaction_id, created_at`

// TransactionRepository implements the transaction.Repository interface for PostgreSQL
type TransactionRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

func NewTransactionRepository(logger *slog.Logger, db *persistence.PostgresDB) *TransactionRepository {
	return &TransactionRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

func scanTransaction(row pgx.Row) (*transaction.Transaction, error) {
	var txn transaction.Transaction
	err := row.Scan(
		&txn.ID,
		&txn.LedgerID,
		&txn.PaymentAccountID,
		&txn.Amount,
		&txn.Currency,
		&txn.IdempotencyKey,
		&txn.TargetType,
		&txn.RoutingKey,
		&txn.TargetID,
		&txn.Context,
		&txn.Metadata,
		&txn.LegacyTransactionID,
		&txn.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &txn, nil
}

// Insert stores the transaction. A reused (payment_account_id, idempotency_key) or id
// returns shared.ErrUniqueViolation.
func (r *TransactionRepository) Insert(ctx context.Context, txn *transaction.Transaction) (*transaction.Transaction, error) {
	query := `
		INSERT INTO transactions (id, ledger_id, payment_account_id, amount, currency, idempotency_key, target_type,
			routing_key, target_id, context, metadata, legacy_transaction_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING ` + transactionColumns

	inserted, err := scanTransaction(r.querier.QueryRow(ctx, query,
		txn.ID,
		txn.LedgerID,
		txn.PaymentAccountID,
		txn.Amount,
		txn.Currency,
		txn.IdempotencyKey,
		txn.TargetType,
		txn.RoutingKey,
		txn.TargetID,
		txn.Context,
		txn.Metadata,
		txn.LegacyTransactionID,
	))
	if err != nil {
		err = mapUniqueViolation(err)
		if errors.Is(err, shared.ErrUniqueViolation{}) {
			return nil, err
		}
		r.logger.Error("Failed to insert transaction",
			"id", txn.ID.String(),
			"ledger_id", txn.LedgerID.String(),
			"error", err,
		)
		return nil, fmt.Errorf("failed to insert transaction: %w", err)
	}

	return inserted, nil
}

// GetByID returns the transaction, or nil when it does not exist
func (r *TransactionRepository) GetByID(ctx context.Context, id uuid.UUID) (*transaction.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE id = $1
	`

	txn, err := scanTransaction(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error("Failed to get transaction", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}

	return txn, nil
}

// GetByIdempotencyKey looks a transaction up by its natural key, returning nil on a miss
func (r *TransactionRepository) GetByIdempotencyKey(ctx context.Context, paymentAccountID, idempotencyKey string) (*transaction.Transaction, error) {
	if idempotencyKey == "" {
		return nil, errors.New("idempotency key cannot be empty")
	}

	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE payment_account_id = $1 AND idempotency_key = $2
	`

	txn, err := scanTransaction(r.querier.QueryRow(ctx, query, paymentAccountID, idempotencyKey))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error("Failed to get transaction by idempotency key",
			"payment_account_id", paymentAccountID,
			"idempotency_key", idempotencyKey,
			"error", err,
		)
		return nil, fmt.Errorf("failed to get transaction by idempotency key: %w", err)
	}

	return txn, nil
}

// ListByLedgerID returns a page of the ledger's transactions, newest first
func (r *TransactionRepository) ListByLedgerID(ctx context.Context, ledgerID uuid.UUID, limit, offset int) ([]*transaction.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE ledger_id = $1
		ORDER BY created_at DESC, id
		LIMIT $2 OFFSET $3
	`

	rows, err := r.querier.Query(ctx, query, ledgerID, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list transactions", "ledger_id", ledgerID.String(), "error", err)
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	txns := make([]*transaction.Transaction, 0)
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			r.logger.Error("Failed to scan transaction", "ledger_id", ledgerID.String(), "error", err)
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txns = append(txns, txn)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("Error iterating over transactions", "ledger_id", ledgerID.String(), "error", err)
		return nil, fmt.Errorf("error iterating over transactions: %w", err)
	}

	return txns, nil
}
