// Package postgres provides PostgreSQL implementations of the ledger, scheduled ledger,
// transaction and outbox repositories, plus the unit of work that binds them to one
// database transaction.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/payment-ledger/internal/domain/ledger"
	"github.com/payment-ledger/internal/domain/shared"
	"github.com/payment-ledger/internal/platform/persistence"
)

const ledgerColumns = `id, type, currency, state, balance, payment_account_id, created_at, updated_at`

// LedgerRepository implements the ledger.Repository interface for PostgreSQL
type LedgerRepository struct {
	querier persistence.Querier // Can be *pgxpool.Pool or pgx.Tx
	logger  *slog.Logger
}

// NewLedgerRepository creates a repository running on the connection pool
func NewLedgerRepository(logger *slog.Logger, db *persistence.PostgresDB) *LedgerRepository {
	return &LedgerRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

func scanLedger(row pgx.Row) (*ledger.Ledger, error) {
	var l ledger.Ledger
	err := row.Scan(
		&l.ID,
		&l.Type,
		&l.Currency,
		&l.State,
		&l.Balance,
		&l.PaymentAccountID,
		&l.CreatedAt,
		&l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// Insert stores a new ledger and returns the row with its server-assigned timestamps.
// A duplicate id, or a second open manual ledger for the account, returns
// shared.ErrUniqueViolation.
func (r *LedgerRepository) Insert(ctx context.Context, l *ledger.Ledger) (*ledger.Ledger, error) {
	query := `
		INSERT INTO ledgers (id, type, currency, state, balance, payment_account_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + ledgerColumns

	inserted, err := scanLedger(r.querier.QueryRow(ctx, query,
		l.ID,
		l.Type,
		l.Currency,
		l.State,
		l.Balance,
		l.PaymentAccountID,
	))
	if err != nil {
		err = mapUniqueViolation(err)
		if errors.Is(err, shared.ErrUniqueViolation{}) {
			return nil, err
		}
		r.logger.Error("Failed to insert ledger", "id", l.ID.String(), "error", err)
		return nil, fmt.Errorf("failed to insert ledger: %w", err)
	}

	return inserted, nil
}

// GetByID returns the ledger, or nil when it does not exist
func (r *LedgerRepository) GetByID(ctx context.Context, id uuid.UUID) (*ledger.Ledger, error) {
	query := `
		SELECT ` + ledgerColumns + `
		FROM ledgers
		WHERE id = $1
	`

	l, err := scanLedger(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error("Failed to get ledger", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get ledger: %w", err)
	}

	return l, nil
}

// GetOpenLedgerForAccount returns the OPEN manual ledger of the account, or nil.
// Finding more than one is an integrity fault reported as ErrMultipleOpenLedgers.
func (r *LedgerRepository) GetOpenLedgerForAccount(ctx context.Context, paymentAccountID string) (*ledger.Ledger, error) {
	query := `
		SELECT ` + ledgerColumns + `
		FROM ledgers
		WHERE payment_account_id = $1 AND state = $2 AND type = $3
		LIMIT 2
	`

	rows, err := r.querier.Query(ctx, query, paymentAccountID, ledger.StateOpen, ledger.TypeManual)
	if err != nil {
		r.logger.Error("Failed to get open ledger", "payment_account_id", paymentAccountID, "error", err)
		return nil, fmt.Errorf("failed to get open ledger: %w", err)
	}
	defer rows.Close()

	var open []*ledger.Ledger
	for rows.Next() {
		l, err := scanLedger(rows)
		if err != nil {
			r.logger.Error("Failed to scan ledger", "payment_account_id", paymentAccountID, "error", err)
			return nil, fmt.Errorf("failed to scan ledger: %w", err)
		}
		open = append(open, l)
	}
	if err := rows.Err(); err != nil {
		r.logger.Error("Error iterating over open ledgers", "payment_account_id", paymentAccountID, "error", err)
		return nil, fmt.Errorf("error iterating over open ledgers: %w", err)
	}

	switch len(open) {
	case 0:
		return nil, nil
	case 1:
		return open[0], nil
	default:
		r.logger.Error("Multiple open ledgers found", "payment_account_id", paymentAccountID)
		return nil, ledger.ErrMultipleOpenLedgers{PaymentAccountID: paymentAccountID}
	}
}

// UpdateBalance overwrites the balance and bumps updated_at
func (r *LedgerRepository) UpdateBalance(ctx context.Context, id uuid.UUID, newBalance int64) (*ledger.Ledger, error) {
	query := `
		UPDATE ledgers
		SET balance = $1, updated_at = NOW()
		WHERE id = $2
		RETURNING ` + ledgerColumns

	l, err := scanLedger(r.querier.QueryRow(ctx, query, newBalance, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrRecordNotFound{Entity: "ledger", ID: id.String()}
		}
		r.logger.Error("Failed to update ledger balance", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to update ledger balance: %w", err)
	}

	return l, nil
}

// LockForUpdate obtains a row lock on the ledger and returns its current state.
// It must run inside a transaction to have any effect.
func (r *LedgerRepository) LockForUpdate(ctx context.Context, id uuid.UUID) (*ledger.Ledger, error) {
	query := `
		SELECT ` + ledgerColumns + `
		FROM ledgers
		WHERE id = $1
		FOR UPDATE
	`

	l, err := scanLedger(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrRecordNotFound{Entity: "ledger", ID: id.String()}
		}
		r.logger.Error("Failed to lock ledger for update", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to lock ledger for update: %w", err)
	}

	return l, nil
}
