package components

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/payment-ledger/internal/domain/ledger"
	"github.com/payment-ledger/internal/domain/shared"
	"github.com/payment-ledger/internal/domain/transaction"
	"github.com/payment-ledger/internal/ledger_processor/service"
	"github.com/payment-ledger/internal/platform/persistence"
)

// TransactionRecorderImpl implements the TransactionRecorder interface
type TransactionRecorderImpl struct {
	logger *slog.Logger
}

func NewTransactionRecorder(logger *slog.Logger) service.TransactionRecorder {
	return &TransactionRecorderImpl{logger: logger}
}

// Record locks the target ledger, inserts txn and adds its amount to the balance
func (r *TransactionRecorderImpl) Record(ctx context.Context, stores persistence.Stores, txn *transaction.Transaction) (*transaction.Transaction, *ledger.Ledger, error) {
	logger := r.logger
	if info := service.CommandInfoFrom(ctx); info.CorrelationID != "" {
		logger = r.logger.With("correlation_id", info.CorrelationID)
	}

	locked, err := stores.Ledgers.LockForUpdate(ctx, txn.LedgerID)
	if err != nil {
		if errors.Is(err, shared.ErrRecordNotFound{}) {
			logger.Warn("Ledger not found for lock", "ledger_id", txn.LedgerID.String(), "idempotency_key", txn.IdempotencyKey)
			return nil, nil, ledger.ErrLedgerNotFound{LedgerID: txn.LedgerID}
		}
		logger.Error("Failed to lock ledger", "ledger_id", txn.LedgerID.String(), "error", err)
		return nil, nil, fmt.Errorf("failed to lock ledger %s: %w", txn.LedgerID, err)
	}

	if err := locked.Accepts(txn.PaymentAccountID, txn.Currency); err != nil {
		logger.Warn("Ledger refused transaction",
			"ledger_id", locked.ID.String(),
			"state", locked.State,
			"payment_account_id", txn.PaymentAccountID,
			"currency", txn.Currency,
			"error", err,
		)
		return nil, nil, err
	}

	inserted, err := stores.Transactions.Insert(ctx, txn)
	if err != nil {
		if errors.Is(err, shared.ErrUniqueViolation{}) {
			logger.Info("Duplicate transaction", "payment_account_id", txn.PaymentAccountID, "idempotency_key", txn.IdempotencyKey)
			return nil, nil, transaction.ErrDuplicateTransaction{PaymentAccountID: txn.PaymentAccountID, IdempotencyKey: txn.IdempotencyKey}
		}
		logger.Error("Failed to insert transaction", "transaction_id", txn.ID.String(), "error", err)
		return nil, nil, fmt.Errorf("failed to insert transaction %s: %w", txn.ID, err)
	}

	updated, err := stores.Ledgers.UpdateBalance(ctx, locked.ID, locked.Balance+inserted.Amount)
	if err != nil {
		if errors.Is(err, shared.ErrRecordNotFound{}) {
			return nil, nil, ledger.ErrLedgerNotFound{LedgerID: locked.ID}
		}
		logger.Error("Failed to update ledger balance", "ledger_id", locked.ID.String(), "error", err)
		return nil, nil, fmt.Errorf("failed to update balance of ledger %s: %w", locked.ID, err)
	}

	logger.Info("Ledger balance updated",
		"ledger_id", updated.ID.String(),
		"transaction_id", inserted.ID.String(),
		"amount", inserted.Amount,
		"balance", updated.Balance,
	)
	return inserted, updated, nil
}
