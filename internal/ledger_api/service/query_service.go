package service

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/google/uuid"
	"github.com/payment-ledger/internal/domain/activity"
	"github.com/payment-ledger/internal/domain/ledger"
	"github.com/payment-ledger/internal/domain/transaction"
)

// QueryServiceImpl implements the QueryService interface over the ledger store and the
// activity read model
type QueryServiceImpl struct {
	ledgers      ledger.Repository
	transactions transaction.Repository
	activity     activity.Repository
	logger       *slog.Logger
}

// NewQueryService creates a new query service
func NewQueryService(logger *slog.Logger, ledgers ledger.Repository, transactions transaction.Repository, activityRepo activity.Repository) QueryService {
	return &QueryServiceImpl{
		ledgers:      ledgers,
		transactions: transactions,
		activity:     activityRepo,
		logger:       logger,
	}
}

func (s *QueryServiceImpl) GetLedger(ctx context.Context, id uuid.UUID) (*ledger.Ledger, error) {
	l, err := s.ledgers.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("Failed to get ledger by ID", "ledger_id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get ledger: %w", err)
	}
	return l, nil
}

// ListLedgerTransactions returns nil without error when the ledger does not exist, so
// callers should check the ledger first when they need to tell the cases apart.
func (s *QueryServiceImpl) ListLedgerTransactions(ctx context.Context, ledgerID uuid.UUID, page, perPage int) ([]*transaction.Transaction, error) {
	offset := pageOffset(page, perPage)

	txns, err := s.transactions.ListByLedgerID(ctx, ledgerID, perPage, offset)
	if err != nil {
		s.logger.Error("Failed to list ledger transactions", "ledger_id", ledgerID.String(), "error", err)
		return nil, fmt.Errorf("failed to list ledger transactions: %w", err)
	}
	return txns, nil
}

func (s *QueryServiceImpl) GetTransaction(ctx context.Context, id uuid.UUID) (*transaction.Transaction, error) {
	txn, err := s.transactions.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("Failed to get transaction by ID", "transaction_id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return txn, nil
}

func (s *QueryServiceImpl) GetTransactionByIdempotencyKey(ctx context.Context, paymentAccountID, idempotencyKey string) (*transaction.Transaction, error) {
	txn, err := s.transactions.GetByIdempotencyKey(ctx, paymentAccountID, idempotencyKey)
	if err != nil {
		s.logger.Error("Failed to get transaction by idempotency key",
			"payment_account_id", paymentAccountID,
			"idempotency_key", idempotencyKey,
			"error", err,
		)
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return txn, nil
}

func (s *QueryServiceImpl) ListActivity(ctx context.Context, filter activity.Filter, page, perPage int) ([]*activity.Entry, int64, error) {
	offset := pageOffset(page, perPage)

	entries, err := s.activity.List(ctx, filter, perPage, offset)
	if err != nil {
		s.logger.Error("Failed to list activity", "payment_account_id", filter.PaymentAccountID, "error", err)
		return nil, 0, fmt.Errorf("failed to list activity: %w", err)
	}

	total, err := s.activity.Count(ctx, filter)
	if err != nil {
		s.logger.Error("Failed to count activity", "payment_account_id", filter.PaymentAccountID, "error", err)
		return nil, 0, fmt.Errorf("failed to count activity: %w", err)
	}

	return entries, total, nil
}

// pageOffset converts a 1-based page into a row offset, saturating instead of
// overflowing on oversized pages
func pageOffset(page, perPage int) int {
	if page < 1 || perPage < 1 {
		return 0
	}
	if page-1 > math.MaxInt32/perPage {
		return math.MaxInt32
	}
	return (page - 1) * perPage
}
