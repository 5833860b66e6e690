package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/payment-ledger/internal/domain/shared"
	"github.com/payment-ledger/internal/domain/transaction"
	"github.com/payment-ledger/internal/platform/messaging/producers"
)

// CommandServiceImpl implements the CommandService interface
type CommandServiceImpl struct {
	transactions transaction.Repository
	publisher    producers.CommandPublisher
	logger       *slog.Logger
}

// NewCommandService creates a new command service
func NewCommandService(logger *slog.Logger, transactions transaction.Repository, publisher producers.CommandPublisher) CommandService {
	return &CommandServiceImpl{
		transactions: transactions,
		publisher:    publisher,
		logger:       logger,
	}
}

// Submit short-circuits replays of an already recorded key. A replay that is still
// in flight is published again and rejected as a duplicate by the processor.
func (s *CommandServiceImpl) Submit(ctx context.Context, cmd *shared.LedgerCommand) (*transaction.Transaction, error) {
	logger := s.logger.With("correlation_id", cmd.CorrelationID)
	account, key := cmd.PaymentAccountID(), cmd.IdempotencyKey()

	existing, err := s.transactions.GetByIdempotencyKey(ctx, account, key)
	if err != nil {
		logger.Error("Failed to check for existing transaction with idempotency key",
			"payment_account_id", account,
			"idempotency_key", key,
			"error", err,
		)
		return nil, fmt.Errorf("failed to check idempotency key: %w", err)
	}
	if existing != nil {
		logger.Info("Found existing transaction with idempotency key",
			"payment_account_id", account,
			"idempotency_key", key,
			"transaction_id", existing.ID.String(),
		)
		return existing, nil
	}

	if err := s.publisher.Publish(ctx, cmd); err != nil {
		logger.Error("Failed to publish ledger command",
			"command_type", string(cmd.Type),
			"payment_account_id", account,
			"idempotency_key", key,
			"error", err,
		)
		return nil, fmt.Errorf("failed to publish ledger command: %w", err)
	}

	logger.Info("Ledger command published",
		"command_type", string(cmd.Type),
		"payment_account_id", account,
		"idempotency_key", key,
	)
	return nil, nil
}
