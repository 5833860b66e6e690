package components

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/payment-ledger/internal/domain/outbox"
	"github.com/payment-ledger/internal/ledger_processor/service"
	"github.com/payment-ledger/internal/platform/persistence"
)

type OutboxManagerImpl struct {
	logger *slog.Logger
	now    func() time.Time
}

func NewOutboxManager(logger *slog.Logger) service.OutboxManager {
	return &OutboxManagerImpl{
		logger: logger,
		now:    time.Now,
	}
}

// CreateOutboxEntry writes the TransactionRecorded event of result in the same unit of work
func (m *OutboxManagerImpl) CreateOutboxEntry(ctx context.Context, stores persistence.Stores, result *service.Result) error {
	info := service.CommandInfoFrom(ctx)
	logger := m.logger
	if info.CorrelationID != "" {
		logger = m.logger.With("correlation_id", info.CorrelationID)
	}

	event := &outbox.TransactionRecorded{
		Transaction:   result.Transaction,
		LedgerType:    result.Ledger.Type,
		LedgerState:   result.Ledger.State,
		LedgerBalance: result.Ledger.Balance,
		LedgerCreated: result.LedgerCreated,
		CommandType:   info.Type,
		CorrelationID: info.CorrelationID,
		RecordedAt:    m.now().UTC(),
	}

	message, err := outbox.NewMessage(event)
	if err != nil {
		logger.Error("Failed to create new outbox message (marshal payload)",
			"transaction_id", result.Transaction.ID.String(),
			"error", err,
		)
		return fmt.Errorf("failed to create outbox message payload for tx %s: %w", result.Transaction.ID, err)
	}

	if err := stores.Outbox.Create(ctx, message); err != nil {
		logger.Error("Failed to create outbox message",
			"transaction_id", result.Transaction.ID.String(),
			"ledger_id", result.Ledger.ID.String(),
			"error", err,
		)
		return fmt.Errorf("failed to create outbox message for tx %s: %w", result.Transaction.ID, err)
	}
	logger.Info("Outbox message created successfully",
		"transaction_id", result.Transaction.ID.String(),
		"outbox_id", message.ID,
	)
	return nil
}
