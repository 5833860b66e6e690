package outbox_poller

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/payment-ledger/internal/domain/activity"
	"github.com/payment-ledger/internal/domain/outbox"
)

// ActivityPublisher projects recorded transactions into the activity read model
type ActivityPublisher struct {
	activityRepo activity.Repository
	logger       *slog.Logger
}

func NewActivityPublisher(activityRepo activity.Repository, logger *slog.Logger) *ActivityPublisher {
	return &ActivityPublisher{
		activityRepo: activityRepo,
		logger:       logger,
	}
}

func (p *ActivityPublisher) Name() string {
	return "activity"
}

// Publish upserts the entry keyed by transaction id, so a redelivered message
// overwrites the earlier projection.
func (p *ActivityPublisher) Publish(ctx context.Context, message *outbox.Message, event *outbox.TransactionRecorded) error {
	txn := event.Transaction
	balance := event.LedgerBalance

	entry := &activity.Entry{
		ID:               activity.RecordedEntryID(txn.ID),
		TransactionID:    txn.ID,
		LedgerID:         txn.LedgerID,
		PaymentAccountID: txn.PaymentAccountID,
		Amount:           txn.Amount,
		Currency:         txn.Currency,
		LedgerBalance:    &balance,
		IdempotencyKey:   txn.IdempotencyKey,
		TargetType:       txn.TargetType,
		CommandType:      event.CommandType,
		CorrelationID:    event.CorrelationID,
		Status:           activity.StatusRecorded,
		RoutingKey:       txn.RoutingKey,
		CreatedAt:        event.RecordedAt,
	}

	if err := p.activityRepo.Upsert(ctx, entry); err != nil {
		return fmt.Errorf("failed to project transaction %s for outbox %d: %w", txn.ID, message.ID, err)
	}

	p.logger.Debug("Projected transaction into activity", "outbox_id", message.ID, "entry_id", entry.ID)
	return nil
}
