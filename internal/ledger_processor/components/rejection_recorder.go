package components

import (
	"context"
	"log/slog"
	"time"

	"github.com/payment-ledger/internal/domain/activity"
	"github.com/payment-ledger/internal/domain/shared"
	"github.com/payment-ledger/internal/ledger_processor/service"
)

type RejectionRecorderImpl struct {
	activityRepo activity.Repository
	logger       *slog.Logger
	now          func() time.Time
}

func NewRejectionRecorder(activityRepo activity.Repository, logger *slog.Logger) service.RejectionRecorder {
	return &RejectionRecorderImpl{
		activityRepo: activityRepo,
		logger:       logger,
		now:          time.Now,
	}
}

// RecordRejection upserts a REJECTED activity entry keyed by the command's
// account and idempotency key, so redelivered commands overwrite one entry.
func (r *RejectionRecorderImpl) RecordRejection(ctx context.Context, cmd *shared.LedgerCommand, reason shared.RejectionReason, detail string) error {
	logger := r.logger
	if cmd.CorrelationID != "" {
		logger = r.logger.With("correlation_id", cmd.CorrelationID)
	}

	entry := &activity.Entry{
		ID:               activity.RejectedEntryID(cmd.PaymentAccountID(), cmd.IdempotencyKey()),
		PaymentAccountID: cmd.PaymentAccountID(),
		IdempotencyKey:   cmd.IdempotencyKey(),
		CommandType:      cmd.Type,
		CorrelationID:    cmd.CorrelationID,
		Status:           activity.StatusRejected,
		RejectionReason:  reason,
		Detail:           detail,
		CreatedAt:        r.now().UTC(),
	}

	switch {
	case cmd.CreateWithLedger != nil:
		entry.Amount = cmd.CreateWithLedger.Amount
		entry.Currency = cmd.CreateWithLedger.Currency
		entry.TargetType = cmd.CreateWithLedger.TargetType
		entry.RoutingKey = cmd.CreateWithLedger.RoutingKey
	case cmd.Insert != nil:
		entry.LedgerID = cmd.Insert.LedgerID
		entry.Amount = cmd.Insert.Amount
		entry.Currency = cmd.Insert.Currency
		entry.TargetType = cmd.Insert.TargetType
		entry.RoutingKey = cmd.Insert.RoutingKey
	case cmd.OneOff != nil:
		entry.Amount = cmd.OneOff.InitialBalance
		entry.Currency = cmd.OneOff.Currency
		entry.TargetType = shared.TargetTypeMicroDeposit
		entry.RoutingKey = cmd.OneOff.RoutingKey
	}

	logger.Info("Recording rejected command", "entry_id", entry.ID, "reason", reason)

	if err := r.activityRepo.Upsert(ctx, entry); err != nil {
		logger.Error("Failed to record rejected command", "entry_id", entry.ID, "error", err)
		return err
	}
	return nil
}
