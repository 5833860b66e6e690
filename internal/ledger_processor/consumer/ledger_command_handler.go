package consumer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/payment-ledger/internal/domain/ledger"
	"github.com/payment-ledger/internal/domain/shared"
	"github.com/payment-ledger/internal/ledger_processor/service"
	"github.com/payment-ledger/internal/platform/messaging/producers"
)

// LedgerCommandHandler applies ledger commands read from Kafka. Returning nil acks
// the message; returning an error leaves its offset uncommitted.
type LedgerCommandHandler struct {
	processor         service.LedgerProcessor
	rejectionRecorder service.RejectionRecorder
	producer          producers.DeadLetterPublisher
	maxAttempts       int
	retryBackoff      time.Duration
	logger            *slog.Logger
}

// NewLedgerCommandHandler creates a new handler. maxAttempts bounds how often a
// command losing a ledger creation race is run again.
func NewLedgerCommandHandler(
	logger *slog.Logger,
	processor service.LedgerProcessor,
	rejectionRecorder service.RejectionRecorder,
	producer producers.DeadLetterPublisher,
	maxAttempts int,
) *LedgerCommandHandler {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &LedgerCommandHandler{
		processor:         processor,
		rejectionRecorder: rejectionRecorder,
		producer:          producer,
		maxAttempts:       maxAttempts,
		retryBackoff:      50 * time.Millisecond,
		logger:            logger,
	}
}

// HandleMessage processes Kafka messages
func (h *LedgerCommandHandler) HandleMessage(ctx context.Context, key []byte, value []byte) error {
	cmd, err := shared.DecodeLedgerCommand(value)
	if err != nil {
		return h.deadLetter(ctx, key, value, err)
	}

	logger := h.logger
	if cmd.CorrelationID != "" {
		logger = h.logger.With("correlation_id", cmd.CorrelationID)
	}

	logger.Info("Received ledger command",
		"command_type", cmd.Type,
		"payment_account_id", cmd.PaymentAccountID(),
		"idempotency_key", cmd.IdempotencyKey(),
	)

	if err := cmd.Validate(); err != nil {
		logger.Warn("Rejecting invalid ledger command", "command_type", cmd.Type, "error", err)
		return h.reject(ctx, cmd, shared.RejectionReasonInvalidRequest, err)
	}

	ctx = service.WithCommandInfo(ctx, service.CommandInfo{Type: cmd.Type, CorrelationID: cmd.CorrelationID})

	for attempt := 1; ; attempt++ {
		result, err := h.dispatch(ctx, cmd)
		if err == nil {
			logger.Info("Ledger command applied",
				"command_type", cmd.Type,
				"transaction_id", result.Transaction.ID.String(),
				"ledger_id", result.Ledger.ID.String(),
				"attempt", attempt,
			)
			return nil
		}

		switch service.Classify(err) {
		case service.OutcomeConflict:
			logger.Info("Ledger command already applied", "idempotency_key", cmd.IdempotencyKey(), "error", err)
			return nil
		case service.OutcomeRejected:
			logger.Warn("Ledger command rejected", "command_type", cmd.Type, "error", err)
			return h.reject(ctx, cmd, service.RejectionReasonFor(err), err)
		}

		if !errors.Is(err, ledger.ErrConcurrentLedgerCreation{}) {
			logger.Error("Failed to apply ledger command", "command_type", cmd.Type, "attempt", attempt, "error", err)
			return fmt.Errorf("processing %s command for %s failed: %w", cmd.Type, cmd.PaymentAccountID(), err)
		}

		if attempt >= h.maxAttempts {
			logger.Error("Ledger creation still contended after retries", "attempts", attempt, "error", err)
			return h.reject(ctx, cmd, shared.RejectionReasonLedgerContention, err)
		}

		logger.Info("Lost ledger creation race, retrying", "attempt", attempt)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(h.retryBackoff * time.Duration(attempt)):
		}
	}
}

func (h *LedgerCommandHandler) dispatch(ctx context.Context, cmd *shared.LedgerCommand) (*service.Result, error) {
	switch cmd.Type {
	case shared.CommandCreateWithLedger:
		return h.processor.CreateLedgerAndInsertTransaction(ctx, cmd.CreateWithLedger)
	case shared.CommandInsertTransaction:
		return h.processor.InsertTransactionAndUpdateLedger(ctx, cmd.Insert)
	case shared.CommandCreateOneOff:
		return h.processor.CreateOneOffLedger(ctx, cmd.OneOff)
	}
	return nil, fmt.Errorf("%w: %q", shared.ErrUnknownCommandType, cmd.Type)
}

// reject records the refusal in the read model; a failed write leaves the message
// uncommitted so the rejection is not lost.
func (h *LedgerCommandHandler) reject(ctx context.Context, cmd *shared.LedgerCommand, reason shared.RejectionReason, cause error) error {
	if h.rejectionRecorder == nil {
		return nil
	}
	if err := h.rejectionRecorder.RecordRejection(ctx, cmd, reason, cause.Error()); err != nil {
		return fmt.Errorf("failed to record %s rejection: %w", reason, err)
	}
	return nil
}

func (h *LedgerCommandHandler) deadLetter(ctx context.Context, key, value []byte, decodeErr error) error {
	const unmarshalErrorMsg = "Failed to unmarshal ledger command from Kafka message"
	h.logger.Error(unmarshalErrorMsg,
		"error", decodeErr,
		"message_key", string(key),
	)

	if h.producer == nil {
		return decodeErr
	}

	dlqReason := fmt.Sprintf("%s: %s", unmarshalErrorMsg, decodeErr.Error())
	if dlqErr := h.producer.PublishToDLQ(ctx, string(key), value, dlqReason); dlqErr != nil {
		h.logger.Error("Failed to publish message to DLQ after unmarshal error",
			"dlq_error", dlqErr,
			"original_error", decodeErr,
			"message_key", string(key),
		)
		return decodeErr
	}

	h.logger.Info("Published unprocessable message to DLQ", "message_key", string(key))
	return nil
}
