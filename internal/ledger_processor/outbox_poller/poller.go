package outbox_poller

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/payment-ledger/internal/config"
	"github.com/payment-ledger/internal/domain/outbox"
	"github.com/payment-ledger/internal/domain/shared"
)

// Publisher delivers one committed event to a downstream target. Implementations must
// tolerate redelivery of the same message.
type Publisher interface {
	Name() string
	Publish(ctx context.Context, message *outbox.Message, event *outbox.TransactionRecorded) error
}

// Poller processes pending outbox messages
type Poller struct {
	outboxRepo       outbox.Repository
	publishers       []Publisher
	logger           *slog.Logger
	pollInterval     time.Duration
	batchSize        int
	maxRetryAttempts int
}

func NewPoller(
	cfg *config.OutboxConfig,
	outboxRepo outbox.Repository,
	logger *slog.Logger,
	publishers ...Publisher,
) *Poller {
	return &Poller{
		outboxRepo:       outboxRepo,
		publishers:       publishers,
		logger:           logger,
		pollInterval:     cfg.PollingInterval,
		batchSize:        cfg.BatchSize,
		maxRetryAttempts: cfg.MaxRetryAttempts,
	}
}

// Start begins polling until context is canceled
func (p *Poller) Start(ctx context.Context) {
	p.logger.Info("Starting Outbox Poller",
		"poll_interval", p.pollInterval.String(),
		"batch_size", p.batchSize,
		"max_retry_attempts", p.maxRetryAttempts,
		"publishers", len(p.publishers),
	)
	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("Outbox Poller stopping due to context cancellation.")
			return
		case <-ticker.C:
			if err := p.processPendingMessages(ctx); err != nil {
				p.logger.Error("Error during batch processing of pending outbox messages", "error", err)
			}
		}
	}
}

func (p *Poller) processPendingMessages(ctx context.Context) error {
	messages, err := p.outboxRepo.GetPending(ctx, p.batchSize)
	if err != nil {
		return fmt.Errorf("failed to get pending outbox messages: %w", err)
	}

	if len(messages) == 0 {
		p.logger.Debug("No pending outbox messages found.")
		return nil
	}

	p.logger.Info("Fetched pending outbox messages", "count", len(messages))

	for _, msg := range messages {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		p.processMessage(ctx, msg)
	}
	return nil
}

func (p *Poller) processMessage(ctx context.Context, msg *outbox.Message) {
	event, err := msg.Event()
	if err != nil || event.Transaction == nil {
		p.logger.Error("Failed to decode outbox payload, marking as FAILED_TO_PUBLISH",
			"outbox_id", msg.ID, "transaction_id", msg.TransactionID.String(), "error", err,
		)
		if errUpdate := p.outboxRepo.UpdateStatus(ctx, msg.ID, shared.OutboxStatusFailedToPublish); errUpdate != nil {
			p.logger.Error("Failed to update outbox status to FAILED_TO_PUBLISH", "outbox_id", msg.ID, "error", errUpdate)
		}
		return
	}

	logger := p.logger
	if event.CorrelationID != "" {
		logger = p.logger.With("correlation_id", event.CorrelationID)
	}

	failed := 0
	for _, publisher := range p.publishers {
		if err := publisher.Publish(ctx, msg, event); err != nil {
			failed++
			logger.Error("Failed to publish outbox message",
				"publisher", publisher.Name(),
				"outbox_id", msg.ID,
				"transaction_id", msg.TransactionID.String(),
				"current_attempts", msg.Attempts,
				"error", err,
			)
		}
	}

	if failed == 0 {
		if err := p.outboxRepo.UpdateStatus(ctx, msg.ID, shared.OutboxStatusProcessed); err != nil {
			logger.Error("Failed to update outbox message status to PROCESSED", "outbox_id", msg.ID, "error", err)
			return
		}
		logger.Info("Outbox message published and marked as PROCESSED", "outbox_id", msg.ID, "transaction_id", msg.TransactionID.String())
		return
	}

	if errInc := p.outboxRepo.IncrementAttempts(ctx, msg.ID); errInc != nil {
		logger.Error("Failed to increment attempts for outbox message", "outbox_id", msg.ID, "error", errInc)
		return
	}

	if msg.Attempts+1 >= p.maxRetryAttempts {
		logger.Warn("Max retry attempts reached for outbox message, marking as FAILED_TO_PUBLISH",
			"outbox_id", msg.ID, "transaction_id", msg.TransactionID.String(), "attempts_made", msg.Attempts+1,
		)
		if errUpdate := p.outboxRepo.UpdateStatus(ctx, msg.ID, shared.OutboxStatusFailedToPublish); errUpdate != nil {
			logger.Error("Failed to update outbox status to FAILED_TO_PUBLISH after max retries", "outbox_id", msg.ID, "error", errUpdate)
		}
	}
}
