package producers

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/payment-ledger/internal/config"
	"github.com/payment-ledger/internal/domain/outbox"
	"github.com/segmentio/kafka-go"
)

// LedgerEventProducer publishes outbox payloads keyed by ledger id
type LedgerEventProducer struct {
	logger *slog.Logger
	writer KafkaWriter
	topic  string
}

func NewLedgerEventProducer(logger *slog.Logger, cfg *config.KafkaConfig) (*LedgerEventProducer, error) {
	if cfg.EventsTopic == "" {
		return nil, fmt.Errorf("kafka events topic is not configured")
	}

	if err := ensureTopic(cfg, cfg.EventsTopic, logger); err != nil {
		return nil, fmt.Errorf("failed to ensure events topic %s exists: %w", cfg.EventsTopic, err)
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.BrokerList()...),
		Topic:        cfg.EventsTopic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		WriteTimeout: cfg.MaxWait,
	}

	return &LedgerEventProducer{
		logger: logger,
		writer: writer,
		topic:  cfg.EventsTopic,
	}, nil
}

// PublishEvent writes the stored payload as is; consumers decode TransactionRecorded
func (p *LedgerEventProducer) PublishEvent(ctx context.Context, message *outbox.Message) error {
	msg := kafka.Message{
		Key:   []byte(message.LedgerID.String()),
		Value: message.Payload,
		Headers: []kafka.Header{
			{Key: HeaderEventType, Value: []byte(EventTypeTransactionRecorded)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("Failed to publish ledger event",
			"topic", p.topic,
			"outbox_id", message.ID,
			"transaction_id", message.TransactionID.String(),
			"error", err,
		)
		return fmt.Errorf("failed to publish ledger event %d to %s: %w", message.ID, p.topic, err)
	}

	p.logger.Debug("Published ledger event",
		"topic", p.topic,
		"outbox_id", message.ID,
		"ledger_id", message.LedgerID.String(),
	)
	return nil
}

func (p *LedgerEventProducer) Close() error {
	p.logger.Info("Closing ledger event producer", "topic", p.topic)
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("failed to close kafka writer for topic %s: %w", p.topic, err)
	}
	return nil
}
