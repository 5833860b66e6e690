package producers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/payment-ledger/internal/config"
	"github.com/payment-ledger/internal/domain/shared"
	"github.com/segmentio/kafka-go"
)

// LedgerCommandProducer writes commands keyed by payment account, so one
// account's commands land on one partition in order.
type LedgerCommandProducer struct {
	logger *slog.Logger
	writer KafkaWriter // Interface for testability
	topic  string
}

// NewLedgerCommandProducer ensures the command topic exists and returns a producer for it
func NewLedgerCommandProducer(logger *slog.Logger, cfg *config.KafkaConfig) (*LedgerCommandProducer, error) {
	if cfg.CommandTopic == "" {
		return nil, fmt.Errorf("kafka command topic is not configured")
	}

	if err := ensureTopic(cfg, cfg.CommandTopic, logger); err != nil {
		return nil, fmt.Errorf("failed to ensure command topic %s exists: %w", cfg.CommandTopic, err)
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.BrokerList()...),
		Topic:        cfg.CommandTopic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		WriteTimeout: cfg.MaxWait,
	}

	return &LedgerCommandProducer{
		logger: logger,
		writer: writer,
		topic:  cfg.CommandTopic,
	}, nil
}

func (p *LedgerCommandProducer) Publish(ctx context.Context, cmd *shared.LedgerCommand) error {
	value, err := json.Marshal(cmd)
	if err != nil {
		return fmt.Errorf("failed to marshal ledger command: %w", err)
	}

	key := cmd.PaymentAccountID()
	msg := kafka.Message{
		Key:   []byte(key),
		Value: value,
		Headers: []kafka.Header{
			{Key: HeaderCommandType, Value: []byte(cmd.Type)},
			{Key: HeaderCorrelationID, Value: []byte(cmd.CorrelationID)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("Failed to publish ledger command",
			"topic", p.topic,
			"key", key,
			"command_type", cmd.Type,
			"error", err,
		)
		return fmt.Errorf("failed to publish ledger command to %s: %w", p.topic, err)
	}

	p.logger.Debug("Published ledger command",
		"topic", p.topic,
		"key", key,
		"command_type", cmd.Type,
		"correlation_id", cmd.CorrelationID,
	)
	return nil
}

func (p *LedgerCommandProducer) Close() error {
	p.logger.Info("Closing ledger command producer", "topic", p.topic)
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("failed to close kafka writer for topic %s: %w", p.topic, err)
	}
	return nil
}
