package producers

import (
	"context"

	"github.com/payment-ledger/internal/domain/outbox"
	"github.com/payment-ledger/internal/domain/shared"
	"github.com/segmentio/kafka-go"
)

// CommandPublisher hands ledger commands to the processor
type CommandPublisher interface {
	Publish(ctx context.Context, cmd *shared.LedgerCommand) error
	Close() error
}

// EventPublisher publishes committed outbox events
type EventPublisher interface {
	PublishEvent(ctx context.Context, message *outbox.Message) error
	Close() error
}

// DeadLetterPublisher handles publishing messages to a Dead Letter Queue
type DeadLetterPublisher interface {
	PublishToDLQ(ctx context.Context, key string, originalMessageValue []byte, reason string) error
	Close() error
}

// KafkaWriter wraps kafka.Writer methods for testing
type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Header keys set on every message this package writes
const (
	HeaderCommandType   = "command-type"
	HeaderCorrelationID = "correlation-id"
	HeaderEventType     = "event-type"
	HeaderDLQReason     = "dlq-reason"
)

// EventTypeTransactionRecorded tags TransactionRecorded events
const EventTypeTransactionRecorded = "TransactionRecorded"
