package outbox_poller

import (
	"context"

	"github.com/payment-ledger/internal/domain/outbox"
	"github.com/payment-ledger/internal/platform/messaging/producers"
)

// EventPublisher forwards outbox messages to the ledger events topic
type EventPublisher struct {
	producer producers.EventPublisher
}

func NewEventPublisher(producer producers.EventPublisher) *EventPublisher {
	return &EventPublisher{producer: producer}
}

func (p *EventPublisher) Name() string {
	return "ledger_events"
}

func (p *EventPublisher) Publish(ctx context.Context, message *outbox.Message, _ *outbox.TransactionRecorded) error {
	return p.producer.PublishEvent(ctx, message)
}
