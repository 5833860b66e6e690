package outbox

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/payment-ledger/internal/domain/ledger"
	"github.com/payment-ledger/internal/domain/shared"
	"github.com/payment-ledger/internal/domain/transaction"
)

// TransactionRecorded is the event published once a transaction commits
type TransactionRecorded struct {
	Transaction   *transaction.Transaction `json:"transaction"`
	LedgerType    ledger.Type              `json:"ledger_type"`
	LedgerState   ledger.State             `json:"ledger_state"`
	LedgerBalance int64                    `json:"ledger_balance"`
	LedgerCreated bool                     `json:"ledger_created"`
	CommandType   shared.CommandType       `json:"command_type,omitempty"`
	CorrelationID string                   `json:"correlation_id,omitempty"`
	RecordedAt    time.Time                `json:"recorded_at"`
}

// Message stores event data for reliable publishing after commit
type Message struct {
	ID               int64               `json:"id"`
	TransactionID    uuid.UUID           `json:"transaction_id"`
	LedgerID         uuid.UUID           `json:"ledger_id"`
	PaymentAccountID string              `json:"payment_account_id"`
	Payload          json.RawMessage     `json:"payload"`
	Status           shared.OutboxStatus `json:"status"`
	Attempts         int                 `json:"attempts"`
	CreatedAt        time.Time           `json:"created_at"`
	LastAttemptAt    *time.Time          `json:"last_attempt_at,omitempty"`
}

func NewMessage(event *TransactionRecorded) (*Message, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}

	return &Message{
		TransactionID:    event.Transaction.ID,
		LedgerID:         event.Transaction.LedgerID,
		PaymentAccountID: event.Transaction.PaymentAccountID,
		Payload:          payload,
		Status:           shared.OutboxStatusPending,
		CreatedAt:        time.Now(),
	}, nil
}

func (m *Message) IncrementAttempts() {
	m.Attempts++
	now := time.Now()
	m.LastAttemptAt = &now
}

func (m *Message) MarkAsProcessed() {
	m.Status = shared.OutboxStatusProcessed
	now := time.Now()
	m.LastAttemptAt = &now
}

func (m *Message) MarkAsFailed() {
	m.Status = shared.OutboxStatusFailedToPublish
	now := time.Now()
	m.LastAttemptAt = &now
}

// Event decodes the payload
func (m *Message) Event() (*TransactionRecorded, error) {
	var event TransactionRecorded
	if err := json.Unmarshal(m.Payload, &event); err != nil {
		return nil, err
	}
	return &event, nil
}
