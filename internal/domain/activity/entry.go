// Package activity is the read model of ledger activity: every recorded
// transaction and every command the processor refused, per payment account.
package activity

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/payment-ledger/internal/domain/shared"
)

// Status tells recorded transactions and rejected commands apart
type Status string

const (
	StatusRecorded Status = "RECORDED"
	StatusRejected Status = "REJECTED"
)

// Entry is one document of the activity collection
type Entry struct {
	ID               string                 `json:"id" bson:"_id"`
	TransactionID    uuid.UUID              `json:"transaction_id,omitempty" bson:"transaction_id,omitempty"`
	LedgerID         uuid.UUID              `json:"ledger_id,omitempty" bson:"ledger_id,omitempty"`
	PaymentAccountID string                 `json:"payment_account_id" bson:"payment_account_id"`
	Amount           int64                  `json:"amount" bson:"amount"` // Stored in cents/minor units
	Currency         shared.Currency        `json:"currency" bson:"currency"`
	LedgerBalance    *int64                 `json:"ledger_balance,omitempty" bson:"ledger_balance,omitempty"`
	IdempotencyKey   string                 `json:"idempotency_key" bson:"idempotency_key"`
	TargetType       shared.TargetType      `json:"target_type,omitempty" bson:"target_type,omitempty"`
	CommandType      shared.CommandType     `json:"command_type,omitempty" bson:"command_type,omitempty"`
	CorrelationID    string                 `json:"correlation_id,omitempty" bson:"correlation_id,omitempty"`
	Status           Status                 `json:"status" bson:"status"`
	RejectionReason  shared.RejectionReason `json:"rejection_reason,omitempty" bson:"rejection_reason,omitempty"`
	Detail           string                 `json:"detail,omitempty" bson:"detail,omitempty"`
	RoutingKey       time.Time              `json:"routing_key" bson:"routing_key"`
	CreatedAt        time.Time              `json:"created_at" bson:"created_at"`
}

// RecordedEntryID keys a recorded entry by its transaction, so republishing an
// outbox message overwrites instead of duplicating.
func RecordedEntryID(transactionID uuid.UUID) string {
	return "txn:" + transactionID.String()
}

// RejectedEntryID keys a rejection by the caller's natural key.
func RejectedEntryID(paymentAccountID, idempotencyKey string) string {
	return "rejected:" + paymentAccountID + ":" + idempotencyKey
}

// Filter narrows an account's activity. Zero fields are ignored.
type Filter struct {
	PaymentAccountID string
	Status           Status
	From             time.Time // inclusive, on routing key
	To               time.Time // exclusive, on routing key
}

// Repository manages activity persistence with pagination support
type Repository interface {
	Upsert(ctx context.Context, entry *Entry) error
	GetByTransactionID(ctx context.Context, transactionID uuid.UUID) (*Entry, error)
	List(ctx context.Context, filter Filter, limit, offset int) ([]*Entry, error)
	Count(ctx context.Context, filter Filter) (int64, error)
}

// ErrEntryNotFound indicates missing activity entry
type ErrEntryNotFound struct {
	TransactionID uuid.UUID
}

func (e ErrEntryNotFound) Error() string {
	return "activity entry not found: " + e.TransactionID.String()
}

// Is implements the errors.Is interface for ErrEntryNotFound
func (e ErrEntryNotFound) Is(target error) bool {
	t, ok := target.(ErrEntryNotFound)
	if !ok {
		return false
	}
	if t.TransactionID == uuid.Nil {
		return true
	}
	return e.TransactionID == t.TransactionID
}
