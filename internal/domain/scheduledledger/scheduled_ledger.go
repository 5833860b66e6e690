// Package scheduledledger maps an account's daily or weekly window onto the ledger
// that collects its transactions.
package scheduledledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/payment-ledger/internal/domain/interval"
	"github.com/payment-ledger/internal/domain/shared"
)

// ScheduledLedger links one window of one account to its ledger. Rows are never
// updated; the next window gets a new row.
type ScheduledLedger struct {
	ID               uuid.UUID           `json:"id"`
	PaymentAccountID string              `json:"payment_account_id"`
	LedgerID         uuid.UUID           `json:"ledger_id"`
	IntervalType     shared.IntervalType `json:"interval_type"`
	StartTime        time.Time           `json:"start_time"`
	EndTime          time.Time           `json:"end_time"`
}

// New builds the scheduled ledger row for window.
func New(paymentAccountID string, ledgerID uuid.UUID, intervalType shared.IntervalType, window interval.Window) *ScheduledLedger {
	return &ScheduledLedger{
		ID:               uuid.New(),
		PaymentAccountID: paymentAccountID,
		LedgerID:         ledgerID,
		IntervalType:     intervalType,
		StartTime:        window.Start,
		EndTime:          window.End,
	}
}

// Window returns the row's [StartTime, EndTime) range.
func (s *ScheduledLedger) Window() interval.Window {
	return interval.Window{Start: s.StartTime, End: s.EndTime}
}

// Repository manages scheduled ledger persistence
type Repository interface {
	Insert(ctx context.Context, scheduled *ScheduledLedger) (*ScheduledLedger, error)

	// GetOpenForPeriod looks up the row for the window containing routingKey
	GetOpenForPeriod(ctx context.Context, paymentAccountID string, routingKey time.Time, intervalType shared.IntervalType) (*ScheduledLedger, error)
}
