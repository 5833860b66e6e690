package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/payment-ledger/internal/domain/shared"
)

type (
	Type  = shared.LedgerType
	State = shared.LedgerState
)

const (
	TypeManual    = shared.LedgerTypeManual
	TypeScheduled = shared.LedgerTypeScheduled

	StateOpen   = shared.LedgerStateOpen
	StatePaid   = shared.LedgerStatePaid
	StateClosed = shared.LedgerStateClosed
)

// Ledger is an account-scoped running balance. Balance is the signed sum of the
// amounts of every transaction recorded against it.
type Ledger struct {
	ID               uuid.UUID       `json:"id"`
	Type             Type            `json:"type"`
	Currency         shared.Currency `json:"currency"`
	State            State           `json:"state"`
	Balance          int64           `json:"balance"` // Stored in cents/minor units
	PaymentAccountID string          `json:"payment_account_id"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// NewLedger returns an OPEN ledger with the given opening balance. Timestamps are
// assigned by the store on insert.
func NewLedger(ledgerType Type, currency shared.Currency, paymentAccountID string, balance int64) *Ledger {
	return &Ledger{
		ID:               uuid.New(),
		Type:             ledgerType,
		Currency:         currency,
		State:            StateOpen,
		Balance:          balance,
		PaymentAccountID: paymentAccountID,
	}
}

func (l *Ledger) IsOpen() bool {
	return l.State == StateOpen
}

// Accepts checks whether a transaction of paymentAccountID in currency may be
// recorded on this ledger.
func (l *Ledger) Accepts(paymentAccountID string, currency shared.Currency) error {
	if !l.IsOpen() {
		return ErrLedgerNotOpen{LedgerID: l.ID, State: l.State}
	}
	if l.PaymentAccountID != paymentAccountID {
		return ErrAccountMismatch{LedgerID: l.ID, LedgerOwner: l.PaymentAccountID, RequestedFor: paymentAccountID}
	}
	if l.Currency != currency {
		return ErrCurrencyMismatch{LedgerID: l.ID, LedgerCurrency: l.Currency, Requested: currency}
	}
	return nil
}
