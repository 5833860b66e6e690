package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/payment-ledger/internal/domain/shared"
)

// Repository manages ledger persistence
type Repository interface {
	Insert(ctx context.Context, ledger *Ledger) (*Ledger, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Ledger, error)

	// GetOpenLedgerForAccount returns the single OPEN manual ledger of an account
	GetOpenLedgerForAccount(ctx context.Context, paymentAccountID string) (*Ledger, error)
	UpdateBalance(ctx context.Context, id uuid.UUID, newBalance int64) (*Ledger, error)

	// LockForUpdate acquires a row lock for the rest of the unit of work
	LockForUpdate(ctx context.Context, id uuid.UUID) (*Ledger, error)
}

// ErrLedgerNotFound indicates the target ledger does not exist
type ErrLedgerNotFound struct {
	LedgerID uuid.UUID
}

func (e ErrLedgerNotFound) Error() string {
	return "ledger not found: " + e.LedgerID.String()
}

// Is implements the errors.Is interface for ErrLedgerNotFound
func (e ErrLedgerNotFound) Is(target error) bool {
	t, ok := target.(ErrLedgerNotFound)
	if !ok {
		return false
	}
	// If the target LedgerID is empty, consider it a match for any ErrLedgerNotFound
	if t.LedgerID == uuid.Nil {
		return true
	}
	return e.LedgerID == t.LedgerID
}

// ErrConcurrentLedgerCreation indicates another caller created the ledger for the same
// account or window first. Retrying finds the winner's ledger.
type ErrConcurrentLedgerCreation struct {
	PaymentAccountID string
}

func (e ErrConcurrentLedgerCreation) Error() string {
	return "ledger concurrently created for payment account: " + e.PaymentAccountID
}

// Is implements the errors.Is interface for ErrConcurrentLedgerCreation
func (e ErrConcurrentLedgerCreation) Is(target error) bool {
	t, ok := target.(ErrConcurrentLedgerCreation)
	if !ok {
		return false
	}
	if t.PaymentAccountID == "" {
		return true
	}
	return e.PaymentAccountID == t.PaymentAccountID
}

// ErrLedgerNotOpen indicates a write against a PAID or CLOSED ledger
type ErrLedgerNotOpen struct {
	LedgerID uuid.UUID
	State    State
}

func (e ErrLedgerNotOpen) Error() string {
	return fmt.Sprintf("ledger %s is %s", e.LedgerID, e.State)
}

// Is implements the errors.Is interface for ErrLedgerNotOpen
func (e ErrLedgerNotOpen) Is(target error) bool {
	t, ok := target.(ErrLedgerNotOpen)
	if !ok {
		return false
	}
	return t.LedgerID == uuid.Nil || e.LedgerID == t.LedgerID
}

// ErrMultipleOpenLedgers indicates a data-integrity fault: more than one OPEN manual
// ledger exists for an account
type ErrMultipleOpenLedgers struct {
	PaymentAccountID string
}

func (e ErrMultipleOpenLedgers) Error() string {
	return "multiple open ledgers for payment account: " + e.PaymentAccountID
}

// Is implements the errors.Is interface for ErrMultipleOpenLedgers
func (e ErrMultipleOpenLedgers) Is(target error) bool {
	t, ok := target.(ErrMultipleOpenLedgers)
	if !ok {
		return false
	}
	return t.PaymentAccountID == "" || e.PaymentAccountID == t.PaymentAccountID
}

// ErrCurrencyMismatch indicates a transaction currency differing from its ledger
type ErrCurrencyMismatch struct {
	LedgerID       uuid.UUID
	LedgerCurrency shared.Currency
	Requested      shared.Currency
}

func (e ErrCurrencyMismatch) Error() string {
	return fmt.Sprintf("currency mismatch on ledger %s: ledger %s, requested %s", e.LedgerID, e.LedgerCurrency, e.Requested)
}

// Is implements the errors.Is interface for ErrCurrencyMismatch
func (e ErrCurrencyMismatch) Is(target error) bool {
	t, ok := target.(ErrCurrencyMismatch)
	if !ok {
		return false
	}
	return t.LedgerID == uuid.Nil || e.LedgerID == t.LedgerID
}

// ErrOpenLedgerExists indicates the account already holds an OPEN manual ledger, so
// a new one cannot be opened until it settles
type ErrOpenLedgerExists struct {
	PaymentAccountID string
}

func (e ErrOpenLedgerExists) Error() string {
	return "open manual ledger already exists for payment account: " + e.PaymentAccountID
}

// Is implements the errors.Is interface for ErrOpenLedgerExists
func (e ErrOpenLedgerExists) Is(target error) bool {
	t, ok := target.(ErrOpenLedgerExists)
	if !ok {
		return false
	}
	return t.PaymentAccountID == "" || e.PaymentAccountID == t.PaymentAccountID
}

// ErrAccountMismatch indicates a transaction addressed to a ledger owned by another
// payment account
type ErrAccountMismatch struct {
	LedgerID     uuid.UUID
	LedgerOwner  string
	RequestedFor string
}

func (e ErrAccountMismatch) Error() string {
	return fmt.Sprintf("ledger %s belongs to payment account %s, not %s", e.LedgerID, e.LedgerOwner, e.RequestedFor)
}

// Is implements the errors.Is interface for ErrAccountMismatch
func (e ErrAccountMismatch) Is(target error) bool {
	t, ok := target.(ErrAccountMismatch)
	if !ok {
		return false
	}
	return t.LedgerID == uuid.Nil || e.LedgerID == t.LedgerID
}
