package shared

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Validation errors. A failed Validate joins every problem found.
var (
	ErrInvalidAmount          = errors.New("amount must be non-zero")
	ErrInvalidInitialBalance  = errors.New("initial balance must be positive")
	ErrInvalidCurrency        = errors.New("invalid currency")
	ErrInvalidTargetType      = errors.New("invalid target type")
	ErrInvalidLedgerType      = errors.New("invalid ledger type")
	ErrInvalidIntervalType    = errors.New("invalid interval type")
	ErrMissingPaymentAccount  = errors.New("payment account id is required")
	ErrMissingIdempotencyKey  = errors.New("idempotency key is required")
	ErrMissingRoutingKey      = errors.New("routing key is required")
	ErrMissingLedgerID        = errors.New("ledger id is required")
	ErrUnexpectedIntervalType = errors.New("interval type is only valid for scheduled ledgers")
)

// TransactionDetails carries the optional descriptive fields a caller may attach.
type TransactionDetails struct {
	TargetID            *string `json:"target_id,omitempty"`
	Context             *string `json:"context,omitempty"`
	Metadata            *string `json:"metadata,omitempty"`
	LegacyTransactionID *string `json:"legacy_transaction_id,omitempty"`
}

// CreateTransactionWithLedgerRequest records a transaction against the account's
// current ledger, creating that ledger first when none exists.
type CreateTransactionWithLedgerRequest struct {
	PaymentAccountID string       `json:"payment_account_id"`
	Amount           int64        `json:"amount"` // Signed minor units
	Currency         Currency     `json:"currency"`
	LedgerType       LedgerType   `json:"ledger_type"`
	IntervalType     IntervalType `json:"interval_type,omitempty"` // SCHEDULED only
	RoutingKey       time.Time    `json:"routing_key"`
	IdempotencyKey   string       `json:"idempotency_key"`
	TargetType       TargetType   `json:"target_type"`
	TransactionDetails
}

func (r *CreateTransactionWithLedgerRequest) Validate() error {
	errs := validateCommon(r.PaymentAccountID, r.Amount, r.Currency, r.RoutingKey, r.IdempotencyKey, r.TargetType)

	switch r.LedgerType {
	case LedgerTypeScheduled:
		if !r.IntervalType.IsValid() {
			errs = append(errs, ErrInvalidIntervalType)
		}
	case LedgerTypeManual:
		if r.IntervalType != "" {
			errs = append(errs, ErrUnexpectedIntervalType)
		}
	default:
		errs = append(errs, ErrInvalidLedgerType)
	}

	return errors.Join(errs...)
}

// InsertTransactionRequest records a transaction against a known ledger.
type InsertTransactionRequest struct {
	LedgerID         uuid.UUID  `json:"ledger_id"`
	PaymentAccountID string     `json:"payment_account_id"`
	Amount           int64      `json:"amount"`
	Currency         Currency   `json:"currency"`
	RoutingKey       time.Time  `json:"routing_key"`
	IdempotencyKey   string     `json:"idempotency_key"`
	TargetType       TargetType `json:"target_type"`
	TransactionDetails
}

func (r *InsertTransactionRequest) Validate() error {
	errs := validateCommon(r.PaymentAccountID, r.Amount, r.Currency, r.RoutingKey, r.IdempotencyKey, r.TargetType)
	if r.LedgerID == uuid.Nil {
		errs = append(errs, ErrMissingLedgerID)
	}
	return errors.Join(errs...)
}

// CreateOneOffLedgerRequest opens a manual ledger funded by a single micro deposit.
type CreateOneOffLedgerRequest struct {
	PaymentAccountID string    `json:"payment_account_id"`
	InitialBalance   int64     `json:"initial_balance"`
	Currency         Currency  `json:"currency"`
	RoutingKey       time.Time `json:"routing_key"`
	IdempotencyKey   string    `json:"idempotency_key"`
	TransactionDetails
}

func (r *CreateOneOffLedgerRequest) Validate() error {
	var errs []error
	if r.PaymentAccountID == "" {
		errs = append(errs, ErrMissingPaymentAccount)
	}
	if r.InitialBalance <= 0 {
		errs = append(errs, ErrInvalidInitialBalance)
	}
	if !r.Currency.IsValid() {
		errs = append(errs, ErrInvalidCurrency)
	}
	if r.RoutingKey.IsZero() {
		errs = append(errs, ErrMissingRoutingKey)
	}
	if r.IdempotencyKey == "" {
		errs = append(errs, ErrMissingIdempotencyKey)
	}
	return errors.Join(errs...)
}

func validateCommon(account string, amount int64, currency Currency, routingKey time.Time, key string, target TargetType) []error {
	var errs []error
	if account == "" {
		errs = append(errs, ErrMissingPaymentAccount)
	}
	if amount == 0 {
		errs = append(errs, ErrInvalidAmount)
	}
	if !currency.IsValid() {
		errs = append(errs, ErrInvalidCurrency)
	}
	if routingKey.IsZero() {
		errs = append(errs, ErrMissingRoutingKey)
	}
	if key == "" {
		errs = append(errs, ErrMissingIdempotencyKey)
	}
	if !target.IsValid() {
		errs = append(errs, ErrInvalidTargetType)
	}
	return errs
}

// IsValidationError reports whether err came from a request Validate method.
func IsValidationError(err error) bool {
	for _, sentinel := range []error{
		ErrInvalidAmount, ErrInvalidInitialBalance, ErrInvalidCurrency, ErrInvalidTargetType,
		ErrInvalidLedgerType, ErrInvalidIntervalType, ErrMissingPaymentAccount,
		ErrMissingIdempotencyKey, ErrMissingRoutingKey, ErrMissingLedgerID, ErrUnexpectedIntervalType,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}
