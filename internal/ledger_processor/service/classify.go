package service

import (
	"context"
	"errors"

	"github.com/payment-ledger/internal/domain/interval"
	"github.com/payment-ledger/internal/domain/ledger"
	"github.com/payment-ledger/internal/domain/shared"
	"github.com/payment-ledger/internal/domain/transaction"
)

// Outcome tells a caller what to do with a failed command
type Outcome int

const (
	// OutcomeRetryable failures may succeed when the command is run again
	OutcomeRetryable Outcome = iota
	// OutcomeConflict means the command was already applied
	OutcomeConflict
	// OutcomeRejected commands will never succeed as sent
	OutcomeRejected
)

func (o Outcome) String() string {
	switch o {
	case OutcomeRetryable:
		return "retryable"
	case OutcomeConflict:
		return "conflict"
	case OutcomeRejected:
		return "rejected"
	}
	return "unknown"
}

// Classify maps a processor error to an Outcome. Unknown errors are retryable.
func Classify(err error) Outcome {
	switch {
	case errors.Is(err, transaction.ErrDuplicateTransaction{}):
		return OutcomeConflict
	case errors.Is(err, ledger.ErrConcurrentLedgerCreation{}),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return OutcomeRetryable
	case shared.IsValidationError(err),
		errors.Is(err, interval.ErrUnsupportedIntervalType),
		errors.Is(err, ledger.ErrLedgerNotFound{}),
		errors.Is(err, ledger.ErrLedgerNotOpen{}),
		errors.Is(err, ledger.ErrCurrencyMismatch{}),
		errors.Is(err, ledger.ErrAccountMismatch{}),
		errors.Is(err, ledger.ErrOpenLedgerExists{}),
		errors.Is(err, ledger.ErrMultipleOpenLedgers{}):
		return OutcomeRejected
	}
	return OutcomeRetryable
}

// RejectionReasonFor names why err rejected a command
func RejectionReasonFor(err error) shared.RejectionReason {
	switch {
	case errors.Is(err, transaction.ErrDuplicateTransaction{}):
		return shared.RejectionReasonDuplicateTransaction
	case errors.Is(err, ledger.ErrLedgerNotFound{}):
		return shared.RejectionReasonLedgerNotFound
	case errors.Is(err, ledger.ErrLedgerNotOpen{}):
		return shared.RejectionReasonLedgerNotOpen
	case errors.Is(err, ledger.ErrCurrencyMismatch{}):
		return shared.RejectionReasonCurrencyMismatch
	case errors.Is(err, ledger.ErrAccountMismatch{}):
		return shared.RejectionReasonAccountMismatch
	case errors.Is(err, ledger.ErrOpenLedgerExists{}):
		return shared.RejectionReasonOpenLedgerExists
	case errors.Is(err, ledger.ErrConcurrentLedgerCreation{}):
		return shared.RejectionReasonLedgerContention
	case shared.IsValidationError(err), errors.Is(err, interval.ErrUnsupportedIntervalType):
		return shared.RejectionReasonInvalidRequest
	}
	return shared.RejectionReasonUnknownError
}
