package shared

import "strings"

// Currency is an ISO 4217 code. Amounts are always carried in minor units.
type Currency string

const (
	CurrencyUSD Currency = "USD"
	CurrencyCAD Currency = "CAD"
	CurrencyAUD Currency = "AUD"
	CurrencyNZD Currency = "NZD"
	CurrencyEUR Currency = "EUR"
	CurrencyJPY Currency = "JPY"
)

var currencyExponents = map[Currency]int32{
	CurrencyUSD: 2,
	CurrencyCAD: 2,
	CurrencyAUD: 2,
	CurrencyNZD: 2,
	CurrencyEUR: 2,
	CurrencyJPY: 0,
}

// ParseCurrency normalizes code and reports whether it is supported.
func ParseCurrency(code string) (Currency, bool) {
	c := Currency(strings.ToUpper(strings.TrimSpace(code)))
	_, ok := currencyExponents[c]
	return c, ok
}

func (c Currency) IsValid() bool {
	_, ok := currencyExponents[c]
	return ok
}

// Exponent is the number of minor-unit digits, 2 for USD cents.
func (c Currency) Exponent() int32 {
	return currencyExponents[c]
}

// TargetType describes what a transaction pays for.
type TargetType string

const (
	TargetTypeMerchantDelivery TargetType = "merchant_delivery"
	TargetTypeMicroDeposit     TargetType = "micro_deposit"
)

func (t TargetType) IsValid() bool {
	return t == TargetTypeMerchantDelivery || t == TargetTypeMicroDeposit
}

// LedgerType distinguishes ad-hoc ledgers from interval bucketed ones.
type LedgerType string

const (
	LedgerTypeManual    LedgerType = "MANUAL"
	LedgerTypeScheduled LedgerType = "SCHEDULED"
)

func (t LedgerType) IsValid() bool {
	return t == LedgerTypeManual || t == LedgerTypeScheduled
}

// LedgerState is the settlement lifecycle of a ledger.
type LedgerState string

const (
	LedgerStateOpen   LedgerState = "OPEN"
	LedgerStatePaid   LedgerState = "PAID"
	LedgerStateClosed LedgerState = "CLOSED"
)

// IntervalType is the bucket size of a scheduled ledger.
type IntervalType string

const (
	IntervalTypeDaily  IntervalType = "DAILY"
	IntervalTypeWeekly IntervalType = "WEEKLY"
)

func (t IntervalType) IsValid() bool {
	return t == IntervalTypeDaily || t == IntervalTypeWeekly
}

// OutboxStatus defines message publishing states
type OutboxStatus string

const (
	OutboxStatusPending         OutboxStatus = "PENDING"
	OutboxStatusProcessed       OutboxStatus = "PROCESSED"
	OutboxStatusFailedToPublish OutboxStatus = "FAILED_TO_PUBLISH"
)

// RejectionReason categorizes commands the processor will not apply.
type RejectionReason string

const (
	RejectionReasonDuplicateTransaction RejectionReason = "DUPLICATE_TRANSACTION"
	RejectionReasonLedgerNotFound       RejectionReason = "LEDGER_NOT_FOUND"
	RejectionReasonLedgerNotOpen        RejectionReason = "LEDGER_NOT_OPEN"
	RejectionReasonCurrencyMismatch     RejectionReason = "CURRENCY_MISMATCH"
	RejectionReasonAccountMismatch      RejectionReason = "ACCOUNT_MISMATCH"
	RejectionReasonOpenLedgerExists     RejectionReason = "OPEN_LEDGER_EXISTS"
	RejectionReasonInvalidRequest       RejectionReason = "INVALID_REQUEST"
	RejectionReasonLedgerContention     RejectionReason = "LEDGER_CREATION_CONTENDED"
	RejectionReasonUnknownError         RejectionReason = "UNKNOWN_ERROR"
)
