package handler

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/payment-ledger/internal/domain/shared"
	"github.com/shopspring/decimal"
)

var (
	errAmountNotWhole    = errors.New("amount must be a whole number of minor units")
	errAmountOutOfBounds = errors.New("amount is out of range")

	minInt64 = decimal.NewFromInt(math.MinInt64)
	maxInt64 = decimal.NewFromInt(math.MaxInt64)
)

// ParseMinorUnits reads a signed amount in minor units, e.g. "-2000" for -20.00 USD.
// Amounts travel as strings so 64-bit values survive JSON clients that use doubles.
func ParseMinorUnits(s string) (int64, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	if !d.IsInteger() {
		return 0, fmt.Errorf("%w: %q", errAmountNotWhole, s)
	}
	if d.LessThan(minInt64) || d.GreaterThan(maxInt64) {
		return 0, fmt.Errorf("%w: %q", errAmountOutOfBounds, s)
	}
	return d.IntPart(), nil
}

// FormatMajorUnits renders minor units in the currency's major unit, 2000 USD as "20.00"
func FormatMajorUnits(amount int64, currency shared.Currency) string {
	exp := currency.Exponent()
	return decimal.New(amount, -exp).StringFixed(exp)
}
