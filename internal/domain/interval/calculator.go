// Package interval computes the time windows scheduled ledgers are bucketed into.
package interval

import (
	"errors"
	"fmt"
	"time"

	"github.com/payment-ledger/internal/domain/shared"
)

// DefaultReferenceTimezone is the location window boundaries are computed in.
const DefaultReferenceTimezone = "America/Los_Angeles"

var ErrUnsupportedIntervalType = errors.New("unsupported interval type")

// Window is the half-open range [Start, End).
type Window struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// Calculator maps a routing timestamp to its daily or weekly window. It holds no
// mutable state and is safe for concurrent use.
type Calculator struct {
	location  *time.Location
	weekStart time.Weekday
}

// NewCalculator returns a calculator for loc with weeks starting on weekStart.
func NewCalculator(loc *time.Location, weekStart time.Weekday) *Calculator {
	if loc == nil {
		loc = time.UTC
	}
	return &Calculator{location: loc, weekStart: weekStart}
}

// NewCalculatorForTimezone resolves an IANA timezone name.
func NewCalculatorForTimezone(name string, weekStart time.Weekday) (*Calculator, error) {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("failed to load reference timezone %q: %w", name, err)
	}
	return NewCalculator(loc, weekStart), nil
}

func (c *Calculator) Location() *time.Location {
	return c.location
}

// WindowFor returns the window of intervalType that contains routingKey. Ends are
// calendar boundaries, so a daily window spanning a DST change lasts 23 or 25 hours.
func (c *Calculator) WindowFor(routingKey time.Time, intervalType shared.IntervalType) (Window, error) {
	local := routingKey.In(c.location)
	midnight := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, c.location)

	switch intervalType {
	case shared.IntervalTypeDaily:
		return Window{Start: midnight, End: midnight.AddDate(0, 0, 1)}, nil
	case shared.IntervalTypeWeekly:
		back := (int(local.Weekday()) - int(c.weekStart) + 7) % 7
		start := midnight.AddDate(0, 0, -back)
		return Window{Start: start, End: start.AddDate(0, 0, 7)}, nil
	default:
		return Window{}, fmt.Errorf("%w: %q", ErrUnsupportedIntervalType, intervalType)
	}
}
