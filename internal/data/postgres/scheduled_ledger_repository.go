package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/payment-ledger/internal/domain/interval"
	"github.com/payment-ledger/internal/domain/scheduledledger"
	"github.com/payment-ledger/internal/domain/shared"
	"github.com/payment-ledger/internal/platform/persistence"
)

// ScheduledLedgerRepository implements the scheduledledger.Repository interface for PostgreSQL
type ScheduledLedgerRepository struct {
	querier    persistence.Querier
	logger     *slog.Logger
	calculator *interval.Calculator
}

func NewScheduledLedgerRepository(logger *slog.Logger, db *persistence.PostgresDB, calculator *interval.Calculator) *ScheduledLedgerRepository {
	return &ScheduledLedgerRepository{
		querier:    db.Pool(),
		logger:     logger,
		calculator: calculator,
	}
}

// Insert stores the window mapping. A second row for the same account and window
// returns shared.ErrUniqueViolation.
func (r *ScheduledLedgerRepository) Insert(ctx context.Context, s *scheduledledger.ScheduledLedger) (*scheduledledger.ScheduledLedger, error) {
	query := `
		INSERT INTO scheduled_ledgers (id, payment_account_id, ledger_id, interval_type, start_time, end_time)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.querier.Exec(ctx, query,
		s.ID,
		s.PaymentAccountID,
		s.LedgerID,
		s.IntervalType,
		s.StartTime,
		s.EndTime,
	)
	if err != nil {
		err = mapUniqueViolation(err)
		if errors.Is(err, shared.ErrUniqueViolation{}) {
			return nil, err
		}
		r.logger.Error("Failed to insert scheduled ledger",
			"payment_account_id", s.PaymentAccountID,
			"start_time", s.StartTime,
			"error", err,
		)
		return nil, fmt.Errorf("failed to insert scheduled ledger: %w", err)
	}

	stored := *s
	return &stored, nil
}

// GetOpenForPeriod returns the mapping for the window containing routingKey, or nil
func (r *ScheduledLedgerRepository) GetOpenForPeriod(ctx context.Context, paymentAccountID string, routingKey time.Time, intervalType shared.IntervalType) (*scheduledledger.ScheduledLedger, error) {
	window, err := r.calculator.WindowFor(routingKey, intervalType)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT id, payment_account_id, ledger_id, interval_type, start_time, end_time
		FROM scheduled_ledgers
		WHERE payment_account_id = $1 AND start_time = $2 AND end_time = $3
	`

	var s scheduledledger.ScheduledLedger
	err = r.querier.QueryRow(ctx, query, paymentAccountID, window.Start, window.End).Scan(
		&s.ID,
		&s.PaymentAccountID,
		&s.LedgerID,
		&s.IntervalType,
		&s.StartTime,
		&s.EndTime,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error("Failed to get scheduled ledger for period",
			"payment_account_id", paymentAccountID,
			"start_time", window.Start,
			"error", err,
		)
		return nil, fmt.Errorf("failed to get scheduled ledger for period: %w", err)
	}

	return &s, nil
}
