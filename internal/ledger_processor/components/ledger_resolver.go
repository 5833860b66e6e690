package components

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/payment-ledger/internal/domain/interval"
	"github.com/payment-ledger/internal/domain/ledger"
	"github.com/payment-ledger/internal/domain/scheduledledger"
	"github.com/payment-ledger/internal/domain/shared"
	"github.com/payment-ledger/internal/ledger_processor/service"
	"github.com/payment-ledger/internal/platform/persistence"
)

// LedgerResolverImpl implements the LedgerResolver interface
type LedgerResolverImpl struct {
	calculator *interval.Calculator
	logger     *slog.Logger
}

func NewLedgerResolver(calculator *interval.Calculator, logger *slog.Logger) service.LedgerResolver {
	return &LedgerResolverImpl{
		calculator: calculator,
		logger:     logger,
	}
}

// Resolve returns the ledger req belongs to and whether this call created it
func (r *LedgerResolverImpl) Resolve(ctx context.Context, stores persistence.Stores, req *shared.CreateTransactionWithLedgerRequest) (*ledger.Ledger, bool, error) {
	if req.LedgerType == shared.LedgerTypeScheduled {
		return r.resolveScheduled(ctx, stores, req)
	}

	logger := r.loggerFor(ctx)

	open, err := stores.Ledgers.GetOpenLedgerForAccount(ctx, req.PaymentAccountID)
	if err != nil {
		if errors.Is(err, ledger.ErrMultipleOpenLedgers{}) {
			logger.Error("Account has more than one open manual ledger", "payment_account_id", req.PaymentAccountID)
			return nil, false, err
		}
		return nil, false, fmt.Errorf("failed to look up open ledger for %s: %w", req.PaymentAccountID, err)
	}
	if open != nil {
		logger.Debug("Using open manual ledger", "ledger_id", open.ID.String())
		return open, false, nil
	}

	created, err := r.insertManual(ctx, stores, req.PaymentAccountID, req.Currency)
	if err != nil {
		return nil, false, r.creationError(req.PaymentAccountID, err)
	}
	return created, true, nil
}

func (r *LedgerResolverImpl) resolveScheduled(ctx context.Context, stores persistence.Stores, req *shared.CreateTransactionWithLedgerRequest) (*ledger.Ledger, bool, error) {
	logger := r.loggerFor(ctx)

	window, err := r.calculator.WindowFor(req.RoutingKey, req.IntervalType)
	if err != nil {
		return nil, false, err
	}

	existing, err := stores.ScheduledLedgers.GetOpenForPeriod(ctx, req.PaymentAccountID, req.RoutingKey, req.IntervalType)
	if err != nil {
		return nil, false, fmt.Errorf("failed to look up scheduled ledger for %s: %w", req.PaymentAccountID, err)
	}

	if existing != nil {
		l, err := stores.Ledgers.GetByID(ctx, existing.LedgerID)
		if err != nil {
			return nil, false, fmt.Errorf("failed to get scheduled ledger %s: %w", existing.LedgerID, err)
		}
		if l == nil {
			logger.Error("Scheduled ledger row points at a missing ledger", "scheduled_ledger_id", existing.ID.String(), "ledger_id", existing.LedgerID.String())
			return nil, false, ledger.ErrLedgerNotFound{LedgerID: existing.LedgerID}
		}
		if !l.IsOpen() {
			logger.Warn("Window ledger is no longer open", "ledger_id", l.ID.String(), "state", l.State)
			return nil, false, ledger.ErrLedgerNotOpen{LedgerID: l.ID, State: l.State}
		}
		logger.Debug("Using window ledger", "ledger_id", l.ID.String(), "window_start", window.Start, "window_end", window.End)
		return l, false, nil
	}

	created, err := stores.Ledgers.Insert(ctx, ledger.NewLedger(ledger.TypeScheduled, req.Currency, req.PaymentAccountID, 0))
	if err != nil {
		return nil, false, r.creationError(req.PaymentAccountID, err)
	}

	row := scheduledledger.New(req.PaymentAccountID, created.ID, req.IntervalType, window)
	if _, err := stores.ScheduledLedgers.Insert(ctx, row); err != nil {
		if errors.Is(err, shared.ErrUniqueViolation{}) {
			logger.Info("Lost race for window ledger",
				"payment_account_id", req.PaymentAccountID,
				"window_start", window.Start,
				"window_end", window.End,
			)
		}
		return nil, false, r.creationError(req.PaymentAccountID, err)
	}

	logger.Info("Created window ledger",
		"ledger_id", created.ID.String(),
		"interval_type", req.IntervalType,
		"window_start", window.Start,
		"window_end", window.End,
	)
	return created, true, nil
}

// CreateManual opens a new manual ledger with a zero balance. An account that already
// holds an open manual ledger gets ErrOpenLedgerExists, whether it was found up front
// or committed by a concurrent caller; retrying cannot change that.
func (r *LedgerResolverImpl) CreateManual(ctx context.Context, stores persistence.Stores, paymentAccountID string, currency shared.Currency) (*ledger.Ledger, error) {
	logger := r.loggerFor(ctx)

	open, err := stores.Ledgers.GetOpenLedgerForAccount(ctx, paymentAccountID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up open ledger for %s: %w", paymentAccountID, err)
	}
	if open != nil {
		logger.Warn("Account already has an open manual ledger", "payment_account_id", paymentAccountID)
		return nil, ledger.ErrOpenLedgerExists{PaymentAccountID: paymentAccountID}
	}

	created, err := r.insertManual(ctx, stores, paymentAccountID, currency)
	if err != nil {
		if errors.Is(err, shared.ErrUniqueViolation{}) {
			logger.Warn("Open manual ledger committed concurrently", "payment_account_id", paymentAccountID)
			return nil, fmt.Errorf("%w: %v", ledger.ErrOpenLedgerExists{PaymentAccountID: paymentAccountID}, err)
		}
		return nil, fmt.Errorf("failed to create ledger for %s: %w", paymentAccountID, err)
	}
	return created, nil
}

func (r *LedgerResolverImpl) insertManual(ctx context.Context, stores persistence.Stores, paymentAccountID string, currency shared.Currency) (*ledger.Ledger, error) {
	created, err := stores.Ledgers.Insert(ctx, ledger.NewLedger(ledger.TypeManual, currency, paymentAccountID, 0))
	if err != nil {
		return nil, err
	}
	r.loggerFor(ctx).Info("Created manual ledger", "ledger_id", created.ID.String(), "payment_account_id", paymentAccountID)
	return created, nil
}

func (r *LedgerResolverImpl) creationError(paymentAccountID string, err error) error {
	if errors.Is(err, shared.ErrUniqueViolation{}) {
		return fmt.Errorf("%w: %v", ledger.ErrConcurrentLedgerCreation{PaymentAccountID: paymentAccountID}, err)
	}
	return fmt.Errorf("failed to create ledger for %s: %w", paymentAccountID, err)
}

func (r *LedgerResolverImpl) loggerFor(ctx context.Context) *slog.Logger {
	if info := service.CommandInfoFrom(ctx); info.CorrelationID != "" {
		return r.logger.With("correlation_id", info.CorrelationID)
	}
	return r.logger
}
