package postgres

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/payment-ledger/internal/domain/interval"
	"github.com/payment-ledger/internal/platform/persistence"
)

// UnitOfWork runs a callback against repositories sharing one pgx transaction
type UnitOfWork struct {
	db              persistence.TxBeginner
	logger          *slog.Logger
	calculator      *interval.Calculator
	rollbackTimeout time.Duration
}

var _ persistence.UnitOfWork = (*UnitOfWork)(nil)

// NewUnitOfWork creates a unit of work on the pool of db
func NewUnitOfWork(logger *slog.Logger, db *persistence.PostgresDB, calculator *interval.Calculator, rollbackTimeout time.Duration) *UnitOfWork {
	return newUnitOfWork(logger, db.Pool(), calculator, rollbackTimeout)
}

func newUnitOfWork(logger *slog.Logger, db persistence.TxBeginner, calculator *interval.Calculator, rollbackTimeout time.Duration) *UnitOfWork {
	if rollbackTimeout <= 0 {
		rollbackTimeout = persistence.DefaultRollbackTimeout
	}
	return &UnitOfWork{
		db:              db,
		logger:          logger,
		calculator:      calculator,
		rollbackTimeout: rollbackTimeout,
	}
}

// Do begins a transaction, hands fn the repositories bound to it and commits only
// when fn succeeds.
func (u *UnitOfWork) Do(ctx context.Context, fn func(ctx context.Context, stores persistence.Stores) error) error {
	return persistence.RunInTx(ctx, u.db, u.rollbackTimeout, func(tx pgx.Tx) error {
		return fn(ctx, storesFor(tx, u.logger, u.calculator))
	})
}

// NewStores returns repositories that run each call on its own pooled connection
func NewStores(logger *slog.Logger, db *persistence.PostgresDB, calculator *interval.Calculator) persistence.Stores {
	return storesFor(db.Pool(), logger, calculator)
}

func storesFor(q persistence.Querier, logger *slog.Logger, calculator *interval.Calculator) persistence.Stores {
	return persistence.Stores{
		Ledgers:          &LedgerRepository{querier: q, logger: logger},
		ScheduledLedgers: &ScheduledLedgerRepository{querier: q, logger: logger, calculator: calculator},
		Transactions:     &TransactionRepository{querier: q, logger: logger},
		Outbox:           &OutboxRepository{querier: q, logger: logger},
	}
}
