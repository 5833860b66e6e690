// Package backend opens the stores selected by STORE_DRIVER for the binaries.
package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/payment-ledger/internal/config"
	"github.com/payment-ledger/internal/data/memory"
	datamongo "github.com/payment-ledger/internal/data/mongo"
	"github.com/payment-ledger/internal/data/postgres"
	"github.com/payment-ledger/internal/domain/activity"
	"github.com/payment-ledger/internal/domain/interval"
	"github.com/payment-ledger/internal/platform/persistence"
)

// Backend bundles the ledger store, its non-transactional read view and the activity
// read model
type Backend struct {
	Driver       string
	UnitOfWork   persistence.UnitOfWork
	Stores       persistence.Stores
	Activity     activity.Repository
	HealthChecks map[string]func(ctx context.Context) error

	closers []func(ctx context.Context) error
}

// NewCalculator builds the interval calculator from the ledger settings
func NewCalculator(cfg *config.LedgerConfig) (*interval.Calculator, error) {
	return interval.NewCalculatorForTimezone(cfg.ReferenceTimezone, cfg.WeekStart)
}

// ErrProcessLocalDriver is returned by OpenShared for drivers whose state cannot be
// seen by another process
var ErrProcessLocalDriver = errors.New("store driver keeps state inside one process")

// OpenShared is Open for binaries that share the store with another process. The
// memory driver is refused there; run cmd/ledger_standalone to use it.
func OpenShared(ctx context.Context, logger *slog.Logger, cfg *config.Config, calculator *interval.Calculator) (*Backend, error) {
	if cfg.Store.Driver == config.StoreDriverMemory {
		return nil, fmt.Errorf("%w: %q cannot be shared between ledger_api and ledger_processor, run ledger_standalone instead", ErrProcessLocalDriver, cfg.Store.Driver)
	}
	return Open(ctx, logger, cfg, calculator)
}

// Open connects the configured driver. The memory driver keeps state inside the
// process, so it only suits tests and the standalone binary.
func Open(ctx context.Context, logger *slog.Logger, cfg *config.Config, calculator *interval.Calculator) (*Backend, error) {
	switch cfg.Store.Driver {
	case config.StoreDriverMemory:
		return openMemory(logger, calculator), nil
	case config.StoreDriverPostgres:
		return openPostgres(ctx, logger, cfg, calculator)
	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.Store.Driver)
	}
}

func openMemory(logger *slog.Logger, calculator *interval.Calculator) *Backend {
	store := memory.New(logger, calculator)
	logger.Warn("Using in-memory ledger store, state is lost on exit")

	return &Backend{
		Driver:       config.StoreDriverMemory,
		UnitOfWork:   store,
		Stores:       store.Stores(),
		Activity:     memory.NewActivityRepository(),
		HealthChecks: map[string]func(ctx context.Context) error{},
	}
}

func openPostgres(ctx context.Context, logger *slog.Logger, cfg *config.Config, calculator *interval.Calculator) (*Backend, error) {
	postgresDB, err := persistence.NewPostgresDB(ctx, logger, &cfg.Postgres)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize PostgreSQL: %w", err)
	}

	mongoDB, err := persistence.NewMongoDB(ctx, logger, &cfg.MongoDB)
	if err != nil {
		postgresDB.Close()
		return nil, fmt.Errorf("failed to initialize MongoDB: %w", err)
	}

	activityRepo := datamongo.NewActivityRepository(logger, mongoDB.Database())
	if err := activityRepo.EnsureIndexes(ctx); err != nil {
		postgresDB.Close()
		_ = mongoDB.Close(ctx)
		return nil, err
	}

	return &Backend{
		Driver:     config.StoreDriverPostgres,
		UnitOfWork: postgres.NewUnitOfWork(logger, postgresDB, calculator, persistence.DefaultRollbackTimeout),
		Stores:     postgres.NewStores(logger, postgresDB, calculator),
		Activity:   activityRepo,
		HealthChecks: map[string]func(ctx context.Context) error{
			"postgres": postgresDB.Ping,
			"mongodb":  mongoDB.Ping,
		},
		closers: []func(ctx context.Context) error{
			func(context.Context) error {
				postgresDB.Close()
				return nil
			},
			mongoDB.Close,
		},
	}, nil
}

// Close releases every connection, reporting all failures
func (b *Backend) Close(ctx context.Context) error {
	var errs []error
	for _, closeFn := range b.closers {
		if err := closeFn(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
