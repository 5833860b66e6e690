package components

import (
	"log/slog"

	"github.com/payment-ledger/internal/config"
	"github.com/payment-ledger/internal/domain/interval"
	"github.com/payment-ledger/internal/ledger_processor/service"
	"github.com/payment-ledger/internal/platform/persistence"
)

// CreateLedgerProcessor creates a new LedgerProcessor with all its dependencies.
func CreateLedgerProcessor(
	uow persistence.UnitOfWork,
	calculator *interval.Calculator,
	logger *slog.Logger,
	cfg *config.Config,
) service.LedgerProcessor {
	resolver := NewLedgerResolver(calculator, logger.With("component", "ledger_resolver"))
	recorder := NewTransactionRecorder(logger.With("component", "transaction_recorder"))
	outboxManager := NewOutboxManager(logger.With("component", "outbox_manager"))

	baseService := service.NewLedgerProcessor(
		uow,
		resolver,
		recorder,
		outboxManager,
		cfg.Ledger.UnitOfWorkTimeout,
		logger,
	)

	workerPoolService, err := service.NewWorkerPoolLedgerProcessor(
		baseService,
		service.WorkerPoolConfig{
			Size: cfg.WorkerPool.Size,
		},
		logger.With("component", "worker_pool"),
	)
	if err != nil {
		logger.Error("Failed to create worker pool service, falling back to base service", "error", err)
		return baseService
	}

	logger.Info("Created worker pool ledger processor", "pool_size", cfg.WorkerPool.Size)
	return workerPoolService
}
