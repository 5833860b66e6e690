package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/payment-ledger/internal/domain/shared"
	"github.com/payment-ledger/internal/domain/transaction"
	"github.com/payment-ledger/internal/platform/persistence"
)

// LedgerProcessorImpl runs each operation as a single unit of work over the stores
type LedgerProcessorImpl struct {
	uow           persistence.UnitOfWork
	resolver      LedgerResolver
	recorder      TransactionRecorder
	outboxManager OutboxManager
	timeout       time.Duration
	logger        *slog.Logger
}

func NewLedgerProcessor(
	uow persistence.UnitOfWork,
	resolver LedgerResolver,
	recorder TransactionRecorder,
	outboxManager OutboxManager,
	timeout time.Duration,
	logger *slog.Logger,
) *LedgerProcessorImpl {
	return &LedgerProcessorImpl{
		uow:           uow,
		resolver:      resolver,
		recorder:      recorder,
		outboxManager: outboxManager,
		timeout:       timeout,
		logger:        logger,
	}
}

func (s *LedgerProcessorImpl) loggerFor(ctx context.Context) *slog.Logger {
	if info := CommandInfoFrom(ctx); info.CorrelationID != "" {
		return s.logger.With("correlation_id", info.CorrelationID)
	}
	return s.logger
}

// run executes fn in a unit of work bounded by the configured timeout
func (s *LedgerProcessorImpl) run(ctx context.Context, fn func(ctx context.Context, stores persistence.Stores) (*Result, error)) (*Result, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	var result *Result
	err := s.uow.Do(ctx, func(ctx context.Context, stores persistence.Stores) error {
		r, err := fn(ctx, stores)
		if err != nil {
			return err
		}
		if err := s.outboxManager.CreateOutboxEntry(ctx, stores, r); err != nil {
			return err
		}
		result = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// CreateLedgerAndInsertTransaction records the transaction on the account's current
// ledger for the request, creating that ledger first when there is none.
func (s *LedgerProcessorImpl) CreateLedgerAndInsertTransaction(ctx context.Context, req *shared.CreateTransactionWithLedgerRequest) (*Result, error) {
	logger := s.loggerFor(ctx)

	if err := req.Validate(); err != nil {
		logger.Warn("Rejected invalid create request", "payment_account_id", req.PaymentAccountID, "error", err)
		return nil, err
	}

	logger.Info("Processing create-with-ledger",
		"payment_account_id", req.PaymentAccountID,
		"ledger_type", req.LedgerType,
		"interval_type", req.IntervalType,
		"idempotency_key", req.IdempotencyKey,
	)

	result, err := s.run(ctx, func(ctx context.Context, stores persistence.Stores) (*Result, error) {
		l, created, err := s.resolver.Resolve(ctx, stores, req)
		if err != nil {
			return nil, err
		}

		txn, updated, err := s.recorder.Record(ctx, stores, transaction.FromCreateRequest(req, l.ID))
		if err != nil {
			return nil, err
		}
		return &Result{Transaction: txn, Ledger: updated, LedgerCreated: created}, nil
	})
	if err != nil {
		logger.Warn("Create-with-ledger aborted",
			"payment_account_id", req.PaymentAccountID,
			"idempotency_key", req.IdempotencyKey,
			"outcome", Classify(err).String(),
			"error", err,
		)
		return nil, err
	}

	logger.Info("Transaction recorded",
		"transaction_id", result.Transaction.ID.String(),
		"ledger_id", result.Ledger.ID.String(),
		"ledger_created", result.LedgerCreated,
		"balance", result.Ledger.Balance,
	)
	return result, nil
}

// InsertTransactionAndUpdateLedger records the transaction on a ledger the caller
// already knows. A missing ledger aborts without writing anything.
func (s *LedgerProcessorImpl) InsertTransactionAndUpdateLedger(ctx context.Context, req *shared.InsertTransactionRequest) (*Result, error) {
	logger := s.loggerFor(ctx)

	if err := req.Validate(); err != nil {
		logger.Warn("Rejected invalid insert request", "ledger_id", req.LedgerID.String(), "error", err)
		return nil, err
	}

	logger.Info("Processing insert", "ledger_id", req.LedgerID.String(), "idempotency_key", req.IdempotencyKey)

	result, err := s.run(ctx, func(ctx context.Context, stores persistence.Stores) (*Result, error) {
		txn, updated, err := s.recorder.Record(ctx, stores, transaction.FromInsertRequest(req))
		if err != nil {
			return nil, err
		}
		return &Result{Transaction: txn, Ledger: updated}, nil
	})
	if err != nil {
		logger.Warn("Insert aborted",
			"ledger_id", req.LedgerID.String(),
			"idempotency_key", req.IdempotencyKey,
			"outcome", Classify(err).String(),
			"error", err,
		)
		return nil, err
	}

	logger.Info("Transaction recorded",
		"transaction_id", result.Transaction.ID.String(),
		"ledger_id", result.Ledger.ID.String(),
		"balance", result.Ledger.Balance,
	)
	return result, nil
}

// CreateOneOffLedger opens a manual ledger funded by a single micro deposit
func (s *LedgerProcessorImpl) CreateOneOffLedger(ctx context.Context, req *shared.CreateOneOffLedgerRequest) (*Result, error) {
	logger := s.loggerFor(ctx)

	if err := req.Validate(); err != nil {
		logger.Warn("Rejected invalid one-off request", "payment_account_id", req.PaymentAccountID, "error", err)
		return nil, err
	}

	logger.Info("Processing one-off ledger", "payment_account_id", req.PaymentAccountID, "initial_balance", req.InitialBalance)

	result, err := s.run(ctx, func(ctx context.Context, stores persistence.Stores) (*Result, error) {
		l, err := s.resolver.CreateManual(ctx, stores, req.PaymentAccountID, req.Currency)
		if err != nil {
			return nil, err
		}

		txn, updated, err := s.recorder.Record(ctx, stores, transaction.FromOneOffRequest(req, l.ID))
		if err != nil {
			return nil, err
		}
		return &Result{Transaction: txn, Ledger: updated, LedgerCreated: true}, nil
	})
	if err != nil {
		logger.Warn("One-off ledger aborted",
			"payment_account_id", req.PaymentAccountID,
			"outcome", Classify(err).String(),
			"error", err,
		)
		return nil, err
	}

	logger.Info("One-off ledger created",
		"ledger_id", result.Ledger.ID.String(),
		"transaction_id", result.Transaction.ID.String(),
	)
	return result, nil
}
