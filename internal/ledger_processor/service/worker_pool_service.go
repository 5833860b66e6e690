package service

import (
	"context"
	"log/slog"

	"github.com/panjf2000/ants/v2"
	"github.com/payment-ledger/internal/domain/shared"
)

// WorkerPoolLedgerProcessor bounds how many units of work run at once
type WorkerPoolLedgerProcessor struct {
	base   LedgerProcessor
	pool   *ants.Pool
	logger *slog.Logger
}

type WorkerPoolConfig struct {
	Size int
}

func NewWorkerPoolLedgerProcessor(
	base LedgerProcessor,
	config WorkerPoolConfig,
	logger *slog.Logger,
) (*WorkerPoolLedgerProcessor, error) {
	pool, err := ants.NewPool(config.Size)
	if err != nil {
		return nil, err
	}

	return &WorkerPoolLedgerProcessor{
		base:   base,
		pool:   pool,
		logger: logger,
	}, nil
}

type poolResult struct {
	result *Result
	err    error
}

// submit runs fn on a pooled worker and waits for its result or for ctx to end.
// A worker that outlives ctx still finishes its unit of work, which then aborts on
// the cancelled context.
func (s *WorkerPoolLedgerProcessor) submit(ctx context.Context, op string, fn func() (*Result, error)) (*Result, error) {
	logger := s.logger
	if info := CommandInfoFrom(ctx); info.CorrelationID != "" {
		logger = s.logger.With("correlation_id", info.CorrelationID)
	}

	resultChan := make(chan poolResult, 1)

	err := s.pool.Submit(func() {
		r, err := fn()
		resultChan <- poolResult{result: r, err: err}
	})
	if err != nil {
		logger.Error("Failed to submit to worker pool", "operation", op, "error", err)
		return nil, err
	}

	select {
	case res := <-resultChan:
		return res.result, res.err
	case <-ctx.Done():
		logger.Warn("Context ended while waiting for worker", "operation", op, "error", ctx.Err())
		return nil, ctx.Err()
	}
}

func (s *WorkerPoolLedgerProcessor) CreateLedgerAndInsertTransaction(ctx context.Context, req *shared.CreateTransactionWithLedgerRequest) (*Result, error) {
	reqCopy := *req
	return s.submit(ctx, "create_with_ledger", func() (*Result, error) {
		return s.base.CreateLedgerAndInsertTransaction(ctx, &reqCopy)
	})
}

func (s *WorkerPoolLedgerProcessor) InsertTransactionAndUpdateLedger(ctx context.Context, req *shared.InsertTransactionRequest) (*Result, error) {
	reqCopy := *req
	return s.submit(ctx, "insert_transaction", func() (*Result, error) {
		return s.base.InsertTransactionAndUpdateLedger(ctx, &reqCopy)
	})
}

func (s *WorkerPoolLedgerProcessor) CreateOneOffLedger(ctx context.Context, req *shared.CreateOneOffLedgerRequest) (*Result, error) {
	reqCopy := *req
	return s.submit(ctx, "create_one_off", func() (*Result, error) {
		return s.base.CreateOneOffLedger(ctx, &reqCopy)
	})
}

// Shutdown gracefully shuts down the worker pool.
func (s *WorkerPoolLedgerProcessor) Shutdown() {
	s.logger.Info("Shutting down worker pool", "running_workers", s.pool.Running())
	s.pool.Release()
}

// Running returns the number of running workers in the pool.
func (s *WorkerPoolLedgerProcessor) Running() int {
	return s.pool.Running()
}

// Capacity returns the capacity of the worker pool.
func (s *WorkerPoolLedgerProcessor) Capacity() int {
	return s.pool.Cap()
}
