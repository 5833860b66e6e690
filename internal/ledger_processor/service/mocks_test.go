package service

import (
	"context"
	"io"
	"log/slog"

	"github.com/payment-ledger/internal/domain/ledger"
	"github.com/payment-ledger/internal/domain/shared"
	"github.com/payment-ledger/internal/domain/transaction"
	"github.com/payment-ledger/internal/platform/persistence"
	"github.com/stretchr/testify/mock"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// fakeUnitOfWork runs fn directly and remembers whether the unit committed
type fakeUnitOfWork struct {
	calls     int
	committed int
	lastCtx   context.Context
}

func (u *fakeUnitOfWork) Do(ctx context.Context, fn func(ctx context.Context, stores persistence.Stores) error) error {
	u.calls++
	u.lastCtx = ctx
	if err := fn(ctx, persistence.Stores{}); err != nil {
		return err
	}
	u.committed++
	return nil
}

type MockLedgerResolver struct {
	mock.Mock
}

func (m *MockLedgerResolver) Resolve(ctx context.Context, stores persistence.Stores, req *shared.CreateTransactionWithLedgerRequest) (*ledger.Ledger, bool, error) {
	args := m.Called(ctx, stores, req)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*ledger.Ledger), args.Bool(1), args.Error(2)
}

func (m *MockLedgerResolver) CreateManual(ctx context.Context, stores persistence.Stores, paymentAccountID string, currency shared.Currency) (*ledger.Ledger, error) {
	args := m.Called(ctx, stores, paymentAccountID, currency)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Ledger), args.Error(1)
}

type MockTransactionRecorder struct {
	mock.Mock
}

func (m *MockTransactionRecorder) Record(ctx context.Context, stores persistence.Stores, txn *transaction.Transaction) (*transaction.Transaction, *ledger.Ledger, error) {
	args := m.Called(ctx, stores, txn)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*transaction.Transaction), args.Get(1).(*ledger.Ledger), args.Error(2)
}

type MockOutboxManager struct {
	mock.Mock
}

func (m *MockOutboxManager) CreateOutboxEntry(ctx context.Context, stores persistence.Stores, result *Result) error {
	args := m.Called(ctx, stores, result)
	return args.Error(0)
}

// MockLedgerProcessor mocks the LedgerProcessor interface
type MockLedgerProcessor struct {
	mock.Mock
}

func (m *MockLedgerProcessor) CreateLedgerAndInsertTransaction(ctx context.Context, req *shared.CreateTransactionWithLedgerRequest) (*Result, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Result), args.Error(1)
}

func (m *MockLedgerProcessor) InsertTransactionAndUpdateLedger(ctx context.Context, req *shared.InsertTransactionRequest) (*Result, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Result), args.Error(1)
}

func (m *MockLedgerProcessor) CreateOneOffLedger(ctx context.Context, req *shared.CreateOneOffLedgerRequest) (*Result, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Result), args.Error(1)
}
