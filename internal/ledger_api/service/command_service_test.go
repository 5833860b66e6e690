package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/payment-ledger/internal/domain/shared"
	"github.com/payment-ledger/internal/domain/transaction"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockTransactionRepository struct {
	mock.Mock
}

func (m *MockTransactionRepository) Insert(ctx context.Context, txn *transaction.Transaction) (*transaction.Transaction, error) {
	args := m.Called(ctx, txn)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*transaction.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) GetByID(ctx context.Context, id uuid.UUID) (*transaction.Transaction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*transaction.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) GetByIdempotencyKey(ctx context.Context, paymentAccountID, idempotencyKey string) (*transaction.Transaction, error) {
	args := m.Called(ctx, paymentAccountID, idempotencyKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*transaction.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) ListByLedgerID(ctx context.Context, ledgerID uuid.UUID, limit, offset int) ([]*transaction.Transaction, error) {
	args := m.Called(ctx, ledgerID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*transaction.Transaction), args.Error(1)
}

type MockCommandPublisher struct {
	mock.Mock
}

func (m *MockCommandPublisher) Publish(ctx context.Context, cmd *shared.LedgerCommand) error {
	return m.Called(ctx, cmd).Error(0)
}

func (m *MockCommandPublisher) Close() error {
	return m.Called().Error(0)
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func testCommand() *shared.LedgerCommand {
	return &shared.LedgerCommand{
		Type:          shared.CommandCreateWithLedger,
		CorrelationID: "corr-1",
		CreateWithLedger: &shared.CreateTransactionWithLedgerRequest{
			PaymentAccountID: "pay_act_test_id",
			Amount:           2000,
			Currency:         shared.CurrencyUSD,
			LedgerType:       shared.LedgerTypeScheduled,
			IntervalType:     shared.IntervalTypeWeekly,
			RoutingKey:       time.Date(2019, 8, 1, 19, 0, 0, 0, time.UTC),
			IdempotencyKey:   "key-1",
			TargetType:       shared.TargetTypeMerchantDelivery,
		},
	}
}

func TestCommandService_Submit(t *testing.T) {
	ctx := context.Background()

	t.Run("publishes new command", func(t *testing.T) {
		repo := new(MockTransactionRepository)
		publisher := new(MockCommandPublisher)
		cmd := testCommand()

		repo.On("GetByIdempotencyKey", ctx, "pay_act_test_id", "key-1").Return(nil, nil).Once()
		publisher.On("Publish", ctx, cmd).Return(nil).Once()

		svc := NewCommandService(newTestLogger(), repo, publisher)
		existing, err := svc.Submit(ctx, cmd)

		require.NoError(t, err)
		assert.Nil(t, existing)
		repo.AssertExpectations(t)
		publisher.AssertExpectations(t)
	})

	t.Run("returns recorded transaction without publishing", func(t *testing.T) {
		repo := new(MockTransactionRepository)
		publisher := new(MockCommandPublisher)
		recorded := &transaction.Transaction{ID: uuid.New(), PaymentAccountID: "pay_act_test_id", IdempotencyKey: "key-1"}

		repo.On("GetByIdempotencyKey", ctx, "pay_act_test_id", "key-1").Return(recorded, nil).Once()

		svc := NewCommandService(newTestLogger(), repo, publisher)
		existing, err := svc.Submit(ctx, testCommand())

		require.NoError(t, err)
		assert.Equal(t, recorded, existing)
		publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
	})

	t.Run("lookup failure", func(t *testing.T) {
		repo := new(MockTransactionRepository)
		publisher := new(MockCommandPublisher)
		repo.On("GetByIdempotencyKey", ctx, "pay_act_test_id", "key-1").Return(nil, errors.New("db down")).Once()

		svc := NewCommandService(newTestLogger(), repo, publisher)
		_, err := svc.Submit(ctx, testCommand())

		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to check idempotency key")
		publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
	})

	t.Run("publish failure", func(t *testing.T) {
		repo := new(MockTransactionRepository)
		publisher := new(MockCommandPublisher)
		repo.On("GetByIdempotencyKey", ctx, "pay_act_test_id", "key-1").Return(nil, nil).Once()
		publisher.On("Publish", ctx, mock.Anything).Return(errors.New("broker down")).Once()

		svc := NewCommandService(newTestLogger(), repo, publisher)
		_, err := svc.Submit(ctx, testCommand())

		require.Error(t, err)
		assert.Contains(t, err.Error(), "broker down")
	})
}
