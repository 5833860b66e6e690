package outbox

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/payment-ledger/internal/domain/ledger"
	"github.com/payment-ledger/internal/domain/shared"
	"github.com/payment-ledger/internal/domain/transaction"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEvent() *TransactionRecorded {
	return &TransactionRecorded{
		Transaction: &transaction.Transaction{
			ID:               uuid.New(),
			LedgerID:         uuid.New(),
			PaymentAccountID: "pay_act_test_id",
			Amount:           2000,
			Currency:         shared.CurrencyUSD,
			IdempotencyKey:   "idem-1",
			TargetType:       shared.TargetTypeMerchantDelivery,
			RoutingKey:       time.Date(2019, 8, 1, 0, 0, 0, 0, time.UTC),
			CreatedAt:        time.Now().Truncate(time.Millisecond),
		},
		LedgerType:    ledger.TypeScheduled,
		LedgerState:   ledger.StateOpen,
		LedgerBalance: 4000,
		CorrelationID: "corr-1",
		RecordedAt:    time.Now().Truncate(time.Millisecond),
	}
}

func TestNewMessage(t *testing.T) {
	event := testEvent()

	beforeCreation := time.Now()
	msg, err := NewMessage(event)
	afterCreation := time.Now()

	require.NoError(t, err)
	require.NotNil(t, msg)

	assert.Equal(t, event.Transaction.ID, msg.TransactionID)
	assert.Equal(t, event.Transaction.LedgerID, msg.LedgerID)
	assert.Equal(t, "pay_act_test_id", msg.PaymentAccountID)
	assert.Equal(t, shared.OutboxStatusPending, msg.Status)
	assert.Equal(t, 0, msg.Attempts)
	assert.Nil(t, msg.LastAttemptAt)
	assert.WithinDuration(t, beforeCreation, msg.CreatedAt, afterCreation.Sub(beforeCreation)+time.Millisecond)
}

func TestMessage_Event(t *testing.T) {
	original := testEvent()
	msg, err := NewMessage(original)
	require.NoError(t, err)

	decoded, err := msg.Event()
	require.NoError(t, err)
	assert.Equal(t, original.Transaction.ID, decoded.Transaction.ID)
	assert.Equal(t, original.LedgerBalance, decoded.LedgerBalance)
	assert.Equal(t, original.LedgerType, decoded.LedgerType)
	assert.True(t, original.Transaction.RoutingKey.Equal(decoded.Transaction.RoutingKey))
	assert.True(t, original.RecordedAt.Equal(decoded.RecordedAt))

	_, err = (&Message{Payload: []byte("{")}).Event()
	assert.Error(t, err)
}

func TestMessage_StatusTransitions(t *testing.T) {
	initialTime := time.Now().Add(-time.Hour)

	t.Run("IncrementAttempts", func(t *testing.T) {
		msg := &Message{Attempts: 1, LastAttemptAt: &initialTime}
		msg.IncrementAttempts()

		assert.Equal(t, 2, msg.Attempts)
		require.NotNil(t, msg.LastAttemptAt)
		assert.True(t, msg.LastAttemptAt.After(initialTime))
	})

	t.Run("MarkAsProcessed", func(t *testing.T) {
		msg := &Message{Status: shared.OutboxStatusPending, LastAttemptAt: &initialTime}
		msg.MarkAsProcessed()

		assert.Equal(t, shared.OutboxStatusProcessed, msg.Status)
		assert.True(t, msg.LastAttemptAt.After(initialTime))
	})

	t.Run("MarkAsFailed", func(t *testing.T) {
		msg := &Message{Status: shared.OutboxStatusPending, LastAttemptAt: &initialTime}
		msg.MarkAsFailed()

		assert.Equal(t, shared.OutboxStatusFailedToPublish, msg.Status)
		assert.True(t, msg.LastAttemptAt.After(initialTime))
	})
}
