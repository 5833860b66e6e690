package handler

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/payment-ledger/internal/domain/shared"
	"github.com/payment-ledger/internal/domain/transaction"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var routingKey = time.Date(2019, 8, 1, 19, 0, 0, 0, time.UTC)

func commandRouter(svc *MockCommandService) *gin.Engine {
	h := NewCommandHandler(newTestLogger(), svc)
	router := newTestRouter()
	router.POST("/transactions", h.CreateTransactionWithLedger)
	router.POST("/ledgers/:id/transactions", h.InsertTransaction)
	router.POST("/one-off-ledgers", h.CreateOneOffLedger)
	return router
}

func scheduledBody() map[string]interface{} {
	return map[string]interface{}{
		"payment_account_id": "pay_act_test_id",
		"amount":             "2000",
		"currency":           "usd",
		"ledger_type":        "SCHEDULED",
		"interval_type":      "WEEKLY",
		"routing_key":        routingKey.Format(time.RFC3339),
		"idempotency_key":    "key-1",
		"target_type":        "merchant_delivery",
		"target_id":          "delivery-7",
	}
}

func TestCommandHandler_CreateTransactionWithLedger(t *testing.T) {
	t.Run("Accepted", func(t *testing.T) {
		svc := new(MockCommandService)
		svc.On("Submit", mock.Anything, mock.MatchedBy(func(cmd *shared.LedgerCommand) bool {
			req := cmd.CreateWithLedger
			return cmd.Type == shared.CommandCreateWithLedger &&
				cmd.CorrelationID == "corr-test" &&
				req != nil &&
				req.Amount == 2000 &&
				req.Currency == shared.CurrencyUSD &&
				req.IntervalType == shared.IntervalTypeWeekly &&
				req.RoutingKey.Equal(routingKey) &&
				req.TargetID != nil && *req.TargetID == "delivery-7"
		})).Return(nil, nil).Once()

		rr := doRequest(commandRouter(svc), http.MethodPost, "/transactions", scheduledBody())

		assert.Equal(t, http.StatusAccepted, rr.Code)
		resp := decode[CommandAcceptedResponse](t, rr)
		assert.Equal(t, "ACCEPTED", resp.Data.Status)
		assert.Equal(t, "key-1", resp.Data.IdempotencyKey)
		assert.Equal(t, string(shared.CommandCreateWithLedger), resp.Data.CommandType)
		assert.Equal(t, "corr-test", resp.CorrelationID)
		svc.AssertExpectations(t)
	})

	t.Run("AlreadyRecorded", func(t *testing.T) {
		svc := new(MockCommandService)
		recorded := &transaction.Transaction{
			ID:               uuid.New(),
			LedgerID:         uuid.New(),
			PaymentAccountID: "pay_act_test_id",
			Amount:           2000,
			Currency:         shared.CurrencyUSD,
			IdempotencyKey:   "key-1",
			TargetType:       shared.TargetTypeMerchantDelivery,
			RoutingKey:       routingKey,
		}
		svc.On("Submit", mock.Anything, mock.Anything).Return(recorded, nil).Once()

		rr := doRequest(commandRouter(svc), http.MethodPost, "/transactions", scheduledBody())

		assert.Equal(t, http.StatusOK, rr.Code)
		resp := decode[TransactionResponse](t, rr)
		assert.Equal(t, recorded.ID.String(), resp.Data.ID)
		assert.Equal(t, "20.00", resp.Data.AmountDisplay)
	})

	t.Run("PublishFailure", func(t *testing.T) {
		svc := new(MockCommandService)
		svc.On("Submit", mock.Anything, mock.Anything).Return(nil, errors.New("broker down")).Once()

		rr := doRequest(commandRouter(svc), http.MethodPost, "/transactions", scheduledBody())

		assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
		resp := decode[map[string]interface{}](t, rr)
		require.NotNil(t, resp.Error)
		assert.Equal(t, "SERVICE_UNAVAILABLE", resp.Error.Code)
	})

	rejected := []struct {
		name   string
		mutate func(body map[string]interface{})
	}{
		{name: "fractional amount", mutate: func(b map[string]interface{}) { b["amount"] = "20.5" }},
		{name: "non numeric amount", mutate: func(b map[string]interface{}) { b["amount"] = "twenty" }},
		{name: "zero amount", mutate: func(b map[string]interface{}) { b["amount"] = "0" }},
		{name: "unsupported currency", mutate: func(b map[string]interface{}) { b["currency"] = "GBP" }},
		{name: "unknown ledger type", mutate: func(b map[string]interface{}) { b["ledger_type"] = "WEEKLY" }},
		{name: "scheduled without interval", mutate: func(b map[string]interface{}) { delete(b, "interval_type") }},
		{name: "manual with interval", mutate: func(b map[string]interface{}) { b["ledger_type"] = "MANUAL" }},
		{name: "missing routing key", mutate: func(b map[string]interface{}) { delete(b, "routing_key") }},
		{name: "unknown target type", mutate: func(b map[string]interface{}) { b["target_type"] = "refund" }},
		{name: "missing idempotency key", mutate: func(b map[string]interface{}) { delete(b, "idempotency_key") }},
	}

	for _, tt := range rejected {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockCommandService)
			body := scheduledBody()
			tt.mutate(body)

			rr := doRequest(commandRouter(svc), http.MethodPost, "/transactions", body)

			assert.Equal(t, http.StatusBadRequest, rr.Code)
			svc.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything)
		})
	}

	t.Run("InvalidRequestBody", func(t *testing.T) {
		svc := new(MockCommandService)
		rr := doRequest(commandRouter(svc), http.MethodPost, "/transactions", `{"invalid`)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		svc.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything)
	})
}

func TestCommandHandler_InsertTransaction(t *testing.T) {
	ledgerID := uuid.New()
	body := map[string]interface{}{
		"payment_account_id": "pay_act_test_id",
		"amount":             "-500",
		"currency":           "USD",
		"routing_key":        routingKey.Format(time.RFC3339),
		"idempotency_key":    "key-2",
		"target_type":        "merchant_delivery",
	}

	t.Run("Accepted", func(t *testing.T) {
		svc := new(MockCommandService)
		svc.On("Submit", mock.Anything, mock.MatchedBy(func(cmd *shared.LedgerCommand) bool {
			return cmd.Type == shared.CommandInsertTransaction &&
				cmd.Insert != nil &&
				cmd.Insert.LedgerID == ledgerID &&
				cmd.Insert.Amount == -500
		})).Return(nil, nil).Once()

		rr := doRequest(commandRouter(svc), http.MethodPost, "/ledgers/"+ledgerID.String()+"/transactions", body)

		assert.Equal(t, http.StatusAccepted, rr.Code)
		svc.AssertExpectations(t)
	})

	t.Run("InvalidLedgerID", func(t *testing.T) {
		svc := new(MockCommandService)
		rr := doRequest(commandRouter(svc), http.MethodPost, "/ledgers/not-a-uuid/transactions", body)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		svc.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything)
	})
}

func TestCommandHandler_CreateOneOffLedger(t *testing.T) {
	body := map[string]interface{}{
		"payment_account_id": "pay_act_test_id",
		"initial_balance":    "150",
		"currency":           "USD",
		"routing_key":        routingKey.Format(time.RFC3339),
		"idempotency_key":    "micro-1",
	}

	t.Run("Accepted", func(t *testing.T) {
		svc := new(MockCommandService)
		svc.On("Submit", mock.Anything, mock.MatchedBy(func(cmd *shared.LedgerCommand) bool {
			return cmd.Type == shared.CommandCreateOneOff && cmd.OneOff != nil && cmd.OneOff.InitialBalance == 150
		})).Return(nil, nil).Once()

		rr := doRequest(commandRouter(svc), http.MethodPost, "/one-off-ledgers", body)

		assert.Equal(t, http.StatusAccepted, rr.Code)
		svc.AssertExpectations(t)
	})

	t.Run("NegativeInitialBalance", func(t *testing.T) {
		svc := new(MockCommandService)
		negative := map[string]interface{}{}
		for k, v := range body {
			negative[k] = v
		}
		negative["initial_balance"] = "-150"

		rr := doRequest(commandRouter(svc), http.MethodPost, "/one-off-ledgers", negative)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		svc.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything)
	})
}
