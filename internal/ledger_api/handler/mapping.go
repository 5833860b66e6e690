package handler

import (
	"time"

	"github.com/google/uuid"
	"github.com/payment-ledger/internal/domain/activity"
	"github.com/payment-ledger/internal/domain/ledger"
	"github.com/payment-ledger/internal/domain/shared"
	"github.com/payment-ledger/internal/domain/transaction"
)

func (d TransactionDetailsRequest) toDomain() shared.TransactionDetails {
	return shared.TransactionDetails{
		TargetID:            d.TargetID,
		Context:             d.Context,
		Metadata:            d.Metadata,
		LegacyTransactionID: d.LegacyTransactionID,
	}
}

func mapLedgerToResponse(l *ledger.Ledger) LedgerResponse {
	return LedgerResponse{
		ID:               l.ID.String(),
		Type:             string(l.Type),
		State:            string(l.State),
		Currency:         string(l.Currency),
		Balance:          l.Balance,
		BalanceDisplay:   FormatMajorUnits(l.Balance, l.Currency),
		PaymentAccountID: l.PaymentAccountID,
		CreatedAt:        l.CreatedAt.Format(time.RFC3339),
		UpdatedAt:        l.UpdatedAt.Format(time.RFC3339),
	}
}

func mapTransactionToResponse(txn *transaction.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:                  txn.ID.String(),
		LedgerID:            txn.LedgerID.String(),
		PaymentAccountID:    txn.PaymentAccountID,
		Amount:              txn.Amount,
		AmountDisplay:       FormatMajorUnits(txn.Amount, txn.Currency),
		Currency:            string(txn.Currency),
		IdempotencyKey:      txn.IdempotencyKey,
		TargetType:          string(txn.TargetType),
		TargetID:            txn.TargetID,
		Context:             txn.Context,
		Metadata:            txn.Metadata,
		LegacyTransactionID: txn.LegacyTransactionID,
		RoutingKey:          txn.RoutingKey.UTC().Format(time.RFC3339),
		CreatedAt:           txn.CreatedAt.Format(time.RFC3339),
	}
}

func mapTransactionsToResponse(txns []*transaction.Transaction) []TransactionResponse {
	responses := make([]TransactionResponse, 0, len(txns))
	for _, txn := range txns {
		responses = append(responses, mapTransactionToResponse(txn))
	}
	return responses
}

func mapActivityToResponse(e *activity.Entry) ActivityResponse {
	response := ActivityResponse{
		ID:               e.ID,
		Status:           string(e.Status),
		PaymentAccountID: e.PaymentAccountID,
		Amount:           e.Amount,
		AmountDisplay:    FormatMajorUnits(e.Amount, e.Currency),
		Currency:         string(e.Currency),
		LedgerBalance:    e.LedgerBalance,
		IdempotencyKey:   e.IdempotencyKey,
		TargetType:       string(e.TargetType),
		CommandType:      string(e.CommandType),
		RejectionReason:  string(e.RejectionReason),
		Detail:           e.Detail,
		RoutingKey:       e.RoutingKey.UTC().Format(time.RFC3339),
		CreatedAt:        e.CreatedAt.Format(time.RFC3339),
	}
	if e.TransactionID != uuid.Nil {
		response.TransactionID = e.TransactionID.String()
	}
	if e.LedgerID != uuid.Nil {
		response.LedgerID = e.LedgerID.String()
	}
	return response
}
