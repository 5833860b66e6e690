package handler

import (
	"time"
)

// TransactionDetailsRequest holds the optional descriptive fields of a transaction
type TransactionDetailsRequest struct {
	TargetID            *string `json:"target_id,omitempty"`
	Context             *string `json:"context,omitempty"`
	Metadata            *string `json:"metadata,omitempty"`
	LegacyTransactionID *string `json:"legacy_transaction_id,omitempty"`
}

// CreateTransactionWithLedgerRequest records a transaction on the account's current
// ledger, creating the ledger when needed
type CreateTransactionWithLedgerRequest struct {
	PaymentAccountID string    `json:"payment_account_id" binding:"required"`
	Amount           string    `json:"amount" binding:"required"`
	Currency         string    `json:"currency" binding:"required,len=3"`
	LedgerType       string    `json:"ledger_type" binding:"required,oneof=MANUAL SCHEDULED"`
	IntervalType     string    `json:"interval_type,omitempty" binding:"omitempty,oneof=DAILY WEEKLY"`
	RoutingKey       time.Time `json:"routing_key"`
	IdempotencyKey   string    `json:"idempotency_key" binding:"required"`
	TargetType       string    `json:"target_type" binding:"required"`
	TransactionDetailsRequest
}

// InsertTransactionRequest records a transaction on the ledger named in the path
type InsertTransactionRequest struct {
	PaymentAccountID string    `json:"payment_account_id" binding:"required"`
	Amount           string    `json:"amount" binding:"required"`
	Currency         string    `json:"currency" binding:"required,len=3"`
	RoutingKey       time.Time `json:"routing_key"`
	IdempotencyKey   string    `json:"idempotency_key" binding:"required"`
	TargetType       string    `json:"target_type" binding:"required"`
	TransactionDetailsRequest
}

// CreateOneOffLedgerRequest opens a manual ledger funded by one micro deposit
type CreateOneOffLedgerRequest struct {
	PaymentAccountID string    `json:"payment_account_id" binding:"required"`
	InitialBalance   string    `json:"initial_balance" binding:"required"`
	Currency         string    `json:"currency" binding:"required,len=3"`
	RoutingKey       time.Time `json:"routing_key"`
	IdempotencyKey   string    `json:"idempotency_key" binding:"required"`
	TransactionDetailsRequest
}

// CommandAcceptedResponse is returned with 202 once a command is on the topic
type CommandAcceptedResponse struct {
	CommandType      string `json:"command_type"`
	PaymentAccountID string `json:"payment_account_id"`
	IdempotencyKey   string `json:"idempotency_key"`
	Status           string `json:"status"`
}

// LedgerResponse represents a ledger in API responses
type LedgerResponse struct {
	ID               string `json:"id"`
	Type             string `json:"type"`
	State            string `json:"state"`
	Currency         string `json:"currency"`
	Balance          int64  `json:"balance"`
	BalanceDisplay   string `json:"balance_display"`
	PaymentAccountID string `json:"payment_account_id"`
	CreatedAt        string `json:"created_at"`
	UpdatedAt        string `json:"updated_at"`
}

// TransactionResponse represents a transaction in API responses
type TransactionResponse struct {
	ID                  string  `json:"id"`
	LedgerID            string  `json:"ledger_id"`
	PaymentAccountID    string  `json:"payment_account_id"`
	Amount              int64   `json:"amount"`
	AmountDisplay       string  `json:"amount_display"`
	Currency            string  `json:"currency"`
	IdempotencyKey      string  `json:"idempotency_key"`
	TargetType          string  `json:"target_type"`
	TargetID            *string `json:"target_id,omitempty"`
	Context             *string `json:"context,omitempty"`
	Metadata            *string `json:"metadata,omitempty"`
	LegacyTransactionID *string `json:"legacy_transaction_id,omitempty"`
	RoutingKey          string  `json:"routing_key"`
	CreatedAt           string  `json:"created_at"`
}

// ActivityResponse represents one activity entry in API responses
type ActivityResponse struct {
	ID               string `json:"id"`
	Status           string `json:"status"`
	TransactionID    string `json:"transaction_id,omitempty"`
	LedgerID         string `json:"ledger_id,omitempty"`
	PaymentAccountID string `json:"payment_account_id"`
	Amount           int64  `json:"amount"`
	AmountDisplay    string `json:"amount_display"`
	Currency         string `json:"currency"`
	LedgerBalance    *int64 `json:"ledger_balance,omitempty"`
	IdempotencyKey   string `json:"idempotency_key"`
	TargetType       string `json:"target_type,omitempty"`
	CommandType      string `json:"command_type,omitempty"`
	RejectionReason  string `json:"rejection_reason,omitempty"`
	Detail           string `json:"detail,omitempty"`
	RoutingKey       string `json:"routing_key"`
	CreatedAt        string `json:"created_at"`
}

// PaginationParams represents pagination parameters for list endpoints
type PaginationParams struct {
	Page    int `form:"page,default=1" binding:"min=1,max=100000"`
	PerPage int `form:"per_page,default=10" binding:"min=1,max=100"`
}

// ActivityQueryParams narrows the activity listing. Times are RFC 3339 and apply to
// the routing key.
type ActivityQueryParams struct {
	PaginationParams
	Status string    `form:"status" binding:"omitempty,oneof=RECORDED REJECTED"`
	From   time.Time `form:"from" time_format:"2006-01-02T15:04:05Z07:00"`
	To     time.Time `form:"to" time_format:"2006-01-02T15:04:05Z07:00"`
}
