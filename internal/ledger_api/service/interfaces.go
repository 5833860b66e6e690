package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/payment-ledger/internal/domain/activity"
	"github.com/payment-ledger/internal/domain/ledger"
	"github.com/payment-ledger/internal/domain/shared"
	"github.com/payment-ledger/internal/domain/transaction"
)

// CommandService accepts ledger commands for asynchronous processing
type CommandService interface {
	// Submit publishes cmd unless its (payment account, idempotency key) pair was
	// already recorded, in which case the existing transaction is returned and
	// nothing is published.
	Submit(ctx context.Context, cmd *shared.LedgerCommand) (*transaction.Transaction, error)
}

// QueryService serves the read endpoints. Lookups return nil when nothing matches.
type QueryService interface {
	GetLedger(ctx context.Context, id uuid.UUID) (*ledger.Ledger, error)
	ListLedgerTransactions(ctx context.Context, ledgerID uuid.UUID, page, perPage int) ([]*transaction.Transaction, error)
	GetTransaction(ctx context.Context, id uuid.UUID) (*transaction.Transaction, error)
	GetTransactionByIdempotencyKey(ctx context.Context, paymentAccountID, idempotencyKey string) (*transaction.Transaction, error)

	// ListActivity returns one page of an account's activity and the total matching count
	ListActivity(ctx context.Context, filter activity.Filter, page, perPage int) ([]*activity.Entry, int64, error)
}
