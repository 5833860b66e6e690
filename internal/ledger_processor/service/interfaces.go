package service

import (
	"context"

	"github.com/payment-ledger/internal/domain/ledger"
	"github.com/payment-ledger/internal/domain/shared"
	"github.com/payment-ledger/internal/domain/transaction"
	"github.com/payment-ledger/internal/platform/persistence"
)

// LedgerProcessor applies transactions to ledgers. Every call is one unit of work:
// either all of its writes commit or none do.
type LedgerProcessor interface {
	CreateLedgerAndInsertTransaction(ctx context.Context, req *shared.CreateTransactionWithLedgerRequest) (*Result, error)
	InsertTransactionAndUpdateLedger(ctx context.Context, req *shared.InsertTransactionRequest) (*Result, error)
	CreateOneOffLedger(ctx context.Context, req *shared.CreateOneOffLedgerRequest) (*Result, error)
}

// Result is what a committed unit of work produced
type Result struct {
	Transaction   *transaction.Transaction
	Ledger        *ledger.Ledger // State after the balance update
	LedgerCreated bool
}

// LedgerResolver finds the ledger a new transaction belongs to, creating it when the
// account has none for the request. CreateManual only ever opens a new ledger.
type LedgerResolver interface {
	Resolve(ctx context.Context, stores persistence.Stores, req *shared.CreateTransactionWithLedgerRequest) (*ledger.Ledger, bool, error)
	CreateManual(ctx context.Context, stores persistence.Stores, paymentAccountID string, currency shared.Currency) (*ledger.Ledger, error)
}

// TransactionRecorder inserts a transaction and applies its amount to the ledger
type TransactionRecorder interface {
	Record(ctx context.Context, stores persistence.Stores, txn *transaction.Transaction) (*transaction.Transaction, *ledger.Ledger, error)
}

// OutboxManager handles the creation of outbox entries for recorded transactions
type OutboxManager interface {
	CreateOutboxEntry(ctx context.Context, stores persistence.Stores, result *Result) error
}

// RejectionRecorder keeps a trace of commands the processor refused
type RejectionRecorder interface {
	RecordRejection(ctx context.Context, cmd *shared.LedgerCommand, reason shared.RejectionReason, detail string) error
}
