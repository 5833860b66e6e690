package persistence

import (
	"context"

	"github.com/payment-ledger/internal/domain/ledger"
	"github.com/payment-ledger/internal/domain/outbox"
	"github.com/payment-ledger/internal/domain/scheduledledger"
	"github.com/payment-ledger/internal/domain/transaction"
)

// Stores are the repositories bound to one unit of work
type Stores struct {
	Ledgers          ledger.Repository
	ScheduledLedgers scheduledledger.Repository
	Transactions     transaction.Repository
	Outbox           outbox.Repository
}

// UnitOfWork runs fn with Stores whose writes commit together when fn returns nil and
// are discarded together otherwise. A cancelled ctx aborts the unit without committing.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(ctx context.Context, stores Stores) error) error
}
