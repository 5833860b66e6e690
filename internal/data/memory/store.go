// Package memory keeps ledgers, scheduled ledgers, transactions and outbox messages in
// process memory. It enforces the same uniqueness rules as the Postgres schema and is
// used for local runs and tests.
package memory

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/payment-ledger/internal/domain/interval"
	"github.com/payment-ledger/internal/domain/ledger"
	"github.com/payment-ledger/internal/domain/outbox"
	"github.com/payment-ledger/internal/domain/scheduledledger"
	"github.com/payment-ledger/internal/domain/transaction"
	"github.com/payment-ledger/internal/platform/persistence"
)

// Constraint names mirror the Postgres migrations so callers can match either store.
const (
	constraintLedgerPK            = "ledgers_pkey"
	constraintOpenManualLedger    = "uq_ledgers_open_manual_account"
	constraintScheduledPK         = "scheduled_ledgers_pkey"
	constraintScheduledWindow     = "uq_scheduled_ledgers_account_window"
	constraintTransactionPK       = "transactions_pkey"
	constraintTransactionIdemKey  = "uq_transactions_account_idempotency_key"
	constraintOutboxTransactionID = "ledger_outbox_transaction_id_key"
)

type windowKey struct {
	paymentAccountID string
	start            int64
	end              int64
}

type idempotencyKey struct {
	paymentAccountID string
	key              string
}

// state is one consistent snapshot of every table
type state struct {
	ledgers      map[uuid.UUID]ledger.Ledger
	scheduled    map[windowKey]scheduledledger.ScheduledLedger
	scheduledIDs map[uuid.UUID]struct{}
	transactions map[uuid.UUID]transaction.Transaction
	byIdemKey    map[idempotencyKey]uuid.UUID
	outbox       map[int64]outbox.Message
	outboxTxnIDs map[uuid.UUID]int64
	nextOutboxID int64
}

func newState() *state {
	return &state{
		ledgers:      make(map[uuid.UUID]ledger.Ledger),
		scheduled:    make(map[windowKey]scheduledledger.ScheduledLedger),
		scheduledIDs: make(map[uuid.UUID]struct{}),
		transactions: make(map[uuid.UUID]transaction.Transaction),
		byIdemKey:    make(map[idempotencyKey]uuid.UUID),
		outbox:       make(map[int64]outbox.Message),
		outboxTxnIDs: make(map[uuid.UUID]int64),
	}
}

func (s *state) clone() *state {
	c := &state{
		ledgers:      make(map[uuid.UUID]ledger.Ledger, len(s.ledgers)),
		scheduled:    make(map[windowKey]scheduledledger.ScheduledLedger, len(s.scheduled)),
		scheduledIDs: make(map[uuid.UUID]struct{}, len(s.scheduledIDs)),
		transactions: make(map[uuid.UUID]transaction.Transaction, len(s.transactions)),
		byIdemKey:    make(map[idempotencyKey]uuid.UUID, len(s.byIdemKey)),
		outbox:       make(map[int64]outbox.Message, len(s.outbox)),
		outboxTxnIDs: make(map[uuid.UUID]int64, len(s.outboxTxnIDs)),
		nextOutboxID: s.nextOutboxID,
	}
	for k, v := range s.ledgers {
		c.ledgers[k] = v
	}
	for k, v := range s.scheduled {
		c.scheduled[k] = v
	}
	for k, v := range s.scheduledIDs {
		c.scheduledIDs[k] = v
	}
	for k, v := range s.transactions {
		c.transactions[k] = v
	}
	for k, v := range s.byIdemKey {
		c.byIdemKey[k] = v
	}
	for k, v := range s.outbox {
		c.outbox[k] = v
	}
	for k, v := range s.outboxTxnIDs {
		c.outboxTxnIDs[k] = v
	}
	return c
}

// access runs fn against a state. The committed store locks per call; a unit of work
// hands out its private snapshot.
type access interface {
	read(fn func(s *state) error) error
	write(fn func(s *state) error) error
}

// Store is the in-memory database. Units of work are serialized: each one runs on a
// private copy of the committed state that replaces it only on success.
type Store struct {
	mu         sync.RWMutex
	state      *state
	logger     *slog.Logger
	calculator *interval.Calculator
	now        func() time.Time
}

var _ persistence.UnitOfWork = (*Store)(nil)

func New(logger *slog.Logger, calculator *interval.Calculator) *Store {
	return &Store{
		state:      newState(),
		logger:     logger,
		calculator: calculator,
		now:        time.Now,
	}
}

func (s *Store) read(fn func(st *state) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(s.state)
}

func (s *Store) write(fn func(st *state) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.state)
}

// Stores returns repositories that act on the committed state, one call at a time.
// They must not be used from inside Do.
func (s *Store) Stores() persistence.Stores {
	return s.storesFor(s)
}

func (s *Store) storesFor(a access) persistence.Stores {
	return persistence.Stores{
		Ledgers:          &LedgerRepository{db: a, now: s.now},
		ScheduledLedgers: &ScheduledLedgerRepository{db: a, calculator: s.calculator},
		Transactions:     &TransactionRepository{db: a, now: s.now},
		Outbox:           &OutboxRepository{db: a, now: s.now},
	}
}

// snapshot is the private state of a running unit of work
type snapshot struct {
	st *state
}

func (t *snapshot) read(fn func(st *state) error) error  { return fn(t.st) }
func (t *snapshot) write(fn func(st *state) error) error { return fn(t.st) }

// Do runs fn on a snapshot and publishes it only when fn returns nil and ctx is still
// live. Otherwise every write made through the stores is dropped.
func (s *Store) Do(ctx context.Context, fn func(ctx context.Context, stores persistence.Stores) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &snapshot{st: s.state.clone()}
	if err := fn(ctx, s.storesFor(tx)); err != nil {
		s.logger.Debug("Discarding in-memory unit of work", "error", err)
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.state = tx.st
	return nil
}

// pageBounds returns the slice bounds of one page over n sorted rows. A non-positive
// limit means no limit; offsets outside [0, n] are clamped.
func pageBounds(n, limit, offset int) (int, int) {
	start := offset
	if start < 0 {
		start = 0
	}
	if start > n {
		start = n
	}
	if limit <= 0 || limit > n-start {
		return start, n
	}
	return start, start + limit
}
