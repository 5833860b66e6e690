package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/payment-ledger/internal/domain/interval"
	"github.com/payment-ledger/internal/domain/ledger"
	"github.com/payment-ledger/internal/domain/outbox"
	"github.com/payment-ledger/internal/domain/scheduledledger"
	"github.com/payment-ledger/internal/domain/shared"
	"github.com/payment-ledger/internal/domain/transaction"
)

// LedgerRepository implements ledger.Repository in memory
type LedgerRepository struct {
	db  access
	now func() time.Time
}

func isOpenManual(l ledger.Ledger) bool {
	return l.State == ledger.StateOpen && l.Type == ledger.TypeManual
}

func (r *LedgerRepository) Insert(_ context.Context, l *ledger.Ledger) (*ledger.Ledger, error) {
	var stored ledger.Ledger
	err := r.db.write(func(st *state) error {
		if _, exists := st.ledgers[l.ID]; exists {
			return shared.ErrUniqueViolation{Constraint: constraintLedgerPK}
		}
		if isOpenManual(*l) {
			for _, other := range st.ledgers {
				if other.PaymentAccountID == l.PaymentAccountID && isOpenManual(other) {
					return shared.ErrUniqueViolation{Constraint: constraintOpenManualLedger}
				}
			}
		}

		stored = *l
		now := r.now()
		stored.CreatedAt = now
		stored.UpdatedAt = now
		st.ledgers[stored.ID] = stored
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &stored, nil
}

func (r *LedgerRepository) GetByID(_ context.Context, id uuid.UUID) (*ledger.Ledger, error) {
	var found *ledger.Ledger
	_ = r.db.read(func(st *state) error {
		if l, ok := st.ledgers[id]; ok {
			found = &l
		}
		return nil
	})
	return found, nil
}

func (r *LedgerRepository) GetOpenLedgerForAccount(_ context.Context, paymentAccountID string) (*ledger.Ledger, error) {
	var found *ledger.Ledger
	err := r.db.read(func(st *state) error {
		for _, l := range st.ledgers {
			if l.PaymentAccountID != paymentAccountID || !isOpenManual(l) {
				continue
			}
			if found != nil {
				return ledger.ErrMultipleOpenLedgers{PaymentAccountID: paymentAccountID}
			}
			l := l
			found = &l
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

func (r *LedgerRepository) UpdateBalance(_ context.Context, id uuid.UUID, newBalance int64) (*ledger.Ledger, error) {
	var updated ledger.Ledger
	err := r.db.write(func(st *state) error {
		l, ok := st.ledgers[id]
		if !ok {
			return shared.ErrRecordNotFound{Entity: "ledger", ID: id.String()}
		}
		l.Balance = newBalance
		l.UpdatedAt = r.now()
		st.ledgers[id] = l
		updated = l
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// LockForUpdate only reads; units of work are already serialized by the store
func (r *LedgerRepository) LockForUpdate(_ context.Context, id uuid.UUID) (*ledger.Ledger, error) {
	var found ledger.Ledger
	err := r.db.read(func(st *state) error {
		l, ok := st.ledgers[id]
		if !ok {
			return shared.ErrRecordNotFound{Entity: "ledger", ID: id.String()}
		}
		found = l
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &found, nil
}

// ScheduledLedgerRepository implements scheduledledger.Repository in memory
type ScheduledLedgerRepository struct {
	db         access
	calculator *interval.Calculator
}

func keyFor(paymentAccountID string, w interval.Window) windowKey {
	return windowKey{
		paymentAccountID: paymentAccountID,
		start:            w.Start.UnixNano(),
		end:              w.End.UnixNano(),
	}
}

func (r *ScheduledLedgerRepository) Insert(_ context.Context, s *scheduledledger.ScheduledLedger) (*scheduledledger.ScheduledLedger, error) {
	stored := *s
	err := r.db.write(func(st *state) error {
		if _, exists := st.scheduledIDs[s.ID]; exists {
			return shared.ErrUniqueViolation{Constraint: constraintScheduledPK}
		}
		key := keyFor(s.PaymentAccountID, s.Window())
		if _, exists := st.scheduled[key]; exists {
			return shared.ErrUniqueViolation{Constraint: constraintScheduledWindow}
		}
		st.scheduled[key] = stored
		st.scheduledIDs[s.ID] = struct{}{}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &stored, nil
}

func (r *ScheduledLedgerRepository) GetOpenForPeriod(_ context.Context, paymentAccountID string, routingKey time.Time, intervalType shared.IntervalType) (*scheduledledger.ScheduledLedger, error) {
	window, err := r.calculator.WindowFor(routingKey, intervalType)
	if err != nil {
		return nil, err
	}

	var found *scheduledledger.ScheduledLedger
	_ = r.db.read(func(st *state) error {
		if s, ok := st.scheduled[keyFor(paymentAccountID, window)]; ok {
			found = &s
		}
		return nil
	})
	return found, nil
}

// TransactionRepository implements transaction.Repository in memory
type TransactionRepository struct {
	db  access
	now func() time.Time
}

func (r *TransactionRepository) Insert(_ context.Context, txn *transaction.Transaction) (*transaction.Transaction, error) {
	var stored transaction.Transaction
	err := r.db.write(func(st *state) error {
		if _, exists := st.transactions[txn.ID]; exists {
			return shared.ErrUniqueViolation{Constraint: constraintTransactionPK}
		}
		key := idempotencyKey{paymentAccountID: txn.PaymentAccountID, key: txn.IdempotencyKey}
		if _, exists := st.byIdemKey[key]; exists {
			return shared.ErrUniqueViolation{Constraint: constraintTransactionIdemKey}
		}

		stored = *txn
		stored.CreatedAt = r.now()
		st.transactions[stored.ID] = stored
		st.byIdemKey[key] = stored.ID
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &stored, nil
}

func (r *TransactionRepository) GetByID(_ context.Context, id uuid.UUID) (*transaction.Transaction, error) {
	var found *transaction.Transaction
	_ = r.db.read(func(st *state) error {
		if txn, ok := st.transactions[id]; ok {
			found = &txn
		}
		return nil
	})
	return found, nil
}

func (r *TransactionRepository) GetByIdempotencyKey(_ context.Context, paymentAccountID, key string) (*transaction.Transaction, error) {
	if key == "" {
		return nil, shared.ErrMissingIdempotencyKey
	}

	var found *transaction.Transaction
	_ = r.db.read(func(st *state) error {
		id, ok := st.byIdemKey[idempotencyKey{paymentAccountID: paymentAccountID, key: key}]
		if !ok {
			return nil
		}
		txn := st.transactions[id]
		found = &txn
		return nil
	})
	return found, nil
}

// ListByLedgerID returns a page ordered newest first, ties broken by id
func (r *TransactionRepository) ListByLedgerID(_ context.Context, ledgerID uuid.UUID, limit, offset int) ([]*transaction.Transaction, error) {
	result := make([]*transaction.Transaction, 0)
	_ = r.db.read(func(st *state) error {
		for _, txn := range st.transactions {
			if txn.LedgerID == ledgerID {
				txn := txn
				result = append(result, &txn)
			}
		}
		return nil
	})

	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID.String() < result[j].ID.String()
	})

	start, end := pageBounds(len(result), limit, offset)
	return result[start:end], nil
}

// OutboxRepository implements outbox.Repository in memory
type OutboxRepository struct {
	db  access
	now func() time.Time
}

func (r *OutboxRepository) Create(_ context.Context, message *outbox.Message) error {
	return r.db.write(func(st *state) error {
		if _, exists := st.outboxTxnIDs[message.TransactionID]; exists {
			return shared.ErrUniqueViolation{Constraint: constraintOutboxTransactionID}
		}
		st.nextOutboxID++
		message.ID = st.nextOutboxID
		st.outbox[message.ID] = *message
		st.outboxTxnIDs[message.TransactionID] = message.ID
		return nil
	})
}

func (r *OutboxRepository) GetPending(_ context.Context, limit int) ([]*outbox.Message, error) {
	pending := make([]*outbox.Message, 0)
	_ = r.db.read(func(st *state) error {
		for _, m := range st.outbox {
			if m.Status == shared.OutboxStatusPending {
				m := m
				pending = append(pending, &m)
			}
		}
		return nil
	})

	sort.Slice(pending, func(i, j int) bool {
		return pending[i].ID < pending[j].ID
	})
	if limit > 0 && len(pending) > limit {
		pending = pending[:limit]
	}
	return pending, nil
}

func (r *OutboxRepository) UpdateStatus(_ context.Context, id int64, status shared.OutboxStatus) error {
	return r.db.write(func(st *state) error {
		m, ok := st.outbox[id]
		if !ok {
			return outbox.ErrMessageNotFound{ID: id}
		}
		now := r.now()
		m.Status = status
		m.LastAttemptAt = &now
		st.outbox[id] = m
		return nil
	})
}

func (r *OutboxRepository) IncrementAttempts(_ context.Context, id int64) error {
	return r.db.write(func(st *state) error {
		m, ok := st.outbox[id]
		if !ok {
			return outbox.ErrMessageNotFound{ID: id}
		}
		now := r.now()
		m.Attempts++
		m.LastAttemptAt = &now
		st.outbox[id] = m
		return nil
	})
}
