package memory

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/payment-ledger/internal/domain/activity"
)

// ActivityRepository implements activity.Repository in memory
type ActivityRepository struct {
	mu      sync.RWMutex
	entries map[string]activity.Entry
}

func NewActivityRepository() *ActivityRepository {
	return &ActivityRepository{entries: make(map[string]activity.Entry)}
}

func (r *ActivityRepository) Upsert(_ context.Context, entry *activity.Entry) error {
	if entry.ID == "" {
		return errors.New("activity entry id cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[entry.ID] = *entry
	return nil
}

func (r *ActivityRepository) GetByTransactionID(_ context.Context, transactionID uuid.UUID) (*activity.Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, e := range r.entries {
		if e.TransactionID == transactionID {
			e := e
			return &e, nil
		}
	}
	return nil, activity.ErrEntryNotFound{TransactionID: transactionID}
}

func matches(e activity.Entry, f activity.Filter) bool {
	if f.PaymentAccountID != "" && e.PaymentAccountID != f.PaymentAccountID {
		return false
	}
	if f.Status != "" && e.Status != f.Status {
		return false
	}
	if !f.From.IsZero() && e.RoutingKey.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && !e.RoutingKey.Before(f.To) {
		return false
	}
	return true
}

func (r *ActivityRepository) filtered(f activity.Filter) []*activity.Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*activity.Entry, 0)
	for _, e := range r.entries {
		if matches(e, f) {
			e := e
			result = append(result, &e)
		}
	}
	return result
}

// List orders by routing key, newest first, then by id
func (r *ActivityRepository) List(_ context.Context, f activity.Filter, limit, offset int) ([]*activity.Entry, error) {
	result := r.filtered(f)
	sort.Slice(result, func(i, j int) bool {
		if !result[i].RoutingKey.Equal(result[j].RoutingKey) {
			return result[i].RoutingKey.After(result[j].RoutingKey)
		}
		return result[i].ID < result[j].ID
	})

	start, end := pageBounds(len(result), limit, offset)
	return result[start:end], nil
}

func (r *ActivityRepository) Count(_ context.Context, f activity.Filter) (int64, error) {
	return int64(len(r.filtered(f))), nil
}
