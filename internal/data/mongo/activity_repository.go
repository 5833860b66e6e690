// Package mongo stores the ledger activity read model in MongoDB.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/payment-ledger/internal/domain/activity"
)

const (
	// ActivityCollectionName is the name of the activity collection in MongoDB
	ActivityCollectionName = "ledger_activity"
)

// ActivityRepository implements the activity.Repository interface for MongoDB
type ActivityRepository struct {
	db     *mongo.Database
	logger *slog.Logger
}

// NewActivityRepository creates a new MongoDB activity repository
func NewActivityRepository(logger *slog.Logger, db *mongo.Database) *ActivityRepository {
	return &ActivityRepository{
		db:     db,
		logger: logger,
	}
}

// EnsureIndexes creates the lookup indexes used by the activity queries
func (r *ActivityRepository) EnsureIndexes(ctx context.Context) error {
	collection := r.db.Collection(ActivityCollectionName)

	_, err := collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "payment_account_id", Value: 1}, {Key: "routing_key", Value: -1}}},
		{Keys: bson.D{{Key: "transaction_id", Value: 1}}},
	})
	if err != nil {
		r.logger.Error("Failed to create activity indexes", "error", err)
		return fmt.Errorf("failed to create activity indexes: %w", err)
	}
	return nil
}

// Upsert writes entry under its deterministic id, replacing any earlier version.
// Replaying the same event therefore leaves a single document.
func (r *ActivityRepository) Upsert(ctx context.Context, entry *activity.Entry) error {
	if entry.ID == "" {
		return errors.New("activity entry id cannot be empty")
	}

	collection := r.db.Collection(ActivityCollectionName)

	filter := bson.M{"_id": entry.ID}
	_, err := collection.ReplaceOne(ctx, filter, entry, options.Replace().SetUpsert(true))
	if err != nil {
		r.logger.Error("Failed to upsert activity entry",
			"id", entry.ID,
			"payment_account_id", entry.PaymentAccountID,
			"error", err)
		return fmt.Errorf("failed to upsert activity entry: %w", err)
	}

	return nil
}

// GetByTransactionID retrieves the entry of a recorded transaction.
// Returns ErrEntryNotFound if no entry exists for the given transaction.
func (r *ActivityRepository) GetByTransactionID(ctx context.Context, transactionID uuid.UUID) (*activity.Entry, error) {
	collection := r.db.Collection(ActivityCollectionName)

	filter := bson.M{"transaction_id": transactionID}
	var entry activity.Entry
	err := collection.FindOne(ctx, filter).Decode(&entry)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, activity.ErrEntryNotFound{TransactionID: transactionID}
		}
		r.logger.Error("Failed to get activity entry",
			"transaction_id", transactionID.String(),
			"error", err)
		return nil, fmt.Errorf("failed to get activity entry: %w", err)
	}

	return &entry, nil
}

func filterDocument(f activity.Filter) bson.M {
	filter := bson.M{}
	if f.PaymentAccountID != "" {
		filter["payment_account_id"] = f.PaymentAccountID
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}

	routingKey := bson.M{}
	if !f.From.IsZero() {
		routingKey["$gte"] = f.From
	}
	if !f.To.IsZero() {
		routingKey["$lt"] = f.To
	}
	if len(routingKey) > 0 {
		filter["routing_key"] = routingKey
	}
	return filter
}

// List retrieves a page of matching entries, newest routing key first.
func (r *ActivityRepository) List(ctx context.Context, f activity.Filter, limit, offset int) ([]*activity.Entry, error) {
	collection := r.db.Collection(ActivityCollectionName)

	opts := options.Find().
		SetSort(bson.D{{Key: "routing_key", Value: -1}, {Key: "_id", Value: 1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cursor, err := collection.Find(ctx, filterDocument(f), opts)
	if err != nil {
		r.logger.Error("Failed to list activity entries",
			"payment_account_id", f.PaymentAccountID,
			"error", err)
		return nil, fmt.Errorf("failed to list activity entries: %w", err)
	}
	defer cursor.Close(ctx)

	entries := make([]*activity.Entry, 0)
	if err := cursor.All(ctx, &entries); err != nil {
		r.logger.Error("Failed to decode activity entries",
			"payment_account_id", f.PaymentAccountID,
			"error", err)
		return nil, fmt.Errorf("failed to decode activity entries: %w", err)
	}

	return entries, nil
}

// Count counts the entries matching f
func (r *ActivityRepository) Count(ctx context.Context, f activity.Filter) (int64, error) {
	collection := r.db.Collection(ActivityCollectionName)

	count, err := collection.CountDocuments(ctx, filterDocument(f))
	if err != nil {
		r.logger.Error("Failed to count activity entries",
			"payment_account_id", f.PaymentAccountID,
			"error", err)
		return 0, fmt.Errorf("failed to count activity entries: %w", err)
	}

	return count, nil
}
