package persistence

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/payment-ledger/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func TestMongoDB_DatabaseAndCollection(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	// Connect is lazy, no server is contacted until the first operation
	client, err := mongo.Connect(context.Background(), options.Client().ApplyURI("mongodb://localhost:27017"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Disconnect(context.Background()) })

	db := client.Database("payment_ledger_test")
	mdb := &MongoDB{logger: logger, client: client, database: db}

	assert.Equal(t, db, mdb.Database())
	assert.Equal(t, "ledger_activity", mdb.Collection("ledger_activity").Name())
}

func TestNewMongoDB_RequiresURI(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	cfg := &config.MongoDBConfig{URI: config.Secret{Name: "mongo_uri"}}

	_, err := NewMongoDB(context.Background(), logger, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mongo uri secret is not loaded")
}
