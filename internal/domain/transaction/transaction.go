package transaction

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/payment-ledger/internal/domain/shared"
)

// Transaction is an immutable signed movement recorded against exactly one ledger.
type Transaction struct {
	ID               uuid.UUID         `json:"id"`
	LedgerID         uuid.UUID         `json:"ledger_id"`
	PaymentAccountID string            `json:"payment_account_id"`
	Amount           int64             `json:"amount"` // Signed minor units
	Currency         shared.Currency   `json:"currency"`
	IdempotencyKey   string            `json:"idempotency_key"`
	TargetType       shared.TargetType `json:"target_type"`
	RoutingKey       time.Time         `json:"routing_key"`
	shared.TransactionDetails
	CreatedAt time.Time `json:"created_at"`
}

// FromCreateRequest builds the transaction of req for ledgerID.
func FromCreateRequest(req *shared.CreateTransactionWithLedgerRequest, ledgerID uuid.UUID) *Transaction {
	return &Transaction{
		ID:                 uuid.New(),
		LedgerID:           ledgerID,
		PaymentAccountID:   req.PaymentAccountID,
		Amount:             req.Amount,
		Currency:           req.Currency,
		IdempotencyKey:     req.IdempotencyKey,
		TargetType:         req.TargetType,
		RoutingKey:         req.RoutingKey,
		TransactionDetails: req.TransactionDetails,
	}
}

// FromInsertRequest builds the transaction of req against req.LedgerID.
func FromInsertRequest(req *shared.InsertTransactionRequest) *Transaction {
	return &Transaction{
		ID:                 uuid.New(),
		LedgerID:           req.LedgerID,
		PaymentAccountID:   req.PaymentAccountID,
		Amount:             req.Amount,
		Currency:           req.Currency,
		IdempotencyKey:     req.IdempotencyKey,
		TargetType:         req.TargetType,
		RoutingKey:         req.RoutingKey,
		TransactionDetails: req.TransactionDetails,
	}
}

// FromOneOffRequest builds the micro deposit that funds a one-off ledger.
func FromOneOffRequest(req *shared.CreateOneOffLedgerRequest, ledgerID uuid.UUID) *Transaction {
	return &Transaction{
		ID:                 uuid.New(),
		LedgerID:           ledgerID,
		PaymentAccountID:   req.PaymentAccountID,
		Amount:             req.InitialBalance,
		Currency:           req.Currency,
		IdempotencyKey:     req.IdempotencyKey,
		TargetType:         shared.TargetTypeMicroDeposit,
		RoutingKey:         req.RoutingKey,
		TransactionDetails: req.TransactionDetails,
	}
}

// Repository manages transaction persistence
type Repository interface {
	Insert(ctx context.Context, txn *Transaction) (*Transaction, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Transaction, error)
	GetByIdempotencyKey(ctx context.Context, paymentAccountID, idempotencyKey string) (*Transaction, error)
	ListByLedgerID(ctx context.Context, ledgerID uuid.UUID, limit, offset int) ([]*Transaction, error)
}

// ErrDuplicateTransaction indicates the (payment account, idempotency key) pair was
// already recorded. The earlier transaction can be fetched by that natural key.
type ErrDuplicateTransaction struct {
	PaymentAccountID string
	IdempotencyKey   string
}

func (e ErrDuplicateTransaction) Error() string {
	return "duplicate transaction for payment account " + e.PaymentAccountID + " with idempotency key " + e.IdempotencyKey
}

// Is implements the errors.Is interface for ErrDuplicateTransaction
func (e ErrDuplicateTransaction) Is(target error) bool {
	t, ok := target.(ErrDuplicateTransaction)
	if !ok {
		return false
	}
	// An empty target matches any duplicate
	if t.PaymentAccountID == "" && t.IdempotencyKey == "" {
		return true
	}
	return e.PaymentAccountID == t.PaymentAccountID && e.IdempotencyKey == t.IdempotencyKey
}
