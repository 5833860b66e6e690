package handler

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/payment-ledger/internal/ledger_api/service"
)

// TransactionHandler serves transaction reads
type TransactionHandler struct {
	queryService service.QueryService
	logger       *slog.Logger
}

// NewTransactionHandler creates a new transaction handler
func NewTransactionHandler(logger *slog.Logger, queryService service.QueryService) *TransactionHandler {
	return &TransactionHandler{
		queryService: queryService,
		logger:       logger,
	}
}

// GetByID retrieves a transaction by its ID, returns 404 if not found
func (h *TransactionHandler) GetByID(c *gin.Context) {
	idParam := c.Param("id")
	id, err := uuid.Parse(idParam)
	if err != nil {
		h.logger.Warn("Invalid transaction ID", "id", idParam, "error", err)
		RespondBadRequest(c, "Invalid transaction ID")
		return
	}

	txn, err := h.queryService.GetTransaction(c.Request.Context(), id)
	if err != nil {
		RespondInternalError(c)
		return
	}
	if txn == nil {
		RespondNotFound(c, "Transaction not found")
		return
	}

	RespondOK(c, mapTransactionToResponse(txn))
}

// GetByIdempotencyKey looks a transaction up by the caller's natural key, which is how
// a client learns the outcome of a command it received 202 for
func (h *TransactionHandler) GetByIdempotencyKey(c *gin.Context) {
	account := c.Param("payment_account_id")
	key := c.Param("idempotency_key")

	txn, err := h.queryService.GetTransactionByIdempotencyKey(c.Request.Context(), account, key)
	if err != nil {
		RespondInternalError(c)
		return
	}
	if txn == nil {
		RespondNotFound(c, "Transaction not found")
		return
	}

	RespondOK(c, mapTransactionToResponse(txn))
}
