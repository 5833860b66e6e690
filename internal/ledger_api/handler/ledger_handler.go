package handler

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/payment-ledger/internal/ledger_api/service"
)

// LedgerHandler serves ledger reads
type LedgerHandler struct {
	queryService service.QueryService
	logger       *slog.Logger
}

// NewLedgerHandler creates a new ledger handler
func NewLedgerHandler(logger *slog.Logger, queryService service.QueryService) *LedgerHandler {
	return &LedgerHandler{
		queryService: queryService,
		logger:       logger,
	}
}

// GetByID returns a ledger and its current balance, 404 if unknown
func (h *LedgerHandler) GetByID(c *gin.Context) {
	id, ok := h.ledgerID(c)
	if !ok {
		return
	}

	l, err := h.queryService.GetLedger(c.Request.Context(), id)
	if err != nil {
		RespondInternalError(c)
		return
	}
	if l == nil {
		RespondNotFound(c, "Ledger not found")
		return
	}

	RespondOK(c, mapLedgerToResponse(l))
}

// ListTransactions returns a page of the ledger's transactions, newest first
func (h *LedgerHandler) ListTransactions(c *gin.Context) {
	id, ok := h.ledgerID(c)
	if !ok {
		return
	}

	var pagination PaginationParams
	if err := c.ShouldBindQuery(&pagination); err != nil {
		h.logger.Warn("Invalid pagination parameters", "error", err)
		RespondBadRequest(c, "Invalid pagination parameters")
		return
	}

	l, err := h.queryService.GetLedger(c.Request.Context(), id)
	if err != nil {
		RespondInternalError(c)
		return
	}
	if l == nil {
		RespondNotFound(c, "Ledger not found")
		return
	}

	txns, err := h.queryService.ListLedgerTransactions(c.Request.Context(), id, pagination.Page, pagination.PerPage)
	if err != nil {
		RespondInternalError(c)
		return
	}

	RespondWithPage(c, mapTransactionsToResponse(txns), pagination.Page, pagination.PerPage)
}

func (h *LedgerHandler) ledgerID(c *gin.Context) (uuid.UUID, bool) {
	idParam := c.Param("id")
	id, err := uuid.Parse(idParam)
	if err != nil {
		h.logger.Warn("Invalid ledger ID", "id", idParam, "error", err)
		RespondBadRequest(c, "Invalid ledger ID")
		return uuid.Nil, false
	}
	return id, true
}
