package handler

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/payment-ledger/internal/domain/shared"
	"github.com/payment-ledger/internal/ledger_api/middleware"
	"github.com/payment-ledger/internal/ledger_api/service"
)

// CommandHandler turns write requests into ledger commands
type CommandHandler struct {
	commandService service.CommandService
	logger         *slog.Logger
}

// NewCommandHandler creates a new command handler
func NewCommandHandler(logger *slog.Logger, commandService service.CommandService) *CommandHandler {
	return &CommandHandler{
		commandService: commandService,
		logger:         logger,
	}
}

// CreateTransactionWithLedger accepts a transaction for the account's current ledger
func (h *CommandHandler) CreateTransactionWithLedger(c *gin.Context) {
	var req CreateTransactionWithLedgerRequest
	if !h.bind(c, &req) {
		return
	}

	amount, currency, ok := h.parseMoney(c, req.Amount, req.Currency)
	if !ok {
		return
	}

	h.submit(c, &shared.LedgerCommand{
		Type: shared.CommandCreateWithLedger,
		CreateWithLedger: &shared.CreateTransactionWithLedgerRequest{
			PaymentAccountID:   req.PaymentAccountID,
			Amount:             amount,
			Currency:           currency,
			LedgerType:         shared.LedgerType(req.LedgerType),
			IntervalType:       shared.IntervalType(req.IntervalType),
			RoutingKey:         req.RoutingKey,
			IdempotencyKey:     req.IdempotencyKey,
			TargetType:         shared.TargetType(req.TargetType),
			TransactionDetails: req.TransactionDetailsRequest.toDomain(),
		},
	})
}

// InsertTransaction accepts a transaction for the ledger named in the path
func (h *CommandHandler) InsertTransaction(c *gin.Context) {
	idParam := c.Param("id")
	ledgerID, err := uuid.Parse(idParam)
	if err != nil {
		h.logger.Warn("Invalid ledger ID", "ledger_id", idParam, "error", err)
		RespondBadRequest(c, "Invalid ledger ID")
		return
	}

	var req InsertTransactionRequest
	if !h.bind(c, &req) {
		return
	}

	amount, currency, ok := h.parseMoney(c, req.Amount, req.Currency)
	if !ok {
		return
	}

	h.submit(c, &shared.LedgerCommand{
		Type: shared.CommandInsertTransaction,
		Insert: &shared.InsertTransactionRequest{
			LedgerID:           ledgerID,
			PaymentAccountID:   req.PaymentAccountID,
			Amount:             amount,
			Currency:           currency,
			RoutingKey:         req.RoutingKey,
			IdempotencyKey:     req.IdempotencyKey,
			TargetType:         shared.TargetType(req.TargetType),
			TransactionDetails: req.TransactionDetailsRequest.toDomain(),
		},
	})
}

// CreateOneOffLedger accepts a new manual ledger funded by a micro deposit
func (h *CommandHandler) CreateOneOffLedger(c *gin.Context) {
	var req CreateOneOffLedgerRequest
	if !h.bind(c, &req) {
		return
	}

	balance, currency, ok := h.parseMoney(c, req.InitialBalance, req.Currency)
	if !ok {
		return
	}

	h.submit(c, &shared.LedgerCommand{
		Type: shared.CommandCreateOneOff,
		OneOff: &shared.CreateOneOffLedgerRequest{
			PaymentAccountID:   req.PaymentAccountID,
			InitialBalance:     balance,
			Currency:           currency,
			RoutingKey:         req.RoutingKey,
			IdempotencyKey:     req.IdempotencyKey,
			TransactionDetails: req.TransactionDetailsRequest.toDomain(),
		},
	})
}

func (h *CommandHandler) bind(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		h.logger.Warn("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return false
	}
	return true
}

func (h *CommandHandler) parseMoney(c *gin.Context, rawAmount, rawCurrency string) (int64, shared.Currency, bool) {
	currency, ok := shared.ParseCurrency(rawCurrency)
	if !ok {
		RespondBadRequest(c, "Unsupported currency: "+rawCurrency)
		return 0, "", false
	}

	amount, err := ParseMinorUnits(rawAmount)
	if err != nil {
		RespondBadRequest(c, err.Error())
		return 0, "", false
	}
	return amount, currency, true
}

// submit validates cmd and hands it to the command service. A key that was already
// recorded answers 200 with the stored transaction instead of 202.
func (h *CommandHandler) submit(c *gin.Context, cmd *shared.LedgerCommand) {
	cmd.CorrelationID = middleware.GetCorrelationID(c)

	if err := cmd.Validate(); err != nil {
		h.logger.Warn("Rejected invalid ledger command",
			"correlation_id", cmd.CorrelationID,
			"command_type", string(cmd.Type),
			"error", err,
		)
		RespondBadRequest(c, err.Error())
		return
	}

	existing, err := h.commandService.Submit(c.Request.Context(), cmd)
	if err != nil {
		RespondUnavailable(c, "The command could not be accepted, retry with the same idempotency key")
		return
	}
	if existing != nil {
		RespondOK(c, mapTransactionToResponse(existing))
		return
	}

	RespondAccepted(c, CommandAcceptedResponse{
		CommandType:      string(cmd.Type),
		PaymentAccountID: cmd.PaymentAccountID(),
		IdempotencyKey:   cmd.IdempotencyKey(),
		Status:           "ACCEPTED",
	})
}
