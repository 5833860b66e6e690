package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/payment-ledger/internal/domain/activity"
	"github.com/payment-ledger/internal/ledger_api/service"
)

// ActivityHandler serves an account's recorded and rejected commands
type ActivityHandler struct {
	queryService service.QueryService
	logger       *slog.Logger
}

// NewActivityHandler creates a new activity handler
func NewActivityHandler(logger *slog.Logger, queryService service.QueryService) *ActivityHandler {
	return &ActivityHandler{
		queryService: queryService,
		logger:       logger,
	}
}

// List retrieves paginated activity for an account
func (h *ActivityHandler) List(c *gin.Context) {
	var params ActivityQueryParams
	if err := c.ShouldBindQuery(&params); err != nil {
		h.logger.Warn("Invalid activity query parameters", "error", err)
		RespondBadRequest(c, "Invalid query parameters: "+err.Error())
		return
	}
	if !params.From.IsZero() && !params.To.IsZero() && !params.From.Before(params.To) {
		RespondBadRequest(c, "from must be before to")
		return
	}

	filter := activity.Filter{
		PaymentAccountID: c.Param("payment_account_id"),
		Status:           activity.Status(params.Status),
		From:             params.From,
		To:               params.To,
	}

	entries, total, err := h.queryService.ListActivity(c.Request.Context(), filter, params.Page, params.PerPage)
	if err != nil {
		RespondInternalError(c)
		return
	}

	responses := make([]ActivityResponse, 0, len(entries))
	for _, e := range entries {
		responses = append(responses, mapActivityToResponse(e))
	}

	RespondWithPaginatedData(c, http.StatusOK, responses, params.Page, params.PerPage, int(total))
}
