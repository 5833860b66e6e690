package ledger_api

import (
	"context"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/payment-ledger/internal/ledger_api/handler"
	"github.com/payment-ledger/internal/ledger_api/middleware"
)

// HealthCheck reports whether one dependency is reachable
type HealthCheck = func(ctx context.Context) error

const healthCheckTimeout = 2 * time.Second

type handlers struct {
	commands     *handler.CommandHandler
	ledgers      *handler.LedgerHandler
	transactions *handler.TransactionHandler
	activity     *handler.ActivityHandler
}

// setupRouter configures API routes and middleware for the application
func setupRouter(logger *slog.Logger, r *gin.Engine, h handlers, checks map[string]HealthCheck) {
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.CorrelationID())
	r.Use(middleware.Logger(logger))

	v1 := r.Group("/api/v1")
	{
		// Commands are accepted asynchronously and answered with 202
		v1.POST("/transactions", h.commands.CreateTransactionWithLedger)
		v1.POST("/ledgers/:id/transactions", h.commands.InsertTransaction)
		v1.POST("/one-off-ledgers", h.commands.CreateOneOffLedger)

		ledgers := v1.Group("/ledgers")
		{
			ledgers.GET("/:id", h.ledgers.GetByID)
			ledgers.GET("/:id/transactions", h.ledgers.ListTransactions)
		}

		v1.GET("/transactions/:id", h.transactions.GetByID)

		accounts := v1.Group("/accounts/:payment_account_id")
		{
			accounts.GET("/transactions/:idempotency_key", h.transactions.GetByIdempotencyKey)
			accounts.GET("/activity", h.activity.List)
		}
	}

	r.GET("/health", healthHandler(checks))
}

// healthHandler answers 503 naming every failed dependency
func healthHandler(checks map[string]HealthCheck) gin.HandlerFunc {
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
		defer cancel()

		status := http.StatusOK
		results := gin.H{}
		for _, name := range names {
			if err := checks[name](ctx); err != nil {
				status = http.StatusServiceUnavailable
				results[name] = err.Error()
				continue
			}
			results[name] = "ok"
		}

		body := gin.H{"status": "ok", "timestamp": time.Now().UTC()}
		if status != http.StatusOK {
			body["status"] = "degraded"
		}
		if len(results) > 0 {
			body["checks"] = results
		}
		c.JSON(status, body)
	}
}
