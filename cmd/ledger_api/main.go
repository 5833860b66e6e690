package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/payment-ledger/internal/config"
	"github.com/payment-ledger/internal/ledger_api"
	"github.com/payment-ledger/internal/ledger_api/service"
	"github.com/payment-ledger/internal/logger"
	"github.com/payment-ledger/internal/platform/backend"
	"github.com/payment-ledger/internal/platform/messaging/producers"
)

func main() {
	// Create base context with cancellation
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	cfg, err := config.LoadConfig("ledger_api")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewLogger(cfg)

	if err := loadSecrets(appCtx, cfg); err != nil {
		log.Error("Failed to load secrets", "error", err)
		os.Exit(1)
	}

	calculator, err := backend.NewCalculator(&cfg.Ledger)
	if err != nil {
		log.Error("Failed to initialize interval calculator", "error", err)
		os.Exit(1)
	}

	stores, err := backend.OpenShared(appCtx, log, cfg, calculator)
	if err != nil {
		log.Error("Failed to open stores", "driver", cfg.Store.Driver, "error", err)
		os.Exit(1)
	}

	// Commands go to the command topic keyed by payment account
	commandProducer, err := producers.NewLedgerCommandProducer(log, &cfg.Kafka)
	if err != nil {
		log.Error("Failed to initialize ledger command producer", "error", err)
		os.Exit(1)
	}

	commandService := service.NewCommandService(log, stores.Stores.Transactions, commandProducer)
	queryService := service.NewQueryService(log, stores.Stores.Ledgers, stores.Stores.Transactions, stores.Activity)

	server := ledger_api.NewServer(log, cfg, commandService, queryService, stores.HealthChecks)
	log.Info("REST server initialized", "store_driver", stores.Driver)

	errChan := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	var serverErr error
	select {
	case <-quit:
		log.Info("Shutdown signal received")
	case err := <-errChan:
		log.Error("Server error occurred", "error", err)
		serverErr = err
	}

	cancelAppCtx()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	log.Info("Starting graceful shutdown...")

	// Stop taking requests before closing what they depend on
	var shutdownErr error
	if err := server.Stop(shutdownCtx); err != nil {
		log.Error("Error during server shutdown", "error", err)
		shutdownErr = err
	}

	if err := commandProducer.Close(); err != nil {
		log.Error("Error closing ledger command producer", "error", err)
		shutdownErr = err
	}

	if err := stores.Close(shutdownCtx); err != nil {
		log.Error("Error closing stores", "error", err)
		shutdownErr = err
	}

	if serverErr != nil {
		log.Error("HTTP server shutdown with errors", "error", serverErr)
	}
	if shutdownErr != nil {
		log.Error("Server shutdown completed with errors")
		os.Exit(1)
	}
	log.Info("Server shutdown completed successfully")
}

// loadSecrets fills secret config values from SECRETS_FILE when one is configured
func loadSecrets(ctx context.Context, cfg *config.Config) error {
	var loader config.SecretLoader
	if cfg.Secrets.File != "" {
		fileLoader, err := config.NewViperSecretLoader(cfg.Secrets.File)
		if err != nil {
			return err
		}
		loader = fileLoader
	}
	return cfg.LoadSecrets(ctx, loader)
}
