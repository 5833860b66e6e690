package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/payment-ledger/internal/config"
	"github.com/payment-ledger/internal/ledger_api"
	apiservice "github.com/payment-ledger/internal/ledger_api/service"
	"github.com/payment-ledger/internal/ledger_processor/components"
	"github.com/payment-ledger/internal/ledger_processor/consumer"
	"github.com/payment-ledger/internal/ledger_processor/outbox_poller"
	"github.com/payment-ledger/internal/ledger_processor/service"
	"github.com/payment-ledger/internal/logger"
	"github.com/payment-ledger/internal/platform/backend"
	"github.com/payment-ledger/internal/platform/messaging/consumers"
	"github.com/payment-ledger/internal/platform/messaging/producers"
)

// ledger_standalone runs the API and the processor in one process over a single
// backend, which is the only layout where STORE_DRIVER=memory is coherent.
func main() {
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	cfg, err := config.LoadConfig("ledger_standalone")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewLogger(cfg)
	log.Info("Starting Ledger Standalone", "store_driver", cfg.Store.Driver, "port", cfg.Server.Port)

	if err := loadSecrets(appCtx, cfg); err != nil {
		fatal(log, "Failed to load secrets", err)
	}

	calculator, err := backend.NewCalculator(&cfg.Ledger)
	if err != nil {
		fatal(log, "Failed to initialize interval calculator", err)
	}

	stores, err := backend.Open(appCtx, log, cfg, calculator)
	if err != nil {
		fatal(log, "Failed to open stores", err)
	}

	commandProducer, err := producers.NewLedgerCommandProducer(log, &cfg.Kafka)
	if err != nil {
		fatal(log, "Failed to initialize ledger command producer", err)
	}

	dlqProducer, err := producers.NewDLQProducer(log, &cfg.Kafka)
	if err != nil {
		fatal(log, "Failed to initialize DLQ Kafka producer", err)
	}
	var deadLetters producers.DeadLetterPublisher
	if dlqProducer != nil {
		deadLetters = dlqProducer
	}

	eventProducer, err := producers.NewLedgerEventProducer(log, &cfg.Kafka)
	if err != nil {
		fatal(log, "Failed to initialize ledger event producer", err)
	}

	processor := components.CreateLedgerProcessor(stores.UnitOfWork, calculator, log, cfg)
	commandHandler := consumer.NewLedgerCommandHandler(
		log.With("component", "ledger_command_handler"),
		processor,
		components.NewRejectionRecorder(stores.Activity, log.With("component", "rejection_recorder")),
		deadLetters,
		cfg.Ledger.CreationMaxAttempts,
	)

	poller := outbox_poller.NewPoller(
		&cfg.Outbox,
		stores.Stores.Outbox,
		log.With("component", "outbox_poller"),
		outbox_poller.NewActivityPublisher(stores.Activity, log.With("component", "activity_publisher")),
		outbox_poller.NewEventPublisher(eventProducer),
	)

	server := ledger_api.NewServer(
		log,
		cfg,
		apiservice.NewCommandService(log, stores.Stores.Transactions, commandProducer),
		apiservice.NewQueryService(log, stores.Stores.Ledgers, stores.Stores.Transactions, stores.Activity),
		stores.HealthChecks,
	)

	kafkaConsumer := consumers.NewKafkaConsumer(log, &cfg.Kafka)
	if err := kafkaConsumer.Subscribe(appCtx, commandHandler.HandleMessage); err != nil {
		fatal(log, "Failed to subscribe to ledger commands", err)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		poller.Start(appCtx)
	}()

	errChan := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil {
			errChan <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	select {
	case <-quit:
		log.Info("Shutdown signal received")
	case err := <-errChan:
		log.Error("Server error occurred", "error", err)
	case <-kafkaConsumer.Done():
		log.Error("Kafka consumer stopped unexpectedly")
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	log.Info("Starting graceful shutdown...")

	// Intake stops first so no command is published after the consumer is gone
	var shutdownErr error
	if err := server.Stop(shutdownCtx); err != nil {
		log.Error("Error during server shutdown", "error", err)
		shutdownErr = err
	}

	cancelAppCtx()

	stopped := make(chan struct{})
	go func() {
		wg.Wait()
		<-kafkaConsumer.Done()
		close(stopped)
	}()

	select {
	case <-stopped:
		log.Info("All services stopped successfully")
	case <-shutdownCtx.Done():
		log.Warn("Shutdown timeout reached, forcing exit")
	}

	if pool, ok := processor.(*service.WorkerPoolLedgerProcessor); ok {
		pool.Shutdown()
	}

	closers := []struct {
		name  string
		close func() error
	}{
		{"Kafka consumer", kafkaConsumer.Close},
		{"ledger command producer", commandProducer.Close},
		{"DLQ Kafka producer", dlqProducer.Close},
		{"ledger event producer", eventProducer.Close},
		{"stores", func() error { return stores.Close(shutdownCtx) }},
	}
	for _, c := range closers {
		if err := c.close(); err != nil {
			log.Error("Error closing "+c.name, "error", err)
			shutdownErr = err
		}
	}

	if shutdownErr != nil {
		log.Error("Ledger Standalone shutdown completed with errors")
		os.Exit(1)
	}
	log.Info("Ledger Standalone shutdown completed successfully")
}

func fatal(log *slog.Logger, msg string, err error) {
	log.Error(msg, "error", err)
	os.Exit(1)
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
