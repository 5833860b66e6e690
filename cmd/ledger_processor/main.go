package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/payment-ledger/internal/config"
	"github.com/payment-ledger/internal/ledger_processor/components"
	"github.com/payment-ledger/internal/ledger_processor/consumer"
	"github.com/payment-ledger/internal/ledger_processor/outbox_poller"
	"github.com/payment-ledger/internal/ledger_processor/service"
	"github.com/payment-ledger/internal/logger"
	"github.com/payment-ledger/internal/platform/backend"
	"github.com/payment-ledger/internal/platform/messaging/consumers"
	"github.com/payment-ledger/internal/platform/messaging/producers"
)

func main() {
	// Create base context with cancellation
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	cfg, err := config.LoadConfig("ledger_processor")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewLogger(cfg)

	log.Info("Starting Ledger Processor",
		"app_name", cfg.Application.Name,
		"env", cfg.Application.Env,
		"store_driver", cfg.Store.Driver,
		"reference_timezone", cfg.Ledger.ReferenceTimezone,
		"week_start", cfg.Ledger.WeekStart.String(),
	)

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

	// dlqProducer is nil when KAFKA_DLQ_TOPIC is empty; it is nil-safe
	dlqProducer, err := producers.NewDLQProducer(log, &cfg.Kafka)
	if err != nil {
		log.Error("Failed to initialize DLQ Kafka producer", "error", err)
		os.Exit(1)
	}

	eventProducer, err := producers.NewLedgerEventProducer(log, &cfg.Kafka)
	if err != nil {
		log.Error("Failed to initialize ledger event producer", "error", err)
		os.Exit(1)
	}

	processor := components.CreateLedgerProcessor(stores.UnitOfWork, calculator, log, cfg)
	rejectionRecorder := components.NewRejectionRecorder(stores.Activity, log.With("component", "rejection_recorder"))

	var deadLetters producers.DeadLetterPublisher
	if dlqProducer != nil {
		deadLetters = dlqProducer
	}

	commandHandler := consumer.NewLedgerCommandHandler(
		log.With("component", "ledger_command_handler"),
		processor,
		rejectionRecorder,
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

	kafkaConsumer := consumers.NewKafkaConsumer(log, &cfg.Kafka)

	// Subscribe returns once the fetch loop is running; Done closes when it exits
	if err := kafkaConsumer.Subscribe(appCtx, commandHandler.HandleMessage); err != nil {
		log.Error("Failed to subscribe to ledger commands", "error", err)
		os.Exit(1)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		poller.Start(appCtx)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	select {
	case <-quit:
		log.Info("Shutdown signal received")
	case <-kafkaConsumer.Done():
		log.Error("Kafka consumer stopped unexpectedly")
	}

	cancelAppCtx()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	log.Info("Starting graceful shutdown...")

	log.Info("Waiting for services to stop...")
	wgChan := make(chan struct{})
	go func() {
		wg.Wait()
		<-kafkaConsumer.Done()
		close(wgChan)
	}()

	select {
	case <-wgChan:
		log.Info("All services stopped successfully")
	case <-shutdownCtx.Done():
		log.Warn("Shutdown timeout reached, forcing exit")
	}

	// Release workers only after the consumer stopped handing them commands
	if pool, ok := processor.(*service.WorkerPoolLedgerProcessor); ok {
		pool.Shutdown()
	}

	var shutdownErr error
	if err := kafkaConsumer.Close(); err != nil {
		log.Error("Error closing Kafka consumer", "error", err)
		shutdownErr = err
	}

	if err := dlqProducer.Close(); err != nil {
		log.Error("Error closing DLQ Kafka producer", "error", err)
		shutdownErr = err
	}

	if err := eventProducer.Close(); err != nil {
		log.Error("Error closing ledger event producer", "error", err)
		shutdownErr = err
	}

	if err := stores.Close(shutdownCtx); err != nil {
		log.Error("Error closing stores", "error", err)
		shutdownErr = err
	}

	if shutdownErr != nil {
		log.Error("Ledger Processor shutdown completed with errors")
		os.Exit(1)
	}
	log.Info("Ledger Processor shutdown completed successfully")
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
