package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/grymey-ledger/internal/config"
	"github.com/grymey-ledger/internal/data/mongo"
	"github.com/grymey-ledger/internal/data/postgres"
	"github.com/grymey-ledger/internal/event_processor/components"
	"github.com/grymey-ledger/internal/event_processor/consumer"
	"github.com/grymey-ledger/internal/event_processor/service"
	"github.com/grymey-ledger/internal/logger"
	"github.com/grymey-ledger/internal/platform/messaging/consumers"
	"github.com/grymey-ledger/internal/platform/messaging/producers"
	"github.com/grymey-ledger/internal/platform/persistence"
)

func main() {
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	cfg, err := config.LoadConfig("event_processor")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewLogger(cfg)

	log.Info("Starting Event Processor",
		"app_name", cfg.Application.Name,
		"env", cfg.Application.Env,
	)

	postgresDB, err := persistence.NewPostgresDB(appCtx, log, &cfg.Postgres)
	if err != nil {
		log.Error("Failed to initialize PostgreSQL", "error", err)
		os.Exit(1)
	}

	mongoDB, err := persistence.NewMongoDB(appCtx, log, &cfg.MongoDB)
	if err != nil {
		log.Error("Failed to initialize MongoDB", "error", err)
		os.Exit(1)
	}

	outboxRepo := postgres.NewOutboxRepository(log, postgresDB)
	historyRepo := mongo.NewHistoryRepository(log, mongoDB.Database())
	if err := mongoDB.Prepare(appCtx, historyRepo); err != nil {
		log.Error("Failed to ensure history indexes", "error", err)
		os.Exit(1)
	}

	eventProducer, err := producers.NewTransactionEventProducer(appCtx, log, &cfg.Kafka)
	if err != nil {
		log.Error("Failed to initialize transaction event producer", "error", err)
		os.Exit(1)
	}

	// dlqProducer is nil when KAFKA_DLQ_TOPIC is empty; it tolerates that
	dlqProducer, err := producers.NewDLQProducer(appCtx, log, &cfg.Kafka)
	if err != nil {
		log.Error("Failed to initialize DLQ Kafka producer", "error", err)
		os.Exit(1)
	}

	kafkaConsumer := consumers.NewKafkaConsumer(appCtx, log, &cfg.Kafka)

	projectionService := components.CreateProjectionService(historyRepo, log, cfg)
	transactionEventHandler := consumer.NewTransactionEventHandler(log, projectionService, dlqProducer)
	poller := components.CreateOutboxPoller(outboxRepo, eventProducer, log, cfg)

	errChan := make(chan error, 2)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Info("Starting Kafka consumer",
			"topic", cfg.Kafka.TransactionTopic,
			"group", cfg.Kafka.ConsumerGroup,
		)
		if err := kafkaConsumer.Subscribe(appCtx, cfg.Kafka.TransactionTopic, cfg.Kafka.ConsumerGroup, transactionEventHandler.HandleMessage); err != nil {
			errChan <- fmt.Errorf("kafka consumer error: %w", err)
			return
		}
		<-kafkaConsumer.Done()
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		poller.Start(appCtx)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	var serviceErr error
	select {
	case <-quit:
		log.Info("Shutdown signal received")
	case err := <-errChan:
		log.Error("Service error occurred", "error", err)
		serviceErr = err
	}

	cancelAppCtx()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelShutdown()

	log.Info("Waiting for services to stop...")
	wgChan := make(chan struct{})
	go func() {
		wg.Wait()
		close(wgChan)
	}()

	select {
	case <-wgChan:
		log.Info("All services stopped successfully")
	case <-shutdownCtx.Done():
		log.Warn("Shutdown timeout reached, forcing exit")
	}

	if wpService, ok := projectionService.(*service.WorkerPoolProjectionService); ok {
		wpService.Shutdown()
	}

	var closeErrs []error
	if err := eventProducer.Close(); err != nil {
		log.Error("Error closing transaction event producer", "error", err)
		closeErrs = append(closeErrs, err)
	}
	if err := dlqProducer.Close(); err != nil {
		log.Error("Error closing DLQ Kafka producer", "error", err)
		closeErrs = append(closeErrs, err)
	}
	if err := kafkaConsumer.Close(); err != nil {
		log.Error("Error closing Kafka consumer", "error", err)
		closeErrs = append(closeErrs, err)
	}

	postgresDB.Close()

	if err := mongoDB.Close(shutdownCtx); err != nil {
		log.Error("Error closing MongoDB connection", "error", err)
		closeErrs = append(closeErrs, err)
	}

	if serviceErr != nil || len(closeErrs) > 0 {
		log.Error("Event Processor shutdown completed with errors", "service_error", serviceErr, "close_errors", len(closeErrs))
		os.Exit(1)
	}
	log.Info("Event Processor shutdown completed successfully")
}
