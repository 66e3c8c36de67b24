package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/grymey-ledger/internal/api_gateway"
	"github.com/grymey-ledger/internal/api_gateway/service"
	"github.com/grymey-ledger/internal/config"
	"github.com/grymey-ledger/internal/data/memory"
	"github.com/grymey-ledger/internal/data/mongo"
	"github.com/grymey-ledger/internal/data/postgres"
	"github.com/grymey-ledger/internal/domain/uow"
	"github.com/grymey-ledger/internal/logger"
	"github.com/grymey-ledger/internal/platform/persistence"
	"github.com/grymey-ledger/internal/settlement/components"
)

func main() {
	// Create base context with cancellation
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	cfg, err := config.LoadConfig("api_gateway")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewLogger(cfg)

	log.Info("Starting API Gateway",
		"app_name", cfg.Application.Name,
		"env", cfg.Application.Env,
		"storage_driver", cfg.Storage.Driver,
	)

	var (
		unitOfWork uow.UnitOfWork
		postgresDB *persistence.PostgresDB
	)
	switch cfg.Storage.Driver {
	case config.StorageDriverMemory:
		log.Warn("Using in-memory storage; balances are lost on restart and no events are relayed")
		unitOfWork = memory.NewStore(log.With("component", "memory_store"))
	default:
		postgresDB, err = persistence.NewPostgresDB(appCtx, log, &cfg.Postgres)
		if err != nil {
			log.Error("Failed to initialize PostgreSQL", "error", err)
			os.Exit(1)
		}
		unitOfWork = postgres.NewUnitOfWork(log, postgresDB)
	}

	settlement := components.CreateSettlementServices(unitOfWork, cfg, nil, log)

	services := api_gateway.Services{
		Wallets:  settlement.Wallets,
		Payments: settlement.Payments,
		Escrows:  settlement.Escrows,
		Splits:   settlement.Splits,
		Circles:  settlement.Circles,
		Jars:     settlement.Jars,
	}

	// History is read from the projection the event processor maintains
	mongoDB, err := persistence.NewMongoDB(appCtx, log, &cfg.MongoDB)
	switch {
	case err == nil:
		historyRepo := mongo.NewHistoryRepository(log, mongoDB.Database())
		services.History = service.NewHistoryService(log, historyRepo)
	case cfg.Storage.Driver == config.StorageDriverMemory:
		log.Warn("MongoDB unavailable, history endpoints disabled", "error", err)
	default:
		log.Error("Failed to initialize MongoDB", "error", err)
		os.Exit(1)
	}

	server := api_gateway.NewServer(log, cfg, services)
	log.Info("REST server initialized", "history_enabled", services.History != nil)

	errChan := make(chan error, 1)

	go func() {
		log.Info("Starting HTTP server", "port", cfg.Server.Port)
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

	// Stop taking requests before the stores go away
	shutdownErr := server.Stop(shutdownCtx)
	if shutdownErr != nil {
		log.Error("Error during server shutdown", "error", shutdownErr)
	}

	closeStores(shutdownCtx, log, postgresDB, mongoDB)

	if serverErr != nil || shutdownErr != nil {
		log.Error("Server shutdown completed with errors")
		os.Exit(1)
	}
	log.Info("Server shutdown completed successfully")
}

func closeStores(ctx context.Context, log *slog.Logger, postgresDB *persistence.PostgresDB, mongoDB *persistence.MongoDB) {
	if postgresDB != nil {
		postgresDB.Close()
	}
	if mongoDB != nil {
		if err := mongoDB.Close(ctx); err != nil {
			log.Error("Error closing MongoDB connection", "error", err)
		}
	}
}
