package api_gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/grymey-ledger/internal/api_gateway/handler"
	"github.com/grymey-ledger/internal/api_gateway/service"
	"github.com/grymey-ledger/internal/config"
)

// Services are the operations the HTTP API exposes. History is optional.
type Services struct {
	Wallets  service.WalletService
	Payments service.PaymentService
	Escrows  service.EscrowService
	Splits   service.SplitService
	Circles  service.CircleService
	Jars     service.JarService
	History  service.HistoryService
}

// Server handles HTTP requests and manages the application's lifecycle
type Server struct {
	logger     *slog.Logger // For structured logging
	httpServer *http.Server // Underlying HTTP server
	httpRouter *gin.Engine  // Gin router instance
}

// NewServer creates and configures a new HTTP server with the given services
func NewServer(log *slog.Logger, cfg *config.Config, services Services) *Server {
	if cfg.Application.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	httpRouter := gin.New()

	h := handlers{
		wallet:  handler.NewWalletHandler(log, services.Wallets),
		payment: handler.NewPaymentHandler(log, services.Payments),
		escrow:  handler.NewEscrowHandler(log, services.Escrows),
		split:   handler.NewSplitHandler(log, services.Splits),
		circle:  handler.NewCircleHandler(log, services.Circles),
		jar:     handler.NewJarHandler(log, services.Jars),
	}
	if services.History != nil {
		h.history = handler.NewHistoryHandler(log, services.History)
	}

	setupRouter(log, httpRouter, h)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      httpRouter,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return &Server{
		logger:     log,
		httpServer: httpServer,
		httpRouter: httpRouter,
	}
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.httpRouter
}

// Start begins listening for HTTP requests
func (s *Server) Start() error {
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	return nil
}

// Stop gracefully shuts down the HTTP server, waiting at most the write timeout
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("stopping HTTP server")

	shutdownCtx, cancel := context.WithTimeout(ctx, s.httpServer.WriteTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop HTTP server: %w", err)
	}

	return nil
}
