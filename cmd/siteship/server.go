package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/siteship/siteship/internal/shell/api"
	"github.com/siteship/siteship/internal/shell/orchestrator"
	"github.com/siteship/siteship/internal/shell/platform"
	"github.com/siteship/siteship/internal/shell/store"
)

// =============================================================================
// Exit Codes
// =============================================================================

const (
	ExitSuccess         = 0
	ExitConfigError     = 1
	ExitDatabaseError   = 2
	ExitHTTPServerError = 3
)

// =============================================================================
// Server
// =============================================================================

// Server represents the SiteShip application server.
type Server struct {
	config     *Config
	httpServer *http.Server
	store      store.Store
	poller     *orchestrator.Poller
	logger     *slog.Logger
}

// NewServer creates a new server with the given config.
func NewServer(cfg *Config, logger *slog.Logger) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, &ServerError{
			Op:       "NewServer",
			Err:      err,
			ExitCode: ExitConfigError,
		}
	}

	// Create hosting platform client
	platformClient, err := platform.NewPagesClient(platform.Config{
		BaseURL:   cfg.Platform.APIURL,
		AccountID: cfg.Platform.AccountID,
		APIToken:  cfg.Platform.APIToken,
		Timeout:   cfg.Platform.Timeout,
	})
	if err != nil {
		return nil, &ServerError{
			Op:       "NewServer",
			Err:      err,
			ExitCode: ExitConfigError,
		}
	}

	// Connect to database
	s, err := store.NewSQLiteStore(cfg.Database.DSN)
	if err != nil {
		return nil, &ServerError{
			Op:       "NewServer",
			Err:      err,
			ExitCode: ExitDatabaseError,
		}
	}

	// Create orchestrators
	deployments := orchestrator.NewDeploymentService(s, platformClient, cfg.Platform.Suffix, logger)
	domains := orchestrator.NewDomainService(s, platformClient, cfg.Platform.Suffix, logger)
	poller := orchestrator.NewPoller(deployments, cfg.Poll.Interval, logger)

	// Create HTTP server
	handler := api.NewHandler(s, deployments, domains, logger)
	httpServer := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      handler.Routes(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	return &Server{
		config:     cfg,
		httpServer: httpServer,
		store:      s,
		poller:     poller,
		logger:     logger,
	}, nil
}

// Start starts the server and blocks until shutdown.
func (s *Server) Start(ctx context.Context) error {
	// Setup signal handling
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// Resume reconciliation for deployments left in flight by a restart.
	go s.resumeInFlight(ctx)

	// Start HTTP server in goroutine
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server",
			"address", s.config.Server.Address())
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Wait for shutdown signal or error
	select {
	case sig := <-sigCh:
		s.logger.Info("received shutdown signal", "signal", sig)
	case err := <-errCh:
		return &ServerError{
			Op:       "Start",
			Err:      err,
			ExitCode: ExitHTTPServerError,
		}
	case <-ctx.Done():
		s.logger.Info("context cancelled")
	}

	return s.Shutdown(context.Background())
}

// resumeInFlight awaits resolution of any deployment that was deploying when
// the process last stopped. Reconciliation is idempotent, so re-awaiting a
// deployment that resolved in the meantime is harmless.
func (s *Server) resumeInFlight(ctx context.Context) {
	records, err := s.store.ListDeploymentRecords(ctx, store.DefaultListOptions())
	if err != nil {
		s.logger.Error("failed to list records for resume", "error", err)
		return
	}

	for _, record := range records {
		if !record.DeploymentStatus.InFlight() {
			continue
		}
		customerID := record.CustomerID
		s.logger.Info("resuming in-flight deployment", "customer", customerID)
		go func() {
			if _, err := s.poller.Await(ctx, customerID); err != nil && !errors.Is(err, context.Canceled) {
				s.logger.Error("resumed deployment did not resolve",
					"customer", customerID, "error", err)
			}
		}()
	}
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("initiating graceful shutdown")

	// Create shutdown context with timeout
	shutdownCtx, cancel := context.WithTimeout(ctx, s.config.Server.ShutdownTimeout)
	defer cancel()

	// Shutdown HTTP server
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
	}

	// Close database
	if err := s.store.Close(); err != nil {
		s.logger.Error("database close error", "error", err)
	}

	s.logger.Info("shutdown complete")
	return nil
}

// =============================================================================
// Server Error
// =============================================================================

// ServerError represents an error during server operation.
type ServerError struct {
	Op       string
	Err      error
	ExitCode int
}

func (e *ServerError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *ServerError) Unwrap() error {
	return e.Err
}
