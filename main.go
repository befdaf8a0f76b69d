package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-tables/pkg/adapters/engine"
	_ "github.com/ekaya-inc/ekaya-tables/pkg/adapters/engine/mssql"
	_ "github.com/ekaya-inc/ekaya-tables/pkg/adapters/engine/mysql"
	_ "github.com/ekaya-inc/ekaya-tables/pkg/adapters/engine/postgres"
	_ "github.com/ekaya-inc/ekaya-tables/pkg/adapters/engine/sqlite"
	"github.com/ekaya-inc/ekaya-tables/pkg/catalog"
	"github.com/ekaya-inc/ekaya-tables/pkg/config"
	"github.com/ekaya-inc/ekaya-tables/pkg/handlers"
	"github.com/ekaya-inc/ekaya-tables/pkg/logging"
	"github.com/ekaya-inc/ekaya-tables/pkg/middleware"
	"github.com/ekaya-inc/ekaya-tables/pkg/repositories"
	"github.com/ekaya-inc/ekaya-tables/pkg/retry"
	"github.com/ekaya-inc/ekaya-tables/pkg/services"
)

// Version is set at build time via ldflags
var Version = "dev"

const shutdownTimeout = 30 * time.Second

func main() {
	// Load configuration
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.NewLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Error("Server stopped with error", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("Configuration loaded",
		zap.String("env", cfg.Env),
		zap.String("version", cfg.Version),
		zap.String("engine", cfg.Engine.Type),
		zap.String("engine_host", cfg.Engine.Host),
		zap.String("engine_database", cfg.Engine.Database),
		zap.Int("statement_max_length", cfg.Statements.MaxLength))

	eng, err := engine.Open(ctx, cfg.Engine.Type, cfg.Engine.AdapterConfig(),
		retry.WithMaxRetries(cfg.Engine.ConnectRetries), logger)
	if err != nil {
		return fmt.Errorf("open engine: %w", err)
	}
	defer func() {
		if err := eng.Close(); err != nil {
			logger.Warn("Failed to close engine", zap.String("error", logging.SanitizeError(err)))
		}
	}()

	cache := catalog.NewMetadataCache(eng, logger)
	statementRepo := repositories.NewStatementRepository()
	reportRepo := repositories.NewReportRepository()

	tableService := services.NewTableService(eng, cache, statementRepo, logger)
	statementService := services.NewStatementService(eng, cache, statementRepo, cfg.Statements.MaxLength, logger)
	reportService := services.NewReportService(eng, cache, reportRepo, logger)
	lifecycleService := services.NewLifecycleService(tableService, reportService, statementRepo, cache, logger)

	mux := http.NewServeMux()

	handlers.NewHealthHandler(cfg, eng, logger).RegisterRoutes(mux)
	handlers.NewTableHandler(tableService, logger).RegisterRoutes(mux)
	handlers.NewTableQueryHandler(statementService, logger).RegisterRoutes(mux)
	handlers.NewSingleQueryHandler(statementService, logger).RegisterRoutes(mux)
	handlers.NewReportHandler(reportService, logger).RegisterRoutes(mux)
	handlers.NewAdminHandler(lifecycleService, logger).RegisterRoutes(mux)

	server := &http.Server{
		Addr: net.JoinHostPort(cfg.BindAddr, cfg.Port),
		Handler: middleware.Chain(mux,
			middleware.RequestID,
			middleware.Recover(logger),
			middleware.RequestLogger(logger)),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		var err error
		if cfg.TLSCertPath != "" {
			logger.Info("Starting ekaya-tables with TLS", zap.String("addr", server.Addr))
			err = server.ListenAndServeTLS(cfg.TLSCertPath, cfg.TLSKeyPath)
		} else {
			logger.Info("Starting ekaya-tables", zap.String("addr", server.Addr))
			err = server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("ekaya-tables stopped")
	return nil
}
