package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-dataprep/pkg/config"
	"github.com/ekaya-inc/ekaya-dataprep/pkg/handlers"
	"github.com/ekaya-inc/ekaya-dataprep/pkg/ingest"
	"github.com/ekaya-inc/ekaya-dataprep/pkg/logging"
	"github.com/ekaya-inc/ekaya-dataprep/pkg/middleware"
	"github.com/ekaya-inc/ekaya-dataprep/pkg/services"
	"github.com/ekaya-inc/ekaya-dataprep/pkg/store"
	"github.com/ekaya-inc/ekaya-dataprep/pkg/workerpool"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	// Load configuration
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.NewLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Configuration loaded",
		zap.String("env", cfg.Env),
		zap.String("listen_addr", cfg.ListenAddr()),
		zap.Int64("max_upload_mb", cfg.Processing.MaxUploadMB),
		zap.Int("profile_workers", cfg.Processing.ProfileWorkers),
		zap.Duration("dataset_ttl", cfg.Store.TTL()))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Services
	pool := workerpool.New(workerpool.Config{MaxConcurrent: cfg.Processing.ProfileWorkers}, logger)
	processor := services.NewDatasetProcessor(
		services.NewColumnProfiler(cfg.Processing.ProfilerConfig(), logger),
		services.NewCoercionEngine(logger),
		pool,
		cfg.Processing.PreviewRows,
		logger,
	)
	decoder := ingest.NewDecoder(cfg.Processing.MaxUploadBytes(), logger)

	datasets := store.NewDatasetStore(cfg.Store.TTL(), logger)
	datasets.RunSweeper(ctx, cfg.Store.SweepInterval())
	sessions := store.NewSessionManager(cfg.Session.Secret, cfg.Session.MaxAge, cfg.Session.Secure)

	mux := http.NewServeMux()

	// Register handlers
	handlers.NewHealthHandler(cfg, datasets, logger).RegisterRoutes(mux)
	handlers.NewTypesHandler(logger).RegisterRoutes(mux)
	handlers.NewDatasetHandler(processor, decoder, datasets, sessions, logger.Named("datasets")).RegisterRoutes(mux)

	// Serve the static UI when one is configured
	if cfg.UIDir != "" {
		if _, err := os.Stat(cfg.UIDir); err == nil {
			mux.Handle("/", http.FileServer(http.Dir(cfg.UIDir)))
		} else {
			logger.Warn("UI directory not found, skipping static files", zap.String("ui_dir", cfg.UIDir))
		}
	}

	handler := middleware.RequestID(middleware.RequestLogger(logger.Named("http"))(mux))

	server := &http.Server{
		Addr:              cfg.ListenAddr(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown failed", zap.Error(err))
		}
	}()

	logger.Info("Starting ekaya-dataprep",
		zap.String("addr", server.Addr),
		zap.String("version", cfg.Version))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("Server failed", zap.Error(err))
	}
	logger.Info("Server stopped")
}
