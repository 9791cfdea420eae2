package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"finboard/internal/backend"
	"finboard/internal/cli"
	apphttp "finboard/internal/http"
	"finboard/internal/log"
)

func main() {
	cli.LoadEnvFile()

	// Bootstrap logger for configuration errors, replaced once LOG_LEVEL is known
	logger := cli.SetupLogger("info", log.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)
	logger = cli.SetupLogger(cfg.LogLevel, log.ComponentApp)

	backendConfig, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}

	factory := backend.NewFactory(logger.WithComponent(log.ComponentBackend).Logger)
	result, err := factory.CreateBackend(context.Background(), backendConfig)
	if err != nil {
		logger.Error("Failed to initialize backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer func() {
		if result.Cleanup == nil {
			return
		}
		if err := result.Cleanup(); err != nil {
			logger.Error("Backend cleanup error", "error", err)
		}
	}()

	srv := apphttp.NewServer(":"+cfg.Port, result.Backend, apphttp.Options{
		Currency:          cfg.Currency,
		DuplicatePolicy:   cfg.DuplicatePolicy(),
		DefaultCategories: cfg.BudgetDefaultCategories,
		CacheSize:         cfg.CacheSize,
		CacheTTL:          cfg.CacheTTL,
		Ready:             result.Ready,
		Logger:            logger.WithComponent(log.ComponentHTTP),
	})

	ctx, stop := cli.SignalContext(logger)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Starting finboard server",
			"port", cfg.Port,
			"backend", cfg.DataBackend,
			"currency", cfg.Currency)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			logger.Error("Server error", "error", err, "port", cfg.Port)
			os.Exit(1)
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := cli.ShutdownContext(30 * time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}
	logger.Info("Server stopped gracefully")
}
