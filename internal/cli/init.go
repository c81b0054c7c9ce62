// Package cli holds the initialization shared by cmd/fintrack and
// cmd/fintrack-mirror: env loading, logging, config, secrets and the API
// client, plus signal-driven shutdown.
package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"fintrack/internal/api"
	"fintrack/internal/config"
	"fintrack/internal/log"
	"fintrack/internal/secrets"
	"fintrack/internal/trace"
)

// SetupLogger initializes structured logging and sets it as the default.
func SetupLogger() *log.Logger {
	logger := log.New(log.DefaultConfig())
	log.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *log.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	return cfg
}

// InitSecrets opens the on-disk token store. An empty dir selects the
// per-user default location.
func InitSecrets(logger *log.Logger, dir string) *secrets.FileStore {
	if dir == "" {
		var err error
		if dir, err = secrets.DefaultDir(); err != nil {
			logger.Error("Failed to resolve secrets directory", log.FieldError, err)
			os.Exit(1)
		}
	}
	store, err := secrets.NewFileStore(dir)
	if err != nil {
		logger.Error("Failed to open secrets store", log.FieldError, err)
		os.Exit(1)
	}
	return store
}

// InitAPIClient builds the API client against the configured base URL, with
// request tracing on the transport.
func InitAPIClient(cfg *config.Config, store secrets.Store, logger *log.Logger) *api.Client {
	httpClient := &http.Client{
		Transport: trace.NewTransport(nil, logger),
		Timeout:   cfg.RequestTimeout,
	}
	return api.New(cfg.APIBaseURL, store,
		api.WithHTTPClient(httpClient),
		api.WithLogger(logger))
}

// GracefulShutdown sets up signal handling for graceful shutdown.
// Returns a context cancelled on SIGINT/SIGTERM and a channel closed once
// cleanup has run.
func GracefulShutdown(logger *log.Logger, timeout time.Duration, cleanup func()) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		cancel()

		finished := make(chan struct{})
		go func() {
			if cleanup != nil {
				cleanup()
			}
			close(finished)
		}()

		select {
		case <-finished:
			logger.Info("Shutdown complete")
		case <-time.After(timeout):
			logger.Warn("Shutdown timeout reached")
		}
		close(done)
	}()

	return ctx, done
}
