package main

import (
	"context"
	"errors"
	"time"

	"fintrack/internal/cli"
	"fintrack/internal/log"
	"fintrack/internal/mirror"
	"fintrack/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()

	logger.Info("Starting fintrack-mirror")

	cfg := cli.LoadAndValidateConfig(logger)

	store := cli.InitSecrets(logger, cfg.SecretsDir)
	client := cli.InitAPIClient(cfg, store, logger)

	repo, err := mirror.NewRepository(cfg.MirrorDBPath, logger)
	if err != nil {
		logger.Error("Failed to open mirror database", log.FieldError, err, "path", cfg.MirrorDBPath)
		return
	}

	ctx, done := cli.GracefulShutdown(logger, 10*time.Second, func() {
		if err := repo.Close(); err != nil {
			logger.Error("Failed to close mirror database", log.FieldError, err)
		}
	})

	syncWorker := worker.NewSyncWorker(client, repo, cfg.SyncMonths, cfg.SyncInterval, logger)
	if err := syncWorker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Sync worker stopped", log.FieldError, err)
	}

	<-done
	logger.Info("fintrack-mirror stopped gracefully")
}
