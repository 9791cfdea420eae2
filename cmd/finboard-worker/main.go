package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"finboard/internal/amqp"
	"finboard/internal/cli"
	"finboard/internal/journal/google"
	"finboard/internal/log"
	"finboard/internal/worker"
)

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger("info", log.ComponentWorker)
	cfg := cli.LoadAndValidateConfig(logger)
	logger = cli.SetupLogger(cfg.LogLevel, log.ComponentWorker)

	logger.Info("Starting finboard-worker")

	if cfg.GoogleSpreadsheetID == "" {
		logger.Error("GOOGLE_SPREADSHEET_ID is required for the export worker")
		os.Exit(1)
	}

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	ctx, stop := cli.SignalContext(logger)
	defer stop()

	exporter, err := google.New(ctx, google.Options{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		SheetName:       cfg.GoogleSheetName,
		CredentialsJSON: cfg.GoogleServiceAccountJSON,
		CredentialsFile: cfg.GoogleServiceAccountFile,
	}, logger.WithComponent(log.ComponentSheets).Logger)
	if err != nil {
		logger.Error("Failed to initialize Google Sheets exporter", "error", err)
		os.Exit(1)
	}

	if err := exporter.EnsureHeader(ctx, time.Now().Year()); err != nil {
		// Not fatal: the sheet may be shared read-only for headers
		logger.Warn("Failed to ensure sheet header", "error", err)
	}

	syncWorker := worker.NewSyncWorker(repo, exporter, cfg.SyncBatchSize, logger.Logger)

	logger.Info("Performing startup sync check...")
	if err := syncWorker.StartupSyncCheck(ctx); err != nil {
		logger.Error("Failed startup sync check", "error", err)
	}

	g, gctx := errgroup.WithContext(ctx)

	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue,
			logger.WithComponent(log.ComponentAMQP).Logger)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer amqpClient.Close()

		g.Go(func() error {
			return amqpClient.ConsumeSnapshotSync(gctx, syncWorker.HandleSyncMessage)
		})
	} else {
		logger.Info("AMQP_URL not set, relying on periodic sweep only")
	}

	scheduler := worker.NewScheduler(syncWorker, repo, worker.SchedulerConfig{
		SweepInterval: cfg.SyncInterval,
		RetrySpec:     worker.DefaultSchedulerConfig().RetrySpec,
	}, logger.Logger)
	g.Go(func() error {
		return scheduler.Run(gctx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Worker stopped gracefully")
}
