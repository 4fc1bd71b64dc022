package main

import (
	"context"
	"os"

	"billbook/internal/amqp"
	"billbook/internal/backend"
	"billbook/internal/cli"
	"billbook/internal/log"
	"billbook/internal/scheduler"
	"billbook/internal/services"
	gsheet "billbook/internal/sheets/google"
	"billbook/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	cfg, logger := cli.LoadAndValidateConfig(log.ComponentWorker)
	if err := cfg.ValidateMirror(); err != nil {
		logger.Error("Mirror configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}

	logger.Info("Starting billbook-worker")

	backendCfg, err := backend.FromAppConfig(cfg, cli.Dates(cfg))
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}
	result, err := backend.NewFactory(logger).CreateBackend(context.Background(), backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldBackend, cfg.DataBackend, log.FieldError, err)
		os.Exit(1)
	}
	defer result.Close()

	sheetsClient, err := gsheet.New(context.Background(), gsheet.Config{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		SheetName:       cfg.GoogleSheetName,
		CredentialsJSON: cfg.GoogleServiceAccountJSON,
		CredentialsFile: cfg.GoogleServiceAccountFile,
	}, logger)
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", log.FieldError, err)
		os.Exit(1)
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	mirror := services.NewMirrorSync(result.Store, sheetsClient, logger)
	w := worker.NewMirrorWorker(amqpClient, mirror, scheduler.New(logger), cfg.MirrorReconcileSchedule, logger)

	ctx, done := cli.GracefulShutdown(logger, nil)
	if err := w.Run(ctx); err != nil {
		logger.Error("Mirror worker stopped", log.FieldError, err)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("billbook-worker stopped")
}
