package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"fintrack/internal/amqp"
	"fintrack/internal/config"
	"fintrack/internal/export"
	"fintrack/internal/log"
	"fintrack/internal/storage"
	"fintrack/internal/worker"
)

func main() {
	_ = godotenv.Load()

	logger := log.New(log.Config{Level: log.DefaultConfig().Level, Component: log.ComponentWorker})
	log.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.ValidateWorker(); err != nil {
		logger.Error("configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := storage.NewRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("open record store failed", log.FieldError, err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer store.Close()

	journal, err := export.NewSheetsJournal(ctx, export.SheetsConfig{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		SheetName:       cfg.GoogleSheetName,
		CredentialsJSON: cfg.GoogleCredentialsJSON,
		CredentialsFile: cfg.GoogleCredentialsFile,
	}, logger)
	if err != nil {
		logger.Error("sheets journal init failed", log.FieldError, err)
		os.Exit(1)
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		logger.Error("connect AMQP failed", log.FieldError, err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	w := worker.NewExportWorker(store, journal, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return amqpClient.ConsumeRecordEvents(gctx, func(ev *amqp.RecordEvent) error {
			return w.HandleEvent(gctx, ev)
		})
	})

	logger.Info("export worker started",
		log.FieldOperation, log.OpStartup,
		"queue", cfg.AMQPQueue,
		"spreadsheet", cfg.GoogleSpreadsheetID)

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("export worker stopped with error", log.FieldError, err)
		os.Exit(1)
	}

	logger.Info("export worker stopped", log.FieldOperation, log.OpShutdown)
}
