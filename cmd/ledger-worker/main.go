package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"strata/internal/amqp"
	"strata/internal/config"
	applog "strata/internal/log"
	"strata/internal/sheets"
	"strata/internal/sheets/google"
	"strata/internal/sheets/memory"
	"strata/internal/storage"
	"strata/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(applog.DefaultConfig()).WithComponent(applog.ComponentLedger)
	applog.SetDefault(logger)

	logger.Info("Starting ledger-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Without a spreadsheet the worker keeps a local in-memory ledger,
	// which is enough for development and smoke tests.
	var ledger sheets.LedgerWriter
	if cfg.LedgerSpreadsheetID != "" {
		client, err := google.NewClient(ctx, cfg.LedgerSpreadsheetID, cfg.LedgerSheetName)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", "error", err)
			os.Exit(1)
		}
		ledger = client
		logger.Info("Google Sheets ledger initialized", "spreadsheet_id", cfg.LedgerSpreadsheetID)
	} else {
		ledger = memory.New()
		logger.Info("No LEDGER_SPREADSHEET_ID set - using in-memory ledger")
	}

	ledgerWorker := worker.NewLedgerWorker(repo, ledger, cfg.ExportBatchSize)

	// Recover rows that errored or were missed while the worker was down.
	if err := ledgerWorker.StartupSyncCheck(ctx); err != nil {
		logger.Error("Startup sync check failed", "error", err)
	}

	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPDispatchQueue, cfg.AMQPLedgerQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, relying on the periodic scan only", "error", err)
			amqpClient = nil
		} else {
			defer amqpClient.Close()
		}
	} else {
		logger.Info("AMQP disabled - relying on the periodic scan only")
	}

	group, ctx := errgroup.WithContext(ctx)

	if amqpClient != nil {
		group.Go(func() error {
			err := amqpClient.ConsumeLedgerSync(ctx, func(msg *amqp.LedgerSyncMessage) error {
				return ledgerWorker.HandleSyncMessage(ctx, msg)
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}

	group.Go(func() error {
		ticker := time.NewTicker(cfg.ExportInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				if err := ledgerWorker.ProcessPendingExpenses(ctx); err != nil {
					logger.Error("Periodic export failed", "error", err)
				}
			}
		}
	})

	logger.Info("Ledger-worker running", "batch_size", cfg.ExportBatchSize, "interval", cfg.ExportInterval)

	if err := group.Wait(); err != nil {
		logger.Error("Ledger-worker stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Ledger-worker shutdown complete")
}
