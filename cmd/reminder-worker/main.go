package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"strata/internal/amqp"
	"strata/internal/config"
	"strata/internal/core"
	applog "strata/internal/log"
	"strata/internal/services"
	"strata/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(applog.DefaultConfig()).WithComponent(applog.ComponentReminder)
	applog.SetDefault(logger)

	logger.Info("Starting reminder-worker")

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

	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPDispatchQueue, cfg.AMQPLedgerQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, dispatches will only be logged", "error", err)
			amqpClient = nil
		} else {
			defer amqpClient.Close()
		}
	} else {
		logger.Info("AMQP disabled - dispatches will only be logged")
	}

	var dispatcher services.DispatchPublisher
	if amqpClient != nil {
		dispatcher = amqpClient
	}
	reminderService := services.NewReminderService(repo, dispatcher)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runDispatch := func() {
		count, err := reminderService.ProcessDueReminders(ctx, core.DateOf(time.Now()))
		if err != nil {
			logger.Error("Reminder dispatch run failed", "error", err)
			return
		}
		if count > 0 {
			logger.Info("Reminder dispatch run complete", "dispatched", count)
		}
	}

	// Catch up on anything that came due while the worker was down.
	runDispatch()

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.ReminderCronSpec, runDispatch); err != nil {
		logger.Error("Invalid reminder cron spec", "spec", cfg.ReminderCronSpec, "error", err)
		os.Exit(1)
	}
	scheduler.Start()
	logger.Info("Reminder dispatch scheduled", "spec", cfg.ReminderCronSpec)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("Shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
		logger.Info("Context cancelled")
	}

	cancel()

	// Let an in-flight dispatch run finish before exiting.
	stopCtx := scheduler.Stop()
	select {
	case <-stopCtx.Done():
		logger.Info("Reminder-worker shutdown complete")
	case <-time.After(30 * time.Second):
		logger.Warn("Shutdown timeout reached")
	}
}
