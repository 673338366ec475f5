package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"strata/internal/amqp"
	"strata/internal/cache"
	"strata/internal/config"
	"strata/internal/finance"
	apphttp "strata/internal/http"
	applog "strata/internal/log"
	"strata/internal/services"
	"strata/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(applog.DefaultConfig())
	applog.SetDefault(logger)

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

	// AMQP is optional: without it expenses stay pending in SQLite until
	// the ledger worker picks them up on its periodic scan.
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPDispatchQueue, cfg.AMQPLedgerQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without broker", "error", err)
			amqpClient = nil
		} else {
			defer amqpClient.Close()
			logger.Info("AMQP client initialized", "exchange", cfg.AMQPExchange)
		}
	} else {
		logger.Info("AMQP disabled - expense exports rely on the periodic scan")
	}

	reportCache := cache.NewLRUCache[finance.RevenueReport](128, cfg.ReportCacheTTL)
	cacheManager := cache.NewManager()
	cacheManager.Register(reportCache)
	cacheManager.StartCleanup(time.Minute)
	defer cacheManager.Stop()

	var dispatcher services.DispatchPublisher
	var ledgerPublisher apphttp.LedgerPublisher
	if amqpClient != nil {
		dispatcher = amqpClient
		ledgerPublisher = amqpClient
	}

	reminderService := services.NewReminderService(repo, dispatcher)
	reportService := services.NewReportService(repo, reportCache)

	srv := apphttp.NewServer(":"+cfg.Port, repo, reminderService, reportService, ledgerPublisher)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		cancel()
	}()

	logger.Info("Starting strata server", "port", cfg.Port, "db", cfg.SQLiteDBPath)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
