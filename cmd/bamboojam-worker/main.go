package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/Djeyff/bamboojam-os/internal/amqp"
	"github.com/Djeyff/bamboojam-os/internal/config"
	applog "github.com/Djeyff/bamboojam-os/internal/log"
	"github.com/Djeyff/bamboojam-os/internal/storage"
	"github.com/Djeyff/bamboojam-os/internal/store/notion"
	"github.com/Djeyff/bamboojam-os/internal/worker"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	logger := applog.Setup(cfg.Production()).WithComponent("worker")

	logger.Info("Starting bamboojam-worker")

	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	if cfg.NotionToken == "" {
		logger.Error("NOTION_TOKEN is required, the worker has nowhere to sync")
		os.Exit(1)
	}
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required")
		os.Exit(1)
	}

	outbox, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize outbox", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer outbox.Close()

	notionClient, err := notion.NewClient(cfg.NotionToken, notion.DatabaseIDs(cfg.Databases))
	if err != nil {
		logger.Error("Failed to initialize Notion client", "error", err)
		os.Exit(1)
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	syncWorker := worker.NewSyncWorker(outbox, notionClient, cfg.SyncBatchSize)

	// Recover anything left behind by downtime or lost messages.
	logger.Info("Performing startup sync check")
	if err := syncWorker.StartupSyncCheck(ctx); err != nil {
		logger.Error("Startup sync check failed", "error", err)
	}

	go func() {
		handler := func(msg *amqp.EntrySyncMessage) error {
			return syncWorker.HandleSyncMessage(ctx, msg)
		}
		if err := amqpClient.ConsumeEntrySync(ctx, handler); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Message consumption failed", "error", err)
			cancel()
		}
	}()

	// Periodic sweep for entries whose messages were lost.
	go func() {
		ticker := time.NewTicker(cfg.SyncInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := syncWorker.ProcessPending(ctx); err != nil {
					logger.Error("Periodic sync failed", "error", err)
				}
			}
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("Shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
		logger.Info("Context cancelled")
	}

	cancel()
	logger.Info("Worker stopped gracefully")
}
