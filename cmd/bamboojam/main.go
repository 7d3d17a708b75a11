package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/Djeyff/bamboojam-os/internal/amqp"
	"github.com/Djeyff/bamboojam-os/internal/auth"
	"github.com/Djeyff/bamboojam-os/internal/config"
	"github.com/Djeyff/bamboojam-os/internal/entries"
	apphttp "github.com/Djeyff/bamboojam-os/internal/http"
	applog "github.com/Djeyff/bamboojam-os/internal/log"
	"github.com/Djeyff/bamboojam-os/internal/storage"
	"github.com/Djeyff/bamboojam-os/internal/store"
	"github.com/Djeyff/bamboojam-os/internal/store/memory"
	"github.com/Djeyff/bamboojam-os/internal/store/notion"
)

func main() {
	// .env is for local development; absence is fine in production.
	_ = godotenv.Load()

	cfg := config.Load()
	logger := applog.Setup(cfg.Production()).WithComponent("server")

	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	var (
		readers apphttp.Readers
		writer  store.EntryWriter
	)
	switch cfg.DataBackend {
	case "notion":
		client, err := notion.NewClient(cfg.NotionToken, notion.DatabaseIDs(cfg.Databases))
		if err != nil {
			logger.Error("Failed to initialize Notion client", "error", err)
			os.Exit(1)
		}
		readers = apphttp.Readers{Periods: client, Revenues: client, Expenses: client, Ledgers: client}
		writer = client
		logger.Info("Initialized Notion backend")
	default:
		mem := memory.New()
		readers = apphttp.Readers{Periods: mem, Revenues: mem, Expenses: mem, Ledgers: mem}
		writer = mem
		logger.Info("Initialized memory backend")
	}

	// With AMQP configured, writes land in the local outbox and the worker
	// syncs them; otherwise they go straight to the backend.
	var sink apphttp.EntrySink
	if cfg.AMQPURL != "" {
		outbox, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
		if err != nil {
			logger.Error("Failed to initialize outbox", "error", err, "path", cfg.SQLiteDBPath)
			os.Exit(1)
		}
		defer outbox.Close()

		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer amqpClient.Close()

		sink = entries.NewOutboxSink(outbox, amqpClient)
		logger.Info("Entry writes routed through outbox", "queue", cfg.AMQPQueue)
	} else {
		sink = entries.NewDirectSink(writer)
		logger.Info("Entry writes routed directly to backend")
	}

	gate := auth.NewGate(cfg.Secrets(), cfg.Production())
	if gate.Open() {
		logger.Warn("No access PINs configured, running in open mode")
	}

	srv := apphttp.NewServer(":"+cfg.Port, gate, readers, sink)
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

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

	logger.Info("Starting bamboojam server", "port", cfg.Port, "backend", cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
