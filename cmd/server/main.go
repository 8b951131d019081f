package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ryzom/shardstatus/internal/api"
	"github.com/ryzom/shardstatus/internal/config"
	"github.com/ryzom/shardstatus/internal/logger"
	"github.com/ryzom/shardstatus/internal/metrics"
	"github.com/ryzom/shardstatus/internal/poller"
	"github.com/ryzom/shardstatus/internal/shard"
	"github.com/ryzom/shardstatus/internal/storage"
)

func main() {
	cfg := config.Parse()
	logger.Init(cfg.LogFormat, logger.ParseLevel(cfg.LogLevel))

	exporter := metrics.New()

	client := shard.NewClient(cfg.Endpoint, cfg.Timeout)
	client.SetAliases(cfg.Aliases)
	client.SetObserver(exporter)

	if cfg.Once {
		os.Exit(printOnce(client, cfg.Timeout))
	}

	var store storage.Storage
	var err error

	switch cfg.Storage {
	case config.StorageSQLite:
		store, err = storage.NewSQLiteStorage(cfg.SQLitePath)
		if err != nil {
			logger.Error("Failed to create SQLite storage", "path", cfg.SQLitePath, "error", err)
			os.Exit(1)
		}
		logger.Info("Using SQLite storage", "path", cfg.SQLitePath)
	default:
		store = storage.NewMemoryStorage()
		logger.Info("Using in-memory storage")
	}
	defer store.Close()

	p := poller.New(client, store, cfg.PollInterval, cfg.HistoryTTL)
	p.SetReportCallback(exporter.SetReport)

	handlers := api.NewHandlers(client, p, store)
	server := api.NewServer(handlers, exporter.Handler())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go p.Run(ctx)

	addr := fmt.Sprintf(":%d", cfg.Port)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           server,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Starting server", "addr", "http://localhost"+addr)
		logger.Info("Status endpoint", "url", client.Endpoint(), "timeout", cfg.Timeout)
		logger.Info("Poll interval", "interval", cfg.PollInterval, "history_ttl", cfg.HistoryTTL)

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}

	logger.Info("Server stopped")
}

// printOnce fetches a single report and prints it as JSON. It returns the
// process exit code.
func printOnce(client *shard.Client, timeout time.Duration) int {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	report, err := client.Fetch(ctx)
	if err != nil {
		logger.Error("Status unavailable", "error", err)
		return 1
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		logger.Error("Encode report failed", "error", err)
		return 1
	}
	return 0
}
