package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"math"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rewired-gh/gridledger/internal/config"
	"github.com/rewired-gh/gridledger/internal/fetch"
	"github.com/rewired-gh/gridledger/internal/ledger"
	"github.com/rewired-gh/gridledger/internal/logger"
	"github.com/rewired-gh/gridledger/internal/notify"
	"github.com/rewired-gh/gridledger/internal/server"
	"github.com/rewired-gh/gridledger/internal/snapshot"
	"github.com/rewired-gh/gridledger/internal/storage"
)

var configPath = flag.String("config", "configs/config.yaml", "Path to configuration file")

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	logger.Info("Configuration loaded from %s", *configPath)

	// Storage failures are never fatal: the engine falls back to zeroed
	// records and manual entry.
	store := storage.New(cfg.Storage.FilePath, cfg.Storage.FileMode(), cfg.Storage.DirMode())
	if err := store.Load(); err != nil {
		logger.Warn("Failed to restore persisted state, starting from zero: %v", err)
	}

	fetchClient := fetch.NewClient(cfg.Data.Timeout)
	snapshots := snapshot.New(store)
	history := ledger.New()

	var notifier *notify.Client
	if cfg.Notify.Enabled {
		notifier, err = notify.NewClient(cfg.Notify.BotToken, cfg.Notify.ChatID, cfg.Notify.MaxRetries, cfg.Notify.RetryDelayBase)
		if err != nil {
			logger.Fatal("Failed to initialize Telegram client: %v", err)
		}
		logger.Info("Telegram notifier initialized")
	} else {
		logger.Debug("Telegram notifications disabled")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("Shutdown signal received, cleaning up...")
		cancel()
	}()

	// Initial ingest: the two fetches populate independent state, so no
	// ordering between them is required.
	snapshots.Init(ctx, fetchClient, cfg.Data.CapacityURL)
	history.Refresh(ctx, fetchClient, cfg.Data.HistoryURL)
	notifyNetAddition(history, notifier, cfg)

	srv, err := server.New(snapshots, history)
	if err != nil {
		logger.Fatal("Failed to initialize server: %v", err)
	}
	httpServer := &http.Server{
		Addr:         cfg.Server.ListenAddr,
		Handler:      srv.Routes(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		logger.Info("Serving engine API on %s", cfg.Server.ListenAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server stopped: %v", err)
			cancel()
		}
	}()

	ticker := time.NewTicker(cfg.Data.RefreshInterval)
	defer ticker.Stop()

	logger.Info("Starting refresh loop (interval: %v)", cfg.Data.RefreshInterval)
	for {
		select {
		case <-ctx.Done():
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			_ = httpServer.Shutdown(shutdownCtx)
			shutdownCancel()
			logger.Info("Service stopped")
			return

		case <-ticker.C:
			logger.Debug("Starting scheduled refresh cycle")
			snapshots.Refresh(ctx, fetchClient, cfg.Data.CapacityURL)
			history.Refresh(ctx, fetchClient, cfg.Data.HistoryURL)
			notifyNetAddition(history, notifier, cfg)
		}
	}
}

// notifyNetAddition compares the ledger's latest month against the configured
// window and sends a one-time Telegram summary when the total moved by at
// least the threshold. Notification delivery sits outside the no-retry core,
// so failed sends are logged and retried on the next cycle.
func notifyNetAddition(history *ledger.Ledger, notifier *notify.Client, cfg *config.Config) {
	if notifier == nil {
		return
	}
	latest, ok := history.Latest()
	if !ok || notifier.AlreadySent(latest) {
		return
	}
	start := latest.Minus(cfg.Notify.WindowMonths)
	delta, err := history.Compare(start, latest)
	if err != nil {
		logger.Debug("Net-addition comparison unavailable: %v", err)
		return
	}
	if math.Abs(delta.Total) < cfg.Notify.ThresholdGW {
		return
	}
	if err := notifier.SendDelta(delta); err != nil {
		logger.Error("Failed to send net-addition notification: %v", err)
		return
	}
	logger.Info("Sent net-addition notification for %s (%+.2f GW)", latest, delta.Total)
}
