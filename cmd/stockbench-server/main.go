package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"stockbench/internal/backtest"
	"stockbench/internal/config"
	"stockbench/internal/httpapi"
	"stockbench/internal/marketdata"
	"stockbench/internal/screen"
	"stockbench/internal/store"
	"stockbench/internal/universe"
	"stockbench/internal/util"
)

func main() {
	cfgPath := "config/stockbench.yaml"
	if p := os.Getenv("STOCKBENCH_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Fatalf("loading config: %v", err)
		}
		cfg = config.Default()
	}

	logger := util.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	slog.SetDefault(logger)
	if err != nil {
		logger.Warn("config file not found, using defaults", "path", cfgPath)
	}

	sqlite, err := store.NewSQLiteStore(cfg.Storage.SQLitePath)
	if err != nil {
		log.Fatalf("opening sqlite store: %v", err)
	}
	defer sqlite.Close()
	pstore := store.NewParquetStore(cfg.Storage.DataDir)

	// Without credentials only locally archived bars are served.
	var inner marketdata.Provider = marketdata.NewStaticProvider()
	if cfg.Alpaca.APIKey != "" {
		inner = marketdata.NewAlpacaProvider(marketdata.AlpacaOpts{
			APIKey:          cfg.Alpaca.APIKey,
			APISecret:       cfg.Alpaca.APISecret,
			BaseURL:         cfg.Alpaca.BaseURL,
			DataURL:         cfg.Alpaca.DataURL,
			RateLimitPerMin: cfg.Alpaca.RateLimitPerMin,
			Catalog:         sqlite,
		}, logger)
	} else {
		logger.Warn("no alpaca credentials, serving archived bars only")
	}
	provider := marketdata.NewArchiveProvider(inner, pstore, logger)

	backtester := backtest.NewBacktester(provider, logger)
	screener := screen.NewScreener(provider, logger,
		screen.WithWorkers(cfg.Screen.Workers),
		screen.WithBucketWidth(cfg.Screen.CacheBucket),
		screen.WithCacheCapacity(cfg.Screen.CacheCapacity),
	)
	suggester := universe.NewSuggester(sqlite)

	api := httpapi.NewServer(backtester, screener, suggester, sqlite, pstore, cfg.Backtest, logger)

	httpServer := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: api.Handler(),
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	go func() {
		logger.Info("server listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}
