// One-shot tool: run a backtest from the command line and print the result
// as JSON.
//
// Usage:
//
//	go run cmd/stockbench-backtest/main.go -symbol AAPL -start 2024-01-02 -end 2024-06-28
//	go run cmd/stockbench-backtest/main.go -portfolio AAPL:60,MSFT:40 -start 2024-01-02 -end 2024-06-28
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"stockbench/internal/backtest"
	"stockbench/internal/config"
	"stockbench/internal/domain"
	"stockbench/internal/marketdata"
	"stockbench/internal/store"
	"stockbench/internal/strategy"
	"stockbench/internal/util"
)

func main() {
	symbol := flag.String("symbol", "", "single instrument to backtest")
	portfolio := flag.String("portfolio", "", "comma-separated SYMBOL:PERCENT allocations")
	start := flag.String("start", "", "start date (YYYY-MM-DD)")
	end := flag.String("end", "", "end date (YYYY-MM-DD)")
	cash := flag.Float64("cash", 0, "initial cash (default from config)")
	kind := flag.String("strategy", "", "strategy kind: rsi, macd, volume-spike (default from config)")
	flag.Parse()

	if (*symbol == "") == (*portfolio == "") {
		log.Fatal("exactly one of -symbol or -portfolio is required")
	}
	if *start == "" || *end == "" {
		log.Fatal("-start and -end are required")
	}

	cfg := loadConfig()
	logger := util.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	slog.SetDefault(logger)

	startT, err := time.Parse("2006-01-02", *start)
	if err != nil {
		log.Fatalf("invalid -start: %v", err)
	}
	endT, err := time.Parse("2006-01-02", *end)
	if err != nil {
		log.Fatalf("invalid -end: %v", err)
	}

	stratCfg := cfg.Backtest.Strategy
	if *kind != "" {
		k, err := strategy.ParseKind(*kind)
		if err != nil {
			log.Fatalf("invalid -strategy: %v", err)
		}
		stratCfg.Kind = k
	}
	initialCash := cfg.Backtest.InitialCash
	if *cash > 0 {
		initialCash = *cash
	}

	backtester := backtest.NewBacktester(newProvider(cfg, logger), logger)
	ctx := context.Background()

	var result any
	if *symbol != "" {
		result, err = backtester.RunSingle(ctx, *symbol, startT, endT, stratCfg, initialCash)
	} else {
		var allocs []domain.Allocation
		allocs, err = parseAllocations(*portfolio)
		if err == nil {
			result, err = backtester.RunPortfolio(ctx, allocs, startT, endT, stratCfg, initialCash)
		}
	}
	if err != nil {
		log.Fatalf("backtest failed: %v", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		log.Fatalf("encoding result: %v", err)
	}
}

func loadConfig() *config.Config {
	cfgPath := "config/stockbench.yaml"
	if p := os.Getenv("STOCKBENCH_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		if os.IsNotExist(err) {
			return config.Default()
		}
		log.Fatalf("loading config: %v", err)
	}
	return cfg
}

// newProvider builds the layered bar source: alpaca behind the local archive,
// or the archive alone when no credentials are configured.
func newProvider(cfg *config.Config, logger *slog.Logger) marketdata.Provider {
	pstore := store.NewParquetStore(cfg.Storage.DataDir)
	var inner marketdata.Provider = marketdata.NewStaticProvider()
	if cfg.Alpaca.APIKey != "" {
		inner = marketdata.NewAlpacaProvider(marketdata.AlpacaOpts{
			APIKey:          cfg.Alpaca.APIKey,
			APISecret:       cfg.Alpaca.APISecret,
			BaseURL:         cfg.Alpaca.BaseURL,
			DataURL:         cfg.Alpaca.DataURL,
			RateLimitPerMin: cfg.Alpaca.RateLimitPerMin,
		}, logger)
	}
	return marketdata.NewArchiveProvider(inner, pstore, logger)
}

// parseAllocations parses "AAPL:60,MSFT:40" into allocations.
func parseAllocations(s string) ([]domain.Allocation, error) {
	parts := strings.Split(s, ",")
	allocs := make([]domain.Allocation, 0, len(parts))
	for _, part := range parts {
		sym, pctStr, ok := strings.Cut(strings.TrimSpace(part), ":")
		if !ok {
			return nil, fmt.Errorf("invalid allocation %q, want SYMBOL:PERCENT", part)
		}
		pct, err := strconv.ParseFloat(pctStr, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid percent in %q: %w", part, err)
		}
		allocs = append(allocs, domain.Allocation{Symbol: strings.ToUpper(sym), Percent: pct})
	}
	return allocs, nil
}
