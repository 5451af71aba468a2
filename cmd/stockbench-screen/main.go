// One-shot tool: screen a list of symbols from the command line and print the
// surviving rows.
//
// Usage:
//
//	go run cmd/stockbench-screen/main.go -symbols AAPL,MSFT,NVDA -min-price 50 -rsi-max 30
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"log/slog"
	"os"
	"strings"

	"stockbench/internal/config"
	"stockbench/internal/marketdata"
	"stockbench/internal/screen"
	"stockbench/internal/store"
	"stockbench/internal/util"
)

func main() {
	symbolsFlag := flag.String("symbols", "", "comma-separated symbols (default: all archived symbols)")
	minPrice := flag.Float64("min-price", 0, "minimum last close")
	maxPrice := flag.Float64("max-price", 0, "maximum last close")
	minVolume := flag.Int64("min-volume", 0, "minimum last-bar volume")
	sector := flag.String("sector", "", "sector name filter")
	rsiMin := flag.Float64("rsi-min", 0, "minimum RSI(14)")
	rsiMax := flag.Float64("rsi-max", 0, "maximum RSI(14)")
	macdPositive := flag.Bool("macd-positive", false, "require MACD line above zero")
	aboveVWAP := flag.Bool("above-vwap", false, "require price above rolling VWAP")
	flag.Parse()

	cfg := loadConfig()
	logger := util.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	slog.SetDefault(logger)

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
	provider := marketdata.NewArchiveProvider(inner, pstore, logger)

	ctx := context.Background()

	var symbols []string
	if *symbolsFlag != "" {
		for _, s := range strings.Split(*symbolsFlag, ",") {
			symbols = append(symbols, strings.ToUpper(strings.TrimSpace(s)))
		}
	} else {
		var err error
		symbols, err = pstore.ListSymbols(ctx)
		if err != nil {
			log.Fatalf("listing archived symbols: %v", err)
		}
		if len(symbols) == 0 {
			log.Fatal("archive is empty, pass -symbols")
		}
	}

	spec := screen.FilterSpec{}
	if *minPrice > 0 || *maxPrice > 0 {
		spec.PriceEnabled = true
		spec.MinPrice = *minPrice
		spec.MaxPrice = *maxPrice
	}
	if *minVolume > 0 {
		spec.VolumeEnabled = true
		spec.MinVolume = *minVolume
	}
	if *sector != "" {
		spec.SectorEnabled = true
		spec.Sector = *sector
	}
	if *rsiMin > 0 || *rsiMax > 0 {
		spec.RSIEnabled = true
		spec.MinRSI = *rsiMin
		spec.MaxRSI = *rsiMax
	}
	if *macdPositive {
		spec.MACDEnabled = true
		spec.MACDPositive = true
	}
	if *aboveVWAP {
		spec.VWAPEnabled = true
		spec.PriceAboveVWAP = true
	}

	screener := screen.NewScreener(provider, logger,
		screen.WithWorkers(cfg.Screen.Workers),
		screen.WithBucketWidth(cfg.Screen.CacheBucket),
		screen.WithCacheCapacity(cfg.Screen.CacheCapacity),
	)

	results, err := screener.Run(ctx, symbols, spec)
	if err != nil {
		log.Fatalf("screening failed: %v", err)
	}

	logger.Info("screen complete", "universe", len(symbols), "matched", len(results))
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(results); err != nil {
		log.Fatalf("encoding results: %v", err)
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
