// One-shot tool: import an instrument catalog CSV into the SQLite store used
// by the suggestions and screening endpoints.
//
// Usage:
//
//	go run cmd/stockbench-universe/main.go -csv reference/instruments.csv
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"

	"stockbench/internal/config"
	"stockbench/internal/store"
	"stockbench/internal/universe"
	"stockbench/internal/util"
)

func main() {
	csvPath := flag.String("csv", "reference/instruments.csv", "instrument catalog CSV (symbol,name,sector,market_cap,trailing_pe)")
	flag.Parse()

	cfgPath := "config/stockbench.yaml"
	if p := os.Getenv("STOCKBENCH_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		if os.IsNotExist(err) {
			cfg = config.Default()
		} else {
			log.Fatalf("loading config: %v", err)
		}
	}

	logger := util.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	slog.SetDefault(logger)

	instruments, err := universe.LoadInstrumentsCSV(*csvPath)
	if err != nil {
		log.Fatalf("loading catalog: %v", err)
	}
	if len(instruments) == 0 {
		log.Fatalf("no instruments found in %s", *csvPath)
	}

	sqlite, err := store.NewSQLiteStore(cfg.Storage.SQLitePath)
	if err != nil {
		log.Fatalf("opening sqlite store: %v", err)
	}
	defer sqlite.Close()

	if err := sqlite.UpsertInstruments(context.Background(), instruments); err != nil {
		log.Fatalf("importing instruments: %v", err)
	}

	slog.Info("catalog imported", "instruments", len(instruments), "db", cfg.Storage.SQLitePath)
}
