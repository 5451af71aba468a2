// Package store persists market data and run history: daily bars as Parquet
// files on disk, instrument metadata and backtest runs in SQLite.
package store

import (
	"context"
	"time"

	"stockbench/internal/domain"
)

// BarStore persists and retrieves OHLCV bar data.
type BarStore interface {
	// WriteBars persists a batch of bars to storage.
	WriteBars(ctx context.Context, bars []domain.Bar) error

	// ReadBars returns bars for the given symbol within [start, end].
	ReadBars(ctx context.Context, symbol string, start, end time.Time) ([]domain.Bar, error)

	// ListSymbols returns all distinct symbols available in storage.
	ListSymbols(ctx context.Context) ([]string, error)
}

// InstrumentStore persists and retrieves the instrument metadata catalog.
type InstrumentStore interface {
	// UpsertInstruments inserts or replaces catalog rows.
	UpsertInstruments(ctx context.Context, instruments []domain.Instrument) error

	// GetInstrument retrieves one catalog row, or nil if unknown.
	GetInstrument(ctx context.Context, symbol string) (*domain.Instrument, error)
}

// RunRecord is one backtest run: the request summary plus headline results.
type RunRecord struct {
	ID          int64     `json:"id"`
	CreatedAt   time.Time `json:"createdAt"`
	Kind        string    `json:"kind"` // "single" or "portfolio"
	Symbols     string    `json:"symbols"`
	Strategy    string    `json:"strategy"`
	InitialCash float64   `json:"initialCash"`
	FinalValue  float64   `json:"finalValue"`
	ReturnPct   float64   `json:"returnPct"`
	TotalTrades int       `json:"totalTrades"`
	WinRate     float64   `json:"winRate"`
	MaxDrawdown float64   `json:"maxDrawdown"`
}

// RunStore records completed backtest runs for the run-history endpoint.
type RunStore interface {
	// SaveRun appends one run record and returns its assigned ID.
	SaveRun(ctx context.Context, run *RunRecord) (int64, error)

	// ListRuns returns the most recent runs, newest first, up to limit.
	ListRuns(ctx context.Context, limit int) ([]RunRecord, error)
}
