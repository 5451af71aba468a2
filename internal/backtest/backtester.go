package backtest

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"stockbench/internal/domain"
	"stockbench/internal/marketdata"
	"stockbench/internal/strategy"
)

// MinInitialCash is the smallest accepted starting balance.
const MinInitialCash = 1000

// MaxPortfolioSize caps the number of instruments in one portfolio run.
const MaxPortfolioSize = 20

// Result holds the aggregate outcome of a single-instrument backtest.
// Monetary and percentage fields are rounded to two decimals.
type Result struct {
	Symbol         string  `json:"symbol,omitempty"`
	InitialValue   float64 `json:"initialValue"`
	FinalValue     float64 `json:"finalValue"`
	TotalReturn    float64 `json:"totalReturn"`
	TotalReturnPct float64 `json:"totalReturnPct"`
	TotalTrades    int     `json:"totalTrades"`
	WinningTrades  int     `json:"winningTrades"`
	LosingTrades   int     `json:"losingTrades"`
	WinRate        float64 `json:"winRate"`
	MaxDrawdown    float64 `json:"maxDrawdown"`
}

// InstrumentPerformance reports per-instrument trade counters inside a
// portfolio run.
type InstrumentPerformance struct {
	Symbol        string  `json:"symbol"`
	TotalTrades   int     `json:"totalTrades"`
	WinningTrades int     `json:"winningTrades"`
	LosingTrades  int     `json:"losingTrades"`
	WinRate       float64 `json:"winRate"`
}

// CompositionEntry reports the final holding of one instrument against its
// target allocation.
type CompositionEntry struct {
	Symbol      string  `json:"symbol"`
	Qty         int64   `json:"qty"`
	MarketValue float64 `json:"marketValue"`
	TargetPct   float64 `json:"targetPct"`
	ActualPct   float64 `json:"actualPct"`
}

// PortfolioResult extends Result with per-instrument breakdowns.
type PortfolioResult struct {
	Result
	Performance []InstrumentPerformance `json:"performance"`
	Composition []CompositionEntry      `json:"composition"`
}

// Backtester validates requests, fetches bars through a Provider, and runs
// the simulator. It holds no per-run state and is safe for concurrent use.
type Backtester struct {
	provider marketdata.Provider
	log      *slog.Logger
}

// NewBacktester creates a Backtester backed by the given provider.
func NewBacktester(p marketdata.Provider, log *slog.Logger) *Backtester {
	return &Backtester{provider: p, log: log.With("component", "backtest")}
}

// RunSingle backtests one symbol over [start, end].
func (b *Backtester) RunSingle(ctx context.Context, symbol string, start, end time.Time, cfg strategy.Config, initialCash float64) (*Result, error) {
	allocs := []domain.Allocation{{Symbol: symbol, Percent: 100}}
	out, err := b.run(ctx, allocs, start, end, cfg, initialCash)
	if err != nil {
		return nil, err
	}
	res := aggregate(out, initialCash)
	res.Symbol = symbol
	b.log.Info("backtest complete", "symbol", symbol,
		"trades", res.TotalTrades, "finalValue", res.FinalValue)
	return &res, nil
}

// RunPortfolio backtests an allocation list over [start, end]. Missing data
// for any symbol aborts the whole run; a partial portfolio is never
// simulated.
func (b *Backtester) RunPortfolio(ctx context.Context, allocs []domain.Allocation, start, end time.Time, cfg strategy.Config, initialCash float64) (*PortfolioResult, error) {
	if len(allocs) > MaxPortfolioSize {
		return nil, fmt.Errorf("%w: %d instruments, max %d", domain.ErrInvalidConfig, len(allocs), MaxPortfolioSize)
	}
	out, err := b.run(ctx, allocs, start, end, cfg, initialCash)
	if err != nil {
		return nil, err
	}

	res := &PortfolioResult{Result: aggregate(out, initialCash)}
	finalEquity := out.FinalEquity()
	for _, a := range allocs {
		s := out.Analyzer.SymbolStats(a.Symbol)
		perf := InstrumentPerformance{
			Symbol:        a.Symbol,
			TotalTrades:   s.Trades,
			WinningTrades: s.Wins,
			LosingTrades:  s.Losses,
		}
		if s.Trades > 0 {
			perf.WinRate = round2(float64(s.Wins) / float64(s.Trades) * 100)
		}
		res.Performance = append(res.Performance, perf)

		pos := out.Portfolio.Position(a.Symbol)
		mv := float64(pos.Qty) * out.LastClose[a.Symbol]
		entry := CompositionEntry{
			Symbol:      a.Symbol,
			Qty:         pos.Qty,
			MarketValue: round2(mv),
			TargetPct:   a.Percent,
		}
		if finalEquity > 0 {
			entry.ActualPct = round2(mv / finalEquity * 100)
		}
		res.Composition = append(res.Composition, entry)
	}
	b.log.Info("portfolio backtest complete", "instruments", len(allocs),
		"trades", res.TotalTrades, "finalValue", res.FinalValue)
	return res, nil
}

// run validates, fetches, and simulates.
func (b *Backtester) run(ctx context.Context, allocs []domain.Allocation, start, end time.Time, cfg strategy.Config, initialCash float64) (*Outcome, error) {
	if err := validateRange(start, end); err != nil {
		return nil, err
	}
	if initialCash < MinInitialCash {
		return nil, fmt.Errorf("%w: initial cash %.2f, minimum %d", domain.ErrInvalidConfig, initialCash, MinInitialCash)
	}
	if err := domain.ValidateAllocations(allocs); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	bars := make(map[string][]domain.Bar, len(allocs))
	for _, a := range allocs {
		series, err := b.provider.FetchBars(ctx, a.Symbol, start, end)
		if err != nil {
			return nil, fmt.Errorf("fetch bars for %s: %w", a.Symbol, err)
		}
		bars[a.Symbol] = series
	}
	if err := validateBars(bars, allocs); err != nil {
		return nil, err
	}

	return Simulate(bars, allocs, cfg, initialCash)
}

// validateRange checks the date window: start strictly before end, end not
// in the future.
func validateRange(start, end time.Time) error {
	if start.IsZero() || end.IsZero() {
		return fmt.Errorf("%w: start and end dates are required", domain.ErrInvalidConfig)
	}
	if !start.Before(end) {
		return fmt.Errorf("%w: start date %s not before end date %s",
			domain.ErrInvalidConfig, start.Format("2006-01-02"), end.Format("2006-01-02"))
	}
	if end.After(time.Now()) {
		return fmt.Errorf("%w: end date %s is in the future",
			domain.ErrInvalidConfig, end.Format("2006-01-02"))
	}
	return nil
}

// aggregate converts a raw simulation outcome into reportable numbers.
func aggregate(out *Outcome, initialCash float64) Result {
	final := out.FinalEquity()
	ret := final - initialCash
	retPct := 0.0
	if initialCash > 0 {
		retPct = ret / initialCash * 100
	}
	return Result{
		InitialValue:   round2(initialCash),
		FinalValue:     round2(final),
		TotalReturn:    round2(ret),
		TotalReturnPct: round2(retPct),
		TotalTrades:    out.Analyzer.TotalTrades(),
		WinningTrades:  out.Analyzer.Wins(),
		LosingTrades:   out.Analyzer.Losses(),
		WinRate:        round2(out.Analyzer.WinRate()),
		MaxDrawdown:    round2(out.Analyzer.MaxDrawdown()),
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
