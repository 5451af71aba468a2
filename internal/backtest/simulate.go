// Package backtest replays historical bars through a strategy and tracks the
// resulting portfolio: the event-driven simulator, the trade and drawdown
// analyzer, and the Backtester front door used by the HTTP API and CLI.
package backtest

import (
	"fmt"
	"sort"
	"time"

	"stockbench/internal/domain"
	"stockbench/internal/strategy"
)

// Outcome is the raw result of one simulation run: the final portfolio, the
// full trade log (closed trades plus any position still open at the end),
// and the analyzer that observed the run.
type Outcome struct {
	Portfolio *domain.Portfolio
	Trades    []domain.Trade
	Analyzer  *Analyzer

	// LastClose holds the most recent close seen per symbol, used to mark
	// open positions at the end of the run.
	LastClose map[string]float64
}

// Simulate replays the given bars chronologically and executes the strategy's
// decisions. It is pure over its inputs: no I/O, no clock, no shared state.
//
// The calendar is the sorted union of all bar timestamps. An instrument with
// no bar on a step is skipped that step; its equity mark uses the most
// recent prior close. Within a step instruments are processed in allocation
// list order, and each BUY is sized against the cash remaining at its turn,
// so earlier instruments can consume cash later ones would have used. That
// ordering is deliberate and must stay stable across runs.
func Simulate(bars map[string][]domain.Bar, allocs []domain.Allocation, cfg strategy.Config, initialCash float64) (*Outcome, error) {
	strategies := make(map[string]strategy.Strategy, len(allocs))
	for _, a := range allocs {
		s, err := strategy.New(cfg)
		if err != nil {
			return nil, err
		}
		strategies[a.Symbol] = s
	}

	calendar := buildCalendar(bars)

	// Per-symbol cursor into its bar slice and the growing history the
	// strategy sees. History shares the backing array of the input slice.
	cursor := make(map[string]int, len(allocs))
	history := make(map[string][]domain.Bar, len(allocs))

	pf := domain.NewPortfolio(initialCash)
	analyzer := NewAnalyzer()
	lastClose := make(map[string]float64, len(allocs))
	open := make(map[string]*domain.Trade, len(allocs))
	var trades []domain.Trade

	for _, ts := range calendar {
		for _, alloc := range allocs {
			sym := alloc.Symbol
			series := bars[sym]
			i := cursor[sym]
			if i >= len(series) || !series[i].Timestamp.Equal(ts) {
				continue // no bar for this instrument on this step
			}
			cursor[sym] = i + 1
			history[sym] = series[:i+1]
			bar := series[i]
			lastClose[sym] = bar.Close

			pos := pf.Position(sym)
			switch strategies[sym].Decide(history[sym], *pos) {
			case domain.Buy:
				if !pos.Flat() {
					break
				}
				target := pf.Cash * alloc.Percent / 100
				qty := int64(target / bar.Close)
				if qty == 0 {
					break
				}
				cost := float64(qty) * bar.Close
				pf.Cash -= cost
				pos.Qty = qty
				pos.AvgCost = bar.Close
				open[sym] = &domain.Trade{
					Symbol:     sym,
					Qty:        qty,
					EntryPrice: bar.Close,
					EntryTime:  ts,
				}
			case domain.Sell:
				if pos.Flat() {
					break
				}
				pf.Cash += float64(pos.Qty) * bar.Close
				t := open[sym]
				t.ExitPrice = bar.Close
				t.ExitTime = ts
				t.PnL = (bar.Close - t.EntryPrice) * float64(t.Qty)
				t.Closed = true
				analyzer.TradeClosed(*t)
				trades = append(trades, *t)
				delete(open, sym)
				pos.Qty = 0
				pos.AvgCost = 0
			}
		}

		equity := pf.Cash
		for sym, pos := range pf.Positions {
			equity += float64(pos.Qty) * lastClose[sym]
		}
		pf.Equity = append(pf.Equity, domain.EquityPoint{Timestamp: ts, Equity: equity})
		analyzer.EquitySnapshot(equity)
	}

	// Positions still open at the end stay in the log as unclosed trades.
	for _, sym := range sortedKeys(open) {
		trades = append(trades, *open[sym])
	}

	return &Outcome{
		Portfolio: pf,
		Trades:    trades,
		Analyzer:  analyzer,
		LastClose: lastClose,
	}, nil
}

// FinalEquity returns the portfolio's last equity mark, or the initial cash
// when the run had no steps.
func (o *Outcome) FinalEquity() float64 {
	if n := len(o.Portfolio.Equity); n > 0 {
		return o.Portfolio.Equity[n-1].Equity
	}
	return o.Portfolio.Cash
}

// buildCalendar returns the sorted union of bar timestamps across all
// instruments.
func buildCalendar(bars map[string][]domain.Bar) []time.Time {
	seen := make(map[time.Time]bool)
	var calendar []time.Time
	for _, series := range bars {
		for _, b := range series {
			if !seen[b.Timestamp] {
				seen[b.Timestamp] = true
				calendar = append(calendar, b.Timestamp)
			}
		}
	}
	sort.Slice(calendar, func(i, j int) bool { return calendar[i].Before(calendar[j]) })
	return calendar
}

func sortedKeys(m map[string]*domain.Trade) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// validateBars checks that every allocated symbol has at least one bar.
func validateBars(bars map[string][]domain.Bar, allocs []domain.Allocation) error {
	for _, a := range allocs {
		if len(bars[a.Symbol]) == 0 {
			return fmt.Errorf("%w: no bars for %s", domain.ErrDataUnavailable, a.Symbol)
		}
	}
	return nil
}
