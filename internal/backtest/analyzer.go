package backtest

import "stockbench/internal/domain"

// TradeStats counts closed round trips for one instrument.
// Wins and Losses partition Trades; pnl <= 0 is a loss.
type TradeStats struct {
	Trades int
	Wins   int
	Losses int
}

// Analyzer observes simulator events and incrementally tracks win/loss
// counts and maximum drawdown. One Analyzer per simulation run.
type Analyzer struct {
	total    TradeStats
	bySymbol map[string]*TradeStats

	peak        float64
	maxDrawdown float64 // fraction of peak, always >= 0
}

// NewAnalyzer creates an Analyzer with no observed events.
func NewAnalyzer() *Analyzer {
	return &Analyzer{bySymbol: make(map[string]*TradeStats)}
}

// TradeClosed records a finished round trip. A trade with pnl > 0 is a win;
// pnl <= 0 is a loss, so break-even trades count against the win rate.
func (a *Analyzer) TradeClosed(t domain.Trade) {
	s, ok := a.bySymbol[t.Symbol]
	if !ok {
		s = &TradeStats{}
		a.bySymbol[t.Symbol] = s
	}
	s.Trades++
	a.total.Trades++
	if t.PnL > 0 {
		s.Wins++
		a.total.Wins++
	} else {
		s.Losses++
		a.total.Losses++
	}
}

// EquitySnapshot records one equity mark. The running peak only moves up;
// drawdown is measured against it.
func (a *Analyzer) EquitySnapshot(equity float64) {
	if equity > a.peak {
		a.peak = equity
	}
	if a.peak <= 0 {
		return
	}
	if dd := (a.peak - equity) / a.peak; dd > a.maxDrawdown {
		a.maxDrawdown = dd
	}
}

// TotalTrades returns the number of closed round trips.
func (a *Analyzer) TotalTrades() int { return a.total.Trades }

// Wins returns the number of closed trades with positive pnl.
func (a *Analyzer) Wins() int { return a.total.Wins }

// Losses returns the number of closed trades with pnl <= 0.
func (a *Analyzer) Losses() int { return a.total.Losses }

// WinRate returns wins as a percentage of closed trades, 0 with no trades.
func (a *Analyzer) WinRate() float64 {
	if a.total.Trades == 0 {
		return 0
	}
	return float64(a.total.Wins) / float64(a.total.Trades) * 100
}

// MaxDrawdown returns the largest observed peak-to-equity decline as a
// percentage magnitude in [0, 100].
func (a *Analyzer) MaxDrawdown() float64 {
	return a.maxDrawdown * 100
}

// SymbolStats returns the per-instrument trade counters for symbol. The zero
// value is returned for instruments with no closed trades.
func (a *Analyzer) SymbolStats(symbol string) TradeStats {
	if s, ok := a.bySymbol[symbol]; ok {
		return *s
	}
	return TradeStats{}
}
