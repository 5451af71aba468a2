package screen

import (
	"context"

	"stockbench/internal/indicator"
)

// Snapshot is the full indicator surface for one symbol, served by the
// stock-info endpoint.
type Snapshot struct {
	Symbol      string  `json:"symbol"`
	CompanyName string  `json:"companyName"`
	Sector      string  `json:"sector"`
	Price       float64 `json:"price"`
	Change      float64 `json:"change"`
	ChangePct   float64 `json:"changePct"`
	Volume      int64   `json:"volume"`
	MarketCap   float64 `json:"marketCap"`
	TrailingPE  float64 `json:"trailingPe"`

	SupportLevel    float64 `json:"supportLevel"`
	ResistanceLevel float64 `json:"resistanceLevel"`
	RSI             float64 `json:"rsi"`
	MACD            float64 `json:"macd"`
	StochasticK     float64 `json:"stochasticK"`
	StochasticD     float64 `json:"stochasticD"`
	Fib236          float64 `json:"fib236"`
	Fib382          float64 `json:"fib382"`
	Fib500          float64 `json:"fib500"`
	Fib618          float64 `json:"fib618"`
}

// Snapshot computes every indicator for one symbol from the cached bar
// window. Bars come through the same bucketed cache as screening runs.
func (s *Screener) Snapshot(ctx context.Context, symbol string) (*Snapshot, error) {
	data, err := s.fetch(ctx, symbol)
	if err != nil {
		return nil, err
	}

	bars := data.Bars
	last := bars[len(bars)-1]
	price := last.Close
	prevClose := price
	if len(bars) > 1 {
		prevClose = bars[len(bars)-2].Close
	}

	closes := indicator.Closes(bars)
	highs, lows := indicator.HighsLows(bars)
	support, resistance := indicator.SupportResistance(bars, 20)
	k, d := indicator.Stochastic(highs, lows, closes, 14, 3)
	fib := indicator.FibonacciLevels(bars, 50)

	snap := &Snapshot{
		Symbol:          symbol,
		CompanyName:     data.Meta.DisplayName,
		Sector:          data.Meta.Sector,
		Price:           price,
		Change:          price - prevClose,
		Volume:          last.Volume,
		MarketCap:       data.Meta.MarketCap,
		TrailingPE:      data.Meta.TrailingPE,
		SupportLevel:    support,
		ResistanceLevel: resistance,
		RSI:             indicator.RSI(closes, 14),
		MACD:            indicator.MACD(closes, 12, 26, 9).Line,
		StochasticK:     k,
		StochasticD:     d,
		Fib236:          fib.Level236,
		Fib382:          fib.Level382,
		Fib500:          fib.Level500,
		Fib618:          fib.Level618,
	}
	if prevClose != 0 {
		snap.ChangePct = (price - prevClose) / prevClose * 100
	}
	return snap, nil
}
