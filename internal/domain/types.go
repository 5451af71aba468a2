// Package domain defines the core types shared across the stockbench
// engine: bars, instruments, allocations, positions, trades, and the
// portfolio state mutated by the simulator.
package domain

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// ---------------------------------------------------------------------------
// Error taxonomy
// ---------------------------------------------------------------------------

// ErrInvalidConfig marks configuration errors (bad allocations, date ranges,
// strategy parameters). Surfaced before any simulation work begins.
var ErrInvalidConfig = errors.New("invalid configuration")

// ErrDataUnavailable marks a missing or empty market-data response for a
// requested symbol and date range.
var ErrDataUnavailable = errors.New("data unavailable")

// ---------------------------------------------------------------------------
// Market data
// ---------------------------------------------------------------------------

// Bar is one daily OHLCV observation for one instrument.
type Bar struct {
	Symbol     string
	Timestamp  time.Time
	Open       float64
	High       float64
	Low        float64
	Close      float64
	Volume     int64
	TradeCount int64
	VWAP       float64
}

// Metadata holds descriptive instrument fields. All fields are optional;
// zero values mean "unknown".
type Metadata struct {
	DisplayName string
	Sector      string
	MarketCap   float64
	TrailingPE  float64
}

// Instrument identifies a tradable instrument. Identity is the symbol.
type Instrument struct {
	Symbol string
	Meta   Metadata
}

// ---------------------------------------------------------------------------
// Portfolio
// ---------------------------------------------------------------------------

// Allocation assigns a target percentage of the portfolio to one symbol.
type Allocation struct {
	Symbol  string
	Percent float64
}

// allocTolerance is the allowed deviation of the allocation sum from 100.
const allocTolerance = 0.01

// ValidateAllocations checks that every allocation is in [0,100] and that
// the sum is 100 within tolerance.
func ValidateAllocations(allocs []Allocation) error {
	if len(allocs) == 0 {
		return fmt.Errorf("%w: no allocations", ErrInvalidConfig)
	}
	sum := 0.0
	for _, a := range allocs {
		if a.Symbol == "" {
			return fmt.Errorf("%w: allocation with empty symbol", ErrInvalidConfig)
		}
		if a.Percent < 0 || a.Percent > 100 {
			return fmt.Errorf("%w: allocation for %s is %.2f%%, must be in [0,100]", ErrInvalidConfig, a.Symbol, a.Percent)
		}
		sum += a.Percent
	}
	if math.Abs(sum-100) > allocTolerance {
		return fmt.Errorf("%w: allocations sum to %.2f%%, want 100%%", ErrInvalidConfig, sum)
	}
	return nil
}

// Position is the current holding in one instrument. Qty == 0 means flat.
// Only the simulator mutates positions.
type Position struct {
	Symbol  string
	Qty     int64
	AvgCost float64
}

// Flat reports whether the position holds no shares.
func (p Position) Flat() bool { return p.Qty == 0 }

// Trade is one round trip: opened on a BUY fill, finalized on the matching
// SELL fill. Immutable after Closed is set.
type Trade struct {
	Symbol     string
	Qty        int64
	EntryPrice float64
	EntryTime  time.Time
	ExitPrice  float64
	ExitTime   time.Time
	PnL        float64
	Closed     bool
}

// EquityPoint is one (timestamp, total equity) sample of the equity curve.
type EquityPoint struct {
	Timestamp time.Time
	Equity    float64
}

// Portfolio tracks cash, per-symbol positions, and the equity history for
// one simulation run. Created at run start, mutated once per step, read-only
// after the run completes.
type Portfolio struct {
	Cash      float64
	Positions map[string]*Position
	Equity    []EquityPoint
}

// NewPortfolio creates a Portfolio with the given starting cash.
func NewPortfolio(initialCash float64) *Portfolio {
	return &Portfolio{
		Cash:      initialCash,
		Positions: make(map[string]*Position),
	}
}

// Position returns the position for symbol, creating a flat one on first use.
func (p *Portfolio) Position(symbol string) *Position {
	pos, ok := p.Positions[symbol]
	if !ok {
		pos = &Position{Symbol: symbol}
		p.Positions[symbol] = pos
	}
	return pos
}

// ---------------------------------------------------------------------------
// Strategy decisions
// ---------------------------------------------------------------------------

// Decision is the output of a strategy evaluation for one instrument at one
// step.
type Decision int

// Decision values.
const (
	Hold Decision = iota
	Buy
	Sell
)

// String returns the decision name.
func (d Decision) String() string {
	switch d {
	case Buy:
		return "BUY"
	case Sell:
		return "SELL"
	default:
		return "HOLD"
	}
}
