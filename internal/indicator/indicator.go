// Package indicator provides pure technical indicator computations over
// daily bar data. Every function is total: degenerate inputs (insufficient
// history, zero denominators) produce documented neutral defaults instead of
// errors, so screening and backtest outputs stay reproducible.
package indicator

import (
	"stockbench/internal/domain"
)

// Neutral defaults returned on insufficient or degenerate input.
const (
	NeutralRSI        = 50.0
	NeutralStochastic = 50.0
)

// ---------------------------------------------------------------------------
// RSI
// ---------------------------------------------------------------------------

// RSI computes the Relative Strength Index over a trailing simple rolling
// window of `period` close-to-close deltas. Returns NeutralRSI when there is
// insufficient history (< period+1 closes) or when the average loss is zero
// (flat or monotonically rising series).
func RSI(closes []float64, period int) float64 {
	if period <= 0 || len(closes) < period+1 {
		return NeutralRSI
	}

	var gain, loss float64
	for i := len(closes) - period; i < len(closes); i++ {
		delta := closes[i] - closes[i-1]
		if delta > 0 {
			gain += delta
		} else {
			loss -= delta
		}
	}
	avgGain := gain / float64(period)
	avgLoss := loss / float64(period)

	if avgLoss == 0 {
		return NeutralRSI
	}

	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

// ---------------------------------------------------------------------------
// MACD
// ---------------------------------------------------------------------------

// MACDResult holds the latest and previous-bar values of the MACD line and
// its signal line. The previous values support crossover detection; with a
// single bar of history they equal the latest values.
type MACDResult struct {
	Line       float64
	Signal     float64
	PrevLine   float64
	PrevSignal float64
}

// MACD computes the Moving Average Convergence Divergence: EMA(fast) minus
// EMA(slow) for the MACD line, and an EMA(signal) of the MACD line for the
// signal line. Returns the zero result on empty input.
func MACD(closes []float64, fast, slow, signal int) MACDResult {
	if len(closes) == 0 || fast <= 0 || slow <= 0 || signal <= 0 {
		return MACDResult{}
	}

	emaFast := emaSeries(closes, fast)
	emaSlow := emaSeries(closes, slow)

	line := make([]float64, len(closes))
	for i := range closes {
		line[i] = emaFast[i] - emaSlow[i]
	}
	sig := emaSeries(line, signal)

	r := MACDResult{
		Line:       line[len(line)-1],
		Signal:     sig[len(sig)-1],
		PrevLine:   line[len(line)-1],
		PrevSignal: sig[len(sig)-1],
	}
	if len(closes) >= 2 {
		r.PrevLine = line[len(line)-2]
		r.PrevSignal = sig[len(sig)-2]
	}
	return r
}

// emaSeries computes an exponential moving average with span `period`
// (alpha = 2/(period+1)), seeded with the first value.
func emaSeries(values []float64, period int) []float64 {
	out := make([]float64, len(values))
	alpha := 2.0 / (float64(period) + 1)
	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		out[i] = alpha*values[i] + (1-alpha)*out[i-1]
	}
	return out
}

// ---------------------------------------------------------------------------
// Stochastic oscillator
// ---------------------------------------------------------------------------

// Stochastic computes the stochastic oscillator %K and %D. %K compares the
// latest close against the rolling kPeriod high/low range; %D is the rolling
// mean of %K over dPeriod. Returns (50, 50) when data is insufficient, and a
// neutral 50 whenever a window's high/low range is zero.
func Stochastic(highs, lows, closes []float64, kPeriod, dPeriod int) (k, d float64) {
	n := len(closes)
	if kPeriod <= 0 || dPeriod <= 0 || n < kPeriod || len(highs) != n || len(lows) != n {
		return NeutralStochastic, NeutralStochastic
	}

	// %K for every index with a full trailing window.
	kSeries := make([]float64, 0, n-kPeriod+1)
	for i := kPeriod - 1; i < n; i++ {
		hi, lo := highs[i], lows[i]
		for j := i - kPeriod + 1; j < i; j++ {
			if highs[j] > hi {
				hi = highs[j]
			}
			if lows[j] < lo {
				lo = lows[j]
			}
		}
		if hi == lo {
			kSeries = append(kSeries, NeutralStochastic)
			continue
		}
		kSeries = append(kSeries, 100*(closes[i]-lo)/(hi-lo))
	}

	k = kSeries[len(kSeries)-1]
	if len(kSeries) < dPeriod {
		return k, NeutralStochastic
	}
	sum := 0.0
	for _, v := range kSeries[len(kSeries)-dPeriod:] {
		sum += v
	}
	return k, sum / float64(dPeriod)
}

// ---------------------------------------------------------------------------
// Support / resistance
// ---------------------------------------------------------------------------

// SupportResistance returns the rolling minimum low (support) and maximum
// high (resistance) over the trailing `window` bars. With fewer than
// `window` bars it falls back to ±5% of the latest close; with no bars it
// returns (0, 0).
func SupportResistance(bars []domain.Bar, window int) (support, resistance float64) {
	if len(bars) == 0 {
		return 0, 0
	}
	last := bars[len(bars)-1].Close
	if window <= 0 || len(bars) < window {
		return last * 0.95, last * 1.05
	}

	tail := bars[len(bars)-window:]
	support = tail[0].Low
	resistance = tail[0].High
	for _, b := range tail[1:] {
		if b.Low < support {
			support = b.Low
		}
		if b.High > resistance {
			resistance = b.High
		}
	}
	return support, resistance
}

// ---------------------------------------------------------------------------
// Fibonacci retracement
// ---------------------------------------------------------------------------

// FibLevels holds retracement levels at the standard ratios, computed as
// high - ratio*(high-low) over the lookback range.
type FibLevels struct {
	Level236 float64
	Level382 float64
	Level500 float64
	Level618 float64
}

// FibonacciLevels computes retracement levels over the most recent
// `lookback` bars. With fewer than `lookback` bars it falls back to fixed
// percentages of the latest close; with no bars it returns the zero struct.
func FibonacciLevels(bars []domain.Bar, lookback int) FibLevels {
	if len(bars) == 0 {
		return FibLevels{}
	}
	last := bars[len(bars)-1].Close
	if lookback <= 0 || len(bars) < lookback {
		return FibLevels{
			Level236: last * 0.98,
			Level382: last * 0.95,
			Level500: last * 0.92,
			Level618: last * 0.90,
		}
	}

	tail := bars[len(bars)-lookback:]
	high := tail[0].High
	low := tail[0].Low
	for _, b := range tail[1:] {
		if b.High > high {
			high = b.High
		}
		if b.Low < low {
			low = b.Low
		}
	}
	diff := high - low
	return FibLevels{
		Level236: high - diff*0.236,
		Level382: high - diff*0.382,
		Level500: high - diff*0.500,
		Level618: high - diff*0.618,
	}
}

// ---------------------------------------------------------------------------
// VWAP
// ---------------------------------------------------------------------------

// DefaultVWAPWindow is the standard trailing window for VWAP.
const DefaultVWAPWindow = 20

// VWAP computes the volume-weighted mean of the typical price
// (high+low+close)/3 over the trailing `window` bars. Falls back to the
// latest close with fewer than `window` bars or zero total volume, and to 0
// with no bars at all.
func VWAP(bars []domain.Bar, window int) float64 {
	if len(bars) == 0 {
		return 0
	}
	last := bars[len(bars)-1].Close
	if window <= 0 || len(bars) < window {
		return last
	}

	var pv, vol float64
	for _, b := range bars[len(bars)-window:] {
		typical := (b.High + b.Low + b.Close) / 3
		pv += typical * float64(b.Volume)
		vol += float64(b.Volume)
	}
	if vol == 0 {
		return last
	}
	return pv / vol
}

// Closes extracts the close prices from a bar slice.
func Closes(bars []domain.Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}
	return out
}

// HighsLows extracts the high and low price series from a bar slice.
func HighsLows(bars []domain.Bar) (highs, lows []float64) {
	highs = make([]float64, len(bars))
	lows = make([]float64, len(bars))
	for i, b := range bars {
		highs[i] = b.High
		lows[i] = b.Low
	}
	return highs, lows
}
