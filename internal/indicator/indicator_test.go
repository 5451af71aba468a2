package indicator

import (
	"math"
	"testing"
	"time"

	"stockbench/internal/domain"
)

// makeBars builds a daily bar series from parallel price/volume slices.
func makeBars(closes []float64, volumes []int64) []domain.Bar {
	bars := make([]domain.Bar, len(closes))
	base := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	for i, c := range closes {
		var vol int64 = 1000
		if volumes != nil {
			vol = volumes[i]
		}
		bars[i] = domain.Bar{
			Symbol:    "TEST",
			Timestamp: base.AddDate(0, 0, i),
			Open:      c,
			High:      c * 1.01,
			Low:       c * 0.99,
			Close:     c,
			Volume:    vol,
		}
	}
	return bars
}

func constSeries(v float64, n int) []float64 {
	s := make([]float64, n)
	for i := range s {
		s[i] = v
	}
	return s
}

func TestRSIInsufficientData(t *testing.T) {
	closes := []float64{100, 101, 102}
	if got := RSI(closes, 14); got != NeutralRSI {
		t.Errorf("RSI with insufficient data = %v, want %v", got, NeutralRSI)
	}
}

func TestRSIFlatSeries(t *testing.T) {
	// Constant prices: average loss is zero, so RSI resolves to the neutral value.
	if got := RSI(constSeries(100, 30), 14); got != NeutralRSI {
		t.Errorf("RSI of flat series = %v, want %v", got, NeutralRSI)
	}
}

func TestRSIBounds(t *testing.T) {
	tests := []struct {
		name   string
		closes []float64
	}{
		{"rising", []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16}},
		{"falling", []float64{16, 15, 14, 13, 12, 11, 10, 9, 8, 7, 6, 5, 4, 3, 2, 1}},
		{"mixed", []float64{10, 12, 11, 13, 12, 14, 13, 15, 14, 16, 15, 17, 16, 18, 17, 19}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RSI(tt.closes, 14)
			if got < 0 || got > 100 {
				t.Errorf("RSI = %v, want value in [0,100]", got)
			}
		})
	}
}

func TestRSIAllGains(t *testing.T) {
	// Strictly rising series has zero average loss: neutral fallback, not 100.
	if got := RSI([]float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16}, 14); got != NeutralRSI {
		t.Errorf("RSI of all-gain series = %v, want %v", got, NeutralRSI)
	}
}

func TestRSIMixedValue(t *testing.T) {
	// Alternating +2/-1 deltas over the window: avgGain/avgLoss = 2, RSI = 100-100/3.
	closes := []float64{10}
	for i := 0; i < 7; i++ {
		closes = append(closes, closes[len(closes)-1]+2)
		closes = append(closes, closes[len(closes)-1]-1)
	}
	got := RSI(closes, 14)
	want := 100 - 100/(1+2.0)
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("RSI = %v, want %v", got, want)
	}
}

func TestMACDEmptyInput(t *testing.T) {
	r := MACD(nil, 12, 26, 9)
	if r != (MACDResult{}) {
		t.Errorf("MACD of empty input = %+v, want zero result", r)
	}
}

func TestMACDFlatSeries(t *testing.T) {
	r := MACD(constSeries(100, 40), 12, 26, 9)
	if r.Line != 0 || r.Signal != 0 {
		t.Errorf("MACD of flat series = %+v, want zero line and signal", r)
	}
}

func TestMACDSingleBarPrevEqualsLatest(t *testing.T) {
	r := MACD([]float64{100}, 12, 26, 9)
	if r.PrevLine != r.Line || r.PrevSignal != r.Signal {
		t.Errorf("single-bar MACD prev values %+v should equal latest", r)
	}
}

func TestMACDRisingSeriesPositive(t *testing.T) {
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	r := MACD(closes, 12, 26, 9)
	if r.Line <= 0 {
		t.Errorf("MACD line of steadily rising series = %v, want > 0", r.Line)
	}
}

func TestStochasticInsufficientData(t *testing.T) {
	k, d := Stochastic([]float64{10, 11}, []float64{9, 10}, []float64{9.5, 10.5}, 14, 3)
	if k != NeutralStochastic || d != NeutralStochastic {
		t.Errorf("Stochastic with insufficient data = (%v, %v), want (50, 50)", k, d)
	}
}

func TestStochasticFlatRange(t *testing.T) {
	highs := constSeries(100, 20)
	lows := constSeries(100, 20)
	closes := constSeries(100, 20)
	k, d := Stochastic(highs, lows, closes, 14, 3)
	if k != NeutralStochastic || d != NeutralStochastic {
		t.Errorf("Stochastic with zero range = (%v, %v), want (50, 50)", k, d)
	}
}

func TestStochasticBounds(t *testing.T) {
	n := 30
	highs := make([]float64, n)
	lows := make([]float64, n)
	closes := make([]float64, n)
	for i := 0; i < n; i++ {
		mid := 100 + 3*math.Sin(float64(i))
		highs[i] = mid + 2
		lows[i] = mid - 2
		closes[i] = mid + math.Cos(float64(i))
	}
	k, d := Stochastic(highs, lows, closes, 14, 3)
	if k < 0 || k > 100 {
		t.Errorf("%%K = %v, want value in [0,100]", k)
	}
	if d < 0 || d > 100 {
		t.Errorf("%%D = %v, want value in [0,100]", d)
	}
}

func TestStochasticCloseAtHigh(t *testing.T) {
	n := 14
	highs := make([]float64, n)
	lows := make([]float64, n)
	closes := make([]float64, n)
	for i := 0; i < n; i++ {
		highs[i] = 110
		lows[i] = 90
		closes[i] = 100
	}
	closes[n-1] = 110 // close at window high
	k, _ := Stochastic(highs, lows, closes, 14, 3)
	if k != 100 {
		t.Errorf("%%K with close at window high = %v, want 100", k)
	}
}

func TestSupportResistance(t *testing.T) {
	bars := makeBars([]float64{100, 105, 95, 110, 102}, nil)
	support, resistance := SupportResistance(bars, 5)
	wantSupport := 95 * 0.99
	wantResistance := 110 * 1.01
	if math.Abs(support-wantSupport) > 1e-9 {
		t.Errorf("support = %v, want %v", support, wantSupport)
	}
	if math.Abs(resistance-wantResistance) > 1e-9 {
		t.Errorf("resistance = %v, want %v", resistance, wantResistance)
	}
}

func TestSupportResistanceFallback(t *testing.T) {
	bars := makeBars([]float64{100, 102}, nil)
	support, resistance := SupportResistance(bars, 20)
	if math.Abs(support-102*0.95) > 1e-9 || math.Abs(resistance-102*1.05) > 1e-9 {
		t.Errorf("fallback S/R = (%v, %v), want ±5%% of latest close", support, resistance)
	}

	s, r := SupportResistance(nil, 20)
	if s != 0 || r != 0 {
		t.Errorf("S/R of empty bars = (%v, %v), want (0, 0)", s, r)
	}
}

func TestFibonacciLevels(t *testing.T) {
	// 50 rising bars: lookback low is 100*0.99, lookback high is 149*1.01.
	closes := make([]float64, 50)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	bars := makeBars(closes, nil)
	levels := FibonacciLevels(bars, 50)

	high := 149 * 1.01
	low := 100 * 0.99
	diff := high - low
	if math.Abs(levels.Level236-(high-diff*0.236)) > 1e-9 {
		t.Errorf("Level236 = %v, want %v", levels.Level236, high-diff*0.236)
	}
	if math.Abs(levels.Level618-(high-diff*0.618)) > 1e-9 {
		t.Errorf("Level618 = %v, want %v", levels.Level618, high-diff*0.618)
	}
	// Retracement levels are ordered: deeper ratios sit lower.
	if !(levels.Level236 > levels.Level382 && levels.Level382 > levels.Level500 && levels.Level500 > levels.Level618) {
		t.Errorf("levels not descending: %+v", levels)
	}
}

func TestFibonacciLevelsFallback(t *testing.T) {
	bars := makeBars([]float64{100, 100, 100}, nil)
	levels := FibonacciLevels(bars, 50)
	want := FibLevels{Level236: 98, Level382: 95, Level500: 92, Level618: 90}
	if math.Abs(levels.Level236-want.Level236) > 1e-9 ||
		math.Abs(levels.Level382-want.Level382) > 1e-9 ||
		math.Abs(levels.Level500-want.Level500) > 1e-9 ||
		math.Abs(levels.Level618-want.Level618) > 1e-9 {
		t.Errorf("fallback levels = %+v, want %+v", levels, want)
	}

	if got := FibonacciLevels(nil, 50); got != (FibLevels{}) {
		t.Errorf("FibonacciLevels of empty bars = %+v, want zero struct", got)
	}
}

func TestVWAP(t *testing.T) {
	// Two bars, equal volume: VWAP is the mean of the typical prices.
	bars := []domain.Bar{
		{High: 102, Low: 98, Close: 100, Volume: 1000},
		{High: 112, Low: 108, Close: 110, Volume: 1000},
	}
	got := VWAP(bars, 2)
	want := (100.0 + 110.0) / 2
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("VWAP = %v, want %v", got, want)
	}
}

func TestVWAPVolumeWeighting(t *testing.T) {
	bars := []domain.Bar{
		{High: 100, Low: 100, Close: 100, Volume: 3000},
		{High: 200, Low: 200, Close: 200, Volume: 1000},
	}
	got := VWAP(bars, 2)
	want := (100*3000.0 + 200*1000.0) / 4000.0
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("VWAP = %v, want %v", got, want)
	}
}

func TestVWAPFallback(t *testing.T) {
	bars := makeBars([]float64{100, 101, 102}, nil)
	if got := VWAP(bars, 20); got != 102 {
		t.Errorf("VWAP with insufficient bars = %v, want latest close 102", got)
	}
	if got := VWAP(nil, 20); got != 0 {
		t.Errorf("VWAP of empty bars = %v, want 0", got)
	}

	// Zero total volume falls back to the latest close.
	zeroVol := makeBars([]float64{100, 101}, []int64{0, 0})
	if got := VWAP(zeroVol, 2); got != 101 {
		t.Errorf("VWAP with zero volume = %v, want 101", got)
	}
}
