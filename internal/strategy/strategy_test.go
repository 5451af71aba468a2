package strategy

import (
	"errors"
	"testing"
	"time"

	"stockbench/internal/domain"
)

func barSeries(closes []float64, volumes []int64) []domain.Bar {
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
			High:      c,
			Low:       c,
			Close:     c,
			Volume:    vol,
		}
	}
	return bars
}

func flat() domain.Position        { return domain.Position{Symbol: "TEST"} }
func long(qty int64) domain.Position {
	return domain.Position{Symbol: "TEST", Qty: qty, AvgCost: 100}
}

// ---------------------------------------------------------------------------
// Config validation
// ---------------------------------------------------------------------------

func TestParseKind(t *testing.T) {
	tests := []struct {
		in      string
		want    Kind
		wantErr bool
	}{
		{"rsi", KindRSI, false},
		{"RSI", KindRSI, false},
		{"macd", KindMACD, false},
		{"volume-spike", KindVolumeSpike, false},
		{"volume_spike", KindVolumeSpike, false},
		{"momentum", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := ParseKind(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseKind(%q) = %v, want error", tt.in, got)
			} else if !errors.Is(err, domain.ErrInvalidConfig) {
				t.Errorf("ParseKind(%q) error %v does not wrap ErrInvalidConfig", tt.in, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseKind(%q) returned error: %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseKind(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestConfigValidate(t *testing.T) {
	valid := DefaultConfig()
	if err := valid.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"sell below buy", func(c *Config) { c.RSI.BuyThreshold = 70; c.RSI.SellThreshold = 30 }},
		{"sell equals buy", func(c *Config) { c.RSI.BuyThreshold = 50; c.RSI.SellThreshold = 50 }},
		{"period too small", func(c *Config) { c.RSI.Period = 2 }},
		{"period too large", func(c *Config) { c.RSI.Period = 99 }},
		{"threshold out of range", func(c *Config) { c.RSI.SellThreshold = 120 }},
		{"unknown kind", func(c *Config) { c.Kind = "momentum" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate returned nil, want error")
			}
			if !errors.Is(err, domain.ErrInvalidConfig) {
				t.Errorf("error %v does not wrap ErrInvalidConfig", err)
			}
		})
	}
}

func TestConfigValidateMACD(t *testing.T) {
	cfg := Config{Kind: KindMACD}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default MACD config should validate: %v", err)
	}

	cfg.MACD.FastPeriod = 26
	cfg.MACD.SlowPeriod = 12
	if err := cfg.Validate(); err == nil {
		t.Error("fast >= slow should be rejected")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{Kind: KindVolumeSpike}
	cfg.ApplyDefaults()
	if cfg.VolumeSpike.Multiplier != 2.0 || cfg.VolumeSpike.Lookback != 20 || cfg.VolumeSpike.HoldBars != 5 {
		t.Errorf("volume spike defaults = %+v", cfg.VolumeSpike)
	}
	if cfg.RSI.Period != 14 || cfg.RSI.BuyThreshold != 30 || cfg.RSI.SellThreshold != 70 {
		t.Errorf("rsi defaults = %+v", cfg.RSI)
	}
}

// ---------------------------------------------------------------------------
// RSI variant
// ---------------------------------------------------------------------------

func TestRSIStrategyFlatSeriesHolds(t *testing.T) {
	s, err := New(DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}

	// Constant closes keep RSI at the neutral 50: never below 30, never above 70.
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 100
	}
	bars := barSeries(closes, nil)

	for i := 1; i <= len(bars); i++ {
		if got := s.Decide(bars[:i], flat()); got != domain.Hold {
			t.Fatalf("step %d: Decide = %v, want HOLD", i, got)
		}
	}
}

func TestRSIStrategyBuysOnOversold(t *testing.T) {
	s, err := New(DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}

	// A steady decline pushes RSI toward 0.
	closes := make([]float64, 20)
	for i := range closes {
		closes[i] = 100 - float64(i)*2
	}
	// One small up-tick keeps the average loss nonzero but RSI far below 30.
	closes[10] = closes[9] + 0.1
	bars := barSeries(closes, nil)

	if got := s.Decide(bars, flat()); got != domain.Buy {
		t.Errorf("Decide on oversold series = %v, want BUY", got)
	}
	// Already long: the same oversold reading must not sell.
	if got := s.Decide(bars, long(10)); got != domain.Hold {
		t.Errorf("Decide while long on oversold series = %v, want HOLD", got)
	}
}

func TestRSIStrategySellsOnOverbought(t *testing.T) {
	s, err := New(DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}

	closes := make([]float64, 20)
	for i := range closes {
		closes[i] = 100 + float64(i)*2
	}
	closes[10] = closes[9] - 0.1 // keep average loss nonzero
	bars := barSeries(closes, nil)

	if got := s.Decide(bars, long(10)); got != domain.Sell {
		t.Errorf("Decide while long on overbought series = %v, want SELL", got)
	}
	if got := s.Decide(bars, flat()); got != domain.Hold {
		t.Errorf("Decide while flat on overbought series = %v, want HOLD", got)
	}
}

// ---------------------------------------------------------------------------
// MACD variant
// ---------------------------------------------------------------------------

func TestMACDStrategyNeverFiresOnFirstBar(t *testing.T) {
	cfg := Config{Kind: KindMACD}
	cfg.ApplyDefaults()
	s, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}

	bars := barSeries([]float64{100}, nil)
	if got := s.Decide(bars, flat()); got != domain.Hold {
		t.Errorf("Decide on first bar = %v, want HOLD", got)
	}
	if got := s.Decide(bars, long(10)); got != domain.Hold {
		t.Errorf("Decide on first bar while long = %v, want HOLD", got)
	}
}

func TestMACDStrategyBuysOnUpwardCrossing(t *testing.T) {
	cfg := Config{Kind: KindMACD, MACD: MACDParams{FastPeriod: 3, SlowPeriod: 6, SignalPeriod: 3}}
	s, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}

	// Long decline then sharp reversal: the MACD line crosses up through the
	// signal line somewhere in the rally. Exactly one BUY must fire while
	// flat, and it must be at a crossing event, not on every bar above.
	closes := make([]float64, 0, 40)
	for i := 0; i < 20; i++ {
		closes = append(closes, 100-float64(i))
	}
	for i := 0; i < 20; i++ {
		closes = append(closes, 81+float64(i)*3)
	}
	bars := barSeries(closes, nil)

	buys := 0
	for i := 2; i <= len(bars); i++ {
		if s.Decide(bars[:i], flat()) == domain.Buy {
			buys++
		}
	}
	if buys == 0 {
		t.Fatal("no BUY fired across a decline-then-rally series")
	}
	// A level comparison would fire on every rally bar; a crossing fires once.
	if buys > 2 {
		t.Errorf("BUY fired %d times, want a crossing event (1-2), not a level test", buys)
	}
}

func TestMACDStrategySellsOnDownwardCrossing(t *testing.T) {
	cfg := Config{Kind: KindMACD, MACD: MACDParams{FastPeriod: 3, SlowPeriod: 6, SignalPeriod: 3}}
	s, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}

	// Rally then decline: a downward crossing must produce a SELL while long.
	closes := make([]float64, 0, 40)
	for i := 0; i < 20; i++ {
		closes = append(closes, 100+float64(i))
	}
	for i := 0; i < 20; i++ {
		closes = append(closes, 119-float64(i)*3)
	}
	bars := barSeries(closes, nil)

	sells := 0
	for i := 2; i <= len(bars); i++ {
		if s.Decide(bars[:i], long(10)) == domain.Sell {
			sells++
		}
	}
	if sells == 0 {
		t.Fatal("no SELL fired across a rally-then-decline series")
	}
	if sells > 2 {
		t.Errorf("SELL fired %d times, want a crossing event (1-2), not a level test", sells)
	}
}

// ---------------------------------------------------------------------------
// Volume spike variant
// ---------------------------------------------------------------------------

func TestVolumeSpikeBuysOnSpike(t *testing.T) {
	cfg := Config{Kind: KindVolumeSpike, VolumeSpike: VolumeSpikeParams{Multiplier: 2, Lookback: 5, HoldBars: 5}}
	s, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}

	volumes := []int64{1000, 1000, 1000, 1000, 1000, 5000}
	bars := barSeries([]float64{100, 100, 100, 100, 100, 100}, volumes)

	if got := s.Decide(bars, flat()); got != domain.Buy {
		t.Errorf("Decide on 5x volume spike = %v, want BUY", got)
	}
}

func TestVolumeSpikeInsufficientHistoryHolds(t *testing.T) {
	cfg := Config{Kind: KindVolumeSpike, VolumeSpike: VolumeSpikeParams{Multiplier: 2, Lookback: 20, HoldBars: 5}}
	s, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}

	bars := barSeries([]float64{100, 100, 100}, []int64{1000, 1000, 99999})
	if got := s.Decide(bars, flat()); got != domain.Hold {
		t.Errorf("Decide with insufficient history = %v, want HOLD", got)
	}
}

func TestVolumeSpikeSellsAfterHoldBars(t *testing.T) {
	cfg := Config{Kind: KindVolumeSpike, VolumeSpike: VolumeSpikeParams{Multiplier: 2, Lookback: 3, HoldBars: 5}}
	s, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}

	closes := make([]float64, 12)
	volumes := make([]int64, 12)
	for i := range closes {
		closes[i] = 100
		volumes[i] = 1000
	}
	volumes[3] = 9000 // spike on day 3
	bars := barSeries(closes, volumes)

	if got := s.Decide(bars[:4], flat()); got != domain.Buy {
		t.Fatalf("Decide on spike day = %v, want BUY", got)
	}

	// Days N+1 through N+4: held counter below HoldBars, no sell.
	pos := long(10)
	for i := 5; i <= 8; i++ {
		if got := s.Decide(bars[:i], pos); got != domain.Hold {
			t.Fatalf("Decide on day N+%d = %v, want HOLD", i-4, got)
		}
	}
	// Day N+5: forced close regardless of volume.
	if got := s.Decide(bars[:9], pos); got != domain.Sell {
		t.Errorf("Decide on day N+5 = %v, want SELL", got)
	}
}
