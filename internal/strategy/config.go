// Package strategy implements the per-instrument trading decision logic for
// backtests. A Config selects exactly one strategy variant with its
// parameters; New builds a Strategy instance that walks the two-state
// FLAT/LONG machine for a single instrument.
package strategy

import (
	"fmt"
	"strings"

	"stockbench/internal/domain"
)

// Kind identifies a strategy variant.
type Kind string

// Supported strategy variants.
const (
	KindRSI         Kind = "rsi"
	KindMACD        Kind = "macd"
	KindVolumeSpike Kind = "volume-spike"
)

// ParseKind normalizes a strategy name from config or API input.
func ParseKind(name string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "rsi":
		return KindRSI, nil
	case "macd":
		return KindMACD, nil
	case "volume-spike", "volume_spike", "volumespike":
		return KindVolumeSpike, nil
	}
	return "", fmt.Errorf("%w: unknown strategy %q", domain.ErrInvalidConfig, name)
}

// RSIParams configures the RSI threshold variant.
type RSIParams struct {
	Period        int     `yaml:"period" json:"period"`
	BuyThreshold  float64 `yaml:"buy_threshold" json:"buyThreshold"`
	SellThreshold float64 `yaml:"sell_threshold" json:"sellThreshold"`
}

// MACDParams configures the MACD crossover variant.
type MACDParams struct {
	FastPeriod   int `yaml:"fast_period" json:"fastPeriod"`
	SlowPeriod   int `yaml:"slow_period" json:"slowPeriod"`
	SignalPeriod int `yaml:"signal_period" json:"signalPeriod"`
}

// VolumeSpikeParams configures the volume-spike-with-hold variant.
type VolumeSpikeParams struct {
	Multiplier float64 `yaml:"multiplier" json:"multiplier"`
	Lookback   int     `yaml:"lookback" json:"lookback"`
	HoldBars   int     `yaml:"hold_bars" json:"holdBars"`
}

// Config is a closed tagged variant: Kind selects which parameter block is
// active for the run. The config is plain data, safe to serialize and share.
type Config struct {
	Kind        Kind              `yaml:"kind" json:"kind"`
	RSI         RSIParams         `yaml:"rsi" json:"rsi"`
	MACD        MACDParams        `yaml:"macd" json:"macd"`
	VolumeSpike VolumeSpikeParams `yaml:"volume_spike" json:"volumeSpike"`
}

// DefaultConfig returns an RSI config with the standard 14/30/70 parameters.
func DefaultConfig() Config {
	cfg := Config{Kind: KindRSI}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills zero-valued parameters with the documented defaults
// (RSI 14/30/70, MACD 12/26/9, volume spike 2.0/20/5).
func (c *Config) ApplyDefaults() {
	if c.RSI.Period == 0 {
		c.RSI.Period = 14
	}
	if c.RSI.BuyThreshold == 0 {
		c.RSI.BuyThreshold = 30
	}
	if c.RSI.SellThreshold == 0 {
		c.RSI.SellThreshold = 70
	}
	if c.MACD.FastPeriod == 0 {
		c.MACD.FastPeriod = 12
	}
	if c.MACD.SlowPeriod == 0 {
		c.MACD.SlowPeriod = 26
	}
	if c.MACD.SignalPeriod == 0 {
		c.MACD.SignalPeriod = 9
	}
	if c.VolumeSpike.Multiplier == 0 {
		c.VolumeSpike.Multiplier = 2.0
	}
	if c.VolumeSpike.Lookback == 0 {
		c.VolumeSpike.Lookback = 20
	}
	if c.VolumeSpike.HoldBars == 0 {
		c.VolumeSpike.HoldBars = 5
	}
}

// Validate checks the parameters of the active variant. Errors wrap
// domain.ErrInvalidConfig.
func (c Config) Validate() error {
	switch c.Kind {
	case KindRSI:
		p := c.RSI
		if p.Period < 5 || p.Period > 50 {
			return fmt.Errorf("%w: rsi period %d, must be in [5,50]", domain.ErrInvalidConfig, p.Period)
		}
		if p.BuyThreshold < 0 || p.BuyThreshold > 100 || p.SellThreshold < 0 || p.SellThreshold > 100 {
			return fmt.Errorf("%w: rsi thresholds must be in [0,100]", domain.ErrInvalidConfig)
		}
		if p.SellThreshold <= p.BuyThreshold {
			return fmt.Errorf("%w: rsi sell threshold %.1f must be greater than buy threshold %.1f",
				domain.ErrInvalidConfig, p.SellThreshold, p.BuyThreshold)
		}
	case KindMACD:
		p := c.MACD
		if p.FastPeriod <= 0 || p.SlowPeriod <= 0 || p.SignalPeriod <= 0 {
			return fmt.Errorf("%w: macd periods must be positive", domain.ErrInvalidConfig)
		}
		if p.FastPeriod >= p.SlowPeriod {
			return fmt.Errorf("%w: macd fast period %d must be less than slow period %d",
				domain.ErrInvalidConfig, p.FastPeriod, p.SlowPeriod)
		}
	case KindVolumeSpike:
		p := c.VolumeSpike
		if p.Multiplier <= 0 {
			return fmt.Errorf("%w: volume spike multiplier must be positive", domain.ErrInvalidConfig)
		}
		if p.Lookback <= 0 || p.HoldBars <= 0 {
			return fmt.Errorf("%w: volume spike lookback and hold bars must be positive", domain.ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown strategy kind %q", domain.ErrInvalidConfig, c.Kind)
	}
	return nil
}
