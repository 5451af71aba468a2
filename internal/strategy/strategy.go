package strategy

import (
	"stockbench/internal/domain"
)

// Strategy evaluates one instrument. Decide receives the bar history up to
// and including the current bar plus the current position, and returns the
// action for this step.
//
// A Strategy instance serves exactly one instrument and is advanced
// sequentially by the simulator; instances are not safe for concurrent use.
type Strategy interface {
	// Name returns the variant identifier.
	Name() string

	// Decide returns BUY, SELL, or HOLD for the current bar.
	Decide(history []domain.Bar, pos domain.Position) domain.Decision
}

// New validates cfg and builds a Strategy for a single instrument. The
// simulator calls New once per instrument so stateful variants (the
// volume-spike hold counter) stay isolated.
func New(cfg Config) (Strategy, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch cfg.Kind {
	case KindRSI:
		return &rsiStrategy{params: cfg.RSI}, nil
	case KindMACD:
		return &macdStrategy{params: cfg.MACD}, nil
	default:
		return &volumeSpikeStrategy{params: cfg.VolumeSpike}, nil
	}
}
