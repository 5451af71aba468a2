package strategy

import (
	"stockbench/internal/domain"
	"stockbench/internal/indicator"
)

// Compile-time interface checks.
var _ Strategy = (*rsiStrategy)(nil)
var _ Strategy = (*macdStrategy)(nil)
var _ Strategy = (*volumeSpikeStrategy)(nil)

// ---------------------------------------------------------------------------
// RSI threshold
// ---------------------------------------------------------------------------

// rsiStrategy buys when RSI drops below the buy threshold and sells when it
// rises above the sell threshold.
type rsiStrategy struct {
	params RSIParams
}

func (s *rsiStrategy) Name() string { return string(KindRSI) }

func (s *rsiStrategy) Decide(history []domain.Bar, pos domain.Position) domain.Decision {
	rsi := indicator.RSI(indicator.Closes(history), s.params.Period)
	if pos.Flat() {
		if rsi < s.params.BuyThreshold {
			return domain.Buy
		}
		return domain.Hold
	}
	if rsi > s.params.SellThreshold {
		return domain.Sell
	}
	return domain.Hold
}

// ---------------------------------------------------------------------------
// MACD crossover
// ---------------------------------------------------------------------------

// macdStrategy trades crossover events: a buy when the MACD line crosses
// above the signal line, a sell on the symmetric downward crossing. Level
// comparisons alone never trigger a trade.
type macdStrategy struct {
	params MACDParams
}

func (s *macdStrategy) Name() string { return string(KindMACD) }

func (s *macdStrategy) Decide(history []domain.Bar, pos domain.Position) domain.Decision {
	// Crossover detection needs a previous bar.
	if len(history) < 2 {
		return domain.Hold
	}
	r := indicator.MACD(indicator.Closes(history), s.params.FastPeriod, s.params.SlowPeriod, s.params.SignalPeriod)
	if pos.Flat() {
		if r.Line > r.Signal && r.PrevLine <= r.PrevSignal {
			return domain.Buy
		}
		return domain.Hold
	}
	if r.Line < r.Signal && r.PrevLine >= r.PrevSignal {
		return domain.Sell
	}
	return domain.Hold
}

// ---------------------------------------------------------------------------
// Volume spike with timed hold
// ---------------------------------------------------------------------------

// volumeSpikeStrategy buys when the current bar's volume exceeds a multiple
// of the trailing average volume, then holds for a fixed number of bars and
// sells unconditionally.
type volumeSpikeStrategy struct {
	params VolumeSpikeParams
	held   int
}

func (s *volumeSpikeStrategy) Name() string { return string(KindVolumeSpike) }

func (s *volumeSpikeStrategy) Decide(history []domain.Bar, pos domain.Position) domain.Decision {
	if pos.Flat() {
		// Average over the lookback bars preceding the current one.
		if len(history) < s.params.Lookback+1 {
			return domain.Hold
		}
		cur := history[len(history)-1]
		window := history[len(history)-1-s.params.Lookback : len(history)-1]
		var sum int64
		for _, b := range window {
			sum += b.Volume
		}
		avg := float64(sum) / float64(s.params.Lookback)
		if float64(cur.Volume) > s.params.Multiplier*avg {
			s.held = 0
			return domain.Buy
		}
		return domain.Hold
	}

	s.held++
	if s.held >= s.params.HoldBars {
		s.held = 0
		return domain.Sell
	}
	return domain.Hold
}
