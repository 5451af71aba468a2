// Package marketdata adapts external market-data sources to the engine's
// Provider interface. The engine core never performs I/O itself; everything
// it knows about prices and instruments comes through a Provider.
package marketdata

import (
	"context"
	"fmt"
	"sort"
	"time"

	"stockbench/internal/domain"
)

// Provider supplies historical bars and instrument metadata.
//
// FetchBars returns daily bars ordered by ascending timestamp, or an error
// wrapping domain.ErrDataUnavailable when the symbol/range has no data.
// FetchMetadata degrades to empty defaults rather than failing hard: callers
// treat a zero Metadata as "unknown".
type Provider interface {
	FetchBars(ctx context.Context, symbol string, start, end time.Time) ([]domain.Bar, error)
	FetchMetadata(ctx context.Context, symbol string) (domain.Metadata, error)
}

// ---------------------------------------------------------------------------
// Static provider
// ---------------------------------------------------------------------------

// StaticProvider serves bars and metadata from in-memory maps. Used by tests
// and offline CLI runs.
type StaticProvider struct {
	Bars map[string][]domain.Bar
	Meta map[string]domain.Metadata
}

var _ Provider = (*StaticProvider)(nil)

// NewStaticProvider creates an empty StaticProvider.
func NewStaticProvider() *StaticProvider {
	return &StaticProvider{
		Bars: make(map[string][]domain.Bar),
		Meta: make(map[string]domain.Metadata),
	}
}

// AddBars registers bars for a symbol, kept sorted by timestamp.
func (p *StaticProvider) AddBars(symbol string, bars []domain.Bar) {
	merged := append(p.Bars[symbol], bars...)
	sort.Slice(merged, func(i, j int) bool {
		return merged[i].Timestamp.Before(merged[j].Timestamp)
	})
	p.Bars[symbol] = merged
}

// FetchBars returns the registered bars inside [start, end].
func (p *StaticProvider) FetchBars(_ context.Context, symbol string, start, end time.Time) ([]domain.Bar, error) {
	all := p.Bars[symbol]
	var out []domain.Bar
	for _, b := range all {
		if b.Timestamp.Before(start) || b.Timestamp.After(end) {
			continue
		}
		out = append(out, b)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: no bars for %s in range", domain.ErrDataUnavailable, symbol)
	}
	return out, nil
}

// FetchMetadata returns the registered metadata, or empty defaults.
func (p *StaticProvider) FetchMetadata(_ context.Context, symbol string) (domain.Metadata, error) {
	return p.Meta[symbol], nil
}
