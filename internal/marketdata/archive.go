package marketdata

import (
	"context"
	"log/slog"
	"time"

	"stockbench/internal/domain"
	"stockbench/internal/store"
)

var _ Provider = (*ArchiveProvider)(nil)

// ArchiveProvider is a read-through layer over the local bar archive. Bars
// already on disk are served without touching the inner provider; on a miss
// the range is fetched once, archived, and served from then on. Daily bars
// are immutable, so an archived range is never refetched.
type ArchiveProvider struct {
	inner Provider
	bars  store.BarStore
	log   *slog.Logger
}

// NewArchiveProvider wraps inner with the given bar archive.
func NewArchiveProvider(inner Provider, bars store.BarStore, log *slog.Logger) *ArchiveProvider {
	return &ArchiveProvider{
		inner: inner,
		bars:  bars,
		log:   log.With("component", "archive"),
	}
}

// FetchBars serves [start, end] from the archive, falling back to the inner
// provider and archiving the result on a miss.
func (p *ArchiveProvider) FetchBars(ctx context.Context, symbol string, start, end time.Time) ([]domain.Bar, error) {
	cached, err := p.bars.ReadBars(ctx, symbol, start, end)
	if err != nil {
		p.log.Warn("archive read failed", "symbol", symbol, "error", err)
	}
	if len(cached) > 0 && coversRange(cached, start, end) {
		return cached, nil
	}

	fetched, err := p.inner.FetchBars(ctx, symbol, start, end)
	if err != nil {
		// Serve a partial archive rather than nothing when the upstream
		// is unreachable.
		if len(cached) > 0 {
			p.log.Warn("upstream fetch failed, serving archived bars", "symbol", symbol, "error", err)
			return cached, nil
		}
		return nil, err
	}

	if err := p.bars.WriteBars(ctx, fetched); err != nil {
		p.log.Warn("archive write failed", "symbol", symbol, "error", err)
	}
	return fetched, nil
}

// FetchMetadata delegates to the inner provider.
func (p *ArchiveProvider) FetchMetadata(ctx context.Context, symbol string) (domain.Metadata, error) {
	return p.inner.FetchMetadata(ctx, symbol)
}

// coversRange reports whether archived bars plausibly span the requested
// range. Daily bars land on trading days only, so the edges are held to a
// few calendar days of slack instead of exact timestamps.
func coversRange(bars []domain.Bar, start, end time.Time) bool {
	const slack = 5 * 24 * time.Hour
	first, last := bars[0].Timestamp, bars[len(bars)-1].Timestamp
	if first.Sub(start) > slack {
		return false
	}
	if end.Sub(last) > slack {
		return false
	}
	return true
}
