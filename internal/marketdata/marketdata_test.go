package marketdata

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"stockbench/internal/domain"
)

var testDay = time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)

func testBars(symbol string, n int) []domain.Bar {
	bars := make([]domain.Bar, n)
	for i := range bars {
		bars[i] = domain.Bar{
			Symbol:    symbol,
			Timestamp: testDay.AddDate(0, 0, i),
			Open:      100,
			High:      101,
			Low:       99,
			Close:     100,
			Volume:    1000,
		}
	}
	return bars
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// --- StaticProvider ---

func TestStaticProviderRangeFilter(t *testing.T) {
	p := NewStaticProvider()
	p.AddBars("AAPL", testBars("AAPL", 10))

	start := testDay.AddDate(0, 0, 2)
	end := testDay.AddDate(0, 0, 5)
	got, err := p.FetchBars(context.Background(), "AAPL", start, end)
	if err != nil {
		t.Fatalf("FetchBars: %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("got %d bars, want 4", len(got))
	}
	if !got[0].Timestamp.Equal(start) || !got[3].Timestamp.Equal(end) {
		t.Errorf("range [%v, %v], want [%v, %v]", got[0].Timestamp, got[3].Timestamp, start, end)
	}
}

func TestStaticProviderUnknownSymbol(t *testing.T) {
	p := NewStaticProvider()
	_, err := p.FetchBars(context.Background(), "NOPE", testDay, testDay.AddDate(0, 0, 5))
	if !errors.Is(err, domain.ErrDataUnavailable) {
		t.Errorf("err = %v, want ErrDataUnavailable", err)
	}
}

// --- ArchiveProvider ---

// memBarStore is an in-memory BarStore for read-through tests.
type memBarStore struct {
	bars   map[string][]domain.Bar
	writes int
}

func newMemBarStore() *memBarStore {
	return &memBarStore{bars: make(map[string][]domain.Bar)}
}

func (m *memBarStore) WriteBars(_ context.Context, bars []domain.Bar) error {
	m.writes++
	for _, b := range bars {
		m.bars[b.Symbol] = append(m.bars[b.Symbol], b)
	}
	return nil
}

func (m *memBarStore) ReadBars(_ context.Context, symbol string, start, end time.Time) ([]domain.Bar, error) {
	var out []domain.Bar
	for _, b := range m.bars[symbol] {
		if b.Timestamp.Before(start) || b.Timestamp.After(end) {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

func (m *memBarStore) ListSymbols(_ context.Context) ([]string, error) {
	var out []string
	for s := range m.bars {
		out = append(out, s)
	}
	return out, nil
}

// countingInner wraps a StaticProvider and counts bar fetches.
type countingInner struct {
	*StaticProvider
	calls int
}

func (c *countingInner) FetchBars(ctx context.Context, symbol string, start, end time.Time) ([]domain.Bar, error) {
	c.calls++
	return c.StaticProvider.FetchBars(ctx, symbol, start, end)
}

func TestArchiveProviderReadThrough(t *testing.T) {
	inner := &countingInner{StaticProvider: NewStaticProvider()}
	inner.AddBars("MSFT", testBars("MSFT", 10))
	archive := NewArchiveProvider(inner, newMemBarStore(), discardLogger())

	ctx := context.Background()
	start, end := testDay, testDay.AddDate(0, 0, 9)

	first, err := archive.FetchBars(ctx, "MSFT", start, end)
	if err != nil {
		t.Fatalf("first FetchBars: %v", err)
	}
	second, err := archive.FetchBars(ctx, "MSFT", start, end)
	if err != nil {
		t.Fatalf("second FetchBars: %v", err)
	}

	if inner.calls != 1 {
		t.Errorf("inner fetches = %d, want 1", inner.calls)
	}
	if len(first) != len(second) {
		t.Errorf("bar counts differ: %d vs %d", len(first), len(second))
	}
}

func TestArchiveProviderFetchesWiderRange(t *testing.T) {
	inner := &countingInner{StaticProvider: NewStaticProvider()}
	inner.AddBars("MSFT", testBars("MSFT", 30))
	archive := NewArchiveProvider(inner, newMemBarStore(), discardLogger())

	ctx := context.Background()
	if _, err := archive.FetchBars(ctx, "MSFT", testDay, testDay.AddDate(0, 0, 9)); err != nil {
		t.Fatalf("narrow FetchBars: %v", err)
	}
	// A wider window is not covered by the archived slice and must go
	// back upstream.
	wide, err := archive.FetchBars(ctx, "MSFT", testDay, testDay.AddDate(0, 0, 29))
	if err != nil {
		t.Fatalf("wide FetchBars: %v", err)
	}
	if inner.calls != 2 {
		t.Errorf("inner fetches = %d, want 2", inner.calls)
	}
	if len(wide) != 30 {
		t.Errorf("got %d bars, want 30", len(wide))
	}
}

func TestArchiveProviderServesArchiveOnUpstreamFailure(t *testing.T) {
	inner := &countingInner{StaticProvider: NewStaticProvider()}
	inner.AddBars("MSFT", testBars("MSFT", 10))
	archive := NewArchiveProvider(inner, newMemBarStore(), discardLogger())

	ctx := context.Background()
	start, end := testDay, testDay.AddDate(0, 0, 9)
	if _, err := archive.FetchBars(ctx, "MSFT", start, end); err != nil {
		t.Fatalf("seed FetchBars: %v", err)
	}

	// Upstream loses the symbol. A request widened past the archived
	// range fails upstream but the archived bars still come back.
	inner.StaticProvider = NewStaticProvider()
	got, err := archive.FetchBars(ctx, "MSFT", start, end.AddDate(0, 0, 30))
	if err != nil {
		t.Fatalf("FetchBars after upstream loss: %v", err)
	}
	if len(got) != 10 {
		t.Errorf("got %d archived bars, want 10", len(got))
	}
}
