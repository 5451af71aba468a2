// Package screen evaluates a universe of symbols against multi-factor
// filters: cheap metadata predicates first, indicator predicates last, fanned
// out over a bounded worker pool behind the shared time-bucketed cache.
package screen

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"stockbench/internal/cache"
	"stockbench/internal/domain"
	"stockbench/internal/indicator"
	"stockbench/internal/marketdata"
)

// DefaultWorkers bounds concurrent per-symbol evaluations.
const DefaultWorkers = 10

// historyDays is how far back bars are requested for indicator computation.
const historyDays = 90

// FilterSpec is a set of independently toggleable predicates. Disabled
// filters are skipped entirely; their indicator fields stay zero in results.
// For ranged filters a zero maximum means unbounded.
type FilterSpec struct {
	PriceEnabled bool    `json:"priceEnabled"`
	MinPrice     float64 `json:"minPrice"`
	MaxPrice     float64 `json:"maxPrice"`

	VolumeEnabled bool  `json:"volumeEnabled"`
	MinVolume     int64 `json:"minVolume"`

	SectorEnabled bool   `json:"sectorEnabled"`
	Sector        string `json:"sector"`

	MarketCapEnabled bool    `json:"marketCapEnabled"`
	MinMarketCap     float64 `json:"minMarketCap"`
	MaxMarketCap     float64 `json:"maxMarketCap"`

	PEEnabled bool    `json:"peEnabled"`
	MinPE     float64 `json:"minPe"`
	MaxPE     float64 `json:"maxPe"`

	RSIEnabled bool    `json:"rsiEnabled"`
	RSIPeriod  int     `json:"rsiPeriod"`
	MinRSI     float64 `json:"minRsi"`
	MaxRSI     float64 `json:"maxRsi"`

	MACDEnabled  bool `json:"macdEnabled"`
	MACDPositive bool `json:"macdPositive"` // true: line > 0, false: line < 0

	VWAPEnabled    bool `json:"vwapEnabled"`
	PriceAboveVWAP bool `json:"priceAboveVwap"`
}

// Result is one surviving instrument. Indicator fields are zero when the
// corresponding filter was disabled.
type Result struct {
	Symbol     string  `json:"symbol"`
	Name       string  `json:"name"`
	Price      float64 `json:"price"`
	Change     float64 `json:"change"`
	ChangePct  float64 `json:"changePct"`
	Volume     int64   `json:"volume"`
	MarketCap  float64 `json:"marketCap"`
	TrailingPE float64 `json:"trailingPe"`
	RSI        float64 `json:"rsi"`
	MACD       float64 `json:"macd"`
	VWAP       float64 `json:"vwap"`
}

// symbolData is what one cache entry holds: the bar window plus metadata.
type symbolData struct {
	Bars []domain.Bar
	Meta domain.Metadata
}

// Screener runs filter passes over a symbol universe. Safe for concurrent
// use; all runs share one cache instance.
type Screener struct {
	provider    marketdata.Provider
	cache       *cache.Cache[symbolData]
	log         *slog.Logger
	workers     int
	bucketWidth time.Duration
	now         func() time.Time
}

// Option configures a Screener.
type Option func(*Screener)

// WithWorkers sets the worker-pool size.
func WithWorkers(n int) Option {
	return func(s *Screener) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithBucketWidth sets the cache freshness window.
func WithBucketWidth(d time.Duration) Option {
	return func(s *Screener) {
		if d > 0 {
			s.bucketWidth = d
		}
	}
}

// WithCacheCapacity bounds the number of cached symbol entries.
func WithCacheCapacity(n int) Option {
	return func(s *Screener) { s.cache = cache.New[symbolData](n) }
}

// withClock overrides the wall clock, for tests.
func withClock(now func() time.Time) Option {
	return func(s *Screener) { s.now = now }
}

// NewScreener creates a Screener over the given provider.
func NewScreener(p marketdata.Provider, log *slog.Logger, opts ...Option) *Screener {
	s := &Screener{
		provider:    p,
		cache:       cache.New[symbolData](cache.DefaultCapacity),
		log:         log.With("component", "screen"),
		workers:     DefaultWorkers,
		bucketWidth: cache.DefaultBucketWidth,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ClearCache drops all cached symbol data, forcing fresh fetches.
func (s *Screener) ClearCache() {
	s.cache.Clear()
}

// Run screens the universe against spec. One symbol's failure is logged and
// excluded; partial results are the normal successful outcome. Results are
// sorted by symbol ascending.
func (s *Screener) Run(ctx context.Context, universe []string, spec FilterSpec) ([]Result, error) {
	jobs := make(chan string)
	out := make(chan Result, len(universe))

	var wg sync.WaitGroup
	for w := 0; w < s.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for sym := range jobs {
				res, ok, err := s.evaluate(ctx, sym, spec)
				if err != nil {
					s.log.Warn("symbol evaluation failed", "symbol", sym, "error", err)
					continue
				}
				if ok {
					out <- res
				}
			}
		}()
	}

	for _, sym := range universe {
		select {
		case jobs <- sym:
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return nil, ctx.Err()
		}
	}
	close(jobs)
	wg.Wait()
	close(out)

	results := make([]Result, 0, len(out))
	for r := range out {
		results = append(results, r)
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Symbol < results[j].Symbol })
	return results, nil
}

// fetch loads bars and metadata for one symbol through the cache.
func (s *Screener) fetch(ctx context.Context, symbol string) (symbolData, error) {
	key := cache.Key{Symbol: symbol, Bucket: cache.BucketOf(s.now(), s.bucketWidth)}
	return s.cache.GetOrFetch(ctx, key, func(ctx context.Context) (symbolData, error) {
		end := s.now()
		start := end.AddDate(0, 0, -historyDays)
		bars, err := s.provider.FetchBars(ctx, symbol, start, end)
		if err != nil {
			return symbolData{}, err
		}
		meta, err := s.provider.FetchMetadata(ctx, symbol)
		if err != nil {
			meta = domain.Metadata{} // metadata degrades to empty, bars do not
		}
		return symbolData{Bars: bars, Meta: meta}, nil
	})
}

// evaluate applies the filters in ascending cost order. The first failure
// eliminates the symbol and later filters are never computed.
func (s *Screener) evaluate(ctx context.Context, symbol string, spec FilterSpec) (Result, bool, error) {
	data, err := s.fetch(ctx, symbol)
	if err != nil {
		return Result{}, false, err
	}

	bars := data.Bars
	last := bars[len(bars)-1]
	price := last.Close
	prevClose := price
	if len(bars) > 1 {
		prevClose = bars[len(bars)-2].Close
	}

	res := Result{
		Symbol:     symbol,
		Name:       data.Meta.DisplayName,
		Price:      price,
		Change:     price - prevClose,
		Volume:     last.Volume,
		MarketCap:  data.Meta.MarketCap,
		TrailingPE: data.Meta.TrailingPE,
	}
	if prevClose != 0 {
		res.ChangePct = (price - prevClose) / prevClose * 100
	}

	if spec.PriceEnabled && !withinRange(price, spec.MinPrice, spec.MaxPrice) {
		return Result{}, false, nil
	}
	if spec.VolumeEnabled && last.Volume < spec.MinVolume {
		return Result{}, false, nil
	}
	if spec.SectorEnabled && data.Meta.Sector != spec.Sector {
		return Result{}, false, nil
	}
	if spec.MarketCapEnabled && !withinRange(data.Meta.MarketCap, spec.MinMarketCap, spec.MaxMarketCap) {
		return Result{}, false, nil
	}
	if spec.PEEnabled && !withinRange(data.Meta.TrailingPE, spec.MinPE, spec.MaxPE) {
		return Result{}, false, nil
	}

	closes := indicator.Closes(bars)
	if spec.RSIEnabled {
		period := spec.RSIPeriod
		if period <= 0 {
			period = 14
		}
		res.RSI = indicator.RSI(closes, period)
		if !withinRange(res.RSI, spec.MinRSI, spec.MaxRSI) {
			return Result{}, false, nil
		}
	}
	if spec.MACDEnabled {
		m := indicator.MACD(closes, 12, 26, 9)
		res.MACD = m.Line
		if spec.MACDPositive != (m.Line > 0) {
			return Result{}, false, nil
		}
	}
	if spec.VWAPEnabled {
		res.VWAP = indicator.VWAP(bars, indicator.DefaultVWAPWindow)
		if spec.PriceAboveVWAP != (price > res.VWAP) {
			return Result{}, false, nil
		}
	}

	return res, true, nil
}

// withinRange checks v against [min, max]. A zero max is unbounded, so a
// filter can be enabled with only a floor set.
func withinRange(v, min, max float64) bool {
	if v < min {
		return false
	}
	if max > 0 && v > max {
		return false
	}
	return true
}
