package marketdata

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/alpaca"
	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"

	"stockbench/internal/domain"
	"stockbench/internal/store"
	"stockbench/internal/util"
)

var _ Provider = (*AlpacaProvider)(nil)

// AlpacaProvider fetches daily bars and asset names from the Alpaca
// market-data API. Rate limiting and bounded retry live here, at the adapter
// boundary; nothing downstream retries. Sector, market cap, and P/E come
// from the instrument catalog when one is attached, since Alpaca's asset
// endpoint does not carry fundamentals.
type AlpacaProvider struct {
	md      *marketdata.Client
	trading *alpaca.Client
	catalog store.InstrumentStore // may be nil
	limiter *util.RateLimiter
	log     *slog.Logger
}

// AlpacaOpts configures an AlpacaProvider.
type AlpacaOpts struct {
	APIKey          string
	APISecret       string
	BaseURL         string // trading API, for assets
	DataURL         string // market-data API
	RateLimitPerMin int
	Catalog         store.InstrumentStore
}

// retryAttempts and retryBaseDelay bound transient-error retries per call.
const (
	retryAttempts  = 3
	retryBaseDelay = 500 * time.Millisecond
)

// NewAlpacaProvider creates an AlpacaProvider with the given credentials.
func NewAlpacaProvider(opts AlpacaOpts, log *slog.Logger) *AlpacaProvider {
	mdOpts := marketdata.ClientOpts{
		APIKey:    opts.APIKey,
		APISecret: opts.APISecret,
	}
	if opts.DataURL != "" {
		mdOpts.BaseURL = opts.DataURL
	}
	tradingOpts := alpaca.ClientOpts{
		APIKey:    opts.APIKey,
		APISecret: opts.APISecret,
	}
	if opts.BaseURL != "" {
		tradingOpts.BaseURL = opts.BaseURL
	}
	perMin := opts.RateLimitPerMin
	if perMin <= 0 {
		perMin = 200
	}

	return &AlpacaProvider{
		md:      marketdata.NewClient(mdOpts),
		trading: alpaca.NewClient(tradingOpts),
		catalog: opts.Catalog,
		limiter: util.NewRateLimiter(perMin),
		log:     log.With("component", "alpaca"),
	}
}

// FetchBars fetches daily bars for one symbol over [start, end].
func (p *AlpacaProvider) FetchBars(ctx context.Context, symbol string, start, end time.Time) ([]domain.Bar, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	symbol = strings.ToUpper(symbol)
	var alpacaBars []marketdata.Bar
	err := util.Retry(ctx, retryAttempts, retryBaseDelay, func() error {
		var err error
		alpacaBars, err = p.md.GetBars(symbol, marketdata.GetBarsRequest{
			TimeFrame: marketdata.OneDay,
			Start:     start,
			End:       end,
			Feed:      "sip",
		})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("GetBars %s: %w", symbol, err)
	}
	if len(alpacaBars) == 0 {
		return nil, fmt.Errorf("%w: no bars for %s in range", domain.ErrDataUnavailable, symbol)
	}

	bars := make([]domain.Bar, 0, len(alpacaBars))
	for _, ab := range alpacaBars {
		bars = append(bars, domain.Bar{
			Symbol:     symbol,
			Timestamp:  ab.Timestamp,
			Open:       ab.Open,
			High:       ab.High,
			Low:        ab.Low,
			Close:      ab.Close,
			Volume:     int64(ab.Volume),
			TradeCount: int64(ab.TradeCount),
			VWAP:       ab.VWAP,
		})
	}
	return bars, nil
}

// FetchMetadata returns the display name from the asset endpoint, enriched
// with catalog fundamentals when available. Failures degrade to whatever
// could be resolved; metadata is never a hard error.
func (p *AlpacaProvider) FetchMetadata(ctx context.Context, symbol string) (domain.Metadata, error) {
	symbol = strings.ToUpper(symbol)
	var meta domain.Metadata

	if p.catalog != nil {
		inst, err := p.catalog.GetInstrument(ctx, symbol)
		if err != nil {
			p.log.Warn("catalog lookup failed", "symbol", symbol, "error", err)
		} else if inst != nil {
			meta = inst.Meta
		}
	}

	if meta.DisplayName == "" {
		if err := p.limiter.Wait(ctx); err != nil {
			return meta, nil
		}
		asset, err := p.trading.GetAsset(symbol)
		if err != nil {
			p.log.Warn("asset lookup failed", "symbol", symbol, "error", err)
			return meta, nil
		}
		meta.DisplayName = asset.Name
	}
	return meta, nil
}
