package stockbench

import "time"

// Strategy kinds accepted by the API.
const (
	KindRSI         = "rsi"
	KindMACD        = "macd"
	KindVolumeSpike = "volume-spike"
)

// RSIParams tunes the RSI threshold strategy.
type RSIParams struct {
	Period        int     `json:"period"`
	BuyThreshold  float64 `json:"buyThreshold"`
	SellThreshold float64 `json:"sellThreshold"`
}

// MACDParams tunes the MACD crossover strategy.
type MACDParams struct {
	FastPeriod   int `json:"fastPeriod"`
	SlowPeriod   int `json:"slowPeriod"`
	SignalPeriod int `json:"signalPeriod"`
}

// VolumeSpikeParams tunes the volume spike strategy.
type VolumeSpikeParams struct {
	Multiplier float64 `json:"multiplier"`
	Lookback   int     `json:"lookback"`
	HoldBars   int     `json:"holdBars"`
}

// StrategyConfig selects a strategy kind and its parameters. Zero-valued
// parameters take the server's documented defaults; an empty Kind takes the
// server's configured default strategy.
type StrategyConfig struct {
	Kind        string            `json:"kind"`
	RSI         RSIParams         `json:"rsi"`
	MACD        MACDParams        `json:"macd"`
	VolumeSpike VolumeSpikeParams `json:"volumeSpike"`
}

// BacktestRequest is the body of POST /api/backtest. InitialCash and
// Strategy may be left zero to use the server's defaults.
type BacktestRequest struct {
	Symbol      string         `json:"symbol"`
	StartDate   string         `json:"startDate"` // YYYY-MM-DD
	EndDate     string         `json:"endDate"`   // YYYY-MM-DD
	InitialCash float64        `json:"initialCash"`
	Strategy    StrategyConfig `json:"strategy"`
}

// Allocation is one target weight inside a portfolio request.
type Allocation struct {
	Symbol  string  `json:"symbol"`
	Percent float64 `json:"percent"`
}

// PortfolioRequest is the body of POST /api/backtest/portfolio.
type PortfolioRequest struct {
	Allocations []Allocation   `json:"allocations"`
	StartDate   string         `json:"startDate"`
	EndDate     string         `json:"endDate"`
	InitialCash float64        `json:"initialCash"`
	Strategy    StrategyConfig `json:"strategy"`
}

// BacktestResult is the aggregate outcome of a single-instrument backtest.
type BacktestResult struct {
	Symbol         string  `json:"symbol,omitempty"`
	InitialValue   float64 `json:"initialValue"`
	FinalValue     float64 `json:"finalValue"`
	TotalReturn    float64 `json:"totalReturn"`
	TotalReturnPct float64 `json:"totalReturnPct"`
	TotalTrades    int     `json:"totalTrades"`
	WinningTrades  int     `json:"winningTrades"`
	LosingTrades   int     `json:"losingTrades"`
	WinRate        float64 `json:"winRate"`
	MaxDrawdown    float64 `json:"maxDrawdown"`
}

// InstrumentPerformance reports per-instrument trade counters inside a
// portfolio result.
type InstrumentPerformance struct {
	Symbol        string  `json:"symbol"`
	TotalTrades   int     `json:"totalTrades"`
	WinningTrades int     `json:"winningTrades"`
	LosingTrades  int     `json:"losingTrades"`
	WinRate       float64 `json:"winRate"`
}

// CompositionEntry reports the final holding of one instrument against its
// target allocation.
type CompositionEntry struct {
	Symbol      string  `json:"symbol"`
	Qty         int64   `json:"qty"`
	MarketValue float64 `json:"marketValue"`
	TargetPct   float64 `json:"targetPct"`
	ActualPct   float64 `json:"actualPct"`
}

// PortfolioResult extends BacktestResult with per-instrument breakdowns.
type PortfolioResult struct {
	BacktestResult
	Performance []InstrumentPerformance `json:"performance"`
	Composition []CompositionEntry      `json:"composition"`
}

// FilterSpec toggles screening predicates. For ranged filters a zero
// maximum means unbounded.
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
	MACDPositive bool `json:"macdPositive"`

	VWAPEnabled    bool `json:"vwapEnabled"`
	PriceAboveVWAP bool `json:"priceAboveVwap"`
}

// ScreenRequest is the body of POST /api/screen. Empty Symbols screens the
// server's full bar archive.
type ScreenRequest struct {
	Symbols []string   `json:"symbols"`
	Filters FilterSpec `json:"filters"`
}

// ScreenResult is one instrument that survived a screening run.
type ScreenResult struct {
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

// Suggestion is one symbol search hit.
type Suggestion struct {
	Symbol      string `json:"symbol"`
	CompanyName string `json:"companyName"`
	MatchType   string `json:"matchType"` // "symbol" or "company"
}

// StockInfo is the full indicator snapshot for one symbol.
type StockInfo struct {
	Symbol      string  `json:"symbol"`
	CompanyName string  `json:"companyName"`
	Sector      string  `json:"sector"`
	Price       float64 `json:"price"`
	Change      float64 `json:"change"`
	ChangePct   float64 `json:"changePct"`
	Volume      int64   `json:"volume"`
	MarketCap   float64 `json:"marketCap"`
	TrailingPE  float64 `json:"trailingPe"`

	SupportLevel    float64 `json:"supportLevel"`
	ResistanceLevel float64 `json:"resistanceLevel"`
	RSI             float64 `json:"rsi"`
	MACD            float64 `json:"macd"`
	StochasticK     float64 `json:"stochasticK"`
	StochasticD     float64 `json:"stochasticD"`
	Fib236          float64 `json:"fib236"`
	Fib382          float64 `json:"fib382"`
	Fib500          float64 `json:"fib500"`
	Fib618          float64 `json:"fib618"`
}

// RunRecord is one recorded backtest run.
type RunRecord struct {
	ID          int64     `json:"id"`
	CreatedAt   time.Time `json:"createdAt"`
	Kind        string    `json:"kind"` // "single" or "portfolio"
	Symbols     string    `json:"symbols"`
	Strategy    string    `json:"strategy"`
	InitialCash float64   `json:"initialCash"`
	FinalValue  float64   `json:"finalValue"`
	ReturnPct   float64   `json:"returnPct"`
	TotalTrades int       `json:"totalTrades"`
	WinRate     float64   `json:"winRate"`
	MaxDrawdown float64   `json:"maxDrawdown"`
}

// Response envelopes used by the server.
type statusResponse struct {
	Status string `json:"status"`
}

type suggestionsResponse struct {
	Suggestions []Suggestion `json:"suggestions"`
}

type screenResponse struct {
	Count   int            `json:"count"`
	Results []ScreenResult `json:"results"`
}

type runsResponse struct {
	Runs []RunRecord `json:"runs"`
}
