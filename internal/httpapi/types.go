// Package httpapi provides the HTTP REST API for the stockbench server,
// exposing backtesting, screening, and stock lookup endpoints in JSON.
package httpapi

import (
	"stockbench/internal/screen"
	"stockbench/internal/store"
	"stockbench/internal/strategy"
	"stockbench/internal/universe"
)

// dateLayout is the wire format for request dates.
const dateLayout = "2006-01-02"

// BacktestRequest is the body of POST /api/backtest.
type BacktestRequest struct {
	Symbol      string          `json:"symbol"`
	StartDate   string          `json:"startDate"`
	EndDate     string          `json:"endDate"`
	InitialCash float64         `json:"initialCash"`
	Strategy    strategy.Config `json:"strategy"`
}

// AllocationJSON is one target weight inside a portfolio request.
type AllocationJSON struct {
	Symbol  string  `json:"symbol"`
	Percent float64 `json:"percent"`
}

// PortfolioRequest is the body of POST /api/backtest/portfolio.
type PortfolioRequest struct {
	Allocations []AllocationJSON `json:"allocations"`
	StartDate   string           `json:"startDate"`
	EndDate     string           `json:"endDate"`
	InitialCash float64          `json:"initialCash"`
	Strategy    strategy.Config  `json:"strategy"`
}

// ScreenRequest is the body of POST /api/screen. Symbols may be empty, in
// which case the server screens every symbol in the local bar archive.
type ScreenRequest struct {
	Symbols []string          `json:"symbols"`
	Filters screen.FilterSpec `json:"filters"`
}

// ScreenResponse wraps the matched screening rows.
type ScreenResponse struct {
	Count   int             `json:"count"`
	Results []screen.Result `json:"results"`
}

// SuggestionsResponse wraps symbol search suggestions.
type SuggestionsResponse struct {
	Suggestions []universe.Suggestion `json:"suggestions"`
}

// RunsResponse wraps the recorded backtest run history.
type RunsResponse struct {
	Runs []store.RunRecord `json:"runs"`
}

// StatusResponse is the body of simple acknowledgement endpoints.
type StatusResponse struct {
	Status string `json:"status"`
}
