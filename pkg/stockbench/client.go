// Package stockbench provides a Go client for the stockbench-server REST
// API. All request and response types are defined in this package so the
// client is usable from other modules.
package stockbench

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client calls the stockbench-server API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for the server at baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Health checks server liveness.
func (c *Client) Health(ctx context.Context) error {
	var resp statusResponse
	return c.get(ctx, "/health", nil, &resp)
}

// Suggestions returns symbol suggestions for a partial query.
func (c *Client) Suggestions(ctx context.Context, query string) ([]Suggestion, error) {
	var resp suggestionsResponse
	q := url.Values{"q": {query}}
	if err := c.get(ctx, "/api/suggestions", q, &resp); err != nil {
		return nil, err
	}
	return resp.Suggestions, nil
}

// StockInfo returns the full indicator snapshot for one symbol.
func (c *Client) StockInfo(ctx context.Context, symbol string) (*StockInfo, error) {
	var resp StockInfo
	path := "/api/stock-info/" + url.PathEscape(strings.ToUpper(symbol))
	if err := c.get(ctx, path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Backtest runs a single-instrument backtest.
func (c *Client) Backtest(ctx context.Context, req BacktestRequest) (*BacktestResult, error) {
	var resp BacktestResult
	if err := c.post(ctx, "/api/backtest", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// PortfolioBacktest runs a multi-instrument backtest.
func (c *Client) PortfolioBacktest(ctx context.Context, req PortfolioRequest) (*PortfolioResult, error) {
	var resp PortfolioResult
	if err := c.post(ctx, "/api/backtest/portfolio", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Screen filters a symbol universe.
func (c *Client) Screen(ctx context.Context, req ScreenRequest) ([]ScreenResult, error) {
	var resp screenResponse
	if err := c.post(ctx, "/api/screen", req, &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

// ClearCache drops the server's screening cache.
func (c *Client) ClearCache(ctx context.Context) error {
	var resp statusResponse
	return c.post(ctx, "/api/cache/clear", struct{}{}, &resp)
}

// Runs returns recent backtest run records, newest first.
func (c *Client) Runs(ctx context.Context, limit int) ([]RunRecord, error) {
	var resp runsResponse
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", fmt.Sprint(limit))
	}
	if err := c.get(ctx, "/api/runs", q, &resp); err != nil {
		return nil, err
	}
	return resp.Runs, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	buf, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(buf))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return apiError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// apiError extracts the server's {"error": "..."} body when present.
func apiError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var e struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &e) == nil && e.Error != "" {
		return fmt.Errorf("%s: %s", resp.Status, e.Error)
	}
	return fmt.Errorf("unexpected status %s", resp.Status)
}
