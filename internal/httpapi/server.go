package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"stockbench/internal/backtest"
	"stockbench/internal/config"
	"stockbench/internal/domain"
	"stockbench/internal/screen"
	"stockbench/internal/store"
	"stockbench/internal/strategy"
	"stockbench/internal/universe"
)

// Server routes REST requests to the backtester, screener, and suggester.
type Server struct {
	backtester *backtest.Backtester
	screener   *screen.Screener
	suggester  *universe.Suggester
	runs       store.RunStore // nil disables run history
	bars       store.BarStore // nil disables the archive screening universe
	defaults   config.BacktestConfig
	log        *slog.Logger
}

// NewServer creates a Server. runs and bars are optional; the corresponding
// endpoints degrade when they are nil. defaults fills initial cash and the
// strategy for backtest requests that omit them.
func NewServer(
	backtester *backtest.Backtester,
	screener *screen.Screener,
	suggester *universe.Suggester,
	runs store.RunStore,
	bars store.BarStore,
	defaults config.BacktestConfig,
	log *slog.Logger,
) *Server {
	return &Server{
		backtester: backtester,
		screener:   screener,
		suggester:  suggester,
		runs:       runs,
		bars:       bars,
		defaults:   defaults,
		log:        log.With("component", "httpapi"),
	}
}

// RegisterRoutes registers all API routes on the given mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /api/suggestions", s.handleSuggestions)
	mux.HandleFunc("GET /api/stock-info/{symbol}", s.handleStockInfo)
	mux.HandleFunc("POST /api/backtest", s.handleBacktest)
	mux.HandleFunc("POST /api/backtest/portfolio", s.handlePortfolio)
	mux.HandleFunc("POST /api/screen", s.handleScreen)
	mux.HandleFunc("POST /api/cache/clear", s.handleCacheClear)
	mux.HandleFunc("GET /api/runs", s.handleRuns)
}

// Handler returns an http.Handler with CORS middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	return corsMiddleware(mux)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encoding JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidConfig):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrDataUnavailable):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decoding request body: %w", err)
	}
	return nil
}

func parseDateRange(startDate, endDate string) (time.Time, time.Time, error) {
	start, err := time.Parse(dateLayout, startDate)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid startDate %q", startDate)
	}
	end, err := time.Parse(dateLayout, endDate)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid endDate %q", endDate)
	}
	return start, end, nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, StatusResponse{Status: "ok"})
}

func (s *Server) handleSuggestions(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	suggestions, err := s.suggester.Suggest(r.Context(), query)
	if err != nil {
		s.log.Warn("suggestion lookup failed", "query", query, "error", err)
		writeError(w, http.StatusInternalServerError, "suggestion lookup failed")
		return
	}
	if suggestions == nil {
		suggestions = []universe.Suggestion{}
	}
	writeJSON(w, SuggestionsResponse{Suggestions: suggestions})
}

func (s *Server) handleStockInfo(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(r.PathValue("symbol"))
	snap, err := s.screener.Snapshot(r.Context(), symbol)
	if err != nil {
		s.log.Warn("stock info failed", "symbol", symbol, "error", err)
		writeError(w, statusFor(err), fmt.Sprintf("stock info for %s unavailable", symbol))
		return
	}
	writeJSON(w, snap)
}

func (s *Server) handleBacktest(w http.ResponseWriter, r *http.Request) {
	var req BacktestRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	start, end, err := parseDateRange(req.StartDate, req.EndDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	req.InitialCash, req.Strategy = s.fillDefaults(req.InitialCash, req.Strategy)

	result, err := s.backtester.RunSingle(r.Context(), req.Symbol, start, end, req.Strategy, req.InitialCash)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	s.saveRun(r.Context(), "single", req.Symbol, req.Strategy.Kind, result)
	writeJSON(w, result)
}

func (s *Server) handlePortfolio(w http.ResponseWriter, r *http.Request) {
	var req PortfolioRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	start, end, err := parseDateRange(req.StartDate, req.EndDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	req.InitialCash, req.Strategy = s.fillDefaults(req.InitialCash, req.Strategy)

	allocs := make([]domain.Allocation, 0, len(req.Allocations))
	symbols := make([]string, 0, len(req.Allocations))
	for _, a := range req.Allocations {
		allocs = append(allocs, domain.Allocation{Symbol: a.Symbol, Percent: a.Percent})
		symbols = append(symbols, strings.ToUpper(a.Symbol))
	}

	result, err := s.backtester.RunPortfolio(r.Context(), allocs, start, end, req.Strategy, req.InitialCash)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	s.saveRun(r.Context(), "portfolio", strings.Join(symbols, ","), req.Strategy.Kind, &result.Result)
	writeJSON(w, result)
}

// fillDefaults substitutes the configured initial cash and strategy for
// request fields left unset.
func (s *Server) fillDefaults(cash float64, cfg strategy.Config) (float64, strategy.Config) {
	if cash == 0 {
		cash = s.defaults.InitialCash
	}
	if cfg.Kind == "" {
		cfg = s.defaults.Strategy
	}
	return cash, cfg
}

func (s *Server) handleScreen(w http.ResponseWriter, r *http.Request) {
	var req ScreenRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	symbols := req.Symbols
	if len(symbols) == 0 {
		if s.bars == nil {
			writeError(w, http.StatusBadRequest, "symbols required")
			return
		}
		var err error
		symbols, err = s.bars.ListSymbols(r.Context())
		if err != nil {
			s.log.Warn("listing archive symbols", "error", err)
			writeError(w, http.StatusInternalServerError, "listing archive symbols failed")
			return
		}
		if len(symbols) == 0 {
			writeError(w, http.StatusBadRequest, "symbols required: archive is empty")
			return
		}
	}

	results, err := s.screener.Run(r.Context(), symbols, req.Filters)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	if results == nil {
		results = []screen.Result{}
	}
	writeJSON(w, ScreenResponse{Count: len(results), Results: results})
}

func (s *Server) handleCacheClear(w http.ResponseWriter, r *http.Request) {
	s.screener.ClearCache()
	writeJSON(w, StatusResponse{Status: "cache cleared"})
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	if s.runs == nil {
		writeJSON(w, RunsResponse{Runs: []store.RunRecord{}})
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}
	runs, err := s.runs.ListRuns(r.Context(), limit)
	if err != nil {
		s.log.Warn("listing runs", "error", err)
		writeError(w, http.StatusInternalServerError, "listing runs failed")
		return
	}
	if runs == nil {
		runs = []store.RunRecord{}
	}
	writeJSON(w, RunsResponse{Runs: runs})
}

// saveRun records a completed backtest. Failures are logged, never surfaced;
// run history is best effort.
func (s *Server) saveRun(ctx context.Context, kind, symbols string, strategyKind strategy.Kind, result *backtest.Result) {
	if s.runs == nil {
		return
	}
	run := &store.RunRecord{
		Kind:        kind,
		Symbols:     strings.ToUpper(symbols),
		Strategy:    string(strategyKind),
		InitialCash: result.InitialValue,
		FinalValue:  result.FinalValue,
		ReturnPct:   result.TotalReturnPct,
		TotalTrades: result.TotalTrades,
		WinRate:     result.WinRate,
		MaxDrawdown: result.MaxDrawdown,
	}
	if _, err := s.runs.SaveRun(ctx, run); err != nil {
		s.log.Warn("saving run record", "kind", kind, "error", err)
	}
}
