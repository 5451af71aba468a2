// Package universe maintains the known-symbol surface: a built-in table of
// popular symbols for instant suggestions, optionally backed by the SQLite
// instrument catalog for the long tail.
package universe

import (
	"context"
	"sort"
	"strings"
)

// MatchType says how a suggestion matched the query.
const (
	MatchSymbol  = "symbol"
	MatchCompany = "company"
)

// Suggestion is one symbol suggestion for a search query.
type Suggestion struct {
	Symbol      string `json:"symbol"`
	CompanyName string `json:"companyName"`
	MatchType   string `json:"matchType"`
}

// Catalog is the lookup surface the suggester needs from persistent storage.
// A nil Catalog limits suggestions to the built-in table.
type Catalog interface {
	SearchInstruments(ctx context.Context, query string, limit int) ([]Suggestion, error)
}

// DefaultLimit caps the number of returned suggestions.
const DefaultLimit = 10

// popular holds widely traded US symbols, checked before the catalog so the
// common case never touches storage.
var popular = map[string]string{
	"AAPL":  "Apple Inc.",
	"MSFT":  "Microsoft Corporation",
	"GOOGL": "Alphabet Inc. Class A",
	"GOOG":  "Alphabet Inc. Class C",
	"AMZN":  "Amazon.com Inc.",
	"TSLA":  "Tesla Inc.",
	"META":  "Meta Platforms Inc.",
	"NVDA":  "NVIDIA Corporation",
	"NFLX":  "Netflix Inc.",
	"AMD":   "Advanced Micro Devices Inc.",
	"INTC":  "Intel Corporation",
	"CRM":   "Salesforce Inc.",
	"ORCL":  "Oracle Corporation",
	"ADBE":  "Adobe Inc.",
	"JPM":   "JPMorgan Chase & Co.",
	"BAC":   "Bank of America Corporation",
	"WFC":   "Wells Fargo & Company",
	"GS":    "The Goldman Sachs Group Inc.",
	"V":     "Visa Inc.",
	"MA":    "Mastercard Incorporated",
	"JNJ":   "Johnson & Johnson",
	"PFE":   "Pfizer Inc.",
	"UNH":   "UnitedHealth Group Incorporated",
	"WMT":   "Walmart Inc.",
	"HD":    "The Home Depot Inc.",
	"PG":    "The Procter & Gamble Company",
	"KO":    "The Coca-Cola Company",
	"PEP":   "PepsiCo Inc.",
	"DIS":   "The Walt Disney Company",
	"XOM":   "Exxon Mobil Corporation",
	"CVX":   "Chevron Corporation",
	"BA":    "The Boeing Company",
}

// Suggester ranks symbol suggestions: exact symbol match first, symbol
// prefix matches next, company-name substring matches last.
type Suggester struct {
	catalog Catalog
}

// NewSuggester creates a Suggester. catalog may be nil.
func NewSuggester(catalog Catalog) *Suggester {
	return &Suggester{catalog: catalog}
}

// Suggest returns up to DefaultLimit suggestions for query.
func (s *Suggester) Suggest(ctx context.Context, query string) ([]Suggestion, error) {
	upper := strings.ToUpper(strings.TrimSpace(query))
	lower := strings.ToLower(strings.TrimSpace(query))
	if upper == "" {
		return nil, nil
	}

	var out []Suggestion
	seen := make(map[string]bool)
	add := func(sym, name, match string) {
		if !seen[sym] {
			seen[sym] = true
			out = append(out, Suggestion{Symbol: sym, CompanyName: name, MatchType: match})
		}
	}

	if name, ok := popular[upper]; ok {
		add(upper, name, MatchSymbol)
	}
	for _, sym := range sortedPopular() {
		if sym != upper && strings.HasPrefix(sym, upper) {
			add(sym, popular[sym], MatchSymbol)
		}
	}
	for _, sym := range sortedPopular() {
		if strings.Contains(strings.ToLower(popular[sym]), lower) {
			add(sym, popular[sym], MatchCompany)
		}
	}

	if len(out) < DefaultLimit && s.catalog != nil {
		rest, err := s.catalog.SearchInstruments(ctx, upper, DefaultLimit-len(out))
		if err != nil {
			return nil, err
		}
		for _, sug := range rest {
			add(sug.Symbol, sug.CompanyName, sug.MatchType)
		}
	}

	if len(out) > DefaultLimit {
		out = out[:DefaultLimit]
	}
	return out, nil
}

// sortedPopular returns the popular symbols in stable order so suggestion
// ranking is deterministic across runs.
func sortedPopular() []string {
	syms := make([]string, 0, len(popular))
	for sym := range popular {
		syms = append(syms, sym)
	}
	sort.Strings(syms)
	return syms
}
