package universe

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"stockbench/internal/domain"
)

// LoadInstrumentsCSV reads an instrument catalog CSV with the columns
// symbol,name,sector,market_cap,trailing_pe. A header row is detected and
// skipped; market_cap and trailing_pe may be empty. Rows without a symbol
// are skipped.
func LoadInstrumentsCSV(path string) ([]domain.Instrument, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening catalog csv: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	var out []domain.Instrument
	first := true
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading catalog csv: %w", err)
		}
		if first {
			first = false
			if strings.EqualFold(strings.TrimSpace(rec[0]), "symbol") {
				continue
			}
		}
		inst, ok := parseInstrumentRow(rec)
		if ok {
			out = append(out, inst)
		}
	}
	return out, nil
}

func parseInstrumentRow(rec []string) (domain.Instrument, bool) {
	get := func(i int) string {
		if i < len(rec) {
			return strings.TrimSpace(rec[i])
		}
		return ""
	}

	symbol := strings.ToUpper(get(0))
	if symbol == "" {
		return domain.Instrument{}, false
	}

	inst := domain.Instrument{
		Symbol: symbol,
		Meta: domain.Metadata{
			DisplayName: get(1),
			Sector:      get(2),
		},
	}
	if v, err := strconv.ParseFloat(get(3), 64); err == nil {
		inst.Meta.MarketCap = v
	}
	if v, err := strconv.ParseFloat(get(4), 64); err == nil {
		inst.Meta.TrailingPE = v
	}
	return inst, true
}
