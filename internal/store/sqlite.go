package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"stockbench/internal/domain"
	"stockbench/internal/universe"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.
)

// Compile-time interface checks.
var _ InstrumentStore = (*SQLiteStore)(nil)
var _ RunStore = (*SQLiteStore)(nil)
var _ universe.Catalog = (*SQLiteStore)(nil)

// SQLiteStore implements InstrumentStore and RunStore backed by a SQLite
// database.
type SQLiteStore struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS instruments (
	symbol      TEXT PRIMARY KEY,
	name        TEXT NOT NULL DEFAULT '',
	sector      TEXT NOT NULL DEFAULT '',
	market_cap  REAL NOT NULL DEFAULT 0,
	trailing_pe REAL NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS runs (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	created_at   INTEGER NOT NULL,
	kind         TEXT NOT NULL,
	symbols      TEXT NOT NULL,
	strategy     TEXT NOT NULL,
	initial_cash REAL NOT NULL,
	final_value  REAL NOT NULL,
	return_pct   REAL NOT NULL,
	total_trades INTEGER NOT NULL,
	win_rate     REAL NOT NULL,
	max_drawdown REAL NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at DESC);
`

// NewSQLiteStore opens (or creates) a SQLite database at dbPath, applies the
// schema, and returns a ready-to-use SQLiteStore.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ---------------------------------------------------------------------------
// InstrumentStore implementation
// ---------------------------------------------------------------------------

// UpsertInstruments inserts or replaces catalog rows in one transaction.
func (s *SQLiteStore) UpsertInstruments(ctx context.Context, instruments []domain.Instrument) error {
	if len(instruments) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO instruments (symbol, name, sector, market_cap, trailing_pe)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(symbol) DO UPDATE SET
			name = excluded.name,
			sector = excluded.sector,
			market_cap = excluded.market_cap,
			trailing_pe = excluded.trailing_pe`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, inst := range instruments {
		sym := strings.ToUpper(strings.TrimSpace(inst.Symbol))
		if sym == "" {
			continue
		}
		if _, err := stmt.ExecContext(ctx, sym, inst.Meta.DisplayName, inst.Meta.Sector,
			inst.Meta.MarketCap, inst.Meta.TrailingPE); err != nil {
			return fmt.Errorf("upserting %s: %w", sym, err)
		}
	}
	return tx.Commit()
}

// GetInstrument retrieves one catalog row, or nil if the symbol is unknown.
func (s *SQLiteStore) GetInstrument(ctx context.Context, symbol string) (*domain.Instrument, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT symbol, name, sector, market_cap, trailing_pe
		FROM instruments WHERE symbol = ?`, strings.ToUpper(symbol))

	var inst domain.Instrument
	err := row.Scan(&inst.Symbol, &inst.Meta.DisplayName, &inst.Meta.Sector,
		&inst.Meta.MarketCap, &inst.Meta.TrailingPE)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &inst, nil
}

// SearchInstruments returns catalog rows whose symbol or name matches the
// query, symbol prefix matches first.
func (s *SQLiteStore) SearchInstruments(ctx context.Context, query string, limit int) ([]universe.Suggestion, error) {
	if limit <= 0 {
		return nil, nil
	}
	q := strings.ToUpper(strings.TrimSpace(query))
	if q == "" {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT symbol, name,
			CASE WHEN symbol LIKE ? THEN 0 ELSE 1 END AS rank
		FROM instruments
		WHERE symbol LIKE ? OR name LIKE ?
		ORDER BY rank, symbol
		LIMIT ?`,
		q+"%", q+"%", "%"+query+"%", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []universe.Suggestion
	for rows.Next() {
		var sug universe.Suggestion
		var rank int
		if err := rows.Scan(&sug.Symbol, &sug.CompanyName, &rank); err != nil {
			return nil, err
		}
		if rank == 0 {
			sug.MatchType = universe.MatchSymbol
		} else {
			sug.MatchType = universe.MatchCompany
		}
		out = append(out, sug)
	}
	return out, rows.Err()
}

// ---------------------------------------------------------------------------
// RunStore implementation
// ---------------------------------------------------------------------------

// SaveRun appends one run record and returns its assigned ID.
func (s *SQLiteStore) SaveRun(ctx context.Context, run *RunRecord) (int64, error) {
	createdAt := run.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (created_at, kind, symbols, strategy, initial_cash,
			final_value, return_pct, total_trades, win_rate, max_drawdown)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		createdAt.UnixMilli(), run.Kind, run.Symbols, run.Strategy, run.InitialCash,
		run.FinalValue, run.ReturnPct, run.TotalTrades, run.WinRate, run.MaxDrawdown)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	run.ID = id
	run.CreatedAt = createdAt
	return id, nil
}

// ListRuns returns the most recent runs, newest first, up to limit.
func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, created_at, kind, symbols, strategy, initial_cash,
			final_value, return_pct, total_trades, win_rate, max_drawdown
		FROM runs ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		var r RunRecord
		var createdMs int64
		if err := rows.Scan(&r.ID, &createdMs, &r.Kind, &r.Symbols, &r.Strategy,
			&r.InitialCash, &r.FinalValue, &r.ReturnPct, &r.TotalTrades,
			&r.WinRate, &r.MaxDrawdown); err != nil {
			return nil, err
		}
		r.CreatedAt = time.UnixMilli(createdMs)
		out = append(out, r)
	}
	return out, rows.Err()
}
