package storage

// sqlite.go — log de intentos de ejecución.
//
// Una fila por TradeOutcome, append-only: los outcomes son inmutables y el
// volumen es mínimo (decenas por sesión), así que no hay cache ni upserts.
// Las estadísticas se agregan con SQL al pedirlas.

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/alejandrodnm/polysniper/internal/domain"
	"github.com/alejandrodnm/polysniper/internal/ports"
)

const schema = `
CREATE TABLE IF NOT EXISTS trades (
    id            TEXT PRIMARY KEY,
    kind          TEXT     NOT NULL,
    asset         TEXT     NOT NULL,
    slug          TEXT     NOT NULL,
    interval_secs INTEGER  NOT NULL,
    window_start  DATETIME NOT NULL,
    question      TEXT,
    side          TEXT     NOT NULL,
    target_price  REAL     NOT NULL DEFAULT 0,
    price         REAL     NOT NULL DEFAULT 0,
    shares        REAL     NOT NULL DEFAULT 0,
    cost          REAL     NOT NULL DEFAULT 0,
    order_id      TEXT,
    gate_detail   TEXT,
    unchecked     INTEGER  NOT NULL DEFAULT 0,
    at            DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_trades_at   ON trades(at DESC);
CREATE INDEX IF NOT EXISTS idx_trades_slug ON trades(slug);
`

// SQLiteStorage implementa ports.TradeStorage usando SQLite (pure Go, sin CGo).
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage abre (o crea) la base de datos en la ruta dada y aplica
// el schema.
func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteStorage: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite es single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteStorage: apply schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

// SaveOutcome persiste un intento de ejecución.
func (s *SQLiteStorage) SaveOutcome(ctx context.Context, o domain.TradeOutcome) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO trades
			(id, kind, asset, slug, interval_secs, window_start, question,
			 side, target_price, price, shares, cost, order_id, gate_detail, unchecked, at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		o.ID, string(o.Kind),
		o.Market.Window.Asset, o.Market.Window.Slug(),
		int(o.Market.Window.Interval.Seconds()), o.Market.Window.Start.UTC(),
		o.Market.Question,
		string(o.Side), o.TargetPrice, o.Price, o.Shares, o.Cost,
		o.OrderID, o.GateDetail, boolToInt(o.Unchecked), o.At.UTC(),
	)
	if err != nil {
		return fmt.Errorf("storage.SaveOutcome %s: %w", o.ID, err)
	}
	return nil
}

// GetOutcomes devuelve los intentos del rango dado, más recientes primero.
func (s *SQLiteStorage) GetOutcomes(ctx context.Context, from, to time.Time) ([]domain.TradeOutcome, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, kind, asset, interval_secs, window_start, question,
		       side, target_price, price, shares, cost, order_id, gate_detail, unchecked, at
		FROM trades
		WHERE at >= ? AND at <= ?
		ORDER BY at DESC`,
		from.UTC(), to.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("storage.GetOutcomes: query: %w", err)
	}
	defer rows.Close()

	var outcomes []domain.TradeOutcome
	for rows.Next() {
		var (
			o            domain.TradeOutcome
			kind, side   string
			asset        string
			intervalSecs int
			windowStart  time.Time
			question     string
			unchecked    int
		)
		if err := rows.Scan(&o.ID, &kind, &asset, &intervalSecs, &windowStart, &question,
			&side, &o.TargetPrice, &o.Price, &o.Shares, &o.Cost,
			&o.OrderID, &o.GateDetail, &unchecked, &o.At); err != nil {
			return nil, fmt.Errorf("storage.GetOutcomes: scan: %w", err)
		}
		o.Kind = domain.OutcomeKind(kind)
		o.Side = domain.Side(side)
		o.Unchecked = unchecked != 0
		o.Market = domain.Market{
			Window: domain.Window{
				Asset:    asset,
				Interval: time.Duration(intervalSecs) * time.Second,
				Start:    windowStart.UTC(),
			},
			Question: question,
		}
		outcomes = append(outcomes, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage.GetOutcomes: rows: %w", err)
	}
	return outcomes, nil
}

// GetStats agrega las métricas de todos los intentos persistidos.
func (s *SQLiteStorage) GetStats(ctx context.Context) (ports.SessionStats, error) {
	var (
		stats    ports.SessionStats
		first    sql.NullTime
		last     sql.NullTime
		totalUSD sql.NullFloat64
	)

	err := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN kind = ? THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN kind IN (?, ?) THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN kind IN (?, ?) THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN kind = ? THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN kind = ? AND unchecked = 1 THEN 1 ELSE 0 END), 0),
			SUM(CASE WHEN kind = ? THEN cost ELSE 0 END),
			MIN(at), MAX(at)
		FROM trades`,
		string(domain.OutcomeFilled),
		string(domain.OutcomeBlockedBuffer), string(domain.OutcomeBlockedMomentum),
		string(domain.OutcomeRejectedSize), string(domain.OutcomeRejectedExposure),
		string(domain.OutcomeOrderFailed),
		string(domain.OutcomeFilled),
		string(domain.OutcomeFilled),
	).Scan(&stats.Attempts, &stats.Fills, &stats.GateBlocks, &stats.Rejections,
		&stats.OrderFails, &stats.Unchecked, &totalUSD, &first, &last)
	if err != nil {
		return ports.SessionStats{}, fmt.Errorf("storage.GetStats: %w", err)
	}

	stats.TotalCost = totalUSD.Float64
	if first.Valid {
		stats.FirstAttempt = first.Time.UTC()
	}
	if last.Valid {
		stats.LastAttempt = last.Time.UTC()
	}
	return stats, nil
}

// Close cierra la conexión.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
