// Package journal records every committed price into a local SQLite file so
// the detail chart has something to draw when the backend history call fails.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/glebarez/go-sqlite"
	"go.uber.org/zap"

	"github.com/five82/coindeck/internal/market"
)

// DefaultRetention is how long samples are kept when Options leaves it zero.
const DefaultRetention = 90 * 24 * time.Hour

// Point is one journaled price sample.
type Point struct {
	At         time.Time
	PriceUSD   float64
	PriceLocal float64
}

// Options tunes a Journal.
type Options struct {
	Retention time.Duration
	Logger    *zap.Logger
}

// Journal is a SQLite-backed price log.
type Journal struct {
	db        *sql.DB
	retention time.Duration
	logger    *zap.Logger
}

// Open opens or creates the journal at path.
func Open(path string, opts Options) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create journal dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("set pragma %s: %w", pragma, err)
		}
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS prices (
			asset_id TEXT NOT NULL,
			ts INTEGER NOT NULL,
			price_usd REAL NOT NULL,
			price_local REAL NOT NULL,
			PRIMARY KEY (asset_id, ts)
		);
	`)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create prices table: %w", err)
	}

	retention := opts.Retention
	if retention <= 0 {
		retention = DefaultRetention
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Journal{
		db:        db,
		retention: retention,
		logger:    logger.With(zap.String("component", "journal")),
	}, nil
}

// Record stores one sample per asset at time at and drops samples older than
// the retention window. It satisfies reconcile.Sink.
func (j *Journal) Record(ctx context.Context, assets []market.Asset, at time.Time) error {
	if len(assets) == 0 {
		return nil
	}
	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin journal tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		"INSERT OR REPLACE INTO prices (asset_id, ts, price_usd, price_local) VALUES (?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	ts := at.UnixMilli()
	for _, a := range assets {
		if _, err := stmt.ExecContext(ctx, a.ID, ts, a.PriceUSD, a.PriceLocal); err != nil {
			return fmt.Errorf("insert price %s: %w", a.ID, err)
		}
	}

	cutoff := at.Add(-j.retention).UnixMilli()
	res, err := tx.ExecContext(ctx, "DELETE FROM prices WHERE ts < ?", cutoff)
	if err != nil {
		return fmt.Errorf("prune prices: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit journal tx: %w", err)
	}

	pruned, _ := res.RowsAffected()
	j.logger.Debug("prices journaled", zap.Int("count", len(assets)), zap.Int64("pruned", pruned))
	return nil
}

// History returns the samples for id at or after since, oldest first.
func (j *Journal) History(ctx context.Context, id string, since time.Time) ([]Point, error) {
	rows, err := j.db.QueryContext(ctx,
		"SELECT ts, price_usd, price_local FROM prices WHERE asset_id = ? AND ts >= ? ORDER BY ts ASC",
		id, since.UnixMilli(),
	)
	if err != nil {
		return nil, fmt.Errorf("query prices: %w", err)
	}
	defer rows.Close()

	var points []Point
	for rows.Next() {
		var (
			ts    int64
			usd   float64
			local float64
		)
		if err := rows.Scan(&ts, &usd, &local); err != nil {
			return nil, fmt.Errorf("scan price: %w", err)
		}
		points = append(points, Point{At: time.UnixMilli(ts).UTC(), PriceUSD: usd, PriceLocal: local})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate prices: %w", err)
	}
	return points, nil
}

// Close closes the database.
func (j *Journal) Close() error {
	return j.db.Close()
}
