package market

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists instrument snapshots in PostgreSQL, one row per
// ticker, upserted on refresh and never deleted while tracked.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new Repository instance.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

const snapshotColumns = `
	ticker,
	company_name,
	sector,
	industry,
	last_price,
	weekly_change,
	high_52w,
	low_52w,
	pe_ratio,
	pb_ratio,
	roe,
	debt_to_equity,
	profit_margin,
	last_refreshed
`

// Get returns the snapshot for a ticker, or (nil, nil) when absent.
func (r *Repository) Get(ctx context.Context, ticker string) (*Snapshot, error) {
	query := `SELECT ` + snapshotColumns + `
		FROM instrument_snapshots
		WHERE ticker = $1`

	snap, err := scanSnapshot(r.db.QueryRow(ctx, query, ticker))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("query snapshot %s: %w", ticker, err)
	}

	return snap, nil
}

// GetByTickers returns snapshots keyed by ticker. Unknown tickers are
// simply absent from the result.
func (r *Repository) GetByTickers(ctx context.Context, tickers []string) (map[string]*Snapshot, error) {
	query := `SELECT ` + snapshotColumns + `
		FROM instrument_snapshots
		WHERE ticker = ANY($1)`

	rows, err := r.db.Query(ctx, query, tickers)
	if err != nil {
		return nil, fmt.Errorf("query snapshots: %w", err)
	}
	defer rows.Close()

	snapshots := make(map[string]*Snapshot, len(tickers))
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		snapshots[snap.Ticker] = snap
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshots: %w", err)
	}

	return snapshots, nil
}

// Upsert creates or updates the snapshot row for snapshot.Ticker.
// GREATEST keeps last_refreshed monotonically non-decreasing even if a
// delayed write lands after a newer one.
func (r *Repository) Upsert(ctx context.Context, s *Snapshot) error {
	query := `
		INSERT INTO instrument_snapshots (` + snapshotColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (ticker) DO UPDATE SET
			company_name   = EXCLUDED.company_name,
			sector         = EXCLUDED.sector,
			industry       = EXCLUDED.industry,
			last_price     = EXCLUDED.last_price,
			weekly_change  = EXCLUDED.weekly_change,
			high_52w       = EXCLUDED.high_52w,
			low_52w        = EXCLUDED.low_52w,
			pe_ratio       = EXCLUDED.pe_ratio,
			pb_ratio       = EXCLUDED.pb_ratio,
			roe            = EXCLUDED.roe,
			debt_to_equity = EXCLUDED.debt_to_equity,
			profit_margin  = EXCLUDED.profit_margin,
			last_refreshed = GREATEST(EXCLUDED.last_refreshed, instrument_snapshots.last_refreshed)
	`

	_, err := r.db.Exec(ctx, query,
		s.Ticker,
		s.CompanyName,
		s.Sector,
		s.Industry,
		s.LastPrice,
		s.WeeklyChange,
		s.High52W,
		s.Low52W,
		s.PERatio,
		s.PBRatio,
		s.ROE,
		s.DebtToEquity,
		s.ProfitMargin,
		s.LastRefreshed,
	)
	if err != nil {
		return fmt.Errorf("upsert snapshot %s: %w", s.Ticker, err)
	}

	return nil
}

func scanSnapshot(row pgx.Row) (*Snapshot, error) {
	snap := &Snapshot{}
	err := row.Scan(
		&snap.Ticker,
		&snap.CompanyName,
		&snap.Sector,
		&snap.Industry,
		&snap.LastPrice,
		&snap.WeeklyChange,
		&snap.High52W,
		&snap.Low52W,
		&snap.PERatio,
		&snap.PBRatio,
		&snap.ROE,
		&snap.DebtToEquity,
		&snap.ProfitMargin,
		&snap.LastRefreshed,
	)
	if err != nil {
		return nil, err
	}
	return snap, nil
}
