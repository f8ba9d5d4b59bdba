package alert

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists alert records in PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Append inserts a new alert record and fills in its ID.
func (r *Repository) Append(ctx context.Context, rec *Record) error {
	query := `
		INSERT INTO alerts (user_id, ticker, score, message, sent_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	err := r.db.QueryRow(ctx, query,
		rec.UserID, rec.Ticker, rec.Score, rec.Message, rec.SentAt,
	).Scan(&rec.ID)
	if err != nil {
		return fmt.Errorf("failed to insert alert record: %w", err)
	}

	return nil
}

// LatestFor returns the most recent alert sent to the user for the
// ticker, or nil when the user has never been alerted about it.
func (r *Repository) LatestFor(ctx context.Context, userID int64, ticker string) (*Record, error) {
	query := `
		SELECT id, user_id, ticker, score, message, sent_at
		FROM alerts
		WHERE user_id = $1 AND ticker = $2
		ORDER BY sent_at DESC
		LIMIT 1
	`

	rec := &Record{}
	err := r.db.QueryRow(ctx, query, userID, ticker).Scan(
		&rec.ID, &rec.UserID, &rec.Ticker, &rec.Score, &rec.Message, &rec.SentAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query latest alert: %w", err)
	}

	return rec, nil
}

// SentOn lists the tickers the user was alerted about on the given
// calendar day. Day boundaries follow the timestamps stored in sent_at.
func (r *Repository) SentOn(ctx context.Context, userID int64, dayStart, dayEnd time.Time) ([]string, error) {
	query := `
		SELECT DISTINCT ticker
		FROM alerts
		WHERE user_id = $1 AND sent_at >= $2 AND sent_at < $3
	`

	rows, err := r.db.Query(ctx, query, userID, dayStart, dayEnd)
	if err != nil {
		return nil, fmt.Errorf("failed to query alerts for day: %w", err)
	}
	defer rows.Close()

	var tickers []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("failed to scan alert ticker: %w", err)
		}
		tickers = append(tickers, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate alert tickers: %w", err)
	}

	return tickers, nil
}
