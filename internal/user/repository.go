package user

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists users, preferences and watchlists in PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new Repository instance.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Create inserts a new user and seeds their preferences from the preset.
func (r *Repository) Create(ctx context.Context, phoneNumber string, email *string) (*User, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	u := &User{
		PhoneNumber: phoneNumber,
		Email:       email,
		CreatedAt:   time.Now(),
		IsActive:    true,
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO users (phone_number, email, created_at, is_active, onboarding_complete)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, u.PhoneNumber, u.Email, u.CreatedAt, u.IsActive, u.OnboardingComplete).Scan(&u.ID)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}

	prefs := DefaultPreferences()
	prefs.UserID = u.ID
	if err := upsertPreferences(ctx, tx, &prefs); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit user create: %w", err)
	}

	return u, nil
}

// GetByPhone looks up a user by phone number, or (nil, nil) when unknown.
func (r *Repository) GetByPhone(ctx context.Context, phoneNumber string) (*User, error) {
	u := &User{}
	err := r.db.QueryRow(ctx, `
		SELECT id, phone_number, email, created_at, is_active, onboarding_complete
		FROM users
		WHERE phone_number = $1
	`, phoneNumber).Scan(&u.ID, &u.PhoneNumber, &u.Email, &u.CreatedAt, &u.IsActive, &u.OnboardingComplete)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("query user by phone: %w", err)
	}
	return u, nil
}

// GetPreferences returns the preferences for a user.
func (r *Repository) GetPreferences(ctx context.Context, userID int64) (*Preferences, error) {
	row := r.db.QueryRow(ctx, `
		SELECT user_id, alert_frequency, favorite_industries, is_paused,
		       investment_types, min_drop_threshold, max_pe, max_debt_equity,
		       min_roe, prefer_stocks_over_etfs, etf_min_drop
		FROM user_preferences
		WHERE user_id = $1
	`, userID)

	prefs, err := scanPreferences(row)
	if err != nil {
		return nil, fmt.Errorf("query preferences for user %d: %w", userID, err)
	}
	return prefs, nil
}

// SavePreferences persists edits to a user's thresholds and settings.
func (r *Repository) SavePreferences(ctx context.Context, prefs *Preferences) error {
	return upsertPreferences(ctx, r.db, prefs)
}

// execer is satisfied by both *pgxpool.Pool and pgx.Tx.
type execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

func upsertPreferences(ctx context.Context, db execer, prefs *Preferences) error {
	industriesJSON, err := json.Marshal(prefs.FavoriteIndustries)
	if err != nil {
		return fmt.Errorf("marshal industries: %w", err)
	}
	typesJSON, err := json.Marshal(prefs.InvestmentTypes)
	if err != nil {
		return fmt.Errorf("marshal investment types: %w", err)
	}

	_, err = db.Exec(ctx, `
		INSERT INTO user_preferences (
			user_id, alert_frequency, favorite_industries, is_paused,
			investment_types, min_drop_threshold, max_pe, max_debt_equity,
			min_roe, prefer_stocks_over_etfs, etf_min_drop
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (user_id) DO UPDATE SET
			alert_frequency         = EXCLUDED.alert_frequency,
			favorite_industries     = EXCLUDED.favorite_industries,
			is_paused               = EXCLUDED.is_paused,
			investment_types        = EXCLUDED.investment_types,
			min_drop_threshold      = EXCLUDED.min_drop_threshold,
			max_pe                  = EXCLUDED.max_pe,
			max_debt_equity         = EXCLUDED.max_debt_equity,
			min_roe                 = EXCLUDED.min_roe,
			prefer_stocks_over_etfs = EXCLUDED.prefer_stocks_over_etfs,
			etf_min_drop            = EXCLUDED.etf_min_drop
	`,
		prefs.UserID,
		string(prefs.Band),
		industriesJSON,
		prefs.IsPaused,
		typesJSON,
		prefs.MinDropThreshold,
		prefs.MaxPE,
		prefs.MaxDebtEquity,
		prefs.MinROE,
		prefs.PreferStocksOverETFs,
		prefs.ETFMinDrop,
	)
	if err != nil {
		return fmt.Errorf("upsert preferences for user %d: %w", prefs.UserID, err)
	}

	return nil
}

// ListActiveByBand returns active, non-paused users in the given band,
// paired with their preferences, in stable id order.
func (r *Repository) ListActiveByBand(ctx context.Context, band Band) ([]Member, error) {
	rows, err := r.db.Query(ctx, `
		SELECT u.id, u.phone_number, u.email, u.created_at, u.is_active, u.onboarding_complete,
		       p.user_id, p.alert_frequency, p.favorite_industries, p.is_paused,
		       p.investment_types, p.min_drop_threshold, p.max_pe, p.max_debt_equity,
		       p.min_roe, p.prefer_stocks_over_etfs, p.etf_min_drop
		FROM users u
		JOIN user_preferences p ON p.user_id = u.id
		WHERE u.is_active = TRUE
		  AND p.is_paused = FALSE
		  AND p.alert_frequency = $1
		ORDER BY u.id
	`, string(band))
	if err != nil {
		return nil, fmt.Errorf("query users in band %s: %w", band, err)
	}
	defer rows.Close()

	var members []Member
	for rows.Next() {
		var m Member
		var bandStr string
		var industriesJSON, typesJSON []byte

		err := rows.Scan(
			&m.User.ID, &m.User.PhoneNumber, &m.User.Email, &m.User.CreatedAt,
			&m.User.IsActive, &m.User.OnboardingComplete,
			&m.Preferences.UserID, &bandStr, &industriesJSON, &m.Preferences.IsPaused,
			&typesJSON, &m.Preferences.MinDropThreshold, &m.Preferences.MaxPE,
			&m.Preferences.MaxDebtEquity, &m.Preferences.MinROE,
			&m.Preferences.PreferStocksOverETFs, &m.Preferences.ETFMinDrop,
		)
		if err != nil {
			return nil, fmt.Errorf("scan band member: %w", err)
		}

		m.Preferences.Band = Band(bandStr)
		if err := json.Unmarshal(industriesJSON, &m.Preferences.FavoriteIndustries); err != nil {
			return nil, fmt.Errorf("unmarshal industries: %w", err)
		}
		if err := json.Unmarshal(typesJSON, &m.Preferences.InvestmentTypes); err != nil {
			return nil, fmt.Errorf("unmarshal investment types: %w", err)
		}

		members = append(members, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate band members: %w", err)
	}

	return members, nil
}

// AddToWatchlist adds a ticker to the user's watchlist.
func (r *Repository) AddToWatchlist(ctx context.Context, userID int64, ticker string) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO watchlist (user_id, ticker, added_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (user_id, ticker) DO NOTHING
	`, userID, ticker)
	if err != nil {
		return fmt.Errorf("add %s to watchlist: %w", ticker, err)
	}
	return nil
}

// RemoveFromWatchlist removes a ticker from the user's watchlist.
func (r *Repository) RemoveFromWatchlist(ctx context.Context, userID int64, ticker string) error {
	_, err := r.db.Exec(ctx, `
		DELETE FROM watchlist WHERE user_id = $1 AND ticker = $2
	`, userID, ticker)
	if err != nil {
		return fmt.Errorf("remove %s from watchlist: %w", ticker, err)
	}
	return nil
}

// Watchlist returns the user's watched tickers in insertion order.
func (r *Repository) Watchlist(ctx context.Context, userID int64) ([]string, error) {
	rows, err := r.db.Query(ctx, `
		SELECT ticker FROM watchlist WHERE user_id = $1 ORDER BY added_at
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("query watchlist: %w", err)
	}
	defer rows.Close()

	var tickers []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("scan watchlist row: %w", err)
		}
		tickers = append(tickers, t)
	}

	return tickers, rows.Err()
}

func scanPreferences(row pgx.Row) (*Preferences, error) {
	prefs := &Preferences{}
	var bandStr string
	var industriesJSON, typesJSON []byte

	err := row.Scan(
		&prefs.UserID, &bandStr, &industriesJSON, &prefs.IsPaused,
		&typesJSON, &prefs.MinDropThreshold, &prefs.MaxPE, &prefs.MaxDebtEquity,
		&prefs.MinROE, &prefs.PreferStocksOverETFs, &prefs.ETFMinDrop,
	)
	if err != nil {
		return nil, err
	}

	prefs.Band = Band(bandStr)
	if err := json.Unmarshal(industriesJSON, &prefs.FavoriteIndustries); err != nil {
		return nil, fmt.Errorf("unmarshal industries: %w", err)
	}
	if err := json.Unmarshal(typesJSON, &prefs.InvestmentTypes); err != nil {
		return nil, fmt.Errorf("unmarshal investment types: %w", err)
	}

	return prefs, nil
}
