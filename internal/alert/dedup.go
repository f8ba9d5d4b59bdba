package alert

import (
	"context"
	"fmt"
	"time"

	"github.com/dipwatch/dipwatch/pkg/logger"
	"github.com/dipwatch/dipwatch/pkg/redis"
)

// recordSource is the slice of the repository the deduplicator needs.
type recordSource interface {
	LatestFor(ctx context.Context, userID int64, ticker string) (*Record, error)
	SentOn(ctx context.Context, userID int64, dayStart, dayEnd time.Time) ([]string, error)
}

// Deduplicator answers whether a (user, ticker) pair was already
// alerted on the current calendar day. Days roll over in the configured
// alert timezone, not UTC. Redis, when enabled, serves as a fast path
// in front of the alerts table; Postgres remains the source of truth.
type Deduplicator struct {
	records recordSource
	cache   *redis.Cache
	loc     *time.Location
	logger  *logger.Logger
}

func NewDeduplicator(records recordSource, cache *redis.Cache, loc *time.Location, log *logger.Logger) *Deduplicator {
	if loc == nil {
		loc = time.UTC
	}
	return &Deduplicator{
		records: records,
		cache:   cache,
		loc:     loc,
		logger:  log,
	}
}

// AlreadySentToday reports whether the user has an alert record for the
// ticker dated on the same calendar day as now.
func (d *Deduplicator) AlreadySentToday(ctx context.Context, userID int64, ticker string, now time.Time) (bool, error) {
	day := now.In(d.loc).Format("2006-01-02")
	key := redis.SentAlertKey(userID, ticker, day)

	var sent bool
	if found, err := d.cache.Get(ctx, key, &sent); err == nil && found && sent {
		return true, nil
	}

	rec, err := d.records.LatestFor(ctx, userID, ticker)
	if err != nil {
		return false, fmt.Errorf("failed to check alert history: %w", err)
	}
	if rec == nil {
		return false, nil
	}

	if rec.SentAt.In(d.loc).Format("2006-01-02") != day {
		return false, nil
	}

	// Warm the cache so repeated checks within the day skip Postgres.
	if err := d.cache.Set(ctx, key, true, d.ttlUntilMidnight(now)); err != nil {
		d.logger.WithError(err).Warn("failed to cache dedup marker")
	}

	return true, nil
}

// SentToday returns the set of tickers already alerted to the user on
// the current calendar day. Digest bands use one batched lookup instead
// of a per-ticker check.
func (d *Deduplicator) SentToday(ctx context.Context, userID int64, now time.Time) (map[string]bool, error) {
	local := now.In(d.loc)
	dayStart := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, d.loc)

	tickers, err := d.records.SentOn(ctx, userID, dayStart, dayStart.AddDate(0, 0, 1))
	if err != nil {
		return nil, fmt.Errorf("failed to list today's alerts: %w", err)
	}

	sent := make(map[string]bool, len(tickers))
	for _, t := range tickers {
		sent[t] = true
	}
	return sent, nil
}

// MarkSent records the dedup marker for the remainder of the day.
// The durable record is written separately by the caller; losing the
// marker only costs an extra Postgres lookup.
func (d *Deduplicator) MarkSent(ctx context.Context, userID int64, ticker string, now time.Time) {
	day := now.In(d.loc).Format("2006-01-02")
	key := redis.SentAlertKey(userID, ticker, day)
	if err := d.cache.Set(ctx, key, true, d.ttlUntilMidnight(now)); err != nil {
		d.logger.WithError(err).Warn("failed to cache dedup marker")
	}
}

func (d *Deduplicator) ttlUntilMidnight(now time.Time) time.Duration {
	local := now.In(d.loc)
	midnight := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, d.loc).AddDate(0, 0, 1)
	ttl := midnight.Sub(local)
	if ttl < time.Minute {
		ttl = time.Minute
	}
	return ttl
}
