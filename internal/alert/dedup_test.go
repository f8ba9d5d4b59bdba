package alert

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dipwatch/dipwatch/pkg/config"
	"github.com/dipwatch/dipwatch/pkg/logger"
	"github.com/dipwatch/dipwatch/pkg/redis"
)

type memRecords struct {
	latest map[string]*Record
}

func (m *memRecords) LatestFor(ctx context.Context, userID int64, ticker string) (*Record, error) {
	return m.latest[ticker], nil
}

func (m *memRecords) SentOn(ctx context.Context, userID int64, dayStart, dayEnd time.Time) ([]string, error) {
	var tickers []string
	for _, rec := range m.latest {
		if rec.UserID == userID && !rec.SentAt.Before(dayStart) && rec.SentAt.Before(dayEnd) {
			tickers = append(tickers, rec.Ticker)
		}
	}
	return tickers, nil
}

func newTestDedup(t *testing.T, records *memRecords, loc *time.Location) *Deduplicator {
	t.Helper()

	cfg := &config.Config{Env: "test", LogLevel: "error"}
	log := logger.New(cfg)

	// Redis disabled: cache calls become no-ops and every check falls
	// through to the record source.
	client, err := redis.New(cfg)
	require.NoError(t, err)

	return NewDeduplicator(records, redis.NewCache(client, "test"), loc, log)
}

func TestAlreadySentTodaySuppressesSameDay(t *testing.T) {
	now := time.Date(2025, 6, 2, 15, 0, 0, 0, time.UTC)
	records := &memRecords{latest: map[string]*Record{
		"AAPL": {UserID: 1, Ticker: "AAPL", SentAt: now.Add(-2 * time.Hour)},
	}}
	dedup := newTestDedup(t, records, time.UTC)

	sent, err := dedup.AlreadySentToday(context.Background(), 1, "AAPL", now)
	require.NoError(t, err)
	assert.True(t, sent)
}

func TestAlreadySentTodayAllowsNextDay(t *testing.T) {
	now := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	records := &memRecords{latest: map[string]*Record{
		"AAPL": {UserID: 1, Ticker: "AAPL", SentAt: now.Add(-20 * time.Hour)}, // yesterday
	}}
	dedup := newTestDedup(t, records, time.UTC)

	sent, err := dedup.AlreadySentToday(context.Background(), 1, "AAPL", now)
	require.NoError(t, err)
	assert.False(t, sent)
}

func TestAlreadySentTodayNeverAlerted(t *testing.T) {
	records := &memRecords{latest: map[string]*Record{}}
	dedup := newTestDedup(t, records, time.UTC)

	sent, err := dedup.AlreadySentToday(context.Background(), 1, "MSFT", time.Now())
	require.NoError(t, err)
	assert.False(t, sent)
}

func TestSentTodayBatchesTheDaysTickers(t *testing.T) {
	now := time.Date(2025, 6, 2, 17, 0, 0, 0, time.UTC)
	records := &memRecords{latest: map[string]*Record{
		"AAPL": {UserID: 1, Ticker: "AAPL", SentAt: now.Add(-3 * time.Hour)},
		"MSFT": {UserID: 1, Ticker: "MSFT", SentAt: now.Add(-30 * time.Hour)}, // yesterday
		"JPM":  {UserID: 2, Ticker: "JPM", SentAt: now.Add(-1 * time.Hour)},   // other user
	}}
	dedup := newTestDedup(t, records, time.UTC)

	sent, err := dedup.SentToday(context.Background(), 1, now)
	require.NoError(t, err)

	assert.True(t, sent["AAPL"])
	assert.False(t, sent["MSFT"])
	assert.False(t, sent["JPM"])
}

func TestDayBoundaryFollowsConfiguredTimezone(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	// 2025-06-03 01:00 UTC is still 2025-06-02 in New York.
	now := time.Date(2025, 6, 3, 1, 0, 0, 0, time.UTC)
	sentAt := time.Date(2025, 6, 2, 20, 0, 0, 0, time.UTC)

	records := &memRecords{latest: map[string]*Record{
		"AAPL": {UserID: 1, Ticker: "AAPL", SentAt: sentAt},
	}}

	// In UTC the two instants land on different days.
	utcDedup := newTestDedup(t, records, time.UTC)
	sent, err := utcDedup.AlreadySentToday(context.Background(), 1, "AAPL", now)
	require.NoError(t, err)
	assert.False(t, sent)

	// In New York they are the same day, so the alert is suppressed.
	nyDedup := newTestDedup(t, records, ny)
	sent, err = nyDedup.AlreadySentToday(context.Background(), 1, "AAPL", now)
	require.NoError(t, err)
	assert.True(t, sent)
}
