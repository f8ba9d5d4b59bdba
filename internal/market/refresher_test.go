package market

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dipwatch/dipwatch/pkg/config"
	"github.com/dipwatch/dipwatch/pkg/logger"
)

func fptr(v float64) *float64 { return &v }

type memStore struct {
	snapshots map[string]*Snapshot
	upserts   int
}

func newMemStore() *memStore {
	return &memStore{snapshots: make(map[string]*Snapshot)}
}

func (m *memStore) Get(ctx context.Context, ticker string) (*Snapshot, error) {
	return m.snapshots[ticker], nil
}

func (m *memStore) GetByTickers(ctx context.Context, tickers []string) (map[string]*Snapshot, error) {
	out := make(map[string]*Snapshot)
	for _, t := range tickers {
		if snap, ok := m.snapshots[t]; ok {
			out[t] = snap
		}
	}
	return out, nil
}

func (m *memStore) Upsert(ctx context.Context, snap *Snapshot) error {
	m.snapshots[snap.Ticker] = snap
	m.upserts++
	return nil
}

type fakeProvider struct {
	quotes  map[string]*Quote
	errs    map[string]error
	fetched []string
}

func (f *fakeProvider) Fetch(ctx context.Context, ticker string) (*Quote, error) {
	f.fetched = append(f.fetched, ticker)
	if err, ok := f.errs[ticker]; ok {
		return nil, err
	}
	return f.quotes[ticker], nil
}

func testLogger() *logger.Logger {
	return logger.New(&config.Config{Env: "test", LogLevel: "error"})
}

func priceQuote(ticker string, price float64) *Quote {
	return &Quote{Ticker: ticker, LastPrice: fptr(price)}
}

func TestRefreshOnlyFetchesStale(t *testing.T) {
	now := time.Date(2025, 6, 2, 15, 0, 0, 0, time.UTC)
	store := newMemStore()
	store.snapshots["FRESH"] = &Snapshot{Ticker: "FRESH", LastRefreshed: now.Add(-1 * time.Hour)}
	store.snapshots["STALE"] = &Snapshot{Ticker: "STALE", LastRefreshed: now.Add(-5 * time.Hour)}

	provider := &fakeProvider{quotes: map[string]*Quote{
		"STALE": priceQuote("STALE", 50),
		"NEW":   priceQuote("NEW", 20),
	}}

	rf := NewRefresher(store, provider, 100, testLogger())
	rf.now = func() time.Time { return now }

	refreshed, err := rf.Refresh(context.Background(), []string{"FRESH", "STALE", "NEW"}, 4*time.Hour)
	require.NoError(t, err)

	assert.Equal(t, []string{"NEW", "STALE"}, refreshed)
	assert.NotContains(t, provider.fetched, "FRESH")
}

func TestRefreshBudgetCapsRun(t *testing.T) {
	store := newMemStore()
	provider := &fakeProvider{quotes: map[string]*Quote{
		"A": priceQuote("A", 1),
		"B": priceQuote("B", 2),
		"C": priceQuote("C", 3),
	}}

	rf := NewRefresher(store, provider, 2, testLogger())

	refreshed, err := rf.Refresh(context.Background(), []string{"C", "A", "B"}, time.Hour)
	require.NoError(t, err)

	// Sorted stale set is capped at the budget; the rest waits for the
	// next run.
	assert.Equal(t, []string{"A", "B"}, refreshed)
	assert.Equal(t, []string{"A", "B"}, provider.fetched)
}

func TestRefreshSkipsFailedAndEmptyFetches(t *testing.T) {
	store := newMemStore()
	store.snapshots["BAD"] = &Snapshot{
		Ticker:    "BAD",
		LastPrice: fptr(10),
	}

	provider := &fakeProvider{
		quotes: map[string]*Quote{
			"OK":    priceQuote("OK", 5),
			"EMPTY": nil, // provider knows nothing about it
		},
		errs: map[string]error{"BAD": errors.New("upstream 500")},
	}

	rf := NewRefresher(store, provider, 100, testLogger())

	refreshed, err := rf.Refresh(context.Background(), []string{"OK", "BAD", "EMPTY"}, time.Hour)
	require.NoError(t, err)

	assert.Equal(t, []string{"OK"}, refreshed)
	// The failed ticker keeps its previous snapshot untouched.
	require.NotNil(t, store.snapshots["BAD"].LastPrice)
	assert.Equal(t, 10.0, *store.snapshots["BAD"].LastPrice)
	assert.NotContains(t, store.snapshots, "EMPTY")
}

func TestRefreshAllIgnoresStaleness(t *testing.T) {
	now := time.Now()
	store := newMemStore()
	store.snapshots["FRESH"] = &Snapshot{Ticker: "FRESH", LastRefreshed: now}

	provider := &fakeProvider{quotes: map[string]*Quote{
		"FRESH": priceQuote("FRESH", 42),
	}}

	rf := NewRefresher(store, provider, 100, testLogger())

	refreshed, err := rf.RefreshAll(context.Background(), []string{"FRESH"})
	require.NoError(t, err)
	assert.Equal(t, []string{"FRESH"}, refreshed)
}

func TestMergeQuotePreservesMissingFields(t *testing.T) {
	now := time.Now()
	prev := &Snapshot{
		Ticker:        "TEST",
		LastPrice:     fptr(80),
		PERatio:       fptr(12),
		ROE:           fptr(0.2),
		LastRefreshed: now.Add(-24 * time.Hour),
	}

	quote := &Quote{Ticker: "TEST", LastPrice: fptr(75)}

	merged := mergeQuote(prev, quote, now)

	assert.Equal(t, 75.0, *merged.LastPrice)
	require.NotNil(t, merged.PERatio)
	assert.Equal(t, 12.0, *merged.PERatio)
	require.NotNil(t, merged.ROE)
	assert.Equal(t, 0.2, *merged.ROE)
	assert.Equal(t, now, merged.LastRefreshed)
}

func TestRefreshStopsOnCancelledContext(t *testing.T) {
	store := newMemStore()
	provider := &fakeProvider{quotes: map[string]*Quote{"A": priceQuote("A", 1)}}

	rf := NewRefresher(store, provider, 100, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	refreshed, err := rf.Refresh(ctx, []string{"A"}, time.Hour)
	assert.Error(t, err)
	assert.Empty(t, refreshed)
}
