package market

import (
	"context"
	"sort"
	"time"

	"github.com/dipwatch/dipwatch/pkg/logger"
)

// Refresher implements the staleness-aware refresh policy over the
// snapshot store. It is the only writer of snapshots.
//
// Provider calls run sequentially and each run fetches at most Budget
// tickers: the quota is a hard per-run cap, not a throttle.
type Refresher struct {
	store    SnapshotStore
	provider Provider
	budget   int
	logger   *logger.Logger
	now      func() time.Time
}

// NewRefresher creates a refresher with a per-run fetch budget.
func NewRefresher(store SnapshotStore, provider Provider, budget int, log *logger.Logger) *Refresher {
	return &Refresher{
		store:    store,
		provider: provider,
		budget:   budget,
		logger:   log,
		now:      time.Now,
	}
}

// Refresh fetches fresh data for every requested ticker whose snapshot
// is older than maxAge (a missing snapshot is infinitely stale) and
// returns the tickers actually refreshed.
//
// A provider call that fails or returns nothing usable is skipped
// without mutating the snapshot; the ticker stays stale and is retried
// next run.
func (rf *Refresher) Refresh(ctx context.Context, tickers []string, maxAge time.Duration) ([]string, error) {
	now := rf.now()
	cutoff := now.Add(-maxAge)

	stale := make([]string, 0, len(tickers))
	for _, ticker := range sortedUnique(tickers) {
		snap, err := rf.store.Get(ctx, ticker)
		if err != nil {
			rf.logger.WithError(err).WithField("ticker", ticker).Error("Snapshot lookup failed")
			continue
		}
		if snap == nil || snap.LastRefreshed.Before(cutoff) {
			stale = append(stale, ticker)
		}
	}

	return rf.fetchBatch(ctx, stale)
}

// RefreshAll bypasses the staleness check, for operator-triggered full
// refreshes. The per-run budget still applies.
func (rf *Refresher) RefreshAll(ctx context.Context, tickers []string) ([]string, error) {
	return rf.fetchBatch(ctx, sortedUnique(tickers))
}

// fetchBatch fetches the first budget tickers of the batch, one
// sequential provider call per ticker.
func (rf *Refresher) fetchBatch(ctx context.Context, batch []string) ([]string, error) {
	if len(batch) > rf.budget {
		rf.logger.WithFields(map[string]interface{}{
			"stale":  len(batch),
			"budget": rf.budget,
		}).Info("Stale set exceeds refresh budget, deferring remainder")
		batch = batch[:rf.budget]
	}

	refreshed := make([]string, 0, len(batch))
	for _, ticker := range batch {
		if err := ctx.Err(); err != nil {
			return refreshed, err
		}

		quote, err := rf.provider.Fetch(ctx, ticker)
		if err != nil {
			rf.logger.WithError(err).WithField("ticker", ticker).Warn("Provider fetch failed, skipping")
			continue
		}
		if !quote.Usable() {
			rf.logger.WithField("ticker", ticker).Debug("Provider returned no usable data, skipping")
			continue
		}

		snap, err := rf.store.Get(ctx, ticker)
		if err != nil {
			rf.logger.WithError(err).WithField("ticker", ticker).Error("Snapshot lookup failed")
			continue
		}

		merged := mergeQuote(snap, quote, rf.now())
		if err := rf.store.Upsert(ctx, merged); err != nil {
			rf.logger.WithError(err).WithField("ticker", ticker).Error("Snapshot upsert failed")
			continue
		}

		refreshed = append(refreshed, ticker)
	}

	rf.logger.WithFields(map[string]interface{}{
		"requested": len(batch),
		"refreshed": len(refreshed),
	}).Info("Snapshot refresh completed")

	return refreshed, nil
}

// mergeQuote overlays a quote onto an existing snapshot. Fields the
// provider did not return keep their previous value, so a partial
// payload never wipes known fundamentals.
func mergeQuote(prev *Snapshot, quote *Quote, now time.Time) *Snapshot {
	snap := &Snapshot{Ticker: quote.Ticker, LastRefreshed: now}
	if prev != nil {
		*snap = *prev
		snap.LastRefreshed = now
	}

	if quote.CompanyName != nil {
		snap.CompanyName = quote.CompanyName
	}
	if quote.Sector != nil {
		snap.Sector = quote.Sector
	}
	if quote.Industry != nil {
		snap.Industry = quote.Industry
	}
	if quote.LastPrice != nil {
		snap.LastPrice = quote.LastPrice
	}
	if quote.WeeklyChange != nil {
		snap.WeeklyChange = quote.WeeklyChange
	}
	if quote.High52W != nil {
		snap.High52W = quote.High52W
	}
	if quote.Low52W != nil {
		snap.Low52W = quote.Low52W
	}
	if quote.PERatio != nil {
		snap.PERatio = quote.PERatio
	}
	if quote.PBRatio != nil {
		snap.PBRatio = quote.PBRatio
	}
	if quote.ROE != nil {
		snap.ROE = quote.ROE
	}
	if quote.DebtToEquity != nil {
		snap.DebtToEquity = quote.DebtToEquity
	}
	if quote.ProfitMargin != nil {
		snap.ProfitMargin = quote.ProfitMargin
	}

	return snap
}

func sortedUnique(tickers []string) []string {
	seen := make(map[string]bool, len(tickers))
	out := make([]string, 0, len(tickers))
	for _, t := range tickers {
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
