package selection

import (
	"context"
	"sort"

	"github.com/dipwatch/dipwatch/internal/market"
	"github.com/dipwatch/dipwatch/internal/universe"
	"github.com/dipwatch/dipwatch/internal/user"
	"github.com/dipwatch/dipwatch/pkg/logger"
)

// FinderConfig tunes finder behavior beyond user preferences.
type FinderConfig struct {
	// ExtraClassDrops adds a stricter minimum drop per asset class on
	// top of the eligibility filter. The ETF entry is derived from user
	// preferences at scan time; static entries here extend the same
	// rule to other classes (commodities, crypto) without code changes.
	ExtraClassDrops map[universe.AssetClass]float64
}

// Finder composes the screener and scorer across a user's allowed
// ticker universe to produce their ranked opportunity list.
type Finder struct {
	store    market.SnapshotStore
	screener *Screener
	config   FinderConfig
	logger   *logger.Logger
}

// NewFinder creates a new finder.
func NewFinder(store market.SnapshotStore, screener *Screener, config FinderConfig, log *logger.Logger) *Finder {
	return &Finder{
		store:    store,
		screener: screener,
		config:   config,
		logger:   log,
	}
}

// FindTop returns the user's top opportunities sorted by score
// descending, at most limit entries. Equal scores keep universe scan
// order, which is fixed (sorted tickers), so results are stable.
func (f *Finder) FindTop(ctx context.Context, prefs *user.Preferences, limit int) ([]*Opportunity, error) {
	opportunities, err := f.Find(ctx, prefs)
	if err != nil {
		return nil, err
	}

	if limit > 0 && len(opportunities) > limit {
		opportunities = opportunities[:limit]
	}
	return opportunities, nil
}

// Find scans the user's universe and returns all matching opportunities
// ranked by score.
func (f *Finder) Find(ctx context.Context, prefs *user.Preferences) ([]*Opportunity, error) {
	tickers := universe.ForPreferences(prefs.InvestmentTypes, prefs.FavoriteIndustries)

	snapshots, err := f.store.GetByTickers(ctx, tickers)
	if err != nil {
		return nil, err
	}

	extraDrops := f.extraClassDrops(prefs)

	var opportunities []*Opportunity
	for _, ticker := range tickers {
		snap, ok := snapshots[ticker]
		if !ok {
			continue // never refreshed yet
		}

		passes, drop := f.screener.MeetsCriteria(snap, prefs)
		if !passes {
			continue
		}

		// Stricter per-class drop rule
		if minDrop, ok := extraDrops[universe.ClassOf(ticker)]; ok && drop < minDrop {
			continue
		}

		score, reasons := Score(snap, prefs)
		opportunities = append(opportunities, &Opportunity{
			Snapshot:     snap,
			Score:        score,
			DropFromHigh: drop,
			Reasons:      reasons,
		})
	}

	sort.SliceStable(opportunities, func(i, j int) bool {
		return opportunities[i].Score > opportunities[j].Score
	})

	f.logger.WithFields(map[string]interface{}{
		"user":          prefs.UserID,
		"universe":      len(tickers),
		"opportunities": len(opportunities),
	}).Debug("Opportunity scan completed")

	return opportunities, nil
}

// extraClassDrops merges the static per-class rules with the user's ETF
// preference.
func (f *Finder) extraClassDrops(prefs *user.Preferences) map[universe.AssetClass]float64 {
	drops := make(map[universe.AssetClass]float64, len(f.config.ExtraClassDrops)+1)
	for class, minDrop := range f.config.ExtraClassDrops {
		drops[class] = minDrop
	}
	if prefs.PreferStocksOverETFs {
		drops[universe.ClassETF] = prefs.ETFMinDrop
	}
	return drops
}
