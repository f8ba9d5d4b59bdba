// Package selection turns cached instrument snapshots into a ranked
// opportunity list for one user: hard-cut screening, additive scoring,
// and top-N selection over the user's allowed universe.
package selection

import (
	"github.com/dipwatch/dipwatch/internal/market"
	"github.com/dipwatch/dipwatch/internal/user"
)

// ScreenerConfig defines screening behavior not owned by the user.
type ScreenerConfig struct {
	// MinWeeklyDrop is the freshness sub-filter: when positive, a
	// snapshot with a known weekly change must have dropped at least
	// this much in the past week. Keeps long-stale dips from alerting
	// as if they were news. Distinct from the 52-week drop threshold.
	MinWeeklyDrop float64
}

// Screener applies the hard cutoffs a user's soft point system does not
// itself enforce.
type Screener struct {
	config ScreenerConfig
}

// NewScreener creates a new screener.
func NewScreener(config ScreenerConfig) *Screener {
	return &Screener{config: config}
}

// MeetsCriteria checks if a snapshot clears the user's hard filters.
// Returns (passes, drop-from-high). Rules run in order and the first
// failure short-circuits; metrics that are simply absent never fail a
// rule, only present-but-out-of-range values do.
func (s *Screener) MeetsCriteria(snap *market.Snapshot, prefs *user.Preferences) (bool, float64) {
	drop, ok := snap.DropFromHigh()
	if !ok {
		// No price or no 52-week high: drop is undefined, never a pass
		return false, 0.0
	}

	if drop < prefs.MinDropThreshold {
		return false, drop
	}

	if snap.PERatio != nil && *snap.PERatio > prefs.MaxPE {
		return false, drop
	}

	if snap.DebtToEquity != nil && *snap.DebtToEquity > prefs.MaxDebtEquity {
		return false, drop
	}

	if snap.ROE != nil && *snap.ROE < prefs.MinROE {
		return false, drop
	}

	// Freshness: require a recent move, not a months-old dip
	if s.config.MinWeeklyDrop > 0 && snap.WeeklyChange != nil {
		if -*snap.WeeklyChange < s.config.MinWeeklyDrop {
			return false, drop
		}
	}

	return true, drop
}
