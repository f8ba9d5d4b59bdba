package selection

import (
	"fmt"

	"github.com/dipwatch/dipwatch/internal/market"
	"github.com/dipwatch/dipwatch/internal/user"
)

// Opportunity is a scored buying candidate for one user. It is computed
// per scan and never persisted.
type Opportunity struct {
	Snapshot     *market.Snapshot
	Score        float64
	DropFromHigh float64
	Reasons      []string
}

// Ticker returns the candidate's ticker.
func (o *Opportunity) Ticker() string {
	return o.Snapshot.Ticker
}

// Score calculates an opportunity score for a snapshot against a user's
// thresholds. Returns a score in [0, 100] and the reasons behind it.
//
// Each metric contributes one capped bucket with tiered breakpoints; a
// higher tier fully supersedes the lower ones. Reasons are emitted in
// fixed bucket order (drop, P/E, debt/equity, ROE, margin) regardless
// of score, each carrying the concrete metric value.
func Score(snap *market.Snapshot, prefs *user.Preferences) (float64, []string) {
	score := 0.0
	var reasons []string

	// Drop from 52-week high (0-30 points)
	if drop, ok := snap.DropFromHigh(); ok {
		switch {
		case drop >= 0.30:
			score += 30
			reasons = append(reasons, fmt.Sprintf("Down %.0f%% from 52-week high (significant discount)", drop*100))
		case drop >= 0.20:
			score += 25
			reasons = append(reasons, fmt.Sprintf("Down %.0f%% from 52-week high (good discount)", drop*100))
		case drop >= prefs.MinDropThreshold:
			score += 15
			reasons = append(reasons, fmt.Sprintf("Down %.0f%% from 52-week high", drop*100))
		}
	}

	// P/E ratio (0-20 points), lower is better
	if snap.PERatio != nil {
		pe := *snap.PERatio
		switch {
		case pe < 10:
			score += 20
			reasons = append(reasons, fmt.Sprintf("Very low P/E of %.1f", pe))
		case pe < 15:
			score += 15
			reasons = append(reasons, fmt.Sprintf("Low P/E of %.1f", pe))
		case pe <= prefs.MaxPE:
			score += 10
			reasons = append(reasons, fmt.Sprintf("Reasonable P/E of %.1f", pe))
		}
	}

	// Debt-to-equity (0-15 points), lower is better
	if snap.DebtToEquity != nil {
		de := *snap.DebtToEquity
		switch {
		case de < 0.5:
			score += 15
			reasons = append(reasons, fmt.Sprintf("Very low debt (D/E: %.2f)", de))
		case de < 1.0:
			score += 10
			reasons = append(reasons, fmt.Sprintf("Low debt (D/E: %.2f)", de))
		case de <= prefs.MaxDebtEquity:
			score += 5
			reasons = append(reasons, fmt.Sprintf("Manageable debt (D/E: %.2f)", de))
		}
	}

	// ROE (0-20 points), higher is better
	if snap.ROE != nil {
		roe := *snap.ROE
		switch {
		case roe >= 0.25:
			score += 20
			reasons = append(reasons, fmt.Sprintf("Excellent ROE of %.0f%%", roe*100))
		case roe >= 0.20:
			score += 15
			reasons = append(reasons, fmt.Sprintf("Strong ROE of %.0f%%", roe*100))
		case roe >= prefs.MinROE:
			score += 10
			reasons = append(reasons, fmt.Sprintf("Good ROE of %.0f%%", roe*100))
		}
	}

	// Profit margin (0-15 points), higher is better
	if snap.ProfitMargin != nil {
		margin := *snap.ProfitMargin
		switch {
		case margin >= 0.20:
			score += 15
			reasons = append(reasons, fmt.Sprintf("High profit margin of %.0f%%", margin*100))
		case margin >= 0.10:
			score += 10
			reasons = append(reasons, fmt.Sprintf("Solid profit margin of %.0f%%", margin*100))
		case margin >= 0.05:
			score += 5
			reasons = append(reasons, fmt.Sprintf("Positive margin of %.0f%%", margin*100))
		}
	}

	return score, reasons
}
