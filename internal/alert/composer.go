package alert

import (
	"fmt"
	"strings"

	"github.com/dipwatch/dipwatch/internal/selection"
)

// maxReasons caps how many scoring reasons a single-ticker message lists.
const maxReasons = 3

// Composer renders opportunities into plain-text message bodies. Output
// is deterministic for a given input; length limits are enforced by the
// transport, not here.
type Composer struct{}

func NewComposer() *Composer {
	return &Composer{}
}

// SingleAlert renders one opportunity for the realtime band.
func (c *Composer) SingleAlert(opp *selection.Opportunity) string {
	var b strings.Builder

	fmt.Fprintf(&b, "🚨 Investment Opportunity: %s\n\n", opp.Ticker())
	fmt.Fprintf(&b, "%s is down %.0f%% from its 52-week high.\n", displayName(opp), opp.DropFromHigh*100)
	if opp.Snapshot.LastPrice != nil {
		fmt.Fprintf(&b, "Current price: $%.2f\n", *opp.Snapshot.LastPrice)
	}

	if metrics := metricsLine(opp); metrics != "" {
		b.WriteString("\n")
		b.WriteString(metrics)
		b.WriteString("\n")
	}

	if len(opp.Reasons) > 0 {
		b.WriteString("\nWhy this caught our eye:\n")
		for i, reason := range opp.Reasons {
			if i >= maxReasons {
				break
			}
			fmt.Fprintf(&b, "• %s\n", reason)
		}
	}

	b.WriteString("\nReply with any questions about this opportunity!")
	return b.String()
}

// Correction renders one opportunity for the corrections band, which
// leads with the size of the drop rather than the score.
func (c *Composer) Correction(opp *selection.Opportunity) string {
	var b strings.Builder

	fmt.Fprintf(&b, "📉 Market Correction Alert\n\n")
	fmt.Fprintf(&b, "%s is down %.0f%% from its 52-week high", displayName(opp), opp.DropFromHigh*100)
	if opp.Snapshot.LastPrice != nil {
		fmt.Fprintf(&b, ", now at $%.2f", *opp.Snapshot.LastPrice)
	}
	b.WriteString(".\n")

	if len(opp.Reasons) > 0 {
		fmt.Fprintf(&b, "\n%s\n", opp.Reasons[0])
	}

	b.WriteString("\nReply with questions about this or any stock.")
	return b.String()
}

// DailyDigest renders the daily band's multi-ticker summary.
func (c *Composer) DailyDigest(opps []*selection.Opportunity) string {
	return c.digest("📊 Daily Investment Digest", opps)
}

// WeeklyDigest renders the weekly band's multi-ticker summary.
func (c *Composer) WeeklyDigest(opps []*selection.Opportunity) string {
	return c.digest("📈 Weekly Investment Roundup", opps)
}

func (c *Composer) digest(header string, opps []*selection.Opportunity) string {
	var b strings.Builder

	b.WriteString(header)
	b.WriteString("\n")

	for i, opp := range opps {
		fmt.Fprintf(&b, "\n%d. %s - down %.0f%%", i+1, opp.Ticker(), opp.DropFromHigh*100)
		if opp.Snapshot.LastPrice != nil {
			fmt.Fprintf(&b, " at $%.2f", *opp.Snapshot.LastPrice)
		}
		fmt.Fprintf(&b, " (score %.0f)\n", opp.Score)
		if len(opp.Reasons) > 0 {
			fmt.Fprintf(&b, "   %s\n", opp.Reasons[0])
		}
	}

	b.WriteString("\nReply with a ticker for details.")
	return b.String()
}

func displayName(opp *selection.Opportunity) string {
	if opp.Snapshot.CompanyName != nil && *opp.Snapshot.CompanyName != "" {
		return fmt.Sprintf("%s (%s)", *opp.Snapshot.CompanyName, opp.Ticker())
	}
	return opp.Ticker()
}

func metricsLine(opp *selection.Opportunity) string {
	var parts []string
	if opp.Snapshot.PERatio != nil {
		parts = append(parts, fmt.Sprintf("P/E: %.1f", *opp.Snapshot.PERatio))
	}
	if opp.Snapshot.ROE != nil {
		parts = append(parts, fmt.Sprintf("ROE: %.0f%%", *opp.Snapshot.ROE*100))
	}
	if opp.Snapshot.DebtToEquity != nil {
		parts = append(parts, fmt.Sprintf("D/E: %.2f", *opp.Snapshot.DebtToEquity))
	}
	return strings.Join(parts, " | ")
}
