package alert

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dipwatch/dipwatch/internal/market"
	"github.com/dipwatch/dipwatch/internal/selection"
)

func fptr(v float64) *float64 { return &v }

func sptr(s string) *string { return &s }

func testOpportunity(ticker string, drop float64) *selection.Opportunity {
	return &selection.Opportunity{
		Snapshot: &market.Snapshot{
			Ticker:      ticker,
			CompanyName: sptr("Test Corp"),
			LastPrice:   fptr(70),
			PERatio:     fptr(8.2),
			ROE:         fptr(0.28),
		},
		Score:        85,
		DropFromHigh: drop,
		Reasons: []string{
			"Down 30% from 52-week high (significant discount)",
			"Very low P/E of 8.2",
			"Excellent ROE of 28%",
			"High profit margin of 22%",
		},
	}
}

func TestSingleAlertBody(t *testing.T) {
	composer := NewComposer()

	body := composer.SingleAlert(testOpportunity("TEST", 0.30))

	assert.Contains(t, body, "🚨 Investment Opportunity: TEST")
	assert.Contains(t, body, "Test Corp (TEST) is down 30% from its 52-week high.")
	assert.Contains(t, body, "Current price: $70.00")
	assert.Contains(t, body, "Why this caught our eye:")
	assert.Contains(t, body, "• Down 30% from 52-week high (significant discount)")
	assert.Contains(t, body, "Reply with any questions about this opportunity!")

	// Reasons are capped at three per message.
	assert.NotContains(t, body, "High profit margin")
}

func TestCorrectionBodyLeadsWithDrop(t *testing.T) {
	composer := NewComposer()

	body := composer.Correction(testOpportunity("TEST", 0.35))

	assert.True(t, strings.HasPrefix(body, "📉 Market Correction Alert"))
	assert.Contains(t, body, "down 35% from its 52-week high")
	assert.Contains(t, body, "now at $70.00")
}

func TestDailyDigestNumbersEntries(t *testing.T) {
	composer := NewComposer()

	body := composer.DailyDigest([]*selection.Opportunity{
		testOpportunity("AAA", 0.30),
		testOpportunity("BBB", 0.20),
		testOpportunity("CCC", 0.15),
	})

	assert.True(t, strings.HasPrefix(body, "📊 Daily Investment Digest"))
	assert.Contains(t, body, "1. AAA - down 30%")
	assert.Contains(t, body, "2. BBB - down 20%")
	assert.Contains(t, body, "3. CCC - down 15%")
	assert.Contains(t, body, "(score 85)")
}

func TestWeeklyDigestHeader(t *testing.T) {
	composer := NewComposer()

	body := composer.WeeklyDigest([]*selection.Opportunity{testOpportunity("AAA", 0.30)})

	assert.True(t, strings.HasPrefix(body, "📈 Weekly Investment Roundup"))
}

func TestSingleAlertWithoutCompanyNameUsesTicker(t *testing.T) {
	composer := NewComposer()

	opp := testOpportunity("BARE", 0.25)
	opp.Snapshot.CompanyName = nil

	body := composer.SingleAlert(opp)
	assert.Contains(t, body, "BARE is down 25% from its 52-week high.")
}
