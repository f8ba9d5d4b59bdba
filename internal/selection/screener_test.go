package selection

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dipwatch/dipwatch/internal/market"
	"github.com/dipwatch/dipwatch/internal/user"
)

func TestMeetsCriteriaPassesValueCandidate(t *testing.T) {
	prefs := user.DefaultPreferences()
	screener := NewScreener(ScreenerConfig{})

	passes, drop := screener.MeetsCriteria(valueSnapshot(), &prefs)

	assert.True(t, passes)
	assert.InDelta(t, 0.30, drop, 1e-9)
}

func TestMeetsCriteriaShortCircuits(t *testing.T) {
	prefs := user.DefaultPreferences()
	screener := NewScreener(ScreenerConfig{})

	tests := []struct {
		name   string
		mutate func(*market.Snapshot)
	}{
		{"missing price", func(s *market.Snapshot) { s.LastPrice = nil }},
		{"missing high", func(s *market.Snapshot) { s.High52W = nil }},
		{"drop too small", func(s *market.Snapshot) { s.LastPrice = fptr(95) }},
		{"pe too high", func(s *market.Snapshot) { s.PERatio = fptr(40) }},
		{"debt too high", func(s *market.Snapshot) { s.DebtToEquity = fptr(2.0) }},
		{"roe too low", func(s *market.Snapshot) { s.ROE = fptr(0.05) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := valueSnapshot()
			tt.mutate(snap)

			passes, _ := screener.MeetsCriteria(snap, &prefs)
			assert.False(t, passes)
		})
	}
}

func TestMeetsCriteriaAtOrAboveHighNeverPasses(t *testing.T) {
	prefs := user.DefaultPreferences()
	screener := NewScreener(ScreenerConfig{})

	atHigh := &market.Snapshot{Ticker: "T", LastPrice: fptr(100), High52W: fptr(100)}
	passes, drop := screener.MeetsCriteria(atHigh, &prefs)
	assert.False(t, passes)
	assert.Equal(t, 0.0, drop)

	aboveHigh := &market.Snapshot{Ticker: "T", LastPrice: fptr(110), High52W: fptr(100)}
	passes, drop = screener.MeetsCriteria(aboveHigh, &prefs)
	assert.False(t, passes)
	assert.Less(t, drop, 0.0)
}

func TestMeetsCriteriaAbsentMetricsNeverFail(t *testing.T) {
	prefs := user.DefaultPreferences()
	screener := NewScreener(ScreenerConfig{})

	snap := &market.Snapshot{
		Ticker:    "BARE",
		LastPrice: fptr(70),
		High52W:   fptr(100),
	}

	passes, drop := screener.MeetsCriteria(snap, &prefs)

	assert.True(t, passes)
	assert.InDelta(t, 0.30, drop, 1e-9)
}

func TestMeetsCriteriaFreshnessFilter(t *testing.T) {
	prefs := user.DefaultPreferences()
	screener := NewScreener(ScreenerConfig{MinWeeklyDrop: 0.05})

	stale := valueSnapshot()
	stale.WeeklyChange = fptr(-0.01) // old dip, barely moving now
	passes, _ := screener.MeetsCriteria(stale, &prefs)
	assert.False(t, passes)

	fresh := valueSnapshot()
	fresh.WeeklyChange = fptr(-0.08)
	passes, _ = screener.MeetsCriteria(fresh, &prefs)
	assert.True(t, passes)

	// Unknown weekly change is not penalized
	unknown := valueSnapshot()
	passes, _ = screener.MeetsCriteria(unknown, &prefs)
	assert.True(t, passes)
}

func TestMeetsCriteriaFreshnessDisabledByDefault(t *testing.T) {
	prefs := user.DefaultPreferences()
	screener := NewScreener(ScreenerConfig{})

	snap := valueSnapshot()
	snap.WeeklyChange = fptr(0.02) // rising this week

	passes, _ := screener.MeetsCriteria(snap, &prefs)
	assert.True(t, passes)
}
