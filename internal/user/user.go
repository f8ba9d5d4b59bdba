package user

import (
	"time"

	"github.com/dipwatch/dipwatch/internal/universe"
)

// Band is a user's chosen alert cadence.
type Band string

const (
	BandCorrections Band = "corrections" // only on significant market drops
	BandRealtime    Band = "realtime"
	BandDaily       Band = "daily"
	BandWeekly      Band = "weekly"
)

// Valid reports whether the band is a known cadence.
func (b Band) Valid() bool {
	switch b {
	case BandCorrections, BandRealtime, BandDaily, BandWeekly:
		return true
	}
	return false
}

// User is an account that receives alerts.
type User struct {
	ID                 int64
	PhoneNumber        string
	Email              *string
	CreatedAt          time.Time
	IsActive           bool
	OnboardingComplete bool
}

// Preferences holds a user's investment thresholds and alert settings.
// Created from the value preset at signup and mutated only by explicit
// user action.
type Preferences struct {
	UserID int64

	Band               Band
	FavoriteIndustries []string // empty = all industries
	IsPaused           bool

	// Asset classes to receive alerts for
	InvestmentTypes []universe.AssetClass

	// Value investing thresholds
	MinDropThreshold float64 // minimum drop from 52-week high
	MaxPE            float64
	MaxDebtEquity    float64
	MinROE           float64

	// ETFs must clear the stricter drop when stocks are preferred
	PreferStocksOverETFs bool
	ETFMinDrop           float64
}

// DefaultPreferences returns the value-investing preset seeded at signup.
func DefaultPreferences() Preferences {
	return Preferences{
		Band:                 BandDaily,
		FavoriteIndustries:   nil,
		IsPaused:             false,
		InvestmentTypes:      append([]universe.AssetClass(nil), universe.AllClasses...),
		MinDropThreshold:     0.10, // 10% from 52-week high
		MaxPE:                25.0,
		MaxDebtEquity:        1.5,
		MinROE:               0.15, // 15%
		PreferStocksOverETFs: true,
		ETFMinDrop:           0.15,
	}
}

// Member pairs a user with their preferences, as returned by
// band-selection queries.
type Member struct {
	User        User
	Preferences Preferences
}
