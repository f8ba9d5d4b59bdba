package market

import "time"

// Snapshot is the latest cached fundamentals and price for a ticker.
// Nil pointer fields mean the metric is unknown; filters and scoring
// simply skip those dimensions.
type Snapshot struct {
	Ticker       string
	CompanyName  *string
	Sector       *string
	Industry     *string
	LastPrice    *float64
	WeeklyChange *float64 // fractional change over the past week, negative = drop
	High52W      *float64
	Low52W       *float64
	PERatio      *float64
	PBRatio      *float64
	ROE          *float64
	DebtToEquity *float64
	ProfitMargin *float64

	// LastRefreshed is monotonically non-decreasing per ticker.
	LastRefreshed time.Time
}

// DropFromHigh returns the fractional drop from the 52-week high:
// (high - price) / high. The second return is false when price or high
// is missing, in which case drop is 0.
func (s *Snapshot) DropFromHigh() (float64, bool) {
	if s.LastPrice == nil || s.High52W == nil || *s.High52W == 0 {
		return 0, false
	}
	return (*s.High52W - *s.LastPrice) / *s.High52W, true
}

// Quote is a point-in-time view of an instrument returned by a market
// data provider. Absence of any field is valid.
type Quote struct {
	Ticker       string
	CompanyName  *string
	Sector       *string
	Industry     *string
	LastPrice    *float64
	WeeklyChange *float64
	High52W      *float64
	Low52W       *float64
	PERatio      *float64
	PBRatio      *float64
	ROE          *float64
	DebtToEquity *float64
	ProfitMargin *float64
}

// Usable reports whether the quote carries anything worth caching.
func (q *Quote) Usable() bool {
	if q == nil {
		return false
	}
	return q.LastPrice != nil || q.High52W != nil || q.PERatio != nil ||
		q.ROE != nil || q.DebtToEquity != nil || q.ProfitMargin != nil
}
