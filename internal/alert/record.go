package alert

import "time"

// Record is one alert sent to one user. Records are append-only and
// never mutated; the deduplicator reads them to answer "did this user
// already hear about this ticker today?".
type Record struct {
	ID      int64
	UserID  int64
	Ticker  string
	Score   float64
	Message string
	SentAt  time.Time
}
