package jobs

import (
	"context"

	"github.com/dipwatch/dipwatch/internal/alert"
	"github.com/dipwatch/dipwatch/internal/user"
)

const (
	dailyDigestSize  = 3
	weeklyDigestSize = 5
)

// CorrectionsJob alerts the corrections band only when a candidate has
// fallen at least significantDrop from its 52-week high.
type CorrectionsJob struct {
	scanner         *Scanner
	composer        *alert.Composer
	significantDrop float64
}

func NewCorrectionsJob(scanner *Scanner, composer *alert.Composer, significantDrop float64) *CorrectionsJob {
	return &CorrectionsJob{
		scanner:         scanner,
		composer:        composer,
		significantDrop: significantDrop,
	}
}

func (j *CorrectionsJob) Name() string { return "corrections_scan" }

// Schedule runs every four hours; corrections are rare enough that a
// tighter loop only burns provider quota.
func (j *CorrectionsJob) Schedule() string { return "0 0 */4 * * *" }

func (j *CorrectionsJob) Run(ctx context.Context) error {
	_, err := j.Execute(ctx)
	return err
}

func (j *CorrectionsJob) Execute(ctx context.Context) (Summary, error) {
	return j.scanner.ScanSingle(ctx, user.BandCorrections, j.significantDrop, j.composer.Correction)
}

// RealtimeJob alerts the realtime band with the single best new
// opportunity each half hour of the trading day.
type RealtimeJob struct {
	scanner  *Scanner
	composer *alert.Composer
}

func NewRealtimeJob(scanner *Scanner, composer *alert.Composer) *RealtimeJob {
	return &RealtimeJob{scanner: scanner, composer: composer}
}

func (j *RealtimeJob) Name() string { return "realtime_scan" }

func (j *RealtimeJob) Schedule() string { return "0 */30 9-16 * * MON-FRI" }

func (j *RealtimeJob) Run(ctx context.Context) error {
	_, err := j.Execute(ctx)
	return err
}

func (j *RealtimeJob) Execute(ctx context.Context) (Summary, error) {
	return j.scanner.ScanSingle(ctx, user.BandRealtime, 0, j.composer.SingleAlert)
}

// DailyDigestJob sends the daily band its top three opportunities
// shortly after the market closes.
type DailyDigestJob struct {
	scanner  *Scanner
	composer *alert.Composer
}

func NewDailyDigestJob(scanner *Scanner, composer *alert.Composer) *DailyDigestJob {
	return &DailyDigestJob{scanner: scanner, composer: composer}
}

func (j *DailyDigestJob) Name() string { return "daily_digest" }

func (j *DailyDigestJob) Schedule() string { return "0 30 16 * * MON-FRI" }

func (j *DailyDigestJob) Run(ctx context.Context) error {
	_, err := j.Execute(ctx)
	return err
}

func (j *DailyDigestJob) Execute(ctx context.Context) (Summary, error) {
	return j.scanner.ScanDigest(ctx, user.BandDaily, dailyDigestSize, j.composer.DailyDigest)
}

// WeeklyDigestJob sends the weekly band its top five opportunities on
// Sunday evening, ahead of the next trading week.
type WeeklyDigestJob struct {
	scanner  *Scanner
	composer *alert.Composer
}

func NewWeeklyDigestJob(scanner *Scanner, composer *alert.Composer) *WeeklyDigestJob {
	return &WeeklyDigestJob{scanner: scanner, composer: composer}
}

func (j *WeeklyDigestJob) Name() string { return "weekly_digest" }

func (j *WeeklyDigestJob) Schedule() string { return "0 0 19 * * SUN" }

func (j *WeeklyDigestJob) Run(ctx context.Context) error {
	_, err := j.Execute(ctx)
	return err
}

func (j *WeeklyDigestJob) Execute(ctx context.Context) (Summary, error) {
	return j.scanner.ScanDigest(ctx, user.BandWeekly, weeklyDigestSize, j.composer.WeeklyDigest)
}
