package jobs

import (
	"context"
	"time"

	"github.com/dipwatch/dipwatch/internal/market"
	"github.com/dipwatch/dipwatch/internal/universe"
	"github.com/dipwatch/dipwatch/pkg/logger"
)

// RefreshJob keeps the snapshot cache warm by fetching whichever
// universe tickers are older than maxAge, a budgeted batch at a time.
type RefreshJob struct {
	refresher *market.Refresher
	maxAge    time.Duration
	logger    *logger.Logger
}

func NewRefreshJob(refresher *market.Refresher, maxAge time.Duration, log *logger.Logger) *RefreshJob {
	return &RefreshJob{
		refresher: refresher,
		maxAge:    maxAge,
		logger:    log,
	}
}

func (j *RefreshJob) Name() string {
	return "market_refresh"
}

// Schedule runs hourly on weekdays during and around US market hours.
func (j *RefreshJob) Schedule() string {
	return "0 0 9-17 * * MON-FRI"
}

func (j *RefreshJob) Run(ctx context.Context) error {
	refreshed, err := j.refresher.Refresh(ctx, universe.AllTickers(), j.maxAge)
	if err != nil {
		return err
	}

	j.logger.WithField("refreshed", len(refreshed)).Info("market refresh complete")
	return nil
}
