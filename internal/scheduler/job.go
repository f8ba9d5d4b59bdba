package scheduler

import (
	"context"
	"time"
)

// Job is a unit of scheduled work.
type Job interface {
	// Name identifies the job in logs, history and the operator API.
	Name() string

	// Run executes the job.
	Run(ctx context.Context) error

	// Schedule returns the cron expression, with a seconds field,
	// e.g. "0 30 16 * * MON-FRI".
	Schedule() string
}

// Result records one execution of a job.
type Result struct {
	JobName   string        `json:"job_name"`
	StartTime time.Time     `json:"start_time"`
	EndTime   time.Time     `json:"end_time"`
	Duration  time.Duration `json:"duration"`
	Success   bool          `json:"success"`
	Error     string        `json:"error,omitempty"`
}

// historyLimit bounds per-job history kept in memory.
const historyLimit = 100

// History holds the most recent execution results for one job.
type History struct {
	Results []Result
}

func (h *History) Add(result Result) {
	h.Results = append(h.Results, result)
	if len(h.Results) > historyLimit {
		h.Results = h.Results[len(h.Results)-historyLimit:]
	}
}

// Latest returns the most recent result, or nil when the job has never run.
func (h *History) Latest() *Result {
	if len(h.Results) == 0 {
		return nil
	}
	return &h.Results[len(h.Results)-1]
}

// FailureCount counts failed runs in the retained history.
func (h *History) FailureCount() int {
	failures := 0
	for _, r := range h.Results {
		if !r.Success {
			failures++
		}
	}
	return failures
}

// SuccessRate returns the fraction of retained runs that succeeded.
func (h *History) SuccessRate() float64 {
	if len(h.Results) == 0 {
		return 0.0
	}
	return float64(len(h.Results)-h.FailureCount()) / float64(len(h.Results))
}
