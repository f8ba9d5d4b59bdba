package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/dipwatch/dipwatch/internal/market"
	"github.com/dipwatch/dipwatch/internal/scheduler/jobs"
	"github.com/dipwatch/dipwatch/internal/universe"
	"github.com/dipwatch/dipwatch/internal/user"
	"github.com/dipwatch/dipwatch/pkg/logger"
)

// BandRunner executes one alert band's scan and reports a summary.
type BandRunner interface {
	Execute(ctx context.Context) (jobs.Summary, error)
}

// CronHandler exposes the scheduled pipelines as on-demand endpoints
// for operators and external cron services.
type CronHandler struct {
	refresher *market.Refresher
	maxAge    time.Duration
	bands     map[user.Band]BandRunner
	logger    *logger.Logger
}

func NewCronHandler(
	refresher *market.Refresher,
	maxAge time.Duration,
	bands map[user.Band]BandRunner,
	log *logger.Logger,
) *CronHandler {
	return &CronHandler{
		refresher: refresher,
		maxAge:    maxAge,
		bands:     bands,
		logger:    log,
	}
}

// Scan handles POST /api/cron/scan?band=<band>. The band defaults to
// corrections, matching the most time-sensitive pipeline.
func (h *CronHandler) Scan(w http.ResponseWriter, r *http.Request) {
	band := user.Band(r.URL.Query().Get("band"))
	if band == "" {
		band = user.BandCorrections
	}
	if !band.Valid() {
		respondError(w, http.StatusBadRequest, "unknown band: "+string(band))
		return
	}

	runner, ok := h.bands[band]
	if !ok {
		respondError(w, http.StatusBadRequest, "band has no scan job: "+string(band))
		return
	}

	summary, err := runner.Execute(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("on-demand scan failed")
		respondError(w, http.StatusInternalServerError, "scan failed")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"band":    string(band),
		"summary": summary,
	})
}

// Refresh handles POST /api/cron/refresh. With ?force=true every
// universe ticker is refetched regardless of staleness.
func (h *CronHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	tickers := universe.AllTickers()

	var refreshed []string
	var err error
	if r.URL.Query().Get("force") == "true" {
		refreshed, err = h.refresher.RefreshAll(r.Context(), tickers)
	} else {
		refreshed, err = h.refresher.Refresh(r.Context(), tickers, h.maxAge)
	}
	if err != nil {
		h.logger.WithError(err).Error("on-demand refresh failed")
		respondError(w, http.StatusInternalServerError, "refresh failed")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"refreshed": len(refreshed),
		"tickers":   refreshed,
	})
}
