package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/dipwatch/dipwatch/internal/scheduler"
	"github.com/dipwatch/dipwatch/pkg/logger"
)

// JobsHandler exposes scheduler state for operators.
type JobsHandler struct {
	scheduler *scheduler.Scheduler
	logger    *logger.Logger
}

func NewJobsHandler(sched *scheduler.Scheduler, log *logger.Logger) *JobsHandler {
	return &JobsHandler{
		scheduler: sched,
		logger:    log,
	}
}

// List handles GET /api/jobs.
func (h *JobsHandler) List(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.scheduler.JobStats())
}

// Trigger handles POST /api/jobs/{name}/run.
func (h *JobsHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	if err := h.scheduler.RunJob(name); err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}

	respondJSON(w, http.StatusAccepted, map[string]string{
		"status": "triggered",
		"job":    name,
	})
}
