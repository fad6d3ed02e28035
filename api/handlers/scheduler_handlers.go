package handlers

import (
	"net/http"

	log "github.com/sirupsen/logrus"
)

// SchedulerHandler exposes manual scheduler control.
type SchedulerHandler struct {
	runner SchedulerRunner
}

// Trigger handles POST /scheduler/trigger: runs one scheduler pass
// synchronously and returns its summary.
func (h *SchedulerHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	summary, err := h.runner.RunOnce(r.Context())
	if err != nil {
		log.WithError(err).Error("Manual scheduler pass failed")
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	status := http.StatusOK
	if summary.Skipped {
		status = http.StatusConflict
	}
	writeJSON(w, status, summary)
}
