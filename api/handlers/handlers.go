// Package handlers provides focused HTTP handler structs for the maintd API.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/fleetforge/fleetmaint/database"
	"github.com/fleetforge/fleetmaint/planning"
	"github.com/fleetforge/fleetmaint/services"
	"github.com/fleetforge/fleetmaint/validation"
)

// SchedulerRunner triggers a scheduler pass on demand.
type SchedulerRunner interface {
	RunOnce(ctx context.Context) (*services.RunSummary, error)
}

// Handlers bundles all API handler groups.
type Handlers struct {
	Window     *WindowHandler
	Scheduler  *SchedulerHandler
	Session    *SessionHandler
	Validation *ValidationHandler
}

// NewHandlers creates the handler groups over the shared dependencies.
func NewHandlers(conn database.Connection, runner SchedulerRunner, sessions *planning.SessionStore, mode validation.PreflightMode) *Handlers {
	windowRepo := database.NewMaintenanceRepository(conn)
	return &Handlers{
		Window:     &WindowHandler{repo: windowRepo},
		Scheduler:  &SchedulerHandler{runner: runner},
		Session:    &SessionHandler{sessions: sessions},
		Validation: &ValidationHandler{validator: validation.NewMaintenancePreflightValidator(mode)},
	}
}

func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.WithError(err).Error("Failed to encode JSON response")
	}
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]interface{}{
		"error":     message,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
