package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/fleetforge/fleetmaint/database"
	"github.com/fleetforge/fleetmaint/recurrence"
)

// WindowHandler serves maintenance window CRUD.
type WindowHandler struct {
	repo *database.MaintenanceRepository
}

// WindowRequest is the create/update payload for a maintenance window.
type WindowRequest struct {
	Title             string                 `json:"title"`
	Description       *string                `json:"description,omitempty"`
	PlannedStart      time.Time              `json:"planned_start"`
	PlannedEnd        time.Time              `json:"planned_end"`
	MaintenanceType   string                 `json:"maintenance_type"`
	ClusterIDs        []string               `json:"cluster_ids,omitempty"`
	ServerGroupIDs    []string               `json:"server_group_ids,omitempty"`
	ServerIDs         []string               `json:"server_ids,omitempty"`
	AutoExecute       bool                   `json:"auto_execute"`
	RecurrenceEnabled bool                   `json:"recurrence_enabled"`
	RecurrencePattern *string                `json:"recurrence_pattern,omitempty"`
	RecurrenceConfig  *recurrence.Config     `json:"recurrence_config,omitempty"`
	Details           map[string]interface{} `json:"details,omitempty"`
	CreatedBy         string                 `json:"created_by,omitempty"`
}

func (r *WindowRequest) validate() string {
	if strings.TrimSpace(r.Title) == "" {
		return "title is required"
	}
	if r.MaintenanceType == "" {
		return "maintenance_type is required"
	}
	if !r.PlannedEnd.After(r.PlannedStart) {
		return "planned_end must be after planned_start"
	}
	if len(r.ClusterIDs) == 0 && len(r.ServerGroupIDs) == 0 && len(r.ServerIDs) == 0 {
		return "at least one target selector is required"
	}
	if r.RecurrenceEnabled {
		if r.RecurrenceConfig != nil {
			if err := r.RecurrenceConfig.Validate(); err != nil {
				return err.Error()
			}
		} else if r.RecurrencePattern != nil && *r.RecurrencePattern != "" {
			if err := recurrence.ValidatePattern(*r.RecurrencePattern); err != nil {
				return err.Error()
			}
		} else {
			return "recurrence enabled but no recurrence definition given"
		}
	}
	return ""
}

// Create handles POST /windows.
func (h *WindowHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req WindowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	details := database.JSONMap(req.Details)
	if details == nil {
		details = database.JSONMap{}
	}
	if req.RecurrenceConfig != nil {
		details["recurrence_config"] = req.RecurrenceConfig
	}

	createdBy := req.CreatedBy
	if createdBy == "" {
		createdBy = "api"
	}

	window := &database.MaintenanceWindow{
		ID:                uuid.New().String(),
		Title:             req.Title,
		Description:       req.Description,
		PlannedStart:      req.PlannedStart.UTC(),
		PlannedEnd:        req.PlannedEnd.UTC(),
		Status:            database.WindowStatusPlanned,
		MaintenanceType:   req.MaintenanceType,
		ClusterIDs:        req.ClusterIDs,
		ServerGroupIDs:    req.ServerGroupIDs,
		ServerIDs:         req.ServerIDs,
		AutoExecute:       req.AutoExecute,
		RecurrenceEnabled: req.RecurrenceEnabled,
		RecurrencePattern: req.RecurrencePattern,
		Details:           details,
		CreatedBy:         createdBy,
	}

	if err := h.repo.CreateWindow(window); err != nil {
		log.WithError(err).Error("Failed to create maintenance window")
		writeError(w, http.StatusInternalServerError, "failed to create maintenance window")
		return
	}

	writeJSON(w, http.StatusCreated, window)
}

// List handles GET /windows with an optional status filter.
func (h *WindowHandler) List(w http.ResponseWriter, r *http.Request) {
	windows, err := h.repo.ListWindows(r.URL.Query().Get("status"))
	if err != nil {
		log.WithError(err).Error("Failed to list maintenance windows")
		writeError(w, http.StatusInternalServerError, "failed to list maintenance windows")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"windows": windows,
		"count":   len(windows),
	})
}

// GetByID handles GET /windows/{id}.
func (h *WindowHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	windowID := mux.Vars(r)["id"]

	window, err := h.repo.GetWindowByID(windowID)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, window)
}

// Update handles PUT /windows/{id}. Only planned windows can be edited.
func (h *WindowHandler) Update(w http.ResponseWriter, r *http.Request) {
	windowID := mux.Vars(r)["id"]

	window, err := h.repo.GetWindowByID(windowID)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if window.Status != database.WindowStatusPlanned {
		writeError(w, http.StatusConflict, "only planned windows can be updated")
		return
	}

	var req WindowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	details := database.JSONMap(req.Details)
	if details == nil {
		details = database.JSONMap{}
	}
	if req.RecurrenceConfig != nil {
		details["recurrence_config"] = req.RecurrenceConfig
	}

	updates := map[string]interface{}{
		"title":              req.Title,
		"description":        req.Description,
		"planned_start":      req.PlannedStart.UTC(),
		"planned_end":        req.PlannedEnd.UTC(),
		"maintenance_type":   req.MaintenanceType,
		"cluster_ids":        database.StringList(req.ClusterIDs),
		"server_group_ids":   database.StringList(req.ServerGroupIDs),
		"server_ids":         database.StringList(req.ServerIDs),
		"auto_execute":       req.AutoExecute,
		"recurrence_enabled": req.RecurrenceEnabled,
		"recurrence_pattern": req.RecurrencePattern,
		"details":            details,
	}

	if err := h.repo.UpdateWindow(windowID, updates); err != nil {
		log.WithError(err).WithField("window_id", windowID).Error("Failed to update maintenance window")
		writeError(w, http.StatusInternalServerError, "failed to update maintenance window")
		return
	}

	updated, err := h.repo.GetWindowByID(windowID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to reload maintenance window")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// Delete handles DELETE /windows/{id}.
func (h *WindowHandler) Delete(w http.ResponseWriter, r *http.Request) {
	windowID := mux.Vars(r)["id"]

	if err := h.repo.DeleteWindow(windowID); err != nil {
		if strings.Contains(err.Error(), "not found") {
			writeError(w, http.StatusNotFound, err.Error())
		} else {
			writeError(w, http.StatusConflict, err.Error())
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"deleted": windowID})
}
