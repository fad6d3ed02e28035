package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/fleetforge/fleetmaint/planning"
)

// SessionHandler serves operator maintenance-planning sessions: blocker
// scans, per-VM selections, priority scores, and the final commit.
type SessionHandler struct {
	sessions *planning.SessionStore
}

type sessionScanRequest struct {
	Analyses map[string]planning.HostBlockerAnalysis `json:"analyses"`
}

type selectionRequest struct {
	HostID string `json:"host_id"`
	VMID   string `json:"vm_id,omitempty"`
	On     bool   `json:"on"`
}

// Start handles POST /sessions: opens a session from a blocker scan.
func (h *SessionHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req sessionScanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	session := h.sessions.StartSession(req.Analyses)
	writeJSON(w, http.StatusCreated, session)
}

// Refresh handles POST /sessions/{id}/refresh: merges a new blocker scan
// into the session without losing operator selections.
func (h *SessionHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	var req sessionScanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.sessions.Refresh(sessionID, req.Analyses); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	session, err := h.sessions.GetSession(sessionID)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// MarkPowerOff handles POST /sessions/{id}/power-off.
func (h *SessionHandler) MarkPowerOff(w http.ResponseWriter, r *http.Request) {
	h.mark(w, r, h.sessions.MarkPowerOff)
}

// MarkAcknowledged handles POST /sessions/{id}/acknowledge.
func (h *SessionHandler) MarkAcknowledged(w http.ResponseWriter, r *http.Request) {
	h.mark(w, r, h.sessions.MarkAcknowledged)
}

func (h *SessionHandler) mark(w http.ResponseWriter, r *http.Request, fn func(sessionID, hostID, vmID string, on bool) error) {
	sessionID := mux.Vars(r)["id"]

	var req selectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.HostID == "" || req.VMID == "" {
		writeError(w, http.StatusBadRequest, "host_id and vm_id are required")
		return
	}

	if err := fn(sessionID, req.HostID, req.VMID, req.On); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// SkipHost handles POST /sessions/{id}/skip.
func (h *SessionHandler) SkipHost(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	var req selectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.HostID == "" {
		writeError(w, http.StatusBadRequest, "host_id is required")
		return
	}

	if err := h.sessions.SetSkipHost(sessionID, req.HostID, req.On); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// Scores handles GET /sessions/{id}/scores: current priority ordering.
func (h *SessionHandler) Scores(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	scores, err := h.sessions.Scores(sessionID)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"scores":       scores,
		"update_order": planning.RecommendedUpdateOrder(scores),
	})
}

// Commit handles POST /sessions/{id}/commit: builds the resolution payloads
// and closes the session.
func (h *SessionHandler) Commit(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	payloads, err := h.sessions.Commit(sessionID)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"resolutions": payloads,
	})
}

// Discard handles DELETE /sessions/{id}.
func (h *SessionHandler) Discard(w http.ResponseWriter, r *http.Request) {
	h.sessions.Discard(mux.Vars(r)["id"])
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
