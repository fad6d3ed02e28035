package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/fleetforge/fleetmaint/validation"
)

// ValidationHandler serves the pre-update safety gate. Operators submit the
// current health snapshot of their target set and get the gate verdict back.
type ValidationHandler struct {
	validator *validation.MaintenancePreflightValidator
}

type clusterPreflightRequest struct {
	Hosts []validation.HostHealth `json:"hosts"`
}

type serverPreflightRequest struct {
	Servers []validation.ServerHealth `json:"servers"`
}

// ClusterPreflight handles POST /preflight/cluster.
func (h *ValidationHandler) ClusterPreflight(w http.ResponseWriter, r *http.Request) {
	var req clusterPreflightRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	writeJSON(w, http.StatusOK, h.validator.ValidateClusterPreflight(req.Hosts))
}

// ServerPreflight handles POST /preflight/servers.
func (h *ValidationHandler) ServerPreflight(w http.ResponseWriter, r *http.Request) {
	var req serverPreflightRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	writeJSON(w, http.StatusOK, h.validator.ValidateIndividualServers(req.Servers))
}
