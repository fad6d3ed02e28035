// Package planning implements the maintenance planning core: blocker
// classification, host priority scoring, and aggregation of operator
// resolutions into the payload handed to the execution worker.
// All functions in this package are pure and side-effect free; persistence
// and orchestration live in the services package.
package planning

// BlockerReason identifies why a VM prevents its host from safely entering
// maintenance. The set is closed; scanners must not invent new reasons.
type BlockerReason string

const (
	ReasonVCSA           BlockerReason = "vcsa"
	ReasonPassthrough    BlockerReason = "passthrough"
	ReasonLocalStorage   BlockerReason = "local_storage"
	ReasonFaultTolerance BlockerReason = "fault_tolerance"
	ReasonVGPU           BlockerReason = "vgpu"
	ReasonAffinity       BlockerReason = "affinity"
	ReasonCriticalInfra  BlockerReason = "critical_infra"
	ReasonConnectedMedia BlockerReason = "connected_media"
)

// BlockerSeverity classifies how hard a blocker is.
type BlockerSeverity string

const (
	SeverityCritical BlockerSeverity = "critical"
	SeverityWarning  BlockerSeverity = "warning"
)

// MaintenanceBlocker describes one VM-level condition that prevents safe
// evacuation of a host.
type MaintenanceBlocker struct {
	VMID        string          `json:"vm_id"`
	VMName      string          `json:"vm_name"`
	Reason      BlockerReason   `json:"reason"`
	Severity    BlockerSeverity `json:"severity"`
	Details     string          `json:"details,omitempty"`
	Remediation string          `json:"remediation,omitempty"`
	AutoFixable bool            `json:"auto_fixable"`
}

// HostBlockerAnalysis is the per-host snapshot produced by the external scan.
// Consumed read-only by the scorer; re-fetched on every poll.
type HostBlockerAnalysis struct {
	HostID               string               `json:"host_id"`
	HostName             string               `json:"host_name"`
	ServerID             string               `json:"server_id,omitempty"`
	CanEnterMaintenance  bool                 `json:"can_enter_maintenance"`
	Blockers             []MaintenanceBlocker `json:"blockers"`
	Warnings             []string             `json:"warnings,omitempty"`
	PoweredOnVMs         int                  `json:"powered_on_vms"`
	MigratableVMs        int                  `json:"migratable_vms"`
	BlockedVMs           int                  `json:"blocked_vms"`
	EstimatedEvacSeconds int                  `json:"estimated_evac_seconds"`
}

// BlockersByReason partitions the host's blocker list by reason. Consumers
// deciding whether a resolution category is relevant at all (e.g. a dialog
// step with zero entries) use this instead of re-scanning the flat list.
func (a *HostBlockerAnalysis) BlockersByReason() map[BlockerReason][]MaintenanceBlocker {
	out := make(map[BlockerReason][]MaintenanceBlocker)
	for _, b := range a.Blockers {
		out[b.Reason] = append(out[b.Reason], b)
	}
	return out
}

// HostResolutionSelection holds the operator's decisions for one host within
// a maintenance session. Created empty at session start; mutated only through
// the session store; preserved across re-scans that add hosts.
type HostResolutionSelection struct {
	PowerOffVMs     map[string]bool `json:"power_off_vms"`
	AcknowledgedVMs map[string]bool `json:"acknowledged_vms"`
	SkipHost        bool            `json:"skip_host"`
}

// NewHostResolutionSelection returns an empty selection.
func NewHostResolutionSelection() *HostResolutionSelection {
	return &HostResolutionSelection{
		PowerOffVMs:     make(map[string]bool),
		AcknowledgedVMs: make(map[string]bool),
	}
}

func (s *HostResolutionSelection) isPowerOff(vmID string) bool {
	return s != nil && s.PowerOffVMs[vmID]
}

func (s *HostResolutionSelection) isAcknowledged(vmID string) bool {
	return s != nil && s.AcknowledgedVMs[vmID]
}
