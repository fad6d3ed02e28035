package planning

import "sort"

// ResolvedVM is one denormalized VM entry inside a resolution payload.
// Carries everything the execution worker needs without a second lookup.
type ResolvedVM struct {
	VMID        string          `json:"vm_id"`
	VMName      string          `json:"vm_name"`
	Reason      BlockerReason   `json:"reason,omitempty"`
	Severity    BlockerSeverity `json:"severity,omitempty"`
	Details     string          `json:"details,omitempty"`
	Remediation string          `json:"remediation,omitempty"`
}

// HostResolutionPayload is the immutable per-host record handed to the
// execution worker through the job details. Built once, when the operator
// commits the session.
type HostResolutionPayload struct {
	HostID          string       `json:"host_id"`
	HostName        string       `json:"host_name"`
	ServerID        string       `json:"server_id,omitempty"`
	VMsToPowerOff   []ResolvedVM `json:"vms_to_power_off"`
	VMsAcknowledged []ResolvedVM `json:"vms_acknowledged"`
	SkipHost        bool         `json:"skip_host"`
}

// BuildResolutionPayloads folds operator selections with the blocker scan
// into per-host payloads. Each payload is stored under the host id and, when
// they differ, additionally under the host name and linked server id, because
// downstream consumers only know one of the three identifiers.
//
// A selected VM with no matching blocker entry (stale scan) degrades to an
// entry carrying the VM id as its name rather than failing the build.
func BuildResolutionPayloads(
	resolutions map[string]*HostResolutionSelection,
	analyses map[string]HostBlockerAnalysis,
) map[string]HostResolutionPayload {
	payloads := make(map[string]HostResolutionPayload)

	for hostID, resolution := range resolutions {
		if resolution == nil {
			continue
		}
		analysis := analyses[hostID]

		blockersByVM := make(map[string]MaintenanceBlocker, len(analysis.Blockers))
		for _, b := range analysis.Blockers {
			blockersByVM[b.VMID] = b
		}

		payload := HostResolutionPayload{
			HostID:          hostID,
			HostName:        analysis.HostName,
			ServerID:        analysis.ServerID,
			VMsToPowerOff:   resolveSelection(resolution.PowerOffVMs, blockersByVM),
			VMsAcknowledged: resolveSelection(resolution.AcknowledgedVMs, blockersByVM),
			SkipHost:        resolution.SkipHost,
		}

		payloads[hostID] = payload
		if payload.HostName != "" && payload.HostName != hostID {
			payloads[payload.HostName] = payload
		}
		if payload.ServerID != "" && payload.ServerID != hostID {
			payloads[payload.ServerID] = payload
		}
	}

	return payloads
}

func resolveSelection(selected map[string]bool, blockersByVM map[string]MaintenanceBlocker) []ResolvedVM {
	vmIDs := make([]string, 0, len(selected))
	for vmID, on := range selected {
		if on {
			vmIDs = append(vmIDs, vmID)
		}
	}
	sort.Strings(vmIDs)

	entries := make([]ResolvedVM, 0, len(vmIDs))
	for _, vmID := range vmIDs {
		if b, ok := blockersByVM[vmID]; ok {
			entries = append(entries, ResolvedVM{
				VMID:        b.VMID,
				VMName:      b.VMName,
				Reason:      b.Reason,
				Severity:    b.Severity,
				Details:     b.Details,
				Remediation: b.Remediation,
			})
			continue
		}
		// Stale or missing scan data: keep the selection, name falls back to id.
		entries = append(entries, ResolvedVM{VMID: vmID, VMName: vmID})
	}
	return entries
}

// ResolutionLookup resolves payloads by any of the three identifier
// vocabularies callers use, over a single canonical store. Replaces the
// historical triple-written map while keeping its observable behavior.
type ResolutionLookup struct {
	byHostID   map[string]*HostResolutionPayload
	byHostName map[string]string
	byServerID map[string]string
}

// NewResolutionLookup indexes the given payloads. Only canonical (host id)
// entries are stored; name and server id resolve through alias maps.
func NewResolutionLookup(resolutions map[string]*HostResolutionSelection, analyses map[string]HostBlockerAnalysis) *ResolutionLookup {
	l := &ResolutionLookup{
		byHostID:   make(map[string]*HostResolutionPayload),
		byHostName: make(map[string]string),
		byServerID: make(map[string]string),
	}
	for hostID, resolution := range resolutions {
		if resolution == nil {
			continue
		}
		analysis := analyses[hostID]
		blockersByVM := make(map[string]MaintenanceBlocker, len(analysis.Blockers))
		for _, b := range analysis.Blockers {
			blockersByVM[b.VMID] = b
		}
		payload := &HostResolutionPayload{
			HostID:          hostID,
			HostName:        analysis.HostName,
			ServerID:        analysis.ServerID,
			VMsToPowerOff:   resolveSelection(resolution.PowerOffVMs, blockersByVM),
			VMsAcknowledged: resolveSelection(resolution.AcknowledgedVMs, blockersByVM),
			SkipHost:        resolution.SkipHost,
		}
		l.byHostID[hostID] = payload
		if payload.HostName != "" {
			l.byHostName[payload.HostName] = hostID
		}
		if payload.ServerID != "" {
			l.byServerID[payload.ServerID] = hostID
		}
	}
	return l
}

// ByHostID returns the payload for a host id.
func (l *ResolutionLookup) ByHostID(hostID string) (*HostResolutionPayload, bool) {
	p, ok := l.byHostID[hostID]
	return p, ok
}

// ByHostName returns the payload for a host display name.
func (l *ResolutionLookup) ByHostName(hostName string) (*HostResolutionPayload, bool) {
	if id, ok := l.byHostName[hostName]; ok {
		return l.ByHostID(id)
	}
	return nil, false
}

// ByServerID returns the payload for a linked physical server id.
func (l *ResolutionLookup) ByServerID(serverID string) (*HostResolutionPayload, bool) {
	if id, ok := l.byServerID[serverID]; ok {
		return l.ByHostID(id)
	}
	return nil, false
}
