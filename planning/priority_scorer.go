package planning

import (
	"fmt"
	"sort"
)

// Priority tiers for host update ordering. Lower updates first. The relative
// ordering of the tiers is the contract; the literal values are not.
// Priority is a running maximum across a host's blockers and never decreases
// once raised.
const (
	PriorityClean            = 10   // no blockers, eligible immediately
	PriorityAutoFixable      = 20   // connected media the worker can detach itself
	PriorityPowerOffEligible = 40   // blocker resolved by an operator power-off decision
	PriorityAcknowledged     = 60   // FT/affinity blocker acknowledged by the operator
	PriorityCriticalInfra    = 80   // host carries critical infrastructure VMs
	PriorityVCSA             = 90   // management appliance host, always updated last
	PrioritySkipped          = 1000 // sentinel: operator excluded the host entirely
)

// HostBlockerSummary collects per-category flags and resolution counts for
// one host, for display alongside the score.
type HostBlockerSummary struct {
	HasVCSA           bool `json:"has_vcsa"`
	HasPassthrough    bool `json:"has_passthrough"`
	HasLocalStorage   bool `json:"has_local_storage"`
	HasFaultTolerance bool `json:"has_fault_tolerance"`
	HasVGPU           bool `json:"has_vgpu"`
	HasAffinity       bool `json:"has_affinity"`
	HasCriticalInfra  bool `json:"has_critical_infra"`
	HasConnectedMedia bool `json:"has_connected_media"`
	PowerOffRequired  int  `json:"power_off_required"`
	Acknowledged      int  `json:"acknowledged"`
}

// HostPriorityScore is the derived, recomputed-on-every-change score for one
// host. It is a pure function of (HostBlockerAnalysis, HostResolutionSelection):
// recomputing with the same inputs yields an identical score and identical
// reason ordering.
type HostPriorityScore struct {
	HostID             string             `json:"host_id"`
	HostName           string             `json:"host_name"`
	Priority           int                `json:"priority"`
	Reasons            []string           `json:"reasons"`
	Summary            HostBlockerSummary `json:"summary"`
	CanProceed         bool               `json:"can_proceed"`
	RequiresUserAction bool               `json:"requires_user_action"`
}

// Score classifies a host's blockers against the operator's selection and
// produces its update priority. resolution may be nil (no decisions yet).
func Score(analysis HostBlockerAnalysis, resolution *HostResolutionSelection) HostPriorityScore {
	score := HostPriorityScore{
		HostID:     analysis.HostID,
		HostName:   analysis.HostName,
		Priority:   PriorityClean,
		Reasons:    []string{},
		CanProceed: true,
	}

	raise := func(p int) {
		if p > score.Priority {
			score.Priority = p
		}
	}

	for _, blocker := range analysis.Blockers {
		switch blocker.Reason {
		case ReasonVCSA:
			score.Summary.HasVCSA = true
			raise(PriorityVCSA)
			score.Reasons = append(score.Reasons,
				fmt.Sprintf("hosts management appliance %s: must be updated last, after a relocation target exists", blocker.VMName))

		case ReasonPassthrough, ReasonVGPU, ReasonLocalStorage:
			switch blocker.Reason {
			case ReasonPassthrough:
				score.Summary.HasPassthrough = true
			case ReasonVGPU:
				score.Summary.HasVGPU = true
			case ReasonLocalStorage:
				score.Summary.HasLocalStorage = true
			}
			if resolution.isPowerOff(blocker.VMID) {
				score.Summary.PowerOffRequired++
				raise(PriorityPowerOffEligible)
				score.Reasons = append(score.Reasons,
					fmt.Sprintf("%s will be powered off before maintenance (%s)", blocker.VMName, blocker.Reason))
			} else {
				score.RequiresUserAction = true
				score.CanProceed = false
				score.Reasons = append(score.Reasons,
					fmt.Sprintf("%s pins the host (%s): power off or migrate before updating", blocker.VMName, blocker.Reason))
			}

		case ReasonFaultTolerance, ReasonAffinity:
			if blocker.Reason == ReasonFaultTolerance {
				score.Summary.HasFaultTolerance = true
			} else {
				score.Summary.HasAffinity = true
			}
			if resolution.isAcknowledged(blocker.VMID) {
				score.Summary.Acknowledged++
				raise(PriorityAcknowledged)
				score.Reasons = append(score.Reasons,
					fmt.Sprintf("%s constraint on %s acknowledged by operator", blocker.Reason, blocker.VMName))
			} else {
				// Unacknowledged FT/affinity never blocks the host, but FT
				// still wants an explicit operator decision.
				if blocker.Reason == ReasonFaultTolerance {
					score.RequiresUserAction = true
				}
				score.Reasons = append(score.Reasons,
					fmt.Sprintf("%s protection on %s will be degraded during maintenance", blocker.Reason, blocker.VMName))
			}

		case ReasonCriticalInfra:
			score.Summary.HasCriticalInfra = true
			raise(PriorityCriticalInfra)
			score.Reasons = append(score.Reasons,
				fmt.Sprintf("%s provides critical infrastructure: host deferred to the end of the sequence", blocker.VMName))

		case ReasonConnectedMedia:
			score.Summary.HasConnectedMedia = true
			if blocker.AutoFixable {
				raise(PriorityAutoFixable)
				score.Reasons = append(score.Reasons,
					fmt.Sprintf("connected media on %s will be detached automatically", blocker.VMName))
			}

		default:
			// Unknown reasons are non-blocking. Permissive by contract so a
			// newer scanner never wedges an older engine.
		}
	}

	if resolution != nil && resolution.SkipHost {
		score.Priority = PrioritySkipped
		score.Reasons = append(score.Reasons, "host skipped by operator")
	}

	return score
}

// ScoreAll scores every analyzed host and returns the fleet ordering,
// ascending by priority. Hosts are visited in host id order so equal
// priorities keep a deterministic relative order across runs.
func ScoreAll(analyses map[string]HostBlockerAnalysis, resolutions map[string]*HostResolutionSelection) []HostPriorityScore {
	hostIDs := make([]string, 0, len(analyses))
	for id := range analyses {
		hostIDs = append(hostIDs, id)
	}
	sort.Strings(hostIDs)

	scores := make([]HostPriorityScore, 0, len(hostIDs))
	for _, id := range hostIDs {
		scores = append(scores, Score(analyses[id], resolutions[id]))
	}

	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].Priority < scores[j].Priority
	})
	return scores
}

// RecommendedUpdateOrder returns host ids in update order, excluding hosts
// the operator skipped.
func RecommendedUpdateOrder(scores []HostPriorityScore) []string {
	order := make([]string, 0, len(scores))
	for _, s := range scores {
		if s.Priority >= PrioritySkipped {
			continue
		}
		order = append(order, s.HostID)
	}
	return order
}
