package planning

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func analysisWith(hostID string, blockers ...MaintenanceBlocker) HostBlockerAnalysis {
	return HostBlockerAnalysis{
		HostID:   hostID,
		HostName: hostID + ".lab.local",
		Blockers: blockers,
	}
}

func TestScoreCleanHost(t *testing.T) {
	score := Score(analysisWith("host-01"), nil)

	assert.Equal(t, PriorityClean, score.Priority)
	assert.True(t, score.CanProceed)
	assert.False(t, score.RequiresUserAction)
	assert.Empty(t, score.Reasons)
}

func TestScoreVCSAAlwaysLast(t *testing.T) {
	analysis := analysisWith("host-02",
		MaintenanceBlocker{VMID: "vm-media", VMName: "media-vm", Reason: ReasonConnectedMedia, AutoFixable: true},
		MaintenanceBlocker{VMID: "vm-vcsa", VMName: "vcsa-01", Reason: ReasonVCSA, Severity: SeverityCritical},
		MaintenanceBlocker{VMID: "vm-ft", VMName: "ft-vm", Reason: ReasonFaultTolerance},
	)

	score := Score(analysis, nil)

	// Running maximum: VCSA tier wins regardless of other blockers.
	assert.GreaterOrEqual(t, score.Priority, PriorityVCSA)
	assert.True(t, score.Summary.HasVCSA)
}

func TestScorePowerOffResolution(t *testing.T) {
	analysis := analysisWith("host-03",
		MaintenanceBlocker{VMID: "vm-gpu", VMName: "gpu-vm", Reason: ReasonVGPU, Severity: SeverityCritical},
	)

	unresolved := Score(analysis, nil)
	assert.Equal(t, PriorityClean, unresolved.Priority)
	assert.False(t, unresolved.CanProceed)
	assert.True(t, unresolved.RequiresUserAction)

	resolution := NewHostResolutionSelection()
	resolution.PowerOffVMs["vm-gpu"] = true

	resolved := Score(analysis, resolution)
	assert.Equal(t, PriorityPowerOffEligible, resolved.Priority)
	assert.True(t, resolved.CanProceed)
	assert.False(t, resolved.RequiresUserAction)
	assert.Equal(t, 1, resolved.Summary.PowerOffRequired)
}

func TestScoreFaultToleranceAndAffinity(t *testing.T) {
	analysis := analysisWith("host-04",
		MaintenanceBlocker{VMID: "vm-ft", VMName: "ft-vm", Reason: ReasonFaultTolerance},
		MaintenanceBlocker{VMID: "vm-aff", VMName: "aff-vm", Reason: ReasonAffinity},
	)

	unresolved := Score(analysis, nil)
	// Neither blocks, but unresolved FT asks for an operator decision.
	assert.True(t, unresolved.CanProceed)
	assert.True(t, unresolved.RequiresUserAction)
	assert.Equal(t, PriorityClean, unresolved.Priority)

	resolution := NewHostResolutionSelection()
	resolution.AcknowledgedVMs["vm-ft"] = true
	resolution.AcknowledgedVMs["vm-aff"] = true

	acked := Score(analysis, resolution)
	assert.Equal(t, PriorityAcknowledged, acked.Priority)
	assert.False(t, acked.RequiresUserAction)
	assert.Equal(t, 2, acked.Summary.Acknowledged)
}

func TestScoreAffinityAloneDoesNotRequireAction(t *testing.T) {
	analysis := analysisWith("host-05",
		MaintenanceBlocker{VMID: "vm-aff", VMName: "aff-vm", Reason: ReasonAffinity},
	)

	score := Score(analysis, nil)
	assert.True(t, score.CanProceed)
	assert.False(t, score.RequiresUserAction)
	assert.Len(t, score.Reasons, 1)
}

func TestScoreUnknownReasonIgnored(t *testing.T) {
	analysis := analysisWith("host-06",
		MaintenanceBlocker{VMID: "vm-x", VMName: "x", Reason: BlockerReason("quantum_entanglement")},
	)

	score := Score(analysis, nil)
	assert.Equal(t, PriorityClean, score.Priority)
	assert.True(t, score.CanProceed)
	assert.Empty(t, score.Reasons)
}

func TestScoreSkipHostSentinel(t *testing.T) {
	resolution := NewHostResolutionSelection()
	resolution.SkipHost = true

	score := Score(analysisWith("host-07",
		MaintenanceBlocker{VMID: "vm-vcsa", VMName: "vcsa-01", Reason: ReasonVCSA},
	), resolution)

	assert.Equal(t, PrioritySkipped, score.Priority)
	assert.Greater(t, score.Priority, PriorityVCSA)
}

func TestScoreAllOrderingStable(t *testing.T) {
	analyses := map[string]HostBlockerAnalysis{
		"host-c": analysisWith("host-c"),
		"host-a": analysisWith("host-a"),
		"host-b": analysisWith("host-b",
			MaintenanceBlocker{VMID: "vm-vcsa", VMName: "vcsa-01", Reason: ReasonVCSA}),
	}

	first := ScoreAll(analyses, nil)
	require.Len(t, first, 3)

	// Ascending priority, equal priorities in host id order.
	assert.Equal(t, "host-a", first[0].HostID)
	assert.Equal(t, "host-c", first[1].HostID)
	assert.Equal(t, "host-b", first[2].HostID)

	// Re-running with identical input never reorders.
	for i := 0; i < 10; i++ {
		again := ScoreAll(analyses, nil)
		assert.Equal(t, first, again)
	}
}

func TestRecommendedOrderExcludesSkipped(t *testing.T) {
	analyses := map[string]HostBlockerAnalysis{
		"host-a": analysisWith("host-a"),
		"host-b": analysisWith("host-b"),
	}
	resolutions := map[string]*HostResolutionSelection{
		"host-b": {SkipHost: true},
	}

	order := RecommendedUpdateOrder(ScoreAll(analyses, resolutions))
	assert.Equal(t, []string{"host-a"}, order)
}
