package planning

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionRefreshPreservesSelections(t *testing.T) {
	store := NewSessionStore()
	session := store.StartSession(map[string]HostBlockerAnalysis{
		"host-1": analysisWith("host-1",
			MaintenanceBlocker{VMID: "vm-a", VMName: "app-a", Reason: ReasonPassthrough}),
	})

	require.NoError(t, store.MarkPowerOff(session.ID, "host-1", "vm-a", true))
	require.NoError(t, store.SetSkipHost(session.ID, "host-1", false))

	// A re-scan that discovers a new host must merge, not replace.
	require.NoError(t, store.Refresh(session.ID, map[string]HostBlockerAnalysis{
		"host-1": analysisWith("host-1",
			MaintenanceBlocker{VMID: "vm-a", VMName: "app-a", Reason: ReasonPassthrough}),
		"host-2": analysisWith("host-2"),
	}))

	refreshed, err := store.GetSession(session.ID)
	require.NoError(t, err)
	assert.Len(t, refreshed.Resolutions, 2)
	assert.True(t, refreshed.Resolutions["host-1"].PowerOffVMs["vm-a"], "operator selection lost on refresh")
}

func TestSessionCommitBuildsPayloadsAndEndsSession(t *testing.T) {
	store := NewSessionStore()
	session := store.StartSession(map[string]HostBlockerAnalysis{
		"host-1": {HostID: "host-1", HostName: "esx-01", ServerID: "srv-1",
			Blockers: []MaintenanceBlocker{{VMID: "vm-a", VMName: "app-a", Reason: ReasonLocalStorage}}},
	})

	require.NoError(t, store.MarkPowerOff(session.ID, "host-1", "vm-a", true))

	payloads, err := store.Commit(session.ID)
	require.NoError(t, err)
	require.Len(t, payloads["host-1"].VMsToPowerOff, 1)

	_, err = store.GetSession(session.ID)
	assert.Error(t, err)
}

func TestSessionMutationsValidateHost(t *testing.T) {
	store := NewSessionStore()
	session := store.StartSession(map[string]HostBlockerAnalysis{"host-1": analysisWith("host-1")})

	assert.Error(t, store.MarkPowerOff(session.ID, "host-9", "vm-a", true))
	assert.Error(t, store.MarkAcknowledged("no-such-session", "host-1", "vm-a", true))
}

func TestSessionScoresRecompute(t *testing.T) {
	store := NewSessionStore()
	session := store.StartSession(map[string]HostBlockerAnalysis{
		"host-1": analysisWith("host-1",
			MaintenanceBlocker{VMID: "vm-a", VMName: "app-a", Reason: ReasonVGPU}),
	})

	before, err := store.Scores(session.ID)
	require.NoError(t, err)
	assert.False(t, before[0].CanProceed)

	require.NoError(t, store.MarkPowerOff(session.ID, "host-1", "vm-a", true))

	after, err := store.Scores(session.ID)
	require.NoError(t, err)
	assert.True(t, after[0].CanProceed)
	assert.Equal(t, PriorityPowerOffEligible, after[0].Priority)
}
