package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func healthyHosts(n int) []HostHealth {
	hosts := make([]HostHealth, n)
	for i := range hosts {
		hosts[i] = HostHealth{HostID: "host", HostName: "host"}
	}
	return hosts
}

func TestClusterPreflightStrict(t *testing.T) {
	v := NewMaintenancePreflightValidator(PreflightStrict)

	hosts := healthyHosts(4)
	assert.True(t, v.ValidateClusterPreflight(hosts).OverallPassed)

	hosts[2].Degraded = true
	report := v.ValidateClusterPreflight(hosts)
	assert.False(t, report.OverallPassed)
	assert.Equal(t, 1, report.CriticalFailures)
}

func TestClusterPreflightRelaxedToleratesOne(t *testing.T) {
	v := NewMaintenancePreflightValidator(PreflightRelaxed)

	hosts := healthyHosts(4)
	hosts[0].Degraded = true
	assert.True(t, v.ValidateClusterPreflight(hosts).OverallPassed)

	hosts[1].Degraded = true
	assert.False(t, v.ValidateClusterPreflight(hosts).OverallPassed)
}

func TestClusterPreflightRejectsSingleHost(t *testing.T) {
	for _, mode := range []PreflightMode{PreflightStrict, PreflightRelaxed} {
		v := NewMaintenancePreflightValidator(mode)
		report := v.ValidateClusterPreflight(healthyHosts(1))
		assert.False(t, report.OverallPassed, "mode %s", mode)
	}
}

func TestIndividualServersRequireAllConnected(t *testing.T) {
	v := NewMaintenancePreflightValidator(PreflightStrict)

	servers := []ServerHealth{
		{ServerID: "srv-1", Hostname: "r640-01", Connected: true},
		{ServerID: "srv-2", Hostname: "r640-02", Connected: true},
	}
	assert.True(t, v.ValidateIndividualServers(servers).OverallPassed)

	servers[1].Connected = false
	report := v.ValidateIndividualServers(servers)
	assert.False(t, report.OverallPassed)
	assert.Contains(t, report.Results[0].Resources, "r640-02")
}

func TestIndividualServersEmptySelection(t *testing.T) {
	v := NewMaintenancePreflightValidator(PreflightStrict)
	assert.False(t, v.ValidateIndividualServers(nil).OverallPassed)
}
