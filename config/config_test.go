package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 60*time.Second, cfg.Scheduler.CheckInterval)
	assert.Equal(t, "strict", cfg.Scheduler.PreflightMode)
	assert.Equal(t, 8082, cfg.API.Port)
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "maintd.yaml")

	content := `
database:
  host: db.internal
  port: 3307
scheduler:
  check_interval: 30s
  lease_ttl: 2m
  preflight_mode: relaxed
api:
  port: 9090
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 3307, cfg.Database.Port)
	assert.Equal(t, 30*time.Second, cfg.Scheduler.CheckInterval)
	assert.Equal(t, "relaxed", cfg.Scheduler.PreflightMode)
	assert.Equal(t, 9090, cfg.API.Port)
	// Untouched defaults survive
	assert.Equal(t, 10*time.Minute, cfg.Scheduler.OrphanGracePeriod)
}

func TestEnvOverridesFile(t *testing.T) {
	t.Setenv("FLEETMAINT_DB_HOST", "override.internal")
	t.Setenv("FLEETMAINT_NOTIFY_ENDPOINT", "https://hooks.internal/maint")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "override.internal", cfg.Database.Host)
	assert.True(t, cfg.Notification.Enabled)
	assert.Equal(t, "https://hooks.internal/maint", cfg.Notification.Endpoint)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := Default()
	cfg.Scheduler.PreflightMode = "lenient"
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Scheduler.LeaseTTL = 10 * time.Second
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Notification.Enabled = true
	assert.Error(t, cfg.Validate())
}
