// Package config loads maintd configuration from a YAML file with
// environment variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"

	"github.com/fleetforge/fleetmaint/database"
)

// SchedulerConfig controls the maintenance scheduler loop.
type SchedulerConfig struct {
	// CheckInterval is how often the scheduler scans for due windows.
	CheckInterval time.Duration `yaml:"check_interval"`

	// LeaseTTL is the advisory lease lifetime. A crashed holder's lease is
	// taken over after this expires.
	LeaseTTL time.Duration `yaml:"lease_ttl"`

	// OrphanGracePeriod is how old a task-less pending job must be before
	// reconciliation fails it.
	OrphanGracePeriod time.Duration `yaml:"orphan_grace_period"`

	// InterHostWait is the pause between hosts in a rolling cluster update.
	InterHostWait time.Duration `yaml:"inter_host_wait"`

	// PreflightMode selects the safety gate policy: strict or relaxed.
	PreflightMode string `yaml:"preflight_mode"`
}

// NotificationConfig controls completion notifications.
type NotificationConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Endpoint string `yaml:"endpoint"`
}

// APIConfig controls the REST server.
type APIConfig struct {
	Port int `yaml:"port"`
}

// Config is the full maintd configuration.
type Config struct {
	Database     database.MariaDBConfig `yaml:"database"`
	Scheduler    SchedulerConfig        `yaml:"scheduler"`
	Notification NotificationConfig     `yaml:"notification"`
	API          APIConfig              `yaml:"api"`
	LogLevel     string                 `yaml:"log_level"`
}

// Default returns the built-in defaults, applied before file and env
// overrides.
func Default() *Config {
	return &Config{
		Database: database.MariaDBConfig{
			Host:     "localhost",
			Port:     3306,
			Database: "fleetmaint",
			Username: "fleetmaint",
		},
		Scheduler: SchedulerConfig{
			CheckInterval:     60 * time.Second,
			LeaseTTL:          5 * time.Minute,
			OrphanGracePeriod: 10 * time.Minute,
			InterHostWait:     2 * time.Minute,
			PreflightMode:     "strict",
		},
		Notification: NotificationConfig{},
		API: APIConfig{
			Port: 8082,
		},
		LogLevel: "info",
	}
}

// Load reads configuration from the given YAML file (if it exists), then
// applies environment overrides and validates.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
			log.WithField("path", path).Warn("Config file not found, using defaults")
		} else {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
			log.WithField("path", path).Info("Loaded configuration file")
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks configuration consistency.
func (c *Config) Validate() error {
	if c.Scheduler.CheckInterval < time.Second {
		return fmt.Errorf("scheduler check interval must be at least 1s, got %s", c.Scheduler.CheckInterval)
	}
	if c.Scheduler.LeaseTTL <= c.Scheduler.CheckInterval {
		return fmt.Errorf("lease TTL (%s) must exceed check interval (%s)", c.Scheduler.LeaseTTL, c.Scheduler.CheckInterval)
	}
	switch c.Scheduler.PreflightMode {
	case "strict", "relaxed":
	default:
		return fmt.Errorf("preflight mode must be strict or relaxed, got %q", c.Scheduler.PreflightMode)
	}
	if c.API.Port <= 0 || c.API.Port > 65535 {
		return fmt.Errorf("API port must be between 1 and 65535, got %d", c.API.Port)
	}
	if c.Notification.Enabled && c.Notification.Endpoint == "" {
		return fmt.Errorf("notification endpoint required when notifications are enabled")
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("FLEETMAINT_DB_HOST"); v != "" {
		c.Database.Host = v
	}
	if v := os.Getenv("FLEETMAINT_DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Database.Port = port
		}
	}
	if v := os.Getenv("FLEETMAINT_DB_NAME"); v != "" {
		c.Database.Database = v
	}
	if v := os.Getenv("FLEETMAINT_DB_USER"); v != "" {
		c.Database.Username = v
	}
	if v := os.Getenv("FLEETMAINT_DB_PASSWORD"); v != "" {
		c.Database.Password = v
	}
	if v := os.Getenv("FLEETMAINT_API_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.API.Port = port
		}
	}
	if v := os.Getenv("FLEETMAINT_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("FLEETMAINT_NOTIFY_ENDPOINT"); v != "" {
		c.Notification.Endpoint = v
		c.Notification.Enabled = true
	}
}
