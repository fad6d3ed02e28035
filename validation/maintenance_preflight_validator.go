// Package validation implements the safety gate applied before an update
// sequence is allowed to start. The checks are advisory: they run once per
// operator-triggered session and are not re-evaluated by the scheduler at
// execution time. Host health can change between gate and execution; the
// execution worker re-checks connectivity per host.
package validation

import (
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
)

// PreflightMode selects how many already-degraded hosts a rolling update
// tolerates before it starts.
type PreflightMode string

const (
	// PreflightStrict requires every target host healthy before starting.
	PreflightStrict PreflightMode = "strict"
	// PreflightRelaxed tolerates at most one already-degraded host.
	PreflightRelaxed PreflightMode = "relaxed"
)

// HostHealth is the health snapshot of one host in the target cluster/group.
type HostHealth struct {
	HostID   string `json:"host_id"`
	HostName string `json:"host_name"`
	Degraded bool   `json:"degraded"`
}

// ServerHealth is the connectivity snapshot of one explicitly selected server.
type ServerHealth struct {
	ServerID  string `json:"server_id"`
	Hostname  string `json:"hostname"`
	Connected bool   `json:"connected"`
}

// ValidationResult is the outcome of a single gate check.
type ValidationResult struct {
	Category  string   `json:"category"`
	CheckName string   `json:"check_name"`
	Passed    bool     `json:"passed"`
	Message   string   `json:"message"`
	Details   string   `json:"details,omitempty"`
	Fix       string   `json:"fix,omitempty"`
	Severity  string   `json:"severity"` // critical, warning, info
	Resources []string `json:"resources,omitempty"`
}

// ValidationReport aggregates all gate checks for one target set.
type ValidationReport struct {
	Timestamp        time.Time          `json:"timestamp"`
	OverallPassed    bool               `json:"overall_passed"`
	TotalChecks      int                `json:"total_checks"`
	PassedChecks     int                `json:"passed_checks"`
	FailedChecks     int                `json:"failed_checks"`
	CriticalFailures int                `json:"critical_failures"`
	Results          []ValidationResult `json:"results"`
}

// MaintenancePreflightValidator applies the safety gate policies.
type MaintenancePreflightValidator struct {
	mode PreflightMode
}

// NewMaintenancePreflightValidator creates a validator for the given mode.
func NewMaintenancePreflightValidator(mode PreflightMode) *MaintenancePreflightValidator {
	return &MaintenancePreflightValidator{mode: mode}
}

// ValidateClusterPreflight gates a rolling update over a cluster or server
// group. Strict mode requires zero degraded hosts; relaxed tolerates one.
// A single-host target is always rejected: with no redundancy, any failure
// during the rolling sequence is an outage.
func (v *MaintenancePreflightValidator) ValidateClusterPreflight(hosts []HostHealth) *ValidationReport {
	report := newReport()

	if len(hosts) <= 1 {
		report.add(ValidationResult{
			Category:  "Redundancy",
			CheckName: "Minimum Host Count",
			Passed:    false,
			Message:   fmt.Sprintf("rolling update requires at least 2 hosts, target has %d", len(hosts)),
			Fix:       "Add the host to a multi-host cluster or update it as an individual server",
			Severity:  "critical",
		})
		report.finish()
		return report
	}

	degraded := make([]string, 0)
	for _, h := range hosts {
		if h.Degraded {
			degraded = append(degraded, h.HostName)
		}
	}

	allowed := 0
	if v.mode == PreflightRelaxed {
		allowed = 1
	}

	result := ValidationResult{
		Category:  "Host Health",
		CheckName: fmt.Sprintf("Degraded Host Tolerance (%s)", v.mode),
		Passed:    len(degraded) <= allowed,
		Severity:  "critical",
		Resources: degraded,
	}
	if result.Passed {
		result.Message = fmt.Sprintf("%d of %d hosts degraded, within tolerance of %d", len(degraded), len(hosts), allowed)
		result.Severity = "info"
	} else {
		result.Message = fmt.Sprintf("%d of %d hosts already degraded, tolerance is %d", len(degraded), len(hosts), allowed)
		result.Fix = "Restore degraded hosts to health before starting, or use relaxed mode if one degraded host is acceptable"
	}
	report.add(result)
	report.finish()

	log.WithFields(log.Fields{
		"mode":     v.mode,
		"hosts":    len(hosts),
		"degraded": len(degraded),
		"passed":   report.OverallPassed,
	}).Info("Cluster preflight validation complete")

	return report
}

// ValidateIndividualServers gates an update of explicitly selected servers.
// Every server must be currently connected; a single disconnected server
// blocks the whole operation.
func (v *MaintenancePreflightValidator) ValidateIndividualServers(servers []ServerHealth) *ValidationReport {
	report := newReport()

	if len(servers) == 0 {
		report.add(ValidationResult{
			Category:  "Target Selection",
			CheckName: "Server Count",
			Passed:    false,
			Message:   "no servers selected",
			Severity:  "critical",
		})
		report.finish()
		return report
	}

	disconnected := make([]string, 0)
	for _, s := range servers {
		if !s.Connected {
			disconnected = append(disconnected, s.Hostname)
		}
	}

	result := ValidationResult{
		Category:  "Connectivity",
		CheckName: "All Servers Connected",
		Passed:    len(disconnected) == 0,
		Severity:  "critical",
		Resources: disconnected,
	}
	if result.Passed {
		result.Message = fmt.Sprintf("all %d selected servers connected", len(servers))
		result.Severity = "info"
	} else {
		result.Message = fmt.Sprintf("%d of %d selected servers not connected", len(disconnected), len(servers))
		result.Fix = "Re-establish management connectivity or deselect the unreachable servers"
	}
	report.add(result)
	report.finish()

	log.WithFields(log.Fields{
		"servers":      len(servers),
		"disconnected": len(disconnected),
		"passed":       report.OverallPassed,
	}).Info("Individual server validation complete")

	return report
}

func newReport() *ValidationReport {
	return &ValidationReport{
		Timestamp: time.Now().UTC(),
		Results:   make([]ValidationResult, 0),
	}
}

func (r *ValidationReport) add(result ValidationResult) {
	r.Results = append(r.Results, result)
}

func (r *ValidationReport) finish() {
	r.TotalChecks = len(r.Results)
	for _, result := range r.Results {
		if result.Passed {
			r.PassedChecks++
		} else {
			r.FailedChecks++
			if result.Severity == "critical" {
				r.CriticalFailures++
			}
		}
	}
	r.OverallPassed = r.CriticalFailures == 0
}
