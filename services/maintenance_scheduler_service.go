package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"github.com/fleetforge/fleetmaint/database"
	"github.com/fleetforge/fleetmaint/joblog"
	"github.com/fleetforge/fleetmaint/recurrence"
)

// =============================================================================
// MAINTENANCE SCHEDULER SERVICE - window lifecycle orchestration
// =============================================================================
// Each RunOnce is a stateless pass: collect due windows, materialize recurring
// instances, create jobs for the execution worker, and scan in-progress
// windows for completion. Window failures are isolated; only a failure to
// enumerate windows aborts the pass.

// schedulerLeaseName is the single advisory lease serializing scheduler runs.
const schedulerLeaseName = "maintenance-scheduler"

// Maintenance-type to job-type map for non-cluster targets. Cluster targets
// bypass this entirely and are forced to rolling_cluster_update.
var maintenanceJobTypes = map[string]string{
	"firmware_update":      "firmware_update",
	"host_maintenance":     "prepare_host_for_update",
	"cluster_update":       "rolling_cluster_update",
	"emergency_patch":      "firmware_update",
	"safety_check":         "cluster_safety_check",
	"full_update":          "full_server_update",
	"esxi_firmware_update": "firmware_update",
	"esxi_full_update":     "full_server_update",
}

// WindowStore is the maintenance window persistence surface the scheduler
// needs.
type WindowStore interface {
	CreateWindow(window *database.MaintenanceWindow) error
	UpdateWindow(windowID string, updates map[string]interface{}) error
	GetDueOneTimeWindows(now time.Time) ([]database.MaintenanceWindow, error)
	GetRecurringTemplates() ([]database.MaintenanceWindow, error)
	GetInProgressWindows() ([]database.MaintenanceWindow, error)
	HasInstanceForOccurrence(templateID string, plannedStart time.Time) (bool, error)
}

// JobStore is the job persistence surface the scheduler needs.
type JobStore interface {
	CreateJob(job *database.Job) error
	CreateTasks(jobID string, serverIDs []string) error
	GetJobsByIDs(jobIDs []string) ([]database.Job, error)
	UpdateJobStatus(jobID, status, errorMessage string) error
	GetJobsWithoutTasks(olderThan time.Time) ([]database.Job, error)
}

// TargetResolver expands window target selectors into server IDs.
type TargetResolver interface {
	ResolveTargetServers(clusterIDs, serverGroupIDs, serverIDs []string) ([]string, error)
}

// LeaseStore is the advisory lease surface the scheduler needs.
type LeaseStore interface {
	TryAcquire(name, holderID string, ttl time.Duration) (bool, error)
	Release(name, holderID string) error
}

// AuditTracker is the joblog surface the scheduler needs. *joblog.Tracker
// satisfies it.
type AuditTracker interface {
	StartJob(ctx context.Context, input joblog.JobStart) (context.Context, string, error)
	RunStep(ctx context.Context, jobID string, name string, fn func(ctx context.Context) error) error
	MarkJobProgress(ctx context.Context, jobID string, percent uint8) error
	EndJob(ctx context.Context, jobID string, status joblog.Status, err error) error
}

// SchedulerSettings tunes one scheduler instance.
type SchedulerSettings struct {
	CheckInterval     time.Duration
	LeaseTTL          time.Duration
	OrphanGracePeriod time.Duration
	InterHostWait     time.Duration
}

// WindowResult is the per-window outcome of one scheduler pass.
type WindowResult struct {
	WindowID string `json:"window_id"`
	Title    string `json:"title"`
	Status   string `json:"status"`
	JobID    string `json:"job_id,omitempty"`
	Servers  int    `json:"servers"`
	Error    string `json:"error,omitempty"`
}

// RunSummary reports one scheduler pass.
type RunSummary struct {
	StartedAt             time.Time      `json:"started_at"`
	Duration              time.Duration  `json:"duration"`
	Skipped               bool           `json:"skipped"`
	WindowsProcessed      int            `json:"windows_processed"`
	WindowsExecuted       int            `json:"windows_executed"`
	WindowsFailed         int            `json:"windows_failed"`
	WindowsCompleted      int            `json:"windows_completed"`
	InstancesMaterialized int            `json:"instances_materialized"`
	OrphanedJobsFailed    int            `json:"orphaned_jobs_failed"`
	Results               []WindowResult `json:"results"`
}

// MaintenanceSchedulerService drives the maintenance window lifecycle.
type MaintenanceSchedulerService struct {
	windows  WindowStore
	jobs     JobStore
	servers  TargetResolver
	leases   LeaseStore
	tracker  AuditTracker
	notifier Notifier
	settings SchedulerSettings

	holderID string
	now      func() time.Time

	cron      *cron.Cron
	cronEntry cron.EntryID
	mu        sync.Mutex
	isRunning bool
}

// NewMaintenanceSchedulerService creates a scheduler service.
func NewMaintenanceSchedulerService(
	windows WindowStore,
	jobs JobStore,
	servers TargetResolver,
	leases LeaseStore,
	tracker AuditTracker,
	notifier Notifier,
	settings SchedulerSettings,
) *MaintenanceSchedulerService {
	if notifier == nil {
		notifier = NoopNotifier{}
	}
	return &MaintenanceSchedulerService{
		windows:  windows,
		jobs:     jobs,
		servers:  servers,
		leases:   leases,
		tracker:  tracker,
		notifier: notifier,
		settings: settings,
		holderID: uuid.New().String(),
		now:      time.Now,
		cron:     cron.New(),
	}
}

// Start registers the periodic RunOnce trigger.
func (s *MaintenanceSchedulerService) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("maintenance scheduler already running")
	}

	interval := s.settings.CheckInterval
	if interval <= 0 {
		interval = 60 * time.Second
	}

	entryID, err := s.cron.AddFunc(fmt.Sprintf("@every %s", interval), func() {
		if _, err := s.RunOnce(context.Background()); err != nil {
			log.WithError(err).Error("Scheduler pass failed")
		}
	})
	if err != nil {
		return fmt.Errorf("failed to register scheduler trigger: %w", err)
	}

	s.cronEntry = entryID
	s.cron.Start()
	s.isRunning = true

	log.WithFields(log.Fields{
		"interval":  interval,
		"holder_id": s.holderID,
	}).Info("🚀 Maintenance scheduler started")
	return nil
}

// Stop halts the periodic trigger and waits for a running pass to finish.
func (s *MaintenanceSchedulerService) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return fmt.Errorf("maintenance scheduler not running")
	}

	s.cron.Remove(s.cronEntry)
	cronCtx := s.cron.Stop()

	select {
	case <-cronCtx.Done():
	case <-time.After(60 * time.Second):
		log.Warn("Timeout waiting for scheduler pass to complete")
	case <-ctx.Done():
		return ctx.Err()
	}

	s.isRunning = false
	log.Info("✅ Maintenance scheduler stopped")
	return nil
}

// RunOnce executes one scheduler pass. A pass that cannot take the advisory
// lease returns a summary with Skipped set and does no work.
func (s *MaintenanceSchedulerService) RunOnce(ctx context.Context) (*RunSummary, error) {
	now := s.now().UTC()
	summary := &RunSummary{StartedAt: now}

	acquired, err := s.leases.TryAcquire(schedulerLeaseName, s.holderID, s.settings.LeaseTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire scheduler lease: %w", err)
	}
	if !acquired {
		summary.Skipped = true
		log.WithField("holder_id", s.holderID).Info("Scheduler lease held elsewhere, skipping pass")
		return summary, nil
	}
	defer func() {
		if err := s.leases.Release(schedulerLeaseName, s.holderID); err != nil {
			log.WithError(err).Warn("Failed to release scheduler lease")
		}
	}()

	ctx, auditID, err := s.tracker.StartJob(ctx, joblog.JobStart{
		JobType:   "scheduler",
		Operation: "scheduler-run",
		Owner:     ownerSystem(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start scheduler audit: %w", err)
	}

	runErr := s.runSteps(ctx, auditID, now, summary)

	status := joblog.StatusCompleted
	if runErr != nil {
		status = joblog.StatusFailed
	}
	if endErr := s.tracker.EndJob(ctx, auditID, status, runErr); endErr != nil {
		log.WithError(endErr).Warn("Failed to close scheduler audit job")
	}

	summary.Duration = s.now().UTC().Sub(now)
	if runErr != nil {
		return nil, runErr
	}

	log.WithFields(log.Fields{
		"processed":    summary.WindowsProcessed,
		"executed":     summary.WindowsExecuted,
		"failed":       summary.WindowsFailed,
		"completed":    summary.WindowsCompleted,
		"materialized": summary.InstancesMaterialized,
		"duration":     summary.Duration,
	}).Info("Scheduler pass complete")
	return summary, nil
}

func (s *MaintenanceSchedulerService) runSteps(ctx context.Context, auditID string, now time.Time, summary *RunSummary) error {
	if err := s.tracker.RunStep(ctx, auditID, "reconcile-orphans", func(ctx context.Context) error {
		return s.reconcileOrphanedJobs(ctx, now, summary)
	}); err != nil {
		// Reconciliation problems do not block window processing.
		log.WithError(err).Warn("Orphaned job reconciliation failed")
	}
	s.markProgress(ctx, auditID, 25)

	var batch []database.MaintenanceWindow
	if err := s.tracker.RunStep(ctx, auditID, "collect-due-windows", func(ctx context.Context) error {
		due, err := s.windows.GetDueOneTimeWindows(now)
		if err != nil {
			return fmt.Errorf("failed to enumerate due windows: %w", err)
		}
		// Planned interval must contain now; past windows whose end already
		// elapsed are left alone for operator review.
		for _, w := range due {
			if w.PlannedEnd.After(now) {
				batch = append(batch, w)
			}
		}

		materialized, err := s.materializeRecurring(ctx, now)
		if err != nil {
			return err
		}
		summary.InstancesMaterialized = len(materialized)
		for _, w := range materialized {
			if !w.PlannedStart.After(now) && w.PlannedEnd.After(now) {
				batch = append(batch, w)
			}
		}
		return nil
	}); err != nil {
		return err
	}
	s.markProgress(ctx, auditID, 50)

	if err := s.tracker.RunStep(ctx, auditID, "execute-windows", func(ctx context.Context) error {
		for i := range batch {
			result := s.executeWindow(ctx, &batch[i])
			summary.Results = append(summary.Results, result)
			summary.WindowsProcessed++
			if result.Status == database.WindowStatusFailed {
				summary.WindowsFailed++
			} else {
				summary.WindowsExecuted++
			}
		}
		return nil
	}); err != nil {
		return err
	}
	s.markProgress(ctx, auditID, 75)

	if err := s.tracker.RunStep(ctx, auditID, "scan-window-status", func(ctx context.Context) error {
		return s.scanInProgressWindows(ctx, now, summary)
	}); err != nil {
		return err
	}
	s.markProgress(ctx, auditID, 100)
	return nil
}

// markProgress stamps the audit job's completion percentage after each phase.
// Progress is cosmetic; a stamp failure never affects the pass.
func (s *MaintenanceSchedulerService) markProgress(ctx context.Context, auditID string, percent uint8) {
	if err := s.tracker.MarkJobProgress(ctx, auditID, percent); err != nil {
		log.WithError(err).WithField("percent", percent).Debug("Failed to stamp scheduler progress")
	}
}

// reconcileOrphanedJobs fails pending jobs that never received tasks. These
// come from a crash between the job insert and the task inserts.
func (s *MaintenanceSchedulerService) reconcileOrphanedJobs(ctx context.Context, now time.Time, summary *RunSummary) error {
	cutoff := now.Add(-s.settings.OrphanGracePeriod)
	orphans, err := s.jobs.GetJobsWithoutTasks(cutoff)
	if err != nil {
		return fmt.Errorf("failed to query orphaned jobs: %w", err)
	}

	for _, job := range orphans {
		if err := s.jobs.UpdateJobStatus(job.ID, database.JobStatusFailed, "orphaned: job has no tasks"); err != nil {
			log.WithError(err).WithField("job_id", job.ID).Warn("Failed to mark orphaned job")
			continue
		}
		summary.OrphanedJobsFailed++
		log.WithFields(log.Fields{
			"job_id":   job.ID,
			"job_type": job.JobType,
			"age":      now.Sub(job.CreatedAt),
		}).Warn("Failed orphaned job with no tasks")
	}
	return nil
}

// materializeRecurring spawns one-time instances from recurring templates
// whose next occurrence has arrived. A template with a broken recurrence
// definition is skipped for this pass; no partial window is created.
func (s *MaintenanceSchedulerService) materializeRecurring(ctx context.Context, now time.Time) ([]database.MaintenanceWindow, error) {
	templates, err := s.windows.GetRecurringTemplates()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate recurring templates: %w", err)
	}

	var instances []database.MaintenanceWindow
	for i := range templates {
		tmpl := &templates[i]
		if tmpl.Status != database.WindowStatusPlanned && tmpl.Status != database.WindowStatusCompleted {
			continue
		}

		reference := tmpl.CreatedAt
		if tmpl.LastExecutedAt != nil {
			reference = *tmpl.LastExecutedAt
		}

		next, err := s.nextOccurrence(tmpl, reference)
		if err != nil {
			log.WithError(err).WithField("window_id", tmpl.ID).Warn("Skipping template with invalid recurrence")
			continue
		}
		if next.IsZero() || next.After(now) {
			continue
		}

		exists, err := s.windows.HasInstanceForOccurrence(tmpl.ID, next)
		if err != nil {
			log.WithError(err).WithField("window_id", tmpl.ID).Warn("Failed to check existing occurrence")
			continue
		}
		if exists {
			continue
		}

		duration := tmpl.PlannedEnd.Sub(tmpl.PlannedStart)
		parentID := tmpl.ID
		instance := database.MaintenanceWindow{
			ID:               uuid.New().String(),
			Title:            tmpl.Title,
			Description:      tmpl.Description,
			PlannedStart:     next,
			PlannedEnd:       next.Add(duration),
			Status:           database.WindowStatusPlanned,
			MaintenanceType:  tmpl.MaintenanceType,
			ClusterIDs:       tmpl.ClusterIDs,
			ServerGroupIDs:   tmpl.ServerGroupIDs,
			ServerIDs:        tmpl.ServerIDs,
			AutoExecute:      tmpl.AutoExecute,
			ParentTemplateID: &parentID,
			Details:          tmpl.Details,
			CreatedBy:        "scheduler",
		}

		if err := s.windows.CreateWindow(&instance); err != nil {
			log.WithError(err).WithField("window_id", tmpl.ID).Error("Failed to materialize recurring instance")
			continue
		}

		if err := s.windows.UpdateWindow(tmpl.ID, map[string]interface{}{
			"last_executed_at": next,
		}); err != nil {
			log.WithError(err).WithField("window_id", tmpl.ID).Warn("Failed to stamp template execution time")
		}

		log.WithFields(log.Fields{
			"template_id":   tmpl.ID,
			"instance_id":   instance.ID,
			"planned_start": instance.PlannedStart,
		}).Info("Materialized recurring maintenance instance")
		instances = append(instances, instance)
	}

	return instances, nil
}

// nextOccurrence computes the template's next execution after the reference
// time. The structured config in details is preferred; the raw pattern field
// is the fallback.
func (s *MaintenanceSchedulerService) nextOccurrence(tmpl *database.MaintenanceWindow, reference time.Time) (time.Time, error) {
	if cfg, ok := recurrenceConfigFromDetails(tmpl.Details); ok {
		if !cfg.Enabled {
			return time.Time{}, nil
		}
		times, err := recurrence.NextFromConfig(cfg, reference, 1)
		if err != nil {
			return time.Time{}, err
		}
		if len(times) == 0 {
			return time.Time{}, nil
		}
		return times[0], nil
	}

	if tmpl.RecurrencePattern != nil && *tmpl.RecurrencePattern != "" {
		times, err := recurrence.NextFromPattern(*tmpl.RecurrencePattern, reference, 1)
		if err != nil {
			return time.Time{}, err
		}
		if len(times) == 0 {
			return time.Time{}, nil
		}
		return times[0], nil
	}

	return time.Time{}, fmt.Errorf("recurring window %s has no recurrence definition", tmpl.ID)
}

func recurrenceConfigFromDetails(details database.JSONMap) (recurrence.Config, bool) {
	raw, ok := details["recurrence_config"]
	if !ok {
		return recurrence.Config{}, false
	}

	data, err := json.Marshal(raw)
	if err != nil {
		return recurrence.Config{}, false
	}

	var cfg recurrence.Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return recurrence.Config{}, false
	}
	return cfg, true
}

// executeWindow processes one due window in isolation: resolve targets,
// create the job and its tasks, and flip the window to in_progress. Any
// failure marks this window failed and never touches the rest of the batch.
func (s *MaintenanceSchedulerService) executeWindow(ctx context.Context, window *database.MaintenanceWindow) WindowResult {
	result := WindowResult{
		WindowID: window.ID,
		Title:    window.Title,
	}

	serverIDs, err := s.servers.ResolveTargetServers(window.ClusterIDs, window.ServerGroupIDs, window.ServerIDs)
	if err != nil {
		return s.failWindow(ctx, window, &result, fmt.Sprintf("target resolution failed: %v", err))
	}
	if len(serverIDs) == 0 {
		return s.failWindow(ctx, window, &result, "no valid servers resolved for maintenance window")
	}
	result.Servers = len(serverIDs)

	jobType, details, err := s.buildJobSpec(window)
	if err != nil {
		return s.failWindow(ctx, window, &result, err.Error())
	}

	job := &database.Job{
		ID:        uuid.New().String(),
		JobType:   jobType,
		ServerIDs: serverIDs,
		Details:   details,
		Status:    database.JobStatusPending,
		CreatedBy: "scheduler",
	}
	if len(window.ClusterIDs) == 1 {
		clusterID := window.ClusterIDs[0]
		job.ClusterID = &clusterID
	}
	if len(window.ServerGroupIDs) == 1 {
		groupID := window.ServerGroupIDs[0]
		job.ServerGroupID = &groupID
	}

	if err := s.jobs.CreateJob(job); err != nil {
		return s.failWindow(ctx, window, &result, fmt.Sprintf("job creation failed: %v", err))
	}
	if err := s.jobs.CreateTasks(job.ID, serverIDs); err != nil {
		// The job row exists without tasks; reconciliation will flag it if
		// this window update also fails.
		return s.failWindow(ctx, window, &result, fmt.Sprintf("task creation failed: %v", err))
	}

	nowUTC := s.now().UTC()
	jobIDs := append([]string(nil), window.JobIDs...)
	jobIDs = append(jobIDs, job.ID)
	if err := s.windows.UpdateWindow(window.ID, map[string]interface{}{
		"status":       database.WindowStatusInProgress,
		"job_ids":      database.StringList(jobIDs),
		"actual_start": nowUTC,
	}); err != nil {
		return s.failWindow(ctx, window, &result, fmt.Sprintf("failed to mark window in progress: %v", err))
	}

	result.Status = database.WindowStatusInProgress
	result.JobID = job.ID

	log.WithFields(log.Fields{
		"window_id": window.ID,
		"job_id":    job.ID,
		"job_type":  jobType,
		"servers":   len(serverIDs),
	}).Info("🔧 Maintenance window execution started")

	s.notify(ctx, WindowEvent{
		NotificationType: NotifyWindowStarted,
		Window:           windowRef(window),
		JobID:            job.ID,
		ServerCount:      len(serverIDs),
		Timestamp:        nowUTC,
	})

	return result
}

func windowRef(window *database.MaintenanceWindow) WindowRef {
	return WindowRef{
		ID:              window.ID,
		Title:           window.Title,
		MaintenanceType: window.MaintenanceType,
	}
}

// buildJobSpec determines the job type and orchestration details for a
// window. Cluster targets are always forced to a rolling one-host-at-a-time
// update; no configured maintenance type can override that.
func (s *MaintenanceSchedulerService) buildJobSpec(window *database.MaintenanceWindow) (string, database.JSONMap, error) {
	details := database.JSONMap{
		"window_id":        window.ID,
		"window_title":     window.Title,
		"maintenance_type": window.MaintenanceType,
	}
	for k, v := range window.Details {
		if _, exists := details[k]; !exists {
			details[k] = v
		}
	}

	if len(window.ClusterIDs) > 0 {
		details["max_concurrent"] = 1
		details["inter_host_wait_seconds"] = int(s.settings.InterHostWait.Seconds())
		if scope, ok := window.Details["update_scope"]; ok {
			details["update_scope"] = scope
		}
		return "rolling_cluster_update", details, nil
	}

	jobType, ok := maintenanceJobTypes[window.MaintenanceType]
	if !ok {
		return "", nil, fmt.Errorf("unsupported maintenance type: %q", window.MaintenanceType)
	}
	return jobType, details, nil
}

func (s *MaintenanceSchedulerService) failWindow(ctx context.Context, window *database.MaintenanceWindow, result *WindowResult, detail string) WindowResult {
	result.Status = database.WindowStatusFailed
	result.Error = detail

	details := database.JSONMap{}
	for k, v := range window.Details {
		details[k] = v
	}
	details["error"] = detail

	if err := s.windows.UpdateWindow(window.ID, map[string]interface{}{
		"status":  database.WindowStatusFailed,
		"details": details,
	}); err != nil {
		log.WithError(err).WithField("window_id", window.ID).Error("Failed to persist window failure")
	}

	log.WithFields(log.Fields{
		"window_id": window.ID,
		"title":     window.Title,
		"error":     detail,
	}).Error("❌ Maintenance window failed")

	s.notify(ctx, WindowEvent{
		NotificationType: NotifyWindowFailed,
		Window:           windowRef(window),
		JobID:            result.JobID,
		ServerCount:      result.Servers,
		Detail:           detail,
		Timestamp:        s.now().UTC(),
	})

	return *result
}

// scanInProgressWindows resolves in-progress windows against their jobs:
// every job completed -> completed; any failed or cancelled -> failed.
// Failure dominates mixed outcomes.
func (s *MaintenanceSchedulerService) scanInProgressWindows(ctx context.Context, now time.Time, summary *RunSummary) error {
	windows, err := s.windows.GetInProgressWindows()
	if err != nil {
		return fmt.Errorf("failed to enumerate in-progress windows: %w", err)
	}

	for i := range windows {
		window := &windows[i]
		if len(window.JobIDs) == 0 {
			continue
		}

		jobs, err := s.jobs.GetJobsByIDs(window.JobIDs)
		if err != nil {
			log.WithError(err).WithField("window_id", window.ID).Warn("Failed to fetch window jobs")
			continue
		}

		anyFailed := false
		allCompleted := len(jobs) == len(window.JobIDs)
		for _, job := range jobs {
			switch job.Status {
			case database.JobStatusFailed, database.JobStatusCancelled:
				anyFailed = true
			case database.JobStatusCompleted:
			default:
				allCompleted = false
			}
		}

		switch {
		case anyFailed:
			details := database.JSONMap{}
			for k, v := range window.Details {
				details[k] = v
			}
			details["error"] = "one or more maintenance jobs failed"
			if err := s.windows.UpdateWindow(window.ID, map[string]interface{}{
				"status":       database.WindowStatusFailed,
				"details":      details,
				"completed_at": now,
			}); err != nil {
				log.WithError(err).WithField("window_id", window.ID).Error("Failed to mark window failed")
				continue
			}
			summary.WindowsFailed++
			s.notify(ctx, WindowEvent{
				NotificationType: NotifyWindowFailed,
				Window:           windowRef(window),
				JobID:            latestJobID(window.JobIDs),
				Detail:           "one or more maintenance jobs failed",
				Timestamp:        now,
			})

		case allCompleted:
			if err := s.windows.UpdateWindow(window.ID, map[string]interface{}{
				"status":       database.WindowStatusCompleted,
				"completed_at": now,
			}); err != nil {
				log.WithError(err).WithField("window_id", window.ID).Error("Failed to mark window completed")
				continue
			}
			summary.WindowsCompleted++
			log.WithFields(log.Fields{
				"window_id": window.ID,
				"title":     window.Title,
			}).Info("✅ Maintenance window completed")
			s.notify(ctx, WindowEvent{
				NotificationType: NotifyWindowCompleted,
				Window:           windowRef(window),
				JobID:            latestJobID(window.JobIDs),
				Timestamp:        now,
			})
		}
	}

	return nil
}

// notify delivers a window event best-effort. Failures are logged, never
// escalated.
func (s *MaintenanceSchedulerService) notify(ctx context.Context, event WindowEvent) {
	if err := s.notifier.Notify(ctx, event); err != nil {
		log.WithError(err).WithFields(log.Fields{
			"window_id": event.Window.ID,
			"type":      event.NotificationType,
		}).Warn("Window notification failed")
	}
}

// latestJobID picks the most recently appended job for the optional job_id
// event field.
func latestJobID(jobIDs []string) string {
	if len(jobIDs) == 0 {
		return ""
	}
	return jobIDs[len(jobIDs)-1]
}

func ownerSystem() *string {
	owner := "system"
	return &owner
}
