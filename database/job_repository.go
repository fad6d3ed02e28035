package database

import (
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// =============================================================================
// JOB REPOSITORY - jobs and per-server tasks
// =============================================================================

// JobRepository handles job and job task database operations.
type JobRepository struct {
	db *gorm.DB
}

// NewJobRepository creates a new job repository.
func NewJobRepository(conn Connection) *JobRepository {
	return &JobRepository{
		db: conn.GetGormDB(),
	}
}

// CreateJob creates a job record. Tasks are created separately so a job with
// no resolvable targets can still be detected and reconciled.
func (r *JobRepository) CreateJob(job *Job) error {
	if r.db == nil {
		return fmt.Errorf("database not available")
	}

	log.WithFields(log.Fields{
		"job_id":   job.ID,
		"job_type": job.JobType,
		"servers":  len(job.ServerIDs),
	}).Info("Creating job")

	if err := r.db.Create(job).Error; err != nil {
		log.WithError(err).WithField("job_id", job.ID).Error("Failed to create job")
		return fmt.Errorf("failed to create job: %w", err)
	}

	return nil
}

// CreateTasks creates one task per target server for a job.
func (r *JobRepository) CreateTasks(jobID string, serverIDs []string) error {
	if r.db == nil {
		return fmt.Errorf("database not available")
	}
	if len(serverIDs) == 0 {
		return fmt.Errorf("no server IDs for job tasks: %s", jobID)
	}

	tasks := make([]JobTask, 0, len(serverIDs))
	for _, serverID := range serverIDs {
		tasks = append(tasks, JobTask{
			JobID:    jobID,
			ServerID: serverID,
			Status:   JobStatusPending,
		})
	}

	if err := r.db.Create(&tasks).Error; err != nil {
		return fmt.Errorf("failed to create job tasks: %w", err)
	}

	log.WithFields(log.Fields{
		"job_id": jobID,
		"tasks":  len(tasks),
	}).Debug("Created job tasks")
	return nil
}

// GetJobByID retrieves a job with its tasks.
func (r *JobRepository) GetJobByID(jobID string) (*Job, error) {
	if r.db == nil {
		return nil, fmt.Errorf("database not available")
	}

	var job Job
	if err := r.db.Preload("Tasks").Where("id = ?", jobID).First(&job).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("job not found: %s", jobID)
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	return &job, nil
}

// GetJobsByIDs retrieves the jobs for the given IDs. Missing IDs are simply
// absent from the result; the status scan treats them as still pending.
func (r *JobRepository) GetJobsByIDs(jobIDs []string) ([]Job, error) {
	if r.db == nil {
		return nil, fmt.Errorf("database not available")
	}
	if len(jobIDs) == 0 {
		return nil, nil
	}

	var jobs []Job
	if err := r.db.Where("id IN ?", jobIDs).Find(&jobs).Error; err != nil {
		return nil, fmt.Errorf("failed to get jobs: %w", err)
	}

	return jobs, nil
}

// UpdateJobStatus sets a job's status and optional error message.
func (r *JobRepository) UpdateJobStatus(jobID, status, errorMessage string) error {
	if r.db == nil {
		return fmt.Errorf("database not available")
	}

	updates := map[string]interface{}{
		"status": status,
	}
	if errorMessage != "" {
		updates["error_message"] = errorMessage
	}
	switch status {
	case JobStatusRunning:
		updates["started_at"] = time.Now().UTC()
	case JobStatusCompleted, JobStatusFailed, JobStatusCancelled:
		updates["completed_at"] = time.Now().UTC()
	}

	result := r.db.Model(&Job{}).Where("id = ?", jobID).Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to update job status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("job not found: %s", jobID)
	}

	log.WithFields(log.Fields{
		"job_id": jobID,
		"status": status,
	}).Debug("Updated job status")
	return nil
}

// GetJobsWithoutTasks returns pending jobs older than the grace period that
// never received any tasks. These are orphans from crashed scheduler runs and
// get failed by reconciliation rather than waiting forever.
func (r *JobRepository) GetJobsWithoutTasks(olderThan time.Time) ([]Job, error) {
	if r.db == nil {
		return nil, fmt.Errorf("database not available")
	}

	var jobs []Job
	err := r.db.
		Where("status = ?", JobStatusPending).
		Where("created_at < ?", olderThan).
		Where("NOT EXISTS (SELECT 1 FROM job_tasks WHERE job_tasks.job_id = jobs.id)").
		Find(&jobs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get orphaned jobs: %w", err)
	}

	return jobs, nil
}
