package joblog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Tracker provides job and step lifecycle management with integrated logging.
type Tracker struct {
	db      *sql.DB
	logger  *slog.Logger
	handler slog.Handler
	mu      sync.RWMutex
}

// New creates a job tracker with the given database and log handlers.
func New(db *sql.DB, handlers ...slog.Handler) *Tracker {
	var handler slog.Handler

	switch len(handlers) {
	case 0:
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	case 1:
		handler = handlers[0]
	default:
		handler = NewFanoutHandler(handlers...)
	}

	return &Tracker{
		db:      db,
		logger:  slog.New(handler),
		handler: handler,
	}
}

// StartJob creates a new job and returns a context carrying the job ID.
func (t *Tracker) StartJob(ctx context.Context, input JobStart) (context.Context, string, error) {
	if err := input.Validate(); err != nil {
		return ctx, "", fmt.Errorf("invalid job start input: %w", err)
	}

	jobID := uuid.New().String()
	now := time.Now()

	var metadataJSON *string
	if input.Metadata != nil {
		if jsonBytes, err := json.Marshal(input.Metadata); err == nil {
			jsonStr := string(jsonBytes)
			metadataJSON = &jsonStr
		}
	}

	query := `
		INSERT INTO job_tracking (
			id, job_type, operation, status, metadata, owner,
			started_at, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := t.db.ExecContext(ctx, query,
		jobID,
		input.JobType,
		input.Operation,
		StatusRunning,
		metadataJSON,
		input.Owner,
		now,
		now,
		now,
	)
	if err != nil {
		return ctx, "", fmt.Errorf("failed to create job record: %w", err)
	}

	ctxWithJob := WithJobID(ctx, jobID)

	logger := t.Logger(ctxWithJob)
	logger.Info("Job started",
		slog.String("job_id", jobID),
		slog.String("job_type", input.JobType),
		slog.String("operation", input.Operation),
		slog.Any("owner", input.Owner),
	)

	return ctxWithJob, jobID, nil
}

// EndJob completes a job with the given status and optional error.
func (t *Tracker) EndJob(ctx context.Context, jobID string, status Status, err error) error {
	now := time.Now()

	var errorMessage *string
	if err != nil {
		errStr := err.Error()
		errorMessage = &errStr
	}

	var completedAt *time.Time
	if status.IsTerminal() {
		completedAt = &now
	}

	query := `
		UPDATE job_tracking
		SET status = ?, completed_at = ?, error_message = ?, updated_at = ?
		WHERE id = ?
	`

	result, execErr := t.db.ExecContext(ctx, query,
		status,
		completedAt,
		errorMessage,
		now,
		jobID,
	)
	if execErr != nil {
		return fmt.Errorf("failed to update job status: %w", execErr)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("job not found: %s", jobID)
	}

	logger := t.Logger(WithJobID(ctx, jobID))
	logLevel := slog.LevelInfo
	message := "Job completed"
	if status == StatusFailed {
		logLevel = slog.LevelError
		message = "Job failed"
	} else if status == StatusCancelled {
		logLevel = slog.LevelWarn
		message = "Job cancelled"
	}

	logger.Log(ctx, logLevel, message,
		slog.String("job_id", jobID),
		slog.String("status", string(status)),
		slog.Any("error", errorMessage),
	)

	return nil
}

// MarkJobProgress updates the percent completion of a job.
func (t *Tracker) MarkJobProgress(ctx context.Context, jobID string, percent uint8) error {
	if percent > 100 {
		return fmt.Errorf("invalid percentage: %d (must be 0-100)", percent)
	}

	query := `
		UPDATE job_tracking
		SET percent_complete = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := t.db.ExecContext(ctx, query, percent, time.Now(), jobID)
	if err != nil {
		return fmt.Errorf("failed to update job progress: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("job not found: %s", jobID)
	}

	return nil
}

// StartStep creates a new step within a job.
func (t *Tracker) StartStep(ctx context.Context, jobID string, input StepStart) (context.Context, int64, error) {
	if err := input.Validate(); err != nil {
		return ctx, 0, fmt.Errorf("invalid step start input: %w", err)
	}

	if input.Seq == 0 {
		seq, err := t.getNextStepSequence(ctx, jobID)
		if err != nil {
			return ctx, 0, fmt.Errorf("failed to generate step sequence: %w", err)
		}
		input.Seq = seq
	}

	now := time.Now()

	var metadataJSON *string
	if input.Metadata != nil {
		if jsonBytes, err := json.Marshal(input.Metadata); err == nil {
			jsonStr := string(jsonBytes)
			metadataJSON = &jsonStr
		}
	}

	query := `
		INSERT INTO job_steps (job_id, name, seq, status, started_at, metadata)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	result, err := t.db.ExecContext(ctx, query,
		jobID,
		input.Name,
		input.Seq,
		StatusRunning,
		now,
		metadataJSON,
	)
	if err != nil {
		return ctx, 0, fmt.Errorf("failed to create step record: %w", err)
	}

	stepID, err := result.LastInsertId()
	if err != nil {
		return ctx, 0, fmt.Errorf("failed to get step ID: %w", err)
	}

	ctxWithStep := WithStepID(WithJobID(ctx, jobID), stepID)

	logger := t.Logger(ctxWithStep)
	logger.Info("Step started",
		slog.String("job_id", jobID),
		slog.Int64("step_id", stepID),
		slog.String("step_name", input.Name),
		slog.Int("sequence", input.Seq),
	)

	return ctxWithStep, stepID, nil
}

// EndStep completes a step with the given status and optional error.
func (t *Tracker) EndStep(stepID int64, status Status, err error) error {
	now := time.Now()

	var errorMessage *string
	if err != nil {
		errStr := err.Error()
		errorMessage = &errStr
	}

	var completedAt *time.Time
	if status.IsTerminal() || status == StatusSkipped {
		completedAt = &now
	}

	query := `
		UPDATE job_steps
		SET status = ?, completed_at = ?, error_message = ?
		WHERE id = ?
	`

	result, execErr := t.db.ExecContext(context.Background(), query,
		status,
		completedAt,
		errorMessage,
		stepID,
	)
	if execErr != nil {
		return fmt.Errorf("failed to update step status: %w", execErr)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("step not found: %d", stepID)
	}

	return nil
}

// RunStep manages step lifecycle around fn and recovers panics into step
// failures.
func (t *Tracker) RunStep(ctx context.Context, jobID string, name string, fn func(ctx context.Context) error) error {
	stepCtx, stepID, err := t.StartStep(ctx, jobID, StepStart{Name: name})
	if err != nil {
		return fmt.Errorf("failed to start step: %w", err)
	}

	var stepErr error
	defer func() {
		if r := recover(); r != nil {
			switch v := r.(type) {
			case error:
				stepErr = fmt.Errorf("panic in step %s: %w", name, v)
			default:
				stepErr = fmt.Errorf("panic in step %s: %v", name, v)
			}

			logger := t.Logger(stepCtx)
			logger.Error("Panic recovered in step",
				slog.String("step_name", name),
				slog.String("panic", fmt.Sprintf("%v", r)),
			)
		}

		status := StatusCompleted
		if stepErr != nil {
			status = StatusFailed
		}

		if endErr := t.EndStep(stepID, status, stepErr); endErr != nil {
			logger := t.Logger(stepCtx)
			logger.Error("Failed to end step",
				slog.String("step_name", name),
				slog.String("error", endErr.Error()),
			)
		}
	}()

	stepErr = fn(stepCtx)
	return stepErr
}

// Logger returns a logger annotated with any job and step IDs in the context.
func (t *Tracker) Logger(ctx context.Context) *slog.Logger {
	logger := t.logger

	if jobID, ok := JobIDFromCtx(ctx); ok && jobID != "" {
		logger = logger.With(slog.String("job_id", jobID))
	}
	if stepID, ok := StepIDFromCtx(ctx); ok {
		logger = logger.With(slog.Int64("step_id", stepID))
	}

	return logger
}

// GetJob retrieves a job record by ID.
func (t *Tracker) GetJob(ctx context.Context, jobID string) (*JobRecord, error) {
	query := `
		SELECT id, job_type, operation, status, percent_complete,
		       metadata, error_message, owner,
		       started_at, completed_at, created_at, updated_at
		FROM job_tracking WHERE id = ?
	`

	var job JobRecord
	err := t.db.QueryRowContext(ctx, query, jobID).Scan(
		&job.ID,
		&job.JobType,
		&job.Operation,
		&job.Status,
		&job.PercentComplete,
		&job.Metadata,
		&job.ErrorMessage,
		&job.Owner,
		&job.StartedAt,
		&job.CompletedAt,
		&job.CreatedAt,
		&job.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("job not found: %s", jobID)
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	return &job, nil
}

// GetJobProgress returns step-level progress information for a job.
func (t *Tracker) GetJobProgress(ctx context.Context, jobID string) (*ProgressInfo, error) {
	job, err := t.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}

	steps, err := t.getJobSteps(ctx, jobID)
	if err != nil {
		return nil, err
	}

	info := ProgressInfo{
		JobID:      jobID,
		TotalSteps: len(steps),
		StartedAt:  job.StartedAt,
	}

	for _, step := range steps {
		switch step.Status {
		case StatusCompleted:
			info.CompletedSteps++
		case StatusFailed:
			info.FailedSteps++
		case StatusRunning:
			info.RunningSteps++
		case StatusSkipped:
			info.SkippedSteps++
		}
		if step.CompletedAt != nil && (info.LastActivity == nil || step.CompletedAt.After(*info.LastActivity)) {
			info.LastActivity = step.CompletedAt
		}
	}

	if info.TotalSteps > 0 {
		completedAndSkipped := info.CompletedSteps + info.SkippedSteps
		info.StepCompletion = float64(completedAndSkipped) / float64(info.TotalSteps) * 100
	}

	if job.CompletedAt != nil {
		info.RuntimeSeconds = int64(job.CompletedAt.Sub(job.StartedAt).Seconds())
	} else {
		info.RuntimeSeconds = int64(time.Since(job.StartedAt).Seconds())
	}

	return &info, nil
}

func (t *Tracker) getJobSteps(ctx context.Context, jobID string) ([]StepRecord, error) {
	query := `
		SELECT id, job_id, name, seq, status, started_at, completed_at, error_message, metadata
		FROM job_steps
		WHERE job_id = ?
		ORDER BY seq ASC
	`

	rows, err := t.db.QueryContext(ctx, query, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to query job steps: %w", err)
	}
	defer rows.Close()

	var steps []StepRecord
	for rows.Next() {
		var step StepRecord
		err := rows.Scan(
			&step.ID, &step.JobID, &step.Name, &step.Seq, &step.Status,
			&step.StartedAt, &step.CompletedAt, &step.ErrorMessage, &step.Metadata,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan step record: %w", err)
		}
		steps = append(steps, step)
	}

	return steps, rows.Err()
}

func (t *Tracker) getNextStepSequence(ctx context.Context, jobID string) (int, error) {
	query := `SELECT COALESCE(MAX(seq), 0) + 1 FROM job_steps WHERE job_id = ?`

	var nextSeq int
	if err := t.db.QueryRowContext(ctx, query, jobID).Scan(&nextSeq); err != nil {
		return 0, fmt.Errorf("failed to get next step sequence: %w", err)
	}

	return nextSeq, nil
}

// Close shuts down the tracker and any database-backed log handlers.
func (t *Tracker) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if dbHandler, ok := t.handler.(*DBHandler); ok {
		return dbHandler.Close()
	}
	if fanout, ok := t.handler.(*FanoutHandler); ok {
		for _, handler := range fanout.handlers {
			if dbHandler, ok := handler.(*DBHandler); ok {
				dbHandler.Close()
			}
		}
	}
	return nil
}
