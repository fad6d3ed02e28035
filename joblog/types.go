// Package joblog records scheduler run audit trails: one job per scheduler
// invocation, one step per phase, with structured logs correlated to both.
package joblog

import (
	"fmt"
	"time"
)

// Status represents the lifecycle state of a tracked job or step.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
	StatusSkipped   Status = "skipped"
)

// IsTerminal reports whether the status is a final state.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// JobStart describes a job being opened.
type JobStart struct {
	JobType   string         `json:"job_type"`
	Operation string         `json:"operation"`
	Owner     *string        `json:"owner,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// Validate checks required JobStart fields.
func (j JobStart) Validate() error {
	if j.JobType == "" {
		return ErrInvalidJobType
	}
	if j.Operation == "" {
		return ErrInvalidOperation
	}
	return nil
}

// StepStart describes a step being opened within a job. Seq is auto-assigned
// when zero.
type StepStart struct {
	Name     string         `json:"name"`
	Seq      int            `json:"seq,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Validate checks required StepStart fields.
func (s StepStart) Validate() error {
	if s.Name == "" {
		return ErrInvalidStepName
	}
	return nil
}

// JobRecord is a persisted job row.
type JobRecord struct {
	ID              string     `json:"id"`
	JobType         string     `json:"job_type"`
	Operation       string     `json:"operation"`
	Status          Status     `json:"status"`
	PercentComplete uint8      `json:"percent_complete"`
	Metadata        *string    `json:"metadata,omitempty"`
	ErrorMessage    *string    `json:"error_message,omitempty"`
	Owner           *string    `json:"owner,omitempty"`
	StartedAt       time.Time  `json:"started_at"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// StepRecord is a persisted step row.
type StepRecord struct {
	ID           int64      `json:"id"`
	JobID        string     `json:"job_id"`
	Name         string     `json:"name"`
	Seq          int        `json:"seq"`
	Status       Status     `json:"status"`
	StartedAt    time.Time  `json:"started_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	ErrorMessage *string    `json:"error_message,omitempty"`
	Metadata     *string    `json:"metadata,omitempty"`
}

// ProgressInfo summarizes step-level progress for a job.
type ProgressInfo struct {
	JobID          string     `json:"job_id"`
	TotalSteps     int        `json:"total_steps"`
	CompletedSteps int        `json:"completed_steps"`
	FailedSteps    int        `json:"failed_steps"`
	RunningSteps   int        `json:"running_steps"`
	SkippedSteps   int        `json:"skipped_steps"`
	StepCompletion float64    `json:"step_completion"`
	StartedAt      time.Time  `json:"started_at"`
	LastActivity   *time.Time `json:"last_activity,omitempty"`
	RuntimeSeconds int64      `json:"runtime_seconds"`
}

// LogRecord is a structured log line bound for the database.
type LogRecord struct {
	JobID     *string   `json:"job_id,omitempty"`
	StepID    *int64    `json:"step_id,omitempty"`
	Level     string    `json:"level"`
	Message   string    `json:"message"`
	Attrs     *string   `json:"attrs,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Common errors
var (
	ErrInvalidJobType   = fmt.Errorf("job type cannot be empty")
	ErrInvalidOperation = fmt.Errorf("operation cannot be empty")
	ErrInvalidStepName  = fmt.Errorf("step name cannot be empty")
)
