package joblog

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testHandler() slog.Handler {
	return slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})
}

func strPtr(s string) *string { return &s }

func TestJobLifecycle(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	tracker := New(db, testHandler())
	defer tracker.Close()

	ctx := context.Background()

	jobStart := JobStart{
		JobType:   "scheduler",
		Operation: "scheduler-run",
		Owner:     strPtr("maintd"),
		Metadata: map[string]any{
			"trigger": "interval",
		},
	}

	mock.ExpectExec("INSERT INTO job_tracking").
		WithArgs(sqlmock.AnyArg(), "scheduler", "scheduler-run", StatusRunning, sqlmock.AnyArg(), "maintd", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	ctx, jobID, err := tracker.StartJob(ctx, jobStart)
	require.NoError(t, err)
	assert.NotEmpty(t, jobID)

	ctxJobID, ok := JobIDFromCtx(ctx)
	assert.True(t, ok)
	assert.Equal(t, jobID, ctxJobID)

	mock.ExpectExec("UPDATE job_tracking").
		WithArgs(StatusCompleted, sqlmock.AnyArg(), nil, sqlmock.AnyArg(), jobID).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err = tracker.EndJob(ctx, jobID, StatusCompleted, nil)
	require.NoError(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestJobStartValidation(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	tracker := New(db, testHandler())
	defer tracker.Close()

	_, _, err = tracker.StartJob(context.Background(), JobStart{Operation: "op"})
	assert.ErrorIs(t, err, ErrInvalidJobType)

	_, _, err = tracker.StartJob(context.Background(), JobStart{JobType: "scheduler"})
	assert.ErrorIs(t, err, ErrInvalidOperation)
}

func TestEndJobRecordsError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	tracker := New(db, testHandler())
	defer tracker.Close()

	jobID := "job-123"
	jobErr := fmt.Errorf("lease held by another instance")

	mock.ExpectExec("UPDATE job_tracking").
		WithArgs(StatusFailed, sqlmock.AnyArg(), jobErr.Error(), sqlmock.AnyArg(), jobID).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err = tracker.EndJob(context.Background(), jobID, StatusFailed, jobErr)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEndJobUnknownJob(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	tracker := New(db, testHandler())
	defer tracker.Close()

	mock.ExpectExec("UPDATE job_tracking").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = tracker.EndJob(context.Background(), "missing", StatusCompleted, nil)
	assert.Error(t, err)
}

func TestStepLifecycle(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	tracker := New(db, testHandler())
	defer tracker.Close()

	ctx := context.Background()
	jobID := "job-123"

	mock.ExpectQuery(`SELECT COALESCE\(MAX\(seq\), 0\) \+ 1`).
		WithArgs(jobID).
		WillReturnRows(sqlmock.NewRows([]string{"seq"}).AddRow(1))

	mock.ExpectExec("INSERT INTO job_steps").
		WithArgs(jobID, "process-due-windows", 1, StatusRunning, sqlmock.AnyArg(), nil).
		WillReturnResult(sqlmock.NewResult(42, 1))

	stepCtx, stepID, err := tracker.StartStep(ctx, jobID, StepStart{Name: "process-due-windows"})
	require.NoError(t, err)
	assert.Equal(t, int64(42), stepID)

	ctxStepID, ok := StepIDFromCtx(stepCtx)
	assert.True(t, ok)
	assert.Equal(t, int64(42), ctxStepID)

	mock.ExpectExec("UPDATE job_steps").
		WithArgs(StatusCompleted, sqlmock.AnyArg(), nil, stepID).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err = tracker.EndStep(stepID, StatusCompleted, nil)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunStepHandlesError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	tracker := New(db, testHandler())
	defer tracker.Close()

	jobID := "job-123"
	stepErr := fmt.Errorf("window failed")

	mock.ExpectQuery(`SELECT COALESCE\(MAX\(seq\), 0\) \+ 1`).
		WithArgs(jobID).
		WillReturnRows(sqlmock.NewRows([]string{"seq"}).AddRow(1))
	mock.ExpectExec("INSERT INTO job_steps").
		WillReturnResult(sqlmock.NewResult(7, 1))
	mock.ExpectExec("UPDATE job_steps").
		WithArgs(StatusFailed, sqlmock.AnyArg(), stepErr.Error(), int64(7)).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err = tracker.RunStep(context.Background(), jobID, "execute-window", func(ctx context.Context) error {
		return stepErr
	})
	assert.Equal(t, stepErr, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunStepRecoversPanic(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	tracker := New(db, testHandler())
	defer tracker.Close()

	jobID := "job-123"

	mock.ExpectQuery(`SELECT COALESCE\(MAX\(seq\), 0\) \+ 1`).
		WithArgs(jobID).
		WillReturnRows(sqlmock.NewRows([]string{"seq"}).AddRow(1))
	mock.ExpectExec("INSERT INTO job_steps").
		WillReturnResult(sqlmock.NewResult(9, 1))
	mock.ExpectExec("UPDATE job_steps").
		WithArgs(StatusFailed, sqlmock.AnyArg(), sqlmock.AnyArg(), int64(9)).
		WillReturnResult(sqlmock.NewResult(1, 1))

	assert.NotPanics(t, func() {
		_ = tracker.RunStep(context.Background(), jobID, "boom", func(ctx context.Context) error {
			panic("unexpected state")
		})
	})
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetJobProgress(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	tracker := New(db, testHandler())
	defer tracker.Close()

	jobID := "job-123"
	started := time.Now().Add(-time.Minute)
	completed := time.Now()

	jobRows := sqlmock.NewRows([]string{
		"id", "job_type", "operation", "status", "percent_complete",
		"metadata", "error_message", "owner",
		"started_at", "completed_at", "created_at", "updated_at",
	}).AddRow(jobID, "scheduler", "scheduler-run", string(StatusCompleted), 100,
		nil, nil, nil, started, completed, started, completed)

	mock.ExpectQuery("SELECT (.+) FROM job_tracking").
		WithArgs(jobID).
		WillReturnRows(jobRows)

	stepRows := sqlmock.NewRows([]string{
		"id", "job_id", "name", "seq", "status",
		"started_at", "completed_at", "error_message", "metadata",
	}).
		AddRow(1, jobID, "process-due-windows", 1, string(StatusCompleted), started, &completed, nil, nil).
		AddRow(2, jobID, "scan-window-status", 2, string(StatusCompleted), started, &completed, nil, nil).
		AddRow(3, jobID, "reconcile-orphans", 3, string(StatusSkipped), started, &completed, nil, nil).
		AddRow(4, jobID, "notify", 4, string(StatusFailed), started, &completed, strPtr("endpoint unreachable"), nil)

	mock.ExpectQuery("SELECT (.+) FROM job_steps").
		WithArgs(jobID).
		WillReturnRows(stepRows)

	info, err := tracker.GetJobProgress(context.Background(), jobID)
	require.NoError(t, err)

	assert.Equal(t, 4, info.TotalSteps)
	assert.Equal(t, 2, info.CompletedSteps)
	assert.Equal(t, 1, info.SkippedSteps)
	assert.Equal(t, 1, info.FailedSteps)
	assert.InDelta(t, 75.0, info.StepCompletion, 0.01)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkJobProgress(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	tracker := New(db, testHandler())
	defer tracker.Close()

	jobID := "job-123"

	mock.ExpectExec("UPDATE job_tracking").
		WithArgs(uint8(50), sqlmock.AnyArg(), jobID).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err = tracker.MarkJobProgress(context.Background(), jobID, 50)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())

	err = tracker.MarkJobProgress(context.Background(), jobID, 101)
	assert.Error(t, err)
}
