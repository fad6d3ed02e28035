package joblog

import "context"

type ctxKey int

const (
	jobIDKey ctxKey = iota
	stepIDKey
)

// WithJobID returns a context carrying the job ID.
func WithJobID(ctx context.Context, jobID string) context.Context {
	return context.WithValue(ctx, jobIDKey, jobID)
}

// JobIDFromCtx extracts the job ID from the context.
func JobIDFromCtx(ctx context.Context) (string, bool) {
	jobID, ok := ctx.Value(jobIDKey).(string)
	return jobID, ok
}

// WithStepID returns a context carrying the step ID.
func WithStepID(ctx context.Context, stepID int64) context.Context {
	return context.WithValue(ctx, stepIDKey, stepID)
}

// StepIDFromCtx extracts the step ID from the context.
func StepIDFromCtx(ctx context.Context) (int64, bool) {
	stepID, ok := ctx.Value(stepIDKey).(int64)
	return stepID, ok
}
