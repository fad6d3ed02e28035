package joblog

import (
	"context"
	"database/sql"
	"fmt"
)

// The audit tables are written with raw SQL rather than GORM, so they are
// provisioned here instead of the engine's AutoMigrate pass.
var schemaDDL = []string{
	`CREATE TABLE IF NOT EXISTS job_tracking (
		id VARCHAR(64) NOT NULL PRIMARY KEY,
		job_type VARCHAR(64) NOT NULL,
		operation VARCHAR(255) NOT NULL,
		status VARCHAR(32) NOT NULL DEFAULT 'running',
		percent_complete TINYINT UNSIGNED NOT NULL DEFAULT 0,
		metadata TEXT NULL,
		error_message TEXT NULL,
		owner VARCHAR(255) NULL,
		started_at DATETIME NOT NULL,
		completed_at DATETIME NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS job_steps (
		id BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY,
		job_id VARCHAR(64) NOT NULL,
		name VARCHAR(255) NOT NULL,
		seq INT NOT NULL,
		status VARCHAR(32) NOT NULL DEFAULT 'running',
		started_at DATETIME NOT NULL,
		completed_at DATETIME NULL,
		error_message TEXT NULL,
		metadata TEXT NULL,
		INDEX idx_job_steps_job_id (job_id)
	)`,
	`CREATE TABLE IF NOT EXISTS log_events (
		id BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY,
		job_id VARCHAR(64) NULL,
		step_id BIGINT NULL,
		level VARCHAR(16) NOT NULL,
		message TEXT NOT NULL,
		attrs TEXT NULL,
		ts DATETIME NOT NULL,
		INDEX idx_log_events_job_id (job_id)
	)`,
}

// EnsureSchema creates the audit tables if they do not exist. Must run once
// at startup before the first tracked job.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, ddl := range schemaDDL {
		if _, err := db.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("failed to provision audit schema: %w", err)
		}
	}
	return nil
}
