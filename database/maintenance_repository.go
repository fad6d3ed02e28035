package database

import (
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// =============================================================================
// MAINTENANCE REPOSITORY - maintenance window persistence
// =============================================================================

// MaintenanceRepository handles maintenance window database operations.
type MaintenanceRepository struct {
	db *gorm.DB
}

// NewMaintenanceRepository creates a new maintenance repository.
func NewMaintenanceRepository(conn Connection) *MaintenanceRepository {
	return &MaintenanceRepository{
		db: conn.GetGormDB(),
	}
}

// CreateWindow creates a new maintenance window.
func (r *MaintenanceRepository) CreateWindow(window *MaintenanceWindow) error {
	if r.db == nil {
		return fmt.Errorf("database not available")
	}

	log.WithFields(log.Fields{
		"window_id": window.ID,
		"title":     window.Title,
		"type":      window.MaintenanceType,
		"recurring": window.RecurrenceEnabled,
	}).Info("Creating maintenance window")

	if err := r.db.Create(window).Error; err != nil {
		log.WithError(err).WithField("window_id", window.ID).Error("Failed to create maintenance window")
		return fmt.Errorf("failed to create maintenance window: %w", err)
	}

	return nil
}

// GetWindowByID retrieves a maintenance window by ID.
func (r *MaintenanceRepository) GetWindowByID(windowID string) (*MaintenanceWindow, error) {
	if r.db == nil {
		return nil, fmt.Errorf("database not available")
	}

	var window MaintenanceWindow
	if err := r.db.Where("id = ?", windowID).First(&window).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("maintenance window not found: %s", windowID)
		}
		return nil, fmt.Errorf("failed to get maintenance window: %w", err)
	}

	return &window, nil
}

// ListWindows retrieves maintenance windows, optionally filtered by status.
func (r *MaintenanceRepository) ListWindows(status string) ([]MaintenanceWindow, error) {
	if r.db == nil {
		return nil, fmt.Errorf("database not available")
	}

	var windows []MaintenanceWindow
	query := r.db

	if status != "" {
		query = query.Where("status = ?", status)
	}

	if err := query.Order("planned_start ASC").Find(&windows).Error; err != nil {
		return nil, fmt.Errorf("failed to list maintenance windows: %w", err)
	}

	log.WithFields(log.Fields{
		"count":  len(windows),
		"status": status,
	}).Debug("Listed maintenance windows")
	return windows, nil
}

// UpdateWindow applies field updates to a maintenance window.
func (r *MaintenanceRepository) UpdateWindow(windowID string, updates map[string]interface{}) error {
	if r.db == nil {
		return fmt.Errorf("database not available")
	}

	result := r.db.Model(&MaintenanceWindow{}).Where("id = ?", windowID).Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to update maintenance window: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("maintenance window not found: %s", windowID)
	}

	log.WithFields(log.Fields{
		"window_id": windowID,
		"updates":   len(updates),
	}).Debug("Updated maintenance window")
	return nil
}

// DeleteWindow removes a maintenance window. In-progress windows cannot be
// deleted; they must run to completion or failure first.
func (r *MaintenanceRepository) DeleteWindow(windowID string) error {
	if r.db == nil {
		return fmt.Errorf("database not available")
	}

	window, err := r.GetWindowByID(windowID)
	if err != nil {
		return err
	}
	if window.Status == WindowStatusInProgress {
		return fmt.Errorf("cannot delete in-progress maintenance window: %s", windowID)
	}

	if err := r.db.Delete(&MaintenanceWindow{}, "id = ?", windowID).Error; err != nil {
		return fmt.Errorf("failed to delete maintenance window: %w", err)
	}

	log.WithField("window_id", windowID).Info("Deleted maintenance window")
	return nil
}

// GetDueOneTimeWindows returns planned, auto-execute, non-recurring windows
// whose planned start is at or before now.
func (r *MaintenanceRepository) GetDueOneTimeWindows(now time.Time) ([]MaintenanceWindow, error) {
	if r.db == nil {
		return nil, fmt.Errorf("database not available")
	}

	var windows []MaintenanceWindow
	err := r.db.
		Where("status = ?", WindowStatusPlanned).
		Where("auto_execute = ?", true).
		Where("recurrence_enabled = ?", false).
		Where("planned_start <= ?", now).
		Order("planned_start ASC").
		Find(&windows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get due maintenance windows: %w", err)
	}

	return windows, nil
}

// GetRecurringTemplates returns all windows with recurrence enabled. Templates
// never execute directly; the scheduler materializes one-time instances from
// them.
func (r *MaintenanceRepository) GetRecurringTemplates() ([]MaintenanceWindow, error) {
	if r.db == nil {
		return nil, fmt.Errorf("database not available")
	}

	var templates []MaintenanceWindow
	err := r.db.
		Where("recurrence_enabled = ?", true).
		Order("planned_start ASC").
		Find(&templates).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get recurring templates: %w", err)
	}

	return templates, nil
}

// GetInProgressWindows returns windows currently being executed, for the
// scheduler's status scan.
func (r *MaintenanceRepository) GetInProgressWindows() ([]MaintenanceWindow, error) {
	if r.db == nil {
		return nil, fmt.Errorf("database not available")
	}

	var windows []MaintenanceWindow
	err := r.db.
		Where("status = ?", WindowStatusInProgress).
		Order("actual_start ASC").
		Find(&windows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get in-progress windows: %w", err)
	}

	return windows, nil
}

// HasInstanceForOccurrence reports whether a recurring template already has a
// materialized instance at the given planned start. Used to keep the
// materialization step idempotent across scheduler runs.
func (r *MaintenanceRepository) HasInstanceForOccurrence(templateID string, plannedStart time.Time) (bool, error) {
	if r.db == nil {
		return false, fmt.Errorf("database not available")
	}

	var count int64
	err := r.db.Model(&MaintenanceWindow{}).
		Where("parent_template_id = ?", templateID).
		Where("planned_start = ?", plannedStart).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check occurrence instances: %w", err)
	}

	return count > 0, nil
}
