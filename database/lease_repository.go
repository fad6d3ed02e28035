package database

import (
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// =============================================================================
// LEASE REPOSITORY - advisory scheduler lock
// =============================================================================

// LeaseRepository handles the advisory lease that serializes scheduler runs.
type LeaseRepository struct {
	db *gorm.DB
}

// NewLeaseRepository creates a new lease repository.
func NewLeaseRepository(conn Connection) *LeaseRepository {
	return &LeaseRepository{
		db: conn.GetGormDB(),
	}
}

// TryAcquire attempts to take the named lease for the given holder. It
// succeeds when the lease does not exist, is already held by this holder, or
// has expired. Returns false without error when another live holder owns it.
func (r *LeaseRepository) TryAcquire(name, holderID string, ttl time.Duration) (bool, error) {
	if r.db == nil {
		return false, fmt.Errorf("database not available")
	}

	now := time.Now().UTC()
	acquired := false

	err := r.db.Transaction(func(tx *gorm.DB) error {
		var lease SchedulerLease
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("name = ?", name).First(&lease).Error

		switch {
		case err == gorm.ErrRecordNotFound:
			lease = SchedulerLease{
				Name:       name,
				HolderID:   holderID,
				AcquiredAt: now,
				ExpiresAt:  now.Add(ttl),
			}
			if err := tx.Create(&lease).Error; err != nil {
				return fmt.Errorf("failed to create lease: %w", err)
			}
			acquired = true
			return nil

		case err != nil:
			return fmt.Errorf("failed to read lease: %w", err)
		}

		if lease.HolderID != holderID && lease.ExpiresAt.After(now) {
			return nil
		}

		updates := map[string]interface{}{
			"holder_id":   holderID,
			"acquired_at": now,
			"expires_at":  now.Add(ttl),
		}
		if err := tx.Model(&SchedulerLease{}).Where("name = ?", name).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to take over lease: %w", err)
		}
		acquired = true
		return nil
	})
	if err != nil {
		return false, err
	}

	log.WithFields(log.Fields{
		"lease":    name,
		"holder":   holderID,
		"acquired": acquired,
	}).Debug("Lease acquisition attempt")

	return acquired, nil
}

// Release gives up the lease if this holder still owns it. Releasing a lease
// held by someone else is a no-op.
func (r *LeaseRepository) Release(name, holderID string) error {
	if r.db == nil {
		return fmt.Errorf("database not available")
	}

	result := r.db.Where("name = ? AND holder_id = ?", name, holderID).Delete(&SchedulerLease{})
	if result.Error != nil {
		return fmt.Errorf("failed to release lease: %w", result.Error)
	}

	if result.RowsAffected > 0 {
		log.WithFields(log.Fields{
			"lease":  name,
			"holder": holderID,
		}).Debug("Released lease")
	}
	return nil
}
