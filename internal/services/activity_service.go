// internal/services/activity_service.go
package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/depot-app/depot-backend/internal/models"
	"github.com/depot-app/depot-backend/internal/utils"
)

// appendAudit writes one activity row inside the caller's transaction. Every
// mutation that documents itself calls this with its own tx handle so the
// audit append commits or rolls back together with the mutation.
func appendAudit(tx *gorm.DB, actorID *uuid.UUID, action, description, ip string) error {
	entry := &models.ActivityLog{
		UserID:      actorID,
		Action:      action,
		Description: description,
		IPAddress:   ip,
	}
	if err := tx.Create(entry).Error; err != nil {
		return fmt.Errorf("failed to append audit log: %w", err)
	}
	return nil
}

type ActivityService struct {
	db *gorm.DB
}

func NewActivityService(db *gorm.DB) *ActivityService {
	return &ActivityService{db: db}
}

// List returns activity entries newest first. Admin-only at the facade; the
// check is repeated here so no other entry point can bypass it.
func (s *ActivityService) List(actor Actor, params utils.PaginationParams) ([]models.ActivityLog, int64, error) {
	if !actor.HasRole(models.RoleAdmin) {
		return nil, 0, ErrForbidden
	}

	query := s.db.Model(&models.ActivityLog{}).Preload("User")

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count activity logs: %w", err)
	}

	query = utils.ApplySort(query, params, []string{"created_at", "action"})
	query = utils.ApplyPagination(query, params)

	var entries []models.ActivityLog
	if err := query.Find(&entries).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch activity logs: %w", err)
	}

	return entries, total, nil
}

// ListForUser returns the actor's own recent activity for the dashboard.
func (s *ActivityService) ListForUser(actor Actor, limit int) ([]models.ActivityLog, error) {
	if actor.IsAnonymous() {
		return nil, ErrForbidden
	}

	var entries []models.ActivityLog
	if err := s.db.Where("user_id = ?", actor.ID).
		Order("created_at DESC").Limit(limit).
		Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch activity logs: %w", err)
	}

	return entries, nil
}

// Delete removes one audit entry. This is the only way an activity row ever
// disappears and it is reserved for admin maintenance.
func (s *ActivityService) Delete(actor Actor, id uuid.UUID) error {
	if !actor.HasRole(models.RoleAdmin) {
		return ErrForbidden
	}

	var entry models.ActivityLog
	if err := s.db.First(&entry, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("database error: %w", err)
	}

	if err := s.db.Delete(&entry).Error; err != nil {
		return fmt.Errorf("failed to delete activity log: %w", err)
	}

	return nil
}
