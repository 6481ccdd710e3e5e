// internal/services/admin_service.go
package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/depot-app/depot-backend/internal/models"
	"github.com/depot-app/depot-backend/internal/utils"
)

// AdminService backs the management console. Every method re-checks the
// admin role even though the routes are gated, so a misbound route can only
// fail closed.
type AdminService struct {
	db    *gorm.DB
	blobs BlobStore
}

type DashboardStats struct {
	TotalUsers         int64                `json:"total_users"`
	ActiveUsers        int64                `json:"active_users"`
	InactiveUsers      int64                `json:"inactive_users"`
	TotalProducts      int64                `json:"total_products"`
	TotalUploads       int64                `json:"total_uploads"`
	TotalActivities    int64                `json:"total_activities"`
	ProductsByCategory map[string]int64     `json:"products_by_category"`
	RecentActivities   []models.ActivityLog `json:"recent_activities"`
}

type UserDashboardStats struct {
	MyProducts       int64                `json:"my_products"`
	MyUploads        int64                `json:"my_uploads"`
	MyActivities     int64                `json:"my_activities"`
	RecentProducts   []models.Product     `json:"recent_products"`
	RecentUploads    []models.FileUpload  `json:"recent_uploads"`
	RecentActivities []models.ActivityLog `json:"recent_activities"`
}

func NewAdminService(db *gorm.DB, blobs BlobStore) *AdminService {
	return &AdminService{db: db, blobs: blobs}
}

// ListUsers returns every account with roles and active flags.
func (s *AdminService) ListUsers(actor Actor, params utils.PaginationParams) ([]models.User, int64, error) {
	if !actor.HasRole(models.RoleAdmin) {
		return nil, 0, ErrForbidden
	}

	query := s.db.Model(&models.User{}).Preload("Roles")

	if params.Search != "" {
		searchTerm := "%" + params.Search + "%"
		query = query.Where("username LIKE ? OR email LIKE ?", searchTerm, searchTerm)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	query = utils.ApplySort(query, params, []string{"created_at", "username", "email"})
	query = utils.ApplyPagination(query, params)

	var users []models.User
	if err := query.Find(&users).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch users: %w", err)
	}

	return users, total, nil
}

// SetUserActive toggles the account's active flag. Deactivated accounts
// fail the next authentication with the AccountDisabled error and resolve
// to Anonymous on subsequent requests.
func (s *AdminService) SetUserActive(actor Actor, id uuid.UUID, active bool) (*models.User, error) {
	if !actor.HasRole(models.RoleAdmin) {
		return nil, ErrForbidden
	}

	var user models.User
	if err := s.db.Preload("Roles").First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if err := s.db.Model(&user).Update("active", active).Error; err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	user.Active = active
	return &user, nil
}

// DeleteUser removes an account and everything it owns: products, upload
// metadata, and role memberships, in one transaction with the audit row.
// Blob removal for each upload is attempted first; failures orphan the blob
// and are reported as a warning rather than aborting the cascade.
func (s *AdminService) DeleteUser(actor Actor, id uuid.UUID, ip string) (string, error) {
	if !actor.HasRole(models.RoleAdmin) {
		return "", ErrForbidden
	}

	var user models.User
	if err := s.db.Preload("Uploads").First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("database error: %w", err)
	}

	warning := ""
	orphaned := 0
	for _, upload := range user.Uploads {
		if err := s.blobs.Delete(upload.Filename); err != nil {
			orphaned++
			logrus.WithField("stored_name", upload.Filename).WithError(err).
				Warn("Blob delete failed during user cascade")
		}
	}
	if orphaned > 0 {
		warning = fmt.Sprintf("%d stored files could not be removed", orphaned)
	}

	actorID := actor.ID
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("owner_id = ?", user.ID).Delete(&models.Product{}).Error; err != nil {
			return fmt.Errorf("failed to delete owned products: %w", err)
		}
		if err := tx.Where("owner_id = ?", user.ID).Delete(&models.FileUpload{}).Error; err != nil {
			return fmt.Errorf("failed to delete owned uploads: %w", err)
		}
		if err := tx.Model(&user).Association("Roles").Clear(); err != nil {
			return fmt.Errorf("failed to clear role memberships: %w", err)
		}
		// The audit trail outlives the account: detach instead of delete so
		// the rows remain as actorless entries.
		if err := tx.Model(&models.ActivityLog{}).Where("user_id = ?", user.ID).
			Update("user_id", nil).Error; err != nil {
			return fmt.Errorf("failed to detach activity logs: %w", err)
		}
		if err := tx.Delete(&user).Error; err != nil {
			return fmt.Errorf("failed to delete user: %w", err)
		}
		return appendAudit(tx, &actorID, models.ActionDeleteUser,
			fmt.Sprintf("User deleted: %s", user.Username), ip)
	})
	if err != nil {
		return "", err
	}

	return warning, nil
}

func (s *AdminService) ListRoles(actor Actor) ([]models.Role, error) {
	if !actor.HasRole(models.RoleAdmin) {
		return nil, ErrForbidden
	}

	var roles []models.Role
	if err := s.db.Order("name").Find(&roles).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch roles: %w", err)
	}
	return roles, nil
}

// GetDashboardStats aggregates the admin dashboard numbers.
func (s *AdminService) GetDashboardStats(actor Actor) (*DashboardStats, error) {
	if !actor.HasRole(models.RoleAdmin) {
		return nil, ErrForbidden
	}

	stats := &DashboardStats{ProductsByCategory: make(map[string]int64)}

	counts := []struct {
		dest  *int64
		query *gorm.DB
	}{
		{&stats.TotalUsers, s.db.Model(&models.User{})},
		{&stats.ActiveUsers, s.db.Model(&models.User{}).Where("active = ?", true)},
		{&stats.InactiveUsers, s.db.Model(&models.User{}).Where("active = ?", false)},
		{&stats.TotalProducts, s.db.Model(&models.Product{})},
		{&stats.TotalUploads, s.db.Model(&models.FileUpload{})},
		{&stats.TotalActivities, s.db.Model(&models.ActivityLog{})},
	}
	for _, c := range counts {
		if err := c.query.Count(c.dest).Error; err != nil {
			return nil, fmt.Errorf("failed to count dashboard totals: %w", err)
		}
	}

	var categoryCounts []struct {
		Category string
		Count    int64
	}
	if err := s.db.Model(&models.Product{}).
		Select("category, COUNT(id) AS count").
		Where("category <> ''").
		Group("category").
		Scan(&categoryCounts).Error; err != nil {
		return nil, fmt.Errorf("failed to aggregate categories: %w", err)
	}
	for _, row := range categoryCounts {
		stats.ProductsByCategory[row.Category] = row.Count
	}

	if err := s.db.Preload("User").
		Order("created_at DESC").Limit(10).
		Find(&stats.RecentActivities).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch recent activity: %w", err)
	}

	return stats, nil
}

// GetUserDashboardStats aggregates the personal dashboard for a non-admin
// account.
func (s *AdminService) GetUserDashboardStats(actor Actor) (*UserDashboardStats, error) {
	if actor.IsAnonymous() {
		return nil, ErrForbidden
	}

	stats := &UserDashboardStats{}

	counts := []struct {
		dest  *int64
		query *gorm.DB
	}{
		{&stats.MyProducts, s.db.Model(&models.Product{}).Where("owner_id = ?", actor.ID)},
		{&stats.MyUploads, s.db.Model(&models.FileUpload{}).Where("owner_id = ?", actor.ID)},
		{&stats.MyActivities, s.db.Model(&models.ActivityLog{}).Where("user_id = ?", actor.ID)},
	}
	for _, c := range counts {
		if err := c.query.Count(c.dest).Error; err != nil {
			return nil, fmt.Errorf("failed to count dashboard totals: %w", err)
		}
	}

	if err := s.db.Where("owner_id = ?", actor.ID).
		Order("created_at DESC").Limit(5).
		Find(&stats.RecentProducts).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch recent products: %w", err)
	}
	if err := s.db.Where("owner_id = ?", actor.ID).
		Order("created_at DESC").Limit(5).
		Find(&stats.RecentUploads).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch recent uploads: %w", err)
	}
	if err := s.db.Where("user_id = ?", actor.ID).
		Order("created_at DESC").Limit(10).
		Find(&stats.RecentActivities).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch recent activity: %w", err)
	}

	return stats, nil
}
