// internal/database/connection.go
package database

import (
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/depot-app/depot-backend/internal/config"
	"github.com/depot-app/depot-backend/internal/models"
)

func Initialize(cfg *config.Config) (*gorm.DB, error) {
	logLevel := logger.Info
	if cfg.Database.LogLevel == "silent" {
		logLevel = logger.Silent
	}

	// TranslateError turns driver-specific uniqueness violations into
	// gorm.ErrDuplicatedKey, which the services map to the Conflict error.
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger:         logger.Default.LogMode(logLevel),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.Database.MaxLifetime) * time.Second)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logrus.Info("Database connection established")
	return db, nil
}

func Close(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		logrus.WithError(err).Error("Error getting underlying sql.DB")
		return
	}

	if err := sqlDB.Close(); err != nil {
		logrus.WithError(err).Error("Error closing database connection")
	}
}

func RunMigrations(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.Role{},
		&models.Product{},
		&models.FileUpload{},
		&models.ActivityLog{},
	)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_products_category_price ON products(category, price)",
		"CREATE INDEX IF NOT EXISTS idx_products_created_at ON products(created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_activity_logs_created_at ON activity_logs(created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_file_uploads_created_at ON file_uploads(created_at DESC)",
	}

	for _, index := range indexes {
		if err := db.Exec(index).Error; err != nil {
			logrus.WithError(err).Warnf("Failed to create index: %s", index)
		}
	}

	return nil
}

// SeedRoles creates the canonical roles if they do not exist. Safe to run
// repeatedly.
func SeedRoles(db *gorm.DB) error {
	roles := []models.Role{
		{Name: models.RoleAdmin, Description: "Administrator with full access"},
		{Name: models.RoleUser, Description: "Standard user"},
		{Name: models.RoleModerator, Description: "Moderator"},
	}

	for _, role := range roles {
		var count int64
		if err := db.Model(&models.Role{}).Where("name = ?", role.Name).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check role %s: %w", role.Name, err)
		}
		if count == 0 {
			if err := db.Create(&role).Error; err != nil {
				return fmt.Errorf("failed to create role %s: %w", role.Name, err)
			}
			logrus.Infof("Created role %s", role.Name)
		}
	}

	return nil
}

// CreateAdminUser provisions the designated administrator account. It fails
// if the admin role has not been seeded or if the username is already taken.
func CreateAdminUser(db *gorm.DB, username, email, password string) (*models.User, error) {
	var adminRole models.Role
	if err := db.Where("name = ?", models.RoleAdmin).First(&adminRole).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("admin role not found: run init-db first")
		}
		return nil, fmt.Errorf("failed to look up admin role: %w", err)
	}

	var count int64
	if err := db.Model(&models.User{}).Where("username = ?", username).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}
	if count > 0 {
		return nil, fmt.Errorf("user %q already exists", username)
	}

	admin := &models.User{
		Username: username,
		Email:    email,
		Active:   true,
		Roles:    []models.Role{adminRole},
	}
	if err := admin.SetPassword(password); err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	if err := db.Create(admin).Error; err != nil {
		return nil, fmt.Errorf("failed to create admin user: %w", err)
	}

	return admin, nil
}
