// internal/services/testutil_test.go
package services

import (
	"fmt"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/depot-app/depot-backend/internal/config"
	"github.com/depot-app/depot-backend/internal/database"
	"github.com/depot-app/depot-backend/internal/models"
	"github.com/depot-app/depot-backend/internal/utils"
)

// newTestDB opens an in-memory database with the same error translation
// the server uses, so uniqueness violations surface as gorm.ErrDuplicatedKey
// here too.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// A second connection to :memory: would see an empty database.
	sqlDB.SetMaxOpenConns(1)

	// PostgreSQL enforces the declared constraints; make sqlite do the same
	// so cascade ordering bugs surface here.
	require.NoError(t, db.Exec("PRAGMA foreign_keys = ON").Error)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Role{},
		&models.Product{},
		&models.FileUpload{},
		&models.ActivityLog{},
	))
	require.NoError(t, database.SeedRoles(db))

	return db
}

func newTestConfig(t *testing.T) *config.Config {
	t.Helper()

	cfg := &config.Config{
		Environment: "test",
		Auth: config.AuthConfig{
			SecretKey:       "test-secret",
			SessionTokenTTL: 1,
		},
		Uploads: config.UploadConfig{
			LocalDir:          t.TempDir(),
			MaxSizeBytes:      1024 * 1024,
			AllowedExtensions: []string{".txt", ".pdf", ".png", ".jpg", ".jpeg", ".gif", ".doc", ".docx"},
		},
	}
	utils.SetSessionSecret(cfg.Auth.SecretKey)
	return cfg
}

// createTestUser provisions an account with the named roles and the password
// "password123".
func createTestUser(t *testing.T, db *gorm.DB, username string, roleNames ...string) *models.User {
	t.Helper()

	var roles []models.Role
	if len(roleNames) > 0 {
		require.NoError(t, db.Where("name IN ?", roleNames).Find(&roles).Error)
		require.Len(t, roles, len(roleNames))
	}

	user := &models.User{
		Username: username,
		Email:    username + "@example.com",
		Active:   true,
		Roles:    roles,
	}
	require.NoError(t, user.SetPassword("password123"))
	require.NoError(t, db.Create(user).Error)
	return user
}

func countAudit(t *testing.T, db *gorm.DB, action string) int64 {
	t.Helper()

	var count int64
	require.NoError(t, db.Model(&models.ActivityLog{}).Where("action = ?", action).Count(&count).Error)
	return count
}

// memoryBlobStore is an in-process BlobStore for exercising the upload
// protocol without touching the filesystem.
type memoryBlobStore struct {
	objects map[string][]byte

	failPut    bool
	failDelete bool
}

func newMemoryBlobStore() *memoryBlobStore {
	return &memoryBlobStore{objects: make(map[string][]byte)}
}

func (m *memoryBlobStore) Put(key string, data []byte, contentType string) (string, error) {
	if m.failPut {
		return "", fmt.Errorf("blob store unavailable")
	}
	m.objects[key] = append([]byte(nil), data...)
	return "mem://" + key, nil
}

func (m *memoryBlobStore) Get(key string) ([]byte, error) {
	data, ok := m.objects[key]
	if !ok {
		return nil, fmt.Errorf("no such blob: %s", key)
	}
	return data, nil
}

func (m *memoryBlobStore) Delete(key string) error {
	if m.failDelete {
		return fmt.Errorf("blob store unavailable")
	}
	if _, ok := m.objects[key]; !ok {
		return fmt.Errorf("no such blob: %s", key)
	}
	delete(m.objects, key)
	return nil
}
