// internal/models/common.go
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base model with common fields
type BaseModel struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate assigns the primary key application-side so the same schema
// works on PostgreSQL and on the sqlite driver used in tests.
func (m *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// Canonical role names seeded at provisioning time.
const (
	RoleAdmin     = "admin"
	RoleUser      = "user"
	RoleModerator = "moderator"
)

// Audit action tags
const (
	ActionRegister      = "register"
	ActionLogin         = "login"
	ActionLogout        = "logout"
	ActionCreateProduct = "create_product"
	ActionUpdateProduct = "update_product"
	ActionDeleteProduct = "delete_product"
	ActionUploadFile    = "upload_file"
	ActionDeleteFile    = "delete_file"
	ActionDeleteUser    = "delete_user"
)
