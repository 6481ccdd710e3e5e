// internal/models/activity.go
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ActivityLog is append-only: rows are written transactionally with the
// action they document and are never updated afterwards. Deletion is an
// admin-only maintenance operation. Rows outlive their actor: deleting a
// user nulls UserID and the entry survives as an actorless record.
type ActivityLog struct {
	ID          uuid.UUID  `json:"id" gorm:"type:uuid;primary_key"`
	UserID      *uuid.UUID `json:"user_id" gorm:"type:uuid;index"`
	Action      string     `json:"action" gorm:"size:100;not null;index"`
	Description string     `json:"description" gorm:"type:text"`
	IPAddress   string     `json:"ip_address" gorm:"size:45"`
	CreatedAt   time.Time  `json:"created_at"`

	// Relationships
	User *User `json:"user,omitempty" gorm:"foreignKey:UserID;constraint:OnDelete:SET NULL"`
}

func (l *ActivityLog) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}
