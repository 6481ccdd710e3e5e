// internal/models/upload.go
package models

import (
	"github.com/google/uuid"
)

// FileUpload is the metadata row for a stored blob. Filename is the
// system-generated stored name and the only value ever used to address the
// blob store; OriginalFilename is untrusted user input kept for display.
type FileUpload struct {
	BaseModel
	Filename         string    `json:"filename" gorm:"uniqueIndex;size:255;not null"`
	OriginalFilename string    `json:"original_filename" gorm:"size:255;not null"`
	FilePath         string    `json:"-" gorm:"size:500;not null"`
	FileSize         int64     `json:"file_size"`
	MimeType         string    `json:"mime_type" gorm:"size:100"`
	OwnerID          uuid.UUID `json:"owner_id" gorm:"type:uuid;not null;index"`

	// Relationships
	Owner User `json:"owner,omitempty" gorm:"foreignKey:OwnerID"`
}
