// internal/models/product.go
package models

import (
	"github.com/google/uuid"
)

type Product struct {
	BaseModel
	Name        string    `json:"name" gorm:"size:100;not null"`
	Description string    `json:"description" gorm:"type:text"`
	Price       float64   `json:"price" gorm:"type:decimal(10,2);not null"`
	Stock       int       `json:"stock" gorm:"default:0"`
	Category    string    `json:"category" gorm:"size:50;index"`
	ImageURL    string    `json:"image_url" gorm:"size:200"`
	OwnerID     uuid.UUID `json:"owner_id" gorm:"type:uuid;not null;index"`

	// Relationships
	Owner User `json:"owner,omitempty" gorm:"foreignKey:OwnerID"`
}
