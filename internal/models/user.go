// internal/models/user.go
package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

type User struct {
	BaseModel
	Username     string     `json:"username" gorm:"uniqueIndex;size:80;not null"`
	Email        string     `json:"email" gorm:"uniqueIndex;size:120;not null"`
	PasswordHash string     `json:"-" gorm:"size:200;not null"`
	FirstName    string     `json:"first_name" gorm:"size:50"`
	LastName     string     `json:"last_name" gorm:"size:50"`
	Active       bool       `json:"active" gorm:"default:true"`
	LastLoginAt  *time.Time `json:"last_login_at"`

	// Relationships
	Roles    []Role       `json:"roles,omitempty" gorm:"many2many:user_roles"`
	Products []Product    `json:"products,omitempty" gorm:"foreignKey:OwnerID"`
	Uploads  []FileUpload `json:"uploads,omitempty" gorm:"foreignKey:OwnerID"`
}

func (u *User) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hashedPassword)
	return nil
}

func (u *User) CheckPassword(password string) error {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password))
}

// HasRole reports whether any attached role has exactly this name. The role
// model is flat: admin does not imply user or moderator, and callers that
// want owner-or-admin semantics must test both conditions themselves.
func (u *User) HasRole(name string) bool {
	for _, role := range u.Roles {
		if role.Name == name {
			return true
		}
	}
	return false
}

// RoleNames returns the names of the attached roles.
func (u *User) RoleNames() []string {
	names := make([]string, 0, len(u.Roles))
	for _, role := range u.Roles {
		names = append(names, role.Name)
	}
	return names
}

type Role struct {
	BaseModel
	Name        string `json:"name" gorm:"uniqueIndex;size:50;not null"`
	Description string `json:"description" gorm:"size:200"`
}
