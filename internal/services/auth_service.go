// internal/services/auth_service.go
package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/depot-app/depot-backend/internal/config"
	"github.com/depot-app/depot-backend/internal/models"
	"github.com/depot-app/depot-backend/internal/utils"
)

type AuthService struct {
	db  *gorm.DB
	cfg *config.Config
}

type RegisterRequest struct {
	Username  string `json:"username" validate:"required,username"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=6"`
	FirstName string `json:"first_name" validate:"max=50"`
	LastName  string `json:"last_name" validate:"max=50"`
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type AuthResponse struct {
	User      *models.User `json:"user"`
	Token     string       `json:"token"`
	TokenType string       `json:"token_type"`
	ExpiresIn int          `json:"expires_in"` // in seconds
}

func NewAuthService(db *gorm.DB, cfg *config.Config) *AuthService {
	return &AuthService{db: db, cfg: cfg}
}

// Register creates a new account with the default "user" role. Uniqueness of
// username and email is enforced by the database constraints, not by a prior
// read, so concurrent registrations cannot both succeed.
func (s *AuthService) Register(req *RegisterRequest, ip string) (*models.User, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	var defaultRole models.Role
	if err := s.db.Where("name = ?", models.RoleUser).First(&defaultRole).Error; err != nil {
		return nil, fmt.Errorf("default role not seeded: %w", err)
	}

	user := &models.User{
		Username:  req.Username,
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Active:    true,
		Roles:     []models.Role{defaultRole},
	}
	if err := user.SetPassword(req.Password); err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrConflict
			}
			return fmt.Errorf("failed to create user: %w", err)
		}
		return appendAudit(tx, &user.ID, models.ActionRegister,
			fmt.Sprintf("New user registered: %s", user.Username), ip)
	})
	if err != nil {
		return nil, err
	}

	return user, nil
}

// Login authenticates with a case-sensitive username lookup. An unknown
// username and a wrong password both return ErrInvalidCredentials; only a
// verified password on a deactivated account returns ErrAccountDisabled.
// The last-login timestamp and the login audit row commit in one
// transaction: if the audit write fails the login fails.
func (s *AuthService) Login(req *LoginRequest, ip string) (*AuthResponse, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	var user models.User
	if err := s.db.Preload("Roles").Where("username = ?", req.Username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if err := user.CheckPassword(req.Password); err != nil {
		return nil, ErrInvalidCredentials
	}

	if !user.Active {
		return nil, ErrAccountDisabled
	}

	now := time.Now()
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&user).Update("last_login_at", &now).Error; err != nil {
			return fmt.Errorf("failed to record login time: %w", err)
		}
		return appendAudit(tx, &user.ID, models.ActionLogin,
			fmt.Sprintf("Login by %s", user.Username), ip)
	})
	if err != nil {
		return nil, err
	}

	token, err := utils.GenerateSessionToken(user.ID, user.Username, s.cfg.Auth.SessionTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to generate session token: %w", err)
	}

	return &AuthResponse{
		User:      &user,
		Token:     token,
		TokenType: "Bearer",
		ExpiresIn: s.cfg.Auth.SessionTokenTTL * 3600,
	}, nil
}

// ResolveActor maps a session token to the request principal. It is a pure
// lookup: invalid tokens, unknown users, and deactivated accounts all
// resolve to Anonymous rather than an error, and nothing is mutated. Roles
// are loaded fresh so revocations apply to the next request.
func (s *AuthService) ResolveActor(token string) Actor {
	claims, err := utils.ValidateSessionToken(token)
	if err != nil {
		return Anonymous
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return Anonymous
	}

	var user models.User
	if err := s.db.Preload("Roles").First(&user, "id = ?", userID).Error; err != nil {
		return Anonymous
	}
	if !user.Active {
		return Anonymous
	}

	return ActorForUser(&user)
}

// Logout records the end of the session. Token invalidation itself is the
// client discarding the token; the audit trail is what this owns.
func (s *AuthService) Logout(actor Actor, ip string) error {
	if actor.IsAnonymous() {
		return ErrForbidden
	}

	actorID := actor.ID
	return s.db.Transaction(func(tx *gorm.DB) error {
		return appendAudit(tx, &actorID, models.ActionLogout,
			fmt.Sprintf("Logout by %s", actor.Username), ip)
	})
}

// GetUser returns a user profile. A user may read their own profile; admins
// may read anyone's.
func (s *AuthService) GetUser(actor Actor, id uuid.UUID) (*models.User, error) {
	if actor.IsAnonymous() {
		return nil, ErrForbidden
	}
	if actor.ID != id && !actor.HasRole(models.RoleAdmin) {
		return nil, ErrForbidden
	}

	var user models.User
	if err := s.db.Preload("Roles").First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	return &user, nil
}
