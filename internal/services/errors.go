// internal/services/errors.go
package services

import (
	"errors"
	"fmt"

	"github.com/depot-app/depot-backend/internal/utils"
)

// Error taxonomy shared by every service. Handlers map these to HTTP
// responses with errors.Is / errors.As; service code never relies on
// matching error text.
var (
	// ErrInvalidCredentials covers both an unknown username and a password
	// mismatch so the login surface cannot be used for username enumeration.
	ErrInvalidCredentials = errors.New("invalid username or password")

	// ErrAccountDisabled means the credentials verified but the account's
	// active flag is off.
	ErrAccountDisabled = errors.New("account is disabled")

	// ErrForbidden means the actor is authenticated but not authorized.
	ErrForbidden = errors.New("access denied")

	// ErrNotFound means the resource id does not resolve.
	ErrNotFound = errors.New("not found")

	// ErrConflict means a storage-level uniqueness constraint was violated.
	ErrConflict = errors.New("already exists")
)

// ValidationError carries field-level messages for user-correctable input
// problems.
type ValidationError struct {
	Fields []utils.FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	return fmt.Sprintf("validation failed: %s", e.Fields[0].Message)
}

// validateStruct runs the shared validator and wraps failures into the
// taxonomy.
func validateStruct(s interface{}) error {
	if err := utils.ValidateStruct(s); err != nil {
		return &ValidationError{Fields: utils.GetValidationErrors(err)}
	}
	return nil
}
