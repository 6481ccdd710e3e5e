// internal/handlers/common.go
package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/depot-app/depot-backend/internal/services"
	"github.com/depot-app/depot-backend/internal/utils"
)

// respondServiceError maps the service error taxonomy onto the JSON surface.
// Validation and authorization failures are handled here, at the boundary of
// each operation; anything outside the taxonomy is an unexpected failure and
// becomes a generic server error.
func respondServiceError(c *gin.Context, err error, resource string) {
	var validationErr *services.ValidationError
	switch {
	case errors.As(err, &validationErr):
		utils.ValidationErrorResponse(c, validationErr.Fields)
	case errors.Is(err, services.ErrInvalidCredentials), errors.Is(err, services.ErrAccountDisabled):
		// Both cases surface the same generic denial so the login endpoint
		// cannot be used to enumerate usernames or account state.
		utils.UnauthorizedResponse(c, "Invalid username or password")
	case errors.Is(err, services.ErrForbidden):
		utils.ForbiddenResponse(c, "")
	case errors.Is(err, services.ErrNotFound):
		utils.NotFoundResponse(c, resource)
	case errors.Is(err, services.ErrConflict):
		utils.ConflictResponse(c, resource+" already exists")
	default:
		logrus.WithError(err).Error("Unexpected service error")
		utils.InternalErrorResponse(c)
	}
}
