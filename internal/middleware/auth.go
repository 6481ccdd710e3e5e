// internal/middleware/auth.go
package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/depot-app/depot-backend/internal/models"
	"github.com/depot-app/depot-backend/internal/services"
	"github.com/depot-app/depot-backend/internal/utils"
)

const actorContextKey = "actor"

// CurrentActor resolves the session token into an actor for every request.
// Missing or invalid tokens yield the Anonymous sentinel rather than an
// error; which routes an anonymous actor may reach is decided downstream.
func CurrentActor(authService *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := services.Anonymous

		authHeader := c.GetHeader("Authorization")
		if authHeader != "" {
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) == 2 && parts[0] == "Bearer" {
				actor = authService.ResolveActor(parts[1])
			}
		}

		c.Set(actorContextKey, actor)
		c.Next()
	}
}

// GetActor returns the resolved actor for this request.
func GetActor(c *gin.Context) services.Actor {
	if value, exists := c.Get(actorContextKey); exists {
		if actor, ok := value.(services.Actor); ok {
			return actor
		}
	}
	return services.Anonymous
}

// AuthRequired rejects anonymous callers.
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if GetActor(c).IsAnonymous() {
			utils.UnauthorizedResponse(c, "")
			c.Abort()
			return
		}
		c.Next()
	}
}

// AdminRequired rejects callers without the admin role with an explicit
// denial, never a silently emptied result.
func AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !GetActor(c).HasRole(models.RoleAdmin) {
			utils.ForbiddenResponse(c, "Administrator role required")
			c.Abort()
			return
		}
		c.Next()
	}
}
