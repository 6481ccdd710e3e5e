// internal/services/actor.go
package services

import (
	"github.com/google/uuid"

	"github.com/depot-app/depot-backend/internal/models"
)

// Actor is the identity attached to a request after session resolution. It
// is passed explicitly into every service call; there is no ambient
// current-user state anywhere in the process.
type Actor struct {
	ID       uuid.UUID
	Username string
	Roles    []string
}

// Anonymous is the sentinel for an unauthenticated caller. It is a distinct
// value, not "no access": some reads (products) are open to it.
var Anonymous = Actor{}

func (a Actor) IsAnonymous() bool {
	return a.ID == uuid.Nil
}

// HasRole is an exact set-membership test. The role model is deliberately
// flat: admin does not imply moderator or user, and no check here may be
// replaced by a hierarchy or bitmask.
func (a Actor) HasRole(name string) bool {
	for _, role := range a.Roles {
		if role == name {
			return true
		}
	}
	return false
}

// CanModify implements the owner-or-admin gate used by every mutation on an
// owned resource.
func (a Actor) CanModify(ownerID uuid.UUID) bool {
	if a.IsAnonymous() {
		return false
	}
	return a.ID == ownerID || a.HasRole(models.RoleAdmin)
}

// ActorForUser builds the request principal from a loaded user row.
func ActorForUser(user *models.User) Actor {
	return Actor{
		ID:       user.ID,
		Username: user.Username,
		Roles:    user.RoleNames(),
	}
}
