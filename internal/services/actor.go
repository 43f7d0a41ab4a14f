package services

import (
	"github.com/tourdesk/travel-backend/internal/models"
)

// Actor is the authenticated caller of a core operation
type Actor struct {
	UserID    int64
	Role      string
	IPAddress string
	UserAgent string
}

// SystemActor is used for scheduled jobs
var SystemActor = Actor{UserID: 0, Role: "system"}

// IsAdmin reports whether the actor has the admin role
func (a Actor) IsAdmin() bool {
	return a.Role == models.RoleAdmin
}

// IsSystem reports whether the actor is a scheduled job
func (a Actor) IsSystem() bool {
	return a.Role == SystemActor.Role
}

func (a Actor) hasRole(roles []string) bool {
	for _, role := range roles {
		if a.Role == role {
			return true
		}
	}
	return false
}
