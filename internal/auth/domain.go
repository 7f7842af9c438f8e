package auth

import (
	"time"

	"github.com/nbthub-com/project-manager/internal/authz"
)

// User represents an authenticated member account.
type User struct {
	ID           int64
	Name         string
	Email        string
	Role         authz.Role
	PasswordHash string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Principal converts the account into the actor the authz package evaluates.
func (u *User) Principal() authz.Principal {
	return authz.Principal{ID: u.ID, Role: u.Role}
}
