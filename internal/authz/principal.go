// Package authz centralizes the access-control model: every handler resolves
// the acting principal, classifies its relationship to the record, and asks
// this package for a decision instead of re-deriving role logic inline.
package authz

import "fmt"

// Role is the stored role of a principal. "Manager" is deliberately absent:
// managing is a relationship (being referenced as a project's manager), not a
// role column.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleUser   Role = "user"
	RoleClient Role = "client"
)

// ParseRole validates a stored role value.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleAdmin, RoleUser, RoleClient:
		return Role(s), nil
	}
	return "", fmt.Errorf("authz: unknown role %q", s)
}

// Principal is the authenticated actor a decision is evaluated for.
type Principal struct {
	ID   int64
	Role Role
}

// IsAdmin reports whether the principal holds the admin role.
func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}
