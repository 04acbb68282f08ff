package auth

import (
	"errors"
	"time"
)

// Role is the coarse access tier of an admin account. Roles are compared by
// exact equality; SUPER_ADMIN is not implicitly a superset of ADMIN at the
// role-gate level.
type Role string

const (
	RoleSuperAdmin Role = "SUPER_ADMIN"
	RoleAdmin      Role = "ADMIN"
	RoleStaff      Role = "STAFF"
)

// ValidRole reports whether r is a known role.
func ValidRole(r Role) bool {
	switch r {
	case RoleSuperAdmin, RoleAdmin, RoleStaff:
		return true
	}
	return false
}

// PermissionSet maps a resource name to its granted actions, e.g.
// {"products": ["read", "update"]}.
type PermissionSet map[string][]string

// Allows reports whether the set grants action on resource.
func (p PermissionSet) Allows(resource, action string) bool {
	for _, granted := range p[resource] {
		if granted == action {
			return true
		}
	}
	return false
}

// Admin is the stored administrative account.
type Admin struct {
	ID           int64
	Email        string
	PasswordHash string
	Role         Role
	Permissions  PermissionSet
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Principal is the authenticated actor attached to a request after
// verification. It carries everything the authorization gates consult.
type Principal struct {
	ID          int64
	Email       string
	Role        Role
	Permissions PermissionSet
	Active      bool
}

// Verification failures. The HTTP layer collapses all of these into one
// generic 401 so responses do not reveal which check failed; logs keep the
// distinction.
var (
	ErrInvalidCredential = errors.New("auth: invalid credential")
	ErrExpiredCredential = errors.New("auth: expired credential")
	ErrPrincipalNotFound = errors.New("auth: principal not found")
	ErrPrincipalDisabled = errors.New("auth: principal disabled")
)
