package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// UserRole defines the access tier of an account.
type UserRole string

const (
	RoleSuperAdmin UserRole = "SUPER_ADMIN"
	RoleOwner      UserRole = "OWNER"
	RoleStaff      UserRole = "STAFF"
)

// Valid reports whether the role is supported.
func (r UserRole) Valid() bool {
	switch r {
	case RoleSuperAdmin, RoleOwner, RoleStaff:
		return true
	default:
		return false
	}
}

// User is an account able to sign in. SchoolID is nil for super admins, who
// are not bound to a single tenant.
type User struct {
	ID           string    `db:"id" json:"id"`
	SchoolID     *string   `db:"school_id" json:"school_id,omitempty"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	FullName     string    `db:"full_name" json:"full_name"`
	Role         UserRole  `db:"role" json:"role"`
	Active       bool      `db:"active" json:"active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// JWTClaims carries the authenticated identity through request handling.
type JWTClaims struct {
	UserID   string   `json:"uid"`
	SchoolID string   `json:"school_id,omitempty"`
	Role     UserRole `json:"role"`
	jwt.RegisteredClaims
}

// CanAccessSchool reports whether the claims allow operating on the tenant.
func (c *JWTClaims) CanAccessSchool(schoolID string) bool {
	if c.Role == RoleSuperAdmin {
		return true
	}
	return c.SchoolID != "" && c.SchoolID == schoolID
}
