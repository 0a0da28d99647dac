package auth

import (
	"fmt"
	"time"
)

// Role is the access tier assigned to a user. The set is closed: stored
// values outside it fail ParseRole instead of flowing through as free text.
type Role string

const (
	// RoleAdmin may manage users and groups.
	RoleAdmin Role = "admin"
	// RoleMortal is the default tier granted at registration.
	RoleMortal Role = "mortal"
)

// ParseRole maps a stored string onto the closed role set.
func ParseRole(value string) (Role, error) {
	switch Role(value) {
	case RoleAdmin:
		return RoleAdmin, nil
	case RoleMortal:
		return RoleMortal, nil
	default:
		return "", fmt.Errorf("auth: unrecognized role %q", value)
	}
}

// User represents a registered account.
type User struct {
	ID           string
	Username     string
	FullName     string
	Email        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TokenRecord is an issued bearer credential. Records are written once at
// login and read on every guarded request; the request path never mutates
// them.
type TokenRecord struct {
	ID        string
	Token     string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}
