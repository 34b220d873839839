package auth

// Package auth contains domain-level types for users, roles and token identities.
// It is pure and free of framework/adapter concerns.

import (
	"errors"
	"strings"
	"time"
)

// Role represents an application's authorization role.
// Keep string form for easy persistence and token claims.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// ErrUnknownRole is returned by ParseRole for values outside the known set.
var ErrUnknownRole = errors.New("unknown role")

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// ParseRole converts a stored or claimed role string into a Role.
// An empty value maps to RoleUser, matching the default assigned at signup.
func ParseRole(s string) (Role, error) {
	r := Role(strings.TrimSpace(s))
	if r == "" {
		return RoleUser, nil
	}
	if !r.Valid() {
		return "", ErrUnknownRole
	}
	return r, nil
}

// User is the credential record owned by the credential store.
// PasswordHash never leaves the server.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// NewUser is the input accepted by credential stores when creating a record.
type NewUser struct {
	Username     string
	PasswordHash string
	Role         Role
}

// Identity is the assertion carried by a token and attached to a request once verified.
// It is immutable and never persisted.
type Identity struct {
	Subject   string    `json:"id"`
	Username  string    `json:"username"`
	Role      Role      `json:"role"`
	IssuedAt  time.Time `json:"iat"`
	ExpiresAt time.Time `json:"exp"`
}

// IdentityFor projects a user record into an identity without timestamps.
// The codec fills in IssuedAt and ExpiresAt when encoding.
func IdentityFor(u User) Identity {
	return Identity{Subject: u.ID, Username: u.Username, Role: u.Role}
}

// HasRole reports exact role equality. There is no hierarchy: an admin does not
// satisfy a user requirement.
func (i Identity) HasRole(r Role) bool { return i.Role == r }
