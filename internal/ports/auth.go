package ports

// Package ports defines interfaces (hexagonal ports) for auth-related behavior.
// Implementations live in internal/adapters and internal/data; orchestration in internal/service.

import (
	"context"
	"errors"

	domainauth "github.com/target/itemvault/internal/domain/auth"
)

// Credential store sentinels. Implementations must return these (possibly wrapped)
// so the issuer can tell a miss from an outage.
var (
	ErrUserNotFound = errors.New("user not found")
	ErrUserExists   = errors.New("user already exists")

	// ErrPasswordMismatch is returned by PasswordHasher.Compare for a wrong password.
	ErrPasswordMismatch = errors.New("password mismatch")
)

// CredentialStore persists user records. Usernames are unique and matched exactly;
// the store enforces uniqueness itself so concurrent signups cannot both succeed.
type CredentialStore interface {
	CreateUser(ctx context.Context, in domainauth.NewUser) (*domainauth.User, error)
	GetUserByUsername(ctx context.Context, username string) (*domainauth.User, error)
	SetUserRole(ctx context.Context, username string, role domainauth.Role) error
	Ping(ctx context.Context) error
}

// TokenCodec encodes and decodes signed, time-bound identity assertions.
// Decode never returns a partially trusted identity.
type TokenCodec interface {
	Encode(id domainauth.Identity) (string, domainauth.Identity, error)
	Decode(token string) (domainauth.Identity, error)
}

// PasswordHasher produces and checks one-way salted password hashes.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}
