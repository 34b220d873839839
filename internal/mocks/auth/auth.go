package auth

// Package auth contains simple hand-written test doubles for auth ports.
// These are lightweight and suitable for unit tests without codegen.

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	domainauth "github.com/target/itemvault/internal/domain/auth"
	"github.com/target/itemvault/internal/ports"
)

// Ensure compile-time conformance to ports.
var (
	_ ports.CredentialStore = (*MemoryCredentialStore)(nil)
	_ ports.PasswordHasher  = (*PlainHasher)(nil)
)

// MemoryCredentialStore is an in-memory, concurrency-safe CredentialStore.
// Optional Func fields override behavior to inject failures.
type MemoryCredentialStore struct {
	mu    sync.Mutex
	users map[string]domainauth.User

	CreateUserFunc func(ctx context.Context, in domainauth.NewUser) (*domainauth.User, error)
	GetUserFunc    func(ctx context.Context, username string) (*domainauth.User, error)
	PingErr        error
}

// NewMemoryCredentialStore creates an empty store.
func NewMemoryCredentialStore() *MemoryCredentialStore {
	return &MemoryCredentialStore{users: make(map[string]domainauth.User)}
}

func (s *MemoryCredentialStore) CreateUser(ctx context.Context, in domainauth.NewUser) (*domainauth.User, error) {
	if s.CreateUserFunc != nil {
		return s.CreateUserFunc(ctx, in)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.users == nil {
		s.users = make(map[string]domainauth.User)
	}
	if _, ok := s.users[in.Username]; ok {
		return nil, fmt.Errorf("username %q: %w", in.Username, ports.ErrUserExists)
	}
	role := in.Role
	if role == "" {
		role = domainauth.RoleUser
	}
	u := domainauth.User{
		ID:           uuid.NewString(),
		Username:     in.Username,
		PasswordHash: in.PasswordHash,
		Role:         role,
		CreatedAt:    time.Now().UTC(),
	}
	s.users[in.Username] = u
	return &u, nil
}

func (s *MemoryCredentialStore) GetUserByUsername(ctx context.Context, username string) (*domainauth.User, error) {
	if s.GetUserFunc != nil {
		return s.GetUserFunc(ctx, username)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[username]
	if !ok {
		return nil, ports.ErrUserNotFound
	}
	return &u, nil
}

func (s *MemoryCredentialStore) SetUserRole(_ context.Context, username string, role domainauth.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[username]
	if !ok {
		return ports.ErrUserNotFound
	}
	u.Role = role
	s.users[username] = u
	return nil
}

func (s *MemoryCredentialStore) Ping(context.Context) error { return s.PingErr }

// Len returns the number of stored users.
func (s *MemoryCredentialStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users)
}

// PlainHasher is a non-cryptographic PasswordHasher for fast tests.
// Hash is "plain:" + password.
type PlainHasher struct {
	HashErr error
}

func (h PlainHasher) Hash(password string) (string, error) {
	if h.HashErr != nil {
		return "", h.HashErr
	}
	return "plain:" + password, nil
}

func (h PlainHasher) Compare(hash, password string) error {
	if hash != "plain:"+password {
		return ports.ErrPasswordMismatch
	}
	return nil
}
