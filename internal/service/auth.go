package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	domainauth "github.com/target/itemvault/internal/domain/auth"
	errs "github.com/target/itemvault/internal/errors"
	"github.com/target/itemvault/internal/observability/metrics"
	"github.com/target/itemvault/internal/ports"
	"github.com/target/itemvault/internal/validation"
)

// bcrypt rejects passwords longer than 72 bytes.
const maxPasswordBytes = 72

var (
	// ErrMissingCredentials is returned when username or password is blank.
	ErrMissingCredentials = errors.New("all fields are required")
	// ErrUsernameTaken is returned by Signup when the username already exists.
	ErrUsernameTaken = errors.New("username already exists")
	// ErrInvalidCredentials is the single failure returned by Login for an unknown
	// user and for a wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// dummyPassword is hashed once at startup so that a login for an unknown
// username still performs one bcrypt comparison.
const dummyPassword = "itemvault-unknown-user"

// AuthServiceOptions groups dependencies for AuthService.
type AuthServiceOptions struct {
	Users   ports.CredentialStore // Required
	Codec   ports.TokenCodec      // Required
	Hasher  ports.PasswordHasher  // Required
	Logger  *slog.Logger          // Optional
	Metrics *metrics.Metrics      // Optional
}

// AuthService signs users up, logs them in by minting tokens, and verifies presented tokens.
// It is stateless per request.
type AuthService struct {
	users     ports.CredentialStore
	codec     ports.TokenCodec
	hasher    ports.PasswordHasher
	logger    *slog.Logger
	metrics   *metrics.Metrics
	dummyHash string
}

// NewAuthService constructs a new AuthService.
func NewAuthService(opts AuthServiceOptions) (*AuthService, error) {
	if opts.Users == nil {
		return nil, errors.New("credential store is required")
	}
	if opts.Codec == nil {
		return nil, errors.New("token codec is required")
	}
	if opts.Hasher == nil {
		return nil, errors.New("password hasher is required")
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	dummy, err := opts.Hasher.Hash(dummyPassword)
	if err != nil {
		return nil, fmt.Errorf("prepare dummy hash: %w", err)
	}

	return &AuthService{
		users:     opts.Users,
		codec:     opts.Codec,
		hasher:    opts.Hasher,
		logger:    logger.With("component", "auth_service"),
		metrics:   opts.Metrics,
		dummyHash: dummy,
	}, nil
}

// MustNewAuthService constructs a new AuthService and panics on error.
func MustNewAuthService(opts AuthServiceOptions) *AuthService {
	svc, err := NewAuthService(opts)
	if err != nil {
		panic(err) //nolint:forbidigo // Must constructor fails fast when dependencies are invalid during startup
	}
	return svc
}

// SignupInput carries signup form fields.
type SignupInput struct {
	Username string `json:"username" validate:"max=64"`
	Password string `json:"password"`
}

// LoginInput carries login form fields.
type LoginInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResult is returned by a successful Login. Token is meant for the cookie only.
type LoginResult struct {
	Token    string
	Identity domainauth.Identity
}

// Signup stores a new user with role "user". It does not log the user in.
// Duplicate usernames are detected by the credential store's uniqueness constraint.
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*domainauth.User, error) {
	if err := validateSignup(in); err != nil {
		s.metrics.Signup(metrics.ResultInvalidInput)
		return nil, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		s.metrics.Signup(metrics.ResultError)
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.users.CreateUser(ctx, domainauth.NewUser{
		Username:     in.Username,
		PasswordHash: hash,
		Role:         domainauth.RoleUser,
	})
	switch {
	case errors.Is(err, ports.ErrUserExists):
		s.metrics.Signup(metrics.ResultUsernameTaken)
		return nil, ErrUsernameTaken
	case err != nil:
		s.metrics.Signup(metrics.ResultError)
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.metrics.Signup(metrics.ResultSuccess)
	s.logger.InfoContext(ctx, "user registered", "user_id", user.ID, "username", user.Username)
	return user, nil
}

func validateSignup(in SignupInput) error {
	if strings.TrimSpace(in.Username) == "" || in.Password == "" {
		return ErrMissingCredentials
	}
	if len(in.Password) > maxPasswordBytes {
		return errs.ValidationField("password", fmt.Sprintf("Password cannot exceed %d bytes", maxPasswordBytes))
	}
	return validation.Struct(in)
}

// Login checks the credentials and mints a token. Unknown usernames and wrong
// passwords both yield ErrInvalidCredentials; only the server log tells them apart.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	if in.Username == "" || in.Password == "" {
		s.metrics.Login(metrics.ResultInvalidCredentials)
		s.logger.InfoContext(ctx, "login rejected", "reason", "missing fields")
		return nil, ErrInvalidCredentials
	}

	user, err := s.users.GetUserByUsername(ctx, in.Username)
	if errors.Is(err, ports.ErrUserNotFound) {
		// Burn the same bcrypt work a real comparison would.
		_ = s.hasher.Compare(s.dummyHash, in.Password) //nolint:errcheck // result is irrelevant
		s.metrics.Login(metrics.ResultInvalidCredentials)
		s.logger.InfoContext(ctx, "login rejected", "reason", "unknown user", "username", in.Username)
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		s.metrics.Login(metrics.ResultError)
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	cmpErr := s.hasher.Compare(user.PasswordHash, in.Password)
	if cmpErr == nil && len(in.Password) > maxPasswordBytes {
		cmpErr = ports.ErrPasswordMismatch
	}
	if cmpErr != nil {
		s.metrics.Login(metrics.ResultInvalidCredentials)
		if errors.Is(cmpErr, ports.ErrPasswordMismatch) {
			s.logger.InfoContext(ctx, "login rejected", "reason", "password mismatch", "user_id", user.ID)
		} else {
			s.logger.ErrorContext(ctx, "login rejected", "reason", "unreadable password hash",
				"user_id", user.ID, "error", cmpErr)
		}
		return nil, ErrInvalidCredentials
	}

	token, identity, err := s.codec.Encode(domainauth.IdentityFor(*user))
	if err != nil {
		s.metrics.Login(metrics.ResultError)
		return nil, fmt.Errorf("encode token: %w", err)
	}

	s.metrics.Login(metrics.ResultSuccess)
	s.logger.InfoContext(ctx, "login succeeded", "user_id", user.ID, "role", user.Role)
	return &LoginResult{Token: token, Identity: identity}, nil
}

// Verify decodes a presented token. It performs no I/O.
func (s *AuthService) Verify(token string) (domainauth.Identity, error) {
	return s.codec.Decode(token)
}

// EnsureAdmin creates username with role admin, or promotes it if it already
// exists. The password of an existing account is left unchanged.
func (s *AuthService) EnsureAdmin(ctx context.Context, username, password string) (created bool, err error) {
	if err = validateSignup(SignupInput{Username: username, Password: password}); err != nil {
		return false, err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return false, fmt.Errorf("hash password: %w", err)
	}

	_, err = s.users.CreateUser(ctx, domainauth.NewUser{
		Username:     username,
		PasswordHash: hash,
		Role:         domainauth.RoleAdmin,
	})
	if err == nil {
		s.logger.InfoContext(ctx, "admin account created", "username", username)
		return true, nil
	}
	if !errors.Is(err, ports.ErrUserExists) {
		return false, fmt.Errorf("create admin: %w", err)
	}

	if err = s.users.SetUserRole(ctx, username, domainauth.RoleAdmin); err != nil {
		return false, fmt.Errorf("promote admin: %w", err)
	}
	s.logger.InfoContext(ctx, "existing account promoted to admin", "username", username)
	return false, nil
}
