package config

import (
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// DevJWTSecret is substituted for an empty AUTH_JWT_SECRET in dev mode only.
const DevJWTSecret = "dev-insecure-secret"

// minSecretBytes is the shortest HMAC key accepted outside dev mode.
const minSecretBytes = 32

// BootstrapAdminConfig names an account that is created (or promoted) to admin at startup.
type BootstrapAdminConfig struct {
	Username string `env:"USERNAME"`
	Password string `env:"PASSWORD"`
}

// Enabled reports whether both fields are set.
func (b BootstrapAdminConfig) Enabled() bool {
	return b.Username != "" && b.Password != ""
}

// AuthConfig groups all authentication-related configuration.
type AuthConfig struct {
	// JWTSecret signs and verifies tokens. Required outside dev mode.
	JWTSecret string `env:"JWT_SECRET"`

	// TokenTTL is the lifetime of an issued token and of its cookie.
	TokenTTL time.Duration `env:"TOKEN_TTL" envDefault:"1h"`

	// BcryptCost is clamped to bcrypt's accepted range.
	BcryptCost int `env:"BCRYPT_COST" envDefault:"10"`

	BootstrapAdmin BootstrapAdminConfig `envPrefix:"BOOTSTRAP_ADMIN_"`
}

// Sanitize fills dev defaults and clamps numeric values.
func (a *AuthConfig) Sanitize(isDev bool) {
	a.JWTSecret = strings.TrimSpace(a.JWTSecret)
	if a.JWTSecret == "" && isDev {
		a.JWTSecret = DevJWTSecret
	}
	if a.TokenTTL <= 0 {
		a.TokenTTL = time.Hour
	}
	if a.BcryptCost < bcrypt.MinCost {
		a.BcryptCost = bcrypt.DefaultCost
	}
	if a.BcryptCost > bcrypt.MaxCost {
		a.BcryptCost = bcrypt.MaxCost
	}
	a.BootstrapAdmin.Username = strings.TrimSpace(a.BootstrapAdmin.Username)
}

// Validate rejects a missing or weak secret outside dev mode.
func (a *AuthConfig) Validate(isDev bool) error {
	if isDev {
		return nil
	}
	switch {
	case a.JWTSecret == "":
		return errors.New("AUTH_JWT_SECRET is required")
	case a.JWTSecret == DevJWTSecret:
		return errors.New("AUTH_JWT_SECRET must not be the development default")
	case len(a.JWTSecret) < minSecretBytes:
		return errors.New("AUTH_JWT_SECRET must be at least 32 bytes")
	}
	return nil
}
