package config

import (
	"errors"
	"os"
	"strings"
)

// AppConfig is the main application configuration struct that composes
// domain-specific configuration from separate files.
//
// Configuration is loaded from environment variables using the
// github.com/caarlos0/env library. See individual domain config
// files for details on available environment variables:
//   - auth.go: token, password hashing and admin bootstrap
//   - store.go: backend selection
//   - database.go: Postgres and Redis connections
//   - http.go: HTTP server configuration
type AppConfig struct {
	// IsDev relaxes production guardrails (insecure cookies, default JWT secret).
	// Set DEV=true or NODE_ENV=development for development mode.
	IsDev bool `env:"DEV" envDefault:"false"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	Auth AuthConfig `envPrefix:"AUTH_"`

	Store StoreBackend `env:"STORE_BACKEND" envDefault:"postgres"`

	Postgres DBConfig    `envPrefix:"DB_"`
	Redis    RedisConfig `envPrefix:"REDIS_"`

	HTTP HTTPConfig
}

// Sanitize applies guardrails to configuration values loaded from env.
// This should be called after loading configuration from environment variables.
func (c *AppConfig) Sanitize() {
	c.detectDevMode()

	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	c.Auth.Sanitize(c.IsDev)
	c.HTTP.Sanitize()
}

// Validate reports configuration that cannot be started with.
func (c *AppConfig) Validate() error {
	var errs []error
	if err := c.Auth.Validate(c.IsDev); err != nil {
		errs = append(errs, err)
	}
	switch c.Store {
	case StorePostgres:
		errs = append(errs, c.Postgres.Validate())
	case StoreRedis:
		errs = append(errs, c.Redis.Validate())
	default:
		errs = append(errs, errors.New("STORE_BACKEND must be postgres or redis"))
	}
	return errors.Join(errs...)
}

// SecureCookies reports whether the token cookie must always carry Secure.
func (c *AppConfig) SecureCookies() bool { return !c.IsDev }

// detectDevMode checks both DEV and NODE_ENV environment variables.
// NODE_ENV is checked as a fallback (common in frontend tooling).
func (c *AppConfig) detectDevMode() {
	if !c.IsDev {
		nodeEnv := strings.ToLower(os.Getenv("NODE_ENV"))
		c.IsDev = nodeEnv == "development" || nodeEnv == "dev"
	}
}
