package config

import (
	"errors"
	"fmt"
	"strings"
)

// DBConfig is read from DB_*. It is only used when STORE_BACKEND=postgres.
type DBConfig struct {
	Host     string `env:"HOST"     envDefault:"localhost"`
	Port     int    `env:"PORT"     envDefault:"5432"`
	User     string `env:"USER"     envDefault:"itemvault"`
	Password string `env:"PASSWORD" envDefault:"itemvault"`
	Name     string `env:"NAME"     envDefault:"itemvault"`
	// SSLMode is passed through as the sslmode DSN parameter.
	SSLMode string `env:"SSL_MODE" envDefault:"disable"`

	RunMigrationsOnStart bool `env:"RUN_MIGRATIONS_ON_START" envDefault:"true"`
}

// Validate checks the fields needed to build a DSN.
func (c DBConfig) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Host) == "" {
		errs = append(errs, errors.New("DB_HOST is required"))
	}
	if strings.TrimSpace(c.Name) == "" {
		errs = append(errs, errors.New("DB_NAME is required"))
	}
	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("DB_PORT %d is out of range", c.Port))
	}
	return errors.Join(errs...)
}

// RedisConfig is read from REDIS_*. URI may be host:port or a redis:// URL.
// Sentinel and cluster modes are mutually exclusive.
type RedisConfig struct {
	URI       string `env:"URI"        envDefault:"localhost:6379"`
	Password  string `env:"PASSWORD"`
	DB        int    `env:"DB"         envDefault:"0"`
	KeyPrefix string `env:"KEY_PREFIX" envDefault:"itemvault:"`

	UseSentinel        bool     `env:"USE_SENTINEL"         envDefault:"false"`
	SentinelNodes      []string `env:"SENTINEL_NODES"       envDefault:"localhost:26379"`
	SentinelMasterName string   `env:"SENTINEL_MASTER_NAME" envDefault:"mymaster"`
	SentinelPassword   string   `env:"SENTINEL_PASSWORD"`

	UseCluster   bool     `env:"USE_CLUSTER"   envDefault:"false"`
	ClusterNodes []string `env:"CLUSTER_NODES"`
}

// Validate checks that the selected connection mode has what it needs.
func (c RedisConfig) Validate() error {
	switch {
	case c.UseSentinel && c.UseCluster:
		return errors.New("REDIS_USE_SENTINEL and REDIS_USE_CLUSTER cannot both be set")
	case c.UseSentinel:
		if strings.TrimSpace(c.SentinelMasterName) == "" || len(c.SentinelNodes) == 0 {
			return errors.New("sentinel mode needs REDIS_SENTINEL_NODES and REDIS_SENTINEL_MASTER_NAME")
		}
	case c.UseCluster:
		if len(c.ClusterNodes) == 0 && strings.TrimSpace(c.URI) == "" {
			return errors.New("cluster mode needs REDIS_CLUSTER_NODES or REDIS_URI")
		}
	default:
		if strings.TrimSpace(c.URI) == "" {
			return errors.New("REDIS_URI is required")
		}
	}
	if c.DB < 0 {
		return fmt.Errorf("REDIS_DB %d must not be negative", c.DB)
	}
	return nil
}
