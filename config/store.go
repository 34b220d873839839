package config

import (
	"fmt"
	"strings"
)

// StoreBackend selects where users and items are persisted.
type StoreBackend string

const (
	// StorePostgres keeps users and items in PostgreSQL.
	StorePostgres StoreBackend = "postgres"
	// StoreRedis keeps users and items in Redis.
	StoreRedis StoreBackend = "redis"
)

// UnmarshalText implements encoding.TextUnmarshaler for StoreBackend.
func (s *StoreBackend) UnmarshalText(text []byte) error {
	v := StoreBackend(strings.ToLower(strings.TrimSpace(string(text))))
	if !v.Valid() {
		return fmt.Errorf("invalid StoreBackend: %q (valid options: postgres, redis)", v)
	}
	*s = v
	return nil
}

// Valid reports whether s names a known backend.
func (s StoreBackend) Valid() bool {
	return s == StorePostgres || s == StoreRedis
}
