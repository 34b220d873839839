package bootstrap

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/target/itemvault/config"
	redisadapter "github.com/target/itemvault/internal/adapters/redis"
	"github.com/target/itemvault/internal/core"
	"github.com/target/itemvault/internal/data"
	"github.com/target/itemvault/internal/ports"
	"github.com/thejerf/abtime"
)

// Stores are the persistence adapters behind the auth and item services.
type Stores struct {
	Users ports.CredentialStore
	Items core.ItemRepository
}

// StoreDeps groups the connections a backend may draw on.
type StoreDeps struct {
	Backend     config.StoreBackend
	DB          *sql.DB
	RedisClient redis.UniversalClient
	RedisPrefix string
	Clock       abtime.AbstractTime
}

// BuildStores selects the Postgres or Redis adapters for the configured backend.
func BuildStores(deps StoreDeps) (Stores, error) {
	clock := deps.Clock
	if clock == nil {
		clock = abtime.NewRealTime()
	}

	switch deps.Backend {
	case config.StorePostgres, "":
		if deps.DB == nil {
			return Stores{}, errors.New("postgres backend requires a database connection")
		}
		return Stores{
			Users: data.NewUserRepo(deps.DB),
			Items: data.NewItemRepoWithClock(deps.DB, clock),
		}, nil

	case config.StoreRedis:
		if deps.RedisClient == nil {
			return Stores{}, errors.New("redis backend requires a redis client")
		}
		prefix := deps.RedisPrefix
		if prefix == "" {
			prefix = redisadapter.DefaultPrefix
		}
		return Stores{
			Users: redisadapter.NewUserStore(deps.RedisClient, redisadapter.UserStoreOptions{Prefix: prefix, Clock: clock}),
			Items: redisadapter.NewItemStore(deps.RedisClient, redisadapter.ItemStoreOptions{Prefix: prefix, Clock: clock}),
		}, nil

	default:
		return Stores{}, fmt.Errorf("unknown store backend %q", deps.Backend)
	}
}
