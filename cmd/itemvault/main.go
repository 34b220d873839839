package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/target/itemvault/config"
	"github.com/target/itemvault/internal/bootstrap"
	"golang.org/x/sync/errgroup"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := bootstrap.InitLogger(os.Getenv("LOG_LEVEL"))
	if err := run(ctx, logger); err != nil {
		logger.ErrorContext(ctx, "fatal error", "error", err)
		stop()
		os.Exit(1) //nolint:forbidigo // Main entrypoint should exit with non-zero status on fatal errors.
	}
}

func run(ctx context.Context, logger *slog.Logger) error {
	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		return err
	}
	logger = bootstrap.InitLogger(cfg.LogLevel)
	logStartupInfo(ctx, logger, &cfg)

	infra, err := initInfrastructure(ctx, &cfg, logger)
	if err != nil {
		return err
	}
	defer infra.close(ctx, logger)

	stores, err := bootstrap.BuildStores(bootstrap.StoreDeps{
		Backend:     cfg.Store,
		DB:          infra.db,
		RedisClient: infra.redis,
		RedisPrefix: cfg.Redis.KeyPrefix,
	})
	if err != nil {
		return err
	}

	services, err := bootstrap.NewServices(bootstrap.ServiceDeps{Auth: cfg.Auth, Stores: stores, Logger: logger})
	if err != nil {
		return err
	}
	if err = bootstrap.BootstrapAdmin(ctx, services.Auth, cfg.Auth.BootstrapAdmin, logger); err != nil {
		return err
	}

	server := bootstrap.NewHTTPServer(&bootstrap.HTTPServerConfig{Config: &cfg, Services: services, Logger: logger})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return bootstrap.ServeHTTP(gctx, server, nil, logger)
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down services...")
		return nil
	})
	return g.Wait()
}

func logStartupInfo(ctx context.Context, logger *slog.Logger, cfg *config.AppConfig) {
	logger.InfoContext(ctx, "starting itemvault service",
		"store_backend", cfg.Store,
		"http_addr", cfg.HTTP.Addr,
		"dev_mode", cfg.IsDev,
		"token_ttl", cfg.Auth.TokenTTL,
	)
}

type infrastructure struct {
	db    *sql.DB
	redis redis.UniversalClient
}

func (i infrastructure) close(ctx context.Context, logger *slog.Logger) {
	if i.db != nil {
		if err := i.db.Close(); err != nil {
			logger.ErrorContext(ctx, "close database failed", "error", err)
		}
	}
	if i.redis != nil {
		if err := i.redis.Close(); err != nil {
			logger.ErrorContext(ctx, "close redis failed", "error", err)
		}
	}
}

// initInfrastructure connects only what the selected store backend needs and
// runs migrations for Postgres when enabled.
func initInfrastructure(ctx context.Context, cfg *config.AppConfig, logger *slog.Logger) (infrastructure, error) {
	dbCfg := bootstrap.DatabaseConfig{DBConfig: cfg.Postgres, RedisConfig: cfg.Redis, Logger: logger}

	switch cfg.Store {
	case config.StoreRedis:
		client, err := bootstrap.ConnectRedis(ctx, dbCfg)
		if err != nil {
			return infrastructure{}, fmt.Errorf("connect redis: %w", err)
		}
		return infrastructure{redis: client}, nil

	case config.StorePostgres:
		db, err := bootstrap.ConnectDB(ctx, dbCfg)
		if err != nil {
			return infrastructure{}, fmt.Errorf("connect db: %w", err)
		}
		if !cfg.Postgres.RunMigrationsOnStart {
			logger.InfoContext(ctx, "skipping database migrations on startup", "reason", "disabled via config")
			return infrastructure{db: db}, nil
		}
		if err = bootstrap.RunMigrations(ctx, db, logger); err != nil {
			if cerr := db.Close(); cerr != nil {
				err = errors.Join(err, fmt.Errorf("close database: %w", cerr))
			}
			return infrastructure{}, err
		}
		return infrastructure{db: db}, nil

	default:
		return infrastructure{}, fmt.Errorf("unknown store backend %q", cfg.Store)
	}
}
