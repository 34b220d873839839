package main

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/target/itemvault/config"
	"github.com/target/itemvault/internal/bootstrap"
)

type createAdminOptions struct {
	Username      string
	Password      string
	PasswordStdin bool
}

// runCreateAdmin ensures an admin account exists in the configured store backend.
func runCreateAdmin(cmdCtx *commandContext, args []string) error {
	opts, err := parseCreateAdminFlags(args, cmdCtx.Config.Auth.BootstrapAdmin)
	if err != nil {
		return err
	}
	if opts.PasswordStdin {
		line, readErr := bufio.NewReader(cmdCtx.Stdin).ReadString('\n')
		if readErr != nil && line == "" {
			return fmt.Errorf("read password from stdin: %w", readErr)
		}
		opts.Password = strings.TrimRight(line, "\r\n")
	}
	if opts.Username == "" || opts.Password == "" {
		return errors.New("--username and a password are required")
	}

	ctx := cmdCtx.Ctx
	db, rdb, err := connectStore(ctx, cmdCtx)
	if err != nil {
		return err
	}
	defer closeStore(cmdCtx, db, rdb)

	stores, err := bootstrap.BuildStores(bootstrap.StoreDeps{
		Backend:     cmdCtx.Config.Store,
		DB:          db,
		RedisClient: rdb,
		RedisPrefix: cmdCtx.Config.Redis.KeyPrefix,
	})
	if err != nil {
		return err
	}
	return ensureAdmin(ctx, cmdCtx, stores, opts)
}

func ensureAdmin(ctx context.Context, cmdCtx *commandContext, stores bootstrap.Stores, opts createAdminOptions) error {
	services, err := bootstrap.NewServices(bootstrap.ServiceDeps{
		Auth:   cmdCtx.Config.Auth,
		Stores: stores,
		Logger: cmdCtx.Logger,
	})
	if err != nil {
		return err
	}

	created, err := services.Auth.EnsureAdmin(ctx, opts.Username, opts.Password)
	if err != nil {
		return fmt.Errorf("ensure admin: %w", err)
	}
	if created {
		return writef(cmdCtx.Stdout, "created admin %q\n", opts.Username)
	}
	return writef(cmdCtx.Stdout, "promoted existing user %q to admin (password unchanged)\n", opts.Username)
}

func parseCreateAdminFlags(args []string, defaults config.BootstrapAdminConfig) (createAdminOptions, error) {
	fs := flag.NewFlagSet("create-admin", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	opts := createAdminOptions{}
	fs.StringVar(&opts.Username, "username", defaults.Username, "Admin username (default AUTH_BOOTSTRAP_ADMIN_USERNAME)")
	fs.StringVar(&opts.Password, "password", defaults.Password, "Admin password (default AUTH_BOOTSTRAP_ADMIN_PASSWORD)")
	fs.BoolVar(&opts.PasswordStdin, "password-stdin", false, "Read the password from the first line of stdin")

	if err := fs.Parse(args); err != nil {
		return createAdminOptions{}, err
	}
	opts.Username = strings.TrimSpace(opts.Username)
	return opts, nil
}

//nolint:ireturn // returning redis.UniversalClient keeps sentinel/cluster support flexible.
func connectStore(ctx context.Context, cmdCtx *commandContext) (*sql.DB, redis.UniversalClient, error) {
	dbCfg := bootstrap.DatabaseConfig{
		DBConfig:    cmdCtx.Config.Postgres,
		RedisConfig: cmdCtx.Config.Redis,
		Logger:      cmdCtx.Logger,
	}
	if cmdCtx.Config.Store == config.StoreRedis {
		rdb, err := bootstrap.ConnectRedis(ctx, dbCfg)
		if err != nil {
			return nil, nil, fmt.Errorf("connect redis: %w", err)
		}
		return nil, rdb, nil
	}

	db, err := bootstrap.ConnectDB(ctx, dbCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("connect db: %w", err)
	}
	return db, nil, nil
}

func closeStore(cmdCtx *commandContext, db *sql.DB, rdb redis.UniversalClient) {
	if db != nil {
		if err := db.Close(); err != nil {
			cmdCtx.Logger.Warn("db close failed", "error", err)
		}
	}
	if rdb != nil {
		if err := rdb.Close(); err != nil {
			cmdCtx.Logger.Warn("redis close failed", "error", err)
		}
	}
}
