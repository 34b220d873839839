package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/target/itemvault/config"
	"github.com/target/itemvault/internal/adapters/bcrypthash"
	"github.com/target/itemvault/internal/adapters/jwtcodec"
	"github.com/target/itemvault/internal/observability/metrics"
	"github.com/target/itemvault/internal/ports"
	"github.com/target/itemvault/internal/service"
	"github.com/thejerf/abtime"
)

// ServiceContainer holds all application services.
type ServiceContainer struct {
	Auth    *service.AuthService
	Items   *service.ItemService
	Metrics *metrics.Metrics
	// Health is the credential store; its Ping backs /healthz.
	Health ports.CredentialStore
}

// ServiceDeps groups dependencies for service initialization.
type ServiceDeps struct {
	Auth    config.AuthConfig
	Stores  Stores
	Clock   abtime.AbstractTime // defaults to wall-clock time
	Metrics *metrics.Metrics    // defaults to a fresh registry
	Logger  *slog.Logger
}

// NewServices wires the codec, hasher and stores into the auth and item services.
func NewServices(deps ServiceDeps) (ServiceContainer, error) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	m := deps.Metrics
	if m == nil {
		m = metrics.New()
	}

	codec, err := jwtcodec.New(jwtcodec.Options{
		Secret: deps.Auth.JWTSecret,
		TTL:    deps.Auth.TokenTTL,
		Clock:  deps.Clock,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("token codec: %w", err)
	}

	authSvc, err := service.NewAuthService(service.AuthServiceOptions{
		Users:   deps.Stores.Users,
		Codec:   codec,
		Hasher:  bcrypthash.New(deps.Auth.BcryptCost),
		Logger:  logger,
		Metrics: m,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("auth service: %w", err)
	}

	itemSvc, err := service.NewItemService(service.ItemServiceOptions{
		Repo:    deps.Stores.Items,
		Logger:  logger,
		Metrics: m,
	})
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("item service: %w", err)
	}

	return ServiceContainer{Auth: authSvc, Items: itemSvc, Metrics: m, Health: deps.Stores.Users}, nil
}

// BootstrapAdmin creates or promotes the configured admin account. It is a
// no-op when either credential is unset.
func BootstrapAdmin(ctx context.Context, svc *service.AuthService, cfg config.BootstrapAdminConfig, logger *slog.Logger) error {
	if !cfg.Enabled() {
		return nil
	}
	created, err := svc.EnsureAdmin(ctx, cfg.Username, cfg.Password)
	if err != nil {
		return fmt.Errorf("bootstrap admin %q: %w", cfg.Username, err)
	}
	if logger != nil {
		logger.InfoContext(ctx, "admin account ensured", "username", cfg.Username, "created", created)
	}
	return nil
}
