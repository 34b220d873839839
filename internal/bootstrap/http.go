package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/target/itemvault/config"
	httpx "github.com/target/itemvault/internal/http"
)

const shutdownTimeout = 10 * time.Second

// HTTPServerConfig contains configuration for HTTP server.
type HTTPServerConfig struct {
	Config   *config.AppConfig
	Services ServiceContainer
	Logger   *slog.Logger
}

// BuildHandler assembles the router from the service container and config.
func BuildHandler(cfg *HTTPServerConfig) http.Handler {
	appCfg := cfg.Config
	if appCfg == nil {
		appCfg = &config.AppConfig{}
	}

	return httpx.NewRouter(httpx.RouterServices{
		Auth:    cfg.Services.Auth,
		Items:   cfg.Services.Items,
		Health:  cfg.Services.Health,
		Metrics: cfg.Services.Metrics,
		Logger:  cfg.Logger,
		Cookie: httpx.CookieConfig{
			Domain: appCfg.HTTP.CookieDomain,
			Secure: appCfg.SecureCookies(),
		},
		CORSAllowedOrigins: appCfg.HTTP.CORSAllowedOrigins,
		AuthRateLimit: httpx.RateLimitConfig{
			Requests: appCfg.HTTP.RateLimitRequests,
			Window:   appCfg.HTTP.RateLimitWindow,
		},
	})
}

// NewHTTPServer creates the server with the router and timeouts applied.
func NewHTTPServer(cfg *HTTPServerConfig) *http.Server {
	addr := ""
	if cfg.Config != nil {
		addr = cfg.Config.HTTP.Addr
	}
	// Guard against empty addr to avoid listening on Go default
	if addr == "" {
		addr = ":8080"
	}

	return &http.Server{
		Addr:              addr,
		Handler:           BuildHandler(cfg),
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

// ServeHTTP serves on ln until ctx is cancelled, then shuts the server down
// gracefully. A nil ln listens on server.Addr.
func ServeHTTP(ctx context.Context, server *http.Server, ln net.Listener, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	errCh := make(chan error, 1)
	go func() {
		var err error
		if ln != nil {
			logger.InfoContext(ctx, "starting HTTP server", "addr", ln.Addr().String())
			err = server.Serve(ln)
		} else {
			logger.InfoContext(ctx, "starting HTTP server", "addr", server.Addr)
			err = server.ListenAndServe()
		}
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		errCh <- err
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info("HTTP server stopped")
	return <-errCh
}
