package httpx

import (
	"log/slog"
	"net/http"

	domainauth "github.com/target/itemvault/internal/domain/auth"
	"github.com/target/itemvault/internal/observability/metrics"
)

// RouterServices holds everything the HTTP router needs.
type RouterServices struct {
	Auth  AuthService // Required
	Items ItemService // Required

	// Health is pinged by /healthz; nil reports healthy unconditionally.
	Health  Pinger
	Metrics *metrics.Metrics
	Logger  *slog.Logger

	Cookie             CookieConfig
	CORSAllowedOrigins []string
	// AuthRateLimit applies per client IP to /signup and /login.
	AuthRateLimit RateLimitConfig
}

// NewRouter creates and configures the HTTP router with its middleware chain.
func NewRouter(services RouterServices) http.Handler {
	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}
	mux := http.NewServeMux()

	authHandlers := &AuthHandlers{
		Svc:    services.Auth,
		Cookie: services.Cookie,
		Logger: logger.With("component", "auth_handlers"),
	}
	itemHandlers := &ItemHandlers{
		Svc:    services.Items,
		Logger: logger.With("component", "item_handlers"),
	}

	requireAuth := RequireAuth(services.Auth, services.Metrics)

	registerAuthRoutes(mux, authHandlers, RateLimit(services.AuthRateLimit))
	registerProtectedRoutes(mux, requireAuth, services.Metrics)
	registerItemRoutes(mux, itemHandlers, requireAuth)

	health := healthHandler(services.Health, logger)
	mux.Handle("GET /healthz", health)
	mux.Handle("HEAD /healthz", health)
	mux.Handle("GET /metrics", services.Metrics.Handler())

	var handler http.Handler = mux
	handler = CORS(services.CORSAllowedOrigins)(handler)
	handler = Logging(logger)(handler)
	handler = Recover(logger)(handler)
	return handler
}

func registerAuthRoutes(mux *http.ServeMux, h *AuthHandlers, limit func(http.Handler) http.Handler) {
	mux.Handle("POST /signup", limit(http.HandlerFunc(h.Signup)))
	mux.Handle("POST /login", limit(http.HandlerFunc(h.Login)))
	mux.HandleFunc("POST /logout", h.Logout)
}

func registerProtectedRoutes(mux *http.ServeMux, auth func(http.Handler) http.Handler, m *metrics.Metrics) {
	mux.Handle("GET /protected", auth(greeting("This is a protected route")))
	mux.Handle("GET /user", auth(greeting("Welcome User")))
	mux.Handle("GET /admin", auth(RequireRole(domainauth.RoleAdmin, m)(greeting("Welcome Admin"))))
}

func registerItemRoutes(mux *http.ServeMux, h *ItemHandlers, auth func(http.Handler) http.Handler) {
	mux.Handle("GET /api/items", auth(http.HandlerFunc(h.List)))
	mux.Handle("POST /api/items", auth(http.HandlerFunc(h.Create)))
	mux.Handle("GET /api/items/{id}", auth(http.HandlerFunc(h.GetByID)))
	mux.Handle("PUT /api/items/{id}", auth(http.HandlerFunc(h.Update)))
	mux.Handle("DELETE /api/items/{id}", auth(http.HandlerFunc(h.Delete)))
}
