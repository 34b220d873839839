package httpx

import (
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	domainauth "github.com/target/itemvault/internal/domain/auth"
	errs "github.com/target/itemvault/internal/errors"
	"github.com/target/itemvault/internal/observability/metrics"
)

// Gate rejection messages.
const (
	msgNoToken      = "Unauthorized - No token provided"
	msgInvalidToken = "Forbidden - Invalid token"
	msgAccessDenied = "Access denied"
)

// TokenVerifier decodes a presented token into an identity. It must not block on I/O.
type TokenVerifier interface {
	Verify(token string) (domainauth.Identity, error)
}

// Logging returns a middleware that logs HTTP requests and responses.
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := &respWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)
			logger.InfoContext(r.Context(), "http",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.status),
				slog.Duration("duration", time.Since(start)),
			)
		})
	}
}

type respWriter struct {
	http.ResponseWriter
	status int
}

func (w *respWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (w *respWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }

// Recover returns a middleware that recovers from panics and logs them.
func Recover(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler { //nolint:errorlint // sentinel compared by identity, as net/http does
						panic(rec)
					}
					logger.ErrorContext(r.Context(), "panic",
						slog.Any("error", rec),
						slog.String("path", r.URL.Path),
						slog.String("method", r.Method),
						slog.String("stack", string(debug.Stack())))
					writeAppError(w, errs.Internal("internal server error"))
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAuth verifies the token cookie. A missing or empty cookie yields 401;
// a token the verifier rejects yields 403. On success the identity is attached
// to the request context.
func RequireAuth(verifier TokenVerifier, m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(TokenCookieName)
			if err != nil || cookie.Value == "" {
				m.Gate("auth", metrics.DecisionMissingToken)
				writeAppError(w, errs.Unauthorized(msgNoToken))
				return
			}

			id, err := verifier.Verify(cookie.Value)
			if err != nil {
				m.Gate("auth", metrics.DecisionInvalidToken)
				writeAppError(w, errs.Forbidden(msgInvalidToken))
				return
			}

			m.Gate("auth", metrics.DecisionAllowed)
			next.ServeHTTP(w, r.WithContext(SetIdentityInContext(r.Context(), id)))
		})
	}
}

// RequireRole admits only identities whose role equals required. It must run
// after RequireAuth; a request without an identity gets 401.
func RequireRole(required domainauth.Role, m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := IdentityFromContext(r.Context())
			if !ok {
				m.Gate("role", metrics.DecisionMissingToken)
				writeAppError(w, errs.Unauthorized(msgNoToken))
				return
			}
			if !id.HasRole(required) {
				m.Gate("role", metrics.DecisionRoleDenied)
				writeAppError(w, errs.Forbidden(msgAccessDenied))
				return
			}
			m.Gate("role", metrics.DecisionAllowed)
			next.ServeHTTP(w, r)
		})
	}
}

// CORS allows credentialed requests from the given browser origins.
// With no origins configured it is a no-op.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	if len(allowedOrigins) == 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	})
}

// RateLimitConfig bounds requests per client IP.
type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

// RateLimit limits requests per client IP. A zero Requests disables it.
func RateLimit(cfg RateLimitConfig) func(http.Handler) http.Handler {
	if cfg.Requests <= 0 || cfg.Window <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return httprate.Limit(
		cfg.Requests,
		cfg.Window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, _ *http.Request) {
			WriteError(w, ErrorParams{
				Code:    http.StatusTooManyRequests,
				ErrCode: "rate_limited",
				Err:     errors.New("Too many requests, please try again later"),
			})
		}),
	)
}
