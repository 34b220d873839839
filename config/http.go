package config

import (
	"strings"
	"time"
)

// HTTPConfig contains HTTP server configuration.
type HTTPConfig struct {
	// Addr is the address to bind the HTTP server to.
	Addr string `env:"HTTP_ADDR" envDefault:":8080"`

	// CookieDomain is the domain for the token cookie.
	// Leave empty to use the request domain.
	CookieDomain string `env:"APP_COOKIE_DOMAIN" envDefault:""`

	// CORSAllowedOrigins lists browser origins allowed to send credentialed requests.
	CORSAllowedOrigins []string `env:"HTTP_CORS_ALLOWED_ORIGINS" envDefault:"http://localhost:3000" envSeparator:","`

	// RateLimitRequests caps /login and /signup per client IP within RateLimitWindow. 0 disables.
	RateLimitRequests int           `env:"HTTP_RATE_LIMIT_REQUESTS" envDefault:"20"`
	RateLimitWindow   time.Duration `env:"HTTP_RATE_LIMIT_WINDOW"   envDefault:"1m"`
}

// Sanitize applies guardrails to HTTP configuration values.
func (h *HTTPConfig) Sanitize() {
	if strings.TrimSpace(h.Addr) == "" {
		h.Addr = ":8080"
	}

	origins := h.CORSAllowedOrigins[:0]
	for _, o := range h.CORSAllowedOrigins {
		if o = strings.TrimRight(strings.TrimSpace(o), "/"); o != "" {
			origins = append(origins, o)
		}
	}
	h.CORSAllowedOrigins = origins

	if h.RateLimitRequests < 0 {
		h.RateLimitRequests = 0
	}
	if h.RateLimitWindow <= 0 {
		h.RateLimitWindow = time.Minute
	}
}
