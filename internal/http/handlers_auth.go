package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	domainauth "github.com/target/itemvault/internal/domain/auth"
	errs "github.com/target/itemvault/internal/errors"
	"github.com/target/itemvault/internal/service"
)

// TokenCookieName is the cookie that carries the bearer token.
const TokenCookieName = "token"

// AuthService is the subset of service.AuthService used by the auth handlers.
type AuthService interface {
	Signup(ctx context.Context, in service.SignupInput) (*domainauth.User, error)
	Login(ctx context.Context, in service.LoginInput) (*service.LoginResult, error)
	Verify(token string) (domainauth.Identity, error)
}

// CookieConfig controls attributes of the token cookie.
type CookieConfig struct {
	Domain string
	// Secure forces the Secure attribute. When false it is still set for TLS
	// requests and for requests forwarded as https.
	Secure bool
}

// AuthHandlers provides HTTP handlers for signup, login and logout.
type AuthHandlers struct {
	Svc    AuthService
	Cookie CookieConfig
	Logger *slog.Logger
}

func (h *AuthHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// Signup handles POST /signup.
func (h *AuthHandlers) Signup(w http.ResponseWriter, r *http.Request) {
	var in service.SignupInput
	if !DecodeJSON(w, r, &in) {
		return
	}

	_, err := h.Svc.Signup(r.Context(), in)
	switch {
	case err == nil:
		WriteMessage(w, http.StatusCreated, "User registered successfully")
	case errors.Is(err, service.ErrMissingCredentials):
		writeAppError(w, errs.Validation("All fields are required"))
	case errors.Is(err, service.ErrUsernameTaken):
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "username_taken",
			Err:     errors.New("Username already exists"),
		})
	default:
		writeServiceError(ErrorOpts{W: w, R: r, Err: err, Op: "signup", Logger: h.logger()})
	}
}

// Login handles POST /login. The token is delivered only as a cookie.
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var in service.LoginInput
	if !DecodeJSON(w, r, &in) {
		return
	}

	res, err := h.Svc.Login(r.Context(), in)
	if errors.Is(err, service.ErrInvalidCredentials) {
		writeAppError(w, errs.Unauthorized("Invalid credentials"))
		return
	}
	if err != nil {
		writeServiceError(ErrorOpts{W: w, R: r, Err: err, Op: "login", Logger: h.logger()})
		return
	}

	h.setTokenCookie(w, r, res.Token, res.Identity.ExpiresAt.Sub(res.Identity.IssuedAt))
	WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Login successful",
		"role":    string(res.Identity.Role),
	})
}

// Logout handles POST /logout. It expires the cookie and never fails; a token
// copied elsewhere stays valid until it expires.
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	h.clearTokenCookie(w, r)
	WriteMessage(w, http.StatusOK, "Logged out successfully")
}

func (h *AuthHandlers) isSecure(r *http.Request) bool {
	return h.Cookie.Secure || r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}

func (h *AuthHandlers) setTokenCookie(w http.ResponseWriter, r *http.Request, token string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     TokenCookieName,
		Value:    token,
		Path:     "/",
		Domain:   h.Cookie.Domain,
		HttpOnly: true,
		Secure:   h.isSecure(r),
		SameSite: http.SameSiteStrictMode,
		MaxAge:   int(ttl.Seconds()),
	})
}

// clearTokenCookie mirrors the attributes used when setting the cookie so
// browsers match and drop it.
func (h *AuthHandlers) clearTokenCookie(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     TokenCookieName,
		Value:    "",
		Path:     "/",
		Domain:   h.Cookie.Domain,
		HttpOnly: true,
		Secure:   h.isSecure(r),
		SameSite: http.SameSiteStrictMode,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0).UTC(),
	})
}
