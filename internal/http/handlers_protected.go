package httpx

import (
	"net/http"

	domainauth "github.com/target/itemvault/internal/domain/auth"
	errs "github.com/target/itemvault/internal/errors"
)

// identityView renders an identity the way the token payload carries it.
type identityView struct {
	ID       string          `json:"id"`
	Username string          `json:"username"`
	Role     domainauth.Role `json:"role"`
	IssuedAt int64           `json:"iat"`
	Expires  int64           `json:"exp"`
}

func viewOf(id domainauth.Identity) identityView {
	return identityView{
		ID:       id.Subject,
		Username: id.Username,
		Role:     id.Role,
		IssuedAt: id.IssuedAt.Unix(),
		Expires:  id.ExpiresAt.Unix(),
	}
}

// greeting returns a handler that echoes the caller's identity with msg.
func greeting(msg string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := IdentityFromContext(r.Context())
		if !ok {
			writeAppError(w, errs.Unauthorized(msgNoToken))
			return
		}
		WriteJSON(w, http.StatusOK, map[string]any{
			"message": msg,
			"user":    viewOf(id),
		})
	}
}
