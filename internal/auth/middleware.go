package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/quarrylabs/quarry-cms/internal/server"
)

type contextKey string

// contextKeyIdentity is the context key for the authenticated identity.
const contextKeyIdentity contextKey = "identity"

// Identity is the authenticated caller plus the active stage every scoped
// operation runs in.
type Identity struct {
	UserID     string
	Email      string
	StageID    string
	StageKey   string
	StageLabel string
}

// Middleware returns an HTTP middleware that validates JWT Bearer tokens
// from the Authorization header. On success it sets the caller's Identity in
// the request context. On failure it returns a 401 JSON error response.
func Middleware(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				server.Error(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing authorization header", nil)
				return
			}

			// Expect "Bearer <token>" format.
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				server.Error(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid authorization header format", nil)
				return
			}

			claims, err := ValidateAccessToken(parts[1], jwtSecret)
			if err != nil {
				server.Error(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid or expired token", nil)
				return
			}

			identity := Identity{
				UserID:     claims.UserID(),
				Email:      claims.Email,
				StageID:    claims.StageID,
				StageKey:   claims.StageKey,
				StageLabel: claims.StageLabel,
			}
			ctx := context.WithValue(r.Context(), contextKeyIdentity, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// IdentityFromContext extracts the authenticated identity from the request
// context. The zero Identity is returned when no caller is authenticated.
func IdentityFromContext(ctx context.Context) Identity {
	v, _ := ctx.Value(contextKeyIdentity).(Identity)
	return v
}
