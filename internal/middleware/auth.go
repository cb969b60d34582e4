package middleware

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/brunostein/rest-api-base/internal/model"
)

type scopeAuthorizer interface {
	Authorize(ctx context.Context, authHeader string) (bool, *model.Identity, error)
}

type contextKey string

const (
	identityContextKey contextKey = "identity"
	systemContextKey   contextKey = "is_system"
)

type AuthMiddleware struct {
	authorizer scopeAuthorizer
}

func NewAuthMiddleware(authorizer scopeAuthorizer) *AuthMiddleware {
	return &AuthMiddleware{authorizer: authorizer}
}

// RequireAuth resolves the caller from the Authorization header and stores
// the identity in the request context.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		isSystem, identity, err := m.authorizer.Authorize(r.Context(), r.Header.Get("Authorization"))
		if err != nil {
			writeDenied(w, http.StatusUnauthorized, "Authentication required.")
			return
		}

		ctx := context.WithValue(r.Context(), identityContextKey, identity)
		ctx = context.WithValue(ctx, systemContextKey, isSystem)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireSystemScope denies callers without system scope. A failed
// authorization and a plain "not system" caller get the same answer.
func (m *AuthMiddleware) RequireSystemScope(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		isSystem, ok := r.Context().Value(systemContextKey).(bool)
		if !ok || !isSystem {
			writeDenied(w, http.StatusForbidden, "Permission denied.")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func IdentityFromContext(ctx context.Context) (*model.Identity, bool) {
	identity, ok := ctx.Value(identityContextKey).(*model.Identity)
	return identity, ok && identity != nil
}

func writeDenied(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(model.APIResponse{
		Success: false,
		Msg:     msg,
	})
}
