package auth

import (
	"context"
	"net/http"
	"strings"
)

type ctxKey string

const (
	// CtxUserID carries the authenticated subject through the request context.
	CtxUserID ctxKey = "userID"
	// CtxRole carries the role claim of the access token.
	CtxRole ctxKey = "role"
)

// RequireAccessToken guards a route with a bearer access token. Refresh
// tokens are rejected even when their signature is valid.
func RequireAccessToken(m *Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}
			h := r.Header.Get("Authorization")
			if h == "" || !strings.HasPrefix(h, "Bearer ") {
				http.Error(w, "missing bearer token", http.StatusUnauthorized)
				return
			}
			raw := strings.TrimPrefix(h, "Bearer ")
			if !m.Validate(raw) {
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}

			ctx := r.Context()
			if sub, err := m.signer.Subject(raw); err == nil {
				ctx = context.WithValue(ctx, CtxUserID, sub)
			}
			ctx = context.WithValue(ctx, CtxRole, m.signer.StringClaim(raw, claimRole))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
