// Package rbac guards handlers by the signed-in user's role.
package rbac

import (
	"log/slog"
	"net/http"

	"github.com/binaragam/storefront/internal/session"
)

// Middleware wires role checks for HTTP handlers.
type Middleware struct {
	Logger *slog.Logger
	// Denied renders the refusal. It defaults to a plain 403.
	Denied http.HandlerFunc
}

// RequireRole lets the request through only when the session has resolved to
// a user holding one of roles.
func (m Middleware) RequireRole(roles ...string) func(http.Handler) http.Handler {
	normalized := normalizeRoles(roles)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(normalized) == 0 {
				next.ServeHTTP(w, r)
				return
			}
			store := session.FromContext(r.Context())
			if store == nil {
				m.deny(w, r, "no session")
				return
			}
			if err := store.Resolve(r.Context()); err != nil && m.Logger != nil {
				m.Logger.Warn("rbac resolve session", slog.Any("error", err))
			}
			snap := store.Snapshot()
			if snap.State != session.Authenticated || snap.User == nil {
				m.deny(w, r, "anonymous")
				return
			}
			if hasAnyRole(snap.User.Role, normalized) {
				next.ServeHTTP(w, r)
				return
			}
			m.deny(w, r, "role")
		})
	}
}

func (m Middleware) deny(w http.ResponseWriter, r *http.Request, reason string) {
	if m.Logger != nil {
		m.Logger.Info("rbac denied", slog.String("path", r.URL.Path), slog.String("reason", reason))
	}
	if m.Denied != nil {
		m.Denied(w, r)
		return
	}
	http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
}

func normalizeRoles(roles []string) []string {
	unique := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		if role == "" {
			continue
		}
		unique[role] = struct{}{}
	}
	normalized := make([]string, 0, len(unique))
	for role := range unique {
		normalized = append(normalized, role)
	}
	return normalized
}

func hasAnyRole(role string, required []string) bool {
	for _, r := range required {
		if r == role {
			return true
		}
	}
	return false
}
