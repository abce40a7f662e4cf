package storefronthttp

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/binaragam/storefront/internal/shared"
	"github.com/binaragam/storefront/internal/storefront"
)

var errNoVisitor = errors.New("storefront: visitor session missing")

// AttachWorkspace loads the visitor's workspace into the request context.
// Page GETs are navigation events and move the visitor's router; every
// request waits for a pending token resolution so the session is settled
// before rendering.
func (h *Handler) AttachWorkspace(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := shared.SessionFromContext(r.Context())
		if sess == nil || sess.ID == "" {
			h.fail(w, errNoVisitor)
			return
		}
		var (
			ws  *storefront.Workspace
			err error
		)
		if sess.IsNew() {
			ws, err = h.registry.Transient(r.Context(), sess.ID)
		} else {
			ws, err = h.registry.Get(r.Context(), sess.ID)
		}
		if err != nil {
			h.fail(w, err)
			return
		}
		if isNavigation(r) {
			ws.Router.Sync(r.URL.Path)
		}
		if err := ws.Session.Resolve(r.Context()); err != nil {
			h.logger.Debug("session resolution", slog.Any("error", err))
		}
		next.ServeHTTP(w, r.WithContext(storefront.ContextWithWorkspace(r.Context(), ws)))
	})
}

func isNavigation(r *http.Request) bool {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		return false
	}
	return !strings.HasPrefix(r.URL.Path, "/partials/")
}
