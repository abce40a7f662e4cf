package app

import (
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/binaragam/storefront/internal/auth"
	"github.com/binaragam/storefront/internal/observability"
	"github.com/binaragam/storefront/internal/rbac"
	"github.com/binaragam/storefront/internal/shared"
	storefronthttp "github.com/binaragam/storefront/internal/storefront/http"
	"github.com/binaragam/storefront/internal/users"
	"github.com/binaragam/storefront/jobs"
	"github.com/binaragam/storefront/web"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger            *slog.Logger
	Config            *Config
	SessionManager    *shared.SessionManager
	CSRFManager       *shared.CSRFManager
	AuthHandler       *auth.Handler
	StorefrontHandler *storefronthttp.Handler
	RBACMiddleware    rbac.Middleware
	JobHandler        *jobs.Handler
	Metrics           *observability.Metrics
}

// NewRouter constructs the chi.Router with storefront defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	staticFS, err := fs.Sub(web.Static, "static")
	if err != nil {
		params.Logger.Error("create static sub filesystem", slog.Any("error", err))
	} else {
		fileServer := http.StripPrefix("/static/", http.FileServer(http.FS(staticFS)))
		r.Handle("/static/*", staticCacheHandler(fileServer))
	}

	if params.StorefrontHandler != nil {
		r.Group(func(r chi.Router) {
			r.Use(params.StorefrontHandler.AttachWorkspace)
			if params.AuthHandler != nil {
				r.Group(func(r chi.Router) {
					r.Use(CredentialRateLimit(params.Config))
					params.AuthHandler.MountRoutes(r)
				})
			}
			params.StorefrontHandler.MountRoutes(r, params.RBACMiddleware.RequireRole(users.RoleAdmin))
		})
	}

	return r
}

// staticCacheHandler wraps a file server with Cache-Control headers.
// Static assets are cached for 1 hour in browser.
func staticCacheHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		next.ServeHTTP(w, r)
	})
}
