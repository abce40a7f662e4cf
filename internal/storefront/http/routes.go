package storefronthttp

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// MountRoutes registers the storefront pages. adminGuard protects the
// product mutations; the admin page itself is gated by the route table.
func (h *Handler) MountRoutes(r chi.Router, adminGuard func(http.Handler) http.Handler) {
	if h == nil {
		return
	}
	r.Get("/partials/shop", h.shopPartial)
	r.Post("/contact", h.submitContact)
	r.Route("/admin/products", func(ar chi.Router) {
		if adminGuard != nil {
			ar.Use(adminGuard)
		}
		ar.Post("/", h.createProduct)
		ar.Post("/{id}", h.updateProduct)
		ar.Post("/{id}/delete", h.deleteProduct)
	})
	r.Get("/*", h.page)
}
