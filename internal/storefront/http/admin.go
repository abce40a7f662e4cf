package storefronthttp

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/binaragam/storefront/internal/apiclient"
	"github.com/binaragam/storefront/internal/catalog"
	"github.com/binaragam/storefront/internal/platform/httpx"
	"github.com/binaragam/storefront/internal/router"
	"github.com/binaragam/storefront/internal/storefront"
)

type adminData struct {
	Tab    string
	State  storefront.AdminState
	Form   catalog.ProductForm
	EditID string
	Errors catalog.FormErrors
}

func adminTab(r *http.Request) string {
	if r.URL.Query().Get("tab") == "users" {
		return "users"
	}
	return "products"
}

func (h *Handler) admin(w http.ResponseWriter, r *http.Request, ws *storefront.Workspace, m router.Match) {
	data := adminData{Tab: adminTab(r)}
	data.State = ws.Admin.Load(r.Context(), ws.Session.Token())
	if editID := strings.TrimSpace(r.URL.Query().Get("edit")); editID != "" {
		product, err := ws.Admin.Product(r.Context(), editID)
		if err != nil {
			h.logger.Warn("load product for edit", slog.String("id", editID), slog.Any("error", err))
			flash(r, "error", "Produk tidak ditemukan")
		} else {
			data.EditID = editID
			data.Form = catalog.FormFromProduct(*product)
		}
	}
	h.render(w, r, http.StatusOK, "Admin", "pages/admin.html", data)
}

func productForm(r *http.Request) catalog.ProductForm {
	return catalog.ProductForm{
		Name:               r.PostFormValue("name"),
		Price:              r.PostFormValue("price"),
		ImageURL:           r.PostFormValue("image_url"),
		MarketplaceLink:    r.PostFormValue("marketplace_link"),
		Description:        r.PostFormValue("description"),
		DiscountActive:     r.PostFormValue("discount_active") != "",
		DiscountPercentage: r.PostFormValue("discount_percentage"),
	}
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	ws := storefront.FromContext(r.Context())
	if ws == nil || r.ParseForm() != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	form := productForm(r)
	errs, err := ws.Admin.Create(r.Context(), ws.Session.Token(), form)
	h.afterMutation(w, r, ws, "", form, errs, err, "Produk ditambahkan")
}

func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request) {
	ws := storefront.FromContext(r.Context())
	if ws == nil || r.ParseForm() != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	id := chi.URLParam(r, "id")
	form := productForm(r)
	errs, err := ws.Admin.Update(r.Context(), ws.Session.Token(), id, form)
	h.afterMutation(w, r, ws, id, form, errs, err, "Produk diperbarui")
}

func (h *Handler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	ws := storefront.FromContext(r.Context())
	if ws == nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	id := chi.URLParam(r, "id")
	err := ws.Admin.Delete(r.Context(), ws.Session.Token(), id)
	switch {
	case err == nil:
		flash(r, "success", "Produk dihapus")
	case apiclient.IsUnauthorized(err):
		h.sessionExpired(w, r)
		return
	default:
		h.logger.Warn("delete product", slog.String("id", id), slog.Any("error", err))
		flash(r, "error", "Produk gagal dihapus")
	}
	http.Redirect(w, r, navigate(r, "/admin"), http.StatusSeeOther)
}

// afterMutation redirects on success and re-renders the form otherwise.
func (h *Handler) afterMutation(w http.ResponseWriter, r *http.Request, ws *storefront.Workspace, id string, form catalog.ProductForm, errs catalog.FormErrors, err error, success string) {
	if err == nil {
		flash(r, "success", success)
		http.Redirect(w, r, navigate(r, "/admin"), http.StatusSeeOther)
		return
	}
	if apiclient.IsUnauthorized(err) {
		h.sessionExpired(w, r)
		return
	}
	status := http.StatusBadRequest
	if !errors.Is(err, catalog.ErrInvalidForm) {
		h.logger.Warn("save product", slog.String("id", id), slog.Any("error", err))
		status = httpx.StatusFor(err)
		errs = catalog.FormErrors{"general": "Produk gagal disimpan"}
	}
	data := adminData{
		Tab:    "products",
		State:  ws.Admin.Snapshot(),
		Form:   form,
		EditID: id,
		Errors: errs,
	}
	h.render(w, r, status, "Admin", "pages/admin.html", data)
}

func (h *Handler) sessionExpired(w http.ResponseWriter, r *http.Request) {
	flash(r, "error", "Sesi berakhir, silakan masuk kembali")
	http.Redirect(w, r, navigate(r, "/login"), http.StatusSeeOther)
}
