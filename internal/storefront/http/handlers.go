package storefronthttp

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/binaragam/storefront/internal/catalog"
	"github.com/binaragam/storefront/internal/platform/httpx"
	"github.com/binaragam/storefront/internal/router"
	"github.com/binaragam/storefront/internal/shared"
	"github.com/binaragam/storefront/internal/storefront"
	"github.com/binaragam/storefront/internal/view"
	"github.com/binaragam/storefront/jobs"
)

// ContactQueue accepts contact form submissions for delivery.
type ContactQueue interface {
	EnqueueContact(ctx context.Context, msg jobs.ContactMessage) (string, error)
}

// AuthPages renders the sign-in and sign-up pages.
type AuthPages interface {
	ShowLogin(w http.ResponseWriter, r *http.Request)
	ShowRegister(w http.ResponseWriter, r *http.Request)
}

type renderFunc func(w http.ResponseWriter, r *http.Request, ws *storefront.Workspace, m router.Match)

// Handler serves the storefront pages.
type Handler struct {
	logger    *slog.Logger
	templates *view.Engine
	csrf      *shared.CSRFManager
	registry  *storefront.Registry
	auth      AuthPages
	contact   ContactQueue
	validator *validator.Validate
	views     map[router.View]renderFunc
}

// Config collects the handler's dependencies.
type Config struct {
	Logger    *slog.Logger
	Templates *view.Engine
	CSRF      *shared.CSRFManager
	Registry  *storefront.Registry
	Auth      AuthPages
	Contact   ContactQueue
}

// NewHandler constructs the storefront handler.
func NewHandler(cfg Config) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{
		logger:    logger,
		templates: cfg.Templates,
		csrf:      cfg.CSRF,
		registry:  cfg.Registry,
		auth:      cfg.Auth,
		contact:   cfg.Contact,
		validator: newValidator(),
	}
	h.views = map[router.View]renderFunc{
		router.ViewHome:         h.home,
		router.ViewShop:         h.shop,
		router.ViewAbout:        h.about,
		router.ViewContact:      h.contactPage,
		router.ViewLogin:        h.login,
		router.ViewRegister:     h.register,
		router.ViewAdmin:        h.admin,
		router.ViewProduct:      h.product,
		router.ViewUnauthorized: h.unauthorized,
	}
	return h
}

// page dispatches a GET through the route table.
func (h *Handler) page(w http.ResponseWriter, r *http.Request) {
	ws := storefront.FromContext(r.Context())
	if ws == nil {
		h.logger.Error("workspace missing", slog.String("path", r.URL.Path))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	match := router.Resolve(r.URL.Path, ws.Session.User())
	render, ok := h.views[match.View]
	if !ok {
		render = h.home
	}
	render(w, r, ws, match)
}

type homeData struct {
	Products []catalog.Product
	Failed   bool
}

func (h *Handler) home(w http.ResponseWriter, r *http.Request, ws *storefront.Workspace, m router.Match) {
	state, _ := ws.Shop.Search(r.Context(), storefront.ShopFilter{})
	h.render(w, r, http.StatusOK, "Bina Ragam", "pages/home.html", homeData{Products: state.Products, Failed: state.Failed})
}

type shopData struct {
	Filter   storefront.ShopFilter
	Products []catalog.Product
	Failed   bool
}

func shopFilter(r *http.Request) storefront.ShopFilter {
	q := r.URL.Query()
	return storefront.ShopFilter{
		Query:    q.Get("q"),
		MinPrice: q.Get("min_price"),
		MaxPrice: q.Get("max_price"),
	}
}

func (h *Handler) shop(w http.ResponseWriter, r *http.Request, ws *storefront.Workspace, m router.Match) {
	filter := shopFilter(r)
	state, _ := ws.Shop.Search(r.Context(), filter)
	h.render(w, r, http.StatusOK, "Belanja", "pages/shop.html", shopData{Filter: state.Filter, Products: state.Products, Failed: state.Failed})
}

// shopPartial serves the listing fragment for live search.
func (h *Handler) shopPartial(w http.ResponseWriter, r *http.Request) {
	ws := storefront.FromContext(r.Context())
	if ws == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	filter := shopFilter(r)
	state, _ := ws.Shop.Search(r.Context(), filter)
	page := view.TemplateData{Data: shopData{Filter: state.Filter, Products: state.Products, Failed: state.Failed}}
	if err := h.templates.Render(w, "partials/shop_results.html", page); err != nil {
		h.logger.Error("render shop results", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func (h *Handler) product(w http.ResponseWriter, r *http.Request, ws *storefront.Workspace, m router.Match) {
	state, _ := ws.Detail.Open(r.Context(), m.Param)
	if state.Status != storefront.DetailLoaded {
		h.render(w, r, http.StatusNotFound, "Produk tidak ditemukan", "pages/product.html", state)
		return
	}
	h.render(w, r, http.StatusOK, state.Product.Name, "pages/product.html", state)
}

func (h *Handler) about(w http.ResponseWriter, r *http.Request, ws *storefront.Workspace, m router.Match) {
	h.render(w, r, http.StatusOK, "Tentang", "pages/about.html", nil)
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request, ws *storefront.Workspace, m router.Match) {
	h.auth.ShowLogin(w, r)
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request, ws *storefront.Workspace, m router.Match) {
	h.auth.ShowRegister(w, r)
}

func (h *Handler) unauthorized(w http.ResponseWriter, r *http.Request, ws *storefront.Workspace, m router.Match) {
	h.Forbidden(w, r)
}

// Forbidden renders the "Tidak berizin" page with status 403.
func (h *Handler) Forbidden(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusForbidden, "Tidak berizin", "pages/unauthorized.html", nil)
}

func newValidator() *validator.Validate {
	v := validator.New()
	// the contact name ends up in a mail header
	_ = v.RegisterValidation("singleline", func(fl validator.FieldLevel) bool {
		return !strings.ContainsAny(fl.Field().String(), "\r\n")
	})
	return v
}

// ContactForm is the contact page form.
type ContactForm struct {
	Name    string `validate:"required,max=120,singleline"`
	Email   string `validate:"required,email"`
	Message string `validate:"required,max=5000"`
}

type contactData struct {
	Form   ContactForm
	Errors map[string]string
}

func (h *Handler) contactPage(w http.ResponseWriter, r *http.Request, ws *storefront.Workspace, m router.Match) {
	h.render(w, r, http.StatusOK, "Kontak", "pages/contact.html", contactData{})
}

func (h *Handler) submitContact(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	form := ContactForm{
		Name:    strings.TrimSpace(r.PostFormValue("name")),
		Email:   strings.TrimSpace(r.PostFormValue("email")),
		Message: strings.TrimSpace(r.PostFormValue("message")),
	}
	data := contactData{Form: form, Errors: map[string]string{}}
	if err := h.validator.Struct(form); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			for _, fieldErr := range fieldErrs {
				data.Errors[fieldErr.Field()] = "Isian tidak valid"
			}
		}
		h.render(w, r, http.StatusBadRequest, "Kontak", "pages/contact.html", data)
		return
	}
	if h.contact == nil {
		data.Errors["general"] = "Pesan gagal dikirim"
		h.render(w, r, http.StatusServiceUnavailable, "Kontak", "pages/contact.html", data)
		return
	}
	id, err := h.contact.EnqueueContact(r.Context(), jobs.ContactMessage{Name: form.Name, Email: form.Email, Message: form.Message})
	if err != nil {
		h.logger.Error("enqueue contact message", slog.Any("error", err))
		data.Errors["general"] = "Pesan gagal dikirim"
		h.render(w, r, http.StatusServiceUnavailable, "Kontak", "pages/contact.html", data)
		return
	}
	h.logger.Info("contact message queued", slog.String("message_id", id))
	flash(r, "success", "Pesan terkirim, terima kasih")
	http.Redirect(w, r, navigate(r, "/contact"), http.StatusSeeOther)
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, title, name string, data any) {
	var csrfToken string
	if sess := shared.SessionFromContext(r.Context()); sess != nil && h.csrf != nil {
		csrfToken, _ = h.csrf.EnsureToken(r.Context(), sess)
	}
	page := view.NewPage(r.Context(), title, csrfToken, router.Normalize(r.URL.Path), data)
	if err := h.templates.RenderStatus(w, status, name, page); err != nil {
		h.logger.Error("render page", slog.String("template", name), slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	h.logger.Error("storefront request", slog.Any("error", err))
	httpx.RespondError(w, err)
}

func flash(r *http.Request, kind, message string) {
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		sess.AddFlash(shared.FlashMessage{Kind: kind, Message: message})
	}
}

func navigate(r *http.Request, to string) string {
	if ws := storefront.FromContext(r.Context()); ws != nil {
		return ws.Router.Navigate(to)
	}
	return to
}
