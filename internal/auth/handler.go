package auth

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/binaragam/storefront/internal/session"
	"github.com/binaragam/storefront/internal/shared"
	"github.com/binaragam/storefront/internal/storefront"
	"github.com/binaragam/storefront/internal/view"
)

// Authenticator is the backend surface the handler needs.
type Authenticator interface {
	Login(ctx context.Context, creds Credentials) (string, error)
	Register(ctx context.Context, reg Registration) error
}

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger      *slog.Logger
	service     Authenticator
	templates   *view.Engine
	sessions    *shared.SessionManager
	csrfManager *shared.CSRFManager
	validator   *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service Authenticator, templates *view.Engine, sessions *shared.SessionManager, csrf *shared.CSRFManager) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:      logger,
		service:     service,
		templates:   templates,
		sessions:    sessions,
		csrfManager: csrf,
		validator:   validator.New(),
	}
}

// MountRoutes registers the form posts. The pages themselves are served by
// the route table through ShowLogin and ShowRegister.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/login", h.handleLogin)
	r.Post("/register", h.handleRegister)
	r.Post("/logout", h.handleLogout)
}

type loginPageData struct {
	Email string
	Error string
}

type registerPageData struct {
	Name  string
	Email string
	Error string
}

// ShowLogin renders the sign-in page.
func (h *Handler) ShowLogin(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "Masuk", "pages/login.html", loginPageData{})
}

// ShowRegister renders the sign-up page.
func (h *Handler) ShowRegister(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "Daftar", "pages/register.html", registerPageData{})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	creds := Credentials{
		Email:    r.PostFormValue("email"),
		Password: r.PostFormValue("password"),
	}
	data := loginPageData{Email: creds.Email}

	store := session.FromContext(r.Context())
	if store == nil {
		h.logger.Error("session store missing during login")
		data.Error = LoginFailedMessage
		h.render(w, r, http.StatusInternalServerError, "Masuk", "pages/login.html", data)
		return
	}
	if err := h.validator.Struct(creds); err != nil {
		data.Error = LoginFailedMessage
		h.render(w, r, http.StatusBadRequest, "Masuk", "pages/login.html", data)
		return
	}

	token, err := h.service.Login(r.Context(), creds)
	if err != nil {
		h.logger.Info("login rejected", slog.Any("error", err))
		data.Error = LoginFailedMessage
		h.render(w, r, http.StatusUnauthorized, "Masuk", "pages/login.html", data)
		return
	}
	if err := store.SetToken(r.Context(), token); err != nil {
		h.logger.Warn("install session token", slog.Any("error", err))
	}
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		h.rotateCSRF(r.Context(), sess)
		sess.AddFlash(shared.FlashMessage{Kind: "success", Message: "Selamat datang kembali"})
	}
	http.Redirect(w, r, navigate(r.Context(), "/"), http.StatusSeeOther)
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	reg := Registration{
		Name:     r.PostFormValue("name"),
		Email:    r.PostFormValue("email"),
		Password: r.PostFormValue("password"),
	}
	data := registerPageData{Name: reg.Name, Email: reg.Email}
	if err := h.validator.Struct(reg); err != nil {
		data.Error = RegisterFailedMessage
		h.render(w, r, http.StatusBadRequest, "Daftar", "pages/register.html", data)
		return
	}
	if err := h.service.Register(r.Context(), reg); err != nil {
		h.logger.Info("registration rejected", slog.Any("error", err))
		data.Error = RegisterFailedMessage
		h.render(w, r, http.StatusBadRequest, "Daftar", "pages/register.html", data)
		return
	}
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		sess.AddFlash(shared.FlashMessage{Kind: "success", Message: "Akun dibuat, silakan masuk"})
	}
	http.Redirect(w, r, navigate(r.Context(), "/login"), http.StatusSeeOther)
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if store := session.FromContext(r.Context()); store != nil {
		if err := store.Logout(r.Context()); err != nil {
			h.logger.Warn("clear session token", slog.Any("error", err))
		}
	}
	// the next request starts under a new visitor id
	if sess := shared.SessionFromContext(r.Context()); sess != nil && h.sessions != nil {
		h.sessions.Destroy(sess)
	}
	http.Redirect(w, r, navigate(r.Context(), "/"), http.StatusSeeOther)
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, title, name string, data any) {
	var csrfToken string
	if sess := shared.SessionFromContext(r.Context()); sess != nil && h.csrfManager != nil {
		csrfToken, _ = h.csrfManager.EnsureToken(r.Context(), sess)
	}
	page := view.NewPage(r.Context(), title, csrfToken, r.URL.Path, data)
	if err := h.templates.RenderStatus(w, status, name, page); err != nil {
		h.logger.Error("render auth page", slog.String("template", name), slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func (h *Handler) rotateCSRF(ctx context.Context, sess *shared.Session) {
	if h.csrfManager == nil {
		return
	}
	if _, err := h.csrfManager.Rotate(ctx, sess); err != nil {
		h.logger.Warn("rotate csrf token", slog.Any("error", err))
	}
}

// navigate moves the visitor's route to `to` and returns the redirect target.
func navigate(ctx context.Context, to string) string {
	if ws := storefront.FromContext(ctx); ws != nil {
		return ws.Router.Navigate(to)
	}
	return to
}
