package view

import (
	"context"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/binaragam/storefront/internal/catalog"
	"github.com/binaragam/storefront/internal/session"
	"github.com/binaragam/storefront/internal/shared"
	"github.com/binaragam/storefront/internal/users"
	"github.com/binaragam/storefront/web"
)

// Engine renders HTML templates.
type Engine struct {
	templates *template.Template
}

// TemplateData contains values shared across templates.
type TemplateData struct {
	Title       string
	CSRFToken   string
	Flash       *shared.FlashMessage
	CurrentPath string
	User        *users.User
	IsAdmin     bool
	Year        int
	Data        any
}

// NewPage fills the layout fields from the request context.
func NewPage(ctx context.Context, title, csrfToken, path string, data any) TemplateData {
	page := TemplateData{
		Title:       title,
		CSRFToken:   csrfToken,
		CurrentPath: path,
		Year:        time.Now().Year(),
		Data:        data,
	}
	if store := session.FromContext(ctx); store != nil {
		snap := store.Snapshot()
		page.User = snap.User
		page.IsAdmin = snap.IsAdmin()
	}
	if sess := shared.SessionFromContext(ctx); sess != nil {
		page.Flash = sess.PopFlash()
	}
	return page
}

// NewEngine parses templates at build-time.
func NewEngine() (*Engine, error) {
	funcMap := template.FuncMap{
		"formatDate": func(ts shared.Timestamp) string {
			if ts.IsZero() {
				return ""
			}
			return ts.Local().Format("02 Jan 2006 15:04")
		},
		"rupiah": catalog.FormatRupiah,
		"active": func(current, prefix string) bool {
			if prefix == "/" {
				return current == "/"
			}
			return strings.HasPrefix(current, prefix)
		},
	}
	tpl, err := template.New("root").Funcs(funcMap).ParseFS(web.Templates, "templates/layouts/*.html", "templates/partials/*.html", "templates/pages/*.html")
	if err != nil {
		return nil, err
	}
	return &Engine{templates: tpl}, nil
}

// Render executes a named template with TemplateData.
func (e *Engine) Render(w http.ResponseWriter, name string, data TemplateData) error {
	return e.RenderStatus(w, http.StatusOK, name, data)
}

// RenderStatus renders into a buffer first so a failed template never
// leaves a half-written page behind the status line.
func (e *Engine) RenderStatus(w http.ResponseWriter, status int, name string, data TemplateData) error {
	if e == nil {
		return fmt.Errorf("template engine not initialised")
	}
	var buf strings.Builder
	if err := e.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := w.Write([]byte(buf.String()))
	return err
}
