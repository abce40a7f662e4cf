// Package router maps navigation paths to storefront views.
package router

import (
	"strings"

	"github.com/binaragam/storefront/internal/users"
)

// View identifies a page of the storefront.
type View string

const (
	ViewHome         View = "home"
	ViewShop         View = "shop"
	ViewAbout        View = "about"
	ViewContact      View = "contact"
	ViewLogin        View = "login"
	ViewRegister     View = "register"
	ViewAdmin        View = "admin"
	ViewProduct      View = "product"
	ViewUnauthorized View = "unauthorized"
)

// Entry binds a path prefix to a view.
type Entry struct {
	Prefix string
	View   View
}

// Table is the ordered route table. The first matching prefix wins and
// anything unmatched renders Home.
var Table = []Entry{
	{Prefix: "/shop", View: ViewShop},
	{Prefix: "/about", View: ViewAbout},
	{Prefix: "/contact", View: ViewContact},
	{Prefix: "/login", View: ViewLogin},
	{Prefix: "/register", View: ViewRegister},
	{Prefix: "/admin", View: ViewAdmin},
	{Prefix: "/product/", View: ViewProduct},
}

// Match is the outcome of routing a path.
type Match struct {
	Path  string
	View  View
	Param string
}

// Normalize turns a fragment or path into a canonical route path.
func Normalize(fragment string) string {
	p := strings.TrimSpace(fragment)
	if i := strings.IndexByte(p, '#'); i >= 0 {
		p = p[i+1:]
	}
	if i := strings.IndexAny(p, "?"); i >= 0 {
		p = p[:i]
	}
	p = strings.TrimRight(p, "/")
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return p
}

// MatchPath resolves path against Table without any authorization check.
func MatchPath(path string) Match {
	path = Normalize(path)
	for _, e := range Table {
		if strings.HasPrefix(path, e.Prefix) {
			m := Match{Path: path, View: e.View}
			if e.View == ViewProduct {
				m.Param = productID(path[len(e.Prefix):])
			}
			return m
		}
	}
	return Match{Path: path, View: ViewHome}
}

// Resolve routes path and applies the admin gate for user.
func Resolve(path string, user *users.User) Match {
	m := MatchPath(path)
	if m.View == ViewAdmin && !user.IsAdmin() {
		m.View = ViewUnauthorized
	}
	return m
}

func productID(rest string) string {
	if i := strings.IndexByte(rest, '/'); i >= 0 {
		rest = rest[:i]
	}
	return rest
}
