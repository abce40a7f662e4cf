package router

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/binaragam/storefront/internal/users"
)

func TestNormalize(t *testing.T) {
	cases := map[string]string{
		"":              "/",
		"#":             "/",
		"#/shop":        "/shop",
		"/shop/":        "/shop",
		"shop":          "/shop",
		"#product/12":   "/product/12",
		"/shop?q=batik": "/shop",
		"  /about  ":    "/about",
	}
	for in, want := range cases {
		assert.Equal(t, want, Normalize(in), "input %q", in)
	}
}

func TestMatchPathTable(t *testing.T) {
	cases := []struct {
		path  string
		view  View
		param string
	}{
		{"/", ViewHome, ""},
		{"/shop", ViewShop, ""},
		{"/shopping", ViewShop, ""},
		{"/about-us", ViewAbout, ""},
		{"/contact", ViewContact, ""},
		{"/login", ViewLogin, ""},
		{"/register", ViewRegister, ""},
		{"/admin", ViewAdmin, ""},
		{"/admin/users", ViewAdmin, ""},
		{"/product/42", ViewProduct, "42"},
		{"/product/42/reviews", ViewProduct, "42"},
		{"/product", ViewHome, ""},
		{"/nowhere", ViewHome, ""},
	}
	for _, tc := range cases {
		m := MatchPath(tc.path)
		assert.Equal(t, tc.view, m.View, tc.path)
		assert.Equal(t, tc.param, m.Param, tc.path)
	}
}

func TestTableOrderFirstMatchWins(t *testing.T) {
	seen := map[string]bool{}
	for _, e := range Table {
		assert.False(t, seen[e.Prefix], "duplicate prefix %s", e.Prefix)
		seen[e.Prefix] = true
		assert.Equal(t, e.View, MatchPath(e.Prefix+"x").View)
	}
}

func TestResolveAdminGate(t *testing.T) {
	assert.Equal(t, ViewUnauthorized, Resolve("/admin", nil).View)
	assert.Equal(t, ViewUnauthorized, Resolve("/admin", &users.User{Role: "user"}).View)
	assert.Equal(t, ViewAdmin, Resolve("/admin", &users.User{Role: users.RoleAdmin}).View)
	assert.Equal(t, ViewShop, Resolve("/shop", nil).View)
}

func TestRouterSyncAndNavigate(t *testing.T) {
	r := New("")
	assert.Equal(t, "/", r.Current())

	var events [][2]string
	cancel := r.Subscribe(func(prev, next string) {
		events = append(events, [2]string{prev, next})
	})

	assert.True(t, r.Sync("#/shop"))
	assert.False(t, r.Sync("/shop/"))
	assert.Equal(t, "/login", r.Navigate("login"))
	assert.Equal(t, "/login", r.Current())

	cancel()
	r.Navigate("/about")

	assert.Equal(t, [][2]string{{"/", "/shop"}, {"/shop", "/login"}}, events)
}
