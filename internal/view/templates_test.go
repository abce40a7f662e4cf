package view

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/binaragam/storefront/internal/catalog"
	"github.com/binaragam/storefront/internal/shared"
)

func TestNewEngine(t *testing.T) {
	engine, err := NewEngine()
	assert.NoError(t, err, "Templates should parse without error")
	assert.NotNil(t, engine)
}

func TestRenderShopResults(t *testing.T) {
	engine, err := NewEngine()
	require.NoError(t, err)

	data := TemplateData{Data: map[string]any{
		"Products": []catalog.Product{{ID: "7", Name: "Sarung", Price: 120000}},
		"Failed":   false,
	}}
	res := httptest.NewRecorder()
	require.NoError(t, engine.Render(res, "partials/shop_results.html", data))
	assert.Contains(t, res.Body.String(), "Sarung")
	assert.Contains(t, res.Body.String(), `href="/product/7"`)

	data.Data = map[string]any{"Products": []catalog.Product{}, "Failed": true}
	res = httptest.NewRecorder()
	require.NoError(t, engine.Render(res, "partials/shop_results.html", data))
	assert.Contains(t, res.Body.String(), "Produk gagal dimuat.")
}

func TestRenderStatusWritesLayout(t *testing.T) {
	engine, err := NewEngine()
	require.NoError(t, err)

	res := httptest.NewRecorder()
	page := NewPage(context.Background(), "Tidak berizin", "tok", "/admin", nil)
	require.NoError(t, engine.RenderStatus(res, http.StatusForbidden, "pages/unauthorized.html", page))

	assert.Equal(t, http.StatusForbidden, res.Code)
	assert.Equal(t, "text/html; charset=utf-8", res.Header().Get("Content-Type"))
	assert.Contains(t, res.Body.String(), "<title>Tidak berizin · Bina Ragam</title>")
	assert.Contains(t, res.Body.String(), `href="/login"`)
}

func TestRenderUnknownTemplateLeavesResponseUntouched(t *testing.T) {
	engine, err := NewEngine()
	require.NoError(t, err)

	res := httptest.NewRecorder()
	assert.Error(t, engine.Render(res, "pages/missing.html", TemplateData{}))
	assert.Empty(t, res.Body.String())
	assert.Empty(t, res.Header().Get("Content-Type"))
}

func TestNewPagePopsFlash(t *testing.T) {
	sess := &shared.Session{ID: "v"}
	sess.AddFlash(shared.FlashMessage{Kind: "success", Message: "Halo"})
	ctx := shared.ContextWithSession(context.Background(), sess)

	page := NewPage(ctx, "Home", "", "/", nil)
	require.NotNil(t, page.Flash)
	assert.Equal(t, "Halo", page.Flash.Message)
	assert.Nil(t, NewPage(ctx, "Home", "", "/", nil).Flash)
	assert.False(t, page.IsAdmin)
}
