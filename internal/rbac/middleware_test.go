package rbac

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/binaragam/storefront/internal/session"
	"github.com/binaragam/storefront/internal/users"
)

type resolver map[string]*users.User

func (r resolver) Me(ctx context.Context, token string) (*users.User, error) {
	if u, ok := r[token]; ok {
		return u, nil
	}
	return nil, errors.New("unknown token")
}

func serveWithToken(t *testing.T, token string) *httptest.ResponseRecorder {
	t.Helper()
	store, err := session.NewStore(context.Background(), session.NewMemoryStorage(token), resolver{
		"admin":  {Name: "Sari", Role: "admin"},
		"user":   {Name: "Budi", Role: "user"},
		"padded": {Name: "Tono", Role: " Admin "},
		"upper":  {Name: "Rina", Role: "ADMIN"},
	})
	require.NoError(t, err)

	guard := Middleware{}.RequireRole(users.RoleAdmin)
	handler := guard(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	req := httptest.NewRequest(http.MethodPost, "/admin/products", nil)
	req = req.WithContext(session.ContextWithStore(req.Context(), store))
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	return res
}

func TestRequireRole(t *testing.T) {
	assert.Equal(t, http.StatusNoContent, serveWithToken(t, "admin").Code)
	assert.Equal(t, http.StatusForbidden, serveWithToken(t, "user").Code)
	assert.Equal(t, http.StatusForbidden, serveWithToken(t, "").Code)
	assert.Equal(t, http.StatusForbidden, serveWithToken(t, "bogus").Code)
	assert.Equal(t, http.StatusForbidden, serveWithToken(t, "padded").Code)
	assert.Equal(t, http.StatusForbidden, serveWithToken(t, "upper").Code)
}

func TestRequireRoleWithoutSession(t *testing.T) {
	called := false
	guard := Middleware{Denied: func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusUnauthorized)
	}}.RequireRole("admin")
	res := httptest.NewRecorder()
	guard(http.NotFoundHandler()).ServeHTTP(res, httptest.NewRequest(http.MethodPost, "/", nil))
	assert.True(t, called)
	assert.Equal(t, http.StatusUnauthorized, res.Code)
}

func TestRequireRoleWithNoRolesPassesThrough(t *testing.T) {
	res := httptest.NewRecorder()
	Middleware{}.RequireRole(" ")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})).ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusAccepted, res.Code)
}
