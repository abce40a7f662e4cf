package users

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/binaragam/storefront/internal/apiclient"
)

func TestBackendRepositoryListUsers(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users", r.URL.Path)
		assert.Equal(t, "Bearer admin-token", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"id":1,"name":"Sari","email":"sari@binaragam.com","role":"admin","created_at":"2024-05-01T08:30:00"},
			{"id":"u-2","name":"","email":"budi@example.com","role":"user","created_at":"2024-05-02T09:00:00Z"}
		]`))
	}))
	defer srv.Close()

	svc := NewService(NewBackendRepository(apiclient.New(srv.URL)))
	list, err := svc.ListUsers(context.Background(), "admin-token")
	require.NoError(t, err)
	require.Len(t, list, 2)

	assert.Equal(t, "1", list[0].ID.String())
	assert.True(t, list[0].IsAdmin())
	assert.Equal(t, 2024, list[0].CreatedAt.Year())
	assert.Equal(t, "u-2", list[1].ID.String())
	assert.False(t, list[1].IsAdmin())
	assert.Equal(t, "budi@example.com", list[1].DisplayName())
}

func TestBackendRepositoryPropagatesRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := NewBackendRepository(apiclient.New(srv.URL)).ListUsers(context.Background(), "user-token")
	require.Error(t, err)
	assert.True(t, apiclient.IsUnauthorized(err))
}

func TestIsAdminNilSafe(t *testing.T) {
	var u *User
	assert.False(t, u.IsAdmin())
	assert.True(t, (&User{Role: "admin"}).IsAdmin())
	assert.False(t, (&User{Role: " Admin "}).IsAdmin())
	assert.False(t, (&User{Role: "ADMIN"}).IsAdmin())
}

func TestUserCreatedAtRoundTrip(t *testing.T) {
	var u User
	require.NoError(t, json.Unmarshal([]byte(`{"id":7,"created_at":null}`), &u))
	assert.True(t, u.CreatedAt.IsZero())
}
