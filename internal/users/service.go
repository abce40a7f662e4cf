package users

import (
	"context"
	"fmt"

	"github.com/binaragam/storefront/internal/apiclient"
)

// RepositoryPort defines data access methods for users.
type RepositoryPort interface {
	ListUsers(ctx context.Context, token string) ([]User, error)
}

// Service handles user listing for the admin panel.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// ListUsers returns all accounts visible to the bearer of token.
func (s *Service) ListUsers(ctx context.Context, token string) ([]User, error) {
	return s.repo.ListUsers(ctx, token)
}

// BackendRepository reads users from the REST backend.
type BackendRepository struct {
	client *apiclient.Client
}

// NewBackendRepository wires the repository to an API client.
func NewBackendRepository(client *apiclient.Client) *BackendRepository {
	return &BackendRepository{client: client}
}

// ListUsers calls GET /users with the admin bearer token.
func (r *BackendRepository) ListUsers(ctx context.Context, token string) ([]User, error) {
	var out []User
	if err := r.client.JSON(ctx, "/users", apiclient.Options{Token: token}, &out); err != nil {
		return nil, fmt.Errorf("users: list: %w", err)
	}
	return out, nil
}
