package auth

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/binaragam/storefront/internal/apiclient"
	"github.com/binaragam/storefront/internal/users"
)

// Service talks to the backend auth endpoints.
type Service struct {
	client *apiclient.Client
}

// NewService constructs a new Service.
func NewService(client *apiclient.Client) *Service {
	return &Service{client: client}
}

// Login exchanges credentials for a bearer token.
func (s *Service) Login(ctx context.Context, creds Credentials) (string, error) {
	form := url.Values{}
	form.Set("username", strings.TrimSpace(creds.Email))
	form.Set("password", creds.Password)

	var out tokenResponse
	err := s.client.JSON(ctx, "/auth/login", apiclient.Options{Method: http.MethodPost, Form: form}, &out)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrLoginFailed, err)
	}
	token := strings.TrimSpace(out.AccessToken)
	if token == "" {
		return "", fmt.Errorf("%w: empty access token", ErrLoginFailed)
	}
	return token, nil
}

// Register creates an account. The visitor signs in separately afterwards.
func (s *Service) Register(ctx context.Context, reg Registration) error {
	reg.Name = strings.TrimSpace(reg.Name)
	reg.Email = strings.TrimSpace(reg.Email)
	if _, err := s.client.Request(ctx, "/auth/register", apiclient.Options{Method: http.MethodPost, Body: reg}); err != nil {
		return fmt.Errorf("%w: %w", ErrRegisterFailed, err)
	}
	return nil
}

// Me resolves token to the signed-in profile.
func (s *Service) Me(ctx context.Context, token string) (*users.User, error) {
	var user users.User
	if err := s.client.JSON(ctx, "/auth/me", apiclient.Options{Token: token}, &user); err != nil {
		return nil, fmt.Errorf("auth: me: %w", err)
	}
	if user.ID == "" && user.Email == "" && user.Name == "" {
		return nil, fmt.Errorf("auth: me: %w", apiclient.ErrMalformedResponse)
	}
	return &user, nil
}
