package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/binaragam/storefront/internal/apiclient"
)

// ErrNotFound is returned when the backend has no such product.
var ErrNotFound = errors.New("catalog: product not found")

// ListParams filters the product listing.
type ListParams struct {
	Query    string
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
}

// Values encodes the filter. q is always present; unset bounds are omitted.
func (p ListParams) Values() url.Values {
	v := url.Values{}
	v.Set("q", p.Query)
	if p.MinPrice != nil {
		v.Set("min_price", p.MinPrice.String())
	}
	if p.MaxPrice != nil {
		v.Set("max_price", p.MaxPrice.String())
	}
	return v
}

// ParseBound converts user input into a price bound. Blank or non-numeric
// input yields nil so that the parameter is left out.
func ParseBound(raw string) *decimal.Decimal {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return nil
	}
	return &d
}

// Service reads and mutates products through the backend.
type Service struct {
	client *apiclient.Client
}

// NewService constructs a catalog service.
func NewService(client *apiclient.Client) *Service {
	return &Service{client: client}
}

// List returns the filtered listing.
func (s *Service) List(ctx context.Context, params ListParams) ([]Product, error) {
	var out []Product
	if err := s.client.JSON(ctx, "/products", apiclient.Options{Query: params.Values()}, &out); err != nil {
		return nil, fmt.Errorf("catalog: list: %w", err)
	}
	return out, nil
}

// Get fetches a single product.
func (s *Service) Get(ctx context.Context, id string) (*Product, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrNotFound
	}
	var out *Product
	if err := s.client.JSON(ctx, "/products/"+url.PathEscape(id), apiclient.Options{}, &out); err != nil {
		if apiclient.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("catalog: get %s: %w", id, err)
	}
	if out == nil {
		return nil, ErrNotFound
	}
	return out, nil
}

// Create posts a new product using the admin token.
func (s *Service) Create(ctx context.Context, token string, input ProductInput) error {
	if _, err := s.client.Request(ctx, "/products", apiclient.Options{Method: http.MethodPost, Body: input, Token: token}); err != nil {
		return fmt.Errorf("catalog: create: %w", err)
	}
	return nil
}

// Update replaces an existing product.
func (s *Service) Update(ctx context.Context, token, id string, input ProductInput) error {
	path := "/products/" + url.PathEscape(strings.TrimSpace(id))
	if _, err := s.client.Request(ctx, path, apiclient.Options{Method: http.MethodPut, Body: input, Token: token}); err != nil {
		return fmt.Errorf("catalog: update %s: %w", id, err)
	}
	return nil
}

// Delete removes a product.
func (s *Service) Delete(ctx context.Context, token, id string) error {
	path := "/products/" + url.PathEscape(strings.TrimSpace(id))
	if _, err := s.client.Request(ctx, path, apiclient.Options{Method: http.MethodDelete, Token: token}); err != nil {
		return fmt.Errorf("catalog: delete %s: %w", id, err)
	}
	return nil
}
