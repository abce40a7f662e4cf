package storefront

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/binaragam/storefront/internal/catalog"
)

// ProductLister is the listing side of the catalog.
type ProductLister interface {
	List(ctx context.Context, params catalog.ListParams) ([]catalog.Product, error)
}

// ShopFilter is the raw search input of the shop page.
type ShopFilter struct {
	Query    string
	MinPrice string
	MaxPrice string
}

// Params converts the filter into listing parameters.
func (f ShopFilter) Params() catalog.ListParams {
	return catalog.ListParams{
		Query:    strings.TrimSpace(f.Query),
		MinPrice: catalog.ParseBound(f.MinPrice),
		MaxPrice: catalog.ParseBound(f.MaxPrice),
	}
}

// ShopState is what the shop page renders.
type ShopState struct {
	Filter   ShopFilter
	Products []catalog.Product
	Loading  bool
	// Failed is set when the latest applied search failed.
	Failed bool
}

// Shop is the search-and-filter listing view model.
type Shop struct {
	lister ProductLister
	logger *slog.Logger
	gen    Generation

	mu    sync.Mutex
	state ShopState
}

// NewShop constructs a Shop.
func NewShop(lister ProductLister, logger *slog.Logger) *Shop {
	if logger == nil {
		logger = slog.Default()
	}
	return &Shop{lister: lister, logger: logger}
}

// Search issues a listing request for filter and returns that request's own
// result. applied is false when a newer search superseded it in flight; the
// shared snapshot then keeps the newer state.
func (s *Shop) Search(ctx context.Context, filter ShopFilter) (result ShopState, applied bool) {
	s.mu.Lock()
	tag := s.gen.Next()
	s.state.Filter = filter
	s.state.Loading = true
	s.mu.Unlock()

	products, err := s.lister.List(ctx, filter.Params())
	if err != nil {
		s.logger.Warn("shop listing failed", slog.String("query", filter.Query), slog.Any("error", err))
		products = nil
	}
	result = ShopState{Filter: filter, Products: products, Failed: err != nil}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.gen.IsCurrent(tag) {
		s.logger.Debug("discarding superseded shop listing", slog.String("query", filter.Query))
		return result, false
	}
	s.state = result
	return result, true
}

// Snapshot returns the latest applied state.
func (s *Shop) Snapshot() ShopState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Invalidate drops any in-flight search, for example on navigation away.
func (s *Shop) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen.Invalidate()
}
