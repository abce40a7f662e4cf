package storefront

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/binaragam/storefront/internal/catalog"
)

// ProductGetter fetches a single product.
type ProductGetter interface {
	Get(ctx context.Context, id string) (*catalog.Product, error)
}

// DetailStatus is the lifecycle of the product detail page.
type DetailStatus int

const (
	DetailLoading DetailStatus = iota
	DetailLoaded
	DetailNotFound
)

// DetailState is what the product page renders.
type DetailState struct {
	ID      string
	Status  DetailStatus
	Product *catalog.Product
}

// ProductDetail is the product page view model.
type ProductDetail struct {
	getter ProductGetter
	logger *slog.Logger
	gen    Generation

	mu    sync.Mutex
	state DetailState
}

// NewProductDetail constructs a ProductDetail.
func NewProductDetail(getter ProductGetter, logger *slog.Logger) *ProductDetail {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProductDetail{getter: getter, logger: logger}
}

// Open loads product id and returns that load's own outcome. Failures end in
// DetailNotFound. applied is false when a newer Open or Invalidate superseded
// it; the shared snapshot is only written by the current load.
func (d *ProductDetail) Open(ctx context.Context, id string) (result DetailState, applied bool) {
	d.mu.Lock()
	tag := d.gen.Next()
	d.state = DetailState{ID: id, Status: DetailLoading}
	d.mu.Unlock()

	result = DetailState{ID: id, Status: DetailNotFound}
	if id != "" {
		product, err := d.getter.Get(ctx, id)
		switch {
		case err != nil && !errors.Is(err, catalog.ErrNotFound):
			d.logger.Warn("product detail failed", slog.String("id", id), slog.Any("error", err))
		case err == nil && product != nil:
			result.Status = DetailLoaded
			result.Product = product
		}
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.gen.IsCurrent(tag) {
		d.logger.Debug("discarding superseded product detail", slog.String("id", id))
		return result, false
	}
	d.state = result
	return result, true
}

// Snapshot returns the latest applied state.
func (d *ProductDetail) Snapshot() DetailState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Invalidate drops any in-flight load.
func (d *ProductDetail) Invalidate() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.gen.Invalidate()
}
