package storefront

import (
	"context"
	"log/slog"
	"sync"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/errgroup"

	"github.com/binaragam/storefront/internal/apiclient"
	"github.com/binaragam/storefront/internal/catalog"
	"github.com/binaragam/storefront/internal/users"
)

// AdminCatalog is the catalog surface the admin panel needs.
type AdminCatalog interface {
	ProductLister
	ProductGetter
	Create(ctx context.Context, token string, input catalog.ProductInput) error
	Update(ctx context.Context, token, id string, input catalog.ProductInput) error
	Delete(ctx context.Context, token, id string) error
}

// UserLister lists accounts for the admin panel.
type UserLister interface {
	ListUsers(ctx context.Context, token string) ([]users.User, error)
}

// AdminState is what the admin page renders.
type AdminState struct {
	Products       []catalog.Product
	Users          []users.User
	ProductsLoaded bool
	UsersLoaded    bool
}

// Admin is the admin panel view model. Products and users load
// independently; a failed load keeps the previously applied list.
type Admin struct {
	catalog  AdminCatalog
	users    UserLister
	validate *validator.Validate
	logger   *slog.Logger
	expire   func(ctx context.Context, token string)

	productsGen Generation
	usersGen    Generation

	mu    sync.Mutex
	state AdminState
}

// NewAdmin constructs an Admin view model.
func NewAdmin(c AdminCatalog, u UserLister, v *validator.Validate, logger *slog.Logger) *Admin {
	if logger == nil {
		logger = slog.Default()
	}
	if v == nil {
		v = validator.New()
	}
	return &Admin{catalog: c, users: u, validate: v, logger: logger}
}

// OnUnauthorized installs the hook called when the backend rejects token.
func (a *Admin) OnUnauthorized(fn func(ctx context.Context, token string)) {
	a.expire = fn
}

// Load fetches products and users concurrently.
func (a *Admin) Load(ctx context.Context, token string) AdminState {
	var g errgroup.Group
	g.Go(func() error {
		a.loadProducts(ctx, token)
		return nil
	})
	g.Go(func() error {
		a.loadUsers(ctx, token)
		return nil
	})
	_ = g.Wait()
	return a.Snapshot()
}

// Create validates and submits a new product, then reloads the listing.
func (a *Admin) Create(ctx context.Context, token string, form catalog.ProductForm) (catalog.FormErrors, error) {
	input, errs := a.prepare(form)
	if len(errs) > 0 {
		return errs, catalog.ErrInvalidForm
	}
	if err := a.catalog.Create(ctx, token, input); err != nil {
		a.checkUnauthorized(ctx, token, err)
		return nil, err
	}
	a.loadProducts(ctx, token)
	return nil, nil
}

// Update validates and replaces product id, then reloads the listing.
func (a *Admin) Update(ctx context.Context, token, id string, form catalog.ProductForm) (catalog.FormErrors, error) {
	input, errs := a.prepare(form)
	if len(errs) > 0 {
		return errs, catalog.ErrInvalidForm
	}
	if err := a.catalog.Update(ctx, token, id, input); err != nil {
		a.checkUnauthorized(ctx, token, err)
		return nil, err
	}
	a.loadProducts(ctx, token)
	return nil, nil
}

// Delete removes product id, then reloads the listing.
func (a *Admin) Delete(ctx context.Context, token, id string) error {
	if err := a.catalog.Delete(ctx, token, id); err != nil {
		a.checkUnauthorized(ctx, token, err)
		return err
	}
	a.loadProducts(ctx, token)
	return nil
}

// Product fetches one product for the edit form.
func (a *Admin) Product(ctx context.Context, id string) (*catalog.Product, error) {
	return a.catalog.Get(ctx, id)
}

// Snapshot returns the latest applied state.
func (a *Admin) Snapshot() AdminState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Reset drops cached lists and supersedes in-flight loads.
func (a *Admin) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.productsGen.Invalidate()
	a.usersGen.Invalidate()
	a.state = AdminState{}
}

func (a *Admin) prepare(form catalog.ProductForm) (catalog.ProductInput, catalog.FormErrors) {
	if errs := form.Validate(a.validate); len(errs) > 0 {
		return catalog.ProductInput{}, errs
	}
	input, err := form.Normalize()
	if err != nil {
		return catalog.ProductInput{}, catalog.FormErrors{"general": err.Error()}
	}
	return input, nil
}

func (a *Admin) loadProducts(ctx context.Context, token string) {
	a.mu.Lock()
	tag := a.productsGen.Next()
	a.mu.Unlock()

	products, err := a.catalog.List(ctx, catalog.ListParams{})

	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.productsGen.IsCurrent(tag) {
		return
	}
	if err != nil {
		a.logger.Warn("admin product listing failed", slog.Any("error", err))
		return
	}
	a.state.Products = products
	a.state.ProductsLoaded = true
}

func (a *Admin) loadUsers(ctx context.Context, token string) {
	a.mu.Lock()
	tag := a.usersGen.Next()
	a.mu.Unlock()

	list, err := a.users.ListUsers(ctx, token)
	if err != nil {
		a.logger.Warn("admin user listing failed", slog.Any("error", err))
		a.checkUnauthorized(ctx, token, err)
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.usersGen.IsCurrent(tag) {
		return
	}
	a.state.Users = list
	a.state.UsersLoaded = true
}

func (a *Admin) checkUnauthorized(ctx context.Context, token string, err error) {
	if a.expire != nil && apiclient.IsUnauthorized(err) {
		a.expire(ctx, token)
	}
}
