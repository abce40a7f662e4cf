package storefront

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/binaragam/storefront/internal/apiclient"
	"github.com/binaragam/storefront/internal/catalog"
	"github.com/binaragam/storefront/internal/session"
	"github.com/binaragam/storefront/internal/users"
)

// gatedCatalog blocks each List call until the test releases its query.
type gatedCatalog struct {
	mu       sync.Mutex
	gates    map[string]chan struct{}
	entered  chan string
	products map[string]*catalog.Product
	failList bool
	listErr  error
	created  []catalog.ProductInput
	updated  map[string]catalog.ProductInput
	deleted  []string
	mutErr   error
	lists    atomic.Int32
}

func newGatedCatalog() *gatedCatalog {
	return &gatedCatalog{
		gates:    map[string]chan struct{}{},
		entered:  make(chan string, 16),
		products: map[string]*catalog.Product{},
		updated:  map[string]catalog.ProductInput{},
	}
}

func (g *gatedCatalog) gate(query string) chan struct{} {
	g.mu.Lock()
	defer g.mu.Unlock()
	ch, ok := g.gates[query]
	if !ok {
		ch = make(chan struct{})
		g.gates[query] = ch
	}
	return ch
}

func (g *gatedCatalog) List(ctx context.Context, params catalog.ListParams) ([]catalog.Product, error) {
	g.lists.Add(1)
	g.mu.Lock()
	ch, gated := g.gates[params.Query]
	err := g.listErr
	g.mu.Unlock()
	g.entered <- params.Query
	if gated {
		<-ch
	}
	if err != nil {
		return nil, err
	}
	return []catalog.Product{{ID: "1", Name: "result for " + params.Query}}, nil
}

func (g *gatedCatalog) Get(ctx context.Context, id string) (*catalog.Product, error) {
	ch := g.gate("get:" + id)
	g.entered <- "get:" + id
	<-ch
	g.mu.Lock()
	defer g.mu.Unlock()
	if p, ok := g.products[id]; ok {
		return p, nil
	}
	return nil, catalog.ErrNotFound
}

func (g *gatedCatalog) Create(ctx context.Context, token string, input catalog.ProductInput) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.mutErr != nil {
		return g.mutErr
	}
	g.created = append(g.created, input)
	return nil
}

func (g *gatedCatalog) Update(ctx context.Context, token, id string, input catalog.ProductInput) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.mutErr != nil {
		return g.mutErr
	}
	g.updated[id] = input
	return nil
}

func (g *gatedCatalog) Delete(ctx context.Context, token, id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.mutErr != nil {
		return g.mutErr
	}
	g.deleted = append(g.deleted, id)
	return nil
}

type stubUsers struct {
	list []users.User
	err  error
}

func (s *stubUsers) ListUsers(ctx context.Context, token string) ([]users.User, error) {
	return s.list, s.err
}

type stubResolver map[string]*users.User

func (r stubResolver) Me(ctx context.Context, token string) (*users.User, error) {
	if u, ok := r[token]; ok {
		return u, nil
	}
	return nil, errors.New("unknown token")
}

type searchOutcome struct {
	state   ShopState
	applied bool
}

func searchAsync(shop *Shop, query string) <-chan searchOutcome {
	out := make(chan searchOutcome, 1)
	go func() {
		state, applied := shop.Search(context.Background(), ShopFilter{Query: query})
		out <- searchOutcome{state: state, applied: applied}
	}()
	return out
}

func TestShopSupersededSearchLateResponse(t *testing.T) {
	cat := newGatedCatalog()
	shop := NewShop(cat, nil)
	gateA, gateAB := cat.gate("a"), cat.gate("ab")

	first := searchAsync(shop, "a")
	require.Equal(t, "a", <-cat.entered)
	second := searchAsync(shop, "ab")
	require.Equal(t, "ab", <-cat.entered)

	close(gateAB)
	latest := <-second
	close(gateA)
	stale := <-first

	assert.True(t, latest.applied)
	assert.Equal(t, "result for ab", latest.state.Products[0].Name)
	assert.False(t, stale.applied)
	assert.Equal(t, "a", stale.state.Filter.Query, "late result still answers its own request")
	assert.Equal(t, "result for a", stale.state.Products[0].Name)
	snap := shop.Snapshot()
	require.Len(t, snap.Products, 1)
	assert.Equal(t, "result for ab", snap.Products[0].Name)
	assert.Equal(t, "ab", snap.Filter.Query)
	assert.False(t, snap.Loading)
}

func TestShopSupersededSearchEarlyResponse(t *testing.T) {
	cat := newGatedCatalog()
	shop := NewShop(cat, nil)
	gateA, gateAB := cat.gate("a"), cat.gate("ab")

	first := searchAsync(shop, "a")
	require.Equal(t, "a", <-cat.entered)
	second := searchAsync(shop, "ab")
	require.Equal(t, "ab", <-cat.entered)

	close(gateA)
	stale := <-first
	assert.False(t, stale.applied)
	require.Len(t, stale.state.Products, 1)
	assert.Equal(t, "result for a", stale.state.Products[0].Name)
	pending := shop.Snapshot()
	assert.True(t, pending.Loading)
	assert.Empty(t, pending.Products)
	assert.Equal(t, "ab", pending.Filter.Query)
	close(gateAB)
	assert.True(t, (<-second).applied)

	snap := shop.Snapshot()
	require.Len(t, snap.Products, 1)
	assert.Equal(t, "result for ab", snap.Products[0].Name)
}

func TestShopFailureRendersEmptyListing(t *testing.T) {
	cat := newGatedCatalog()
	cat.listErr = &apiclient.TransportError{Method: "GET", URL: "http://backend/products", Err: errors.New("refused")}
	shop := NewShop(cat, nil)

	state, applied := shop.Search(context.Background(), ShopFilter{Query: "batik"})
	<-cat.entered
	assert.True(t, applied)
	assert.Empty(t, state.Products)
	assert.True(t, state.Failed)
	assert.False(t, state.Loading)
}

func TestShopFilterParamsOmitInvalidBounds(t *testing.T) {
	params := ShopFilter{Query: " tenun ", MinPrice: "abc", MaxPrice: "500000"}.Params()
	values := params.Values()
	assert.Equal(t, "tenun", values.Get("q"))
	assert.False(t, values.Has("min_price"))
	assert.Equal(t, "500000", values.Get("max_price"))
}

type openOutcome struct {
	state   DetailState
	applied bool
}

func openAsync(detail *ProductDetail, id string) <-chan openOutcome {
	out := make(chan openOutcome, 1)
	go func() {
		state, applied := detail.Open(context.Background(), id)
		out <- openOutcome{state: state, applied: applied}
	}()
	return out
}

func TestDetailNavigationDiscardsPreviousProduct(t *testing.T) {
	cat := newGatedCatalog()
	cat.products["1"] = &catalog.Product{ID: "1", Name: "Songket"}
	cat.products["2"] = &catalog.Product{ID: "2", Name: "Ulos"}
	detail := NewProductDetail(cat, nil)
	gate1, gate2 := cat.gate("get:1"), cat.gate("get:2")

	done1 := openAsync(detail, "1")
	require.Equal(t, "get:1", <-cat.entered)
	done2 := openAsync(detail, "2")
	require.Equal(t, "get:2", <-cat.entered)

	close(gate2)
	second := <-done2
	close(gate1)
	first := <-done1

	assert.True(t, second.applied)
	assert.False(t, first.applied)
	snap := detail.Snapshot()
	assert.Equal(t, DetailLoaded, snap.Status)
	assert.Equal(t, "Ulos", snap.Product.Name)
}

func TestDetailConcurrentOpensKeepTheirOwnProduct(t *testing.T) {
	cat := newGatedCatalog()
	cat.products["A"] = &catalog.Product{ID: "A", Name: "Produk A"}
	cat.products["B"] = &catalog.Product{ID: "B", Name: "Produk B"}
	detail := NewProductDetail(cat, nil)
	gateA, gateB := cat.gate("get:A"), cat.gate("get:B")

	doneA := openAsync(detail, "A")
	require.Equal(t, "get:A", <-cat.entered)
	doneB := openAsync(detail, "B")
	require.Equal(t, "get:B", <-cat.entered)

	close(gateA)
	a := <-doneA
	assert.False(t, a.applied)
	assert.Equal(t, "A", a.state.ID)
	assert.Equal(t, DetailLoaded, a.state.Status)
	require.NotNil(t, a.state.Product)
	assert.Equal(t, "Produk A", a.state.Product.Name)
	assert.Equal(t, DetailLoading, detail.Snapshot().Status, "B is still loading")

	close(gateB)
	b := <-doneB
	assert.True(t, b.applied)
	assert.Equal(t, "Produk B", b.state.Product.Name)
	assert.Equal(t, "B", detail.Snapshot().ID)
}

func TestDetailMissingProductIsNotFound(t *testing.T) {
	cat := newGatedCatalog()
	close(cat.gate("get:404"))
	detail := NewProductDetail(cat, nil)

	state, applied := detail.Open(context.Background(), "404")
	assert.True(t, applied)
	assert.Equal(t, DetailNotFound, state.Status)
	assert.Nil(t, state.Product)

	state, _ = detail.Open(context.Background(), "")
	assert.Equal(t, DetailNotFound, state.Status)
}

func TestAdminLoadsIndependently(t *testing.T) {
	cat := newGatedCatalog()
	people := &stubUsers{list: []users.User{{Name: "Sari", Role: users.RoleAdmin}}}
	admin := NewAdmin(cat, people, nil, nil)

	state := admin.Load(context.Background(), "admin")
	<-cat.entered
	assert.Len(t, state.Products, 1)
	assert.Len(t, state.Users, 1)

	people.err = errors.New("boom")
	cat.listErr = errors.New("down")
	state = admin.Load(context.Background(), "admin")
	<-cat.entered
	assert.Len(t, state.Products, 1, "failed reload keeps prior list")
	assert.Len(t, state.Users, 1, "failed reload keeps prior list")
}

func TestAdminCreateNormalizesAndReloads(t *testing.T) {
	cat := newGatedCatalog()
	admin := NewAdmin(cat, &stubUsers{}, nil, nil)

	errs, err := admin.Create(context.Background(), "admin", catalog.ProductForm{Name: "Songket", Price: "19.99"})
	require.NoError(t, err)
	assert.Empty(t, errs)
	<-cat.entered
	require.Len(t, cat.created, 1)
	assert.Equal(t, 19.99, cat.created[0].Price)
	assert.Equal(t, "", cat.created[0].Description)
	assert.Equal(t, int32(1), cat.lists.Load())
	assert.True(t, admin.Snapshot().ProductsLoaded)
}

func TestAdminCreateRejectsInvalidForm(t *testing.T) {
	cat := newGatedCatalog()
	admin := NewAdmin(cat, &stubUsers{}, nil, nil)

	errs, err := admin.Create(context.Background(), "admin", catalog.ProductForm{Price: "abc"})
	assert.ErrorIs(t, err, catalog.ErrInvalidForm)
	assert.Contains(t, errs, "Name")
	assert.Empty(t, cat.created)
	assert.Equal(t, int32(0), cat.lists.Load())
}

func TestAdminUpdateAndDelete(t *testing.T) {
	cat := newGatedCatalog()
	admin := NewAdmin(cat, &stubUsers{}, nil, nil)

	_, err := admin.Update(context.Background(), "admin", "7", catalog.ProductForm{Name: "Ikat", Price: "1000"})
	require.NoError(t, err)
	<-cat.entered
	assert.Equal(t, 1000.0, cat.updated["7"].Price)

	require.NoError(t, admin.Delete(context.Background(), "admin", "7"))
	<-cat.entered
	assert.Equal(t, []string{"7"}, cat.deleted)
}

func TestAdminUnauthorizedExpiresSession(t *testing.T) {
	cat := newGatedCatalog()
	cat.mutErr = &apiclient.RequestError{Method: "DELETE", Path: "/products/1", Status: 403, Body: "forbidden"}
	admin := NewAdmin(cat, &stubUsers{}, nil, nil)

	var expired string
	admin.OnUnauthorized(func(ctx context.Context, token string) { expired = token })
	err := admin.Delete(context.Background(), "stale-token", "1")
	assert.Error(t, err)
	assert.Equal(t, "stale-token", expired)
}

func newTestWorkspace(t *testing.T, cat *gatedCatalog) *Workspace {
	t.Helper()
	store, err := session.NewStore(context.Background(), session.NewMemoryStorage(""), stubResolver{
		"admin": {Name: "Sari", Role: users.RoleAdmin},
		"user":  {Name: "Budi", Role: "user"},
	})
	require.NoError(t, err)
	return NewWorkspace("visitor-1", store, Backends{Catalog: cat, Users: &stubUsers{list: []users.User{{Name: "Sari"}}}}, nil)
}

func TestWorkspaceNavigationInvalidatesShop(t *testing.T) {
	cat := newGatedCatalog()
	ws := newTestWorkspace(t, cat)
	ws.Router.Sync("/shop")
	gate := cat.gate("kain")

	done := searchAsync(ws.Shop, "kain")
	require.Equal(t, "kain", <-cat.entered)
	ws.Router.Sync("/about")
	close(gate)
	state := <-done

	assert.Empty(t, state.state.Products)
	assert.Empty(t, ws.Shop.Snapshot().Products)
}

func TestWorkspaceLogoutResetsAdmin(t *testing.T) {
	cat := newGatedCatalog()
	ws := newTestWorkspace(t, cat)
	require.NoError(t, ws.Session.SetToken(context.Background(), "admin"))
	ws.Router.Sync("/admin")
	assert.Equal(t, "admin", string(ws.Match().View))

	ws.Admin.Load(context.Background(), ws.Session.Token())
	<-cat.entered
	require.NotEmpty(t, ws.Admin.Snapshot().Products)

	require.NoError(t, ws.Session.Logout(context.Background()))
	assert.Empty(t, ws.Admin.Snapshot().Products)
	assert.Empty(t, ws.Admin.Snapshot().Users)
	assert.Equal(t, "unauthorized", string(ws.Match().View))
}

func TestWorkspaceContextCarriesSession(t *testing.T) {
	ws := newTestWorkspace(t, newGatedCatalog())
	ctx := ContextWithWorkspace(context.Background(), ws)
	assert.Same(t, ws, FromContext(ctx))
	assert.Same(t, ws.Session, session.FromContext(ctx))
	assert.Nil(t, FromContext(context.Background()))
}

func TestRegistryBuildsOncePerVisitorAndSweeps(t *testing.T) {
	var built atomic.Int32
	factory := func(ctx context.Context, id string, fresh bool) (*session.Store, error) {
		built.Add(1)
		return session.NewStore(ctx, session.NewMemoryStorage(""), stubResolver{})
	}
	reg := NewRegistry(factory, Backends{Catalog: newGatedCatalog(), Users: &stubUsers{}}, time.Minute, nil)
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	reg.now = func() time.Time { return now }

	a, err := reg.Get(context.Background(), "a")
	require.NoError(t, err)
	again, err := reg.Get(context.Background(), "a")
	require.NoError(t, err)
	assert.Same(t, a, again)
	_, err = reg.Get(context.Background(), "b")
	require.NoError(t, err)
	assert.Equal(t, int32(2), built.Load())
	assert.Equal(t, 2, reg.Len())

	now = now.Add(45 * time.Second)
	_, _ = reg.Get(context.Background(), "b")
	now = now.Add(30 * time.Second)
	assert.Equal(t, 1, reg.Sweep())
	assert.Equal(t, 1, reg.Len())

	fresh, err := reg.Get(context.Background(), "a")
	require.NoError(t, err)
	assert.NotSame(t, a, fresh)
}

type countingStorage struct {
	loads atomic.Int32
}

func (c *countingStorage) Load(ctx context.Context) (string, error) {
	c.loads.Add(1)
	return "", nil
}
func (c *countingStorage) Save(ctx context.Context, token string) error { return nil }
func (c *countingStorage) Clear(ctx context.Context) error              { return nil }

func TestRegistryTransientSkipsStorageAndIsNotKept(t *testing.T) {
	storage := &countingStorage{}
	factory := func(ctx context.Context, id string, fresh bool) (*session.Store, error) {
		var opts []session.Option
		if fresh {
			opts = append(opts, session.SkipLoad())
		}
		return session.NewStore(ctx, storage, stubResolver{}, opts...)
	}
	reg := NewRegistry(factory, Backends{Catalog: newGatedCatalog(), Users: &stubUsers{}}, time.Minute, nil)

	ws, err := reg.Transient(context.Background(), "new-visitor")
	require.NoError(t, err)
	assert.Equal(t, session.Anonymous, ws.Session.Snapshot().State)
	assert.Equal(t, int32(0), storage.loads.Load())
	assert.Equal(t, 0, reg.Len())

	kept, err := reg.Get(context.Background(), "new-visitor")
	require.NoError(t, err)
	assert.NotSame(t, ws, kept)
	assert.Equal(t, int32(1), storage.loads.Load())
	assert.Equal(t, 1, reg.Len())
}

func TestRegistryFactoryError(t *testing.T) {
	factory := func(ctx context.Context, id string, fresh bool) (*session.Store, error) {
		return nil, errors.New("redis down")
	}
	reg := NewRegistry(factory, Backends{}, 0, nil)
	_, err := reg.Get(context.Background(), "a")
	assert.Error(t, err)
	assert.Equal(t, 0, reg.Len())
	assert.Equal(t, 0, reg.Sweep())
}
