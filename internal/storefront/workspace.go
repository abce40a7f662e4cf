package storefront

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/binaragam/storefront/internal/router"
	"github.com/binaragam/storefront/internal/session"
)

// Backends groups the services a workspace fetches from.
type Backends struct {
	Catalog AdminCatalog
	Users   UserLister
}

// Workspace is the client state of one visitor.
type Workspace struct {
	ID      string
	Session *session.Store
	Router  *router.Router
	Shop    *Shop
	Detail  *ProductDetail
	Admin   *Admin

	mu       sync.Mutex
	lastSeen time.Time
	cancels  []func()
}

// NewWorkspace wires the view models of one visitor together.
func NewWorkspace(id string, store *session.Store, backends Backends, logger *slog.Logger) *Workspace {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("visitor", shortID(id)))
	ws := &Workspace{
		ID:      id,
		Session: store,
		Router:  router.New("/"),
		Shop:    NewShop(backends.Catalog, logger),
		Detail:  NewProductDetail(backends.Catalog, logger),
		Admin:   NewAdmin(backends.Catalog, backends.Users, nil, logger),
	}
	ws.Admin.OnUnauthorized(store.Expire)
	ws.cancels = append(ws.cancels,
		ws.Router.Subscribe(ws.onRoute),
		store.Subscribe(ws.onSession),
	)
	return ws
}

func (w *Workspace) onRoute(prev, next string) {
	from := router.MatchPath(prev)
	to := router.MatchPath(next)
	if from.View == router.ViewProduct && (to.View != router.ViewProduct || to.Param != from.Param) {
		w.Detail.Invalidate()
	}
	if isListing(from.View) && !isListing(to.View) {
		w.Shop.Invalidate()
	}
}

func (w *Workspace) onSession(snap session.Snapshot) {
	if snap.State == session.Anonymous {
		w.Admin.Reset()
	}
}

func isListing(v router.View) bool {
	return v == router.ViewShop || v == router.ViewHome
}

// Touch records activity.
func (w *Workspace) Touch(now time.Time) {
	w.mu.Lock()
	w.lastSeen = now
	w.mu.Unlock()
}

// LastSeen returns the time of the latest activity.
func (w *Workspace) LastSeen() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastSeen
}

// Close detaches subscriptions and supersedes in-flight fetches.
func (w *Workspace) Close() {
	w.mu.Lock()
	cancels := w.cancels
	w.cancels = nil
	w.mu.Unlock()
	for _, cancel := range cancels {
		cancel()
	}
	w.Shop.Invalidate()
	w.Detail.Invalidate()
}

// Match routes the current path for the current session.
func (w *Workspace) Match() router.Match {
	return router.Resolve(w.Router.Current(), w.Session.User())
}

type workspaceKey struct{}

// ContextWithWorkspace stores ws in ctx along with its session store.
func ContextWithWorkspace(ctx context.Context, ws *Workspace) context.Context {
	ctx = context.WithValue(ctx, workspaceKey{}, ws)
	if ws != nil {
		ctx = session.ContextWithStore(ctx, ws.Session)
	}
	return ctx
}

// FromContext returns the workspace attached to ctx, or nil.
func FromContext(ctx context.Context) *Workspace {
	ws, _ := ctx.Value(workspaceKey{}).(*Workspace)
	return ws
}

func shortID(id string) string {
	id = strings.TrimSpace(id)
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
