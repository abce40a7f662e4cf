package storefront

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/binaragam/storefront/internal/session"
)

// StoreFactory builds the session store for a visitor. fresh is set for a
// visitor id minted on the current request.
type StoreFactory func(ctx context.Context, visitorID string, fresh bool) (*session.Store, error)

// Registry keeps one Workspace per visitor and evicts idle ones.
type Registry struct {
	newStore StoreFactory
	backends Backends
	idleTTL  time.Duration
	logger   *slog.Logger
	now      func() time.Time

	mu         sync.Mutex
	workspaces map[string]*Workspace
}

// NewRegistry constructs a Registry. A zero idleTTL disables eviction.
func NewRegistry(newStore StoreFactory, backends Backends, idleTTL time.Duration, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		newStore:   newStore,
		backends:   backends,
		idleTTL:    idleTTL,
		logger:     logger,
		now:        time.Now,
		workspaces: make(map[string]*Workspace),
	}
}

// Get returns the workspace for visitorID, building it on first use.
func (r *Registry) Get(ctx context.Context, visitorID string) (*Workspace, error) {
	r.mu.Lock()
	ws, ok := r.workspaces[visitorID]
	r.mu.Unlock()
	if ok {
		ws.Touch(r.now())
		return ws, nil
	}

	store, err := r.newStore(ctx, visitorID, false)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.workspaces[visitorID]; ok {
		existing.Touch(r.now())
		return existing, nil
	}
	ws = NewWorkspace(visitorID, store, r.backends, r.logger)
	ws.Touch(r.now())
	r.workspaces[visitorID] = ws
	return ws, nil
}

// Transient builds a workspace for a visitor whose id was minted on this
// request. It is not kept; the visitor's next request, carrying the cookie,
// goes through Get.
func (r *Registry) Transient(ctx context.Context, visitorID string) (*Workspace, error) {
	store, err := r.newStore(ctx, visitorID, true)
	if err != nil {
		return nil, err
	}
	ws := NewWorkspace(visitorID, store, r.backends, r.logger)
	ws.Touch(r.now())
	return ws, nil
}

// Len returns the number of live workspaces.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.workspaces)
}

// Sweep evicts workspaces idle for longer than the TTL and returns how many
// were removed. Persisted tokens are left in storage.
func (r *Registry) Sweep() int {
	if r.idleTTL <= 0 {
		return 0
	}
	cutoff := r.now().Add(-r.idleTTL)
	var evicted []*Workspace
	r.mu.Lock()
	for id, ws := range r.workspaces {
		if ws.LastSeen().Before(cutoff) {
			evicted = append(evicted, ws)
			delete(r.workspaces, id)
		}
	}
	r.mu.Unlock()
	for _, ws := range evicted {
		ws.Close()
	}
	return len(evicted)
}

// Run sweeps periodically until ctx is cancelled.
func (r *Registry) Run(ctx context.Context) {
	if r.idleTTL <= 0 {
		return
	}
	interval := r.idleTTL / 2
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Sweep(); n > 0 {
				r.logger.Debug("evicted idle workspaces", slog.Int("count", n))
			}
		}
	}
}
