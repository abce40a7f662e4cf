// Package session keeps a visitor's bearer token and the identity it resolves to.
package session

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/sync/singleflight"

	"github.com/binaragam/storefront/internal/users"
)

// State is the lifecycle phase of a Store.
type State int

const (
	// Anonymous means no token is held.
	Anonymous State = iota
	// Resolving means a token is held but not yet confirmed.
	Resolving
	// Authenticated means the token resolved to a user.
	Authenticated
)

func (s State) String() string {
	switch s {
	case Resolving:
		return "resolving"
	case Authenticated:
		return "authenticated"
	default:
		return "anonymous"
	}
}

// ErrTokenExpired is reported when a JWT token carries a past exp claim.
var ErrTokenExpired = errors.New("session: token expired")

// TokenStorage persists the token across restarts.
type TokenStorage interface {
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, token string) error
	Clear(ctx context.Context) error
}

// Resolver turns a bearer token into a user profile.
type Resolver interface {
	Me(ctx context.Context, token string) (*users.User, error)
}

// Snapshot is an immutable view of the store.
type Snapshot struct {
	State State
	Token string
	User  *users.User
}

// IsAdmin reports whether the snapshot carries the privileged role.
func (s Snapshot) IsAdmin() bool {
	return s.State == Authenticated && s.User.IsAdmin()
}

// Store is the per-visitor session. Every token change bumps a generation
// counter; resolution results tagged with an older generation are dropped.
type Store struct {
	mu       sync.Mutex
	storage  TokenStorage
	resolver Resolver
	logger   *slog.Logger
	now      func() time.Time
	skipLoad bool

	token string
	user  *users.User
	state State
	gen   uint64

	flight singleflight.Group
	// persistMu orders writes to storage; a write is skipped once its
	// generation is no longer current.
	persistMu sync.Mutex

	subs   map[int]func(Snapshot)
	nextID int
}

// Option customises a Store.
type Option func(*Store)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock overrides time.Now for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// SkipLoad starts the store anonymous without reading storage. It suits a
// visitor id minted on the current request, which cannot have a token yet.
func SkipLoad() Option {
	return func(s *Store) { s.skipLoad = true }
}

// NewStore loads the persisted token. A stored token starts in Resolving;
// the first Resolve call confirms it.
func NewStore(ctx context.Context, storage TokenStorage, resolver Resolver, opts ...Option) (*Store, error) {
	s := &Store{
		storage:  storage,
		resolver: resolver,
		logger:   slog.Default(),
		now:      time.Now,
		subs:     make(map[int]func(Snapshot)),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.skipLoad {
		return s, nil
	}
	token, err := storage.Load(ctx)
	if err != nil {
		return nil, err
	}
	token = strings.TrimSpace(token)
	if token != "" {
		s.token = token
		s.state = Resolving
		s.gen = 1
	}
	return s, nil
}

// Snapshot returns the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Token returns the current bearer token, or "".
func (s *Store) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// User returns the resolved user, or nil.
func (s *Store) User() *users.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Authenticated {
		return nil
	}
	return s.user
}

// SetToken installs a new token and resolves it. An empty token logs out.
// Re-setting the token already held does not start another resolution.
func (s *Store) SetToken(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return s.Logout(ctx)
	}
	s.mu.Lock()
	if token == s.token && s.state != Anonymous {
		s.mu.Unlock()
		return s.Resolve(ctx)
	}
	s.gen++
	gen := s.gen
	s.token = token
	s.user = nil
	s.state = Resolving
	snap := s.snapshotLocked()
	s.mu.Unlock()

	if err := s.persist(ctx, gen, token); err != nil {
		s.logger.Warn("persist session token", slog.Any("error", err))
	}
	s.publish(snap)
	return s.Resolve(ctx)
}

// Resolve runs the pending identity resolution, if any. Concurrent callers
// for the same generation share one backend call.
func (s *Store) Resolve(ctx context.Context) error {
	s.mu.Lock()
	if s.state != Resolving {
		s.mu.Unlock()
		return nil
	}
	gen, token := s.gen, s.token
	s.mu.Unlock()

	key := strconv.FormatUint(gen, 10)
	detached := context.WithoutCancel(ctx)
	_, err, _ := s.flight.Do(key, func() (any, error) {
		user, err := s.lookup(detached, token)
		s.apply(detached, gen, user, err)
		return nil, nil
	})
	return err
}

// Logout clears the token immediately. Any in-flight resolution is discarded.
func (s *Store) Logout(ctx context.Context) error {
	_, err := s.signOut(ctx, func(string) bool { return true })
	return err
}

// Expire downgrades to anonymous if token is still the current one. Callers
// use it when the backend rejects the token on a later request. A rejection
// for a token that has since been replaced is ignored.
func (s *Store) Expire(ctx context.Context, token string) {
	if token == "" {
		return
	}
	done, err := s.signOut(ctx, func(current string) bool { return current == token })
	if err != nil {
		s.logger.Warn("clear expired token", slog.Any("error", err))
	}
	if done {
		s.logger.Info("session token rejected by backend, signed out")
	}
}

// signOut goes anonymous when match accepts the current token. The check and
// the generation bump happen under one lock.
func (s *Store) signOut(ctx context.Context, match func(current string) bool) (bool, error) {
	s.mu.Lock()
	if !match(s.token) {
		s.mu.Unlock()
		return false, nil
	}
	wasAnonymous := s.state == Anonymous && s.token == ""
	s.gen++
	gen := s.gen
	s.token = ""
	s.user = nil
	s.state = Anonymous
	snap := s.snapshotLocked()
	s.mu.Unlock()

	err := s.persist(ctx, gen, "")
	if !wasAnonymous {
		s.publish(snap)
	}
	return true, err
}

// Subscribe registers fn for state changes and returns a cancel function.
func (s *Store) Subscribe(fn func(Snapshot)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

func (s *Store) lookup(ctx context.Context, token string) (*users.User, error) {
	if expired(token, s.now()) {
		return nil, ErrTokenExpired
	}
	user, err := s.resolver.Me(ctx, token)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, errors.New("session: empty profile")
	}
	return user, nil
}

func (s *Store) apply(ctx context.Context, gen uint64, user *users.User, err error) {
	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		s.logger.Debug("discarding superseded session resolution", slog.Uint64("generation", gen))
		return
	}
	if err != nil {
		s.token = ""
		s.user = nil
		s.state = Anonymous
		s.gen++
		gen = s.gen
	} else {
		s.user = user
		s.state = Authenticated
	}
	snap := s.snapshotLocked()
	s.mu.Unlock()

	if err != nil {
		s.logger.Debug("session resolution failed", slog.Any("error", err))
		if clearErr := s.persist(ctx, gen, ""); clearErr != nil {
			s.logger.Warn("clear session token", slog.Any("error", clearErr))
		}
	}
	s.publish(snap)
}

func (s *Store) persist(ctx context.Context, gen uint64, token string) error {
	s.persistMu.Lock()
	defer s.persistMu.Unlock()
	s.mu.Lock()
	current := gen == s.gen
	s.mu.Unlock()
	if !current {
		return nil
	}
	if token == "" {
		return s.storage.Clear(ctx)
	}
	return s.storage.Save(ctx, token)
}

func (s *Store) publish(snap Snapshot) {
	s.mu.Lock()
	fns := make([]func(Snapshot), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.Unlock()
	for _, fn := range fns {
		fn(snap)
	}
}

func (s *Store) snapshotLocked() Snapshot {
	snap := Snapshot{State: s.state, Token: s.token}
	if s.state == Authenticated {
		snap.User = s.user
	}
	return snap
}

// expired reports a JWT whose exp claim lies in the past. Opaque tokens and
// tokens without exp are left to the backend.
func expired(token string, now time.Time) bool {
	if strings.Count(token, ".") != 2 {
		return false
	}
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return false
	}
	if claims.ExpiresAt == nil {
		return false
	}
	return !now.Before(claims.ExpiresAt.Time)
}
