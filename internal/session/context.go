package session

import "context"

type storeContextKey struct{}

// ContextWithStore stores the visitor's session store in ctx.
func ContextWithStore(ctx context.Context, s *Store) context.Context {
	return context.WithValue(ctx, storeContextKey{}, s)
}

// FromContext extracts the session store from ctx.
func FromContext(ctx context.Context) *Store {
	s, _ := ctx.Value(storeContextKey{}).(*Store)
	return s
}
