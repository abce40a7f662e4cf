package router

import "sync"

// Router holds the current route for one visitor and notifies subscribers
// when it changes.
type Router struct {
	mu      sync.Mutex
	current string
	subs    map[int]func(prev, next string)
	nextID  int
}

// New returns a router positioned at initial.
func New(initial string) *Router {
	return &Router{current: Normalize(initial), subs: make(map[int]func(prev, next string))}
}

// Current returns the active route path.
func (r *Router) Current() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// Sync handles an external navigation event and reports whether the route changed.
func (r *Router) Sync(fragment string) bool {
	_, changed := r.set(fragment)
	return changed
}

// Navigate moves to `to` and returns the location the browser must show.
// The route and the returned location are the same value, so observers never
// see one without the other.
func (r *Router) Navigate(to string) string {
	next, _ := r.set(to)
	return next
}

// Subscribe registers fn for route changes. The returned func unsubscribes.
func (r *Router) Subscribe(fn func(prev, next string)) func() {
	r.mu.Lock()
	id := r.nextID
	r.nextID++
	r.subs[id] = fn
	r.mu.Unlock()
	return func() {
		r.mu.Lock()
		delete(r.subs, id)
		r.mu.Unlock()
	}
}

func (r *Router) set(fragment string) (string, bool) {
	next := Normalize(fragment)
	r.mu.Lock()
	prev := r.current
	if prev == next {
		r.mu.Unlock()
		return next, false
	}
	r.current = next
	fns := make([]func(prev, next string), 0, len(r.subs))
	for _, fn := range r.subs {
		fns = append(fns, fn)
	}
	r.mu.Unlock()
	for _, fn := range fns {
		fn(prev, next)
	}
	return next, true
}
