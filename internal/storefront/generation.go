// Package storefront holds the per-visitor view models of the storefront.
package storefront

import "sync/atomic"

// Generation tags requests issued from one fetch site. Only the response
// carrying the latest tag may update view state.
type Generation struct {
	n atomic.Uint64
}

// Next issues a new tag and supersedes all earlier ones.
func (g *Generation) Next() uint64 {
	return g.n.Add(1)
}

// IsCurrent reports whether tag is still the latest.
func (g *Generation) IsCurrent(tag uint64) bool {
	return g.n.Load() == tag
}

// Invalidate supersedes any in-flight request without issuing a new one.
func (g *Generation) Invalidate() {
	g.n.Add(1)
}

// Current returns the latest tag.
func (g *Generation) Current() uint64 {
	return g.n.Load()
}
