package reconcile

import (
	"cmp"
	"fmt"
	"slices"
)

// Forest is a disjoint-set forest keyed by entity.
//
// Union always re-parents the larger root under the smaller one, so the root of
// every set is its smallest key. There is no union by rank or size.
//
// A Forest is not safe for concurrent use. Each merge builds and drops its own.
type Forest[K cmp.Ordered] struct {
	parent map[K]K
}

// NewForest creates a forest where every key is a singleton set.
// Duplicate keys are registered once.
func NewForest[K cmp.Ordered](keys ...K) *Forest[K] {
	f := &Forest[K]{parent: make(map[K]K, len(keys))}
	for _, k := range keys {
		f.Add(k)
	}
	return f
}

// Add registers k as a singleton set. Adding a known key is a no-op.
func (f *Forest[K]) Add(k K) {
	if _, ok := f.parent[k]; !ok {
		f.parent[k] = k
	}
}

// Has reports whether k is registered.
func (f *Forest[K]) Has(k K) bool {
	_, ok := f.parent[k]
	return ok
}

// Len returns the number of registered keys.
func (f *Forest[K]) Len() int {
	return len(f.parent)
}

// Find returns the root of the set containing x and points every node on the
// path directly at that root.
//
// Find panics if x was never registered: callers register every entity before
// the first Find or Union.
func (f *Forest[K]) Find(x K) K {
	root, ok := f.parent[x]
	if !ok {
		panic(fmt.Sprintf("reconcile: entity %v is not registered in the forest", x))
	}
	for root != f.parent[root] {
		root = f.parent[root]
	}
	for x != root {
		next := f.parent[x]
		f.parent[x] = root
		x = next
	}
	return root
}

// Union merges the sets containing x and y. It reports whether two distinct
// sets were merged; joining already connected keys is a no-op.
func (f *Forest[K]) Union(x, y K) bool {
	rx, ry := f.Find(x), f.Find(y)
	switch {
	case rx == ry:
		return false
	case rx < ry:
		f.parent[ry] = rx
	default:
		f.parent[rx] = ry
	}
	return true
}

// Connected reports whether x and y are in the same set.
func (f *Forest[K]) Connected(x, y K) bool {
	return f.Find(x) == f.Find(y)
}

// Groups returns every set keyed by its root, members sorted ascending.
func (f *Forest[K]) Groups() map[K][]K {
	groups := make(map[K][]K)
	for k := range f.parent {
		root := f.Find(k)
		groups[root] = append(groups[root], k)
	}
	for _, members := range groups {
		slices.Sort(members)
	}
	return groups
}
