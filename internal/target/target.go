// Package target resolves the zoomable element inside a content region.
//
// A Region is whatever the presentation layer considers "the content": it
// reports its current nodes and signals when they change. The Resolver keeps
// the first zoomable node as the active target and re-resolves on every
// change signal, so downstream consumers never observe a stale element.
package target

import (
	"sync"

	"loupe/internal/geometry"
)

// Kind classifies the resolved element.
type Kind int

const (
	// KindImage is a native raster image element.
	KindImage Kind = iota
	// KindVector is an inline vector graphic with no intrinsic resolution.
	KindVector
	// KindContainer is a block element standing in for an image.
	KindContainer
	// KindImageRole is any element explicitly flagged as representing an image.
	KindImageRole
)

func (k Kind) String() string {
	switch k {
	case KindImage:
		return "image"
	case KindVector:
		return "vector"
	case KindContainer:
		return "container"
	case KindImageRole:
		return "image-role"
	default:
		return "unknown"
	}
}

// Node is one candidate element inside a content region.
type Node interface {
	// Zoomable reports whether the node can be zoomed and how.
	Zoomable() (Kind, bool)
	// Bounds is the node's current on-screen rectangle.
	Bounds() geometry.Box
	// Source is the node's image source, empty when not applicable.
	Source() string
	// SourceSet is the node's responsive source-set descriptor, if any.
	SourceSet() string
	// Alt is the node's alternative text.
	Alt() string
	// Natural is the node's intrinsic resolution, zero when unknown.
	Natural() geometry.Size
}

// Region is the content area the resolver scans for a zoomable element.
type Region interface {
	// Nodes returns the region's current candidate nodes in document order.
	Nodes() []Node
	// Subscribe registers a change callback and returns its cancel func.
	Subscribe(fn func()) (cancel func())
}

// Target is a snapshot of the resolved zoomable element.
type Target struct {
	Kind      Kind
	Source    string
	SourceSet string
	Alt       string
	Bounds    geometry.Box
	Natural   geometry.Size
}

// Resolver tracks the active zoom target of a region.
// At most one target is active at a time; zero targets is a valid state.
type Resolver struct {
	mu      sync.Mutex
	region  Region
	current *Target
	subs    map[int]func()
	nextSub int
	cancel  func()
	closed  bool
}

// NewResolver resolves the region immediately and follows its changes.
func NewResolver(region Region) *Resolver {
	r := &Resolver{
		region: region,
		subs:   make(map[int]func()),
	}
	r.cancel = region.Subscribe(r.refresh)
	r.resolve()
	return r
}

// Current returns the active target, if any.
func (r *Resolver) Current() (Target, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current == nil {
		return Target{}, false
	}
	return *r.current, true
}

// Subscribe registers a callback invoked whenever the active target changes.
// The returned cancel func is idempotent.
func (r *Resolver) Subscribe(fn func()) (cancel func()) {
	r.mu.Lock()
	id := r.nextSub
	r.nextSub++
	r.subs[id] = fn
	r.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			r.mu.Lock()
			delete(r.subs, id)
			r.mu.Unlock()
		})
	}
}

// Close stops following the region. Subsequent Current calls report the
// last resolved state; no further change callbacks fire.
func (r *Resolver) Close() {
	r.mu.Lock()
	cancel := r.cancel
	r.cancel = nil
	r.closed = true
	r.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// refresh re-resolves and notifies subscribers when the target changed.
func (r *Resolver) refresh() {
	if changed := r.resolve(); !changed {
		return
	}

	r.mu.Lock()
	fns := make([]func(), 0, len(r.subs))
	for _, fn := range r.subs {
		fns = append(fns, fn)
	}
	r.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

func (r *Resolver) resolve() (changed bool) {
	var next *Target
	for _, n := range r.region.Nodes() {
		kind, ok := n.Zoomable()
		if !ok {
			continue
		}
		next = &Target{
			Kind:      kind,
			Source:    n.Source(),
			SourceSet: n.SourceSet(),
			Alt:       n.Alt(),
			Bounds:    n.Bounds(),
			Natural:   n.Natural(),
		}
		break
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return false
	}
	switch {
	case next == nil && r.current == nil:
		return false
	case next != nil && r.current != nil && *next == *r.current:
		return false
	}
	r.current = next
	return true
}
