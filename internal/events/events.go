// Package events wires interaction listeners to the zoom lifecycle.
//
// The environment (a real display surface or a test double) is injected as a
// Source; the Coordinator guarantees that every attach has exactly one
// matching detach, that attach and detach are idempotent, and that Teardown
// leaves zero listeners regardless of the lifecycle state it runs in.
package events

import "sync"

// Event identifies an interaction the coordinator listens for.
type Event int

const (
	// Click on the zoom target, treated as an open request.
	Click Event = iota
	// Escape key press while the overlay is open.
	Escape
	// Scroll on the tracked scrollable ancestor.
	Scroll
	// Resize of the viewport.
	Resize
)

func (e Event) String() string {
	switch e {
	case Click:
		return "click"
	case Escape:
		return "escape"
	case Scroll:
		return "scroll"
	case Resize:
		return "resize"
	}
	return "unknown"
}

// Source is the injected environment handle listeners are registered with.
// AddListener may return nil when the environment cannot deliver the event;
// the coordinator treats that as skippable, not fatal.
type Source interface {
	AddListener(ev Event, fn func()) (remove func())
}

// Coordinator owns listener registration for one zoom component instance.
type Coordinator struct {
	src Source

	mu           sync.Mutex
	removeClick  func()
	removeEscape func()
	removeScroll func()
	removeResize func()
}

// New returns a coordinator bound to the given source.
func New(src Source) *Coordinator {
	return &Coordinator{src: src}
}

// AttachClick registers the open-request listener. No-op if already attached.
func (c *Coordinator) AttachClick(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.removeClick == nil {
		c.removeClick = c.src.AddListener(Click, fn)
	}
}

// AttachModal registers the Escape listener for the open overlay.
func (c *Coordinator) AttachModal(onEscape func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.removeEscape == nil {
		c.removeEscape = c.src.AddListener(Escape, onEscape)
	}
}

// DetachModal removes the Escape listener.
func (c *Coordinator) DetachModal() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.removeEscape = detach(c.removeEscape)
}

// AttachZoomed registers the scroll and resize listeners for the window
// between load completion and unload start.
func (c *Coordinator) AttachZoomed(onScroll, onResize func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.removeScroll == nil {
		c.removeScroll = c.src.AddListener(Scroll, onScroll)
	}
	if c.removeResize == nil {
		c.removeResize = c.src.AddListener(Resize, onResize)
	}
}

// DetachZoomed removes the scroll and resize listeners.
func (c *Coordinator) DetachZoomed() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.removeScroll = detach(c.removeScroll)
	c.removeResize = detach(c.removeResize)
}

// Teardown removes every listener unconditionally.
func (c *Coordinator) Teardown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.removeClick = detach(c.removeClick)
	c.removeEscape = detach(c.removeEscape)
	c.removeScroll = detach(c.removeScroll)
	c.removeResize = detach(c.removeResize)
}

func detach(remove func()) func() {
	if remove != nil {
		remove()
	}
	return nil
}
