package ui

import (
	"sync"

	"loupe/internal/events"
	"loupe/internal/geometry"
	"loupe/internal/target"
)

// FrameScheduler defers engine callbacks to the start of the next frame,
// implementing the one-tick commit delay the lifecycle machine requires.
type FrameScheduler struct {
	mu         sync.Mutex
	q          []func()
	invalidate func()
}

// NewFrameScheduler wires the scheduler to the window's invalidate func.
func NewFrameScheduler(invalidate func()) *FrameScheduler {
	return &FrameScheduler{invalidate: invalidate}
}

// Defer queues fn and requests a new frame.
func (s *FrameScheduler) Defer(fn func()) {
	s.mu.Lock()
	s.q = append(s.q, fn)
	s.mu.Unlock()
	if s.invalidate != nil {
		s.invalidate()
	}
}

// Drain runs the queued callbacks. Called once per frame, before layout.
func (s *FrameScheduler) Drain() {
	s.mu.Lock()
	q := s.q
	s.q = nil
	s.mu.Unlock()
	for _, fn := range q {
		fn()
	}
}

// InputSource bridges Gio input to the engine's listener contract.
// The view fires events into it as it observes them during layout.
type InputSource struct {
	mu  sync.Mutex
	fns map[events.Event]func()
}

// NewInputSource returns an empty source.
func NewInputSource() *InputSource {
	return &InputSource{fns: make(map[events.Event]func())}
}

// AddListener implements events.Source.
func (s *InputSource) AddListener(ev events.Event, fn func()) (remove func()) {
	s.mu.Lock()
	s.fns[ev] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.fns, ev)
		s.mu.Unlock()
	}
}

// Fire delivers an event to its listener, if one is attached.
func (s *InputSource) Fire(ev events.Event) {
	s.mu.Lock()
	fn := s.fns[ev]
	s.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// ImageEntry is the demo's content region: a single node standing for the
// inline image. Its bounds follow the layout; structural changes notify the
// resolver.
type ImageEntry struct {
	mu      sync.Mutex
	kind    target.Kind
	source  string
	alt     string
	bounds  geometry.Box
	natural geometry.Size
	present bool
	notify  func()
}

// NewImageEntry returns an entry with no image present.
func NewImageEntry() *ImageEntry {
	return &ImageEntry{}
}

// Show replaces the displayed image.
func (e *ImageEntry) Show(kind target.Kind, source, alt string, natural geometry.Size) {
	e.mu.Lock()
	e.kind = kind
	e.source = source
	e.alt = alt
	e.natural = natural
	e.present = true
	notify := e.notify
	e.mu.Unlock()
	if notify != nil {
		notify()
	}
}

// SetBounds records where the layout placed the inline image.
func (e *ImageEntry) SetBounds(b geometry.Box) {
	e.mu.Lock()
	changed := e.present && e.bounds != b
	e.bounds = b
	notify := e.notify
	e.mu.Unlock()
	if changed && notify != nil {
		notify()
	}
}

// Nodes implements target.Region.
func (e *ImageEntry) Nodes() []target.Node {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.present {
		return nil
	}
	return []target.Node{e}
}

// Subscribe implements target.Region.
func (e *ImageEntry) Subscribe(fn func()) (cancel func()) {
	e.mu.Lock()
	e.notify = fn
	e.mu.Unlock()
	return func() {
		e.mu.Lock()
		e.notify = nil
		e.mu.Unlock()
	}
}

// Zoomable implements target.Node.
func (e *ImageEntry) Zoomable() (target.Kind, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.kind, e.present
}

// Bounds implements target.Node.
func (e *ImageEntry) Bounds() geometry.Box {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.bounds
}

// Source implements target.Node.
func (e *ImageEntry) Source() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.source
}

// SourceSet implements target.Node.
func (e *ImageEntry) SourceSet() string { return "" }

// Alt implements target.Node.
func (e *ImageEntry) Alt() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.alt
}

// Natural implements target.Node.
func (e *ImageEntry) Natural() geometry.Size {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.natural
}
