// Package lifecycle drives the zoom/unzoom state machine.
//
// The machine owns the single LifecycleState field and is its sole writer.
// It sequences load -> show -> animate -> settle and the reverse, and it is
// the only component that decides when listeners attach, when the overlay
// opens, and when the external owner is told the zoom state changed.
//
// Transient states (Loading, Unloading) advance only when the presentation
// layer reports the enlarging or shrinking transition finished, and that
// commit runs one scheduler tick later to avoid racing events fired in the
// same frame. A reversal while a transition is pending cancels the pending
// commit: every transient entry bumps a generation counter and a commit
// carrying a stale generation is dropped.
package lifecycle

import (
	"log/slog"
	"sync"
)

// State is the zoom lifecycle state.
type State int

const (
	// StateUnloaded: no overlay, inline content visible. Stable.
	StateUnloaded State = iota
	// StateLoading: overlay open, enlarge transition running. Transient.
	StateLoading
	// StateLoaded: enlarged view at rest. Stable.
	StateLoaded
	// StateUnloading: shrink transition running. Transient.
	StateUnloading
)

func (s State) String() string {
	switch s {
	case StateUnloaded:
		return "unloaded"
	case StateLoading:
		return "loading"
	case StateLoaded:
		return "loaded"
	case StateUnloading:
		return "unloading"
	default:
		return "unknown"
	}
}

// Scheduler defers a callback by one tick of the driving event loop.
// The presentation adapter defers to the next frame; tests drain a queue.
type Scheduler interface {
	Defer(fn func())
}

// Hooks are the side effects the machine triggers on transitions.
// Nil hooks are skipped. Hooks run outside the machine's lock and may call
// back into it.
type Hooks struct {
	// HasTarget gates open requests; a missing target makes them no-ops.
	HasTarget func() bool
	// Overlay opens or closes the modal surface.
	Overlay func(open bool)
	// LoadReplacement starts the high-resolution asset load.
	LoadReplacement func()
	// ResetAssets clears per-session asset readiness after unload.
	ResetAssets func()
	// ZoomedWindow attaches or detaches the scroll/resize listeners.
	ZoomedWindow func(active bool)
	// Report proposes a zoom-state change to the external owner. It fires
	// only for autonomous changes, before the closing animation completes.
	Report func(zoomed bool)
}

// Config configures a Machine.
type Config struct {
	Scheduler Scheduler
	Hooks     Hooks
	Logger    *slog.Logger
}

// Machine is the zoom lifecycle state machine.
type Machine struct {
	sched Scheduler
	hooks Hooks
	log   *slog.Logger

	mu      sync.Mutex
	state   State
	gen     uint64
	refresh int
}

// New returns a machine in StateUnloaded.
func New(cfg Config) *Machine {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Machine{
		sched: cfg.Scheduler,
		hooks: cfg.Hooks,
		log:   log.With("component", "lifecycle"),
	}
}

// State returns the current lifecycle state.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// ContentVisible reports whether the inline content should render.
func (m *Machine) ContentVisible() bool {
	return m.State() == StateUnloaded
}

// OverlayVisible reports whether the overlay surface should render.
func (m *Machine) OverlayVisible() bool {
	s := m.State()
	return s == StateLoading || s == StateLoaded
}

// Zoomed reports the current zoom intent.
func (m *Machine) Zoomed() bool {
	s := m.State()
	return s == StateLoading || s == StateLoaded
}

// Refresh returns the forced-refresh counter. It increments on every resize
// while loaded and resets to zero when an unload completes, so geometry
// consumers can key recomputation off it.
func (m *Machine) Refresh() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.refresh
}

// SetZoomed applies the external owner's toggle. External changes are not
// re-reported through Hooks.Report.
func (m *Machine) SetZoomed(zoomed bool) {
	if zoomed {
		m.Open()
	} else {
		m.requestClose(false)
	}
}

// Open starts a zoom session. It reports whether the request was accepted;
// requests are ignored when a session is active or no target exists.
func (m *Machine) Open() bool {
	if m.hooks.HasTarget != nil && !m.hooks.HasTarget() {
		return false
	}

	m.mu.Lock()
	if m.state != StateUnloaded {
		m.mu.Unlock()
		return false
	}
	m.transition(StateLoading)
	m.mu.Unlock()

	m.run(m.overlayHook(true), m.hooks.LoadReplacement)
	return true
}

// Close is the explicit close action: close button, overlay click.
func (m *Machine) Close() {
	m.requestClose(true)
}

// EscapeKey handles an Escape press while the overlay is open. It is
// behaviorally identical to Close.
func (m *Machine) EscapeKey() {
	m.requestClose(true)
}

// Scroll handles a scroll on the tracked ancestor. While loaded it always
// closes the view; it never repositions.
func (m *Machine) Scroll() {
	m.mu.Lock()
	if m.state != StateLoaded {
		m.mu.Unlock()
		return
	}
	m.transition(StateUnloading)
	m.mu.Unlock()

	m.run(m.reportHook(false))
}

// Resize while loaded forces a geometry recomputation; it never closes.
func (m *Machine) Resize() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == StateLoaded {
		m.refresh++
	}
}

// TransitionEnd is called by the presentation layer when the running
// enlarge or shrink transition finishes. The resulting state commit is
// deferred one tick and dropped if a reversal superseded it meanwhile.
func (m *Machine) TransitionEnd() {
	m.mu.Lock()
	g := m.gen
	m.mu.Unlock()
	m.sched.Defer(func() { m.commit(g) })
}

// Teardown forces the machine back to StateUnloaded from any state and
// cancels pending commits. The owning component calls this on unmount.
func (m *Machine) Teardown() {
	m.mu.Lock()
	wasOpen := m.state != StateUnloaded
	m.transition(StateUnloaded)
	m.refresh = 0
	m.mu.Unlock()

	if wasOpen {
		m.run(m.zoomedWindowHook(false), m.overlayHook(false), m.hooks.ResetAssets)
	}
}

// requestClose moves toward StateUnloaded from either active state.
// autonomous marks closes the system initiated itself (button, overlay
// click, Escape); those are reported to the external owner immediately.
func (m *Machine) requestClose(autonomous bool) {
	m.mu.Lock()
	switch m.state {
	case StateLoaded, StateLoading:
		// Closing from StateLoading is the reversal edge: the bump in
		// transition cancels the pending enlarge commit, so the machine
		// can never wedge in StateLoading.
		m.transition(StateUnloading)
	default:
		m.mu.Unlock()
		return
	}
	m.mu.Unlock()

	if autonomous {
		m.run(m.reportHook(false))
	}
}

// commit finishes a transient state one tick after its transition ended.
func (m *Machine) commit(g uint64) {
	m.mu.Lock()
	if g != m.gen {
		m.mu.Unlock()
		m.log.Debug("dropping stale transition commit", "gen", g)
		return
	}

	var effects []func()
	switch m.state {
	case StateLoading:
		m.transition(StateLoaded)
		effects = append(effects, m.zoomedWindowHook(true))
	case StateUnloading:
		m.transition(StateUnloaded)
		m.refresh = 0
		effects = append(effects,
			m.zoomedWindowHook(false),
			m.overlayHook(false),
			m.hooks.ResetAssets,
		)
	}
	m.mu.Unlock()

	m.run(effects...)
}

// transition records a state change. Callers hold m.mu.
func (m *Machine) transition(to State) {
	m.log.Debug("state transition", "from", m.state.String(), "to", to.String())
	m.state = to
	m.gen++
}

func (m *Machine) run(effects ...func()) {
	for _, fn := range effects {
		if fn != nil {
			fn()
		}
	}
}

func (m *Machine) overlayHook(open bool) func() {
	if m.hooks.Overlay == nil {
		return nil
	}
	return func() { m.hooks.Overlay(open) }
}

func (m *Machine) zoomedWindowHook(active bool) func() {
	if m.hooks.ZoomedWindow == nil {
		return nil
	}
	return func() { m.hooks.ZoomedWindow(active) }
}

func (m *Machine) reportHook(zoomed bool) func() {
	if m.hooks.Report == nil {
		return nil
	}
	return func() { m.hooks.Report(zoomed) }
}
