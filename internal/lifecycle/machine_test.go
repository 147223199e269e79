package lifecycle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubScheduler queues deferred callbacks for manual draining.
type stubScheduler struct {
	q []func()
}

func (s *stubScheduler) Defer(fn func()) {
	s.q = append(s.q, fn)
}

func (s *stubScheduler) drain() {
	for len(s.q) > 0 {
		fn := s.q[0]
		s.q = s.q[1:]
		fn()
	}
}

// recorder captures hook invocations.
type recorder struct {
	overlay      []bool
	zoomed       []bool
	reports      []bool
	loads        int
	resets       int
	targetAbsent bool
}

func (r *recorder) hooks() Hooks {
	return Hooks{
		HasTarget:       func() bool { return !r.targetAbsent },
		Overlay:         func(open bool) { r.overlay = append(r.overlay, open) },
		LoadReplacement: func() { r.loads++ },
		ResetAssets:     func() { r.resets++ },
		ZoomedWindow:    func(active bool) { r.zoomed = append(r.zoomed, active) },
		Report:          func(z bool) { r.reports = append(r.reports, z) },
	}
}

func newTestMachine(t *testing.T) (*Machine, *stubScheduler, *recorder) {
	t.Helper()
	sched := &stubScheduler{}
	rec := &recorder{}
	m := New(Config{Scheduler: sched, Hooks: rec.hooks()})
	return m, sched, rec
}

func TestFullZoomSession(t *testing.T) {
	m, sched, rec := newTestMachine(t)

	require.Equal(t, StateUnloaded, m.State())
	assert.True(t, m.ContentVisible())
	assert.False(t, m.OverlayVisible())

	require.True(t, m.Open())
	assert.Equal(t, StateLoading, m.State())
	assert.Equal(t, []bool{true}, rec.overlay)
	assert.Equal(t, 1, rec.loads)
	assert.False(t, m.ContentVisible())
	assert.True(t, m.OverlayVisible())

	// Enlarge transition finishes; the commit waits one tick.
	m.TransitionEnd()
	assert.Equal(t, StateLoading, m.State())
	sched.drain()
	assert.Equal(t, StateLoaded, m.State())
	assert.Equal(t, []bool{true}, rec.zoomed)

	m.Close()
	assert.Equal(t, StateUnloading, m.State())
	// Autonomous close is reported before the shrink animation completes.
	assert.Equal(t, []bool{false}, rec.reports)
	assert.False(t, m.OverlayVisible())
	assert.False(t, m.ContentVisible())

	m.TransitionEnd()
	sched.drain()
	assert.Equal(t, StateUnloaded, m.State())
	assert.Equal(t, []bool{true, false}, rec.zoomed)
	assert.Equal(t, []bool{true, false}, rec.overlay)
	assert.Equal(t, 1, rec.resets)
	assert.True(t, m.ContentVisible())
}

func TestExternalToggleIsNotReported(t *testing.T) {
	m, sched, rec := newTestMachine(t)

	m.SetZoomed(true)
	m.TransitionEnd()
	sched.drain()
	require.Equal(t, StateLoaded, m.State())

	m.SetZoomed(false)
	assert.Equal(t, StateUnloading, m.State())
	assert.Empty(t, rec.reports)

	m.TransitionEnd()
	sched.drain()
	assert.Equal(t, StateUnloaded, m.State())
}

func TestReversalWhileLoadingNeverWedges(t *testing.T) {
	m, sched, _ := newTestMachine(t)

	m.SetZoomed(true)
	require.Equal(t, StateLoading, m.State())

	// The enlarge transition ends, but before the deferred commit runs the
	// owner flips the toggle back. The pending commit must be canceled.
	m.TransitionEnd()
	m.SetZoomed(false)
	require.Equal(t, StateUnloading, m.State())

	sched.drain()
	assert.Equal(t, StateUnloading, m.State(), "stale enlarge commit must not fire")

	// The shrink transition ends and the machine reaches the terminal state.
	m.TransitionEnd()
	sched.drain()
	assert.Equal(t, StateUnloaded, m.State())
}

func TestReversalBeforeTransitionEnd(t *testing.T) {
	m, sched, _ := newTestMachine(t)

	m.SetZoomed(true)
	m.SetZoomed(false)
	require.Equal(t, StateUnloading, m.State())

	m.TransitionEnd()
	sched.drain()
	assert.Equal(t, StateUnloaded, m.State())
}

func TestScrollClosesAndReportsExactlyOnce(t *testing.T) {
	m, sched, rec := newTestMachine(t)

	m.SetZoomed(true)
	m.TransitionEnd()
	sched.drain()
	require.Equal(t, StateLoaded, m.State())

	m.Scroll()
	assert.Equal(t, StateUnloading, m.State())
	assert.Equal(t, []bool{false}, rec.reports)

	// Further scrolls during the close are ignored.
	m.Scroll()
	m.Scroll()
	assert.Equal(t, []bool{false}, rec.reports)

	m.TransitionEnd()
	sched.drain()
	assert.Equal(t, StateUnloaded, m.State())
}

func TestScrollIgnoredOutsideLoaded(t *testing.T) {
	m, _, rec := newTestMachine(t)

	m.Scroll()
	assert.Equal(t, StateUnloaded, m.State())

	m.SetZoomed(true)
	m.Scroll()
	assert.Equal(t, StateLoading, m.State())
	assert.Empty(t, rec.reports)
}

func TestEscapeEqualsClose(t *testing.T) {
	run := func(t *testing.T, trigger func(*Machine)) (states []State, reports []bool) {
		m, sched, rec := newTestMachine(t)
		m.SetZoomed(true)
		m.TransitionEnd()
		sched.drain()

		trigger(m)
		states = append(states, m.State())
		m.TransitionEnd()
		sched.drain()
		states = append(states, m.State())
		return states, rec.reports
	}

	escStates, escReports := run(t, (*Machine).EscapeKey)
	closeStates, closeReports := run(t, (*Machine).Close)

	assert.Equal(t, closeStates, escStates)
	assert.Equal(t, closeReports, escReports)
}

func TestResizeForcesRefreshWithoutClosing(t *testing.T) {
	m, sched, _ := newTestMachine(t)

	m.Resize()
	assert.Zero(t, m.Refresh(), "resize outside loaded is ignored")

	m.SetZoomed(true)
	m.TransitionEnd()
	sched.drain()

	m.Resize()
	m.Resize()
	assert.Equal(t, StateLoaded, m.State())
	assert.Equal(t, 2, m.Refresh())

	// Unload completion clears the counter.
	m.Close()
	m.TransitionEnd()
	sched.drain()
	assert.Zero(t, m.Refresh())
}

func TestAbsentTargetMakesOpenANoOp(t *testing.T) {
	m, _, rec := newTestMachine(t)
	rec.targetAbsent = true

	assert.False(t, m.Open())
	m.SetZoomed(true)
	assert.Equal(t, StateUnloaded, m.State())
	assert.Empty(t, rec.reports)
	assert.Empty(t, rec.overlay)
	assert.Zero(t, rec.loads)
}

func TestOpenIgnoredWhileSessionActive(t *testing.T) {
	m, sched, rec := newTestMachine(t)

	require.True(t, m.Open())
	assert.False(t, m.Open())
	m.TransitionEnd()
	sched.drain()
	assert.False(t, m.Open())
	assert.Equal(t, 1, rec.loads)
}

func TestTeardownFromEveryState(t *testing.T) {
	advance := map[string]func(m *Machine, sched *stubScheduler){
		"unloaded": func(m *Machine, sched *stubScheduler) {},
		"loading":  func(m *Machine, sched *stubScheduler) { m.Open() },
		"loaded": func(m *Machine, sched *stubScheduler) {
			m.Open()
			m.TransitionEnd()
			sched.drain()
		},
		"unloading": func(m *Machine, sched *stubScheduler) {
			m.Open()
			m.TransitionEnd()
			sched.drain()
			m.Close()
		},
	}

	for name, fn := range advance {
		t.Run(name, func(t *testing.T) {
			m, sched, rec := newTestMachine(t)
			fn(m, sched)

			m.Teardown()
			assert.Equal(t, StateUnloaded, m.State())
			assert.Zero(t, m.Refresh())

			// Pending commits must be dead after teardown.
			sched.drain()
			assert.Equal(t, StateUnloaded, m.State())

			// Attach/detach balance: every true is matched by a false.
			var balance int
			for _, active := range rec.zoomed {
				if active {
					balance++
				} else {
					balance--
				}
			}
			assert.LessOrEqual(t, balance, 0)
		})
	}
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "unloaded", StateUnloaded.String())
	assert.Equal(t, "loading", StateLoading.String())
	assert.Equal(t, "loaded", StateLoaded.String())
	assert.Equal(t, "unloading", StateUnloading.String())
}
