// Package loupe implements the animated image zoom interaction: an inline
// thumbnail expands into an overlay-backed, centered, full-resolution view
// and collapses back.
//
// The package is display-free. The presentation layer injects three
// collaborators: a Region (where the zoomable element lives), an event
// Source (click, Escape, scroll, resize delivery) and a Scheduler (one-tick
// deferral on the driving event loop). cmd/loupe ships a Gio adapter.
package loupe

import (
	"errors"
	"image"
	"log/slog"
	"sync"

	"loupe/internal/assets"
	"loupe/internal/events"
	"loupe/internal/geometry"
	"loupe/internal/lifecycle"
	"loupe/internal/store"
	"loupe/internal/target"
)

// Default accessible labels.
const (
	DefaultLabelZoomIn  = "Expand image"
	DefaultLabelZoomOut = "Minimize image"
)

// Options configures a Zoomer.
type Options struct {
	// Region is the content area scanned for the zoomable element.
	Region target.Region

	// Events delivers interaction events. Required.
	Events events.Source

	// Scheduler defers state commits by one tick. Required.
	Scheduler lifecycle.Scheduler

	// Replacement optionally names a higher-resolution asset shown while
	// zoomed.
	Replacement *assets.Descriptor

	// Margin reserves pixels around the expanded box. Negative values are
	// treated as zero.
	Margin float64

	// LabelZoomIn and LabelZoomOut are the accessible label strings.
	LabelZoomIn  string
	LabelZoomOut string

	// OnChange is invoked with the proposed zoom state whenever the system
	// changes it autonomously (click-open, Escape, scroll-close). The
	// external owner of the zoom boolean decides what to do with it.
	OnChange func(zoomed bool)

	// OnAssetLoaded is invoked from a loader goroutine whenever an
	// asynchronous decode completes. Display layers use it to request a
	// redraw.
	OnAssetLoaded func()

	// Cache optionally persists decoded probes across runs.
	Cache *store.Cache

	// WatchFiles reloads the natural asset when a file-backed source is
	// rewritten.
	WatchFiles bool

	Logger *slog.Logger
}

// Zoomer owns one zoom component instance: the resolved target, the two
// asset loads, the lifecycle state and the listener wiring.
type Zoomer struct {
	opts     Options
	log      *slog.Logger
	resolver *target.Resolver
	loader   *assets.Loader
	machine  *lifecycle.Machine
	coord    *events.Coordinator

	cancelTarget func()

	mu         sync.Mutex
	lastSeeded string
}

// New wires a Zoomer from its collaborators.
func New(opts Options) (*Zoomer, error) {
	if opts.Region == nil {
		return nil, errors.New("loupe: Region is required")
	}
	if opts.Events == nil {
		return nil, errors.New("loupe: Events is required")
	}
	if opts.Scheduler == nil {
		return nil, errors.New("loupe: Scheduler is required")
	}
	if opts.LabelZoomIn == "" {
		opts.LabelZoomIn = DefaultLabelZoomIn
	}
	if opts.LabelZoomOut == "" {
		opts.LabelZoomOut = DefaultLabelZoomOut
	}
	if opts.Margin < 0 {
		opts.Margin = 0
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	z := &Zoomer{opts: opts, log: log}
	z.coord = events.New(opts.Events)
	z.loader = assets.NewLoader(assets.Config{
		Logger:     log,
		Cache:      opts.Cache,
		WatchFiles: opts.WatchFiles,
		OnReplacementReady: func() {
			if opts.OnAssetLoaded != nil {
				opts.OnAssetLoaded()
			}
		},
		OnNaturalLoaded: func(*assets.Probe) {
			if opts.OnAssetLoaded != nil {
				opts.OnAssetLoaded()
			}
		},
	})
	z.resolver = target.NewResolver(opts.Region)
	z.cancelTarget = z.resolver.Subscribe(z.seedNatural)

	z.machine = lifecycle.New(lifecycle.Config{
		Scheduler: opts.Scheduler,
		Logger:    log,
		Hooks: lifecycle.Hooks{
			HasTarget: func() bool {
				_, ok := z.resolver.Current()
				return ok
			},
			Overlay: func(open bool) {
				if open {
					z.coord.AttachModal(z.machine.EscapeKey)
				} else {
					z.coord.DetachModal()
				}
			},
			LoadReplacement: func() {
				if opts.Replacement != nil {
					z.loader.LoadReplacement(*opts.Replacement)
				}
			},
			ResetAssets: z.loader.Reset,
			ZoomedWindow: func(active bool) {
				if active {
					z.coord.AttachZoomed(z.machine.Scroll, z.machine.Resize)
				} else {
					z.coord.DetachZoomed()
				}
			},
			Report: func(zoomed bool) {
				if opts.OnChange != nil {
					opts.OnChange(zoomed)
				}
			},
		},
	})

	z.coord.AttachClick(z.clickOpen)
	z.seedNatural()
	return z, nil
}

// clickOpen treats any click on the target as an open request.
func (z *Zoomer) clickOpen() {
	if z.machine.Open() && z.opts.OnChange != nil {
		z.opts.OnChange(true)
	}
}

// seedNatural starts the background natural decode for the current target,
// preferring the widest source-set candidate. Bounds-only target changes
// keep the existing decode.
func (z *Zoomer) seedNatural() {
	t, ok := z.resolver.Current()
	if !ok {
		return
	}
	src := assets.Descriptor{Source: t.Source, SourceSet: t.SourceSet}.BestSource()
	if src == "" {
		return
	}
	z.mu.Lock()
	if z.lastSeeded == src {
		z.mu.Unlock()
		return
	}
	z.lastSeeded = src
	z.mu.Unlock()
	z.loader.LoadNatural(src)
}

// SetZoomed applies the external owner's zoom toggle.
func (z *Zoomer) SetZoomed(zoomed bool) { z.machine.SetZoomed(zoomed) }

// Close runs the explicit close action.
func (z *Zoomer) Close() { z.machine.Close() }

// TransitionEnd reports that the running enlarge/shrink animation finished.
func (z *Zoomer) TransitionEnd() { z.machine.TransitionEnd() }

// State returns the lifecycle state.
func (z *Zoomer) State() lifecycle.State { return z.machine.State() }

// Zoomed reports the current zoom intent.
func (z *Zoomer) Zoomed() bool { return z.machine.Zoomed() }

// ContentVisible reports whether the inline content should render.
func (z *Zoomer) ContentVisible() bool { return z.machine.ContentVisible() }

// OverlayVisible reports whether the overlay surface should render.
func (z *Zoomer) OverlayVisible() bool { return z.machine.OverlayVisible() }

// Refresh returns the forced-refresh counter for geometry consumers.
func (z *Zoomer) Refresh() int { return z.machine.Refresh() }

// Label returns the accessible label matching the current state.
func (z *Zoomer) Label() string {
	if z.machine.OverlayVisible() {
		return z.opts.LabelZoomOut
	}
	return z.opts.LabelZoomIn
}

// Target returns the active zoom target, if any.
func (z *Zoomer) Target() (target.Target, bool) {
	return z.resolver.Current()
}

// ReplacementReady reports whether the high-resolution asset decoded.
func (z *Zoomer) ReplacementReady() bool { return z.loader.ReplacementReady() }

// ZoomImage returns the best decoded image for the enlarged view: the
// replacement once it is ready, the natural decode otherwise.
func (z *Zoomer) ZoomImage() (image.Image, bool) {
	if img, ok := z.loader.ReplacementImage(); ok {
		return img, true
	}
	return z.loader.NaturalImage()
}

// InlineImage returns the decoded inline image, if available.
func (z *Zoomer) InlineImage() (image.Image, bool) { return z.loader.NaturalImage() }

// FrameBox computes the box the enlarged image occupies for the current
// state and viewport. It reports false when no target is resolved.
func (z *Zoomer) FrameBox(viewport geometry.Size) (geometry.Box, bool) {
	t, ok := z.resolver.Current()
	if !ok {
		return geometry.Box{}, false
	}

	mode := geometry.ModeCollapsed
	if z.machine.OverlayVisible() {
		mode = geometry.ModeExpanded
	}
	return geometry.Compute(t.Bounds, z.naturalFor(t), viewport, z.opts.Margin, mode), true
}

// naturalFor picks the resolution that caps the expanded box.
func (z *Zoomer) naturalFor(t target.Target) geometry.Size {
	if t.Kind == target.KindVector {
		// Vector intrinsic size is ambiguous; size from the computed box.
		return geometry.Size{}
	}
	if size, ok := z.loader.ReplacementSize(); ok {
		return size
	}
	if size, ok := z.loader.NaturalSize(); ok {
		return size
	}
	return t.Natural
}

// Teardown releases every listener and resource regardless of state.
func (z *Zoomer) Teardown() {
	z.machine.Teardown()
	z.coord.Teardown()
	if z.cancelTarget != nil {
		z.cancelTarget()
	}
	z.resolver.Close()
	if err := z.loader.Close(); err != nil {
		z.log.Debug("loader close", "error", err)
	}
}
