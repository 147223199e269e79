package ui

import (
	"image"
	"time"

	"gioui.org/f32"
	"gioui.org/io/event"
	"gioui.org/io/key"
	"gioui.org/io/pointer"
	"gioui.org/layout"
	"gioui.org/op"
	"gioui.org/op/clip"
	"gioui.org/op/paint"
	"gioui.org/widget"
	"gioui.org/widget/material"

	"loupe/cmd/loupe/internal/theme"
	"loupe/internal/events"
	"loupe/internal/geometry"
	"loupe/internal/lifecycle"
	"loupe/pkg/loupe"
)

// Gallery renders the demo window: the inline thumbnail, the scrim and the
// animated zoom overlay. It owns the enlarge/shrink animation and reports
// TransitionEnd to the engine when it finishes.
type Gallery struct {
	th         *theme.Theme
	zoom       *loupe.Zoomer
	sched      *FrameScheduler
	input      *InputSource
	entry      *ImageEntry
	transition time.Duration

	thumb widget.Clickable
	scrim widget.Clickable

	thumbSrc image.Image
	thumbOp  paint.ImageOp

	zoomSrc image.Image
	zoomOp  paint.ImageOp

	lastState lifecycle.State
	lastSize  image.Point

	anim struct {
		active bool
		ended  bool
		start  time.Time
		from   geometry.Box
		to     geometry.Box
	}
}

// NewGallery wires a gallery view over an assembled Zoomer.
func NewGallery(th *theme.Theme, zoom *loupe.Zoomer, sched *FrameScheduler, input *InputSource, entry *ImageEntry, transition time.Duration) *Gallery {
	return &Gallery{
		th:         th,
		zoom:       zoom,
		sched:      sched,
		input:      input,
		entry:      entry,
		transition: transition,
	}
}

// Layout draws one frame.
func (g *Gallery) Layout(gtx layout.Context) layout.Dimensions {
	g.sched.Drain()

	viewport := gtx.Constraints.Max
	if g.lastSize != (image.Point{}) && viewport != g.lastSize {
		g.input.Fire(events.Resize)
	}
	g.lastSize = viewport

	paint.Fill(gtx.Ops, g.th.Palette.Background)

	g.handleInput(gtx, viewport)
	g.layoutInline(gtx, viewport)
	g.layoutOverlay(gtx, viewport)

	return layout.Dimensions{Size: viewport}
}

// handleInput drains window-level events and forwards them to the engine.
// Escape and scroll listeners are attached by the engine only while they
// matter, so unconditional delivery here is safe.
func (g *Gallery) handleInput(gtx layout.Context, viewport image.Point) {
	for {
		ev, ok := gtx.Event(
			pointer.Filter{
				Target:  g,
				Kinds:   pointer.Scroll,
				ScrollY: pointer.ScrollRange{Min: -1000, Max: 1000},
			},
			key.Filter{Focus: g, Name: key.NameEscape},
		)
		if !ok {
			break
		}
		switch e := ev.(type) {
		case pointer.Event:
			if e.Kind == pointer.Scroll {
				g.input.Fire(events.Scroll)
			}
		case key.Event:
			if e.State == key.Press {
				g.input.Fire(events.Escape)
			}
		}
	}

	defer clip.Rect{Max: viewport}.Push(gtx.Ops).Pop()
	event.Op(gtx.Ops, g)
	if g.zoom.State() != lifecycle.StateUnloaded {
		gtx.Execute(key.FocusCmd{Tag: g})
	}
}

// layoutInline places the thumbnail and caption and reports the thumbnail's
// on-screen bounds to the target region.
func (g *Gallery) layoutInline(gtx layout.Context, viewport image.Point) {
	if img, ok := g.zoom.InlineImage(); ok && img != g.thumbSrc {
		g.thumbSrc = img
		g.thumbOp = paint.NewImageOp(ScaleToFit(img, viewport.X, viewport.Y))
	}

	pad := gtx.Dp(g.th.Config.Padding)
	rect := g.inlineRect(viewport, pad)
	g.entry.SetBounds(boxFromRect(rect))

	if g.thumb.Clicked(gtx) {
		g.input.Fire(events.Click)
	}

	func() {
		defer op.Offset(rect.Min).Push(gtx.Ops).Pop()
		cgtx := gtx
		cgtx.Constraints = layout.Exact(rect.Size())
		g.thumb.Layout(cgtx, func(gtx layout.Context) layout.Dimensions {
			sz := rect.Size()
			if g.zoom.ContentVisible() && g.thumbOp.Size() != (image.Point{}) {
				drawImage(gtx.Ops, g.thumbOp, geometry.Box{
					Width:  float64(sz.X),
					Height: float64(sz.Y),
				})
			} else {
				// Vacated slot while zoomed, placeholder before decode.
				r := gtx.Dp(g.th.Config.CornerRadius)
				paint.FillShape(gtx.Ops, g.th.Palette.Surface,
					clip.UniformRRect(image.Rectangle{Max: sz}, r).Op(gtx.Ops))
			}
			return layout.Dimensions{Size: sz}
		})
	}()

	caption := material.Caption(g.th.Theme, g.zoom.Label())
	caption.Color = g.th.Palette.TextMuted
	func() {
		defer op.Offset(image.Pt(rect.Min.X, rect.Max.Y+pad/2)).Push(gtx.Ops).Pop()
		cgtx := gtx
		cgtx.Constraints.Min = image.Point{}
		caption.Layout(cgtx)
	}()
}

// inlineRect fits the thumbnail into the upper half of the window.
func (g *Gallery) inlineRect(viewport image.Point, pad int) image.Rectangle {
	sz := g.thumbOp.Size()
	if sz == (image.Point{}) {
		sz = image.Pt(320, 240)
	}

	maxW := viewport.X - 2*pad
	maxH := viewport.Y/2 - 2*pad
	w, h := sz.X, sz.Y
	if w > maxW && maxW > 0 {
		h = h * maxW / w
		w = maxW
	}
	if h > maxH && maxH > 0 {
		w = w * maxH / h
		h = maxH
	}

	left := (viewport.X - w) / 2
	top := 2 * pad
	return image.Rect(left, top, left+w, top+h)
}

// layoutOverlay draws the scrim and the animated zoom image.
func (g *Gallery) layoutOverlay(gtx layout.Context, viewport image.Point) {
	now := gtx.Now
	state := g.zoom.State()
	if state != g.lastState {
		g.retarget(state, now)
		g.lastState = state
	}
	// The scrim and image stay on screen through the shrink animation.
	if state == lifecycle.StateUnloaded {
		return
	}

	vp := geometry.Size{Width: float64(viewport.X), Height: float64(viewport.Y)}
	switch state {
	case lifecycle.StateLoading, lifecycle.StateLoaded:
		if box, ok := g.zoom.FrameBox(vp); ok {
			g.anim.to = box
		}
	case lifecycle.StateUnloading:
		if t, ok := g.zoom.Target(); ok {
			g.anim.to = t.Bounds
		}
	}

	progress := 1.0
	if g.anim.active {
		progress = clamp01(float64(now.Sub(g.anim.start)) / float64(g.transition))
		if progress >= 1 && !g.anim.ended {
			g.anim.ended = true
			g.zoom.TransitionEnd()
		}
		gtx.Execute(op.InvalidateCmd{})
	}

	scrim := g.th.Palette.Scrim
	fade := progress
	if state == lifecycle.StateUnloading {
		fade = 1 - progress
	}
	scrim.A = uint8(float64(scrim.A) * fade)
	if g.scrim.Clicked(gtx) {
		g.zoom.Close()
	}
	g.scrim.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
		paint.FillShape(gtx.Ops, scrim, clip.Rect{Max: viewport}.Op())
		return layout.Dimensions{Size: viewport}
	})

	box := geometry.Lerp(g.anim.from, g.anim.to, easeInOut(progress))
	if img, ok := g.zoom.ZoomImage(); ok {
		if img != g.zoomSrc {
			g.zoomSrc = img
			g.zoomOp = paint.NewImageOp(img)
		}
		drawImage(gtx.Ops, g.zoomOp, box)
		return
	}
	r := gtx.Dp(g.th.Config.CornerRadius)
	paint.FillShape(gtx.Ops, g.th.Palette.Surface,
		clip.UniformRRect(rectFromBox(box), r).Op(gtx.Ops))
}

// retarget restarts the animation when the lifecycle enters a transient
// state. A close during the enlarge reverses from the mid-flight box.
func (g *Gallery) retarget(state lifecycle.State, now time.Time) {
	switch state {
	case lifecycle.StateLoading:
		g.anim.from = g.entry.Bounds()
		g.anim.start = now
		g.anim.active = true
		g.anim.ended = false
	case lifecycle.StateUnloading:
		g.anim.from = g.boxAt(now)
		g.anim.start = now
		g.anim.active = true
		g.anim.ended = false
	default:
		g.anim.active = false
	}
}

// boxAt evaluates the animated box at an instant, for reversal hand-off.
func (g *Gallery) boxAt(now time.Time) geometry.Box {
	if !g.anim.active {
		return g.anim.to
	}
	t := clamp01(float64(now.Sub(g.anim.start)) / float64(g.transition))
	return geometry.Lerp(g.anim.from, g.anim.to, easeInOut(t))
}

// drawImage paints an image op scaled into box.
func drawImage(ops *op.Ops, imgOp paint.ImageOp, box geometry.Box) {
	sz := imgOp.Size()
	if sz.X == 0 || sz.Y == 0 || box.Width <= 0 || box.Height <= 0 {
		return
	}
	tr := f32.Affine2D{}.
		Scale(f32.Point{}, f32.Pt(float32(box.Width)/float32(sz.X), float32(box.Height)/float32(sz.Y))).
		Offset(f32.Pt(float32(box.Left), float32(box.Top)))
	defer op.Affine(tr).Push(ops).Pop()
	defer clip.Rect{Max: sz}.Push(ops).Pop()
	imgOp.Add(ops)
	paint.PaintOp{}.Add(ops)
}

func boxFromRect(r image.Rectangle) geometry.Box {
	return geometry.Box{
		Left:   float64(r.Min.X),
		Top:    float64(r.Min.Y),
		Width:  float64(r.Dx()),
		Height: float64(r.Dy()),
	}
}

func rectFromBox(b geometry.Box) image.Rectangle {
	return image.Rect(int(b.Left), int(b.Top), int(b.Left+b.Width), int(b.Top+b.Height))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// easeInOut is a cubic ease matching the CSS default transition feel.
func easeInOut(t float64) float64 {
	if t < 0.5 {
		return 4 * t * t * t
	}
	u := 2*t - 2
	return 1 + u*u*u/2
}
