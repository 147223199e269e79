// Package geometry computes the on-screen box occupied by the enlarged
// image view, both at rest and as animation endpoints.
package geometry

// Size is a width/height pair in pixels.
type Size struct {
	Width  float64
	Height float64
}

// IsZero reports whether either dimension is missing.
func (s Size) IsZero() bool {
	return s.Width <= 0 || s.Height <= 0
}

// Box describes a rendered rectangle in viewport coordinates.
type Box struct {
	Left   float64
	Top    float64
	Width  float64
	Height float64
}

// Aspect returns the width/height ratio, or 0 for a degenerate box.
func (b Box) Aspect() float64 {
	if b.Height <= 0 {
		return 0
	}
	return b.Width / b.Height
}

// Mode selects which animation endpoint Compute produces.
type Mode int

const (
	// ModeCollapsed overlays the target's current on-screen position.
	ModeCollapsed Mode = iota
	// ModeExpanded centers the largest aspect-preserving fit in the viewport.
	ModeExpanded
)

func (m Mode) String() string {
	switch m {
	case ModeCollapsed:
		return "collapsed"
	case ModeExpanded:
		return "expanded"
	default:
		return "unknown"
	}
}

// Compute returns the box the enlarged image occupies in the given mode.
//
// bounds is the target's current on-screen rectangle. natural is the pixel
// resolution of the active asset; a zero natural size means the target has
// no intrinsic resolution (inline vector graphics) and the aspect ratio is
// taken from bounds instead, with no upscaling cap. margin reserves pixels
// on every side of the expanded box.
func Compute(bounds Box, natural Size, viewport Size, margin float64, mode Mode) Box {
	if mode == ModeCollapsed {
		return bounds
	}

	if margin < 0 {
		margin = 0
	}
	availW := viewport.Width - 2*margin
	availH := viewport.Height - 2*margin
	if availW < 0 {
		availW = 0
	}
	if availH < 0 {
		availH = 0
	}

	w0, h0 := natural.Width, natural.Height
	capped := true
	if natural.IsZero() {
		// No intrinsic resolution: scale the current box freely.
		w0, h0 = bounds.Width, bounds.Height
		capped = false
	}
	if w0 <= 0 || h0 <= 0 {
		// Degenerate target, degenerate box.
		return Box{Left: viewport.Width / 2, Top: viewport.Height / 2}
	}

	scale := availW / w0
	if s := availH / h0; s < scale {
		scale = s
	}
	if capped && scale > 1 {
		scale = 1
	}
	if scale < 0 {
		scale = 0
	}

	w := w0 * scale
	h := h0 * scale
	return Box{
		Left:   (viewport.Width - w) / 2,
		Top:    (viewport.Height - h) / 2,
		Width:  w,
		Height: h,
	}
}

// Lerp interpolates between two boxes; t is clamped to [0, 1].
// Presentation layers use this to place the image mid-transition.
func Lerp(from, to Box, t float64) Box {
	if t <= 0 {
		return from
	}
	if t >= 1 {
		return to
	}
	return Box{
		Left:   from.Left + (to.Left-from.Left)*t,
		Top:    from.Top + (to.Top-from.Top)*t,
		Width:  from.Width + (to.Width-from.Width)*t,
		Height: from.Height + (to.Height-from.Height)*t,
	}
}
