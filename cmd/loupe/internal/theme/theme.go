package theme

import (
	"image/color"

	"gioui.org/unit"
	"gioui.org/widget/material"
)

// Palette defines the demo colors.
type Palette struct {
	Background color.NRGBA
	Surface    color.NRGBA
	Scrim      color.NRGBA
	Text       color.NRGBA
	TextMuted  color.NRGBA
	Border     color.NRGBA
}

// Config defines the demo metrics.
type Config struct {
	CornerRadius unit.Dp
	Padding      unit.Dp
	FontTitle    unit.Sp
	FontCaption  unit.Sp
}

// Theme wraps the material theme with demo styling.
type Theme struct {
	*material.Theme
	Palette Palette
	Config  Config
}

// NewTheme creates the demo theme.
func NewTheme(mtheme *material.Theme) *Theme {
	return &Theme{
		Theme: mtheme,
		Palette: Palette{
			Background: color.NRGBA{R: 0x1E, G: 0x1E, B: 0x1E, A: 0xFF},
			Surface:    color.NRGBA{R: 0x2C, G: 0x2C, B: 0x2C, A: 0xFF},
			Scrim:      color.NRGBA{A: 0xD8},
			Text:       color.NRGBA{R: 0xF5, G: 0xF5, B: 0xF7, A: 0xFF},
			TextMuted:  color.NRGBA{R: 0x9A, G: 0x9A, B: 0x9E, A: 0xFF},
			Border:     color.NRGBA{R: 0x3A, G: 0x3A, B: 0x3C, A: 0xFF},
		},
		Config: Config{
			CornerRadius: unit.Dp(6),
			Padding:      unit.Dp(16),
			FontTitle:    unit.Sp(20),
			FontCaption:  unit.Sp(12),
		},
	}
}
