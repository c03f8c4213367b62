package render

import (
	"image/color"

	"github.com/rook-computer/certmaker/internal/element"
)

// Logical canvas geometry; every raster is this size times a scale factor.
const (
	CanvasWidth  = element.CanvasWidth
	CanvasHeight = element.CanvasHeight

	GridSpacing       = 20
	SafeMarginInset   = element.CanvasMargin
	SafeMarginBorder  = 4
	TextPadding       = 8
	DefaultLineHeight = 1.2

	// Selection affordances.
	SelectionRing   = 2
	CornerHandle    = 12
	EdgeHandle      = 4
	EdgeHandleReach = 10

	// Style ceilings in canvas px. Larger values are drawn at the ceiling.
	MaxFontSize   = 400
	MaxShadowBlur = 50

	// Watermark letter spacing in em.
	WatermarkTracking = 0.2
)

var (
	GridColor        = color.NRGBA{R: 0x3b, G: 0x82, B: 0xf6, A: 0xff} // #3b82f6, drawn at GridOpacity
	GridOpacity      = 0.2
	CenterGuideColor = color.NRGBA{R: 0x60, G: 0xa5, B: 0xfa, A: 0x4d} // #60a5fa @ 0.3
	SafeMarginColor  = color.NRGBA{R: 0xf8, G: 0x71, B: 0x71, A: 0x66} // #f87171 @ 0.4
	SelectionColor   = color.NRGBA{R: 0x3b, G: 0x82, B: 0xf6, A: 0x80} // #3b82f6 @ 0.5
	HandleColor      = color.NRGBA{R: 0x3b, G: 0x82, B: 0xf6, A: 0xff}

	// Preview surroundings.
	PreviewBackground    = color.RGBA{R: 0xf9, G: 0xfa, B: 0xfb, A: 0xff} // #f9fafb
	FullscreenBackground = color.RGBA{R: 0x1f, G: 0x29, B: 0x37, A: 0xff} // #1f2937
	PreviewPadding       = 16
)

// DefaultGradient is drawn when no background image or gradient is set.
var DefaultGradient = Gradient{
	Angle: 135,
	Stops: []GradientStop{
		{Color: color.NRGBA{R: 0xf8, G: 0xfa, B: 0xfc, A: 0xff}, Offset: 0},
		{Color: color.NRGBA{R: 0xe2, G: 0xe8, B: 0xf0, A: 0xff}, Offset: 0.25},
		{Color: color.NRGBA{R: 0xf1, G: 0xf5, B: 0xf9, A: 0xff}, Offset: 0.5},
		{Color: color.NRGBA{R: 0xe2, G: 0xe8, B: 0xf0, A: 0xff}, Offset: 0.75},
		{Color: color.NRGBA{R: 0xf8, G: 0xfa, B: 0xfc, A: 0xff}, Offset: 1},
	},
}
