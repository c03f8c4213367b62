package render

import (
	"math"

	"github.com/rook-computer/certmaker/internal/render/layout"
)

// HandleKind names a resize handle of the selected element.
type HandleKind string

const (
	HandleTop         HandleKind = "top"
	HandleRight       HandleKind = "right"
	HandleBottom      HandleKind = "bottom"
	HandleLeft        HandleKind = "left"
	HandleTopRight    HandleKind = "topRight"
	HandleBottomRight HandleKind = "bottomRight"
	HandleBottomLeft  HandleKind = "bottomLeft"
	HandleTopLeft     HandleKind = "topLeft"
)

func (h HandleKind) corner() bool {
	switch h {
	case HandleTopRight, HandleBottomRight, HandleBottomLeft, HandleTopLeft:
		return true
	}
	return false
}

// Handle is the drawn shape of one handle in canvas units.
type Handle struct {
	Kind HandleKind
	Box  layout.Box
}

// Handles lays out the eight handles around b: 12px dots on the corners and
// 4px bars along the edges.
func Handles(b layout.Box) []Handle {
	c := float64(CornerHandle)
	e := float64(EdgeHandle)
	dot := func(x, y float64) layout.Box { return layout.Box{X: x - c/2, Y: y - c/2, W: c, H: c} }
	return []Handle{
		{HandleTop, layout.Box{X: b.X, Y: b.Y - e/2, W: b.W, H: e}},
		{HandleRight, layout.Box{X: b.X + b.W - e/2, Y: b.Y, W: e, H: b.H}},
		{HandleBottom, layout.Box{X: b.X, Y: b.Y + b.H - e/2, W: b.W, H: e}},
		{HandleLeft, layout.Box{X: b.X - e/2, Y: b.Y, W: e, H: b.H}},
		{HandleTopRight, dot(b.X+b.W, b.Y)},
		{HandleBottomRight, dot(b.X+b.W, b.Y+b.H)},
		{HandleBottomLeft, dot(b.X, b.Y+b.H)},
		{HandleTopLeft, dot(b.X, b.Y)},
	}
}

// HandleAt returns the handle of b under (x, y). Corners win over edges and
// edges grab within EdgeHandleReach/2 of the border.
func HandleAt(b layout.Box, x, y float64) (HandleKind, bool) {
	for _, h := range Handles(b) {
		if h.Kind.corner() && h.Box.Contains(x, y) {
			return h.Kind, true
		}
	}
	reach := float64(EdgeHandleReach) / 2
	inX := x >= b.X-reach && x <= b.X+b.W+reach
	inY := y >= b.Y-reach && y <= b.Y+b.H+reach
	switch {
	case inX && math.Abs(y-b.Y) <= reach:
		return HandleTop, true
	case inX && math.Abs(y-(b.Y+b.H)) <= reach:
		return HandleBottom, true
	case inY && math.Abs(x-b.X) <= reach:
		return HandleLeft, true
	case inY && math.Abs(x-(b.X+b.W)) <= reach:
		return HandleRight, true
	}
	return "", false
}

// Limits bounds the size of a box during a resize.
type Limits struct {
	MinW, MinH, MaxW, MaxH float64
}

var (
	TextLimits  = Limits{MinW: 50, MinH: 20, MaxW: 800, MaxH: 400}
	ImageLimits = Limits{MinW: 20, MinH: 20, MaxW: 400, MaxH: 400}
)

func clampSize(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// Resize moves the edges named by h by (dx, dy), keeping the opposite edges
// fixed and the size within l.
func Resize(orig layout.Box, h HandleKind, dx, dy float64, l Limits) layout.Box {
	out := orig
	switch h {
	case HandleLeft, HandleTopLeft, HandleBottomLeft:
		out.W = clampSize(orig.W-dx, l.MinW, l.MaxW)
		out.X = orig.X + orig.W - out.W
	case HandleRight, HandleTopRight, HandleBottomRight:
		out.W = clampSize(orig.W+dx, l.MinW, l.MaxW)
	}
	switch h {
	case HandleTop, HandleTopLeft, HandleTopRight:
		out.H = clampSize(orig.H-dy, l.MinH, l.MaxH)
		out.Y = orig.Y + orig.H - out.H
	case HandleBottom, HandleBottomLeft, HandleBottomRight:
		out.H = clampSize(orig.H+dy, l.MinH, l.MaxH)
	}
	return out
}
