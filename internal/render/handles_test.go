package render

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rook-computer/certmaker/internal/render/layout"
)

func TestHandleAt(t *testing.T) {
	b := layout.Box{X: 100, Y: 100, W: 200, H: 50}
	cases := []struct {
		x, y float64
		want HandleKind
	}{
		{100, 100, HandleTopLeft},
		{304, 96, HandleTopRight},
		{300, 150, HandleBottomRight},
		{100, 150, HandleBottomLeft},
		{200, 103, HandleTop},
		{200, 148, HandleBottom},
		{97, 125, HandleLeft},
		{302, 125, HandleRight},
	}
	for _, tc := range cases {
		got, ok := HandleAt(b, tc.x, tc.y)
		assert.True(t, ok, "%v,%v", tc.x, tc.y)
		assert.Equal(t, tc.want, got, "%v,%v", tc.x, tc.y)
	}

	_, ok := HandleAt(b, 200, 125)
	assert.False(t, ok, "interior is not a handle")
	_, ok = HandleAt(b, 200, 80)
	assert.False(t, ok)
}

func TestHandlesLayout(t *testing.T) {
	hs := Handles(layout.Box{X: 10, Y: 10, W: 100, H: 40})
	assert.Len(t, hs, 8)
	for _, h := range hs {
		if h.Kind.corner() {
			assert.Equal(t, float64(CornerHandle), h.Box.W)
			assert.Equal(t, float64(CornerHandle), h.Box.H)
		}
	}
}

func TestResizeKeepsOppositeEdge(t *testing.T) {
	orig := layout.Box{X: 100, Y: 100, W: 200, H: 100}

	got := Resize(orig, HandleLeft, 50, 0, TextLimits)
	assert.Equal(t, layout.Box{X: 150, Y: 100, W: 150, H: 100}, got)

	got = Resize(orig, HandleTop, 0, -30, TextLimits)
	assert.Equal(t, layout.Box{X: 100, Y: 70, W: 200, H: 130}, got)

	got = Resize(orig, HandleBottomRight, 10, 20, TextLimits)
	assert.Equal(t, layout.Box{X: 100, Y: 100, W: 210, H: 120}, got)
}

func TestResizeClampsSize(t *testing.T) {
	orig := layout.Box{X: 100, Y: 100, W: 200, H: 100}

	got := Resize(orig, HandleTopLeft, 1000, 1000, TextLimits)
	assert.Equal(t, 50.0, got.W)
	assert.Equal(t, 20.0, got.H)
	assert.Equal(t, 250.0, got.X)
	assert.Equal(t, 180.0, got.Y)

	got = Resize(orig, HandleBottomRight, 2000, 2000, TextLimits)
	assert.Equal(t, 800.0, got.W)
	assert.Equal(t, 400.0, got.H)

	got = Resize(orig, HandleRight, 1000, 0, ImageLimits)
	assert.Equal(t, 400.0, got.W)
}
