package layout

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContainKeepsAspectAndCenters(t *testing.T) {
	got := Contain(4000, 2000, Box{X: 50, Y: 50, W: 100, H: 100})
	assert.Equal(t, Box{X: 50, Y: 75, W: 100, H: 50}, got)

	got = Contain(10, 40, Box{W: 100, H: 100})
	assert.Equal(t, Box{X: 37.5, Y: 0, W: 25, H: 100}, got)

	assert.Equal(t, 0.0, Contain(0, 10, Box{W: 10, H: 10}).W)
}

func TestBoxInsetNeverNegative(t *testing.T) {
	b := Box{X: 10, Y: 10, W: 10, H: 40}.Inset(8)
	assert.Equal(t, 0.0, b.W)
	assert.Equal(t, 15.0, b.X)
	assert.Equal(t, 24.0, b.H)
}

func TestBoxContainsAndRect(t *testing.T) {
	b := Box{X: 1.4, Y: 2.6, W: 10, H: 5}
	assert.True(t, b.Contains(1.4, 2.6))
	assert.True(t, b.Contains(11.4, 7.6))
	assert.False(t, b.Contains(11.5, 5))
	assert.Equal(t, image.Rect(1, 3, 11, 8), b.Rect())
}

func TestLetterbox(t *testing.T) {
	assert.Equal(t, image.Rect(0, 0, 1682, 1190), Letterbox(image.Rect(0, 0, 1682, 1190), 841, 595))
	wide := Letterbox(image.Rect(0, 0, 1920, 1080), 841, 595)
	assert.Equal(t, 1080, wide.Dy())
	assert.InDelta(t, 1920/2, (wide.Min.X+wide.Max.X)/2, 1)
}

func TestGridLines(t *testing.T) {
	assert.Equal(t, []int{0, 20, 40}, GridLines(60, 20))
	assert.Len(t, GridLines(841, 20), 43)
	assert.Nil(t, GridLines(100, 0))
}

func TestInsetNormalizes(t *testing.T) {
	r := Inset(image.Rect(0, 0, 10, 10), 8)
	assert.Equal(t, image.Rect(2, 2, 8, 8), r)
}
