package layout

import (
	"image"
	"math"
)

// Box is an axis-aligned rectangle in fractional canvas units.
type Box struct {
	X, Y, W, H float64
}

// Scale multiplies every component by s.
func (b Box) Scale(s float64) Box {
	return Box{X: b.X * s, Y: b.Y * s, W: b.W * s, H: b.H * s}
}

// Translate moves the box by (dx, dy).
func (b Box) Translate(dx, dy float64) Box {
	b.X += dx
	b.Y += dy
	return b
}

// Inset shrinks b by p on all sides. The result never has a negative size.
func (b Box) Inset(p float64) Box {
	out := Box{X: b.X + p, Y: b.Y + p, W: b.W - 2*p, H: b.H - 2*p}
	if out.W < 0 {
		out.X += out.W / 2
		out.W = 0
	}
	if out.H < 0 {
		out.Y += out.H / 2
		out.H = 0
	}
	return out
}

func (b Box) Center() (float64, float64) {
	return b.X + b.W/2, b.Y + b.H/2
}

// Contains reports whether (x, y) lies inside b, edges included.
func (b Box) Contains(x, y float64) bool {
	return x >= b.X && x <= b.X+b.W && y >= b.Y && y <= b.Y+b.H
}

// Rect rounds b to integer pixel bounds.
func (b Box) Rect() image.Rectangle {
	return Normalize(image.Rect(
		int(math.Round(b.X)), int(math.Round(b.Y)),
		int(math.Round(b.X+b.W)), int(math.Round(b.Y+b.H)),
	))
}

// Contain returns the largest box with the aspect ratio srcW:srcH that fits
// inside box, centered in it.
func Contain(srcW, srcH int, box Box) Box {
	if srcW <= 0 || srcH <= 0 || box.W <= 0 || box.H <= 0 {
		return Box{X: box.X + box.W/2, Y: box.Y + box.H/2}
	}
	scale := math.Min(box.W/float64(srcW), box.H/float64(srcH))
	w := float64(srcW) * scale
	h := float64(srcH) * scale
	return Box{X: box.X + (box.W-w)/2, Y: box.Y + (box.H-h)/2, W: w, H: h}
}

// Inset shrinks rect by paddingPx on all sides.
func Inset(rect image.Rectangle, paddingPx int) image.Rectangle {
	if paddingPx <= 0 {
		return rect
	}
	out := image.Rect(rect.Min.X+paddingPx, rect.Min.Y+paddingPx, rect.Max.X-paddingPx, rect.Max.Y-paddingPx)
	return Normalize(out)
}

// Normalize ensures Min is <= Max on both axes.
func Normalize(rect image.Rectangle) image.Rectangle {
	if rect.Min.X > rect.Max.X {
		rect.Min.X, rect.Max.X = rect.Max.X, rect.Min.X
	}
	if rect.Min.Y > rect.Max.Y {
		rect.Min.Y, rect.Max.Y = rect.Max.Y, rect.Min.Y
	}
	return rect
}

// Letterbox returns the largest rectangle with aspect ratio w:h centered in
// rect.
func Letterbox(rect image.Rectangle, w, h int) image.Rectangle {
	rect = Normalize(rect)
	if w <= 0 || h <= 0 || rect.Empty() {
		return image.Rectangle{Min: rect.Min, Max: rect.Min}
	}
	outW := rect.Dx()
	outH := outW * h / w
	if outH > rect.Dy() {
		outH = rect.Dy()
		outW = outH * w / h
	}
	x := rect.Min.X + (rect.Dx()-outW)/2
	y := rect.Min.Y + (rect.Dy()-outH)/2
	return image.Rect(x, y, x+outW, y+outH)
}

// GridLines returns the offsets 0, step, 2*step, ... strictly below extent.
func GridLines(extent, step int) []int {
	if step <= 0 || extent <= 0 {
		return nil
	}
	out := make([]int, 0, extent/step+1)
	for v := 0; v < extent; v += step {
		out = append(out, v)
	}
	return out
}
