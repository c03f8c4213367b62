package render

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"strings"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"golang.org/x/image/font"

	"github.com/rook-computer/certmaker/internal/assets"
	"github.com/rook-computer/certmaker/internal/codec"
	"github.com/rook-computer/certmaker/internal/element"
	"github.com/rook-computer/certmaker/internal/render/layout"
)

// MaxScale bounds the raster size; 8x is already 6728x4760 pixels.
const MaxScale = 8

var ErrInvalidScale = errors.New("invalid raster scale")

// Options control what a raster includes.
type Options struct {
	Scale float64
	// Guides draws the grid, center and safe margin guides the frame asks for.
	Guides bool
	// Selection draws the selection ring and resize handles.
	Selection bool
}

// PreviewOptions is what the live canvas shows.
func PreviewOptions(scale float64) Options {
	return Options{Scale: scale, Guides: true, Selection: true}
}

// ExportOptions omits every editing affordance.
func ExportOptions(scale float64) Options {
	return Options{Scale: scale}
}

const maxDecodedImages = 32

// Rasterizer draws frames into RGBA images. It is safe for concurrent use;
// decoded images are shared between calls.
type Rasterizer struct {
	Logger Logger

	mu      sync.Mutex
	decoded map[string]image.Image
}

func NewRasterizer() *Rasterizer {
	return &Rasterizer{Logger: noopLogger{}, decoded: map[string]image.Image{}}
}

func (r *Rasterizer) logger() Logger {
	if r.Logger == nil {
		return noopLogger{}
	}
	return r.Logger
}

// decode turns a data URI into an image, caching the result.
func (r *Rasterizer) decode(src string) (image.Image, error) {
	r.mu.Lock()
	if img, ok := r.decoded[src]; ok {
		r.mu.Unlock()
		return img, nil
	}
	r.mu.Unlock()

	img, err := codec.DecodeImage(src)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.decoded == nil || len(r.decoded) >= maxDecodedImages {
		r.decoded = map[string]image.Image{}
	}
	r.decoded[src] = img
	return img, nil
}

// Render draws f at opts.Scale. Elements whose image cannot be decoded are
// skipped and logged; only an unusable scale is an error.
func (r *Rasterizer) Render(f Frame, opts Options) (*image.RGBA, error) {
	s := opts.Scale
	if s <= 0 || s > MaxScale || math.IsNaN(s) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidScale, s)
	}
	w := max(1, int(math.Round(CanvasWidth*s)))
	h := max(1, int(math.Round(CanvasHeight*s)))
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	dc := gg.NewContextForRGBA(img)
	faces := assets.NewFaceCache()
	defer faces.Close()

	dc.SetColor(color.White)
	dc.Clear()
	r.drawBackground(dc, f, w, h)

	if opts.Guides {
		if f.ShowGrid {
			drawGrid(img, s)
			drawCenterGuides(dc, s)
		}
		if f.ShowSafeMargins {
			drawSafeMargin(dc, s)
		}
	}
	for _, t := range f.Texts {
		if err := r.drawText(dc, faces, t, s); err != nil {
			r.logger().Errorf("render", "text %s: %v", t.Element.ID, err)
		}
	}
	for _, it := range f.Images {
		if err := r.drawImage(dc, it, s); err != nil {
			r.logger().Errorf("render", "image %s: %v", it.Element.ID, err)
		}
	}
	if err := drawWatermark(dc, faces, f.Watermark, w, h, s); err != nil {
		r.logger().Errorf("render", "watermark: %v", err)
	}
	if opts.Selection {
		if box, ok := f.Selected(); ok {
			drawSelection(dc, box, s)
		}
	}
	return img, nil
}

func (r *Rasterizer) drawBackground(dc *gg.Context, f Frame, w, h int) {
	if f.Background != nil {
		bg, err := r.decode(*f.Background)
		if err == nil {
			dc.DrawImage(imaging.Fill(bg, w, h, imaging.Center, imaging.Lanczos), 0, 0)
			return
		}
		r.logger().Errorf("render", "background image: %v", err)
	}
	g := DefaultGradient
	if f.BackgroundGradient != nil {
		parsed, err := ParseGradient(*f.BackgroundGradient)
		if err == nil {
			g = parsed
		} else {
			r.logger().Errorf("render", "background gradient: %v", err)
		}
	}
	x0, y0, x1, y1 := g.Line(float64(w), float64(h))
	grad := gg.NewLinearGradient(x0, y0, x1, y1)
	for _, stop := range g.Stops {
		grad.AddColorStop(stop.Offset, stop.Color)
	}
	dc.SetFillStyle(grad)
	dc.DrawRectangle(0, 0, float64(w), float64(h))
	dc.Fill()
}

// hairline rounds a scaled box to pixels, keeping at least one pixel of width
// and height.
func hairline(b layout.Box) image.Rectangle {
	r := b.Rect()
	if r.Dx() == 0 {
		r.Max.X++
	}
	if r.Dy() == 0 {
		r.Max.Y++
	}
	return r
}

// drawGrid draws opaque 1px lines on a layer and composites it once, so the
// crossings are not darker than the lines.
func drawGrid(dst *image.RGBA, s float64) {
	layer := image.NewRGBA(dst.Bounds())
	src := image.NewUniform(GridColor)
	for _, x := range layout.GridLines(CanvasWidth, GridSpacing) {
		r := hairline(layout.Box{X: float64(x), W: 1, H: CanvasHeight}.Scale(s))
		draw.Draw(layer, r, src, image.Point{}, draw.Src)
	}
	for _, y := range layout.GridLines(CanvasHeight, GridSpacing) {
		r := hairline(layout.Box{Y: float64(y), W: CanvasWidth, H: 1}.Scale(s))
		draw.Draw(layer, r, src, image.Point{}, draw.Src)
	}
	mask := image.NewUniform(color.Alpha{A: uint8(math.Round(GridOpacity * 255))})
	draw.DrawMask(dst, dst.Bounds(), layer, image.Point{}, mask, image.Point{}, draw.Over)
}

func drawCenterGuides(dc *gg.Context, s float64) {
	dc.SetColor(CenterGuideColor)
	v := layout.Box{X: CanvasWidth/2.0 - 1, W: 1, H: CanvasHeight}.Scale(s)
	hz := layout.Box{Y: CanvasHeight/2.0 - 1, W: CanvasWidth, H: 1}.Scale(s)
	for _, b := range []layout.Box{v, hz} {
		dc.DrawRectangle(b.X, b.Y, math.Max(1, b.W), math.Max(1, b.H))
		dc.Fill()
	}
}

func drawSafeMargin(dc *gg.Context, s float64) {
	border := float64(SafeMarginBorder)
	// The border sits inside the inset rectangle, so its stroke center is
	// half a border further in.
	b := layout.Box{W: CanvasWidth, H: CanvasHeight}.Inset(SafeMarginInset + border/2).Scale(s)
	dc.Push()
	defer dc.Pop()
	dc.SetColor(SafeMarginColor)
	dc.SetLineWidth(border * s)
	dc.SetDash(3*border*s, 2*border*s)
	dc.DrawRectangle(b.X, b.Y, b.W, b.H)
	dc.Stroke()
}

func (r *Rasterizer) drawText(dc *gg.Context, faces *assets.FaceCache, t TextItem, s float64) error {
	el := t.Element
	size := bounded(el.FontSize, MaxFontSize) * s
	if size == 0 {
		return nil
	}
	face, err := faces.Face(assets.VariantFor(el.FontFamily, el.FontWeight, el.FontStyle), size)
	if err != nil {
		return err
	}
	spacing := element.ValueOr(el.LetterSpacing, 0) * s
	lineHeight := element.ValueOr(el.LineHeight, DefaultLineHeight) * size
	box := t.Box().Scale(s)
	inner := box.Inset(TextPadding * s)
	block := layoutBlock(face, t.Text, inner.X, inner.Y, inner.W, inner.H, lineHeight, spacing, el.TextAlign)
	if len(block.lines) == 0 {
		return nil
	}

	opacity := element.ValueOr(el.Opacity, 1)
	deg := element.ValueOr(el.Rotation, 0)
	cx, cy := box.Center()

	if el.TextShadow != nil {
		if sh, ok := ParseShadow(*el.TextShadow); ok {
			col := withOpacity(sh.Color, opacity)
			if sh.Blur > 0 {
				drawBlurredShadow(dc, face, block, spacing, col, deg, box, sh, s)
			} else {
				drawBlock(dc, face, block, spacing, col, deg, cx, cy, sh.DX*s, sh.DY*s)
			}
		}
	}
	col := withOpacity(colorOr(el.Color, color.NRGBA{A: 0xff}), opacity)
	drawBlock(dc, face, block, spacing, col, deg, cx, cy, 0, 0)
	return nil
}

// bounded limits a style value to (0, hi]; anything else, NaN included, is 0.
func bounded(v, hi float64) float64 {
	if !(v > 0) {
		return 0
	}
	return math.Min(v, hi)
}

// maxBlurSigma is the largest sigma blurred at full resolution. Wider blurs
// run on a downscaled layer, which keeps the kernel small.
const maxBlurSigma = 8.0

func blurLayer(img image.Image, sigma float64) image.Image {
	if sigma <= maxBlurSigma {
		return imaging.Blur(img, sigma)
	}
	k := sigma / maxBlurSigma
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	small := imaging.Resize(img, max(1, int(float64(w)/k)), max(1, int(float64(h)/k)), imaging.Linear)
	return imaging.Resize(imaging.Blur(small, maxBlurSigma), w, h, imaging.Linear)
}

// drawBlurredShadow renders the shadow on a layer around the element, blurs
// it and composites the layer. A CSS blur radius is about two sigmas.
func drawBlurredShadow(dc *gg.Context, face font.Face, block textBlock, spacing float64, col color.NRGBA, deg float64, box layout.Box, sh Shadow, s float64) {
	sigma := bounded(sh.Blur, MaxShadowBlur) * s / 2
	cx, cy := box.Center()
	reach := math.Hypot(box.W, box.H)/2 + math.Hypot(sh.DX, sh.DY)*s + 3*sigma + float64(face.Metrics().Height)/64
	region := image.Rect(int(cx-reach), int(cy-reach), int(math.Ceil(cx+reach)), int(math.Ceil(cy+reach)))
	region = region.Intersect(image.Rect(0, 0, dc.Width(), dc.Height()))
	if region.Empty() {
		return
	}
	layer := gg.NewContext(region.Dx(), region.Dy())
	layer.Translate(-float64(region.Min.X), -float64(region.Min.Y))
	drawBlock(layer, face, block, spacing, col, deg, cx, cy, sh.DX*s, sh.DY*s)
	dc.DrawImage(blurLayer(layer.Image(), sigma), region.Min.X, region.Min.Y)
}

func (r *Rasterizer) drawImage(dc *gg.Context, it ImageItem, s float64) error {
	el := it.Element
	src, err := r.decode(el.Src)
	if err != nil {
		return err
	}
	fit := layout.Contain(src.Bounds().Dx(), src.Bounds().Dy(), it.Box().Scale(s))
	w, h := int(math.Round(fit.W)), int(math.Round(fit.H))
	if w < 1 || h < 1 {
		return nil
	}
	img := imaging.Resize(src, w, h, imaging.Lanczos)
	if opacity := element.ValueOr(el.Opacity, 1); opacity < 1 {
		scaleAlpha(img, opacity)
	}
	if deg := element.ValueOr(el.Rotation, 0); deg != 0 {
		// imaging rotates counter-clockwise; CSS rotation is clockwise.
		img = imaging.Rotate(img, -deg, color.Transparent)
	}
	cx, cy := fit.Center()
	dc.DrawImageAnchored(img, int(math.Round(cx)), int(math.Round(cy)), 0.5, 0.5)
	return nil
}

func scaleAlpha(img *image.NRGBA, opacity float64) {
	opacity = math.Max(0, math.Min(1, opacity))
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = uint8(math.Round(float64(img.Pix[i]) * opacity))
	}
}

func drawWatermark(dc *gg.Context, faces *assets.FaceCache, wm element.Watermark, w, h int, s float64) error {
	text := strings.ToUpper(strings.TrimSpace(wm.Text))
	if !wm.Enabled || text == "" {
		return nil
	}
	size := bounded(wm.FontSize, MaxFontSize) * s
	if size == 0 {
		return nil
	}
	face, err := faces.Face(assets.Bold, size)
	if err != nil {
		return err
	}
	spacing := WatermarkTracking * size
	cx, cy := float64(w)/2, float64(h)/2
	// One line, centered; it may run past the canvas edges.
	m := face.Metrics()
	ascent, descent := float64(m.Ascent)/64, float64(m.Descent)/64
	block := textBlock{
		lines:     []string{text},
		xs:        []float64{cx - lineWidth(face, text, spacing)/2},
		baselines: []float64{cy + (ascent-descent)/2},
	}
	col := withOpacity(colorOr(wm.Color, color.NRGBA{A: 0xff}), wm.Opacity)
	drawBlock(dc, face, block, spacing, col, wm.Rotation, cx, cy, 0, 0)
	return nil
}

func drawSelection(dc *gg.Context, box layout.Box, s float64) {
	ring := float64(SelectionRing)
	outer := box.Inset(-ring / 2).Scale(s)
	dc.Push()
	defer dc.Pop()
	dc.SetColor(SelectionColor)
	dc.SetLineWidth(ring * s)
	dc.DrawRectangle(outer.X, outer.Y, outer.W, outer.H)
	dc.Stroke()

	dc.SetColor(HandleColor)
	for _, hd := range Handles(box) {
		b := hd.Box.Scale(s)
		if hd.Kind.corner() {
			cx, cy := b.Center()
			dc.DrawCircle(cx, cy, b.W/2)
		} else {
			dc.DrawRectangle(b.X, b.Y, b.W, b.H)
		}
		dc.Fill()
	}
}
