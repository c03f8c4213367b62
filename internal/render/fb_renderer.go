package render

import (
	"context"
	"image"
	"image/color"
	"image/draw"
	"math"
	"sync/atomic"
	"time"

	fb "github.com/gonutz/framebuffer"
	xdraw "golang.org/x/image/draw"

	"github.com/rook-computer/certmaker/internal/render/layout"
	"github.com/rook-computer/certmaker/internal/state"
)

const (
	DefaultDevice = "/dev/fb0"
	DefaultFPS    = 30
)

// FBRenderer shows the live canvas on the Linux framebuffer. Frames are
// rasterized at the scale that fills the screen and letterboxed.
type FBRenderer struct {
	Device string
	FPS    int
	Raster *Rasterizer
	// Canvas supplies the fullscreen flag and in-flight gestures. Optional.
	Canvas *Canvas
	Logger Logger
	Debug  bool

	fbDev   *fb.Device
	screen  *image.RGBA
	running atomic.Bool
	drawn   struct {
		ok       bool
		revision uint64
		version  uint64
	}
}

func NewFBRenderer(raster *Rasterizer, canvas *Canvas) *FBRenderer {
	return &FBRenderer{Device: DefaultDevice, FPS: DefaultFPS, Raster: raster, Canvas: canvas}
}

func (r *FBRenderer) logger() Logger {
	if r.Logger == nil {
		return noopLogger{}
	}
	return r.Logger
}

func (r *FBRenderer) Start(ctx context.Context) error {
	if r.Device == "" {
		r.Device = DefaultDevice
	}
	dev, err := fb.Open(r.Device)
	if err != nil {
		return err
	}
	r.fbDev = dev
	bounds := dev.Bounds()
	r.logger().Infof("fb", "framebuffer open, bounds=%dx%d", bounds.Dx(), bounds.Dy())

	r.screen = image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	if r.Raster == nil {
		r.Raster = NewRasterizer()
	}
	r.running.Store(true)
	return nil
}

func (r *FBRenderer) Stop() error {
	r.running.Store(false)
	if r.fbDev != nil {
		r.fbDev.Close()
	}
	return nil
}

// RedrawWithState composes and blits one frame.
func (r *FBRenderer) RedrawWithState(snap state.State) {
	if !r.running.Load() || r.fbDev == nil {
		return
	}
	fullscreen := false
	frame := BuildFrame(snap)
	if r.Canvas != nil {
		r.Canvas.Overlay(&frame)
		fullscreen = r.Canvas.Fullscreen()
	}
	if err := r.compose(frame, fullscreen); err != nil {
		r.logger().Errorf("fb", "compose: %v", err)
		return
	}
	blitToFB(r.fbDev, r.screen)
	if r.Debug {
		r.logger().Infof("fb", "redraw done, revision=%d", snap.Revision)
	}
}

// compose draws frame into r.screen: the canvas letterboxed on a light page,
// or edge to edge on a dark page when fullscreen.
func (r *FBRenderer) compose(frame Frame, fullscreen bool) error {
	page := r.screen.Bounds()
	bg := PreviewBackground
	area := page
	if fullscreen {
		bg = FullscreenBackground
	} else {
		area = layout.Inset(page, PreviewPadding)
	}
	target := layout.Letterbox(area, CanvasWidth, CanvasHeight)
	draw.Draw(r.screen, page, &image.Uniform{C: bg}, image.Point{}, draw.Src)
	if target.Empty() {
		return nil
	}

	scale := math.Min(float64(target.Dx())/CanvasWidth, MaxScale)
	img, err := r.Raster.Render(frame, PreviewOptions(scale))
	if err != nil {
		return err
	}
	xdraw.ApproxBiLinear.Scale(r.screen, target, img, img.Bounds(), xdraw.Src, nil)
	return nil
}

// RunLoop polls the store at FPS and redraws when the revision or the
// gesture overlay changed.
func (r *FBRenderer) RunLoop(ctx context.Context, store *state.Store) {
	fps := r.FPS
	if fps <= 0 {
		fps = DefaultFPS
	}
	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()
	lastLog := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			snap := store.Snapshot()
			var version uint64
			if r.Canvas != nil {
				version = r.Canvas.Version()
			}
			if r.drawn.ok && r.drawn.revision == snap.Revision && r.drawn.version == version {
				continue
			}
			r.RedrawWithState(snap)
			r.drawn.ok = true
			r.drawn.revision = snap.Revision
			r.drawn.version = version
			if r.Debug && time.Since(lastLog) > time.Second {
				r.logger().Infof("fb", "heartbeat frame, revision=%d", snap.Revision)
				lastLog = time.Now()
			}
		}
	}
}

// blitToFB copies the composed screen to the framebuffer pixel by pixel.
func blitToFB(dev *fb.Device, screen *image.RGBA) {
	if dev == nil {
		return
	}
	bounds := dev.Bounds()
	src := screen.Bounds()
	for y := 0; y < bounds.Dy() && y < src.Dy(); y++ {
		for x := 0; x < bounds.Dx() && x < src.Dx(); x++ {
			pixel := screen.RGBAAt(x, y)
			dev.Set(bounds.Min.X+x, bounds.Min.Y+y, color.RGBA{R: pixel.R, G: pixel.G, B: pixel.B, A: 0xFF})
		}
	}
}
