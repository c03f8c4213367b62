package render

import (
	"fmt"
	"math"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/rook-computer/certmaker/internal/element"
	"github.com/rook-computer/certmaker/internal/render/layout"
	"github.com/rook-computer/certmaker/internal/state"
)

type PointerKind string

const (
	PointerDown PointerKind = "down"
	PointerMove PointerKind = "move"
	PointerUp   PointerKind = "up"
	DoubleClick PointerKind = "dblclick"
)

// PointerEvent is a pointer action in canvas coordinates.
type PointerEvent struct {
	Kind PointerKind `json:"kind"`
	X    float64     `json:"x"`
	Y    float64     `json:"y"`
}

func (e PointerEvent) Validate() error {
	switch e.Kind {
	case PointerDown, PointerMove, PointerUp, DoubleClick:
	default:
		return fmt.Errorf("unknown pointer kind %q", e.Kind)
	}
	if math.IsNaN(e.X) || math.IsNaN(e.Y) || math.IsInf(e.X, 0) || math.IsInf(e.Y, 0) {
		return fmt.Errorf("pointer position must be finite")
	}
	return nil
}

type gestureMode int

const (
	gestureDrag gestureMode = iota
	gestureResize
)

type gesture struct {
	mode   gestureMode
	handle HandleKind
	hit    Hit
	startX float64
	startY float64
	box    layout.Box
}

// Canvas turns pointer events into store mutations: press selects and starts
// a drag or a resize, release commits, double-click on empty canvas adds a
// custom text element. Moves only update the in-flight box, which Overlay
// applies to frames for the preview.
type Canvas struct {
	store *state.Store
	// NewID generates ids for elements added by double-click.
	NewID func() string

	mu         sync.Mutex
	active     *gesture
	version    atomic.Uint64
	fullscreen atomic.Bool
}

func NewCanvas(store *state.Store) *Canvas {
	return &Canvas{store: store, NewID: func() string { return "custom-" + uuid.NewString() }}
}

// Dispatch handles one pointer event.
func (c *Canvas) Dispatch(ev PointerEvent) error {
	if err := ev.Validate(); err != nil {
		return err
	}
	switch ev.Kind {
	case PointerDown:
		c.down(ev.X, ev.Y)
	case PointerMove:
		c.move(ev.X, ev.Y)
	case PointerUp:
		c.up(ev.X, ev.Y)
	case DoubleClick:
		c.doubleClick(ev.X, ev.Y)
	}
	return nil
}

func (c *Canvas) down(x, y float64) {
	snap := c.store.Snapshot()
	frame := BuildFrame(snap)

	var g *gesture
	if box, ok := frame.Selected(); ok {
		if h, ok := HandleAt(box, x, y); ok {
			hit := Hit{Kind: snap.Selection.Kind, ID: snap.Selection.ID, Box: box}
			g = &gesture{mode: gestureResize, handle: h, hit: hit, startX: x, startY: y, box: box}
		}
	}
	if g == nil {
		if hit, ok := frame.HitTest(x, y); ok {
			g = &gesture{mode: gestureDrag, hit: hit, startX: x, startY: y, box: hit.Box}
		}
	}

	c.mu.Lock()
	c.active = g
	c.version.Add(1)
	c.mu.Unlock()

	if g != nil && g.mode == gestureDrag {
		c.selectHit(g.hit)
	}
}

func (c *Canvas) selectHit(hit Hit) {
	switch hit.Kind {
	case state.SelectText:
		c.store.SelectElement(element.TextElement{ID: hit.ID})
	case state.SelectImage:
		c.store.SelectImageElement(element.ImageElement{ID: hit.ID})
	}
}

func limitsFor(kind state.SelectionKind) Limits {
	if kind == state.SelectImage {
		return ImageLimits
	}
	return TextLimits
}

func (g *gesture) track(x, y float64) {
	dx, dy := x-g.startX, y-g.startY
	switch g.mode {
	case gestureDrag:
		g.box = g.hit.Box.Translate(dx, dy)
	case gestureResize:
		g.box = Resize(g.hit.Box, g.handle, dx, dy, limitsFor(g.hit.Kind))
	}
}

func (c *Canvas) move(x, y float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == nil {
		return
	}
	c.active.track(x, y)
	c.version.Add(1)
}

func (c *Canvas) up(x, y float64) {
	c.mu.Lock()
	g := c.active
	c.active = nil
	if g != nil {
		g.track(x, y)
		c.version.Add(1)
	}
	c.mu.Unlock()

	if g == nil || g.box == g.hit.Box {
		return
	}
	c.commit(g)
}

// commit writes the final geometry. Dragging clamps the top-left corner to
// the canvas' non-negative quadrant; resizing also enforces the minimum size.
func (c *Canvas) commit(g *gesture) {
	b := g.box
	b.X = math.Max(0, b.X)
	b.Y = math.Max(0, b.Y)
	if g.mode == gestureResize {
		l := limitsFor(g.hit.Kind)
		b.W = math.Max(l.MinW, b.W)
		b.H = math.Max(l.MinH, b.H)
	}

	snap := c.store.Snapshot()
	switch g.hit.Kind {
	case state.SelectText:
		for _, el := range snap.Elements {
			if el.ID == g.hit.ID {
				el.X, el.Y, el.Width, el.Height = b.X, b.Y, b.W, b.H
				c.store.UpdateElement(el)
				return
			}
		}
	case state.SelectImage:
		for _, el := range snap.Images {
			if el.ID == g.hit.ID {
				el.X, el.Y, el.Width, el.Height = b.X, b.Y, b.W, b.H
				c.store.UpdateImageElement(el)
				return
			}
		}
	}
}

func (c *Canvas) doubleClick(x, y float64) {
	frame := BuildFrame(c.store.Snapshot())
	if hit, ok := frame.HitTest(x, y); ok {
		c.selectHit(hit)
		return
	}
	c.store.AddElement(element.NewCustomText(c.NewID(), x, y))
}

// Overlay moves the element being dragged or resized to its in-flight box.
func (c *Canvas) Overlay(f *Frame) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == nil {
		return
	}
	g := c.active
	switch g.hit.Kind {
	case state.SelectText:
		for i := range f.Texts {
			if f.Texts[i].Element.ID == g.hit.ID {
				e := &f.Texts[i].Element
				e.X, e.Y, e.Width, e.Height = g.box.X, g.box.Y, g.box.W, g.box.H
			}
		}
	case state.SelectImage:
		for i := range f.Images {
			if f.Images[i].Element.ID == g.hit.ID {
				e := &f.Images[i].Element
				e.X, e.Y, e.Width, e.Height = g.box.X, g.box.Y, g.box.W, g.box.H
			}
		}
	}
}

// Active reports the in-flight box, if a gesture is running.
func (c *Canvas) Active() (layout.Box, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == nil {
		return layout.Box{}, false
	}
	return c.active.box, true
}

// Version changes whenever the gesture overlay changes.
func (c *Canvas) Version() uint64 { return c.version.Load() }

// ToggleFullscreen flips the preview presentation. The layout is untouched.
func (c *Canvas) ToggleFullscreen() bool {
	for {
		old := c.fullscreen.Load()
		if c.fullscreen.CompareAndSwap(old, !old) {
			c.version.Add(1)
			return !old
		}
	}
}

func (c *Canvas) Fullscreen() bool { return c.fullscreen.Load() }
