package render

import (
	"github.com/rook-computer/certmaker/internal/element"
	"github.com/rook-computer/certmaker/internal/render/layout"
	"github.com/rook-computer/certmaker/internal/state"
)

// TextItem is a text element with its display text resolved.
type TextItem struct {
	Element  element.TextElement
	Text     string
	Selected bool
}

func (t TextItem) Box() layout.Box {
	return layout.Box{X: t.Element.X, Y: t.Element.Y, W: t.Element.Width, H: t.Element.Height}
}

type ImageItem struct {
	Element  element.ImageElement
	Selected bool
}

func (i ImageItem) Box() layout.Box {
	return layout.Box{X: i.Element.X, Y: i.Element.Y, W: i.Element.Width, H: i.Element.Height}
}

// Frame is everything needed to draw one picture of the canvas. Texts are
// drawn first, then images, each in collection order.
type Frame struct {
	Texts              []TextItem
	Images             []ImageItem
	Background         *string
	BackgroundGradient *string
	Watermark          element.Watermark
	ShowGrid           bool
	ShowSafeMargins    bool
	Revision           uint64
}

// BuildFrame projects a store snapshot onto a Frame.
func BuildFrame(s state.State) Frame {
	f := Frame{
		Texts:              make([]TextItem, 0, len(s.Elements)),
		Images:             make([]ImageItem, 0, len(s.Images)),
		Background:         s.Background,
		BackgroundGradient: s.BackgroundGradient,
		Watermark:          s.Watermark,
		ShowGrid:           s.ShowGrid,
		ShowSafeMargins:    s.ShowSafeMargins,
		Revision:           s.Revision,
	}
	for _, el := range s.Elements {
		f.Texts = append(f.Texts, TextItem{
			Element:  el,
			Text:     el.Source().Resolve(s.Data),
			Selected: s.Selection.Kind == state.SelectText && s.Selection.ID == el.ID,
		})
	}
	for _, el := range s.Images {
		f.Images = append(f.Images, ImageItem{
			Element:  el,
			Selected: s.Selection.Kind == state.SelectImage && s.Selection.ID == el.ID,
		})
	}
	return f
}

// TextByID returns the text item with id.
func (f Frame) TextByID(id string) (TextItem, bool) {
	for _, t := range f.Texts {
		if t.Element.ID == id {
			return t, true
		}
	}
	return TextItem{}, false
}

// Selected returns the box of the selected item, if any.
func (f Frame) Selected() (layout.Box, bool) {
	for _, t := range f.Texts {
		if t.Selected {
			return t.Box(), true
		}
	}
	for _, i := range f.Images {
		if i.Selected {
			return i.Box(), true
		}
	}
	return layout.Box{}, false
}

// Hit identifies the element under a point.
type Hit struct {
	Kind state.SelectionKind
	ID   string
	Box  layout.Box
}

// HitTest returns the topmost element whose box contains (x, y).
// Rotation is ignored; the box is what the pointer grabs.
func (f Frame) HitTest(x, y float64) (Hit, bool) {
	for i := len(f.Images) - 1; i >= 0; i-- {
		if b := f.Images[i].Box(); b.Contains(x, y) {
			return Hit{Kind: state.SelectImage, ID: f.Images[i].Element.ID, Box: b}, true
		}
	}
	for i := len(f.Texts) - 1; i >= 0; i-- {
		if b := f.Texts[i].Box(); b.Contains(x, y) {
			return Hit{Kind: state.SelectText, ID: f.Texts[i].Element.ID, Box: b}, true
		}
	}
	return Hit{}, false
}
