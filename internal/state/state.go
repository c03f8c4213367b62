package state

import (
	"sync"

	"github.com/rook-computer/certmaker/internal/document"
	"github.com/rook-computer/certmaker/internal/element"
)

type SelectionKind int

const (
	SelectNone SelectionKind = iota
	SelectText
	SelectImage
)

func (k SelectionKind) String() string {
	switch k {
	case SelectText:
		return "text"
	case SelectImage:
		return "image"
	}
	return "none"
}

// Selection names at most one element. A single value makes text and image
// selection mutually exclusive.
type Selection struct {
	Kind SelectionKind
	ID   string
}

// Change is a bit set describing which parts of State a mutation touched.
type Change uint16

const (
	ChangeData Change = 1 << iota
	ChangeElements
	ChangeImages
	ChangeBackground
	ChangeWatermark
	ChangeView
	ChangeSelection
)

// Persisted covers the changes that schedule an auto-save.
const Persisted = ChangeElements | ChangeImages | ChangeBackground | ChangeWatermark | ChangeView

func (c Change) Has(flags Change) bool { return c&flags != 0 }

type State struct {
	Data               element.CertificateData
	Elements           []element.TextElement
	Images             []element.ImageElement
	Background         *string
	BackgroundGradient *string
	Watermark          element.Watermark
	ShowGrid           bool
	ShowSafeMargins    bool
	Selection          Selection

	// Revision increases by one on every mutation.
	Revision uint64
}

// SelectedElement returns the selected text element, if it still exists.
func (s State) SelectedElement() (element.TextElement, bool) {
	if s.Selection.Kind != SelectText {
		return element.TextElement{}, false
	}
	for _, el := range s.Elements {
		if el.ID == s.Selection.ID {
			return el, true
		}
	}
	return element.TextElement{}, false
}

// SelectedImageElement returns the selected image element, if it still exists.
func (s State) SelectedImageElement() (element.ImageElement, bool) {
	if s.Selection.Kind != SelectImage {
		return element.ImageElement{}, false
	}
	for _, el := range s.Images {
		if el.ID == s.Selection.ID {
			return el, true
		}
	}
	return element.ImageElement{}, false
}

// Layout returns the persisted part of the state.
func (s State) Layout() document.Layout {
	return document.Layout{
		Elements:           s.Elements,
		Images:             s.Images,
		Background:         s.Background,
		BackgroundGradient: s.BackgroundGradient,
		Watermark:          s.Watermark,
		ShowGrid:           s.ShowGrid,
		ShowSafeMargins:    s.ShowSafeMargins,
	}
}

// Config serializes the state.
func (s State) Config() document.Config {
	return document.Serialize(s.Layout())
}

func (s State) clone() State {
	out := s
	out.Elements = element.CloneTexts(s.Elements)
	out.Images = element.CloneImages(s.Images)
	if s.Background != nil {
		out.Background = element.String(*s.Background)
	}
	if s.BackgroundGradient != nil {
		out.BackgroundGradient = element.String(*s.BackgroundGradient)
	}
	return out
}

// Confirmer answers a blocking yes/no prompt.
type Confirmer interface {
	Confirm(prompt string) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(prompt string) bool

func (f ConfirmFunc) Confirm(prompt string) bool { return f(prompt) }

// AlwaysConfirm accepts every prompt.
var AlwaysConfirm = ConfirmFunc(func(string) bool { return true })

const ResetPrompt = "Are you sure you want to reset everything? This action cannot be undone."

// Listener is called after a mutation with the flags it touched and the
// resulting snapshot. Listeners run outside the store lock.
type Listener func(change Change, snap State)

type Store struct {
	mu      sync.RWMutex
	state   State
	history *History

	listenersMu sync.RWMutex
	listeners   map[int]Listener
	nextID      int
}

func NewStore() *Store {
	layout := document.DefaultLayout()
	store := &Store{history: NewHistory(DefaultHistoryLimit), listeners: map[int]Listener{}}
	store.state = State{Data: element.DefaultData()}
	store.applyLayout(layout)
	return store
}

// Snapshot returns a deep copy of the current state.
func (store *Store) Snapshot() State {
	store.mu.RLock()
	defer store.mu.RUnlock()
	return store.state.clone()
}

// Subscribe registers l and returns a function removing it.
func (store *Store) Subscribe(l Listener) func() {
	store.listenersMu.Lock()
	id := store.nextID
	store.nextID++
	store.listeners[id] = l
	store.listenersMu.Unlock()
	return func() {
		store.listenersMu.Lock()
		delete(store.listeners, id)
		store.listenersMu.Unlock()
	}
}

// HistoryLen reports how many snapshots the history buffer holds.
func (store *Store) HistoryLen() int {
	store.mu.RLock()
	defer store.mu.RUnlock()
	return store.history.Len()
}

// mutate runs fn under the write lock, bumps the revision and notifies listeners.
func (store *Store) mutate(fn func(st *State) Change) {
	store.mu.Lock()
	change := fn(&store.state)
	if change == 0 {
		store.mu.Unlock()
		return
	}
	store.state.Revision++
	snap := store.state.clone()
	store.mu.Unlock()
	store.notify(change, snap)
}

func (store *Store) notify(change Change, snap State) {
	store.listenersMu.RLock()
	listeners := make([]Listener, 0, len(store.listeners))
	for _, l := range store.listeners {
		listeners = append(listeners, l)
	}
	store.listenersMu.RUnlock()
	for _, l := range listeners {
		l(change, snap)
	}
}

func (store *Store) applyLayout(l document.Layout) {
	store.state.Elements = element.CloneTexts(l.Elements)
	store.state.Images = element.CloneImages(l.Images)
	store.state.Background = l.Background
	store.state.BackgroundGradient = l.BackgroundGradient
	store.state.Watermark = l.Watermark
	store.state.ShowGrid = l.ShowGrid
	store.state.ShowSafeMargins = l.ShowSafeMargins
}

func (store *Store) SetData(data element.CertificateData) {
	store.mutate(func(st *State) Change {
		st.Data = data
		return ChangeData
	})
}

// UpdateElement replaces the element with the same id in place and selects it.
func (store *Store) UpdateElement(el element.TextElement) {
	el = el.Clone()
	store.mutate(func(st *State) Change {
		for i := range st.Elements {
			if st.Elements[i].ID == el.ID {
				st.Elements[i] = el
			}
		}
		st.Selection = Selection{Kind: SelectText, ID: el.ID}
		store.history.Push(st.Config())
		return ChangeElements | ChangeSelection
	})
}

// UpdateImageElement replaces the image with the same id in place and selects it.
func (store *Store) UpdateImageElement(el element.ImageElement) {
	el = el.Clone()
	store.mutate(func(st *State) Change {
		for i := range st.Images {
			if st.Images[i].ID == el.ID {
				st.Images[i] = el
			}
		}
		st.Selection = Selection{Kind: SelectImage, ID: el.ID}
		store.history.Push(st.Config())
		return ChangeImages | ChangeSelection
	})
}

// SelectElement selects el without checking that it exists.
func (store *Store) SelectElement(el element.TextElement) {
	store.mutate(func(st *State) Change {
		st.Selection = Selection{Kind: SelectText, ID: el.ID}
		return ChangeSelection
	})
}

// SelectImageElement selects el without checking that it exists.
func (store *Store) SelectImageElement(el element.ImageElement) {
	store.mutate(func(st *State) Change {
		st.Selection = Selection{Kind: SelectImage, ID: el.ID}
		return ChangeSelection
	})
}

// ClearSelection deselects everything.
func (store *Store) ClearSelection() {
	store.mutate(func(st *State) Change {
		st.Selection = Selection{}
		return ChangeSelection
	})
}

// DeleteElement removes the text element with id and clears any text selection.
func (store *Store) DeleteElement(id string) {
	store.mutate(func(st *State) Change {
		kept := st.Elements[:0:0]
		for _, el := range st.Elements {
			if el.ID != id {
				kept = append(kept, el)
			}
		}
		st.Elements = kept
		if st.Selection.Kind == SelectText {
			st.Selection = Selection{}
		}
		return ChangeElements | ChangeSelection
	})
}

// DeleteImageElement removes the image with id and clears any image selection.
func (store *Store) DeleteImageElement(id string) {
	store.mutate(func(st *State) Change {
		kept := st.Images[:0:0]
		for _, el := range st.Images {
			if el.ID != id {
				kept = append(kept, el)
			}
		}
		st.Images = kept
		if st.Selection.Kind == SelectImage {
			st.Selection = Selection{}
		}
		return ChangeImages | ChangeSelection
	})
}

// AddElement appends el on top of the existing text elements and selects it.
func (store *Store) AddElement(el element.TextElement) {
	el = el.Clone()
	store.mutate(func(st *State) Change {
		st.Elements = append(st.Elements, el)
		st.Selection = Selection{Kind: SelectText, ID: el.ID}
		return ChangeElements | ChangeSelection
	})
}

// AddImageElement appends el on top of the existing images and selects it.
func (store *Store) AddImageElement(el element.ImageElement) {
	el = el.Clone()
	store.mutate(func(st *State) Change {
		st.Images = append(st.Images, el)
		st.Selection = Selection{Kind: SelectImage, ID: el.ID}
		return ChangeImages | ChangeSelection
	})
}

// SetBackground replaces the background data URI; nil removes it.
func (store *Store) SetBackground(uri *string) {
	if uri != nil {
		uri = element.String(*uri)
	}
	store.mutate(func(st *State) Change {
		st.Background = uri
		return ChangeBackground
	})
}

func (store *Store) UpdateWatermark(w element.Watermark) {
	store.mutate(func(st *State) Change {
		st.Watermark = w
		return ChangeWatermark
	})
}

func (store *Store) ToggleGrid() {
	store.mutate(func(st *State) Change {
		st.ShowGrid = !st.ShowGrid
		return ChangeView
	})
}

func (store *Store) ToggleSafeMargins() {
	store.mutate(func(st *State) Change {
		st.ShowSafeMargins = !st.ShowSafeMargins
		return ChangeView
	})
}

// ResetLayout asks c for confirmation and, when granted, restores the default
// layout and clears the history. It reports whether the reset happened.
// The prompt is answered before the lock is taken.
func (store *Store) ResetLayout(c Confirmer) bool {
	if c == nil || !c.Confirm(ResetPrompt) {
		return false
	}
	store.mutate(func(st *State) Change {
		store.applyLayout(document.DefaultLayout())
		st.BackgroundGradient = nil
		st.Selection = Selection{}
		store.history.Clear()
		return Persisted | ChangeSelection
	})
	return true
}

// CurrentConfig serializes the current state.
func (store *Store) CurrentConfig() document.Config {
	store.mu.RLock()
	defer store.mu.RUnlock()
	return store.state.Config()
}

// LoadConfig replaces the layout with cfg and clears the selection.
func (store *Store) LoadConfig(cfg document.Config) {
	cfg = cfg.Clone()
	store.mutate(func(st *State) Change {
		store.applyLayout(document.Deserialize(cfg, st.Layout()))
		st.Selection = Selection{}
		return Persisted | ChangeSelection
	})
}
