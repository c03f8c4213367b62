package state

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rook-computer/certmaker/internal/document"
	"github.com/rook-computer/certmaker/internal/element"
)

func countIDs(els []element.TextElement) map[string]int {
	out := map[string]int{}
	for _, el := range els {
		out[el.ID]++
	}
	return out
}

func TestNewStoreStartsFromDefaults(t *testing.T) {
	store := NewStore()
	snap := store.Snapshot()

	assert.Equal(t, element.DefaultElements(), snap.Elements)
	assert.Empty(t, snap.Images)
	assert.Nil(t, snap.Background)
	assert.True(t, snap.ShowGrid)
	assert.True(t, snap.ShowSafeMargins)
	assert.Equal(t, SelectNone, snap.Selection.Kind)
	assert.Equal(t, element.Today(), snap.Data.Date)
}

func TestAddAndDeleteKeepOtherElements(t *testing.T) {
	store := NewStore()
	before := countIDs(store.Snapshot().Elements)

	custom := element.NewCustomText("custom-1", 300, 200)
	store.AddElement(custom)
	snap := store.Snapshot()
	after := countIDs(snap.Elements)
	assert.Equal(t, 1, after["custom-1"])
	for id, n := range before {
		assert.Equal(t, n, after[id], id)
	}
	assert.Equal(t, Selection{Kind: SelectText, ID: "custom-1"}, snap.Selection)
	assert.Equal(t, custom, snap.Elements[len(snap.Elements)-1])

	store.DeleteElement("custom-1")
	assert.Equal(t, before, countIDs(store.Snapshot().Elements))
	assert.Equal(t, SelectNone, store.Snapshot().Selection.Kind)
}

func TestSelectionIsExclusive(t *testing.T) {
	store := NewStore()
	logo := element.FromPreset(element.LogoPreset, "logo-1", "data:image/png;base64,AA")
	store.AddImageElement(logo)
	assert.Equal(t, SelectImage, store.Snapshot().Selection.Kind)

	title := store.Snapshot().Elements[0]
	store.SelectElement(title)
	snap := store.Snapshot()
	assert.Equal(t, Selection{Kind: SelectText, ID: title.ID}, snap.Selection)
	_, ok := snap.SelectedImageElement()
	assert.False(t, ok)

	store.SelectImageElement(logo)
	snap = store.Snapshot()
	_, ok = snap.SelectedElement()
	assert.False(t, ok)
	got, ok := snap.SelectedImageElement()
	require.True(t, ok)
	assert.Equal(t, "logo-1", got.ID)
}

func TestDeleteClearsOnlySameKindSelection(t *testing.T) {
	store := NewStore()
	store.AddImageElement(element.FromPreset(element.LogoPreset, "logo-1", "data:x"))
	store.DeleteElement("title")
	assert.Equal(t, SelectImage, store.Snapshot().Selection.Kind)

	store.DeleteImageElement("logo-1")
	assert.Equal(t, SelectNone, store.Snapshot().Selection.Kind)
	assert.Empty(t, store.Snapshot().Images)
}

func TestUpdateElementReplacesInPlaceAndPushesHistory(t *testing.T) {
	store := NewStore()
	el := store.Snapshot().Elements[2]
	el.X = 12
	el.Opacity = element.Float(0.4)

	store.UpdateElement(el)
	snap := store.Snapshot()
	assert.Equal(t, el, snap.Elements[2])
	assert.Equal(t, Selection{Kind: SelectText, ID: el.ID}, snap.Selection)
	assert.Equal(t, 1, store.HistoryLen())

	*el.Opacity = 0.9
	assert.Equal(t, 0.4, *store.Snapshot().Elements[2].Opacity)
}

func TestUpdateUnknownElementStillSelects(t *testing.T) {
	store := NewStore()
	before := store.Snapshot().Elements
	store.UpdateElement(element.TextElement{ID: "ghost"})
	snap := store.Snapshot()
	assert.Equal(t, before, snap.Elements)
	assert.Equal(t, "ghost", snap.Selection.ID)
	_, ok := snap.SelectedElement()
	assert.False(t, ok)
}

func TestHistoryIsBounded(t *testing.T) {
	store := NewStore()
	el := store.Snapshot().Elements[0]
	for i := range 25 {
		el.X = float64(i)
		store.UpdateElement(el)
	}
	assert.Equal(t, DefaultHistoryLimit, store.HistoryLen())
	entries := store.history.Entries()
	assert.Equal(t, 5.0, entries[0].Elements[0].X)
	assert.Equal(t, 24.0, entries[len(entries)-1].Elements[0].X)
}

func TestHistoryPushDeepCopies(t *testing.T) {
	h := NewHistory(2)
	cfg := document.Serialize(document.DefaultLayout())
	h.Push(cfg)
	*cfg.Elements[0].Opacity = 0.1
	assert.Equal(t, 1.0, *h.Entries()[0].Elements[0].Opacity)
}

func TestResetLayoutAsksFirst(t *testing.T) {
	store := NewStore()
	store.AddElement(element.NewCustomText("custom-1", 100, 100))
	store.SetBackground(element.String("data:image/png;base64,AA"))

	var prompts []string
	declined := store.ResetLayout(ConfirmFunc(func(p string) bool {
		prompts = append(prompts, p)
		return false
	}))
	assert.False(t, declined)
	assert.Equal(t, []string{ResetPrompt}, prompts)
	assert.Len(t, store.Snapshot().Elements, 7)

	assert.False(t, store.ResetLayout(nil))

	require.True(t, store.ResetLayout(AlwaysConfirm))
	snap := store.Snapshot()
	assert.Equal(t, element.DefaultElements(), snap.Elements)
	assert.Nil(t, snap.Background)
	assert.Zero(t, store.HistoryLen())
	assert.Equal(t, SelectNone, snap.Selection.Kind)
}

func TestLoadConfigClearsSelection(t *testing.T) {
	store := NewStore()
	store.SelectElement(store.Snapshot().Elements[0])

	cfg := store.CurrentConfig()
	cfg.Elements = cfg.Elements[:2]
	cfg.CanvasSettings.ShowGrid = false
	store.LoadConfig(cfg)

	snap := store.Snapshot()
	assert.Len(t, snap.Elements, 2)
	assert.False(t, snap.ShowGrid)
	assert.Equal(t, SelectNone, snap.Selection.Kind)
	assert.Equal(t, cfg, store.CurrentConfig())
}

func TestListenersSeeChangeFlags(t *testing.T) {
	store := NewStore()
	var mu sync.Mutex
	var got []Change
	unsubscribe := store.Subscribe(func(c Change, snap State) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, c)
		// The lock is released before listeners run.
		_ = store.Snapshot()
	})

	store.SetData(element.CertificateData{RecipientName: "Ada Lovelace"})
	store.ToggleGrid()
	store.ClearSelection()
	unsubscribe()
	store.ToggleSafeMargins()

	require.Len(t, got, 3)
	assert.Equal(t, ChangeData, got[0])
	assert.False(t, got[0].Has(Persisted))
	assert.True(t, got[1].Has(Persisted))
	assert.False(t, got[2].Has(Persisted))
}

func TestRevisionIncreases(t *testing.T) {
	store := NewStore()
	r0 := store.Snapshot().Revision
	store.ToggleGrid()
	store.ToggleGrid()
	assert.Equal(t, r0+2, store.Snapshot().Revision)
	assert.True(t, store.Snapshot().ShowGrid)
}

func TestSnapshotIsIsolated(t *testing.T) {
	store := NewStore()
	snap := store.Snapshot()
	snap.Elements[0].X = 999
	*snap.Elements[0].Opacity = 0
	fresh := store.Snapshot()
	assert.Equal(t, 200.0, fresh.Elements[0].X)
	assert.Equal(t, 1.0, *fresh.Elements[0].Opacity)
}
