package app

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rook-computer/certmaker/internal/codec"
	"github.com/rook-computer/certmaker/internal/document"
	"github.com/rook-computer/certmaker/internal/element"
	"github.com/rook-computer/certmaker/internal/export"
	"github.com/rook-computer/certmaker/internal/notice"
	"github.com/rook-computer/certmaker/internal/state"
	"github.com/rook-computer/certmaker/internal/storage"
)

type fixture struct {
	editor *Editor
	store  *state.Store
	kv     *storage.MemoryKV
	bus    *notice.Bus
}

func newFixture(t *testing.T, kv *storage.MemoryKV) fixture {
	t.Helper()
	if kv == nil {
		kv = storage.NewMemoryKV(0)
	}
	store := state.NewStore()
	bus := notice.NewBus()
	e := NewEditor(store, storage.NewConfigStore(kv, nil), nil, bus)
	n := 0
	e.NewID = func() string {
		n++
		return fmt.Sprint(n)
	}
	return fixture{editor: e, store: store, kv: kv, bus: bus}
}

func lastNotice(t *testing.T, bus *notice.Bus) notice.Notice {
	t.Helper()
	n, ok := bus.Last()
	require.True(t, ok, "expected a notice")
	return n
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, w, h))))
	return buf.Bytes()
}

func savedConfig(t *testing.T, kv *storage.MemoryKV) *document.Config {
	t.Helper()
	return storage.NewConfigStore(kv, nil).LoadConfig(context.Background())
}

func TestTaskResultIgnoresContext(t *testing.T) {
	task := newTask[int]()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := task.Wait(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	go task.finish(7, nil)
	v, err := task.Result()
	require.NoError(t, err)
	assert.Equal(t, 7, v)
	select {
	case <-task.Done():
	default:
		t.Fatal("Done not closed after Result")
	}
}

func TestUploadLogoUsesPresetGeometry(t *testing.T) {
	f := newFixture(t, nil)
	data := pngBytes(t, 4000, 4000)

	el, err := f.editor.UploadLogo(context.Background(), bytes.NewReader(data), int64(len(data))).Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "logo-1", el.ID)
	assert.Equal(t, element.ImageLogo, el.Type)
	assert.Equal(t, 50.0, el.X)
	assert.Equal(t, 50.0, el.Y)
	assert.Equal(t, 100.0, el.Width)
	assert.Equal(t, 100.0, el.Height)
	assert.Equal(t, 1.0, element.ValueOr(el.Opacity, -1))
	assert.Equal(t, 0.0, element.ValueOr(el.Rotation, -1))
	assert.True(t, strings.HasPrefix(el.Src, "data:image/png;base64,"))

	s := f.store.Snapshot()
	require.Len(t, s.Images, 1)
	assert.Equal(t, state.Selection{Kind: state.SelectImage, ID: "logo-1"}, s.Selection)
}

func TestUploadSignatureUsesPresetGeometry(t *testing.T) {
	f := newFixture(t, nil)
	data := pngBytes(t, 30, 10)

	el, err := f.editor.UploadSignature(context.Background(), bytes.NewReader(data), int64(len(data))).Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "signature-1", el.ID)
	assert.Equal(t, 550.0, el.X)
	assert.Equal(t, 420.0, el.Y)
	assert.Equal(t, 150.0, el.Width)
	assert.Equal(t, 75.0, el.Height)
}

func TestUploadTooLargeFailsBeforeReading(t *testing.T) {
	f := newFixture(t, nil)
	before := f.store.Snapshot().Revision

	task := f.editor.UploadLogo(context.Background(), strings.NewReader("unused"), 6<<20)
	select {
	case <-task.Done():
	default:
		t.Fatal("oversized upload should fail synchronously")
	}
	_, err := task.Wait(context.Background())
	assert.ErrorIs(t, err, codec.ErrTooLarge)

	n := lastNotice(t, f.bus)
	assert.Equal(t, notice.Error, n.Severity)
	assert.Equal(t, "File size too large. Please choose a file smaller than 5MB.", n.Message)
	assert.Zero(t, n.TTL)

	_, err = f.editor.UploadBackground(context.Background(), strings.NewReader("unused"), 11<<20).Wait(context.Background())
	assert.ErrorIs(t, err, codec.ErrTooLarge)
	assert.Equal(t, "File size too large. Please choose a file smaller than 10MB.", lastNotice(t, f.bus).Message)
	assert.Equal(t, before, f.store.Snapshot().Revision)
}

func TestUploadNonImageLeavesStateAlone(t *testing.T) {
	f := newFixture(t, nil)
	before := f.store.Snapshot().Revision

	_, err := f.editor.UploadLogo(context.Background(), strings.NewReader("hello world"), 11).Wait(context.Background())
	assert.ErrorIs(t, err, codec.ErrNotImage)
	assert.Equal(t, before, f.store.Snapshot().Revision)
	assert.Empty(t, f.store.Snapshot().Images)
}

func TestUploadCanceledDoesNotMutate(t *testing.T) {
	f := newFixture(t, nil)
	data := pngBytes(t, 10, 10)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	task := f.editor.UploadLogo(ctx, bytes.NewReader(data), int64(len(data)))
	<-task.Done()
	_, err := task.Wait(context.Background())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, f.store.Snapshot().Images)
}

func TestUploadBackground(t *testing.T) {
	f := newFixture(t, nil)
	data := pngBytes(t, 20, 20)

	uri, err := f.editor.UploadBackground(context.Background(), bytes.NewReader(data), int64(len(data))).Wait(context.Background())
	require.NoError(t, err)
	bg := f.store.Snapshot().Background
	require.NotNil(t, bg)
	assert.Equal(t, uri, *bg)

	f.editor.RemoveBackground()
	assert.Nil(t, f.store.Snapshot().Background)
}

func TestSaveThenFreshLoadRoundTrips(t *testing.T) {
	kv := storage.NewMemoryKV(0)
	first := newFixture(t, kv)
	data := pngBytes(t, 10, 10)
	_, err := first.editor.UploadBackground(context.Background(), bytes.NewReader(data), int64(len(data))).Wait(context.Background())
	require.NoError(t, err)
	el := first.store.Snapshot().Elements[0]
	el.X = 123
	first.store.UpdateElement(el)
	first.store.ToggleGrid()

	require.True(t, first.editor.SaveConfig(context.Background()))
	assert.Equal(t, notice.Success, lastNotice(t, first.bus).Severity)
	assert.Equal(t, MsgSaved, lastNotice(t, first.bus).Message)

	second := newFixture(t, kv)
	require.NoError(t, second.editor.Start(context.Background()))
	defer second.editor.Stop()

	assert.Equal(t, first.store.CurrentConfig(), second.store.CurrentConfig())
	assert.Equal(t, state.Selection{}, second.store.Snapshot().Selection)
}

func TestSaveConfigReportsStorageFailure(t *testing.T) {
	f := newFixture(t, storage.NewMemoryKV(10))
	assert.False(t, f.editor.SaveConfig(context.Background()))
	n := lastNotice(t, f.bus)
	assert.Equal(t, notice.Error, n.Severity)
	assert.Equal(t, MsgSaveFailed, n.Message)
}

func TestAutoSaveDropsBackground(t *testing.T) {
	f := newFixture(t, nil)
	f.editor.AutoSaveDelay = 10 * time.Millisecond
	require.NoError(t, f.editor.Start(context.Background()))
	defer f.editor.Stop()

	uri := "data:image/png;base64,AAAA"
	f.store.SetBackground(&uri)
	f.store.ToggleSafeMargins()

	require.Eventually(t, func() bool { return savedConfig(t, f.kv) != nil }, time.Second, 5*time.Millisecond)
	cfg := savedConfig(t, f.kv)
	assert.Nil(t, cfg.BackgroundImage)
	require.NotNil(t, cfg.CanvasSettings)
	assert.False(t, cfg.CanvasSettings.ShowSafeMargins)
}

func TestAutoSaveIgnoresSelectionAndData(t *testing.T) {
	f := newFixture(t, nil)
	f.editor.AutoSaveDelay = 5 * time.Millisecond
	require.NoError(t, f.editor.Start(context.Background()))
	defer f.editor.Stop()

	f.store.SelectElement(element.TextElement{ID: "title"})
	f.store.SetData(element.CertificateData{RecipientName: "Ada Lovelace"})
	time.Sleep(50 * time.Millisecond)
	assert.Nil(t, savedConfig(t, f.kv))
}

func TestStopFlushesPendingAutoSave(t *testing.T) {
	f := newFixture(t, nil)
	f.editor.AutoSaveDelay = time.Hour
	require.NoError(t, f.editor.Start(context.Background()))

	f.store.ToggleGrid()
	assert.Nil(t, savedConfig(t, f.kv))
	f.editor.Stop()

	cfg := savedConfig(t, f.kv)
	require.NotNil(t, cfg)
	assert.False(t, cfg.CanvasSettings.ShowGrid)
}

func TestUploadConfigRejectsNonJSON(t *testing.T) {
	f := newFixture(t, nil)
	before := f.store.Snapshot()

	err := f.editor.UploadConfig(context.Background(), strings.NewReader("this is not json"))
	assert.ErrorIs(t, err, document.ErrInvalidConfig)
	after := f.store.Snapshot()
	assert.Equal(t, before.Revision, after.Revision)
	assert.Equal(t, before.Elements, after.Elements)

	n := lastNotice(t, f.bus)
	assert.Equal(t, notice.Error, n.Severity)
	assert.True(t, strings.HasPrefix(n.Message, MsgLoadFailed))
}

func TestUploadAndDownloadConfig(t *testing.T) {
	f := newFixture(t, nil)
	f.store.SelectElement(element.TextElement{ID: "title"})
	f.store.DeleteElement("date")

	var buf bytes.Buffer
	require.NoError(t, f.editor.DownloadConfig(&buf))
	assert.Contains(t, buf.String(), "\n  \"elements\"")

	other := newFixture(t, nil)
	require.NoError(t, other.editor.UploadConfig(context.Background(), &buf))
	assert.Len(t, other.store.Snapshot().Elements, 5)
	assert.Equal(t, state.Selection{}, other.store.Snapshot().Selection)
	assert.Equal(t, notice.Info, lastNotice(t, other.bus).Severity)
	assert.Equal(t, MsgLoaded, lastNotice(t, other.bus).Message)
}

func TestLoadSavedAndClear(t *testing.T) {
	f := newFixture(t, nil)
	assert.False(t, f.editor.LoadSaved(context.Background()))
	require.True(t, f.editor.SaveConfig(context.Background()))
	assert.True(t, f.editor.LoadSaved(context.Background()))
	assert.True(t, f.editor.ClearSaved(context.Background()))
	assert.False(t, f.editor.LoadSaved(context.Background()))
}

func TestResetLayoutNeedsConfirmation(t *testing.T) {
	f := newFixture(t, nil)
	f.store.DeleteElement("title")

	assert.False(t, f.editor.ResetLayout(state.ConfirmFunc(func(string) bool { return false })))
	assert.Len(t, f.store.Snapshot().Elements, 5)

	assert.True(t, f.editor.ResetLayout(state.AlwaysConfirm))
	assert.Len(t, f.store.Snapshot().Elements, 6)
	assert.Equal(t, MsgReset, lastNotice(t, f.bus).Message)
}

func TestExportFailureNotifies(t *testing.T) {
	f := newFixture(t, nil)
	var buf bytes.Buffer
	err := f.editor.Export(context.Background(), export.Format("tiff"), &buf)
	assert.ErrorIs(t, err, export.ErrExportFailed)
	assert.Equal(t, "Failed to export TIFF. Please try again.", lastNotice(t, f.bus).Message)
}

func TestTemplates(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	f.store.DeleteElement("date")

	tpl, ok := f.editor.SaveTemplate(ctx, "  Gala  ", "Annual dinner")
	require.True(t, ok)
	assert.Equal(t, "template-1", tpl.ID)
	assert.Equal(t, "Gala", tpl.Name)
	img, err := codec.DecodeImage(tpl.Thumbnail)
	require.NoError(t, err)
	assert.Equal(t, 210, img.Bounds().Dx())

	list := f.editor.Templates(ctx)
	require.Len(t, list, 1)
	assert.Equal(t, "Annual dinner", list[0].Description)

	require.True(t, f.editor.ResetLayout(state.AlwaysConfirm))
	assert.Len(t, f.store.Snapshot().Elements, 6)
	require.True(t, f.editor.ApplyTemplate(ctx, tpl.ID))
	assert.Len(t, f.store.Snapshot().Elements, 5)
	assert.False(t, f.editor.ApplyTemplate(ctx, "missing"))

	require.True(t, f.editor.DeleteTemplate(ctx, tpl.ID))
	assert.Empty(t, f.editor.Templates(ctx))
}

func TestAddQRCode(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.editor.AddQRCode("   ")
	assert.ErrorIs(t, err, ErrEmptyPayload)

	el, err := f.editor.AddQRCode("https://example.com/c/42")
	require.NoError(t, err)
	assert.Equal(t, "qrcode-1", el.ID)
	assert.Equal(t, element.ImageQRCode, el.Type)
	assert.Equal(t, 691.0, el.X)
	assert.Equal(t, 445.0, el.Y)
	assert.Len(t, f.store.Snapshot().Images, 1)
}
