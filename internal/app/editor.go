package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/png"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rook-computer/certmaker/internal/autosave"
	"github.com/rook-computer/certmaker/internal/codec"
	"github.com/rook-computer/certmaker/internal/document"
	"github.com/rook-computer/certmaker/internal/element"
	"github.com/rook-computer/certmaker/internal/export"
	"github.com/rook-computer/certmaker/internal/notice"
	"github.com/rook-computer/certmaker/internal/render"
	"github.com/rook-computer/certmaker/internal/state"
	"github.com/rook-computer/certmaker/internal/storage"
)

// User facing messages.
const (
	MsgSaved        = "Configuration saved successfully!"
	MsgSaveFailed   = "Failed to save configuration. Please try again."
	MsgLoaded       = "Configuration loaded successfully!"
	MsgLoadFailed   = "Error loading configuration: "
	MsgReadFailed   = "Failed to read file. Please try again."
	MsgReset        = "Layout reset to defaults."
	MsgTemplateSave = "Template saved successfully!"
	MsgTemplateFail = "Failed to save template. Please try again."
)

var ErrEmptyPayload = errors.New("qr code payload is empty")

// ThumbnailScale is the raster scale of template thumbnails.
const ThumbnailScale = 0.25

// Editor runs the I/O side of editing: uploads, persistence, templates and
// exports. Plain layout edits go straight to the Store.
type Editor struct {
	Store    *state.Store
	Configs  *storage.ConfigStore
	Exporter *export.Exporter
	Notices  notice.Publisher
	Logger   Logger
	// NewID generates the suffix of element and template ids.
	NewID         func() string
	AutoSaveDelay time.Duration

	mu          sync.Mutex
	saver       *autosave.Debouncer
	unsubscribe func()
	saveCtx     context.Context
}

func NewEditor(store *state.Store, configs *storage.ConfigStore, exporter *export.Exporter, notices notice.Publisher) *Editor {
	if exporter == nil {
		exporter = export.New(nil)
	}
	if notices == nil {
		notices = notice.Discard{}
	}
	return &Editor{
		Store:         store,
		Configs:       configs,
		Exporter:      exporter,
		Notices:       notices,
		Logger:        NoopLogger{},
		NewID:         uuid.NewString,
		AutoSaveDelay: autosave.DefaultDelay,
	}
}

func (e *Editor) logger() Logger {
	if e.Logger == nil {
		return NoopLogger{}
	}
	return e.Logger
}

func (e *Editor) notify(sev notice.Severity, msg string) {
	e.Notices.Publish(notice.New(sev, msg))
}

// Start restores the saved configuration, if any, and attaches auto-save to
// every persisted change made afterwards.
func (e *Editor) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.saver != nil {
		return nil
	}
	if cfg := e.Configs.LoadConfig(ctx); cfg != nil {
		e.Store.LoadConfig(*cfg)
		e.logger().Infof("editor", "restored saved configuration")
	}
	e.saveCtx = context.WithoutCancel(ctx)
	e.saver = autosave.New(e.AutoSaveDelay, e.autoSave)
	saver := e.saver
	e.unsubscribe = e.Store.Subscribe(func(c state.Change, _ state.State) {
		if c.Has(state.Persisted) {
			saver.Trigger()
		}
	})
	return nil
}

// Stop detaches auto-save and writes a pending save.
func (e *Editor) Stop() {
	e.mu.Lock()
	saver, unsubscribe := e.saver, e.unsubscribe
	e.saver, e.unsubscribe = nil, nil
	e.mu.Unlock()
	if saver == nil {
		return
	}
	unsubscribe()
	saver.Flush()
	saver.Stop()
}

// autoSave stores the layout without the background image.
func (e *Editor) autoSave() {
	cfg := e.Store.CurrentConfig().ForAutoSave()
	if !e.Configs.SaveConfig(e.saveCtx, cfg) {
		e.logger().Errorf("editor", "auto-save failed")
	}
}

// UploadLogo adds the image read from r as a 100x100 logo at (50, 50).
func (e *Editor) UploadLogo(ctx context.Context, r io.Reader, size int64) *Task[element.ImageElement] {
	return e.uploadImage(ctx, r, size, element.LogoPreset, "logo")
}

// UploadSignature adds the image read from r as a 150x75 signature.
func (e *Editor) UploadSignature(ctx context.Context, r io.Reader, size int64) *Task[element.ImageElement] {
	return e.uploadImage(ctx, r, size, element.SignaturePreset, "signature")
}

func (e *Editor) uploadImage(ctx context.Context, r io.Reader, size int64, preset element.ImageElement, prefix string) *Task[element.ImageElement] {
	if err := codec.CheckSize(size, codec.MaxImageBytes); err != nil {
		e.notify(notice.Error, codec.TooLargeMessage(codec.MaxImageBytes))
		return failedTask[element.ImageElement](err)
	}
	t := newTask[element.ImageElement]()
	go func() {
		uri, err := codec.ReadImageDataURI(r, codec.MaxImageBytes)
		if err == nil {
			err = ctx.Err()
		}
		if err != nil {
			e.logger().Errorf("editor", "%s upload: %v", prefix, err)
			e.notify(notice.Error, uploadMessage(err, codec.MaxImageBytes))
			t.finish(element.ImageElement{}, err)
			return
		}
		el := element.FromPreset(preset, prefix+"-"+e.NewID(), uri)
		e.Store.AddImageElement(el)
		t.finish(el, nil)
	}()
	return t
}

// UploadBackground replaces the background with the image read from r.
func (e *Editor) UploadBackground(ctx context.Context, r io.Reader, size int64) *Task[string] {
	if err := codec.CheckSize(size, codec.MaxBackgroundBytes); err != nil {
		e.notify(notice.Error, codec.TooLargeMessage(codec.MaxBackgroundBytes))
		return failedTask[string](err)
	}
	t := newTask[string]()
	go func() {
		uri, err := codec.ReadImageDataURI(r, codec.MaxBackgroundBytes)
		if err == nil {
			err = ctx.Err()
		}
		if err != nil {
			e.logger().Errorf("editor", "background upload: %v", err)
			e.notify(notice.Error, uploadMessage(err, codec.MaxBackgroundBytes))
			t.finish("", err)
			return
		}
		e.Store.SetBackground(&uri)
		t.finish(uri, nil)
	}()
	return t
}

func uploadMessage(err error, limit int64) string {
	switch {
	case errors.Is(err, codec.ErrTooLarge):
		return codec.TooLargeMessage(limit)
	case errors.Is(err, codec.ErrNotImage):
		return "Please choose an image file."
	}
	return MsgReadFailed
}

// RemoveBackground clears the background image.
func (e *Editor) RemoveBackground() {
	e.Store.SetBackground(nil)
}

// AddQRCode adds a QR code image encoding payload.
func (e *Editor) AddQRCode(payload string) (element.ImageElement, error) {
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return element.ImageElement{}, ErrEmptyPayload
	}
	uri, err := render.QRCodeDataURI(payload, 0)
	if err != nil {
		e.notify(notice.Error, "Failed to create QR code.")
		return element.ImageElement{}, fmt.Errorf("qr code: %w", err)
	}
	el := element.FromPreset(element.QRCodePreset, "qrcode-"+e.NewID(), uri)
	e.Store.AddImageElement(el)
	return el, nil
}

// SaveConfig stores the full layout, background included.
func (e *Editor) SaveConfig(ctx context.Context) bool {
	if e.Configs.SaveConfig(ctx, e.Store.CurrentConfig()) {
		e.notify(notice.Success, MsgSaved)
		return true
	}
	e.notify(notice.Error, MsgSaveFailed)
	return false
}

// LoadConfig applies cfg and clears the selection.
func (e *Editor) LoadConfig(cfg document.Config) {
	e.Store.LoadConfig(cfg)
	e.notify(notice.Info, MsgLoaded)
}

// LoadSaved applies the stored configuration. It reports false when nothing
// is stored.
func (e *Editor) LoadSaved(ctx context.Context) bool {
	cfg := e.Configs.LoadConfig(ctx)
	if cfg == nil {
		return false
	}
	e.LoadConfig(*cfg)
	return true
}

// ClearSaved removes the stored configuration.
func (e *Editor) ClearSaved(ctx context.Context) bool {
	return e.Configs.ClearConfig(ctx)
}

// UploadConfig parses a configuration file and applies it. A file that is
// not a JSON configuration leaves the layout untouched.
func (e *Editor) UploadConfig(ctx context.Context, r io.Reader) error {
	text, err := codec.ReadText(r, codec.MaxConfigBytes)
	if err == nil {
		err = ctx.Err()
	}
	var cfg document.Config
	if err == nil {
		cfg, err = document.Parse([]byte(text))
	}
	if err != nil {
		e.logger().Errorf("editor", "config upload: %v", err)
		e.notify(notice.Error, MsgLoadFailed+err.Error())
		return err
	}
	e.LoadConfig(cfg)
	return nil
}

// DownloadConfig writes the current configuration as indented JSON.
func (e *Editor) DownloadConfig(w io.Writer) error {
	return document.Encode(w, e.Store.CurrentConfig())
}

// ResetLayout restores the defaults once c confirms.
func (e *Editor) ResetLayout(c state.Confirmer) bool {
	if !e.Store.ResetLayout(c) {
		return false
	}
	e.notify(notice.Info, MsgReset)
	return true
}

// Export writes the current certificate in format to w.
func (e *Editor) Export(ctx context.Context, format export.Format, w io.Writer) error {
	frame := render.BuildFrame(e.Store.Snapshot())
	err := e.Exporter.Export(ctx, frame, format, w)
	if err != nil {
		var exportErr *export.Error
		if errors.As(err, &exportErr) {
			e.notify(notice.Error, exportErr.Message())
		} else {
			e.notify(notice.Error, err.Error())
		}
	}
	return err
}

// SaveTemplate stores the current layout under name with a small rendered
// thumbnail.
func (e *Editor) SaveTemplate(ctx context.Context, name, description string) (document.Template, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = "Untitled template"
	}
	snap := e.Store.Snapshot()
	tpl := document.Template{
		ID:          "template-" + e.NewID(),
		Name:        name,
		Description: strings.TrimSpace(description),
		Config:      snap.Config(),
	}
	thumb, err := e.thumbnail(snap)
	if err != nil {
		e.logger().Errorf("editor", "template thumbnail: %v", err)
	}
	tpl.Thumbnail = thumb
	if !e.Configs.SaveTemplate(ctx, tpl) {
		e.notify(notice.Error, MsgTemplateFail)
		return document.Template{}, false
	}
	e.notify(notice.Success, MsgTemplateSave)
	return tpl, true
}

func (e *Editor) thumbnail(snap state.State) (string, error) {
	img, err := e.Exporter.Raster.Render(render.BuildFrame(snap), render.ExportOptions(ThumbnailScale))
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", err
	}
	return codec.EncodeDataURI("image/png", buf.Bytes()), nil
}

func (e *Editor) Templates(ctx context.Context) []document.Template {
	return e.Configs.Templates(ctx)
}

func (e *Editor) DeleteTemplate(ctx context.Context, id string) bool {
	return e.Configs.DeleteTemplate(ctx, id)
}

// ApplyTemplate loads the configuration of the template with id.
func (e *Editor) ApplyTemplate(ctx context.Context, id string) bool {
	for _, t := range e.Configs.Templates(ctx) {
		if t.ID == id {
			e.LoadConfig(t.Config)
			return true
		}
	}
	return false
}
