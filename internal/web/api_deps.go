package web

import (
	"context"
	"io"

	"github.com/rook-computer/certmaker/internal/app"
	"github.com/rook-computer/certmaker/internal/document"
	"github.com/rook-computer/certmaker/internal/element"
	"github.com/rook-computer/certmaker/internal/export"
	"github.com/rook-computer/certmaker/internal/notice"
	"github.com/rook-computer/certmaker/internal/render"
	"github.com/rook-computer/certmaker/internal/state"
)

// Editor is the I/O side of editing the API drives. *app.Editor implements it.
type Editor interface {
	UploadLogo(ctx context.Context, r io.Reader, size int64) *app.Task[element.ImageElement]
	UploadSignature(ctx context.Context, r io.Reader, size int64) *app.Task[element.ImageElement]
	UploadBackground(ctx context.Context, r io.Reader, size int64) *app.Task[string]
	RemoveBackground()
	AddQRCode(payload string) (element.ImageElement, error)

	SaveConfig(ctx context.Context) bool
	LoadSaved(ctx context.Context) bool
	ClearSaved(ctx context.Context) bool
	UploadConfig(ctx context.Context, r io.Reader) error
	DownloadConfig(w io.Writer) error
	ResetLayout(c state.Confirmer) bool
	Export(ctx context.Context, format export.Format, w io.Writer) error

	SaveTemplate(ctx context.Context, name, description string) (document.Template, bool)
	Templates(ctx context.Context) []document.Template
	DeleteTemplate(ctx context.Context, id string) bool
	ApplyTemplate(ctx context.Context, id string) bool
}

var _ Editor = (*app.Editor)(nil)

// NoticeSource streams user notices to event subscribers.
type NoticeSource interface {
	Subscribe(buffer int) (<-chan notice.Notice, func())
}

// Logger matches the logging shape used across the app.
type Logger interface {
	Infof(component string, format string, args ...interface{})
	Errorf(component string, format string, args ...interface{})
}

type noopLogger struct{}

func (noopLogger) Infof(string, string, ...interface{})  {}
func (noopLogger) Errorf(string, string, ...interface{}) {}

type APIV1Deps struct {
	Store   *state.Store
	Editor  Editor
	Canvas  *render.Canvas
	Raster  *render.Rasterizer
	Notices NoticeSource
	Logger  Logger
}

func (d APIV1Deps) withDefaults() APIV1Deps {
	out := d
	if out.Store == nil {
		out.Store = state.NewStore()
	}
	if out.Canvas == nil {
		out.Canvas = render.NewCanvas(out.Store)
	}
	if out.Raster == nil {
		out.Raster = render.NewRasterizer()
	}
	if out.Notices == nil {
		out.Notices = notice.NewBus()
	}
	if out.Logger == nil {
		out.Logger = noopLogger{}
	}
	return out
}
