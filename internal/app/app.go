package app

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/rook-computer/certmaker/internal/render"
	"github.com/rook-computer/certmaker/internal/state"
	"github.com/rook-computer/certmaker/internal/system"
)

// Server is the network surface started alongside the editor.
type Server interface {
	Start(ctx context.Context) error
	Stop() error
}

// App owns the process lifecycle: the editor, the local preview and the
// HTTP server. Start blocks until the context ends or Exit is called.
type App struct {
	Store  *state.Store
	Editor *Editor
	Render render.Renderer
	Web    Server
	Logger Logger
	Debug  bool
	// Keyboard enables evdev shortcuts while the framebuffer preview runs.
	Keyboard bool

	exitOnce atomic.Bool
	exitCh   chan error
}

func New(store *state.Store, editor *Editor, renderer render.Renderer, webServer Server) *App {
	return &App{Store: store, Editor: editor, Render: renderer, Web: webServer, Logger: NoopLogger{}, exitCh: make(chan error, 1)}
}

// Exit requests the app to stop running.
func (app *App) Exit(err error) {
	if app.exitCh == nil {
		return
	}
	if !app.exitOnce.CompareAndSwap(false, true) {
		return
	}
	select {
	case app.exitCh <- err:
	default:
	}
}

func (app *App) Start(ctx context.Context) error {
	if app.exitCh == nil {
		app.exitCh = make(chan error, 1)
	}
	app.exitOnce.Store(false)
	if app.Logger == nil {
		app.Logger = NoopLogger{}
	}

	if app.Editor != nil {
		if err := app.Editor.Start(ctx); err != nil {
			app.Logger.Errorf("app", "editor start error: %v", err)
			return err
		}
		// Stop flushes a pending auto-save.
		defer app.Editor.Stop()
	}

	if app.Render == nil {
		app.Render = &render.NoopRenderer{}
	}
	fb, onDevice := app.Render.(*render.FBRenderer)
	if onDevice {
		fb.Logger = app.Logger
		fb.Debug = app.Debug
	}
	if err := app.Render.Start(ctx); err != nil {
		app.Logger.Errorf("app", "renderer start error: %v", err)
		return err
	}
	defer app.Render.Stop()

	if onDevice {
		// Switch console to KD_GRAPHICS to suppress hardware cursor
		if err := system.SetGraphicsModeWithLog(app.Logger); err != nil {
			app.Logger.Errorf("tty", "set graphics mode failed: %v", err)
		}
		_ = system.HideCursorWithLog(app.Logger)
		defer func() { _ = system.ShowCursorWithLog(app.Logger); _ = system.RestoreTextModeWithLog(app.Logger) }()
	}

	if app.Web != nil {
		if err := app.Web.Start(ctx); err != nil {
			app.Logger.Errorf("app", "web start error: %v", err)
			return err
		}
		defer app.Web.Stop()
	}

	// First frame without waiting for the loop.
	app.Render.RedrawWithState(app.Store.Snapshot())

	loopCtx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		app.Render.RunLoop(loopCtx, app.Store)
	}()
	if onDevice && app.Keyboard {
		system.WatchKeys(loopCtx, app.Logger, app.keyBindings(fb.Canvas))
	}

	var err error
	select {
	case <-ctx.Done():
		err = ctx.Err()
	case err = <-app.exitCh:
	}
	cancel()
	wg.Wait()
	app.Logger.Infof("app", "stopped: %v", err)
	return err
}

// keyBindings: F4 quits, G toggles the grid, F11 toggles fullscreen and Esc
// leaves it.
func (app *App) keyBindings(canvas *render.Canvas) system.KeyBindings {
	b := system.KeyBindings{
		system.KeyF4: func() {
			app.Logger.Infof("input", "F4 pressed: exiting")
			app.Exit(nil)
		},
		system.KeyG: app.Store.ToggleGrid,
	}
	if canvas != nil {
		b[system.KeyF11] = func() { canvas.ToggleFullscreen() }
		b[system.KeyEsc] = func() {
			if canvas.Fullscreen() {
				canvas.ToggleFullscreen()
			}
		}
	}
	return b
}

// Logger is the logging surface shared by every component.
type Logger interface {
	Infof(component string, format string, args ...interface{})
	Errorf(component string, format string, args ...interface{})
}

type NoopLogger struct{}

func (NoopLogger) Infof(component, format string, args ...interface{})  {}
func (NoopLogger) Errorf(component, format string, args ...interface{}) {}
