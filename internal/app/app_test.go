package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rook-computer/certmaker/internal/render"
	"github.com/rook-computer/certmaker/internal/state"
	"github.com/rook-computer/certmaker/internal/storage"
	"github.com/rook-computer/certmaker/internal/system"
)

type fakeServer struct{ started, stopped bool }

func (s *fakeServer) Start(context.Context) error { s.started = true; return nil }
func (s *fakeServer) Stop() error                 { s.stopped = true; return nil }

func runApp(t *testing.T, a *App, ctx context.Context) <-chan error {
	t.Helper()
	done := make(chan error, 1)
	go func() { done <- a.Start(ctx) }()
	return done
}

func TestAppExitStopsStart(t *testing.T) {
	store := state.NewStore()
	srv := &fakeServer{}
	a := New(store, nil, &render.NoopRenderer{}, srv)
	done := runApp(t, a, context.Background())

	stop := errors.New("bye")
	a.Exit(stop)
	a.Exit(errors.New("ignored"))
	select {
	case err := <-done:
		assert.Equal(t, stop, err)
	case <-time.After(2 * time.Second):
		t.Fatal("app did not stop")
	}
	assert.True(t, srv.started)
	assert.True(t, srv.stopped)
}

func TestAppStopsOnContextAndFlushes(t *testing.T) {
	store := state.NewStore()
	kv := storage.NewMemoryKV(0)
	editor := NewEditor(store, storage.NewConfigStore(kv, nil), nil, nil)
	editor.AutoSaveDelay = time.Hour
	a := New(store, editor, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := runApp(t, a, ctx)

	// Wait until auto-save is attached.
	require.Eventually(t, func() bool {
		editor.mu.Lock()
		defer editor.mu.Unlock()
		return editor.saver != nil
	}, time.Second, time.Millisecond)
	store.ToggleGrid()
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("app did not stop")
	}
	cfg := storage.NewConfigStore(kv, nil).LoadConfig(context.Background())
	require.NotNil(t, cfg)
	assert.False(t, cfg.CanvasSettings.ShowGrid)
}

func TestKeyBindings(t *testing.T) {
	store := state.NewStore()
	canvas := render.NewCanvas(store)
	a := New(store, nil, nil, nil)
	keys := a.keyBindings(canvas)

	keys[system.KeyF11]()
	assert.True(t, canvas.Fullscreen())
	keys[system.KeyEsc]()
	assert.False(t, canvas.Fullscreen())
	keys[system.KeyEsc]()
	assert.False(t, canvas.Fullscreen())

	keys[system.KeyG]()
	assert.False(t, store.Snapshot().ShowGrid)

	keys[system.KeyF4]()
	select {
	case err := <-a.exitCh:
		assert.NoError(t, err)
	default:
		t.Fatal("F4 did not request exit")
	}
}

func TestKeyBindingsWithoutCanvas(t *testing.T) {
	a := New(state.NewStore(), nil, nil, nil)
	keys := a.keyBindings(nil)
	assert.Nil(t, keys[system.KeyF11])
	assert.NotNil(t, keys[system.KeyF4])
}
