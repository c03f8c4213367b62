package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rook-computer/certmaker/internal/app"
	"github.com/rook-computer/certmaker/internal/notice"
	"github.com/rook-computer/certmaker/internal/settings"
	"github.com/rook-computer/certmaker/internal/state"
	"github.com/rook-computer/certmaker/internal/storage"
	"github.com/rook-computer/certmaker/internal/web"
)

func TestFaultKV(t *testing.T) {
	ctx := context.Background()
	faults := SimFaults{}
	kv := FaultKV{KV: storage.NewMemoryKV(0), Faults: func() SimFaults { return faults }}

	require.NoError(t, kv.Set(ctx, "k", []byte("hello")))
	faults.QuotaBytes = 4
	assert.ErrorIs(t, kv.Set(ctx, "k", []byte("hello")), storage.ErrQuotaExceeded)
	assert.NoError(t, kv.Set(ctx, "k", []byte("hey")))

	faults.StorageFail = true
	_, err := kv.Get(ctx, "k")
	assert.ErrorIs(t, err, errSimStorage)
	assert.ErrorIs(t, kv.Delete(ctx, "k"), errSimStorage)

	faults = SimFaults{}
	v, err := kv.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "hey", string(v))

	assert.NoError(t, FaultKV{KV: storage.NewMemoryKV(0)}.Set(ctx, "k", nil))
}

func newSimMux(t *testing.T) (*http.ServeMux, *SimControl, *state.Store) {
	t.Helper()
	store := state.NewStore()
	control := NewSimControl(store, storage.NewMemoryKV(0), nil)
	bus := notice.NewBus()
	editor := app.NewEditor(store, control.Configs(), nil, bus)
	mux := web.NewDefaultMux("", web.APIV1Config{Deps: web.APIV1Deps{Store: store, Editor: editor, Notices: bus}})
	registerSimEndpoints(mux, control)
	return mux, control, store
}

func serve(mux *http.ServeMux, method, path string, body []byte) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(method, path, bytes.NewReader(body)))
	return rec
}

func TestSimFaultsEndpoint(t *testing.T) {
	mux, control, _ := newSimMux(t)

	rec := serve(mux, http.MethodPost, "/sim/faults", []byte(`{"storageFail":true}`))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, control.Faults().StorageFail)

	rec = serve(mux, http.MethodPost, "/api/v1/config/save", nil)
	assert.Equal(t, http.StatusInsufficientStorage, rec.Code)

	rec = serve(mux, http.MethodPost, "/sim/faults", []byte(`{"storageFail":false,"quotaBytes":10}`))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, SimFaults{QuotaBytes: 10}, control.Faults())
	rec = serve(mux, http.MethodPost, "/api/v1/config/save", nil)
	assert.Equal(t, http.StatusInsufficientStorage, rec.Code)

	rec = serve(mux, http.MethodPost, "/sim/faults", []byte(`nope`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(mux, http.MethodGet, "/sim/faults", nil)
	assert.JSONEq(t, `{"storageFail":false,"quotaBytes":10}`, rec.Body.String())
}

func TestSimReset(t *testing.T) {
	mux, control, store := newSimMux(t)
	control.SetFaults(SimFaults{QuotaBytes: 1 << 20})

	rec := serve(mux, http.MethodPost, "/api/v1/config/save", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	store.DeleteElement("title")

	rec = serve(mux, http.MethodPost, "/sim/reset", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, SimFaults{}, control.Faults())
	assert.Len(t, store.Snapshot().Elements, 6)
	assert.Nil(t, control.Configs().LoadConfig(context.Background()))

	rec = serve(mux, http.MethodPost, "/api/v1/config/load", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSimDefaults(t *testing.T) {
	cfg, err := settings.Load("", settings.WithDefaults(simDefaults))
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Listen)
	assert.Equal(t, storage.DriverMemory, cfg.StorageOptions().Driver)
	assert.Equal(t, "localhost", cfg.StorageOptions().RedisHost)
	assert.False(t, cfg.Preview.Enabled)
	assert.True(t, cfg.IsDevelopment())

	t.Setenv("CERTMAKER_STORAGE_REDIS_HOST", "redis.sim")
	t.Setenv("CERTMAKER_STORAGE_REDIS_PORT", "6380")
	cfg, err = settings.Load("", settings.WithDefaults(simDefaults))
	require.NoError(t, err)
	assert.Equal(t, "redis.sim", cfg.StorageOptions().RedisHost)
	assert.Equal(t, 6380, cfg.StorageOptions().RedisPort)
}

func TestTrimLeadingColon(t *testing.T) {
	assert.Equal(t, "127.0.0.1:8080", trimLeadingColon(":8080"))
	assert.Equal(t, "127.0.0.1:8080", trimLeadingColon(""))
	assert.Equal(t, "0.0.0.0:9000", trimLeadingColon("0.0.0.0:9000"))
}
