package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"github.com/rook-computer/certmaker/internal/element"
	"github.com/rook-computer/certmaker/internal/state"
	"github.com/rook-computer/certmaker/internal/storage"
)

var errSimStorage = errors.New("simulated storage failure")

// SimFaults are failures injected into the simulator's storage. QuotaBytes
// rejects any single write larger than the limit, the way a full browser
// storage would.
type SimFaults struct {
	StorageFail bool `json:"storageFail"`
	QuotaBytes  int  `json:"quotaBytes"`
}

// FaultKV applies the current SimFaults in front of a real backend.
type FaultKV struct {
	storage.KV
	Faults func() SimFaults
}

func (f FaultKV) current() SimFaults {
	if f.Faults == nil {
		return SimFaults{}
	}
	return f.Faults()
}

func (f FaultKV) Get(ctx context.Context, key string) ([]byte, error) {
	if f.current().StorageFail {
		return nil, errSimStorage
	}
	return f.KV.Get(ctx, key)
}

func (f FaultKV) Set(ctx context.Context, key string, value []byte) error {
	faults := f.current()
	if faults.StorageFail {
		return errSimStorage
	}
	if faults.QuotaBytes > 0 && len(value) > faults.QuotaBytes {
		return storage.ErrQuotaExceeded
	}
	return f.KV.Set(ctx, key, value)
}

func (f FaultKV) Delete(ctx context.Context, key string) error {
	if f.current().StorageFail {
		return errSimStorage
	}
	return f.KV.Delete(ctx, key)
}

// SimControl owns the simulator's fault switches and can put the editor back
// into its startup state.
type SimControl struct {
	store   *state.Store
	kv      FaultKV
	configs *storage.ConfigStore

	faults struct {
		mu sync.RWMutex
		v  SimFaults
	}
}

func NewSimControl(store *state.Store, backend storage.KV, logger storage.Logger) *SimControl {
	c := &SimControl{store: store}
	c.kv = FaultKV{KV: backend, Faults: c.Faults}
	c.configs = storage.NewConfigStore(c.kv, logger)
	return c
}

// Configs is the config store every simulator component must share, so the
// faults apply to it.
func (c *SimControl) Configs() *storage.ConfigStore { return c.configs }

func (c *SimControl) Faults() SimFaults {
	c.faults.mu.RLock()
	defer c.faults.mu.RUnlock()
	return c.faults.v
}

func (c *SimControl) SetFaults(v SimFaults) {
	c.faults.mu.Lock()
	c.faults.v = v
	c.faults.mu.Unlock()
}

// Reset clears faults, saved configuration and templates, then restores the
// default layout with empty form fields.
func (c *SimControl) Reset(ctx context.Context) error {
	c.SetFaults(SimFaults{})
	for _, key := range []string{storage.ConfigKey, storage.TemplatesKey} {
		if err := c.kv.Delete(ctx, key); err != nil && !errors.Is(err, storage.ErrNotFound) {
			return err
		}
	}
	c.store.ResetLayout(state.ConfirmFunc(func(string) bool { return true }))
	c.store.SetData(element.DefaultData())
	return nil
}

func registerSimEndpoints(mux *http.ServeMux, control *SimControl) {
	mux.HandleFunc("POST /sim/reset", func(w http.ResponseWriter, r *http.Request) {
		if err := control.Reset(r.Context()); err != nil {
			writeSimError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeSimJSON(w, http.StatusOK, map[string]any{"ok": true})
	})

	mux.HandleFunc("GET /sim/faults", func(w http.ResponseWriter, r *http.Request) {
		writeSimJSON(w, http.StatusOK, control.Faults())
	})

	mux.HandleFunc("POST /sim/faults", func(w http.ResponseWriter, r *http.Request) {
		var patch struct {
			StorageFail *bool `json:"storageFail"`
			QuotaBytes  *int  `json:"quotaBytes"`
		}
		if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
			writeSimError(w, http.StatusBadRequest, "invalid json")
			return
		}
		current := control.Faults()
		if patch.StorageFail != nil {
			current.StorageFail = *patch.StorageFail
		}
		if patch.QuotaBytes != nil {
			current.QuotaBytes = *patch.QuotaBytes
		}
		control.SetFaults(current)
		writeSimJSON(w, http.StatusOK, current)
	})
}

func writeSimJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeSimError(w http.ResponseWriter, status int, message string) {
	writeSimJSON(w, status, map[string]any{"error": "simulator", "message": message})
}
