package storage

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/rook-computer/certmaker/internal/document"
)

type Logger interface {
	Infof(component string, format string, args ...interface{})
	Errorf(component string, format string, args ...interface{})
}

type noopLogger struct{}

func (noopLogger) Infof(string, string, ...interface{})  {}
func (noopLogger) Errorf(string, string, ...interface{}) {}

// ConfigStore persists the editor configuration and the template list on top
// of a KV. Failures are logged and reported as false or nil; callers never
// see backend errors.
type ConfigStore struct {
	KV     KV
	Logger Logger
}

func NewConfigStore(kv KV, logger Logger) *ConfigStore {
	if logger == nil {
		logger = noopLogger{}
	}
	return &ConfigStore{KV: kv, Logger: logger}
}

// SaveConfig writes cfg under ConfigKey and reports success.
func (s *ConfigStore) SaveConfig(ctx context.Context, cfg document.Config) bool {
	raw, err := document.Marshal(cfg)
	if err != nil {
		s.Logger.Errorf("storage", "encode config: %v", err)
		return false
	}
	if err := s.KV.Set(ctx, ConfigKey, raw); err != nil {
		s.Logger.Errorf("storage", "save config: %v", err)
		return false
	}
	return true
}

// LoadConfig returns the saved configuration, or nil when there is none or it
// cannot be decoded.
func (s *ConfigStore) LoadConfig(ctx context.Context) *document.Config {
	raw, err := s.KV.Get(ctx, ConfigKey)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.Logger.Errorf("storage", "load config: %v", err)
		}
		return nil
	}
	cfg, err := document.Parse(raw)
	if err != nil {
		s.Logger.Errorf("storage", "decode saved config: %v", err)
		return nil
	}
	return &cfg
}

func (s *ConfigStore) ClearConfig(ctx context.Context) bool {
	if err := s.KV.Delete(ctx, ConfigKey); err != nil {
		s.Logger.Errorf("storage", "clear config: %v", err)
		return false
	}
	return true
}

// Templates returns the saved templates, oldest first. A missing or corrupt
// list yields an empty slice.
func (s *ConfigStore) Templates(ctx context.Context) []document.Template {
	raw, err := s.KV.Get(ctx, TemplatesKey)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.Logger.Errorf("storage", "load templates: %v", err)
		}
		return []document.Template{}
	}
	var out []document.Template
	if err := json.Unmarshal(raw, &out); err != nil {
		s.Logger.Errorf("storage", "decode templates: %v", err)
		return []document.Template{}
	}
	if out == nil {
		out = []document.Template{}
	}
	return out
}

// SaveTemplate appends t to the template list.
func (s *ConfigStore) SaveTemplate(ctx context.Context, t document.Template) bool {
	return s.writeTemplates(ctx, append(s.Templates(ctx), t))
}

// DeleteTemplate removes every template with id and reports whether the
// list was written.
func (s *ConfigStore) DeleteTemplate(ctx context.Context, id string) bool {
	current := s.Templates(ctx)
	kept := make([]document.Template, 0, len(current))
	for _, t := range current {
		if t.ID != id {
			kept = append(kept, t)
		}
	}
	return s.writeTemplates(ctx, kept)
}

func (s *ConfigStore) writeTemplates(ctx context.Context, list []document.Template) bool {
	raw, err := json.Marshal(list)
	if err != nil {
		s.Logger.Errorf("storage", "encode templates: %v", err)
		return false
	}
	if err := s.KV.Set(ctx, TemplatesKey, raw); err != nil {
		s.Logger.Errorf("storage", "save templates: %v", err)
		return false
	}
	return true
}
