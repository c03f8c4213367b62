// Package document converts editor layouts to and from the persisted
// certificate configuration. The same JSON schema is used for auto-save,
// downloads, uploads and templates.
package document

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/rook-computer/certmaker/internal/element"
)

// ErrInvalidConfig is returned when configuration text cannot be decoded.
var ErrInvalidConfig = errors.New("invalid configuration file")

type BackgroundType string

const (
	BackgroundDefault  BackgroundType = "default"
	BackgroundCustom   BackgroundType = "custom"
	BackgroundGradient BackgroundType = "gradient"
)

// CanvasSettings describes the drawing surface and the two view toggles.
type CanvasSettings struct {
	Width           int  `json:"width"`
	Height          int  `json:"height"`
	Padding         int  `json:"padding"`
	ShowGrid        bool `json:"showGrid"`
	ShowSafeMargins bool `json:"showSafeMargins"`
}

// DefaultCanvasSettings returns the fixed A4 landscape surface with both guides on.
func DefaultCanvasSettings() CanvasSettings {
	return CanvasSettings{
		Width:           element.CanvasWidth,
		Height:          element.CanvasHeight,
		Padding:         element.CanvasMargin,
		ShowGrid:        true,
		ShowSafeMargins: true,
	}
}

// UnmarshalJSON fills fields missing from the input with their defaults,
// so a document without showGrid still shows the grid.
func (c *CanvasSettings) UnmarshalJSON(data []byte) error {
	type plain CanvasSettings
	out := plain(DefaultCanvasSettings())
	if err := json.Unmarshal(data, &out); err != nil {
		return err
	}
	*c = CanvasSettings(out)
	return nil
}

// Config is the serializable snapshot of everything the user can edit,
// except the certificate form data.
type Config struct {
	Elements           []element.TextElement  `json:"elements"`
	ImageElements      []element.ImageElement `json:"imageElements"`
	BackgroundImage    *string                `json:"backgroundImage"`
	BackgroundType     BackgroundType         `json:"backgroundType"`
	BackgroundGradient *string                `json:"backgroundGradient,omitempty"`
	Watermark          *element.Watermark     `json:"watermark,omitempty"`
	CanvasSettings     *CanvasSettings        `json:"canvasSettings,omitempty"`
}

// ForAutoSave returns a copy without the background image. Background data
// URIs can be megabytes and auto-save runs after every edit.
func (c Config) ForAutoSave() Config {
	out := c.Clone()
	out.BackgroundImage = nil
	out.BackgroundType = BackgroundDefault
	if out.BackgroundGradient != nil {
		out.BackgroundType = BackgroundGradient
	}
	return out
}

// Clone returns a deep copy.
func (c Config) Clone() Config {
	out := c
	out.Elements = element.CloneTexts(c.Elements)
	out.ImageElements = element.CloneImages(c.ImageElements)
	if c.BackgroundImage != nil {
		out.BackgroundImage = element.String(*c.BackgroundImage)
	}
	if c.BackgroundGradient != nil {
		out.BackgroundGradient = element.String(*c.BackgroundGradient)
	}
	if c.Watermark != nil {
		w := *c.Watermark
		out.Watermark = &w
	}
	if c.CanvasSettings != nil {
		s := *c.CanvasSettings
		out.CanvasSettings = &s
	}
	return out
}

// Layout is the persisted part of the editor state.
type Layout struct {
	Elements           []element.TextElement
	Images             []element.ImageElement
	Background         *string
	BackgroundGradient *string
	Watermark          element.Watermark
	ShowGrid           bool
	ShowSafeMargins    bool
}

// DefaultLayout is the state after a reset.
func DefaultLayout() Layout {
	return Layout{
		Elements:        element.DefaultElements(),
		Images:          []element.ImageElement{},
		Watermark:       element.DefaultWatermark(),
		ShowGrid:        true,
		ShowSafeMargins: true,
	}
}

// Serialize projects a layout onto the configuration schema.
func Serialize(l Layout) Config {
	elements := element.CloneTexts(l.Elements)
	if elements == nil {
		elements = []element.TextElement{}
	}
	images := element.CloneImages(l.Images)
	if images == nil {
		images = []element.ImageElement{}
	}
	settings := DefaultCanvasSettings()
	settings.ShowGrid = l.ShowGrid
	settings.ShowSafeMargins = l.ShowSafeMargins
	watermark := l.Watermark

	cfg := Config{
		Elements:       elements,
		ImageElements:  images,
		BackgroundType: BackgroundDefault,
		Watermark:      &watermark,
		CanvasSettings: &settings,
	}
	if l.Background != nil {
		cfg.BackgroundImage = element.String(*l.Background)
		cfg.BackgroundType = BackgroundCustom
	}
	if l.BackgroundGradient != nil {
		cfg.BackgroundGradient = element.String(*l.BackgroundGradient)
		if l.Background == nil {
			cfg.BackgroundType = BackgroundGradient
		}
	}
	return cfg
}

// Deserialize applies cfg on top of prev. Missing elements fall back to the
// defaults, missing images to none, and a missing watermark or canvas block
// keeps the values from prev.
func Deserialize(cfg Config, prev Layout) Layout {
	out := Layout{
		Elements: element.CloneTexts(cfg.Elements),
		Images:   element.CloneImages(cfg.ImageElements),
	}
	if out.Elements == nil {
		out.Elements = element.DefaultElements()
	}
	if out.Images == nil {
		out.Images = []element.ImageElement{}
	}
	if cfg.BackgroundImage != nil {
		out.Background = element.String(*cfg.BackgroundImage)
	}
	if cfg.BackgroundGradient != nil {
		out.BackgroundGradient = element.String(*cfg.BackgroundGradient)
	}

	out.Watermark = prev.Watermark
	if cfg.Watermark != nil {
		out.Watermark = *cfg.Watermark
	}
	out.ShowGrid = prev.ShowGrid
	out.ShowSafeMargins = prev.ShowSafeMargins
	if cfg.CanvasSettings != nil {
		out.ShowGrid = cfg.CanvasSettings.ShowGrid
		out.ShowSafeMargins = cfg.CanvasSettings.ShowSafeMargins
	}
	return out
}

// Parse decodes user supplied configuration text.
func Parse(data []byte) (Config, error) {
	data = bytes.TrimSpace(bytes.TrimPrefix(data, []byte("\xef\xbb\xbf")))
	if len(data) == 0 || data[0] != '{' {
		return Config{}, fmt.Errorf("%w: expected a JSON object", ErrInvalidConfig)
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return cfg, nil
}

// Encode writes cfg as indented JSON, the download format.
func Encode(w io.Writer, cfg Config) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(cfg)
}

// Marshal is the compact form used by storage backends.
func Marshal(cfg Config) ([]byte, error) {
	return json.Marshal(cfg)
}

// Template is a named, reusable configuration.
type Template struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Thumbnail   string `json:"thumbnail"`
	Config      Config `json:"config"`
}

// DownloadName is the default file name for configuration downloads.
const DownloadName = "certificate-config.json"
