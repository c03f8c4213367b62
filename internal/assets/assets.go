// Package assets provides the fonts used to rasterize certificates.
//
// Family names from the layout are mapped onto the Go font family: there is
// one sans face per weight/style pair plus a monospace face.
package assets

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"
)

type Variant int

const (
	Regular Variant = iota
	Bold
	Italic
	BoldItalic
	Mono
)

func (v Variant) String() string {
	switch v {
	case Bold:
		return "bold"
	case Italic:
		return "italic"
	case BoldItalic:
		return "bold-italic"
	case Mono:
		return "mono"
	}
	return "regular"
}

var ttf = map[Variant][]byte{
	Regular:    goregular.TTF,
	Bold:       gobold.TTF,
	Italic:     goitalic.TTF,
	BoldItalic: gobolditalic.TTF,
	Mono:       gomono.TTF,
}

var (
	parseOnce sync.Once
	parsed    map[Variant]*truetype.Font
	parseErr  error
)

// Font returns the parsed TrueType font for v.
func Font(v Variant) (*truetype.Font, error) {
	parseOnce.Do(func() {
		parsed = make(map[Variant]*truetype.Font, len(ttf))
		for variant, data := range ttf {
			f, err := truetype.Parse(data)
			if err != nil {
				parseErr = fmt.Errorf("parse %s font: %w", variant, err)
				return
			}
			parsed[variant] = f
		}
	})
	if parseErr != nil {
		return nil, parseErr
	}
	return parsed[v], nil
}

// VariantFor picks a face for a CSS-like family, weight and style triple.
// Numeric weights of 600 and above count as bold.
func VariantFor(family, weight, style string) Variant {
	fam := strings.ToLower(family)
	if strings.Contains(fam, "mono") || strings.Contains(fam, "courier") {
		return Mono
	}
	bold := weight == "bold" || weight == "bolder"
	if n, err := strconv.Atoi(weight); err == nil && n >= 600 {
		bold = true
	}
	italic := style == "italic" || style == "oblique"
	switch {
	case bold && italic:
		return BoldItalic
	case bold:
		return Bold
	case italic:
		return Italic
	}
	return Regular
}

type faceKey struct {
	variant Variant
	size    float64
}

// FaceCache hands out faces keyed by variant and pixel size. Faces carry a
// glyph cache and are not safe for concurrent use, so a FaceCache belongs to
// one goroutine.
type FaceCache struct {
	faces map[faceKey]font.Face
}

func NewFaceCache() *FaceCache {
	return &FaceCache{faces: map[faceKey]font.Face{}}
}

// Face returns a face for v at size pixels (72 DPI, so points equal pixels).
func (c *FaceCache) Face(v Variant, size float64) (font.Face, error) {
	if size <= 0 {
		size = 16
	}
	key := faceKey{variant: v, size: size}
	if f, ok := c.faces[key]; ok {
		return f, nil
	}
	tt, err := Font(v)
	if err != nil {
		return nil, err
	}
	f := truetype.NewFace(tt, &truetype.Options{Size: size, DPI: 72, Hinting: font.HintingNone})
	c.faces[key] = f
	return f, nil
}

// Close releases every cached face.
func (c *FaceCache) Close() {
	for k, f := range c.faces {
		_ = f.Close()
		delete(c.faces, k)
	}
}
