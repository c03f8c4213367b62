package render

import (
	"image/color"
	"strings"
	"unicode/utf8"

	"github.com/fogleman/gg"
	"golang.org/x/image/font"
)

// textBlock is a laid out paragraph: one entry per line, in raster pixels.
type textBlock struct {
	lines     []string
	xs        []float64
	baselines []float64
}

func advance(face font.Face, s string) float64 {
	return float64(font.MeasureString(face, s)) / 64
}

// lineWidth includes letter spacing after every rune, like CSS.
func lineWidth(face font.Face, s string, spacing float64) float64 {
	return advance(face, s) + spacing*float64(utf8.RuneCountInString(s))
}

// wrapText breaks text into lines no wider than maxWidth. Explicit newlines
// are kept and words longer than a line are split between runes.
func wrapText(face font.Face, text string, maxWidth, spacing float64) []string {
	var lines []string
	for _, para := range strings.Split(text, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}
		current := ""
		for _, word := range words {
			if current != "" {
				if candidate := current + " " + word; lineWidth(face, candidate, spacing) <= maxWidth {
					current = candidate
					continue
				}
				lines = append(lines, current)
				current = ""
			}
			if lineWidth(face, word, spacing) <= maxWidth {
				current = word
				continue
			}
			pieces := breakWord(face, word, maxWidth, spacing)
			lines = append(lines, pieces[:len(pieces)-1]...)
			current = pieces[len(pieces)-1]
		}
		lines = append(lines, current)
	}
	// Trailing empty lines from a final newline do not take space.
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

func breakWord(face font.Face, word string, maxWidth, spacing float64) []string {
	var out []string
	current := ""
	for _, r := range word {
		next := current + string(r)
		if current != "" && lineWidth(face, next, spacing) > maxWidth {
			out = append(out, current)
			next = string(r)
		}
		current = next
	}
	return append(out, current)
}

// layoutBlock wraps text inside a padded box and centers it vertically.
// Box coordinates and sizes are already scaled.
func layoutBlock(face font.Face, text string, x, y, w, h, lineHeight, spacing float64, align string) textBlock {
	lines := wrapText(face, text, w, spacing)
	m := face.Metrics()
	ascent := float64(m.Ascent) / 64
	descent := float64(m.Descent) / 64
	top := y + (h-lineHeight*float64(len(lines)))/2

	block := textBlock{lines: lines}
	for i, line := range lines {
		lw := lineWidth(face, line, spacing)
		lx := x
		switch align {
		case "center":
			lx = x + (w-lw)/2
		case "right":
			lx = x + w - lw
		}
		block.xs = append(block.xs, lx)
		block.baselines = append(block.baselines, top+float64(i)*lineHeight+(lineHeight-(ascent+descent))/2+ascent)
	}
	return block
}

// drawBlock draws block rotated by deg around (cx, cy), shifted by (dx, dy)
// in the rotated frame.
func drawBlock(dc *gg.Context, face font.Face, block textBlock, spacing float64, col color.Color, deg, cx, cy, dx, dy float64) {
	dc.Push()
	defer dc.Pop()
	if deg != 0 {
		dc.RotateAbout(gg.Radians(deg), cx, cy)
	}
	dc.SetFontFace(face)
	dc.SetColor(col)
	for i, line := range block.lines {
		drawTracked(dc, face, line, block.xs[i]+dx, block.baselines[i]+dy, spacing)
	}
}

func drawTracked(dc *gg.Context, face font.Face, line string, x, y, spacing float64) {
	if spacing == 0 {
		dc.DrawString(line, x, y)
		return
	}
	for _, r := range line {
		s := string(r)
		dc.DrawString(s, x, y)
		x += advance(face, s) + spacing
	}
}
