package render

import (
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

var namedColors = map[string]color.NRGBA{
	"black":       {A: 0xff},
	"white":       {R: 0xff, G: 0xff, B: 0xff, A: 0xff},
	"transparent": {},
}

// ParseColor understands #rgb, #rrggbb, rgb(), rgba() and a few names.
func ParseColor(s string) (color.NRGBA, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if c, ok := namedColors[s]; ok {
		return c, nil
	}
	if strings.HasPrefix(s, "#") {
		c, err := colorful.Hex(s)
		if err != nil {
			return color.NRGBA{}, err
		}
		r, g, b := c.Clamped().RGB255()
		return color.NRGBA{R: r, G: g, B: b, A: 0xff}, nil
	}
	if args, ok := functionArgs(s, "rgba", "rgb"); ok {
		return parseRGBArgs(args)
	}
	return color.NRGBA{}, fmt.Errorf("unsupported color %q", s)
}

func colorOr(s string, fallback color.NRGBA) color.NRGBA {
	c, err := ParseColor(s)
	if err != nil {
		return fallback
	}
	return c
}

func parseRGBArgs(args []string) (color.NRGBA, error) {
	if len(args) != 3 && len(args) != 4 {
		return color.NRGBA{}, fmt.Errorf("rgb needs 3 or 4 components, got %d", len(args))
	}
	var ch [3]uint8
	for i := 0; i < 3; i++ {
		v, err := strconv.ParseFloat(strings.TrimSpace(args[i]), 64)
		if err != nil {
			return color.NRGBA{}, err
		}
		ch[i] = uint8(math.Round(math.Max(0, math.Min(255, v))))
	}
	alpha := 1.0
	if len(args) == 4 {
		v, err := strconv.ParseFloat(strings.TrimSpace(args[3]), 64)
		if err != nil {
			return color.NRGBA{}, err
		}
		alpha = math.Max(0, math.Min(1, v))
	}
	return color.NRGBA{R: ch[0], G: ch[1], B: ch[2], A: uint8(math.Round(alpha * 255))}, nil
}

// functionArgs splits "name(a, b, c)" into its arguments for any of names.
func functionArgs(s string, names ...string) ([]string, bool) {
	for _, name := range names {
		rest, ok := strings.CutPrefix(s, name+"(")
		if !ok {
			continue
		}
		inner, ok := strings.CutSuffix(rest, ")")
		if !ok {
			return nil, false
		}
		return splitTopLevel(inner, ','), true
	}
	return nil, false
}

// splitTopLevel splits s on sep outside parentheses.
func splitTopLevel(s string, sep rune) []string {
	var out []string
	depth, start := 0, 0
	for i, r := range s {
		switch {
		case r == '(':
			depth++
		case r == ')':
			depth--
		case r == sep && depth == 0:
			out = append(out, strings.TrimSpace(s[start:i]))
			start = i + 1
		}
	}
	return append(out, strings.TrimSpace(s[start:]))
}

// withOpacity multiplies the alpha of c by opacity clamped to [0, 1].
func withOpacity(c color.NRGBA, opacity float64) color.NRGBA {
	opacity = math.Max(0, math.Min(1, opacity))
	c.A = uint8(math.Round(float64(c.A) * opacity))
	return c
}

// Shadow is a parsed single text-shadow.
type Shadow struct {
	DX, DY, Blur float64
	Color        color.NRGBA
}

// ParseShadow reads "<dx> <dy> [<blur>] [<color>]" with px lengths. The
// colour may come first. "none" and "" yield ok == false.
func ParseShadow(s string) (Shadow, bool) {
	s = strings.TrimSpace(s)
	if s == "" || s == "none" {
		return Shadow{}, false
	}
	// Only the first of a comma separated list is drawn.
	s = splitTopLevel(s, ',')[0]

	sh := Shadow{Color: color.NRGBA{A: 0xff}}
	var lengths []float64
	for _, tok := range splitTopLevel(s, ' ') {
		if tok == "" {
			continue
		}
		if v, err := strconv.ParseFloat(strings.TrimSuffix(tok, "px"), 64); err == nil {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return Shadow{}, false
			}
			lengths = append(lengths, v)
			continue
		}
		c, err := ParseColor(tok)
		if err != nil {
			return Shadow{}, false
		}
		sh.Color = c
	}
	if len(lengths) < 2 || len(lengths) > 3 {
		return Shadow{}, false
	}
	sh.DX, sh.DY = lengths[0], lengths[1]
	if len(lengths) == 3 {
		sh.Blur = math.Max(0, lengths[2])
	}
	return sh, true
}

type GradientStop struct {
	Color  color.NRGBA
	Offset float64
}

// Gradient is a CSS style linear gradient. Angle is in degrees, 0 pointing
// up and increasing clockwise.
type Gradient struct {
	Angle float64
	Stops []GradientStop
}

var sideAngles = map[string]float64{
	"to top": 0, "to right": 90, "to bottom": 180, "to left": 270,
	"to top right": 45, "to right top": 45,
	"to bottom right": 135, "to right bottom": 135,
	"to bottom left": 225, "to left bottom": 225,
	"to top left": 315, "to left top": 315,
}

// ParseGradient reads linear-gradient(<angle>|to <side>, <color> [<pct>], ...).
// Stops without a position are spread evenly.
func ParseGradient(s string) (Gradient, error) {
	s = strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(s))), " ")
	args, ok := functionArgs(s, "linear-gradient")
	if !ok || len(args) == 0 {
		return Gradient{}, fmt.Errorf("unsupported gradient %q", s)
	}
	g := Gradient{Angle: 180}
	if a, ok := sideAngles[args[0]]; ok {
		g.Angle = a
		args = args[1:]
	} else if deg, ok := strings.CutSuffix(args[0], "deg"); ok {
		v, err := strconv.ParseFloat(deg, 64)
		if err != nil {
			return Gradient{}, fmt.Errorf("gradient angle: %w", err)
		}
		g.Angle = v
		args = args[1:]
	}
	if len(args) < 2 {
		return Gradient{}, fmt.Errorf("gradient needs at least two stops")
	}
	for i, arg := range args {
		colorPart, offset := arg, -1.0
		if idx := strings.LastIndex(arg, " "); idx > 0 && strings.HasSuffix(arg, "%") {
			v, err := strconv.ParseFloat(strings.TrimSuffix(arg[idx+1:], "%"), 64)
			if err != nil {
				return Gradient{}, fmt.Errorf("gradient stop: %w", err)
			}
			colorPart, offset = arg[:idx], v/100
		}
		c, err := ParseColor(colorPart)
		if err != nil {
			return Gradient{}, err
		}
		if offset < 0 {
			offset = float64(i) / float64(len(args)-1)
		}
		g.Stops = append(g.Stops, GradientStop{Color: c, Offset: offset})
	}
	return g, nil
}

// Line returns the gradient line endpoints for a w x h rectangle, following
// the CSS rule that corners receive the first and last stop colours.
func (g Gradient) Line(w, h float64) (x0, y0, x1, y1 float64) {
	rad := g.Angle * math.Pi / 180
	dx, dy := math.Sin(rad), -math.Cos(rad)
	half := (math.Abs(w*dx) + math.Abs(h*dy)) / 2
	cx, cy := w/2, h/2
	return cx - dx*half, cy - dy*half, cx + dx*half, cy + dy*half
}
