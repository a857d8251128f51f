// Package style defines the value types of the cascading style attributes and
// the immutable set of default values the cascade falls back to.
package style

import (
	"errors"
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

var ErrUnknownValue = errors.New("unknown style value")

// FontStyle combines weight and posture.
type FontStyle uint8

const (
	Plain FontStyle = iota
	Bold
	Italic
	BoldItalic
)

var fontStyleNames = [...]string{"plain", "bold", "italic", "bolditalic"}

func (f FontStyle) String() string {
	if int(f) < len(fontStyleNames) {
		return fontStyleNames[f]
	}
	return "FontStyle(" + strconv.Itoa(int(f)) + ")"
}

// Valid reports whether f is a known font style.
func (f FontStyle) Valid() bool { return int(f) < len(fontStyleNames) }

// IsBold reports whether the style has a heavy weight.
func (f FontStyle) IsBold() bool { return f == Bold || f == BoldItalic }

// IsItalic reports whether the style is slanted.
func (f FontStyle) IsItalic() bool { return f == Italic || f == BoldItalic }

// ParseFontStyle reads a font style name.
func ParseFontStyle(s string) (FontStyle, error) {
	i, err := lookup(fontStyleNames[:], s)
	return FontStyle(i), err
}

// StrokeCap is the decoration applied at the ends of open strokes.
type StrokeCap uint8

const (
	CapButt StrokeCap = iota
	CapRound
	CapSquare
)

var capNames = [...]string{"butt", "round", "square"}

func (c StrokeCap) String() string {
	if int(c) < len(capNames) {
		return capNames[c]
	}
	return "StrokeCap(" + strconv.Itoa(int(c)) + ")"
}

// Valid reports whether c is a known cap.
func (c StrokeCap) Valid() bool { return int(c) < len(capNames) }

// ParseStrokeCap reads a stroke cap name.
func ParseStrokeCap(s string) (StrokeCap, error) {
	i, err := lookup(capNames[:], s)
	return StrokeCap(i), err
}

// StrokeJoin is the decoration applied where stroke segments meet.
type StrokeJoin uint8

const (
	JoinMiter StrokeJoin = iota
	JoinRound
	JoinBevel
)

var joinNames = [...]string{"miter", "round", "bevel"}

func (j StrokeJoin) String() string {
	if int(j) < len(joinNames) {
		return joinNames[j]
	}
	return "StrokeJoin(" + strconv.Itoa(int(j)) + ")"
}

// Valid reports whether j is a known join.
func (j StrokeJoin) Valid() bool { return int(j) < len(joinNames) }

// ParseStrokeJoin reads a stroke join name.
func ParseStrokeJoin(s string) (StrokeJoin, error) {
	i, err := lookup(joinNames[:], s)
	return StrokeJoin(i), err
}

// StrokePattern is either a named pattern ("solid", "dotted", "dashed",
// "dashdot") or a space-separated dash array in units of the stroke width.
type StrokePattern string

const (
	PatternSolid   StrokePattern = "solid"
	PatternDotted  StrokePattern = "dotted"
	PatternDashed  StrokePattern = "dashed"
	PatternDashDot StrokePattern = "dashdot"
)

var namedDashes = map[StrokePattern][]float64{
	PatternSolid:   nil,
	PatternDotted:  {1, 2},
	PatternDashed:  {6, 3},
	PatternDashDot: {6, 3, 1, 3},
}

// Dashes returns the dash array scaled by the stroke width, nil for solid.
func (p StrokePattern) Dashes(width float64) []float64 {
	base, ok := namedDashes[p]
	if !ok {
		base, _ = parseDashArray(string(p))
	}
	if len(base) == 0 {
		return nil
	}
	out := make([]float64, len(base))
	for i, d := range base {
		out[i] = d * width
	}
	return out
}

// Valid reports whether p is a named pattern or a well-formed dash array.
func (p StrokePattern) Valid() bool {
	if _, ok := namedDashes[p]; ok {
		return true
	}
	_, ok := parseDashArray(string(p))
	return ok
}

func parseDashArray(s string) ([]float64, bool) {
	fields := strings.Fields(s)
	if len(fields) == 0 || len(fields)%2 != 0 {
		return nil, false
	}
	out := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil || v <= 0 {
			return nil, false
		}
		out[i] = v
	}
	return out, true
}

// ParseColor reads "#rrggbb" or "#rgb" as an opaque color, and "none" as
// fully transparent.
func ParseColor(s string) (color.RGBA, error) {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "none") {
		return color.RGBA{}, nil
	}
	if !strings.HasPrefix(s, "#") {
		s = "#" + s
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("parse color %q: %w", s, err)
	}
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 0xff}, nil
}

// FormatColor writes c as "#rrggbb", or "none" when fully transparent.
func FormatColor(c color.RGBA) string {
	if c.A == 0 {
		return "none"
	}
	return ToColorful(c).Hex()
}

// ToColorful converts an 8-bit color into the colorful representation.
func ToColorful(c color.RGBA) colorful.Color {
	return colorful.Color{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}
}

func lookup(names []string, s string) (int, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, n := range names {
		if n == s {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownValue, s)
}
