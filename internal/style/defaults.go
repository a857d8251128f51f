package style

import (
	"errors"
	"image/color"
)

// Font is the resolved font description a text measurement needs.
type Font struct {
	Family string
	Style  FontStyle
	Size   float64 // points
}

// Defaults holds the fallback value of every cascading style attribute. It is
// assembled once at startup and never mutated afterwards.
type Defaults struct {
	FontFamily    string
	FontStyle     FontStyle
	FontSize      float64
	AltFont       string
	PSFont        string
	FillColor     color.RGBA
	StrokeColor   color.RGBA
	StrokeWidth   float64
	StrokeCap     StrokeCap
	StrokeJoin    StrokeJoin
	StrokePattern StrokePattern
}

// Builtin returns the defaults used when no preferences were configured.
func Builtin() Defaults {
	black := color.RGBA{A: 0xff}
	return Defaults{
		FontFamily:    "Arial",
		FontStyle:     Plain,
		FontSize:      12,
		AltFont:       "sans-serif",
		PSFont:        "Helvetica",
		FillColor:     black,
		StrokeColor:   black,
		StrokeWidth:   1,
		StrokeCap:     CapButt,
		StrokeJoin:    JoinMiter,
		StrokePattern: PatternSolid,
	}
}

// Validate reports the first out-of-range value.
func (d Defaults) Validate() error {
	switch {
	case d.FontFamily == "":
		return errors.New("default font family is empty")
	case d.FontSize <= 0:
		return errors.New("default font size must be positive")
	case d.StrokeWidth < 0:
		return errors.New("default stroke width must not be negative")
	case !d.FontStyle.Valid(), !d.StrokeCap.Valid(), !d.StrokeJoin.Valid():
		return ErrUnknownValue
	case !d.StrokePattern.Valid():
		return errors.New("default stroke pattern is malformed")
	}
	return nil
}
