/*
Package units holds measured lengths: a value paired with a measurement unit.

Absolute units convert to typographic points, the uniform linear unit of a
figure's root-global frame. The relative unit (percent) is resolved against a
reference extent supplied by the parent viewport at conversion time, so a
Measure stays meaningful when its container is resized.
*/
package units

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// standard conversion factors, in points
const (
	PtPerInch = 72.0
	PtPerCm   = PtPerInch / 2.54
	PtPerMm   = PtPerInch / 25.4
	PtPerPica = 12.0
)

// Unit identifies the unit of a Measure.
type Unit uint8

const (
	// Pt is a typographic point, 1/72 in. The root-global unit.
	Pt Unit = iota

	// In is an inch.
	In

	// Cm is a centimeter.
	Cm

	// Mm is a millimeter.
	Mm

	// Pc is a pica, 12pt.
	Pc

	// Percent is a percentage of the reference extent of the parent viewport.
	Percent
)

var unitNames = [...]string{
	Pt:      "pt",
	In:      "in",
	Cm:      "cm",
	Mm:      "mm",
	Pc:      "pc",
	Percent: "%",
}

// precision is the number of fractional digits a value is quantized to
// after an interactive edit, per unit.
var precision = [...]int{
	Pt:      2,
	In:      3,
	Cm:      3,
	Mm:      2,
	Pc:      3,
	Percent: 2,
}

// ErrInvalid is returned by Parse for malformed measures.
var ErrInvalid = errors.New("invalid measure")

func (u Unit) String() string {
	if int(u) < len(unitNames) {
		return unitNames[u]
	}
	return fmt.Sprintf("Unit(%d)", u)
}

// Valid reports whether u is a known unit.
func (u Unit) Valid() bool {
	return int(u) < len(unitNames)
}

// IsRelative reports whether values in this unit depend on the parent
// viewport extent.
func (u Unit) IsRelative() bool {
	return u == Percent
}

// Precision returns the number of fractional digits kept for this unit.
func (u Unit) Precision() int {
	if !u.Valid() {
		return 0
	}
	return precision[u]
}

// factor returns the points-per-unit for absolute units.
func (u Unit) factor() float64 {
	switch u {
	case In:
		return PtPerInch
	case Cm:
		return PtPerCm
	case Mm:
		return PtPerMm
	case Pc:
		return PtPerPica
	default:
		return 1
	}
}

// Measure is a length expressed as a value in a unit.
type Measure struct {
	Value float64
	Unit  Unit
}

// New returns a Measure. Shorthand used heavily in tests and constructors.
func New(v float64, u Unit) Measure {
	return Measure{Value: v, Unit: u}
}

// Points is a Measure in points.
func Points(v float64) Measure { return Measure{Value: v, Unit: Pt} }

// Inches is a Measure in inches.
func Inches(v float64) Measure { return Measure{Value: v, Unit: In} }

// Pct is a Measure in percent of the reference extent.
func Pct(v float64) Measure { return Measure{Value: v, Unit: Percent} }

// IsRelative reports whether m depends on the parent viewport extent.
func (m Measure) IsRelative() bool {
	return m.Unit.IsRelative()
}

// Valid reports whether m has a known unit and a finite value.
func (m Measure) Valid() bool {
	return m.Unit.Valid() && !math.IsNaN(m.Value) && !math.IsInf(m.Value, 0)
}

// ToPoints converts m to points. ref is the reference extent in points used
// for relative units.
func (m Measure) ToPoints(ref float64) float64 {
	if m.Unit == Percent {
		return m.Value / 100 * ref
	}
	return m.Value * m.Unit.factor()
}

// FromPoints expresses pts in unit u, quantized to the unit's precision. ref
// is the reference extent for relative units; a zero ref with a relative unit
// yields a zero value.
func FromPoints(pts float64, u Unit, ref float64) Measure {
	var v float64
	if u == Percent {
		if ref != 0 {
			v = pts / ref * 100
		}
	} else {
		v = pts / u.factor()
	}
	return Measure{Value: Quantize(v, u.Precision()), Unit: u}
}

// Scale multiplies the value by f and requantizes it.
func (m Measure) Scale(f float64) Measure {
	return Measure{Value: Quantize(m.Value*f, m.Unit.Precision()), Unit: m.Unit}
}

// Equal reports whether both measures share a unit and a quantized value.
func (m Measure) Equal(o Measure) bool {
	if m.Unit != o.Unit {
		return false
	}
	p := m.Unit.Precision()
	return Quantize(m.Value, p) == Quantize(o.Value, p)
}

// Quantize rounds v to the given number of fractional digits.
func Quantize(v float64, digits int) float64 {
	scale := math.Pow(10, float64(digits))
	q := math.Round(v*scale) / scale
	if q == 0 {
		return 0
	}
	return q
}

func (m Measure) String() string {
	return strconv.FormatFloat(m.Value, 'f', -1, 64) + m.Unit.String()
}

// Parse reads a measure such as "1.5in", "12pt", "50%". A bare number is in
// points.
func Parse(s string) (Measure, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Measure{}, ErrInvalid
	}
	u := Pt
	num := s
	for i, name := range unitNames {
		if strings.HasSuffix(s, name) {
			u = Unit(i)
			num = strings.TrimSpace(strings.TrimSuffix(s, name))
			break
		}
	}
	v, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return Measure{}, fmt.Errorf("%w %q: %v", ErrInvalid, s, err)
	}
	m := Measure{Value: v, Unit: u}
	if !m.Valid() {
		return Measure{}, fmt.Errorf("%w %q", ErrInvalid, s)
	}
	return m, nil
}

// MarshalText implements encoding.TextMarshaler.
func (m Measure) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Measure) UnmarshalText(b []byte) error {
	v, err := Parse(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}
