package figure

import (
	"image/color"
	"math"
	"slices"

	"github.com/inamate/figcore/internal/geom"
	"github.com/inamate/figcore/internal/style"
	"github.com/inamate/figcore/internal/units"
)

// Property identifies a generic node attribute.
type Property uint8

const (
	PropFontFamily Property = iota
	PropFontStyle
	PropFontSize
	PropAltFont
	PropPSFont
	PropFillColor
	PropStrokeColor
	PropStrokeWidth
	PropStrokeCap
	PropStrokeJoin
	PropStrokePattern
	PropX
	PropY
	PropWidth
	PropHeight
	PropRotate
	PropTitle
	PropID
	PropHidden
	PropPoints
	numProps
)

// StyleProperties lists the cascading style attributes in canonical order.
var StyleProperties = []Property{
	PropFontFamily, PropFontStyle, PropFontSize, PropAltFont, PropPSFont,
	PropFillColor, PropStrokeColor, PropStrokeWidth, PropStrokeCap,
	PropStrokeJoin, PropStrokePattern,
}

type propInfo struct {
	name     string
	cap      Capability
	cascades bool
	required bool // nil is only accepted from history replay
	bounds   bool // changes the render bounds
	visual   bool // changes what is painted
	valid    func(v any) bool
	def      func(d *style.Defaults) any
	equal    func(a, b any) bool
}

var props [numProps]propInfo

func init() {
	cascading := func(name string, c Capability, bounds bool, valid func(any) bool,
		equal func(a, b any) bool, def func(*style.Defaults) any) propInfo {
		return propInfo{name: name, cap: c, cascades: true, bounds: bounds, visual: true,
			valid: valid, equal: equal, def: def}
	}
	plain := func(name string, c Capability, valid func(any) bool, equal func(a, b any) bool) propInfo {
		return propInfo{name: name, cap: c, bounds: true, visual: true, valid: valid, equal: equal}
	}

	props[PropFontFamily] = cascading("fontFamily", CapFont, true, isNonEmptyString, equalComparable[string],
		func(d *style.Defaults) any { return d.FontFamily })
	props[PropFontStyle] = cascading("fontStyle", CapFont, true, isValidEnum[style.FontStyle], equalComparable[style.FontStyle],
		func(d *style.Defaults) any { return d.FontStyle })
	props[PropFontSize] = cascading("fontSize", CapFont, true, isPositive, equalFloat,
		func(d *style.Defaults) any { return d.FontSize })
	props[PropAltFont] = cascading("altFont", CapFont, false, isNonEmptyString, equalComparable[string],
		func(d *style.Defaults) any { return d.AltFont })
	props[PropPSFont] = cascading("psFont", CapFont, false, isNonEmptyString, equalComparable[string],
		func(d *style.Defaults) any { return d.PSFont })
	props[PropPSFont].visual = false
	props[PropFillColor] = cascading("fillColor", CapFill, false, isType[color.RGBA], equalComparable[color.RGBA],
		func(d *style.Defaults) any { return d.FillColor })
	props[PropStrokeColor] = cascading("strokeColor", CapStroke, false, isType[color.RGBA], equalComparable[color.RGBA],
		func(d *style.Defaults) any { return d.StrokeColor })
	props[PropStrokeWidth] = cascading("strokeWidth", CapStroke, true, isNonNegative, equalFloat,
		func(d *style.Defaults) any { return d.StrokeWidth })
	props[PropStrokeCap] = cascading("strokeCap", CapStroke, false, isValidEnum[style.StrokeCap], equalComparable[style.StrokeCap],
		func(d *style.Defaults) any { return d.StrokeCap })
	props[PropStrokeJoin] = cascading("strokeJoin", CapStroke, false, isValidEnum[style.StrokeJoin], equalComparable[style.StrokeJoin],
		func(d *style.Defaults) any { return d.StrokeJoin })
	props[PropStrokePattern] = cascading("strokePattern", CapStrokePattern, false, isValidEnum[style.StrokePattern], equalComparable[style.StrokePattern],
		func(d *style.Defaults) any { return d.StrokePattern })

	props[PropX] = plain("x", CapPosition, isValidMeasure, equalMeasure)
	props[PropY] = plain("y", CapPosition, isValidMeasure, equalMeasure)
	props[PropWidth] = plain("width", CapSize, isValidMeasure, equalMeasure)
	props[PropHeight] = plain("height", CapSize, isValidMeasure, equalMeasure)
	for _, p := range []Property{PropX, PropY, PropWidth, PropHeight} {
		props[p].required = true
	}
	props[PropRotate] = plain("rotate", CapRotation, isFinite, equalFloat)
	props[PropTitle] = plain("title", CapTitle, isType[string], equalComparable[string])
	props[PropID] = propInfo{name: "id", cap: CapID, valid: isNonEmptyString, equal: equalComparable[string]}
	props[PropHidden] = plain("hidden", CapNone, isType[bool], equalComparable[bool])
	props[PropPoints] = plain("points", CapData, isValidPoints, equalPoints)
}

func propInfoFor(p Property) (propInfo, bool) {
	if p >= numProps {
		return propInfo{}, false
	}
	return props[p], true
}

func (p Property) String() string {
	if p < numProps {
		return props[p].name
	}
	return "unknown"
}

// ParseProperty maps a property name back to the Property.
func ParseProperty(s string) (Property, bool) {
	for p := range numProps {
		if props[p].name == s {
			return p, true
		}
	}
	return 0, false
}

// Cascades reports whether p resolves through the ancestor chain.
func (p Property) Cascades() bool {
	return p < numProps && props[p].cascades
}

// --- Generic access ---

// SetProperty is the generic setter behind every typed setter. v must have
// the property's value type; nil makes a cascading property implicit and
// clears an optional one. It returns false, leaving the node unchanged,
// when the kind lacks the capability, v is invalid, or v is nil for a
// geometry property.
//
// While a multi-node batch applies to the node, the change is handed to the
// host instead. Otherwise, with notifications enabled, the bounds pipeline
// runs and a reversible edit is posted.
func (n *Node) SetProperty(p Property, v any) bool {
	if !n.accepts(p, v) {
		return false
	}
	if n.notify && n.tree.host.DispatchBatch(n, p, v) {
		return true
	}
	ok, _ := n.assign(p, v, false)
	return ok
}

// Accepts reports whether SetProperty would take v for p, ignoring ID
// uniqueness.
func (n *Node) Accepts(p Property, v any) bool {
	return n.accepts(p, v)
}

func (n *Node) accepts(p Property, v any) bool {
	return n.admits(p, v, false)
}

// admits is accepts, except that history replay may clear required
// properties that were absent before the recorded change.
func (n *Node) admits(p Property, v any, replay bool) bool {
	info, ok := propInfoFor(p)
	if !ok || n.disposed || !n.caps.Has(info.cap) {
		return false
	}
	if v == nil {
		return replay || !info.required
	}
	return info.valid(v)
}

// assign stores v. Outside replay a cascading value equal to the inherited
// one is normalized to implicit; replay stores exactly the recorded state,
// since the ancestors it would compare against may not be restored yet.
// changed is false when the stored state did not move.
func (n *Node) assign(p Property, v any, replay bool) (ok, changed bool) {
	if !n.admits(p, v, replay) {
		return false, false
	}
	info := props[p]
	if p == PropID && v != nil && n.tree.host.IDInUse(v.(string), n) {
		Logger().Debug("id rejected: in use", "node", n.key, "id", v)
		return false, false
	}
	if !replay && info.cascades && v != nil && info.equal(v, n.inherited(p)) {
		v = nil
	}
	old, had := n.vals[p]
	if (!had && v == nil) || (had && v != nil && info.equal(old, v)) {
		return true, false
	}

	before := n.globalShape.Bounds()
	if v == nil {
		delete(n.vals, p)
	} else {
		n.vals[p] = cloneValue(v)
	}

	if !n.notify {
		if info.bounds {
			n.invalidateSubtree()
		}
		return true, true
	}
	n.modified(before, info)
	n.tree.host.PostEdit(&propertyEdit{node: n, prop: p, old: old, new: v})
	return true, true
}

// ReplayProperty is the history re-entry point: it sets p with notifications
// and edit posting suppressed. triggerUpdate runs the bounds pass and change
// notification immediately; batched replays pass false and run one pass at
// the end. v is stored as given, never normalized against inherited values,
// so loaders use it to restore saved explicit state.
func (n *Node) ReplayProperty(p Property, v any, triggerUpdate bool) bool {
	if n.disposed {
		return false
	}
	before := n.globalShape.Bounds()
	ok, changed := n.replay(p, v)
	if ok && changed && triggerUpdate {
		n.modified(before, props[p])
	}
	return ok
}

func (n *Node) replay(p Property, v any) (ok, changed bool) {
	h := n.tree.host
	h.BlockEdits()
	defer h.UnblockEdits()
	restore := n.suppress()
	defer restore()
	return n.assign(p, v, true)
}

// Get returns the explicit value of p, or nil.
func (n *Node) Get(p Property) any {
	return n.vals[p]
}

// IsExplicit reports whether p has an own value on n.
func (n *Node) IsExplicit(p Property) bool {
	_, ok := n.vals[p]
	return ok
}

// ExplicitProperties returns the properties with own values, in order.
func (n *Node) ExplicitProperties() []Property {
	out := make([]Property, 0, len(n.vals))
	for p := range numProps {
		if _, ok := n.vals[p]; ok {
			out = append(out, p)
		}
	}
	return out
}

// --- Typed accessors ---
//
// Style getters return the resolved value; setters go through SetProperty.

func (n *Node) FontFamily() string {
	return n.Resolve(PropFontFamily).(string)
}

func (n *Node) FontStyle() style.FontStyle {
	return n.Resolve(PropFontStyle).(style.FontStyle)
}

func (n *Node) FontSize() float64 {
	return n.Resolve(PropFontSize).(float64)
}

func (n *Node) AltFont() string {
	return n.Resolve(PropAltFont).(string)
}

func (n *Node) PSFont() string {
	return n.Resolve(PropPSFont).(string)
}

func (n *Node) FillColor() color.RGBA {
	return n.Resolve(PropFillColor).(color.RGBA)
}

func (n *Node) StrokeColor() color.RGBA {
	return n.Resolve(PropStrokeColor).(color.RGBA)
}

func (n *Node) StrokeWidth() float64 {
	return n.Resolve(PropStrokeWidth).(float64)
}

func (n *Node) StrokeCap() style.StrokeCap {
	return n.Resolve(PropStrokeCap).(style.StrokeCap)
}

func (n *Node) StrokeJoin() style.StrokeJoin {
	return n.Resolve(PropStrokeJoin).(style.StrokeJoin)
}

func (n *Node) StrokePattern() style.StrokePattern {
	return n.Resolve(PropStrokePattern).(style.StrokePattern)
}

// Font returns the resolved font of the node.
func (n *Node) Font() style.Font {
	return style.Font{Family: n.FontFamily(), Style: n.FontStyle(), Size: n.FontSize()}
}

func (n *Node) SetFontFamily(s string) bool {
	return n.SetProperty(PropFontFamily, s)
}

func (n *Node) SetFontStyle(s style.FontStyle) bool {
	return n.SetProperty(PropFontStyle, s)
}

func (n *Node) SetFontSize(pts float64) bool {
	return n.SetProperty(PropFontSize, pts)
}

func (n *Node) SetFillColor(c color.RGBA) bool {
	return n.SetProperty(PropFillColor, c)
}

func (n *Node) SetStrokeColor(c color.RGBA) bool {
	return n.SetProperty(PropStrokeColor, c)
}

func (n *Node) SetStrokeWidth(pts float64) bool {
	return n.SetProperty(PropStrokeWidth, pts)
}

func (n *Node) SetStrokePattern(p style.StrokePattern) bool {
	return n.SetProperty(PropStrokePattern, p)
}

// X returns the horizontal anchor offset within the parent viewport.
func (n *Node) X() units.Measure { return n.measure(PropX) }

// Y returns the vertical anchor offset within the parent viewport.
func (n *Node) Y() units.Measure { return n.measure(PropY) }

// Width returns the declared width. Kinds without a size report zero.
func (n *Node) Width() units.Measure { return n.measure(PropWidth) }

// Height returns the declared height.
func (n *Node) Height() units.Measure { return n.measure(PropHeight) }

func (n *Node) SetX(m units.Measure) bool { return n.SetProperty(PropX, m) }

func (n *Node) SetY(m units.Measure) bool { return n.SetProperty(PropY, m) }

func (n *Node) SetWidth(m units.Measure) bool { return n.SetProperty(PropWidth, m) }

func (n *Node) SetHeight(m units.Measure) bool { return n.SetProperty(PropHeight, m) }

// Rotate returns the rotation about the anchor, in degrees.
func (n *Node) Rotate() float64 {
	r, _ := n.vals[PropRotate].(float64)
	return r
}

func (n *Node) SetRotate(deg float64) bool { return n.SetProperty(PropRotate, deg) }

// Title returns the encoded styled-text title.
func (n *Node) Title() string {
	s, _ := n.vals[PropTitle].(string)
	return s
}

func (n *Node) SetTitle(s string) bool { return n.SetProperty(PropTitle, s) }

// IDValue returns the document-unique user id, or "".
func (n *Node) IDValue() string {
	s, _ := n.vals[PropID].(string)
	return s
}

func (n *Node) SetIDValue(s string) bool { return n.SetProperty(PropID, s) }

func (n *Node) Hidden() bool {
	h, _ := n.vals[PropHidden].(bool)
	return h
}

func (n *Node) SetHidden(h bool) bool {
	if !h {
		return n.SetProperty(PropHidden, nil)
	}
	return n.SetProperty(PropHidden, true)
}

// Points returns a copy of a trace's data points.
func (n *Node) Points() []geom.Point {
	pts, _ := n.vals[PropPoints].([]geom.Point)
	return clonePoints(pts)
}

func (n *Node) SetPoints(pts []geom.Point) bool {
	return n.SetProperty(PropPoints, clonePoints(pts))
}

func (n *Node) measure(p Property) units.Measure {
	m, _ := n.vals[p].(units.Measure)
	return m
}

// --- Value helpers ---

type validator interface{ Valid() bool }

func isValidEnum[T validator](v any) bool {
	e, ok := v.(T)
	return ok && e.Valid()
}

func isType[T any](v any) bool {
	_, ok := v.(T)
	return ok
}

func equalComparable[T comparable](a, b any) bool {
	x, ok1 := a.(T)
	y, ok2 := b.(T)
	return ok1 && ok2 && x == y
}

func isNonEmptyString(v any) bool {
	s, ok := v.(string)
	return ok && s != ""
}

func isFinite(v any) bool {
	f, ok := v.(float64)
	return ok && !math.IsNaN(f) && !math.IsInf(f, 0)
}

func isPositive(v any) bool {
	return isFinite(v) && v.(float64) > 0
}

func isNonNegative(v any) bool {
	return isFinite(v) && v.(float64) >= 0
}

func equalFloat(a, b any) bool {
	x, ok1 := a.(float64)
	y, ok2 := b.(float64)
	return ok1 && ok2 && math.Abs(x-y) <= geom.Epsilon
}

func isValidMeasure(v any) bool {
	m, ok := v.(units.Measure)
	return ok && m.Valid()
}

func equalMeasure(a, b any) bool {
	x, ok1 := a.(units.Measure)
	y, ok2 := b.(units.Measure)
	return ok1 && ok2 && x.Equal(y)
}

func isValidPoints(v any) bool {
	pts, ok := v.([]geom.Point)
	if !ok {
		return false
	}
	for _, p := range pts {
		if math.IsNaN(p.X) || math.IsNaN(p.Y) || math.IsInf(p.X, 0) || math.IsInf(p.Y, 0) {
			return false
		}
	}
	return true
}

func equalPoints(a, b any) bool {
	x, ok1 := a.([]geom.Point)
	y, ok2 := b.([]geom.Point)
	return ok1 && ok2 && slices.Equal(x, y)
}

func clonePoints(pts []geom.Point) []geom.Point {
	if pts == nil {
		return nil
	}
	return slices.Clone(pts)
}

func cloneValue(v any) any {
	if pts, ok := v.([]geom.Point); ok {
		return clonePoints(pts)
	}
	return v
}
