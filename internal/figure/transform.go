package figure

import (
	"math"

	"github.com/inamate/figcore/internal/geom"
)

// axisTickLength is the length of axis tick marks in points.
const axisTickLength = 4.0

// parentViewport resolves the viewport of n's parent in the parent's local
// coordinates. Percent extents are resolved top-down from the root.
func (n *Node) parentViewport() geom.Rect {
	var chain []*Node
	for p := n.Parent(); p != nil; p = p.Parent() {
		chain = append(chain, p)
	}
	var vp geom.Rect
	for i := len(chain) - 1; i >= 0; i-- {
		f := policies[chain[i].kind].viewport
		if f == nil {
			return geom.Rect{}
		}
		vp = f(chain[i], vp)
	}
	return vp
}

// Viewport returns the local rectangle in which n positions its
// subordinates. Kinds without children have an empty viewport.
func (n *Node) Viewport() geom.Rect {
	f := policies[n.kind].viewport
	if f == nil {
		return geom.Rect{}
	}
	return f(n, n.parentViewport())
}

// Anchor returns the position of n's local origin in parent coordinates.
func (n *Node) Anchor() geom.Point {
	return n.anchorIn(n.parentViewport())
}

func (n *Node) anchorIn(pv geom.Rect) geom.Point {
	return geom.Point{
		X: pv.X + n.X().ToPoints(pv.Width),
		Y: pv.Y + n.Y().ToPoints(pv.Height),
	}
}

// Extent returns the width and height of n in points.
func (n *Node) Extent() (w, h float64) {
	return n.extentIn(n.parentViewport())
}

func (n *Node) extentIn(pv geom.Rect) (w, h float64) {
	return n.Width().ToPoints(pv.Width), n.Height().ToPoints(pv.Height)
}

// LocalToParent maps n's local coordinates into its parent's.
func (n *Node) LocalToParent() geom.Matrix2D {
	if f := policies[n.kind].localToParent; f != nil {
		return f(n)
	}
	a := n.Anchor()
	m := geom.Translate(a.X, a.Y)
	if r := n.Rotate(); r != 0 {
		m = m.Multiply(geom.RotateDegrees(r))
	}
	return m
}

// LocalToGlobal maps n's local coordinates into root coordinates.
func (n *Node) LocalToGlobal() geom.Matrix2D {
	m := geom.Identity()
	for a := n; a != nil; a = a.Parent() {
		m = a.LocalToParent().Multiply(m)
	}
	return m
}

// ParentToGlobal maps the parent's local coordinates into root coordinates.
// For a root it is the identity.
func (n *Node) ParentToGlobal() geom.Matrix2D {
	if p := n.Parent(); p != nil {
		return p.LocalToGlobal()
	}
	return geom.Identity()
}

// --- Per-kind policy functions ---

func boxViewport(n *Node, parent geom.Rect) geom.Rect {
	w, h := n.extentIn(parent)
	return geom.Rect{Width: w, Height: h}
}

func pageBounds(n *Node, _ Measurer) geom.Rect {
	w, h := n.Extent()
	return geom.Rect{Width: w, Height: h}
}

// strokedBoxBounds is the declared box grown by half the stroke width.
func strokedBoxBounds(n *Node, _ Measurer) geom.Rect {
	w, h := n.Extent()
	r := geom.Rect{Width: w, Height: h}
	if r.IsEmpty() {
		return r
	}
	return r.Expand(n.StrokeWidth() / 2)
}

func traceBounds(n *Node, _ Measurer) geom.Rect {
	pts, _ := n.vals[PropPoints].([]geom.Point)
	if len(pts) == 0 {
		return geom.Rect{}
	}
	minX, minY := pts[0].X, pts[0].Y
	maxX, maxY := minX, minY
	for _, p := range pts[1:] {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}
	// A straight horizontal or vertical trace still paints its stroke.
	sw := n.StrokeWidth() / 2
	return geom.RectFromCorners(minX-sw, minY-sw, maxX+sw, maxY+sw)
}

func labelBounds(n *Node, mc Measurer) geom.Rect {
	l := n.textLayout(mc)
	if l.width <= 0 {
		return geom.Rect{}
	}
	return geom.Rect{Y: -l.ascent, Width: l.width, Height: l.ascent + l.descent}
}

// axisTransform places a horizontal axis along the bottom edge of its graph
// and a vertical axis along the left edge.
func axisTransform(n *Node) geom.Matrix2D {
	p := n.Parent()
	if p == nil || n.orientation == Vertical {
		return geom.Identity()
	}
	_, h := p.Extent()
	return geom.Translate(0, h)
}

// axisBounds covers the axis line, the tick marks and one line of tick
// labels, plus the title line when there is a title.
func axisBounds(n *Node, mc Measurer) geom.Rect {
	p := n.Parent()
	if p == nil {
		return geom.Rect{}
	}
	gw, gh := p.Extent()
	ext := mc.Measure("0", n.Font())
	band := axisTickLength + ext.Ascent + ext.Descent
	if l := n.textLayout(mc); l.width > 0 {
		band += l.ascent + l.descent
	}
	sw := n.StrokeWidth() / 2
	if n.orientation == Vertical {
		return geom.RectFromCorners(-band, -sw, sw, gh+sw)
	}
	return geom.RectFromCorners(-sw, -sw, gw+sw, band)
}
