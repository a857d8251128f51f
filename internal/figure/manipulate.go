package figure

import (
	"math"

	"github.com/inamate/figcore/internal/geom"
	"github.com/inamate/figcore/internal/units"
)

// Handle is the part of a node's box grabbed by a resize drag.
type Handle uint8

const (
	HandleN Handle = iota
	HandleS
	HandleE
	HandleW
	HandleNE
	HandleNW
	HandleSE
	HandleSW
)

var handleNames = [...]string{"n", "s", "e", "w", "ne", "nw", "se", "sw"}

func (h Handle) String() string {
	if int(h) < len(handleNames) {
		return handleNames[h]
	}
	return "unknown"
}

// ParseHandle maps "n", "se", ... to a Handle.
func ParseHandle(s string) (Handle, bool) {
	for i, name := range handleNames {
		if name == s {
			return Handle(i), true
		}
	}
	return 0, false
}

func (h Handle) moves() (left, right, top, bottom bool) {
	switch h {
	case HandleN:
		top = true
	case HandleS:
		bottom = true
	case HandleE:
		right = true
	case HandleW:
		left = true
	case HandleNE:
		top, right = true, true
	case HandleNW:
		top, left = true, true
	case HandleSE:
		bottom, right = true, true
	case HandleSW:
		bottom, left = true, true
	}
	return
}

// Locus is the edge or center line of a bounding box used for alignment.
type Locus uint8

const (
	LocusLeft Locus = iota
	LocusRight
	LocusHCenter
	LocusTop
	LocusBottom
	LocusVCenter
)

var locusNames = [...]string{"left", "right", "hcenter", "top", "bottom", "vcenter"}

func (l Locus) String() string {
	if int(l) < len(locusNames) {
		return locusNames[l]
	}
	return "unknown"
}

// ParseLocus maps "left", "vcenter", ... to a Locus.
func ParseLocus(s string) (Locus, bool) {
	for i, name := range locusNames {
		if name == s {
			return Locus(i), true
		}
	}
	return 0, false
}

// Horizontal reports whether the locus is an x coordinate.
func (l Locus) Horizontal() bool {
	return l <= LocusHCenter
}

// --- Move ---

// Move translates n by (dx, dy) in root coordinates. The new anchor is
// expressed in the units n already uses. It returns false when n cannot be
// positioned, the parent transform is singular, or the quantized position
// did not change.
func (n *Node) Move(dx, dy float64) bool {
	b := n.tree.NewBatch("Move")
	n.MoveIn(b, dx, dy)
	return b.Commit()
}

// MoveIn is Move recording into an open batch.
func (n *Node) MoveIn(b *Batch, dx, dy float64) bool {
	if !n.caps.Has(CapPosition) || n.disposed {
		return false
	}
	toGlobal := n.ParentToGlobal()
	toParent, ok := toGlobal.Invert()
	if !ok {
		Logger().Debug("move aborted: singular transform", "node", n.key)
		return false
	}
	pv := n.parentViewport()
	g := toGlobal.Apply(n.anchorIn(pv)).Add(dx, dy)
	a := toParent.Apply(g)

	x, y := n.X(), n.Y()
	nx := units.FromPoints(a.X-pv.X, x.Unit, pv.Width)
	ny := units.FromPoints(a.Y-pv.Y, y.Unit, pv.Height)
	if nx.Equal(x) && ny.Equal(y) {
		return false
	}
	b.Set(n, PropX, nx)
	b.Set(n, PropY, ny)
	return true
}

// --- Resize ---

// Resize drags handle h of n by (dx, dy) in root coordinates. Only the
// edges the handle controls move, and no extent drops below the tree's
// resize floor times its pre-drag value.
func (n *Node) Resize(h Handle, dx, dy float64) bool {
	b := n.tree.NewBatch("Resize")
	n.ResizeIn(b, h, dx, dy, true)
	return b.Commit()
}

// ResizeIn is Resize recording into an open batch. direct is false when n is
// resized as part of a larger selection; dimensions in relative units are
// then left alone.
func (n *Node) ResizeIn(b *Batch, h Handle, dx, dy float64, direct bool) bool {
	if !n.caps.Has(CapPosition|CapSize) || n.disposed {
		return false
	}
	toGlobal := n.LocalToGlobal()
	toLocal, ok := toGlobal.Invert()
	if !ok {
		Logger().Debug("resize aborted: singular transform", "node", n.key)
		return false
	}
	pv := n.parentViewport()
	w, ht := n.extentIn(pv)

	// Drag vector in the node's own frame.
	o := toLocal.Apply(geom.Point{})
	d := toLocal.Apply(toGlobal.Apply(geom.Point{}).Add(dx, dy))
	ldx, ldy := d.X-o.X, d.Y-o.Y

	left, right, top, bottom := h.moves()
	x0, y0, x1, y1 := 0.0, 0.0, w, ht
	minW, minH := w*n.tree.resizeFloor, ht*n.tree.resizeFloor
	var clampW, clampH bool
	if left {
		x0 = math.Min(x0+ldx, x1-minW)
		clampW = x1-x0 <= minW
	}
	if right {
		x1 = math.Max(x1+ldx, x0+minW)
		clampW = x1-x0 <= minW
	}
	if top {
		y0 = math.Min(y0+ldy, y1-minH)
		clampH = y1-y0 <= minH
	}
	if bottom {
		y1 = math.Max(y1+ldy, y0+minH)
		clampH = y1-y0 <= minH
	}

	anchor := n.LocalToParent().Apply(geom.Point{X: x0, Y: y0})
	x, y, wm, hm := n.X(), n.Y(), n.Width(), n.Height()
	changed := false
	write := func(p Property, cur units.Measure, pts, ref float64, floor bool) {
		if cur.IsRelative() && !direct {
			return
		}
		m := units.FromPoints(pts, cur.Unit, ref)
		if floor {
			m = ceilMeasure(pts, cur.Unit, ref)
		}
		if !m.Equal(cur) && b.Set(n, p, m) {
			changed = true
		}
	}
	if left || right {
		write(PropWidth, wm, x1-x0, pv.Width, clampW)
	}
	if top || bottom {
		write(PropHeight, hm, y1-y0, pv.Height, clampH)
	}
	if left {
		write(PropX, x, anchor.X-pv.X, pv.Width, false)
	}
	if top {
		write(PropY, y, anchor.Y-pv.Y, pv.Height, false)
	}
	return changed
}

// ceilMeasure expresses pts in u rounded up to the unit's precision, so a
// clamped extent never quantizes below its floor.
func ceilMeasure(pts float64, u units.Unit, ref float64) units.Measure {
	m := units.FromPoints(pts, u, ref)
	if m.ToPoints(ref) >= pts-geom.Epsilon {
		return m
	}
	m.Value += math.Pow(10, -float64(u.Precision()))
	m.Value = units.Quantize(m.Value, u.Precision())
	return m
}

// --- Align ---

// AlignmentLocus returns the root-coordinate position of locus l of n's
// cached global bounds.
func (n *Node) AlignmentLocus(l Locus) float64 {
	r := n.globalShape.Bounds()
	switch l {
	case LocusRight:
		return r.Right()
	case LocusHCenter:
		return r.X + r.Width/2
	case LocusTop:
		return r.Y
	case LocusBottom:
		return r.Bottom()
	case LocusVCenter:
		return r.Y + r.Height/2
	default:
		return r.X
	}
}

// Align moves n, without resizing it, so that its locus l lies at target.
func (n *Node) Align(l Locus, target float64) bool {
	b := n.tree.NewBatch("Align")
	n.AlignIn(b, l, target)
	return b.Commit()
}

// AlignIn is Align recording into an open batch.
func (n *Node) AlignIn(b *Batch, l Locus, target float64) bool {
	if n.globalShape.IsEmpty() {
		return false
	}
	delta := target - n.AlignmentLocus(l)
	if math.Abs(delta) <= geom.Epsilon {
		return false
	}
	if l.Horizontal() {
		return n.MoveIn(b, delta, 0)
	}
	return n.MoveIn(b, 0, delta)
}
