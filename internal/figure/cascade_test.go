package figure

import (
	"image/color"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inamate/figcore/internal/style"
	"github.com/inamate/figcore/internal/units"
)

func TestCascadeFallsBackToDefaults(t *testing.T) {
	tr, _, fig := newTestTree(t)
	l := tr.NewLabel(pt(10), pt(20), "x")
	require.True(t, fig.Append(l))

	def := style.Builtin()
	for _, p := range StyleProperties {
		if !l.Supports(p) {
			continue
		}
		assert.Equal(t, props[p].def(&def), l.Resolve(p), p.String())
		assert.False(t, l.IsExplicit(p))
	}

	// Setting the resolved value keeps the property implicit.
	require.True(t, l.SetFontSize(def.FontSize))
	assert.False(t, l.IsExplicit(PropFontSize))
	require.True(t, l.SetFontFamily(def.FontFamily))
	assert.False(t, l.IsExplicit(PropFontFamily))
}

func TestCascadeNearestAncestor(t *testing.T) {
	tr, _, fig := newTestTree(t)
	outer := tr.NewGroup(pt(0), pt(0), pt(200), pt(200))
	inner := tr.NewGroup(pt(0), pt(0), pt(100), pt(100))
	l := tr.NewLabel(pt(0), pt(0), "x")
	require.True(t, fig.Append(outer))
	require.True(t, outer.Append(inner))
	require.True(t, inner.Append(l))

	require.True(t, fig.SetFontSize(20))
	require.True(t, outer.SetFontSize(16))
	assert.Equal(t, 16.0, l.FontSize())
	assert.True(t, l.IsInherited(PropFontSize))

	require.True(t, inner.SetFontSize(9))
	assert.Equal(t, 9.0, l.FontSize())

	require.True(t, inner.SetProperty(PropFontSize, nil))
	assert.Equal(t, 16.0, l.FontSize())
}

func TestFillEqualToInheritedIsImplicit(t *testing.T) {
	tr, _, fig := newTestTree(t)
	g := tr.NewGroup(pt(0), pt(0), pt(100), pt(100))
	s := tr.NewShape(ShapeRect, pt(0), pt(0), pt(10), pt(10))
	require.True(t, fig.Append(g))
	require.True(t, g.Append(s))

	red := color.RGBA{R: 0xff, A: 0xff}
	require.True(t, g.SetFillColor(red))
	require.True(t, s.SetFillColor(red))
	assert.False(t, s.IsExplicit(PropFillColor))
	assert.Equal(t, red, s.FillColor())
}

func TestSetPropertyRejects(t *testing.T) {
	tr, h, fig := newTestTree(t)
	tc := tr.NewTrace(nil)
	g := tr.NewGraph(pt(0), pt(0), pt(100), pt(100))
	require.True(t, fig.Append(g))
	require.True(t, g.Append(tc))
	edits := h.hist.Len()

	assert.False(t, tc.SetFontSize(20), "traces have no font")
	assert.False(t, g.SetFontSize(-1))
	assert.False(t, g.SetProperty(PropFontSize, "big"))
	assert.False(t, g.SetProperty(numProps, 1.0))
	assert.False(t, g.SetWidth(units.Measure{Value: math.NaN()}))
	assert.Equal(t, edits, h.hist.Len())
}

func TestNilRejectedForGeometry(t *testing.T) {
	tr, h, fig := newTestTree(t)
	l := tr.NewLabel(pt(5), pt(5), "Hi")
	require.True(t, fig.Append(l))
	edits := h.hist.Len()

	for _, p := range []Property{PropX, PropY, PropWidth, PropHeight} {
		assert.False(t, fig.SetProperty(p, nil), p.String())
	}
	assert.Equal(t, 500.0, fig.Width().Value)
	assert.Equal(t, 400.0, fig.Height().Value)
	assert.False(t, l.SetProperty(PropX, nil))
	assert.Equal(t, 5.0, l.X().Value)
	assert.Equal(t, edits, h.hist.Len())

	require.True(t, l.SetRotate(30))
	assert.True(t, l.SetProperty(PropRotate, nil), "optional properties clear")
	assert.True(t, l.SetProperty(PropTitle, nil))
	assert.True(t, l.SetProperty(PropFontSize, nil))

	// Undo may still clear a required value that was absent before.
	require.False(t, fig.IsExplicit(PropX))
	require.True(t, fig.SetX(pt(10)))
	require.True(t, h.hist.Undo())
	assert.False(t, fig.IsExplicit(PropX))
}

func TestIDMustBeUnique(t *testing.T) {
	tr, _, fig := newTestTree(t)
	a := tr.NewShape(ShapeRect, pt(0), pt(0), pt(1), pt(1))
	b := tr.NewShape(ShapeRect, pt(0), pt(0), pt(1), pt(1))
	require.True(t, fig.Append(a))
	require.True(t, fig.Append(b))

	require.True(t, a.SetIDValue("legend"))
	assert.False(t, b.SetIDValue("legend"))
	assert.True(t, a.SetIDValue("legend"), "a node does not collide with itself")
	assert.Equal(t, "", b.IDValue())
}

func TestRestoreDefaultStyles(t *testing.T) {
	tr, h, fig := newTestTree(t)
	g := tr.NewGroup(pt(0), pt(0), pt(100), pt(100))
	s := tr.NewShape(ShapeRect, pt(0), pt(0), pt(10), pt(10))
	require.True(t, fig.Append(g))
	require.True(t, g.Append(s))
	require.True(t, g.SetStrokeWidth(3))
	require.True(t, s.SetStrokeWidth(5))
	require.True(t, s.SetFillColor(color.RGBA{B: 0xff, A: 0xff}))
	edits := h.hist.Len()

	require.True(t, g.RestoreDefaultStyles(true, PropStrokeWidth))
	assert.False(t, g.IsExplicit(PropStrokeWidth))
	assert.False(t, s.IsExplicit(PropStrokeWidth))
	assert.True(t, s.IsExplicit(PropFillColor), "only the named property is restored")
	assert.Equal(t, edits+1, h.hist.Len())

	assert.False(t, g.RestoreDefaultStyles(true, PropStrokeWidth), "nothing left to restore")

	require.True(t, h.hist.Undo())
	assert.Equal(t, 3.0, g.StrokeWidth())
	assert.Equal(t, 5.0, s.StrokeWidth())

	require.True(t, g.RestoreDefaultStyles(false))
	assert.False(t, g.IsExplicit(PropStrokeWidth))
	assert.True(t, s.IsExplicit(PropStrokeWidth), "descendants untouched")
}

func TestRestoreDefaultStylesUndoKeepsExplicitDefault(t *testing.T) {
	tr, h, fig := newTestTree(t)
	g := tr.NewGroup(pt(0), pt(0), pt(100), pt(100))
	s := tr.NewShape(ShapeRect, pt(0), pt(0), pt(10), pt(10))
	require.True(t, fig.Append(g))
	require.True(t, g.Append(s))
	require.True(t, g.SetStrokeWidth(3))
	require.True(t, s.SetStrokeWidth(1))
	require.True(t, s.IsExplicit(PropStrokeWidth), "1 differs from the inherited 3")

	require.True(t, g.RestoreDefaultStyles(true, PropStrokeWidth))
	assert.Equal(t, 1.0, s.StrokeWidth())

	require.True(t, h.hist.Undo())
	assert.Equal(t, 3.0, g.StrokeWidth())
	assert.Equal(t, 1.0, s.StrokeWidth())
	assert.True(t, s.IsExplicit(PropStrokeWidth))

	require.True(t, h.hist.Redo())
	assert.False(t, s.IsExplicit(PropStrokeWidth))
	assert.False(t, g.IsExplicit(PropStrokeWidth))
}
