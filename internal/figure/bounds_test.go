package figure

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inamate/figcore/internal/geom"
)

func TestGlobalShapeMatchesTransform(t *testing.T) {
	tr, _, fig := newTestTree(t)
	g := tr.NewGroup(pt(100), pt(100), pt(80), pt(40))
	s := tr.NewShape(ShapeEllipse, pt(10), pt(5), pt(30), pt(20))
	l := tr.NewLabel(pt(0), pt(30), "AB")
	require.True(t, fig.Append(g))
	require.True(t, g.Append(s))
	require.True(t, g.Append(l))
	require.True(t, g.SetRotate(30))

	fig.RenderBounds(true)
	Walk(fig, func(n *Node) bool {
		want := n.LocalToGlobal().TransformShape(n.CachedBounds())
		assert.True(t, want.Approx(n.GlobalShape(), 1e-9), n.Kind().String())
		return true
	})
}

func TestShapeBoundsIncludeStroke(t *testing.T) {
	tr, _, fig := newTestTree(t)
	s := tr.NewShape(ShapeRect, pt(10), pt(10), pt(100), pt(50))
	require.True(t, fig.Append(s))
	rectApprox(t, geom.Rect{X: -0.5, Y: -0.5, Width: 101, Height: 51}, s.CachedBounds())
	rectApprox(t, geom.Rect{X: 9.5, Y: 9.5, Width: 101, Height: 51}, s.GlobalShape().Bounds())

	require.True(t, s.SetStrokeWidth(4))
	rectApprox(t, geom.Rect{X: -2, Y: -2, Width: 104, Height: 54}, s.CachedBounds())
}

func TestLabelBoundsUseMeasurer(t *testing.T) {
	tr, _, fig := newTestTree(t)
	l := tr.NewLabel(pt(10), pt(20), "AB")
	require.True(t, fig.Append(l))
	rectApprox(t, geom.Rect{Y: -9.6, Width: 14.4, Height: 12}, l.CachedBounds())

	require.True(t, l.SetTitle("x2|1:S"))
	assert.InDelta(t, 0.6*12+0.6*12*ScriptScale, l.CachedBounds().Width, 1e-9)

	// A cascaded font change reaches the cached layout.
	require.True(t, fig.SetFontSize(24))
	assert.InDelta(t, 0.6*24+0.6*24*ScriptScale, l.CachedBounds().Width, 1e-9)
}

func TestAxisPlacement(t *testing.T) {
	tr, _, fig := newTestTree(t)
	g := tr.NewGraph(pt(50), pt(50), pt(300), pt(200))
	require.True(t, fig.Append(g))

	x, y := g.Component(0), g.Component(1)
	assert.Equal(t, Horizontal, x.Orientation())
	assert.Equal(t, Vertical, y.Orientation())
	assert.True(t, x.LocalToParent().Approx(geom.Translate(0, 200), 1e-12))
	assert.True(t, y.LocalToParent().IsIdentity())

	xb := x.GlobalShape().Bounds()
	assert.InDelta(t, 250, xb.Y, 1)
	assert.InDelta(t, 300, xb.Width, 2)

	// The graph bounds cover its axes.
	gb := g.CachedBounds()
	assert.Less(t, gb.X, 0.0)
	assert.Greater(t, gb.Bottom(), 200.0)
}

func TestUpdateAncestorRenderBoundsStopsEarly(t *testing.T) {
	tr, _, fig := newTestTree(t)
	g1 := tr.NewGroup(pt(0), pt(0), pt(400), pt(300))
	g2 := tr.NewGroup(pt(0), pt(0), pt(200), pt(100))
	s := tr.NewShape(ShapeRect, pt(0), pt(0), pt(10), pt(10))
	require.True(t, fig.Append(g1))
	require.True(t, g1.Append(g2))
	require.True(t, g2.Append(s))

	assert.Equal(t, 1, s.UpdateAncestorRenderBounds(), "unchanged parent stops the walk")

	restore := s.suppress()
	require.True(t, s.SetWidth(pt(1000)))
	restore()
	assert.False(t, s.BoundsValid())
	s.RenderBounds(false)
	assert.Equal(t, 3, s.UpdateAncestorRenderBounds())
	assert.Greater(t, fig.CachedBounds().Width, 1000.0)
	assert.Equal(t, 1, s.UpdateAncestorRenderBounds())
}

func TestHiddenNodeHasEmptyBounds(t *testing.T) {
	tr, h, fig := newTestTree(t)
	s := tr.NewShape(ShapeRect, pt(10), pt(10), pt(20), pt(20))
	require.True(t, fig.Append(s))
	old := s.GlobalShape().Bounds()

	require.True(t, s.SetHidden(true))
	assert.True(t, s.CachedBounds().IsEmpty())
	assert.True(t, s.GlobalShape().IsEmpty())
	assert.Equal(t, []geom.Rect{old}, h.last().dirty)
	assert.False(t, s.IsRendered())

	require.True(t, s.SetHidden(false))
	assert.False(t, s.IsExplicit(PropHidden))
	assert.Equal(t, []geom.Rect{old}, h.last().dirty)
}

func TestModifiedReportsOldAndNewBounds(t *testing.T) {
	tr, h, fig := newTestTree(t)
	s := tr.NewShape(ShapeRect, pt(10), pt(10), pt(20), pt(20))
	require.True(t, fig.Append(s))
	old := s.GlobalShape().Bounds()

	require.True(t, s.SetX(pt(100)))
	n := h.last()
	assert.Equal(t, s, n.origin)
	assert.Equal(t, ChangeModified, n.kind)
	require.Len(t, n.dirty, 2)
	assert.Equal(t, old, n.dirty[0])
	assert.Equal(t, s.GlobalShape().Bounds(), n.dirty[1])
}

func TestNeedsRendering(t *testing.T) {
	tr, _, fig := newTestTree(t)
	s := tr.NewShape(ShapeRect, pt(10), pt(10), pt(20), pt(20))
	require.True(t, fig.Append(s))

	assert.True(t, s.NeedsRendering(nil))
	assert.False(t, s.NeedsRendering([]geom.Rect{{X: 200, Y: 200, Width: 10, Height: 10}}))
	assert.True(t, s.NeedsRendering([]geom.Rect{{X: 200, Y: 200, Width: 10, Height: 10}, {X: 0, Y: 0, Width: 15, Height: 15}}))
}

func TestHitTest(t *testing.T) {
	tr, _, fig := newTestTree(t)
	big := tr.NewShape(ShapeRect, pt(0), pt(0), pt(200), pt(200))
	small := tr.NewShape(ShapeRect, pt(50), pt(50), pt(20), pt(20))
	require.True(t, fig.Append(small))
	require.True(t, fig.Append(big))

	assert.Equal(t, small, fig.HitTest(geom.Point{X: 60, Y: 60}), "smallest area wins regardless of z-order")
	assert.Equal(t, big, fig.HitTest(geom.Point{X: 150, Y: 150}))
	assert.Equal(t, fig, fig.HitTest(geom.Point{X: 300, Y: 300}))
	assert.Nil(t, fig.HitTest(geom.Point{X: -50, Y: -50}))

	require.True(t, small.SetHidden(true))
	assert.Equal(t, big, fig.HitTest(geom.Point{X: 60, Y: 60}))
}

func TestFocusShape(t *testing.T) {
	tr, _, fig := newTestTree(t)
	s := tr.NewShape(ShapeRect, pt(50), pt(50), pt(20), pt(20))
	require.True(t, fig.Append(s))
	rectApprox(t, geom.Rect{X: 45.5, Y: 45.5, Width: 29, Height: 29}, s.FocusShape().Bounds())

	tr.SetFocusMargin(0)
	rectApprox(t, s.GlobalShape().Bounds(), s.FocusShape().Bounds())
}
