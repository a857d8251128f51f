package document

import (
	"encoding/json"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inamate/figcore/internal/figure"
	"github.com/inamate/figcore/internal/geom"
	"github.com/inamate/figcore/internal/style"
	"github.com/inamate/figcore/internal/units"
)

func pt(v float64) units.Measure { return units.Points(v) }

func newTestDocument(t *testing.T, opts Options) *Document {
	t.Helper()
	d := New(FigureInfo{ID: "fig_test", Name: "test"}, style.Builtin(), pt(500), pt(400), opts)
	rects, full := d.TakeDirty()
	require.True(t, full, "a new document paints the whole page")
	require.Empty(t, rects)
	return d
}

func addShape(t *testing.T, d *Document, x, y, w, h float64) *figure.Node {
	t.Helper()
	s := d.Tree().NewShape(figure.ShapeRect, pt(x), pt(y), pt(w), pt(h))
	require.NoError(t, d.Insert(d.Root().Key(), s, -1))
	return s
}

func TestInsertAndUndo(t *testing.T) {
	d := newTestDocument(t, Options{})
	s := addShape(t, d, 10, 10, 20, 20)

	assert.Equal(t, 1, d.History().Len())
	assert.Equal(t, "Insert shape", d.History().UndoDescription())
	rects, full := d.TakeDirty()
	assert.False(t, full)
	require.Len(t, rects, 1)

	require.True(t, d.Undo())
	assert.Nil(t, s.Parent())
	require.True(t, d.Redo())
	assert.Equal(t, d.Root(), s.Parent())

	assert.ErrorIs(t, d.Insert("nope", d.Tree().NewGroup(pt(0), pt(0), pt(1), pt(1)), 0), ErrUnknownNode)
	assert.Error(t, d.Insert(d.Root().Key(), d.Tree().NewTrace(nil), 0), "figures do not hold traces")
}

func TestSelectRejectsUnknownAndDetached(t *testing.T) {
	d := newTestDocument(t, Options{})
	s := addShape(t, d, 10, 10, 20, 20)
	loose := d.Tree().NewGroup(pt(0), pt(0), pt(1), pt(1))

	require.NoError(t, d.Select(s.Key(), s.Key()))
	assert.Equal(t, []string{s.Key()}, d.SelectionKeys())
	assert.ErrorIs(t, d.Select("missing"), ErrUnknownNode)
	assert.ErrorIs(t, d.Select(loose.Key()), ErrDetached)
	assert.Equal(t, []string{s.Key()}, d.SelectionKeys(), "a failed select keeps the old selection")
}

func TestMoveSelectionIsOneEdit(t *testing.T) {
	d := newTestDocument(t, Options{})
	a := addShape(t, d, 10, 10, 20, 20)
	b := addShape(t, d, 100, 10, 20, 20)
	require.NoError(t, d.Select(a.Key(), b.Key()))
	edits := d.History().Len()

	require.True(t, d.Move(5, 5))
	assert.Equal(t, pt(15), a.X())
	assert.Equal(t, pt(105), b.X())
	assert.Equal(t, edits+1, d.History().Len())

	require.True(t, d.Undo())
	assert.Equal(t, pt(10), a.X())
	assert.Equal(t, pt(100), b.X())
}

func TestMoveSkipsNodesBelowSelectedAncestor(t *testing.T) {
	d := newTestDocument(t, Options{})
	g := d.Tree().NewGroup(pt(0), pt(0), pt(200), pt(200))
	require.NoError(t, d.Insert(d.Root().Key(), g, -1))
	s := d.Tree().NewShape(figure.ShapeRect, pt(10), pt(10), pt(20), pt(20))
	require.NoError(t, d.Insert(g.Key(), s, -1))
	require.NoError(t, d.Select(g.Key(), s.Key()))

	require.True(t, d.Move(10, 0))
	assert.Equal(t, pt(10), g.X())
	assert.Equal(t, pt(10), s.X(), "moves with its group only")
}

func TestAlignSelection(t *testing.T) {
	d := newTestDocument(t, Options{})
	a := addShape(t, d, 10, 10, 100, 50)
	b := addShape(t, d, 200, 80, 40, 40)
	c := addShape(t, d, 300, 150, 60, 20)
	require.NoError(t, d.Select(a.Key(), b.Key(), c.Key()))
	edits := d.History().Len()

	require.True(t, d.Align(figure.LocusRight))
	assert.InDelta(t, a.AlignmentLocus(figure.LocusRight), b.AlignmentLocus(figure.LocusRight), 1e-6)
	assert.InDelta(t, a.AlignmentLocus(figure.LocusRight), c.AlignmentLocus(figure.LocusRight), 1e-6)
	assert.Equal(t, edits+1, d.History().Len())
	assert.False(t, d.Align(figure.LocusRight), "already aligned")

	require.NoError(t, d.Select(a.Key()))
	assert.False(t, d.Align(figure.LocusLeft), "needs a reference and a target")
}

func TestResizeSelection(t *testing.T) {
	d := newTestDocument(t, Options{})
	a := addShape(t, d, 10, 10, 100, 50)
	b := addShape(t, d, 200, 10, 40, 40)
	require.NoError(t, d.Select(a.Key(), b.Key()))

	require.True(t, d.Resize(figure.HandleSE, 10, 20))
	assert.Equal(t, pt(110), a.Width())
	assert.Equal(t, pt(60), b.Height())
	assert.Equal(t, "Resize", d.History().UndoDescription())
}

func TestBatchModeFansOut(t *testing.T) {
	d := newTestDocument(t, Options{})
	a := addShape(t, d, 10, 10, 20, 20)
	b := addShape(t, d, 50, 10, 20, 20)
	c := addShape(t, d, 90, 10, 20, 20)
	require.NoError(t, d.Select(a.Key(), b.Key()))
	red := color.RGBA{R: 0xff, A: 0xff}
	edits := d.History().Len()

	require.True(t, a.SetFillColor(red))
	assert.False(t, b.IsExplicit(figure.PropFillColor), "batch mode is off")
	require.True(t, d.Undo())

	d.SetBatchMode(true)
	require.True(t, a.SetFillColor(red))
	assert.Equal(t, red, a.FillColor())
	assert.Equal(t, red, b.FillColor())
	assert.False(t, c.IsExplicit(figure.PropFillColor))
	assert.Equal(t, edits+1, d.History().Len())
	assert.Equal(t, "Set fillColor", d.History().UndoDescription())

	require.True(t, c.SetStrokeWidth(4), "unselected nodes are not batched")
	assert.Equal(t, 1.0, b.StrokeWidth())

	require.True(t, d.Undo())
	require.True(t, d.Undo())
	assert.False(t, a.IsExplicit(figure.PropFillColor))
	assert.False(t, b.IsExplicit(figure.PropFillColor))
}

func TestRescaleSelectionGroupsEdits(t *testing.T) {
	d := newTestDocument(t, Options{})
	a := addShape(t, d, 10, 10, 100, 50)
	b := addShape(t, d, 200, 10, 40, 40)
	require.NoError(t, d.Select(a.Key(), b.Key()))
	edits := d.History().Len()

	require.True(t, d.Rescale(50))
	assert.Equal(t, pt(50), a.Width())
	assert.Equal(t, pt(20), b.Width())
	assert.Equal(t, edits+1, d.History().Len())
	assert.Equal(t, "Rescale", d.History().UndoDescription())

	require.True(t, d.Undo())
	assert.Equal(t, pt(100), a.Width())
	assert.Equal(t, pt(40), b.Width())
}

func TestRestoreDefaultStylesOnSelection(t *testing.T) {
	d := newTestDocument(t, Options{})
	a := addShape(t, d, 10, 10, 20, 20)
	b := addShape(t, d, 50, 10, 20, 20)
	require.True(t, a.SetStrokeWidth(3))
	require.True(t, b.SetStrokeWidth(5))
	require.NoError(t, d.Select(a.Key(), b.Key()))
	edits := d.History().Len()

	require.True(t, d.RestoreDefaultStyles(false))
	assert.False(t, a.IsExplicit(figure.PropStrokeWidth))
	assert.False(t, b.IsExplicit(figure.PropStrokeWidth))
	assert.Equal(t, edits+1, d.History().Len())
	assert.False(t, d.RestoreDefaultStyles(false))
}

func TestCopyPasteStyle(t *testing.T) {
	d := newTestDocument(t, Options{})
	src := addShape(t, d, 10, 10, 20, 20)
	a := addShape(t, d, 50, 10, 20, 20)
	b := addShape(t, d, 90, 10, 20, 20)
	blue := color.RGBA{B: 0xff, A: 0xff}
	require.True(t, src.SetFillColor(blue))
	require.True(t, src.SetStrokeWidth(2))

	assert.False(t, d.PasteStyle(), "empty clipboard")
	require.NoError(t, d.Select(src.Key()))
	require.True(t, d.CopyStyle())
	require.NotNil(t, d.Clipboard())

	require.NoError(t, d.Select(a.Key(), b.Key()))
	edits := d.History().Len()
	require.True(t, d.PasteStyle())
	assert.Equal(t, blue, a.FillColor())
	assert.Equal(t, 2.0, b.StrokeWidth())
	assert.Equal(t, edits+1, d.History().Len())

	require.True(t, d.Undo())
	assert.False(t, a.IsExplicit(figure.PropFillColor))
	assert.False(t, b.IsExplicit(figure.PropStrokeWidth))
}

func TestDeleteSelection(t *testing.T) {
	d := newTestDocument(t, Options{})
	a := addShape(t, d, 10, 10, 20, 20)
	b := addShape(t, d, 50, 10, 20, 20)
	require.NoError(t, d.Select(a.Key(), b.Key()))

	require.True(t, d.DeleteSelection())
	assert.Empty(t, d.Selection(), "removed nodes leave the selection")
	assert.Equal(t, 0, d.Root().ChildCount())
	assert.Equal(t, "Delete", d.History().UndoDescription())

	require.True(t, d.Undo())
	assert.Equal(t, []*figure.Node{a, b}, d.Root().Children())
}

func TestSetZOrder(t *testing.T) {
	d := newTestDocument(t, Options{})
	a := addShape(t, d, 10, 10, 20, 20)
	b := addShape(t, d, 50, 10, 20, 20)

	require.NoError(t, d.SetZOrder(a.Key(), 1))
	assert.Equal(t, []*figure.Node{b, a}, d.Root().Children())
	assert.Error(t, d.SetZOrder(a.Key(), 5))
	assert.Error(t, d.SetZOrder(d.Root().Key(), 0))
}

func TestHitTestAndSelectAt(t *testing.T) {
	d := newTestDocument(t, Options{})
	s := addShape(t, d, 10, 10, 20, 20)

	assert.Equal(t, s, d.SelectAt(geom.Point{X: 15, Y: 15}))
	assert.Equal(t, []*figure.Node{s}, d.Selection())
	rectApprox(t, s.GlobalShape().Bounds(), d.SelectionBounds())
	require.Len(t, d.FocusShapes(), 1)

	assert.Nil(t, d.SelectAt(geom.Point{X: -10, Y: -10}))
	assert.Empty(t, d.Selection())
}

func TestDirtyRegionFallsBackToFullRepaint(t *testing.T) {
	d := newTestDocument(t, Options{MaxDirtyRects: 3})
	a := addShape(t, d, 10, 10, 20, 20)
	d.TakeDirty()

	require.True(t, a.SetX(pt(100)))
	rects, full := d.TakeDirty()
	assert.False(t, full)
	assert.Len(t, rects, 2)
	assert.False(t, d.HasDirty())

	require.True(t, a.SetX(pt(200)))
	require.True(t, a.SetX(pt(300)))
	rects, full = d.TakeDirty()
	assert.True(t, full)
	assert.Empty(t, rects)
}

func TestEnsureUniqueID(t *testing.T) {
	d := newTestDocument(t, Options{})
	a := addShape(t, d, 10, 10, 20, 20)
	require.True(t, a.SetIDValue("legend"))

	assert.Equal(t, "free", d.EnsureUniqueID("free"))
	assert.Equal(t, "legend-2", d.EnsureUniqueID("legend"))

	// A removed node may come back after another node took its id.
	require.True(t, d.Root().Remove(a))
	b := addShape(t, d, 50, 10, 20, 20)
	require.True(t, b.SetIDValue("legend"))
	require.NoError(t, d.Insert(d.Root().Key(), a, -1))
	assert.Equal(t, "legend-2", a.IDValue())
	assert.Equal(t, "legend", b.IDValue())
}

func TestListeners(t *testing.T) {
	d := newTestDocument(t, Options{})
	var got []Change
	stop := d.Subscribe(func(c Change) { got = append(got, c) })

	s := addShape(t, d, 10, 10, 20, 20)
	require.Len(t, got, 1)
	assert.Equal(t, s.Key(), got[0].Node)
	assert.Equal(t, figure.ChangeInserted, got[0].Kind)

	stop()
	require.True(t, s.SetX(pt(50)))
	assert.Len(t, got, 1)
}

func rectApprox(t *testing.T, want, got geom.Rect) {
	t.Helper()
	assert.InDelta(t, want.X, got.X, 1e-9)
	assert.InDelta(t, want.Y, got.Y, 1e-9)
	assert.InDelta(t, want.Width, got.Width, 1e-9)
	assert.InDelta(t, want.Height, got.Height, 1e-9)
}

func TestInsertRecord(t *testing.T) {
	d := newTestDocument(t, Options{})
	rec := NodeRecord{
		Kind:  "shape",
		Shape: "ellipse",
		Props: map[string]json.RawMessage{
			"x":         json.RawMessage(`"10pt"`),
			"y":         json.RawMessage(`"20pt"`),
			"width":     json.RawMessage(`"30pt"`),
			"height":    json.RawMessage(`"40pt"`),
			"fillColor": json.RawMessage(`"#ff0000"`),
		},
	}
	n, err := d.InsertRecord(d.Root().Key(), rec, -1)
	require.NoError(t, err)
	assert.Equal(t, figure.ShapeEllipse, n.ShapeType())
	assert.Equal(t, pt(20), n.Y())
	assert.Equal(t, color.RGBA{R: 0xff, A: 0xff}, n.FillColor())
	assert.Equal(t, 1, d.History().Len(), "creation and values are one edit")

	require.True(t, d.Undo())
	assert.Nil(t, n.Parent())

	_, err = d.InsertRecord(d.Root().Key(), NodeRecord{Kind: "trace"}, -1)
	assert.Error(t, err, "figures do not hold traces")
	_, err = d.InsertRecord(d.Root().Key(), NodeRecord{Kind: "label", Props: map[string]json.RawMessage{
		"points": json.RawMessage(`[]`),
	}}, -1)
	assert.ErrorIs(t, err, ErrInvalidSnapshot)
	assert.Equal(t, 0, d.Root().ChildCount())
}

func TestForgottenRemovalDisposesSubtree(t *testing.T) {
	d := newTestDocument(t, Options{HistoryDepth: 1})
	g := d.Tree().NewGroup(pt(0), pt(0), pt(100), pt(100))
	require.NoError(t, d.Insert(d.Root().Key(), g, -1))
	s := d.Tree().NewShape(figure.ShapeRect, pt(10), pt(10), pt(20), pt(20))
	require.NoError(t, d.Insert(g.Key(), s, -1))
	keep := addShape(t, d, 200, 10, 20, 20)

	require.NoError(t, d.Select(g.Key()))
	require.True(t, d.DeleteSelection())
	assert.False(t, g.IsDisposed(), "the removal can still be undone")

	require.True(t, keep.SetX(pt(220)))
	assert.True(t, g.IsDisposed())
	assert.True(t, s.IsDisposed())
	assert.Nil(t, d.Tree().NodeByKey(g.Key()))
	assert.Nil(t, d.Tree().NodeByKey(s.Key()))
	assert.False(t, keep.IsDisposed())
}

func TestDiscardedInsertDisposesNode(t *testing.T) {
	d := newTestDocument(t, Options{})
	a := addShape(t, d, 10, 10, 20, 20)
	require.True(t, d.Undo())
	require.True(t, d.Redo())
	require.True(t, d.Undo())
	assert.False(t, a.IsDisposed(), "redo can still bring it back")

	b := addShape(t, d, 50, 10, 20, 20)
	assert.True(t, a.IsDisposed())
	assert.Nil(t, d.Tree().NodeByKey(a.Key()))
	assert.Equal(t, []*figure.Node{b}, d.Root().Children())
}
