package figure

import (
	"testing"

	"github.com/inamate/figcore/internal/geom"
	"github.com/inamate/figcore/internal/history"
	"github.com/inamate/figcore/internal/style"
	"github.com/inamate/figcore/internal/units"
)

type notification struct {
	origin *Node
	kind   ChangeKind
	render bool
	dirty  []geom.Rect
}

// testHost records notifications and keeps a real history stack.
type testHost struct {
	root    *Node
	hist    *history.Stack
	changes []notification
}

func (h *testHost) NodeChanged(origin *Node, kind ChangeKind, needsRender bool, dirty []geom.Rect) {
	h.changes = append(h.changes, notification{origin, kind, needsRender, dirty})
}

func (h *testHost) BlockEdits()                             { h.hist.Block() }
func (h *testHost) UnblockEdits()                           { h.hist.Unblock() }
func (h *testHost) PostEdit(e history.Edit)                 { h.hist.Post(e) }
func (h *testHost) DispatchBatch(*Node, Property, any) bool { return false }
func (h *testHost) Measurer() Measurer                      { return ApproxMeasurer{} }

func (h *testHost) IDInUse(id string, except *Node) bool {
	found := false
	Walk(h.root, func(n *Node) bool {
		if n != except && n.IDValue() == id {
			found = true
		}
		return !found
	})
	return found
}

func (h *testHost) last() notification {
	if len(h.changes) == 0 {
		return notification{}
	}
	return h.changes[len(h.changes)-1]
}

func pt(v float64) units.Measure { return units.Points(v) }

// newTestTree returns a 500x400pt figure attached to a recording host.
func newTestTree(t *testing.T) (*Tree, *testHost, *Node) {
	t.Helper()
	tr := NewTree(style.Builtin())
	h := &testHost{hist: history.NewStack(100)}
	tr.SetHost(h)
	fig := tr.NewFigure(pt(500), pt(400))
	fig.RenderBounds(true)
	h.root = fig
	return tr, h, fig
}

func rectApprox(t *testing.T, want, got geom.Rect) {
	t.Helper()
	const eps = 1e-6
	if !(abs(want.X-got.X) < eps && abs(want.Y-got.Y) < eps &&
		abs(want.Width-got.Width) < eps && abs(want.Height-got.Height) < eps) {
		t.Fatalf("rect mismatch: want %+v, got %+v", want, got)
	}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
