package figure

import (
	"github.com/inamate/figcore/internal/geom"
	"github.com/inamate/figcore/internal/history"
)

// ChangeKind classifies a change notification.
type ChangeKind uint8

const (
	ChangeInserted ChangeKind = iota
	ChangeRemoved
	ChangeModified
	ChangeZOrder
)

func (k ChangeKind) String() string {
	switch k {
	case ChangeInserted:
		return "inserted"
	case ChangeRemoved:
		return "removed"
	case ChangeZOrder:
		return "zorder"
	default:
		return "modified"
	}
}

// Host is the containing document as seen from the node tree.
type Host interface {
	// NodeChanged reports a change below the document root. dirty holds the
	// root-coordinate rectangles that need repainting.
	NodeChanged(origin *Node, kind ChangeKind, needsRender bool, dirty []geom.Rect)

	// BlockEdits and UnblockEdits bracket history replay; posts in between
	// are dropped.
	BlockEdits()
	UnblockEdits()
	PostEdit(e history.Edit)

	// DispatchBatch offers a property change of origin to the multi-node
	// batch mechanism. It returns true when the host applied the change
	// itself, in which case the node must not.
	DispatchBatch(origin *Node, p Property, v any) bool

	// IDInUse reports whether another node than except already carries id.
	IDInUse(id string, except *Node) bool

	// Measurer returns the text measurement context for the current call.
	// Nodes never keep it.
	Measurer() Measurer
}

type nopHost struct{}

func (nopHost) NodeChanged(*Node, ChangeKind, bool, []geom.Rect) {}
func (nopHost) BlockEdits()                                      {}
func (nopHost) UnblockEdits()                                    {}
func (nopHost) PostEdit(history.Edit)                            {}
func (nopHost) DispatchBatch(*Node, Property, any) bool          { return false }
func (nopHost) IDInUse(string, *Node) bool                       { return false }
func (nopHost) Measurer() Measurer                               { return ApproxMeasurer{} }

// suppress turns off notifications on n and returns the function that
// restores the previous state. Use as
//
//	restore := n.suppress()
//	defer restore()
func (n *Node) suppress() func() {
	prev := n.notify
	n.notify = false
	return func() { n.notify = prev }
}

// propChange is one member of a multi-property edit.
type propChange struct {
	node     *Node
	prop     Property
	old, new any
}

// Batch collects property changes across any number of nodes and commits
// them as one render pass and one reversible edit. A user gesture over a
// multi-node selection runs through a Batch.
type Batch struct {
	tree    *Tree
	name    string
	root    *Node
	changes []propChange
	touched []*Node
	before  map[*Node]geom.Rect
}

// NewBatch starts an empty batch described by name in the history.
func (t *Tree) NewBatch(name string) *Batch {
	return &Batch{tree: t, name: name, before: make(map[*Node]geom.Rect)}
}

// SetRoot makes Commit refresh the subtree of root in a single pass instead
// of one pass per touched node.
func (b *Batch) SetRoot(root *Node) {
	b.root = root
	if root != nil {
		b.touch(root)
	}
}

// Set applies one change with notifications suppressed and records it. It
// reports whether the value was accepted.
func (b *Batch) Set(n *Node, p Property, v any) bool {
	if n == nil || n.tree != b.tree || !n.accepts(p, v) {
		return false
	}
	b.touch(n)
	old := n.vals[p]
	restore := n.suppress()
	defer restore()
	ok, changed := n.assign(p, v, false)
	if changed {
		b.changes = append(b.changes, propChange{node: n, prop: p, old: old, new: n.vals[p]})
	}
	return ok
}

func (b *Batch) touch(n *Node) {
	if _, ok := b.before[n]; ok {
		return
	}
	b.before[n] = n.globalShape.Bounds()
	b.touched = append(b.touched, n)
}

// Len returns the number of recorded changes.
func (b *Batch) Len() int { return len(b.changes) }

// Commit runs the bounds pass for the touched nodes, notifies the host and
// posts the changes as one edit. It returns false when nothing changed.
func (b *Batch) Commit() bool {
	if len(b.changes) == 0 {
		return false
	}
	b.tree.repaintAll(b.topmost(), b.before)
	b.tree.host.PostEdit(&multiEdit{name: b.name, changes: b.changes})
	return true
}

// topmost returns the touched nodes that have no touched ancestor, or the
// root when one was set.
func (b *Batch) topmost() []*Node {
	if b.root != nil {
		return []*Node{b.root}
	}
	return topmostOf(b.touched)
}

func topmostOf(nodes []*Node) []*Node {
	set := make(map[*Node]bool, len(nodes))
	for _, n := range nodes {
		set[n] = true
	}
	var out []*Node
	for _, n := range nodes {
		covered := false
		for a := n.Parent(); a != nil; a = a.Parent() {
			if set[a] {
				covered = true
				break
			}
		}
		if !covered {
			out = append(out, n)
		}
	}
	return out
}

// repaintAll runs one forced bounds pass per node and one change
// notification each. before holds the global bounds prior to the change.
func (t *Tree) repaintAll(nodes []*Node, before map[*Node]geom.Rect) {
	mc := t.host.Measurer()
	for _, n := range nodes {
		if n.disposed {
			continue
		}
		n.computeBounds(mc, true)
		t.propagateBounds(n.Parent(), mc)
		t.host.NodeChanged(n, ChangeModified, true, dirtyRects(before[n], n.globalShape.Bounds()))
	}
}

// modified is the "node modified" hook for a single property change.
func (n *Node) modified(before geom.Rect, info propInfo) {
	if !info.bounds {
		n.tree.host.NodeChanged(n, ChangeModified, info.visual, dirtyRects(before, geom.Rect{}))
		return
	}
	mc := n.tree.host.Measurer()
	n.computeBounds(mc, true)
	n.tree.propagateBounds(n.Parent(), mc)
	n.tree.host.NodeChanged(n, ChangeModified, true, dirtyRects(before, n.globalShape.Bounds()))
}

func dirtyRects(before, after geom.Rect) []geom.Rect {
	var out []geom.Rect
	if !before.IsEmpty() {
		out = append(out, before)
	}
	if !after.IsEmpty() && !after.Equal(before) {
		out = append(out, after)
	}
	return out
}
