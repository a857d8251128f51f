package figure

import (
	"fmt"

	"github.com/inamate/figcore/internal/geom"
)

// propertyEdit reverts or reapplies one property of one node.
type propertyEdit struct {
	node     *Node
	prop     Property
	old, new any
}

func (e *propertyEdit) Undo() bool {
	return e.node.ReplayProperty(e.prop, e.old, true)
}

func (e *propertyEdit) Redo() bool {
	return e.node.ReplayProperty(e.prop, e.new, true)
}

func (e *propertyEdit) Describe() string {
	return "Set " + e.prop.String()
}

// multiEdit is one gesture's changes across several nodes and properties.
// Replay runs a single bounds pass per topmost node afterwards.
type multiEdit struct {
	name    string
	changes []propChange
}

func (e *multiEdit) Undo() bool {
	return e.replay(true)
}

func (e *multiEdit) Redo() bool {
	return e.replay(false)
}

func (e *multiEdit) replay(undo bool) bool {
	if len(e.changes) == 0 {
		return false
	}
	var nodes []*Node
	before := make(map[*Node]geom.Rect)
	for _, c := range e.changes {
		if c.node.disposed {
			return false
		}
		if _, ok := before[c.node]; !ok {
			before[c.node] = c.node.globalShape.Bounds()
			nodes = append(nodes, c.node)
		}
	}
	ok := true
	if undo {
		for i := len(e.changes) - 1; i >= 0; i-- {
			c := e.changes[i]
			ok = c.node.ReplayProperty(c.prop, c.old, false) && ok
		}
	} else {
		for _, c := range e.changes {
			ok = c.node.ReplayProperty(c.prop, c.new, false) && ok
		}
	}
	top := topmostOf(nodes)
	top[0].tree.repaintAll(top, before)
	return ok
}

func (e *multiEdit) Describe() string {
	return e.name
}

// styleSetEdit restores the properties a style-set application changed.
type styleSetEdit struct {
	node    *Node
	restore *StyleSet
	applied *StyleSet
}

func (e *styleSetEdit) Undo() bool {
	return e.node.replayStyleSet(e.restore)
}

func (e *styleSetEdit) Redo() bool {
	return e.node.replayStyleSet(e.applied)
}

func (e *styleSetEdit) Describe() string {
	return "Paste style"
}

// structureEdit reverts or reapplies a child insertion or removal.
type structureEdit struct {
	parent *Node
	child  *Node
	index  int
	insert bool
}

func newStructureEdit(parent, child *Node, index int, insert bool) *structureEdit {
	child.editRefs++
	return &structureEdit{parent: parent, child: child, index: index, insert: insert}
}

func (e *structureEdit) Undo() bool {
	if e.insert {
		return e.detach()
	}
	return e.attach()
}

func (e *structureEdit) Redo() bool {
	if e.insert {
		return e.attach()
	}
	return e.detach()
}

func (e *structureEdit) attach() bool {
	if e.parent.disposed || e.child.disposed || e.child.parent != NoNode {
		return false
	}
	h := e.parent.tree.host
	h.BlockEdits()
	defer h.UnblockEdits()
	return e.parent.Insert(e.child, min(e.index, e.parent.ChildCount()))
}

func (e *structureEdit) detach() bool {
	if e.parent.disposed || e.child.Parent() != e.parent {
		return false
	}
	h := e.parent.tree.host
	h.BlockEdits()
	defer h.UnblockEdits()
	return e.parent.Remove(e.child)
}

func (e *structureEdit) Describe() string {
	if e.insert {
		return fmt.Sprintf("Insert %s", e.child.kind)
	}
	return fmt.Sprintf("Remove %s", e.child.kind)
}

// Discard releases the edit's hold on its child. A detached subtree that no
// remaining edit can bring back is disposed, freeing its arena slots and keys.
func (e *structureEdit) Discard() {
	c := e.child
	if c.disposed {
		return
	}
	c.editRefs--
	if c.editRefs > 0 || c.parent != NoNode {
		return
	}
	c.tree.Dispose(c)
}

// zOrderEdit reverts or reapplies a child reordering.
type zOrderEdit struct {
	parent   *Node
	child    *Node
	from, to int
}

func (e *zOrderEdit) Undo() bool {
	return e.move(e.from)
}

func (e *zOrderEdit) Redo() bool {
	return e.move(e.to)
}

func (e *zOrderEdit) move(pos int) bool {
	if e.parent.disposed || e.child.Parent() != e.parent {
		return false
	}
	h := e.parent.tree.host
	h.BlockEdits()
	defer h.UnblockEdits()
	return e.parent.SetChildPosition(e.child, pos)
}

func (e *zOrderEdit) Describe() string {
	return "Reorder " + e.child.kind.String()
}
