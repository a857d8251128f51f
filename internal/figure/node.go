package figure

import (
	"github.com/inamate/figcore/internal/geom"
)

// NodeID is the arena index of a node within its Tree.
type NodeID int32

// NoNode is the null link.
const NoNode NodeID = -1

// Node is one graphic object. A node belongs to exactly one Tree for its
// whole life; links to other nodes are arena indices into that tree.
type Node struct {
	tree *Tree
	id   NodeID
	key  string
	kind Kind
	caps Capability

	// Hierarchy. subs[:nComponents] are components, the rest are children.
	parent      NodeID
	subs        []NodeID
	nComponents int
	component   bool

	// Explicit attribute values. Absent means implicit.
	vals map[Property]any

	// Kind-specific data
	shapeType   ShapeType
	orientation Orientation
	layout      *textLayout

	// Render cache
	localBounds geom.Rect
	boundsValid bool
	globalShape geom.Shape

	notify   bool
	disposed bool

	// Structure edits still held by a history that name this node as child.
	editRefs int
}

// ID returns the arena index.
func (n *Node) ID() NodeID { return n.id }

// Key returns the node's stable identity, unique across trees and sessions.
func (n *Node) Key() string { return n.key }

// Kind returns the node type.
func (n *Node) Kind() Kind { return n.kind }

// Tree returns the owning tree.
func (n *Node) Tree() *Tree { return n.tree }

// Capabilities returns the attribute bitset of the node's kind.
func (n *Node) Capabilities() Capability { return n.caps }

// ShapeType returns the outline of a shape node.
func (n *Node) ShapeType() ShapeType { return n.shapeType }

// Orientation returns the direction of an axis node.
func (n *Node) Orientation() Orientation { return n.orientation }

// IsComponent reports whether the node is an intrinsic component of its
// parent.
func (n *Node) IsComponent() bool { return n.component }

// IsDisposed reports whether the node has been torn down.
func (n *Node) IsDisposed() bool { return n.disposed }

// Parent returns the parent node, or nil.
func (n *Node) Parent() *Node {
	return n.tree.node(n.parent)
}

// Root returns the topmost ancestor.
func (n *Node) Root() *Node {
	r := n
	for p := r.Parent(); p != nil; p = p.Parent() {
		r = p
	}
	return r
}

// SubordinateCount returns the number of components plus children.
func (n *Node) SubordinateCount() int { return len(n.subs) }

// ComponentCount returns the number of intrinsic components.
func (n *Node) ComponentCount() int { return n.nComponents }

// ChildCount returns the number of public children.
func (n *Node) ChildCount() int { return len(n.subs) - n.nComponents }

// Subordinate returns the i-th subordinate, components first.
func (n *Node) Subordinate(i int) *Node {
	return n.tree.node(n.subs[i])
}

// Component returns the i-th component.
func (n *Node) Component(i int) *Node {
	if i < 0 || i >= n.nComponents {
		panic("figure: component index out of range")
	}
	return n.tree.node(n.subs[i])
}

// Child returns the i-th public child.
func (n *Node) Child(i int) *Node {
	if i < 0 || i >= n.ChildCount() {
		panic("figure: child index out of range")
	}
	return n.tree.node(n.subs[n.nComponents+i])
}

// Subordinates returns components followed by children.
func (n *Node) Subordinates() []*Node {
	out := make([]*Node, len(n.subs))
	for i, id := range n.subs {
		out[i] = n.tree.node(id)
	}
	return out
}

// Children returns the public children.
func (n *Node) Children() []*Node {
	return n.Subordinates()[n.nComponents:]
}

// IndexOfChild returns the child index of c, or -1.
func (n *Node) IndexOfChild(c *Node) int {
	if c == nil {
		return -1
	}
	for i := n.nComponents; i < len(n.subs); i++ {
		if n.subs[i] == c.id {
			return i - n.nComponents
		}
	}
	return -1
}

// IsAncestorOf reports whether n is d or one of d's ancestors.
func (n *Node) IsAncestorOf(d *Node) bool {
	for p := d; p != nil; p = p.Parent() {
		if p == n {
			return true
		}
	}
	return false
}

// NotifyEnabled reports whether mutations currently run the bounds pipeline
// and post edits.
func (n *Node) NotifyEnabled() bool { return n.notify }

// Supports reports whether the node's kind supports p.
func (n *Node) Supports(p Property) bool {
	info, ok := propInfoFor(p)
	return ok && n.caps.Has(info.cap)
}

// IsRendered is the visibility predicate: hidden nodes draw nothing and have
// empty render bounds.
func (n *Node) IsRendered() bool {
	return !n.disposed && !n.Hidden()
}
