package figure

import (
	"github.com/inamate/figcore/internal/geom"
	"github.com/inamate/figcore/internal/style"
	"github.com/inamate/figcore/internal/typeid"
	"github.com/inamate/figcore/internal/units"
)

// MinResizeFraction is the default floor of an interactive resize, as a
// fraction of the pre-drag extent of the dimension being dragged.
const MinResizeFraction = 0.1

// DefaultFocusMargin is the margin, in points, by which a focus shape
// extends a node's render bounds.
const DefaultFocusMargin = 4.0

// Tree is the arena that owns every node of one document.
type Tree struct {
	nodes    []*Node
	free     []NodeID
	byKey    map[string]NodeID
	host     Host
	defaults style.Defaults

	resizeFloor float64
	focusMargin float64
}

// NewTree returns an empty tree resolving cascades against defaults.
func NewTree(defaults style.Defaults) *Tree {
	return &Tree{
		byKey:       make(map[string]NodeID),
		host:        nopHost{},
		defaults:    defaults,
		resizeFloor: MinResizeFraction,
		focusMargin: DefaultFocusMargin,
	}
}

// SetHost connects the containing document. A nil host disconnects it.
func (t *Tree) SetHost(h Host) {
	if h == nil {
		h = nopHost{}
	}
	t.host = h
}

// Host returns the containing document collaborator.
func (t *Tree) Host() Host { return t.host }

// Defaults returns the cascade fallback values.
func (t *Tree) Defaults() style.Defaults { return t.defaults }

// SetResizeFloor sets the minimum extent of a resize as a fraction of the
// pre-drag extent. Values outside (0, 1) are ignored.
func (t *Tree) SetResizeFloor(f float64) {
	if f > 0 && f < 1 {
		t.resizeFloor = f
	}
}

// SetFocusMargin sets the focus shape margin in points.
func (t *Tree) SetFocusMargin(m float64) {
	if m >= 0 {
		t.focusMargin = m
	}
}

// Len returns the number of live nodes.
func (t *Tree) Len() int {
	return len(t.nodes) - len(t.free)
}

// Node returns the live node at id, or nil.
func (t *Tree) Node(id NodeID) *Node {
	return t.node(id)
}

// NodeByKey returns the live node with the given key, or nil.
func (t *Tree) NodeByKey(key string) *Node {
	id, ok := t.byKey[key]
	if !ok {
		return nil
	}
	return t.node(id)
}

func (t *Tree) node(id NodeID) *Node {
	if id < 0 || int(id) >= len(t.nodes) {
		return nil
	}
	return t.nodes[id]
}

// alloc creates a detached node of kind k.
func (t *Tree) alloc(k Kind, key string) *Node {
	if _, taken := t.byKey[key]; key == "" || taken {
		key = typeid.New(policies[k].prefix)
	}
	n := &Node{
		tree:   t,
		key:    key,
		kind:   k,
		caps:   policies[k].caps,
		parent: NoNode,
		vals:   make(map[Property]any),
		notify: true,
	}
	if len(t.free) > 0 {
		n.id = t.free[len(t.free)-1]
		t.free = t.free[:len(t.free)-1]
		t.nodes[n.id] = n
	} else {
		n.id = NodeID(len(t.nodes))
		t.nodes = append(t.nodes, n)
	}
	t.byKey[key] = n.id
	return n
}

// NewNode creates a detached node of kind k with the given stable key, or a
// fresh key when key is empty or already taken. Graph nodes get their axis
// components.
func (t *Tree) NewNode(k Kind, key string) *Node {
	n := t.alloc(k, key)
	if k == KindGraph {
		x := t.alloc(KindAxis, "")
		x.orientation = Horizontal
		y := t.alloc(KindAxis, "")
		y.orientation = Vertical
		n.addComponent(x)
		n.addComponent(y)
	}
	return n
}

// Rekey gives n a new stable key. It fails when key is empty or taken by
// another node.
func (t *Tree) Rekey(n *Node, key string) bool {
	if n == nil || n.tree != t || n.disposed || key == "" {
		return false
	}
	if id, taken := t.byKey[key]; taken {
		return id == n.id
	}
	delete(t.byKey, n.key)
	n.key = key
	t.byKey[key] = n.id
	return true
}

// NewFigure creates a detached figure page of the given size.
func (t *Tree) NewFigure(w, h units.Measure) *Node {
	n := t.NewNode(KindFigure, "")
	n.vals[PropWidth] = w
	n.vals[PropHeight] = h
	return n
}

// NewGroup creates a detached group box.
func (t *Tree) NewGroup(x, y, w, h units.Measure) *Node {
	n := t.NewNode(KindGroup, "")
	n.initBox(x, y, w, h)
	return n
}

// NewGraph creates a detached graph with its two axis components.
func (t *Tree) NewGraph(x, y, w, h units.Measure) *Node {
	n := t.NewNode(KindGraph, "")
	n.initBox(x, y, w, h)
	return n
}

// NewShape creates a detached rectangle or ellipse.
func (t *Tree) NewShape(st ShapeType, x, y, w, h units.Measure) *Node {
	n := t.NewNode(KindShape, "")
	n.shapeType = st
	n.initBox(x, y, w, h)
	return n
}

// NewLabel creates a detached text label. title is in the styled-text format.
func (t *Tree) NewLabel(x, y units.Measure, title string) *Node {
	n := t.NewNode(KindLabel, "")
	n.vals[PropX] = x
	n.vals[PropY] = y
	n.vals[PropTitle] = title
	return n
}

// NewTrace creates a detached data trace. Points are in the local
// coordinates of the graph it will be inserted into.
func (t *Tree) NewTrace(pts []geom.Point) *Node {
	n := t.NewNode(KindTrace, "")
	n.vals[PropPoints] = clonePoints(pts)
	return n
}

func (n *Node) initBox(x, y, w, h units.Measure) {
	n.vals[PropX] = x
	n.vals[PropY] = y
	n.vals[PropWidth] = w
	n.vals[PropHeight] = h
}

// SetShapeType sets the outline of a shape node. It is construction-time
// data and is not recorded in the history.
func (n *Node) SetShapeType(st ShapeType) {
	n.shapeType = st
}

// Walk visits n and its subordinates in pre-order, components first. fn
// returning false skips the visited node's subordinates.
func Walk(n *Node, fn func(*Node) bool) {
	if n == nil {
		return
	}
	stack := []*Node{n}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !fn(cur) {
			continue
		}
		for i := len(cur.subs) - 1; i >= 0; i-- {
			stack = append(stack, cur.tree.node(cur.subs[i]))
		}
	}
}

// --- Structural operations ---

// Insert adds child as a public child at index (0..ChildCount). It fails,
// leaving the tree unchanged, if child is nil, already attached, a component,
// an ancestor of n, or not accepted by n's kind. An index outside the child
// range panics.
func (n *Node) Insert(child *Node, index int) bool {
	if index < 0 || index > n.ChildCount() {
		panic("figure: child index out of range")
	}
	if child == nil || child.disposed || n.disposed || child.tree != n.tree {
		return false
	}
	if child.parent != NoNode || child.component {
		return false
	}
	if child.IsAncestorOf(n) {
		Logger().Debug("insert rejected: cycle", "parent", n.key, "child", child.key)
		return false
	}
	accepts := policies[n.kind].accepts
	if accepts == nil || !accepts(child.kind) {
		Logger().Debug("insert rejected by kind", "parent", n.kind, "child", child.kind)
		return false
	}

	n.spliceIn(n.nComponents+index, child)
	n.onInserted(child, index)
	return true
}

// Append inserts child after the last public child.
func (n *Node) Append(child *Node) bool {
	return n.Insert(child, n.ChildCount())
}

// RemoveAt detaches and returns the public child at index. An index outside
// the child range panics.
func (n *Node) RemoveAt(index int) *Node {
	if index < 0 || index >= n.ChildCount() {
		panic("figure: child index out of range")
	}
	child := n.tree.node(n.subs[n.nComponents+index])
	oldBounds := child.globalShape.Bounds()
	n.spliceOut(n.nComponents + index)
	n.onRemoved(child, index, oldBounds)
	return child
}

// Remove detaches child. It returns false when child is not a public child
// of n.
func (n *Node) Remove(child *Node) bool {
	i := n.IndexOfChild(child)
	if i < 0 {
		return false
	}
	n.RemoveAt(i)
	return true
}

// SetChildPosition moves child to pos within the public children (z-order).
func (n *Node) SetChildPosition(child *Node, pos int) bool {
	from := n.IndexOfChild(child)
	if from < 0 || pos < 0 || pos >= n.ChildCount() {
		return false
	}
	if from == pos {
		return true
	}
	base := n.nComponents
	id := n.subs[base+from]
	if from < pos {
		copy(n.subs[base+from:], n.subs[base+from+1:base+pos+1])
	} else {
		copy(n.subs[base+pos+1:], n.subs[base+pos:base+from])
	}
	n.subs[base+pos] = id

	if n.notify {
		var dirty []geom.Rect
		if b := child.globalShape.Bounds(); !b.IsEmpty() {
			dirty = append(dirty, b)
		}
		n.tree.host.NodeChanged(child, ChangeZOrder, true, dirty)
		n.tree.host.PostEdit(&zOrderEdit{parent: n, child: child, from: from, to: pos})
	}
	return true
}

// addComponent appends c to the component prefix.
func (n *Node) addComponent(c *Node) bool {
	return n.insertComponent(c, n.nComponents)
}

// insertComponent places c at index within the component prefix.
func (n *Node) insertComponent(c *Node, index int) bool {
	if index < 0 || index > n.nComponents {
		panic("figure: component index out of range")
	}
	if c == nil || c.parent != NoNode || c.IsAncestorOf(n) {
		return false
	}
	n.subs = append(n.subs, NoNode)
	copy(n.subs[index+1:], n.subs[index:])
	n.subs[index] = c.id
	n.nComponents++
	c.parent = n.id
	c.component = true
	n.invalidateSubtree()
	return true
}

// removeComponent detaches and returns the component at index.
func (n *Node) removeComponent(index int) *Node {
	if index < 0 || index >= n.nComponents {
		panic("figure: component index out of range")
	}
	c := n.tree.node(n.subs[index])
	copy(n.subs[index:], n.subs[index+1:])
	n.subs = n.subs[:len(n.subs)-1]
	n.nComponents--
	c.parent = NoNode
	c.component = false
	n.invalidateSubtree()
	return c
}

func (n *Node) spliceIn(at int, child *Node) {
	n.subs = append(n.subs, NoNode)
	copy(n.subs[at+1:], n.subs[at:])
	n.subs[at] = child.id
	child.parent = n.id
}

func (n *Node) spliceOut(at int) {
	child := n.tree.node(n.subs[at])
	copy(n.subs[at:], n.subs[at+1:])
	n.subs = n.subs[:len(n.subs)-1]
	child.parent = NoNode
}

// onInserted is the insertion hook: fresh bounds for the new subtree,
// ancestor propagation, dirty region and history.
func (n *Node) onInserted(child *Node, index int) {
	child.invalidateSubtree()
	mc := n.tree.host.Measurer()
	child.computeBounds(mc, true)
	n.tree.propagateBounds(n, mc)
	if !n.notify {
		return
	}
	var dirty []geom.Rect
	if b := child.globalShape.Bounds(); !b.IsEmpty() {
		dirty = append(dirty, b)
	}
	n.tree.host.NodeChanged(child, ChangeInserted, true, dirty)
	n.tree.host.PostEdit(newStructureEdit(n, child, index, true))
}

// onRemoved is the removal hook. The detached subtree keeps its nodes so the
// removal can be undone, but its cached rendering resources are released.
func (n *Node) onRemoved(child *Node, index int, oldBounds geom.Rect) {
	mc := n.tree.host.Measurer()
	n.tree.propagateBounds(n, mc)
	child.invalidateSubtree()
	child.releaseSubtree()
	if !n.notify {
		return
	}
	var dirty []geom.Rect
	if !oldBounds.IsEmpty() {
		dirty = append(dirty, oldBounds)
	}
	n.tree.host.NodeChanged(child, ChangeRemoved, true, dirty)
	n.tree.host.PostEdit(newStructureEdit(n, child, index, false))
}

func (n *Node) releaseSubtree() {
	Walk(n, func(c *Node) bool {
		if rel := policies[c.kind].release; rel != nil {
			rel(c)
		}
		return true
	})
}

// Dispose tears down a detached subtree and frees its arena slots. It
// returns false for attached nodes and components.
func (t *Tree) Dispose(n *Node) bool {
	if n == nil || n.disposed || n.tree != t || n.parent != NoNode {
		return false
	}
	stack := []*Node{n}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, id := range cur.subs {
			stack = append(stack, t.node(id))
		}
		if rel := policies[cur.kind].release; rel != nil {
			rel(cur)
		}
		cur.subs = nil
		cur.nComponents = 0
		cur.parent = NoNode
		cur.vals = nil
		cur.disposed = true
		cur.boundsValid = false
		cur.globalShape = geom.Shape{}
		delete(t.byKey, cur.key)
		t.nodes[cur.id] = nil
		t.free = append(t.free, cur.id)
	}
	return true
}
