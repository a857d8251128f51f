package figure

import "github.com/inamate/figcore/internal/geom"

// HitTest returns the smallest node of the subtree whose cached global shape
// contains p, in root coordinates. Ties on global area go to the smaller
// cached local bounds. It returns n itself when p is inside n but in none
// of its subordinates, and nil when p is outside n. No bounds are
// recomputed.
func (n *Node) HitTest(p geom.Point) *Node {
	if !n.globalShape.Contains(p.X, p.Y) {
		return nil
	}
	best := n
	bestArea := n.globalShape.Bounds().Area()
	bestLocal := n.localBounds.Area()

	stack := make([]*Node, 0, len(n.subs))
	for i := len(n.subs) - 1; i >= 0; i-- {
		stack = append(stack, n.tree.node(n.subs[i]))
	}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !cur.IsRendered() || !cur.globalShape.Contains(p.X, p.Y) {
			continue
		}
		area := cur.globalShape.Bounds().Area()
		local := cur.localBounds.Area()
		if area < bestArea || (area == bestArea && local < bestLocal) {
			best, bestArea, bestLocal = cur, area, local
		}
		for i := len(cur.subs) - 1; i >= 0; i-- {
			stack = append(stack, n.tree.node(cur.subs[i]))
		}
	}
	return best
}

// FocusShape returns the cached local bounds grown by the tree's focus margin,
// in root coordinates.
func (n *Node) FocusShape() geom.Shape {
	if n.localBounds.IsEmpty() {
		return geom.Shape{}
	}
	return n.LocalToGlobal().TransformShape(n.localBounds.Expand(n.tree.focusMargin))
}
