package figure

import "github.com/inamate/figcore/internal/geom"

// RenderBounds returns the cached local bounds, recomputing the subtree
// first when the cache is stale or force is set. The recomputation also
// refreshes every visited node's global shape.
func (n *Node) RenderBounds(force bool) geom.Rect {
	return n.computeBounds(n.tree.host.Measurer(), force)
}

// CachedBounds returns the local bounds without recomputation.
func (n *Node) CachedBounds() geom.Rect { return n.localBounds }

// GlobalShape returns the cached local bounds mapped to root coordinates.
func (n *Node) GlobalShape() geom.Shape { return n.globalShape }

// BoundsValid reports whether the local bounds cache is current.
func (n *Node) BoundsValid() bool { return n.boundsValid }

// computeBounds recomputes stale nodes of the subtree bottom-up, or all of
// them when force is set. Valid subtrees are skipped when not forced.
func (n *Node) computeBounds(mc Measurer, force bool) geom.Rect {
	if n.boundsValid && !force {
		return n.localBounds
	}
	var order []*Node
	stack := []*Node{n}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if cur != n && cur.boundsValid && !force {
			continue
		}
		order = append(order, cur)
		for _, id := range cur.subs {
			stack = append(stack, n.tree.node(id))
		}
	}
	// Every node precedes its descendants in order.
	for i := len(order) - 1; i >= 0; i-- {
		order[i].recomputeLocal(mc)
	}
	return n.localBounds
}

// recomputeLocal unions the node's own bounds with the cached bounds of its
// subordinates and refreshes the global shape.
func (n *Node) recomputeLocal(mc Measurer) {
	var r geom.Rect
	if n.IsRendered() {
		if own := policies[n.kind].ownBounds; own != nil {
			r = own(n, mc)
		}
		for _, id := range n.subs {
			sub := n.tree.node(id)
			if sub.localBounds.IsEmpty() {
				continue
			}
			r = r.Union(sub.LocalToParent().TransformRect(sub.localBounds))
		}
	}
	n.localBounds = r
	n.boundsValid = true
	n.globalShape = n.LocalToGlobal().TransformShape(r)
}

// UpdateAncestorRenderBounds recomputes the ancestors of n from their cached
// subordinate bounds, nearest first, and stops at the first ancestor whose
// bounds did not change. It returns the number of ancestors recomputed.
func (n *Node) UpdateAncestorRenderBounds() int {
	return n.tree.propagateBounds(n.Parent(), n.tree.host.Measurer())
}

// propagateBounds is UpdateAncestorRenderBounds starting at from itself.
func (t *Tree) propagateBounds(from *Node, mc Measurer) int {
	visited := 0
	for a := from; a != nil; a = a.Parent() {
		prev, wasValid := a.localBounds, a.boundsValid
		a.recomputeLocal(mc)
		visited++
		if wasValid && a.localBounds.Equal(prev) {
			break
		}
	}
	return visited
}

// invalidateSubtree marks the bounds of n and every node below it stale.
func (n *Node) invalidateSubtree() {
	Walk(n, func(c *Node) bool {
		c.boundsValid = false
		return true
	})
}

// NeedsRendering reports whether the node's paint step intersects any of the
// dirty rectangles. A nil list means everything is dirty.
func (n *Node) NeedsRendering(dirty []geom.Rect) bool {
	if dirty == nil {
		return true
	}
	if n.globalShape.IsEmpty() {
		return false
	}
	for _, r := range dirty {
		if n.globalShape.Intersects(r) {
			return true
		}
	}
	return false
}
