package figure

// Resolve returns the value of p in effect on n. For a cascading property
// that is the node's own explicit value, else the nearest explicit value of
// an ancestor, else the tree default. Non-cascading properties return the
// explicit value or nil.
func (n *Node) Resolve(p Property) any {
	info, ok := propInfoFor(p)
	if !ok {
		return nil
	}
	if !info.cascades {
		return n.vals[p]
	}
	if n.caps.Has(info.cap) {
		if v, ok := n.vals[p]; ok {
			return v
		}
	}
	return n.inherited(p)
}

// inherited is the value p would resolve to if n had no explicit value.
func (n *Node) inherited(p Property) any {
	for a := n.Parent(); a != nil; a = a.Parent() {
		if v, ok := a.vals[p]; ok {
			return v
		}
	}
	return props[p].def(&n.tree.defaults)
}

// IsInherited reports whether p resolves from an ancestor or the defaults.
func (n *Node) IsInherited(p Property) bool {
	return p.Cascades() && !n.IsExplicit(p)
}

// RestoreDefaultStyles makes the given cascading properties implicit on n,
// and on every node below it when descendants is set. With no properties
// every style property is restored. All changes form one reversible edit; it
// returns false when nothing was explicit.
func (n *Node) RestoreDefaultStyles(descendants bool, ps ...Property) bool {
	if len(ps) == 0 {
		ps = StyleProperties
	}
	b := n.tree.NewBatch("Restore default styles")
	b.SetRoot(n)

	stack := []*Node{n}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, p := range ps {
			if p.Cascades() && cur.IsExplicit(p) {
				b.Set(cur, p, nil)
			}
		}
		if descendants {
			for i := len(cur.subs) - 1; i >= 0; i-- {
				stack = append(stack, n.tree.node(cur.subs[i]))
			}
		}
	}
	return b.Commit()
}
