package figure

import "github.com/inamate/figcore/internal/units"

// Rescale scales n and its subtree by pct percent: font sizes, stroke widths
// and the absolute positions and sizes below n, plus n's own size. n keeps
// its anchor. Values in relative units are left alone. The whole subtree is
// updated with notifications suppressed and committed as one edit with a
// single bounds pass. A pct of 100 or less than or equal to 0 is rejected.
func (n *Node) Rescale(pct float64) bool {
	if pct <= 0 || pct == 100 || n.disposed {
		return false
	}
	f := pct / 100
	b := n.tree.NewBatch("Rescale")
	b.SetRoot(n)

	// The root scales the values in effect on it, inherited or not, so the
	// whole subtree's resolved look changes proportionally.
	if n.caps.Has(CapFont) {
		b.Set(n, PropFontSize, n.FontSize()*f)
	}
	if n.caps.Has(CapStroke) {
		b.Set(n, PropStrokeWidth, n.StrokeWidth()*f)
	}
	scaleMeasure(b, n, PropWidth, f)
	scaleMeasure(b, n, PropHeight, f)

	stack := make([]*Node, 0, len(n.subs))
	for _, id := range n.subs {
		stack = append(stack, n.tree.node(id))
	}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if v, ok := cur.vals[PropFontSize].(float64); ok {
			b.Set(cur, PropFontSize, v*f)
		}
		if v, ok := cur.vals[PropStrokeWidth].(float64); ok {
			b.Set(cur, PropStrokeWidth, v*f)
		}
		for _, p := range []Property{PropX, PropY, PropWidth, PropHeight} {
			scaleMeasure(b, cur, p, f)
		}
		for _, id := range cur.subs {
			stack = append(stack, n.tree.node(id))
		}
	}
	return b.Commit()
}

func scaleMeasure(b *Batch, n *Node, p Property, f float64) {
	m, ok := n.vals[p].(units.Measure)
	if !ok || m.IsRelative() {
		return
	}
	b.Set(n, p, m.Scale(f))
}
