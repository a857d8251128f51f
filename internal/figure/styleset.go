package figure

import (
	"maps"

	"github.com/inamate/figcore/internal/geom"
)

// StyleSet is a snapshot of the style attributes in effect on a node and,
// for kinds that opt in, on its components. It is the unit of style
// copy/paste.
type StyleSet struct {
	Kind       Kind
	Values     map[Property]any
	Components []*StyleSet
}

// Clone returns a deep copy.
func (s *StyleSet) Clone() *StyleSet {
	if s == nil {
		return nil
	}
	out := &StyleSet{Kind: s.Kind, Values: maps.Clone(s.Values)}
	for _, c := range s.Components {
		out.Components = append(out.Components, c.Clone())
	}
	return out
}

// CaptureStyleSet snapshots the resolved style of n.
func (n *Node) CaptureStyleSet() *StyleSet {
	type frame struct {
		node *Node
		set  *StyleSet
	}
	root := &StyleSet{}
	stack := []frame{{n, root}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		f.set.Kind = f.node.kind
		f.set.Values = make(map[Property]any)
		for _, p := range StyleProperties {
			if f.node.Supports(p) {
				f.set.Values[p] = f.node.Resolve(p)
			}
		}
		if !policies[f.node.kind].styleComponents {
			continue
		}
		f.set.Components = make([]*StyleSet, f.node.nComponents)
		for i := range f.node.nComponents {
			f.set.Components[i] = &StyleSet{}
			stack = append(stack, frame{f.node.Component(i), f.set.Components[i]})
		}
	}
	return root
}

// ApplyStyleSet copies donor's values onto n wherever both have the property
// and the value differs, recursing into components paired by position and
// kind. The properties that changed are posted as one edit, and a single
// bounds pass runs. It returns false when nothing changed.
func (n *Node) ApplyStyleSet(donor *StyleSet) bool {
	if donor == nil || n.disposed {
		return false
	}
	before := n.globalShape.Bounds()
	restore, changed := n.applyStyleSet(donor, nil)
	if !changed {
		return false
	}
	n.tree.repaintAll([]*Node{n}, map[*Node]geom.Rect{n: before})
	n.tree.host.PostEdit(&styleSetEdit{node: n, restore: restore, applied: donor.Clone()})
	return true
}

// ApplyStyleSetIn is ApplyStyleSet recording into an open batch; the batch
// owner commits and posts.
func (n *Node) ApplyStyleSetIn(b *Batch, donor *StyleSet) bool {
	if donor == nil || n.disposed {
		return false
	}
	_, changed := n.applyStyleSet(donor, b)
	return changed
}

// applyStyleSet applies donor and returns the restore snapshot: the previous
// values of exactly the properties that changed.
func (n *Node) applyStyleSet(donor *StyleSet, b *Batch) (*StyleSet, bool) {
	set := func(m *Node, p Property, v any) bool {
		if b != nil {
			return b.Set(m, p, v)
		}
		restore := m.suppress()
		defer restore()
		ok, changed := m.assign(p, v, false)
		return ok && changed
	}

	type frame struct {
		node    *Node
		donor   *StyleSet
		restore *StyleSet
	}
	root := n.CaptureStyleSet()
	stack := []frame{{n, donor, root}}
	changed := false
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, p := range StyleProperties {
			cur, inRestore := f.restore.Values[p]
			v, inDonor := f.donor.Values[p]
			if !inRestore {
				continue
			}
			if !inDonor || props[p].equal(cur, v) || !set(f.node, p, v) {
				delete(f.restore.Values, p)
				continue
			}
			changed = true
		}
		for i := range min(len(f.donor.Components), len(f.restore.Components)) {
			d, r := f.donor.Components[i], f.restore.Components[i]
			if d == nil || r == nil || d.Kind != r.Kind {
				f.restore.Components[i] = nil
				continue
			}
			stack = append(stack, frame{f.node.Component(i), d, r})
		}
		for i := len(f.donor.Components); i < len(f.restore.Components); i++ {
			f.restore.Components[i] = nil
		}
	}
	return root, changed
}

// replayStyleSet applies s with edit posting blocked and runs one bounds
// pass.
func (n *Node) replayStyleSet(s *StyleSet) bool {
	if n.disposed {
		return false
	}
	h := n.tree.host
	h.BlockEdits()
	defer h.UnblockEdits()
	before := n.globalShape.Bounds()
	if _, changed := n.applyStyleSet(s, nil); changed {
		n.tree.repaintAll([]*Node{n}, map[*Node]geom.Rect{n: before})
	}
	return true
}
