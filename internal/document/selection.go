package document

import (
	"fmt"
	"slices"

	"github.com/inamate/figcore/internal/figure"
	"github.com/inamate/figcore/internal/geom"
)

// Select replaces the selection with the nodes named by keys.
func (d *Document) Select(keys ...string) error {
	sel := make([]*figure.Node, 0, len(keys))
	for _, k := range keys {
		n, err := d.Node(k)
		if err != nil {
			return err
		}
		if !slices.Contains(sel, n) {
			sel = append(sel, n)
		}
	}
	d.selection = sel
	return nil
}

// SelectAt replaces the selection with the node under p, or clears it.
func (d *Document) SelectAt(p geom.Point) *figure.Node {
	n := d.HitTest(p)
	d.selection = d.selection[:0]
	if n != nil {
		d.selection = append(d.selection, n)
	}
	return n
}

// ClearSelection empties the selection.
func (d *Document) ClearSelection() {
	d.selection = nil
}

// Selection returns the selected nodes in selection order.
func (d *Document) Selection() []*figure.Node {
	return slices.Clone(d.selection)
}

// SelectionKeys returns the keys of the selected nodes.
func (d *Document) SelectionKeys() []string {
	keys := make([]string, len(d.selection))
	for i, n := range d.selection {
		keys[i] = n.Key()
	}
	return keys
}

// SetBatchMode turns on fanning property changes on a selected node out to
// the whole selection.
func (d *Document) SetBatchMode(on bool) {
	d.batchMode = on
}

func (d *Document) isSelected(n *figure.Node) bool {
	return slices.Contains(d.selection, n)
}

func (d *Document) deselectSubtree(removed *figure.Node) {
	d.selection = slices.DeleteFunc(d.selection, func(n *figure.Node) bool {
		return n == removed || removed.IsAncestorOf(n)
	})
}

// topmostSelection drops selected nodes that lie below another selected node
// so a gesture is not applied twice.
func (d *Document) topmostSelection() []*figure.Node {
	out := make([]*figure.Node, 0, len(d.selection))
	for _, n := range d.selection {
		covered := false
		for _, o := range d.selection {
			if o != n && o.IsAncestorOf(n) {
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

// HitTest returns the smallest rendered node containing p, in root
// coordinates.
func (d *Document) HitTest(p geom.Point) *figure.Node {
	return d.root.HitTest(p)
}

// SelectionBounds is the union of the global bounds of the selection.
func (d *Document) SelectionBounds() geom.Rect {
	var r geom.Rect
	for _, n := range d.selection {
		r = r.Union(n.GlobalShape().Bounds())
	}
	return r
}

// FocusShapes returns the focus outline of every selected node.
func (d *Document) FocusShapes() []geom.Shape {
	out := make([]geom.Shape, 0, len(d.selection))
	for _, n := range d.selection {
		out = append(out, n.FocusShape())
	}
	return out
}

// --- gestures over the selection ---

// SetProperty assigns p on every selected node that supports it, as one
// edit.
func (d *Document) SetProperty(p figure.Property, v any) bool {
	if len(d.selection) == 1 {
		return d.selection[0].SetProperty(p, v)
	}
	return d.setOnSelection(p, v)
}

func (d *Document) setOnSelection(p figure.Property, v any) bool {
	b := d.tree.NewBatch("Set " + p.String())
	for _, n := range d.selection {
		if n.Supports(p) {
			b.Set(n, p, v)
		}
	}
	return b.Commit()
}

// Move translates the selection by a root-coordinate drag vector.
func (d *Document) Move(dx, dy float64) bool {
	b := d.tree.NewBatch("Move")
	for _, n := range d.topmostSelection() {
		n.MoveIn(b, dx, dy)
	}
	return b.Commit()
}

// Resize drags handle h of every selected node. Relative measures follow
// the drag only for a single selected node.
func (d *Document) Resize(h figure.Handle, dx, dy float64) bool {
	sel := d.topmostSelection()
	b := d.tree.NewBatch("Resize")
	for _, n := range sel {
		n.ResizeIn(b, h, dx, dy, len(sel) == 1)
	}
	return b.Commit()
}

// Align moves every selected node so its locus l matches that of the first
// selected node.
func (d *Document) Align(l figure.Locus) bool {
	if len(d.selection) < 2 {
		return false
	}
	target := d.selection[0].AlignmentLocus(l)
	b := d.tree.NewBatch("Align " + l.String())
	for _, n := range d.topmostSelection() {
		n.AlignIn(b, l, target)
	}
	return b.Commit()
}

// Rescale scales every selected subtree by pct percent.
func (d *Document) Rescale(pct float64) bool {
	return d.group("Rescale", func() bool {
		changed := false
		for _, n := range d.topmostSelection() {
			changed = n.Rescale(pct) || changed
		}
		return changed
	})
}

// RestoreDefaultStyles makes the given style properties implicit on the
// selection, and below it when descendants is set.
func (d *Document) RestoreDefaultStyles(descendants bool, ps ...figure.Property) bool {
	return d.group("Restore default styles", func() bool {
		changed := false
		for _, n := range d.selection {
			changed = n.RestoreDefaultStyles(descendants, ps...) || changed
		}
		return changed
	})
}

// CopyStyle captures the style in effect on the first selected node.
func (d *Document) CopyStyle() bool {
	if len(d.selection) == 0 {
		return false
	}
	d.clipboard = d.selection[0].CaptureStyleSet()
	return true
}

// Clipboard returns the copied style set, or nil.
func (d *Document) Clipboard() *figure.StyleSet {
	return d.clipboard
}

// PasteStyle applies the copied style set to the selection.
func (d *Document) PasteStyle() bool {
	if d.clipboard == nil || len(d.selection) == 0 {
		return false
	}
	if len(d.selection) == 1 {
		return d.selection[0].ApplyStyleSet(d.clipboard)
	}
	b := d.tree.NewBatch("Paste style")
	for _, n := range d.selection {
		n.ApplyStyleSetIn(b, d.clipboard)
	}
	return b.Commit()
}

// --- structure ---

// Insert attaches n as a child of the node parentKey at index. A negative
// index appends.
func (d *Document) Insert(parentKey string, n *figure.Node, index int) error {
	if n == nil {
		return fmt.Errorf("%w: nil node", ErrUnknownNode)
	}
	parent, err := d.Node(parentKey)
	if err != nil {
		return err
	}
	if index < 0 || index > parent.ChildCount() {
		index = parent.ChildCount()
	}
	ok := d.group("Insert "+n.Kind().String(), func() bool {
		if id := n.IDValue(); id != "" && d.IDInUse(id, n) {
			n.SetIDValue(d.EnsureUniqueID(id))
		}
		return parent.Insert(n, index)
	})
	if !ok {
		return fmt.Errorf("%s cannot hold a %s", parent.Kind(), n.Kind())
	}
	return nil
}

// InsertRecord creates a node from its snapshot record and inserts it under
// parentKey. Components and children of rec are not followed. Creation and
// the initial property values form one edit.
func (d *Document) InsertRecord(parentKey string, rec NodeRecord, index int) (*figure.Node, error) {
	k, ok := figure.ParseKind(rec.Kind)
	if !ok {
		return nil, fmt.Errorf("%w: kind %q", ErrInvalidSnapshot, rec.Kind)
	}
	n, err := newNode(d.tree, rec)
	if err != nil {
		return nil, err
	}
	values, err := decodeProps(n, rec)
	if err != nil {
		d.tree.Dispose(n)
		return nil, err
	}
	for i, pv := range values {
		if pv.prop == figure.PropID {
			values[i].value = d.EnsureUniqueID(pv.value.(string))
		}
	}
	d.group("Insert "+k.String(), func() bool {
		if err = d.Insert(parentKey, n, index); err != nil {
			return false
		}
		err = setProps(n, rec, values)
		return true
	})
	if n.Parent() == nil {
		d.tree.Dispose(n)
		return nil, err
	}
	return n, err
}

// DeleteSelection removes the selected nodes from their parents as one edit.
func (d *Document) DeleteSelection() bool {
	sel := d.topmostSelection()
	ok := d.group("Delete", func() bool {
		changed := false
		for _, n := range sel {
			if p := n.Parent(); p != nil && !n.IsComponent() {
				changed = p.Remove(n) || changed
			}
		}
		return changed
	})
	if ok {
		d.ClearSelection()
	}
	return ok
}

// SetZOrder moves the node key to position pos among its siblings.
func (d *Document) SetZOrder(key string, pos int) error {
	n, err := d.Node(key)
	if err != nil {
		return err
	}
	p := n.Parent()
	if p == nil || n.IsComponent() || !p.SetChildPosition(n, pos) {
		return fmt.Errorf("cannot move %s to position %d", key, pos)
	}
	return nil
}
