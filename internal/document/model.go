package document

import (
	"encoding/json"
	"errors"
	"fmt"
	"image/color"

	"github.com/inamate/figcore/internal/figure"
	"github.com/inamate/figcore/internal/geom"
	"github.com/inamate/figcore/internal/style"
	"github.com/inamate/figcore/internal/units"
)

// ErrInvalidSnapshot is returned when a snapshot does not describe a
// well-formed figure tree.
var ErrInvalidSnapshot = errors.New("invalid snapshot")

// Snapshot is the persisted form of a figure document. Nodes are stored flat,
// keyed by their stable key; each record lists its components and children in
// order.
type Snapshot struct {
	Figure FigureInfo            `json:"figure"`
	Root   string                `json:"root"`
	Nodes  map[string]NodeRecord `json:"nodes"`
}

type FigureInfo struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Version   int    `json:"version"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

type NodeRecord struct {
	ID         string                     `json:"id"`
	Kind       string                     `json:"kind"`
	Parent     *string                    `json:"parent"`
	Components []string                   `json:"components,omitempty"`
	Children   []string                   `json:"children"`
	Shape      string                     `json:"shape,omitempty"`
	Props      map[string]json.RawMessage `json:"props"`
}

// NewEmptySnapshot returns a snapshot holding a bare figure page.
func NewEmptySnapshot(info FigureInfo, rootID string, width, height units.Measure) *Snapshot {
	w, _ := json.Marshal(width)
	h, _ := json.Marshal(height)
	return &Snapshot{
		Figure: info,
		Root:   rootID,
		Nodes: map[string]NodeRecord{
			rootID: {
				ID:       rootID,
				Kind:     figure.KindFigure.String(),
				Parent:   nil,
				Children: []string{},
				Props: map[string]json.RawMessage{
					figure.PropWidth.String():  w,
					figure.PropHeight.String(): h,
				},
			},
		},
	}
}

// Capture records root and everything below it. Only explicit property
// values are stored; inherited ones are recovered by the cascade on load.
func Capture(root *figure.Node, info FigureInfo) (*Snapshot, error) {
	if root == nil {
		return nil, fmt.Errorf("%w: no root", ErrInvalidSnapshot)
	}
	snap := &Snapshot{Figure: info, Root: root.Key(), Nodes: make(map[string]NodeRecord)}
	var err error
	figure.Walk(root, func(n *figure.Node) bool {
		if err != nil {
			return false
		}
		rec := NodeRecord{
			ID:       n.Key(),
			Kind:     n.Kind().String(),
			Children: []string{},
			Props:    make(map[string]json.RawMessage),
		}
		if p := n.Parent(); p != nil && n != root {
			key := p.Key()
			rec.Parent = &key
		}
		for i := range n.ComponentCount() {
			rec.Components = append(rec.Components, n.Component(i).Key())
		}
		for _, c := range n.Children() {
			rec.Children = append(rec.Children, c.Key())
		}
		if n.Kind() == figure.KindShape {
			rec.Shape = n.ShapeType().String()
		}
		for _, p := range n.ExplicitProperties() {
			raw, encErr := EncodeValue(n.Get(p))
			if encErr != nil {
				err = fmt.Errorf("encode %s of %s: %w", p, n.Key(), encErr)
				return false
			}
			rec.Props[p.String()] = raw
		}
		snap.Nodes[n.Key()] = rec
		return true
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// Build reconstructs the tree a snapshot describes. The returned tree has no
// host. Explicit values are restored exactly as saved, including those that
// happen to equal what an ancestor provides.
func (s *Snapshot) Build(defaults style.Defaults) (*figure.Tree, *figure.Node, error) {
	rec, ok := s.Nodes[s.Root]
	if !ok {
		return nil, nil, fmt.Errorf("%w: root %q missing", ErrInvalidSnapshot, s.Root)
	}
	if rec.Kind != figure.KindFigure.String() {
		return nil, nil, fmt.Errorf("%w: root is a %s", ErrInvalidSnapshot, rec.Kind)
	}

	tree := figure.NewTree(defaults)
	root := tree.NewNode(figure.KindFigure, s.Root)
	seen := map[string]bool{s.Root: true}

	type pending struct {
		node *figure.Node
		rec  NodeRecord
	}
	stack := []pending{{root, rec}}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if err := applyProps(cur.node, cur.rec); err != nil {
			return nil, nil, err
		}

		if len(cur.rec.Components) != cur.node.ComponentCount() {
			return nil, nil, fmt.Errorf("%w: %s %q has %d components, want %d", ErrInvalidSnapshot,
				cur.rec.Kind, cur.rec.ID, len(cur.rec.Components), cur.node.ComponentCount())
		}
		var next []pending
		for i, key := range cur.rec.Components {
			crec, ok := s.Nodes[key]
			if !ok || seen[key] {
				return nil, nil, fmt.Errorf("%w: component %q of %q", ErrInvalidSnapshot, key, cur.rec.ID)
			}
			seen[key] = true
			c := cur.node.Component(i)
			if crec.Kind != c.Kind().String() {
				return nil, nil, fmt.Errorf("%w: component %q is a %s, want %s", ErrInvalidSnapshot, key, crec.Kind, c.Kind())
			}
			tree.Rekey(c, key)
			next = append(next, pending{c, crec})
		}
		for _, key := range cur.rec.Children {
			crec, ok := s.Nodes[key]
			if !ok || seen[key] {
				return nil, nil, fmt.Errorf("%w: child %q of %q", ErrInvalidSnapshot, key, cur.rec.ID)
			}
			seen[key] = true
			c, err := newNode(tree, crec)
			if err != nil {
				return nil, nil, err
			}
			if !cur.node.Append(c) {
				return nil, nil, fmt.Errorf("%w: %s cannot hold a %s", ErrInvalidSnapshot, cur.rec.Kind, crec.Kind)
			}
			next = append(next, pending{c, crec})
		}
		for i := len(next) - 1; i >= 0; i-- {
			stack = append(stack, next[i])
		}
	}
	if len(seen) != len(s.Nodes) {
		return nil, nil, fmt.Errorf("%w: %d unreachable nodes", ErrInvalidSnapshot, len(s.Nodes)-len(seen))
	}
	return tree, root, nil
}

func newNode(tree *figure.Tree, rec NodeRecord) (*figure.Node, error) {
	k, ok := figure.ParseKind(rec.Kind)
	if !ok || k == figure.KindFigure || k == figure.KindAxis {
		return nil, fmt.Errorf("%w: node %q has kind %q", ErrInvalidSnapshot, rec.ID, rec.Kind)
	}
	n := tree.NewNode(k, rec.ID)
	if rec.ID != "" && n.Key() != rec.ID {
		return nil, fmt.Errorf("%w: duplicate key %q", ErrInvalidSnapshot, rec.ID)
	}
	if k == figure.KindShape && rec.Shape != "" {
		st, ok := figure.ParseShapeType(rec.Shape)
		if !ok {
			return nil, fmt.Errorf("%w: shape %q of %q", ErrInvalidSnapshot, rec.Shape, rec.ID)
		}
		n.SetShapeType(st)
	}
	return n, nil
}

func applyProps(n *figure.Node, rec NodeRecord) error {
	values, err := decodeProps(n, rec)
	if err != nil {
		return err
	}
	for _, pv := range values {
		if !n.ReplayProperty(pv.prop, pv.value, false) {
			return fmt.Errorf("%w: %s rejected on %s %q", ErrInvalidSnapshot, pv.prop, rec.Kind, rec.ID)
		}
	}
	return nil
}

type propValue struct {
	prop  figure.Property
	value any
}

// decodeProps decodes the properties of rec and checks n supports each.
func decodeProps(n *figure.Node, rec NodeRecord) ([]propValue, error) {
	values := make([]propValue, 0, len(rec.Props))
	for name, raw := range rec.Props {
		p, ok := figure.ParseProperty(name)
		if !ok {
			return nil, fmt.Errorf("%w: unknown property %q on %q", ErrInvalidSnapshot, name, rec.ID)
		}
		if !n.Supports(p) {
			return nil, fmt.Errorf("%w: %s rejected on %s %q", ErrInvalidSnapshot, name, rec.Kind, rec.ID)
		}
		v, err := DecodeValue(p, raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %s of %q: %v", ErrInvalidSnapshot, name, rec.ID, err)
		}
		if !n.Accepts(p, v) {
			return nil, fmt.Errorf("%w: %s of %q out of range", ErrInvalidSnapshot, name, rec.ID)
		}
		values = append(values, propValue{p, v})
	}
	return values, nil
}

// setProps applies values as user edits, normalized against the node's
// current ancestors.
func setProps(n *figure.Node, rec NodeRecord, values []propValue) error {
	for _, pv := range values {
		if !n.SetProperty(pv.prop, pv.value) {
			return fmt.Errorf("%w: %s rejected on %s %q", ErrInvalidSnapshot, pv.prop, rec.Kind, rec.ID)
		}
	}
	return nil
}

// EncodeValue writes a property value in its snapshot form: colors and
// enumerations by name, measures as "12pt" strings.
func EncodeValue(v any) (json.RawMessage, error) {
	switch x := v.(type) {
	case color.RGBA:
		v = style.FormatColor(x)
	case style.FontStyle:
		v = x.String()
	case style.StrokeCap:
		v = x.String()
	case style.StrokeJoin:
		v = x.String()
	}
	return json.Marshal(v)
}

// DecodeValue reads the snapshot form of a value of p.
func DecodeValue(p figure.Property, raw json.RawMessage) (any, error) {
	switch p {
	case figure.PropFontSize, figure.PropStrokeWidth, figure.PropRotate:
		var f float64
		err := json.Unmarshal(raw, &f)
		return f, err
	case figure.PropX, figure.PropY, figure.PropWidth, figure.PropHeight:
		var m units.Measure
		err := json.Unmarshal(raw, &m)
		return m, err
	case figure.PropHidden:
		var b bool
		err := json.Unmarshal(raw, &b)
		return b, err
	case figure.PropPoints:
		var pts []geom.Point
		err := json.Unmarshal(raw, &pts)
		return pts, err
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, err
	}
	switch p {
	case figure.PropFontStyle:
		return style.ParseFontStyle(s)
	case figure.PropFillColor, figure.PropStrokeColor:
		return style.ParseColor(s)
	case figure.PropStrokeCap:
		return style.ParseStrokeCap(s)
	case figure.PropStrokeJoin:
		return style.ParseStrokeJoin(s)
	case figure.PropStrokePattern:
		return style.StrokePattern(s), nil
	default:
		return s, nil
	}
}
