package figure

import (
	"github.com/inamate/figcore/internal/geom"
	"github.com/inamate/figcore/internal/typeid"
)

// Capability is a bitset of the generic attributes a node kind supports.
type Capability uint16

const (
	CapFont Capability = 1 << iota
	CapFill
	CapStroke
	CapStrokePattern
	CapPosition
	CapSize
	CapRotation
	CapTitle
	CapID
	CapData
)

// CapNone marks attributes every node supports.
const CapNone Capability = 0

// Has reports whether every bit of c2 is set in c.
func (c Capability) Has(c2 Capability) bool {
	return c&c2 == c2
}

// Kind is the closed set of node types.
type Kind uint8

const (
	KindFigure Kind = iota
	KindGroup
	KindGraph
	KindAxis
	KindTrace
	KindLabel
	KindShape
	numKinds
)

func (k Kind) String() string {
	if k < numKinds {
		return policies[k].name
	}
	return "unknown"
}

// ParseKind maps a kind name back to the Kind.
func ParseKind(s string) (Kind, bool) {
	for k := range numKinds {
		if policies[k].name == s {
			return k, true
		}
	}
	return 0, false
}

// policy is the per-kind behaviour table.
type policy struct {
	name   string
	prefix string
	caps   Capability

	// ownBounds measures the node alone, excluding subordinates, in local
	// coordinates.
	ownBounds func(n *Node, mc Measurer) geom.Rect

	// localToParent overrides the default anchor+rotation transform.
	localToParent func(n *Node) geom.Matrix2D

	// viewport is the local rectangle in which subordinates are positioned,
	// given the viewport of the node's parent.
	viewport func(n *Node, parent geom.Rect) geom.Rect

	// accepts reports whether child may be inserted as a public child.
	accepts func(child Kind) bool

	// release drops type-specific rendering state.
	release func(n *Node)

	// styleComponents makes style sets recurse into components.
	styleComponents bool
}

var policies [numKinds]policy

func init() {
	style := CapFont | CapFill | CapStroke | CapStrokePattern
	policies = [numKinds]policy{
		KindFigure: {
			name:      "figure",
			prefix:    typeid.PrefixFigure,
			caps:      style | CapPosition | CapSize | CapTitle | CapID,
			ownBounds: pageBounds,
			viewport:  boxViewport,
			accepts:   acceptsAny(KindGroup, KindGraph, KindLabel, KindShape),
		},
		KindGroup: {
			name:     "group",
			prefix:   typeid.PrefixGroup,
			caps:     style | CapPosition | CapSize | CapRotation | CapID,
			viewport: boxViewport,
			accepts:  acceptsAny(KindGroup, KindGraph, KindLabel, KindShape),
		},
		KindGraph: {
			name:            "graph",
			prefix:          typeid.PrefixGraph,
			caps:            style | CapPosition | CapSize | CapRotation | CapTitle | CapID,
			ownBounds:       strokedBoxBounds,
			viewport:        boxViewport,
			accepts:         acceptsAny(KindTrace, KindLabel, KindShape),
			styleComponents: true,
		},
		KindAxis: {
			name:          "axis",
			prefix:        typeid.PrefixAxis,
			caps:          CapFont | CapFill | CapStroke | CapStrokePattern | CapTitle,
			ownBounds:     axisBounds,
			localToParent: axisTransform,
			release:       releaseText,
		},
		KindTrace: {
			name:      "trace",
			prefix:    typeid.PrefixTrace,
			caps:      CapStroke | CapStrokePattern | CapFill | CapTitle | CapID | CapData,
			ownBounds: traceBounds,
		},
		KindLabel: {
			name:      "label",
			prefix:    typeid.PrefixLabel,
			caps:      CapFont | CapFill | CapPosition | CapRotation | CapTitle | CapID,
			ownBounds: labelBounds,
			release:   releaseText,
		},
		KindShape: {
			name:      "shape",
			prefix:    typeid.PrefixShape,
			caps:      CapFill | CapStroke | CapStrokePattern | CapPosition | CapSize | CapRotation | CapTitle | CapID,
			ownBounds: strokedBoxBounds,
			viewport:  boxViewport,
		},
	}
}

func acceptsAny(kinds ...Kind) func(Kind) bool {
	return func(k Kind) bool {
		for _, ok := range kinds {
			if k == ok {
				return true
			}
		}
		return false
	}
}

// ShapeType selects the outline a shape node paints.
type ShapeType uint8

const (
	ShapeRect ShapeType = iota
	ShapeEllipse
)

func (s ShapeType) String() string {
	if s == ShapeEllipse {
		return "ellipse"
	}
	return "rect"
}

// ParseShapeType reads "rect" or "ellipse".
func ParseShapeType(s string) (ShapeType, bool) {
	switch s {
	case "rect":
		return ShapeRect, true
	case "ellipse":
		return ShapeEllipse, true
	}
	return ShapeRect, false
}

// Orientation of an axis component.
type Orientation uint8

const (
	Horizontal Orientation = iota
	Vertical
)
