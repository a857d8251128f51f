package engine

import (
	"encoding/json"
	"strconv"

	"github.com/inamate/figcore/internal/figure"
	"github.com/inamate/figcore/internal/geom"
	"github.com/inamate/figcore/internal/style"
	"github.com/inamate/figcore/internal/styledtext"
)

// DrawCommand represents a single drawing operation for the frontend to execute.
// The frontend receives a list of these and executes them on a Canvas2D context.
type DrawCommand struct {
	Op          string        `json:"op"`                    // Operation: "page", "path", "text", "save", "restore", "clip"
	NodeID      string        `json:"nodeId,omitempty"`      // For hit correlation
	Transform   []float64     `json:"transform,omitempty"`   // [a, b, c, d, e, f] affine matrix
	Path        []PathCommand `json:"path,omitempty"`        // Path data for "path" and "clip" ops
	Fill        string        `json:"fill,omitempty"`        // Fill color
	Stroke      string        `json:"stroke,omitempty"`      // Stroke color
	StrokeWidth float64       `json:"strokeWidth,omitempty"` // Stroke width
	LineCap     string        `json:"lineCap,omitempty"`
	LineJoin    string        `json:"lineJoin,omitempty"`
	Dash        []float64     `json:"dash,omitempty"`
	Runs        []TextRun     `json:"runs,omitempty"` // Styled runs for "text" ops
	Width       float64       `json:"width,omitempty"`
	Height      float64       `json:"height,omitempty"`
}

// PathCommand represents a single path segment for rendering.
// Format matches Canvas2D: ["M", x, y], ["L", x, y], ["E", cx, cy, rx, ry], ["Z"].
type PathCommand []interface{}

// TextRun is one uniformly styled piece of a title, in drawing order along
// the baseline.
type TextRun struct {
	Text      string  `json:"text"`
	Font      string  `json:"font"` // CSS font shorthand
	Color     string  `json:"color"`
	Underline bool    `json:"underline,omitempty"`
	Rise      float64 `json:"rise,omitempty"` // baseline shift, up is positive
}

// CompileDrawCommands generates a draw command buffer for the subtree of
// root. Only nodes whose cached global shape meets one of the dirty
// rectangles are emitted; nil dirty means everything. Commands are in
// painter's order (back to front).
func CompileDrawCommands(root *figure.Node, dirty []geom.Rect) []DrawCommand {
	if root == nil {
		return nil
	}

	var commands []DrawCommand
	type frame struct {
		node *figure.Node
		op   int // 0 paint node, 1 open plot clip, 2 close it
	}
	stack := []frame{{node: root}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n := f.node
		switch f.op {
		case 1:
			// Graphs clip their children to the plot area; the axes stay
			// outside it.
			w, h := n.Extent()
			commands = append(commands,
				DrawCommand{Op: "save"},
				DrawCommand{Op: "clip", NodeID: n.Key(), Transform: n.LocalToGlobal().ToSlice(), Path: rectPath(w, h)},
			)
			continue
		case 2:
			commands = append(commands, DrawCommand{Op: "restore"})
			continue
		}
		if !n.IsRendered() || !n.NeedsRendering(dirty) {
			continue
		}

		commands = append(commands, compileNode(n)...)

		clip := n.Kind() == figure.KindGraph && n.ChildCount() > 0
		if clip {
			stack = append(stack, frame{node: n, op: 2})
		}
		children := n.Children()
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, frame{node: children[i]})
		}
		if clip {
			stack = append(stack, frame{node: n, op: 1})
		}
		for i := n.ComponentCount() - 1; i >= 0; i-- {
			stack = append(stack, frame{node: n.Component(i)})
		}
	}
	return commands
}

// compileNode generates the draw commands of one node, excluding its
// subordinates.
func compileNode(n *figure.Node) []DrawCommand {
	base := DrawCommand{NodeID: n.Key(), Transform: n.LocalToGlobal().ToSlice()}
	switch n.Kind() {
	case figure.KindFigure:
		w, h := n.Extent()
		base.Op = "page"
		base.Width, base.Height = w, h
		return []DrawCommand{base}

	case figure.KindGraph:
		w, h := n.Extent()
		cmd := stroked(base, n)
		cmd.Path = rectPath(w, h)
		return []DrawCommand{cmd}

	case figure.KindShape:
		w, h := n.Extent()
		cmd := stroked(base, n)
		cmd.Fill = style.FormatColor(n.FillColor())
		if n.ShapeType() == figure.ShapeEllipse {
			cmd.Path = []PathCommand{{"E", w / 2, h / 2, w / 2, h / 2}}
		} else {
			cmd.Path = rectPath(w, h)
		}
		return []DrawCommand{cmd}

	case figure.KindTrace:
		pts := n.Points()
		if len(pts) < 2 {
			return nil
		}
		cmd := stroked(base, n)
		cmd.Path = make([]PathCommand, 0, len(pts))
		cmd.Path = append(cmd.Path, PathCommand{"M", pts[0].X, pts[0].Y})
		for _, p := range pts[1:] {
			cmd.Path = append(cmd.Path, PathCommand{"L", p.X, p.Y})
		}
		return []DrawCommand{cmd}

	case figure.KindAxis:
		return compileAxis(base, n)

	case figure.KindLabel:
		if n.Title() == "" {
			return nil
		}
		base.Op = "text"
		base.Runs = textRuns(n)
		return []DrawCommand{base}
	}
	return nil
}

func compileAxis(base DrawCommand, n *figure.Node) []DrawCommand {
	p := n.Parent()
	if p == nil {
		return nil
	}
	gw, gh := p.Extent()
	line := stroked(base, n)
	if n.Orientation() == figure.Vertical {
		line.Path = []PathCommand{{"M", 0.0, 0.0}, {"L", 0.0, gh}}
	} else {
		line.Path = []PathCommand{{"M", 0.0, 0.0}, {"L", gw, 0.0}}
	}
	out := []DrawCommand{line}
	if n.Title() == "" {
		return out
	}

	// The title sits outside the tick band, centered on the axis.
	b := n.CachedBounds()
	title := base
	title.Op = "text"
	title.Runs = textRuns(n)
	if n.Orientation() == figure.Vertical {
		m := n.LocalToGlobal().Multiply(geom.Translate(b.X, gh/2)).Multiply(geom.RotateDegrees(-90))
		title.Transform = m.ToSlice()
	} else {
		m := n.LocalToGlobal().Multiply(geom.Translate(gw/2, b.Bottom()))
		title.Transform = m.ToSlice()
	}
	return append(out, title)
}

func stroked(base DrawCommand, n *figure.Node) DrawCommand {
	base.Op = "path"
	base.Stroke = style.FormatColor(n.StrokeColor())
	base.StrokeWidth = n.StrokeWidth()
	base.LineCap = n.StrokeCap().String()
	base.LineJoin = n.StrokeJoin().String()
	base.Dash = n.StrokePattern().Dashes(base.StrokeWidth)
	return base
}

func rectPath(w, h float64) []PathCommand {
	return []PathCommand{{"M", 0.0, 0.0}, {"L", w, 0.0}, {"L", w, h}, {"L", 0.0, h}, {"Z"}}
}

func textRuns(n *figure.Node) []TextRun {
	font := n.Font()
	segs := n.TitleText().Segments()
	runs := make([]TextRun, 0, len(segs))
	for _, seg := range segs {
		size := font.Size
		rise := 0.0
		switch seg.Attrs.Script {
		case styledtext.Superscript:
			size *= figure.ScriptScale
			rise = font.Size * (1 - figure.ScriptScale)
		case styledtext.Subscript:
			size *= figure.ScriptScale
			rise = -font.Size * (1 - figure.ScriptScale) / 2
		}
		runs = append(runs, TextRun{
			Text:      seg.Text,
			Font:      cssFont(font.Family, seg.Attrs.Style, size),
			Color:     style.FormatColor(seg.Attrs.Color),
			Underline: seg.Attrs.Underline,
			Rise:      rise,
		})
	}
	return runs
}

func cssFont(family string, fs style.FontStyle, size float64) string {
	b, _ := json.Marshal(family)
	prefix := ""
	if fs.IsItalic() {
		prefix += "italic "
	}
	if fs.IsBold() {
		prefix += "bold "
	}
	return prefix + strconv.FormatFloat(size, 'f', -1, 64) + "px " + string(b)
}

// DrawCommandsToJSON serializes draw commands to JSON.
func DrawCommandsToJSON(commands []DrawCommand) (string, error) {
	data, err := json.Marshal(commands)
	if err != nil {
		return "[]", err
	}
	return string(data), nil
}

// RectToJSON serializes a Rect to JSON.
func RectToJSON(r geom.Rect) string {
	data, _ := json.Marshal(r)
	return string(data)
}
