package document

import (
	"image/color"
	"time"

	"github.com/inamate/figcore/internal/figure"
	"github.com/inamate/figcore/internal/geom"
	"github.com/inamate/figcore/internal/style"
	"github.com/inamate/figcore/internal/typeid"
	"github.com/inamate/figcore/internal/units"
)

// NewSampleDocument builds a small letter-size figure: a titled graph with
// one trace and a legend label, plus an annotation group holding a shape and
// a caption.
func NewSampleDocument(figureID string, defaults style.Defaults, opts Options) *Document {
	now := time.Now().UTC().Format(time.RFC3339)
	d := New(FigureInfo{
		ID:        figureID,
		Name:      "Untitled",
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}, defaults, units.Inches(8.5), units.Inches(11), opts)

	t := d.Tree()
	graph := t.NewGraph(units.Inches(1), units.Inches(1), units.Inches(6), units.Inches(4))
	d.Root().Append(graph)
	graph.Component(0).SetTitle("Time (s)")
	graph.Component(1).SetTitle("Amplitude|0:i")

	pts := make([]geom.Point, 0, 9)
	for i := range 9 {
		y := 144 + 96*float64((i%4)-2)/2
		pts = append(pts, geom.Point{X: float64(i) * 54, Y: y})
	}
	trace := t.NewTrace(pts)
	graph.Append(trace)
	trace.SetStrokeColor(color.RGBA{R: 0xe9, G: 0x45, B: 0x60, A: 0xff})
	trace.SetStrokeWidth(2)

	legend := t.NewLabel(units.Pct(70), units.Pct(10), "x2|1:S")
	graph.Append(legend)
	legend.SetIDValue("legend")

	notes := t.NewGroup(units.Inches(1), units.Inches(6), units.Inches(6), units.Inches(3))
	d.Root().Append(notes)
	notes.SetFontSize(10)
	box := t.NewShape(figure.ShapeRect, units.Points(0), units.Points(0), units.Pct(100), units.Pct(100))
	notes.Append(box)
	box.SetFillColor(color.RGBA{R: 0xf5, G: 0xf5, B: 0xf5, A: 0xff})
	box.SetStrokePattern(style.PatternDashed)
	mark := t.NewShape(figure.ShapeEllipse, units.Points(24), units.Points(24), units.Points(36), units.Points(36))
	notes.Append(mark)
	mark.SetFillColor(color.RGBA{R: 0x0f, G: 0x34, B: 0x60, A: 0xff})
	caption := t.NewLabel(units.Points(72), units.Points(48), "Figure 1. Sample response|0:w,9:p")
	notes.Append(caption)

	// Construction is not undoable and the first paint covers the page.
	d.hist.Clear()
	d.TakeDirty()
	return d
}

// NewFigureID returns a fresh figure identifier.
func NewFigureID() string { return typeid.NewFigureID() }
