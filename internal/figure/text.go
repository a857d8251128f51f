package figure

import (
	"unicode/utf8"

	"github.com/inamate/figcore/internal/style"
	"github.com/inamate/figcore/internal/styledtext"
)

// ScriptScale is the size of superscript and subscript characters relative
// to the base font size.
const ScriptScale = 0.7

// TextExtent is the measured size of a string, in points.
type TextExtent struct {
	Width   float64
	Ascent  float64
	Descent float64
}

// Measurer computes font metrics for label and axis bounds.
type Measurer interface {
	Measure(s string, f style.Font) TextExtent
}

// ApproxMeasurer estimates metrics from the font size alone. It is used when
// the host has no font data.
type ApproxMeasurer struct{}

func (ApproxMeasurer) Measure(s string, f style.Font) TextExtent {
	adv := 0.6
	if f.Style.IsBold() {
		adv = 0.65
	}
	return TextExtent{
		Width:   float64(utf8.RuneCountInString(s)) * adv * f.Size,
		Ascent:  0.8 * f.Size,
		Descent: 0.2 * f.Size,
	}
}

// textLayout caches the measured title of a text-bearing node. It is keyed
// by the inputs so a cascaded font change invalidates it.
type textLayout struct {
	title string
	font  style.Font

	width   float64
	ascent  float64
	descent float64
}

func (n *Node) textLayout(mc Measurer) *textLayout {
	title := n.Title()
	font := n.Font()
	if l := n.layout; l != nil && l.title == title && l.font == font {
		return l
	}
	l := &textLayout{title: title, font: font}
	def := styledtext.Attrs{Color: n.FillColor(), Style: font.Style}
	for _, seg := range styledtext.Decode(title, def).Segments() {
		f := style.Font{Family: font.Family, Style: seg.Attrs.Style, Size: font.Size}
		if seg.Attrs.Script != styledtext.Baseline {
			f.Size *= ScriptScale
		}
		ext := mc.Measure(seg.Text, f)
		l.width += ext.Width
		asc, desc := ext.Ascent, ext.Descent
		switch seg.Attrs.Script {
		case styledtext.Superscript:
			asc += font.Size * (1 - ScriptScale)
		case styledtext.Subscript:
			desc += font.Size * (1 - ScriptScale) / 2
		}
		l.ascent = max(l.ascent, asc)
		l.descent = max(l.descent, desc)
	}
	n.layout = l
	return l
}

// TitleText decodes the node's title against its resolved fill color and
// font style.
func (n *Node) TitleText() styledtext.Text {
	def := styledtext.Attrs{Color: n.FillColor(), Style: n.FontStyle()}
	return styledtext.Decode(n.Title(), def)
}

func releaseText(n *Node) {
	n.layout = nil
}
