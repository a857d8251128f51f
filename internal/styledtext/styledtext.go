/*
Package styledtext implements the compact attributed-string format used by the
"title" attribute of figure nodes.

An encoded string is a character run, optionally followed by a pipe and a
comma-separated list of position:codes tokens:

	AB|1:ff0000U

Position is a character (rune) index into the run. The codes change the
attributes in effect from that character onward, starting from the caller's
default attributes:

	rrggbb   text color (six hex digits)
	p i w x  plain, italic, bold, bold italic
	U u      underline on, off
	S s n    superscript, subscript, normal baseline

The run is split at the last pipe, so the characters may themselves contain
pipes. A string whose token list is malformed decodes as plain text with
uniform default attributes.
*/
package styledtext

import (
	"image/color"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/inamate/figcore/internal/style"
)

// Script is the baseline shift of a character.
type Script uint8

const (
	Baseline Script = iota
	Superscript
	Subscript
)

// Attrs are the attributes of one character.
type Attrs struct {
	Color     color.RGBA
	Style     style.FontStyle
	Underline bool
	Script    Script
}

// Run marks the character index from which Attrs apply.
type Run struct {
	Start int
	Attrs Attrs
}

// Text is a decoded styled string. Runs are ordered by Start, and the first
// run always starts at 0.
type Text struct {
	Chars string
	Runs  []Run
}

// Segment is a maximal substring with uniform attributes.
type Segment struct {
	Text  string
	Attrs Attrs
}

// Plain returns s with uniform def attributes.
func Plain(s string, def Attrs) Text {
	return Text{Chars: s, Runs: []Run{{Start: 0, Attrs: def}}}
}

// Len returns the number of characters.
func (t Text) Len() int {
	return utf8.RuneCountInString(t.Chars)
}

// AttrsAt returns the attributes of the i-th character.
func (t Text) AttrsAt(i int) Attrs {
	var a Attrs
	for _, r := range t.Runs {
		if r.Start > i {
			break
		}
		a = r.Attrs
	}
	return a
}

// Segments splits the text into maximal uniformly styled pieces.
func (t Text) Segments() []Segment {
	runes := []rune(t.Chars)
	runs := normalize(t.Runs, len(runes), t.AttrsAt(0))
	out := make([]Segment, 0, len(runs))
	for i, r := range runs {
		end := len(runes)
		if i+1 < len(runs) {
			end = runs[i+1].Start
		}
		out = append(out, Segment{Text: string(runes[r.Start:end]), Attrs: r.Attrs})
	}
	return out
}

// Decode parses an encoded string. Any malformed token makes the whole input
// decode as plain text in the def attributes.
func Decode(s string, def Attrs) Text {
	cut := strings.LastIndexByte(s, '|')
	if cut < 0 {
		return Plain(s, def)
	}
	chars, spec := s[:cut], s[cut+1:]
	n := utf8.RuneCountInString(chars)
	if spec == "" {
		return Plain(s, def)
	}

	runs := []Run{{Start: 0, Attrs: def}}
	cur := def
	last := -1
	for _, tok := range strings.Split(spec, ",") {
		posStr, codes, ok := strings.Cut(tok, ":")
		if !ok || codes == "" {
			return Plain(s, def)
		}
		pos, err := strconv.Atoi(posStr)
		if err != nil || pos < 0 || pos >= n || pos <= last {
			return Plain(s, def)
		}
		next, ok := applyCodes(cur, codes)
		if !ok {
			return Plain(s, def)
		}
		cur, last = next, pos
		if pos == 0 {
			runs[0].Attrs = cur
		} else {
			runs = append(runs, Run{Start: pos, Attrs: cur})
		}
	}
	return Text{Chars: chars, Runs: normalize(runs, n, def)}
}

// Encode writes the text relative to def. Decoding the result with the same
// defaults yields an equivalent Text.
func (t Text) Encode(def Attrs) string {
	n := t.Len()
	var tokens []string
	prev := def
	for _, r := range normalize(t.Runs, n, def) {
		if r.Attrs == prev {
			continue
		}
		tokens = append(tokens, strconv.Itoa(r.Start)+":"+diffCodes(prev, r.Attrs))
		prev = r.Attrs
	}
	if len(tokens) == 0 {
		if !strings.ContainsRune(t.Chars, '|') || n == 0 {
			return t.Chars
		}
		// A no-op token keeps pipes in the characters from being read as
		// the token separator.
		tokens = append(tokens, "0:"+colorCode(def.Color))
	}
	return t.Chars + "|" + strings.Join(tokens, ",")
}

func applyCodes(a Attrs, codes string) (Attrs, bool) {
	for i := 0; i < len(codes); {
		if i+6 <= len(codes) && isHex(codes[i:i+6]) {
			c, err := style.ParseColor("#" + codes[i:i+6])
			if err != nil {
				return a, false
			}
			a.Color = c
			i += 6
			continue
		}
		switch codes[i] {
		case 'p':
			a.Style = style.Plain
		case 'i':
			a.Style = style.Italic
		case 'w':
			a.Style = style.Bold
		case 'x':
			a.Style = style.BoldItalic
		case 'U':
			a.Underline = true
		case 'u':
			a.Underline = false
		case 'S':
			a.Script = Superscript
		case 's':
			a.Script = Subscript
		case 'n':
			a.Script = Baseline
		default:
			return a, false
		}
		i++
	}
	return a, true
}

func diffCodes(from, to Attrs) string {
	var b strings.Builder
	if from.Color != to.Color {
		b.WriteString(colorCode(to.Color))
	}
	if from.Style != to.Style {
		b.WriteByte("piwx"[to.Style])
	}
	if from.Underline != to.Underline {
		if to.Underline {
			b.WriteByte('U')
		} else {
			b.WriteByte('u')
		}
	}
	if from.Script != to.Script {
		b.WriteByte("nSs"[to.Script])
	}
	return b.String()
}

func colorCode(c color.RGBA) string {
	return style.ToColorful(c).Hex()[1:]
}

func isHex(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !('0' <= c && c <= '9' || 'a' <= c && c <= 'f' || 'A' <= c && c <= 'F') {
			return false
		}
	}
	return true
}

// normalize drops runs outside [0, n), keeps the last of several runs that
// share a start, and merges neighbours with equal attributes. The result
// always starts at 0; an empty run list becomes one fallback run.
func normalize(runs []Run, n int, fallback Attrs) []Run {
	out := make([]Run, 0, len(runs))
	for _, r := range runs {
		if r.Start < 0 || (r.Start >= n && r.Start != 0) {
			continue
		}
		if len(out) > 0 && out[len(out)-1].Start == r.Start {
			out = out[:len(out)-1]
		}
		if len(out) > 0 && out[len(out)-1].Attrs == r.Attrs {
			continue
		}
		out = append(out, r)
	}
	if len(out) == 0 {
		return []Run{{Start: 0, Attrs: fallback}}
	}
	out[0].Start = 0
	return out
}
