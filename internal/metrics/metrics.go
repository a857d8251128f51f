// Package metrics measures text with the Go font family so label and axis
// bounds can be computed without a rendering backend.
package metrics

import (
	"fmt"
	"strings"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/gomonobolditalic"
	"golang.org/x/image/font/gofont/gomonoitalic"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/inamate/figcore/internal/figure"
	"github.com/inamate/figcore/internal/style"
)

// monoFamilies are family names measured with Go Mono. Everything else is
// measured with the proportional Go font.
var monoFamilies = []string{"courier", "mono", "consolas", "menlo"}

type faceKey struct {
	mono  bool
	style style.FontStyle
	size  fixed.Int26_6
}

// GoFonts is a figure.Measurer backed by the embedded Go fonts. Faces are
// created lazily per variant and size. It is safe for concurrent use.
type GoFonts struct {
	fonts [2][4]*opentype.Font // [mono][style]

	mu    sync.Mutex
	faces map[faceKey]font.Face
}

var _ figure.Measurer = (*GoFonts)(nil)

// New parses the embedded fonts.
func New() (*GoFonts, error) {
	sources := [2][4][]byte{
		{goregular.TTF, goitalic.TTF, gobold.TTF, gobolditalic.TTF},
		{gomono.TTF, gomonoitalic.TTF, gomonobold.TTF, gomonobolditalic.TTF},
	}
	g := &GoFonts{faces: make(map[faceKey]font.Face)}
	for i := range sources {
		for j, src := range sources[i] {
			f, err := opentype.Parse(src)
			if err != nil {
				return nil, fmt.Errorf("parse go font %d/%d: %w", i, j, err)
			}
			g.fonts[i][j] = f
		}
	}
	return g, nil
}

// Measure implements figure.Measurer. Sizes are in points and the faces are
// built at 72 DPI, so one pixel of the face is one point.
func (g *GoFonts) Measure(s string, f style.Font) figure.TextExtent {
	if f.Size <= 0 {
		return figure.TextExtent{}
	}
	key := faceKey{
		mono:  isMono(f.Family),
		style: f.Style,
		size:  fixed.Int26_6(f.Size * 64),
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	face, err := g.face(key)
	if err != nil {
		return figure.ApproxMeasurer{}.Measure(s, f)
	}
	m := face.Metrics()
	return figure.TextExtent{
		Width:   toFloat(font.MeasureString(face, s)),
		Ascent:  toFloat(m.Ascent),
		Descent: toFloat(m.Descent),
	}
}

func (g *GoFonts) face(k faceKey) (font.Face, error) {
	if face, ok := g.faces[k]; ok {
		return face, nil
	}
	variant := 0
	if k.mono {
		variant = 1
	}
	idx := 0
	switch k.style {
	case style.Italic:
		idx = 1
	case style.Bold:
		idx = 2
	case style.BoldItalic:
		idx = 3
	}
	face, err := opentype.NewFace(g.fonts[variant][idx], &opentype.FaceOptions{
		Size:    toFloat(k.size),
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil, fmt.Errorf("new face: %w", err)
	}
	g.faces[k] = face
	return face, nil
}

// Close releases the cached faces.
func (g *GoFonts) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	for k, face := range g.faces {
		face.Close()
		delete(g.faces, k)
	}
	return nil
}

func isMono(family string) bool {
	family = strings.ToLower(family)
	for _, m := range monoFamilies {
		if strings.Contains(family, m) {
			return true
		}
	}
	return false
}

func toFloat(x fixed.Int26_6) float64 {
	return float64(x) / 64
}
