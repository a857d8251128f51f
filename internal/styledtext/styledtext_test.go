package styledtext

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inamate/figcore/internal/style"
)

var def = Attrs{Color: color.RGBA{A: 0xff}}

func TestDecodeColorUnderline(t *testing.T) {
	txt := Decode("AB|1:ff0000U", def)
	assert.Equal(t, "AB", txt.Chars)
	assert.Equal(t, def, txt.AttrsAt(0))

	b := txt.AttrsAt(1)
	assert.Equal(t, color.RGBA{R: 0xff, A: 0xff}, b.Color)
	assert.True(t, b.Underline)
	assert.Equal(t, style.Plain, b.Style)

	assert.Equal(t, "AB|1:ff0000U", txt.Encode(def))
}

func TestRoundTrip(t *testing.T) {
	tests := []string{
		"plain",
		"x2y|1:S,2:n",
		"Hello|0:w,2:iU,4:p",
		"a|b|0:000000",
		"E=mc2|4:00ff00S",
		"αβγ|1:x",
	}
	for _, s := range tests {
		assert.Equal(t, s, Decode(s, def).Encode(def), s)
	}
}

func TestMalformedFallsBackToPlain(t *testing.T) {
	tests := []string{
		"AB|1:zz",
		"AB|5:U",
		"AB|x:U",
		"AB|1U",
		"AB|1:U,0:u",
		"AB|",
		"AB|1:",
	}
	for _, s := range tests {
		txt := Decode(s, def)
		require.Equal(t, s, txt.Chars, s)
		require.Len(t, txt.Runs, 1, s)
		assert.Equal(t, def, txt.Runs[0].Attrs, s)
	}
}

func TestSegments(t *testing.T) {
	txt := Decode("Hello|0:w,2:iU,4:p", def)
	segs := txt.Segments()
	require.Len(t, segs, 3)
	assert.Equal(t, "He", segs[0].Text)
	assert.Equal(t, style.Bold, segs[0].Attrs.Style)
	assert.Equal(t, "ll", segs[1].Text)
	assert.True(t, segs[1].Attrs.Underline)
	assert.Equal(t, "o", segs[2].Text)
	assert.Equal(t, style.Plain, segs[2].Attrs.Style)
	assert.True(t, segs[2].Attrs.Underline)
}

func TestEncodePlainWithPipe(t *testing.T) {
	s := Plain("a|b", def).Encode(def)
	assert.Equal(t, "a|b|0:000000", s)
	assert.Equal(t, "a|b", Decode(s, def).Chars)
}
