package units

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToPoints(t *testing.T) {
	tests := []struct {
		m    Measure
		ref  float64
		want float64
	}{
		{Inches(1), 0, 72},
		{New(2.54, Cm), 0, 72},
		{New(25.4, Mm), 0, 72},
		{New(1, Pc), 0, 12},
		{Pct(50), 300, 150},
		{Points(9), 0, 9},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, tt.m.ToPoints(tt.ref), 1e-9, tt.m.String())
	}
}

func TestFromPointsQuantizes(t *testing.T) {
	m := FromPoints(100, In, 0)
	assert.Equal(t, In, m.Unit)
	assert.Equal(t, 1.389, m.Value)

	m = FromPoints(75, Percent, 300)
	assert.Equal(t, 25.0, m.Value)

	assert.Equal(t, 0.0, FromPoints(75, Percent, 0).Value)
}

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want Measure
	}{
		{"1.5in", Inches(1.5)},
		{"12pt", Points(12)},
		{"12", Points(12)},
		{"50%", Pct(50)},
		{" 3 mm ", New(3, Mm)},
		{"2pc", New(2, Pc)},
	}
	for _, tt := range tests {
		got, err := Parse(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	for _, bad := range []string{"", "in", "abcpt", "NaN"} {
		_, err := Parse(bad)
		assert.ErrorIs(t, err, ErrInvalid, bad)
	}
}

func TestScaleRoundTrip(t *testing.T) {
	m := Inches(1.25)
	assert.True(t, m.Scale(0.5).Scale(2).Equal(m))
	assert.Equal(t, "0.625in", m.Scale(0.5).String())
}

func TestTextMarshal(t *testing.T) {
	b, err := Pct(12.5).MarshalText()
	require.NoError(t, err)
	var m Measure
	require.NoError(t, m.UnmarshalText(b))
	assert.Equal(t, Pct(12.5), m)
}
