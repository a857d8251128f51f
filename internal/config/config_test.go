package config

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inamate/figcore/internal/style"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 200, cfg.HistoryDepth)

	d, err := cfg.Preferences.Defaults()
	require.NoError(t, err)
	assert.Equal(t, style.Builtin(), d)
	assert.Equal(t, 0.1, cfg.Preferences.ResizeFloor)
}

func TestPreferencesFromEnv(t *testing.T) {
	t.Setenv("FIG_FONT_SIZE", "9")
	t.Setenv("FIG_FILL_COLOR", "#336699")
	t.Setenv("FIG_STROKE_JOIN", "round")

	p, err := LoadPreferences()
	require.NoError(t, err)
	d, err := p.Defaults()
	require.NoError(t, err)
	assert.Equal(t, 9.0, d.FontSize)
	assert.Equal(t, color.RGBA{R: 0x33, G: 0x66, B: 0x99, A: 0xff}, d.FillColor)
	assert.Equal(t, style.JoinRound, d.StrokeJoin)
}

func TestPreferencesRejectBadValues(t *testing.T) {
	p := Preferences{FontFamily: "Arial", FontStyle: "oblique", FontSize: 12, FillColor: "#000", StrokeColor: "#000", StrokeCap: "butt", StrokeJoin: "miter", StrokePattern: "solid"}
	_, err := p.Defaults()
	assert.ErrorIs(t, err, style.ErrUnknownValue)

	p.FontStyle = "plain"
	p.StrokePattern = "3"
	_, err = p.Defaults()
	assert.Error(t, err)
}
