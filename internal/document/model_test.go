package document

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inamate/figcore/internal/figure"
	"github.com/inamate/figcore/internal/style"
	"github.com/inamate/figcore/internal/units"
)

func TestSampleDocumentRoundTrip(t *testing.T) {
	d := NewSampleDocument("fig_sample", style.Builtin(), Options{})
	assert.Equal(t, 0, d.History().Len())
	assert.False(t, d.HasDirty())

	snap, err := d.Snapshot()
	require.NoError(t, err)
	data, err := json.Marshal(snap)
	require.NoError(t, err)

	var decoded Snapshot
	require.NoError(t, json.Unmarshal(data, &decoded))
	loaded, err := Open(&decoded, style.Builtin(), Options{})
	require.NoError(t, err)

	assert.Equal(t, d.Tree().Len(), loaded.Tree().Len())
	figure.Walk(d.Root(), func(n *figure.Node) bool {
		m := loaded.Tree().NodeByKey(n.Key())
		require.NotNil(t, m, n.Key())
		assert.Equal(t, n.Kind(), m.Kind())
		assert.Equal(t, n.ExplicitProperties(), m.ExplicitProperties(), n.Key())
		for _, p := range n.ExplicitProperties() {
			assert.Equal(t, n.Get(p), m.Get(p), "%s of %s", p, n.Key())
		}
		rectApprox(t, n.CachedBounds(), m.CachedBounds())
		return true
	})

	again, err := loaded.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, snap.Nodes, again.Nodes)
}

func TestEmptySnapshotOpens(t *testing.T) {
	snap := NewEmptySnapshot(FigureInfo{ID: "fig_empty"}, "fig_root", units.Inches(4), units.Inches(3))
	d, err := Open(snap, style.Builtin(), Options{})
	require.NoError(t, err)
	assert.Equal(t, "fig_root", d.Root().Key())
	assert.Equal(t, units.Inches(4), d.Root().Width())
	assert.InDelta(t, 288, d.Root().CachedBounds().Width, 1e-9)
}

func TestOpenRejectsMalformedSnapshots(t *testing.T) {
	base := func() *Snapshot {
		s := NewEmptySnapshot(FigureInfo{ID: "fig_bad"}, "root", units.Points(100), units.Points(100))
		r := s.Nodes["root"]
		r.Children = []string{"g"}
		s.Nodes["root"] = r
		parent := "root"
		s.Nodes["g"] = NodeRecord{ID: "g", Kind: "group", Parent: &parent, Children: []string{}}
		return s
	}
	_, err := Open(base(), style.Builtin(), Options{})
	require.NoError(t, err)

	cases := map[string]func(s *Snapshot){
		"missing root": func(s *Snapshot) { s.Root = "nope" },
		"root not a figure": func(s *Snapshot) {
			s.Root = "g"
		},
		"missing child": func(s *Snapshot) {
			r := s.Nodes["root"]
			r.Children = append(r.Children, "ghost")
			s.Nodes["root"] = r
		},
		"kind not accepted": func(s *Snapshot) {
			g := s.Nodes["g"]
			g.Kind = "trace"
			s.Nodes["g"] = g
		},
		"unknown property": func(s *Snapshot) {
			g := s.Nodes["g"]
			g.Props = map[string]json.RawMessage{"opacity": json.RawMessage(`1`)}
			s.Nodes["g"] = g
		},
		"bad value": func(s *Snapshot) {
			g := s.Nodes["g"]
			g.Props = map[string]json.RawMessage{"fillColor": json.RawMessage(`"#zz"`)}
			s.Nodes["g"] = g
		},
		"unreachable node": func(s *Snapshot) {
			s.Nodes["orphan"] = NodeRecord{ID: "orphan", Kind: "group"}
		},
		"repeated child": func(s *Snapshot) {
			r := s.Nodes["root"]
			r.Children = []string{"g", "g"}
			s.Nodes["root"] = r
		},
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			s := base()
			mutate(s)
			_, err := Open(s, style.Builtin(), Options{})
			assert.ErrorIs(t, err, ErrInvalidSnapshot)
		})
	}
}

func TestValueCodec(t *testing.T) {
	tests := []struct {
		prop figure.Property
		val  any
		want string
	}{
		{figure.PropFontStyle, style.BoldItalic, `"bolditalic"`},
		{figure.PropStrokeCap, style.CapRound, `"round"`},
		{figure.PropWidth, units.Pct(50), `"50%"`},
		{figure.PropRotate, 30.0, `30`},
		{figure.PropHidden, true, `true`},
	}
	for _, tt := range tests {
		t.Run(tt.prop.String(), func(t *testing.T) {
			raw, err := EncodeValue(tt.val)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(raw))
			v, err := DecodeValue(tt.prop, raw)
			require.NoError(t, err)
			assert.Equal(t, tt.val, v)
		})
	}
}

func TestOpenKeepsExplicitValuesEqualToDefaults(t *testing.T) {
	d := New(FigureInfo{ID: "fig_styles"}, style.Builtin(), units.Points(200), units.Points(200), Options{})
	tr := d.Tree()
	g := tr.NewGroup(units.Points(0), units.Points(0), units.Points(100), units.Points(100))
	s := tr.NewShape(figure.ShapeRect, units.Points(10), units.Points(10), units.Points(20), units.Points(20))
	require.True(t, d.Root().Append(g))
	require.True(t, g.Append(s))
	require.True(t, g.SetStrokeWidth(3))
	require.True(t, s.SetStrokeWidth(1))
	require.True(t, g.RestoreDefaultStyles(false, figure.PropStrokeWidth))
	require.True(t, s.IsExplicit(figure.PropStrokeWidth), "explicit 1 now equals the inherited default")

	snap, err := d.Snapshot()
	require.NoError(t, err)
	loaded, err := Open(snap, style.Builtin(), Options{})
	require.NoError(t, err)

	ls := loaded.Tree().NodeByKey(s.Key())
	require.NotNil(t, ls)
	assert.True(t, ls.IsExplicit(figure.PropStrokeWidth))
	assert.Equal(t, 1.0, ls.StrokeWidth())

	require.True(t, ls.Parent().SetStrokeWidth(3))
	assert.Equal(t, 1.0, ls.StrokeWidth(), "the loaded value does not start inheriting")
}
