package contentstream_test

import (
	"math"
	"testing"

	cs "github.com/wudi/pdfredact/contentstream"
	"github.com/wudi/pdfredact/geom"
)

type fixedFont struct{ width float64 }

func (f fixedFont) Decode(s []byte) []cs.Char {
	out := make([]cs.Char, len(s))
	for i, b := range s {
		out[i] = cs.Char{Code: []byte{b}, Width: f.width, Text: string(rune(b)), Space: b == ' '}
	}
	return out
}

func (fixedFont) Extent() (float64, float64) { return -200, 800 }

type testResources map[string]cs.XObjectKind

func (testResources) Font(string) cs.Font { return fixedFont{width: 500} }

func (r testResources) XObject(name string) cs.XObjectKind { return r[name] }

func trace(t *testing.T, content string) cs.Trace {
	t.Helper()
	ops, err := cs.Parse([]byte(content))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return cs.NewTracer(geom.Identity()).Trace(ops, testResources{"Im0": cs.XObjectImage, "Fm0": cs.XObjectForm})
}

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestTraceGlyphBoxes(t *testing.T) {
	tr := trace(t, "BT /F1 20 Tf 1 0 0 1 50 100 Tm (Hi) Tj ET")
	if len(tr.Glyphs) != 2 {
		t.Fatalf("expected 2 glyphs, got %d", len(tr.Glyphs))
	}
	h, i := tr.Glyphs[0], tr.Glyphs[1]
	if h.Text != "H" || i.Text != "i" {
		t.Fatalf("texts %q %q", h.Text, i.Text)
	}
	if !h.Box.NearEqual(geom.Rect{X0: 50, Y0: 96, X1: 60, Y1: 116}, 1e-9) {
		t.Errorf("H box %+v", h.Box)
	}
	if !near(i.Origin.X, 60) || !near(i.Origin.Y, 100) {
		t.Errorf("i origin %+v", i.Origin)
	}
	if !near(h.Size, 20) || !near(h.Advance, 10) {
		t.Errorf("size %v advance %v", h.Size, h.Advance)
	}
	if tr.Params[3].FontSize != 20 {
		t.Errorf("params not recorded: %+v", tr.Params)
	}
}

func TestTraceSpacingAndKerning(t *testing.T) {
	tr := trace(t, "BT /F1 10 Tf 2 Tw 1 Tc 50 Tz [(a b) 1000 (c)] TJ ET")
	xs := make([]float64, len(tr.Glyphs))
	for k, g := range tr.Glyphs {
		xs[k] = g.Origin.X
	}
	// a: (5+1)*0.5=3, space: (5+1+2)*0.5=4, b: 3, kern -5, c.
	want := []float64{0, 3, 7, 5}
	for k := range want {
		if !near(xs[k], want[k]) {
			t.Fatalf("origins %v, want %v", xs, want)
		}
	}
	if tr.Glyphs[3].Elem != 2 || tr.Glyphs[1].Elem != 0 || tr.Glyphs[1].Start != 1 {
		t.Fatalf("element bookkeeping wrong: %+v", tr.Glyphs[3])
	}
}

func TestTraceLineOperators(t *testing.T) {
	tr := trace(t, "BT /F1 10 Tf 14 TL 0 100 Td (a) ' 3 1 (b) \" 10 -20 TD (c) Tj T* (d) Tj ET")
	want := []geom.Point{{X: 0, Y: 86}, {X: 0, Y: 72}, {X: 10, Y: 52}, {X: 10, Y: 32}}
	for k, w := range want {
		o := tr.Glyphs[k].Origin
		if !near(o.X, w.X) || !near(o.Y, w.Y) {
			t.Fatalf("glyph %d at %+v, want %+v", k, o, w)
		}
	}
	if tr.Params[5].WordSpacing != 3 || tr.Params[5].CharSpacing != 1 {
		t.Fatalf("\" did not set spacing: %+v", tr.Params[5])
	}
}

func TestTraceGraphicsStack(t *testing.T) {
	tr := trace(t, "q 2 0 0 2 0 0 cm BT /F1 10 Tf (a) Tj ET Q Q BT /F1 10 Tf (b) Tj ET")
	if !near(tr.Glyphs[0].Size, 20) {
		t.Errorf("scaled size %v", tr.Glyphs[0].Size)
	}
	if !near(tr.Glyphs[1].Size, 10) {
		t.Errorf("restored size %v", tr.Glyphs[1].Size)
	}
}

func TestTracePlacements(t *testing.T) {
	tr := trace(t, "q 100 0 0 50 10 20 cm /Im0 Do Q /Fm0 Do /Nope Do q 5 0 0 5 1 1 cm BI /W 1 /H 1 ID x EI Q")
	if len(tr.Placements) != 2 {
		t.Fatalf("expected 2 placements, got %+v", tr.Placements)
	}
	im := tr.Placements[0]
	if im.Kind != cs.XObjectImage || !im.Box.NearEqual(geom.Rect{X0: 10, Y0: 20, X1: 110, Y1: 70}, 1e-9) {
		t.Errorf("image placement %+v", im)
	}
	if fm := tr.Placements[1]; fm.Kind != cs.XObjectForm || fm.Matrix != geom.Identity() {
		t.Errorf("form placement %+v", fm)
	}
	if len(tr.Inline) != 1 || !tr.Inline[0].Box.NearEqual(geom.Rect{X0: 1, Y0: 1, X1: 6, Y1: 6}, 1e-9) {
		t.Errorf("inline %+v", tr.Inline)
	}
}
