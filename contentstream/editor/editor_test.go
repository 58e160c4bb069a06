package editor_test

import (
	"math"
	"testing"

	cs "github.com/wudi/pdfredact/contentstream"
	"github.com/wudi/pdfredact/contentstream/editor"
	"github.com/wudi/pdfredact/geom"
)

// monoFont maps each byte to one glyph 600 units wide.
type monoFont struct{}

func (monoFont) Decode(s []byte) []cs.Char {
	out := make([]cs.Char, len(s))
	for i, b := range s {
		out[i] = cs.Char{Code: []byte{b}, Width: 600, Text: string(rune(b)), Space: b == ' '}
	}
	return out
}

func (monoFont) Extent() (float64, float64) { return -200, 800 }

type resources struct{}

func (resources) Font(string) cs.Font { return monoFont{} }

func (resources) XObject(name string) cs.XObjectKind {
	if name == "Im1" {
		return cs.XObjectImage
	}
	return cs.XObjectUnknown
}

func plan(t *testing.T, content string, shapes ...geom.Geometry) *editor.Plan {
	t.Helper()
	ops, err := cs.Parse([]byte(content))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	tr := cs.NewTracer(geom.Identity()).Trace(ops, resources{})
	return editor.NewEditor().Plan(ops, tr, shapes)
}

func origins(t *testing.T, ops []cs.Operation) map[string]float64 {
	t.Helper()
	tr := cs.NewTracer(geom.Identity()).Trace(ops, resources{})
	out := make(map[string]float64)
	for _, g := range tr.Glyphs {
		out[g.Text] = g.Origin.X
	}
	return out
}

func TestPlanRemovesCoveredGlyphs(t *testing.T) {
	const content = "BT /F1 10 Tf 100 700 Td (ABCDE) Tj ET"
	// C spans x 112..118.
	p := plan(t, content, geom.RectGeometry(geom.R(113, 695, 117, 715)))

	if p.RemovedGlyphs != 1 {
		t.Fatalf("expected 1 removed glyph, got %d", p.RemovedGlyphs)
	}
	if got := p.RemovedText(); got != "C" {
		t.Fatalf("removed text = %q", got)
	}
	got := string(cs.Serialize(p.Ops()))
	want := "BT\n/F1 10 Tf\n100 700 Td\n[(AB) -600 (DE)] TJ\nET\n"
	if got != want {
		t.Fatalf("unexpected output:\n%s", got)
	}

	pos := origins(t, p.Ops())
	if _, ok := pos["C"]; ok {
		t.Fatalf("C still drawn")
	}
	if math.Abs(pos["D"]-118) > 1e-9 || math.Abs(pos["E"]-124) > 1e-9 {
		t.Fatalf("kept glyphs moved: %v", pos)
	}
}

func TestPlanEdgeContactKeepsGlyph(t *testing.T) {
	// Shape ends exactly where B begins.
	p := plan(t, "BT /F1 10 Tf 100 700 Td (AB) Tj ET", geom.RectGeometry(geom.R(90, 690, 106, 720)))
	if p.RemovedText() != "A" {
		t.Fatalf("removed %q", p.RemovedText())
	}
}

func TestPlanMergesKerning(t *testing.T) {
	p := plan(t, "BT /F1 10 Tf 0 0 Td [(AB) -100 (CD)] TJ ET", geom.RectGeometry(geom.R(7, -5, 11, 5)))
	ops := p.Ops()
	if got := ops[3].String(); got != "[(A) -700 (CD)] TJ" {
		t.Fatalf("got %s", got)
	}
	pos := origins(t, ops)
	if math.Abs(pos["C"]-13) > 1e-9 {
		t.Fatalf("C moved to %v", pos["C"])
	}
}

func TestPlanTrailingGlyph(t *testing.T) {
	p := plan(t, "BT /F1 10 Tf (ABC) Tj ET", geom.RectGeometry(geom.R(13, -5, 17, 5)))
	if got := p.Ops()[2].String(); got != "[(AB) -600] TJ" {
		t.Fatalf("got %s", got)
	}
}

func TestPlanQuoteOperators(t *testing.T) {
	p := plan(t, "BT /F1 10 Tf 12 TL 0 100 Td (AB) ' ET", geom.RectGeometry(geom.R(1, 85, 5, 95)))
	ops := p.Ops()
	if ops[4].Operator != "T*" || ops[5].String() != "[-600 (B)] TJ" {
		t.Fatalf("unexpected ops %v %v", ops[4], ops[5])
	}
	pos := origins(t, ops)
	if math.Abs(pos["B"]-6) > 1e-9 {
		t.Fatalf("B moved to %v", pos["B"])
	}

	p = plan(t, "BT /F1 10 Tf 12 TL 0 100 Td 1 2 (AB) \" ET", geom.RectGeometry(geom.R(1, 85, 5, 95)))
	ops = p.Ops()
	var names []string
	for _, op := range ops[4:8] {
		names = append(names, op.Operator)
	}
	if names[0] != "Tw" || names[1] != "Tc" || names[2] != "T*" || names[3] != "TJ" {
		t.Fatalf("unexpected rewrite %v", names)
	}
}

func TestPlanKeepsHexForm(t *testing.T) {
	p := plan(t, "BT /F1 10 Tf <414243> Tj ET", geom.RectGeometry(geom.R(7, -5, 11, 5)))
	if got := p.Ops()[2].String(); got != "[<41> -600 <43>] TJ" {
		t.Fatalf("got %s", got)
	}
}

func TestPlanNoShapes(t *testing.T) {
	p := plan(t, "BT /F1 10 Tf (ABC) Tj ET")
	if p.Changed() {
		t.Fatalf("plan without shapes changed content")
	}
	if len(p.Ops()) != 4 {
		t.Fatalf("expected ops unchanged")
	}
}

func TestPlanImages(t *testing.T) {
	const content = "q 50 0 0 50 100 100 cm /Im1 Do Q q 10 0 0 10 0 0 cm BI /W 1 /H 1 /BPC 8 /CS /G ID \xff EI Q"
	p := plan(t, content, geom.RectGeometry(geom.R(0, 0, 20, 20)))
	if p.RemovedInline != 1 {
		t.Fatalf("inline image not removed")
	}
	if len(p.Placements) != 0 {
		t.Fatalf("image outside shape reported: %+v", p.Placements)
	}
	for _, op := range p.Ops() {
		if op.Operator == "BI" {
			t.Fatalf("BI still present")
		}
	}

	p = plan(t, content, geom.RectGeometry(geom.R(120, 120, 130, 130)))
	if len(p.Placements) != 1 || p.Placements[0].Name != "Im1" {
		t.Fatalf("expected Im1 placement, got %+v", p.Placements)
	}
	if p.Changed() {
		t.Fatalf("placement alone should not change content")
	}
	p.Drop(p.Placements[0].Op)
	for _, op := range p.Ops() {
		if op.Operator == "Do" {
			t.Fatalf("dropped Do still present")
		}
	}
}

func TestPlanPolygonShape(t *testing.T) {
	// Triangle covering the lower left of A only.
	tri := geom.PolygonGeometry(geom.Polygon{{X: 0, Y: -2}, {X: 3, Y: -2}, {X: 0, Y: 5}})
	p := plan(t, "BT /F1 10 Tf (AB) Tj ET", tri)
	if p.RemovedText() != "A" {
		t.Fatalf("removed %q", p.RemovedText())
	}
}
