package geom_test

import (
	"math"
	"testing"

	"github.com/wudi/pdfredact/geom"
)

func TestRectIntersectsIgnoresSharedEdges(t *testing.T) {
	a := geom.R(0, 0, 10, 10)
	b := geom.R(10, 0, 20, 10)
	if a.Intersects(b) {
		t.Fatalf("rectangles sharing an edge should not intersect")
	}
	if !a.Touches(b) {
		t.Fatalf("rectangles sharing an edge should touch")
	}
	if !a.Intersects(geom.R(9, 9, 11, 11)) {
		t.Fatalf("expected overlap")
	}
}

func TestRectUnionSkipsZero(t *testing.T) {
	var acc geom.Rect
	acc = acc.Union(geom.R(5, 5, 6, 6))
	acc = acc.Union(geom.R(1, 2, 3, 4))
	want := geom.Rect{X0: 1, Y0: 2, X1: 6, Y1: 6}
	if acc != want {
		t.Fatalf("union = %+v, want %+v", acc, want)
	}
}

func TestRectNormalizeAndArea(t *testing.T) {
	r := geom.R(10, 30, 0, 10)
	if r != (geom.Rect{X0: 0, Y0: 10, X1: 10, Y1: 30}) {
		t.Fatalf("unexpected normalize: %+v", r)
	}
	if r.Area() != 200 {
		t.Fatalf("area = %v", r.Area())
	}
	if (geom.Rect{X0: 5, Y0: 5, X1: 5, Y1: 10}).Area() != 0 {
		t.Fatalf("zero-width rect should have zero area")
	}
}

func TestMatrixInverseRoundTrip(t *testing.T) {
	m := geom.Matrix{2, 0, 0, 3, 10, 20}
	inv, err := m.Inverse()
	if err != nil {
		t.Fatalf("inverse: %v", err)
	}
	p := m.Transform(geom.Point{X: 4, Y: 5})
	back := inv.Transform(p)
	if math.Abs(back.X-4) > 1e-9 || math.Abs(back.Y-5) > 1e-9 {
		t.Fatalf("round trip = %+v", back)
	}
	if _, err := (geom.Matrix{}).Inverse(); err == nil {
		t.Fatalf("expected singular matrix error")
	}
}

func TestMatrixMultiplyOrder(t *testing.T) {
	// translate then scale
	m := geom.Translate(1, 0).Multiply(geom.Scale(2, 2))
	p := m.Transform(geom.Point{X: 1, Y: 1})
	if p.X != 4 || p.Y != 2 {
		t.Fatalf("got %+v", p)
	}
}

func TestPolygonContainsAndArea(t *testing.T) {
	tri := geom.Polygon{{0, 0}, {10, 0}, {0, 10}}
	if tri.Area() != 50 {
		t.Fatalf("area = %v", tri.Area())
	}
	if !tri.ContainsPoint(geom.Point{X: 2, Y: 2}) {
		t.Fatalf("expected point inside")
	}
	if tri.ContainsPoint(geom.Point{X: 8, Y: 8}) {
		t.Fatalf("expected point outside")
	}
	if !tri.Convex() {
		t.Fatalf("triangle is convex")
	}
}

func TestPolygonClipRect(t *testing.T) {
	square := geom.R(0, 0, 10, 10).Polygon()
	clipped := square.Clip(geom.R(5, 5, 20, 20))
	if got := clipped.Area(); math.Abs(got-25) > 1e-9 {
		t.Fatalf("clipped area = %v, want 25", got)
	}
}

func TestGeometryContains(t *testing.T) {
	protect := geom.RectGeometry(geom.R(0, 0, 100, 100))
	inner := geom.RectGeometry(geom.R(10, 10, 50, 30))
	if !protect.Contains(inner, 0) {
		t.Fatalf("expected containment")
	}
	if protect.Contains(geom.RectGeometry(geom.R(90, 90, 110, 110)), 0) {
		t.Fatalf("partial overlap is not containment")
	}

	// L-shaped polygon: the notch is outside
	ell := geom.PolygonGeometry(geom.Polygon{{0, 0}, {100, 0}, {100, 40}, {40, 40}, {40, 100}, {0, 100}})
	if !ell.Contains(geom.RectGeometry(geom.R(5, 5, 30, 30)), 0) {
		t.Fatalf("rect in L body should be contained")
	}
	if ell.Contains(geom.RectGeometry(geom.R(50, 50, 60, 60)), 0) {
		t.Fatalf("rect in the notch must not be contained")
	}
	if area, ok := ell.IntersectionArea(geom.RectGeometry(geom.R(30, 30, 50, 50))); !ok || math.Abs(area-300) > 1e-6 {
		t.Fatalf("intersection area = %v ok=%v, want 300", area, ok)
	}
}

func TestGeometryContainsTolerance(t *testing.T) {
	tri := geom.PolygonGeometry(geom.Polygon{{0, 0}, {100, 0}, {0, 100}})
	poking := geom.RectGeometry(geom.R(10, 10, 50.5, 50))
	if tri.Contains(poking, 0) {
		t.Fatalf("corner outside the triangle without slack")
	}
	if !tri.Contains(poking, 1) {
		t.Fatalf("corner 0.35pt outside should pass with 1pt slack")
	}
	if tri.Contains(geom.RectGeometry(geom.R(10, 10, 60, 60)), 1) {
		t.Fatalf("corner 14pt outside must not pass")
	}
	if !geom.RectGeometry(geom.R(0, 0, 100, 100)).Contains(geom.RectGeometry(geom.R(-0.5, 0, 50, 50)), 1) {
		t.Fatalf("rect slack")
	}
}

func TestGeometryTransformRotates(t *testing.T) {
	g := geom.RectGeometry(geom.R(0, 0, 10, 5))
	if got := g.Transform(geom.Matrix{1, 0, 0, -1, 0, 100}); got.IsPolygon() || got.Rect != (geom.Rect{X0: 0, Y0: 95, X1: 10, Y1: 100}) {
		t.Fatalf("flip = %+v", got)
	}
	rot := g.Transform(geom.Matrix{0.8, 0.6, -0.6, 0.8, 0, 0})
	if !rot.IsPolygon() {
		t.Fatalf("rotation should yield polygon")
	}
	if math.Abs(rot.Area()-50) > 1e-9 {
		t.Fatalf("rotation area = %v", rot.Area())
	}
}

func TestDegenerate(t *testing.T) {
	if !geom.RectGeometry(geom.R(1, 1, 1, 5)).Degenerate() {
		t.Fatalf("zero-width rect is degenerate")
	}
	if !geom.PolygonGeometry(geom.Polygon{{0, 0}, {1, 1}}).Degenerate() {
		t.Fatalf("two-point polygon is degenerate")
	}
	if geom.RectGeometry(geom.R(0, 0, 1, 1)).Degenerate() {
		t.Fatalf("unit square is not degenerate")
	}
}
