// Package geom holds the planar primitives shared by matching, resolving and
// applying redactions.
//
// Page space has its origin at the top-left corner of the page MediaBox with
// y growing downward, measured in PDF points. The same Rect type is reused in
// PDF user space (y up) by the content stream code; callers convert through
// the document package.
package geom

import "math"

// Point is a position in the plane.
type Point struct{ X, Y float64 }

// Rect is an axis-aligned rectangle with X0 <= X1 and Y0 <= Y1 once normalized.
type Rect struct{ X0, Y0, X1, Y1 float64 }

// R returns the normalized rectangle spanning both corners.
func R(x0, y0, x1, y1 float64) Rect { return Rect{x0, y0, x1, y1}.Normalize() }

func (r Rect) Normalize() Rect {
	if r.X0 > r.X1 {
		r.X0, r.X1 = r.X1, r.X0
	}
	if r.Y0 > r.Y1 {
		r.Y0, r.Y1 = r.Y1, r.Y0
	}
	return r
}

func (r Rect) Width() float64  { return r.X1 - r.X0 }
func (r Rect) Height() float64 { return r.Y1 - r.Y0 }

// Area is zero for empty or inverted rectangles.
func (r Rect) Area() float64 {
	if r.Empty() {
		return 0
	}
	return r.Width() * r.Height()
}

// Empty reports whether r has no positive area.
func (r Rect) Empty() bool { return r.X1 <= r.X0 || r.Y1 <= r.Y0 }

// IsZero reports whether r is the zero value.
func (r Rect) IsZero() bool { return r == Rect{} }

func (r Rect) Center() Point { return Point{(r.X0 + r.X1) / 2, (r.Y0 + r.Y1) / 2} }

// Intersect returns the overlap of r and o, which may be empty.
func (r Rect) Intersect(o Rect) Rect {
	return Rect{
		X0: math.Max(r.X0, o.X0),
		Y0: math.Max(r.Y0, o.Y0),
		X1: math.Min(r.X1, o.X1),
		Y1: math.Min(r.Y1, o.Y1),
	}
}

// Intersects reports a positive-area overlap. Rectangles sharing only an
// edge do not intersect.
func (r Rect) Intersects(o Rect) bool { return !r.Intersect(o).Empty() }

// Touches reports overlap including shared edges.
func (r Rect) Touches(o Rect) bool {
	return !(o.X0 > r.X1 || o.X1 < r.X0 || o.Y0 > r.Y1 || o.Y1 < r.Y0)
}

// Union returns the bounds of both rectangles. A zero rectangle is ignored.
func (r Rect) Union(o Rect) Rect {
	if r.IsZero() {
		return o
	}
	if o.IsZero() {
		return r
	}
	return Rect{
		X0: math.Min(r.X0, o.X0),
		Y0: math.Min(r.Y0, o.Y0),
		X1: math.Max(r.X1, o.X1),
		Y1: math.Max(r.Y1, o.Y1),
	}
}

// Contains reports whether o lies inside r grown by tol on every side.
func (r Rect) Contains(o Rect, tol float64) bool {
	return o.X0 >= r.X0-tol && o.Y0 >= r.Y0-tol && o.X1 <= r.X1+tol && o.Y1 <= r.Y1+tol
}

func (r Rect) ContainsPoint(p Point) bool {
	return p.X >= r.X0 && p.X <= r.X1 && p.Y >= r.Y0 && p.Y <= r.Y1
}

// Inset shrinks r by d on every side; a negative d grows it.
func (r Rect) Inset(d float64) Rect { return Rect{r.X0 + d, r.Y0 + d, r.X1 - d, r.Y1 - d} }

func (r Rect) Translate(dx, dy float64) Rect {
	return Rect{r.X0 + dx, r.Y0 + dy, r.X1 + dx, r.Y1 + dy}
}

// NearEqual reports whether every coordinate differs by at most tol.
func (r Rect) NearEqual(o Rect, tol float64) bool {
	return math.Abs(r.X0-o.X0) <= tol && math.Abs(r.Y0-o.Y0) <= tol &&
		math.Abs(r.X1-o.X1) <= tol && math.Abs(r.Y1-o.Y1) <= tol
}

// Corners lists the corners clockwise starting at X0,Y0.
func (r Rect) Corners() [4]Point {
	return [4]Point{{r.X0, r.Y0}, {r.X1, r.Y0}, {r.X1, r.Y1}, {r.X0, r.Y1}}
}

func (r Rect) Polygon() Polygon {
	c := r.Corners()
	return Polygon{c[0], c[1], c[2], c[3]}
}

// Bounds returns the smallest rectangle containing all points.
func Bounds(points ...Point) Rect {
	if len(points) == 0 {
		return Rect{}
	}
	minX, minY := math.MaxFloat64, math.MaxFloat64
	maxX, maxY := -math.MaxFloat64, -math.MaxFloat64
	for _, p := range points {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}
	return Rect{minX, minY, maxX, maxY}
}
