package geom

import "math"

// Polygon is a simple closed polygon; the last vertex connects to the first.
type Polygon []Point

func (p Polygon) Bounds() Rect { return Bounds(p...) }

// Area uses the shoelace formula and is independent of winding.
func (p Polygon) Area() float64 {
	if len(p) < 3 {
		return 0
	}
	var sum float64
	for i := range p {
		j := (i + 1) % len(p)
		sum += p[i].X*p[j].Y - p[j].X*p[i].Y
	}
	return math.Abs(sum) / 2
}

// ContainsPoint reports whether pt is inside p or on its boundary.
func (p Polygon) ContainsPoint(pt Point) bool {
	if len(p) < 3 {
		return false
	}
	inside := false
	for i, j := 0, len(p)-1; i < len(p); j, i = i, i+1 {
		a, b := p[i], p[j]
		if onSegment(a, b, pt, 1e-9) {
			return true
		}
		if (a.Y > pt.Y) != (b.Y > pt.Y) {
			x := (b.X-a.X)*(pt.Y-a.Y)/(b.Y-a.Y) + a.X
			if pt.X < x {
				inside = !inside
			}
		}
	}
	return inside
}

// Near reports whether pt is inside p or within tol of its boundary.
func (p Polygon) Near(pt Point, tol float64) bool {
	if p.ContainsPoint(pt) {
		return true
	}
	for i := range p {
		if onSegment(p[i], p[(i+1)%len(p)], pt, tol) {
			return true
		}
	}
	return false
}

func (p Polygon) Perimeter() float64 {
	var sum float64
	for i := range p {
		j := (i + 1) % len(p)
		sum += math.Hypot(p[j].X-p[i].X, p[j].Y-p[i].Y)
	}
	return sum
}

// Convex reports whether every turn has the same orientation.
func (p Polygon) Convex() bool {
	if len(p) < 3 {
		return false
	}
	sign := 0
	for i := range p {
		c := cross(p[i], p[(i+1)%len(p)], p[(i+2)%len(p)])
		switch {
		case c > 1e-12:
			if sign < 0 {
				return false
			}
			sign = 1
		case c < -1e-12:
			if sign > 0 {
				return false
			}
			sign = -1
		}
	}
	return sign != 0
}

func (p Polygon) Translate(dx, dy float64) Polygon {
	out := make(Polygon, len(p))
	for i, pt := range p {
		out[i] = Point{pt.X + dx, pt.Y + dy}
	}
	return out
}

func (p Polygon) Clone() Polygon {
	if p == nil {
		return nil
	}
	return append(Polygon(nil), p...)
}

// Clip returns p clipped to r (Sutherland-Hodgman).
func (p Polygon) Clip(r Rect) Polygon {
	return p.ClipConvex(r.Polygon())
}

// ClipConvex clips p against the convex polygon c. p may be concave.
func (p Polygon) ClipConvex(c Polygon) Polygon {
	if len(p) < 3 || len(c) < 3 {
		return nil
	}
	orient := 1.0
	if signedArea(c) < 0 {
		orient = -1
	}
	out := p.Clone()
	for i := range c {
		a, b := c[i], c[(i+1)%len(c)]
		in := out
		out = nil
		if len(in) == 0 {
			break
		}
		inside := func(pt Point) bool { return orient*cross(a, b, pt) >= 0 }
		prev := in[len(in)-1]
		for _, cur := range in {
			switch {
			case inside(cur):
				if !inside(prev) {
					out = append(out, lineIntersection(prev, cur, a, b))
				}
				out = append(out, cur)
			case inside(prev):
				out = append(out, lineIntersection(prev, cur, a, b))
			}
			prev = cur
		}
	}
	return out
}

// IntersectsRect reports whether p and r overlap, including touching.
func (p Polygon) IntersectsRect(r Rect) bool {
	if len(p) < 3 || !p.Bounds().Touches(r) {
		return false
	}
	for _, pt := range p {
		if r.ContainsPoint(pt) {
			return true
		}
	}
	corners := r.Corners()
	for _, c := range corners {
		if p.ContainsPoint(c) {
			return true
		}
	}
	for i := range p {
		a, b := p[i], p[(i+1)%len(p)]
		for k := range corners {
			if segmentsIntersect(a, b, corners[k], corners[(k+1)%4]) {
				return true
			}
		}
	}
	return false
}

// ContainsPolygon reports whether every vertex of q is inside p and no edges
// cross, which is exact for simple polygons.
func (p Polygon) ContainsPolygon(q Polygon) bool {
	if len(p) < 3 || len(q) == 0 {
		return false
	}
	for _, pt := range q {
		if !p.ContainsPoint(pt) {
			return false
		}
	}
	for i := range q {
		a, b := q[i], q[(i+1)%len(q)]
		for k := range p {
			c, d := p[k], p[(k+1)%len(p)]
			if properIntersect(a, b, c, d) {
				return false
			}
		}
	}
	return true
}

func signedArea(p Polygon) float64 {
	var sum float64
	for i := range p {
		j := (i + 1) % len(p)
		sum += p[i].X*p[j].Y - p[j].X*p[i].Y
	}
	return sum / 2
}

func cross(a, b, c Point) float64 {
	return (b.X-a.X)*(c.Y-a.Y) - (b.Y-a.Y)*(c.X-a.X)
}

func onSegment(a, b, p Point, eps float64) bool {
	if math.Abs(cross(a, b, p)) > eps*math.Max(1, math.Hypot(b.X-a.X, b.Y-a.Y)) {
		return false
	}
	return p.X >= math.Min(a.X, b.X)-eps && p.X <= math.Max(a.X, b.X)+eps &&
		p.Y >= math.Min(a.Y, b.Y)-eps && p.Y <= math.Max(a.Y, b.Y)+eps
}

func segmentsIntersect(a, b, c, d Point) bool {
	d1 := cross(c, d, a)
	d2 := cross(c, d, b)
	d3 := cross(a, b, c)
	d4 := cross(a, b, d)
	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) && ((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}
	const eps = 1e-9
	return onSegment(c, d, a, eps) || onSegment(c, d, b, eps) || onSegment(a, b, c, eps) || onSegment(a, b, d, eps)
}

// properIntersect ignores touching endpoints and collinear overlap.
func properIntersect(a, b, c, d Point) bool {
	const eps = 1e-9
	d1 := cross(c, d, a)
	d2 := cross(c, d, b)
	d3 := cross(a, b, c)
	d4 := cross(a, b, d)
	return ((d1 > eps && d2 < -eps) || (d1 < -eps && d2 > eps)) && ((d3 > eps && d4 < -eps) || (d3 < -eps && d4 > eps))
}

func lineIntersection(p1, p2, a, b Point) Point {
	dx1, dy1 := p2.X-p1.X, p2.Y-p1.Y
	dx2, dy2 := b.X-a.X, b.Y-a.Y
	den := dx1*dy2 - dy1*dx2
	if den == 0 {
		return p2
	}
	t := ((a.X-p1.X)*dy2 - (a.Y-p1.Y)*dx2) / den
	return Point{p1.X + t*dx1, p1.Y + t*dy1}
}
