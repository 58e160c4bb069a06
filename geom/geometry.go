package geom

// Geometry is either a rectangle or a polygon. When Polygon is set, Rect
// holds its bounds.
type Geometry struct {
	Rect    Rect
	Polygon Polygon
}

func RectGeometry(r Rect) Geometry { return Geometry{Rect: r.Normalize()} }

func PolygonGeometry(p Polygon) Geometry {
	p = p.Clone()
	return Geometry{Rect: p.Bounds(), Polygon: p}
}

func (g Geometry) IsPolygon() bool { return len(g.Polygon) > 0 }

func (g Geometry) Bounds() Rect {
	if g.IsPolygon() {
		return g.Polygon.Bounds()
	}
	return g.Rect
}

func (g Geometry) Area() float64 {
	if g.IsPolygon() {
		return g.Polygon.Area()
	}
	return g.Rect.Area()
}

// Degenerate reports a geometry with no positive area.
func (g Geometry) Degenerate() bool {
	if g.IsPolygon() && len(g.Polygon) < 3 {
		return true
	}
	return g.Area() <= 0
}

func (g Geometry) Clone() Geometry {
	return Geometry{Rect: g.Rect, Polygon: g.Polygon.Clone()}
}

func (g Geometry) Translate(dx, dy float64) Geometry {
	if g.IsPolygon() {
		return PolygonGeometry(g.Polygon.Translate(dx, dy))
	}
	return Geometry{Rect: g.Rect.Translate(dx, dy)}
}

// Transform maps g through m. Rectangles stay rectangles under axis-aligned
// transforms and become polygons otherwise.
func (g Geometry) Transform(m Matrix) Geometry {
	if g.IsPolygon() {
		return PolygonGeometry(m.TransformPolygon(g.Polygon))
	}
	if m.AxisAligned() {
		return Geometry{Rect: m.TransformRect(g.Rect)}
	}
	return PolygonGeometry(m.TransformPolygon(g.Rect.Polygon()))
}

// Vertices lists the outline of g.
func (g Geometry) Vertices() Polygon {
	if g.IsPolygon() {
		return g.Polygon
	}
	return g.Rect.Polygon()
}

// IntersectsRect reports whether g overlaps r with positive area for
// rectangles, or touches it for polygons.
func (g Geometry) IntersectsRect(r Rect) bool {
	if g.IsPolygon() {
		return g.Polygon.IntersectsRect(r)
	}
	return g.Rect.Intersects(r)
}

// Contains reports whether o lies inside g, allowing o to stick out of g by
// up to tol.
func (g Geometry) Contains(o Geometry, tol float64) bool {
	if !g.IsPolygon() {
		return g.Rect.Contains(o.Bounds(), tol)
	}
	if !g.Bounds().Contains(o.Bounds(), tol) {
		return false
	}
	if g.Polygon.ContainsPolygon(o.Vertices()) {
		return true
	}
	if tol <= 0 {
		return false
	}
	// Within tol: every vertex of o is at most tol outside g, and the area of
	// o left uncovered fits in a tol wide band along its outline.
	for _, v := range o.Vertices() {
		if !g.Polygon.Near(v, tol) {
			return false
		}
	}
	inter, ok := o.IntersectionArea(g)
	return ok && o.Area()-inter <= tol*o.Vertices().Perimeter()
}

// IntersectionArea returns the overlapping area of g and o. ok is false when
// both are concave polygons, which this package does not clip.
func (g Geometry) IntersectionArea(o Geometry) (area float64, ok bool) {
	switch {
	case !g.IsPolygon() && !o.IsPolygon():
		return g.Rect.Intersect(o.Rect).Area(), true
	case !g.IsPolygon():
		return o.Polygon.Clip(g.Rect).Area(), true
	case !o.IsPolygon():
		return g.Polygon.Clip(o.Rect).Area(), true
	case o.Polygon.Convex():
		return g.Polygon.ClipConvex(o.Polygon).Area(), true
	case g.Polygon.Convex():
		return o.Polygon.ClipConvex(g.Polygon).Area(), true
	}
	return 0, false
}

// NearEqual reports two geometries of the same kind whose vertices differ by
// at most tol in each coordinate.
func (g Geometry) NearEqual(o Geometry, tol float64) bool {
	if g.IsPolygon() != o.IsPolygon() {
		return false
	}
	if !g.IsPolygon() {
		return g.Rect.NearEqual(o.Rect, tol)
	}
	if len(g.Polygon) != len(o.Polygon) {
		return false
	}
	for i := range g.Polygon {
		if !(Rect{g.Polygon[i].X, g.Polygon[i].Y, 0, 0}).NearEqual(Rect{o.Polygon[i].X, o.Polygon[i].Y, 0, 0}, tol) {
			return false
		}
	}
	return true
}
