package editor

import "github.com/wudi/pdfredact/geom"

// QuadTree implements a spatial index for rectangles.
type QuadTree struct {
	Bounds   geom.Rect
	Capacity int
	Depth    int
	Points   []PointData
	Nodes    []*QuadTree
}

type PointData struct {
	Rect  geom.Rect
	Index int
}

const maxQuadDepth = 12

func NewQuadTree(bounds geom.Rect, capacity int) *QuadTree {
	return newQuadTree(bounds.Normalize(), capacity, 0)
}

func newQuadTree(bounds geom.Rect, capacity, depth int) *QuadTree {
	if capacity <= 0 {
		capacity = 16
	}
	return &QuadTree{
		Bounds:   bounds,
		Capacity: capacity,
		Depth:    depth,
		Points:   make([]PointData, 0, capacity),
	}
}

// Insert adds rect. Rectangles outside the tree bounds are rejected.
func (qt *QuadTree) Insert(rect geom.Rect, index int) bool {
	if !touches(qt.Bounds, rect) {
		return false
	}

	if qt.Nodes != nil {
		for _, node := range qt.Nodes {
			if contains(node.Bounds, rect) {
				return node.Insert(rect, index)
			}
		}
		// Straddles children: keep it here.
		qt.Points = append(qt.Points, PointData{Rect: rect, Index: index})
		return true
	}

	if len(qt.Points) < qt.Capacity || qt.Depth >= maxQuadDepth {
		qt.Points = append(qt.Points, PointData{Rect: rect, Index: index})
		return true
	}

	qt.subdivide()
	old := qt.Points
	qt.Points = make([]PointData, 0, qt.Capacity)
	for _, p := range old {
		qt.Insert(p.Rect, p.Index)
	}
	return qt.Insert(rect, index)
}

func (qt *QuadTree) subdivide() {
	b := qt.Bounds
	xMid := (b.X0 + b.X1) / 2
	yMid := (b.Y0 + b.Y1) / 2
	d := qt.Depth + 1

	qt.Nodes = []*QuadTree{
		newQuadTree(geom.Rect{X0: b.X0, Y0: b.Y0, X1: xMid, Y1: yMid}, qt.Capacity, d),
		newQuadTree(geom.Rect{X0: xMid, Y0: b.Y0, X1: b.X1, Y1: yMid}, qt.Capacity, d),
		newQuadTree(geom.Rect{X0: b.X0, Y0: yMid, X1: xMid, Y1: b.Y1}, qt.Capacity, d),
		newQuadTree(geom.Rect{X0: xMid, Y0: yMid, X1: b.X1, Y1: b.Y1}, qt.Capacity, d),
	}
}

// Query returns the indices of rectangles touching rangeRect, in no
// particular order.
func (qt *QuadTree) Query(rangeRect geom.Rect) []int {
	var found []int
	qt.query(rangeRect, &found)
	return found
}

func (qt *QuadTree) query(r geom.Rect, found *[]int) {
	if !touches(qt.Bounds, r) {
		return
	}
	for _, p := range qt.Points {
		if touches(p.Rect, r) {
			*found = append(*found, p.Index)
		}
	}
	for _, node := range qt.Nodes {
		node.query(r, found)
	}
}

func touches(r1, r2 geom.Rect) bool {
	return !(r2.X0 > r1.X1 || r2.X1 < r1.X0 || r2.Y0 > r1.Y1 || r2.Y1 < r1.Y0)
}

func contains(outer, inner geom.Rect) bool {
	return inner.X0 >= outer.X0 && inner.X1 <= outer.X1 &&
		inner.Y0 >= outer.Y0 && inner.Y1 <= outer.Y1
}
