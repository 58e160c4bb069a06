// Package region holds redaction and protection regions, the mutations that
// change a region set, and the resolver that turns matches and manual
// regions into the final redaction list.
package region

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/wudi/pdfredact/geom"
)

// Kind distinguishes areas to destroy from areas to keep.
type Kind int

const (
	Redact Kind = iota
	Protect
)

func (k Kind) String() string {
	if k == Protect {
		return "protect"
	}
	return "redact"
}

func ParseKind(s string) (Kind, error) {
	switch s {
	case "redact", "":
		return Redact, nil
	case "protect":
		return Protect, nil
	}
	return Redact, fmt.Errorf("region: unknown kind %q", s)
}

// Origin records whether a region was drawn by a user or derived from a
// pattern match.
type Origin int

const (
	Manual Origin = iota
	FromPattern
)

func (o Origin) String() string {
	if o == FromPattern {
		return "pattern"
	}
	return "manual"
}

// Region is an area of one page. Geometry is in page space.
type Region struct {
	ID        string
	Page      int
	Geometry  geom.Geometry
	Kind      Kind
	Origin    Origin
	CreatedAt time.Time
}

// Clone returns a deep copy.
func (r Region) Clone() Region {
	r.Geometry = r.Geometry.Clone()
	return r
}

// Equal compares two regions by value.
func (r Region) Equal(o Region) bool {
	if r.ID != o.ID || r.Page != o.Page || r.Kind != o.Kind || r.Origin != o.Origin || !r.CreatedAt.Equal(o.CreatedAt) {
		return false
	}
	return r.Geometry.NearEqual(o.Geometry, 0)
}

type regionJSON struct {
	ID        string       `json:"id"`
	Page      int          `json:"page"`
	Kind      string       `json:"kind"`
	Origin    string       `json:"origin,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
	Rect      *[4]float64  `json:"rect,omitempty"`
	Polygon   [][2]float64 `json:"polygon,omitempty"`
}

func (r Region) MarshalJSON() ([]byte, error) {
	out := regionJSON{
		ID:        r.ID,
		Page:      r.Page,
		Kind:      r.Kind.String(),
		Origin:    r.Origin.String(),
		CreatedAt: r.CreatedAt,
	}
	if r.Geometry.IsPolygon() {
		for _, p := range r.Geometry.Polygon {
			out.Polygon = append(out.Polygon, [2]float64{p.X, p.Y})
		}
	} else {
		g := r.Geometry.Rect
		out.Rect = &[4]float64{g.X0, g.Y0, g.X1, g.Y1}
	}
	return json.Marshal(out)
}

func (r *Region) UnmarshalJSON(data []byte) error {
	var in regionJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	kind, err := ParseKind(in.Kind)
	if err != nil {
		return err
	}
	*r = Region{ID: in.ID, Page: in.Page, Kind: kind, CreatedAt: in.CreatedAt}
	if in.Origin == "pattern" {
		r.Origin = FromPattern
	}
	switch {
	case len(in.Polygon) > 0:
		poly := make(geom.Polygon, len(in.Polygon))
		for i, p := range in.Polygon {
			poly[i] = geom.Point{X: p[0], Y: p[1]}
		}
		r.Geometry = geom.PolygonGeometry(poly)
	case in.Rect != nil:
		r.Geometry = geom.RectGeometry(geom.Rect{X0: in.Rect[0], Y0: in.Rect[1], X1: in.Rect[2], Y1: in.Rect[3]})
	default:
		return fmt.Errorf("region %q: missing rect or polygon", in.ID)
	}
	return nil
}
