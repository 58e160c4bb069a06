package region

import (
	"fmt"
	"sort"

	"github.com/wudi/pdfredact/geom"
	"github.com/wudi/pdfredact/observability"
	"github.com/wudi/pdfredact/pattern"
)

const (
	DefaultTolerance            = 1.0
	DefaultContainmentThreshold = 1.0
)

// ResolverOptions tunes deduplication and the protection veto.
type ResolverOptions struct {
	// Tolerance is the per-coordinate slack under which two redact regions
	// count as the same, and by which a redact region may stick out of a
	// protect region that still contains it.
	Tolerance float64
	// ContainmentThreshold is the fraction of a redact region's area that a
	// single protect region must cover to veto it. 1 means full containment;
	// lower values also veto mostly-covered regions. Overlap below the
	// threshold leaves the redaction whole.
	ContainmentThreshold float64
	Logger               observability.Logger
}

// Resolver merges pattern matches with manual regions.
type Resolver struct {
	opts ResolverOptions
}

func NewResolver(opts ResolverOptions) *Resolver {
	if opts.Tolerance <= 0 {
		opts.Tolerance = DefaultTolerance
	}
	if opts.ContainmentThreshold <= 0 || opts.ContainmentThreshold > 1 {
		opts.ContainmentThreshold = DefaultContainmentThreshold
	}
	opts.Logger = observability.OrNop(opts.Logger)
	return &Resolver{opts: opts}
}

// Result is the resolved redaction list and what was dropped on the way.
type Result struct {
	Regions      []Region
	Vetoed       int
	Deduplicated int
	Warnings     []error
}

// ByPage groups the resolved regions by page index.
func (r Result) ByPage() map[int][]Region {
	out := make(map[int][]Region)
	for _, reg := range r.Regions {
		out[reg.Page] = append(out[reg.Page], reg)
	}
	return out
}

// SpanRegions converts a span into one redact region per line fragment.
// Ids are derived from the span so resolving is reproducible.
func SpanRegions(page int, s pattern.Span) []Region {
	rects := s.Rects
	if len(rects) == 0 && !s.Rect.IsZero() {
		rects = []geom.Rect{s.Rect}
	}
	out := make([]Region, 0, len(rects))
	for i, rect := range rects {
		out = append(out, Region{
			ID:       fmt.Sprintf("match-%d-%d-%d-%d", page, s.Start, s.End, i),
			Page:     page,
			Geometry: geom.RectGeometry(rect),
			Kind:     Redact,
			Origin:   FromPattern,
		})
	}
	return out
}

// Resolve returns the final redact regions sorted by page, then top, then
// left. Protect regions never appear in the output.
func (rs *Resolver) Resolve(spansByPage map[int][]pattern.Span, manual []Region) Result {
	var res Result
	protects := make(map[int][]Region)
	candidates := make(map[int][]Region)

	add := func(r Region) {
		if r.Geometry.Degenerate() {
			err := &GeometryError{RegionID: r.ID, Page: r.Page, Reason: "zero or negative area"}
			rs.opts.Logger.Warn("degenerate region dropped", observability.String("id", r.ID), observability.Int("page", r.Page))
			res.Warnings = append(res.Warnings, err)
			return
		}
		if r.Kind == Protect {
			protects[r.Page] = append(protects[r.Page], r)
			return
		}
		candidates[r.Page] = append(candidates[r.Page], r)
	}
	for _, r := range manual {
		add(r.Clone())
	}
	pages := make([]int, 0, len(spansByPage))
	for p := range spansByPage {
		pages = append(pages, p)
	}
	sort.Ints(pages)
	for _, p := range pages {
		for _, s := range spansByPage[p] {
			for _, r := range SpanRegions(p, s) {
				add(r)
			}
		}
	}

	pageKeys := make([]int, 0, len(candidates))
	for p := range candidates {
		pageKeys = append(pageKeys, p)
	}
	sort.Ints(pageKeys)
	for _, p := range pageKeys {
		var kept []Region
		for _, c := range candidates[p] {
			if rs.vetoed(c, protects[p]) {
				res.Vetoed++
				continue
			}
			if i := rs.duplicateOf(kept, c); i >= 0 {
				res.Deduplicated++
				if c.Origin == Manual && kept[i].Origin != Manual {
					kept[i] = c
				}
				continue
			}
			kept = append(kept, c)
		}
		res.Regions = append(res.Regions, kept...)
	}
	sortRegions(res.Regions)
	return res
}

func (rs *Resolver) vetoed(c Region, protects []Region) bool {
	for _, p := range protects {
		if p.Geometry.Contains(c.Geometry, rs.opts.Tolerance) {
			return true
		}
		if rs.opts.ContainmentThreshold >= 1 {
			continue
		}
		area := c.Geometry.Area()
		inter, ok := c.Geometry.IntersectionArea(p.Geometry)
		if ok && area > 0 && inter/area >= rs.opts.ContainmentThreshold {
			return true
		}
	}
	return false
}

func (rs *Resolver) duplicateOf(kept []Region, c Region) int {
	for i, k := range kept {
		if k.Geometry.NearEqual(c.Geometry, rs.opts.Tolerance) {
			return i
		}
	}
	return -1
}

func sortRegions(regions []Region) {
	sort.SliceStable(regions, func(i, j int) bool {
		a, b := regions[i], regions[j]
		if a.Page != b.Page {
			return a.Page < b.Page
		}
		ab, bb := a.Geometry.Bounds(), b.Geometry.Bounds()
		if ab.Y0 != bb.Y0 {
			return ab.Y0 < bb.Y0
		}
		if ab.X0 != bb.X0 {
			return ab.X0 < bb.X0
		}
		if ab.X1 != bb.X1 {
			return ab.X1 < bb.X1
		}
		if ab.Y1 != bb.Y1 {
			return ab.Y1 < bb.Y1
		}
		if a.Origin != b.Origin {
			return a.Origin == Manual
		}
		return a.ID < b.ID
	})
}
