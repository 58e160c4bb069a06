// Package editor removes traced content that falls under redaction shapes.
package editor

import (
	"strings"

	cs "github.com/wudi/pdfredact/contentstream"
	"github.com/wudi/pdfredact/geom"
)

// glyphInset shrinks glyph boxes before hit testing so glyphs that only
// share an edge with a shape survive float noise.
const glyphInset = 0.01

// Editor plans and applies content removal.
type Editor struct{}

func NewEditor() *Editor { return &Editor{} }

// Plan is the removal decided for one content stream. Op indices refer to the
// operations handed to Plan; Ops renders the rewritten stream.
type Plan struct {
	ops     []cs.Operation
	trace   cs.Trace
	byOp    map[int][]int
	removed map[int]bool
	drop    map[int]bool

	// Placements lists the images drawn under a shape. The caller decides
	// whether to rewrite the image or Drop the Do. Forms are not listed
	// since their extent depends on their /BBox.
	Placements    []cs.Placement
	RemovedGlyphs int
	RemovedInline int
	removedText   strings.Builder
}

// GlyphIndex is a spatial index of traced glyph boxes.
type GlyphIndex struct {
	tree *QuadTree
}

func NewGlyphIndex(glyphs []cs.Glyph) *GlyphIndex {
	var bounds geom.Rect
	for i, g := range glyphs {
		if i == 0 {
			bounds = g.Box
			continue
		}
		bounds = bounds.Union(g.Box)
	}
	idx := &GlyphIndex{tree: NewQuadTree(bounds, 32)}
	for i, g := range glyphs {
		idx.tree.Insert(g.Box, i)
	}
	return idx
}

// Hits returns glyphs whose inset box overlaps shape with positive area.
func (idx *GlyphIndex) Hits(glyphs []cs.Glyph, shape geom.Geometry) []int {
	var out []int
	for _, i := range idx.tree.Query(shape.Bounds()) {
		if hitRect(shape, glyphs[i].Box) {
			out = append(out, i)
		}
	}
	return out
}

func hitRect(shape geom.Geometry, box geom.Rect) bool {
	inset := glyphInset
	if m := min(box.Width(), box.Height()) / 4; m < inset {
		inset = m
	}
	box = box.Inset(inset)
	if box.Empty() {
		return false
	}
	return shape.IntersectsRect(box)
}

// Plan decides what to remove from ops given their trace and shapes in the
// same space as the trace.
func (e *Editor) Plan(ops []cs.Operation, tr cs.Trace, shapes []geom.Geometry) *Plan {
	p := &Plan{
		ops:     ops,
		trace:   tr,
		byOp:    make(map[int][]int),
		removed: make(map[int]bool),
		drop:    make(map[int]bool),
	}
	for i, g := range tr.Glyphs {
		p.byOp[g.Op] = append(p.byOp[g.Op], i)
	}
	if len(shapes) == 0 {
		return p
	}

	idx := NewGlyphIndex(tr.Glyphs)
	for _, s := range shapes {
		for _, gi := range idx.Hits(tr.Glyphs, s) {
			if !p.removed[gi] {
				p.removed[gi] = true
				p.RemovedGlyphs++
			}
		}
	}
	for gi := range tr.Glyphs {
		if p.removed[gi] {
			p.removedText.WriteString(tr.Glyphs[gi].Text)
		}
	}

	for _, img := range tr.Inline {
		if hitAny(shapes, img.Box) {
			p.drop[img.Op] = true
			p.RemovedInline++
		}
	}
	for _, pl := range tr.Placements {
		if pl.Kind == cs.XObjectImage && hitAny(shapes, pl.Box) {
			p.Placements = append(p.Placements, pl)
		}
	}
	return p
}

func hitAny(shapes []geom.Geometry, box geom.Rect) bool {
	if box.Empty() {
		return false
	}
	for _, s := range shapes {
		if s.IntersectsRect(box) {
			return true
		}
	}
	return false
}

// Drop removes operation op from the output.
func (p *Plan) Drop(op int) { p.drop[op] = true }

// RemovedText is the text of removed glyphs in content order.
func (p *Plan) RemovedText() string { return p.removedText.String() }

// Changed reports whether Ops differs from the input.
func (p *Plan) Changed() bool { return p.RemovedGlyphs > 0 || len(p.drop) > 0 }

// Ops returns the rewritten operations. Text operations that lost glyphs are
// replaced by TJ with kerning that preserves the position of every glyph
// that stays.
func (p *Plan) Ops() []cs.Operation {
	if !p.Changed() {
		return p.ops
	}
	out := make([]cs.Operation, 0, len(p.ops))
	for i, op := range p.ops {
		if p.drop[i] {
			continue
		}
		if !p.touched(i) {
			out = append(out, op)
			continue
		}
		out = append(out, p.rewrite(i, op)...)
	}
	return out
}

func (p *Plan) touched(op int) bool {
	for _, gi := range p.byOp[op] {
		if p.removed[gi] {
			return true
		}
	}
	return false
}

func (p *Plan) rewrite(i int, op cs.Operation) []cs.Operation {
	params := p.trace.Params[i]
	scale := params.FontSize * params.HScale
	glyphs := p.byOp[i]

	segment := func(elem int, s []byte) []cs.Operand {
		var out []cs.Operand
		var cur []byte
		pending := 0.0
		covered := 0
		flush := func() {
			if len(cur) > 0 {
				out = append(out, cs.StringOperand{Value: cur, Hex: false})
				cur = nil
			}
		}
		for _, gi := range glyphs {
			g := p.trace.Glyphs[gi]
			if g.Elem != elem {
				continue
			}
			covered = g.End
			if p.removed[gi] {
				flush()
				if scale != 0 {
					pending += -g.Advance * 1000 / scale
				}
				continue
			}
			if pending != 0 {
				out = appendNumber(out, pending)
				pending = 0
			}
			cur = append(cur, s[g.Start:g.End]...)
		}
		if covered < len(s) {
			cur = append(cur, s[covered:]...)
		}
		flush()
		if pending != 0 {
			out = appendNumber(out, pending)
		}
		return out
	}

	switch op.Operator {
	case "TJ":
		arr, _ := op.Operands[0].(cs.ArrayOperand)
		var vals []cs.Operand
		for j, el := range arr.Values {
			switch v := el.(type) {
			case cs.StringOperand:
				seg := segment(j, v.Value)
				for _, s := range seg {
					if so, ok := s.(cs.StringOperand); ok {
						so.Hex = v.Hex
						vals = append(vals, so)
						continue
					}
					vals = appendNumber(vals, s.(cs.NumberOperand).Value)
				}
			case cs.NumberOperand:
				vals = appendNumber(vals, v.Value)
			default:
				vals = append(vals, el)
			}
		}
		return []cs.Operation{cs.Op("TJ", cs.ArrayOperand{Values: vals})}
	case "Tj":
		return []cs.Operation{p.showAsTJ(op.Operands[0], segment(0, stringValue(op.Operands[0])))}
	case "'":
		return []cs.Operation{
			cs.Op("T*"),
			p.showAsTJ(op.Operands[0], segment(0, stringValue(op.Operands[0]))),
		}
	case "\"":
		return []cs.Operation{
			cs.Op("Tw", op.Operands[0]),
			cs.Op("Tc", op.Operands[1]),
			cs.Op("T*"),
			p.showAsTJ(op.Operands[2], segment(2, stringValue(op.Operands[2]))),
		}
	}
	return []cs.Operation{op}
}

func (p *Plan) showAsTJ(orig cs.Operand, seg []cs.Operand) cs.Operation {
	hex := false
	if so, ok := orig.(cs.StringOperand); ok {
		hex = so.Hex
	}
	for i, s := range seg {
		if so, ok := s.(cs.StringOperand); ok {
			so.Hex = hex
			seg[i] = so
		}
	}
	return cs.Op("TJ", cs.ArrayOperand{Values: seg})
}

func stringValue(op cs.Operand) []byte {
	s, _ := op.(cs.StringOperand)
	return s.Value
}

func appendNumber(vals []cs.Operand, v float64) []cs.Operand {
	if n := len(vals); n > 0 {
		if last, ok := vals[n-1].(cs.NumberOperand); ok {
			vals[n-1] = cs.NumberOperand{Value: last.Value + v}
			return vals
		}
	}
	return append(vals, cs.NumberOperand{Value: v})
}
