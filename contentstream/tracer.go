package contentstream

import (
	"math"

	"github.com/wudi/pdfredact/geom"
)

// Char is one character code of a shown string.
type Char struct {
	Code []byte
	// Width is the horizontal displacement in thousandths of a text space
	// unit.
	Width float64
	Text  string
	// Space marks the single-byte code 32, the only code word spacing
	// applies to.
	Space bool
}

// Font supplies what the tracer needs to lay out shown strings.
type Font interface {
	Decode(s []byte) []Char
	// Extent returns descent and ascent in thousandths of a text space unit.
	Extent() (descent, ascent float64)
}

type XObjectKind int

const (
	XObjectUnknown XObjectKind = iota
	XObjectImage
	XObjectForm
)

// Resources resolves names used by a content stream.
type Resources interface {
	Font(name string) Font
	XObject(name string) XObjectKind
}

// Glyph is one shown character code located in user space.
type Glyph struct {
	Op int
	// Elem is the index of the string inside the TJ array, or the operand
	// index of the string for Tj, ' and ".
	Elem int
	// Start and End delimit the code inside the string operand.
	Start, End int
	Text       string
	Quad       geom.Polygon
	Box        geom.Rect
	Origin     geom.Point
	// Advance is the displacement applied to the text matrix, in
	// unscaled text space units.
	Advance float64
	// Size is the font size scaled into user space.
	Size   float64
	Space  bool
	Render TextRenderMode
}

// Placement is an XObject drawn with Do. Matrix maps the unit square (for
// images) or form space (for forms, before the form's own /Matrix) to user
// space.
type Placement struct {
	Op     int
	Name   string
	Kind   XObjectKind
	Matrix geom.Matrix
	Box    geom.Rect
}

// InlineImage is a BI/ID/EI image located in user space.
type InlineImage struct {
	Op     int
	Matrix geom.Matrix
	Box    geom.Rect
}

// Trace is what a content stream draws, keyed back to operation indices.
type Trace struct {
	Glyphs     []Glyph
	Placements []Placement
	Inline     []InlineImage
	// Params holds the text state in effect at each text showing operation.
	Params map[int]TextParams
}

// Tracer executes operations virtually to locate what they draw.
type Tracer struct {
	ctm geom.Matrix
}

// NewTracer returns a tracer starting from ctm; pass geom.Identity() for a
// page.
func NewTracer(ctm geom.Matrix) *Tracer {
	return &Tracer{ctm: ctm}
}

// Trace walks ops. Unknown operators are skipped; unbalanced Q and missing
// fonts never fail the trace.
func (t *Tracer) Trace(ops []Operation, res Resources) Trace {
	out := Trace{Params: make(map[int]TextParams)}
	gs := newGraphicsState(t.ctm)
	ts := &TextState{}
	ts.reset()

	for i, op := range ops {
		args := op.Operands
		switch op.Operator {
		case "q":
			gs.Save()
		case "Q":
			gs.Restore()
		case "cm":
			if len(args) == 6 {
				gs.CTM = operandsToMatrix(args).Multiply(gs.CTM)
			}
		case "BT":
			ts.reset()
		case "Tc":
			gs.Text.CharSpacing = numberAt(args, 0)
		case "Tw":
			gs.Text.WordSpacing = numberAt(args, 0)
		case "Tz":
			gs.Text.HScale = numberAt(args, 0) / 100
		case "TL":
			gs.Text.Leading = numberAt(args, 0)
		case "Ts":
			gs.Text.Rise = numberAt(args, 0)
		case "Tr":
			gs.Text.Render = TextRenderMode(numberAt(args, 0))
		case "Tf":
			if name, ok := nameAt(args, 0); ok {
				gs.Text.FontName = name
				if res != nil {
					gs.Text.Font = res.Font(name)
				}
			}
			gs.Text.FontSize = numberAt(args, 1)
		case "Td":
			ts.moveLine(numberAt(args, 0), numberAt(args, 1))
		case "TD":
			gs.Text.Leading = -numberAt(args, 1)
			ts.moveLine(numberAt(args, 0), numberAt(args, 1))
		case "Tm":
			if len(args) == 6 {
				ts.TextLineMatrix = operandsToMatrix(args)
				ts.TextMatrix = ts.TextLineMatrix
			}
		case "T*":
			ts.moveLine(0, -gs.Text.Leading)
		case "Tj":
			out.Params[i] = gs.Text
			if s, ok := stringAt(args, 0); ok {
				out.Glyphs = t.show(out.Glyphs, i, 0, s, gs, ts)
			}
		case "'":
			ts.moveLine(0, -gs.Text.Leading)
			out.Params[i] = gs.Text
			if s, ok := stringAt(args, 0); ok {
				out.Glyphs = t.show(out.Glyphs, i, 0, s, gs, ts)
			}
		case "\"":
			gs.Text.WordSpacing = numberAt(args, 0)
			gs.Text.CharSpacing = numberAt(args, 1)
			ts.moveLine(0, -gs.Text.Leading)
			out.Params[i] = gs.Text
			if s, ok := stringAt(args, 2); ok {
				out.Glyphs = t.show(out.Glyphs, i, 2, s, gs, ts)
			}
		case "TJ":
			out.Params[i] = gs.Text
			if len(args) == 1 {
				if arr, ok := args[0].(ArrayOperand); ok {
					for j, el := range arr.Values {
						switch v := el.(type) {
						case StringOperand:
							out.Glyphs = t.show(out.Glyphs, i, j, v.Value, gs, ts)
						case NumberOperand:
							ts.advance(-v.Value / 1000 * gs.Text.FontSize * gs.Text.HScale)
						}
					}
				}
			}
		case "Do":
			name, ok := nameAt(args, 0)
			if !ok || res == nil {
				continue
			}
			kind := res.XObject(name)
			if kind == XObjectUnknown {
				continue
			}
			out.Placements = append(out.Placements, Placement{
				Op:     i,
				Name:   name,
				Kind:   kind,
				Matrix: gs.CTM,
				Box:    gs.CTM.TransformRect(geom.Rect{X1: 1, Y1: 1}),
			})
		case "BI":
			out.Inline = append(out.Inline, InlineImage{
				Op:     i,
				Matrix: gs.CTM,
				Box:    gs.CTM.TransformRect(geom.Rect{X1: 1, Y1: 1}),
			})
		}
	}
	return out
}

func (t *Tracer) show(glyphs []Glyph, op, elem int, s []byte, gs *GraphicsState, ts *TextState) []Glyph {
	tp := gs.Text
	if tp.Font == nil {
		return glyphs
	}
	desc, asc := tp.Font.Extent()
	offset := 0
	for _, ch := range tp.Font.Decode(s) {
		trm := geom.Matrix{tp.FontSize * tp.HScale, 0, 0, tp.FontSize, 0, tp.Rise}.Multiply(ts.TextMatrix).Multiply(gs.CTM)
		w := ch.Width / 1000
		quad := trm.TransformPolygon(geom.Polygon{
			{X: 0, Y: desc / 1000},
			{X: w, Y: desc / 1000},
			{X: w, Y: asc / 1000},
			{X: 0, Y: asc / 1000},
		})
		tx := w*tp.FontSize + tp.CharSpacing
		if ch.Space {
			tx += tp.WordSpacing
		}
		tx *= tp.HScale
		size := geom.Matrix{0, tp.FontSize, 0, 0, 0, 0}.Multiply(ts.TextMatrix).Multiply(gs.CTM)
		glyphs = append(glyphs, Glyph{
			Op:      op,
			Elem:    elem,
			Start:   offset,
			End:     offset + len(ch.Code),
			Text:    ch.Text,
			Quad:    quad,
			Box:     quad.Bounds(),
			Origin:  trm.Transform(geom.Point{}),
			Advance: tx,
			Size:    math.Hypot(size[0], size[1]),
			Space:   ch.Space,
			Render:  tp.Render,
		})
		offset += len(ch.Code)
		ts.advance(tx)
	}
	return glyphs
}

func operandsToMatrix(ops []Operand) geom.Matrix {
	return geom.Matrix{
		numberAt(ops, 0), numberAt(ops, 1), numberAt(ops, 2),
		numberAt(ops, 3), numberAt(ops, 4), numberAt(ops, 5),
	}
}

func stringAt(ops []Operand, i int) ([]byte, bool) {
	if i >= len(ops) {
		return nil, false
	}
	s, ok := ops[i].(StringOperand)
	return s.Value, ok
}
