package contentstream

import "github.com/wudi/pdfredact/geom"

// TextRenderMode matches PDF text rendering modes set via Tr operator.
type TextRenderMode int

const (
	TextFill TextRenderMode = iota
	TextStroke
	TextFillStroke
	TextInvisible
	TextFillClip
	TextStrokeClip
	TextFillStrokeClip
	TextClip
)

// TextParams are the text state fields saved with the graphics state.
type TextParams struct {
	Font        Font
	FontName    string
	FontSize    float64
	CharSpacing float64
	WordSpacing float64
	HScale      float64
	Leading     float64
	Rise        float64
	Render      TextRenderMode
}

// GraphicsState is the part of the PDF graphics state the tracer follows.
type GraphicsState struct {
	CTM   geom.Matrix
	Text  TextParams
	stack []GraphicsState
}

func newGraphicsState(ctm geom.Matrix) *GraphicsState {
	return &GraphicsState{CTM: ctm, Text: TextParams{HScale: 1}}
}

func (gs *GraphicsState) Save() {
	clone := *gs
	clone.stack = nil
	gs.stack = append(gs.stack, clone)
}

// Restore pops the last saved state. An unbalanced Q is ignored.
func (gs *GraphicsState) Restore() bool {
	n := len(gs.stack)
	if n == 0 {
		return false
	}
	stack := gs.stack[:n-1]
	*gs = gs.stack[n-1]
	gs.stack = stack
	return true
}

// Depth is the number of saved states.
func (gs *GraphicsState) Depth() int { return len(gs.stack) }

// TextState holds the matrices that live between BT and ET.
type TextState struct {
	TextMatrix     geom.Matrix
	TextLineMatrix geom.Matrix
}

func (ts *TextState) reset() {
	ts.TextMatrix = geom.Identity()
	ts.TextLineMatrix = geom.Identity()
}

func (ts *TextState) moveLine(tx, ty float64) {
	ts.TextLineMatrix = geom.Translate(tx, ty).Multiply(ts.TextLineMatrix)
	ts.TextMatrix = ts.TextLineMatrix
}

func (ts *TextState) advance(tx float64) {
	ts.TextMatrix = geom.Translate(tx, 0).Multiply(ts.TextMatrix)
}
