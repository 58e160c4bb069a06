package extract

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"github.com/ledongthuc/pdf"

	"github.com/wudi/pdfredact/document"
	"github.com/wudi/pdfredact/geom"
	"github.com/wudi/pdfredact/textlayer"
)

// Glyph extent used for ledongthuc text, which carries no font metrics,
// as fractions of the font size.
const (
	ledongthucDescent = 0.2
	ledongthucAscent  = 0.8
)

// Ledongthuc is a text layer read by github.com/ledongthuc/pdf from the
// document's source bytes. Its boxes come from that library's own layout, so
// they may differ slightly from the glyphs the applier sees.
type Ledongthuc struct {
	mu     sync.Mutex
	doc    *document.Document
	reader *pdf.Reader
}

func NewLedongthuc() *Ledongthuc { return &Ledongthuc{} }

// open returns a reader for doc, reusing the previous one for the same
// document.
func (l *Ledongthuc) open(doc *document.Document) (*pdf.Reader, error) {
	if l.doc == doc && l.reader != nil {
		return l.reader, nil
	}
	data := doc.Source()
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("ledongthuc: %w", err)
	}
	l.doc, l.reader = doc, r
	return r, nil
}

func (l *Ledongthuc) Extract(ctx context.Context, doc *document.Document, index int) (pt textlayer.PageText, err error) {
	if err := ctx.Err(); err != nil {
		return textlayer.PageText{}, err
	}
	page, err := doc.Page(index)
	if err != nil {
		return textlayer.PageText{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	defer func() {
		if r := recover(); r != nil {
			pt, err = textlayer.PageText{}, fmt.Errorf("ledongthuc: page %d: %v", index, r)
		}
	}()

	r, err := l.open(doc)
	if err != nil {
		return textlayer.PageText{}, err
	}
	if index+1 > r.NumPage() {
		return textlayer.PageText{}, fmt.Errorf("ledongthuc: %w: %d", document.ErrPageRange, index)
	}
	p := r.Page(index + 1)
	if p.V.IsNull() {
		return textlayer.PageText{Index: index, Width: page.Width(), Height: page.Height()}, nil
	}

	toPage := page.UserToPage()
	texts := p.Content().Text
	items := make([]item, 0, len(texts))
	for _, t := range texts {
		if t.S == "" {
			continue
		}
		size := t.FontSize
		user := geom.R(t.X, t.Y-ledongthucDescent*size, t.X+t.W, t.Y+ledongthucAscent*size)
		items = append(items, item{
			text:     t.S,
			box:      toPage.TransformRect(user),
			baseline: toPage.Transform(geom.Point{X: t.X, Y: t.Y}).Y,
			size:     size,
			space:    t.S == " ",
		})
	}
	return assemble(index, page.Width(), page.Height(), textlayer.SourceTextLayer, items), nil
}
