package extract

import (
	"context"

	"github.com/wudi/pdfredact/document"
	"github.com/wudi/pdfredact/textlayer"
)

// Native reads text from the content streams with the same tracer the
// applier uses, so every box it reports covers exactly the glyph the
// applier would remove.
type Native struct{}

func NewNative() *Native { return &Native{} }

func (n *Native) Extract(ctx context.Context, doc *document.Document, index int) (textlayer.PageText, error) {
	if err := ctx.Err(); err != nil {
		return textlayer.PageText{}, err
	}
	page, err := doc.Page(index)
	if err != nil {
		return textlayer.PageText{}, err
	}
	d, err := collect(page)
	if err != nil {
		return textlayer.PageText{}, err
	}
	toPage := page.UserToPage()
	items := make([]item, 0, len(d.glyphs))
	for _, g := range d.glyphs {
		origin := toPage.Transform(g.Origin)
		items = append(items, item{
			text:     g.Text,
			box:      toPage.TransformRect(g.Box),
			baseline: origin.Y,
			size:     g.Size,
			space:    g.Space,
		})
	}
	return assemble(index, page.Width(), page.Height(), textlayer.SourceTextLayer, items), nil
}
