package extract

import (
	"fmt"

	cs "github.com/wudi/pdfredact/contentstream"
	"github.com/wudi/pdfredact/document"
	"github.com/wudi/pdfredact/geom"
)

// maxFormDepth matches the depth the applier descends to, so text found in
// deeper forms would not be removable anyway.
const maxFormDepth = 8

// placedImage is an image XObject with the resources it was resolved from.
type placedImage struct {
	res *document.Resources
	pl  cs.Placement
}

// drawn is what a page draws, in content order, with forms expanded.
type drawn struct {
	glyphs []cs.Glyph
	images []placedImage
}

func collect(page *document.Page) (drawn, error) {
	content, err := page.Contents()
	if err != nil {
		return drawn{}, err
	}
	var d drawn
	if err := d.stream(content, page.Resources(), geom.Identity(), 0); err != nil {
		return drawn{}, fmt.Errorf("page %d: %w", page.Index, err)
	}
	return d, nil
}

func (d *drawn) stream(content []byte, res *document.Resources, ctm geom.Matrix, depth int) error {
	ops, err := cs.Parse(content)
	if err != nil {
		return err
	}
	tr := cs.NewTracer(ctm).Trace(ops, res)
	gi := 0
	for _, pl := range tr.Placements {
		for gi < len(tr.Glyphs) && tr.Glyphs[gi].Op < pl.Op {
			d.glyphs = append(d.glyphs, tr.Glyphs[gi])
			gi++
		}
		switch pl.Kind {
		case cs.XObjectImage:
			d.images = append(d.images, placedImage{res: res, pl: pl})
		case cs.XObjectForm:
			if depth+1 >= maxFormDepth {
				continue
			}
			form, err := res.Form(pl.Name)
			if err != nil {
				continue
			}
			// Broken forms draw nothing readable; keep the rest of the page.
			_ = d.stream(form.Contents(), form.Resources, form.Matrix.Multiply(pl.Matrix), depth+1)
		}
	}
	d.glyphs = append(d.glyphs, tr.Glyphs[gi:]...)
	return nil
}
