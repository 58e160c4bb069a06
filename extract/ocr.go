package extract

import (
	"context"
	"fmt"
	"image"

	"golang.org/x/image/draw"

	"github.com/wudi/pdfredact/document"
	"github.com/wudi/pdfredact/geom"
	"github.com/wudi/pdfredact/ocr"
	"github.com/wudi/pdfredact/textlayer"
)

// DefaultScale is the upscale applied to images before OCR.
const DefaultScale = 2

// maxOCRPixels caps the upscaled size so a large scan is not blown up
// further.
const maxOCRPixels = 40 << 20

// OCR reads the raster images drawn on a page through an ocr.Engine and maps
// every word box through the image placement onto the page.
type OCR struct {
	// Engine defaults to ocr.Default().
	Engine    ocr.Engine
	Scale     float64
	Languages []string
	DPI       int
	Options   []ocr.InputOption
}

func NewOCR(engine ocr.Engine) *OCR {
	return &OCR{Engine: engine, Scale: DefaultScale}
}

func (o *OCR) engine() ocr.Engine {
	if o.Engine != nil {
		return o.Engine
	}
	return ocr.Default()
}

type ocrSource struct {
	pl   placedImage
	w, h int
}

func (o *OCR) Extract(ctx context.Context, doc *document.Document, index int) (textlayer.PageText, error) {
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

	opts := append([]ocr.InputOption(nil), o.Options...)
	if len(o.Languages) > 0 {
		opts = append(opts, ocr.WithLanguages(o.Languages...))
	}
	if o.DPI > 0 {
		opts = append(opts, ocr.WithDPI(o.DPI))
	}

	var (
		inputs  []ocr.Input
		sources []ocrSource
	)
	for _, pi := range d.images {
		im, err := pi.res.Image(pi.pl.Name)
		if err != nil || !im.Editable() {
			continue
		}
		img, err := im.Decode()
		if err != nil {
			continue
		}
		img = o.upscale(img)
		in, err := ocr.InputFromImage(img, index, pi.pl.Name, opts...)
		if err != nil {
			return textlayer.PageText{}, err
		}
		b := img.Bounds()
		inputs = append(inputs, in)
		sources = append(sources, ocrSource{pl: pi, w: b.Dx(), h: b.Dy()})
	}

	empty := textlayer.NewBuilder(index, page.Width(), page.Height())
	empty.SetSource(textlayer.SourceOCR)
	if len(inputs) == 0 {
		return empty.PageText(), nil
	}
	results, err := ocr.RecognizeAll(ctx, o.engine(), inputs)
	if err != nil {
		return textlayer.PageText{}, fmt.Errorf("ocr page %d: %w", index, err)
	}

	toPage := page.UserToPage()
	var items []item
	for i, res := range results {
		if i >= len(sources) {
			break
		}
		src := sources[i]
		// Pixel space to the unit square of the image, then through the
		// placement into user space.
		toUser := geom.Matrix{1 / float64(src.w), 0, 0, -1 / float64(src.h), 0, 1}.
			Multiply(src.pl.pl.Matrix).Multiply(toPage)
		for _, w := range res.Words {
			if w.Text == "" || w.Bounds.IsEmpty() {
				continue
			}
			px := geom.R(w.Bounds.X, w.Bounds.Y, w.Bounds.X+w.Bounds.Width, w.Bounds.Y+w.Bounds.Height)
			box := toUser.TransformRect(px)
			items = append(items, item{
				text:     w.Text,
				box:      box,
				baseline: box.Y1,
				size:     box.Height(),
			})
		}
	}
	return assemble(index, page.Width(), page.Height(), textlayer.SourceOCR, items), nil
}

func (o *OCR) upscale(img image.Image) image.Image {
	s := o.Scale
	if s <= 1 {
		return img
	}
	b := img.Bounds()
	w, h := int(float64(b.Dx())*s), int(float64(b.Dy())*s)
	if w*h > maxOCRPixels {
		return img
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}
