package redact

import (
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"

	"github.com/wudi/pdfredact/geom"
)

// editable converts decoded samples to an image draw can write to. JPEG
// decodes to YCbCr, which is read-only, so it becomes RGBA.
func editable(img image.Image) draw.Image {
	switch v := img.(type) {
	case *image.Gray:
		return v
	case *image.RGBA:
		return v
	case *image.CMYK:
		return v
	case *image.Gray16:
		g := image.NewGray(v.Bounds())
		draw.Draw(g, g.Bounds(), v, v.Bounds().Min, draw.Src)
		return g
	}
	rgba := image.NewRGBA(img.Bounds())
	draw.Draw(rgba, rgba.Bounds(), img, img.Bounds().Min, draw.Src)
	return rgba
}

// imageToPixels maps user space to pixel space for an image drawn with
// placement matrix m. Image space is the unit square with row 0 at the top.
func imageToPixels(m geom.Matrix, w, h int) (geom.Matrix, error) {
	inv, err := m.Inverse()
	if err != nil {
		return geom.Matrix{}, err
	}
	return inv.Multiply(geom.Matrix{float64(w), 0, 0, -float64(h), 0, float64(h)}), nil
}

// blank paints every pixel under shapes with c and reports how many pixels
// changed. Shapes are in pixel space.
func blank(img draw.Image, shapes []geom.Geometry, c color.Color) int {
	b := img.Bounds()
	src := image.NewUniform(c)
	n := 0
	for _, s := range shapes {
		sb := s.Bounds()
		r := image.Rect(
			int(math.Floor(sb.X0)), int(math.Floor(sb.Y0)),
			int(math.Ceil(sb.X1)), int(math.Ceil(sb.Y1)),
		).Intersect(b)
		if r.Empty() {
			continue
		}
		if !s.IsPolygon() {
			draw.Draw(img, r, src, image.Point{}, draw.Src)
			n += r.Dx() * r.Dy()
			continue
		}
		for y := r.Min.Y; y < r.Max.Y; y++ {
			for x := r.Min.X; x < r.Max.X; x++ {
				px := geom.Rect{X0: float64(x), Y0: float64(y), X1: float64(x + 1), Y1: float64(y + 1)}
				if s.Polygon.IntersectsRect(px) {
					img.Set(x, y, c)
					n++
				}
			}
		}
	}
	return n
}
