package document

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// Image is an image XObject.
type Image struct {
	doc *Document
	ref types.IndirectRef
	sd  types.StreamDict

	Name             string
	Width, Height    int
	BitsPerComponent int
	// Components is 1, 3 or 4 for the device color spaces, 0 otherwise.
	Components int
	Filters    []string
	ImageMask  bool
}

// Image loads the image XObject name without decoding its samples.
func (r *Resources) Image(name string) (*Image, error) {
	o, d := r.xobject(name)
	if r.doc.name(d["Subtype"]) != "Image" {
		return nil, fmt.Errorf("xobject %s: not an image", name)
	}
	ref, ok := o.(types.IndirectRef)
	if !ok {
		return nil, fmt.Errorf("xobject %s: %w", name, ErrNotStream)
	}
	sd, ok := r.doc.resolve(ref).(types.StreamDict)
	if !ok {
		return nil, fmt.Errorf("xobject %s: %w", name, ErrNotStream)
	}
	im := &Image{
		doc:              r.doc,
		ref:              ref,
		sd:               sd,
		Name:             name,
		Width:            int(r.doc.numberOr(d["Width"], 0)),
		Height:           int(r.doc.numberOr(d["Height"], 0)),
		BitsPerComponent: int(r.doc.numberOr(d["BitsPerComponent"], 8)),
		Components:       r.doc.components(d["ColorSpace"]),
	}
	if b, ok := r.doc.resolve(d["ImageMask"]).(types.Boolean); ok {
		im.ImageMask = bool(b)
	}
	for _, f := range sd.FilterPipeline {
		im.Filters = append(im.Filters, f.Name)
	}
	return im, nil
}

// components returns the sample count of a device color space, following
// ICCBased /N and Cal spaces.
func (d *Document) components(o types.Object) int {
	switch v := d.resolve(o).(type) {
	case types.Name:
		switch v {
		case "DeviceGray", "G", "CalGray":
			return 1
		case "DeviceRGB", "RGB", "CalRGB":
			return 3
		case "DeviceCMYK", "CMYK":
			return 4
		}
	case types.Array:
		if len(v) < 2 {
			return 0
		}
		switch d.name(v[0]) {
		case "ICCBased":
			return int(d.numberOr(d.dict(v[1])["N"], 0))
		case "CalGray":
			return 1
		case "CalRGB":
			return 3
		}
	}
	return 0
}

// ID identifies the image object so callers can rewrite shared images once.
func (im *Image) ID() int { return int(im.ref.ObjectNumber) }

func (im *Image) isJPEG() bool {
	return len(im.Filters) == 1 && im.Filters[0] == "DCTDecode"
}

// Editable reports whether Decode and Replace support the image.
func (im *Image) Editable() bool {
	if im.ImageMask || im.Width <= 0 || im.Height <= 0 {
		return false
	}
	if im.isJPEG() {
		return true
	}
	for _, f := range im.Filters {
		switch f {
		case "FlateDecode", "LZWDecode", "ASCII85Decode", "ASCIIHexDecode", "RunLengthDecode":
		default:
			return false
		}
	}
	return im.BitsPerComponent == 8 && im.Components > 0
}

// Decode returns the image samples. Gray images decode to *image.Gray,
// RGB to *image.RGBA and CMYK to *image.CMYK.
func (im *Image) Decode() (image.Image, error) {
	if !im.Editable() {
		return nil, fmt.Errorf("image %s: %w", im.Name, ErrUnsupportedImage)
	}
	if im.isJPEG() {
		img, err := jpeg.Decode(bytes.NewReader(im.sd.Raw))
		if err != nil {
			return nil, fmt.Errorf("image %s: %w", im.Name, err)
		}
		return img, nil
	}
	sd := im.sd
	if sd.Content == nil {
		if err := sd.Decode(); err != nil {
			return nil, fmt.Errorf("image %s: %w", im.Name, err)
		}
	}
	n := im.Width * im.Height * im.Components
	if len(sd.Content) < n {
		return nil, fmt.Errorf("image %s: %d bytes of samples, want %d", im.Name, len(sd.Content), n)
	}
	rect := image.Rect(0, 0, im.Width, im.Height)
	px := sd.Content[:n]
	switch im.Components {
	case 1:
		g := image.NewGray(rect)
		copy(g.Pix, px)
		return g, nil
	case 3:
		rgba := image.NewRGBA(rect)
		for i, j := 0, 0; i < n; i, j = i+3, j+4 {
			rgba.Pix[j], rgba.Pix[j+1], rgba.Pix[j+2], rgba.Pix[j+3] = px[i], px[i+1], px[i+2], 0xff
		}
		return rgba, nil
	default:
		c := image.NewCMYK(rect)
		copy(c.Pix, px)
		return c, nil
	}
}

// Replace stores img in place of the image samples. The result is Flate
// encoded 8-bit Gray, RGB or CMYK depending on the type of img; a soft mask
// is kept as it was.
func (im *Image) Replace(img image.Image) error {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	var (
		space types.Name
		px    []byte
	)
	switch v := img.(type) {
	case *image.Gray:
		space = "DeviceGray"
		px = make([]byte, 0, w*h)
		for y := b.Min.Y; y < b.Max.Y; y++ {
			px = append(px, v.Pix[v.PixOffset(b.Min.X, y):v.PixOffset(b.Max.X, y)]...)
		}
	case *image.CMYK:
		space = "DeviceCMYK"
		px = make([]byte, 0, w*h*4)
		for y := b.Min.Y; y < b.Max.Y; y++ {
			px = append(px, v.Pix[v.PixOffset(b.Min.X, y):v.PixOffset(b.Max.X, y)]...)
		}
	default:
		space = "DeviceRGB"
		px = make([]byte, 0, w*h*3)
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
				px = append(px, c.R, c.G, c.B)
			}
		}
	}

	base := types.NewDict()
	for _, k := range []string{"Type", "Subtype", "SMask", "Interpolate", "Intent", "Name"} {
		if v, ok := im.sd.Dict[k]; ok {
			base[k] = v
		}
	}
	base["Type"] = types.Name("XObject")
	base["Subtype"] = types.Name("Image")
	base["Width"] = types.Integer(w)
	base["Height"] = types.Integer(h)
	base["ColorSpace"] = space
	base["BitsPerComponent"] = types.Integer(8)
	ns, err := flateStream(base, px)
	if err != nil {
		return fmt.Errorf("image %s: %w", im.Name, err)
	}
	ref := im.ref
	if err := im.doc.replace(&ref, ns); err != nil {
		return fmt.Errorf("image %s: %w", im.Name, err)
	}
	im.sd = *ns
	im.sd.Content = px
	im.Width, im.Height, im.BitsPerComponent, im.Filters = w, h, 8, []string{"FlateDecode"}
	im.Components = len(px) / max(1, w*h)
	return nil
}
