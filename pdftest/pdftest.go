// Package pdftest writes small deterministic PDFs for tests.
package pdftest

import (
	"bytes"
	"fmt"
	"strings"
)

// Builder collects numbered objects and writes them with a classic xref
// table.
type Builder struct {
	objs [][]byte
}

func NewBuilder() *Builder { return &Builder{} }

// Reserve allocates an object number to fill in later with Set.
func (b *Builder) Reserve() int {
	b.objs = append(b.objs, nil)
	return len(b.objs)
}

func (b *Builder) Set(n int, body string) { b.objs[n-1] = []byte(body) }

// Object adds a non-stream object and returns its number.
func (b *Builder) Object(body string) int {
	n := b.Reserve()
	b.Set(n, body)
	return n
}

// Stream adds a stream object. entries are the dictionary entries without
// the enclosing brackets and without /Length.
func (b *Builder) Stream(entries string, data []byte) int {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "<< %s /Length %d >>\nstream\n", entries, len(data))
	buf.Write(data)
	buf.WriteString("\nendstream")
	n := b.Reserve()
	b.objs[n-1] = buf.Bytes()
	return n
}

// Bytes serialises the file with root as the catalog.
func (b *Builder) Bytes(root int) []byte {
	var buf bytes.Buffer
	buf.WriteString("%PDF-1.7\n%\xe2\xe3\xcf\xd3\n")
	offsets := make([]int, len(b.objs))
	for i, body := range b.objs {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n", i+1)
		buf.Write(body)
		buf.WriteString("\nendobj\n")
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(b.objs)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root %d 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(b.objs)+1, root, xref)
	return buf.Bytes()
}

// Text is one line of Courier text at baseline (X, Y) in user space.
type Text struct {
	X, Y float64
	Size float64
	Text string
}

// Page describes one page to build.
type Page struct {
	Lines []Text
	// Extra is raw content appended after the text.
	Extra string
	// Image is drawn over ImageRect [x y w h] when set.
	Image     *Image
	ImageRect [4]float64
	// Form moves the text into a form XObject drawn with FormMatrix.
	Form       bool
	FormMatrix [6]float64
	// Annots are annotation rectangles [x0 y0 x1 y1].
	Annots [][4]float64
}

// Image is an uncompressed image XObject.
type Image struct {
	Width, Height int
	// Components is 1 for DeviceGray or 3 for DeviceRGB.
	Components int
	Fill       byte
}

// Width and Height are the MediaBox used by every generated page.
const (
	Width  = 612
	Height = 792
)

// Build writes a document with the given pages. Page i uses font /F1
// (Courier) and, when present, image /Im1 and form /Fm1.
func Build(pages ...Page) []byte {
	b := NewBuilder()
	catalog := b.Reserve()
	tree := b.Reserve()
	font := b.Object("<< /Type /Font /Subtype /Type1 /BaseFont /Courier /Encoding /WinAnsiEncoding >>")

	var kids []string
	for _, p := range pages {
		text := TextContent(p.Lines)
		xobjects := map[string]int{}
		var content strings.Builder
		if p.Form {
			m := p.FormMatrix
			if m == ([6]float64{}) {
				m = [6]float64{1, 0, 0, 1, 0, 0}
			}
			fm := b.Stream(fmt.Sprintf(
				"/Type /XObject /Subtype /Form /BBox [0 0 %d %d] /Matrix [%s] /Resources << /Font << /F1 %d 0 R >> >>",
				Width, Height, join(m[:]), font), []byte(text))
			xobjects["Fm1"] = fm
			content.WriteString("q /Fm1 Do Q\n")
		} else {
			content.WriteString(text)
		}
		if p.Image != nil {
			im := p.Image
			space := "/DeviceGray"
			if im.Components == 3 {
				space = "/DeviceRGB"
			} else {
				im.Components = 1
			}
			data := bytes.Repeat([]byte{im.Fill}, im.Width*im.Height*im.Components)
			xobjects["Im1"] = b.Stream(fmt.Sprintf(
				"/Type /XObject /Subtype /Image /Width %d /Height %d /ColorSpace %s /BitsPerComponent 8",
				im.Width, im.Height, space), data)
			r := p.ImageRect
			fmt.Fprintf(&content, "q %s 0 0 %s %s %s cm /Im1 Do Q\n", num(r[2]), num(r[3]), num(r[0]), num(r[1]))
		}
		content.WriteString(p.Extra)
		cs := b.Stream("", []byte(content.String()))

		var res strings.Builder
		fmt.Fprintf(&res, "<< /Font << /F1 %d 0 R >>", font)
		if len(xobjects) > 0 {
			res.WriteString(" /XObject <<")
			for _, name := range []string{"Fm1", "Im1"} {
				if n, ok := xobjects[name]; ok {
					fmt.Fprintf(&res, " /%s %d 0 R", name, n)
				}
			}
			res.WriteString(" >>")
		}
		res.WriteString(" >>")

		annots := ""
		if len(p.Annots) > 0 {
			var refs []string
			for _, a := range p.Annots {
				n := b.Object(fmt.Sprintf("<< /Type /Annot /Subtype /Square /Rect [%s] >>", join(a[:])))
				refs = append(refs, fmt.Sprintf("%d 0 R", n))
			}
			annots = " /Annots [" + strings.Join(refs, " ") + "]"
		}
		page := b.Object(fmt.Sprintf(
			"<< /Type /Page /Parent %d 0 R /MediaBox [0 0 %d %d] /Resources %s /Contents %d 0 R%s >>",
			tree, Width, Height, res.String(), cs, annots))
		kids = append(kids, fmt.Sprintf("%d 0 R", page))
	}
	b.Set(tree, fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(kids)))
	b.Set(catalog, fmt.Sprintf("<< /Type /Catalog /Pages %d 0 R >>", tree))
	return b.Bytes(catalog)
}

// TextPDF is a one page document with the given lines.
func TextPDF(lines ...Text) []byte { return Build(Page{Lines: lines}) }

// TextContent renders lines as a content stream using /F1.
func TextContent(lines []Text) string {
	var sb strings.Builder
	for _, l := range lines {
		size := l.Size
		if size == 0 {
			size = 12
		}
		fmt.Fprintf(&sb, "BT /F1 %s Tf 1 0 0 1 %s %s Tm (%s) Tj ET\n", num(size), num(l.X), num(l.Y), escape(l.Text))
	}
	return sb.String()
}

func escape(s string) string {
	return strings.NewReplacer(`\`, `\\`, "(", `\(`, ")", `\)`).Replace(s)
}

func num(v float64) string { return fmt.Sprintf("%g", v) }

func join(vs []float64) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = num(v)
	}
	return strings.Join(parts, " ")
}

// CourierBox returns the page space box of characters [start, end) of a line
// drawn by TextContent, using Courier metrics.
func CourierBox(l Text, start, end int) (x0, y0, x1, y1 float64) {
	size := l.Size
	if size == 0 {
		size = 12
	}
	adv := 0.6 * size
	x0 = l.X + float64(start)*adv
	x1 = l.X + float64(end)*adv
	top := l.Y + 0.629*size
	bottom := l.Y - 0.157*size
	return x0, Height - top, x1, Height - bottom
}
