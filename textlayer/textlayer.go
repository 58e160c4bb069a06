// Package textlayer models the extracted text of one page together with a
// bounding box for every byte, so that matches found in the text can be
// mapped back onto the page.
package textlayer

import (
	"fmt"
	"math"
	"strings"

	"github.com/wudi/pdfredact/geom"
)

// Source identifies where page text came from.
type Source int

const (
	SourceTextLayer Source = iota
	SourceOCR
	SourceMixed
)

func (s Source) String() string {
	switch s {
	case SourceOCR:
		return "ocr"
	case SourceMixed:
		return "mixed"
	default:
		return "text"
	}
}

// PageText is the text of one page. Boxes is aligned byte-for-byte with Text;
// the bytes of a multi-byte rune share a box and synthetic separators carry
// the zero rectangle. Boxes are in page space.
type PageText struct {
	Index  int
	Text   string
	Boxes  []geom.Rect
	Width  float64
	Height float64
	Source Source
}

// Validate checks the text/box alignment.
func (p PageText) Validate() error {
	if len(p.Boxes) != len(p.Text) {
		return fmt.Errorf("textlayer: page %d has %d boxes for %d bytes", p.Index, len(p.Boxes), len(p.Text))
	}
	return nil
}

// Blank reports whether the page carries no visible text.
func (p PageText) Blank() bool { return strings.TrimSpace(p.Text) == "" }

// Bounds returns the union of the boxes in [start, end).
func (p PageText) Bounds(start, end int) geom.Rect {
	start, end = p.clamp(start, end)
	var out geom.Rect
	for i := start; i < end; i++ {
		out = out.Union(p.Boxes[i])
	}
	return out
}

// Fragments splits the boxes in [start, end) into one rectangle per visual
// line, in text order.
func (p PageText) Fragments(start, end int) []geom.Rect {
	start, end = p.clamp(start, end)
	var (
		out  []geom.Rect
		cur  geom.Rect
		last geom.Rect
	)
	for i := start; i < end; i++ {
		b := p.Boxes[i]
		if b.IsZero() || b == last {
			continue
		}
		last = b
		switch {
		case cur.IsZero():
			cur = b
		case sameLine(cur, b):
			cur = cur.Union(b)
		default:
			out = append(out, cur)
			cur = b
		}
	}
	if !cur.IsZero() {
		out = append(out, cur)
	}
	return out
}

func (p PageText) clamp(start, end int) (int, int) {
	n := len(p.Boxes)
	start = max(0, min(start, n))
	end = max(start, min(end, n))
	return start, end
}

func sameLine(line, b geom.Rect) bool {
	if b.X0 < line.X0-1 {
		return false
	}
	overlap := math.Min(line.Y1, b.Y1) - math.Max(line.Y0, b.Y0)
	h := math.Min(line.Height(), b.Height())
	if h <= 0 {
		return math.Abs(line.Y0-b.Y0) < 1
	}
	return overlap >= 0.5*h
}

// Concat appends b to a with sep between them. The result keeps a's index
// and page size.
func Concat(a, b PageText, sep string) PageText {
	if a.Text == "" {
		b.Index = a.Index
		if a.Width > 0 {
			b.Width, b.Height = a.Width, a.Height
		}
		return b
	}
	if b.Text == "" {
		return a
	}
	bl := NewBuilder(a.Index, a.Width, a.Height)
	bl.appendPage(a)
	bl.Separator(sep)
	bl.appendPage(b)
	out := bl.PageText()
	if a.Source != b.Source {
		out.Source = SourceMixed
	} else {
		out.Source = a.Source
	}
	return out
}

// Builder accumulates page text and boxes.
type Builder struct {
	index  int
	width  float64
	height float64
	source Source
	text   strings.Builder
	boxes  []geom.Rect
}

func NewBuilder(index int, width, height float64) *Builder {
	return &Builder{index: index, width: width, height: height}
}

// SetSource labels the built page.
func (b *Builder) SetSource(s Source) { b.source = s }

// Add appends s with every byte mapped to box.
func (b *Builder) Add(s string, box geom.Rect) {
	b.text.WriteString(s)
	for i := 0; i < len(s); i++ {
		b.boxes = append(b.boxes, box)
	}
}

// Separator appends synthetic text that has no geometry.
func (b *Builder) Separator(s string) { b.Add(s, geom.Rect{}) }

func (b *Builder) Len() int { return b.text.Len() }

// LastByte returns the most recently written byte, or 0.
func (b *Builder) LastByte() byte {
	s := b.text.String()
	if s == "" {
		return 0
	}
	return s[len(s)-1]
}

func (b *Builder) appendPage(p PageText) {
	b.text.WriteString(p.Text)
	b.boxes = append(b.boxes, p.Boxes...)
}

func (b *Builder) PageText() PageText {
	return PageText{
		Index:  b.index,
		Text:   b.text.String(),
		Boxes:  append([]geom.Rect(nil), b.boxes...),
		Width:  b.width,
		Height: b.height,
		Source: b.source,
	}
}
