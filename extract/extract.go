// Package extract produces the text layer of a page with a page space box
// for every byte, from the content streams, from a second PDF reader, or
// from OCR of the images drawn on the page.
package extract

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/wudi/pdfredact/document"
	"github.com/wudi/pdfredact/geom"
	"github.com/wudi/pdfredact/textlayer"
)

var ErrUnknownEngine = errors.New("extract: unknown engine")

// Extractor returns the text of page i of doc.
type Extractor interface {
	Extract(ctx context.Context, doc *document.Document, page int) (textlayer.PageText, error)
}

// ByName returns the text layer extractor selected by the extract.engine
// setting.
func ByName(name string) (Extractor, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "native":
		return NewNative(), nil
	case "ledongthuc":
		return NewLedongthuc(), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownEngine, name)
}

// Mode decides when OCR supplements the text layer.
type Mode int

const (
	ModeOff Mode = iota
	// ModeAuto runs OCR only for pages without a text layer.
	ModeAuto
	ModeAlways
)

func (m Mode) String() string {
	switch m {
	case ModeAuto:
		return "auto"
	case ModeAlways:
		return "always"
	}
	return "off"
}

func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "off", "", "none":
		return ModeOff, nil
	case "auto":
		return ModeAuto, nil
	case "always":
		return ModeAlways, nil
	}
	return ModeOff, fmt.Errorf("extract: unknown ocr mode %q", s)
}

// item is one piece of text placed on the page, in page space.
type item struct {
	text string
	box  geom.Rect
	// baseline is the page space y of the text origin; size the font size.
	baseline float64
	size     float64
	space    bool
}

// Gap thresholds relative to the font size. A horizontal gap wider than
// wordGap starts a new word; a baseline shift larger than lineShift starts a
// new line.
const (
	wordGap   = 0.25
	lineShift = 0.5
)

// assemble joins items in order and inserts separators from their geometry.
func assemble(index int, width, height float64, src textlayer.Source, items []item) textlayer.PageText {
	b := textlayer.NewBuilder(index, width, height)
	b.SetSource(src)
	var prev *item
	for i := range items {
		it := &items[i]
		if it.text == "" {
			continue
		}
		if prev != nil {
			last := b.LastByte()
			switch separator(prev, it) {
			case "\n":
				if last != '\n' {
					b.Separator("\n")
				}
			case " ":
				if last != ' ' && last != '\n' {
					b.Separator(" ")
				}
			}
		}
		b.Add(it.text, it.box)
		prev = it
	}
	return b.PageText()
}

func separator(prev, cur *item) string {
	size := math.Max(math.Min(prev.size, cur.size), 1)
	if math.Abs(cur.baseline-prev.baseline) > lineShift*size {
		return "\n"
	}
	gap := cur.box.X0 - prev.box.X1
	if gap < -size {
		// Moved back along the same baseline, as in a new column.
		return "\n"
	}
	if prev.space || cur.space || strings.HasSuffix(prev.text, " ") || strings.HasPrefix(cur.text, " ") {
		return ""
	}
	if gap > wordGap*size {
		return " "
	}
	return ""
}
