package pattern

import (
	"sort"

	"github.com/wudi/pdfredact/geom"
)

// Span is a matched range of page text. Start and End are byte offsets into
// the page text with End > Start. Rects holds one box per line fragment and
// Rect their union.
type Span struct {
	Page    int
	Start   int
	End     int
	Rect    geom.Rect
	Rects   []geom.Rect
	Text    string
	Pattern int
	Kind    Kind
}

func (s Span) Len() int { return s.End - s.Start }

// Overlaps reports whether s and o share at least one byte.
func (s Span) Overlaps(o Span) bool { return s.Start < o.End && o.Start < s.End }

// sortSpans orders by start, then longer first, then pattern order.
func sortSpans(spans []Span) {
	sort.SliceStable(spans, func(i, j int) bool {
		a, b := spans[i], spans[j]
		if a.Start != b.Start {
			return a.Start < b.Start
		}
		if a.Len() != b.Len() {
			return a.Len() > b.Len()
		}
		return a.Pattern < b.Pattern
	})
}
