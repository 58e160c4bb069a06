package pattern

import (
	"sort"

	"github.com/wudi/pdfredact/textlayer"
)

// Filter drops every candidate that overlaps any exclusion span by at least
// one byte. Survivors keep their order; nothing is added or merged.
func Filter(candidates, exclusions []Span) []Span {
	if len(exclusions) == 0 {
		return append([]Span(nil), candidates...)
	}
	ex := append([]Span(nil), exclusions...)
	sort.Slice(ex, func(i, j int) bool { return ex[i].Start < ex[j].Start })
	// maxEnd[i] is the furthest end among ex[:i+1]
	maxEnd := make([]int, len(ex))
	for i, e := range ex {
		maxEnd[i] = e.End
		if i > 0 && maxEnd[i-1] > e.End {
			maxEnd[i] = maxEnd[i-1]
		}
	}
	out := make([]Span, 0, len(candidates))
	for _, c := range candidates {
		// exclusions starting before c ends are the only ones that can overlap
		n := sort.Search(len(ex), func(i int) bool { return ex[i].Start >= c.End })
		if n > 0 && maxEnd[n-1] > c.Start {
			continue
		}
		out = append(out, c)
	}
	return out
}

// Exclude matches exclusions on page and filters candidates against them.
func (m *Matcher) Exclude(page textlayer.PageText, candidates []Span, exclusions []Pattern) ([]Span, []error) {
	if len(exclusions) == 0 || len(candidates) == 0 {
		return append([]Span(nil), candidates...), nil
	}
	spans, errs := m.Match(page, exclusions)
	return Filter(candidates, spans), errs
}
