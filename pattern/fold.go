package pattern

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// folded is a comparison form of a string. Byte i of text came from the
// original segment spanning [starts[i], ends[i]). bounds[i] is set where a
// segment of text begins, and at len(text).
type folded struct {
	text   string
	starts []int
	ends   []int
	bounds []bool
}

type foldMode struct {
	caseless bool
	collapse bool
}

// fold applies NFKC, optional case folding and optional whitespace
// collapsing one normalization segment at a time, so a base rune and its
// combining marks fold together and offsets survive the rewrite.
func fold(s string, mode foldMode) folded {
	var (
		out    strings.Builder
		starts = make([]int, 0, len(s))
		ends   = make([]int, 0, len(s))
		bounds = make([]bool, 0, len(s)+1)
		caser  cases.Caser
	)
	if mode.caseless {
		caser = cases.Fold()
	}
	emit := func(t string, start, end int) {
		out.WriteString(t)
		for j := 0; j < len(t); j++ {
			starts = append(starts, start)
			ends = append(ends, end)
			bounds = append(bounds, j == 0)
		}
	}
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if mode.collapse && unicode.IsSpace(r) {
			end := i + size
			if n := out.Len(); n > 0 && out.String()[n-1] == ' ' {
				ends[len(ends)-1] = end
			} else {
				emit(" ", i, end)
			}
			i = end
			continue
		}
		if r == utf8.RuneError && size == 1 {
			emit(s[i:i+1], i, i+1)
			i++
			continue
		}
		n := norm.NFKC.NextBoundaryInString(s[i:], true)
		if n <= 0 {
			n = size
		}
		end := i + n
		t := norm.NFKC.String(s[i:end])
		if mode.caseless {
			t = caser.String(t)
		}
		emit(t, i, end)
		i = end
	}
	bounds = append(bounds, true)
	return folded{text: out.String(), starts: starts, ends: ends, bounds: bounds}
}

// aligned reports whether [a, b) of the folded text starts and ends on
// segment boundaries.
func (f folded) aligned(a, b int) bool {
	return f.bounds[a] && f.bounds[b]
}

// span maps [a, b) of the folded text back to original offsets.
func (f folded) span(a, b int) (int, int) {
	return f.starts[a], f.ends[b-1]
}

// needle prepares the search form of a keyword or passage.
func needle(p Pattern) (string, foldMode) {
	mode := foldMode{caseless: p.CaseInsensitive}
	text := p.Text
	if p.Kind == Passage {
		mode = foldMode{caseless: true, collapse: true}
		text = strings.TrimSpace(text)
	}
	return fold(text, mode).text, mode
}
