package pattern_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wudi/pdfredact/geom"
	"github.com/wudi/pdfredact/pattern"
	"github.com/wudi/pdfredact/textlayer"
)

// page lays text out with 10pt wide cells per byte and 20pt per line.
func page(text string) textlayer.PageText {
	b := textlayer.NewBuilder(0, 612, 792)
	line, col := 0, 0
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			b.Separator("\n")
			line, col = line+1, 0
			continue
		}
		x := float64(col * 10)
		y := float64(100 + line*20)
		b.Add(text[i:i+1], geom.R(x, y, x+10, y+12))
		col++
	}
	return b.PageText()
}

func texts(spans []pattern.Span) []string {
	out := make([]string, len(spans))
	for i, s := range spans {
		out[i] = s.Text
	}
	return out
}

func TestKeywordCaseInsensitive(t *testing.T) {
	m := pattern.NewMatcher()
	spans, errs := m.Match(page("Hello hello HELLO"), []pattern.Pattern{pattern.NewKeyword("hello", true)})
	require.Empty(t, errs)
	assert.Equal(t, []string{"Hello", "hello", "HELLO"}, texts(spans))
	assert.Equal(t, 6, spans[1].Start)
	assert.Equal(t, 11, spans[1].End)
}

func TestKeywordCaseSensitive(t *testing.T) {
	m := pattern.NewMatcher()
	spans, _ := m.Match(page("Hello hello"), []pattern.Pattern{pattern.NewKeyword("hello", false)})
	assert.Equal(t, []string{"hello"}, texts(spans))
}

func TestKeywordGreedyNonOverlapping(t *testing.T) {
	m := pattern.NewMatcher()
	spans, _ := m.Match(page("AAA"), []pattern.Pattern{pattern.NewKeyword("AA", true)})
	require.Len(t, spans, 1)
	assert.Equal(t, 0, spans[0].Start)
	assert.Equal(t, 2, spans[0].End)

	spans, _ = m.Match(page("AAAA"), []pattern.Pattern{pattern.NewKeyword("aa", true)})
	require.Len(t, spans, 2)
	assert.Equal(t, 2, spans[1].Start)
}

func TestKeywordPresentAlwaysMatchesWithoutOverlap(t *testing.T) {
	m := pattern.NewMatcher()
	cases := []struct{ text, kw string }{
		{"abcabcabc", "bca"},
		{"xx-XX-xx", "x-x"},
		{"SSN 123-45-6789 and 123-45-6789", "123-45-6789"},
		{"ééé", "éé"},
	}
	for _, tc := range cases {
		spans, _ := m.Match(page(tc.text), []pattern.Pattern{pattern.NewKeyword(tc.kw, true)})
		require.NotEmpty(t, spans, tc.text)
		found := false
		for i, s := range spans {
			if strings.EqualFold(s.Text, tc.kw) {
				found = true
			}
			if i > 0 {
				assert.False(t, spans[i-1].Overlaps(s), "%q: spans overlap", tc.text)
			}
		}
		assert.True(t, found, tc.text)
	}
}

func TestKeywordUnicodeFolding(t *testing.T) {
	m := pattern.NewMatcher()
	text := "the ﬁnancial report for STRASSE 5"
	spans, _ := m.Match(page(text), []pattern.Pattern{
		pattern.NewKeyword("financial", true),
		pattern.NewKeyword("straße", true),
	})
	assert.Equal(t, []string{"ﬁnancial", "STRASSE"}, texts(spans))
}

func TestKeywordInsideFoldExpansion(t *testing.T) {
	m := pattern.NewMatcher()
	spans, _ := m.Match(page("ß and ss"), []pattern.Pattern{pattern.NewKeyword("s", true)})
	require.Len(t, spans, 2, "no hit inside the folded ß")
	assert.Equal(t, []int{7, 8}, []int{spans[0].Start, spans[1].Start})
	assert.False(t, spans[0].Overlaps(spans[1]))

	spans, _ = m.Match(page("Straße"), []pattern.Pattern{pattern.NewKeyword("STRASSE", true)})
	require.Len(t, spans, 1)
	assert.Equal(t, "Straße", spans[0].Text)
}

func TestKeywordMatchesDecomposedText(t *testing.T) {
	m := pattern.NewMatcher()
	text := "caf" + "e\u0301" + " au lait"
	spans, _ := m.Match(page(text), []pattern.Pattern{pattern.NewKeyword("café", true)})
	require.Len(t, spans, 1)
	assert.Equal(t, "cafe\u0301", spans[0].Text)

	spans, _ = m.Match(page("café"), []pattern.Pattern{pattern.NewKeyword("cafe\u0301", false)})
	require.Len(t, spans, 1, "composed text, decomposed keyword")
	assert.Equal(t, 0, spans[0].Start)
	assert.Equal(t, len("café"), spans[0].End)

	spans, _ = m.Match(page(text), []pattern.Pattern{pattern.NewKeyword("cafe", true)})
	assert.Empty(t, spans, "the accent belongs to the e")
}

func TestPassageCollapsesWhitespace(t *testing.T) {
	text := "The quick\n  brown fox"
	m := pattern.NewMatcher()
	spans, _ := m.Match(page(text), []pattern.Pattern{pattern.NewPassage("  QUICK brown ")})
	require.Len(t, spans, 1)
	assert.Equal(t, 4, spans[0].Start)
	assert.Equal(t, 17, spans[0].End)
	assert.Equal(t, "quick\n  brown", spans[0].Text)
	assert.Len(t, spans[0].Rects, 2, "wrapped passage yields one box per line")
}

func TestRegexInvalidIsReportedAndSkipped(t *testing.T) {
	m := pattern.NewMatcher()
	spans, errs := m.Match(page("call 555-1234 now"), []pattern.Pattern{
		pattern.NewRegex("([unclosed", false),
		pattern.NewRegex(`\d{3}-\d{4}`, false),
	})
	require.Len(t, errs, 1)
	var pe *pattern.PatternError
	require.True(t, errors.As(errs[0], &pe))
	assert.Equal(t, 0, pe.Index)
	assert.True(t, errors.Is(errs[0], pattern.ErrInvalidRegex))
	assert.Equal(t, []string{"555-1234"}, texts(spans))
}

func TestRegexLookaheadFallsBack(t *testing.T) {
	m := pattern.NewMatcher()
	spans, errs := m.Match(page("width 20px 30em"), []pattern.Pattern{pattern.NewRegex(`\d+(?=px)`, false)})
	require.Empty(t, errs)
	assert.Equal(t, []string{"20"}, texts(spans))
	assert.Equal(t, 6, spans[0].Start)
}

func TestRegexFallbackOffsetsAreBytes(t *testing.T) {
	m := pattern.NewMatcher()
	text := "né 42px"
	spans, errs := m.Match(page(text), []pattern.Pattern{pattern.NewRegex(`\d+(?=px)`, false)})
	require.Empty(t, errs)
	require.Len(t, spans, 1)
	assert.Equal(t, "42", text[spans[0].Start:spans[0].End])
}

func TestRegexCaseInsensitive(t *testing.T) {
	m := pattern.NewMatcher()
	spans, _ := m.Match(page("mrn: 5512 and MRN 77"), []pattern.Pattern{pattern.NewRegex(`MRN[\s:]*\d+`, true)})
	assert.Equal(t, []string{"mrn: 5512", "MRN 77"}, texts(spans))
}

func TestOrderingIsDeterministic(t *testing.T) {
	m := pattern.NewMatcher()
	patterns := []pattern.Pattern{
		pattern.NewKeyword("ab", true),
		pattern.NewKeyword("abc", true),
		pattern.NewRegex("ab", false),
		pattern.NewKeyword("c", true),
	}
	spans, _ := m.Match(page("abc"), patterns)
	require.Len(t, spans, 4)
	assert.Equal(t, 1, spans[0].Pattern, "longer span first")
	assert.Equal(t, 0, spans[1].Pattern, "then pattern order")
	assert.Equal(t, 2, spans[2].Pattern)
	assert.Equal(t, 3, spans[3].Pattern)

	again, _ := m.Match(page("abc"), patterns)
	assert.Equal(t, spans, again)
}

func TestSpanGeometry(t *testing.T) {
	m := pattern.NewMatcher()
	spans, _ := m.Match(page("xx secret yy"), []pattern.Pattern{pattern.NewKeyword("secret", true)})
	require.Len(t, spans, 1)
	assert.Equal(t, geom.Rect{X0: 30, Y0: 100, X1: 90, Y1: 112}, spans[0].Rect)
	assert.Equal(t, []geom.Rect{spans[0].Rect}, spans[0].Rects)
}

func TestVersionStable(t *testing.T) {
	a := []pattern.Pattern{pattern.NewRegex("x", false), pattern.NewKeyword("y", true)}
	b := []pattern.Pattern{pattern.NewRegex("x", false), pattern.NewKeyword("y", true)}
	assert.Equal(t, pattern.Version(a), pattern.Version(b))
	b[1].CaseInsensitive = false
	assert.NotEqual(t, pattern.Version(a), pattern.Version(b))
}

func TestEmptyKeywordIgnored(t *testing.T) {
	m := pattern.NewMatcher()
	spans, errs := m.Match(page("anything"), []pattern.Pattern{pattern.NewKeyword("", true), pattern.NewPassage("   ")})
	assert.Empty(t, spans)
	assert.Empty(t, errs)
}
