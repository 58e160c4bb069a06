package pattern

import (
	"encoding/binary"
	"strings"
	"sync"

	"golang.org/x/crypto/blake2b"

	"github.com/wudi/pdfredact/observability"
	"github.com/wudi/pdfredact/textlayer"
)

const maxCachedVersions = 16

// Matcher runs patterns against page text. Regexes are compiled once per
// distinct pattern list and reused across pages. A Matcher is safe for
// concurrent use.
type Matcher struct {
	mu     sync.Mutex
	cache  map[[32]byte][]compiled
	logger observability.Logger
}

// MatcherOption configures a Matcher.
type MatcherOption func(*Matcher)

func WithLogger(l observability.Logger) MatcherOption {
	return func(m *Matcher) {
		if l != nil {
			m.logger = l
		}
	}
}

func NewMatcher(opts ...MatcherOption) *Matcher {
	m := &Matcher{cache: make(map[[32]byte][]compiled), logger: observability.NopLogger{}}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Version identifies a pattern list; equal lists share compiled regexes.
func Version(patterns []Pattern) [32]byte {
	h, _ := blake2b.New256(nil)
	var buf [10]byte
	for _, p := range patterns {
		buf[0] = byte(p.Kind)
		buf[1] = 0
		if p.CaseInsensitive {
			buf[1] = 1
		}
		binary.BigEndian.PutUint64(buf[2:], uint64(len(p.Text)))
		h.Write(buf[:])
		h.Write([]byte(p.Text))
	}
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

func (m *Matcher) compiledFor(patterns []Pattern) []compiled {
	key := Version(patterns)
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.cache[key]; ok {
		return c
	}
	out := make([]compiled, len(patterns))
	for i, p := range patterns {
		if p.Kind == Regex {
			out[i] = compileRegex(p.Text, p.CaseInsensitive)
		}
	}
	if len(m.cache) >= maxCachedVersions {
		clear(m.cache)
	}
	m.cache[key] = out
	return out
}

// Match returns every span produced by patterns on page, ordered by start
// offset, longer spans first, then pattern order. Invalid regexes are
// reported as *PatternError and skipped.
func (m *Matcher) Match(page textlayer.PageText, patterns []Pattern) ([]Span, []error) {
	regexes := m.compiledFor(patterns)
	folds := make(map[foldMode]folded, 2)
	foldedText := func(mode foldMode) folded {
		f, ok := folds[mode]
		if !ok {
			f = fold(page.Text, mode)
			folds[mode] = f
		}
		return f
	}

	var (
		spans []Span
		errs  []error
	)
	for i, p := range patterns {
		switch p.Kind {
		case Keyword, Passage:
			n, mode := needle(p)
			if strings.TrimSpace(n) == "" {
				continue
			}
			hay := foldedText(mode)
			for _, r := range findAll(hay, n) {
				start, end := hay.span(r[0], r[1])
				spans = append(spans, newSpan(page, start, end, i, p.Kind))
			}
		case Regex:
			c := regexes[i]
			if c.err != nil {
				errs = append(errs, m.report(i, p, c.err))
				continue
			}
			ranges, err := c.find(page.Text)
			if err != nil {
				errs = append(errs, m.report(i, p, err))
			}
			for _, r := range ranges {
				spans = append(spans, newSpan(page, r[0], r[1], i, p.Kind))
			}
		}
	}
	sortSpans(spans)
	return spans, errs
}

func (m *Matcher) report(i int, p Pattern, err error) error {
	pe := &PatternError{Index: i, Expr: p.Text, Err: err}
	m.logger.Warn("pattern skipped", observability.Int("index", i), observability.String("expr", p.Text), observability.Error("error", err))
	return pe
}

// findAll scans left to right; each hit resumes after its end, so
// occurrences never overlap. Hits that cut into a folded segment, such as
// one letter of the "ss" that "ß" folds to, are skipped.
func findAll(hay folded, needle string) [][2]int {
	var out [][2]int
	for pos := 0; pos <= len(hay.text)-len(needle); {
		idx := strings.Index(hay.text[pos:], needle)
		if idx < 0 {
			break
		}
		start := pos + idx
		if !hay.aligned(start, start+len(needle)) {
			pos = start + 1
			continue
		}
		out = append(out, [2]int{start, start + len(needle)})
		pos = start + len(needle)
	}
	return out
}

func newSpan(page textlayer.PageText, start, end, idx int, kind Kind) Span {
	return Span{
		Page:    page.Index,
		Start:   start,
		End:     end,
		Rect:    page.Bounds(start, end),
		Rects:   page.Fragments(start, end),
		Text:    page.Text[start:end],
		Pattern: idx,
		Kind:    kind,
	}
}
