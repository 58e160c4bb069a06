// Package pattern finds redaction candidates in page text and filters them
// against exclusions.
package pattern

import (
	"fmt"
	"strings"
)

// Kind tags the matching strategy of a Pattern.
type Kind int

const (
	Keyword Kind = iota
	Passage
	Regex
)

func (k Kind) String() string {
	switch k {
	case Keyword:
		return "keyword"
	case Passage:
		return "passage"
	case Regex:
		return "regex"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Pattern is one matching rule. It carries no runtime state; compiled
// regexes live in the Matcher.
type Pattern struct {
	Kind            Kind
	Text            string
	CaseInsensitive bool
}

func NewKeyword(text string, caseInsensitive bool) Pattern {
	return Pattern{Kind: Keyword, Text: text, CaseInsensitive: caseInsensitive}
}

// NewPassage returns a passage pattern. Passages always compare without case.
func NewPassage(text string) Pattern {
	return Pattern{Kind: Passage, Text: text, CaseInsensitive: true}
}

func NewRegex(expr string, caseInsensitive bool) Pattern {
	return Pattern{Kind: Regex, Text: expr, CaseInsensitive: caseInsensitive}
}

func (p Pattern) String() string { return p.Kind.String() + ":" + p.Text }

// Set is the full rule configuration for a document.
type Set struct {
	Redact  []Pattern
	Exclude []Pattern
}

func (s Set) Empty() bool { return len(s.Redact) == 0 && len(s.Exclude) == 0 }

func (s Set) Clone() Set {
	return Set{
		Redact:  append([]Pattern(nil), s.Redact...),
		Exclude: append([]Pattern(nil), s.Exclude...),
	}
}

// Merge appends the patterns of o that s does not already hold.
func (s Set) Merge(o Set) Set {
	out := s.Clone()
	out.Redact = appendUnique(out.Redact, o.Redact...)
	out.Exclude = appendUnique(out.Exclude, o.Exclude...)
	return out
}

func appendUnique(dst []Pattern, src ...Pattern) []Pattern {
	seen := make(map[Pattern]bool, len(dst))
	for _, p := range dst {
		seen[p] = true
	}
	for _, p := range src {
		if seen[p] {
			continue
		}
		seen[p] = true
		dst = append(dst, p)
	}
	return dst
}

// File is the on-disk shape of pattern and exclusion files.
type File struct {
	Keywords []string `json:"keywords" yaml:"keywords"`
	Passages []string `json:"passages" yaml:"passages"`
	Regex    []string `json:"regex,omitempty" yaml:"regex,omitempty"`
}

// Patterns converts the file into patterns in file order: keywords, then
// passages, then regexes. Blank entries are dropped.
func (f File) Patterns() []Pattern {
	var out []Pattern
	for _, k := range f.Keywords {
		if strings.TrimSpace(k) != "" {
			out = append(out, NewKeyword(k, true))
		}
	}
	for _, p := range f.Passages {
		if strings.TrimSpace(p) != "" {
			out = append(out, NewPassage(p))
		}
	}
	for _, r := range f.Regex {
		if r != "" {
			out = append(out, NewRegex(r, false))
		}
	}
	return out
}

// FileOf groups patterns back into file form, preserving their order.
func FileOf(patterns []Pattern) File {
	f := File{Keywords: []string{}, Passages: []string{}}
	for _, p := range patterns {
		switch p.Kind {
		case Keyword:
			f.Keywords = append(f.Keywords, p.Text)
		case Passage:
			f.Passages = append(f.Passages, p.Text)
		case Regex:
			f.Regex = append(f.Regex, p.Text)
		}
	}
	return f
}

// SplitLines returns a copy of f with every multi-line passage split into
// its non-blank lines.
func (f File) SplitLines() File {
	out := File{Keywords: append([]string{}, f.Keywords...), Regex: append([]string(nil), f.Regex...)}
	out.Passages = []string{}
	for _, p := range f.Passages {
		for _, line := range strings.Split(p, "\n") {
			if line = strings.TrimSpace(line); line != "" {
				out.Passages = append(out.Passages, line)
			}
		}
	}
	return out
}
