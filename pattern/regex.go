package pattern

import (
	"regexp"
	"time"
	"unicode/utf8"

	"github.com/dlclark/regexp2"
)

// RegexTimeout bounds a single regexp2 evaluation.
const RegexTimeout = 2 * time.Second

// compiled is one regex prepared for matching. RE2 is preferred; regexp2
// runs expressions RE2 rejects, such as lookaround and backreferences.
type compiled struct {
	re  *regexp.Regexp
	bt  *regexp2.Regexp
	err error
}

func compileRegex(expr string, caseInsensitive bool) compiled {
	src := expr
	if caseInsensitive {
		src = "(?i)" + expr
	}
	re, err := regexp.Compile(src)
	if err == nil {
		return compiled{re: re}
	}
	opts := regexp2.None
	if caseInsensitive {
		opts |= regexp2.IgnoreCase
	}
	bt, btErr := regexp2.Compile(expr, opts)
	if btErr != nil {
		return compiled{err: err}
	}
	bt.MatchTimeout = RegexTimeout
	return compiled{bt: bt}
}

// find returns byte ranges of every non-empty match of group 0.
func (c compiled) find(text string) ([][2]int, error) {
	if c.re != nil {
		var out [][2]int
		for _, loc := range c.re.FindAllStringIndex(text, -1) {
			if loc[1] > loc[0] {
				out = append(out, [2]int{loc[0], loc[1]})
			}
		}
		return out, nil
	}
	offsets := runeOffsets(text)
	var out [][2]int
	m, err := c.bt.FindStringMatch(text)
	for m != nil && err == nil {
		if m.Length > 0 {
			out = append(out, [2]int{offsets[m.Index], offsets[m.Index+m.Length]})
		}
		m, err = c.bt.FindNextMatch(m)
	}
	return out, err
}

// runeOffsets maps rune index to byte offset, with a trailing entry for len(text).
func runeOffsets(text string) []int {
	out := make([]int, 0, utf8.RuneCountInString(text)+1)
	for i := range text {
		out = append(out, i)
	}
	return append(out, len(text))
}
