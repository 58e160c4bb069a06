package document

import (
	"bytes"
	"unicode/utf8"

	xunicode "golang.org/x/text/encoding/unicode"

	cs "github.com/wudi/pdfredact/contentstream"
)

// codespace is one codespacerange entry.
type codespace struct {
	lo, hi []byte
}

func (c codespace) match(s []byte) bool {
	if len(s) < len(c.lo) {
		return false
	}
	for i := range c.lo {
		if s[i] < c.lo[i] || s[i] > c.hi[i] {
			return false
		}
	}
	return true
}

// cmap is the part of a ToUnicode CMap needed to split and map codes.
type cmap struct {
	spaces []codespace
	chars  map[string]string
}

var utf16be = xunicode.UTF16(xunicode.BigEndian, xunicode.IgnoreBOM)

func utf16Text(b []byte) string {
	out, err := utf16be.NewDecoder().Bytes(b)
	if err != nil || !utf8.Valid(out) {
		return ""
	}
	return string(out)
}

// parseCMap reads codespace ranges and bfchar/bfrange mappings. The CMap
// body uses content stream syntax, so the content stream parser splits it.
func parseCMap(data []byte) *cmap {
	cm := &cmap{chars: make(map[string]string)}
	ops, _ := cs.Parse(data)
	for _, op := range ops {
		args := op.Operands
		switch op.Operator {
		case "endcodespacerange":
			for i := 0; i+1 < len(args); i += 2 {
				lo, ok1 := args[i].(cs.StringOperand)
				hi, ok2 := args[i+1].(cs.StringOperand)
				if ok1 && ok2 && len(lo.Value) == len(hi.Value) && len(lo.Value) > 0 {
					cm.spaces = append(cm.spaces, codespace{lo: lo.Value, hi: hi.Value})
				}
			}
		case "endbfchar":
			for i := 0; i+1 < len(args); i += 2 {
				src, ok1 := args[i].(cs.StringOperand)
				dst, ok2 := args[i+1].(cs.StringOperand)
				if ok1 && ok2 {
					cm.chars[string(src.Value)] = utf16Text(dst.Value)
				}
			}
		case "endbfrange":
			for i := 0; i+2 < len(args); i += 3 {
				lo, ok1 := args[i].(cs.StringOperand)
				hi, ok2 := args[i+1].(cs.StringOperand)
				if !ok1 || !ok2 || len(lo.Value) != len(hi.Value) || len(lo.Value) == 0 {
					continue
				}
				cm.addRange(lo.Value, hi.Value, args[i+2])
			}
		}
	}
	return cm
}

// maxRange bounds a single bfrange so a corrupt CMap cannot allocate
// unbounded maps.
const maxRange = 1 << 16

func (cm *cmap) addRange(lo, hi []byte, dst cs.Operand) {
	code := append([]byte(nil), lo...)
	for n := 0; n < maxRange && bytes.Compare(code, hi) <= 0; n++ {
		switch v := dst.(type) {
		case cs.StringOperand:
			cm.chars[string(code)] = utf16Text(offsetLast(v.Value, n))
		case cs.ArrayOperand:
			if n < len(v.Values) {
				if s, ok := v.Values[n].(cs.StringOperand); ok {
					cm.chars[string(code)] = utf16Text(s.Value)
				}
			}
		}
		if !increment(code) {
			break
		}
	}
}

// offsetLast adds n to the last UTF-16 unit of b.
func offsetLast(b []byte, n int) []byte {
	out := append([]byte(nil), b...)
	if len(out) < 2 {
		return out
	}
	v := int(out[len(out)-2])<<8 | int(out[len(out)-1])
	v += n
	out[len(out)-2], out[len(out)-1] = byte(v>>8), byte(v)
	return out
}

func increment(b []byte) bool {
	for i := len(b) - 1; i >= 0; i-- {
		b[i]++
		if b[i] != 0 {
			return true
		}
	}
	return false
}

// split breaks s into codes using the codespace ranges, falling back to
// width bytes per code.
func (cm *cmap) split(s []byte, width int) [][]byte {
	var out [][]byte
	for len(s) > 0 {
		n := 0
		if cm != nil {
			for _, sp := range cm.spaces {
				if sp.match(s) {
					n = len(sp.lo)
					break
				}
			}
		}
		if n == 0 {
			n = min(width, len(s))
		}
		out = append(out, s[:n])
		s = s[n:]
	}
	return out
}

func (cm *cmap) lookup(code []byte) (string, bool) {
	if cm == nil {
		return "", false
	}
	t, ok := cm.chars[string(code)]
	return t, ok
}
