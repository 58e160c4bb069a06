package contentstream

import (
	"bytes"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Serialize writes operations back to content stream syntax, one per line.
func Serialize(ops []Operation) []byte {
	var buf bytes.Buffer
	for _, op := range ops {
		writeOperation(&buf, op)
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

func SerializeOperation(op Operation) []byte {
	var buf bytes.Buffer
	writeOperation(&buf, op)
	return buf.Bytes()
}

func writeOperation(buf *bytes.Buffer, op Operation) {
	if op.Operator == "BI" && len(op.Operands) == 1 {
		if img, ok := op.Operands[0].(InlineImageOperand); ok {
			buf.WriteString("BI")
			for _, k := range dictKeys(img.Image) {
				buf.WriteString(" /")
				buf.WriteString(escapeName(k))
				buf.WriteByte(' ')
				writeOperand(buf, img.Image.Values[k])
			}
			buf.WriteString(" ID ")
			buf.Write(img.Data)
			buf.WriteString("\nEI")
			return
		}
	}
	for _, o := range op.Operands {
		writeOperand(buf, o)
		buf.WriteByte(' ')
	}
	buf.WriteString(op.Operator)
}

func writeOperand(buf *bytes.Buffer, op Operand) {
	switch v := op.(type) {
	case NumberOperand:
		buf.WriteString(FormatNumber(v.Value))
	case NameOperand:
		buf.WriteByte('/')
		buf.WriteString(escapeName(v.Value))
	case StringOperand:
		if v.Hex {
			fmt.Fprintf(buf, "<%X>", v.Value)
		} else {
			buf.Write(escapeLiteralString(v.Value))
		}
	case BoolOperand:
		buf.WriteString(strconv.FormatBool(v.Value))
	case ArrayOperand:
		buf.WriteByte('[')
		for i, it := range v.Values {
			if i > 0 {
				buf.WriteByte(' ')
			}
			writeOperand(buf, it)
		}
		buf.WriteByte(']')
	case DictOperand:
		buf.WriteString("<<")
		for _, k := range dictKeys(v) {
			buf.WriteString("/" + escapeName(k) + " ")
			writeOperand(buf, v.Values[k])
		}
		buf.WriteString(">>")
	default:
		buf.WriteString("null")
	}
}

// dictKeys returns the recorded key order, then any keys added later.
func dictKeys(d DictOperand) []string {
	keys := make([]string, 0, len(d.Values))
	seen := make(map[string]bool, len(d.Values))
	for _, k := range d.Keys {
		if _, ok := d.Values[k]; ok && !seen[k] {
			keys = append(keys, k)
			seen[k] = true
		}
	}
	var extra []string
	for k := range d.Values {
		if !seen[k] {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	return append(keys, extra...)
}

// FormatNumber prints v without exponent, trimmed to six decimals.
func FormatNumber(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "0"
	}
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return strconv.FormatInt(int64(v), 10)
	}
	s := strconv.FormatFloat(v, 'f', 6, 64)
	s = strings.TrimRight(s, "0")
	s = strings.TrimSuffix(s, ".")
	if s == "-0" || s == "" {
		return "0"
	}
	return s
}

func escapeName(n string) string {
	var b strings.Builder
	for i := 0; i < len(n); i++ {
		c := n[i]
		if c < 0x21 || c > 0x7e || c == '#' || isDelimiter(c) {
			fmt.Fprintf(&b, "#%02X", c)
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

func escapeLiteralString(raw []byte) []byte {
	var b bytes.Buffer
	b.WriteByte('(')
	for _, ch := range raw {
		switch ch {
		case '\\', '(', ')':
			b.WriteByte('\\')
			b.WriteByte(ch)
		case '\n':
			b.WriteString("\\n")
		case '\r':
			b.WriteString("\\r")
		case '\t':
			b.WriteString("\\t")
		case '\b':
			b.WriteString("\\b")
		case '\f':
			b.WriteString("\\f")
		default:
			if ch < 0x20 || ch >= 0x80 {
				fmt.Fprintf(&b, "\\%03o", ch)
			} else {
				b.WriteByte(ch)
			}
		}
	}
	b.WriteByte(')')
	return b.Bytes()
}
