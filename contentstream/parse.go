package contentstream

import (
	"bytes"
	"strconv"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokNumber
	tokName
	tokString
	tokArrayStart
	tokArrayEnd
	tokDictStart
	tokDictEnd
	tokKeyword
)

type token struct {
	kind tokenKind
	num  float64
	text string
	str  []byte
	hex  bool
	pos  int
}

// lexer tokenises content stream bytes held in memory.
type lexer struct {
	data []byte
	pos  int
}

func isWhitespace(c byte) bool {
	return c == 0x00 || c == 0x09 || c == 0x0A || c == 0x0C || c == 0x0D || c == 0x20
}

func isEOL(c byte) bool { return c == '\r' || c == '\n' }

func isDelimiter(c byte) bool {
	switch c {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	default:
		return isWhitespace(c)
	}
}

func (l *lexer) skipSpace() {
	for l.pos < len(l.data) {
		c := l.data[l.pos]
		if isWhitespace(c) {
			l.pos++
			continue
		}
		if c == '%' {
			for l.pos < len(l.data) && !isEOL(l.data[l.pos]) {
				l.pos++
			}
			continue
		}
		return
	}
}

func (l *lexer) next() (token, error) {
	l.skipSpace()
	if l.pos >= len(l.data) {
		return token{kind: tokEOF, pos: l.pos}, nil
	}
	start := l.pos
	c := l.data[l.pos]
	switch {
	case c == '/':
		return l.name(), nil
	case c == '(':
		return l.literal()
	case c == '<':
		if l.pos+1 < len(l.data) && l.data[l.pos+1] == '<' {
			l.pos += 2
			return token{kind: tokDictStart, pos: start}, nil
		}
		return l.hexString()
	case c == '>':
		if l.pos+1 < len(l.data) && l.data[l.pos+1] == '>' {
			l.pos += 2
			return token{kind: tokDictEnd, pos: start}, nil
		}
		return token{}, &SyntaxError{Offset: start, Msg: "unexpected '>'"}
	case c == '[':
		l.pos++
		return token{kind: tokArrayStart, pos: start}, nil
	case c == ']':
		l.pos++
		return token{kind: tokArrayEnd, pos: start}, nil
	case c == '{' || c == '}':
		// PostScript calculator braces only appear in functions; keep them as
		// keywords so the stream still round-trips.
		l.pos++
		return token{kind: tokKeyword, text: string(c), pos: start}, nil
	case c == ')':
		return token{}, &SyntaxError{Offset: start, Msg: "unbalanced ')'"}
	case c == '+' || c == '-' || c == '.' || (c >= '0' && c <= '9'):
		return l.number(), nil
	}
	for l.pos < len(l.data) && !isDelimiter(l.data[l.pos]) {
		l.pos++
	}
	return token{kind: tokKeyword, text: string(l.data[start:l.pos]), pos: start}, nil
}

func (l *lexer) number() token {
	start := l.pos
	for l.pos < len(l.data) && !isDelimiter(l.data[l.pos]) {
		l.pos++
	}
	raw := string(l.data[start:l.pos])
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		// Malformed numbers such as "--1" or "1.2.3" are read as zero,
		// matching common viewer behaviour.
		v = 0
	}
	return token{kind: tokNumber, num: v, text: raw, pos: start}
}

func fromHex(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	}
	return 0, false
}

func (l *lexer) name() token {
	start := l.pos
	l.pos++
	var out []byte
	for l.pos < len(l.data) {
		c := l.data[l.pos]
		if isDelimiter(c) {
			break
		}
		if c == '#' && l.pos+2 < len(l.data) {
			a, ok1 := fromHex(l.data[l.pos+1])
			b, ok2 := fromHex(l.data[l.pos+2])
			if ok1 && ok2 {
				out = append(out, a<<4|b)
				l.pos += 3
				continue
			}
		}
		out = append(out, c)
		l.pos++
	}
	return token{kind: tokName, text: string(out), pos: start}
}

func translateEscape(c byte) byte {
	switch c {
	case 'n':
		return '\n'
	case 'r':
		return '\r'
	case 't':
		return '\t'
	case 'b':
		return '\b'
	case 'f':
		return '\f'
	default:
		return c
	}
}

func (l *lexer) literal() (token, error) {
	start := l.pos
	l.pos++
	var buf bytes.Buffer
	depth := 1
	for l.pos < len(l.data) {
		c := l.data[l.pos]
		switch c {
		case '\\':
			l.pos++
			if l.pos >= len(l.data) {
				return token{}, &SyntaxError{Offset: start, Msg: "unterminated literal string"}
			}
			esc := l.data[l.pos]
			switch {
			case esc == '\r':
				l.pos++
				if l.pos < len(l.data) && l.data[l.pos] == '\n' {
					l.pos++
				}
			case esc == '\n':
				l.pos++
			case esc >= '0' && esc <= '7':
				val := int(esc - '0')
				l.pos++
				for k := 0; k < 2 && l.pos < len(l.data); k++ {
					d := l.data[l.pos]
					if d < '0' || d > '7' {
						break
					}
					val = val<<3 + int(d-'0')
					l.pos++
				}
				buf.WriteByte(byte(val))
			default:
				buf.WriteByte(translateEscape(esc))
				l.pos++
			}
			continue
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				l.pos++
				return token{kind: tokString, str: buf.Bytes(), pos: start}, nil
			}
		}
		buf.WriteByte(c)
		l.pos++
	}
	return token{}, &SyntaxError{Offset: start, Msg: "unterminated literal string"}
}

func (l *lexer) hexString() (token, error) {
	start := l.pos
	l.pos++
	var nibbles []byte
	for l.pos < len(l.data) {
		c := l.data[l.pos]
		l.pos++
		if c == '>' {
			if len(nibbles)%2 == 1 {
				nibbles = append(nibbles, 0)
			}
			out := make([]byte, len(nibbles)/2)
			for i := range out {
				out[i] = nibbles[2*i]<<4 | nibbles[2*i+1]
			}
			return token{kind: tokString, str: out, hex: true, pos: start}, nil
		}
		if isWhitespace(c) {
			continue
		}
		v, ok := fromHex(c)
		if !ok {
			return token{}, &SyntaxError{Offset: l.pos - 1, Msg: "bad hex digit"}
		}
		nibbles = append(nibbles, v)
	}
	return token{}, &SyntaxError{Offset: start, Msg: "unterminated hex string"}
}

// inlineData reads the bytes after ID up to the EI that ends the image. EI
// must be preceded by whitespace and followed by a delimiter or the end of
// the stream.
func (l *lexer) inlineData() ([]byte, error) {
	start := l.pos
	if l.pos < len(l.data) && isWhitespace(l.data[l.pos]) {
		l.pos++
	}
	dataStart := l.pos
	for i := dataStart; i+1 < len(l.data); i++ {
		if l.data[i] != 'E' || l.data[i+1] != 'I' {
			continue
		}
		if i == dataStart || !isWhitespace(l.data[i-1]) {
			continue
		}
		if i+2 < len(l.data) && !isDelimiter(l.data[i+2]) {
			continue
		}
		end := i - 1
		if end > dataStart && l.data[end-1] == '\r' && l.data[end] == '\n' {
			end--
		}
		l.pos = i + 2
		return append([]byte(nil), l.data[dataStart:end]...), nil
	}
	return nil, &SyntaxError{Offset: start, Msg: "unterminated inline image"}
}

type parser struct {
	lx *lexer
}

// Parse splits content into operations. Operands left without an operator
// at the end of the stream are dropped.
func Parse(data []byte) ([]Operation, error) {
	p := &parser{lx: &lexer{data: data}}
	var ops []Operation
	var operands []Operand
	for {
		tok, err := p.lx.next()
		if err != nil {
			return ops, err
		}
		switch tok.kind {
		case tokEOF:
			return ops, nil
		case tokKeyword:
			switch tok.text {
			case "true", "false":
				operands = append(operands, BoolOperand{Value: tok.text == "true"})
				continue
			case "null":
				operands = append(operands, NullOperand{})
				continue
			case "BI":
				img, err := p.inlineImage()
				if err != nil {
					return ops, err
				}
				ops = append(ops, Operation{Operator: "BI", Operands: []Operand{img}})
				operands = nil
				continue
			}
			ops = append(ops, Operation{Operator: tok.text, Operands: operands})
			operands = nil
		default:
			v, err := p.value(tok)
			if err != nil {
				return ops, err
			}
			operands = append(operands, v)
		}
	}
}

func (p *parser) value(tok token) (Operand, error) {
	switch tok.kind {
	case tokNumber:
		return NumberOperand{Value: tok.num}, nil
	case tokName:
		return NameOperand{Value: tok.text}, nil
	case tokString:
		return StringOperand{Value: tok.str, Hex: tok.hex}, nil
	case tokArrayStart:
		var arr ArrayOperand
		for {
			t, err := p.lx.next()
			if err != nil {
				return nil, err
			}
			if t.kind == tokArrayEnd {
				return arr, nil
			}
			if t.kind == tokEOF {
				return nil, &SyntaxError{Offset: tok.pos, Msg: "unterminated array"}
			}
			v, err := p.value(t)
			if err != nil {
				return nil, err
			}
			arr.Values = append(arr.Values, v)
		}
	case tokDictStart:
		d, err := p.dict(tokDictEnd, "")
		if err != nil {
			return nil, err
		}
		return d, nil
	case tokKeyword:
		switch tok.text {
		case "true", "false":
			return BoolOperand{Value: tok.text == "true"}, nil
		case "null":
			return NullOperand{}, nil
		}
	}
	return nil, &SyntaxError{Offset: tok.pos, Msg: "unexpected token"}
}

// dict reads key/value pairs until the closing token, or until the keyword
// stop when stop is set.
func (p *parser) dict(end tokenKind, stop string) (DictOperand, error) {
	d := DictOperand{Values: make(map[string]Operand)}
	for {
		t, err := p.lx.next()
		if err != nil {
			return d, err
		}
		if stop != "" && t.kind == tokKeyword && t.text == stop {
			return d, nil
		}
		if stop == "" && t.kind == end {
			return d, nil
		}
		if t.kind == tokEOF {
			return d, &SyntaxError{Offset: t.pos, Msg: "unterminated dictionary"}
		}
		if t.kind != tokName {
			return d, &SyntaxError{Offset: t.pos, Msg: "dictionary key is not a name"}
		}
		vt, err := p.lx.next()
		if err != nil {
			return d, err
		}
		v, err := p.value(vt)
		if err != nil {
			return d, err
		}
		if _, dup := d.Values[t.text]; !dup {
			d.Keys = append(d.Keys, t.text)
		}
		d.Values[t.text] = v
	}
}

func (p *parser) inlineImage() (InlineImageOperand, error) {
	d, err := p.dict(tokEOF, "ID")
	if err != nil {
		return InlineImageOperand{}, err
	}
	data, err := p.lx.inlineData()
	if err != nil {
		return InlineImageOperand{}, err
	}
	return InlineImageOperand{Image: d, Data: data}, nil
}
