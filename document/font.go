package document

import (
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	cs "github.com/wudi/pdfredact/contentstream"
)

// Font carries the metrics and text mapping of a font resource. It
// satisfies contentstream.Font.
type Font struct {
	Subtype  string
	BaseFont string

	// codeWidth is the byte length of a code when the CMap has no
	// codespace ranges.
	codeWidth int
	widths    map[int]float64
	missing   float64
	fallback  func(code int) float64
	// scale converts glyph space widths to thousandths of text space.
	scale float64

	descent, ascent float64

	toUnicode *cmap
	encoding  func(byte) string
	diffs     map[int]string
}

func loadFont(d *Document, fd types.Dict) *Font {
	f := &Font{
		Subtype:   d.name(fd["Subtype"]),
		BaseFont:  d.name(fd["BaseFont"]),
		codeWidth: 1,
		widths:    make(map[int]float64),
		scale:     1,
	}
	if sd, _, err := d.stream(fd["ToUnicode"]); err == nil {
		f.toUnicode = parseCMap(sd.Content)
	}

	std, desc, asc := standardMetrics(f.BaseFont)
	f.descent, f.ascent = desc, asc

	switch f.Subtype {
	case "Type0":
		f.codeWidth = 2
		f.missing = 1000
		var cid types.Dict
		if arr := d.array(fd["DescendantFonts"]); len(arr) > 0 {
			cid = d.dict(arr[0])
		}
		if cid != nil {
			f.missing = d.numberOr(cid["DW"], 1000)
			f.loadCIDWidths(d, cid["W"])
			f.loadDescriptor(d, cid["FontDescriptor"])
		}
		return f
	case "Type3":
		m := d.numbers(fd["FontMatrix"])
		if len(m) == 6 && m[0] != 0 {
			f.scale = m[0] * 1000
		} else {
			f.scale = 1
		}
		f.descent, f.ascent = -200, 800
	}

	first := int(d.numberOr(fd["FirstChar"], 0))
	widths := d.numbers(fd["Widths"])
	for i, w := range widths {
		f.widths[first+i] = w
	}
	if len(widths) == 0 && f.Subtype != "Type3" {
		f.fallback = std
	}
	f.loadDescriptor(d, fd["FontDescriptor"])
	f.loadEncoding(d, fd["Encoding"])
	return f
}

func (f *Font) loadDescriptor(d *Document, o types.Object) {
	fd := d.dict(o)
	if fd == nil {
		return
	}
	f.missing = d.numberOr(fd["MissingWidth"], f.missing)
	asc, okA := d.number(fd["Ascent"])
	desc, okD := d.number(fd["Descent"])
	if okA && okD && asc > desc && asc != 0 {
		f.ascent, f.descent = asc, desc
	}
}

func (f *Font) loadCIDWidths(d *Document, o types.Object) {
	w := d.array(o)
	for i := 0; i < len(w); {
		start, ok := d.number(w[i])
		if !ok || i+1 >= len(w) {
			return
		}
		if list := d.array(w[i+1]); list != nil {
			for k, v := range list {
				n, _ := d.number(v)
				f.widths[int(start)+k] = n
			}
			i += 2
			continue
		}
		if i+2 >= len(w) {
			return
		}
		end, _ := d.number(w[i+1])
		n, _ := d.number(w[i+2])
		for c := int(start); c <= int(end) && c-int(start) < maxRange; c++ {
			f.widths[c] = n
		}
		i += 3
	}
}

func (f *Font) loadEncoding(d *Document, o types.Object) {
	switch v := d.resolve(o).(type) {
	case types.Name:
		f.encoding = baseEncoding(string(v))
	case types.Dict:
		f.encoding = baseEncoding(d.name(v["BaseEncoding"]))
		code := 0
		for _, it := range d.array(v["Differences"]) {
			if n, ok := d.number(it); ok {
				code = int(n)
				continue
			}
			if name := d.name(it); name != "" {
				if f.diffs == nil {
					f.diffs = make(map[int]string)
				}
				f.diffs[code] = glyphText(name)
				code++
			}
		}
	default:
		f.encoding = baseEncoding("")
	}
}

func (f *Font) Extent() (float64, float64) { return f.descent, f.ascent }

// Decode splits s into character codes with widths and text.
func (f *Font) Decode(s []byte) []cs.Char {
	var codes [][]byte
	if f.Subtype == "Type0" {
		codes = f.toUnicode.split(s, f.codeWidth)
	} else {
		for i := range s {
			codes = append(codes, s[i:i+1])
		}
	}
	out := make([]cs.Char, 0, len(codes))
	for _, c := range codes {
		code := 0
		for _, b := range c {
			code = code<<8 | int(b)
		}
		out = append(out, cs.Char{
			Code:  c,
			Width: f.width(code),
			Text:  f.text(c, code),
			Space: len(c) == 1 && c[0] == ' ',
		})
	}
	return out
}

func (f *Font) width(code int) float64 {
	if w, ok := f.widths[code]; ok {
		return w * f.scale
	}
	if f.fallback != nil {
		return f.fallback(code)
	}
	return f.missing * f.scale
}

func (f *Font) text(c []byte, code int) string {
	if t, ok := f.toUnicode.lookup(c); ok {
		return t
	}
	if f.Subtype == "Type0" {
		return ""
	}
	if t, ok := f.diffs[code]; ok && t != "" {
		return t
	}
	if f.encoding != nil {
		return f.encoding(c[0])
	}
	return ""
}
