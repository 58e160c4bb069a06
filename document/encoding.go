package document

import (
	"strconv"
	"strings"

	"golang.org/x/text/encoding/charmap"
)

// baseEncoding maps single byte codes to text for a named encoding.
func baseEncoding(name string) func(byte) string {
	var cm *charmap.Charmap
	switch name {
	case "MacRomanEncoding":
		cm = charmap.Macintosh
	default:
		// WinAnsi, and the best available stand-in for StandardEncoding and
		// symbolic fonts without a ToUnicode map.
		cm = charmap.Windows1252
	}
	return func(b byte) string {
		if b < 0x20 {
			return ""
		}
		r := cm.DecodeByte(b)
		if r == 0xfffd {
			return ""
		}
		return string(r)
	}
}

var glyphNames = map[string]string{
	"space": " ", "exclam": "!", "quotedbl": "\"", "numbersign": "#",
	"dollar": "$", "percent": "%", "ampersand": "&", "quotesingle": "'",
	"quoteright": "’", "quoteleft": "‘", "parenleft": "(",
	"parenright": ")", "asterisk": "*", "plus": "+", "comma": ",",
	"hyphen": "-", "minus": "−", "period": ".", "slash": "/",
	"zero": "0", "one": "1", "two": "2", "three": "3", "four": "4",
	"five": "5", "six": "6", "seven": "7", "eight": "8", "nine": "9",
	"colon": ":", "semicolon": ";", "less": "<", "equal": "=",
	"greater": ">", "question": "?", "at": "@", "bracketleft": "[",
	"backslash": "\\", "bracketright": "]", "asciicircum": "^",
	"underscore": "_", "grave": "`", "braceleft": "{", "bar": "|",
	"braceright": "}", "asciitilde": "~", "bullet": "•",
	"endash": "–", "emdash": "—", "quotedblleft": "“",
	"quotedblright": "”", "ellipsis": "…", "fi": "fi", "fl": "fl",
	"ff": "ff", "ffi": "ffi", "ffl": "ffl", "copyright": "©",
	"registered": "®", "trademark": "™", "degree": "°",
	"section": "§", "paragraph": "¶", "nbspace": " ",
	"eacute": "é", "egrave": "è", "aacute": "á",
	"agrave": "à", "udieresis": "ü", "odieresis": "ö",
	"adieresis": "ä", "germandbls": "ß", "ccedilla": "ç",
	"ntilde": "ñ",
}

// glyphText resolves a glyph name from an /Encoding /Differences array.
func glyphText(name string) string {
	if t, ok := glyphNames[name]; ok {
		return t
	}
	if len(name) == 1 {
		return name
	}
	if base, _, ok := strings.Cut(name, "."); ok && base != "" {
		return glyphText(base)
	}
	if hex, ok := strings.CutPrefix(name, "uni"); ok && len(hex) >= 4 && len(hex)%4 == 0 {
		var b strings.Builder
		for i := 0; i < len(hex); i += 4 {
			v, err := strconv.ParseUint(hex[i:i+4], 16, 32)
			if err != nil {
				return ""
			}
			b.WriteRune(rune(v))
		}
		return b.String()
	}
	if hex, ok := strings.CutPrefix(name, "u"); ok && len(hex) >= 4 && len(hex) <= 6 {
		if v, err := strconv.ParseUint(hex, 16, 32); err == nil {
			return string(rune(v))
		}
	}
	return ""
}

// helveticaWidths covers codes 32 to 126.
var helveticaWidths = [...]float64{
	278, 278, 355, 556, 556, 889, 667, 191, 333, 333, 389, 584, 278, 333, 278, 278,
	556, 556, 556, 556, 556, 556, 556, 556, 556, 556, 278, 278, 584, 584, 584, 556,
	1015, 667, 667, 722, 722, 667, 611, 778, 722, 278, 500, 667, 556, 833, 722, 778,
	667, 778, 722, 667, 611, 722, 667, 944, 667, 667, 611, 278, 278, 278, 469, 556,
	333, 556, 556, 500, 556, 556, 278, 556, 556, 222, 222, 500, 222, 833, 556, 556,
	556, 556, 333, 500, 278, 556, 500, 722, 500, 500, 500, 334, 260, 334, 584,
}

// standardMetrics returns widths and extent for standard 14 fonts that
// carry no /Widths.
func standardMetrics(base string) (width func(code int) float64, descent, ascent float64) {
	base = strings.TrimPrefix(base, "*")
	if i := strings.IndexByte(base, '+'); i == 6 {
		base = base[i+1:]
	}
	switch {
	case strings.HasPrefix(base, "Courier"):
		return func(int) float64 { return 600 }, -157, 629
	case strings.HasPrefix(base, "Helvetica"), strings.HasPrefix(base, "Arial"):
		return func(code int) float64 {
			if code >= 32 && code-32 < len(helveticaWidths) {
				return helveticaWidths[code-32]
			}
			return 556
		}, -207, 718
	}
	return func(int) float64 { return 500 }, -250, 750
}
