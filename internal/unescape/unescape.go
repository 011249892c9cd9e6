// Package unescape provides the lookup tables shared by the JSON5 string
// tokenizer and writer.
package unescape

// Hex returns the value of the hexadecimal digit c.
func Hex(c byte) (v byte, ok bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}

// Hex4 decodes the four hexadecimal digits in b.
func Hex4(b [4]byte) (r rune, ok bool) {
	for _, c := range b {
		v, ok := Hex(c)
		if !ok {
			return 0, false
		}
		r = r<<4 | rune(v)
	}
	return r, true
}

// Single returns the byte a single-character escape sequence \c stands for.
// ok is false for characters that don't form a single-character escape.
func Single(c byte) (b byte, ok bool) {
	switch c {
	case '"', '\'', '\\', '/':
		return c, true
	case 'b':
		return '\b', true
	case 'f':
		return '\f', true
	case 'n':
		return '\n', true
	case 'r':
		return '\r', true
	case 't':
		return '\t', true
	case 'v':
		return '\v', true
	case '0':
		return 0, true
	}
	return 0, false
}

// EscapeChar returns the character following the backslash when b is written
// as a single-character escape sequence valid in both JSON and JSON5,
// or 0 if b has none.
func EscapeChar(b byte) byte { return escapeChar[b] }

var escapeChar = [256]byte{
	'"':  '"',
	'\\': '\\',
	'\b': 'b',
	'\f': 'f',
	'\n': 'n',
	'\r': 'r',
	'\t': 't',
}

// LowerHex holds the lowercase hexadecimal digits.
const LowerHex = "0123456789abcdef"

// AppendU4 appends \u followed by the four lowercase hex digits of u.
func AppendU4(dst []byte, u uint16) []byte {
	return append(dst, '\\', 'u',
		LowerHex[u>>12], LowerHex[u>>8&0xF], LowerHex[u>>4&0xF], LowerHex[u&0xF])
}
