// Package atoi provides overflow-checked integer parsing for number literals
// that were already validated by the tokenizer.
package atoi

import "math"

// U64 parses s as a decimal unsigned integer.
// s must consist of ASCII digits only.
func U64[S ~[]byte | ~string](s S) (n uint64, overflow bool) {
	if len(s) == 0 {
		return 0, false
	}
	for i := 0; i < len(s); i++ {
		d := uint64(s[i] - '0')
		if n > (math.MaxUint64-d)/10 {
			return 0, true
		}
		n = n*10 + d
	}
	return n, false
}

// HexU64 parses s as a hexadecimal unsigned integer without prefix.
// s must consist of ASCII hex digits only.
func HexU64[S ~[]byte | ~string](s S) (n uint64, overflow bool) {
	for i := 0; i < len(s); i++ {
		if n>>60 != 0 {
			return 0, true
		}
		n = n<<4 | uint64(hexVal(s[i]))
	}
	return n, false
}

func hexVal(c byte) byte {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	}
	return c - 'A' + 10
}
