package json5bind

import (
	"fmt"
	"io"
	"strconv"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/romshark/json5bind/internal/jsonnum"
	"github.com/romshark/json5bind/internal/unescape"
)

// flushThreshold is the buffer size above which a Writer flushes
// to its io.Writer.
const flushThreshold = 32 * 1024

// Writer emits compact JSON5. Keys are written as bare identifiers unless
// QuoteKeys is enabled, in which case the output is strict JSON as long as
// no NaN or infinite numbers are written.
// Errors are sticky: after the first error every write is a no-op and the
// error is returned by Err and Flush.
type Writer struct {
	out       io.Writer
	buf       []byte
	quoteKeys bool
	needComma bool
	err       error
}

// NewWriter creates a writer flushing to out.
// A nil out keeps everything in memory, see Bytes.
func NewWriter(out io.Writer, options *WriteOptions) *Writer {
	if options == nil {
		options = DefaultWriteOptions
	}
	return &Writer{
		out:       out,
		buf:       make([]byte, 0, 1024),
		quoteKeys: options.QuoteKeys,
	}
}

// newBufferWriter creates a writer appending to buf, flushing to out
// unless out is nil.
func newBufferWriter(out io.Writer, buf []byte, options *WriteOptions) *Writer {
	if options == nil {
		options = DefaultWriteOptions
	}
	return &Writer{out: out, buf: buf, quoteKeys: options.QuoteKeys}
}

func (w *Writer) setErr(err error) {
	if w.err == nil {
		w.err = err
	}
}

// Err returns the first error encountered.
func (w *Writer) Err() error { return w.err }

// Bytes returns the buffered output not yet flushed.
func (w *Writer) Bytes() []byte { return w.buf }

// Flush writes all buffered output to the underlying io.Writer.
func (w *Writer) Flush() error {
	if w.err != nil {
		return w.err
	}
	if w.out == nil || len(w.buf) == 0 {
		return nil
	}
	if _, err := w.out.Write(w.buf); err != nil {
		w.setErr(fmt.Errorf("writing output: %w", err))
		return w.err
	}
	w.buf = w.buf[:0]
	return nil
}

func (w *Writer) maybeFlush() {
	if w.out != nil && len(w.buf) >= flushThreshold {
		_ = w.Flush()
	}
}

// beginValue writes a separating comma if needed.
func (w *Writer) beginValue() bool {
	if w.err != nil {
		return false
	}
	if w.needComma {
		w.buf = append(w.buf, ',')
	}
	w.needComma = true
	return true
}

// StartObject writes '{'.
func (w *Writer) StartObject() {
	if w.beginValue() {
		w.buf = append(w.buf, '{')
		w.needComma = false
	}
}

// EndObject writes '}'.
func (w *Writer) EndObject() {
	if w.err == nil {
		w.buf = append(w.buf, '}')
		w.needComma = true
		w.maybeFlush()
	}
}

// StartArray writes '['.
func (w *Writer) StartArray() {
	if w.beginValue() {
		w.buf = append(w.buf, '[')
		w.needComma = false
	}
}

// EndArray writes ']'.
func (w *Writer) EndArray() {
	if w.err == nil {
		w.buf = append(w.buf, ']')
		w.needComma = true
		w.maybeFlush()
	}
}

// Key writes an object key followed by ':'.
// Without QuoteKeys name must be a valid identifier, otherwise
// ErrInvalidKey is recorded.
func (w *Writer) Key(name string) {
	if !w.beginValue() {
		return
	}
	if w.quoteKeys {
		w.buf = appendQuoted(w.buf, name)
	} else {
		if !IsIdentifier(name) {
			w.setErr(fmt.Errorf("%w: %q", ErrInvalidKey, name))
			return
		}
		w.buf = append(w.buf, name...)
	}
	w.buf = append(w.buf, ':')
	w.needComma = false
}

// Null writes null.
func (w *Writer) Null() {
	if w.beginValue() {
		w.buf = append(w.buf, "null"...)
	}
}

// Bool writes a boolean.
func (w *Writer) Bool(v bool) {
	if w.beginValue() {
		w.buf = strconv.AppendBool(w.buf, v)
	}
}

// Int64 writes a signed integer.
func (w *Writer) Int64(v int64) {
	if w.beginValue() {
		w.buf = strconv.AppendInt(w.buf, v, 10)
	}
}

// Uint64 writes an unsigned integer.
func (w *Writer) Uint64(v uint64) {
	if w.beginValue() {
		w.buf = strconv.AppendUint(w.buf, v, 10)
	}
}

// Float64 writes a number. NaN and infinities are written as
// NaN, Infinity and -Infinity.
func (w *Writer) Float64(v float64) {
	if w.beginValue() {
		w.buf = jsonnum.AppendFloat(w.buf, v, 64)
	}
}

// Float32 writes a number with float32 precision.
func (w *Writer) Float32(v float32) {
	if w.beginValue() {
		w.buf = jsonnum.AppendFloat(w.buf, float64(v), 32)
	}
}

// String writes a double-quoted string.
func (w *Writer) String(v string) {
	if w.beginValue() {
		w.buf = appendQuoted(w.buf, v)
		w.maybeFlush()
	}
}

// Char writes the code point r as a single-character string.
// Non-ASCII characters are written as lowercase \uXXXX escapes, characters
// beyond the BMP as a surrogate pair. Surrogates and code points above max
// record ErrCharRange.
func (w *Writer) Char(r rune, max rune) {
	if w.err != nil {
		return
	}
	if r < 0 || r > max || utf16.IsSurrogate(r) || r > utf8.MaxRune {
		w.setErr(fmt.Errorf("%w: U+%04X", ErrCharRange, r))
		return
	}
	w.beginValue()
	w.buf = append(w.buf, '"')
	switch {
	case r < utf8.RuneSelf:
		w.buf = appendEscapedByte(w.buf, byte(r))
	case r > 0xFFFF:
		hi, lo := utf16.EncodeRune(r)
		w.buf = unescape.AppendU4(w.buf, uint16(hi))
		w.buf = unescape.AppendU4(w.buf, uint16(lo))
	default:
		w.buf = unescape.AppendU4(w.buf, uint16(r))
	}
	w.buf = append(w.buf, '"')
}

// Raw writes s verbatim as a value. s must be valid JSON5.
func (w *Writer) Raw(s string) {
	if w.beginValue() {
		w.buf = append(w.buf, s...)
	}
}

// appendEscapedByte appends the ASCII byte c escaped for a double-quoted string.
func appendEscapedByte(dst []byte, c byte) []byte {
	switch {
	case c == '"' || c == '\\' || c < 0x20 || c == 0x7F:
		if e := unescape.EscapeChar(c); e != 0 {
			return append(dst, '\\', e)
		}
		return unescape.AppendU4(dst, uint16(c))
	}
	return append(dst, c)
}

// appendQuoted appends s as a double-quoted string literal.
func appendQuoted(dst []byte, s string) []byte {
	dst = append(dst, '"')
	start := 0
	for i := 0; i < len(s); {
		c := s[i]
		if c < utf8.RuneSelf {
			if c >= 0x20 && c != '"' && c != '\\' && c != 0x7F {
				i++
				continue
			}
			dst = append(dst, s[start:i]...)
			dst = appendEscapedByte(dst, c)
			i++
			start = i
			continue
		}
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == '\u2028' || r == '\u2029' || r == utf8.RuneError && size == 1 {
			// Invalid bytes become U+FFFD.
			dst = append(dst, s[start:i]...)
			dst = unescape.AppendU4(dst, uint16(r))
			i += size
			start = i
			continue
		}
		i += size
	}
	dst = append(dst, s[start:]...)
	return append(dst, '"')
}

// IsIdentifier reports whether s can be written as an unquoted key.
func IsIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '$' || r == '_':
		case r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
			if i == 0 {
				return false
			}
		case r == utf8.RuneError:
			return false
		case r < utf8.RuneSelf:
			return false
		case isUnicodeSpace(r):
			return false
		}
	}
	return true
}

func isUnicodeSpace(r rune) bool {
	switch r {
	case '\u00a0', '\u1680', '\u2028', '\u2029', '\u202f', '\u205f', '\u3000', '\ufeff':
		return true
	}
	return r >= '\u2000' && r <= '\u200a'
}
