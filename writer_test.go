package json5bind_test

import (
	"errors"
	"math"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/romshark/json5bind"

	"github.com/stretchr/testify/require"
)

func writeString(t *testing.T, options *json5bind.WriteOptions, fn func(w *json5bind.Writer)) (string, error) {
	t.Helper()
	var b strings.Builder
	w := json5bind.NewWriter(&b, options)
	fn(w)
	err := w.Flush()
	return b.String(), err
}

func TestWriterStructure(t *testing.T) {
	out, err := writeString(t, nil, func(w *json5bind.Writer) {
		w.StartObject()
		w.Key("w")
		w.Bool(true)
		w.Key("x")
		w.Int64(1)
		w.Key("list")
		w.StartArray()
		w.Null()
		w.StartArray()
		w.EndArray()
		w.StartObject()
		w.EndObject()
		w.Uint64(math.MaxUint64)
		w.String("s")
		w.EndArray()
		w.Key("$_k1")
		w.Raw(`[1,2]`)
		w.EndObject()
	})
	require.NoError(t, err)
	require.Equal(t, `{w:true,x:1,list:[null,[],{},18446744073709551615,"s"],$_k1:[1,2]}`, out)
}

func TestWriterQuoteKeys(t *testing.T) {
	out, err := writeString(t, &json5bind.WriteOptions{QuoteKeys: true},
		func(w *json5bind.Writer) {
			w.StartObject()
			w.Key("a b")
			w.Int64(1)
			w.Key(`q"`)
			w.Int64(2)
			w.EndObject()
		})
	require.NoError(t, err)
	require.Equal(t, `{"a b":1,"q\"":2}`, out)
}

func TestWriterInvalidKey(t *testing.T) {
	for _, key := range []string{"", "a b", "1a", "a-b", "\xff"} {
		t.Run(key, func(t *testing.T) {
			out, err := writeString(t, nil, func(w *json5bind.Writer) {
				w.StartObject()
				w.Key(key)
				w.Int64(1)
				w.EndObject()
			})
			require.ErrorIs(t, err, json5bind.ErrInvalidKey)
			require.Empty(t, out)
		})
	}
}

func TestIsIdentifier(t *testing.T) {
	for _, s := range []string{"a", "_", "$", "a1", "camelCase", "\xc3\xa9t\xc3\xa9"} {
		require.True(t, json5bind.IsIdentifier(s), s)
	}
	for _, s := range []string{"", "1", "a b", "a.b", "a\xc2\xa0b", "\xff"} {
		require.False(t, json5bind.IsIdentifier(s), s)
	}
}

func TestWriterStringEscaping(t *testing.T) {
	for _, td := range []struct {
		name, input, expect string
	}{
		{"plain", "abc", `"abc"`},
		{"quotes", `a"b\c`, `"a\"b\\c"`},
		{"control", "\b\f\n\r\t", `"\b\f\n\r\t"`},
		{"vertical_tab", "\v", `"\u000b"`},
		{"nul", "\x00", `"\u0000"`},
		{"unit_separator", "\x1f", `"\u001f"`},
		{"delete", "\x7f", `"\u007f"`},
		{"single_quote", "'", `"'"`},
		{"utf8", "\xc3\xa9\xf0\x9f\x8c\x9f", "\"\xc3\xa9\xf0\x9f\x8c\x9f\""},
		{"line_separator", "a\xe2\x80\xa8b", `"a\u2028b"`},
		{"paragraph_separator", "\xe2\x80\xa9", `"\u2029"`},
		{"invalid_utf8", "a\xffb", `"a\ufffdb"`},
	} {
		t.Run(td.name, func(t *testing.T) {
			out, err := writeString(t, nil, func(w *json5bind.Writer) { w.String(td.input) })
			require.NoError(t, err)
			require.Equal(t, td.expect, out)
		})
	}
}

func TestWriterFloat(t *testing.T) {
	for _, td := range []struct {
		name   string
		input  float64
		expect string
	}{
		{"zero", 0, `0`},
		{"fraction", 1.5, `1.5`},
		{"negative", -0.25, `-0.25`},
		{"large", 1e20, `100000000000000000000`},
		{"exponent", 1e21, `1e+21`},
		{"small", 0.000001, `0.000001`},
		{"small_exponent", 1e-7, `1e-7`},
		{"nan", math.NaN(), `NaN`},
		{"infinity", math.Inf(1), `Infinity`},
		{"negative_infinity", math.Inf(-1), `-Infinity`},
	} {
		t.Run(td.name, func(t *testing.T) {
			out, err := writeString(t, nil, func(w *json5bind.Writer) { w.Float64(td.input) })
			require.NoError(t, err)
			require.Equal(t, td.expect, out)
		})
	}

	out, err := writeString(t, nil, func(w *json5bind.Writer) { w.Float32(0.1) })
	require.NoError(t, err)
	require.Equal(t, `0.1`, out)
}

func TestWriterChar(t *testing.T) {
	for _, td := range []struct {
		name   string
		r, max rune
		expect string
	}{
		{"ascii", 'A', 0x7F, `"A"`},
		{"quote", '"', 0x7F, `"\""`},
		{"newline", '\n', 0x7F, `"\n"`},
		{"latin1", 0xE9, 0xFF, `"\u00e9"`},
		{"bmp", 0x30A2, 0xFFFF, `"\u30a2"`},
		{"beyond_bmp", 0x1F31F, utf8.MaxRune, `"\ud83c\udf1f"`},
	} {
		t.Run(td.name, func(t *testing.T) {
			out, err := writeString(t, nil, func(w *json5bind.Writer) { w.Char(td.r, td.max) })
			require.NoError(t, err)
			require.Equal(t, td.expect, out)
		})
	}

	for _, td := range []struct {
		name   string
		r, max rune
	}{
		{"above_max", 0x100, 0xFF},
		{"surrogate", 0xD800, 0xFFFF},
		{"negative", -1, utf8.MaxRune},
	} {
		t.Run(td.name, func(t *testing.T) {
			_, err := writeString(t, nil, func(w *json5bind.Writer) { w.Char(td.r, td.max) })
			require.ErrorIs(t, err, json5bind.ErrCharRange)
		})
	}
}

func TestWriterFlushLarge(t *testing.T) {
	var b strings.Builder
	w := json5bind.NewWriter(&b, nil)
	long := strings.Repeat("x", 1000)
	w.StartArray()
	for i := 0; i < 100; i++ {
		w.String(long)
	}
	w.EndArray()
	require.NoError(t, w.Flush())

	expect := "[" + strings.Repeat(`"`+long+`",`, 99) + `"` + long + `"]`
	require.Equal(t, expect, b.String())
}

type failingWriter struct{ err error }

func (w failingWriter) Write([]byte) (int, error) { return 0, w.err }

func TestWriterStickyError(t *testing.T) {
	errBoom := errors.New("boom")
	w := json5bind.NewWriter(failingWriter{err: errBoom}, nil)
	w.StartArray()
	w.Int64(1)
	w.EndArray()
	require.ErrorIs(t, w.Flush(), errBoom)
	require.ErrorIs(t, w.Err(), errBoom)
	w.Int64(2)
	require.ErrorIs(t, w.Flush(), errBoom)
}

func TestWriterInMemory(t *testing.T) {
	w := json5bind.NewWriter(nil, nil)
	w.StartArray()
	w.Int64(1)
	w.EndArray()
	require.NoError(t, w.Flush())
	require.Equal(t, `[1]`, string(w.Bytes()))
}
