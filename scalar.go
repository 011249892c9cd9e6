package json5bind

import (
	"fmt"
	"math"
	"reflect"
	"unicode/utf8"
)

// Scalar is any type represented by a single JSON5 primitive.
type Scalar interface {
	~bool | ~string |
		~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uintptr |
		~float32 | ~float64
}

// Character types are written as single-character strings.
type (
	// Char is a narrow character holding a code point up to U+00FF.
	Char byte
	// Char8 is a UTF-8 code unit. Only ASCII is representable on its own.
	Char8 byte
	// Char16 is a UTF-16 code unit. Surrogates are not representable on
	// their own and characters beyond the BMP are rejected.
	Char16 uint16
	// Char32 is a Unicode code point.
	Char32 rune
)

var (
	tpChar   = reflect.TypeFor[Char]()
	tpChar8  = reflect.TypeFor[Char8]()
	tpChar16 = reflect.TypeFor[Char16]()
	tpChar32 = reflect.TypeFor[Char32]()
)

func isCharType(t reflect.Type) bool {
	return t == tpChar || t == tpChar8 || t == tpChar16 || t == tpChar32
}

// maxCodePoint returns the largest code point representable by the
// character type t.
func maxCodePoint(t reflect.Type) rune {
	switch t {
	case tpChar:
		return 0xFF
	case tpChar8:
		return utf8.RuneSelf - 1
	case tpChar16:
		return 0xFFFF
	}
	return utf8.MaxRune
}

// readChar consumes a string holding exactly one code point not above max.
func (p *Parser) readChar(max rune) (rune, error) {
	tok, err := p.take(TokenString)
	if err != nil {
		return 0, err
	}
	r, n := utf8.DecodeRuneInString(tok.Str)
	if n == 0 || n != len(tok.Str) {
		return 0, ErrorDecode{
			Err: ErrCharRange, Index: tok.Pos,
			Detail: fmt.Sprintf("expected exactly one character, got %s", tok),
		}
	}
	if r > max {
		return 0, ErrorDecode{
			Err: ErrCharRange, Index: tok.Pos,
			Detail: fmt.Sprintf("U+%04X exceeds U+%04X", r, max),
		}
	}
	return r, nil
}

// ReadTo consumes a value into v checking the token kind and range.
// Integers accept integer tokens only, floats accept numbers and integers.
func ReadTo[T Scalar](p *Parser, v *T) (err error) {
	switch v := any(v).(type) {
	case *bool:
		*v, err = p.ReadBool()
	case *string:
		*v, err = p.ReadString()
	case *int64:
		*v, err = p.ReadInt64()
	case *int:
		var i int64
		i, err = p.readIntRange(math.MinInt, math.MaxInt)
		*v = int(i)
	case *int32:
		var i int64
		i, err = p.readIntRange(math.MinInt32, math.MaxInt32)
		*v = int32(i)
	case *uint64:
		*v, err = p.ReadUint64()
	case *uint:
		var u uint64
		u, err = p.readUintRange(math.MaxUint)
		*v = uint(u)
	case *float64:
		*v, err = p.ReadFloat64()
	case *float32:
		*v, err = p.readFloat32()
	case *Char:
		var r rune
		r, err = p.readChar(0xFF)
		*v = Char(r)
	case *Char8:
		var r rune
		r, err = p.readChar(utf8.RuneSelf - 1)
		*v = Char8(r)
	case *Char16:
		var r rune
		r, err = p.readChar(0xFFFF)
		*v = Char16(r)
	case *Char32:
		var r rune
		r, err = p.readChar(utf8.MaxRune)
		*v = Char32(r)
	default:
		return readScalar(p, reflect.ValueOf(v).Elem())
	}
	return err
}

// readScalar consumes a value into the settable scalar rv.
func readScalar(p *Parser, rv reflect.Value) error {
	t := rv.Type()
	if isCharType(t) {
		r, err := p.readChar(maxCodePoint(t))
		if err != nil {
			return err
		}
		if t.Kind() == reflect.Int32 {
			rv.SetInt(int64(r))
		} else {
			rv.SetUint(uint64(r))
		}
		return nil
	}
	switch t.Kind() {
	case reflect.Bool:
		b, err := p.ReadBool()
		rv.SetBool(b)
		return err
	case reflect.String:
		s, err := p.ReadString()
		rv.SetString(s)
		return err
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		bits := t.Bits()
		i, err := p.readIntRange(int64(-1)<<(bits-1), int64(1)<<(bits-1)-1)
		rv.SetInt(i)
		return err
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32,
		reflect.Uint64, reflect.Uintptr:
		u, err := p.readUintRange(uint64(math.MaxUint64) >> (64 - t.Bits()))
		rv.SetUint(u)
		return err
	case reflect.Float32:
		f, err := p.readFloat32()
		rv.SetFloat(float64(f))
		return err
	case reflect.Float64:
		f, err := p.ReadFloat64()
		rv.SetFloat(f)
		return err
	}
	return fmt.Errorf("%w: %s", ErrNoConverter, t)
}

// WriteValue writes the scalar v.
func WriteValue[T Scalar](w *Writer, v T) {
	switch v := any(v).(type) {
	case bool:
		w.Bool(v)
	case string:
		w.String(v)
	case int:
		w.Int64(int64(v))
	case int64:
		w.Int64(v)
	case int32:
		w.Int64(int64(v))
	case uint:
		w.Uint64(uint64(v))
	case uint64:
		w.Uint64(v)
	case float64:
		w.Float64(v)
	case float32:
		w.Float32(v)
	case Char:
		w.Char(rune(v), 0xFF)
	case Char8:
		w.Char(rune(v), utf8.RuneSelf-1)
	case Char16:
		w.Char(rune(v), 0xFFFF)
	case Char32:
		w.Char(rune(v), utf8.MaxRune)
	default:
		writeScalar(w, reflect.ValueOf(v))
	}
}

// writeScalar writes the scalar rv.
func writeScalar(w *Writer, rv reflect.Value) {
	t := rv.Type()
	if isCharType(t) {
		if t.Kind() == reflect.Int32 {
			w.Char(rune(rv.Int()), maxCodePoint(t))
		} else {
			w.Char(rune(rv.Uint()), maxCodePoint(t))
		}
		return
	}
	switch t.Kind() {
	case reflect.Bool:
		w.Bool(rv.Bool())
	case reflect.String:
		w.String(rv.String())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		w.Int64(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32,
		reflect.Uint64, reflect.Uintptr:
		w.Uint64(rv.Uint())
	case reflect.Float32:
		w.Float32(float32(rv.Float()))
	case reflect.Float64:
		w.Float64(rv.Float())
	default:
		w.setErr(fmt.Errorf("%w: %s", ErrNoConverter, t))
	}
}

// isScalarKind reports whether values of t are handled by readScalar.
func isScalarKind(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32,
		reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

// scalarAccepts reports whether a value of the scalar type t can be read
// from a token of kind k.
func scalarAccepts(t reflect.Type, k TokenKind) bool {
	if isCharType(t) {
		return k == TokenString
	}
	switch t.Kind() {
	case reflect.Bool:
		return k == TokenBool
	case reflect.String:
		return k == TokenString
	case reflect.Float32, reflect.Float64:
		return k == TokenNumber || k == TokenInteger
	}
	return k == TokenInteger
}

// ValueConverter converts scalars.
type ValueConverter[T Scalar] struct{}

// Read implements Converter.
func (ValueConverter[T]) Read(p *Parser) (v T, err error) {
	err = ReadTo(p, &v)
	return v, err
}

// Write implements Converter.
func (ValueConverter[T]) Write(w *Writer, v T) error {
	WriteValue(w, v)
	return w.Err()
}

// AcceptsToken implements TokenAcceptor.
func (ValueConverter[T]) AcceptsToken(k TokenKind) bool {
	return scalarAccepts(reflect.TypeFor[T](), k)
}
