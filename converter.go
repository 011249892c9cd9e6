package json5bind

import (
	"fmt"
	"reflect"
	"sync"
)

// Converter reads and writes values of type V.
type Converter[V any] interface {
	Read(p *Parser) (V, error)
	Write(w *Writer, v V) error
}

// TokenAcceptor is implemented by converters (and custom types) to tell
// variant alternative selection which token kinds they can read from.
// Converters that don't implement it are assumed to read objects.
type TokenAcceptor interface {
	AcceptsToken(k TokenKind) bool
}

// Fielder is implemented by pointers to types bound to JSON5 objects
// through a field set. JSONFields typically returns a package-level
// variable and must not depend on the receiver's contents.
type Fielder[T any] interface {
	JSONFields() *FieldSet[T]
}

// JSONReader is implemented by pointers to types that read themselves.
type JSONReader interface {
	ReadJSON(p *Parser) error
}

// JSONWriter is implemented by types that write themselves.
type JSONWriter interface {
	WriteJSON(w *Writer) error
}

func accepts(c any, k TokenKind) bool {
	if a, ok := c.(TokenAcceptor); ok {
		return a.AcceptsToken(k)
	}
	return k == TokenStartObject
}

var converterCache sync.Map // reflect.Type -> Converter[V]

// ConverterFor returns the converter for values of type V, resolved once
// per type in this order:
//
//  1. scalars: bool, integers, floats, string, the character types
//     and named types of those kinds
//  2. types whose pointer implements Fielder[V]
//  3. types whose pointer implements JSONReader and which (or whose
//     pointer) implements JSONWriter
//  4. pointers (null maps to nil)
//  5. slices and arrays, and map[K]struct{} as sets
//
// Interface types have no implicit converter and must be bound with an
// explicit VariantConverter, PolymorphicConverter or TokenDispatchConverter.
func ConverterFor[V any]() (Converter[V], error) {
	t := reflect.TypeFor[V]()
	if c, ok := converterCache.Load(t); ok {
		return c.(Converter[V]), nil
	}
	c, err := resolveConverter[V](t)
	if err != nil {
		return nil, err
	}
	converterCache.Store(t, c)
	return c, nil
}

// MustConverterFor is like ConverterFor but panics on error.
func MustConverterFor[V any]() Converter[V] {
	c, err := ConverterFor[V]()
	if err != nil {
		panic(err)
	}
	return c
}

func resolveConverter[V any](t reflect.Type) (Converter[V], error) {
	if c, ok := scalarConverter[V](); ok {
		return c, nil
	}
	if _, ok := any(new(V)).(Fielder[V]); ok {
		return ObjectConverter[V]{}, nil
	}
	if isCustom(t) {
		return CustomConverter[V]{}, nil
	}
	if t.Kind() == reflect.Interface {
		return nil, fmt.Errorf(
			"%w: %s (interfaces require an explicit variant or polymorphic converter)",
			ErrNoConverter, t,
		)
	}
	c, err := codecFor(t)
	if err != nil {
		return nil, err
	}
	return reflectConverter[V]{codec: c}, nil
}

// scalarConverter returns a typed converter for the predeclared scalar
// types. Named scalar types are handled by the reflection based codecs.
func scalarConverter[V any]() (Converter[V], bool) {
	var c any
	switch any(new(V)).(type) {
	case *bool:
		c = ValueConverter[bool]{}
	case *string:
		c = ValueConverter[string]{}
	case *int:
		c = ValueConverter[int]{}
	case *int8:
		c = ValueConverter[int8]{}
	case *int16:
		c = ValueConverter[int16]{}
	case *int32:
		c = ValueConverter[int32]{}
	case *int64:
		c = ValueConverter[int64]{}
	case *uint:
		c = ValueConverter[uint]{}
	case *uint8:
		c = ValueConverter[uint8]{}
	case *uint16:
		c = ValueConverter[uint16]{}
	case *uint32:
		c = ValueConverter[uint32]{}
	case *uint64:
		c = ValueConverter[uint64]{}
	case *float32:
		c = ValueConverter[float32]{}
	case *float64:
		c = ValueConverter[float64]{}
	case *Char:
		c = ValueConverter[Char]{}
	case *Char8:
		c = ValueConverter[Char8]{}
	case *Char16:
		c = ValueConverter[Char16]{}
	case *Char32:
		c = ValueConverter[Char32]{}
	default:
		return nil, false
	}
	return c.(Converter[V]), true
}

// ObjectConverter reads and writes objects through a field set.
// The zero value uses the field set returned by the value's
// JSONFields method.
type ObjectConverter[V any] struct{ Fields *FieldSet[V] }

// ObjectOf returns a converter binding V through fields.
func ObjectOf[V any](fields *FieldSet[V]) ObjectConverter[V] {
	return ObjectConverter[V]{Fields: fields}
}

func (c ObjectConverter[V]) fieldsOf(v *V) *FieldSet[V] {
	if c.Fields != nil {
		return c.Fields
	}
	return any(v).(Fielder[V]).JSONFields()
}

// Read implements Converter.
func (c ObjectConverter[V]) Read(p *Parser) (v V, err error) {
	err = c.fieldsOf(&v).ReadObject(p, &v)
	return v, err
}

// Write implements Converter.
func (c ObjectConverter[V]) Write(w *Writer, v V) error {
	return c.fieldsOf(&v).WriteObject(w, &v)
}

// AcceptsToken implements TokenAcceptor.
func (ObjectConverter[V]) AcceptsToken(k TokenKind) bool { return k == TokenStartObject }

// CustomConverter delegates to the JSONReader and JSONWriter
// implementations of V.
type CustomConverter[V any] struct{}

// Read implements Converter.
func (CustomConverter[V]) Read(p *Parser) (v V, err error) {
	r, ok := any(&v).(JSONReader)
	if !ok {
		return v, fmt.Errorf("%w: %T doesn't implement JSONReader", ErrNoConverter, &v)
	}
	err = r.ReadJSON(p)
	return v, err
}

// Write implements Converter.
func (CustomConverter[V]) Write(w *Writer, v V) error {
	if wr, ok := any(v).(JSONWriter); ok {
		return wr.WriteJSON(w)
	}
	if wr, ok := any(&v).(JSONWriter); ok {
		return wr.WriteJSON(w)
	}
	return fmt.Errorf("%w: %T doesn't implement JSONWriter", ErrNoConverter, v)
}

// AcceptsToken implements TokenAcceptor. Unless V implements TokenAcceptor
// itself custom types are assumed to read objects.
func (CustomConverter[V]) AcceptsToken(k TokenKind) bool {
	var v V
	if a, ok := any(v).(TokenAcceptor); ok {
		return a.AcceptsToken(k)
	}
	if a, ok := any(&v).(TokenAcceptor); ok {
		return a.AcceptsToken(k)
	}
	return k == TokenStartObject
}

// reflectConverter adapts a reflection based codec to Converter.
type reflectConverter[V any] struct{ codec valueCodec }

func (c reflectConverter[V]) Read(p *Parser) (v V, err error) {
	err = c.codec.decode(p, reflect.ValueOf(&v).Elem())
	return v, err
}

func (c reflectConverter[V]) Write(w *Writer, v V) error {
	return c.codec.encode(w, reflect.ValueOf(&v).Elem())
}

func (c reflectConverter[V]) AcceptsToken(k TokenKind) bool { return c.codec.accepts(k) }
