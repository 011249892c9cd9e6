package json5bind

import (
	"cmp"
	"fmt"
	"reflect"
	"slices"
	"sync"
)

// Shape classifies how a type is represented in JSON5.
type Shape int8

const (
	_ Shape = iota
	ShapeScalar
	ShapeObject
	ShapeCustom
	ShapePointer
	ShapeSlice
	ShapeArray
	ShapeSet
	ShapeRecursive
)

func (s Shape) String() string {
	switch s {
	case ShapeScalar:
		return "scalar"
	case ShapeObject:
		return "object"
	case ShapeCustom:
		return "custom"
	case ShapePointer:
		return "*"
	case ShapeSlice:
		return "slice"
	case ShapeArray:
		return "array"
	case ShapeSet:
		return "set"
	case ShapeRecursive:
		return "⟲"
	}
	return ""
}

// valueCodec reads and writes values of a type known only at runtime.
// decode requires a settable value; encode accepts any value.
type valueCodec interface {
	shape() Shape
	decode(p *Parser, v reflect.Value) error
	encode(w *Writer, v reflect.Value) error
	accepts(k TokenKind) bool
}

var (
	tpJSONReader  = reflect.TypeFor[JSONReader]()
	tpJSONWriter  = reflect.TypeFor[JSONWriter]()
	tpEmptyStruct = reflect.TypeFor[struct{}]()
	tpFieldSetAny = reflect.TypeFor[fieldSetAny]()
)

func isCustom(t reflect.Type) bool {
	if t.Kind() == reflect.Pointer || t.Kind() == reflect.Interface {
		return false
	}
	pt := reflect.PointerTo(t)
	return pt.Implements(tpJSONReader) &&
		(t.Implements(tpJSONWriter) || pt.Implements(tpJSONWriter))
}

// isFielder reports whether *t has a method JSONFields() *FieldSet[t].
func isFielder(t reflect.Type) bool {
	if t.Kind() == reflect.Pointer || t.Kind() == reflect.Interface {
		return false
	}
	m, ok := reflect.PointerTo(t).MethodByName("JSONFields")
	if !ok || m.Type.NumIn() != 1 || m.Type.NumOut() != 1 {
		return false
	}
	out := m.Type.Out(0)
	if !out.Implements(tpFieldSetAny) {
		return false
	}
	// ownerType doesn't dereference the nil receiver.
	return reflect.Zero(out).Interface().(fieldSetAny).ownerType() == t
}

var codecCache sync.Map // reflect.Type -> valueCodec

// codecFor returns the codec for t, building and caching it on first use.
func codecFor(t reflect.Type) (valueCodec, error) {
	if c, ok := codecCache.Load(t); ok {
		return c.(valueCodec), nil
	}
	c, err := buildCodec(t, map[reflect.Type]*recursiveCodec{})
	if err != nil {
		return nil, err
	}
	codecCache.Store(t, c)
	return c, nil
}

// buildCodec recursively builds the codec for t. Types currently being
// built are tracked in building to terminate recursive type definitions.
func buildCodec(
	t reflect.Type, building map[reflect.Type]*recursiveCodec,
) (valueCodec, error) {
	if c, ok := codecCache.Load(t); ok {
		return c.(valueCodec), nil
	}
	if r, ok := building[t]; ok {
		return r, nil
	}

	switch {
	case isCharType(t) || isScalarKind(t) && !isFielder(t) && !isCustom(t):
		return scalarCodec{t: t}, nil
	case isFielder(t):
		return &objectCodec{t: t}, nil
	case isCustom(t):
		return customCodec{t: t}, nil
	}

	r := &recursiveCodec{}
	building[t] = r
	defer delete(building, t)

	var c valueCodec
	switch t.Kind() {
	case reflect.Pointer:
		elem, err := buildCodec(t.Elem(), building)
		if err != nil {
			return nil, err
		}
		c = pointerCodec{t: t, elem: elem}
	case reflect.Slice:
		elem, err := buildCodec(t.Elem(), building)
		if err != nil {
			return nil, err
		}
		c = sliceCodec{t: t, elem: elem}
	case reflect.Array:
		elem, err := buildCodec(t.Elem(), building)
		if err != nil {
			return nil, err
		}
		c = arrayCodec{t: t, elem: elem}
	case reflect.Map:
		if t.Elem() != tpEmptyStruct {
			return nil, fmt.Errorf(
				"%w: %s (only map[K]struct{} sets are supported)", ErrNoConverter, t,
			)
		}
		if !isOrderedKind(t.Key().Kind()) {
			return nil, fmt.Errorf(
				"%w: %s (set keys must be ordered)", ErrNoConverter, t,
			)
		}
		key, err := buildCodec(t.Key(), building)
		if err != nil {
			return nil, err
		}
		c = setCodec{t: t, key: key}
	default:
		return nil, fmt.Errorf("%w: %s", ErrNoConverter, t)
	}
	r.codec = c
	return c, nil
}

// recursiveCodec refers to a codec that is still being built.
type recursiveCodec struct{ codec valueCodec }

func (c *recursiveCodec) shape() Shape { return ShapeRecursive }

func (c *recursiveCodec) decode(p *Parser, v reflect.Value) error {
	return c.codec.decode(p, v)
}

func (c *recursiveCodec) encode(w *Writer, v reflect.Value) error {
	return c.codec.encode(w, v)
}

func (c *recursiveCodec) accepts(k TokenKind) bool { return c.codec.accepts(k) }

type scalarCodec struct{ t reflect.Type }

func (scalarCodec) shape() Shape { return ShapeScalar }

func (scalarCodec) decode(p *Parser, v reflect.Value) error { return readScalar(p, v) }

func (scalarCodec) encode(w *Writer, v reflect.Value) error {
	writeScalar(w, v)
	return w.Err()
}

func (c scalarCodec) accepts(k TokenKind) bool { return scalarAccepts(c.t, k) }

// addressable returns v if it's addressable, otherwise an addressable copy.
func addressable(v reflect.Value) reflect.Value {
	if v.CanAddr() {
		return v
	}
	c := reflect.New(v.Type()).Elem()
	c.Set(v)
	return c
}

// objectCodec binds through the field set returned by JSONFields.
type objectCodec struct {
	t      reflect.Type
	once   sync.Once
	fields fieldSetAny
}

func (c *objectCodec) shape() Shape { return ShapeObject }

func (c *objectCodec) fieldSet(addr reflect.Value) fieldSetAny {
	c.once.Do(func() {
		out := addr.MethodByName("JSONFields").Call(nil)
		c.fields = out[0].Interface().(fieldSetAny)
	})
	return c.fields
}

func (c *objectCodec) decode(p *Parser, v reflect.Value) error {
	addr := v.Addr()
	return c.fieldSet(addr).readObjectAny(p, addr.Interface())
}

func (c *objectCodec) encode(w *Writer, v reflect.Value) error {
	addr := addressable(v).Addr()
	return c.fieldSet(addr).writeObjectAny(w, addr.Interface())
}

func (c *objectCodec) accepts(k TokenKind) bool { return k == TokenStartObject }

type customCodec struct{ t reflect.Type }

func (customCodec) shape() Shape { return ShapeCustom }

func (customCodec) decode(p *Parser, v reflect.Value) error {
	return v.Addr().Interface().(JSONReader).ReadJSON(p)
}

func (customCodec) encode(w *Writer, v reflect.Value) error {
	return addressable(v).Addr().Interface().(JSONWriter).WriteJSON(w)
}

func (c customCodec) accepts(k TokenKind) bool {
	return accepts(reflect.New(c.t).Interface(), k)
}

type pointerCodec struct {
	t    reflect.Type
	elem valueCodec
}

func (pointerCodec) shape() Shape { return ShapePointer }

func (c pointerCodec) decode(p *Parser, v reflect.Value) error {
	null, err := p.NextIsNull()
	if err != nil {
		return err
	}
	if null {
		v.SetZero()
		return p.ReadNull()
	}
	if v.IsNil() {
		v.Set(reflect.New(c.t.Elem()))
	}
	return c.elem.decode(p, v.Elem())
}

func (c pointerCodec) encode(w *Writer, v reflect.Value) error {
	if v.IsNil() {
		w.Null()
		return w.Err()
	}
	return c.elem.encode(w, v.Elem())
}

func (c pointerCodec) accepts(k TokenKind) bool { return k == TokenNull || c.elem.accepts(k) }

type sliceCodec struct {
	t    reflect.Type
	elem valueCodec
}

func (sliceCodec) shape() Shape { return ShapeSlice }

func (c sliceCodec) decode(p *Parser, v reflect.Value) error {
	if err := p.StartArray(); err != nil {
		return err
	}
	s := reflect.MakeSlice(c.t, 0, 4)
	for i := 0; ; i++ {
		end, err := p.NextIsEndArray()
		if err != nil {
			return err
		}
		if end {
			break
		}
		s = reflect.Append(s, reflect.Zero(c.t.Elem()))
		if err := c.elem.decode(p, s.Index(i)); err != nil {
			return fmt.Errorf("index %d: %w", i, err)
		}
	}
	v.Set(s)
	return p.EndArray()
}

func (c sliceCodec) encode(w *Writer, v reflect.Value) error {
	w.StartArray()
	for i, n := 0, v.Len(); i < n; i++ {
		if err := c.elem.encode(w, v.Index(i)); err != nil {
			return err
		}
	}
	w.EndArray()
	return w.Err()
}

func (c sliceCodec) accepts(k TokenKind) bool { return k == TokenStartArray }

type arrayCodec struct {
	t    reflect.Type
	elem valueCodec
}

func (arrayCodec) shape() Shape { return ShapeArray }

func (c arrayCodec) decode(p *Parser, v reflect.Value) error {
	if err := p.StartArray(); err != nil {
		return err
	}
	v.SetZero()
	for i := 0; ; i++ {
		tok, err := p.Peek()
		if err != nil {
			return err
		}
		if tok.Kind == TokenEndArray {
			break
		}
		if i >= c.t.Len() {
			return ErrorDecode{
				Err: ErrUnexpectedToken, Index: tok.Pos,
				Detail: fmt.Sprintf("array %s holds at most %d elements", c.t, c.t.Len()),
			}
		}
		if err := c.elem.decode(p, v.Index(i)); err != nil {
			return fmt.Errorf("index %d: %w", i, err)
		}
	}
	return p.EndArray()
}

func (c arrayCodec) encode(w *Writer, v reflect.Value) error {
	w.StartArray()
	for i, n := 0, v.Len(); i < n; i++ {
		if err := c.elem.encode(w, v.Index(i)); err != nil {
			return err
		}
	}
	w.EndArray()
	return w.Err()
}

func (c arrayCodec) accepts(k TokenKind) bool { return k == TokenStartArray }

// setCodec binds map[K]struct{} to an array of unique elements.
// Elements are written in ascending order.
type setCodec struct {
	t   reflect.Type
	key valueCodec
}

func (setCodec) shape() Shape { return ShapeSet }

func (c setCodec) decode(p *Parser, v reflect.Value) error {
	if err := p.StartArray(); err != nil {
		return err
	}
	m := reflect.MakeMap(c.t)
	empty := reflect.Zero(tpEmptyStruct)
	for i := 0; ; i++ {
		end, err := p.NextIsEndArray()
		if err != nil {
			return err
		}
		if end {
			break
		}
		k := reflect.New(c.t.Key()).Elem()
		if err := c.key.decode(p, k); err != nil {
			return fmt.Errorf("index %d: %w", i, err)
		}
		m.SetMapIndex(k, empty)
	}
	v.Set(m)
	return p.EndArray()
}

func (c setCodec) encode(w *Writer, v reflect.Value) error {
	keys := v.MapKeys()
	slices.SortFunc(keys, compareOrdered)
	w.StartArray()
	for _, k := range keys {
		if err := c.key.encode(w, k); err != nil {
			return err
		}
	}
	w.EndArray()
	return w.Err()
}

func (c setCodec) accepts(k TokenKind) bool { return k == TokenStartArray }

func isOrderedKind(k reflect.Kind) bool {
	switch k {
	case reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32,
		reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

// compareOrdered compares two values of the same ordered kind.
func compareOrdered(a, b reflect.Value) int {
	switch a.Kind() {
	case reflect.String:
		return cmp.Compare(a.String(), b.String())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return cmp.Compare(a.Int(), b.Int())
	case reflect.Float32, reflect.Float64:
		return cmp.Compare(a.Float(), b.Float())
	}
	return cmp.Compare(a.Uint(), b.Uint())
}
