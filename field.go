package json5bind

import (
	"errors"
	"fmt"
	"reflect"
)

// Member binds an object key to a part of an owner of type O.
// Members are created with Field, FieldWith and Embed and grouped
// into a FieldSet.
type Member[O any] interface {
	// Key returns the object key, empty for embedded groups.
	Key() string

	initErr() error
	readField(p *Parser, o *O) error
	writeField(w *Writer, o *O) error
	applyMissing(o *O) error
}

// omission determines what happens when a key is absent while reading
// and whether a field is written.
type omission uint8

const (
	omitRequired omission = iota
	omitDefault
	omitSkipIfEqual
	omitOptional
)

// FieldOption configures a field.
type FieldOption[V any] func(*fieldPolicy[V])

type fieldPolicy[V any] struct {
	omission omission
	def      func() V
	skip     func(V) bool
}

// Default makes a field optional, substituting v if the key is absent.
// Slices and maps are cloned for every substitution so decoded values
// never share them. Their elements are not, use DefaultFunc for pointers
// and nested reference types.
func Default[V any](v V) FieldOption[V] {
	return func(p *fieldPolicy[V]) {
		p.omission = omitDefault
		p.def = cloner(v)
	}
}

// cloner returns a function producing shallow copies of v.
func cloner[V any](v V) func() V {
	rv := reflect.ValueOf(&v).Elem()
	switch {
	case rv.Kind() == reflect.Slice && !rv.IsNil():
		return func() V {
			c := reflect.MakeSlice(rv.Type(), rv.Len(), rv.Len())
			reflect.Copy(c, rv)
			return c.Interface().(V)
		}
	case rv.Kind() == reflect.Map && !rv.IsNil():
		return func() V {
			c := reflect.MakeMapWithSize(rv.Type(), rv.Len())
			for i := rv.MapRange(); i.Next(); {
				c.SetMapIndex(i.Key(), i.Value())
			}
			return c.Interface().(V)
		}
	}
	return func() V { return v }
}

// DefaultFunc makes a field optional, substituting the result of fn
// if the key is absent. fn is called once per substitution.
func DefaultFunc[V any](fn func() V) FieldOption[V] {
	return func(p *fieldPolicy[V]) {
		p.omission = omitDefault
		p.def = fn
	}
}

// SkipIfEqual makes a field optional and suppresses writing it
// if its value equals v. An absent key leaves the value untouched.
func SkipIfEqual[V comparable](v V) FieldOption[V] {
	return func(p *fieldPolicy[V]) {
		p.omission = omitSkipIfEqual
		p.skip = func(x V) bool { return x == v }
	}
}

// SkipIf makes a field optional and suppresses writing it if skip
// returns true for its value. An absent key leaves the value untouched.
func SkipIf[V any](skip func(V) bool) FieldOption[V] {
	return func(p *fieldPolicy[V]) {
		p.omission = omitSkipIfEqual
		p.skip = skip
	}
}

// Optional makes a field optional. An absent key leaves the value
// untouched. The field is always written.
func Optional[V any]() FieldOption[V] {
	return func(p *fieldPolicy[V]) { p.omission = omitOptional }
}

// JSONField binds key to the value of type V that access points to
// within an owner O. Fields are required unless configured otherwise.
type JSONField[O, V any] struct {
	key    string
	access func(*O) *V
	conv   Converter[V]
	policy fieldPolicy[V]
	err    error
}

// Field creates a field using the converter resolved by ConverterFor[V].
func Field[O, V any](
	key string, access func(*O) *V, options ...FieldOption[V],
) Member[O] {
	conv, err := ConverterFor[V]()
	return newField(key, access, conv, err, options)
}

// FieldWith creates a field using conv.
func FieldWith[O, V any](
	key string, access func(*O) *V, conv Converter[V], options ...FieldOption[V],
) Member[O] {
	var err error
	if conv == nil {
		err = fmt.Errorf("%w: nil converter", ErrNoConverter)
	}
	return newField(key, access, conv, err, options)
}

func newField[O, V any](
	key string, access func(*O) *V, conv Converter[V],
	err error, options []FieldOption[V],
) *JSONField[O, V] {
	f := &JSONField[O, V]{key: key, access: access, conv: conv, err: err}
	for _, o := range options {
		o(&f.policy)
	}
	if f.err == nil && access == nil {
		f.err = errors.New("nil accessor")
	}
	if f.err != nil {
		f.err = fmt.Errorf("field %q: %w", key, f.err)
	}
	return f
}

// Key implements Member.
func (f *JSONField[O, V]) Key() string { return f.key }

// Converter returns the field's converter.
func (f *JSONField[O, V]) Converter() Converter[V] { return f.conv }

func (f *JSONField[O, V]) initErr() error { return f.err }

func (f *JSONField[O, V]) readField(p *Parser, o *O) error {
	v, err := f.conv.Read(p)
	if err != nil {
		return err
	}
	*f.access(o) = v
	return nil
}

func (f *JSONField[O, V]) writeField(w *Writer, o *O) error {
	v := *f.access(o)
	if f.policy.skip != nil && f.policy.skip(v) {
		return nil
	}
	w.Key(f.key)
	if err := f.conv.Write(w, v); err != nil {
		return fmt.Errorf("key %q: %w", f.key, err)
	}
	return w.Err()
}

func (f *JSONField[O, V]) applyMissing(o *O) error {
	switch f.policy.omission {
	case omitRequired:
		return fmt.Errorf("%w: %q", ErrMissingKey, f.key)
	case omitDefault:
		*f.access(o) = f.policy.def()
	}
	return nil
}

// fieldGroup is a member standing for several fields,
// flattened by NewFieldSet.
type fieldGroup[O any] interface {
	Member[O]
	fields() []Member[O]
}

// embeddedFields projects the fields of a set for E onto an owner O
// containing an E.
type embeddedFields[O, E any] struct {
	set    *FieldSet[E]
	access func(*O) *E
}

// Embed includes all fields of set in a field set for O. access returns
// the embedded E within O. This mirrors struct embedding:
//
//	var derivedFields = json5bind.MustFieldSet(
//		json5bind.Embed(baseFields, func(d *Derived) *Base { return &d.Base }),
//		json5bind.Field("extra", func(d *Derived) *int { return &d.Extra }),
//	)
func Embed[O, E any](set *FieldSet[E], access func(*O) *E) Member[O] {
	return &embeddedFields[O, E]{set: set, access: access}
}

func (e *embeddedFields[O, E]) Key() string { return "" }

func (e *embeddedFields[O, E]) initErr() error {
	if e.set == nil {
		return errors.New("embedding nil field set")
	}
	if e.access == nil {
		return errors.New("embedding with nil accessor")
	}
	return nil
}

func (e *embeddedFields[O, E]) readField(p *Parser, o *O) error {
	panic("embedded field groups are flattened")
}

func (e *embeddedFields[O, E]) writeField(w *Writer, o *O) error {
	panic("embedded field groups are flattened")
}

func (e *embeddedFields[O, E]) applyMissing(o *O) error {
	panic("embedded field groups are flattened")
}

func (e *embeddedFields[O, E]) fields() []Member[O] {
	out := make([]Member[O], len(e.set.fields))
	for i, f := range e.set.fields {
		out[i] = &embeddedField[O, E]{inner: f, access: e.access}
	}
	return out
}

// embeddedField is a single field of an embedded set.
type embeddedField[O, E any] struct {
	inner  Member[E]
	access func(*O) *E
}

func (e *embeddedField[O, E]) Key() string    { return e.inner.Key() }
func (e *embeddedField[O, E]) initErr() error { return e.inner.initErr() }

func (e *embeddedField[O, E]) readField(p *Parser, o *O) error {
	return e.inner.readField(p, e.access(o))
}

func (e *embeddedField[O, E]) writeField(w *Writer, o *O) error {
	return e.inner.writeField(w, e.access(o))
}

func (e *embeddedField[O, E]) applyMissing(o *O) error {
	return e.inner.applyMissing(e.access(o))
}
