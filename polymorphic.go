package json5bind

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"

	"github.com/romshark/json5bind/internal/sortedhash"
)

// DefaultDiscriminator is the discriminator key used when none is given.
const DefaultDiscriminator = "type"

// TypeTagger is optionally implemented by polymorphic types to report
// their tag directly instead of having it looked up by type.
type TypeTagger interface {
	JSONTypeTag() string
}

// TypeEntry registers a concrete type of the polymorphic base B.
// Create entries with PolymorphicType.
type TypeEntry[B any] struct {
	tag   string
	typ   reflect.Type
	err   error
	is    func(b B) bool
	read  func(p *Parser) (B, error)
	write func(w *Writer, b B) error
}

// Tag returns the discriminator value of the entry.
func (e TypeEntry[B]) Tag() string { return e.tag }

// Type returns the registered concrete type.
func (e TypeEntry[B]) Type() reflect.Type { return e.typ }

// PolymorphicType registers *T under tag. *T must implement B and
// Fielder[T].
func PolymorphicType[B, T any, PT interface {
	*T
	Fielder[T]
}](tag string) TypeEntry[B] {
	e := TypeEntry[B]{tag: tag, typ: reflect.TypeFor[PT]()}
	if _, ok := any(PT(new(T))).(B); !ok {
		e.err = fmt.Errorf("%s doesn't implement %s", e.typ, reflect.TypeFor[B]())
		return e
	}
	e.is = func(b B) bool {
		_, ok := any(b).(PT)
		return ok
	}
	e.read = func(p *Parser) (B, error) {
		pt := PT(new(T))
		err := pt.JSONFields().readMembers(p, (*T)(pt))
		return any(pt).(B), err
	}
	e.write = func(w *Writer, b B) error {
		pt, ok := any(b).(PT)
		if !ok {
			return fmt.Errorf("%w: %T registered as %s", ErrUnregisteredType, b, e.typ)
		}
		return pt.JSONFields().writeMembers(w, (*T)(pt))
	}
	return e
}

// TypeRegistry maps discriminator tags to the concrete types
// of the polymorphic base B.
type TypeRegistry[B any] struct {
	entries []TypeEntry[B]
	byTag   *sortedhash.Map[string, int]
}

// NewTypeRegistry creates a registry. Tags must be unique and non-empty.
func NewTypeRegistry[B any](entries ...TypeEntry[B]) (*TypeRegistry[B], error) {
	var errs []error
	tags := make([]string, len(entries))
	indexes := make([]int, len(entries))
	for i, e := range entries {
		if e.err != nil {
			errs = append(errs, e.err)
		}
		if e.tag == "" {
			errs = append(errs, fmt.Errorf("empty tag for %s", e.typ))
		}
		tags[i], indexes[i] = e.tag, i
	}
	byTag, err := sortedhash.New(sortedhash.String, tags, indexes)
	if err != nil {
		var dup *sortedhash.DuplicateError[string]
		if errors.As(err, &dup) {
			err = fmt.Errorf("duplicate tag %q", dup.Key)
		}
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("type registry %s: %w", reflect.TypeFor[B](), errors.Join(errs...))
	}
	return &TypeRegistry[B]{entries: entries, byTag: byTag}, nil
}

// MustTypeRegistry is like NewTypeRegistry but panics on error.
func MustTypeRegistry[B any](entries ...TypeEntry[B]) *TypeRegistry[B] {
	r, err := NewTypeRegistry(entries...)
	if err != nil {
		panic(err)
	}
	return r
}

// Lookup returns the entry registered under tag.
func (r *TypeRegistry[B]) Lookup(tag string) (TypeEntry[B], bool) {
	i, ok := r.byTag.Get(tag)
	if !ok {
		return TypeEntry[B]{}, false
	}
	return r.entries[i], true
}

// entryOf returns the entry for the dynamic type of b.
func (r *TypeRegistry[B]) entryOf(b B) (TypeEntry[B], error) {
	if t, ok := any(b).(TypeTagger); ok {
		tag := t.JSONTypeTag()
		e, ok := r.Lookup(tag)
		if !ok {
			return e, fmt.Errorf("%w: %q", ErrUnknownDiscriminator, tag)
		}
		if !e.is(b) {
			return e, fmt.Errorf("%w: %T tagged %q which is %s",
				ErrUnregisteredType, b, tag, e.typ)
		}
		return e, nil
	}
	for _, e := range r.entries {
		if e.is(b) {
			return e, nil
		}
	}
	return TypeEntry[B]{}, fmt.Errorf("%w: %T", ErrUnregisteredType, b)
}

// PolymorphicConverter converts values of the polymorphic base B as
// objects whose first key is the discriminator naming the concrete type:
//
//	{"type":"Circle","radius":2}
//
// null converts to the nil base.
type PolymorphicConverter[B any] struct {
	Registry *TypeRegistry[B]
	// Key is the discriminator key, DefaultDiscriminator if empty.
	Key string
}

// Polymorphic returns a converter over registry using the
// discriminator key.
func Polymorphic[B any](registry *TypeRegistry[B], key string) PolymorphicConverter[B] {
	return PolymorphicConverter[B]{Registry: registry, Key: key}
}

func (c PolymorphicConverter[B]) key() string {
	if c.Key == "" {
		return DefaultDiscriminator
	}
	return c.Key
}

// Read implements Converter.
func (c PolymorphicConverter[B]) Read(p *Parser) (b B, err error) {
	null, err := p.NextIsNull()
	if err != nil {
		return b, err
	}
	if null {
		return b, p.ReadNull()
	}
	if err := p.StartObject(); err != nil {
		return b, err
	}
	tok, err := p.Next()
	if err != nil {
		return b, err
	}
	if tok.Kind != TokenKey || tok.Str != c.key() {
		return b, ErrorDecode{
			Err: ErrMissingDiscriminator, Index: tok.Pos,
			Detail: fmt.Sprintf("expected key %q first, got %s", c.key(), tok),
		}
	}
	tag, err := p.take(TokenString)
	if err != nil {
		return b, err
	}
	e, ok := c.Registry.Lookup(tag.Str)
	if !ok {
		return b, ErrorDecode{
			Err: ErrUnknownDiscriminator, Index: tag.Pos, Detail: strconv.Quote(tag.Str),
		}
	}
	if b, err = e.read(p); err != nil {
		return b, fmt.Errorf("%s: %w", e.tag, err)
	}
	return b, nil
}

// Write implements Converter.
func (c PolymorphicConverter[B]) Write(w *Writer, b B) error {
	if rv := reflect.ValueOf(b); !rv.IsValid() ||
		rv.Kind() == reflect.Pointer && rv.IsNil() {
		w.Null()
		return w.Err()
	}
	e, err := c.Registry.entryOf(b)
	if err != nil {
		return err
	}
	w.StartObject()
	w.Key(c.key())
	w.String(e.tag)
	if err := e.write(w, b); err != nil {
		return fmt.Errorf("%s: %w", e.tag, err)
	}
	w.EndObject()
	return w.Err()
}

// AcceptsToken implements TokenAcceptor.
func (PolymorphicConverter[B]) AcceptsToken(k TokenKind) bool {
	return k == TokenNull || k == TokenStartObject
}

// PolymorphicField creates a field holding a polymorphic B
// discriminated by key.
func PolymorphicField[O, B any](
	name string, access func(*O) *B, registry *TypeRegistry[B], key string,
	options ...FieldOption[B],
) Member[O] {
	return FieldWith(name, access, Converter[B](Polymorphic(registry, key)), options...)
}

// PolymorphicSliceField creates a field holding a slice of polymorphic B
// discriminated by key. nil elements are written as null.
func PolymorphicSliceField[O, B any](
	name string, access func(*O) *[]B, registry *TypeRegistry[B], key string,
	options ...FieldOption[[]B],
) Member[O] {
	conv := SliceOf[B](Polymorphic(registry, key))
	return FieldWith(name, access, Converter[[]B](conv), options...)
}
