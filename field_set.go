package json5bind

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"

	"github.com/romshark/json5bind/internal/sortedhash"
)

// FieldSet is the ordered set of members binding an object type O.
// Fields are written in declaration order and looked up by key through
// a hash-sorted index when reading. A FieldSet is immutable and safe
// for concurrent use.
type FieldSet[O any] struct {
	fields []Member[O]
	index  *sortedhash.Map[string, int]
}

// NewFieldSet creates a field set. Embedded groups are flattened in place.
// Returns an error wrapping ErrInvalidFieldSet if a key is empty or
// occurs twice or if a field has no converter.
func NewFieldSet[O any](members ...Member[O]) (*FieldSet[O], error) {
	fs := &FieldSet[O]{fields: make([]Member[O], 0, len(members))}
	var errs []error
	var flatten func(members []Member[O])
	flatten = func(members []Member[O]) {
		for _, m := range members {
			if m == nil {
				errs = append(errs, errors.New("nil member"))
				continue
			}
			if err := m.initErr(); err != nil {
				errs = append(errs, err)
				continue
			}
			if g, ok := m.(fieldGroup[O]); ok {
				flatten(g.fields())
				continue
			}
			if m.Key() == "" {
				errs = append(errs, errors.New("empty key"))
				continue
			}
			fs.fields = append(fs.fields, m)
		}
	}
	flatten(members)

	keys := make([]string, len(fs.fields))
	indexes := make([]int, len(fs.fields))
	for i, f := range fs.fields {
		keys[i], indexes[i] = f.Key(), i
	}
	index, err := sortedhash.New(sortedhash.String, keys, indexes)
	if err != nil {
		var dup *sortedhash.DuplicateError[string]
		if errors.As(err, &dup) {
			err = fmt.Errorf("%w: %q", ErrDuplicateKey, dup.Key)
		}
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("%w for %s: %w",
			ErrInvalidFieldSet, reflect.TypeFor[O](), errors.Join(errs...))
	}
	fs.index = index
	return fs, nil
}

// MustFieldSet is like NewFieldSet but panics on error.
// It simplifies the initialization of package-level field sets.
func MustFieldSet[O any](members ...Member[O]) *FieldSet[O] {
	fs, err := NewFieldSet(members...)
	if err != nil {
		panic(err)
	}
	return fs
}

// Len returns the number of fields.
func (fs *FieldSet[O]) Len() int { return len(fs.fields) }

// Keys returns the keys in declaration order.
func (fs *FieldSet[O]) Keys() []string {
	keys := make([]string, len(fs.fields))
	for i, f := range fs.fields {
		keys[i] = f.Key()
	}
	return keys
}

// Lookup returns the declaration index of the field with the given key.
func (fs *FieldSet[O]) Lookup(key string) (int, bool) { return fs.index.Get(key) }

// WriteObject writes o as an object.
func (fs *FieldSet[O]) WriteObject(w *Writer, o *O) error {
	w.StartObject()
	if err := fs.writeMembers(w, o); err != nil {
		return err
	}
	w.EndObject()
	return w.Err()
}

// writeMembers writes all fields in declaration order without braces.
func (fs *FieldSet[O]) writeMembers(w *Writer, o *O) error {
	for _, f := range fs.fields {
		if err := f.writeField(w, o); err != nil {
			return err
		}
	}
	return nil
}

// ReadObject reads an object into o.
func (fs *FieldSet[O]) ReadObject(p *Parser, o *O) error {
	if o == nil {
		return ErrNilDest
	}
	if err := p.StartObject(); err != nil {
		return err
	}
	return fs.readMembers(p, o)
}

// readMembers reads the members of an object up to and including '}'
// in any order. Unknown keys are skipped, duplicates are rejected.
// Absent fields are handled according to their omission policy.
func (fs *FieldSet[O]) readMembers(p *Parser, o *O) error {
	var seen bitset
	seen.init(len(fs.fields))
	for {
		tok, err := p.tokens.Take()
		if err != nil {
			return err
		}
		if tok.Kind == TokenEndObject {
			break
		}
		if tok.Kind != TokenKey {
			return errUnexpected(tok, "key or }")
		}
		i, ok := fs.index.Get(tok.Str)
		if !ok {
			if err := p.unknownKey(tok); err != nil {
				return err
			}
			continue
		}
		if seen.has(i) {
			return ErrorDecode{
				Err: ErrDuplicateKey, Index: tok.Pos, Detail: strconv.Quote(tok.Str),
			}
		}
		seen.set(i)
		if err := fs.fields[i].readField(p, o); err != nil {
			return fmt.Errorf("key %q: %w", tok.Str, err)
		}
	}
	for i, f := range fs.fields {
		if seen.has(i) {
			continue
		}
		if err := f.applyMissing(o); err != nil {
			return err
		}
	}
	return nil
}

// fieldSetAny is the type-erased interface of *FieldSet[O] used by the
// reflection based codecs. o is always a *O.
type fieldSetAny interface {
	ownerType() reflect.Type
	readObjectAny(p *Parser, o any) error
	writeObjectAny(w *Writer, o any) error
}

func (*FieldSet[O]) ownerType() reflect.Type { return reflect.TypeFor[O]() }

func (fs *FieldSet[O]) readObjectAny(p *Parser, o any) error {
	return fs.ReadObject(p, o.(*O))
}

func (fs *FieldSet[O]) writeObjectAny(w *Writer, o any) error {
	return fs.WriteObject(w, o.(*O))
}

// bitset tracks seen fields. Sets of up to 64 fields don't allocate.
type bitset struct {
	small uint64
	large []uint64
}

func (b *bitset) init(n int) {
	if n > 64 {
		b.large = make([]uint64, (n+63)/64)
	}
}

func (b *bitset) has(i int) bool {
	if b.large == nil {
		return b.small&(1<<uint(i)) != 0
	}
	return b.large[i/64]&(1<<uint(i%64)) != 0
}

func (b *bitset) set(i int) {
	if b.large == nil {
		b.small |= 1 << uint(i)
		return
	}
	b.large[i/64] |= 1 << uint(i%64)
}
