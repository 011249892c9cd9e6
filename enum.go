package json5bind

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"

	"github.com/romshark/json5bind/internal/sortedhash"
)

// Integer is any integer type.
type Integer interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uintptr
}

// EnumEntry maps an enum value to its name.
type EnumEntry[E Integer] struct {
	Value E
	Name  string
}

// EnumConverter converts enum values to and from their names.
// Unknown names fail with ErrUnknownEnumName,
// unmapped values with ErrUnknownEnumValue.
type EnumConverter[E Integer] struct {
	byName  *sortedhash.Map[string, E]
	byValue *sortedhash.Map[E, string]
}

func hashInteger[E Integer](v E) uint64 { return sortedhash.Uint64(uint64(v)) }

// NewEnumConverter creates an enum converter. Both names and values
// must be unique.
func NewEnumConverter[E Integer](entries ...EnumEntry[E]) (*EnumConverter[E], error) {
	names := make([]string, len(entries))
	values := make([]E, len(entries))
	for i, e := range entries {
		names[i], values[i] = e.Name, e.Value
	}
	tp := reflect.TypeFor[E]()
	byName, err := sortedhash.New(sortedhash.String, names, values)
	if err != nil {
		var dup *sortedhash.DuplicateError[string]
		if errors.As(err, &dup) {
			return nil, fmt.Errorf("enum %s: duplicate name %q", tp, dup.Key)
		}
		return nil, fmt.Errorf("enum %s: %w", tp, err)
	}
	byValue, err := sortedhash.New(hashInteger[E], values, names)
	if err != nil {
		var dup *sortedhash.DuplicateError[E]
		if errors.As(err, &dup) {
			return nil, fmt.Errorf("enum %s: duplicate value %v", tp, dup.Key)
		}
		return nil, fmt.Errorf("enum %s: %w", tp, err)
	}
	return &EnumConverter[E]{byName: byName, byValue: byValue}, nil
}

// MustEnumConverter is like NewEnumConverter but panics on error.
func MustEnumConverter[E Integer](entries ...EnumEntry[E]) *EnumConverter[E] {
	c, err := NewEnumConverter(entries...)
	if err != nil {
		panic(err)
	}
	return c
}

// Name returns the name of v.
func (c *EnumConverter[E]) Name(v E) (string, bool) { return c.byValue.Get(v) }

// Value returns the value named name.
func (c *EnumConverter[E]) Value(name string) (E, bool) { return c.byName.Get(name) }

// Read implements Converter.
func (c *EnumConverter[E]) Read(p *Parser) (E, error) {
	tok, err := p.take(TokenString)
	if err != nil {
		return 0, err
	}
	v, ok := c.byName.Get(tok.Str)
	if !ok {
		return 0, ErrorDecode{
			Err: ErrUnknownEnumName, Index: tok.Pos, Detail: strconv.Quote(tok.Str),
		}
	}
	return v, nil
}

// Write implements Converter.
func (c *EnumConverter[E]) Write(w *Writer, v E) error {
	name, ok := c.byValue.Get(v)
	if !ok {
		return fmt.Errorf("%w: %v of %s", ErrUnknownEnumValue, v, reflect.TypeFor[E]())
	}
	w.String(name)
	return w.Err()
}

// AcceptsToken implements TokenAcceptor.
func (*EnumConverter[E]) AcceptsToken(k TokenKind) bool { return k == TokenString }
