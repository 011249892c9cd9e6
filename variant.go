package json5bind

import (
	"errors"
	"fmt"
	"reflect"
)

// Alternative is a single alternative of a VariantConverter for the
// interface type V. Create alternatives with Alt and AltOf.
type Alternative[V any] interface {
	// Type returns the type of the alternative.
	Type() reflect.Type

	initErr() error
	accepts(k TokenKind) bool
	read(p *Parser) (V, error)
	// write writes v and returns true if v holds the alternative's type.
	write(w *Writer, v V) (bool, error)
}

type alternative[V, A any] struct {
	conv Converter[A]
	err  error
}

// Alt creates an alternative of type A converted by conv.
// A must implement V.
func Alt[V, A any](conv Converter[A]) Alternative[V] {
	a := &alternative[V, A]{conv: conv}
	tv, ta := reflect.TypeFor[V](), reflect.TypeFor[A]()
	switch {
	case conv == nil:
		a.err = fmt.Errorf("alternative %s: %w: nil converter", ta, ErrNoConverter)
	case tv.Kind() != reflect.Interface:
		a.err = fmt.Errorf("variant type %s is not an interface", tv)
	case !ta.Implements(tv):
		a.err = fmt.Errorf("alternative %s doesn't implement %s", ta, tv)
	}
	return a
}

// AltOf creates an alternative of type A using the converter
// resolved by ConverterFor[A].
func AltOf[V, A any]() Alternative[V] {
	conv, err := ConverterFor[A]()
	if err != nil {
		return &alternative[V, A]{err: fmt.Errorf(
			"alternative %s: %w", reflect.TypeFor[A](), err,
		)}
	}
	return Alt[V](conv)
}

func (a *alternative[V, A]) Type() reflect.Type { return reflect.TypeFor[A]() }

func (a *alternative[V, A]) initErr() error { return a.err }

func (a *alternative[V, A]) accepts(k TokenKind) bool { return accepts(a.conv, k) }

func (a *alternative[V, A]) read(p *Parser) (v V, err error) {
	x, err := a.conv.Read(p)
	if err != nil {
		return v, err
	}
	return any(x).(V), nil
}

func (a *alternative[V, A]) write(w *Writer, v V) (bool, error) {
	x, ok := any(v).(A)
	if !ok {
		return false, nil
	}
	return true, a.conv.Write(w, x)
}

// VariantConverter converts values of the interface type V that hold
// one of several alternative types.
//
// When reading, the alternative is selected by the kind of the next token:
// the first declared alternative accepting it wins. Integer tokens prefer
// alternatives that don't also accept floating point numbers.
// When writing, the first alternative whose type the dynamic value holds
// is used. A nil value is written as null if any alternative accepts null.
type VariantConverter[V any] struct {
	alts []Alternative[V]
}

// NewVariantConverter creates a variant converter over alts in order
// of preference.
func NewVariantConverter[V any](alts ...Alternative[V]) (*VariantConverter[V], error) {
	var errs []error
	for _, a := range alts {
		if err := a.initErr(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(alts) == 0 {
		errs = append(errs, errors.New("no alternatives"))
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("variant %s: %w", reflect.TypeFor[V](), errors.Join(errs...))
	}
	return &VariantConverter[V]{alts: alts}, nil
}

// MustVariantConverter is like NewVariantConverter but panics on error.
func MustVariantConverter[V any](alts ...Alternative[V]) *VariantConverter[V] {
	c, err := NewVariantConverter(alts...)
	if err != nil {
		panic(err)
	}
	return c
}

// Alternatives returns the alternatives in order of preference.
func (c *VariantConverter[V]) Alternatives() []Alternative[V] { return c.alts }

// selectFor returns the alternative for a token of kind k or nil.
func (c *VariantConverter[V]) selectFor(k TokenKind) Alternative[V] {
	if k == TokenInteger {
		for _, a := range c.alts {
			if a.accepts(TokenInteger) && !a.accepts(TokenNumber) {
				return a
			}
		}
	}
	for _, a := range c.alts {
		if a.accepts(k) {
			return a
		}
	}
	return nil
}

// Read implements Converter.
func (c *VariantConverter[V]) Read(p *Parser) (v V, err error) {
	tok, err := p.Peek()
	if err != nil {
		return v, err
	}
	a := c.selectFor(tok.Kind)
	if a == nil {
		return v, ErrorDecode{
			Err: ErrNoVariantAlternative, Index: tok.Pos,
			Detail: fmt.Sprintf("%s for %s", tok.Kind, reflect.TypeFor[V]()),
		}
	}
	return a.read(p)
}

// Write implements Converter.
func (c *VariantConverter[V]) Write(w *Writer, v V) error {
	if any(v) == nil {
		for _, a := range c.alts {
			if a.accepts(TokenNull) {
				w.Null()
				return w.Err()
			}
		}
		return fmt.Errorf("%w: nil %s", ErrNoVariantAlternative, reflect.TypeFor[V]())
	}
	for _, a := range c.alts {
		ok, err := a.write(w, v)
		if ok {
			return err
		}
	}
	return fmt.Errorf("%w: %T for %s", ErrNoVariantAlternative, v, reflect.TypeFor[V]())
}

// AcceptsToken implements TokenAcceptor.
func (c *VariantConverter[V]) AcceptsToken(k TokenKind) bool { return c.selectFor(k) != nil }
