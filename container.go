package json5bind

import (
	"cmp"
	"fmt"
	"maps"
	"slices"
)

// SliceConverter converts slices to arrays using Elem for the elements.
// Reading an empty array yields an empty non-nil slice,
// writing a nil slice yields [].
type SliceConverter[T any] struct{ Elem Converter[T] }

// SliceOf returns a converter for []T using elem for the elements.
func SliceOf[T any](elem Converter[T]) SliceConverter[T] {
	return SliceConverter[T]{Elem: elem}
}

// Read implements Converter.
func (c SliceConverter[T]) Read(p *Parser) ([]T, error) {
	if err := p.StartArray(); err != nil {
		return nil, err
	}
	s := []T{}
	for {
		end, err := p.NextIsEndArray()
		if err != nil {
			return nil, err
		}
		if end {
			break
		}
		v, err := c.Elem.Read(p)
		if err != nil {
			return nil, fmt.Errorf("index %d: %w", len(s), err)
		}
		s = append(s, v)
	}
	return s, p.EndArray()
}

// Write implements Converter.
func (c SliceConverter[T]) Write(w *Writer, s []T) error {
	w.StartArray()
	for _, v := range s {
		if err := c.Elem.Write(w, v); err != nil {
			return err
		}
	}
	w.EndArray()
	return w.Err()
}

// AcceptsToken implements TokenAcceptor.
func (SliceConverter[T]) AcceptsToken(k TokenKind) bool { return k == TokenStartArray }

// SetConverter converts sets to arrays. Elements are inserted when reading,
// repeated elements collapse. Elements are written in ascending order.
type SetConverter[K cmp.Ordered] struct{ Elem Converter[K] }

// SetOf returns a converter for map[K]struct{} using elem for the elements.
func SetOf[K cmp.Ordered](elem Converter[K]) SetConverter[K] {
	return SetConverter[K]{Elem: elem}
}

// Read implements Converter.
func (c SetConverter[K]) Read(p *Parser) (map[K]struct{}, error) {
	if err := p.StartArray(); err != nil {
		return nil, err
	}
	m := map[K]struct{}{}
	for i := 0; ; i++ {
		end, err := p.NextIsEndArray()
		if err != nil {
			return nil, err
		}
		if end {
			break
		}
		k, err := c.Elem.Read(p)
		if err != nil {
			return nil, fmt.Errorf("index %d: %w", i, err)
		}
		m[k] = struct{}{}
	}
	return m, p.EndArray()
}

// Write implements Converter.
func (c SetConverter[K]) Write(w *Writer, m map[K]struct{}) error {
	w.StartArray()
	for _, k := range slices.Sorted(maps.Keys(m)) {
		if err := c.Elem.Write(w, k); err != nil {
			return err
		}
	}
	w.EndArray()
	return w.Err()
}

// AcceptsToken implements TokenAcceptor.
func (SetConverter[K]) AcceptsToken(k TokenKind) bool { return k == TokenStartArray }
