package json5bind

// PointerConverter converts owning pointers. A nil pointer is written as
// null, a non-nil pointer as its pointee. Reading null yields nil.
type PointerConverter[T any] struct{ Elem Converter[T] }

// PointerOf returns a converter for *T using elem for the pointee.
func PointerOf[T any](elem Converter[T]) PointerConverter[T] {
	return PointerConverter[T]{Elem: elem}
}

// Read implements Converter.
func (c PointerConverter[T]) Read(p *Parser) (*T, error) {
	null, err := p.NextIsNull()
	if err != nil {
		return nil, err
	}
	if null {
		return nil, p.ReadNull()
	}
	v, err := c.Elem.Read(p)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// Write implements Converter.
func (c PointerConverter[T]) Write(w *Writer, v *T) error {
	if v == nil {
		w.Null()
		return w.Err()
	}
	return c.Elem.Write(w, *v)
}

// AcceptsToken implements TokenAcceptor.
func (c PointerConverter[T]) AcceptsToken(k TokenKind) bool {
	return k == TokenNull || accepts(c.Elem, k)
}
