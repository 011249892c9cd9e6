package json5bind

import "fmt"

// TokenDispatchConverter reads values of type V by dispatching on the
// kind of the next token to the matching handler. A handler must consume
// exactly one complete value. Token kinds without a handler are rejected
// with ErrUnexpectedToken. Write is delegated to WriteFunc.
type TokenDispatchConverter[V any] struct {
	OnNull    func(p *Parser) (V, error)
	OnBool    func(p *Parser) (V, error)
	OnInteger func(p *Parser) (V, error)
	OnNumber  func(p *Parser) (V, error)
	OnString  func(p *Parser) (V, error)
	OnObject  func(p *Parser) (V, error)
	OnArray   func(p *Parser) (V, error)

	WriteFunc func(w *Writer, v V) error
}

func (c *TokenDispatchConverter[V]) handler(k TokenKind) func(p *Parser) (V, error) {
	switch k {
	case TokenNull:
		return c.OnNull
	case TokenBool:
		return c.OnBool
	case TokenInteger:
		return c.OnInteger
	case TokenNumber:
		return c.OnNumber
	case TokenString:
		return c.OnString
	case TokenStartObject:
		return c.OnObject
	case TokenStartArray:
		return c.OnArray
	}
	return nil
}

// Read implements Converter.
func (c *TokenDispatchConverter[V]) Read(p *Parser) (v V, err error) {
	tok, err := p.Peek()
	if err != nil {
		return v, err
	}
	h := c.handler(tok.Kind)
	if h == nil {
		return v, ErrorDecode{
			Err: ErrUnexpectedToken, Index: tok.Pos,
			Detail: fmt.Sprintf("no handler for %s", tok.Kind),
		}
	}
	return h(p)
}

// Write implements Converter.
func (c *TokenDispatchConverter[V]) Write(w *Writer, v V) error {
	if c.WriteFunc == nil {
		return fmt.Errorf("%w: %T (no write function)", ErrNoConverter, v)
	}
	return c.WriteFunc(w, v)
}

// AcceptsToken implements TokenAcceptor.
func (c *TokenDispatchConverter[V]) AcceptsToken(k TokenKind) bool {
	return c.handler(k) != nil
}
