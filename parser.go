package json5bind

import (
	"fmt"
	"math"
	"strconv"
)

// Parser is a cursor over a token stream exposing structural and typed
// read operations. It's not safe for concurrent use.
type Parser struct {
	tokens          TokenStream
	unknown         []string
	disallowUnknown bool
}

// NewParser creates a parser consuming tokens.
func NewParser(tokens TokenStream) *Parser {
	return &Parser{tokens: tokens}
}

func errUnexpected(tok Token, expected string) error {
	return ErrorDecode{
		Err:    ErrUnexpectedToken,
		Index:  tok.Pos,
		Detail: fmt.Sprintf("expected %s, got %s", expected, tok),
	}
}

func (p *Parser) take(kind TokenKind) (Token, error) {
	tok, err := p.tokens.Take()
	if err != nil {
		return tok, err
	}
	if tok.Kind != kind {
		return tok, errUnexpected(tok, kind.String())
	}
	return tok, nil
}

// Peek returns the next token without consuming it.
func (p *Parser) Peek() (Token, error) { return p.tokens.Peek() }

// PeekKind returns the kind of the next token without consuming it.
func (p *Parser) PeekKind() (TokenKind, error) {
	tok, err := p.tokens.Peek()
	return tok.Kind, err
}

// Next consumes and returns the next token.
func (p *Parser) Next() (Token, error) { return p.tokens.Take() }

// StartObject consumes '{'.
func (p *Parser) StartObject() error {
	_, err := p.take(TokenStartObject)
	return err
}

// EndObject consumes '}'.
func (p *Parser) EndObject() error {
	_, err := p.take(TokenEndObject)
	return err
}

// StartArray consumes '['.
func (p *Parser) StartArray() error {
	_, err := p.take(TokenStartArray)
	return err
}

// EndArray consumes ']'.
func (p *Parser) EndArray() error {
	_, err := p.take(TokenEndArray)
	return err
}

func (p *Parser) nextIs(kind TokenKind) (bool, error) {
	k, err := p.PeekKind()
	return k == kind, err
}

// NextIsEndObject reports whether the next token is '}' without consuming it.
func (p *Parser) NextIsEndObject() (bool, error) { return p.nextIs(TokenEndObject) }

// NextIsEndArray reports whether the next token is ']' without consuming it.
func (p *Parser) NextIsEndArray() (bool, error) { return p.nextIs(TokenEndArray) }

// NextIsNull reports whether the next token is null without consuming it.
func (p *Parser) NextIsNull() (bool, error) { return p.nextIs(TokenNull) }

// NextKey consumes a key and returns its name.
func (p *Parser) NextKey() (string, error) {
	tok, err := p.take(TokenKey)
	return tok.Str, err
}

// ReadNull consumes null.
func (p *Parser) ReadNull() error {
	_, err := p.take(TokenNull)
	return err
}

// ReadBool consumes a boolean.
func (p *Parser) ReadBool() (bool, error) {
	tok, err := p.take(TokenBool)
	return tok.Bool, err
}

// ReadString consumes a string.
func (p *Parser) ReadString() (string, error) {
	tok, err := p.take(TokenString)
	return tok.Str, err
}

// ReadInt64 consumes an integer in the int64 range.
func (p *Parser) ReadInt64() (int64, error) {
	tok, err := p.take(TokenInteger)
	if err != nil {
		return 0, err
	}
	if tok.Unsigned {
		return 0, ErrorDecode{Err: ErrIntegerOverflow, Index: tok.Pos}
	}
	return tok.Int, nil
}

// ReadUint64 consumes a non-negative integer.
func (p *Parser) ReadUint64() (uint64, error) {
	tok, err := p.take(TokenInteger)
	if err != nil {
		return 0, err
	}
	v, ok := tok.Uint64()
	if !ok {
		return 0, ErrorDecode{Err: ErrIntegerOverflow, Index: tok.Pos, Detail: "negative value"}
	}
	return v, nil
}

// ReadFloat64 consumes a number or an integer.
func (p *Parser) ReadFloat64() (float64, error) {
	tok, err := p.tokens.Take()
	if err != nil {
		return 0, err
	}
	if tok.Kind != TokenNumber && tok.Kind != TokenInteger {
		return 0, errUnexpected(tok, "number")
	}
	return tok.Float64(), nil
}

// readIntRange consumes an integer and checks it's within [lo, hi].
func (p *Parser) readIntRange(lo, hi int64) (int64, error) {
	tok, err := p.take(TokenInteger)
	if err != nil {
		return 0, err
	}
	if tok.Unsigned || tok.Int < lo || tok.Int > hi {
		return 0, ErrorDecode{Err: ErrIntegerOverflow, Index: tok.Pos, Detail: tok.String()}
	}
	return tok.Int, nil
}

// readUintRange consumes an integer and checks it's within [0, hi].
func (p *Parser) readUintRange(hi uint64) (uint64, error) {
	tok, err := p.take(TokenInteger)
	if err != nil {
		return 0, err
	}
	v, ok := tok.Uint64()
	if !ok || v > hi {
		return 0, ErrorDecode{Err: ErrIntegerOverflow, Index: tok.Pos, Detail: tok.String()}
	}
	return v, nil
}

// readFloat32 consumes a number that fits float32.
// NaN and infinities are kept as they are.
func (p *Parser) readFloat32() (float32, error) {
	tok, err := p.tokens.Peek()
	if err != nil {
		return 0, err
	}
	f, err := p.ReadFloat64()
	if err != nil {
		return 0, err
	}
	if !math.IsInf(f, 0) && math.Abs(f) > math.MaxFloat32 {
		return 0, ErrorDecode{Err: ErrNumberRange, Index: tok.Pos, Detail: tok.String()}
	}
	return float32(f), nil
}

// SkipValue consumes a complete value of any kind including nested
// objects and arrays.
func (p *Parser) SkipValue() error {
	tok, err := p.tokens.Take()
	if err != nil {
		return err
	}
	if !tok.Kind.IsValue() {
		return errUnexpected(tok, "value")
	}
	if tok.Kind != TokenStartObject && tok.Kind != TokenStartArray {
		return nil
	}
	// Track the nesting with a stack of closing kinds.
	stack := []TokenKind{closing(tok.Kind)}
	for len(stack) > 0 {
		if tok, err = p.tokens.Take(); err != nil {
			return err
		}
		top := stack[len(stack)-1]
		switch tok.Kind {
		case TokenStartObject, TokenStartArray:
			stack = append(stack, closing(tok.Kind))
		case TokenEndObject, TokenEndArray:
			if tok.Kind != top {
				return errUnexpected(tok, top.String())
			}
			stack = stack[:len(stack)-1]
		case TokenKey:
			if top != TokenEndObject {
				return errUnexpected(tok, "value")
			}
		case TokenEndOfStream:
			return errUnexpected(tok, top.String())
		}
	}
	return nil
}

func closing(k TokenKind) TokenKind {
	if k == TokenStartObject {
		return TokenEndObject
	}
	return TokenEndArray
}

// ExpectEndOfStream makes sure there are no tokens left.
func (p *Parser) ExpectEndOfStream() error {
	tok, err := p.tokens.Peek()
	if err != nil {
		return err
	}
	if tok.Kind != TokenEndOfStream {
		return ErrorDecode{Err: ErrTrailingData, Index: tok.Pos, Detail: tok.String()}
	}
	return nil
}

// NoteUnknownKey records a key that didn't match any field.
func (p *Parser) NoteUnknownKey(key string) { p.unknown = append(p.unknown, key) }

// unknownKey handles the unmatched key tok: it's either recorded and its
// value skipped or, if unknown keys are disallowed, reported as an error.
func (p *Parser) unknownKey(tok Token) error {
	if p.disallowUnknown {
		return ErrorDecode{Err: ErrUnknownKey, Index: tok.Pos, Detail: strconv.Quote(tok.Str)}
	}
	p.NoteUnknownKey(tok.Str)
	return p.SkipValue()
}

// UnknownKeys returns all keys recorded by NoteUnknownKey in encounter order.
func (p *Parser) UnknownKeys() []string { return p.unknown }
