package json5bind

import (
	"fmt"
	"strconv"
)

// TokenKind is the kind of a lexical token.
type TokenKind uint8

const (
	TokenEndOfStream TokenKind = iota
	TokenNull
	TokenBool
	TokenInteger
	TokenNumber
	TokenString
	TokenKey
	TokenStartObject
	TokenEndObject
	TokenStartArray
	TokenEndArray
)

func (k TokenKind) String() string {
	switch k {
	case TokenEndOfStream:
		return "end of stream"
	case TokenNull:
		return "null"
	case TokenBool:
		return "boolean"
	case TokenInteger:
		return "integer"
	case TokenNumber:
		return "number"
	case TokenString:
		return "string"
	case TokenKey:
		return "key"
	case TokenStartObject:
		return "{"
	case TokenEndObject:
		return "}"
	case TokenStartArray:
		return "["
	case TokenEndArray:
		return "]"
	}
	return "TokenKind(" + strconv.Itoa(int(k)) + ")"
}

// IsValue reports whether k starts a value.
func (k TokenKind) IsValue() bool {
	switch k {
	case TokenNull, TokenBool, TokenInteger, TokenNumber, TokenString,
		TokenStartObject, TokenStartArray:
		return true
	}
	return false
}

// Token is a single lexical token. Only the payload field matching Kind
// is meaningful: Bool for TokenBool, Int for TokenInteger, Num for
// TokenNumber and Str for TokenString and TokenKey.
type Token struct {
	Kind TokenKind

	Bool bool
	Int  int64
	Num  float64
	Str  string

	// Unsigned is set for integer literals above math.MaxInt64;
	// Int then holds the bit pattern of the uint64 value.
	Unsigned bool

	// Pos is the byte offset of the token in the input.
	Pos int64
}

// Uint64 returns the integer payload as uint64.
// ok is false if the value is negative.
func (t Token) Uint64() (v uint64, ok bool) {
	if t.Unsigned {
		return uint64(t.Int), true
	}
	if t.Int < 0 {
		return 0, false
	}
	return uint64(t.Int), true
}

// Float64 returns the numeric payload of an integer or number token.
func (t Token) Float64() float64 {
	switch {
	case t.Kind == TokenNumber:
		return t.Num
	case t.Unsigned:
		return float64(uint64(t.Int))
	}
	return float64(t.Int)
}

func (t Token) String() string {
	switch t.Kind {
	case TokenBool:
		return strconv.FormatBool(t.Bool)
	case TokenInteger:
		if t.Unsigned {
			return strconv.FormatUint(uint64(t.Int), 10)
		}
		return strconv.FormatInt(t.Int, 10)
	case TokenNumber:
		return strconv.FormatFloat(t.Num, 'g', -1, 64)
	case TokenString:
		return strconv.Quote(t.Str)
	case TokenKey:
		return fmt.Sprintf("key %q", t.Str)
	}
	return t.Kind.String()
}
