package json5bind

import (
	"errors"
	"strconv"
	"strings"
)

var (
	ErrNilDest = errors.New("decoding to nil pointer")

	// Lexical errors.
	ErrUnexpectedChar     = errors.New("unexpected character")
	ErrUnterminatedString = errors.New("unterminated string")
	ErrInvalidEscape      = errors.New("invalid escape sequence")
	ErrInvalidUTF8        = errors.New("invalid UTF-8")
	ErrInvalidNumber      = errors.New("invalid number")

	// Structural and type errors.
	ErrUnexpectedToken = errors.New("unexpected token")
	ErrTrailingData    = errors.New("trailing data after top-level value")
	ErrIntegerOverflow = errors.New("integer overflow")
	ErrNumberRange     = errors.New("number out of range")
	ErrCharRange       = errors.New("character out of range")

	// Binding errors.
	ErrDuplicateKey         = errors.New("duplicate key")
	ErrMissingKey           = errors.New("missing required key")
	ErrUnknownKey           = errors.New("unknown key")
	ErrUnknownEnumName      = errors.New("unknown enum name")
	ErrUnknownEnumValue     = errors.New("unmapped enum value")
	ErrMissingDiscriminator = errors.New("missing type discriminator")
	ErrUnknownDiscriminator = errors.New("unknown type discriminator")
	ErrUnregisteredType     = errors.New("type not registered")
	ErrNoVariantAlternative = errors.New("no matching variant alternative")
	ErrNoConverter          = errors.New("no converter for type")
	ErrInvalidFieldSet      = errors.New("invalid field set")

	// Writer errors.
	ErrInvalidKey = errors.New("key is not a valid identifier")
)

// ErrorDecode is a lexical, structural or type error located at
// byte offset Index of the input.
type ErrorDecode struct {
	Err    error
	Index  int64
	Detail string
}

func (e ErrorDecode) IsErr() bool { return e.Err != nil }

func (e ErrorDecode) Error() string {
	var s strings.Builder
	s.WriteString("at index ")
	s.WriteString(strconv.FormatInt(e.Index, 10))
	s.WriteString(": ")
	s.WriteString(e.Err.Error())
	if e.Detail != "" {
		s.WriteString(": ")
		s.WriteString(e.Detail)
	}
	return s.String()
}

func (e ErrorDecode) Unwrap() error { return e.Err }
