package json5bind

import (
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/romshark/json5bind/internal/atoi"
	"github.com/romshark/json5bind/internal/unescape"
)

// tokenBatchSize is the number of tokens buffered locally before being
// pushed to the channel.
const tokenBatchSize = 256

// Tokenizer converts JSON5 text from a Source into a sequence of tokens
// pushed to a TokenChannel. The last token of a successful run is
// always TokenEndOfStream.
type Tokenizer struct {
	src     Source
	out     *TokenChannel
	logger  *slog.Logger
	batch   []Token
	scratch []byte

	// discard is set once the consumer stopped accepting tokens.
	// The input is still validated to the end so that lexical errors
	// surface no matter how early the consumer gave up.
	discard bool
}

// NewTokenizer creates a tokenizer reading src and writing to out.
// Warnings are logged to logger, or slog.Default() if logger is nil.
func NewTokenizer(src Source, out *TokenChannel, logger *slog.Logger) *Tokenizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tokenizer{
		src:     src,
		out:     out,
		logger:  logger,
		batch:   make([]Token, 0, tokenBatchSize),
		scratch: make([]byte, 0, 64),
	}
}

// Run tokenizes the whole input. The first lexical or read error aborts
// the run and is returned; tokens emitted before it remain in the channel.
func (t *Tokenizer) Run() error {
	err := t.run()
	if srcErr := t.src.Err(); srcErr != nil {
		// A failed read truncates the input which may cause lexical errors.
		err = srcErr
	}
	if err != nil {
		t.flush()
		return err
	}
	t.emit(Token{Kind: TokenEndOfStream, Pos: t.src.Position()})
	t.flush()
	return nil
}

func (t *Tokenizer) run() error {
	for {
		if err := t.skipInsignificant(); err != nil {
			return err
		}
		if t.src.EOF() {
			return nil
		}
		pos := t.src.Position()
		switch c := t.src.PeekAhead(0); c {
		case '{':
			t.src.Consume(1)
			t.emit(Token{Kind: TokenStartObject, Pos: pos})
		case '}':
			t.src.Consume(1)
			t.emit(Token{Kind: TokenEndObject, Pos: pos})
		case '[':
			t.src.Consume(1)
			t.emit(Token{Kind: TokenStartArray, Pos: pos})
		case ']':
			t.src.Consume(1)
			t.emit(Token{Kind: TokenEndArray, Pos: pos})
		case ',', ':':
			t.src.Consume(1)
		case '"', '\'':
			s, err := t.readString(c)
			if err != nil {
				return err
			}
			if err := t.keyOrValue(Token{Kind: TokenString, Str: s, Pos: pos}); err != nil {
				return err
			}
		case '-', '+', '.', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
			tok, err := t.readNumber()
			if err != nil {
				return err
			}
			t.emit(tok)
			if err := t.expectValueEnd(); err != nil {
				return err
			}
		default:
			if !isIdentStart(c) {
				return t.errUnexpectedChar("")
			}
			if err := t.readWord(pos); err != nil {
				return err
			}
		}
	}
}

func (t *Tokenizer) emit(tok Token) {
	t.batch = append(t.batch, tok)
	if len(t.batch) >= tokenBatchSize {
		t.flush()
	}
}

func (t *Tokenizer) flush() {
	if !t.discard && !t.out.PushBatch(t.batch) {
		t.discard = true
	}
	t.batch = t.batch[:0]
}

// keyOrValue emits tok as a key if it's followed by ':',
// otherwise as a value.
func (t *Tokenizer) keyOrValue(tok Token) error {
	if err := t.skipInsignificant(); err != nil {
		return err
	}
	if !t.src.EOF() && t.src.PeekAhead(0) == ':' {
		t.src.Consume(1)
		tok.Kind = TokenKey
		t.emit(tok)
		return nil
	}
	t.emit(tok)
	return t.expectValueEnd()
}

// expectValueEnd makes sure a value is followed by ',', '}', ']' or the
// end of input.
func (t *Tokenizer) expectValueEnd() error {
	if err := t.skipInsignificant(); err != nil {
		return err
	}
	if t.src.EOF() {
		return nil
	}
	switch t.src.PeekAhead(0) {
	case ',', '}', ']':
		return nil
	}
	return t.errUnexpectedChar("after value")
}

func (t *Tokenizer) errUnexpectedChar(context string) error {
	detail := t.describeChar()
	if context != "" {
		detail += " " + context
	}
	return ErrorDecode{Err: ErrUnexpectedChar, Index: t.src.Position(), Detail: detail}
}

func (t *Tokenizer) describeChar() string {
	c := t.src.PeekAhead(0)
	if c < utf8.RuneSelf {
		return strconv.QuoteRune(rune(c))
	}
	if r, n := t.peekRune(); n > 0 {
		return strconv.QuoteRune(r)
	}
	return fmt.Sprintf("byte 0x%02x", c)
}

// skipInsignificant skips whitespace and comments.
func (t *Tokenizer) skipInsignificant() error {
	for !t.src.EOF() {
		switch c := t.src.PeekAhead(0); c {
		case ' ', '\t', '\n', '\r', '\v', '\f':
			t.src.Consume(1)
		case '/':
			switch t.src.PeekAhead(1) {
			case '/':
				t.src.Consume(2)
				t.skipLineComment()
			case '*':
				t.src.Consume(2)
				t.skipBlockComment()
			default:
				return t.errUnexpectedChar("")
			}
		default:
			if c < utf8.RuneSelf {
				return nil
			}
			n := t.unicodeSpaceLen()
			if n == 0 {
				return nil
			}
			t.src.Consume(n)
		}
	}
	return nil
}

func (t *Tokenizer) skipLineComment() {
	for !t.src.EOF() {
		switch t.src.PeekAhead(0) {
		case '\n', '\r':
			return
		case 0xE2:
			if t.src.PeekAhead(1) == 0x80 {
				if c := t.src.PeekAhead(2); c == 0xA8 || c == 0xA9 {
					return
				}
			}
		}
		t.src.Consume(1)
	}
}

// skipBlockComment skips to after the closing "*/".
// An unterminated block comment ends at the end of input.
func (t *Tokenizer) skipBlockComment() {
	for !t.src.EOF() {
		if t.src.PeekAhead(0) == '*' && t.src.PeekAhead(1) == '/' {
			t.src.Consume(2)
			return
		}
		t.src.Consume(1)
	}
}

// unicodeSpaceLen returns the UTF-8 length of the non-ASCII whitespace
// character at the current position, or 0 if there is none.
func (t *Tokenizer) unicodeSpaceLen() int {
	b0, b1, b2 := t.src.PeekAhead(0), t.src.PeekAhead(1), t.src.PeekAhead(2)
	switch b0 {
	case 0xC2: // U+00A0
		if b1 == 0xA0 {
			return 2
		}
	case 0xE1: // U+1680
		if b1 == 0x9A && b2 == 0x80 {
			return 3
		}
	case 0xE2:
		switch b1 {
		case 0x80: // U+2000-U+200A, U+2028, U+2029, U+202F
			if b2 >= 0x80 && b2 <= 0x8A || b2 == 0xA8 || b2 == 0xA9 || b2 == 0xAF {
				return 3
			}
		case 0x81: // U+205F
			if b2 == 0x9F {
				return 3
			}
		}
	case 0xE3: // U+3000
		if b1 == 0x80 && b2 == 0x80 {
			return 3
		}
	case 0xEF: // U+FEFF
		if b1 == 0xBB && b2 == 0xBF {
			return 3
		}
	}
	return 0
}

// peekRune decodes the multi-byte UTF-8 sequence at the current position.
// n is 0 if the sequence is invalid.
func (t *Tokenizer) peekRune() (r rune, n int) {
	var b [utf8.UTFMax]byte
	b[0] = t.src.PeekAhead(0)
	switch {
	case b[0] < 0xC2:
		return 0, 0
	case b[0] < 0xE0:
		n = 2
	case b[0] < 0xF0:
		n = 3
	case b[0] < 0xF5:
		n = 4
	default:
		return 0, 0
	}
	for i := 1; i < n; i++ {
		b[i] = t.src.PeekAhead(i)
	}
	r, size := utf8.DecodeRune(b[:n])
	if r == utf8.RuneError || size != n {
		return 0, 0
	}
	return r, n
}

func (t *Tokenizer) errAt(err error, pos int64, detail string) error {
	return ErrorDecode{Err: err, Index: pos, Detail: detail}
}

// readString reads a quoted string literal and returns its unescaped value.
func (t *Tokenizer) readString(quote byte) (string, error) {
	start := t.src.Position()
	t.src.Consume(1)
	t.scratch = t.scratch[:0]
	for {
		if t.src.EOF() {
			return "", t.errAt(ErrUnterminatedString, start, "")
		}
		c := t.src.PeekAhead(0)
		switch {
		case c == quote:
			t.src.Consume(1)
			return string(t.scratch), nil
		case c == '\\':
			if err := t.readEscape(); err != nil {
				return "", err
			}
		case c == '\n' || c == '\r':
			return "", t.errAt(ErrUnterminatedString, start, "line break in string")
		case c < utf8.RuneSelf:
			t.scratch = append(t.scratch, c)
			t.src.Consume(1)
		default:
			r, n := t.peekRune()
			if n == 0 {
				return "", t.errAt(ErrInvalidUTF8, t.src.Position(), "")
			}
			if r == '\u2028' || r == '\u2029' {
				t.logger.Warn("unescaped line separator in string literal",
					slog.Int64("offset", t.src.Position()),
					slog.String("char", fmt.Sprintf("U+%04X", r)))
			}
			for i := 0; i < n; i++ {
				t.scratch = append(t.scratch, t.src.PeekAhead(i))
			}
			t.src.Consume(n)
		}
	}
}

// readEscape reads an escape sequence starting at the backslash
// and appends its value to t.scratch.
func (t *Tokenizer) readEscape() error {
	pos := t.src.Position()
	t.src.Consume(1)
	if t.src.EOF() {
		return t.errAt(ErrUnterminatedString, pos, "")
	}
	switch c := t.src.PeekAhead(0); {
	case c == 'u':
		r, err := t.readU4(pos)
		if err != nil {
			return err
		}
		if utf16.IsSurrogate(r) {
			r = t.completeSurrogate(r)
		}
		t.scratch = utf8.AppendRune(t.scratch, r)
	case c == 'x':
		t.src.Consume(1)
		hi, ok1 := unescape.Hex(t.src.PeekAhead(0))
		lo, ok2 := unescape.Hex(t.src.PeekAhead(1))
		if !ok1 || !ok2 {
			return t.errAt(ErrInvalidEscape, pos, `malformed \x escape`)
		}
		t.src.Consume(2)
		t.scratch = utf8.AppendRune(t.scratch, rune(hi<<4|lo))
	case c == '\r':
		t.src.Consume(1)
		if t.src.PeekAhead(0) == '\n' {
			t.src.Consume(1)
		}
	case c == '\n':
		t.src.Consume(1)
	case c >= '1' && c <= '9',
		c == '0' && t.src.PeekAhead(1) >= '0' && t.src.PeekAhead(1) <= '9':
		return t.errAt(ErrInvalidEscape, pos, "octal escapes are not allowed")
	case c >= utf8.RuneSelf:
		r, n := t.peekRune()
		if n == 0 {
			return t.errAt(ErrInvalidUTF8, t.src.Position(), "")
		}
		t.src.Consume(n)
		if r != '\u2028' && r != '\u2029' { // Line continuation otherwise.
			t.scratch = utf8.AppendRune(t.scratch, r)
		}
	default:
		if b, ok := unescape.Single(c); ok {
			c = b
		}
		t.scratch = append(t.scratch, c)
		t.src.Consume(1)
	}
	return nil
}

// readU4 reads the "uXXXX" part of a unicode escape sequence
// whose backslash at pos was already consumed.
func (t *Tokenizer) readU4(pos int64) (rune, error) {
	r, ok := unescape.Hex4([4]byte{
		t.src.PeekAhead(1), t.src.PeekAhead(2), t.src.PeekAhead(3), t.src.PeekAhead(4),
	})
	if !ok {
		return 0, t.errAt(ErrInvalidEscape, pos, `malformed \u escape`)
	}
	t.src.Consume(5)
	return r, nil
}

// completeSurrogate combines the surrogate r with an immediately following
// escaped low surrogate. Unpaired surrogates yield U+FFFD.
func (t *Tokenizer) completeSurrogate(r rune) rune {
	if r >= 0xDC00 || t.src.PeekAhead(0) != '\\' || t.src.PeekAhead(1) != 'u' {
		return utf8.RuneError
	}
	lo, ok := unescape.Hex4([4]byte{
		t.src.PeekAhead(2), t.src.PeekAhead(3), t.src.PeekAhead(4), t.src.PeekAhead(5),
	})
	if !ok || lo < 0xDC00 || lo > 0xDFFF {
		return utf8.RuneError
	}
	t.src.Consume(6)
	return utf16.DecodeRune(r, lo)
}

func isIdentStart(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' ||
		c == '_' || c == '$' || c == '\\' || c >= utf8.RuneSelf
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || c >= '0' && c <= '9'
}

// readIdentifier reads an identifier name decoding \uXXXX escapes.
func (t *Tokenizer) readIdentifier() (string, error) {
	t.scratch = t.scratch[:0]
	for !t.src.EOF() {
		c := t.src.PeekAhead(0)
		switch {
		case !isIdentPart(c):
			return string(t.scratch), nil
		case c == '\\':
			pos := t.src.Position()
			if t.src.PeekAhead(1) != 'u' {
				return "", t.errAt(ErrInvalidEscape, pos, "identifiers only allow \\u escapes")
			}
			t.src.Consume(1)
			r, err := t.readU4(pos)
			if err != nil {
				return "", err
			}
			if utf16.IsSurrogate(r) {
				r = t.completeSurrogate(r)
			}
			t.scratch = utf8.AppendRune(t.scratch, r)
		case c >= utf8.RuneSelf:
			if t.unicodeSpaceLen() > 0 {
				return string(t.scratch), nil
			}
			r, n := t.peekRune()
			if n == 0 {
				return "", t.errAt(ErrInvalidUTF8, t.src.Position(), "")
			}
			t.scratch = utf8.AppendRune(t.scratch, r)
			t.src.Consume(n)
		default:
			t.scratch = append(t.scratch, c)
			t.src.Consume(1)
		}
	}
	return string(t.scratch), nil
}

// readWord reads an identifier which is either a key (when followed by ':')
// or one of the literals true, false, null, Infinity and NaN.
func (t *Tokenizer) readWord(pos int64) error {
	word, err := t.readIdentifier()
	if err != nil {
		return err
	}
	if word == "" {
		return t.errUnexpectedChar("")
	}
	if err := t.skipInsignificant(); err != nil {
		return err
	}
	if !t.src.EOF() && t.src.PeekAhead(0) == ':' {
		t.src.Consume(1)
		t.emit(Token{Kind: TokenKey, Str: word, Pos: pos})
		return nil
	}
	tok := Token{Pos: pos}
	switch word {
	case "true", "false":
		tok.Kind, tok.Bool = TokenBool, word == "true"
	case "null":
		tok.Kind = TokenNull
	case "Infinity":
		tok.Kind, tok.Num = TokenNumber, math.Inf(1)
	case "NaN":
		tok.Kind, tok.Num = TokenNumber, math.NaN()
	default:
		return t.errAt(ErrUnexpectedChar, pos, fmt.Sprintf("unexpected identifier %q", word))
	}
	t.emit(tok)
	return t.expectValueEnd()
}

// readNumber reads a numeric literal: optionally signed decimal, hexadecimal,
// Infinity or NaN.
func (t *Tokenizer) readNumber() (Token, error) {
	pos := t.src.Position()
	tok := Token{Pos: pos}
	t.scratch = t.scratch[:0]
	neg := false
	if c := t.src.PeekAhead(0); c == '-' || c == '+' {
		neg = c == '-'
		t.scratch = append(t.scratch, c)
		t.src.Consume(1)
	}
	errInvalid := func(detail string) (Token, error) {
		return Token{}, t.errAt(ErrInvalidNumber, pos, detail)
	}

	switch c := t.src.PeekAhead(0); {
	case c == 'I' || c == 'N':
		word, err := t.readIdentifier()
		if err != nil {
			return Token{}, err
		}
		tok.Kind = TokenNumber
		switch word {
		case "Infinity":
			tok.Num = math.Inf(1)
			if neg {
				tok.Num = math.Inf(-1)
			}
		case "NaN":
			tok.Num = math.NaN()
		default:
			return errInvalid(fmt.Sprintf("unexpected identifier %q", word))
		}
		return tok, nil

	case c == '0' && (t.src.PeekAhead(1) == 'x' || t.src.PeekAhead(1) == 'X'):
		t.src.Consume(2)
		digits := len(t.scratch)
		for !t.src.EOF() {
			c := t.src.PeekAhead(0)
			if _, ok := unescape.Hex(c); !ok {
				break
			}
			t.scratch = append(t.scratch, c)
			t.src.Consume(1)
		}
		if len(t.scratch) == digits {
			return errInvalid("missing hexadecimal digits")
		}
		u, overflow := atoi.HexU64(t.scratch[digits:])
		if overflow {
			return Token{}, t.errAt(ErrIntegerOverflow, pos, "")
		}
		return integerToken(tok, u, neg, pos)
	}

	intStart := len(t.scratch)
	t.readDigits()
	intDigits := len(t.scratch) - intStart
	if intDigits > 1 && t.scratch[intStart] == '0' {
		return errInvalid("leading zeros are not allowed")
	}
	isFloat := false
	if t.src.PeekAhead(0) == '.' {
		isFloat = true
		t.scratch = append(t.scratch, '.')
		t.src.Consume(1)
		fracStart := len(t.scratch)
		t.readDigits()
		if intDigits == 0 && len(t.scratch) == fracStart {
			return errInvalid("missing digits")
		}
	} else if intDigits == 0 {
		return errInvalid("missing digits")
	}
	if c := t.src.PeekAhead(0); c == 'e' || c == 'E' {
		isFloat = true
		t.scratch = append(t.scratch, 'e')
		t.src.Consume(1)
		if c := t.src.PeekAhead(0); c == '+' || c == '-' {
			t.scratch = append(t.scratch, c)
			t.src.Consume(1)
		}
		expStart := len(t.scratch)
		t.readDigits()
		if len(t.scratch) == expStart {
			return errInvalid("missing exponent digits")
		}
	}

	if !isFloat {
		if u, overflow := atoi.U64(t.scratch[intStart:]); !overflow {
			if tok, err := integerToken(tok, u, neg, pos); err == nil {
				return tok, nil
			}
		}
		// Out of 64-bit range, fall back to a floating point number.
	}
	f, err := strconv.ParseFloat(string(t.scratch), 64)
	if err != nil && !isRangeErr(err) {
		return errInvalid(err.Error())
	}
	tok.Kind, tok.Num = TokenNumber, f
	return tok, nil
}

func isRangeErr(err error) bool {
	ne, ok := err.(*strconv.NumError)
	return ok && ne.Err == strconv.ErrRange
}

func (t *Tokenizer) readDigits() {
	for !t.src.EOF() {
		c := t.src.PeekAhead(0)
		if c < '0' || c > '9' {
			return
		}
		t.scratch = append(t.scratch, c)
		t.src.Consume(1)
	}
}

// integerToken sets tok to the integer u negated if neg.
func integerToken(tok Token, u uint64, neg bool, pos int64) (Token, error) {
	tok.Kind = TokenInteger
	switch {
	case neg && u > 1<<63:
		return Token{}, ErrorDecode{Err: ErrIntegerOverflow, Index: pos}
	case neg:
		tok.Int = -int64(u)
	case u > math.MaxInt64:
		tok.Int, tok.Unsigned = int64(u), true
	default:
		tok.Int = int64(u)
	}
	return tok, nil
}
