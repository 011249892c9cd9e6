package json5bind

// AheadSize is the number of bytes past the current position a Source
// guarantees to be peekable. Peeking past the logical end yields 0.
const AheadSize = 64

// Source is the byte input of the tokenizer.
type Source interface {
	// PeekAhead returns the byte at offset bytes past the current position.
	// offset must be smaller than AheadSize.
	PeekAhead(offset int) byte
	// Consume advances the position by n bytes (n < AheadSize).
	Consume(n int)
	// Position returns the absolute byte offset of the current position.
	Position() int64
	// EOF reports whether the position reached the end of input.
	// A source that failed reading reports EOF and returns the failure
	// from Err.
	EOF() bool
	// Err returns the first read error, if any.
	Err() error
}

// LookAheadBuffer is an in-memory Source.
type LookAheadBuffer struct {
	data []byte // Padded with AheadSize zero bytes.
	end  int
	pos  int
}

// NewLookAheadBuffer creates a buffer over a copy of data.
func NewLookAheadBuffer(data []byte) *LookAheadBuffer {
	b := make([]byte, len(data)+AheadSize)
	copy(b, data)
	return &LookAheadBuffer{data: b, end: len(data)}
}

// NewLookAheadBufferString creates a buffer over a copy of s.
func NewLookAheadBufferString(s string) *LookAheadBuffer {
	b := make([]byte, len(s)+AheadSize)
	copy(b, s)
	return &LookAheadBuffer{data: b, end: len(s)}
}

// PeekAhead implements Source.
func (b *LookAheadBuffer) PeekAhead(offset int) byte { return b.data[b.pos+offset] }

// Consume implements Source.
func (b *LookAheadBuffer) Consume(n int) { b.pos = min(b.pos+n, b.end) }

// Position implements Source.
func (b *LookAheadBuffer) Position() int64 { return int64(b.pos) }

// EOF implements Source.
func (b *LookAheadBuffer) EOF() bool { return b.pos >= b.end }

// Err implements Source. It always returns nil.
func (b *LookAheadBuffer) Err() error { return nil }

// Len returns the length of the unpadded input.
func (b *LookAheadBuffer) Len() int { return b.end }
