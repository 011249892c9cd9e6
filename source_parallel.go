package json5bind

import (
	"io"
	"sync"

	"github.com/romshark/json5bind/internal/workpool"
)

// DefaultBufferSize is the default capacity of each of the two buffers
// of a ParallelSource.
const DefaultBufferSize = 64 * 1024

// ReadError is a failure of the io.Reader underlying a ParallelSource.
type ReadError struct{ Err error }

func (e ReadError) Error() string { return "reading input: " + e.Err.Error() }

func (e ReadError) Unwrap() error { return e.Err }

// fill reads into buf until it's full or r reports io.EOF.
// Any other error, io.ErrUnexpectedEOF included, is returned as is.
func fill(r io.Reader, buf []byte) (n int, eof bool, err error) {
	for n < len(buf) {
		m, readErr := r.Read(buf[n:])
		n += m
		if readErr == io.EOF {
			return n, true, nil
		}
		if readErr != nil {
			return n, false, readErr
		}
	}
	return n, false, nil
}

// ParallelSource is a double-buffered Source reading from an io.Reader.
// While the tokenizer consumes one buffer the next chunk of input is read
// into the other buffer on the worker pool. The last AheadSize bytes of a
// non-final consuming buffer are mirrored at the start of the reading
// buffer so peeks never cross a buffer boundary.
type ParallelSource struct {
	r    io.Reader
	pool *workpool.Pool

	// Owned by the consumer.
	cons       []byte
	consLen    int   // Bytes of valid data in cons.
	consumable int   // Bytes of cons the position may advance over.
	pos        int   // Current position within cons.
	base       int64 // Absolute input offset of cons[0].
	final      bool  // cons holds the end of input.
	err        error

	// Owned by the background read while pending.
	lock    sync.Mutex
	done    sync.Cond
	pending bool
	read    []byte
	readLen int
	readEOF bool
	readErr error
}

// NewParallelSource creates a source over r with two buffers of
// bufferSize bytes each (at least 4*AheadSize). The first buffer is filled
// synchronously. If the input is shorter than one buffer no background
// read is ever started.
func NewParallelSource(
	r io.Reader, bufferSize int, pool *workpool.Pool,
) (*ParallelSource, error) {
	bufferSize = max(bufferSize, 4*AheadSize)
	if pool == nil {
		pool = workpool.Default()
	}
	s := &ParallelSource{
		r:    r,
		pool: pool,
		cons: make([]byte, bufferSize),
		read: make([]byte, bufferSize),
	}
	s.done.L = &s.lock

	n, eof, err := fill(r, s.cons)
	s.consLen = n
	switch {
	case err != nil:
		return nil, ReadError{Err: err}
	case eof:
		s.prepareEOFBuffer()
		return s, nil
	}
	s.consumable = s.consLen - AheadSize
	s.startRead()
	return s, nil
}

// startRead fills the reading buffer in the background, starting with the
// mirrored tail of the consuming buffer.
func (s *ParallelSource) startRead() {
	copy(s.read[:AheadSize], s.cons[s.consLen-AheadSize:s.consLen])
	s.lock.Lock()
	s.pending = true
	s.lock.Unlock()
	s.pool.Submit(func() {
		n, eof, err := fill(s.r, s.read[AheadSize:])
		s.lock.Lock()
		defer s.lock.Unlock()
		s.readLen = AheadSize + n
		s.readEOF = eof
		s.readErr = err
		s.pending = false
		s.done.Broadcast()
	})
}

// wait blocks until no background read is pending.
func (s *ParallelSource) wait() {
	s.lock.Lock()
	defer s.lock.Unlock()
	for s.pending {
		s.done.Wait()
	}
}

// swap makes the reading buffer the consuming one once its background read
// completed and starts the next read unless the end of input was reached.
func (s *ParallelSource) swap() {
	s.wait()
	if s.readErr != nil {
		s.err = ReadError{Err: s.readErr}
		s.consLen = min(s.pos, s.consLen)
		s.prepareEOFBuffer()
		return
	}
	if s.readLen == AheadSize {
		// Nothing after the mirrored tail, cons is the last buffer.
		s.prepareEOFBuffer()
		return
	}
	s.pos -= s.consumable
	s.base += int64(s.consumable)
	s.cons, s.read = s.read, s.cons
	s.consLen = s.readLen
	if s.readEOF {
		s.prepareEOFBuffer()
		return
	}
	s.consumable = s.consLen - AheadSize
	s.startRead()
}

// prepareEOFBuffer marks cons as the final buffer and zero-pads AheadSize
// bytes after the valid data, shifting the live region to the start of the
// buffer if there's no room left.
func (s *ParallelSource) prepareEOFBuffer() {
	s.final = true
	if s.consLen+AheadSize > len(s.cons) {
		n := copy(s.cons, s.cons[s.pos:s.consLen])
		s.base += int64(s.pos)
		s.consLen, s.pos = n, 0
		if n+AheadSize > len(s.cons) {
			b := make([]byte, n+AheadSize)
			copy(b, s.cons[:n])
			s.cons = b
		}
	}
	clear(s.cons[s.consLen : s.consLen+AheadSize])
	s.consumable = s.consLen
}

// PeekAhead implements Source.
func (s *ParallelSource) PeekAhead(offset int) byte { return s.cons[s.pos+offset] }

// Consume implements Source.
func (s *ParallelSource) Consume(n int) {
	s.pos += n
	for !s.final && s.pos >= s.consumable {
		s.swap()
	}
	if s.final && s.pos > s.consLen {
		s.pos = s.consLen
	}
}

// Position implements Source.
func (s *ParallelSource) Position() int64 { return s.base + int64(s.pos) }

// EOF implements Source.
func (s *ParallelSource) EOF() bool { return s.final && s.pos >= s.consLen }

// Err implements Source.
func (s *ParallelSource) Err() error { return s.err }

// Close waits for any in-flight background read.
// It doesn't close the underlying reader.
func (s *ParallelSource) Close() error {
	s.wait()
	return nil
}
