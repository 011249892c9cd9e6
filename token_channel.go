package json5bind

import "sync"

// TokenStream is the consumer side of a token sequence.
type TokenStream interface {
	// Take removes and returns the next token, blocking until one is available.
	Take() (Token, error)
	// Peek returns the next token without removing it.
	Peek() (Token, error)
}

// TokenChannel is an unbounded FIFO of tokens connecting a producing
// tokenizer with a consuming parser, possibly on different goroutines.
// Once an error is signaled the queue is cleared and every subsequent
// Take and Peek returns that error.
type TokenChannel struct {
	lock  sync.Mutex
	ready sync.Cond
	queue []Token
	head  int
	err   error
}

// NewTokenChannel creates an empty channel with capacity preallocated
// for sizeHint tokens.
func NewTokenChannel(sizeHint int) *TokenChannel {
	c := &TokenChannel{queue: make([]Token, 0, sizeHint)}
	c.ready.L = &c.lock
	return c
}

// Push appends t. Returns false if an error was signaled, in which case
// the producer should stop.
func (c *TokenChannel) Push(t Token) bool {
	c.lock.Lock()
	defer c.lock.Unlock()
	if c.err != nil {
		return false
	}
	c.compact()
	c.queue = append(c.queue, t)
	c.ready.Signal()
	return true
}

// PushBatch appends all tokens of b in order.
// Returns false if an error was signaled.
func (c *TokenChannel) PushBatch(b []Token) bool {
	if len(b) == 0 {
		return true
	}
	c.lock.Lock()
	defer c.lock.Unlock()
	if c.err != nil {
		return false
	}
	c.compact()
	c.queue = append(c.queue, b...)
	c.ready.Signal()
	return true
}

// compact drops consumed tokens once they make up most of the queue.
func (c *TokenChannel) compact() {
	if c.head > 0 && c.head >= len(c.queue)/2 {
		n := copy(c.queue, c.queue[c.head:])
		clear(c.queue[n:])
		c.queue = c.queue[:n]
		c.head = 0
	}
}

// SignalError records err, clears the queue and wakes all waiting
// consumers. Only the first signaled error is kept.
func (c *TokenChannel) SignalError(err error) {
	c.lock.Lock()
	defer c.lock.Unlock()
	if c.err != nil {
		return
	}
	c.err = err
	c.queue, c.head = nil, 0
	c.ready.Broadcast()
}

// Err returns the signaled error, if any.
func (c *TokenChannel) Err() error {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.err
}

func (c *TokenChannel) wait() {
	for c.err == nil && c.head >= len(c.queue) {
		c.ready.Wait()
	}
}

// Take implements TokenStream.
func (c *TokenChannel) Take() (Token, error) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.wait()
	if c.err != nil {
		return Token{}, c.err
	}
	t := c.queue[c.head]
	c.queue[c.head] = Token{}
	c.head++
	return t, nil
}

// Peek implements TokenStream.
func (c *TokenChannel) Peek() (Token, error) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.wait()
	if c.err != nil {
		return Token{}, c.err
	}
	return c.queue[c.head], nil
}

// Len returns the number of buffered tokens.
func (c *TokenChannel) Len() int {
	c.lock.Lock()
	defer c.lock.Unlock()
	return len(c.queue) - c.head
}
