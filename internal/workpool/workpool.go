// Package workpool provides the process-wide goroutine pool the parallel
// read pipeline runs its tokenizer and disk prefetch tasks on.
package workpool

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/panjf2000/ants/v2"
)

// Pool runs tasks on a bounded set of reusable goroutines.
// Submission never blocks: when every worker is busy the task runs on a fresh
// goroutine instead, so tasks may submit further tasks and wait for them.
type Pool struct{ ants *ants.Pool }

var (
	defaultOnce sync.Once
	defaultPool *Pool
)

// Default returns the shared pool sized max(2, runtime.NumCPU()).
func Default() *Pool {
	defaultOnce.Do(func() {
		p, err := New(max(2, runtime.NumCPU()))
		if err != nil {
			panic(fmt.Errorf("initializing default worker pool: %w", err))
		}
		defaultPool = p
	})
	return defaultPool
}

// New creates a pool of the given size.
func New(size int) (*Pool, error) {
	p, err := ants.NewPool(size,
		ants.WithNonblocking(true),
		ants.WithPreAlloc(false),
	)
	if err != nil {
		return nil, err
	}
	return &Pool{ants: p}, nil
}

// Cap returns the number of pooled workers.
func (p *Pool) Cap() int { return p.ants.Cap() }

// Release stops the pooled workers. Tasks submitted afterwards run on
// fresh goroutines.
func (p *Pool) Release() { p.ants.Release() }

// Submit runs task asynchronously.
func (p *Pool) Submit(task func()) {
	if err := p.ants.Submit(task); err != nil {
		// ants.ErrPoolOverload or ants.ErrPoolClosed.
		go task()
	}
}

// Future is the pending result of a task started with Go.
type Future[T any] struct {
	done chan struct{}
	val  T
	err  error
}

// Go runs fn on p and returns a future for its result.
// A panic in fn is recovered and reported as the future's error.
func Go[T any](p *Pool, fn func() (T, error)) *Future[T] {
	f := &Future[T]{done: make(chan struct{})}
	p.Submit(func() {
		defer close(f.done)
		defer func() {
			if r := recover(); r != nil {
				f.err = fmt.Errorf("task panicked: %v", r)
			}
		}()
		f.val, f.err = fn()
	})
	return f
}

// Wait blocks until the task completed and returns its result.
func (f *Future[T]) Wait() (T, error) {
	<-f.done
	return f.val, f.err
}
