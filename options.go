package json5bind

import "log/slog"

// DefaultParallelThreshold is the file size at or above which ReadFile
// tokenizes and parses on separate goroutines.
const DefaultParallelThreshold = 10 * 1024

// DefaultReadOptions are to be used by default. DO NOT MUTATE.
var DefaultReadOptions = &ReadOptions{
	ParallelThreshold: DefaultParallelThreshold,
	BufferSize:        DefaultBufferSize,
}

// DefaultWriteOptions are to be used by default. DO NOT MUTATE.
var DefaultWriteOptions = &WriteOptions{
	QuoteKeys: false,
}

// ReadOptions are options for the Read* functions.
type ReadOptions struct {
	// UnknownKeys, if not nil, receives the names of all object keys
	// that didn't match any field, in encounter order.
	UnknownKeys *[]string

	// DisallowUnknownKeys will make reading fail with ErrUnknownKey
	// when encountering a key that doesn't match any field.
	DisallowUnknownKeys bool

	// Logger receives tokenizer warnings and debug records.
	// slog.Default() is used if nil.
	Logger *slog.Logger

	// ParallelThreshold is the file size in bytes at or above which
	// ReadFile uses the parallel pipeline.
	// Zero means DefaultParallelThreshold.
	ParallelThreshold int64

	// BufferSize is the capacity of each of the two buffers of the parallel
	// pipeline's input source. Zero means DefaultBufferSize.
	BufferSize int
}

func (o *ReadOptions) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.Default()
	}
	return o.Logger
}

func (o *ReadOptions) parallelThreshold() int64 {
	if o.ParallelThreshold <= 0 {
		return DefaultParallelThreshold
	}
	return o.ParallelThreshold
}

func (o *ReadOptions) bufferSize() int {
	if o.BufferSize <= 0 {
		return DefaultBufferSize
	}
	return o.BufferSize
}

// WriteOptions are options for the Write* and Marshal* functions.
type WriteOptions struct {
	// QuoteKeys makes the writer emit quoted keys instead of bare
	// identifiers, producing strict JSON (given finite numbers).
	QuoteKeys bool
}
