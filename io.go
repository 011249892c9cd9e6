package json5bind

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/romshark/json5bind/internal/codec"
	"github.com/romshark/json5bind/internal/workpool"
	"github.com/valyala/bytebufferpool"
)

// ReadString reads the JSON5 document s into v.
// v is only modified if reading succeeds.
func ReadString[T any](s string, v *T, options *ReadOptions) error {
	conv, err := ConverterFor[T]()
	if err != nil {
		return err
	}
	return ReadStringWith(s, v, conv, options)
}

// ReadStringWith is like ReadString but uses conv.
func ReadStringWith[T any](s string, v *T, conv Converter[T], options *ReadOptions) error {
	return readSequential(NewLookAheadBufferString(s), len(s), v, conv, options)
}

// ReadBytes reads the JSON5 document data into v.
func ReadBytes[T any](data []byte, v *T, options *ReadOptions) error {
	conv, err := ConverterFor[T]()
	if err != nil {
		return err
	}
	return readSequential(NewLookAheadBuffer(data), len(data), v, conv, options)
}

// ReadFrom reads a JSON5 document from r into v. The input is read
// in chunks on the worker pool while being tokenized and parsed.
// Failures of r are returned as ReadError.
func ReadFrom[T any](r io.Reader, v *T, options *ReadOptions) error {
	conv, err := ConverterFor[T]()
	if err != nil {
		return err
	}
	return ReadFromWith(r, v, conv, options)
}

// ReadFromWith is like ReadFrom but uses conv.
func ReadFromWith[T any](r io.Reader, v *T, conv Converter[T], options *ReadOptions) error {
	return readParallel(r, v, conv, options)
}

// ReadFile reads the JSON5 file at path into v. Files smaller than
// ReadOptions.ParallelThreshold are read entirely and parsed sequentially,
// larger files are tokenized on the worker pool while being parsed.
// Files ending with .zst, .s2, .gz or .lz4 are decompressed transparently,
// the threshold then applies to the compressed size.
func ReadFile[T any](path string, v *T, options *ReadOptions) error {
	if options == nil {
		options = DefaultReadOptions
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("reading file: %w", err)
	}
	if info.Size() >= options.parallelThreshold() {
		return ReadFileParallel(path, v, options)
	}
	return ReadFileSequential(path, v, options)
}

// ReadFileSequential reads the file at path entirely
// and then tokenizes and parses it on the calling goroutine.
func ReadFileSequential[T any](path string, v *T, options *ReadOptions) error {
	if options == nil {
		options = DefaultReadOptions
	}
	conv, err := ConverterFor[T]()
	if err != nil {
		return err
	}
	r, closeFn, err := openFile(path)
	if err != nil {
		return err
	}
	defer closeFn()
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("reading file %q: %w", path, err)
	}
	options.logger().Debug("reading file",
		"path", path, "size", len(data), "strategy", "sequential")
	return readSequential(NewLookAheadBuffer(data), len(data), v, conv, options)
}

// ReadFileParallel reads the file at path tokenizing it on the worker
// pool while parsing on the calling goroutine.
func ReadFileParallel[T any](path string, v *T, options *ReadOptions) error {
	if options == nil {
		options = DefaultReadOptions
	}
	conv, err := ConverterFor[T]()
	if err != nil {
		return err
	}
	r, closeFn, err := openFile(path)
	if err != nil {
		return err
	}
	defer closeFn()
	options.logger().Debug("reading file",
		"path", path, "bufferSize", options.bufferSize(), "strategy", "parallel")
	err = readParallel(r, v, conv, options)
	var re ReadError
	if errors.As(err, &re) {
		return fmt.Errorf("reading file %q: %w", path, re.Err)
	}
	return err
}

// openFile opens path wrapping it in a decompressor if its extension
// names a compression format.
func openFile(path string) (r io.Reader, closeFn func(), err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening file: %w", err)
	}
	t := codec.ByPath(path)
	if t == codec.TypeNone {
		return f, func() { _ = f.Close() }, nil
	}
	d, err := codec.NewReader(t, f)
	if err != nil {
		_ = f.Close()
		return nil, nil, fmt.Errorf("decompressing %q (%s): %w", path, t, err)
	}
	return d, func() { _ = d.Close(); _ = f.Close() }, nil
}

// decode reads a single top-level value from tokens.
func decode[T any](
	tokens TokenStream, conv Converter[T], options *ReadOptions,
) (v T, unknownKeys []string, err error) {
	p := NewParser(tokens)
	p.disallowUnknown = options.DisallowUnknownKeys
	if v, err = conv.Read(p); err != nil {
		return v, nil, err
	}
	if err = p.ExpectEndOfStream(); err != nil {
		return v, nil, err
	}
	return v, p.UnknownKeys(), nil
}

func commit[T any](dst *T, v T, unknownKeys []string, options *ReadOptions) {
	*dst = v
	if options.UnknownKeys != nil {
		*options.UnknownKeys = unknownKeys
	}
}

// readSequential tokenizes the whole input before parsing.
func readSequential[T any](
	src Source, size int, dst *T, conv Converter[T], options *ReadOptions,
) error {
	if dst == nil {
		return ErrNilDest
	}
	if options == nil {
		options = DefaultReadOptions
	}
	// Roughly one token per 8 bytes of input.
	tokens := NewTokenChannel(size/8 + 1)
	if err := NewTokenizer(src, tokens, options.logger()).Run(); err != nil {
		return err
	}
	v, unknownKeys, err := decode(tokens, conv, options)
	if err != nil {
		return err
	}
	commit(dst, v, unknownKeys, options)
	return nil
}

// readParallel tokenizes r on the worker pool while parsing on the
// calling goroutine. A tokenizer error takes precedence over a parser
// error so that errors match those of readSequential.
func readParallel[T any](
	r io.Reader, dst *T, conv Converter[T], options *ReadOptions,
) error {
	if dst == nil {
		return ErrNilDest
	}
	if options == nil {
		options = DefaultReadOptions
	}
	pool := workpool.Default()
	src, err := NewParallelSource(r, options.bufferSize(), pool)
	if err != nil {
		return err
	}
	defer func() { _ = src.Close() }()

	tokens := NewTokenChannel(tokenBatchSize * 4)
	logger := options.logger()
	tokenizer := workpool.Go(pool, func() (struct{}, error) {
		err := NewTokenizer(src, tokens, logger).Run()
		if err != nil {
			tokens.SignalError(err)
		}
		return struct{}{}, err
	})

	v, unknownKeys, parseErr := decode(tokens, conv, options)
	if parseErr != nil {
		// Stops the tokenizer from queueing tokens nobody will take.
		tokens.SignalError(parseErr)
	}
	if _, err := tokenizer.Wait(); err != nil {
		return err
	}
	if parseErr != nil {
		return parseErr
	}
	commit(dst, v, unknownKeys, options)
	return nil
}

// WriteTo writes v to w as JSON5.
func WriteTo[T any](w io.Writer, v T, options *WriteOptions) error {
	conv, err := ConverterFor[T]()
	if err != nil {
		return err
	}
	return WriteToWith(w, v, conv, options)
}

// WriteToWith is like WriteTo but uses conv.
func WriteToWith[T any](w io.Writer, v T, conv Converter[T], options *WriteOptions) error {
	bb := bytebufferpool.Get()
	defer bytebufferpool.Put(bb)
	wr := newBufferWriter(w, bb.B, options)
	defer func() { bb.B = wr.buf[:0] }()
	if err := conv.Write(wr, v); err != nil {
		return err
	}
	return wr.Flush()
}

// Marshal returns the JSON5 encoding of v.
func Marshal[T any](v T, options *WriteOptions) ([]byte, error) {
	conv, err := ConverterFor[T]()
	if err != nil {
		return nil, err
	}
	return marshal(v, conv, options)
}

// MarshalString returns the JSON5 encoding of v as string.
func MarshalString[T any](v T, options *WriteOptions) (string, error) {
	conv, err := ConverterFor[T]()
	if err != nil {
		return "", err
	}
	return MarshalStringWith(v, conv, options)
}

// MarshalStringWith is like MarshalString but uses conv.
func MarshalStringWith[T any](v T, conv Converter[T], options *WriteOptions) (string, error) {
	b, err := marshal(v, conv, options)
	return string(b), err
}

func marshal[T any](v T, conv Converter[T], options *WriteOptions) ([]byte, error) {
	bb := bytebufferpool.Get()
	defer bytebufferpool.Put(bb)
	w := newBufferWriter(nil, bb.B, options)
	err := conv.Write(w, v)
	bb.B = w.buf
	if err == nil {
		err = w.Err()
	}
	if err != nil {
		return nil, err
	}
	return append([]byte(nil), w.buf...), nil
}

// WriteFile writes v to the file at path, replacing it if it exists.
// Files ending with .zst, .s2, .gz or .lz4 are compressed.
func WriteFile[T any](path string, v T, options *WriteOptions) error {
	conv, err := ConverterFor[T]()
	if err != nil {
		return err
	}
	return WriteFileWith(path, v, conv, options)
}

// WriteFileWith is like WriteFile but uses conv.
func WriteFileWith[T any](path string, v T, conv Converter[T], options *WriteOptions) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating file: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("closing file %q: %w", path, closeErr)
		}
	}()
	bw := bufio.NewWriter(f)
	t := codec.ByPath(path)
	cw, err := codec.NewWriter(t, bw)
	if err != nil {
		return fmt.Errorf("compressing %q (%s): %w", path, t, err)
	}
	if err := WriteToWith(cw, v, conv, options); err != nil {
		_ = cw.Close()
		return err
	}
	if err := cw.Close(); err != nil {
		return fmt.Errorf("writing file %q: %w", path, err)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("writing file %q: %w", path, err)
	}
	return nil
}
