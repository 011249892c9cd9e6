// Package codec selects a streaming compression format by file extension.
package codec

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/s2"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Type identifies a compression format.
type Type uint8

const (
	TypeNone Type = iota
	TypeZstd
	TypeS2
	TypeGzip
	TypeLZ4
)

func (t Type) String() string {
	switch t {
	case TypeNone:
		return "none"
	case TypeZstd:
		return "zstd"
	case TypeS2:
		return "s2"
	case TypeGzip:
		return "gzip"
	case TypeLZ4:
		return "lz4"
	}
	return fmt.Sprintf("Type(%d)", uint8(t))
}

// ByPath returns the compression format implied by the extension of path.
func ByPath(path string) Type {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".zst", ".zstd":
		return TypeZstd
	case ".s2":
		return TypeS2
	case ".gz", ".gzip":
		return TypeGzip
	case ".lz4":
		return TypeLZ4
	}
	return TypeNone
}

// NewReader wraps r with a decompressor for t.
// Closing the returned reader doesn't close r.
func NewReader(t Type, r io.Reader) (io.ReadCloser, error) {
	switch t {
	case TypeNone:
		return io.NopCloser(r), nil
	case TypeZstd:
		d, err := zstd.NewReader(r, zstd.WithDecoderConcurrency(1))
		if err != nil {
			return nil, fmt.Errorf("zstd reader: %w", err)
		}
		return d.IOReadCloser(), nil
	case TypeS2:
		return io.NopCloser(s2.NewReader(r)), nil
	case TypeGzip:
		g, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("gzip reader: %w", err)
		}
		return g, nil
	case TypeLZ4:
		return io.NopCloser(lz4.NewReader(r)), nil
	}
	return nil, fmt.Errorf("unsupported compression: %s", t)
}

// NewWriter wraps w with a compressor for t.
// The returned writer must be closed to flush the compressed stream;
// closing it doesn't close w.
func NewWriter(t Type, w io.Writer) (io.WriteCloser, error) {
	switch t {
	case TypeNone:
		return nopWriteCloser{w}, nil
	case TypeZstd:
		e, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return nil, fmt.Errorf("zstd writer: %w", err)
		}
		return e, nil
	case TypeS2:
		return s2.NewWriter(w), nil
	case TypeGzip:
		return gzip.NewWriter(w), nil
	case TypeLZ4:
		return lz4.NewWriter(w), nil
	}
	return nil, fmt.Errorf("unsupported compression: %s", t)
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }
