// Package file implements a local filesystem-backed data source.
package file

import (
	"compress/bzip2"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
)

// Compression identifies the codec applied to a file on disk.
type Compression string

const (
	None  Compression = ""
	Gzip  Compression = "gzip"
	Bzip2 Compression = "bzip2"
	XZ    Compression = "xz"
	Zstd  Compression = "zstd"
)

// CompressionFor infers the codec from the path's extension.
func CompressionFor(path string) Compression {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz", ".gzip":
		return Gzip
	case ".bz2":
		return Bzip2
	case ".xz":
		return XZ
	case ".zst", ".zstd":
		return Zstd
	default:
		return None
	}
}

// Local is a filesystem data source that opens files from the local disk.
type Local struct{ path string }

// NewLocal returns a new Local data source bound to the provided filesystem
// path. The returned value is safe for concurrent use by multiple goroutines
// as long as the underlying path location is valid for concurrent reads.
func NewLocal(path string) *Local { return &Local{path: path} }

// Path returns the configured path.
func (l *Local) Path() string { return l.path }

// Open opens the configured path for reading and returns an io.ReadCloser
// over the decompressed content.
//
// Behavior:
//   - If the context is already canceled or its deadline exceeded at the time
//     of the call, Open returns the context error immediately without touching
//     the filesystem.
//   - Files ending in .gz, .bz2, .xz or .zst are decompressed transparently;
//     closing the returned value closes both the decoder and the file.
//   - Any filesystem error is wrapped with the path for context, while still
//     permitting errors.Is/As checks by callers (e.g., errors.Is(err, os.ErrNotExist)).
func (l *Local) Open(ctx context.Context) (io.ReadCloser, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", l.path, err)
	}

	rc, err := Decompress(f, CompressionFor(l.path))
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("open %s: %w", l.path, err)
	}
	return rc, nil
}

// Decompress wraps rc in a decoder for codec. Closing the result closes the
// decoder and rc. With None, rc is returned unchanged.
func Decompress(rc io.ReadCloser, codec Compression) (io.ReadCloser, error) {
	r, closeDec, err := decompress(rc, codec)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", codec, err)
	}
	if r == nil {
		return rc, nil
	}
	return &decoded{Reader: r, closeDec: closeDec, src: rc}, nil
}

// decompress returns a nil reader when no codec applies.
func decompress(src io.Reader, c Compression) (io.Reader, func() error, error) {
	switch c {
	case Gzip:
		zr, err := gzip.NewReader(src)
		if err != nil {
			return nil, nil, err
		}
		return zr, zr.Close, nil
	case Bzip2:
		return bzip2.NewReader(src), nil, nil
	case XZ:
		xr, err := xz.NewReader(src)
		if err != nil {
			return nil, nil, err
		}
		return xr, nil, nil
	case Zstd:
		dec, err := zstd.NewReader(src)
		if err != nil {
			return nil, nil, err
		}
		return dec, func() error { dec.Close(); return nil }, nil
	default:
		return nil, nil, nil
	}
}

type decoded struct {
	io.Reader
	closeDec func() error
	src      io.Closer
}

func (d *decoded) Close() error {
	var errs []error
	if d.closeDec != nil {
		if err := d.closeDec(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := d.src.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
