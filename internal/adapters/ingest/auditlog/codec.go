package auditlog

import (
	"bufio"
	"bytes"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	perr "vaultaudit/internal/platform/errors"
)

var (
	gzipMagic = []byte{0x1f, 0x8b}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
)

// Open opens an audit log file with transparent streaming decompression.
// Format is never user-declared: the extension decides, and extensionless
// files are sniffed by magic bytes. All failures are per-file fatal.
func Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, perr.WithFile(perr.Wrap(err, perr.ErrorCodeFatalFile, "open audit log"), path)
	}

	switch {
	case strings.HasSuffix(path, ".gz"):
		return gzipStream(f, path)
	case strings.HasSuffix(path, ".zst"):
		return zstdStream(f, path)
	}

	br := bufio.NewReaderSize(f, 64*1024)
	magic, err := br.Peek(4)
	if err != nil && err != io.EOF {
		_ = f.Close()
		return nil, perr.WithFile(perr.Wrap(err, perr.ErrorCodeFatalFile, "sniff audit log"), path)
	}
	switch {
	case bytes.HasPrefix(magic, gzipMagic):
		return gzipStream(&bufferedFile{r: br, f: f}, path)
	case bytes.HasPrefix(magic, zstdMagic):
		return zstdStream(&bufferedFile{r: br, f: f}, path)
	}
	return &bufferedFile{r: br, f: f}, nil
}

func gzipStream(rc io.ReadCloser, path string) (io.ReadCloser, error) {
	gz, err := gzip.NewReader(rc)
	if err != nil {
		_ = rc.Close()
		return nil, perr.WithFile(perr.Wrap(err, perr.ErrorCodeFatalFile, "corrupt gzip stream"), path)
	}
	return &decodedStream{r: gz, closers: []io.Closer{gz, rc}}, nil
}

func zstdStream(rc io.ReadCloser, path string) (io.ReadCloser, error) {
	// Single-threaded decode keeps the internal window bounded; the planner
	// already runs one decoder per worker.
	dec, err := zstd.NewReader(rc, zstd.WithDecoderConcurrency(1))
	if err != nil {
		_ = rc.Close()
		return nil, perr.WithFile(perr.Wrap(err, perr.ErrorCodeFatalFile, "corrupt zstd stream"), path)
	}
	return &decodedStream{r: dec, closers: []io.Closer{closerFunc(func() error { dec.Close(); return nil }), rc}}, nil
}

// bufferedFile pairs the sniffing bufio.Reader with its backing file so the
// already-peeked bytes are not lost
type bufferedFile struct {
	r *bufio.Reader
	f *os.File
}

func (b *bufferedFile) Read(p []byte) (int, error) { return b.r.Read(p) }
func (b *bufferedFile) Close() error               { return b.f.Close() }

// decodedStream closes the decompressor before the underlying source and
// reports the first error
type decodedStream struct {
	r       io.Reader
	closers []io.Closer
}

func (d *decodedStream) Read(p []byte) (int, error) { return d.r.Read(p) }

func (d *decodedStream) Close() error {
	var first error
	for _, c := range d.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }
