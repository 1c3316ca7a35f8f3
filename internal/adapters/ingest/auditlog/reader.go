package auditlog

import (
	"bufio"
	"encoding/json"
	"io"

	"vaultaudit/internal/platform/logger"
	pstr "vaultaudit/internal/platform/strings"
	"vaultaudit/internal/services/analyze/domain"
)

const (
	initialBufSize   = 512 * 1024
	maxScanTokenSize = 16 * 1024 * 1024
	sampleRawMax     = 2048 // max bytes of raw line to log for the failure sample
)

// Reader streams domain Events from one decoded audit log byte stream.
// It never buffers more than one line plus the scanner window.
type Reader struct {
	src     io.ReadCloser
	sc      *bufio.Scanner
	file    string
	stats   domain.FileStats
	err     error
	sampled bool // logs at most one malformed-line sample per file
}

// NewReader creates a Reader over an already-opened (and decoded) stream
func NewReader(src io.ReadCloser, file string) *Reader {
	sc := bufio.NewScanner(src)
	sc.Buffer(make([]byte, initialBufSize), maxScanTokenSize)
	return &Reader{src: src, sc: sc, file: file}
}

// OpenReader combines the codec layer and the line decoder for one file
func OpenReader(path string) (*Reader, error) {
	src, err := Open(path)
	if err != nil {
		return nil, err
	}
	return NewReader(src, path), nil
}

// Next returns the next valid event; returns io.EOF when done.
// Malformed lines increment the failure counter and are skipped.
func (rd *Reader) Next() (domain.Event, error) {
	if rd.err != nil {
		return domain.Event{}, rd.err
	}
	for {
		if !rd.sc.Scan() {
			if err := rd.sc.Err(); err != nil {
				rd.err = err
				return domain.Event{}, err
			}
			rd.err = io.EOF
			return domain.Event{}, io.EOF
		}
		line := rd.sc.Bytes()
		rd.stats.Lines++
		rd.stats.Bytes += int64(len(line) + 1) // include newline

		var w entryWire
		if err := json.Unmarshal(line, &w); err != nil {
			rd.fail(line)
			continue
		}
		ev, ok := w.toEvent()
		if !ok {
			rd.fail(line)
			continue
		}
		rd.stats.Events++
		return ev, nil
	}
}

func (rd *Reader) fail(line []byte) {
	rd.stats.Failures++
	if !rd.sampled {
		rd.sampled = true
		logger.Named("auditlog").Debug().
			Str("file", rd.file).
			Int("line", rd.stats.Lines).
			Str("sample_raw", pstr.Truncate(string(line), sampleRawMax)).
			Msg("auditlog: skipping malformed line")
	}
}

// Stats returns the exact accounting so far (lines == events + failures)
func (rd *Reader) Stats() domain.FileStats { return rd.stats }

// Close closes the underlying stream
func (rd *Reader) Close() error {
	if rd.src == nil {
		return nil
	}
	return rd.src.Close()
}

// Factory is the default ReaderFactory backed by the file codec
type Factory struct{}

// NewFactory returns the file-backed reader factory
func NewFactory() Factory { return Factory{} }

// Open implements domain.ReaderFactory
func (Factory) Open(path string) (domain.EventReader, error) {
	return OpenReader(path)
}
