package domain

// EventReader is the per-file event stream: codec layer plus line decoder.
// Next returns io.EOF when the stream is exhausted.
type EventReader interface {
	Next() (Event, error)
	Stats() FileStats
	Close() error
}

// ReaderFactory opens one audit log file as an event stream.
// Open failures are per-file fatal (ErrorCodeFatalFile), never run-fatal.
type ReaderFactory interface {
	Open(path string) (EventReader, error)
}
