// Package errors provides a structured error type with wrapping and metadata
package errors

// Always import the project errors package as perr (platform/errors)

import (
	stderrs "errors"
	"fmt"
)

// ErrorCode defines supported error codes used across the analyzer
// Values are stable for report compatibility; add sparingly
type ErrorCode uint16

const (
	// ErrorCodeUnknown is for unclassified errors
	ErrorCodeUnknown ErrorCode = iota

	// ErrorCodeConfig is for invalid thresholds, prefixes, or flag combinations;
	// rejected before any file is opened
	ErrorCodeConfig

	// ErrorCodeFatalFile is for an unreadable or corrupt input file; excludes
	// that file from aggregation without stopping the run
	ErrorCodeFatalFile

	// ErrorCodeParse is for a malformed audit log line; counted, never propagated
	ErrorCodeParse

	// ErrorCodeConflict is for an accessor attributed to more than one entity
	ErrorCodeConflict

	// ErrorCodeNotFound is for missing remote resources (API client)
	ErrorCodeNotFound

	// ErrorCodeUnauthorized is for Vault API auth failures
	ErrorCodeUnauthorized

	// ErrorCodeUnavailable is for transient remote errors where retry may succeed
	ErrorCodeUnavailable
)

// Error is the structured error type with wrapping and metadata
// msg is human/developer facing; code is machine facing
// file is the offending input file (when relevant); op is an optional operation tag
// orig is the wrapped cause
type Error struct {
	orig error
	msg  string
	code ErrorCode
	file string
	op   string
}

// Error implements the error interface
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.orig != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.orig)
	}
	return e.msg
}

// Unwrap returns the wrapped error, if any
func (e *Error) Unwrap() error { return e.orig }

// Code returns the error code
func (e *Error) Code() ErrorCode { return e.code }

// File returns the offending input file, if any
func (e *Error) File() string { return e.file }

// Op returns the operation label, if set
func (e *Error) Op() string { return e.op }

// Root returns the deepest wrapped cause
func Root(err error) error {
	for err != nil {
		u := stderrs.Unwrap(err)
		if u == nil {
			return err
		}
		err = u
	}
	return nil
}

// CodeOf extracts an ErrorCode from any error, defaulting to Unknown
func CodeOf(err error) ErrorCode {
	if e, ok := As(err); ok {
		return e.code
	}
	return ErrorCodeUnknown
}

// IsCode reports whether err has the given code
func IsCode(err error, code ErrorCode) bool { return CodeOf(err) == code }

// As unwraps and returns (*Error, true) if err is one of ours
func As(err error) (*Error, bool) {
	var e *Error
	if stderrs.As(err, &e) {
		return e, true
	}
	return nil, false
}

// Mutators (copy-on-write)

// WithFile attaches a file to an *Error (copy-on-write). If err isn't *Error,
// it is wrapped into one with Unknown code first
func WithFile(err error, file string) error {
	if err == nil {
		return nil
	}
	if e, ok := As(err); ok {
		c := *e
		c.file = file
		return &c
	}
	return &Error{orig: err, msg: err.Error(), code: ErrorCodeUnknown, file: file}
}

// WithOp attaches an operation label to an *Error (copy-on-write). If err isn't *Error, returns err unchanged
func WithOp(err error, op string) error {
	if e, ok := As(err); ok {
		c := *e
		c.op = op
		return &c
	}
	return err
}

// Constructors

// New creates a new *Error with the given code and message
func New(code ErrorCode, msg string) error {
	return &Error{code: code, msg: msg}
}

// Newf creates a new *Error with the given code and formatted message
func Newf(code ErrorCode, format string, args ...any) error {
	return &Error{code: code, msg: fmt.Sprintf(format, args...)}
}

// Wrap wraps err with the given code and message; nil in, nil out
func Wrap(err error, code ErrorCode, msg string) error {
	if err == nil {
		return nil
	}
	return &Error{orig: err, code: code, msg: msg}
}

// Wrapf wraps err with the given code and formatted message; nil in, nil out
func Wrapf(err error, code ErrorCode, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return &Error{orig: err, code: code, msg: fmt.Sprintf(format, args...)}
}
