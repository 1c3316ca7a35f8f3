// Package domain holds the core event model and data structures for audit analysis
package domain

import (
	"strings"
	"time"
)

// OpKind is the closed set of operation kinds observed in Vault audit logs.
// The set is fixed and small; handle exhaustively, do not extend per report.
type OpKind uint8

const (
	// OpOther is any operation that does not classify into a named kind
	OpOther OpKind = iota
	// OpLogin is an auth-method login (path ends in /login)
	OpLogin
	// OpCreate creates a secret or object
	OpCreate
	// OpRead reads a secret or object
	OpRead
	// OpUpdate updates (or writes) a secret or object
	OpUpdate
	// OpDelete deletes a secret or object
	OpDelete
	// OpList lists keys under a path
	OpList
	// OpRevoke revokes a token
	OpRevoke
	// OpRenew renews a token
	OpRenew
	// OpLookup is a token lookup (self or by accessor)
	OpLookup

	// OpKindCount sizes per-kind counter arrays
	OpKindCount
)

// String returns the report-facing label for the kind
func (k OpKind) String() string {
	switch k {
	case OpLogin:
		return "login"
	case OpCreate:
		return "create"
	case OpRead:
		return "read"
	case OpUpdate:
		return "update"
	case OpDelete:
		return "delete"
	case OpList:
		return "list"
	case OpRevoke:
		return "revoke"
	case OpRenew:
		return "renew"
	case OpLookup:
		return "lookup"
	default:
		return "other"
	}
}

// ClassifyOp maps a raw operation string plus request path to an OpKind.
// Path rules win over the operation field: a login is an "update" on a
// path ending in /login, and token lifecycle operations live under
// auth/token/ regardless of the verb.
func ClassifyOp(operation, path string) OpKind {
	switch {
	case strings.HasSuffix(path, "/login"):
		return OpLogin
	case strings.HasPrefix(path, "auth/token/lookup"):
		return OpLookup
	case strings.HasPrefix(path, "auth/token/renew"):
		return OpRenew
	case strings.HasPrefix(path, "auth/token/revoke"):
		return OpRevoke
	}
	switch operation {
	case "read":
		return OpRead
	case "create":
		return OpCreate
	case "update", "write":
		return OpUpdate
	case "delete":
		return OpDelete
	case "list":
		return OpList
	}
	return OpOther
}

// Event is one successfully decoded audit log line. Immutable after decode.
// Lines missing a timestamp, entry type, or path decode to a parse failure
// instead, never to an Event.
type Event struct {
	Time        time.Time
	Op          OpKind
	Path        string
	Namespace   string
	EntityID    string
	Accessor    string
	DisplayName string
	MountType   string
	MountPoint  string
	TokenType   string
	ErrorMsg    string
}

// FileStats is the exact per-file accounting of one decode pass.
// Invariant: Lines == Events + Failures.
type FileStats struct {
	Lines    int
	Events   int
	Failures int
	Bytes    int64
}

// Add folds another FileStats into s
func (s *FileStats) Add(o FileStats) {
	s.Lines += o.Lines
	s.Events += o.Events
	s.Failures += o.Failures
	s.Bytes += o.Bytes
}

// FileError records a per-file fatal error (unreadable or corrupt file).
// The file contributes nothing to the run; siblings are unaffected.
type FileError struct {
	Path string
	Err  error
}

// RunStats is the merged accounting surfaced in every report
type RunStats struct {
	Files       int
	FailedFiles int
	Lines       int
	Events      int
	Failures    int
	Bytes       int64
	Conflicts   int
}
