package ares

import (
	"errors"
	"fmt"
)

// Kind classifies lookup failures. All kinds are terminal for the call that
// produced them.
type Kind int

const (
	// InvalidInput is raised before any I/O: malformed identifier or a search
	// term that is too short.
	InvalidInput Kind = iota + 1
	// SourceUnavailable means the remote document could not be fetched or
	// parsed. Callers may retry later.
	SourceUnavailable
	// NotFound means a well-formed document did not describe the requested
	// subject, or a search returned no rows.
	NotFound
)

func (k Kind) String() string {
	switch k {
	case InvalidInput:
		return "invalid input"
	case SourceUnavailable:
		return "source unavailable"
	case NotFound:
		return "not found"
	default:
		return "unknown"
	}
}

// Sentinels for errors.Is matching against any *Error of the same kind.
var (
	ErrInvalidInput      = errors.New("ares: invalid input")
	ErrSourceUnavailable = errors.New("ares: source unavailable")
	ErrNotFound          = errors.New("ares: not found")
)

// Error is the typed failure returned by every Client operation.
type Error struct {
	Kind    Kind
	Op      string // bas, res, tax, find
	Subject string // requested id or search term
	Err     error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("ares: %s %s: %s", e.Op, e.Subject, e.Kind)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrNotFound) and friends match by kind.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrInvalidInput:
		return e.Kind == InvalidInput
	case ErrSourceUnavailable:
		return e.Kind == SourceUnavailable
	case ErrNotFound:
		return e.Kind == NotFound
	}
	return false
}

// IsRetryable reports whether err is worth retrying later. Only
// SourceUnavailable qualifies.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrSourceUnavailable)
}

// KindOf returns the Kind of err, or 0 when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

func newError(kind Kind, op, subject string, err error) *Error {
	return &Error{Kind: kind, Op: op, Subject: subject, Err: err}
}
