package extract

import (
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Kind classifies extraction failures. It is the only failure taxonomy of the pipeline.
type Kind string

const (
	KindUnsupportedDocument        Kind = "UnsupportedDocument"
	KindExternalServiceUnavailable Kind = "ExternalServiceUnavailable"
	KindEmptyResult                Kind = "EmptyResult"
)

// Sentinels for errors.Is; they compare by kind only.
var (
	ErrUnsupportedDocument        = &Error{Kind: KindUnsupportedDocument}
	ErrExternalServiceUnavailable = &Error{Kind: KindExternalServiceUnavailable}
	ErrEmptyResult                = &Error{Kind: KindEmptyResult}
)

// ErrBackendUnavailable means a strategy cannot run in this process (missing binary or
// service credentials). The extractor turns it into a fallback, never into a result.
var ErrBackendUnavailable = errors.New("extraction backend unavailable")

// Error is an extraction failure tagged with its kind.
type Error struct {
	Kind Kind
	Op   string
	Msg  string
	Err  error
}

func newError(kind Kind, op, msg string, cause error) *Error {
	return &Error{Kind: kind, Op: op, Msg: msg, Err: cause}
}

func (e *Error) Error() string {
	s := string(e.Kind)
	if e.Op != "" {
		s = e.Op + ": " + s
	}
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	if e.Err != nil {
		s = fmt.Sprintf("%s: %v", s, e.Err)
	}
	return s
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so errors.Is(err, ErrEmptyResult) works on
// wrapped values.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Retryable reports whether the same request may succeed later without changes.
func (e *Error) Retryable() bool {
	return e.Kind == KindExternalServiceUnavailable
}

// GRPCStatus lets status.FromError and status.Code map the kind without string matching.
func (e *Error) GRPCStatus() *status.Status {
	code := codes.Unknown
	switch e.Kind {
	case KindUnsupportedDocument:
		code = codes.FailedPrecondition
	case KindExternalServiceUnavailable:
		code = codes.Unavailable
	case KindEmptyResult:
		code = codes.NotFound
	}
	return status.New(code, e.Error())
}

// KindOf returns the kind carried by err, or "" when err is not an extraction failure.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
