// Package errs defines the application error kinds and their HTTP mapping.
package errs

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure for callers that need to react to it without
// inspecting messages.
type Kind int

const (
	// Internal is an unexpected failure inside this service.
	Internal Kind = iota
	// InvalidData means a candidate record failed validation rules.
	InvalidData
	// InvalidFormat means a narrowly-scoped input (such as the reset-email
	// address) is malformed.
	InvalidFormat
	// AlreadyExists means a uniqueness constraint would be violated.
	AlreadyExists
	// NotFound means the operation targets a record with no match.
	NotFound
	// Unauthenticated means the presented credentials or token were rejected.
	Unauthenticated
	// Provider means an external store or identity-provider call failed for
	// reasons outside this service's control.
	Provider
)

var kindCodes = map[Kind]string{
	Internal:        "internal",
	InvalidData:     "invalid_data",
	InvalidFormat:   "invalid_format",
	AlreadyExists:   "already_exists",
	NotFound:        "not_found",
	Unauthenticated: "unauthenticated",
	Provider:        "provider_error",
}

var kindStatus = map[Kind]int{
	Internal:        http.StatusInternalServerError,
	InvalidData:     http.StatusBadRequest,
	InvalidFormat:   http.StatusBadRequest,
	AlreadyExists:   http.StatusConflict,
	NotFound:        http.StatusNotFound,
	Unauthenticated: http.StatusUnauthorized,
	Provider:        http.StatusBadGateway,
}

// Error is an application error carrying a kind and a short caller-visible
// message. The wrapped cause, if any, is preserved for errors.Is checks.
type Error struct {
	kind Kind
	msg  string
	err  error
}

// New creates an Error of the given kind.
func New(kind Kind, msg string) *Error {
	return &Error{kind: kind, msg: msg}
}

// Newf creates an Error with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{kind: kind, msg: fmt.Sprintf(format, args...)}
}

// Wrap creates an Error that preserves err as its cause.
func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{kind: kind, msg: msg, err: err}
}

func (e *Error) Error() string {
	if e.err != nil {
		return e.msg + ": " + e.err.Error()
	}
	return e.msg
}

func (e *Error) Unwrap() error { return e.err }

// Kind returns the error's classification.
func (e *Error) Kind() Kind { return e.kind }

// Message returns the short caller-visible message without the cause chain.
func (e *Error) Message() string { return e.msg }

// Code returns the stable string code for the error's kind.
func (e *Error) Code() string { return kindCodes[e.kind] }

// HTTPStatus returns the HTTP status a transport should respond with.
func (e *Error) HTTPStatus() int { return kindStatus[e.kind] }

// KindOf extracts the kind from err, or Internal if err is not an *Error.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.kind
	}
	return Internal
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var appErr *Error
	return errors.As(err, &appErr) && appErr.kind == kind
}
