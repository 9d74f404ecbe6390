// Package apperr defines the error taxonomy shared by every service. Each
// error carries a Kind that maps 1:1 to an HTTP status and a stable,
// machine-readable code.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindBadRequest
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindConflict
	KindTooManyRequests
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindBadRequest:
		return "bad_request"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindTooManyRequests:
		return "too_many_requests"
	default:
		return "internal"
	}
}

// Status returns the HTTP status code for the kind.
func (k Kind) Status() int {
	switch k {
	case KindValidation:
		return http.StatusUnprocessableEntity
	case KindBadRequest:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindTooManyRequests:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// Error is a domain rule violation.
type Error struct {
	Kind    Kind
	Code    string
	Message string

	// cause is the sentinel this error was derived from, if any.
	cause *Error
}

func (e *Error) Error() string { return e.Message }

// Status returns the HTTP status code for the error's kind.
func (e *Error) Status() int { return e.Kind.Status() }

// Is reports whether target is this error or the sentinel it was derived from.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e == t || (e.cause != nil && e.cause == t)
}

// Wrapf returns a copy of sentinel with a more specific message. The result
// still satisfies errors.Is(result, sentinel).
func Wrapf(sentinel *Error, format string, args ...any) *Error {
	return &Error{
		Kind:    sentinel.Kind,
		Code:    sentinel.Code,
		Message: fmt.Sprintf(format, args...),
		cause:   sentinel,
	}
}

func New(kind Kind, code, msg string) *Error {
	return &Error{Kind: kind, Code: code, Message: msg}
}

func Validation(code, msg string) *Error   { return New(KindValidation, code, msg) }
func BadRequest(code, msg string) *Error   { return New(KindBadRequest, code, msg) }
func Unauthorized(code, msg string) *Error { return New(KindUnauthorized, code, msg) }
func Forbidden(code, msg string) *Error    { return New(KindForbidden, code, msg) }
func NotFound(code, msg string) *Error     { return New(KindNotFound, code, msg) }
func Conflict(code, msg string) *Error     { return New(KindConflict, code, msg) }

// As extracts an *Error from err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf returns the kind of err, or KindInternal when err is not an *Error.
func KindOf(err error) Kind {
	if e, ok := As(err); ok {
		return e.Kind
	}
	return KindInternal
}
