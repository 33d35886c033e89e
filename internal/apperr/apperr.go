// Package apperr defines the error kinds surfaced to API callers and their HTTP status codes.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	KindValidation Kind = iota + 1
	KindNotFound
	KindAuthorization
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindAuthorization:
		return "authorization"
	case KindConflict:
		return "conflict"
	}
	return "unknown"
}

// Error is a failure the caller can act on. Its message is safe to show to users.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Validation(format string, args ...any) *Error { return newf(KindValidation, format, args...) }
func NotFound(format string, args ...any) *Error   { return newf(KindNotFound, format, args...) }
func Forbidden(format string, args ...any) *Error  { return newf(KindAuthorization, format, args...) }
func Conflict(format string, args ...any) *Error   { return newf(KindConflict, format, args...) }

// Is reports whether err wraps an *Error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

// StatusCode maps err to an HTTP status. Errors that are not *Error map to 500.
func StatusCode(err error) int {
	var e *Error
	if !errors.As(err, &e) {
		return http.StatusInternalServerError
	}
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindAuthorization:
		return http.StatusForbidden
	case KindConflict:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// FromStatus rebuilds an *Error from an HTTP status and message. It returns nil for
// statuses that do not correspond to a kind.
func FromStatus(status int, message string) *Error {
	var kind Kind
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		kind = KindValidation
	case http.StatusNotFound:
		kind = KindNotFound
	case http.StatusUnauthorized, http.StatusForbidden:
		kind = KindAuthorization
	case http.StatusConflict:
		kind = KindConflict
	default:
		return nil
	}
	return &Error{Kind: kind, Message: message}
}
