// Package apperrors defines the error kinds handlers surface to callers and
// the HTTP status each one maps to.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an application error.
type Kind string

const (
	KindValidation      Kind = "VALIDATION"
	KindUnauthenticated Kind = "UNAUTHENTICATED"
	KindForbidden       Kind = "FORBIDDEN"
	KindNotFound        Kind = "NOT_FOUND"
	KindConflict        Kind = "CONFLICT"
	KindFulfillment     Kind = "UPSTREAM_FULFILLMENT"
	KindInternal        Kind = "INTERNAL"
)

// Error is the single error type returned across package boundaries.
type Error struct {
	Kind    Kind
	Message string
	// ReportURL is the factory's follow link, set for fulfillment failures only.
	ReportURL string
	Err       error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// HTTPStatus maps the error kind to a response status.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func Validation(msg string) *Error { return &Error{Kind: KindValidation, Message: msg} }

// Unauthenticated uses one message for every cause so callers learn nothing
// about why their credential was rejected.
func Unauthenticated(cause error) *Error {
	return &Error{Kind: KindUnauthenticated, Message: "unauthorized", Err: cause}
}

func InvalidCredentials() *Error {
	return &Error{Kind: KindUnauthenticated, Message: "invalid credentials"}
}

func Forbidden(msg string) *Error { return &Error{Kind: KindForbidden, Message: msg} }

func NotFound(msg string) *Error { return &Error{Kind: KindNotFound, Message: msg} }

func Conflict(msg string) *Error { return &Error{Kind: KindConflict, Message: msg} }

func Fulfillment(reportURL string, cause error) *Error {
	return &Error{
		Kind:      KindFulfillment,
		Message:   "Failed to fulfill order at factory",
		ReportURL: reportURL,
		Err:       cause,
	}
}

func Internal(msg string, cause error) *Error {
	return &Error{Kind: KindInternal, Message: msg, Err: cause}
}

// From returns err as an *Error, wrapping anything else as internal.
func From(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal("internal server error", err)
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	var appErr *Error
	return errors.As(err, &appErr) && appErr.Kind == kind
}
