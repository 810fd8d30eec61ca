// Package apperr defines the error taxonomy shared by services and handlers.
// Services wrap storage and domain failures into one of these kinds; handlers
// map the kind to an HTTP status without inspecting error strings.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	KindValidation          Kind = "validation_error"
	KindNotFound            Kind = "not_found"
	KindAuthorization       Kind = "authorization_error"
	KindConflict            Kind = "conflict"
	KindPaymentVerification Kind = "payment_verification_error"
	KindInternal            Kind = "internal_error"
)

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func Validation(msg string) *Error    { return &Error{Kind: KindValidation, Message: msg} }
func NotFound(msg string) *Error      { return &Error{Kind: KindNotFound, Message: msg} }
func Authorization(msg string) *Error { return &Error{Kind: KindAuthorization, Message: msg} }
func Conflict(msg string) *Error      { return &Error{Kind: KindConflict, Message: msg} }

func PaymentVerification(msg string) *Error {
	return &Error{Kind: KindPaymentVerification, Message: msg}
}

// Internal keeps the cause for server logs while the message stays opaque on
// the wire.
func Internal(msg string, err error) *Error {
	return &Error{Kind: KindInternal, Message: msg, Err: err}
}

func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Status maps an error to its HTTP status. Missing-identity failures are
// handled by the auth middleware with 401 before any service runs; an
// authorization error surfacing from a service means the caller is known but
// not allowed, which is 403.
func Status(err error) int {
	switch KindOf(err) {
	case KindValidation, KindConflict, KindPaymentVerification:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindAuthorization:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// Message returns the client-facing message. Internal errors never leak their
// cause over the wire.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		if e.Kind == KindInternal {
			return "Server error"
		}
		return e.Message
	}
	return "Server error"
}
