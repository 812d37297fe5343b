// Package apperr is the error taxonomy shared by the services and the HTTP layer.
// Services classify failures with one of the sentinel kinds; handlers map the
// kind to a status code with Status.
package apperr

import (
	"errors"
	"net/http"
)

var (
	ErrValidation      = errors.New("validation failed")
	ErrConflict        = errors.New("conflict")
	ErrAuthentication  = errors.New("authentication failed")
	ErrAuthorization   = errors.New("not authorized")
	ErrNotFound        = errors.New("not found")
	ErrInvalidToken    = errors.New("invalid token")
	ErrExpiredToken    = errors.New("token expired")
	ErrPurposeMismatch = errors.New("token purpose mismatch")
	ErrDependency      = errors.New("dependency failure")
)

// Error carries a kind, a client-facing message and, for validation failures,
// per-field messages. Op and Err describe the failed operation and its cause
// for the logs; neither is shown to clients.
type Error struct {
	Kind    error
	Message string
	Fields  map[string]string
	Op      string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Op
	}
	if msg == "" {
		msg = e.Kind.Error()
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func New(kind error, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func Wrap(kind error, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

// Dependency wraps a collaborator failure. op names the operation for the
// logs; clients only see a generic message.
func Dependency(op string, err error) *Error {
	return &Error{Kind: ErrDependency, Op: op, Err: err}
}

// Invalid builds a validation error from field messages.
func Invalid(msg string, fields map[string]string) *Error {
	return &Error{Kind: ErrValidation, Message: msg, Fields: fields}
}

// Status maps err to an HTTP status code.
func Status(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrValidation),
		errors.Is(err, ErrConflict),
		errors.Is(err, ErrInvalidToken),
		errors.Is(err, ErrExpiredToken),
		errors.Is(err, ErrPurposeMismatch):
		return http.StatusBadRequest
	case errors.Is(err, ErrAuthentication), errors.Is(err, ErrAuthorization):
		return http.StatusUnauthorized
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Message returns the client-facing message for err. Causes and operation
// labels never leak; a dependency failure only shows a message a service set
// on purpose.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	for _, kind := range []error{ErrValidation, ErrConflict, ErrAuthentication, ErrAuthorization,
		ErrNotFound, ErrInvalidToken, ErrExpiredToken, ErrPurposeMismatch} {
		if errors.Is(err, kind) {
			return kind.Error()
		}
	}
	return "internal server error"
}

// Fields returns per-field validation messages, if any.
func Fields(err error) map[string]string {
	var e *Error
	if errors.As(err, &e) {
		return e.Fields
	}
	return nil
}
