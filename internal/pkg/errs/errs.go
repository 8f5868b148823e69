// Package errs holds the failure taxonomy shared by the gate, the classifier and the HTTP layer.
package errs

import (
	"errors"
	"net/http"
)

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrDeviceUnavailable = errors.New("device unavailable")
	ErrConflict          = errors.New("conflict")
	ErrTransport         = errors.New("transport failure")
	ErrUpstream          = errors.New("upstream failure")
)

// Error carries a caller-facing message next to its kind and optional cause.
type Error struct {
	Kind    error
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Message == "" {
		return e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func newError(kind error, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Err: cause}
}

func InvalidInput(msg string) *Error {
	return newError(ErrInvalidInput, msg, nil)
}

func DeviceUnavailable(msg string) *Error {
	return newError(ErrDeviceUnavailable, msg, nil)
}

func Conflict(msg string) *Error {
	return newError(ErrConflict, msg, nil)
}

func Transport(msg string, cause error) *Error {
	return newError(ErrTransport, msg, cause)
}

func Upstream(msg string, cause error) *Error {
	return newError(ErrUpstream, msg, cause)
}

// HTTPStatus maps an error to the status code returned to API callers.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrDeviceUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
