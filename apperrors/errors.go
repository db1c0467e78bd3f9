package apperrors

import (
	"fmt"
	"net/http"
)

// Error represents an application error that maps onto an HTTP status.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches two application errors by code and message so wrapped copies of a
// sentinel still satisfy errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.Message == t.Message
}

// New creates a new Error
func New(code int, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Wrap returns a copy of the sentinel carrying err as its cause.
func Wrap(sentinel *Error, err error) *Error {
	return New(sentinel.Code, sentinel.Message, err)
}

// Common error types
var (
	ErrForbidden = New(http.StatusForbidden, "Forbidden", nil)
	ErrInternal  = New(http.StatusInternalServerError, "Internal server error", nil)
	ErrUpstream  = New(http.StatusBadGateway, "Upstream request failed", nil)
)

// Session and cart error types
var (
	ErrAuthRequired = New(http.StatusUnauthorized, "Authentication required", nil)
	ErrInvalidToken = New(http.StatusUnauthorized, "Invalid token", nil)
	ErrEmptyCart    = New(http.StatusBadRequest, "Cart is empty", nil)
)
