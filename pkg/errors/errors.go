// Package errors defines the API error taxonomy. Every AppError carries the
// stable code and HTTP status that pkg/response renders; the wrapped internal
// error is only ever logged.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError is an error that can be shown to API consumers.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Internal   error  `json:"-"`
}

func (e *AppError) Error() string {
	switch {
	case e == nil:
		return "<nil>"
	case e.Internal != nil:
		return fmt.Sprintf("%s: %v", e.Message, e.Internal)
	default:
		return e.Message
	}
}

func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Internal
}

// Is matches on Code, so copies made by WithMessage and WithInternal still
// compare equal to the sentinel they came from.
func (e *AppError) Is(target error) bool {
	other, ok := target.(*AppError)
	return ok && e != nil && other != nil && e.Code == other.Code
}

// WithInternal returns a copy of e wrapping err.
func (e *AppError) WithInternal(err error) *AppError {
	return e.clone(func(c *AppError) { c.Internal = err })
}

// WithMessage returns a copy of e with a more specific client message.
func (e *AppError) WithMessage(message string) *AppError {
	return e.clone(func(c *AppError) { c.Message = message })
}

func (e *AppError) clone(edit func(*AppError)) *AppError {
	if e == nil {
		return nil
	}
	c := *e
	edit(&c)
	return &c
}

// New builds an application error.
func New(code, message string, statusCode int) *AppError {
	return &AppError{Code: code, Message: message, StatusCode: statusCode}
}

var (
	// ErrValidation is a request that names a missing or out-of-range field,
	// such as an unknown mood or a subscription without keys.
	ErrValidation = New("VALIDATION_ERROR", "Invalid request", http.StatusBadRequest)
	// ErrBadRequest is a body that could not be decoded at all.
	ErrBadRequest = New("BAD_REQUEST", "Invalid request", http.StatusBadRequest)
	// ErrStorage is a failed read or write against the database.
	ErrStorage            = New("STORAGE_ERROR", "Storage operation failed", http.StatusInternalServerError)
	ErrNotFound           = New("NOT_FOUND", "Resource not found", http.StatusNotFound)
	ErrRateLimit          = New("RATE_LIMIT_EXCEEDED", "Too many requests, please slow down", http.StatusTooManyRequests)
	ErrServiceUnavailable = New("SERVICE_UNAVAILABLE", "Service unavailable", http.StatusServiceUnavailable)
	ErrInternalServer     = New("INTERNAL_SERVER_ERROR", "Internal server error", http.StatusInternalServerError)
)

// NewValidation reports missing or invalid input fields.
func NewValidation(message string) *AppError {
	return ErrValidation.WithMessage(message)
}

// NewBadRequest reports a payload that could not be decoded.
func NewBadRequest(message string) *AppError {
	return ErrBadRequest.WithMessage(message)
}

// NewStorage wraps a persistence failure behind a client-safe message.
func NewStorage(message string, err error) *AppError {
	return ErrStorage.WithMessage(message).WithInternal(err)
}

// Wrap turns err into an internal error with a client-safe message.
func Wrap(err error, message string) *AppError {
	return ErrInternalServer.WithMessage(message).WithInternal(err)
}

// FromError returns the AppError inside err, or ErrInternalServer wrapping it.
func FromError(err error) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return ErrInternalServer.WithInternal(err)
}

// IsValidation reports whether err is (or wraps) a validation failure.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}
