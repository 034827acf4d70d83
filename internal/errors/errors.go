package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents a storydesk error code.
type ErrorCode string

const (
	ErrInvalidRequest  ErrorCode = "INVALID_REQUEST"  // 400
	ErrNotFound        ErrorCode = "NOT_FOUND"        // 404
	ErrInvalidEmail    ErrorCode = "INVALID_EMAIL"    // 422
	ErrMalformedSource ErrorCode = "MALFORMED_SOURCE" // 422
	ErrRateLimited     ErrorCode = "RATE_LIMITED"     // 429
	ErrInternal        ErrorCode = "INTERNAL"         // 500
	ErrFetchFailed     ErrorCode = "FETCH_FAILED"     // 502
)

// StoryError represents a structured error with code, status, and details.
type StoryError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
	cause   error
}

// Error implements the error interface.
func (e *StoryError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause, if any.
func (e *StoryError) Unwrap() error {
	return e.cause
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *StoryError {
	return &StoryError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewNotFound creates a 404 error for a missing post or document.
func NewNotFound(what, identifier string) *StoryError {
	return &StoryError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("%s not found: %s", what, identifier),
		Details: map[string]any{"identifier": identifier},
	}
}

// NewInvalidEmail creates a 422 error for a rejected newsletter address.
func NewInvalidEmail(email string) *StoryError {
	return &StoryError{
		Code:    ErrInvalidEmail,
		Status:  422,
		Message: "Please enter a valid email address.",
		Details: map[string]any{"email": email},
	}
}

// NewMalformedSource creates a 422 error for a data source document that
// does not have the expected shape.
func NewMalformedSource(location string, err error) *StoryError {
	msg := fmt.Sprintf("malformed data source %s", location)
	if err != nil {
		msg = fmt.Sprintf("%s: %v", msg, err)
	}
	return &StoryError{
		Code:    ErrMalformedSource,
		Status:  422,
		Message: msg,
		Details: map[string]any{"location": location},
		cause:   err,
	}
}

// NewFetchFailed creates a 502 error for a network failure or non-2xx response.
func NewFetchFailed(location string, status int, err error) *StoryError {
	msg := fmt.Sprintf("failed to fetch %s", location)
	switch {
	case err != nil:
		msg = fmt.Sprintf("%s: %v", msg, err)
	case status != 0:
		msg = fmt.Sprintf("%s: HTTP %d", msg, status)
	}
	details := map[string]any{"location": location}
	if status != 0 {
		details["http_status"] = status
	}
	return &StoryError{
		Code:    ErrFetchFailed,
		Status:  502,
		Message: msg,
		Details: details,
		cause:   err,
	}
}

// NewRateLimited creates a 429 error for throttled write requests.
func NewRateLimited() *StoryError {
	return &StoryError{
		Code:    ErrRateLimited,
		Status:  429,
		Message: "too many requests, try again shortly",
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *StoryError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &StoryError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
		cause:   err,
	}
}

// As returns err as a *StoryError, wrapping anything else as INTERNAL.
func As(err error) *StoryError {
	var sErr *StoryError
	if stderrors.As(err, &sErr) {
		return sErr
	}
	return NewInternal(err)
}

// Is checks if an error is (or wraps) a StoryError with the given code.
func Is(err error, code ErrorCode) bool {
	var sErr *StoryError
	if stderrors.As(err, &sErr) {
		return sErr.Code == code
	}
	return false
}
