package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ===========================================================================
// Application errors
// Sentinels are matched with errors.Is; AppError carries a caller-facing
// message on top of a sentinel.
// ===========================================================================

var (
	// ErrNotFound record or tenant-scoped resource absent
	ErrNotFound = errors.New("not found")

	// ErrInvalidState mutating a cancelled record, double cancellation,
	// or a status transition the record's state machine forbids
	ErrInvalidState = errors.New("invalid state")

	// ErrUnauthenticated dashboard operation without a verified session
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrForbidden authenticated but lacking the role for the action
	ErrForbidden = errors.New("forbidden")

	// ErrInvalidInput request failed validation
	ErrInvalidInput = errors.New("invalid input")

	// ErrExhaustedRetries identifier allocation gave up
	ErrExhaustedRetries = errors.New("could not generate unique ID")

	// ErrUpstreamFailure non-2xx or transport failure from the voice-agent,
	// SMS or email provider
	ErrUpstreamFailure = errors.New("upstream failure")

	// ErrInternal unexpected infrastructure fault
	ErrInternal = errors.New("internal server error")
)

// AppError pairs a sentinel with a human-readable message.
type AppError struct {
	Err        error
	Message    string
	Code       string
	StatusCode int
}

// Error implement error interface
func (e *AppError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Err.Error()
}

// Unwrap exposes the sentinel to errors.Is/As.
func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates an AppError for a sentinel.
func New(err error, message string) *AppError {
	return &AppError{
		Err:        err,
		Message:    message,
		StatusCode: StatusCode(err),
		Code:       ErrorCode(err),
	}
}

// Newf is New with a format string.
func Newf(err error, format string, args ...any) *AppError {
	return New(err, fmt.Sprintf(format, args...))
}

// Wrap prefixes err with message, keeping the chain intact.
func Wrap(err error, message string) error {
	return fmt.Errorf("%s: %w", message, err)
}

// Message returns the caller-facing message of the first AppError in the
// chain, or fallback when there is none.
func Message(err error, fallback string) string {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	return fallback
}

// StatusCode maps an error to an HTTP status.
func StatusCode(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrInvalidState):
		return http.StatusConflict
	case errors.Is(err, ErrExhaustedRetries):
		return http.StatusServiceUnavailable
	case errors.Is(err, ErrUpstreamFailure):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// ErrorCode maps an error to its response code string.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return "NOT_FOUND"
	case errors.Is(err, ErrUnauthenticated):
		return "UNAUTHENTICATED"
	case errors.Is(err, ErrForbidden):
		return "FORBIDDEN"
	case errors.Is(err, ErrInvalidInput):
		return "INVALID_INPUT"
	case errors.Is(err, ErrInvalidState):
		return "INVALID_STATE"
	case errors.Is(err, ErrExhaustedRetries):
		return "EXHAUSTED_RETRIES"
	case errors.Is(err, ErrUpstreamFailure):
		return "UPSTREAM_FAILURE"
	default:
		return "INTERNAL_ERROR"
	}
}

// IsDomain reports whether err is one of the expected business failures
// (as opposed to an infrastructure fault).
func IsDomain(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrInvalidState) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrExhaustedRetries) ||
		errors.Is(err, ErrUpstreamFailure)
}

// Is is errors.Is, re-exported so callers need one import.
func Is(err, target error) bool {
	return errors.Is(err, target)
}
