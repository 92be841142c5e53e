package dto

import (
	"math"

	apperrors "tableline/internal/errors"
)

// ===========================================================================
// Response DTOs
// Standard envelope of the dashboard API.
// ===========================================================================

// Response is the envelope of every dashboard API response.
type Response struct {
	// Success whether the request succeeded
	Success bool `json:"success"`

	// Data payload (on success)
	Data interface{} `json:"data,omitempty"`

	// Error details (on failure)
	Error *APIError `json:"error,omitempty"`

	// Meta paging info (list endpoints)
	Meta *Meta `json:"meta,omitempty"`
}

// APIError is the error body.
type APIError struct {
	// Code machine-readable code (e.g. "NOT_FOUND", "INVALID_INPUT")
	Code string `json:"code"`

	// Message human-readable detail
	Message string `json:"message"`

	// Fields names the request fields that failed validation
	Fields []string `json:"fields,omitempty"`
}

// Meta is paging info.
type Meta struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"total_pages"`
}

// NewMeta builds Meta from paging parameters.
func NewMeta(page, limit int, total int64) *Meta {
	totalPages := 0
	if limit > 0 {
		totalPages = int(math.Ceil(float64(total) / float64(limit)))
	}
	return &Meta{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages,
	}
}

// ===========================================================================
// Response Builders
// ===========================================================================

// Success wraps data in a successful response.
func Success(data interface{}) Response {
	return Response{
		Success: true,
		Data:    data,
	}
}

// SuccessWithMeta wraps a page of data.
func SuccessWithMeta(data interface{}, meta *Meta) Response {
	return Response{
		Success: true,
		Data:    data,
		Meta:    meta,
	}
}

// Error builds a failed response.
func Error(code, message string) Response {
	return Response{
		Success: false,
		Error: &APIError{
			Code:    code,
			Message: message,
		},
	}
}

// ValidationFailed builds a failed response listing invalid fields.
func ValidationFailed(message string, fields []string) Response {
	return Response{
		Success: false,
		Error: &APIError{
			Code:    apperrors.ErrorCode(apperrors.ErrInvalidInput),
			Message: message,
			Fields:  fields,
		},
	}
}

// ErrorFromErr builds a failed response and its HTTP status from err.
// Unexpected errors never leak their text.
func ErrorFromErr(err error) (int, Response) {
	status := apperrors.StatusCode(err)
	message := apperrors.Message(err, "An internal error occurred")
	if status >= 500 && !apperrors.IsDomain(err) {
		message = "An internal error occurred"
	}
	return status, Error(apperrors.ErrorCode(err), message)
}
