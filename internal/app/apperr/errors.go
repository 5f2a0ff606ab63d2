// Package apperr holds the application-layer error type shared by every service.
// Each Error maps 1:1 onto an HTTP error response.
package apperr

import (
	"errors"
	"net/http"

	"github.com/chibo-dx/roster-api/internal/domain"
)

const (
	CodeValidation = "VALIDATION_ERROR"
	CodeForbidden  = "FORBIDDEN"
	CodeInternal   = "INTERNAL"

	CodeEditRequestNotFound  = "EDIT_REQUEST_NOT_FOUND"
	CodeMemberNotFound       = "MEMBER_NOT_FOUND"
	CodeMemberNotProvisioned = "MEMBER_NOT_PROVISIONED"
	CodeFeeNotFound          = "FEE_NOT_FOUND"
	CodeMeetingNotFound      = "MEETING_NOT_FOUND"

	CodeVersionConflict     = "VERSION_CONFLICT"
	CodeEditRequestPending  = "EDIT_REQUEST_PENDING"
	CodeMemberAlreadyExists = "MEMBER_ALREADY_EXISTS"
	CodeSubjectAlreadyBound = "SUBJECT_ALREADY_BOUND"
	CodeIdempotencyKeyReuse = "IDEMPOTENCY_KEY_REUSE"
	CodeFeeAlreadyExists    = "FEE_ALREADY_EXISTS"

	CodeAdvisorUnavailable = "ADVISOR_UNAVAILABLE"
)

// Error is an application-layer error that can be mapped to an HTTP response.
type Error struct {
	Status  int
	Code    string
	Message string
	Details map[string]any

	// Err is the underlying cause, if any. It is never shown to callers.
	Err error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Message != "" {
		return e.Message
	}
	return e.Code
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func NotFound(code, message string) *Error {
	return &Error{Status: http.StatusNotFound, Code: code, Message: message}
}

func Forbidden(message string) *Error {
	return &Error{Status: http.StatusForbidden, Code: CodeForbidden, Message: message}
}

func Conflict(code, message string) *Error {
	return &Error{Status: http.StatusConflict, Code: code, Message: message}
}

func Upstream(code, message string, cause error) *Error {
	return &Error{Status: http.StatusBadGateway, Code: code, Message: message, Err: cause}
}

// Invalid builds a 422 with a single field detail.
func Invalid(message, field, reason string) *Error {
	return &Error{
		Status:  http.StatusUnprocessableEntity,
		Code:    CodeValidation,
		Message: message,
		Details: map[string]any{field: reason},
	}
}

// FromValidation converts a *domain.ValidationError into a 422. Any other error is
// returned unchanged.
func FromValidation(message string, err error) error {
	var ve *domain.ValidationError
	if !errors.As(err, &ve) {
		return err
	}
	details := make(map[string]any, len(ve.Fields))
	for k, v := range ve.Fields {
		details[k] = v
	}
	return &Error{
		Status:  http.StatusUnprocessableEntity,
		Code:    CodeValidation,
		Message: message,
		Details: details,
		Err:     err,
	}
}

// As extracts an *Error from err's chain.
func As(err error) (*Error, bool) {
	var ae *Error
	if errors.As(err, &ae) && ae != nil {
		return ae, true
	}
	return nil, false
}

// HasCode reports whether err carries an *Error with the given code.
func HasCode(err error, code string) bool {
	ae, ok := As(err)
	return ok && ae.Code == code
}
