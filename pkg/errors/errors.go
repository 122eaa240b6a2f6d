// Package errors provides the unified error type and factory functions for
// TreatIQ-Intelligence.  Every layer (engine, store, transport) uses AppError as
// the single carrier for structured error information, so HTTP responses, CLI
// exit messages, worker DLQ records and logs all agree on the same codes.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ─────────────────────────────────────────────────────────────────────────────
// AppError
// ─────────────────────────────────────────────────────────────────────────────

// AppError is the single structured error type used throughout the platform.
// It supports errors.Is / errors.As / errors.Unwrap through Unwrap.
//
// Usage:
//
//	return errors.New(errors.ErrCodeTreatmentNotFound, "treatment not found")
//	return errors.Wrap(err, errors.ErrCodeStoreQuery, "fetch treatments")
//	return errors.NewValidationError("age must not be negative").WithDetail("age=-3")
type AppError struct {
	// Code uniquely identifies the failure category.
	Code ErrorCode

	// Message is the primary human-readable description, safe for API responses.
	Message string

	// Detail carries supplementary context such as offending identifiers.
	Detail string

	// Cause is the underlying error, if any.
	Cause error
}

// Error implements the error interface.
// Format: "[<code>] <message>: <detail>: <cause>"; empty segments are omitted.
func (e *AppError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] %s", e.Code, e.Message)
	if e.Detail != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Detail)
	}
	if e.Cause != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Cause.Error())
	}
	return sb.String()
}

// Unwrap returns the underlying cause.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is matches another *AppError by code so that sentinel comparisons work:
//
//	errors.Is(err, errors.New(errors.ErrCodeTreatmentNotFound, ""))
func (e *AppError) Is(target error) bool {
	var t *AppError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// WithDetail returns a copy of the receiver with Detail set.  Nil-safe.
func (e *AppError) WithDetail(detail string) *AppError {
	if e == nil {
		return nil
	}
	clone := *e
	clone.Detail = detail
	return &clone
}

// WithCause returns a copy of the receiver with Cause set.  Nil-safe.
func (e *AppError) WithCause(err error) *AppError {
	if e == nil {
		return nil
	}
	clone := *e
	clone.Cause = err
	return &clone
}

// HTTPStatus returns the HTTP status associated with the error code.
func (e *AppError) HTTPStatus() int {
	return HTTPStatusForCode(e.Code)
}

// ─────────────────────────────────────────────────────────────────────────────
// Factories
// ─────────────────────────────────────────────────────────────────────────────

// New constructs an AppError with code and message.
func New(code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// Newf constructs an AppError with a formatted message.
func Newf(code ErrorCode, format string, args ...interface{}) *AppError {
	return &AppError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches code and message to err.  Wrap(nil, ...) returns nil.
func Wrap(err error, code ErrorCode, message string) *AppError {
	if err == nil {
		return nil
	}
	return &AppError{Code: code, Message: message, Cause: err}
}

// Wrapf is Wrap with a formatted message.
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *AppError {
	if err == nil {
		return nil
	}
	return &AppError{Code: code, Message: fmt.Sprintf(format, args...), Cause: err}
}

// NewValidationError reports a malformed patient profile.
func NewValidationError(message string) *AppError {
	return New(ErrCodeInvalidProfile, message)
}

// NewInvalidTreatmentIDsError reports an empty or malformed treatment id list.
func NewInvalidTreatmentIDsError(message string) *AppError {
	return New(ErrCodeInvalidTreatmentIDs, message)
}

// NewNotFoundError reports treatment ids the store could not resolve.
func NewNotFoundError(missing []string) *AppError {
	return New(ErrCodeTreatmentNotFound, "one or more treatments could not be resolved").
		WithDetail("missing=" + strings.Join(missing, ","))
}

// NewComputationError reports an invariant violation while scoring one treatment.
func NewComputationError(treatmentID, message string) *AppError {
	return New(ErrCodeComputation, message).WithDetail("treatment_id=" + treatmentID)
}

// ─────────────────────────────────────────────────────────────────────────────
// Inspection helpers
// ─────────────────────────────────────────────────────────────────────────────

// GetCode returns the code of the first AppError in err's chain, or
// ErrCodeInternal when there is none.
func GetCode(err error) ErrorCode {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Code
	}
	return ErrCodeInternal
}

// IsCode reports whether any AppError in err's chain carries code.
func IsCode(err error, code ErrorCode) bool {
	for err != nil {
		var ae *AppError
		if !errors.As(err, &ae) {
			return false
		}
		if ae.Code == code {
			return true
		}
		err = ae.Cause
	}
	return false
}

// IsValidation reports whether err is any kind of input validation failure.
func IsValidation(err error) bool {
	return IsCode(err, ErrCodeValidation) ||
		IsCode(err, ErrCodeInvalidProfile) ||
		IsCode(err, ErrCodeInvalidTreatmentIDs) ||
		IsCode(err, ErrCodeBadRequest)
}

// IsNotFound reports whether err is a not-found failure.
func IsNotFound(err error) bool {
	return IsCode(err, ErrCodeNotFound) || IsCode(err, ErrCodeTreatmentNotFound)
}

// IsComputation reports whether err is a per-treatment computation failure.
func IsComputation(err error) bool {
	return IsCode(err, ErrCodeComputation)
}

// As is a re-export of errors.As so callers need only one errors import.
func As(err error, target interface{}) bool { return errors.As(err, target) }

// Is is a re-export of errors.Is.
func Is(err, target error) bool { return errors.Is(err, target) }

//Personal.AI order the ending
