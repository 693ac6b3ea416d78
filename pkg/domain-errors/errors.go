// Package domainerrors provides code-based domain errors shared across
// services and transport layers. Services create or wrap errors with a Code;
// handlers translate codes to HTTP statuses with ToHTTPStatus so transport
// mapping lives in exactly one place.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies a domain error for transport mapping and branching.
type Code string

const (
	// CodeValidation marks malformed caller input caught before any network
	// or store call (missing fields, bad email shape, short password).
	CodeValidation Code = "validation"
	// CodeInvalidInput marks values that fail domain-level parsing (ids).
	CodeInvalidInput Code = "invalid_input"
	// CodeBadRequest marks structurally invalid requests (unparseable body,
	// missing required payload fields).
	CodeBadRequest Code = "bad_request"
	// CodeUnauthorized marks failed authentication or a rejected signature.
	CodeUnauthorized Code = "unauthorized"
	// CodeForbidden marks an authenticated caller lacking the required role.
	CodeForbidden Code = "forbidden"
	// CodeNotFound marks a missing entity.
	CodeNotFound Code = "not_found"
	// CodeConflict marks uniqueness or state conflicts.
	CodeConflict Code = "conflict"
	// CodeRateLimited marks callers temporarily locked out after repeated
	// failures.
	CodeRateLimited Code = "rate_limited"
	// CodeUnavailable marks upstream provider or delivery failures.
	CodeUnavailable Code = "unavailable"
	// CodeInternal marks persistence failures and everything unexpected.
	CodeInternal Code = "internal"
)

// Error is a domain error carrying a Code, a human-readable message, and an
// optional wrapped cause.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a domain error with the given code and message.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Newf creates a domain error with a formatted message.
func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an existing error, preserving the cause
// for errors.Is/errors.As chains.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, Err: err}
}

// HasCode reports whether err (or any error in its chain) is a domain error
// with the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// Is is a readability alias for HasCode used at call sites that branch on
// a single expected code.
func Is(err error, code Code) bool {
	return HasCode(err, code)
}

// CodeOf extracts the code from err, defaulting to CodeInternal for non-domain
// errors so callers never leak raw causes to clients.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// MessageOf extracts the human-readable message from err, or a generic one.
func MessageOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	return "internal error"
}

// ToHTTPStatus maps a domain error code to an HTTP status code.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeValidation, CodeInvalidInput, CodeBadRequest:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	case CodeRateLimited:
		return http.StatusTooManyRequests
	case CodeUnavailable:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
