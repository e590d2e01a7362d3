package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode represents a unique error code
type ErrorCode string

// Error codes used across the account services
const (
	// Generic errors
	ErrCodeInternal          ErrorCode = "INTERNAL_ERROR"
	ErrCodeNotFound          ErrorCode = "NOT_FOUND"
	ErrCodeForbidden         ErrorCode = "FORBIDDEN"
	ErrCodeConflict          ErrorCode = "CONFLICT"
	ErrCodeRateLimitExceeded ErrorCode = "RATE_LIMIT_EXCEEDED"

	// Authentication errors
	ErrCodeAuthFailed         ErrorCode = "AUTH_FAILED"
	ErrCodeInvalidCredentials ErrorCode = "INVALID_CREDENTIALS"
	ErrCodeTokenExpired       ErrorCode = "TOKEN_EXPIRED"
	ErrCodeTokenInvalid       ErrorCode = "TOKEN_INVALID"

	// Account errors
	ErrCodeUserNotFound      ErrorCode = "USER_NOT_FOUND"
	ErrCodeUserAlreadyExists ErrorCode = "USER_ALREADY_EXISTS"

	// Validation errors
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrCodeMissingRequired  ErrorCode = "MISSING_REQUIRED"
	ErrCodeInvalidFormat    ErrorCode = "INVALID_FORMAT"
)

// Kind groups error codes into the categories callers branch on.
type Kind string

const (
	KindValidation     Kind = "validation"
	KindAuthentication Kind = "authentication"
	KindAuthorization  Kind = "authorization"
	KindConflict       Kind = "conflict"
	KindNotFound       Kind = "not_found"
	KindRateLimited    Kind = "rate_limited"
	KindInternal       Kind = "internal"
)

// Error represents a structured error with code, message, and optional wrapped cause
type Error struct {
	Code    ErrorCode // Unique error code
	Message string    // Human-readable error message, safe to return to clients
	Err     error     // Wrapped underlying error
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the wrapped error for errors.Is and errors.As
func (e *Error) Unwrap() error {
	return e.Err
}

// Kind returns the category of the error code
func (e *Error) Kind() Kind {
	return KindOf(e.Code)
}

// HTTPStatusCode returns the appropriate HTTP status code for this error
func (e *Error) HTTPStatusCode() int {
	return MapErrorCodeToHTTPStatus(e.Code)
}

// New creates a new Error with the given code and message
func New(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with code and message
func Wrap(err error, code ErrorCode, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// IsCode checks if an error has a specific error code
func IsCode(err error, code ErrorCode) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// IsKind checks if an error belongs to the given category
func IsKind(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind() == kind
	}
	return kind == KindInternal && err != nil
}

// GetCode extracts the error code from an error
// Returns ErrCodeInternal if the error is not a structured Error
func GetCode(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ErrCodeInternal
}

// KindOf maps an error code to its category
func KindOf(code ErrorCode) Kind {
	switch code {
	case ErrCodeValidationFailed, ErrCodeMissingRequired, ErrCodeInvalidFormat:
		return KindValidation
	case ErrCodeAuthFailed, ErrCodeInvalidCredentials, ErrCodeTokenExpired, ErrCodeTokenInvalid:
		return KindAuthentication
	case ErrCodeForbidden:
		return KindAuthorization
	case ErrCodeConflict, ErrCodeUserAlreadyExists:
		return KindConflict
	case ErrCodeNotFound, ErrCodeUserNotFound:
		return KindNotFound
	case ErrCodeRateLimitExceeded:
		return KindRateLimited
	default:
		return KindInternal
	}
}

// MapErrorCodeToHTTPStatus maps error codes to HTTP status codes
func MapErrorCodeToHTTPStatus(code ErrorCode) int {
	switch KindOf(code) {
	case KindValidation:
		return http.StatusBadRequest
	case KindAuthentication:
		return http.StatusUnauthorized
	case KindAuthorization:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// Common error constructors for frequently used errors

// Validation creates a "validation failed" error carrying the first violated rule
func Validation(message string) *Error {
	return New(ErrCodeValidationFailed, message)
}

// Unauthorized creates an authentication error
func Unauthorized(message string) *Error {
	return New(ErrCodeAuthFailed, message)
}

// Forbidden creates an authorization error
func Forbidden(message string) *Error {
	return New(ErrCodeForbidden, message)
}

// InternalWrap wraps an internal error
func InternalWrap(err error, message string) *Error {
	return Wrap(err, ErrCodeInternal, message)
}

// RateLimitExceeded creates a "rate limit exceeded" error
func RateLimitExceeded() *Error {
	return New(ErrCodeRateLimitExceeded, "Too many requests")
}
