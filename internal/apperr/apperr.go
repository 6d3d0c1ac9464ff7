// Package apperr provides the unified error type for the skillloop backend.
// Every service returns *AppError for expected failures; handlers translate
// them to HTTP status codes and structured JSON bodies.
package apperr

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// Code is a machine-readable error code.
type Code string

const (
	// CodeInvalidInput indicates the input is invalid.
	CodeInvalidInput Code = "INVALID_INPUT"
	// CodeUnauthorized indicates the request lacks valid credentials.
	CodeUnauthorized Code = "UNAUTHORIZED"
	// CodeForbidden indicates the caller may not perform this action.
	CodeForbidden Code = "FORBIDDEN"
	// CodeTokenExpired indicates the authentication token has expired.
	CodeTokenExpired Code = "TOKEN_EXPIRED"
	// CodeInvalidToken indicates the authentication token is invalid.
	CodeInvalidToken Code = "INVALID_TOKEN"
	// CodeNotFound indicates the requested resource was not found.
	CodeNotFound Code = "NOT_FOUND"
	// CodeAlreadyExists indicates the resource already exists.
	CodeAlreadyExists Code = "ALREADY_EXISTS"
	// CodeInternal indicates an unexpected server-side failure.
	CodeInternal Code = "INTERNAL_ERROR"
)

// AppError is the unified application error type.
type AppError struct {
	// Code is a machine-readable error code.
	Code Code `json:"code"`
	// Message is a human-readable error message safe to send to clients.
	Message string `json:"message"`
	// HTTPStatus is the HTTP status code for this error.
	HTTPStatus int `json:"-"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error. Never serialized to clients.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// --- Constructors ---

// InvalidInput creates an AppError for invalid input.
func InvalidInput(field, reason string) *AppError {
	details := make(map[string]any)
	if field != "" {
		details["field"] = field
	}
	return &AppError{
		Code: CodeInvalidInput, Message: fmt.Sprintf("Invalid input: %s", reason),
		HTTPStatus: http.StatusBadRequest, Details: details,
	}
}

// Validation creates an AppError carrying a validation message verbatim.
func Validation(message string) *AppError {
	return &AppError{
		Code: CodeInvalidInput, Message: message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// Unauthorized creates an AppError for unauthenticated or bad-credential requests.
func Unauthorized(reason string) *AppError {
	if reason == "" {
		reason = "Authentication required."
	}
	return &AppError{
		Code: CodeUnauthorized, Message: reason,
		HTTPStatus: http.StatusUnauthorized,
	}
}

// Forbidden creates an AppError for a caller acting outside their rights.
func Forbidden(reason string) *AppError {
	if reason == "" {
		reason = "You don't have permission to perform this action."
	}
	return &AppError{
		Code: CodeForbidden, Message: reason,
		HTTPStatus: http.StatusForbidden,
	}
}

// TokenExpired creates an AppError for an expired authentication token.
func TokenExpired() *AppError {
	return &AppError{
		Code: CodeTokenExpired, Message: "Token expired",
		HTTPStatus: http.StatusUnauthorized,
	}
}

// InvalidToken creates an AppError for a malformed or badly signed token.
func InvalidToken() *AppError {
	return &AppError{
		Code: CodeInvalidToken, Message: "Invalid token",
		HTTPStatus: http.StatusUnauthorized,
	}
}

// NotFound creates an AppError for a resource that was not found.
func NotFound(resource, id string) *AppError {
	details := map[string]any{"resource": resource}
	if id != "" {
		details["id"] = id
	}
	return &AppError{
		Code: CodeNotFound, Message: fmt.Sprintf("The requested %s was not found.", resource),
		HTTPStatus: http.StatusNotFound, Details: details,
	}
}

// AlreadyExists creates an AppError for a resource that already exists.
func AlreadyExists(resource string) *AppError {
	return &AppError{
		Code: CodeAlreadyExists, Message: fmt.Sprintf("A %s with these details already exists.", resource),
		HTTPStatus: http.StatusBadRequest,
		Details:    map[string]any{"resource": resource},
	}
}

// Internal creates an AppError for an unexpected failure. The cause is logged
// server-side; clients only see the generic message.
func Internal(cause error) *AppError {
	return &AppError{
		Code: CodeInternal, Message: "An unexpected error occurred. Please try again.",
		HTTPStatus: http.StatusInternalServerError, Cause: cause,
	}
}

// IsCode reports whether err is an *AppError with the given code.
func IsCode(err error, code Code) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr) && appErr.Code == code
}

// As converts an error to an *AppError if possible.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
