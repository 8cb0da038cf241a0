package errors

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

// ErrorCode represents a category of application error.
type ErrorCode string

const (
	// ErrCodeAuthenticationFailed indicates the login endpoint rejected the credentials.
	ErrCodeAuthenticationFailed ErrorCode = "authentication_failed"
	// ErrCodeAuthorizationExpired indicates an authenticated request was answered with 401.
	ErrCodeAuthorizationExpired ErrorCode = "authorization_expired"
	// ErrCodeSelfDeletionForbidden indicates an attempt to delete the acting account.
	ErrCodeSelfDeletionForbidden ErrorCode = "self_deletion_forbidden"
	// ErrCodePartialCascadeFailure indicates one or more dependent task deletions failed.
	ErrCodePartialCascadeFailure ErrorCode = "partial_cascade_failure"
	// ErrCodeCascadeFailed indicates the final user deletion of a cascade failed.
	ErrCodeCascadeFailed ErrorCode = "cascade_failed"
	// ErrCodeTransientIO indicates any other network or server failure.
	ErrCodeTransientIO ErrorCode = "transient_io"
	// ErrCodeForbidden indicates the session lacks the role an operation needs.
	ErrCodeForbidden ErrorCode = "forbidden"
	// ErrCodeNotFound indicates a resource was not found.
	ErrCodeNotFound ErrorCode = "not_found"
	// ErrCodeConflict indicates a conflict with existing data.
	ErrCodeConflict ErrorCode = "conflict"
	// ErrCodeValidation indicates invalid input data.
	ErrCodeValidation ErrorCode = "validation"
	// ErrCodeInternal indicates an internal error.
	ErrCodeInternal ErrorCode = "internal"
	// ErrCodeTimeout indicates a timeout occurred.
	ErrCodeTimeout ErrorCode = "timeout"
	// ErrCodeCanceled indicates the operation was canceled.
	ErrCodeCanceled ErrorCode = "canceled"
)

// AppError represents a structured application error with a code, message, and optional cause.
// It supports error wrapping and unwrapping for use with errors.Is and errors.As.
type AppError struct {
	// Code categorizes the error type
	Code ErrorCode
	// Message is a human-readable error message
	Message string
	// Cause is the underlying error that caused this error (optional)
	Cause error
	// Field is the specific field that caused the error (optional, for validation errors)
	Field string
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause, enabling errors.Is and errors.As.
func (e *AppError) Unwrap() error {
	return e.Cause
}

func newCode(code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// AuthenticationFailed creates a new AuthenticationFailed error.
func AuthenticationFailed(message string) *AppError {
	return newCode(ErrCodeAuthenticationFailed, message)
}

// SelfDeletionForbidden creates a new SelfDeletionForbidden error.
func SelfDeletionForbidden(message string) *AppError {
	return newCode(ErrCodeSelfDeletionForbidden, message)
}

// Forbidden creates a new Forbidden error.
func Forbidden(message string) *AppError {
	return newCode(ErrCodeForbidden, message)
}

// NotFound creates a new NotFound error.
func NotFound(message string) *AppError {
	return newCode(ErrCodeNotFound, message)
}

// NotFoundf creates a new NotFound error with formatted message.
func NotFoundf(format string, args ...any) *AppError {
	return newCode(ErrCodeNotFound, fmt.Sprintf(format, args...))
}

// Validation creates a new Validation error.
func Validation(message string) *AppError {
	return newCode(ErrCodeValidation, message)
}

// ValidationField creates a new Validation error for a specific field.
func ValidationField(field, message string) *AppError {
	return &AppError{
		Code:    ErrCodeValidation,
		Message: message,
		Field:   field,
	}
}

// Internal creates a new Internal error.
func Internal(message string) *AppError {
	return newCode(ErrCodeInternal, message)
}

// Wrap wraps an existing error with an AppError, preserving the cause.
func Wrap(err error, code ErrorCode, message string) *AppError {
	if err == nil {
		return nil
	}
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// Wrapf wraps an existing error with an AppError and formatted message.
func Wrapf(err error, code ErrorCode, format string, args ...any) *AppError {
	return Wrap(err, code, fmt.Sprintf(format, args...))
}

// Ensure classifies err for the core boundary: an AppError anywhere in the
// chain is returned as is; anything else is wrapped as transient_io.
func Ensure(err error, message string) error {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return err
	}
	return Wrap(err, ErrCodeTransientIO, message)
}

// isCode checks if an error has a specific error code.
func isCode(err error, code ErrorCode) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

// IsAuthenticationFailed checks if an error is an AuthenticationFailed error.
func IsAuthenticationFailed(err error) bool {
	return isCode(err, ErrCodeAuthenticationFailed)
}

// IsAuthorizationExpired checks if an error is an AuthorizationExpired error.
func IsAuthorizationExpired(err error) bool {
	return isCode(err, ErrCodeAuthorizationExpired)
}

// IsSelfDeletionForbidden checks if an error is a SelfDeletionForbidden error.
func IsSelfDeletionForbidden(err error) bool {
	return isCode(err, ErrCodeSelfDeletionForbidden)
}

// IsCascadeFailed checks if an error is a CascadeFailed error.
func IsCascadeFailed(err error) bool {
	return isCode(err, ErrCodeCascadeFailed)
}

// IsTransientIO checks if an error is a TransientIO error.
func IsTransientIO(err error) bool {
	return isCode(err, ErrCodeTransientIO)
}

// IsForbidden checks if an error is a Forbidden error.
func IsForbidden(err error) bool {
	return isCode(err, ErrCodeForbidden)
}

// IsNotFound checks if an error is a NotFound error.
func IsNotFound(err error) bool {
	return isCode(err, ErrCodeNotFound)
}

// IsConflict checks if an error is a Conflict error.
func IsConflict(err error) bool {
	return isCode(err, ErrCodeConflict)
}

// IsValidation checks if an error is a Validation error.
func IsValidation(err error) bool {
	return isCode(err, ErrCodeValidation)
}

// IsTimeout checks if an error is a Timeout error.
func IsTimeout(err error) bool {
	return isCode(err, ErrCodeTimeout)
}

// IsCanceled checks if an error is a Canceled error.
func IsCanceled(err error) bool {
	return isCode(err, ErrCodeCanceled)
}

// GetCode returns the ErrorCode from an error, or empty string if not an AppError.
func GetCode(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// GetField returns the Field from an error, or empty string if not an AppError or no field set.
func GetField(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Field
	}
	return ""
}

// innermost follows the wrap chain to its root cause. Joined errors
// (errors.Join, fmt.Errorf with several %w) continue through their first cause.
func innermost(err error) error {
	for {
		switch u := err.(type) {
		case interface{ Unwrap() []error }:
			errs := u.Unwrap()
			if len(errs) == 0 {
				return err
			}
			err = errs[0]
		case interface{ Unwrap() error }:
			next := u.Unwrap()
			if next == nil {
				return err
			}
			err = next
		default:
			return err
		}
	}
}

// Classify returns a normalized error name suitable for tagging logs.
// AppErrors report their code; other errors report the innermost concrete type in snake_case-ish form.
func Classify(err error) string {
	if err == nil {
		return ""
	}
	if code := GetCode(err); code != "" {
		return string(code)
	}

	t := reflect.TypeOf(innermost(err))
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil {
		return "unknown"
	}

	name := strings.ToLower(strings.ReplaceAll(t.String(), "*", ""))
	name = strings.ReplaceAll(name, ".", "_")
	if name == "" {
		return "unknown"
	}
	return name
}
