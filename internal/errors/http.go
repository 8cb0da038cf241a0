package errors

import (
	"context"
	"errors"
	"net/http"
)

// MapHTTPStatus maps a non-2xx API status to an AppError carrying cause.
func MapHTTPStatus(status int, cause error) *AppError {
	switch status {
	case http.StatusUnauthorized:
		return Wrap(cause, ErrCodeAuthorizationExpired, "Your session has expired. Please sign in again.")
	case http.StatusForbidden:
		return Wrap(cause, ErrCodeForbidden, "You do not have permission to perform this action.")
	case http.StatusNotFound:
		return Wrap(cause, ErrCodeNotFound, "Resource not found")
	case http.StatusConflict:
		return Wrap(cause, ErrCodeConflict, "This value already exists. Please choose a different one.")
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return Wrap(cause, ErrCodeValidation, "The server rejected the request.")
	default:
		return Wrap(cause, ErrCodeTransientIO, "The task API request failed.")
	}
}

// MapTransportError maps a failure to obtain any HTTP response.
func MapTransportError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &AppError{
			Code:    ErrCodeTimeout,
			Message: "Request timed out. Please try again.",
			Cause:   err,
		}
	}
	if errors.Is(err, context.Canceled) {
		return &AppError{
			Code:    ErrCodeCanceled,
			Message: "Request was canceled.",
			Cause:   err,
		}
	}
	return Wrap(err, ErrCodeTransientIO, "The task API could not be reached.")
}
