package common

import (
	"errors"
	"net/http"
)

// Error codes shared across handler packages. The POS UI keys its notification
// messages on these, so they are part of the wire contract.
const (
	CodeBadRequest      = "BAD_REQUEST"
	CodeValidation      = "VALIDATION_ERROR"
	CodeNotFound        = "NOT_FOUND"
	CodeBarcodeNotFound = "BARCODE_NOT_FOUND"
	CodeUpstreamError   = "UPSTREAM_ERROR"
	CodeSubmitInFlight  = "SUBMISSION_IN_FLIGHT"
	CodeInternal        = "INTERNAL"
)

// AppError carries an error code and HTTP status across package boundaries.
type AppError struct {
	Code       string
	Message    string
	HTTPStatus int
	Err        error
	Details    any
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

// Unwrap allows errors.Is/As to inspect the underlying error.
func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewAppError constructs an AppError.
func NewAppError(code, message string, status int, err error) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: status, Err: err}
}

// ValidationError builds a 400 AppError for rejected user input. Validation
// failures never mutate cart state.
func ValidationError(message string, err error) *AppError {
	return &AppError{Code: CodeValidation, Message: message, HTTPStatus: http.StatusBadRequest, Err: err}
}

// IsAppError checks whether the error is an AppError.
func IsAppError(err error) bool {
	var target *AppError
	return errors.As(err, &target)
}
