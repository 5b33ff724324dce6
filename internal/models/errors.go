package models

import (
	"errors"
	"fmt"
)

// ErrNoDocument is returned by stores when a lookup matches nothing.
var ErrNoDocument = errors.New("document not found")

// Error codes reported to API clients.
const (
	CodeInvalidID      = "INVALID_ID"
	CodeNotFound       = "NOT_FOUND"
	CodeNotAuthorized  = "NOT_AUTHORIZED"
	CodeValidation     = "VALIDATION_ERROR"
	CodeDuplicateUser  = "DUPLICATE_USER"
	CodeDuplicateKey   = "DUPLICATE_KEY"
	CodeAuthentication = "AUTHENTICATION_ERROR"
	CodeRateLimited    = "RATE_LIMITED"
	CodeInternal       = "INTERNAL_ERROR"
)

// AppError is an error that is safe to report to the caller.
type AppError struct {
	Code    string
	Message string
	// Field names the offending input for DUPLICATE_KEY errors.
	Field string
	Err   error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// HasCode reports whether err wraps an AppError with the given code.
func HasCode(err error, code string) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

func NewInvalidIDError(message string) *AppError {
	return &AppError{Code: CodeInvalidID, Message: message}
}

func NewNotFoundError(message string) *AppError {
	return &AppError{Code: CodeNotFound, Message: message}
}

func NewNotAuthorizedError(message string) *AppError {
	return &AppError{Code: CodeNotAuthorized, Message: message}
}

func NewValidationError(message string) *AppError {
	return &AppError{Code: CodeValidation, Message: message}
}

func NewDuplicateUserError() *AppError {
	return &AppError{Code: CodeDuplicateUser, Message: "User already exists"}
}

// NewDuplicateKeyError reports a unique index violation on field.
func NewDuplicateKeyError(field string, err error) *AppError {
	return &AppError{Code: CodeDuplicateKey, Message: fmt.Sprintf("%s should be unique", field), Field: field, Err: err}
}

// IsDuplicateOn reports whether err is a DUPLICATE_KEY error on field.
func IsDuplicateOn(err error, field string) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == CodeDuplicateKey && appErr.Field == field
}

// NewAuthenticationError is deliberately the same for an unknown email and a wrong password.
func NewAuthenticationError() *AppError {
	return &AppError{Code: CodeAuthentication, Message: "Incorrect email or password"}
}

func NewRateLimitedError() *AppError {
	return &AppError{Code: CodeRateLimited, Message: "Too many login attempts, try again later"}
}

func NewInternalError(err error) *AppError {
	return &AppError{Code: CodeInternal, Message: "Internal server error", Err: err}
}
