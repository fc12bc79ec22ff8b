package service

import "errors"

// Code classifies a flow failure for the presentation layer
type Code string

const (
	CodeValidation         Code = "validation_error"
	CodeAlreadyExists      Code = "already_exists"
	CodeNotFound           Code = "not_found"
	CodeAlreadyVerified    Code = "already_verified"
	CodeInvalidOrExpired   Code = "invalid_or_expired"
	CodeInvalidCredentials Code = "invalid_credentials"
	CodeServerError        Code = "server_error"
)

// Error is the only error type returned by AuthService. Message is safe to
// show to the caller; internal causes are logged, never attached.
type Error struct {
	Code    Code
	Message string
	Fields  []string
}

func (e *Error) Error() string {
	return e.Message
}

// Is matches any *Error with the same code
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// Sentinels for errors.Is checks
var (
	ErrValidation         = &Error{Code: CodeValidation, Message: "Invalid fields"}
	ErrAlreadyExists      = &Error{Code: CodeAlreadyExists, Message: "User already exists"}
	ErrNotFound           = &Error{Code: CodeNotFound, Message: "User not found"}
	ErrAlreadyVerified    = &Error{Code: CodeAlreadyVerified, Message: "Email already verified"}
	ErrInvalidOrExpired   = &Error{Code: CodeInvalidOrExpired, Message: "Invalid or expired token"}
	ErrInvalidCredentials = &Error{Code: CodeInvalidCredentials, Message: "Invalid email or password"}
	ErrServer             = &Error{Code: CodeServerError, Message: "Server error"}
)

func newError(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// CodeOf extracts the code of err, defaulting to CodeServerError
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeServerError
}
