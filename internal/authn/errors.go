package authn

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies authentication and authorization failures.
type Code string

// Failure codes. Everything here resolves to a response for the single
// request; nothing is fatal to the process.
const (
	CodeMissingCredential Code = "missing_credential"
	CodeMalformed         Code = "malformed_token"
	CodeExpired           Code = "token_expired"
	CodeRevoked           Code = "token_revoked"
	CodeSubjectNotFound   Code = "subject_not_found"
	CodeAccountDisabled   Code = "account_disabled"
	CodeUnauthenticated   Code = "unauthenticated"
	CodeStorageFailure    Code = "storage_failure"
)

// HTTPStatus maps a failure code to its response status.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeAccountDisabled:
		return http.StatusForbidden
	case CodeStorageFailure:
		return http.StatusInternalServerError
	default:
		return http.StatusUnauthorized
	}
}

// Error is a typed authentication failure. The Message is safe to return
// to clients; wrapped internal detail stays in logs.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("authn: %s: %v", e.Code, e.Err)
	}
	return fmt.Sprintf("authn: %s", e.Code)
}

// Unwrap exposes the wrapped cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// NewError constructs a typed failure.
func NewError(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Err: cause}
}

// AsError extracts a typed failure from err. Any other error is mapped to
// CodeStorageFailure so that unexpected storage errors are recovered once
// at the pipeline boundary instead of leaking to the transport layer.
func AsError(err error) *Error {
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return NewError(CodeStorageFailure, "internal error", err)
}
