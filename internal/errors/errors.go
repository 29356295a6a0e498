// Package errors provides the domain error taxonomy shared by the dashboard service,
// its readers and both API surfaces.
//
// Every failure that reaches a caller carries one of a small set of codes:
//
//	CREDENTIAL_EXPIRED  the held provider or bearer token can no longer be used;
//	                    the only recovery is signing in again
//	REMOTE_ERROR        Gmail or Calendar answered with a non-auth failure
//	STORE_ERROR         the tag store failed
//	VALIDATION_ERROR    input was rejected before any network call
//	NOT_FOUND           the referenced entity does not exist for this user
//	SUPERSEDED          a newer load replaced this one; its result was discarded
//
// Codes survive %w wrapping, so handlers can match with errors.Is against the
// sentinels or extract the *Error with errors.As.
package errors

import (
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/api/googleapi"
)

// Re-export standard library functions for convenience.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	Join   = errors.Join
	New    = errors.New
)

// Code is a machine-readable error code.
type Code string

const (
	CodeCredentialExpired Code = "CREDENTIAL_EXPIRED"
	CodeRemote            Code = "REMOTE_ERROR"
	CodeStore             Code = "STORE_ERROR"
	CodeValidation        Code = "VALIDATION_ERROR"
	CodeNotFound          Code = "NOT_FOUND"
	CodeSuperseded        Code = "SUPERSEDED"
	CodeInternal          Code = "INTERNAL"
)

// HTTPStatus returns the HTTP status code for an error code.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeCredentialExpired:
		return http.StatusUnauthorized
	case CodeRemote:
		return http.StatusBadGateway
	case CodeValidation:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeSuperseded:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Error is a domain error with a code, message, and optional details.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Is matches any *Error with the same code.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// HTTPStatus returns the HTTP status code for this error.
func (e *Error) HTTPStatus() int {
	return e.Code.HTTPStatus()
}

// WithDetails returns a copy of e carrying details.
func (e *Error) WithDetails(details any) *Error {
	return &Error{Code: e.Code, Message: e.Message, Details: details, cause: e.cause}
}

// Sentinels for errors.Is.
var (
	ErrCredentialExpired = &Error{Code: CodeCredentialExpired, Message: "credential expired"}
	ErrRemote            = &Error{Code: CodeRemote, Message: "remote service error"}
	ErrStore             = &Error{Code: CodeStore, Message: "store error"}
	ErrValidation        = &Error{Code: CodeValidation, Message: "validation error"}
	ErrNotFound          = &Error{Code: CodeNotFound, Message: "not found"}
	ErrSuperseded        = &Error{Code: CodeSuperseded, Message: "load superseded"}
	ErrInternal          = &Error{Code: CodeInternal, Message: "internal error"}
)

// CredentialExpired creates a credential-expired error.
func CredentialExpired(msg string) *Error {
	return &Error{Code: CodeCredentialExpired, Message: msg}
}

// Validation creates a validation error.
func Validation(msg string) *Error {
	return &Error{Code: CodeValidation, Message: msg}
}

// Validationf creates a validation error with a formatted message.
func Validationf(format string, args ...any) *Error {
	return &Error{Code: CodeValidation, Message: fmt.Sprintf(format, args...)}
}

// ValidationWithDetails creates a validation error with details.
func ValidationWithDetails(msg string, details any) *Error {
	return &Error{Code: CodeValidation, Message: msg, Details: details}
}

// NotFoundf creates a not found error with a formatted message.
func NotFoundf(format string, args ...any) *Error {
	return &Error{Code: CodeNotFound, Message: fmt.Sprintf(format, args...)}
}

// Wrap wraps err with a code and message.
func Wrap(err error, code Code, msg string) *Error {
	return &Error{Code: code, Message: msg, cause: err}
}

// Store wraps a tag store failure. Errors that already carry a code pass through.
func Store(err error, msg string) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return Wrap(err, CodeStore, msg)
}

// CodeOf returns the code carried by err, or CodeInternal when err has none.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// IsCredentialExpired reports whether err means the held credential is unusable.
func IsCredentialExpired(err error) bool {
	return errors.Is(err, ErrCredentialExpired)
}

// FromGoogle maps an error returned by a Google API client call into the domain
// taxonomy. 401 and 403 become credential-expired regardless of endpoint, 404 becomes
// not found, and every other API failure becomes a remote error carrying the server
// message when one was sent.
func FromGoogle(err error, op string) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch gerr.Code {
		case http.StatusUnauthorized, http.StatusForbidden:
			return Wrap(err, CodeCredentialExpired, op+": credential expired")
		case http.StatusNotFound:
			return Wrap(err, CodeNotFound, op+": not found")
		}
		msg := gerr.Message
		if msg == "" {
			msg = fmt.Sprintf("remote service returned status %d", gerr.Code)
		}
		return Wrap(err, CodeRemote, op+": "+msg)
	}
	return Wrap(err, CodeRemote, op+": request failed")
}
