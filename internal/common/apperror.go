package common

import (
	"errors"
	"fmt"
)

// Kind classifies an AppError so that a transport can pick a status code
// without knowing anything about the operation that failed.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindUnprocessable
	KindAuthentication
	KindAuthorization
	KindNotFound
	KindConflict
	KindLocked
	KindRateLimited
	KindPayloadTooLarge
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindUnprocessable:
		return "unprocessable"
	case KindAuthentication:
		return "authentication"
	case KindAuthorization:
		return "authorization"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindLocked:
		return "locked"
	case KindRateLimited:
		return "rate_limited"
	case KindPayloadTooLarge:
		return "payload_too_large"
	default:
		return "internal"
	}
}

// AppError is a user-facing failure. Message is safe to return to the caller;
// Details is optional extra context (a string or a small map) that is returned
// alongside it. Err carries the underlying cause for logs only.
type AppError struct {
	Kind    Kind
	Message string
	Details any
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *AppError) Unwrap() error { return e.Err }

// WithDetails returns a copy of e carrying details.
func (e *AppError) WithDetails(details any) *AppError {
	c := *e
	c.Details = details
	return &c
}

func NewValidationError(msg string) *AppError {
	return &AppError{Kind: KindValidation, Message: msg}
}

func NewUnprocessableError(msg string) *AppError {
	return &AppError{Kind: KindUnprocessable, Message: msg}
}

func NewAuthenticationError(msg string) *AppError {
	return &AppError{Kind: KindAuthentication, Message: msg}
}

func NewAuthorizationError(msg string) *AppError {
	return &AppError{Kind: KindAuthorization, Message: msg}
}

func NewNotFoundError(msg string) *AppError {
	return &AppError{Kind: KindNotFound, Message: msg}
}

func NewConflictError(msg string) *AppError {
	return &AppError{Kind: KindConflict, Message: msg}
}

func NewLockedError(msg string) *AppError {
	return &AppError{Kind: KindLocked, Message: msg}
}

func NewRateLimitError(msg string) *AppError {
	return &AppError{Kind: KindRateLimited, Message: msg}
}

func NewPayloadTooLargeError(msg string) *AppError {
	return &AppError{Kind: KindPayloadTooLarge, Message: msg}
}

// NewInternalError wraps err. The message returned to callers is always the
// generic one; err is only ever logged.
func NewInternalError(err error) *AppError {
	return &AppError{Kind: KindInternal, Message: InternalErrorMessage, Err: err}
}

// AsAppError extracts an *AppError from err. Any other error is reported as
// an internal error wrapping it.
func AsAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return NewInternalError(err)
}
