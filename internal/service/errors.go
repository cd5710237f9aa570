package service

import (
	"errors"
	"fmt"
)

var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrUserNotFound      = errors.New("user not found")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrNotFound          = errors.New("not found")
	ErrForbidden         = errors.New("forbidden")
	ErrInvalidState      = errors.New("invalid state")
	ErrConflict          = errors.New("conflict")
	ErrInvalidLogin      = errors.New("invalid email or password")
	ErrSuspended         = errors.New("account suspended")
	ErrNotConfigured     = errors.New("not configured")
)

// ValidationError is a user-facing failure. Err, when set, classifies it
// (ErrInsufficientFunds, ErrInvalidState...) for status mapping.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Unwrap() error { return e.Err }

func invalid(field, msg string) error {
	return &ValidationError{Field: field, Message: msg}
}

func invalidf(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// userError wraps a sentinel with the message shown to the caller.
func userError(kind error, format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...), Err: kind}
}
